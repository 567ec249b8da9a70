// SPDX-FileCopyrightText: 2026 The npcusync Authors
// SPDX-License-Identifier: Apache-2.0

package northpass

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cast"
)

// The Northpass API speaks JSON:API: resources nest their fields under
// attributes, list endpoints paginate through a links.next cursor. This
// shape is an external contract; decode it, don't redesign it.

type document struct {
	Data  json.RawMessage `json:"data"`
	Links pageLinks       `json:"links"`
}

type pageLinks struct {
	Next string `json:"next"`
}

type resource struct {
	Type       string                 `json:"type"`
	ID         string                 `json:"id"`
	Attributes map[string]interface{} `json:"attributes"`
}

// decodeResourceList parses one page of a list endpoint, returning the page
// resources and the next-page cursor ("" on the last page).
func decodeResourceList(body []byte) ([]resource, string, error) {
	var doc document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, "", fmt.Errorf(errWrappedFmt, errJSONUnmarshal, err.Error())
	}
	var resources []resource
	if len(doc.Data) > 0 {
		if err := json.Unmarshal(doc.Data, &resources); err != nil {
			return nil, "", fmt.Errorf(errWrappedFmt, errJSONUnmarshal, err.Error())
		}
	}
	return resources, doc.Links.Next, nil
}

// decodeResourceOne parses a single-resource document.
func decodeResourceOne(body []byte) (resource, error) {
	var doc document
	if err := json.Unmarshal(body, &doc); err != nil {
		return resource{}, fmt.Errorf(errWrappedFmt, errJSONUnmarshal, err.Error())
	}
	var res resource
	if len(doc.Data) > 0 {
		if err := json.Unmarshal(doc.Data, &res); err != nil {
			return resource{}, fmt.Errorf(errWrappedFmt, errJSONUnmarshal, err.Error())
		}
	}
	return res, nil
}

// stringAttr coerces an attribute to a string, tolerating whatever scalar
// type the API sends.
func (r resource) stringAttr(name string) string {
	v, ok := r.Attributes[name]
	if !ok {
		return ""
	}
	return cast.ToString(v)
}

// timeAttr parses an RFC3339 attribute, nil when absent or malformed.
func (r resource) timeAttr(name string) *time.Time {
	s := r.stringAttr(name)
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}

// relationshipRequest is the write-side document for relationship endpoints
// (bulk membership add/remove).
type relationshipRequest struct {
	Data []relationshipIdentifier `json:"data"`
}

type relationshipIdentifier struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

func peopleRelationships(personIDs []string) relationshipRequest {
	out := relationshipRequest{Data: make([]relationshipIdentifier, 0, len(personIDs))}
	for _, id := range personIDs {
		out.Data = append(out.Data, relationshipIdentifier{Type: "people", ID: id})
	}
	return out
}

// resourceRequest is the write-side document for resource create/update.
type resourceRequest struct {
	Data resourcePayload `json:"data"`
}

type resourcePayload struct {
	Type       string                 `json:"type"`
	ID         string                 `json:"id,omitempty"`
	Attributes map[string]interface{} `json:"attributes"`
}
