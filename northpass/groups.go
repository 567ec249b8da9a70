// SPDX-FileCopyrightText: 2026 The npcusync Authors
// SPDX-License-Identifier: Apache-2.0

package northpass

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/partnerops/npcusync/model"
)

func groupFromResource(r resource) model.Group {
	return model.Group{ID: r.ID, Name: r.stringAttr("name")}
}

// Groups pages through every group in the school.
func (c *BasicClient) Groups(ctx context.Context) ([]model.Group, error) {
	var out []model.Group
	err := c.getPages(ctx, ProfileStandard, c.baseURL+"/groups", func(page []resource) {
		for _, r := range page {
			out = append(out, groupFromResource(r))
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Group fetches a single group by ID.
func (c *BasicClient) Group(ctx context.Context, groupID string) (model.Group, error) {
	body, err := c.get(ctx, ProfileStandard, fmt.Sprintf("%s/groups/%s", c.baseURL, url.PathEscape(groupID)))
	if err != nil {
		return model.Group{}, err
	}
	r, err := decodeResourceOne(body)
	if err != nil {
		return model.Group{}, err
	}
	return groupFromResource(r), nil
}

// CreateGroup creates a group with the given name. errors.Is(err,
// ErrConflict) means a group with that name already exists; callers decide
// whether to look it up instead.
func (c *BasicClient) CreateGroup(ctx context.Context, name string) (model.Group, error) {
	payload, err := marshalPayload(resourceRequest{Data: resourcePayload{
		Type:       "groups",
		Attributes: map[string]interface{}{"name": name},
	}})
	if err != nil {
		return model.Group{}, err
	}
	resp, err := c.sendRequest(ctx, ProfileStandard, http.MethodPost, c.baseURL+"/groups", payload)
	if err != nil {
		return model.Group{}, err
	}
	if resp.code != http.StatusCreated && resp.code != http.StatusOK {
		return model.Group{}, fmt.Errorf(errStatusCodeFmt, translateNonSuccessStatusCode(resp.code), resp.code)
	}
	r, err := decodeResourceOne(resp.body)
	if err != nil {
		return model.Group{}, err
	}
	return groupFromResource(r), nil
}

// UpdateGroup renames a group.
func (c *BasicClient) UpdateGroup(ctx context.Context, groupID, name string) error {
	payload, err := marshalPayload(resourceRequest{Data: resourcePayload{
		Type:       "groups",
		ID:         groupID,
		Attributes: map[string]interface{}{"name": name},
	}})
	if err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s/groups/%s", c.baseURL, url.PathEscape(groupID))
	resp, err := c.sendRequest(ctx, ProfileStandard, http.MethodPatch, endpoint, payload)
	if err != nil {
		return err
	}
	if resp.code != http.StatusOK && resp.code != http.StatusNoContent {
		return fmt.Errorf(errStatusCodeFmt, translateNonSuccessStatusCode(resp.code), resp.code)
	}
	return nil
}

// DeleteGroup removes a group. Deleting a group that is already gone is not
// an error.
func (c *BasicClient) DeleteGroup(ctx context.Context, groupID string) error {
	endpoint := fmt.Sprintf("%s/groups/%s", c.baseURL, url.PathEscape(groupID))
	resp, err := c.sendRequest(ctx, ProfileStandard, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	switch resp.code {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	}
	return fmt.Errorf(errStatusCodeFmt, translateNonSuccessStatusCode(resp.code), resp.code)
}

// GroupMemberIDs returns the person IDs currently in the group.
func (c *BasicClient) GroupMemberIDs(ctx context.Context, groupID string) ([]string, error) {
	var out []string
	startURL := fmt.Sprintf("%s/groups/%s/people", c.baseURL, url.PathEscape(groupID))
	err := c.getPages(ctx, ProfileStandard, startURL, func(page []resource) {
		for _, r := range page {
			out = append(out, r.ID)
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AddGroupMembers bulk-adds people to a group through the relationships
// endpoint. Adding a person who is already a member is idempotent: Northpass
// answers with a conflict, which is swallowed here.
func (c *BasicClient) AddGroupMembers(ctx context.Context, groupID string, personIDs []string) error {
	if len(personIDs) == 0 {
		return nil
	}
	payload, err := marshalPayload(peopleRelationships(personIDs))
	if err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s/groups/%s/relationships/people", c.baseURL, url.PathEscape(groupID))
	resp, err := c.sendRequest(ctx, ProfileStandard, http.MethodPost, endpoint, payload)
	if err != nil {
		return err
	}
	switch resp.code {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	}
	translated := translateNonSuccessStatusCode(resp.code)
	if errors.Is(translated, ErrConflict) {
		return nil
	}
	return fmt.Errorf(errStatusCodeFmt, translated, resp.code)
}

// RemoveGroupMembers bulk-removes people from a group.
func (c *BasicClient) RemoveGroupMembers(ctx context.Context, groupID string, personIDs []string) error {
	if len(personIDs) == 0 {
		return nil
	}
	payload, err := marshalPayload(peopleRelationships(personIDs))
	if err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s/groups/%s/relationships/people", c.baseURL, url.PathEscape(groupID))
	resp, err := c.sendRequest(ctx, ProfileStandard, http.MethodDelete, endpoint, payload)
	if err != nil {
		return err
	}
	switch resp.code {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	}
	return fmt.Errorf(errStatusCodeFmt, translateNonSuccessStatusCode(resp.code), resp.code)
}

// PeopleByDomain pages through people whose email falls under the given
// domain. The filter match is re-checked client side since the remote filter
// is a substring match.
func (c *BasicClient) PeopleByDomain(ctx context.Context, domain string) ([]model.Person, error) {
	domain = strings.ToLower(strings.TrimPrefix(domain, "@"))
	var out []model.Person
	startURL := fmt.Sprintf("%s/people?filter%%5Bemail%%5D=%s", c.baseURL, url.QueryEscape(domain))
	err := c.getPages(ctx, ProfileStandard, startURL, func(page []resource) {
		for _, r := range page {
			email := strings.ToLower(r.stringAttr("email"))
			if strings.HasSuffix(email, "@"+domain) {
				out = append(out, model.Person{ID: r.ID, Email: email})
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
