// SPDX-FileCopyrightText: 2026 The npcusync Authors
// SPDX-License-Identifier: Apache-2.0

package reports

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
)

const (
	personVarKey = "personId"

	personVarMissingMsg = "{personId} URL path parameter missing"
)

// Response Headers
const (
	ErrorHeaderKey = "X-Npcusync-Error"
)

// ErrCasting indicates there was a middleware wiring mistake with the go-kit
// style encoders.
var ErrCasting = errors.New("casting error due to middleware wiring mistake")

const maxReconcileBatch = 200

type personRequest struct {
	personID string
}

type reconcileRequest struct {
	PersonIDs []string `json:"personIds"`
}

type cacheClearRequest struct {
	namespace string
}

func personRequestDecoder(ctx context.Context, r *http.Request) (interface{}, error) {
	personID, ok := mux.Vars(r)[personVarKey]
	if !ok || personID == "" {
		return nil, &BadRequestErr{Message: personVarMissingMsg}
	}
	return &personRequest{personID: personID}, nil
}

func reconcileRequestDecoder(ctx context.Context, r *http.Request) (interface{}, error) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, &BadRequestErr{Message: "failed to read body"}
	}
	req := reconcileRequest{}
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, &BadRequestErr{Message: "failed to unmarshal json"}
	}
	if len(req.PersonIDs) == 0 {
		return nil, &BadRequestErr{Message: "personIds field must be set"}
	}
	if len(req.PersonIDs) > maxReconcileBatch {
		return nil, &BadRequestErr{Message: "too many personIds in one request"}
	}
	return &req, nil
}

func cacheClearRequestDecoder(ctx context.Context, r *http.Request) (interface{}, error) {
	return &cacheClearRequest{namespace: r.URL.Query().Get("namespace")}, nil
}

func emptyRequestDecoder(ctx context.Context, r *http.Request) (interface{}, error) {
	return nil, nil
}

func encodeJSONResponse(ctx context.Context, rw http.ResponseWriter, response interface{}) error {
	data, err := json.Marshal(response)
	if err != nil {
		return err
	}
	rw.Header().Add("Content-Type", "application/json")
	rw.Write(data)
	return nil
}

func encodeError(ctx context.Context, err error, w http.ResponseWriter) {
	w.Header().Set(ErrorHeaderKey, err.Error())
	if headerer, ok := err.(kithttp.Headerer); ok {
		for k, values := range headerer.Headers() {
			for _, v := range values {
				w.Header().Add(k, v)
			}
		}
	}
	code := http.StatusInternalServerError
	if sc, ok := err.(kithttp.StatusCoder); ok {
		code = sc.StatusCode()
	}
	w.WriteHeader(code)
}
