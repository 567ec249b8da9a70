// SPDX-FileCopyrightText: 2026 The npcusync Authors
// SPDX-License-Identifier: Apache-2.0

package reports

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
)

func TestPersonRequestDecoder(t *testing.T) {
	testCases := []struct {
		Name                   string
		URLVars                map[string]string
		ExpectedDecodedRequest interface{}
		ExpectedErr            error
	}{
		{
			Name:        "Missing personId",
			URLVars:     map[string]string{},
			ExpectedErr: &BadRequestErr{Message: personVarMissingMsg},
		},
		{
			Name:        "Empty personId",
			URLVars:     map[string]string{personVarKey: ""},
			ExpectedErr: &BadRequestErr{Message: personVarMissingMsg},
		},
		{
			Name:                   "Happy path",
			URLVars:                map[string]string{personVarKey: "p-42"},
			ExpectedDecodedRequest: &personRequest{personID: "p-42"},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			assert := assert.New(t)
			r := httptest.NewRequest(http.MethodGet, "http://localhost/test", nil)
			r = mux.SetURLVars(r, testCase.URLVars)

			decodedRequest, err := personRequestDecoder(context.Background(), r)
			assert.Equal(testCase.ExpectedDecodedRequest, decodedRequest)
			assert.Equal(testCase.ExpectedErr, err)
		})
	}
}

func TestReconcileRequestDecoder(t *testing.T) {
	tooMany := make([]string, 0, maxReconcileBatch+1)
	for i := 0; i <= maxReconcileBatch; i++ {
		tooMany = append(tooMany, fmt.Sprintf("%q", fmt.Sprintf("p%d", i)))
	}

	testCases := []struct {
		Name                   string
		Body                   string
		ExpectedDecodedRequest interface{}
		ExpectedErr            error
	}{
		{
			Name:        "Malformed JSON",
			Body:        "{not json",
			ExpectedErr: &BadRequestErr{Message: "failed to unmarshal json"},
		},
		{
			Name:        "Empty list",
			Body:        `{"personIds": []}`,
			ExpectedErr: &BadRequestErr{Message: "personIds field must be set"},
		},
		{
			Name:        "Missing field",
			Body:        `{}`,
			ExpectedErr: &BadRequestErr{Message: "personIds field must be set"},
		},
		{
			Name:        "Over the batch limit",
			Body:        fmt.Sprintf(`{"personIds": [%s]}`, strings.Join(tooMany, ",")),
			ExpectedErr: &BadRequestErr{Message: "too many personIds in one request"},
		},
		{
			Name: "Happy path",
			Body: `{"personIds": ["p1", "p2"]}`,
			ExpectedDecodedRequest: &reconcileRequest{
				PersonIDs: []string{"p1", "p2"},
			},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			assert := assert.New(t)
			r := httptest.NewRequest(http.MethodPost, "http://localhost/test", strings.NewReader(testCase.Body))

			decodedRequest, err := reconcileRequestDecoder(context.Background(), r)
			assert.Equal(testCase.ExpectedDecodedRequest, decodedRequest)
			assert.Equal(testCase.ExpectedErr, err)
		})
	}
}

func TestCacheClearRequestDecoder(t *testing.T) {
	testCases := []struct {
		Name              string
		URL               string
		ExpectedNamespace string
	}{
		{
			Name: "No namespace clears everything",
			URL:  "http://localhost/test",
		},
		{
			Name:              "Single namespace",
			URL:               "http://localhost/test?namespace=catalog",
			ExpectedNamespace: "catalog",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			assert := assert.New(t)
			r := httptest.NewRequest(http.MethodDelete, testCase.URL, nil)

			decodedRequest, err := cacheClearRequestDecoder(context.Background(), r)
			assert.NoError(err)
			assert.Equal(&cacheClearRequest{namespace: testCase.ExpectedNamespace}, decodedRequest)
		})
	}
}

func TestEncodeJSONResponse(t *testing.T) {
	assert := assert.New(t)
	recorder := httptest.NewRecorder()

	err := encodeJSONResponse(context.Background(), recorder, &cacheClearResponse{Cleared: "all"})
	assert.NoError(err)
	assert.Equal("application/json", recorder.Header().Get("Content-Type"))
	assert.JSONEq(`{"cleared": "all"}`, recorder.Body.String())
}

func TestEncodeError(t *testing.T) {
	testCases := []struct {
		Name         string
		Err          error
		ExpectedCode int
	}{
		{
			Name:         "Bad request",
			Err:          &BadRequestErr{Message: "personIds field must be set"},
			ExpectedCode: http.StatusBadRequest,
		},
		{
			Name:         "Unclassified error",
			Err:          errors.New("pipeline blew up"),
			ExpectedCode: http.StatusInternalServerError,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			assert := assert.New(t)
			recorder := httptest.NewRecorder()

			encodeError(context.Background(), testCase.Err, recorder)
			assert.Equal(testCase.ExpectedCode, recorder.Code)
			assert.Equal(testCase.Err.Error(), recorder.Header().Get(ErrorHeaderKey))
		})
	}
}
