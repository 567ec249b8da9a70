// SPDX-FileCopyrightText: 2026 The npcusync Authors
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xmidt-org/httpaux/erraux"
)

func TestKeyNotFoundError(t *testing.T) {
	assert := assert.New(t)
	err := KeyNotFoundError{Key: Key{Namespace: "catalog", ID: "merged"}}
	assert.ErrorIs(err, ErrEntryNotFound)
	assert.Contains(err.Error(), `namespace "catalog"`)
	assert.Equal(http.StatusNotFound, err.StatusCode())
}

func TestSanitizedError(t *testing.T) {
	assert := assert.New(t)
	internal := errors.New("connection reset")
	err := SanitizedError{
		Err: internal,
		ErrHTTP: erraux.Error{
			Err:  errors.New("cache tier operation failed"),
			Code: http.StatusServiceUnavailable,
		},
	}
	// the internal error is reachable for logs but never rendered
	assert.ErrorIs(err, internal)
	assert.NotContains(err.Error(), internal.Error())
	assert.Equal(http.StatusServiceUnavailable, err.StatusCode())
}
