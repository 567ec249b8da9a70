// SPDX-FileCopyrightText: 2026 The npcusync Authors
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// NewKey builds a deterministic key for a namespace and call parameters.
// Parameters are serialized with encoding/json, which writes map keys in
// sorted order, so semantically equal parameter sets always hash the same.
// Serialization failures fall back to the fmt representation rather than
// erroring; a weaker key only costs a cache miss.
func NewKey(namespace string, params ...interface{}) Key {
	h := sha256.New()
	for _, p := range params {
		b, err := json.Marshal(p)
		if err != nil {
			b = []byte(fmt.Sprintf("%v", p))
		}
		h.Write(b)
		h.Write([]byte{0})
	}
	return Key{
		Namespace: namespace,
		ID:        hex.EncodeToString(h.Sum(nil)),
	}
}
