// SPDX-FileCopyrightText: 2026 The npcusync Authors
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/xmidt-org/httpaux/erraux"
)

// Tier metric label values.
const (
	TypeLabel  = "type"
	InsertType = "insert"
	DeleteType = "delete"
	ReadType   = "read"
	PingType   = "ping"
)

// Key locates an entry within a tier. Namespace groups entries by the kind
// of data cached (catalog, npcu, transcript, group) so they can be
// invalidated together.
type Key struct {
	Namespace string `json:"namespace"`
	ID        string `json:"id"`
}

// Entry is the stored record. TTL is the remaining time to live in seconds;
// tiers translate it to their own expiration representation on write and
// refresh it on read.
type Entry struct {
	Key  Key    `json:"key"`
	Data []byte `json:"data"`
	TTL  int64  `json:"ttl,omitempty"`
}

// S is a single cache tier. Both the in-process fast tier and the optional
// persistent tier satisfy it. Expired entries are removed lazily: a Get of an
// expired entry deletes it and reports KeyNotFoundError.
type S interface {
	Push(ctx context.Context, e Entry) error
	Get(ctx context.Context, key Key) (Entry, error)
	Delete(ctx context.Context, key Key) (Entry, error)
	GetAll(ctx context.Context, namespace string) (map[string]Entry, error)

	// DropNamespace removes every entry in a namespace.
	DropNamespace(ctx context.Context, namespace string) error

	// PurgeExpired removes expired entries eagerly. Tiers that expire
	// server-side (Cassandra TTL) may treat this as a no-op.
	PurgeExpired(ctx context.Context) (int, error)
}

// ErrEntryNotFound means the key is absent or its entry expired.
var ErrEntryNotFound = errors.New("cache entry not found")

// ErrTierCapacity means the tier rejected a write for capacity or throughput
// reasons. The two-tier cache reacts by purging expired entries and retrying
// once before degrading to fast-tier-only.
var ErrTierCapacity = errors.New("cache tier rejected write due to capacity")

// KeyNotFoundError carries the missing key for logs and API responses.
type KeyNotFoundError struct {
	Key Key
}

func (e KeyNotFoundError) Error() string {
	return fmt.Sprintf("%s: namespace %q id %q", ErrEntryNotFound.Error(), e.Key.Namespace, e.Key.ID)
}

func (e KeyNotFoundError) Unwrap() error {
	return ErrEntryNotFound
}

func (e KeyNotFoundError) StatusCode() int {
	return http.StatusNotFound
}

// SanitizedError pairs an internal error with the HTTP shape exposed to API
// consumers, so backend details never leak through the report endpoints.
type SanitizedError struct {
	Err     error
	ErrHTTP erraux.Error
}

func (s SanitizedError) Error() string {
	return s.ErrHTTP.Error()
}

func (s SanitizedError) Unwrap() error {
	return s.Err
}

func (s SanitizedError) StatusCode() int {
	return s.ErrHTTP.StatusCode()
}
