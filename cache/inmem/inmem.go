// SPDX-FileCopyrightText: 2026 The npcusync Authors
// SPDX-License-Identifier: Apache-2.0

package inmem

import (
	"context"
	"sync"
	"time"

	"github.com/partnerops/npcusync/cache"
)

type expireableEntry struct {
	cache.Entry
	expiration *time.Time
}

// InMem is the in-process fast tier: namespace -> id -> entry, guarded by a
// single mutex. Expired entries are removed as a side effect of reads.
type InMem struct {
	data map[string]map[string]expireableEntry
	lock sync.Mutex
	now  func() time.Time
}

func NewInMem() *InMem {
	return &InMem{
		data: map[string]map[string]expireableEntry{},
		now:  time.Now,
	}
}

var _ cache.S = (*InMem)(nil)

func (i *InMem) Push(_ context.Context, e cache.Entry) error {
	i.lock.Lock()
	defer i.lock.Unlock()
	if i.data[e.Key.Namespace] == nil {
		i.data[e.Key.Namespace] = map[string]expireableEntry{}
	}
	storing := expireableEntry{Entry: e}
	if e.TTL > 0 {
		expiration := i.now().Add(time.Duration(e.TTL) * time.Second)
		storing.expiration = &expiration
	}
	i.data[e.Key.Namespace][e.Key.ID] = storing
	return nil
}

// hasExpired reports whether the entry expired, deleting it if so. For live
// entries with an expiration the remaining TTL is refreshed in place.
func (i *InMem) hasExpired(e *expireableEntry, bucket map[string]expireableEntry, namespace, id string) bool {
	if e.expiration == nil {
		return false
	}
	secondsLeft := int64(e.expiration.Sub(i.now()).Seconds())
	if secondsLeft <= 0 {
		i.deleteEntry(namespace, id, bucket)
		return true
	}
	e.TTL = secondsLeft
	return false
}

func (i *InMem) Get(_ context.Context, key cache.Key) (cache.Entry, error) {
	i.lock.Lock()
	defer i.lock.Unlock()
	bucket, ok := i.data[key.Namespace]
	if !ok {
		return cache.Entry{}, cache.KeyNotFoundError{Key: key}
	}
	e, ok := bucket[key.ID]
	if !ok {
		return cache.Entry{}, cache.KeyNotFoundError{Key: key}
	}
	if i.hasExpired(&e, bucket, key.Namespace, key.ID) {
		return cache.Entry{}, cache.KeyNotFoundError{Key: key}
	}
	return e.Entry, nil
}

func (i *InMem) Delete(_ context.Context, key cache.Key) (cache.Entry, error) {
	i.lock.Lock()
	defer i.lock.Unlock()
	bucket := i.data[key.Namespace]
	if bucket == nil {
		return cache.Entry{}, cache.KeyNotFoundError{Key: key}
	}
	e, ok := bucket[key.ID]
	if !ok {
		return cache.Entry{}, cache.KeyNotFoundError{Key: key}
	}
	if i.hasExpired(&e, bucket, key.Namespace, key.ID) {
		return cache.Entry{}, cache.KeyNotFoundError{Key: key}
	}
	i.deleteEntry(key.Namespace, key.ID, bucket)
	return e.Entry, nil
}

func (i *InMem) GetAll(_ context.Context, namespace string) (map[string]cache.Entry, error) {
	i.lock.Lock()
	defer i.lock.Unlock()
	entries := i.data[namespace]
	result := make(map[string]cache.Entry)
	for id := range entries {
		e := entries[id]
		if !i.hasExpired(&e, entries, namespace, id) {
			result[id] = e.Entry
		}
	}
	return result, nil
}

func (i *InMem) DropNamespace(_ context.Context, namespace string) error {
	i.lock.Lock()
	defer i.lock.Unlock()
	delete(i.data, namespace)
	return nil
}

func (i *InMem) PurgeExpired(_ context.Context) (int, error) {
	i.lock.Lock()
	defer i.lock.Unlock()
	purged := 0
	now := i.now()
	for namespace, bucket := range i.data {
		for id, e := range bucket {
			if e.expiration != nil && !e.expiration.After(now) {
				i.deleteEntry(namespace, id, bucket)
				purged++
			}
		}
	}
	return purged, nil
}

func (i *InMem) deleteEntry(namespace, id string, bucket map[string]expireableEntry) {
	delete(bucket, id)
	if len(bucket) == 0 {
		delete(i.data, namespace)
	}
}
