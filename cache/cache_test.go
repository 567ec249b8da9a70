// SPDX-FileCopyrightText: 2026 The npcusync Authors
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockTier struct {
	mock.Mock
}

func (m *mockTier) Push(ctx context.Context, e Entry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *mockTier) Get(ctx context.Context, key Key) (Entry, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(Entry), args.Error(1)
}

func (m *mockTier) Delete(ctx context.Context, key Key) (Entry, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(Entry), args.Error(1)
}

func (m *mockTier) GetAll(ctx context.Context, namespace string) (map[string]Entry, error) {
	args := m.Called(ctx, namespace)
	return args.Get(0).(map[string]Entry), args.Error(1)
}

func (m *mockTier) DropNamespace(ctx context.Context, namespace string) error {
	args := m.Called(ctx, namespace)
	return args.Error(0)
}

func (m *mockTier) PurgeExpired(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func TestGetFastTierHit(t *testing.T) {
	assert := assert.New(t)
	key := Key{Namespace: "npcu", ID: "abc"}
	entry := Entry{Key: key, Data: []byte(`1`)}

	fast := new(mockTier)
	fast.On("Get", mock.Anything, key).Return(entry, nil)
	persistent := new(mockTier)

	c := New(fast, persistent, nil, Config{})
	data, ok := c.Get(context.Background(), key)
	assert.True(ok)
	assert.Equal(entry.Data, data)
	persistent.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestGetPersistentHitPromotes(t *testing.T) {
	assert := assert.New(t)
	key := Key{Namespace: "npcu", ID: "abc"}
	entry := Entry{Key: key, Data: []byte(`2`), TTL: 60}

	fast := new(mockTier)
	fast.On("Get", mock.Anything, key).Return(Entry{}, KeyNotFoundError{Key: key})
	fast.On("Push", mock.Anything, entry).Return(nil)
	persistent := new(mockTier)
	persistent.On("Get", mock.Anything, key).Return(entry, nil)

	c := New(fast, persistent, nil, Config{})
	data, ok := c.Get(context.Background(), key)
	assert.True(ok)
	assert.Equal(entry.Data, data)
	fast.AssertCalled(t, "Push", mock.Anything, entry)
}

func TestGetMissBothTiers(t *testing.T) {
	assert := assert.New(t)
	key := Key{Namespace: "npcu", ID: "abc"}

	fast := new(mockTier)
	fast.On("Get", mock.Anything, key).Return(Entry{}, KeyNotFoundError{Key: key})
	persistent := new(mockTier)
	persistent.On("Get", mock.Anything, key).Return(Entry{}, KeyNotFoundError{Key: key})

	c := New(fast, persistent, nil, Config{})
	_, ok := c.Get(context.Background(), key)
	assert.False(ok)

	stats := c.Stats()
	assert.Equal(int64(1), stats.Total.Misses)
}

func TestGetTierErrorIsAMiss(t *testing.T) {
	assert := assert.New(t)
	key := Key{Namespace: "npcu", ID: "abc"}

	fast := new(mockTier)
	fast.On("Get", mock.Anything, key).Return(Entry{}, errors.New("disk on fire"))
	c := New(fast, nil, nil, Config{})

	_, ok := c.Get(context.Background(), key)
	assert.False(ok)
}

func TestSetWritesBothTiers(t *testing.T) {
	key := Key{Namespace: "catalog", ID: "merged"}
	entry := Entry{Key: key, Data: []byte(`{}`), TTL: 300}

	fast := new(mockTier)
	fast.On("Push", mock.Anything, entry).Return(nil)
	persistent := new(mockTier)
	persistent.On("Push", mock.Anything, entry).Return(nil)

	c := New(fast, persistent, nil, Config{})
	c.Set(context.Background(), key, entry.Data, 5*time.Minute)

	fast.AssertExpectations(t)
	persistent.AssertExpectations(t)
}

func TestSetCapacityTriggersPurgeAndRetry(t *testing.T) {
	assert := assert.New(t)
	key := Key{Namespace: "catalog", ID: "merged"}
	entry := Entry{Key: key, Data: []byte(`{}`), TTL: 300}

	fast := new(mockTier)
	fast.On("Push", mock.Anything, entry).Return(nil)
	persistent := new(mockTier)
	persistent.On("Push", mock.Anything, entry).Return(ErrTierCapacity).Once()
	persistent.On("PurgeExpired", mock.Anything).Return(7, nil)
	persistent.On("Push", mock.Anything, entry).Return(nil).Once()

	c := New(fast, persistent, nil, Config{})
	c.Set(context.Background(), key, entry.Data, 5*time.Minute)

	persistent.AssertExpectations(t)
	assert.Equal(int64(7), c.Stats().Total.Evictions)
}

func TestClearAllDropsKnownNamespaces(t *testing.T) {
	key := Key{Namespace: "npcu", ID: "abc"}
	entry := Entry{Key: key, Data: []byte(`1`), TTL: 300}

	fast := new(mockTier)
	fast.On("Push", mock.Anything, entry).Return(nil)
	fast.On("DropNamespace", mock.Anything, "npcu").Return(nil)

	c := New(fast, nil, nil, Config{})
	c.Set(context.Background(), key, entry.Data, 5*time.Minute)
	c.ClearAll(context.Background())

	fast.AssertCalled(t, "DropNamespace", mock.Anything, "npcu")
}

func TestClearAllReachesNamespacesFromPriorProcess(t *testing.T) {
	assert := assert.New(t)

	// entries persisted by a previous process, untouched by this one
	persistent := newFakeTier()
	stale := Entry{Key: Key{Namespace: "catalog", ID: "merged"}, Data: []byte(`{}`), TTL: 300}
	persistent.entries[stale.Key] = stale

	c := New(newFakeTier(), persistent, nil, Config{})
	Wrap(c, "catalog", time.Minute, func(_ context.Context, _ string) (int, error) {
		return 0, nil
	})

	c.ClearAll(context.Background())
	assert.Empty(persistent.entries)
}

func TestWrapCachesSuccessfulFetches(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	c := New(newFakeTier(), nil, nil, Config{})
	calls := 0
	fetch := Wrap(c, "npcu", time.Minute, func(_ context.Context, courseID string) (int, error) {
		calls++
		return 2, nil
	})

	first, err := fetch(context.Background(), "course-1")
	require.NoError(err)
	second, err := fetch(context.Background(), "course-1")
	require.NoError(err)

	assert.Equal(2, first)
	assert.Equal(2, second)
	assert.Equal(1, calls)
}

func TestWrapDoesNotCacheErrors(t *testing.T) {
	assert := assert.New(t)

	c := New(newFakeTier(), nil, nil, Config{})
	calls := 0
	boom := errors.New("upstream exploded")
	fetch := Wrap(c, "npcu", time.Minute, func(_ context.Context, courseID string) (int, error) {
		calls++
		return 0, boom
	})

	_, err := fetch(context.Background(), "course-1")
	assert.ErrorIs(err, boom)
	_, err = fetch(context.Background(), "course-1")
	assert.ErrorIs(err, boom)
	assert.Equal(2, calls)
}

func TestWrapDistinguishesArguments(t *testing.T) {
	assert := assert.New(t)

	c := New(newFakeTier(), nil, nil, Config{})
	fetch := Wrap(c, "npcu", time.Minute, func(_ context.Context, courseID string) (string, error) {
		return "value-for-" + courseID, nil
	})

	a, _ := fetch(context.Background(), "course-a")
	b, _ := fetch(context.Background(), "course-b")
	assert.Equal("value-for-course-a", a)
	assert.Equal("value-for-course-b", b)
}

// fakeTier is a minimal in-memory S for Wrap tests, avoiding an import cycle
// with the inmem package.
type fakeTier struct {
	entries map[Key]Entry
}

func newFakeTier() *fakeTier {
	return &fakeTier{entries: map[Key]Entry{}}
}

func (f *fakeTier) Push(_ context.Context, e Entry) error {
	f.entries[e.Key] = e
	return nil
}

func (f *fakeTier) Get(_ context.Context, key Key) (Entry, error) {
	e, ok := f.entries[key]
	if !ok {
		return Entry{}, KeyNotFoundError{Key: key}
	}
	return e, nil
}

func (f *fakeTier) Delete(_ context.Context, key Key) (Entry, error) {
	e, ok := f.entries[key]
	if !ok {
		return Entry{}, KeyNotFoundError{Key: key}
	}
	delete(f.entries, key)
	return e, nil
}

func (f *fakeTier) GetAll(_ context.Context, namespace string) (map[string]Entry, error) {
	out := map[string]Entry{}
	for key, e := range f.entries {
		if key.Namespace == namespace {
			out[key.ID] = e
		}
	}
	return out, nil
}

func (f *fakeTier) DropNamespace(_ context.Context, namespace string) error {
	for key := range f.entries {
		if key.Namespace == namespace {
			delete(f.entries, key)
		}
	}
	return nil
}

func (f *fakeTier) PurgeExpired(_ context.Context) (int, error) {
	return 0, nil
}
