// SPDX-FileCopyrightText: 2026 The npcusync Authors
// SPDX-License-Identifier: Apache-2.0

package cassandra

import (
	"context"
	"errors"
	"testing"

	"github.com/partnerops/npcusync/cache"
	"github.com/partnerops/npcusync/cache/db/metric"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

var (
	errInternal  = errors.New("internal dummy error")
	testEntryKey = cache.Key{Namespace: "catalog", ID: "merged"}
)

type mockTierStore struct {
	mock.Mock
}

func (m *mockTierStore) Push(ctx context.Context, e cache.Entry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *mockTierStore) Get(ctx context.Context, key cache.Key) (cache.Entry, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(cache.Entry), args.Error(1)
}

func (m *mockTierStore) Delete(ctx context.Context, key cache.Key) (cache.Entry, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(cache.Entry), args.Error(1)
}

func (m *mockTierStore) GetAll(ctx context.Context, namespace string) (map[string]cache.Entry, error) {
	args := m.Called(ctx, namespace)
	return args.Get(0).(map[string]cache.Entry), args.Error(1)
}

func (m *mockTierStore) DropNamespace(ctx context.Context, namespace string) error {
	args := m.Called(ctx, namespace)
	return args.Error(0)
}

func (m *mockTierStore) PurgeExpired(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockTierStore) Close() {
	m.Called()
}

func (m *mockTierStore) Ping() error {
	args := m.Called()
	return args.Error(0)
}

func testMeasures() metric.Measures {
	return metric.Measures{
		QuerySuccess: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "testQuerySuccessCounter", Help: "testQuerySuccessCounter"},
			[]string{cache.TypeLabel},
		),
		QueryFailure: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "testQueryFailureCounter", Help: "testQueryFailureCounter"},
			[]string{cache.TypeLabel},
		),
		PurgedEntries: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "testPurgedEntriesCounter", Help: "testPurgedEntriesCounter"},
		),
	}
}

func TestGetTranslatesNoDataResponse(t *testing.T) {
	tcs := []struct {
		Description      string
		TierErr          error
		ExpectedErr      error
		ExpectedSuccess  float64
		ExpectedFailures float64
	}{
		{
			Description:     "Success",
			ExpectedSuccess: 1,
		},
		{
			Description:     "No rows maps to a missing key",
			TierErr:         errNoDataResponse,
			ExpectedErr:     cache.KeyNotFoundError{Key: testEntryKey},
			ExpectedSuccess: 1,
		},
		{
			Description:      "Server error",
			TierErr:          errInternal,
			ExpectedErr:      errInternal,
			ExpectedFailures: 1,
		},
	}
	for _, tc := range tcs {
		t.Run(tc.Description, func(t *testing.T) {
			assert := assert.New(t)
			m := new(mockTierStore)
			m.On("Get", mock.Anything, testEntryKey).Return(cache.Entry{}, tc.TierErr)
			measures := testMeasures()
			s := &Cassandra{tier: m, measures: measures}

			_, err := s.Get(context.Background(), testEntryKey)
			assert.Equal(tc.ExpectedErr, err)
			assert.Equal(tc.ExpectedSuccess, testutil.ToFloat64(measures.QuerySuccess.With(prometheus.Labels{cache.TypeLabel: cache.ReadType})))
			assert.Equal(tc.ExpectedFailures, testutil.ToFloat64(measures.QueryFailure.With(prometheus.Labels{cache.TypeLabel: cache.ReadType})))
			m.AssertExpectations(t)
		})
	}
}

func TestDeleteTranslatesNoDataResponse(t *testing.T) {
	assert := assert.New(t)
	m := new(mockTierStore)
	m.On("Delete", mock.Anything, testEntryKey).Return(cache.Entry{}, errNoDataResponse)
	measures := testMeasures()
	s := &Cassandra{tier: m, measures: measures}

	_, err := s.Delete(context.Background(), testEntryKey)
	assert.Equal(cache.KeyNotFoundError{Key: testEntryKey}, err)
	assert.Equal(float64(1), testutil.ToFloat64(measures.QuerySuccess.With(prometheus.Labels{cache.TypeLabel: cache.DeleteType})))
	m.AssertExpectations(t)
}

func TestPing(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		assert := assert.New(t)
		m := new(mockTierStore)
		m.On("Ping").Return(error(nil))
		measures := testMeasures()
		s := &Cassandra{tier: m, measures: measures}

		assert.Nil(s.Ping())
		assert.Equal(float64(1), testutil.ToFloat64(measures.QuerySuccess.With(prometheus.Labels{cache.TypeLabel: cache.PingType})))
	})

	t.Run("Failure", func(t *testing.T) {
		assert := assert.New(t)
		m := new(mockTierStore)
		m.On("Ping").Return(errInternal)
		measures := testMeasures()
		s := &Cassandra{tier: m, measures: measures}

		err := s.Ping()
		assert.NotNil(err)
		assert.ErrorIs(err, errInternal)
		assert.Contains(err.Error(), "pinging connection failed")
		assert.Equal(float64(1), testutil.ToFloat64(measures.QueryFailure.With(prometheus.Labels{cache.TypeLabel: cache.PingType})))
	})
}

func TestPushAndNamespaceOpsCount(t *testing.T) {
	assert := assert.New(t)
	m := new(mockTierStore)
	entry := cache.Entry{Key: testEntryKey, Data: []byte(`{}`), TTL: 60}
	m.On("Push", mock.Anything, entry).Return(error(nil)).Once()
	m.On("DropNamespace", mock.Anything, testEntryKey.Namespace).Return(errInternal).Once()
	measures := testMeasures()
	s := &Cassandra{tier: m, measures: measures}

	assert.Nil(s.Push(context.Background(), entry))
	assert.Equal(errInternal, s.DropNamespace(context.Background(), testEntryKey.Namespace))
	assert.Equal(float64(1), testutil.ToFloat64(measures.QuerySuccess.With(prometheus.Labels{cache.TypeLabel: cache.InsertType})))
	assert.Equal(float64(1), testutil.ToFloat64(measures.QueryFailure.With(prometheus.Labels{cache.TypeLabel: cache.DeleteType})))
	m.AssertExpectations(t)
}

func TestValidateConfigDefaults(t *testing.T) {
	assert := assert.New(t)
	config := Config{Hosts: []string{"localhost:9042"}}
	validateConfig(&config)
	assert.Equal(defaultDatabase, config.Database)
	assert.Equal(defaultOpTimeout, config.OpTimeout)
	assert.Equal(defaultMaxNumberConnsPerHost, config.MaxConnsPerHost)
}
