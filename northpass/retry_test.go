// SPDX-FileCopyrightText: 2026 The npcusync Authors
// SPDX-License-Identifier: Apache-2.0

package northpass

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestPolicy(config RetryConfig) (Policy, *[]time.Duration) {
	p := newPolicy(config)
	slept := &[]time.Duration{}
	p.sleep = func(_ context.Context, d time.Duration) error {
		*slept = append(*slept, d)
		return nil
	}
	p.jitter = func(time.Duration) time.Duration { return 0 }
	return p, slept
}

func TestDoSuccessFirstTry(t *testing.T) {
	assert := assert.New(t)
	p, slept := newTestPolicy(RetryConfig{})

	resp, err := p.Do(context.Background(), zap.NewNop(), func(context.Context) (doResponse, error) {
		return doResponse{code: http.StatusOK}, nil
	}, nil)

	assert.NoError(err)
	assert.Equal(http.StatusOK, resp.code)
	assert.Empty(*slept)
}

func TestDoRetriesOnlyRateLimited(t *testing.T) {
	tcs := []struct {
		Description   string
		Code          int
		ExpectedCalls int
	}{
		{Description: "Bad request fails fast", Code: http.StatusBadRequest, ExpectedCalls: 1},
		{Description: "Forbidden fails fast", Code: http.StatusForbidden, ExpectedCalls: 1},
		{Description: "Server error fails fast", Code: http.StatusInternalServerError, ExpectedCalls: 1},
	}
	for _, tc := range tcs {
		t.Run(tc.Description, func(t *testing.T) {
			assert := assert.New(t)
			p, _ := newTestPolicy(RetryConfig{})
			calls := 0
			resp, err := p.Do(context.Background(), zap.NewNop(), func(context.Context) (doResponse, error) {
				calls++
				return doResponse{code: tc.Code}, nil
			}, nil)
			assert.NoError(err)
			assert.Equal(tc.Code, resp.code)
			assert.Equal(tc.ExpectedCalls, calls)
		})
	}
}

func TestDoBacksOffExponentially(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	p, slept := newTestPolicy(RetryConfig{MaxRetries: 3, BaseDelay: time.Second})

	calls := 0
	retries := 0
	resp, err := p.Do(context.Background(), zap.NewNop(), func(context.Context) (doResponse, error) {
		calls++
		if calls < 4 {
			return doResponse{code: http.StatusTooManyRequests}, nil
		}
		return doResponse{code: http.StatusOK}, nil
	}, func() { retries++ })

	require.NoError(err)
	assert.Equal(http.StatusOK, resp.code)
	assert.Equal(4, calls)
	assert.Equal(3, retries)
	assert.Equal([]time.Duration{time.Second, 3 * time.Second, 9 * time.Second}, *slept)
}

func TestDoHonorsRetryAfter(t *testing.T) {
	assert := assert.New(t)
	p, slept := newTestPolicy(RetryConfig{MaxRetries: 1, BaseDelay: time.Second})

	calls := 0
	_, err := p.Do(context.Background(), zap.NewNop(), func(context.Context) (doResponse, error) {
		calls++
		if calls == 1 {
			return doResponse{code: http.StatusTooManyRequests, retryAfter: 7 * time.Second}, nil
		}
		return doResponse{code: http.StatusOK}, nil
	}, nil)

	assert.NoError(err)
	assert.Equal([]time.Duration{7 * time.Second}, *slept)
}

func TestDoExhaustionReturnsLastResponse(t *testing.T) {
	assert := assert.New(t)
	p, _ := newTestPolicy(RetryConfig{MaxRetries: 2})

	calls := 0
	resp, err := p.Do(context.Background(), zap.NewNop(), func(context.Context) (doResponse, error) {
		calls++
		return doResponse{code: http.StatusTooManyRequests}, nil
	}, nil)

	assert.NoError(err)
	assert.Equal(http.StatusTooManyRequests, resp.code)
	assert.Equal(3, calls)
}

func TestDoTransportErrorPropagates(t *testing.T) {
	assert := assert.New(t)
	p, _ := newTestPolicy(RetryConfig{})
	boom := errors.New("connection reset")

	_, err := p.Do(context.Background(), zap.NewNop(), func(context.Context) (doResponse, error) {
		return doResponse{}, boom
	}, nil)
	assert.ErrorIs(err, boom)
}

func TestDoCanceledDuringBackoff(t *testing.T) {
	assert := assert.New(t)
	p := newPolicy(RetryConfig{MaxRetries: 2})
	p.jitter = func(time.Duration) time.Duration { return 0 }
	p.sleep = func(ctx context.Context, _ time.Duration) error {
		return context.Canceled
	}

	_, err := p.Do(context.Background(), zap.NewNop(), func(context.Context) (doResponse, error) {
		return doResponse{code: http.StatusTooManyRequests}, nil
	}, nil)
	assert.ErrorIs(err, context.Canceled)
}

func TestParseRetryAfter(t *testing.T) {
	tcs := []struct {
		Description string
		Value       string
		Expected    time.Duration
	}{
		{Description: "Missing header", Value: "", Expected: 0},
		{Description: "Seconds", Value: "30", Expected: 30 * time.Second},
		{Description: "Negative seconds ignored", Value: "-5", Expected: 0},
		{Description: "Garbage ignored", Value: "soon", Expected: 0},
	}
	for _, tc := range tcs {
		t.Run(tc.Description, func(t *testing.T) {
			h := http.Header{}
			if tc.Value != "" {
				h.Set("Retry-After", tc.Value)
			}
			assert.Equal(t, tc.Expected, parseRetryAfter(h))
		})
	}
}
