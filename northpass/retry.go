// SPDX-FileCopyrightText: 2026 The npcusync Authors
// SPDX-License-Identifier: Apache-2.0

package northpass

import (
	"context"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// RetryConfig shapes the backoff applied to rate-limited requests.
type RetryConfig struct {
	// MaxRetries is the number of re-attempts after the first try.
	// (Optional) Defaults to 3.
	MaxRetries int

	// BaseDelay seeds the exponential backoff: BaseDelay * 3^attempt.
	// (Optional) Defaults to 1s.
	BaseDelay time.Duration

	// MaxJitter is the upper bound of the random delay added to each
	// backoff. (Optional) Defaults to 400ms.
	MaxJitter time.Duration
}

const (
	defaultMaxRetries = 3
	defaultBaseDelay  = time.Second
	defaultMaxJitter  = 400 * time.Millisecond
	backoffMultiplier = 3
)

// Policy retries an HTTP operation while the remote keeps answering 429.
// Every other status, and every transport error, propagates immediately;
// callers own their own fallbacks for those.
type Policy struct {
	maxRetries int
	baseDelay  time.Duration
	maxJitter  time.Duration

	sleep  func(context.Context, time.Duration) error
	jitter func(time.Duration) time.Duration
}

func newPolicy(config RetryConfig) Policy {
	if config.MaxRetries <= 0 {
		config.MaxRetries = defaultMaxRetries
	}
	if config.BaseDelay <= 0 {
		config.BaseDelay = defaultBaseDelay
	}
	if config.MaxJitter <= 0 {
		config.MaxJitter = defaultMaxJitter
	}
	return Policy{
		maxRetries: config.MaxRetries,
		baseDelay:  config.BaseDelay,
		maxJitter:  config.MaxJitter,
		sleep:      sleepContext,
		jitter: func(max time.Duration) time.Duration {
			return time.Duration(rand.Int63n(int64(max)))
		},
	}
}

// Do runs op, retrying with exponential backoff while it reports 429. The
// last response is returned when retries are exhausted so the caller can
// surface the status. onRetry, when set, is invoked before each re-attempt.
func (p Policy) Do(ctx context.Context, logger *zap.Logger, op func(context.Context) (doResponse, error), onRetry func()) (doResponse, error) {
	var resp doResponse
	var err error
	for attempt := 0; ; attempt++ {
		resp, err = op(ctx)
		if err != nil {
			return resp, err
		}
		if resp.code != http.StatusTooManyRequests {
			return resp, nil
		}
		if attempt >= p.maxRetries {
			logger.Error("rate limit retries exhausted", zap.Int("attempts", attempt+1))
			return resp, nil
		}

		delay := resp.retryAfter
		if delay <= 0 {
			delay = p.baseDelay * time.Duration(pow(backoffMultiplier, attempt))
		}
		delay += p.jitter(p.maxJitter)
		logger.Warn("rate limited, backing off",
			zap.Int("attempt", attempt+1), zap.Duration("delay", delay))
		if onRetry != nil {
			onRetry()
		}
		if sleepErr := p.sleep(ctx, delay); sleepErr != nil {
			return resp, sleepErr
		}
	}
}

func pow(base, exp int) int64 {
	out := int64(1)
	for i := 0; i < exp; i++ {
		out *= int64(base)
	}
	return out
}

// parseRetryAfter reads the Retry-After header as seconds or an HTTP date.
// Zero means the header was missing or unusable.
func parseRetryAfter(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
