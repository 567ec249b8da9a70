// SPDX-FileCopyrightText: 2026 The npcusync Authors
// SPDX-License-Identifier: Apache-2.0

package northpass

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmidt-org/touchstone"
	"go.uber.org/fx"
)

// Names
const (
	RequestCounter      = "northpass_requests_total"
	RetryCounter        = "northpass_retries_total"
	ThrottleWaitSeconds = "northpass_throttle_wait_seconds"
)

// Labels
const (
	ProfileLabel = "profile"
	OutcomeLabel = "outcome"
)

// Label values
const (
	SuccessOutcome = "success"
	FailureOutcome = "failure"
)

// ProvideMetrics returns the metrics relevant to this package.
func ProvideMetrics() fx.Option {
	return fx.Options(
		touchstone.CounterVec(
			prometheus.CounterOpts{
				Name: RequestCounter,
				Help: "Counter for outbound Northpass requests and their outcomes, partitioned by throttle profile.",
			},
			ProfileLabel, OutcomeLabel,
		),
		touchstone.CounterVec(
			prometheus.CounterOpts{
				Name: RetryCounter,
				Help: "Counter for 429-triggered request retries, partitioned by throttle profile.",
			},
			ProfileLabel,
		),
		touchstone.HistogramVec(
			prometheus.HistogramOpts{
				Name:    ThrottleWaitSeconds,
				Help:    "Time requests spent queued behind the outbound rate limiter.",
				Buckets: []float64{.005, .05, .25, .5, 1, 2.5, 5, 10, 30},
			},
			ProfileLabel,
		),
	)
}

type Measures struct {
	fx.In
	Requests     *prometheus.CounterVec   `name:"northpass_requests_total"`
	Retries      *prometheus.CounterVec   `name:"northpass_retries_total"`
	ThrottleWait *prometheus.HistogramVec `name:"northpass_throttle_wait_seconds"`
}
