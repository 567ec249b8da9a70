// SPDX-FileCopyrightText: 2026 The npcusync Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmidt-org/touchstone"
	"go.uber.org/fx"
)

// Names
const (
	PollCounter          = "catalog_refresh_polls_total"
	FailedCoursesGauge   = "failed_courses_count"
	EstimatedNPCUCounter = "npcu_estimated_total"
)

// Labels
const (
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
				Name: PollCounter,
				Help: "Counter for background catalog refresh attempts and their outcomes.",
			},
			OutcomeLabel,
		),
		touchstone.Gauge(
			prometheus.GaugeOpts{
				Name: FailedCoursesGauge,
				Help: "Number of courses currently registered as failing validation.",
			},
		),
		touchstone.Counter(
			prometheus.CounterOpts{
				Name: EstimatedNPCUCounter,
				Help: "Counter for NPCU values produced by the name heuristic instead of the properties API.",
			},
		),
	)
}

type Measures struct {
	fx.In
	Polls         *prometheus.CounterVec `name:"catalog_refresh_polls_total"`
	FailedCourses prometheus.Gauge       `name:"failed_courses_count"`
	EstimatedNPCU prometheus.Counter     `name:"npcu_estimated_total"`
}
