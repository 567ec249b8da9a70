// SPDX-FileCopyrightText: 2026 The npcusync Authors
// SPDX-License-Identifier: Apache-2.0

package metric

import (
	"github.com/partnerops/npcusync/cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmidt-org/touchstone"
	"go.uber.org/fx"
)

// Names
const (
	QuerySuccessCounter  = "cache_tier_query_success_count"
	QueryFailureCounter  = "cache_tier_query_failure_count"
	PurgedEntriesCounter = "cache_tier_purged_entries_count"
)

// ProvideMetrics returns the metrics relevant to the persistent cache tiers.
func ProvideMetrics() fx.Option {
	return fx.Options(
		touchstone.CounterVec(
			prometheus.CounterOpts{
				Name: QuerySuccessCounter,
				Help: "The total number of successful persistent tier queries.",
			},
			cache.TypeLabel,
		),
		touchstone.CounterVec(
			prometheus.CounterOpts{
				Name: QueryFailureCounter,
				Help: "The total number of failed persistent tier queries.",
			},
			cache.TypeLabel,
		),
		touchstone.Counter(
			prometheus.CounterOpts{
				Name: PurgedEntriesCounter,
				Help: "The total number of expired entries purged from the persistent tier.",
			},
		),
	)
}

type Measures struct {
	fx.In
	QuerySuccess  *prometheus.CounterVec `name:"cache_tier_query_success_count"`
	QueryFailure  *prometheus.CounterVec `name:"cache_tier_query_failure_count"`
	PurgedEntries prometheus.Counter     `name:"cache_tier_purged_entries_count"`
}
