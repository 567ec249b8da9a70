// SPDX-FileCopyrightText: 2026 The npcusync Authors
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"github.com/partnerops/npcusync/cache"
	"github.com/partnerops/npcusync/cache/cassandra"
	"github.com/partnerops/npcusync/cache/db/metric"
	"github.com/partnerops/npcusync/cache/dynamodb"
	"github.com/partnerops/npcusync/cache/inmem"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Configs selects the persistent tier backend. With neither set the cache
// runs fast-tier-only.
type Configs struct {
	Dynamo   *dynamodb.Config
	Yugabyte *cassandra.Config
}

type SetupIn struct {
	fx.In
	Configs  Configs
	Measures metric.Measures
	LC       fx.Lifecycle
	Logger   *zap.Logger
}

type PersistentOut struct {
	fx.Out
	Persistent cache.S `name:"cache_persistent_tier"`
}

func Provide() fx.Option {
	return fx.Options(
		metric.ProvideMetrics(),
		fx.Provide(
			func(in SetupIn) (PersistentOut, error) {
				tier, err := SetupPersistentTier(in)
				return PersistentOut{Persistent: tier}, err
			},
		),
	)
}

// SetupPersistentTier builds the configured persistent tier, or nil when the
// cache should run in memory only.
func SetupPersistentTier(in SetupIn) (cache.S, error) {
	if in.Configs.Dynamo != nil {
		in.Logger.Info("using dynamodb persistent cache tier")
		return dynamodb.NewDynamoDB(*in.Configs.Dynamo, in.Measures)
	}
	if in.Configs.Yugabyte != nil {
		in.Logger.Info("using yugabyte persistent cache tier")
		return cassandra.NewCassandra(*in.Configs.Yugabyte, in.Measures, in.LC, in.Logger)
	}
	in.Logger.Info("no persistent cache tier configured, caching in memory only")
	return nil, nil
}

// NewFastTier is the always-present in-process tier.
func NewFastTier() cache.S {
	return inmem.NewInMem()
}
