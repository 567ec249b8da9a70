// SPDX-FileCopyrightText: 2026 The npcusync Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/xmidt-org/arrange"
	"github.com/xmidt-org/candlelight"
	"github.com/xmidt-org/touchstone"
	"github.com/xmidt-org/touchstone/touchhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/partnerops/npcusync/cache"
	"github.com/partnerops/npcusync/cache/db"
	"github.com/partnerops/npcusync/catalog"
	"github.com/partnerops/npcusync/groups"
	"github.com/partnerops/npcusync/northpass"
	"github.com/partnerops/npcusync/reports"
	"github.com/partnerops/npcusync/transcript"
)

const (
	applicationName = "npcusync"
	apiBase         = "api/v1"
)

var (
	GitCommit = "undefined"
	Version   = "undefined"
	BuildTime = "undefined"
)

func main() {
	v, logger, err := setup(os.Args[1:])
	if err != nil {
		if errors.Is(err, errVersionRequested) || errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	app := fx.New(
		arrange.LoggerFunc(logger.Sugar().Infof),
		arrange.ForViper(v),
		fx.Supply(logger, v),
		touchstone.Provide(),
		northpass.ProvideMetrics(),
		catalog.ProvideMetrics(),
		db.Provide(),
		reports.ProvideHandlers(),
		provideServerMetrics(),
		fx.Provide(
			candlelight.New,
			func(v *viper.Viper) (candlelight.Config, error) {
				var config candlelight.Config
				err := v.UnmarshalKey("tracing", &config)
				if err != nil {
					return candlelight.Config{}, err
				}
				config.ApplicationName = applicationName
				return config, nil
			},
			provideNorthpassConfig,
			provideCacheConfig,
			provideDBConfigs,
			provideCatalogConfig,
			provideRefresherConfig,
			provideBatchConfig,
			provideGroupsConfig,
			provideServersConfig,
			newNorthpassClient,
			newCache,
			catalog.NewTracker,
			newResolver,
			newRefresher,
			newPipeline,
			newBatch,
			newGroupService,
			func(p *transcript.Pipeline) reports.Reconciler { return p },
			func(b *transcript.Batch) reports.BatchRunner { return b },
			func(c *cache.Cache) reports.CacheAdmin { return c },
			func(t *catalog.Tracker) reports.FailedCourses { return t },
			newPrimaryHandler,
			fx.Annotated{
				Name: "metrics_handler",
				Target: func(g prometheus.Gatherer) http.Handler {
					return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
				},
			},
			newHealthHandler,
		),
		fx.Invoke(
			runRefresher,
			runServers,
		),
	)

	switch err := app.Err(); {
	case errors.Is(err, pflag.ErrHelp):
		return
	case err == nil:
		app.Run()
	default:
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func provideServerMetrics() fx.Option {
	return fx.Provide(
		fx.Annotated{
			Name: "servers.primary.metrics",
			Target: touchhttp.ServerBundle{}.NewInstrumenter(
				touchhttp.ServerLabel, "primary",
			),
		},
		fx.Annotated{
			Name: "servers.health.metrics",
			Target: touchhttp.ServerBundle{}.NewInstrumenter(
				touchhttp.ServerLabel, "health",
			),
		},
	)
}

func newNorthpassClient(config northpass.ClientConfig, logger *zap.Logger, measures northpass.Measures) (*northpass.BasicClient, error) {
	config.Logger = logger
	return northpass.NewBasicClient(config, nil, &measures)
}

type cacheIn struct {
	fx.In
	Persistent cache.S `name:"cache_persistent_tier" optional:"true"`
	Logger     *zap.Logger
	Config     cache.Config
}

func newCache(in cacheIn) *cache.Cache {
	return cache.New(db.NewFastTier(), in.Persistent, in.Logger, in.Config)
}

func newResolver(client *northpass.BasicClient, c *cache.Cache, tracker *catalog.Tracker, logger *zap.Logger, measures catalog.Measures, config catalog.Config) *catalog.Resolver {
	return catalog.NewResolver(client, c, tracker, logger, &measures, config)
}

func newRefresher(resolver *catalog.Resolver, measures catalog.Measures, config catalog.RefresherConfig, logger *zap.Logger) *catalog.Refresher {
	config.Logger = logger
	return catalog.NewRefresher(resolver, &measures, config)
}

func newPipeline(client *northpass.BasicClient, resolver *catalog.Resolver, logger *zap.Logger) *transcript.Pipeline {
	return transcript.NewPipeline(client, resolver, logger)
}

func newBatch(pipeline *transcript.Pipeline, logger *zap.Logger, config transcript.BatchConfig) *transcript.Batch {
	return transcript.NewBatch(pipeline, logger, config)
}

func newGroupService(client *northpass.BasicClient, c *cache.Cache, logger *zap.Logger, config groups.Config) *groups.Service {
	return groups.NewService(client, c, logger, config)
}

func runRefresher(lc fx.Lifecycle, refresher *catalog.Refresher) {
	lc.Append(fx.Hook{
		OnStart: refresher.Start,
		OnStop:  refresher.Stop,
	})
}
