// SPDX-FileCopyrightText: 2026 The npcusync Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/justinas/alice"
	"github.com/xmidt-org/candlelight"
	"github.com/xmidt-org/httpaux"
	"github.com/xmidt-org/touchstone/touchhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/partnerops/npcusync/reports"
)

type PrimaryHandlersIn struct {
	fx.In
	Certifications     *reports.Handler `name:"certifications_handler"`
	Summary            *reports.Handler `name:"summary_handler"`
	Reconcile          *reports.Handler `name:"reconcile_handler"`
	CacheStats         *reports.Handler `name:"cache_stats_handler"`
	CacheClear         *reports.Handler `name:"cache_clear_handler"`
	FailedCourses      *reports.Handler `name:"failed_courses_handler"`
	FailedCoursesClear *reports.Handler `name:"failed_courses_clear_handler"`
}

type PrimaryRouterIn struct {
	fx.In
	Handlers PrimaryHandlersIn
	Metrics  touchhttp.ServerInstrumenter `name:"servers.primary.metrics"`

	// Tracing is used to set up tracing instrumentation code.
	Tracing candlelight.Tracing
}

type PrimaryHandlerOut struct {
	fx.Out
	Handler http.Handler `name:"primary_handler"`
}

func newPrimaryHandler(in PrimaryRouterIn) PrimaryHandlerOut {
	router := mux.NewRouter()

	options := []otelmux.Option{
		otelmux.WithTracerProvider(in.Tracing.TracerProvider()),
		otelmux.WithPropagators(in.Tracing.Propagator()),
	}
	router.Use(
		otelmux.Middleware("server_primary", options...),
		candlelight.EchoFirstTraceNodeInfo(in.Tracing, false),
	)

	partnerPath := fmt.Sprintf("/%s/partners/{%s}", apiBase, "personId")
	router.Handle(partnerPath+"/certifications", in.Handlers.Certifications).Methods(http.MethodGet)
	router.Handle(partnerPath+"/summary", in.Handlers.Summary).Methods(http.MethodGet)
	router.Handle("/"+apiBase+"/reconcile", in.Handlers.Reconcile).Methods(http.MethodPost)
	router.Handle("/"+apiBase+"/cache/stats", in.Handlers.CacheStats).Methods(http.MethodGet)
	router.Handle("/"+apiBase+"/cache", in.Handlers.CacheClear).Methods(http.MethodDelete)
	router.Handle("/"+apiBase+"/courses/failed", in.Handlers.FailedCourses).Methods(http.MethodGet)
	router.Handle("/"+apiBase+"/courses/failed", in.Handlers.FailedCoursesClear).Methods(http.MethodDelete)

	return PrimaryHandlerOut{Handler: alice.New(in.Metrics.Then).Then(router)}
}

type HealthIn struct {
	fx.In
	Metrics touchhttp.ServerInstrumenter `name:"servers.health.metrics"`
}

type HealthOut struct {
	fx.Out
	Handler http.Handler `name:"health_handler"`
}

func newHealthHandler(in HealthIn) HealthOut {
	router := mux.NewRouter()
	router.Handle("/health", httpaux.ConstantHandler{
		StatusCode: http.StatusOK,
	}).Methods(http.MethodGet)
	return HealthOut{Handler: in.Metrics.Then(router)}
}

type ServersIn struct {
	fx.In
	Config  ServersConfig
	LC      fx.Lifecycle
	Logger  *zap.Logger
	Primary http.Handler `name:"primary_handler"`
	Metrics http.Handler `name:"metrics_handler"`
	Health  http.Handler `name:"health_handler"`
}

func runServers(in ServersIn) {
	serve(in.LC, in.Logger, "primary", in.Config.Primary, in.Primary)
	serve(in.LC, in.Logger, "metrics", in.Config.Metrics, in.Metrics)
	serve(in.LC, in.Logger, "health", in.Config.Health, in.Health)
}

// serve registers lifecycle hooks for one HTTP server. Listen errors surface
// at startup; serve errors after that only get logged.
func serve(lc fx.Lifecycle, logger *zap.Logger, name, address string, handler http.Handler) {
	server := &http.Server{
		Addr:              address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			listener, err := net.Listen("tcp", address)
			if err != nil {
				return fmt.Errorf("failed to listen on %s for %s server: %w", address, name, err)
			}
			logger.Info("starting server", zap.String("server", name), zap.String("address", address))
			go func() {
				if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
					logger.Error("server terminated", zap.String("server", name), zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return server.Shutdown(ctx)
		},
	})
}
