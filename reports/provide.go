// SPDX-FileCopyrightText: 2026 The npcusync Authors
// SPDX-License-Identifier: Apache-2.0

package reports

import (
	"github.com/go-kit/kit/endpoint"
	kithttp "github.com/go-kit/kit/transport/http"
	"go.uber.org/fx"
)

type Handler = kithttp.Server

// ProvideHandlers builds the named report and admin handlers for the primary
// server.
func ProvideHandlers() fx.Option {
	return fx.Provide(
		fx.Annotated{
			Name:   "certifications_handler",
			Target: newCertificationsHandler,
		},
		fx.Annotated{
			Name:   "summary_handler",
			Target: newSummaryHandler,
		},
		fx.Annotated{
			Name:   "reconcile_handler",
			Target: newReconcileHandler,
		},
		fx.Annotated{
			Name:   "cache_stats_handler",
			Target: newCacheStatsHandler,
		},
		fx.Annotated{
			Name:   "cache_clear_handler",
			Target: newCacheClearHandler,
		},
		fx.Annotated{
			Name:   "failed_courses_handler",
			Target: newFailedCoursesHandler,
		},
		fx.Annotated{
			Name:   "failed_courses_clear_handler",
			Target: newFailedCoursesClearHandler,
		},
	)
}

func newServer(e endpoint.Endpoint, decode kithttp.DecodeRequestFunc) *Handler {
	return kithttp.NewServer(
		e,
		decode,
		encodeJSONResponse,
		kithttp.ServerErrorEncoder(encodeError),
	)
}

func newCertificationsHandler(r Reconciler) *Handler {
	return newServer(newCertificationsEndpoint(r), personRequestDecoder)
}

func newSummaryHandler(r Reconciler) *Handler {
	return newServer(newSummaryEndpoint(r), personRequestDecoder)
}

func newReconcileHandler(b BatchRunner) *Handler {
	return newServer(newReconcileEndpoint(b), reconcileRequestDecoder)
}

func newCacheStatsHandler(c CacheAdmin) *Handler {
	return newServer(newCacheStatsEndpoint(c), emptyRequestDecoder)
}

func newCacheClearHandler(c CacheAdmin) *Handler {
	return newServer(newCacheClearEndpoint(c), cacheClearRequestDecoder)
}

func newFailedCoursesHandler(t FailedCourses) *Handler {
	return newServer(newFailedCoursesEndpoint(t), emptyRequestDecoder)
}

func newFailedCoursesClearHandler(t FailedCourses) *Handler {
	return newServer(newFailedCoursesClearEndpoint(t), emptyRequestDecoder)
}
