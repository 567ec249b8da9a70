// SPDX-FileCopyrightText: 2026 The npcusync Authors
// SPDX-License-Identifier: Apache-2.0

package reports

import (
	"context"

	"github.com/go-kit/kit/endpoint"
	"github.com/partnerops/npcusync/cache"
	"github.com/partnerops/npcusync/catalog"
	"github.com/partnerops/npcusync/model"
	"github.com/partnerops/npcusync/transcript"
)

// Reconciler is the transcript pipeline surface the report endpoints use.
type Reconciler interface {
	Reconcile(ctx context.Context, personID string) ([]model.Certification, model.Summary, error)
}

// BatchRunner runs reconciliation for many people.
type BatchRunner interface {
	Run(ctx context.Context, personIDs []string, progress chan<- transcript.Progress) []transcript.Result
}

// CacheAdmin is the cache surface the admin endpoints use.
type CacheAdmin interface {
	Stats() cache.Stats
	ClearAll(ctx context.Context)
	ClearNamespace(ctx context.Context, namespace string)
}

// FailedCourses is the tracker surface the admin endpoints use.
type FailedCourses interface {
	Records() []model.FailedCourseRecord
	Stats() map[model.FailureReason]int
	Clear() int
}

type certificationsResponse struct {
	PersonID       string                `json:"personId"`
	Certifications []model.Certification `json:"certifications"`
	Summary        model.Summary         `json:"summary"`
}

func newCertificationsEndpoint(r Reconciler) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(*personRequest)
		certifications, summary, err := r.Reconcile(ctx, req.personID)
		if err != nil {
			return nil, err
		}
		return &certificationsResponse{
			PersonID:       req.personID,
			Certifications: certifications,
			Summary:        summary,
		}, nil
	}
}

func newSummaryEndpoint(r Reconciler) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(*personRequest)
		_, summary, err := r.Reconcile(ctx, req.personID)
		if err != nil {
			return nil, err
		}
		return &summary, nil
	}
}

type reconcileResponse struct {
	Results []personResult `json:"results"`
}

type personResult struct {
	PersonID       string                `json:"personId"`
	Certifications []model.Certification `json:"certifications,omitempty"`
	Summary        model.Summary         `json:"summary"`
	Error          string                `json:"error,omitempty"`
}

func newReconcileEndpoint(b BatchRunner) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(*reconcileRequest)
		results := b.Run(ctx, req.PersonIDs, nil)
		out := &reconcileResponse{Results: make([]personResult, 0, len(results))}
		for _, result := range results {
			pr := personResult{
				PersonID:       result.PersonID,
				Certifications: result.Certifications,
				Summary:        result.Summary,
			}
			if result.Err != nil {
				pr.Error = result.Err.Error()
			}
			out.Results = append(out.Results, pr)
		}
		return out, nil
	}
}

func newCacheStatsEndpoint(c CacheAdmin) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		stats := c.Stats()
		return &stats, nil
	}
}

type cacheClearResponse struct {
	Cleared string `json:"cleared"`
}

func newCacheClearEndpoint(c CacheAdmin) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(*cacheClearRequest)
		if req.namespace == "" {
			c.ClearAll(ctx)
			return &cacheClearResponse{Cleared: "all"}, nil
		}
		c.ClearNamespace(ctx, req.namespace)
		return &cacheClearResponse{Cleared: req.namespace}, nil
	}
}

type failedCoursesResponse struct {
	Counts  map[model.FailureReason]int `json:"counts"`
	Records []model.FailedCourseRecord  `json:"records"`
}

func newFailedCoursesEndpoint(t FailedCourses) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		return &failedCoursesResponse{
			Counts:  t.Stats(),
			Records: t.Records(),
		}, nil
	}
}

type failedCoursesClearResponse struct {
	Dropped int `json:"dropped"`
}

func newFailedCoursesClearEndpoint(t FailedCourses) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		return &failedCoursesClearResponse{Dropped: t.Clear()}, nil
	}
}

var _ FailedCourses = (*catalog.Tracker)(nil)
