// SPDX-FileCopyrightText: 2026 The npcusync Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/partnerops/npcusync/cache"
	"github.com/partnerops/npcusync/model"
	"github.com/partnerops/npcusync/northpass"
	"go.uber.org/zap"
)

const (
	catalogNamespace = "catalog"
	npcuNamespace    = "npcu"

	// single logical key for the merged catalog snapshot
	catalogSnapshotKey = "merged"
)

// API is the subset of the Northpass client the resolver depends on.
type API interface {
	Courses(ctx context.Context) ([]northpass.Course, error)
	ArchivedCourses(ctx context.Context) ([]northpass.Course, error)
	Course(ctx context.Context, courseID string) (northpass.Course, error)
	CourseProperties(ctx context.Context, courseID string) (map[string]interface{}, error)
}

// Config shapes catalog and NPCU resolution.
type Config struct {
	// CatalogTTL is how long a merged catalog snapshot is reused.
	// (Optional) Defaults to 5 minutes.
	CatalogTTL time.Duration

	// NPCUTTL is how long a per-course NPCU value is reused.
	// (Optional) Defaults to 30 minutes.
	NPCUTTL time.Duration

	// Denylist holds lowercase name fragments identifying test or invalid
	// courses that must never appear in the catalog.
	Denylist []string

	// NPCUOverrides maps course IDs to known NPCU values, consulted when
	// the properties sub-API denies access.
	NPCUOverrides map[string]int

	// BatchSize caps concurrent NPCU lookups per window.
	// (Optional) Defaults to 4.
	BatchSize int

	// BatchDelay is the pause between NPCU lookup windows.
	// (Optional) Defaults to 500ms.
	BatchDelay time.Duration
}

func (c *Config) applyDefaults() {
	if c.CatalogTTL <= 0 {
		c.CatalogTTL = 5 * time.Minute
	}
	if c.NPCUTTL <= 0 {
		c.NPCUTTL = 30 * time.Minute
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 4
	}
	if c.BatchDelay <= 0 {
		c.BatchDelay = 500 * time.Millisecond
	}
	if c.Denylist == nil {
		c.Denylist = []string{"test course", "do not use", "deprecated", "[demo]"}
	}
}

// Resolver answers "is this course valid" and "how much NPCU credit is it
// worth" questions, caching aggressively so transcript reconciliation stays
// cheap.
type Resolver struct {
	api      API
	tracker  *Tracker
	logger   *zap.Logger
	config   Config
	measures *Measures

	catalog func(context.Context, string) (map[string]model.CatalogEntry, error)
	npcu    func(context.Context, string) (npcuResult, error)

	sleep func(context.Context, time.Duration) error
	now   func() time.Time
}

// NewResolver builds a resolver whose catalog and NPCU lookups run through
// the given cache. Measures may be nil; metrics are then skipped.
func NewResolver(api API, c *cache.Cache, tracker *Tracker, logger *zap.Logger, measures *Measures, config Config) *Resolver {
	config.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Resolver{
		api:      api,
		tracker:  tracker,
		logger:   logger,
		config:   config,
		measures: measures,
		sleep:    sleepContext,
		now:      time.Now,
	}
	r.catalog = cache.Wrap(c, catalogNamespace, config.CatalogTTL, r.fetchCatalog)
	r.npcu = cache.Wrap(c, npcuNamespace, config.NPCUTTL, r.fetchNPCU)
	return r
}

// Catalog returns the merged live + archived course map. The catalog is an
// optimization layer: any fetch failure yields an empty map, never an error,
// so callers fall through to individual course lookups.
func (r *Resolver) Catalog(ctx context.Context) map[string]model.CatalogEntry {
	entries, err := r.catalog(ctx, catalogSnapshotKey)
	if err != nil {
		r.logger.Error("catalog fetch failed, continuing with empty catalog", zap.Error(err))
		return map[string]model.CatalogEntry{}
	}
	return entries
}

func (r *Resolver) fetchCatalog(ctx context.Context, _ string) (map[string]model.CatalogEntry, error) {
	live, err := r.api.Courses(ctx)
	if err != nil {
		return nil, err
	}
	archived, err := r.api.ArchivedCourses(ctx)
	if err != nil {
		// A partial catalog still beats none. Archived courses just
		// fall back to individual lookups.
		r.logger.Warn("archived course listing failed, catalog will be live-only", zap.Error(err))
		archived = nil
	}

	out := make(map[string]model.CatalogEntry, len(live)+len(archived))
	for _, course := range live {
		if r.denied(course.Name) {
			continue
		}
		out[course.ID] = model.CatalogEntry{CourseID: course.ID, Name: course.Name, Status: model.CourseLive}
	}
	for _, course := range archived {
		if r.denied(course.Name) {
			continue
		}
		if _, ok := out[course.ID]; ok {
			continue
		}
		out[course.ID] = model.CatalogEntry{CourseID: course.ID, Name: course.Name, Status: model.CourseArchived}
	}
	return out, nil
}

func (r *Resolver) denied(name string) bool {
	lower := strings.ToLower(name)
	for _, fragment := range r.config.Denylist {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}

// validationFailureReasons are the failure classes that exclude a course from
// reconciliation. A properties-API denial is deliberately absent: it degrades
// the course's NPCU to zero but never invalidates the course itself.
var validationFailureReasons = []model.FailureReason{
	model.FailureNotFound,
	model.FailureAccessDenied,
	model.FailureOther,
}

// ValidateCourse resolves a transcript course reference against the catalog.
// A nil entry means the course is excluded from NPCU consideration: it was
// deleted, denylisted, or inaccessible. The tracker is consulted first so
// known-bad courses cost nothing.
func (r *Resolver) ValidateCourse(ctx context.Context, courseID, courseName string) (*model.CatalogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.tracker.IsKnownFailed(courseID, validationFailureReasons...) {
		return nil, nil
	}
	if r.denied(courseName) {
		return nil, nil
	}

	if entry, ok := r.Catalog(ctx)[courseID]; ok {
		return &entry, nil
	}

	// Absent from the snapshot. Either genuinely deleted or newer than the
	// cached catalog; an individual lookup settles it.
	course, err := r.api.Course(ctx, courseID)
	switch {
	case err == nil:
		status := model.CourseLive
		if course.Archived {
			status = model.CourseArchived
		}
		return &model.CatalogEntry{CourseID: course.ID, Name: course.Name, Status: status}, nil
	case errors.Is(err, northpass.ErrNotFound):
		r.recordFailure(courseID, courseName, model.FailureNotFound, nil)
		return nil, nil
	case errors.Is(err, northpass.ErrAccessDenied):
		r.recordFailure(courseID, courseName, model.FailureAccessDenied, nil)
		return nil, nil
	default:
		r.logger.Error("course lookup failed", zap.String("courseId", courseID), zap.Error(err))
		r.recordFailure(courseID, courseName, model.FailureOther, map[string]string{"error": err.Error()})
		return nil, nil
	}
}

func (r *Resolver) recordFailure(courseID, courseName string, reason model.FailureReason, metadata map[string]string) {
	r.tracker.RecordFailure(courseID, courseName, reason, metadata)
	if r.measures != nil {
		r.measures.FailedCourses.Set(float64(r.tracker.Len()))
	}
}

// ExpiresAt computes when a certification earned at completedAt stops
// counting toward NPCU totals: the same calendar day 24 months later.
func ExpiresAt(completedAt time.Time) time.Time {
	return completedAt.AddDate(0, model.ValidityMonths, 0)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
