// SPDX-FileCopyrightText: 2026 The npcusync Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/partnerops/npcusync/model"
	"github.com/partnerops/npcusync/northpass"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// npcuPropertyName is the custom property carrying the certification-unit
// value.
const npcuPropertyName = "npcu"

// npcuResult carries a resolved NPCU value plus its provenance.
type npcuResult struct {
	Value int `json:"value"`

	// Estimated is set when the value came from the name heuristic rather
	// than the properties API.
	Estimated bool `json:"estimated,omitempty"`
}

// CourseNPCU resolves the certification-unit value for a course. The value is
// always in {0,1,2}; anything else the remote reports is coerced to 0. The
// second return reports whether the value was estimated from the course name
// instead of read from the properties API.
func (r *Resolver) CourseNPCU(ctx context.Context, courseID, courseName string) (int, bool) {
	result, err := r.npcu(ctx, courseID)
	if err != nil {
		// Only context cancellation reaches here; degrade to the name
		// heuristic rather than dropping the course.
		r.logger.Warn("npcu lookup unavailable, estimating from course name",
			zap.String("courseId", courseID), zap.String("courseName", courseName), zap.Error(err))
		if r.measures != nil {
			r.measures.EstimatedNPCU.Add(1)
		}
		return EstimateNPCUFromName(courseName), true
	}
	return result.Value, result.Estimated
}

// fetchNPCU reads the properties sub-API for one course. Degraded outcomes
// return a zero value with a nil error on purpose: the zero gets cached,
// which keeps a misbehaving course from hammering the properties throttle
// every reconciliation.
func (r *Resolver) fetchNPCU(ctx context.Context, courseID string) (npcuResult, error) {
	if err := ctx.Err(); err != nil {
		return npcuResult{}, err
	}
	props, err := r.api.CourseProperties(ctx, courseID)
	switch {
	case err == nil:
		return npcuResult{Value: clampNPCU(props[npcuPropertyName])}, nil
	case errors.Is(err, northpass.ErrAccessDenied):
		if value, ok := r.config.NPCUOverrides[courseID]; ok {
			return npcuResult{Value: clampNPCUInt(value)}, nil
		}
		r.recordFailure(courseID, "", model.FailurePropertiesAccessDenied, nil)
		return npcuResult{}, nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return npcuResult{}, err
	default:
		r.logger.Error("properties lookup failed, caching zero npcu",
			zap.String("courseId", courseID), zap.Error(err))
		return npcuResult{}, nil
	}
}

// clampNPCU coerces whatever JSON scalar the properties API stored into a
// valid NPCU. The remote is loosely typed: values arrive as numbers, numeric
// strings, or worse.
func clampNPCU(raw interface{}) int {
	return clampNPCUInt(cast.ToInt(raw))
}

func clampNPCUInt(v int) int {
	if v < 0 || v > 2 {
		return 0
	}
	return v
}

// NPCUValue is a resolved certification-unit value plus its provenance.
type NPCUValue struct {
	Value     int
	Estimated bool
}

// BatchCourseNPCU resolves NPCU for many courses in small concurrent windows
// with an inter-window pause, so a large transcript cannot starve the
// properties throttle. The returned map always has an entry per input course.
func (r *Resolver) BatchCourseNPCU(ctx context.Context, courses []model.CatalogEntry) map[string]NPCUValue {
	out := make(map[string]NPCUValue, len(courses))
	var lock sync.Mutex

	for start := 0; start < len(courses); start += r.config.BatchSize {
		end := start + r.config.BatchSize
		if end > len(courses) {
			end = len(courses)
		}

		var wg sync.WaitGroup
		for _, course := range courses[start:end] {
			wg.Add(1)
			go func(course model.CatalogEntry) {
				defer wg.Done()
				value, estimated := r.CourseNPCU(ctx, course.CourseID, course.Name)
				lock.Lock()
				out[course.CourseID] = NPCUValue{Value: value, Estimated: estimated}
				lock.Unlock()
			}(course)
		}
		wg.Wait()

		if end < len(courses) {
			if err := r.sleep(ctx, r.config.BatchDelay); err != nil {
				// Cancelled mid-batch; remaining courses score zero.
				for _, course := range courses[end:] {
					out[course.CourseID] = NPCUValue{}
				}
				return out
			}
		}
	}
	return out
}

// npcu name-heuristic keywords
var (
	seniorKeywords        = []string{"advanced", "expert", "professional"}
	certificationKeywords = []string{"certification", "certified", "certificate", "accreditation"}
)

// EstimateNPCUFromName guesses a certification-unit value from the course
// title. This is a degraded fallback for when the properties path is entirely
// unavailable, never the primary source.
func EstimateNPCUFromName(name string) int {
	lower := strings.ToLower(name)
	for _, kw := range seniorKeywords {
		if strings.Contains(lower, kw) {
			return 2
		}
	}
	for _, kw := range certificationKeywords {
		if strings.Contains(lower, kw) {
			return 1
		}
	}
	return 0
}
