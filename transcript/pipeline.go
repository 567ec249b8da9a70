// SPDX-FileCopyrightText: 2026 The npcusync Authors
// SPDX-License-Identifier: Apache-2.0

package transcript

import (
	"context"
	"sort"
	"time"

	"github.com/partnerops/npcusync/catalog"
	"github.com/partnerops/npcusync/model"
	"go.uber.org/zap"
)

// Source fetches a person's raw transcript.
type Source interface {
	Transcript(ctx context.Context, personID string) ([]model.TranscriptItem, error)
}

// CourseResolver answers validity and NPCU questions about courses.
type CourseResolver interface {
	ValidateCourse(ctx context.Context, courseID, courseName string) (*model.CatalogEntry, error)
	BatchCourseNPCU(ctx context.Context, courses []model.CatalogEntry) map[string]catalog.NPCUValue
}

// Pipeline reconciles a person's completion transcript against the course
// catalog into a deduplicated, NPCU-scored certification list. The pipeline
// itself is stateless; sharing one across goroutines is fine.
type Pipeline struct {
	source   Source
	resolver CourseResolver
	logger   *zap.Logger
	now      func() time.Time
}

// NewPipeline builds a reconciliation pipeline.
func NewPipeline(source Source, resolver CourseResolver, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		source:   source,
		resolver: resolver,
		logger:   logger,
		now:      time.Now,
	}
}

// Reconcile runs the full pipeline for one person: fetch the transcript,
// keep completed courses, drop learning-path containers and deleted courses,
// deduplicate retakes keeping the most recent completion, then score and
// bucket what remains. Certifications come back ordered by completion time,
// newest first.
func (p *Pipeline) Reconcile(ctx context.Context, personID string) ([]model.Certification, model.Summary, error) {
	items, err := p.source.Transcript(ctx, personID)
	if err != nil {
		return nil, model.Summary{}, err
	}

	completed := make([]model.TranscriptItem, 0, len(items))
	for _, item := range items {
		if !item.Completed() {
			continue
		}
		if item.ResourceType == model.ResourceLearningPath {
			// Containers carry no credit of their own; their leaf
			// courses appear as separate transcript items.
			continue
		}
		completed = append(completed, item)
	}

	validated := make([]model.TranscriptItem, 0, len(completed))
	entries := make(map[string]model.CatalogEntry, len(completed))
	for _, item := range completed {
		if _, seen := entries[item.ResourceID]; seen {
			validated = append(validated, item)
			continue
		}
		entry, err := p.resolver.ValidateCourse(ctx, item.ResourceID, item.Name)
		if err != nil {
			return nil, model.Summary{}, err
		}
		if entry == nil {
			p.logger.Debug("excluding course from reconciliation",
				zap.String("personId", personID), zap.String("courseId", item.ResourceID))
			continue
		}
		entries[item.ResourceID] = *entry
		validated = append(validated, item)
	}

	latest := dedupe(validated, func(item model.TranscriptItem) {
		p.logger.Debug("dropping superseded retake",
			zap.String("personId", personID),
			zap.String("courseId", item.ResourceID),
			zap.Timep("completedAt", item.CompletedAt))
	})

	courses := make([]model.CatalogEntry, 0, len(latest))
	for _, item := range latest {
		courses = append(courses, entries[item.ResourceID])
	}
	npcuByID := p.resolver.BatchCourseNPCU(ctx, courses)

	now := p.now()
	certifications := make([]model.Certification, 0, len(latest))
	summary := model.Summary{
		PersonID:     personID,
		ByCategory:   make(map[string]int),
		ReconciledAt: now,
	}
	for _, item := range latest {
		entry := entries[item.ResourceID]
		npcu := npcuByID[item.ResourceID]
		expiresAt := catalog.ExpiresAt(*item.CompletedAt)
		cert := model.Certification{
			CourseID:    item.ResourceID,
			Name:        entry.Name,
			NPCU:        npcu.Value,
			CompletedAt: *item.CompletedAt,
			ExpiresAt:   expiresAt,
			Expired:     expiresAt.Before(now),
			Status:      entry.Status,
			Category:    Categorize(entry.Name),
			Estimated:   npcu.Estimated,
		}
		certifications = append(certifications, cert)

		summary.Count++
		summary.ByCategory[cert.Category]++
		if npcu.Estimated {
			summary.EstimatedNPCU = true
		}
		if !cert.Expired {
			summary.TotalNPCU += cert.NPCU
		}
	}

	sort.Slice(certifications, func(i, j int) bool {
		return certifications[i].CompletedAt.After(certifications[j].CompletedAt)
	})
	return certifications, summary, nil
}

// dedupe keeps one item per course, preferring the latest completedAt.
// Superseded items are reported through dropped.
func dedupe(items []model.TranscriptItem, dropped func(model.TranscriptItem)) []model.TranscriptItem {
	latest := make(map[string]model.TranscriptItem, len(items))
	for _, item := range items {
		current, ok := latest[item.ResourceID]
		if !ok {
			latest[item.ResourceID] = item
			continue
		}
		if item.CompletedAt.After(*current.CompletedAt) {
			dropped(current)
			latest[item.ResourceID] = item
		} else {
			dropped(item)
		}
	}
	out := make([]model.TranscriptItem, 0, len(latest))
	for _, item := range latest {
		out = append(out, item)
	}
	return out
}
