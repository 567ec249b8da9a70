// SPDX-FileCopyrightText: 2026 The npcusync Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"sync"
	"time"

	"github.com/partnerops/npcusync/model"
)

// Tracker is a process-wide registry of course IDs known to fail validation.
// It exists purely to short-circuit repeat lookups; the resolver behaves
// correctly, just more slowly, with an empty tracker.
type Tracker struct {
	lock    sync.RWMutex
	records map[string]*model.FailedCourseRecord
	now     func() time.Time
}

// NewTracker builds an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		records: make(map[string]*model.FailedCourseRecord),
		now:     time.Now,
	}
}

// RecordFailure registers a course as failed. Recording the same course again
// updates the reason and metadata in place rather than appending.
func (t *Tracker) RecordFailure(courseID, courseName string, reason model.FailureReason, metadata map[string]string) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if existing, ok := t.records[courseID]; ok {
		existing.Reason = reason
		if courseName != "" {
			existing.CourseName = courseName
		}
		for k, v := range metadata {
			if existing.Metadata == nil {
				existing.Metadata = make(map[string]string)
			}
			existing.Metadata[k] = v
		}
		return
	}
	t.records[courseID] = &model.FailedCourseRecord{
		CourseID:   courseID,
		CourseName: courseName,
		Reason:     reason,
		Metadata:   metadata,
		RecordedAt: t.now(),
	}
}

// IsKnownFailed reports whether a course has a failure record, bumping its
// hit count when it does. With reasons given, only a record carrying one of
// those reasons matches; other records are left untouched.
func (t *Tracker) IsKnownFailed(courseID string, reasons ...model.FailureReason) bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	record, ok := t.records[courseID]
	if !ok {
		return false
	}
	if len(reasons) > 0 && !reasonMatches(record.Reason, reasons) {
		return false
	}
	record.Hits++
	return true
}

func reasonMatches(reason model.FailureReason, reasons []model.FailureReason) bool {
	for _, r := range reasons {
		if reason == r {
			return true
		}
	}
	return false
}

// Record returns a copy of the failure record for a course, if any.
func (t *Tracker) Record(courseID string) (model.FailedCourseRecord, bool) {
	t.lock.RLock()
	defer t.lock.RUnlock()
	record, ok := t.records[courseID]
	if !ok {
		return model.FailedCourseRecord{}, false
	}
	return *record, true
}

// Records returns a snapshot of every failure record.
func (t *Tracker) Records() []model.FailedCourseRecord {
	t.lock.RLock()
	defer t.lock.RUnlock()
	out := make([]model.FailedCourseRecord, 0, len(t.records))
	for _, record := range t.records {
		out = append(out, *record)
	}
	return out
}

// Len returns the number of failure records.
func (t *Tracker) Len() int {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return len(t.records)
}

// Stats counts failure records by reason.
func (t *Tracker) Stats() map[model.FailureReason]int {
	t.lock.RLock()
	defer t.lock.RUnlock()
	out := make(map[model.FailureReason]int)
	for _, record := range t.records {
		out[record.Reason]++
	}
	return out
}

// Clear drops every record, returning how many were dropped.
func (t *Tracker) Clear() int {
	t.lock.Lock()
	defer t.lock.Unlock()
	dropped := len(t.records)
	t.records = make(map[string]*model.FailedCourseRecord)
	return dropped
}
