// SPDX-FileCopyrightText: 2026 The npcusync Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"testing"

	"github.com/partnerops/npcusync/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordAndLookup(t *testing.T) {
	assert := assert.New(t)
	tracker := NewTracker()

	assert.False(tracker.IsKnownFailed("c1"))

	tracker.RecordFailure("c1", "Deleted Course", model.FailureNotFound, nil)
	assert.True(tracker.IsKnownFailed("c1"))
	assert.False(tracker.IsKnownFailed("c2"))

	record, ok := tracker.Record("c1")
	require.True(t, ok)
	assert.Equal(model.FailureNotFound, record.Reason)
	assert.Equal("Deleted Course", record.CourseName)
	assert.Equal(1, record.Hits)
}

func TestTrackerLookupFiltersByReason(t *testing.T) {
	assert := assert.New(t)
	tracker := NewTracker()
	tracker.RecordFailure("c1", "Locked Course", model.FailurePropertiesAccessDenied, nil)

	assert.False(tracker.IsKnownFailed("c1", model.FailureNotFound, model.FailureAccessDenied))
	assert.True(tracker.IsKnownFailed("c1", model.FailurePropertiesAccessDenied))
	assert.True(tracker.IsKnownFailed("c1"))

	// the filtered miss did not count as a hit
	record, _ := tracker.Record("c1")
	assert.Equal(2, record.Hits)
}

func TestTrackerRecordIsIdempotent(t *testing.T) {
	assert := assert.New(t)
	tracker := NewTracker()

	tracker.RecordFailure("c1", "Course", model.FailureNotFound, nil)
	tracker.RecordFailure("c1", "", model.FailureAccessDenied, map[string]string{"status": "403"})

	assert.Equal(1, tracker.Len())
	record, _ := tracker.Record("c1")
	assert.Equal(model.FailureAccessDenied, record.Reason)
	// earlier name survives a nameless update
	assert.Equal("Course", record.CourseName)
	assert.Equal("403", record.Metadata["status"])
}

func TestTrackerStats(t *testing.T) {
	assert := assert.New(t)
	tracker := NewTracker()
	tracker.RecordFailure("c1", "", model.FailureNotFound, nil)
	tracker.RecordFailure("c2", "", model.FailureNotFound, nil)
	tracker.RecordFailure("c3", "", model.FailurePropertiesAccessDenied, nil)

	stats := tracker.Stats()
	assert.Equal(2, stats[model.FailureNotFound])
	assert.Equal(1, stats[model.FailurePropertiesAccessDenied])
	assert.Len(tracker.Records(), 3)
}

func TestTrackerClear(t *testing.T) {
	assert := assert.New(t)
	tracker := NewTracker()
	tracker.RecordFailure("c1", "", model.FailureOther, nil)
	tracker.RecordFailure("c2", "", model.FailureOther, nil)

	assert.Equal(2, tracker.Clear())
	assert.Equal(0, tracker.Len())
	assert.False(tracker.IsKnownFailed("c1"))
}
