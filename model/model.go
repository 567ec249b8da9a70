// SPDX-FileCopyrightText: 2026 The npcusync Authors
// SPDX-License-Identifier: Apache-2.0

package model

import "time"

// CourseStatus describes where a course currently sits in the Northpass
// catalog. Deleted courses have no status; they are simply absent.
type CourseStatus string

const (
	CourseLive     CourseStatus = "live"
	CourseArchived CourseStatus = "archived"
)

// ValidityMonths is the flat certification validity period, in calendar
// months, applied to every completed certification course.
const ValidityMonths = 24

// CatalogEntry is one course in the merged live+archived catalog snapshot.
type CatalogEntry struct {
	// CourseID is the Northpass course UUID.
	CourseID string `json:"courseId"`

	// Name is the course display name at fetch time.
	Name string `json:"name"`

	Status CourseStatus `json:"status"`
}

// ProgressStatus values reported by the transcript API.
const (
	ProgressEnrolled   = "enrolled"
	ProgressInProgress = "in_progress"
	ProgressCompleted  = "completed"
)

// Resource types appearing in transcript items.
const (
	ResourceCourse       = "course"
	ResourceLearningPath = "learning_path"
)

// TranscriptItem is a single enrollment record from a person's transcript,
// taken verbatim from the remote API.
type TranscriptItem struct {
	ID             string     `json:"id"`
	ResourceID     string     `json:"resourceId"`
	ResourceType   string     `json:"resourceType"`
	Name           string     `json:"name"`
	ProgressStatus string     `json:"progressStatus"`
	EnrolledAt     *time.Time `json:"enrolledAt,omitempty"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

// Completed reports whether the item is a finished enrollment that carries a
// completion timestamp. Items missing the timestamp are treated as incomplete
// regardless of status.
func (t TranscriptItem) Completed() bool {
	return t.ProgressStatus == ProgressCompleted && t.CompletedAt != nil
}

// Certification is a validated, deduplicated course completion with its
// derived NPCU credit. NPCU is always in {0,1,2}.
type Certification struct {
	CourseID    string       `json:"courseId"`
	Name        string       `json:"name"`
	NPCU        int          `json:"npcu"`
	CompletedAt time.Time    `json:"completedAt"`
	ExpiresAt   time.Time    `json:"expiresAt"`
	Expired     bool         `json:"expired"`
	Status      CourseStatus `json:"courseStatus"`
	Category    string       `json:"category"`

	// Estimated marks NPCU values produced by the name heuristic rather
	// than the properties API.
	Estimated bool `json:"estimated,omitempty"`
}

// Summary aggregates a person's reconciled certifications.
type Summary struct {
	PersonID      string         `json:"personId"`
	TotalNPCU     int            `json:"totalNpcu"`
	Count         int            `json:"certificationCount"`
	ByCategory    map[string]int `json:"byCategory"`
	ReconciledAt  time.Time      `json:"reconciledAt"`
	EstimatedNPCU bool           `json:"estimatedNpcu,omitempty"`
}

// Group is a Northpass LMS group.
type Group struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Person is a Northpass LMS person.
type Person struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// FailureReason classifies why a course failed validation.
type FailureReason string

const (
	FailureNotFound               FailureReason = "NOT_FOUND"
	FailureAccessDenied           FailureReason = "ACCESS_DENIED"
	FailurePropertiesAccessDenied FailureReason = "PROPERTIES_ACCESS_DENIED"
	FailureOther                  FailureReason = "OTHER"
)

// FailedCourseRecord is one entry in the failed-course registry.
type FailedCourseRecord struct {
	CourseID   string            `json:"courseId"`
	CourseName string            `json:"courseName"`
	Reason     FailureReason     `json:"reason"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	RecordedAt time.Time         `json:"recordedAt"`

	// Hits counts how many lookups were short-circuited by this record.
	Hits int `json:"hits"`
}
