// SPDX-FileCopyrightText: 2026 The npcusync Authors
// SPDX-License-Identifier: Apache-2.0

package reports

import (
	"context"

	"github.com/partnerops/npcusync/cache"
	"github.com/partnerops/npcusync/model"
	"github.com/partnerops/npcusync/transcript"
	"github.com/stretchr/testify/mock"
)

type mockReconciler struct {
	mock.Mock
}

func (m *mockReconciler) Reconcile(ctx context.Context, personID string) ([]model.Certification, model.Summary, error) {
	args := m.Called(ctx, personID)
	return args.Get(0).([]model.Certification), args.Get(1).(model.Summary), args.Error(2)
}

type mockBatchRunner struct {
	mock.Mock
}

func (m *mockBatchRunner) Run(ctx context.Context, personIDs []string, progress chan<- transcript.Progress) []transcript.Result {
	args := m.Called(ctx, personIDs, progress)
	return args.Get(0).([]transcript.Result)
}

type mockCacheAdmin struct {
	mock.Mock
}

func (m *mockCacheAdmin) Stats() cache.Stats {
	args := m.Called()
	return args.Get(0).(cache.Stats)
}

func (m *mockCacheAdmin) ClearAll(ctx context.Context) {
	m.Called(ctx)
}

func (m *mockCacheAdmin) ClearNamespace(ctx context.Context, namespace string) {
	m.Called(ctx, namespace)
}

type mockFailedCourses struct {
	mock.Mock
}

func (m *mockFailedCourses) Records() []model.FailedCourseRecord {
	args := m.Called()
	return args.Get(0).([]model.FailedCourseRecord)
}

func (m *mockFailedCourses) Stats() map[model.FailureReason]int {
	args := m.Called()
	return args.Get(0).(map[model.FailureReason]int)
}

func (m *mockFailedCourses) Clear() int {
	args := m.Called()
	return args.Int(0)
}
