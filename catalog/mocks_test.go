// SPDX-FileCopyrightText: 2026 The npcusync Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"context"

	"github.com/partnerops/npcusync/northpass"
	"github.com/stretchr/testify/mock"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) Courses(ctx context.Context) ([]northpass.Course, error) {
	args := m.Called(ctx)
	return args.Get(0).([]northpass.Course), args.Error(1)
}

func (m *mockAPI) ArchivedCourses(ctx context.Context) ([]northpass.Course, error) {
	args := m.Called(ctx)
	return args.Get(0).([]northpass.Course), args.Error(1)
}

func (m *mockAPI) Course(ctx context.Context, courseID string) (northpass.Course, error) {
	args := m.Called(ctx, courseID)
	return args.Get(0).(northpass.Course), args.Error(1)
}

func (m *mockAPI) CourseProperties(ctx context.Context, courseID string) (map[string]interface{}, error) {
	args := m.Called(ctx, courseID)
	return args.Get(0).(map[string]interface{}), args.Error(1)
}
