// SPDX-FileCopyrightText: 2026 The npcusync Authors
// SPDX-License-Identifier: Apache-2.0

package northpass

import (
	"context"
	"fmt"
	"net/url"

	"github.com/partnerops/npcusync/model"
)

// Course is a single catalog entry as Northpass reports it.
type Course struct {
	ID       string
	Name     string
	Archived bool
}

func courseFromResource(r resource, archived bool) Course {
	return Course{
		ID:       r.ID,
		Name:     r.stringAttr("name"),
		Archived: archived,
	}
}

// Courses pages through the published course listing.
func (c *BasicClient) Courses(ctx context.Context) ([]Course, error) {
	var out []Course
	err := c.getPages(ctx, ProfileStandard, c.baseURL+"/courses", func(page []resource) {
		for _, r := range page {
			out = append(out, courseFromResource(r, false))
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ArchivedCourses pages through the archived subset of the catalog. Archived
// courses do not appear in the published listing but still back historical
// certifications.
func (c *BasicClient) ArchivedCourses(ctx context.Context) ([]Course, error) {
	var out []Course
	startURL := c.baseURL + "/courses?filter%5Bstatus%5D=archived"
	err := c.getPages(ctx, ProfileStandard, startURL, func(page []resource) {
		for _, r := range page {
			out = append(out, courseFromResource(r, true))
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Course fetches a single course by ID. errors.Is(err, ErrNotFound) signals
// a deleted course.
func (c *BasicClient) Course(ctx context.Context, courseID string) (Course, error) {
	body, err := c.get(ctx, ProfileStandard, fmt.Sprintf("%s/courses/%s", c.baseURL, url.PathEscape(courseID)))
	if err != nil {
		return Course{}, err
	}
	r, err := decodeResourceOne(body)
	if err != nil {
		return Course{}, err
	}
	archived := r.stringAttr("status") == string(model.CourseArchived)
	return courseFromResource(r, archived), nil
}

// CourseProperties reads the custom-properties map for a course through the
// properties sub-API. This endpoint runs under the properties throttle
// profile; callers should treat ErrAccessDenied as "value unavailable", not
// fatal.
func (c *BasicClient) CourseProperties(ctx context.Context, courseID string) (map[string]interface{}, error) {
	body, err := c.get(ctx, ProfileProperties, fmt.Sprintf("%s/courses/%s/properties", c.baseURL, url.PathEscape(courseID)))
	if err != nil {
		return nil, err
	}
	r, err := decodeResourceOne(body)
	if err != nil {
		return nil, err
	}
	return r.Attributes, nil
}
