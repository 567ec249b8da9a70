// SPDX-FileCopyrightText: 2026 The npcusync Authors
// SPDX-License-Identifier: Apache-2.0

package northpass

import (
	"context"
	"fmt"
	"net/url"

	"github.com/partnerops/npcusync/model"
)

// Transcript fetches every page of a person's enrollment history. A person
// with no activity yields an empty slice, not an error: Northpass answers
// 404 for them and that is an expected absence.
func (c *BasicClient) Transcript(ctx context.Context, personID string) ([]model.TranscriptItem, error) {
	var out []model.TranscriptItem
	startURL := fmt.Sprintf("%s/people/%s/transcript", c.baseURL, url.PathEscape(personID))
	err := c.getPages(ctx, ProfileStandard, startURL, func(page []resource) {
		for _, r := range page {
			out = append(out, transcriptItemFromResource(r))
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func transcriptItemFromResource(r resource) model.TranscriptItem {
	return model.TranscriptItem{
		ID:             r.ID,
		ResourceID:     r.stringAttr("resource_id"),
		ResourceType:   r.stringAttr("resource_type"),
		Name:           r.stringAttr("resource_name"),
		ProgressStatus: r.stringAttr("progress_status"),
		EnrolledAt:     r.timeAttr("enrolled_at"),
		CompletedAt:    r.timeAttr("completed_at"),
	}
}
