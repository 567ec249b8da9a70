// SPDX-FileCopyrightText: 2026 The npcusync Authors
// SPDX-License-Identifier: Apache-2.0

package groups

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/partnerops/npcusync/cache"
	"github.com/partnerops/npcusync/model"
	"github.com/partnerops/npcusync/northpass"
	"go.uber.org/zap"
)

const (
	groupByIDNamespace   = "group_by_id"
	groupByNameNamespace = "group_by_name"

	defaultGroupTTL = 10 * time.Minute
)

// ErrGroupNotFound is returned when no group matches the requested name or
// ID.
var ErrGroupNotFound = errors.New("no such group")

// API is the subset of the Northpass client this service depends on.
type API interface {
	Groups(ctx context.Context) ([]model.Group, error)
	Group(ctx context.Context, groupID string) (model.Group, error)
	CreateGroup(ctx context.Context, name string) (model.Group, error)
	UpdateGroup(ctx context.Context, groupID, name string) error
	DeleteGroup(ctx context.Context, groupID string) error
	GroupMemberIDs(ctx context.Context, groupID string) ([]string, error)
	AddGroupMembers(ctx context.Context, groupID string, personIDs []string) error
	RemoveGroupMembers(ctx context.Context, groupID string, personIDs []string) error
	PeopleByDomain(ctx context.Context, domain string) ([]model.Person, error)
}

// Config shapes group lookups.
type Config struct {
	// GroupTTL is how long group lookups are cached.
	// (Optional) Defaults to 10 minutes.
	GroupTTL time.Duration
}

// Service implements partner-group membership operations over the Northpass
// client, caching group lookups since group metadata changes rarely.
type Service struct {
	api    API
	logger *zap.Logger

	findByID   func(context.Context, string) (model.Group, error)
	findByName func(context.Context, string) (model.Group, error)
}

// NewService builds a group service whose lookups run through the given
// cache.
func NewService(api API, c *cache.Cache, logger *zap.Logger, config Config) *Service {
	if config.GroupTTL <= 0 {
		config.GroupTTL = defaultGroupTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{api: api, logger: logger}
	s.findByID = cache.Wrap(c, groupByIDNamespace, config.GroupTTL, s.fetchByID)
	s.findByName = cache.Wrap(c, groupByNameNamespace, config.GroupTTL, s.fetchByName)
	return s
}

// FindGroupByID returns the group with the given ID. errors.Is(err,
// ErrGroupNotFound) signals a deleted group.
func (s *Service) FindGroupByID(ctx context.Context, groupID string) (model.Group, error) {
	return s.findByID(ctx, groupID)
}

// FindGroupByName returns the group with the given name, matched
// case-insensitively.
func (s *Service) FindGroupByName(ctx context.Context, name string) (model.Group, error) {
	return s.findByName(ctx, strings.ToLower(name))
}

func (s *Service) fetchByID(ctx context.Context, groupID string) (model.Group, error) {
	group, err := s.api.Group(ctx, groupID)
	if errors.Is(err, northpass.ErrNotFound) {
		return model.Group{}, ErrGroupNotFound
	}
	return group, err
}

func (s *Service) fetchByName(ctx context.Context, lowerName string) (model.Group, error) {
	all, err := s.api.Groups(ctx)
	if err != nil {
		return model.Group{}, err
	}
	for _, group := range all {
		if strings.ToLower(group.Name) == lowerName {
			return group, nil
		}
	}
	return model.Group{}, ErrGroupNotFound
}

// CreateGroup creates a group, tolerating an existing group with the same
// name: on a conflict the existing group is looked up and returned instead.
func (s *Service) CreateGroup(ctx context.Context, name string) (model.Group, error) {
	group, err := s.api.CreateGroup(ctx, name)
	if err == nil {
		return group, nil
	}
	if !errors.Is(err, northpass.ErrConflict) {
		return model.Group{}, err
	}
	s.logger.Info("group already exists, reusing it", zap.String("name", name))
	existing, lookupErr := s.fetchByName(ctx, strings.ToLower(name))
	if lookupErr != nil {
		return model.Group{}, fmt.Errorf("group create conflicted but lookup failed: %w", lookupErr)
	}
	return existing, nil
}

// AddPeopleToGroup bulk-adds people to a group. Re-adding existing members is
// a no-op.
func (s *Service) AddPeopleToGroup(ctx context.Context, groupID string, personIDs []string) error {
	return s.api.AddGroupMembers(ctx, groupID, personIDs)
}

// RemovePeopleFromGroup bulk-removes people from a group.
func (s *Service) RemovePeopleFromGroup(ctx context.Context, groupID string, personIDs []string) error {
	return s.api.RemoveGroupMembers(ctx, groupID, personIDs)
}

// MergeStage identifies a step of a group merge for failure reporting.
type MergeStage string

const (
	StageReadTarget   MergeStage = "read_target_members"
	StageReadSource   MergeStage = "read_source_members"
	StageCopyMembers  MergeStage = "copy_members"
	StageDeleteSource MergeStage = "delete_source"
)

// MergeFailure is one failed step of a merge. Completed work before and after
// the failure is preserved.
type MergeFailure struct {
	Stage   MergeStage `json:"stage"`
	GroupID string     `json:"groupId"`
	Err     string     `json:"error"`
}

// MergeReport summarizes a MergeGroups run.
type MergeReport struct {
	TargetID      string         `json:"targetId"`
	PeopleCopied  int            `json:"peopleCopied"`
	SourcesMerged []string       `json:"sourcesMerged"`
	Failures      []MergeFailure `json:"failures,omitempty"`
}

// MergeGroups copies every member of the source groups into the target and
// deletes sources that merged cleanly. Each source is processed
// independently: a failure on one is recorded in the report and the rest
// still merge.
func (s *Service) MergeGroups(ctx context.Context, targetID string, sourceIDs []string) MergeReport {
	report := MergeReport{TargetID: targetID}

	existing, err := s.api.GroupMemberIDs(ctx, targetID)
	if err != nil {
		report.Failures = append(report.Failures, MergeFailure{
			Stage: StageReadTarget, GroupID: targetID, Err: err.Error(),
		})
		return report
	}
	present := make(map[string]bool, len(existing))
	for _, id := range existing {
		present[id] = true
	}

	for _, sourceID := range sourceIDs {
		members, err := s.api.GroupMemberIDs(ctx, sourceID)
		if err != nil {
			report.Failures = append(report.Failures, MergeFailure{
				Stage: StageReadSource, GroupID: sourceID, Err: err.Error(),
			})
			continue
		}

		missing := make([]string, 0, len(members))
		for _, id := range members {
			if !present[id] {
				missing = append(missing, id)
			}
		}
		if err := s.api.AddGroupMembers(ctx, targetID, missing); err != nil {
			// Source left intact so no memberships are lost.
			report.Failures = append(report.Failures, MergeFailure{
				Stage: StageCopyMembers, GroupID: sourceID, Err: err.Error(),
			})
			continue
		}
		for _, id := range missing {
			present[id] = true
		}
		report.PeopleCopied += len(missing)

		if err := s.api.DeleteGroup(ctx, sourceID); err != nil {
			report.Failures = append(report.Failures, MergeFailure{
				Stage: StageDeleteSource, GroupID: sourceID, Err: err.Error(),
			})
			continue
		}
		report.SourcesMerged = append(report.SourcesMerged, sourceID)
	}
	return report
}

// MissingByDomain returns people whose email matches the domain but who are
// not members of the group.
func (s *Service) MissingByDomain(ctx context.Context, domain, groupID string) ([]model.Person, error) {
	people, err := s.api.PeopleByDomain(ctx, domain)
	if err != nil {
		return nil, err
	}
	members, err := s.api.GroupMemberIDs(ctx, groupID)
	if err != nil {
		return nil, err
	}
	present := make(map[string]bool, len(members))
	for _, id := range members {
		present[id] = true
	}

	var missing []model.Person
	for _, person := range people {
		if !present[person.ID] {
			missing = append(missing, person)
		}
	}
	return missing, nil
}

// UpdateGroup renames a group.
func (s *Service) UpdateGroup(ctx context.Context, groupID, name string) error {
	return s.api.UpdateGroup(ctx, groupID, name)
}

// DeleteGroup removes a group; deleting an already-deleted group succeeds.
func (s *Service) DeleteGroup(ctx context.Context, groupID string) error {
	return s.api.DeleteGroup(ctx, groupID)
}
