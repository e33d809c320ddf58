package group

import (
	"context"
	"fmt"
	"strings"

	"github.com/gatherly/gatherly/pkg/availability"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	CreateGroup(ctx context.Context, name string, preferences availability.Preferences) (Group, error)
	GetGroup(ctx context.Context, groupId uuid.UUID) (Group, error)
	ListGroups(ctx context.Context) ([]Group, error)
	UpdatePreferences(ctx context.Context, groupId uuid.UUID, preferences availability.Preferences) (Group, error)
	AddMember(ctx context.Context, groupId uuid.UUID, displayName string) (Member, error)
	RemoveMember(ctx context.Context, groupId uuid.UUID, memberId uuid.UUID) error
	ListMembers(ctx context.Context, groupId uuid.UUID) ([]Member, error)
	GetMember(ctx context.Context, memberId uuid.UUID) (Member, error)
}

type ServiceImpl struct {
	repo Repository
}

func NewService(repo Repository) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

func (s *ServiceImpl) CreateGroup(ctx context.Context, name string, preferences availability.Preferences) (Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Group{}, fmt.Errorf("%w: name is required", ErrInvalidGroup)
	}
	group, err := s.repo.CreateGroup(ctx, Group{Name: name, Preferences: preferences})
	if err != nil {
		return Group{}, fmt.Errorf("failed to create group: %w", err)
	}
	log.Infof("Created group %s (%s)", group.Id, group.Name)
	return group, nil
}

func (s *ServiceImpl) GetGroup(ctx context.Context, groupId uuid.UUID) (Group, error) {
	return s.repo.GetGroup(ctx, groupId)
}

func (s *ServiceImpl) ListGroups(ctx context.Context) ([]Group, error) {
	return s.repo.ListGroups(ctx)
}

func (s *ServiceImpl) UpdatePreferences(ctx context.Context, groupId uuid.UUID, preferences availability.Preferences) (Group, error) {
	var updated Group
	err := s.repo.WithTransaction(ctx, func(repo Repository) error {
		group, err := repo.GetGroup(ctx, groupId)
		if err != nil {
			return err
		}
		group.Preferences = preferences
		updated, err = repo.UpdateGroup(ctx, group)
		return err
	})
	if err != nil {
		return Group{}, fmt.Errorf("failed to update group preferences: %w", err)
	}
	return updated, nil
}

func (s *ServiceImpl) AddMember(ctx context.Context, groupId uuid.UUID, displayName string) (Member, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return Member{}, fmt.Errorf("%w: display name is required", ErrInvalidMember)
	}

	var created Member
	err := s.repo.WithTransaction(ctx, func(repo Repository) error {
		if _, err := repo.GetGroup(ctx, groupId); err != nil {
			return err
		}
		var err error
		created, err = repo.CreateMember(ctx, Member{GroupId: groupId, DisplayName: displayName})
		return err
	})
	if err != nil {
		return Member{}, fmt.Errorf("failed to add member: %w", err)
	}
	log.Debugf("Added member %s to group %s", created.Id, groupId)
	return created, nil
}

func (s *ServiceImpl) RemoveMember(ctx context.Context, groupId uuid.UUID, memberId uuid.UUID) error {
	deleted, err := s.repo.DeleteMember(ctx, groupId, memberId)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	if !deleted {
		return ErrMemberNotFound
	}
	return nil
}

func (s *ServiceImpl) ListMembers(ctx context.Context, groupId uuid.UUID) ([]Member, error) {
	if _, err := s.repo.GetGroup(ctx, groupId); err != nil {
		return nil, err
	}
	return s.repo.ListMembers(ctx, groupId)
}

func (s *ServiceImpl) GetMember(ctx context.Context, memberId uuid.UUID) (Member, error) {
	return s.repo.GetMember(ctx, memberId)
}
