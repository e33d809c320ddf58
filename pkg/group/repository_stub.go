package group

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type RepositoryStub struct {
	mu      sync.RWMutex
	groups  map[uuid.UUID]Group
	members map[uuid.UUID]Member
	order   []uuid.UUID
	now     func() time.Time
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{
		groups:  make(map[uuid.UUID]Group),
		members: make(map[uuid.UUID]Member),
		now:     time.Now,
	}
}

func (r *RepositoryStub) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	r.mu.Lock()
	groups := make(map[uuid.UUID]Group, len(r.groups))
	for k, v := range r.groups {
		groups[k] = v
	}
	members := make(map[uuid.UUID]Member, len(r.members))
	for k, v := range r.members {
		members[k] = v
	}
	order := append([]uuid.UUID(nil), r.order...)
	r.mu.Unlock()

	if err := fn(r); err != nil {
		r.mu.Lock()
		r.groups, r.members, r.order = groups, members, order
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *RepositoryStub) CreateGroup(_ context.Context, group Group) (Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	group.Id = uuid.New()
	group.CreatedAt = r.now()
	r.groups[group.Id] = group
	return group, nil
}

func (r *RepositoryStub) GetGroup(_ context.Context, groupId uuid.UUID) (Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	group, ok := r.groups[groupId]
	if !ok {
		return Group{}, ErrGroupNotFound
	}
	return group, nil
}

func (r *RepositoryStub) ListGroups(_ context.Context) ([]Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	groups := make([]Group, 0, len(r.groups))
	for _, g := range r.groups {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].CreatedAt.Before(groups[j].CreatedAt)
	})
	return groups, nil
}

func (r *RepositoryStub) UpdateGroup(_ context.Context, group Group) (Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.groups[group.Id]
	if !ok {
		return Group{}, ErrGroupNotFound
	}
	group.CreatedAt = existing.CreatedAt
	r.groups[group.Id] = group
	return group, nil
}

func (r *RepositoryStub) CreateMember(_ context.Context, member Member) (Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	member.Id = uuid.New()
	member.CreatedAt = r.now()
	r.members[member.Id] = member
	r.order = append(r.order, member.Id)
	return member, nil
}

func (r *RepositoryStub) GetMember(_ context.Context, memberId uuid.UUID) (Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	member, ok := r.members[memberId]
	if !ok {
		return Member{}, ErrMemberNotFound
	}
	return member, nil
}

func (r *RepositoryStub) ListMembers(_ context.Context, groupId uuid.UUID) ([]Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members := make([]Member, 0)
	for _, id := range r.order {
		if m, ok := r.members[id]; ok && m.GroupId == groupId {
			members = append(members, m)
		}
	}
	return members, nil
}

func (r *RepositoryStub) DeleteMember(_ context.Context, groupId uuid.UUID, memberId uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[memberId]
	if !ok || m.GroupId != groupId {
		return false, nil
	}
	delete(r.members, memberId)
	return true, nil
}

func (r *RepositoryStub) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups = make(map[uuid.UUID]Group)
	r.members = make(map[uuid.UUID]Member)
	r.order = nil
}
