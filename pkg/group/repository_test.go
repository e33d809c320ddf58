package group

import (
	"context"
	"os"
	"testing"

	"github.com/gatherly/gatherly/internal/test_utils"
	"github.com/gatherly/gatherly/pkg/availability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDB *test_utils.DB

func TestMain(m *testing.M) {
	testDB = test_utils.StartDB()
	code := m.Run()
	testDB.Terminate()
	os.Exit(code)
}

func setupTestRepository(t *testing.T) (context.Context, *RepositoryImpl) {
	return context.Background(), NewRepository(testDB.Open(t))
}

func TestRepositoryImpl_Groups(t *testing.T) {
	ctx, repo := setupTestRepository(t)

	created, err := repo.CreateGroup(ctx, Group{Name: "Climbing", Preferences: availability.Preferences{HideHolidays: true}})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.Id)
	assert.False(t, created.CreatedAt.IsZero())

	fetched, err := repo.GetGroup(ctx, created.Id)
	require.NoError(t, err)
	assert.Equal(t, "Climbing", fetched.Name)
	assert.True(t, fetched.Preferences.HideHolidays)
	assert.False(t, fetched.Preferences.DedupAllDay)

	fetched.Preferences.DedupAllDay = true
	_, err = repo.UpdateGroup(ctx, fetched)
	require.NoError(t, err)

	groups, err := repo.ListGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.True(t, groups[0].Preferences.DedupAllDay)

	_, err = repo.GetGroup(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestRepositoryImpl_Members(t *testing.T) {
	ctx, repo := setupTestRepository(t)
	g, err := repo.CreateGroup(ctx, Group{Name: "Family"})
	require.NoError(t, err)

	alice, err := repo.CreateMember(ctx, Member{GroupId: g.Id, DisplayName: "Alice"})
	require.NoError(t, err)
	_, err = repo.CreateMember(ctx, Member{GroupId: g.Id, DisplayName: "Bob"})
	require.NoError(t, err)

	members, err := repo.ListMembers(ctx, g.Id)
	require.NoError(t, err)
	require.Len(t, members, 2)

	deleted, err := repo.DeleteMember(ctx, g.Id, alice.Id)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.DeleteMember(ctx, g.Id, alice.Id)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = repo.GetMember(ctx, alice.Id)
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestRepositoryImpl_WithTransactionRollsBack(t *testing.T) {
	ctx, repo := setupTestRepository(t)

	err := repo.WithTransaction(ctx, func(txRepo Repository) error {
		if _, err := txRepo.CreateGroup(ctx, Group{Name: "Doomed"}); err != nil {
			return err
		}
		return ErrInvalidGroup
	})
	require.ErrorIs(t, err, ErrInvalidGroup)

	groups, err := repo.ListGroups(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups)
}
