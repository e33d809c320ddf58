package group

import (
	"context"
	"errors"
	"fmt"

	"github.com/gatherly/gatherly/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	WithTransaction(ctx context.Context, fn func(repo Repository) error) error
	CreateGroup(ctx context.Context, group Group) (Group, error)
	GetGroup(ctx context.Context, groupId uuid.UUID) (Group, error)
	ListGroups(ctx context.Context) ([]Group, error)
	UpdateGroup(ctx context.Context, group Group) (Group, error)
	CreateMember(ctx context.Context, member Member) (Member, error)
	GetMember(ctx context.Context, memberId uuid.UUID) (Member, error)
	ListMembers(ctx context.Context, groupId uuid.UUID) ([]Member, error)
	DeleteMember(ctx context.Context, groupId uuid.UUID, memberId uuid.UUID) (bool, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
	tx pgx.Tx
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) getQueryer() database.Queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *RepositoryImpl) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	if r.tx != nil {
		return fn(r)
	}
	return database.InTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(&RepositoryImpl{db: r.db, tx: tx})
	})
}

func (r *RepositoryImpl) CreateGroup(ctx context.Context, group Group) (Group, error) {
	query := `INSERT INTO member_group (id, name, hide_holidays, dedup_all_day)
				VALUES ($1, $2, $3, $4) RETURNING created_at`

	group.Id = uuid.New()
	err := r.getQueryer().QueryRow(ctx, query,
		group.Id,
		group.Name,
		group.Preferences.HideHolidays,
		group.Preferences.DedupAllDay,
	).Scan(&group.CreatedAt)
	if err != nil {
		err := fmt.Errorf("could not create group: %w", err)
		log.Error(err)
		return Group{}, err
	}
	return group, nil
}

func (r *RepositoryImpl) GetGroup(ctx context.Context, groupId uuid.UUID) (Group, error) {
	query := `SELECT id, name, hide_holidays, dedup_all_day, created_at FROM member_group WHERE id = $1`

	group, err := scanGroup(r.getQueryer().QueryRow(ctx, query, groupId))
	if errors.Is(err, pgx.ErrNoRows) {
		return Group{}, ErrGroupNotFound
	}
	if err != nil {
		err := fmt.Errorf("could not get group %s: %w", groupId, err)
		log.Error(err)
		return Group{}, err
	}
	return group, nil
}

func (r *RepositoryImpl) ListGroups(ctx context.Context) ([]Group, error) {
	query := `SELECT id, name, hide_holidays, dedup_all_day, created_at FROM member_group ORDER BY created_at, id`

	rows, err := r.getQueryer().Query(ctx, query)
	if err != nil {
		err := fmt.Errorf("could not query groups: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	groups := make([]Group, 0, 4)
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			err := fmt.Errorf("could not scan group: %w", err)
			log.Error(err)
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

func (r *RepositoryImpl) UpdateGroup(ctx context.Context, group Group) (Group, error) {
	query := `UPDATE member_group SET name = $1, hide_holidays = $2, dedup_all_day = $3 WHERE id = $4
				RETURNING created_at`

	err := r.getQueryer().QueryRow(ctx, query,
		group.Name,
		group.Preferences.HideHolidays,
		group.Preferences.DedupAllDay,
		group.Id,
	).Scan(&group.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Group{}, ErrGroupNotFound
	}
	if err != nil {
		err := fmt.Errorf("could not update group %s: %w", group.Id, err)
		log.Error(err)
		return Group{}, err
	}
	return group, nil
}

func (r *RepositoryImpl) CreateMember(ctx context.Context, member Member) (Member, error) {
	query := `INSERT INTO group_member (id, group_id, display_name) VALUES ($1, $2, $3) RETURNING created_at`

	member.Id = uuid.New()
	err := r.getQueryer().QueryRow(ctx, query, member.Id, member.GroupId, member.DisplayName).Scan(&member.CreatedAt)
	if err != nil {
		err := fmt.Errorf("could not create member: %w", err)
		log.Error(err)
		return Member{}, err
	}
	return member, nil
}

func (r *RepositoryImpl) GetMember(ctx context.Context, memberId uuid.UUID) (Member, error) {
	query := `SELECT id, group_id, display_name, created_at FROM group_member WHERE id = $1`

	var member Member
	err := r.getQueryer().QueryRow(ctx, query, memberId).
		Scan(&member.Id, &member.GroupId, &member.DisplayName, &member.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Member{}, ErrMemberNotFound
	}
	if err != nil {
		err := fmt.Errorf("could not get member %s: %w", memberId, err)
		log.Error(err)
		return Member{}, err
	}
	return member, nil
}

func (r *RepositoryImpl) ListMembers(ctx context.Context, groupId uuid.UUID) ([]Member, error) {
	query := `SELECT id, group_id, display_name, created_at FROM group_member
				WHERE group_id = $1 ORDER BY created_at, id`

	rows, err := r.getQueryer().Query(ctx, query, groupId)
	if err != nil {
		err := fmt.Errorf("could not query members: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	members := make([]Member, 0, 8)
	for rows.Next() {
		var member Member
		if err := rows.Scan(&member.Id, &member.GroupId, &member.DisplayName, &member.CreatedAt); err != nil {
			err := fmt.Errorf("could not scan member: %w", err)
			log.Error(err)
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

func (r *RepositoryImpl) DeleteMember(ctx context.Context, groupId uuid.UUID, memberId uuid.UUID) (bool, error) {
	query := `DELETE FROM group_member WHERE id = $1 AND group_id = $2`

	tag, err := r.getQueryer().Exec(ctx, query, memberId, groupId)
	if err != nil {
		err := fmt.Errorf("could not delete member %s: %w", memberId, err)
		log.Error(err)
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanGroup(row pgx.Row) (Group, error) {
	var group Group
	err := row.Scan(
		&group.Id,
		&group.Name,
		&group.Preferences.HideHolidays,
		&group.Preferences.DedupAllDay,
		&group.CreatedAt,
	)
	return group, err
}
