package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gatherly/gatherly/internal/database"
	"github.com/gatherly/gatherly/pkg/availability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	WithTransaction(ctx context.Context, fn func(repo Repository) error) error
	StoreEvent(ctx context.Context, event availability.CalendarEvent, feedId uuid.NullUUID) (uuid.UUID, error)
	GetEvent(ctx context.Context, eventId uuid.UUID) (availability.CalendarEvent, error)
	GetEvents(ctx context.Context, ownerIds []uuid.UUID, from, to time.Time) ([]availability.CalendarEvent, error)
	DeleteEvent(ctx context.Context, ownerId uuid.UUID, eventId uuid.UUID) (bool, error)
	DeleteFeedEvents(ctx context.Context, feedId uuid.UUID) (int64, error)
	StoreFeed(ctx context.Context, feed Feed) (Feed, error)
	GetFeed(ctx context.Context, feedId uuid.UUID) (Feed, error)
	ListFeeds(ctx context.Context, memberIds []uuid.UUID) ([]Feed, error)
	DeleteFeed(ctx context.Context, memberId uuid.UUID, feedId uuid.UUID) (bool, error)
	MarkFeedSynced(ctx context.Context, feedId uuid.UUID, at time.Time, syncErr string) error
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

func (r *RepositoryImpl) StoreEvent(ctx context.Context, event availability.CalendarEvent, feedId uuid.NullUUID) (uuid.UUID, error) {
	query := `INSERT INTO calendar_event (
                    id,
                    owner_id,
                    group_id,
                    feed_id,
                    title,
                    start_time,
                    end_time,
                    all_day,
                    location,
                    event_type,
                    source_name,
                    source_color
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	ownerId, err := uuid.Parse(string(event.OwnerId))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: owner id: %v", ErrInvalidEvent, err)
	}
	groupId, err := parseNullUUID(event.GroupId)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: group id: %v", ErrInvalidEvent, err)
	}

	id := uuid.New()
	_, err = r.getQueryer().Exec(ctx, query,
		id,
		ownerId,
		groupId,
		feedId,
		event.Title,
		event.Start,
		event.End,
		event.AllDay,
		event.Location,
		string(event.Kind()),
		event.SourceCalendarName,
		event.SourceCalendarColor,
	)
	if err != nil {
		err := fmt.Errorf("could not store event: %w", err)
		log.Error(err)
		return uuid.Nil, err
	}
	return id, nil
}

const eventColumns = `id, owner_id, group_id, title, start_time, end_time, all_day, location, event_type,
				source_name, source_color`

func (r *RepositoryImpl) GetEvent(ctx context.Context, eventId uuid.UUID) (availability.CalendarEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM calendar_event WHERE id = $1`

	event, err := scanEvent(r.getQueryer().QueryRow(ctx, query, eventId))
	if errors.Is(err, pgx.ErrNoRows) {
		return availability.CalendarEvent{}, ErrEventNotFound
	}
	if err != nil {
		err := fmt.Errorf("could not get event %s: %w", eventId, err)
		log.Error(err)
		return availability.CalendarEvent{}, err
	}
	return event, nil
}

// GetEvents returns events of the given owners overlapping [from, to).
func (r *RepositoryImpl) GetEvents(ctx context.Context, ownerIds []uuid.UUID, from, to time.Time) ([]availability.CalendarEvent, error) {
	if len(ownerIds) == 0 {
		return []availability.CalendarEvent{}, nil
	}
	query := `SELECT ` + eventColumns + `
              FROM calendar_event
              WHERE owner_id = ANY($1)
                AND start_time < $2
                AND end_time >= $3
			  ORDER BY start_time, id`

	rows, err := r.getQueryer().Query(ctx, query, ownerIds, to, from)
	if err != nil {
		err := fmt.Errorf("could not query calendar events: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	events := make([]availability.CalendarEvent, 0, 16)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			err := fmt.Errorf("could not scan row: %w", err)
			log.Error(err)
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (r *RepositoryImpl) DeleteEvent(ctx context.Context, ownerId uuid.UUID, eventId uuid.UUID) (bool, error) {
	query := `DELETE FROM calendar_event WHERE id = $1 AND owner_id = $2`

	tag, err := r.getQueryer().Exec(ctx, query, eventId, ownerId)
	if err != nil {
		err := fmt.Errorf("could not delete event %s: %w", eventId, err)
		log.Error(err)
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *RepositoryImpl) DeleteFeedEvents(ctx context.Context, feedId uuid.UUID) (int64, error) {
	tag, err := r.getQueryer().Exec(ctx, `DELETE FROM calendar_event WHERE feed_id = $1`, feedId)
	if err != nil {
		err := fmt.Errorf("could not delete events of feed %s: %w", feedId, err)
		log.Error(err)
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *RepositoryImpl) StoreFeed(ctx context.Context, feed Feed) (Feed, error) {
	query := `INSERT INTO calendar_feed (id, member_id, kind, url, calendar_id, name, color)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`

	feed.Id = uuid.New()
	_, err := r.getQueryer().Exec(ctx, query,
		feed.Id,
		feed.MemberId,
		string(feed.Kind),
		feed.Url,
		feed.CalendarId,
		feed.Name,
		feed.Color,
	)
	if err != nil {
		err := fmt.Errorf("could not store feed: %w", err)
		log.Error(err)
		return Feed{}, err
	}
	return feed, nil
}

const feedColumns = `id, member_id, kind, url, calendar_id, name, color, last_synced_at, last_error`

func (r *RepositoryImpl) GetFeed(ctx context.Context, feedId uuid.UUID) (Feed, error) {
	query := `SELECT ` + feedColumns + ` FROM calendar_feed WHERE id = $1`

	feed, err := scanFeed(r.getQueryer().QueryRow(ctx, query, feedId))
	if errors.Is(err, pgx.ErrNoRows) {
		return Feed{}, ErrFeedNotFound
	}
	if err != nil {
		err := fmt.Errorf("could not get feed %s: %w", feedId, err)
		log.Error(err)
		return Feed{}, err
	}
	return feed, nil
}

func (r *RepositoryImpl) ListFeeds(ctx context.Context, memberIds []uuid.UUID) ([]Feed, error) {
	if len(memberIds) == 0 {
		return []Feed{}, nil
	}
	query := `SELECT ` + feedColumns + ` FROM calendar_feed WHERE member_id = ANY($1) ORDER BY member_id, name, id`

	rows, err := r.getQueryer().Query(ctx, query, memberIds)
	if err != nil {
		err := fmt.Errorf("could not query feeds: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	feeds := make([]Feed, 0, len(memberIds))
	for rows.Next() {
		feed, err := scanFeed(rows)
		if err != nil {
			err := fmt.Errorf("could not scan feed: %w", err)
			log.Error(err)
			return nil, err
		}
		feeds = append(feeds, feed)
	}
	return feeds, rows.Err()
}

func (r *RepositoryImpl) DeleteFeed(ctx context.Context, memberId uuid.UUID, feedId uuid.UUID) (bool, error) {
	tag, err := r.getQueryer().Exec(ctx, `DELETE FROM calendar_feed WHERE id = $1 AND member_id = $2`, feedId, memberId)
	if err != nil {
		err := fmt.Errorf("could not delete feed %s: %w", feedId, err)
		log.Error(err)
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *RepositoryImpl) MarkFeedSynced(ctx context.Context, feedId uuid.UUID, at time.Time, syncErr string) error {
	query := `UPDATE calendar_feed SET last_synced_at = $1, last_error = $2 WHERE id = $3`

	tag, err := r.getQueryer().Exec(ctx, query, at, syncErr, feedId)
	if err != nil {
		err := fmt.Errorf("could not mark feed %s as synced: %w", feedId, err)
		log.Error(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrFeedNotFound
	}
	return nil
}

func scanEvent(row pgx.Row) (availability.CalendarEvent, error) {
	var (
		event     availability.CalendarEvent
		id        uuid.UUID
		ownerId   uuid.UUID
		groupId   uuid.NullUUID
		eventType string
	)
	err := row.Scan(
		&id,
		&ownerId,
		&groupId,
		&event.Title,
		&event.Start,
		&event.End,
		&event.AllDay,
		&event.Location,
		&eventType,
		&event.SourceCalendarName,
		&event.SourceCalendarColor,
	)
	if err != nil {
		return availability.CalendarEvent{}, err
	}
	event.Id = id.String()
	event.OwnerId = availability.MemberId(ownerId.String())
	if groupId.Valid {
		event.GroupId = groupId.UUID.String()
	}
	event.Type = availability.EventType(eventType)
	if event.AllDay {
		// all-day dates are stored as UTC midnight
		event.Start = event.Start.UTC()
		event.End = event.End.UTC()
	}
	return event, nil
}

func scanFeed(row pgx.Row) (Feed, error) {
	var (
		feed Feed
		kind string
	)
	err := row.Scan(
		&feed.Id,
		&feed.MemberId,
		&kind,
		&feed.Url,
		&feed.CalendarId,
		&feed.Name,
		&feed.Color,
		&feed.LastSyncedAt,
		&feed.LastError,
	)
	feed.Kind = FeedKind(kind)
	return feed, err
}

func parseNullUUID(s string) (uuid.NullUUID, error) {
	if s == "" {
		return uuid.NullUUID{}, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.NullUUID{}, err
	}
	return uuid.NullUUID{UUID: id, Valid: true}, nil
}
