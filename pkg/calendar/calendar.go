package calendar

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEventNotFound = errors.New("event not found")
	ErrFeedNotFound  = errors.New("feed not found")
	ErrInvalidEvent  = errors.New("invalid event")
	ErrInvalidFeed   = errors.New("invalid feed")
)

type FeedKind string

const (
	FeedKindIcs    FeedKind = "ics"
	FeedKindGoogle FeedKind = "google"
)

// Feed is an external calendar a member subscribed to. Its events are replaced on every sync.
type Feed struct {
	Id         uuid.UUID
	MemberId   uuid.UUID
	Kind       FeedKind
	Url        string
	CalendarId string
	Name       string
	Color      string
	// LastSyncedAt is nil until the first sync attempt.
	LastSyncedAt *time.Time
	LastError    string
}
