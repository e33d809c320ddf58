package event_bus

import "github.com/gatherly/gatherly/pkg/availability"

const (
	GroupSyncedType     EventType = "group.synced"
	HighlightsFoundType EventType = "highlights.found"
)

// GroupSynced is published after the calendars of all members of a group were refreshed.
type GroupSynced struct {
	GroupId string
	Feeds   int
	Failed  int
	Events  int
}

// HighlightsFound is published whenever highlights were computed for a group.
type HighlightsFound struct {
	GroupId    string
	GroupName  string
	Highlights []availability.Highlight
}
