package freebusy

import (
	"fmt"
	"sync"
	"time"

	"github.com/gatherly/gatherly/internal/event_bus"
	"github.com/gatherly/gatherly/internal/utils"
	"github.com/gatherly/gatherly/pkg/availability"
	log "github.com/sirupsen/logrus"
)

type Announcement struct {
	GroupId   string
	GroupName string
	Highlight availability.Highlight
}

// Notifier announces every free window of a group once, however often it is found again.
type Notifier struct {
	clock utils.Clock
	mu    sync.Mutex
	seen  map[string]time.Time
	// announce delivers one announcement. Defaults to a log line.
	announce func(Announcement)
}

func NewNotifier(clock utils.Clock) *Notifier {
	return &Notifier{
		clock:    clock,
		seen:     make(map[string]time.Time),
		announce: logAnnouncement,
	}
}

// Subscribe attaches the notifier to the bus and returns the unsubscribe function.
func (n *Notifier) Subscribe(bus *event_bus.EventBus) func() {
	return event_bus.SubscribeTyped(bus, event_bus.HighlightsFoundType, func(e event_bus.EventT[event_bus.HighlightsFound]) error {
		n.handle(e.Data, n.clock.Now())
		return nil
	})
}

// handle forgets windows that are over at the given instant before announcing new ones.
func (n *Notifier) handle(found event_bus.HighlightsFound, at time.Time) {
	n.mu.Lock()
	for key, end := range n.seen {
		if !end.After(at) {
			delete(n.seen, key)
		}
	}
	fresh := make([]Announcement, 0, len(found.Highlights))
	for _, h := range found.Highlights {
		key := fmt.Sprintf("%s|%d|%d", found.GroupId, h.Start.Unix(), h.End.Unix())
		if _, ok := n.seen[key]; ok {
			continue
		}
		n.seen[key] = h.End
		fresh = append(fresh, Announcement{GroupId: found.GroupId, GroupName: found.GroupName, Highlight: h})
	}
	n.mu.Unlock()

	for _, a := range fresh {
		n.announce(a)
	}
}

func logAnnouncement(a Announcement) {
	log.Infof("%s: everyone is free %s (%d members)", a.GroupName, a.Highlight.Label, a.Highlight.MemberCount)
}
