package freebusy

import (
	"fmt"

	"github.com/gatherly/gatherly/internal/event_bus"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// SubscribeSyncs recomputes the highlights of a group, with the configured defaults, each time its
// calendars were synced. The resulting HighlightsFound event reaches the Notifier.
func (s *ServiceImpl) SubscribeSyncs(bus *event_bus.EventBus) func() {
	return event_bus.SubscribeTyped(bus, event_bus.GroupSyncedType, func(e event_bus.EventT[event_bus.GroupSynced]) error {
		groupId, err := uuid.Parse(e.Data.GroupId)
		if err != nil {
			return fmt.Errorf("invalid group id %q in sync event: %w", e.Data.GroupId, err)
		}
		highlights, err := s.GetHighlights(e.Context(), groupId, 0, 0)
		if err != nil {
			return fmt.Errorf("failed to refresh highlights of group %s: %w", groupId, err)
		}
		log.Debugf("Group %s: %d highlights after sync", groupId, len(highlights))
		return nil
	})
}
