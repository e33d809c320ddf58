package group

import (
	"errors"
	"time"

	"github.com/gatherly/gatherly/pkg/availability"
	"github.com/google/uuid"
)

var (
	ErrGroupNotFound  = errors.New("group not found")
	ErrMemberNotFound = errors.New("member not found")
	ErrInvalidGroup   = errors.New("invalid group data")
	ErrInvalidMember  = errors.New("invalid member data")
)

type Group struct {
	Id          uuid.UUID
	Name        string
	Preferences availability.Preferences
	CreatedAt   time.Time
}

type Member struct {
	Id          uuid.UUID
	GroupId     uuid.UUID
	DisplayName string
	CreatedAt   time.Time
}

// AvailabilityId is the identity the availability engine uses for this member.
func (m Member) AvailabilityId() availability.MemberId {
	return availability.MemberId(m.Id.String())
}

// AvailabilityMembers converts members to the engine representation, keeping their order.
func AvailabilityMembers(members []Member) []availability.Member {
	result := make([]availability.Member, 0, len(members))
	for _, m := range members {
		result = append(result, availability.Member{Id: m.AvailabilityId(), Name: m.DisplayName})
	}
	return result
}
