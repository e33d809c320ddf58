package group

import (
	"context"
	"errors"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type contextKey string

const MemberKey contextKey = "member"

var ErrNoMember = errors.New("member not found in context")

// CurrentId retrieves the current member's ID from the context. Returns ErrNoMember if not present.
func CurrentId(ctx context.Context) (uuid.UUID, error) {
	member, err := CurrentMember(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	return member.Id, nil
}

func CurrentMember(ctx context.Context) (Member, error) {
	member, ok := ctx.Value(MemberKey).(Member)
	if !ok {
		log.Trace("member not found in context")
		return Member{}, ErrNoMember
	}
	return member, nil
}

func WithMember(ctx context.Context, member Member) context.Context {
	return context.WithValue(ctx, MemberKey, member)
}
