package app

import (
	"errors"
	"net/http"

	"github.com/gatherly/gatherly/internal/rest"
	"github.com/gatherly/gatherly/pkg/group"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const memberHeader = "X-Member-Id"

// SetupMiddleware wires all HTTP middlewares for the application.
func SetupMiddleware(r *mux.Router, deps *Dependencies) {
	r.Use(memberMiddleware(deps.GroupService))
}

// memberMiddleware propagates the X-Member-Id header into the request context.
func memberMiddleware(members group.Service) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			header := req.Header.Get(memberHeader)
			if header == "" {
				next.ServeHTTP(w, req)
				return
			}

			memberId, err := uuid.Parse(header)
			if err != nil {
				rest.WriteError(w, http.StatusBadRequest, "Invalid member id", "X-Member-Id must be a UUID")
				return
			}
			member, err := members.GetMember(req.Context(), memberId)
			if err != nil {
				if errors.Is(err, group.ErrMemberNotFound) {
					log.Debugf("member not found: %s", memberId)
					rest.WriteError(w, http.StatusForbidden, "Member not found", "")
					return
				}
				log.Errorf("failed to get member: %v", err)
				rest.WriteError(w, http.StatusInternalServerError, "Failed to resolve member", "")
				return
			}
			log.Tracef("member found: %s", member.Id)
			next.ServeHTTP(w, req.WithContext(group.WithMember(req.Context(), member)))
		})
	}
}
