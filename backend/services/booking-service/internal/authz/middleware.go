package authz

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rikster-r/booking-calendar/backend/shared/go-middleware"
	"github.com/rikster-r/booking-calendar/backend/shared/go-models"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
)

type contextKey string

const actorKey = contextKey("actor")

// OwnerPathVar is the mux variable holding the owner user id.
const OwnerPathVar = "id"

// Actor is the resolved caller of a request.
type Actor struct {
	User *models.User
	// OwnerID is the {id} path segment when the route has one, else the
	// actor's own owner.
	OwnerID uuid.UUID
}

type UserLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Middleware loads the caller once per request and enforces the policy.
// It must run after middleware.AuthMiddleware.
type Middleware struct {
	policy *Policy
	users  UserLoader
}

func NewMiddleware(policy *Policy, users UserLoader) *Middleware {
	return &Middleware{policy: policy, users: users}
}

func (m *Middleware) Policy() *Policy { return m.policy }

// Require guards a handler with (resource, action).
func (m *Middleware) Require(resource Resource, action Action) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := m.resolve(w, r)
			if !ok {
				return
			}

			ownerID := actor.OwnerID()
			if raw, has := mux.Vars(r)[OwnerPathVar]; has {
				id, err := uuid.Parse(raw)
				if err != nil {
					utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid user id", nil, err)
					return
				}
				ownerID = id
			}

			if err := m.policy.Authorize(actor, ownerID, resource, action); err != nil {
				utils.RespondErrorWithCode(w, http.StatusForbidden, utils.ErrCodeForbidden, "Insufficient permissions", nil, err)
				return
			}

			ctx := context.WithValue(r.Context(), actorKey, &Actor{User: actor, OwnerID: ownerID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Authenticated resolves the actor without any policy check.
func (m *Middleware) Authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := m.resolve(w, r)
		if !ok {
			return
		}
		ctx := context.WithValue(r.Context(), actorKey, &Actor{User: actor, OwnerID: actor.OwnerID()})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) resolve(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	if a, ok := ActorFromContext(r.Context()); ok {
		return a.User, true
	}

	sub := middleware.UserIDFromContext(r.Context())
	id, err := uuid.Parse(sub)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid subject", nil, err)
		return nil, false
	}

	user, err := m.users.GetByID(r.Context(), id)
	if err != nil && !errors.Is(err, utils.ErrNotFound) {
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "Failed to load user", nil, err)
		return nil, false
	}
	if user == nil {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User no longer exists", nil, err)
		return nil, false
	}
	return user, true
}

// ActorFromContext returns the actor stored by Require or Authenticated.
func ActorFromContext(ctx context.Context) (*Actor, bool) {
	a, ok := ctx.Value(actorKey).(*Actor)
	return a, ok && a != nil
}

// WithActor is used by tests and background jobs acting on behalf of a user.
func WithActor(ctx context.Context, a *Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}
