package authz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rikster-r/booking-calendar/backend/shared/go-middleware"
	"github.com/rikster-r/booking-calendar/backend/shared/go-models"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers map[uuid.UUID]*models.User

func (f fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, nil
}

var (
	owner   = &models.User{ID: uuid.New(), Role: models.RoleClient}
	other   = &models.User{ID: uuid.New(), Role: models.RoleClient}
	admin   = &models.User{ID: uuid.New(), Role: models.RoleAdmin}
	cleaner = &models.User{ID: uuid.New(), Role: models.RoleCleaner, RelatedTo: &owner.ID}
)

func TestPolicyMatrix(t *testing.T) {
	p := DefaultPolicy()

	assert.True(t, p.Allows(models.RoleClient, ResourceBooking, ActionCreate))
	assert.True(t, p.Allows(models.RoleCleaner, ResourceRoom, ActionUpdate))
	assert.False(t, p.Allows(models.RoleCleaner, ResourceBooking, ActionCreate))
	assert.False(t, p.Allows(models.RoleCleaner, ResourceAvito, ActionRead))
	assert.False(t, p.Allows(models.RoleClient, ResourceAdmin, ActionRead))
	assert.True(t, p.Allows(models.RoleAdmin, ResourceAdmin, ActionDelete))
}

func TestPolicyScope(t *testing.T) {
	p := DefaultPolicy()

	assert.True(t, p.CanActFor(owner, owner.ID))
	assert.False(t, p.CanActFor(other, owner.ID))
	assert.True(t, p.CanActFor(admin, owner.ID))
	assert.True(t, p.CanActFor(cleaner, owner.ID))
	assert.True(t, p.CanActFor(cleaner, cleaner.ID))
	assert.False(t, p.CanActFor(cleaner, other.ID))
	assert.False(t, p.CanActFor(nil, owner.ID))

	loose := &models.User{ID: uuid.New(), Role: models.RoleCleaner}
	assert.False(t, p.CanActFor(loose, owner.ID))
}

func TestAuthorizeWrapsForbidden(t *testing.T) {
	err := DefaultPolicy().Authorize(other, owner.ID, ResourceRoom, ActionRead)
	assert.ErrorIs(t, err, utils.ErrForbidden)
	assert.NoError(t, DefaultPolicy().Authorize(owner, owner.ID, ResourceRoom, ActionRead))
}

func serve(t *testing.T, m *Middleware, subject string, path string, res Resource, act Action) (*httptest.ResponseRecorder, *Actor) {
	t.Helper()
	var seen *Actor
	r := mux.NewRouter()
	r.Handle("/api/users/{id}/rooms", m.Require(res, act)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ActorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodGet, path, nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.ContextKeyUserID, subject))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr, seen
}

func TestRequire(t *testing.T) {
	m := NewMiddleware(DefaultPolicy(), fakeUsers{
		owner.ID: owner, other.ID: other, admin.ID: admin, cleaner.ID: cleaner,
	})
	ownerPath := "/api/users/" + owner.ID.String() + "/rooms"

	rr, actor := serve(t, m, owner.ID.String(), ownerPath, ResourceRoom, ActionRead)
	assert.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, actor)
	assert.Equal(t, owner.ID, actor.OwnerID)
	assert.Equal(t, owner, actor.User)

	rr, actor = serve(t, m, cleaner.ID.String(), ownerPath, ResourceRoom, ActionRead)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, owner.ID, actor.OwnerID)

	rr, _ = serve(t, m, cleaner.ID.String(), ownerPath, ResourceRoom, ActionDelete)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr, _ = serve(t, m, other.ID.String(), ownerPath, ResourceRoom, ActionRead)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr, _ = serve(t, m, admin.ID.String(), ownerPath, ResourceRoom, ActionDelete)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr, _ = serve(t, m, uuid.NewString(), ownerPath, ResourceRoom, ActionRead)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr, _ = serve(t, m, owner.ID.String(), "/api/users/not-a-uuid/rooms", ResourceRoom, ActionRead)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
