package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/dtos"
	"github.com/rikster-r/booking-calendar/backend/shared/go-models"
	"github.com/rikster-r/booking-calendar/backend/shared/go-testhelpers/memrepo"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUsers() (UserService, *memrepo.Store) {
	store := memrepo.NewStore()
	return NewUserService(store.Users(), store.AuditLogs()), store
}

func TestUpdateUserSettings(t *testing.T) {
	ctx := context.Background()
	svc, store := newUsers()
	u := seedUser(t, store, models.RoleClient, nil)

	updated, err := svc.UpdateUser(ctx, u.ID, dtos.UpdateUserRequest{
		FirstName:  utils.Ptr("Maria"),
		DateFormat: utils.Ptr("yyyy-MM-dd"),
		RowVersion: utils.Ptr(u.RowVersion),
	})
	require.NoError(t, err)
	assert.Equal(t, "Maria", updated.FirstName)
	assert.Equal(t, "yyyy-MM-dd", updated.DateFormat)
	assert.Equal(t, u.RowVersion+1, updated.RowVersion)

	_, err = svc.UpdateUser(ctx, u.ID, dtos.UpdateUserRequest{
		LastName:   utils.Ptr("Stale"),
		RowVersion: utils.Ptr(u.RowVersion),
	})
	appErr := requireAppError(t, err, http.StatusConflict, utils.ErrCodeRowVersionConflict)
	assert.NotNil(t, appErr.Details)

	_, err = svc.UpdateUser(ctx, uuid.New(), dtos.UpdateUserRequest{})
	requireAppError(t, err, http.StatusNotFound, utils.ErrCodeNotFound)
}

func TestListCleanersOnlyReturnsCleaners(t *testing.T) {
	ctx := context.Background()
	svc, store := newUsers()
	owner := seedUser(t, store, models.RoleClient, nil)
	cleaner := seedUser(t, store, models.RoleCleaner, &owner.ID)
	seedUser(t, store, models.RoleCleaner, nil)

	list, err := svc.ListCleaners(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, cleaner.ID, list[0].ID)
}

func TestAdminCreateUser(t *testing.T) {
	ctx := context.Background()
	svc, store := newUsers()
	admin := seedUser(t, store, models.RoleAdmin, nil)
	owner := seedUser(t, store, models.RoleClient, nil)

	t.Run("cleaner needs an owner", func(t *testing.T) {
		_, err := svc.AdminCreateUser(ctx, admin, dtos.AdminCreateUserRequest{
			Email: "c1@example.com", Password: "password1", FirstName: "C", Role: models.RoleCleaner,
		})
		requireAppError(t, err, http.StatusBadRequest, utils.ErrCodeValidation)
	})

	t.Run("owner must be a client", func(t *testing.T) {
		_, err := svc.AdminCreateUser(ctx, admin, dtos.AdminCreateUserRequest{
			Email: "c2@example.com", Password: "password1", FirstName: "C", Role: models.RoleCleaner, RelatedTo: &admin.ID,
		})
		requireAppError(t, err, http.StatusBadRequest, utils.ErrCodeValidation)
	})

	t.Run("cleaner created and audited", func(t *testing.T) {
		u, err := svc.AdminCreateUser(ctx, admin, dtos.AdminCreateUserRequest{
			Email: "C3@Example.com", Password: "password1", FirstName: "C", Role: models.RoleCleaner, RelatedTo: &owner.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, "c3@example.com", u.Email)
		require.NotNil(t, u.RelatedTo)
		assert.Equal(t, owner.ID, *u.RelatedTo)

		logs, err := store.AuditLogs().ListByTarget(ctx, models.TargetUser, u.ID)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, models.AuditCreate, logs[0].Action)
		assert.Equal(t, admin.ID, logs[0].ActorID)
	})

	t.Run("related_to dropped for non-cleaners", func(t *testing.T) {
		u, err := svc.AdminCreateUser(ctx, admin, dtos.AdminCreateUserRequest{
			Email: "c4@example.com", Password: "password1", FirstName: "C", Role: models.RoleClient, RelatedTo: &owner.ID,
		})
		require.NoError(t, err)
		assert.Nil(t, u.RelatedTo)
	})
}

func TestAdminDeleteAndRole(t *testing.T) {
	ctx := context.Background()
	svc, store := newUsers()
	admin := seedUser(t, store, models.RoleAdmin, nil)
	owner := seedUser(t, store, models.RoleClient, nil)
	victim := seedUser(t, store, models.RoleClient, nil)

	err := svc.AdminDeleteUser(ctx, admin, admin.ID)
	requireAppError(t, err, http.StatusBadRequest, utils.ErrCodeValidation)

	_, err = svc.AdminUpdateRole(ctx, admin, admin.ID, dtos.UpdateRoleRequest{Role: models.RoleClient})
	requireAppError(t, err, http.StatusBadRequest, utils.ErrCodeValidation)

	updated, err := svc.AdminUpdateRole(ctx, admin, victim.ID, dtos.UpdateRoleRequest{
		Role: models.RoleCleaner, RelatedTo: &owner.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleCleaner, updated.Role)

	require.NoError(t, svc.AdminDeleteUser(ctx, admin, victim.ID))
	err = svc.AdminDeleteUser(ctx, admin, victim.ID)
	requireAppError(t, err, http.StatusNotFound, utils.ErrCodeNotFound)

	entries := store.AuditEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, models.AuditUpdate, entries[0].Action)
	assert.Equal(t, models.AuditDelete, entries[1].Action)
}
