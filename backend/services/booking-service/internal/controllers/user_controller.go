package controllers

import (
	"net/http"

	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/authz"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/dtos"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/services"
	shared_dtos "github.com/rikster-r/booking-calendar/backend/shared/go-dtos"
	"github.com/rikster-r/booking-calendar/backend/shared/go-models"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
)

type UserController struct {
	userService services.UserService
}

func NewUserController(userService services.UserService) *UserController {
	return &UserController{userService: userService}
}

// GetUser => GET /api/users/{id}
func (c *UserController) GetUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	user, err := c.userService.GetUser(r.Context(), actor.OwnerID)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, shared_dtos.NewUserFromModel(*user))
}

// UpdateUser => PUT /api/users/{id}. Only the account itself or an admin
// may change settings; cleaners can read their owner but not edit them.
func (c *UserController) UpdateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if !canEditProfile(actor) {
		utils.RespondErrorWithCode(w, http.StatusForbidden, utils.ErrCodeForbidden, "Insufficient permissions", nil, nil)
		return
	}

	var req dtos.UpdateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := c.userService.UpdateUser(r.Context(), actor.OwnerID, req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, shared_dtos.NewUserFromModel(*user))
}

// ListCleaners => GET /api/users/{id}/cleaners
func (c *UserController) ListCleaners(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	cleaners, err := c.userService.ListCleaners(r.Context(), actor.OwnerID)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, shared_dtos.NewUsersFromModels(cleaners))
}

// ListUsers => GET /api/admin/users
func (c *UserController) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := c.userService.ListUsers(r.Context())
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, shared_dtos.NewUsersFromModels(users))
}

// CreateUser => POST /api/admin/users
func (c *UserController) CreateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req dtos.AdminCreateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := c.userService.AdminCreateUser(r.Context(), actor.User, req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, shared_dtos.NewUserFromModel(*user))
}

// DeleteUser => DELETE /api/admin/users/{id}
func (c *UserController) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	if err := c.userService.AdminDeleteUser(r.Context(), actor.User, actor.OwnerID); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateRole => PUT /api/admin/users/{id}/role
func (c *UserController) UpdateRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req dtos.UpdateRoleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := c.userService.AdminUpdateRole(r.Context(), actor.User, actor.OwnerID, req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, shared_dtos.NewUserFromModel(*user))
}

func canEditProfile(actor *authz.Actor) bool {
	return actor.User.Role == models.RoleAdmin || actor.User.ID == actor.OwnerID
}
