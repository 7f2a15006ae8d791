package dtos

import (
	"github.com/google/uuid"
	"github.com/rikster-r/booking-calendar/backend/shared/go-models"
)

// UpdateUserRequest is a partial update of the caller's profile settings.
type UpdateUserRequest struct {
	FirstName  *string `json:"first_name,omitempty" validate:"omitempty,min=1,max=100"`
	LastName   *string `json:"last_name,omitempty" validate:"omitempty,max=100"`
	DateFormat *string `json:"date_format,omitempty" validate:"omitempty,oneof=dd.MM.yyyy MM/dd/yyyy yyyy-MM-dd"`
	TimeFormat *string `json:"time_format,omitempty" validate:"omitempty,oneof=HH:mm h:mm"`
	RowVersion *int64  `json:"row_version,omitempty"`
}

type AdminCreateUserRequest struct {
	Email     string      `json:"email" validate:"required,email,max=254"`
	Password  string      `json:"password" validate:"required,min=8,max=72"`
	FirstName string      `json:"first_name" validate:"required,max=100"`
	LastName  string      `json:"last_name" validate:"max=100"`
	Role      models.Role `json:"role" validate:"required,oneof=admin client cleaner"`
	RelatedTo *uuid.UUID  `json:"related_to,omitempty"`
}

type UpdateRoleRequest struct {
	Role       models.Role `json:"role" validate:"required,oneof=admin client cleaner"`
	RelatedTo  *uuid.UUID  `json:"related_to,omitempty"`
	RowVersion *int64      `json:"row_version,omitempty"`
}
