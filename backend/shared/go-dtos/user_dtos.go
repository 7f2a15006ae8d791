package dtos

import (
	"time"

	"github.com/rikster-r/booking-calendar/backend/shared/go-models"
)

// User is the public view of an account. Password hashes never leave the
// service.
type User struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	FirstName    string      `json:"first_name"`
	LastName     string      `json:"last_name"`
	Role         models.Role `json:"role"`
	RelatedTo    *string     `json:"related_to,omitempty"`
	DateFormat   string      `json:"date_format"`
	TimeFormat   string      `json:"time_format"`
	LastSignInAt *time.Time  `json:"last_sign_in_at,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	RowVersion   int64       `json:"row_version"`
}

func NewUserFromModel(u models.User) User {
	out := User{
		ID:           u.ID.String(),
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Role:         u.Role,
		DateFormat:   u.DateFormat,
		TimeFormat:   u.TimeFormat,
		LastSignInAt: u.LastSignInAt,
		CreatedAt:    u.CreatedAt,
		RowVersion:   u.RowVersion,
	}
	if u.RelatedTo != nil {
		s := u.RelatedTo.String()
		out.RelatedTo = &s
	}
	return out
}

func NewUsersFromModels(us []*models.User) []User {
	out := make([]User, 0, len(us))
	for _, u := range us {
		out = append(out, NewUserFromModel(*u))
	}
	return out
}
