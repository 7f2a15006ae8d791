// go-models/user.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleClient  Role = "client"
	RoleCleaner Role = "cleaner"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleClient, RoleCleaner:
		return true
	}
	return false
}

// User is any account: an admin, a property owner ("client") or a cleaner
// working for one owner through RelatedTo.
type User struct {
	Versioned
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Role         Role       `json:"role"`
	RelatedTo    *uuid.UUID `json:"related_to,omitempty"`
	DateFormat   string     `json:"date_format"`
	TimeFormat   string     `json:"time_format"`
	LastSignInAt *time.Time `json:"last_sign_in_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (u *User) GetID() string { return u.ID.String() }

func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	}
	return u.Email
}

// OwnerID is the property owner whose rooms the user works with: itself for
// clients and admins, the related owner for cleaners.
func (u *User) OwnerID() uuid.UUID {
	if u.Role == RoleCleaner && u.RelatedTo != nil {
		return *u.RelatedTo
	}
	return u.ID
}
