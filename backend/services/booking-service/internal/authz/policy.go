package authz

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rikster-r/booking-calendar/backend/shared/go-models"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
)

type Resource string

const (
	ResourceUser     Resource = "user"
	ResourceRoom     Resource = "room"
	ResourceBooking  Resource = "booking"
	ResourceComment  Resource = "comment"
	ResourceTimeline Resource = "timeline"
	ResourceCleaner  Resource = "cleaner"
	ResourceAvito    Resource = "avito"
	ResourceAdmin    Resource = "admin"
)

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionSync   Action = "sync"
)

type rule struct {
	role     models.Role
	resource Resource
	action   Action
}

// Policy is a static allow-list of (role, resource, action) plus the
// ownership rule deciding whose data an actor may touch.
type Policy struct {
	rules map[rule]struct{}
}

func NewPolicy() *Policy {
	return &Policy{rules: map[rule]struct{}{}}
}

// Allow adds every action on resource for role.
func (p *Policy) Allow(role models.Role, resource Resource, actions ...Action) *Policy {
	for _, a := range actions {
		p.rules[rule{role, resource, a}] = struct{}{}
	}
	return p
}

var crud = []Action{ActionRead, ActionCreate, ActionUpdate, ActionDelete}

// DefaultPolicy is the role matrix the service runs with. Admins are
// allowed everything without rules.
func DefaultPolicy() *Policy {
	p := NewPolicy()

	p.Allow(models.RoleClient, ResourceUser, ActionRead, ActionUpdate)
	p.Allow(models.RoleClient, ResourceRoom, crud...)
	p.Allow(models.RoleClient, ResourceBooking, crud...)
	p.Allow(models.RoleClient, ResourceComment, crud...)
	p.Allow(models.RoleClient, ResourceTimeline, ActionRead)
	p.Allow(models.RoleClient, ResourceCleaner, ActionRead)
	p.Allow(models.RoleClient, ResourceAvito, append(crud, ActionSync)...)

	// Cleaners see the owner's calendar and flip room status; field-level
	// limits on room updates live in the room service.
	p.Allow(models.RoleCleaner, ResourceUser, ActionRead, ActionUpdate)
	p.Allow(models.RoleCleaner, ResourceRoom, ActionRead, ActionUpdate)
	p.Allow(models.RoleCleaner, ResourceBooking, ActionRead)
	p.Allow(models.RoleCleaner, ResourceComment, crud...)
	p.Allow(models.RoleCleaner, ResourceTimeline, ActionRead)

	return p
}

// Allows checks the role matrix only.
func (p *Policy) Allows(role models.Role, resource Resource, action Action) bool {
	if role == models.RoleAdmin {
		return true
	}
	_, ok := p.rules[rule{role, resource, action}]
	return ok
}

// CanActFor is the ownership scope: admins reach any owner, everyone reaches
// themselves, cleaners also reach the owner they are related to.
func (p *Policy) CanActFor(actor *models.User, ownerID uuid.UUID) bool {
	switch {
	case actor == nil:
		return false
	case actor.Role == models.RoleAdmin:
		return true
	case actor.ID == ownerID:
		return true
	case actor.Role == models.RoleCleaner && actor.RelatedTo != nil:
		return *actor.RelatedTo == ownerID
	}
	return false
}

// Authorize combines both checks. The returned error wraps utils.ErrForbidden.
func (p *Policy) Authorize(actor *models.User, ownerID uuid.UUID, resource Resource, action Action) error {
	if actor == nil {
		return fmt.Errorf("%w: no actor", utils.ErrForbidden)
	}
	if !p.Allows(actor.Role, resource, action) {
		return fmt.Errorf("%w: role %s may not %s %s", utils.ErrForbidden, actor.Role, action, resource)
	}
	if !p.CanActFor(actor, ownerID) {
		return fmt.Errorf("%w: %s outside actor scope", utils.ErrForbidden, resource)
	}
	return nil
}
