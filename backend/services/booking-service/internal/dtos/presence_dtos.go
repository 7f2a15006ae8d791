package dtos

import "time"

type PresenceEventType string

const (
	PresenceSync  PresenceEventType = "sync"
	PresenceJoin  PresenceEventType = "join"
	PresenceLeave PresenceEventType = "leave"
)

type OnlineUser struct {
	UserID   string    `json:"user_id"`
	Name     string    `json:"name"`
	Role     string    `json:"role"`
	OnlineAt time.Time `json:"online_at"`
}

// PresenceEvent is pushed over the presence websocket.
type PresenceEvent struct {
	Type  PresenceEventType `json:"type"`
	User  *OnlineUser       `json:"user,omitempty"`
	Users []OnlineUser      `json:"users,omitempty"`
}
