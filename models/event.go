package models

import "time"

// EventType groups events by competition category.
type EventType int

const (
	EventTypeSpeech EventType = 0
	EventTypeLD     EventType = 1
	EventTypePF     EventType = 2
)

// Event is a competition category (LD, PF, Extemp, Oratory, ...).
// Partner events require two competitors per entry.
type Event struct {
	ID             int       `json:"id"`
	Name           string    `json:"name"`
	Emoji          string    `json:"emoji,omitempty"`
	Type           EventType `json:"event_type"`
	IsPartnerEvent bool      `json:"is_partner_event"`
	CreatedAt      time.Time `json:"created_at"`
}

// UserEvent is an event membership. Signup for an event is permitted only
// while the membership is active.
type UserEvent struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	EventID   int       `json:"event_id"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
