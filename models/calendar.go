package models

import "time"

// Event is a calendar entry owned by one user with invited participants.
type Event struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"not null"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	OwnerID     uint      `json:"owner_id"`
	Color       string    `json:"color,omitempty"`
	Location    string    `json:"location,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Participants []EventParticipant `json:"participants,omitempty" gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE;"`
}

// EventParticipant invitation states.
const (
	ParticipantPending  = "pending"
	ParticipantAccepted = "accepted"
	ParticipantDeclined = "declined"
)

// EventParticipant links a user to an event with an invitation status.
type EventParticipant struct {
	ID      uint   `json:"id" gorm:"primaryKey"`
	EventID uint   `json:"event_id" gorm:"not null;uniqueIndex:idx_event_user,priority:1"`
	UserID  uint   `json:"user_id" gorm:"not null;uniqueIndex:idx_event_user,priority:2"`
	Status  string `json:"status" gorm:"size:20;default:'pending'"`
}
