package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventProfileRegistered EventType = "profile_registered"
	EventProfileActivated  EventType = "profile_activated"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ProfileID int64       `json:"profile_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ProfileRegisteredPayload carries what is needed to send the activation mail.
type ProfileRegisteredPayload struct {
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	ActivationToken string `json:"activation_token"`
}

// ProfileActivatedPayload payload.
type ProfileActivatedPayload struct {
	Email string `json:"email"`
}
