// Package event holds the payloads exchanged between modules over messaging.
package event

import "time"

// HeaderCorrelationID carries the request correlation id across modules.
const HeaderCorrelationID = "cID"

const (
	TeamRegisteredDestination          = "team_registered"
	TeamRegisteredConsumerNotification = "team_registered_notification"
)

type TeamRegisteredMember struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type TeamRegisteredMessage struct {
	UserID       int64                  `json:"user_id"`
	Username     string                 `json:"username"`
	Email        string                 `json:"email"`
	Name         string                 `json:"name"`
	TeamName     string                 `json:"team_name"`
	College      string                 `json:"college"`
	Members      []TeamRegisteredMember `json:"members"`
	RegisteredAt time.Time              `json:"registered_at"`
}
