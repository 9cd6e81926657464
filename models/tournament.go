package models

import "time"

// TournamentStatus mirrors the ENUM in the database.
type TournamentStatus string

const (
	TournamentStatusSoon         TournamentStatus = "soon"
	TournamentStatusRegistration TournamentStatus = "registration"
	TournamentStatusActive       TournamentStatus = "active"
	TournamentStatusCompleted    TournamentStatus = "completed"
	TournamentStatusCanceled     TournamentStatus = "canceled"
)

type Tournament struct {
	ID          int              `json:"id"`
	Name        string           `json:"name"`
	Description *string          `json:"description,omitempty"`
	OrganizerID int              `json:"organizer_id"`
	StartDate   time.Time        `json:"start_date"`
	EndDate     time.Time        `json:"end_date"`
	Status      TournamentStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`

	PosterKey *string `json:"-"`
	PosterURL *string `json:"poster_url,omitempty"`

	Teams []Team `json:"teams,omitempty"`
}
