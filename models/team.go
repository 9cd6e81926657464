package models

import "time"

type Player struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Team is a registered doubles pair. Teams are immutable once registered and
// their registration order defines the default seed order of the draw.
type Team struct {
	ID           int       `json:"id"`
	TournamentID int       `json:"tournament_id"`
	Name         *string   `json:"name,omitempty"`
	Player1ID    int       `json:"player1_id"`
	Player2ID    int       `json:"player2_id"`
	Seed         *int      `json:"seed,omitempty"`
	CreatedAt    time.Time `json:"created_at"`

	Player1 *Player `json:"player1,omitempty"`
	Player2 *Player `json:"player2,omitempty"`
}

// DisplayName returns the explicit team name, or "Player 1 / Player 2" when
// none was given at registration.
func (t *Team) DisplayName() string {
	if t.Name != nil && *t.Name != "" {
		return *t.Name
	}
	if t.Player1 != nil && t.Player2 != nil {
		return t.Player1.Name + " / " + t.Player2.Name
	}
	return ""
}
