package models

import (
	"errors"
	"time"
)

type MatchStatus string

const (
	MatchStatusUnscheduled MatchStatus = "unscheduled"
	MatchStatusScheduled   MatchStatus = "scheduled"
	MatchStatusLive        MatchStatus = "live"
	MatchStatusCompleted   MatchStatus = "completed"
	MatchStatusBye         MatchStatus = "bye"
)

var (
	ErrMatchTerminal       = errors.New("match is in a terminal state")
	ErrMatchNotCompleted   = errors.New("match has no completed result")
	ErrScheduleIncomplete  = errors.New("court and scheduled time must be assigned together")
	ErrMatchSidesUndecided = errors.New("both match sides must be decided before a result")
)

// Match is one node of a tournament draw. Home/Away references are nil while
// the feeding matches of the previous round are still unresolved. A match with
// exactly one side populated and no feeder for the other is a bye: its winner
// is fixed at creation and it never transitions through score validation.
type Match struct {
	ID           int         `json:"id"`
	TournamentID int         `json:"tournament_id"`
	Round        int         `json:"round"`
	Slot         int         `json:"slot"`
	HomeTeamID   *int        `json:"home_team_id,omitempty"`
	AwayTeamID   *int        `json:"away_team_id,omitempty"`
	Status       MatchStatus `json:"status"`
	Score        *string     `json:"score,omitempty"`
	WinnerTeamID *int        `json:"winner_team_id,omitempty"`
	CourtID      *int        `json:"court_id,omitempty"`
	ScheduledAt  *time.Time  `json:"scheduled_at,omitempty"`
	Version      int         `json:"-"`
	CreatedAt    time.Time   `json:"created_at"`

	HomeTeam *Team  `json:"home_team,omitempty"`
	AwayTeam *Team  `json:"away_team,omitempty"`
	Court    *Court `json:"court,omitempty"`
}

// AdvancementTarget maps a match position to the next-round slot its winner
// feeds: (round r, slot s) -> (r+1, s/2), home side when s is even. The
// relation is computed from coordinates, never stored.
func AdvancementTarget(round, slot int) (nextRound, nextSlot int, home bool) {
	return round + 1, slot / 2, slot%2 == 0
}

func (m *Match) Terminal() bool {
	return m.Status == MatchStatusCompleted || m.Status == MatchStatusBye
}

func (m *Match) IsBye() bool {
	return m.Status == MatchStatusBye
}

// Schedule assigns a court and time. Both must be set together and a match can
// be re-scheduled any number of times until it reaches a terminal state.
func (m *Match) Schedule(courtID int, at time.Time) error {
	if m.Terminal() {
		return ErrMatchTerminal
	}
	if courtID <= 0 || at.IsZero() {
		return ErrScheduleIncomplete
	}
	t := at
	m.CourtID = &courtID
	m.ScheduledAt = &t
	if m.Status == MatchStatusUnscheduled {
		m.Status = MatchStatusScheduled
	}
	return nil
}

// MarkLive records that play has started. Optional: a match may go straight
// from scheduled to completed when no live tracking is in place.
func (m *Match) MarkLive() error {
	if m.Terminal() {
		return ErrMatchTerminal
	}
	m.Status = MatchStatusLive
	return nil
}

// Complete records a validated result. The score must already have passed the
// scoring validator; winnerTeamID is the side the validator picked.
func (m *Match) Complete(canonicalScore string, winnerTeamID int) error {
	if m.Terminal() {
		return ErrMatchTerminal
	}
	if m.HomeTeamID == nil || m.AwayTeamID == nil {
		return ErrMatchSidesUndecided
	}
	s := canonicalScore
	w := winnerTeamID
	m.Score = &s
	m.WinnerTeamID = &w
	m.Status = MatchStatusCompleted
	return nil
}

// AmendResult replaces the result of an already completed match. The caller
// re-runs validation; whether the amended winner may differ is decided by the
// orchestrator, which checks the downstream match first.
func (m *Match) AmendResult(canonicalScore string, winnerTeamID int) error {
	if m.Status != MatchStatusCompleted {
		return ErrMatchNotCompleted
	}
	s := canonicalScore
	w := winnerTeamID
	m.Score = &s
	m.WinnerTeamID = &w
	return nil
}
