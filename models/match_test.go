package models

import (
	"errors"
	"testing"
	"time"
)

func intPtr(v int) *int { return &v }

func openMatch() *Match {
	return &Match{
		ID:           1,
		TournamentID: 1,
		Round:        0,
		Slot:         0,
		HomeTeamID:   intPtr(10),
		AwayTeamID:   intPtr(20),
		Status:       MatchStatusUnscheduled,
	}
}

func TestAdvancementTarget(t *testing.T) {
	tests := []struct {
		round, slot         int
		nextRound, nextSlot int
		home                bool
	}{
		{0, 0, 1, 0, true},
		{0, 1, 1, 0, false},
		{0, 2, 1, 1, true},
		{0, 3, 1, 1, false},
		{1, 0, 2, 0, true},
		{1, 1, 2, 0, false},
		{2, 5, 3, 2, false},
	}
	for _, tt := range tests {
		nextRound, nextSlot, home := AdvancementTarget(tt.round, tt.slot)
		if nextRound != tt.nextRound || nextSlot != tt.nextSlot || home != tt.home {
			t.Errorf("AdvancementTarget(%d, %d) = (%d, %d, %v), want (%d, %d, %v)",
				tt.round, tt.slot, nextRound, nextSlot, home, tt.nextRound, tt.nextSlot, tt.home)
		}
	}
}

func TestSchedule(t *testing.T) {
	m := openMatch()
	at := time.Date(2026, 9, 12, 10, 0, 0, 0, time.UTC)

	if err := m.Schedule(3, at); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if m.Status != MatchStatusScheduled {
		t.Errorf("status = %q, want scheduled", m.Status)
	}
	if m.CourtID == nil || *m.CourtID != 3 {
		t.Errorf("court = %v, want 3", m.CourtID)
	}
	if m.ScheduledAt == nil || !m.ScheduledAt.Equal(at) {
		t.Errorf("scheduled_at = %v, want %v", m.ScheduledAt, at)
	}

	// Re-scheduling is allowed until the match is terminal.
	later := at.Add(2 * time.Hour)
	if err := m.Schedule(5, later); err != nil {
		t.Fatalf("re-Schedule: %v", err)
	}
	if *m.CourtID != 5 || !m.ScheduledAt.Equal(later) {
		t.Errorf("re-schedule not applied: court %v at %v", m.CourtID, m.ScheduledAt)
	}
}

func TestScheduleRequiresCourtAndTime(t *testing.T) {
	m := openMatch()
	if err := m.Schedule(0, time.Now()); !errors.Is(err, ErrScheduleIncomplete) {
		t.Errorf("missing court: err = %v, want ErrScheduleIncomplete", err)
	}
	if err := m.Schedule(1, time.Time{}); !errors.Is(err, ErrScheduleIncomplete) {
		t.Errorf("missing time: err = %v, want ErrScheduleIncomplete", err)
	}
	if m.Status != MatchStatusUnscheduled {
		t.Errorf("status mutated on rejected schedule: %q", m.Status)
	}
}

func TestSchedulePreservesLiveStatus(t *testing.T) {
	m := openMatch()
	if err := m.MarkLive(); err != nil {
		t.Fatalf("MarkLive: %v", err)
	}
	if err := m.Schedule(1, time.Now()); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if m.Status != MatchStatusLive {
		t.Errorf("status = %q, want live", m.Status)
	}
}

func TestComplete(t *testing.T) {
	m := openMatch()
	if err := m.Complete("6-4,6-3", 10); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if m.Status != MatchStatusCompleted {
		t.Errorf("status = %q, want completed", m.Status)
	}
	if m.Score == nil || *m.Score != "6-4,6-3" {
		t.Errorf("score = %v, want 6-4,6-3", m.Score)
	}
	if m.WinnerTeamID == nil || *m.WinnerTeamID != 10 {
		t.Errorf("winner = %v, want 10", m.WinnerTeamID)
	}
}

func TestCompleteRejectsUndecidedSides(t *testing.T) {
	m := openMatch()
	m.AwayTeamID = nil
	if err := m.Complete("6-4,6-3", 10); !errors.Is(err, ErrMatchSidesUndecided) {
		t.Fatalf("err = %v, want ErrMatchSidesUndecided", err)
	}
}

func TestTerminalStatesRejectTransitions(t *testing.T) {
	for _, status := range []MatchStatus{MatchStatusCompleted, MatchStatusBye} {
		m := openMatch()
		m.Status = status

		if err := m.Schedule(1, time.Now()); !errors.Is(err, ErrMatchTerminal) {
			t.Errorf("%s Schedule: err = %v, want ErrMatchTerminal", status, err)
		}
		if err := m.MarkLive(); !errors.Is(err, ErrMatchTerminal) {
			t.Errorf("%s MarkLive: err = %v, want ErrMatchTerminal", status, err)
		}
		if err := m.Complete("6-4,6-3", 10); !errors.Is(err, ErrMatchTerminal) {
			t.Errorf("%s Complete: err = %v, want ErrMatchTerminal", status, err)
		}
	}
}

func TestAmendResult(t *testing.T) {
	m := openMatch()
	if err := m.AmendResult("6-4,6-2", 10); !errors.Is(err, ErrMatchNotCompleted) {
		t.Fatalf("amend before completion: err = %v, want ErrMatchNotCompleted", err)
	}

	if err := m.Complete("6-4,6-3", 10); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if err := m.AmendResult("4-6,3-6", 20); err != nil {
		t.Fatalf("AmendResult: %v", err)
	}
	if *m.Score != "4-6,3-6" || *m.WinnerTeamID != 20 {
		t.Errorf("amendment not applied: score %v winner %v", m.Score, m.WinnerTeamID)
	}
	if m.Status != MatchStatusCompleted {
		t.Errorf("status = %q, want completed", m.Status)
	}
}

func TestByeDetection(t *testing.T) {
	m := &Match{Status: MatchStatusBye, HomeTeamID: intPtr(10), WinnerTeamID: intPtr(10)}
	if !m.IsBye() || !m.Terminal() {
		t.Errorf("bye match not recognized as terminal bye")
	}
	if openMatch().IsBye() {
		t.Errorf("open match reported as bye")
	}
}
