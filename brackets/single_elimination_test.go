package brackets

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/padelpoint/tournament-service/models"
)

func teamSlice(n int) []*models.Team {
	teams := make([]*models.Team, n)
	for i := range teams {
		teams[i] = &models.Team{ID: i + 1, TournamentID: 7}
	}
	return teams
}

func matchAt(matches []*models.Match, round, slot int) *models.Match {
	for _, m := range matches {
		if m.Round == round && m.Slot == slot {
			return m
		}
	}
	return nil
}

func TestGenerateDrawRoundStructure(t *testing.T) {
	g := NewSingleEliminationGenerator()

	for n := 2; n <= 33; n++ {
		matches, err := g.GenerateDraw(context.Background(), GenerateDrawParams{TournamentID: 7, Teams: teamSlice(n)})
		if err != nil {
			t.Fatalf("n=%d: unexpected error: %v", n, err)
		}

		wantRounds := int(math.Ceil(math.Log2(float64(n))))
		maxRound := 0
		finals := 0
		for _, m := range matches {
			if m.Round > maxRound {
				maxRound = m.Round
			}
			if m.Round == wantRounds-1 {
				finals++
			}
		}
		if maxRound != wantRounds-1 {
			t.Errorf("n=%d: last round = %d, want %d", n, maxRound, wantRounds-1)
		}
		if finals != 1 {
			t.Errorf("n=%d: final round has %d matches, want exactly 1", n, finals)
		}

		bracketSize := 1 << uint(wantRounds)
		wantByes := bracketSize - n
		byes := 0
		for _, m := range matches {
			if m.Round == 0 && m.Status == models.MatchStatusBye {
				byes++
			}
		}
		if byes != wantByes {
			t.Errorf("n=%d: got %d byes, want %d", n, byes, wantByes)
		}
	}
}

func TestGenerateDrawPowerOfTwoHasNoByes(t *testing.T) {
	g := NewSingleEliminationGenerator()

	for _, n := range []int{2, 4, 8, 16, 32} {
		matches, err := g.GenerateDraw(context.Background(), GenerateDrawParams{TournamentID: 7, Teams: teamSlice(n)})
		if err != nil {
			t.Fatalf("n=%d: unexpected error: %v", n, err)
		}
		for _, m := range matches {
			if m.Status == models.MatchStatusBye {
				t.Errorf("n=%d: match (round %d, slot %d) is a bye", n, m.Round, m.Slot)
			}
			if m.Round == 0 && (m.HomeTeamID == nil || m.AwayTeamID == nil) {
				t.Errorf("n=%d: first-round match (slot %d) has an open side", n, m.Slot)
			}
		}
		if len(matches) != n-1 {
			t.Errorf("n=%d: got %d matches, want %d", n, len(matches), n-1)
		}
	}
}

func TestGenerateDrawStandardSeedingEight(t *testing.T) {
	g := NewSingleEliminationGenerator()
	matches, err := g.GenerateDraw(context.Background(), GenerateDrawParams{TournamentID: 7, Teams: teamSlice(8)})
	if err != nil {
		t.Fatal(err)
	}

	// Standard table for 8: 1v8, 4v5, 2v7, 3v6.
	wantPairs := [][2]int{{1, 8}, {4, 5}, {2, 7}, {3, 6}}
	for slot, pair := range wantPairs {
		m := matchAt(matches, 0, slot)
		if m == nil {
			t.Fatalf("missing first-round match at slot %d", slot)
		}
		if *m.HomeTeamID != pair[0] || *m.AwayTeamID != pair[1] {
			t.Errorf("slot %d: got %dv%d, want %dv%d",
				slot, *m.HomeTeamID, *m.AwayTeamID, pair[0], pair[1])
		}
	}
}

func TestGenerateDrawByesGoToTopSeeds(t *testing.T) {
	g := NewSingleEliminationGenerator()
	matches, err := g.GenerateDraw(context.Background(), GenerateDrawParams{TournamentID: 7, Teams: teamSlice(6)})
	if err != nil {
		t.Fatal(err)
	}

	// Bracket of 8 with 6 teams: seeds 7 and 8 are absent, so seeds 1 and 2
	// sit out the first round.
	byeWinners := map[int]bool{}
	for _, m := range matches {
		if m.Round == 0 && m.Status == models.MatchStatusBye {
			byeWinners[*m.WinnerTeamID] = true
		}
	}
	if len(byeWinners) != 2 || !byeWinners[1] || !byeWinners[2] {
		t.Fatalf("bye winners = %v, want seeds 1 and 2", byeWinners)
	}
}

func TestGenerateDrawCascadesByesAtConstruction(t *testing.T) {
	g := NewSingleEliminationGenerator()
	matches, err := g.GenerateDraw(context.Background(), GenerateDrawParams{TournamentID: 7, Teams: teamSlice(5)})
	if err != nil {
		t.Fatal(err)
	}

	// 5 teams in a bracket of 8: byes for seeds 1, 2, 3. Their winners must
	// already occupy their semifinal slots.
	for _, m := range matches {
		if m.Round != 0 || m.Status != models.MatchStatusBye {
			continue
		}
		nextRound, nextSlot, home := models.AdvancementTarget(m.Round, m.Slot)
		next := matchAt(matches, nextRound, nextSlot)
		if next == nil {
			t.Fatalf("no next match for bye at slot %d", m.Slot)
		}
		side := next.AwayTeamID
		if home {
			side = next.HomeTeamID
		}
		if side == nil || *side != *m.WinnerTeamID {
			t.Errorf("bye winner %d not cascaded into (round %d, slot %d)",
				*m.WinnerTeamID, nextRound, nextSlot)
		}
	}

	// Seeds 2 and 3 both drew byes and meet in a full semifinal.
	semi := matchAt(matches, 1, 1)
	if semi == nil || semi.HomeTeamID == nil || semi.AwayTeamID == nil {
		t.Fatalf("semifinal fed by two byes should have both sides resolved: %+v", semi)
	}
	if semi.Status == models.MatchStatusBye {
		t.Fatal("semifinal fed by two byes must be a playable match, not a bye")
	}
}

func TestGenerateDrawExplicitSeeds(t *testing.T) {
	g := NewSingleEliminationGenerator()
	teams := teamSlice(4)
	// Reverse the registration order via explicit seeds.
	for i, seed := range []int{4, 3, 2, 1} {
		s := seed
		teams[i].Seed = &s
	}
	matches, err := g.GenerateDraw(context.Background(), GenerateDrawParams{TournamentID: 7, Teams: teams})
	if err != nil {
		t.Fatal(err)
	}

	first := matchAt(matches, 0, 0)
	if *first.HomeTeamID != 4 || *first.AwayTeamID != 1 {
		t.Errorf("slot 0 = %dv%d, want team 4 (seed 1) vs team 1 (seed 4)",
			*first.HomeTeamID, *first.AwayTeamID)
	}
}

func TestGenerateDrawInputErrors(t *testing.T) {
	g := NewSingleEliminationGenerator()

	if _, err := g.GenerateDraw(context.Background(), GenerateDrawParams{TournamentID: 7, Teams: teamSlice(1)}); !errors.Is(err, ErrInsufficientTeams) {
		t.Errorf("one team: error = %v, want ErrInsufficientTeams", err)
	}
	if _, err := g.GenerateDraw(context.Background(), GenerateDrawParams{TournamentID: 7, Teams: nil}); !errors.Is(err, ErrInsufficientTeams) {
		t.Errorf("no teams: error = %v, want ErrInsufficientTeams", err)
	}

	dup := teamSlice(4)
	dup[3].ID = dup[0].ID
	if _, err := g.GenerateDraw(context.Background(), GenerateDrawParams{TournamentID: 7, Teams: dup}); !errors.Is(err, ErrDuplicateTeamEntry) {
		t.Errorf("duplicate ids: error = %v, want ErrDuplicateTeamEntry", err)
	}
}

func TestSeedPositions(t *testing.T) {
	got := seedPositions(8)
	want := []int{1, 8, 4, 5, 2, 7, 3, 6}
	if len(got) != len(want) {
		t.Fatalf("seedPositions(8) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("seedPositions(8) = %v, want %v", got, want)
		}
	}

	// Top two seeds always land in opposite halves.
	for _, size := range []int{2, 4, 8, 16, 32, 64} {
		positions := seedPositions(size)
		var idx1, idx2 int
		for i, p := range positions {
			if p == 1 {
				idx1 = i
			}
			if p == 2 {
				idx2 = i
			}
		}
		if (idx1 < size/2) == (idx2 < size/2) {
			t.Errorf("size %d: seeds 1 and 2 share a half", size)
		}
	}
}
