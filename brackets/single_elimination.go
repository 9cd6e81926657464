package brackets

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/padelpoint/tournament-service/models"
)

var (
	ErrInsufficientTeams  = errors.New("at least 2 teams are required to generate a draw")
	ErrDuplicateTeamEntry = errors.New("duplicate team in draw input")
)

type SingleEliminationGenerator struct{}

func NewSingleEliminationGenerator() DrawGenerator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) Name() string {
	return "SingleElimination"
}

// GenerateDraw builds the full bracket: a power-of-two first round with byes
// assigned to the highest seeds, empty shells for every later round, and the
// bye cascade already applied so the returned draw never needs a second
// resolution pass at runtime. Advancement is positional: the winner of
// (round r, slot s) feeds (r+1, s/2), home side when s is even.
func (g *SingleEliminationGenerator) GenerateDraw(ctx context.Context, params GenerateDrawParams) ([]*models.Match, error) {
	teams := params.Teams
	n := len(teams)
	if n < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInsufficientTeams, n)
	}

	seen := make(map[int]struct{}, n)
	for _, t := range teams {
		if _, dup := seen[t.ID]; dup {
			return nil, fmt.Errorf("%w: team %d", ErrDuplicateTeamEntry, t.ID)
		}
		seen[t.ID] = struct{}{}
	}

	ordered := seedOrder(teams)

	numRounds := int(math.Ceil(math.Log2(float64(n))))
	bracketSize := 1 << uint(numRounds)

	// Slot i of the first round holds the seed slotSeeds[i]; seeds beyond the
	// roster are the byes, which this layout hands to the top seeds first.
	slotSeeds := seedPositions(bracketSize)
	slots := make([]*models.Team, bracketSize)
	for i, seed := range slotSeeds {
		if seed <= n {
			slots[i] = ordered[seed-1]
		}
	}

	rounds := make([][]*models.Match, numRounds)
	for r := range rounds {
		rounds[r] = make([]*models.Match, bracketSize>>uint(r+1))
	}

	for s := 0; s < bracketSize/2; s++ {
		home, away := slots[2*s], slots[2*s+1]
		switch {
		case home == nil && away == nil:
			// Degenerate pairing with no teams on either side: omitted, the
			// consuming slot stays open until its sibling feeder resolves.
			continue
		case home != nil && away != nil:
			homeID, awayID := home.ID, away.ID
			rounds[0][s] = &models.Match{
				TournamentID: params.TournamentID,
				Round:        0,
				Slot:         s,
				HomeTeamID:   &homeID,
				AwayTeamID:   &awayID,
				Status:       models.MatchStatusUnscheduled,
			}
		default:
			team := home
			if team == nil {
				team = away
			}
			teamID := team.ID
			winnerID := team.ID
			rounds[0][s] = &models.Match{
				TournamentID: params.TournamentID,
				Round:        0,
				Slot:         s,
				HomeTeamID:   &teamID,
				Status:       models.MatchStatusBye,
				WinnerTeamID: &winnerID,
			}
		}
	}

	for r := 1; r < numRounds; r++ {
		for s := range rounds[r] {
			rounds[r][s] = &models.Match{
				TournamentID: params.TournamentID,
				Round:        r,
				Slot:         s,
				Status:       models.MatchStatusUnscheduled,
			}
		}
	}

	cascadeByes(rounds)

	matches := make([]*models.Match, 0, bracketSize-1)
	for _, round := range rounds {
		for _, m := range round {
			if m != nil {
				matches = append(matches, m)
			}
		}
	}
	return matches, nil
}

// seedOrder returns teams in seed order: explicitly seeded teams first by
// their seed number, everyone else in registration order.
func seedOrder(teams []*models.Team) []*models.Team {
	ordered := make([]*models.Team, len(teams))
	copy(ordered, teams)
	sort.SliceStable(ordered, func(i, j int) bool {
		si, sj := ordered[i].Seed, ordered[j].Seed
		switch {
		case si != nil && sj != nil:
			return *si < *sj
		case si != nil:
			return true
		default:
			return false
		}
	})
	return ordered
}

// seedPositions computes the standard single-elimination seeding table for a
// power-of-two bracket size: slot i gets seed positions[i]. Each doubling
// pairs every seed with its mirror so the top two seeds cannot meet before
// the final and byes (absent bottom seeds) land on the top seeds first.
func seedPositions(size int) []int {
	positions := []int{1}
	for len(positions) < size {
		mirror := len(positions)*2 + 1
		next := make([]int, 0, len(positions)*2)
		for _, p := range positions {
			next = append(next, p, mirror-p)
		}
		positions = next
	}
	return positions
}

// cascadeByes pushes every resolved bye winner into its next-round slot at
// construction time. When a pushed winner lands in a match whose other side
// can never be filled (the sibling feeder was omitted), that match resolves
// as a bye too and the winner keeps moving up.
func cascadeByes(rounds [][]*models.Match) {
	for r := 0; r < len(rounds)-1; r++ {
		for s, m := range rounds[r] {
			if m == nil || m.Status != models.MatchStatusBye || m.WinnerTeamID == nil {
				continue
			}
			propagateWinner(rounds, r, s, *m.WinnerTeamID)
		}
	}
}

func propagateWinner(rounds [][]*models.Match, round, slot, winnerID int) {
	nextRound, nextSlot, home := models.AdvancementTarget(round, slot)
	if nextRound >= len(rounds) {
		return
	}
	next := rounds[nextRound][nextSlot]
	id := winnerID
	if home {
		next.HomeTeamID = &id
	} else {
		next.AwayTeamID = &id
	}

	siblingSlot := nextSlot * 2
	if home {
		siblingSlot = nextSlot*2 + 1
	}
	if rounds[round][siblingSlot] != nil {
		return
	}
	// Sibling feeder was omitted: this match is itself a bye.
	w := winnerID
	next.Status = models.MatchStatusBye
	next.WinnerTeamID = &w
	propagateWinner(rounds, nextRound, nextSlot, winnerID)
}
