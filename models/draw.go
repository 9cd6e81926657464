package models

// Round is one level of the elimination draw; round 0 is the first round and
// the last round holds exactly the final.
type Round struct {
	Round   int      `json:"round"`
	Matches []*Match `json:"matches"`
}

// Draw is the full single-elimination structure of one tournament.
type Draw struct {
	TournamentID int     `json:"tournament_id"`
	Rounds       []Round `json:"rounds"`
}

// GroupRounds arranges a flat match list into ordered rounds. Matches are
// expected sorted by (round, slot), as the repositories return them.
func GroupRounds(tournamentID int, matches []*Match) *Draw {
	draw := &Draw{TournamentID: tournamentID, Rounds: []Round{}}
	byRound := map[int][]*Match{}
	maxRound := -1
	for _, m := range matches {
		byRound[m.Round] = append(byRound[m.Round], m)
		if m.Round > maxRound {
			maxRound = m.Round
		}
	}
	for r := 0; r <= maxRound; r++ {
		ms := byRound[r]
		if ms == nil {
			ms = []*Match{}
		}
		draw.Rounds = append(draw.Rounds, Round{Round: r, Matches: ms})
	}
	return draw
}
