package scoring

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Padel match results are two regular sets plus a super tie-break that is
// played only when the sets are split one apiece. There is no full third set.

type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
)

var (
	ErrMalformedScore        = errors.New("score must be comma-separated home-away pairs, e.g. 6-4,3-6,10-8")
	ErrInvalidSetScore       = errors.New("invalid set score (valid sets end 6-x with x<=4, 7-5 or 7-6)")
	ErrUnexpectedThirdSet    = errors.New("match was decided in two sets, a third set must not be present")
	ErrMissingThirdSet       = errors.New("sets are split one apiece, a super tie-break is required")
	ErrIncompleteTiebreak    = errors.New("super tie-break is incomplete, at least one side must reach 10 points")
	ErrInvalidTiebreakMargin = errors.New("super tie-break must be won by a margin of at least 2 points")
)

// SetScore holds the games (or tie-break points) of one played set.
type SetScore struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// Result is a validated, complete match result.
type Result struct {
	Sets     [2]SetScore `json:"sets"`
	Tiebreak *SetScore   `json:"tiebreak,omitempty"`
	Winner   Side        `json:"winner"`
	// Canonical is the serialized form: sets comma-joined as home-away,
	// tie-break appended only when played.
	Canonical string `json:"canonical"`
}

// Parse splits a raw score expression into its two sets and optional
// super tie-break. It checks shape only; use Validate for the rules.
func Parse(raw string) (sets [2]SetScore, tiebreak *SetScore, err error) {
	parts := strings.Split(strings.TrimSpace(raw), ",")
	if len(parts) < 2 || len(parts) > 3 {
		return sets, nil, fmt.Errorf("%w: got %d pairs", ErrMalformedScore, len(parts))
	}

	for i, part := range parts {
		pair, perr := parsePair(part)
		if perr != nil {
			return sets, nil, perr
		}
		if i < 2 {
			sets[i] = pair
		} else {
			tb := pair
			tiebreak = &tb
		}
	}
	return sets, tiebreak, nil
}

func parsePair(part string) (SetScore, error) {
	fields := strings.Split(strings.TrimSpace(part), "-")
	if len(fields) != 2 {
		return SetScore{}, fmt.Errorf("%w: %q", ErrMalformedScore, part)
	}
	home, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil || home < 0 {
		return SetScore{}, fmt.Errorf("%w: %q", ErrMalformedScore, part)
	}
	away, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil || away < 0 {
		return SetScore{}, fmt.Errorf("%w: %q", ErrMalformedScore, part)
	}
	return SetScore{Home: home, Away: away}, nil
}

// Validate decides whether the given sets and optional tie-break form a legal,
// complete result and determines the winner. Pure and safe to call concurrently.
func Validate(sets [2]SetScore, tiebreak *SetScore) (*Result, error) {
	winners := [2]Side{}
	for i, set := range sets {
		side, ok := setWinner(set)
		if !ok {
			return nil, fmt.Errorf("%w: set %d is %d-%d", ErrInvalidSetScore, i+1, set.Home, set.Away)
		}
		winners[i] = side
	}

	result := &Result{Sets: sets}

	if winners[0] == winners[1] {
		// Decided 2-0, nothing more may be played.
		if tiebreak != nil {
			return nil, ErrUnexpectedThirdSet
		}
		result.Winner = winners[0]
		result.Canonical = serialize(sets, nil)
		return result, nil
	}

	// One set apiece: the super tie-break decides.
	if tiebreak == nil {
		return nil, ErrMissingThirdSet
	}
	side, err := tiebreakWinner(*tiebreak)
	if err != nil {
		return nil, err
	}
	tb := *tiebreak
	result.Tiebreak = &tb
	result.Winner = side
	result.Canonical = serialize(sets, &tb)
	return result, nil
}

// ValidateRaw parses and validates a raw score expression in one step.
func ValidateRaw(raw string) (*Result, error) {
	sets, tiebreak, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	return Validate(sets, tiebreak)
}

// setWinner reports which side won a regular set. A set is won by reaching
// 6 games with the opponent at 4 or fewer, or 7 games against 5 or 6.
func setWinner(set SetScore) (Side, bool) {
	switch {
	case set.Home == 6 && set.Away <= 4,
		set.Home == 7 && (set.Away == 5 || set.Away == 6):
		return SideHome, true
	case set.Away == 6 && set.Home <= 4,
		set.Away == 7 && (set.Home == 5 || set.Home == 6):
		return SideAway, true
	}
	return "", false
}

// tiebreakWinner reports which side won a super tie-break: first to 10 or
// more points with a margin of at least 2.
func tiebreakWinner(tb SetScore) (Side, error) {
	switch {
	case tb.Home >= 10 && tb.Home-tb.Away >= 2:
		return SideHome, nil
	case tb.Away >= 10 && tb.Away-tb.Home >= 2:
		return SideAway, nil
	case tb.Home < 10 && tb.Away < 10:
		return "", fmt.Errorf("%w: %d-%d", ErrIncompleteTiebreak, tb.Home, tb.Away)
	default:
		return "", fmt.Errorf("%w: %d-%d", ErrInvalidTiebreakMargin, tb.Home, tb.Away)
	}
}

func serialize(sets [2]SetScore, tiebreak *SetScore) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d-%d,%d-%d", sets[0].Home, sets[0].Away, sets[1].Home, sets[1].Away)
	if tiebreak != nil {
		fmt.Fprintf(&b, ",%d-%d", tiebreak.Home, tiebreak.Away)
	}
	return b.String()
}
