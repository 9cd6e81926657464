package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/padelpoint/tournament-service/brackets"
	"github.com/padelpoint/tournament-service/models"
	"github.com/padelpoint/tournament-service/repositories"
	"github.com/padelpoint/tournament-service/scoring"
	"golang.org/x/sync/errgroup"
)

// Broadcaster pushes draw events to spectators; the websocket hub satisfies
// it. A nil broadcaster disables pushes (tests, preview tooling).
type Broadcaster interface {
	BroadcastToRoom(roomID string, message interface{})
}

type ScheduleMatchInput struct {
	CourtID     int       `json:"court_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

// DrawService orchestrates bracket generation and match progression against
// the persisted roster. Draw creation and score submission each run as one
// transaction; per-match optimistic versioning serializes racing writers.
type DrawService interface {
	CreateDraw(ctx context.Context, tournamentID int) (*models.Draw, error)
	PreviewDraw(ctx context.Context, tournamentID int) (*models.Draw, error)
	GetDraw(ctx context.Context, tournamentID int) (*models.Draw, error)
	ScheduleMatch(ctx context.Context, matchID int, input ScheduleMatchInput) (*models.Match, error)
	SubmitScore(ctx context.Context, matchID int, rawScore string) (*models.Match, error)
	CorrectScore(ctx context.Context, matchID int, rawScore string) (*models.Match, error)
	GetMatchDetails(ctx context.Context, matchID int) (*models.Match, error)
	ListMatches(ctx context.Context, tournamentID int) ([]*models.Match, error)
}

type drawService struct {
	txRunner       repositories.TxRunner
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	matchRepo      repositories.MatchRepository
	courtRepo      repositories.CourtRepository
	generator      brackets.DrawGenerator
	hub            Broadcaster
	logger         *slog.Logger
}

func NewDrawService(
	txRunner repositories.TxRunner,
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	courtRepo repositories.CourtRepository,
	generator brackets.DrawGenerator,
	hub Broadcaster,
	logger *slog.Logger,
) DrawService {
	if logger == nil {
		logger = slog.Default()
	}
	return &drawService{
		txRunner:       txRunner,
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		matchRepo:      matchRepo,
		courtRepo:      courtRepo,
		generator:      generator,
		hub:            hub,
		logger:         logger,
	}
}

func (s *drawService) CreateDraw(ctx context.Context, tournamentID int) (*models.Draw, error) {
	matches, err := s.generateDraw(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	// The existence check runs inside the same transaction as the insert,
	// behind a lock on the tournament row: two racing CreateDraw calls
	// serialize there, and the loser sees the winner's matches.
	err = s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		if txErr := s.tournamentRepo.LockByID(ctx, exec, tournamentID); txErr != nil {
			return txErr
		}
		existing, txErr := s.matchRepo.CountByTournament(ctx, exec, tournamentID)
		if txErr != nil {
			return txErr
		}
		if existing > 0 {
			return ErrDrawAlreadyExists
		}
		return s.matchRepo.CreateAll(ctx, exec, matches)
	})
	if err != nil {
		if errors.Is(err, ErrDrawAlreadyExists) {
			return nil, ErrDrawAlreadyExists
		}
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to persist draw for tournament %d: %w", tournamentID, err)
	}

	s.logger.Info("draw created",
		slog.Int("tournament_id", tournamentID),
		slog.Int("matches", len(matches)))

	draw := models.GroupRounds(tournamentID, matches)
	s.broadcast(tournamentID, brackets.EventDrawCreated, draw)
	return draw, nil
}

// PreviewDraw runs the exact computation of CreateDraw without persisting,
// so organizers can inspect the bracket before committing.
func (s *drawService) PreviewDraw(ctx context.Context, tournamentID int) (*models.Draw, error) {
	matches, err := s.generateDraw(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	return models.GroupRounds(tournamentID, matches), nil
}

func (s *drawService) generateDraw(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	var tournament *models.Tournament
	err := retryRead(ctx, func() error {
		var readErr error
		tournament, readErr = s.tournamentRepo.GetByID(ctx, tournamentID)
		return readErr
	})
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
	}

	var teams []*models.Team
	err = retryRead(ctx, func() error {
		var readErr error
		teams, readErr = s.teamRepo.ListByTournament(ctx, tournament.ID)
		return readErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load roster for tournament %d: %w", tournamentID, err)
	}

	matches, err := s.generator.GenerateDraw(ctx, brackets.GenerateDrawParams{
		TournamentID: tournament.ID,
		Teams:        teams,
	})
	if err != nil {
		if errors.Is(err, brackets.ErrInsufficientTeams) || errors.Is(err, brackets.ErrDuplicateTeamEntry) {
			return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
		}
		return nil, fmt.Errorf("draw generation failed for tournament %d: %w", tournamentID, err)
	}
	return matches, nil
}

func (s *drawService) GetDraw(ctx context.Context, tournamentID int) (*models.Draw, error) {
	var (
		matches []*models.Match
		teams   []*models.Team
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		matches, err = s.matchRepo.ListByTournament(gCtx, tournamentID)
		return err
	})
	g.Go(func() error {
		var err error
		teams, err = s.teamRepo.ListByTournament(gCtx, tournamentID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load draw for tournament %d: %w", tournamentID, err)
	}

	if len(matches) == 0 {
		return nil, ErrDrawNotFound
	}

	attachTeams(matches, teams)
	return models.GroupRounds(tournamentID, matches), nil
}

func (s *drawService) ScheduleMatch(ctx context.Context, matchID int, input ScheduleMatchInput) (*models.Match, error) {
	if input.CourtID <= 0 || input.ScheduledAt.IsZero() {
		return nil, ErrInvalidSchedule
	}

	if _, err := s.courtRepo.GetByID(ctx, input.CourtID); err != nil {
		if errors.Is(err, repositories.ErrCourtNotFound) {
			return nil, ErrCourtNotFound
		}
		return nil, fmt.Errorf("failed to load court %d: %w", input.CourtID, err)
	}

	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	if err := match.Schedule(input.CourtID, input.ScheduledAt); err != nil {
		if errors.Is(err, models.ErrScheduleIncomplete) {
			return nil, ErrInvalidSchedule
		}
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	if err := s.updateMatch(ctx, nil, match); err != nil {
		return nil, err
	}

	s.broadcast(match.TournamentID, brackets.EventMatchUpdated, match)
	return match, nil
}

// SubmitScore validates the raw score, completes the match and propagates the
// winner into its next-round slot in one transaction. Re-submitting the same
// accepted score is a no-op.
func (s *drawService) SubmitScore(ctx context.Context, matchID int, rawScore string) (*models.Match, error) {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.IsBye() {
		return nil, ErrByeMatchImmutable
	}

	result, err := scoring.ValidateRaw(rawScore)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	winnerID, err := winnerTeamID(match, result.Winner)
	if err != nil {
		return nil, err
	}

	if match.Status == models.MatchStatusCompleted {
		if match.Score != nil && *match.Score == result.Canonical {
			// Idempotent re-submission: advancement already happened.
			return match, nil
		}
		return nil, ErrMatchAlreadyCompleted
	}

	if err := match.Complete(result.Canonical, winnerID); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	err = s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		if txErr := s.matchRepo.Update(ctx, exec, match); txErr != nil {
			return txErr
		}
		return s.propagateWinner(ctx, exec, match, winnerID)
	})
	if err != nil {
		return nil, s.mapWriteError(err, matchID)
	}

	s.logger.Info("score accepted",
		slog.Int("match_id", match.ID),
		slog.Int("tournament_id", match.TournamentID),
		slog.String("score", result.Canonical),
		slog.Int("winner_team_id", winnerID))

	s.broadcast(match.TournamentID, brackets.EventMatchUpdated, match)
	return match, nil
}

// CorrectScore re-validates a completed match's score. A correction that
// flips the winner is rejected once the next-round match has itself produced
// a result; otherwise the downstream slot is rewritten in the same
// transaction.
func (s *drawService) CorrectScore(ctx context.Context, matchID int, rawScore string) (*models.Match, error) {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.IsBye() {
		return nil, ErrByeMatchImmutable
	}
	if match.Status != models.MatchStatusCompleted || match.WinnerTeamID == nil {
		return nil, ErrNoScoreToCorrect
	}

	result, err := scoring.ValidateRaw(rawScore)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	newWinnerID, err := winnerTeamID(match, result.Winner)
	if err != nil {
		return nil, err
	}
	oldWinnerID := *match.WinnerTeamID

	if err := match.AmendResult(result.Canonical, newWinnerID); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	err = s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		if newWinnerID != oldWinnerID {
			if txErr := s.replaceDownstreamWinner(ctx, exec, match, oldWinnerID, newWinnerID); txErr != nil {
				return txErr
			}
		}
		return s.matchRepo.Update(ctx, exec, match)
	})
	if err != nil {
		return nil, s.mapWriteError(err, matchID)
	}

	s.logger.Info("score corrected",
		slog.Int("match_id", match.ID),
		slog.Int("tournament_id", match.TournamentID),
		slog.String("score", result.Canonical),
		slog.Bool("winner_changed", newWinnerID != oldWinnerID))

	s.broadcast(match.TournamentID, brackets.EventMatchUpdated, match)
	return match, nil
}

func (s *drawService) GetMatchDetails(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	teams, err := s.teamRepo.ListByTournament(ctx, match.TournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load teams for match %d: %w", matchID, err)
	}
	attachTeams([]*models.Match{match}, teams)

	if match.CourtID != nil {
		if court, courtErr := s.courtRepo.GetByID(ctx, *match.CourtID); courtErr == nil {
			match.Court = court
		}
	}
	return match, nil
}

func (s *drawService) ListMatches(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for tournament %d: %w", tournamentID, err)
	}
	return matches, nil
}

// propagateWinner writes the winner into the next-round slot. If the slot's
// sibling feeder does not exist (omitted during generation), the next match
// resolves as a bye and the winner keeps advancing.
func (s *drawService) propagateWinner(ctx context.Context, exec repositories.SQLExecutor, match *models.Match, winnerID int) error {
	current := match
	for {
		nextRound, nextSlot, home := models.AdvancementTarget(current.Round, current.Slot)
		next, err := s.matchRepo.GetByRoundSlot(ctx, exec, current.TournamentID, nextRound, nextSlot)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				// Final match completed: nothing downstream.
				return nil
			}
			return err
		}

		side := next.AwayTeamID
		if home {
			side = next.HomeTeamID
		}
		if side != nil && *side == winnerID {
			// Already propagated (idempotent re-application).
			return nil
		}

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
		_, siblingErr := s.matchRepo.GetByRoundSlot(ctx, exec, current.TournamentID, current.Round, siblingSlot)
		if errors.Is(siblingErr, repositories.ErrMatchNotFound) {
			// No sibling feeder: the next match auto-completes as a bye.
			w := winnerID
			next.Status = models.MatchStatusBye
			next.WinnerTeamID = &w
			if err := s.matchRepo.Update(ctx, exec, next); err != nil {
				return err
			}
			current = next
			continue
		}
		if siblingErr != nil {
			return siblingErr
		}
		return s.matchRepo.Update(ctx, exec, next)
	}
}

// replaceDownstreamWinner swaps the corrected winner into the next-round
// match, refusing when that match has already produced a result.
func (s *drawService) replaceDownstreamWinner(ctx context.Context, exec repositories.SQLExecutor, match *models.Match, oldWinnerID, newWinnerID int) error {
	nextRound, nextSlot, home := models.AdvancementTarget(match.Round, match.Slot)
	next, err := s.matchRepo.GetByRoundSlot(ctx, exec, match.TournamentID, nextRound, nextSlot)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil
		}
		return err
	}

	if next.Terminal() {
		return ErrDownstreamAlreadyPlayed
	}

	id := newWinnerID
	if home {
		if next.HomeTeamID == nil || *next.HomeTeamID != oldWinnerID {
			return fmt.Errorf("downstream slot out of sync for match %d", match.ID)
		}
		next.HomeTeamID = &id
	} else {
		if next.AwayTeamID == nil || *next.AwayTeamID != oldWinnerID {
			return fmt.Errorf("downstream slot out of sync for match %d", match.ID)
		}
		next.AwayTeamID = &id
	}
	return s.matchRepo.Update(ctx, exec, next)
}

func (s *drawService) getMatch(ctx context.Context, matchID int) (*models.Match, error) {
	var match *models.Match
	err := retryRead(ctx, func() error {
		var readErr error
		match, readErr = s.matchRepo.GetByID(ctx, matchID)
		return readErr
	})
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load match %d: %w", matchID, err)
	}
	return match, nil
}

func (s *drawService) updateMatch(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	if err := s.matchRepo.Update(ctx, exec, match); err != nil {
		return s.mapWriteError(err, match.ID)
	}
	return nil
}

func (s *drawService) mapWriteError(err error, matchID int) error {
	switch {
	case errors.Is(err, repositories.ErrMatchVersionConflict):
		return ErrConcurrentModification
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, ErrDownstreamAlreadyPlayed):
		return ErrDownstreamAlreadyPlayed
	default:
		return fmt.Errorf("failed to update match %d: %w", matchID, err)
	}
}

func (s *drawService) broadcast(tournamentID int, eventType string, payload interface{}) {
	if s.hub == nil {
		return
	}
	room := strconv.Itoa(tournamentID)
	s.hub.BroadcastToRoom(room, brackets.Event{
		Type:    eventType,
		Payload: payload,
		RoomID:  room,
	})
}

func winnerTeamID(match *models.Match, side scoring.Side) (int, error) {
	if match.HomeTeamID == nil || match.AwayTeamID == nil {
		return 0, ErrMatchNotYetDecidable
	}
	if side == scoring.SideHome {
		return *match.HomeTeamID, nil
	}
	return *match.AwayTeamID, nil
}

func attachTeams(matches []*models.Match, teams []*models.Team) {
	byID := make(map[int]*models.Team, len(teams))
	for _, t := range teams {
		byID[t.ID] = t
	}
	for _, m := range matches {
		if m.HomeTeamID != nil {
			m.HomeTeam = byID[*m.HomeTeamID]
		}
		if m.AwayTeamID != nil {
			m.AwayTeam = byID[*m.AwayTeamID]
		}
	}
}
