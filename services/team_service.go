package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/padelpoint/tournament-service/models"
	"github.com/padelpoint/tournament-service/repositories"
)

type RegisterTeamInput struct {
	Player1Name string  `json:"player1_name"`
	Player2Name string  `json:"player2_name"`
	Name        *string `json:"name"`
	Seed        *int    `json:"seed"`
}

// TeamService is the registration subsystem backing the draw's roster.
type TeamService interface {
	RegisterTeam(ctx context.Context, tournamentID int, input RegisterTeamInput) (*models.Team, error)
	RegisterTeams(ctx context.Context, tournamentID int, inputs []RegisterTeamInput) ([]*models.Team, error)
	ListRoster(ctx context.Context, tournamentID int) ([]*models.Team, error)
}

type teamService struct {
	txRunner       repositories.TxRunner
	teamRepo       repositories.TeamRepository
	tournamentRepo repositories.TournamentRepository
	matchRepo      repositories.MatchRepository
}

func NewTeamService(
	txRunner repositories.TxRunner,
	teamRepo repositories.TeamRepository,
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
) TeamService {
	return &teamService{
		txRunner:       txRunner,
		teamRepo:       teamRepo,
		tournamentRepo: tournamentRepo,
		matchRepo:      matchRepo,
	}
}

func (s *teamService) RegisterTeam(ctx context.Context, tournamentID int, input RegisterTeamInput) (*models.Team, error) {
	teams, err := s.RegisterTeams(ctx, tournamentID, []RegisterTeamInput{input})
	if err != nil {
		return nil, err
	}
	return teams[0], nil
}

// RegisterTeams registers one or more doubles pairs atomically: either the
// whole batch joins the roster or none of it does.
func (s *teamService) RegisterTeams(ctx context.Context, tournamentID int, inputs []RegisterTeamInput) ([]*models.Team, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: no teams in request", ErrValidationFailed)
	}

	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
	}

	// The roster is frozen from the moment a draw exists: matches reference
	// team ids and a late entry could never be placed.
	existing, err := s.matchRepo.CountByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check draw state for tournament %d: %w", tournamentID, err)
	}
	if existing > 0 {
		return nil, ErrRegistrationClosed
	}

	teams := make([]*models.Team, 0, len(inputs))
	for _, input := range inputs {
		p1 := strings.TrimSpace(input.Player1Name)
		p2 := strings.TrimSpace(input.Player2Name)
		if p1 == "" || p2 == "" {
			return nil, ErrPlayerNamesRequired
		}
		teams = append(teams, &models.Team{
			TournamentID: tournamentID,
			Name:         input.Name,
			Seed:         input.Seed,
			Player1:      &models.Player{Name: p1},
			Player2:      &models.Player{Name: p2},
		})
	}

	err = s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		for _, team := range teams {
			if txErr := s.teamRepo.Create(ctx, exec, team); txErr != nil {
				return txErr
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register teams for tournament %d: %w", tournamentID, err)
	}
	return teams, nil
}

func (s *teamService) ListRoster(ctx context.Context, tournamentID int) ([]*models.Team, error) {
	var teams []*models.Team
	err := retryRead(ctx, func() error {
		var readErr error
		teams, readErr = s.teamRepo.ListByTournament(ctx, tournamentID)
		return readErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list roster for tournament %d: %w", tournamentID, err)
	}
	return teams, nil
}
