package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/padelpoint/tournament-service/models"
)

var (
	ErrTeamNotFound          = errors.New("team not found")
	ErrTeamTournamentInvalid = errors.New("team references an unknown tournament")
)

type TeamRepository interface {
	// Create inserts both players and the team row; callers wanting the
	// registration atomic pass a transaction executor.
	Create(ctx context.Context, exec SQLExecutor, team *models.Team) error
	GetByID(ctx context.Context, id int) (*models.Team, error)
	// ListByTournament returns the roster in registration order, player
	// details included.
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Team, error)
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) executor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTeamRepository) Create(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	e := r.executor(exec)

	playerQuery := `INSERT INTO players (name) VALUES ($1) RETURNING id`
	if team.Player1 == nil || team.Player2 == nil {
		return errors.New("both players are required to create a team")
	}
	if err := e.QueryRowContext(ctx, playerQuery, team.Player1.Name).Scan(&team.Player1.ID); err != nil {
		return err
	}
	if err := e.QueryRowContext(ctx, playerQuery, team.Player2.Name).Scan(&team.Player2.ID); err != nil {
		return err
	}
	team.Player1ID = team.Player1.ID
	team.Player2ID = team.Player2.ID

	teamQuery := `
		INSERT INTO teams (tournament_id, name, player1_id, player2_id, seed)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	err := e.QueryRowContext(ctx, teamQuery,
		team.TournamentID,
		team.Name,
		team.Player1ID,
		team.Player2ID,
		team.Seed,
	).Scan(&team.ID, &team.CreatedAt)
	return r.handleTeamError(err)
}

const teamColumns = `
	t.id, t.tournament_id, t.name, t.player1_id, t.player2_id, t.seed, t.created_at,
	p1.id, p1.name, p2.id, p2.name`

const teamJoins = `
	FROM teams t
	JOIN players p1 ON p1.id = t.player1_id
	JOIN players p2 ON p2.id = t.player2_id`

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := `SELECT` + teamColumns + teamJoins + ` WHERE t.id = $1`

	team, err := scanTeam(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return team, nil
}

func (r *postgresTeamRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Team, error) {
	query := `SELECT` + teamColumns + teamJoins + `
	WHERE t.tournament_id = $1
	ORDER BY t.created_at ASC, t.id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		team, scanErr := scanTeam(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		teams = append(teams, team)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return teams, nil
}

func scanTeam(row rowScanner) (*models.Team, error) {
	team := &models.Team{Player1: &models.Player{}, Player2: &models.Player{}}
	err := row.Scan(
		&team.ID,
		&team.TournamentID,
		&team.Name,
		&team.Player1ID,
		&team.Player2ID,
		&team.Seed,
		&team.CreatedAt,
		&team.Player1.ID,
		&team.Player1.Name,
		&team.Player2.ID,
		&team.Player2.Name,
	)
	if err != nil {
		return nil, err
	}
	return team, nil
}

func (r *postgresTeamRepository) handleTeamError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" {
		if pqErr.Constraint == "teams_tournament_id_fkey" {
			return ErrTeamTournamentInvalid
		}
	}
	return err
}
