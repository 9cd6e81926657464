package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/padelpoint/tournament-service/models"
)

var (
	ErrMatchNotFound          = errors.New("match not found")
	ErrMatchVersionConflict   = errors.New("match was modified concurrently")
	ErrMatchTournamentInvalid = errors.New("match references an unknown tournament")
	ErrMatchTeamInvalid       = errors.New("match references an unknown team")
	ErrMatchCourtInvalid      = errors.New("match references an unknown court")
)

type MatchRepository interface {
	CreateAll(ctx context.Context, exec SQLExecutor, matches []*models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	GetByRoundSlot(ctx context.Context, exec SQLExecutor, tournamentID, round, slot int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error)
	CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
	// Update writes every mutable column guarded by an optimistic version
	// check; a concurrent writer surfaces as ErrMatchVersionConflict.
	Update(ctx context.Context, exec SQLExecutor, match *models.Match) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) executor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `id, tournament_id, round, slot, home_team_id, away_team_id, status, score, winner_team_id, court_id, scheduled_at, version, created_at`

func (r *postgresMatchRepository) CreateAll(ctx context.Context, exec SQLExecutor, matches []*models.Match) error {
	query := `
		INSERT INTO matches
			(tournament_id, round, slot, home_team_id, away_team_id, status, score, winner_team_id, court_id, scheduled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, version, created_at`

	e := r.executor(exec)
	for _, match := range matches {
		err := e.QueryRowContext(ctx, query,
			match.TournamentID,
			match.Round,
			match.Slot,
			match.HomeTeamID,
			match.AwayTeamID,
			match.Status,
			match.Score,
			match.WinnerTeamID,
			match.CourtID,
			match.ScheduledAt,
		).Scan(&match.ID, &match.Version, &match.CreatedAt)
		if err != nil {
			return r.handleMatchError(err)
		}
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) GetByRoundSlot(ctx context.Context, exec SQLExecutor, tournamentID, round, slot int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1 AND round = $2 AND slot = $3`
	return r.scanOne(r.executor(exec).QueryRowContext(ctx, query, tournamentID, round, slot))
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1 ORDER BY round ASC, slot ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		match, scanErr := r.scanRow(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, match)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *postgresMatchRepository) CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	var count int
	err := r.executor(exec).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM matches WHERE tournament_id = $1`, tournamentID,
	).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *postgresMatchRepository) Update(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		UPDATE matches
		SET home_team_id = $1, away_team_id = $2, status = $3, score = $4,
			winner_team_id = $5, court_id = $6, scheduled_at = $7, version = version + 1
		WHERE id = $8 AND version = $9`

	e := r.executor(exec)
	result, err := e.ExecContext(ctx, query,
		match.HomeTeamID,
		match.AwayTeamID,
		match.Status,
		match.Score,
		match.WinnerTeamID,
		match.CourtID,
		match.ScheduledAt,
		match.ID,
		match.Version,
	)
	if err != nil {
		return r.handleMatchError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		// Distinguish a missing row from a lost optimistic race.
		var exists bool
		if checkErr := e.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM matches WHERE id = $1)`, match.ID,
		).Scan(&exists); checkErr != nil {
			return checkErr
		}
		if exists {
			return ErrMatchVersionConflict
		}
		return ErrMatchNotFound
	}

	match.Version++
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *postgresMatchRepository) scanOne(row *sql.Row) (*models.Match, error) {
	match, err := r.scanRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

func (r *postgresMatchRepository) scanRow(row rowScanner) (*models.Match, error) {
	match := &models.Match{}
	err := row.Scan(
		&match.ID,
		&match.TournamentID,
		&match.Round,
		&match.Slot,
		&match.HomeTeamID,
		&match.AwayTeamID,
		&match.Status,
		&match.Score,
		&match.WinnerTeamID,
		&match.CourtID,
		&match.ScheduledAt,
		&match.Version,
		&match.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return match, nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" { // foreign_key_violation
		switch pqErr.Constraint {
		case "matches_tournament_id_fkey":
			return ErrMatchTournamentInvalid
		case "matches_home_team_id_fkey", "matches_away_team_id_fkey", "matches_winner_team_id_fkey":
			return ErrMatchTeamInvalid
		case "matches_court_id_fkey":
			return ErrMatchCourtInvalid
		}
	}
	return err
}
