package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/padelpoint/tournament-service/models"
)

var (
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrTournamentNameConflict = errors.New("tournament name already exists")
)

type ListTournamentsFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Status    *models.TournamentStatus
	Limit     int
	Offset    int
}

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]*models.Tournament, error)
	// LockByID takes a row lock on the tournament for the duration of the
	// surrounding transaction, serializing writers that must observe a
	// consistent view of the tournament's matches.
	LockByID(ctx context.Context, exec SQLExecutor, id int) error
	UpdatePosterKey(ctx context.Context, id int, posterKey *string) error
	UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) error
	// ActivateStartedByDate flips "soon"/"registration" tournaments to active
	// once their start date passes; used by the status sweeper.
	ActivateStartedByDate(ctx context.Context, now time.Time) (int64, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

const tournamentColumns = `id, name, description, organizer_id, start_date, end_date, status, poster_key, created_at`

func (r *postgresTournamentRepository) Create(ctx context.Context, tournament *models.Tournament) error {
	query := `
		INSERT INTO tournaments (name, description, organizer_id, start_date, end_date, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		tournament.Name,
		tournament.Description,
		tournament.OrganizerID,
		tournament.StartDate,
		tournament.EndDate,
		tournament.Status,
	).Scan(&tournament.ID, &tournament.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
		return ErrTournamentNameConflict
	}
	return err
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`

	tournament, err := scanTournament(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return tournament, nil
}

func (r *postgresTournamentRepository) LockByID(ctx context.Context, exec SQLExecutor, id int) error {
	e := SQLExecutor(r.db)
	if exec != nil {
		e = exec
	}
	var locked int
	err := e.QueryRowContext(ctx,
		`SELECT id FROM tournaments WHERE id = $1 FOR UPDATE`, id,
	).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTournamentNotFound
	}
	return err
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]*models.Tournament, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + tournamentColumns + ` FROM tournaments WHERE 1=1`)

	args := []interface{}{}
	placeholder := 1
	appendArg := func(clause string, value interface{}) {
		queryBuilder.WriteString(clause)
		queryBuilder.WriteString(strconv.Itoa(placeholder))
		args = append(args, value)
		placeholder++
	}

	if filter.StartDate != nil {
		appendArg(" AND start_date >= $", *filter.StartDate)
	}
	if filter.EndDate != nil {
		appendArg(" AND end_date <= $", *filter.EndDate)
	}
	if filter.Status != nil {
		appendArg(" AND status = $", *filter.Status)
	}

	queryBuilder.WriteString(" ORDER BY start_date ASC, id ASC")
	if filter.Limit > 0 {
		appendArg(" LIMIT $", filter.Limit)
	}
	if filter.Offset > 0 {
		appendArg(" OFFSET $", filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		tournament, scanErr := scanTournament(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, tournament)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) UpdatePosterKey(ctx context.Context, id int, posterKey *string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tournaments SET poster_key = $1 WHERE id = $2`, posterKey, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tournaments SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) ActivateStartedByDate(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE tournaments
		SET status = $1
		WHERE status IN ($2, $3) AND start_date <= $4`,
		models.TournamentStatusActive,
		models.TournamentStatusSoon,
		models.TournamentStatusRegistration,
		now,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanTournament(row rowScanner) (*models.Tournament, error) {
	tournament := &models.Tournament{}
	err := row.Scan(
		&tournament.ID,
		&tournament.Name,
		&tournament.Description,
		&tournament.OrganizerID,
		&tournament.StartDate,
		&tournament.EndDate,
		&tournament.Status,
		&tournament.PosterKey,
		&tournament.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return tournament, nil
}
