package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/padelpoint/tournament-service/models"
	"github.com/padelpoint/tournament-service/repositories"
	"github.com/padelpoint/tournament-service/storage"
)

type CreateTournamentInput struct {
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
}

type ListTournamentsFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Status    *models.TournamentStatus
	Limit     int
	Offset    int
}

type TournamentService interface {
	CreateTournament(ctx context.Context, organizerID int, input CreateTournamentInput) (*models.Tournament, error)
	GetTournamentByID(ctx context.Context, id int) (*models.Tournament, error)
	ListTournaments(ctx context.Context, filter ListTournamentsFilter) ([]*models.Tournament, error)
	UploadPoster(ctx context.Context, id int, contentType string, reader io.Reader) (*models.Tournament, error)
	UpdateTournamentStatus(ctx context.Context, id int, status models.TournamentStatus) (*models.Tournament, error)
	// ActivateStartedTournaments is run periodically to move tournaments into
	// the active status once their start date passes.
	ActivateStartedTournaments(ctx context.Context) error
}

type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	uploader       storage.FileUploader
	logger         *slog.Logger
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) TournamentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &tournamentService{
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		uploader:       uploader,
		logger:         logger,
	}
}

func (s *tournamentService) CreateTournament(ctx context.Context, organizerID int, input CreateTournamentInput) (*models.Tournament, error) {
	if input.Name == "" {
		return nil, ErrTournamentNameRequired
	}
	if input.StartDate.IsZero() || input.EndDate.IsZero() || !input.EndDate.After(input.StartDate) {
		return nil, ErrTournamentInvalidDates
	}

	tournament := &models.Tournament{
		Name:        input.Name,
		Description: input.Description,
		OrganizerID: organizerID,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		Status:      models.TournamentStatusRegistration,
	}
	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentNameConflict) {
			return nil, ErrTournamentNameConflict
		}
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	return tournament, nil
}

func (s *tournamentService) GetTournamentByID(ctx context.Context, id int) (*models.Tournament, error) {
	var tournament *models.Tournament
	err := retryRead(ctx, func() error {
		var readErr error
		tournament, readErr = s.tournamentRepo.GetByID(ctx, id)
		return readErr
	})
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", id, err)
	}

	teams, err := s.teamRepo.ListByTournament(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster for tournament %d: %w", id, err)
	}
	tournament.Teams = make([]models.Team, 0, len(teams))
	for _, t := range teams {
		tournament.Teams = append(tournament.Teams, *t)
	}

	s.fillPosterURL(tournament)
	return tournament, nil
}

func (s *tournamentService) ListTournaments(ctx context.Context, filter ListTournamentsFilter) ([]*models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx, repositories.ListTournamentsFilter{
		StartDate: filter.StartDate,
		EndDate:   filter.EndDate,
		Status:    filter.Status,
		Limit:     filter.Limit,
		Offset:    filter.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	for _, t := range tournaments {
		s.fillPosterURL(t)
	}
	return tournaments, nil
}

func (s *tournamentService) UploadPoster(ctx context.Context, id int, contentType string, reader io.Reader) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", id, err)
	}

	result, err := s.uploader.Upload(ctx, storage.PosterKey(id), contentType, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to upload poster for tournament %d: %w", id, err)
	}

	if err := s.tournamentRepo.UpdatePosterKey(ctx, id, &result.Key); err != nil {
		// The upload is orphaned if this write fails; surface the failure, a
		// re-upload overwrites the same key.
		return nil, fmt.Errorf("failed to store poster key for tournament %d: %w", id, err)
	}

	tournament.PosterKey = &result.Key
	s.fillPosterURL(tournament)
	return tournament, nil
}

func (s *tournamentService) UpdateTournamentStatus(ctx context.Context, id int, status models.TournamentStatus) (*models.Tournament, error) {
	switch status {
	case models.TournamentStatusSoon,
		models.TournamentStatusRegistration,
		models.TournamentStatusActive,
		models.TournamentStatusCompleted,
		models.TournamentStatusCanceled:
	default:
		return nil, fmt.Errorf("%w: unknown tournament status %q", ErrValidationFailed, status)
	}

	if err := s.tournamentRepo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to update status for tournament %d: %w", id, err)
	}
	return s.GetTournamentByID(ctx, id)
}

func (s *tournamentService) ActivateStartedTournaments(ctx context.Context) error {
	updated, err := s.tournamentRepo.ActivateStartedByDate(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("failed to activate started tournaments: %w", err)
	}
	if updated > 0 {
		s.logger.Info("tournaments activated by start date", slog.Int64("count", updated))
	}
	return nil
}

func (s *tournamentService) fillPosterURL(t *models.Tournament) {
	if t.PosterKey == nil || s.uploader == nil {
		return
	}
	url := s.uploader.GetPublicURL(*t.PosterKey)
	if url != "" {
		t.PosterURL = &url
	}
}
