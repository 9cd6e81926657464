package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/padelpoint/tournament-service/models"
	"github.com/padelpoint/tournament-service/repositories"
)

var ErrCourtNameRequired = errors.New("court name is required")

type CourtService interface {
	CreateCourt(ctx context.Context, name string) (*models.Court, error)
	ListCourts(ctx context.Context) ([]*models.Court, error)
}

type courtService struct {
	courtRepo repositories.CourtRepository
}

func NewCourtService(courtRepo repositories.CourtRepository) CourtService {
	return &courtService{courtRepo: courtRepo}
}

func (s *courtService) CreateCourt(ctx context.Context, name string) (*models.Court, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrCourtNameRequired
	}
	court := &models.Court{Name: name}
	if err := s.courtRepo.Create(ctx, court); err != nil {
		if errors.Is(err, repositories.ErrCourtNameConflict) {
			return nil, ErrCourtNameConflict
		}
		return nil, fmt.Errorf("failed to create court: %w", err)
	}
	return court, nil
}

func (s *courtService) ListCourts(ctx context.Context) ([]*models.Court, error) {
	var courts []*models.Court
	err := retryRead(ctx, func() error {
		var readErr error
		courts, readErr = s.courtRepo.List(ctx)
		return readErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list courts: %w", err)
	}
	return courts, nil
}
