package services

import (
	"context"
	"errors"
	"time"

	"github.com/padelpoint/tournament-service/repositories"
)

const (
	readRetryAttempts = 3
	readRetryBaseWait = 100 * time.Millisecond
)

// retryRead retries an idempotent read a bounded number of times with
// exponential backoff. Writes are never retried here: a write that may or may
// not have applied must surface its failure to the caller instead.
func retryRead(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < readRetryAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if !isRetryableRead(err) {
			return err
		}
		if attempt == readRetryAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(readRetryBaseWait << uint(attempt)):
		}
	}
	return err
}

// isRetryableRead treats domain outcomes as final; only unknown dependency
// failures are worth another read.
func isRetryableRead(err error) bool {
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.Is(err, repositories.ErrTournamentNotFound),
		errors.Is(err, repositories.ErrMatchNotFound),
		errors.Is(err, repositories.ErrTeamNotFound),
		errors.Is(err, repositories.ErrCourtNotFound),
		errors.Is(err, repositories.ErrUserNotFound):
		return false
	}
	return true
}
