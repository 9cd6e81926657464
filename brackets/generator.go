package brackets

import (
	"context"

	"github.com/padelpoint/tournament-service/models"
)

type GenerateDrawParams struct {
	TournamentID int
	Teams        []*models.Team
}

// DrawGenerator turns a registered roster into a fully wired list of matches,
// ready for the orchestrator to persist in one transaction.
type DrawGenerator interface {
	GenerateDraw(ctx context.Context, params GenerateDrawParams) ([]*models.Match, error)

	Name() string
}
