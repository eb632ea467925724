package processor

import (
	"context"

	"cgiad/internal/artifacts"
	"cgiad/internal/models"
	"cgiad/internal/pkg/logger"
)

type OutputHandler struct {
	log *logger.Logger
}

func NewOutputHandler(log *logger.Logger) *OutputHandler {
	return &OutputHandler{log: log}
}

// Commit publishes the reservation. On failure the spool is already gone and
// the id stays unused.
func (oh *OutputHandler) Commit(ctx context.Context, res *artifacts.Reservation) (models.Artifact, error) {
	oh.log.FromContext(ctx).Debug("committing artifact")
	return res.Commit(ctx)
}
