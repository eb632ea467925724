package processor

import (
	"os"
	"path/filepath"

	"cgiad/internal/pkg/logger"
)

type Cleanup struct {
	workDir string
	log     *logger.Logger
}

func NewCleanup(workDir string, log *logger.Logger) *Cleanup {
	return &Cleanup{workDir: workDir, log: log}
}

// CleanupRun removes the run's scratch directory, if one was created.
func (c *Cleanup) CleanupRun(runID string) {
	if c.workDir == "" || runID == "" {
		return
	}
	dir := filepath.Join(c.workDir, "jobs", SanitizeFilename(runID))
	if err := os.RemoveAll(dir); err != nil {
		c.log.Warn("cleanup failed", "dir", dir, "error", err.Error())
	}
}
