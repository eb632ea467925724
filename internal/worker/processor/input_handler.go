package processor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cgiad/internal/assets"
	"cgiad/internal/models"
	"cgiad/internal/pkg/errors"
)

type InputHandler struct {
	assets  *assets.Store
	workDir string
}

func NewInputHandler(store *assets.Store, workDir string) *InputHandler {
	return &InputHandler{assets: store, workDir: workDir}
}

// Materialize returns a local path for the asset. Local providers hand out the
// stored file itself; anything else is downloaded into the run's inputs dir.
func (ih *InputHandler) Materialize(ctx context.Context, runID string, asset models.Asset) (string, error) {
	if p, ok := ih.assets.LocalPath(asset.Filename); ok {
		return p, nil
	}

	baseDir := filepath.Join(ih.workDir, "jobs", runID, "inputs")
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return "", errors.Storage("processor.inputs", fmt.Errorf("create inputs directory: %w", err))
	}

	rc, _, err := ih.assets.Open(ctx, asset.Filename)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	localPath, err := ih.saveToLocal(baseDir, asset.Filename, rc)
	if err != nil {
		return "", errors.Storage("processor.inputs", fmt.Errorf("save input %s locally: %w", asset.Filename, err))
	}
	return localPath, nil
}

func (ih *InputHandler) saveToLocal(baseDir, filename string, rc io.Reader) (string, error) {
	localPath := filepath.Join(baseDir, SanitizeFilename(filename))

	f, err := os.Create(localPath)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, rc); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return localPath, nil
}
