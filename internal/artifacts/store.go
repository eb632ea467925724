// Package artifacts keeps generated videos and the reservations that produce them.
package artifacts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"cgiad/internal/models"
	apperrors "cgiad/internal/pkg/errors"
	"cgiad/internal/pkg/ids"
	"cgiad/internal/ports"
)

const (
	MediaType = "video/mp4"

	downloadPrefix = "cgi-ad-"
	publicMount    = "/outputs/"
)

type Options struct {
	// WorkDir holds reservation spools until they are committed.
	WorkDir string
	// PublicBaseURL prefixes PublicURL; empty yields a root-relative URL.
	PublicBaseURL string
	// DisplayRoot prefixes Path (e.g. "outputs" for a localfs root).
	DisplayRoot string
}

type Store struct {
	provider ports.StorageProvider
	opts     Options
}

func New(provider ports.StorageProvider, opts Options) (*Store, error) {
	if opts.WorkDir == "" {
		opts.WorkDir = os.TempDir()
	}
	if err := os.MkdirAll(opts.WorkDir, 0o755); err != nil {
		return nil, fmt.Errorf("artifacts: ensure work dir: %w", err)
	}
	opts.PublicBaseURL = strings.TrimRight(opts.PublicBaseURL, "/")
	return &Store{provider: provider, opts: opts}, nil
}

// Reservation is a claimed artifact id plus a private spool. Nothing is
// visible under the final key until Commit returns successfully.
type Reservation struct {
	ID string

	store *Store
	spool *os.File
	done  bool
}

// Reserve claims a fresh id. The id is never handed out again, even when the
// reservation is aborted.
func (s *Store) Reserve(ctx context.Context) (*Reservation, error) {
	id := ids.NewToken()
	spool, err := os.CreateTemp(s.opts.WorkDir, "artifact-"+id+"-*")
	if err != nil {
		return nil, apperrors.Storage("artifacts.reserve", err).WithField("video_id", id)
	}
	return &Reservation{ID: id, store: s, spool: spool}, nil
}

func (r *Reservation) Write(p []byte) (int, error) {
	if r.done {
		return 0, errors.New("artifacts: write to closed reservation")
	}
	return r.spool.Write(p)
}

// Commit publishes the spooled bytes under "<id>.mp4".
func (r *Reservation) Commit(ctx context.Context) (models.Artifact, error) {
	if r.done {
		return models.Artifact{}, apperrors.Internalf("artifacts: reservation %s already closed", r.ID)
	}
	r.done = true
	defer r.discard()

	size, err := r.spool.Seek(0, io.SeekEnd)
	if err == nil {
		_, err = r.spool.Seek(0, io.SeekStart)
	}
	if err != nil {
		return models.Artifact{}, apperrors.Storage("artifacts.commit", err).WithField("video_id", r.ID)
	}

	a := models.Artifact{ID: r.ID, Size: size}
	_, err = r.store.provider.PutObject(ctx, ports.PutObjectInput{
		ObjectKey:   a.Filename(),
		ContentType: MediaType,
		Reader:      r.spool,
		Size:        size,
	})
	if err != nil {
		return models.Artifact{}, apperrors.Storage("artifacts.commit", err).WithField("video_id", r.ID)
	}
	return a, nil
}

// Abort drops the spool. Safe to call after Commit.
func (r *Reservation) Abort() {
	if r.done {
		return
	}
	r.done = true
	r.discard()
}

func (r *Reservation) discard() {
	name := r.spool.Name()
	_ = r.spool.Close()
	_ = os.Remove(name)
}

// Resolve confirms id names a committed artifact.
func (s *Store) Resolve(ctx context.Context, id string) (models.Artifact, error) {
	if !ids.IsToken(id) {
		return models.Artifact{}, apperrors.NotFound("video", id)
	}
	a := models.Artifact{ID: id}
	info, err := s.provider.StatObject(ctx, a.Filename())
	if err != nil {
		return models.Artifact{}, s.mapErr("artifacts.resolve", id, err)
	}
	a.Size = info.Size
	return a, nil
}

// ResolveFile resolves a "<id>.mp4" name as served under /outputs/.
func (s *Store) ResolveFile(ctx context.Context, filename string) (models.Artifact, error) {
	id, ok := strings.CutSuffix(filename, models.ArtifactExt)
	if !ok {
		return models.Artifact{}, apperrors.NotFound("video", filename)
	}
	return s.Resolve(ctx, id)
}

// Open streams a committed artifact.
func (s *Store) Open(ctx context.Context, id string) (io.ReadCloser, models.Artifact, error) {
	if !ids.IsToken(id) {
		return nil, models.Artifact{}, apperrors.NotFound("video", id)
	}
	a := models.Artifact{ID: id}
	rc, info, err := s.provider.GetObject(ctx, a.Filename())
	if err != nil {
		return nil, models.Artifact{}, s.mapErr("artifacts.open", id, err)
	}
	a.Size = info.Size
	return rc, a, nil
}

// PublicURL is deterministic in id and does not check existence.
func (s *Store) PublicURL(id string) string {
	return s.opts.PublicBaseURL + publicMount + id + models.ArtifactExt
}

// Path is the location reported as output_path.
func (s *Store) Path(id string) string {
	name := id + models.ArtifactExt
	if s.opts.DisplayRoot == "" {
		return name
	}
	return path.Join(s.opts.DisplayRoot, name)
}

// DownloadName is the filename suggested to clients fetching id.
func DownloadName(id string) string {
	return downloadPrefix + id + models.ArtifactExt
}

func (s *Store) Provider() string { return s.provider.Provider() }

func (s *Store) mapErr(op, id string, err error) error {
	if errors.Is(err, ports.ErrObjectNotFound) {
		return apperrors.NotFound("video", id)
	}
	return apperrors.Storage(op, err).WithField("video_id", id)
}
