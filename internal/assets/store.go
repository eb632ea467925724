// Package assets keeps uploaded source images.
package assets

import (
	"context"
	"errors"
	"io"
	"mime"
	"path"

	"cgiad/internal/models"
	apperrors "cgiad/internal/pkg/errors"
	"cgiad/internal/pkg/ids"
	"cgiad/internal/ports"
)

const (
	fallbackExt  = ".bin"
	maxExtLength = 16
)

// Store persists assets under "<token><ext>" in a storage provider. Assets are
// never deleted.
type Store struct {
	provider    ports.StorageProvider
	displayRoot string
}

// New wraps provider. displayRoot prefixes the path reported to clients
// (e.g. "uploads" for a localfs root).
func New(provider ports.StorageProvider, displayRoot string) *Store {
	return &Store{provider: provider, displayRoot: displayRoot}
}

// Store writes r under a fresh identifier. Readers never observe a partial file.
func (s *Store) Store(ctx context.Context, r io.Reader, ext string) (models.Asset, error) {
	ext = NormalizeExt(ext)
	filename := ids.NewToken() + ext

	out, err := s.provider.PutObject(ctx, ports.PutObjectInput{
		ObjectKey:   filename,
		ContentType: mime.TypeByExtension(ext),
		Reader:      r,
		Size:        -1,
	})
	if err != nil {
		return models.Asset{}, apperrors.Storage("assets.store", err).WithField("filename", filename)
	}
	return models.Asset{Filename: filename, Size: out.Size}, nil
}

// Resolve confirms filename refers to a stored asset. Names that could escape
// the store are reported as not found.
func (s *Store) Resolve(ctx context.Context, filename string) (models.Asset, error) {
	if !ids.IsToken(filename) {
		return models.Asset{}, apperrors.NotFound("asset", filename)
	}
	info, err := s.provider.StatObject(ctx, filename)
	if err != nil {
		return models.Asset{}, s.mapErr("assets.resolve", filename, err)
	}
	return models.Asset{Filename: filename, Size: info.Size}, nil
}

// Open streams a resolved asset.
func (s *Store) Open(ctx context.Context, filename string) (io.ReadCloser, models.Asset, error) {
	if !ids.IsToken(filename) {
		return nil, models.Asset{}, apperrors.NotFound("asset", filename)
	}
	rc, info, err := s.provider.GetObject(ctx, filename)
	if err != nil {
		return nil, models.Asset{}, s.mapErr("assets.open", filename, err)
	}
	return rc, models.Asset{Filename: filename, Size: info.Size}, nil
}

// LocalPath returns the on-disk path when the provider keeps files locally.
func (s *Store) LocalPath(filename string) (string, bool) {
	lp, ok := s.provider.(ports.LocalPather)
	if !ok || !ids.IsToken(filename) {
		return "", false
	}
	p, err := lp.LocalPath(filename)
	if err != nil {
		return "", false
	}
	return p, true
}

// Path is the location reported as file_path in upload responses.
func (s *Store) Path(a models.Asset) string {
	if s.displayRoot == "" {
		return a.Filename
	}
	return path.Join(s.displayRoot, a.Filename)
}

func (s *Store) Provider() string { return s.provider.Provider() }

func (s *Store) mapErr(op, filename string, err error) error {
	if errors.Is(err, ports.ErrObjectNotFound) {
		return apperrors.NotFound("asset", filename)
	}
	return apperrors.Storage(op, err).WithField("filename", filename)
}

// NormalizeExt returns "." followed by the alphanumeric extension, or ".bin"
// when ext is empty, too long or contains anything else.
func NormalizeExt(ext string) string {
	for len(ext) > 0 && ext[0] == '.' {
		ext = ext[1:]
	}
	if ext == "" || len(ext) > maxExtLength {
		return fallbackExt
	}
	for _, c := range ext {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return fallbackExt
		}
	}
	return "." + ext
}
