package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cgiad/internal/ports"
)

const tmpDirName = ".tmp"

// LocalFS implements ports.StorageProvider on a directory. Objects are
// written under <root>/.tmp first and renamed into place.
type LocalFS struct {
	root string
}

// New creates root (and its temp area) if needed.
func New(root string) (*LocalFS, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("localfs: root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(abs, tmpDirName), 0o755); err != nil {
		return nil, fmt.Errorf("localfs: ensure root: %w", err)
	}
	return &LocalFS{root: abs}, nil
}

func (l *LocalFS) Provider() string { return "localfs" }

// Root is the absolute storage directory.
func (l *LocalFS) Root() string { return l.root }

func (l *LocalFS) PutObject(ctx context.Context, in ports.PutObjectInput) (ports.PutObjectOutput, error) {
	if in.Reader == nil {
		return ports.PutObjectOutput{}, fmt.Errorf("localfs: reader is required")
	}
	if err := ctx.Err(); err != nil {
		return ports.PutObjectOutput{}, err
	}
	dst, err := l.pathFromKey(in.ObjectKey)
	if err != nil {
		return ports.PutObjectOutput{}, err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return ports.PutObjectOutput{}, err
	}

	tmp, err := os.CreateTemp(filepath.Join(l.root, tmpDirName), "put-*")
	if err != nil {
		return ports.PutObjectOutput{}, err
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	n, err := io.Copy(tmp, in.Reader)
	if err != nil {
		cleanup()
		return ports.PutObjectOutput{}, err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return ports.PutObjectOutput{}, err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return ports.PutObjectOutput{}, err
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return ports.PutObjectOutput{}, err
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		_ = os.Remove(tmpPath)
		return ports.PutObjectOutput{}, err
	}

	return ports.PutObjectOutput{ObjectKey: in.ObjectKey, Size: n}, nil
}

func (l *LocalFS) GetObject(ctx context.Context, objectKey string) (io.ReadCloser, ports.ObjectInfo, error) {
	p, err := l.pathFromKey(objectKey)
	if err != nil {
		return nil, ports.ObjectInfo{}, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, ports.ObjectInfo{}, mapErr(err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, ports.ObjectInfo{}, err
	}
	if st.IsDir() {
		_ = f.Close()
		return nil, ports.ObjectInfo{}, ports.ErrObjectNotFound
	}

	info := ports.ObjectInfo{ObjectKey: objectKey, Size: st.Size(), ModifiedAt: st.ModTime()}
	info.ContentType = mime.TypeByExtension(filepath.Ext(p))
	if info.ContentType == "" {
		buf := make([]byte, 512)
		n, _ := f.Read(buf)
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			_ = f.Close()
			return nil, ports.ObjectInfo{}, err
		}
		info.ContentType = http.DetectContentType(buf[:n])
	}
	return f, info, nil
}

func (l *LocalFS) StatObject(ctx context.Context, objectKey string) (ports.ObjectInfo, error) {
	p, err := l.pathFromKey(objectKey)
	if err != nil {
		return ports.ObjectInfo{}, err
	}
	st, err := os.Stat(p)
	if err != nil {
		return ports.ObjectInfo{}, mapErr(err)
	}
	if st.IsDir() {
		return ports.ObjectInfo{}, ports.ErrObjectNotFound
	}
	return ports.ObjectInfo{
		ObjectKey:   objectKey,
		ContentType: mime.TypeByExtension(filepath.Ext(p)),
		Size:        st.Size(),
		ModifiedAt:  st.ModTime(),
	}, nil
}

// DeleteObject removes the object; a missing key is not an error.
func (l *LocalFS) DeleteObject(ctx context.Context, objectKey string) error {
	p, err := l.pathFromKey(objectKey)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// GetSignedURL has nothing to sign locally; artifacts are served by the API.
func (l *LocalFS) GetSignedURL(ctx context.Context, objectKey string, expiresIn time.Duration) (ports.SignedURLOutput, error) {
	return ports.SignedURLOutput{URL: "", ExpiresAt: time.Now().UTC().Add(expiresIn)}, nil
}

func (l *LocalFS) LocalPath(objectKey string) (string, error) {
	return l.pathFromKey(objectKey)
}

// pathFromKey maps a relative slash key under root, rejecting absolute keys,
// parent references and the temp area.
func (l *LocalFS) pathFromKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("localfs: object key is required")
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "\\") || strings.ContainsRune(key, 0) {
		return "", fmt.Errorf("localfs: invalid object key %q", key)
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("localfs: invalid object key %q", key)
	}
	first := strings.SplitN(filepath.ToSlash(clean), "/", 2)[0]
	if first == tmpDirName {
		return "", fmt.Errorf("localfs: invalid object key %q", key)
	}
	return filepath.Join(l.root, clean), nil
}

func mapErr(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", ports.ErrObjectNotFound, err)
	}
	return err
}
