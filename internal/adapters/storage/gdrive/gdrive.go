package gdrive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cgiad/internal/ports"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

const fileFields = "id,name,size,mimeType,modifiedTime"

// Client implements ports.StorageProvider backed by Google Drive. The object
// key is the Drive file name inside folderID; lookups resolve it to a fileId.
type Client struct {
	srv      *drive.Service
	folderID string
}

func NewClient(srv *drive.Service, folderID string) *Client {
	return &Client{srv: srv, folderID: folderID}
}

func (c *Client) Provider() string { return "gdrive" }

// PutObject creates the file, or replaces the content of an existing file with
// the same name. Drive only lists a file once its upload has completed.
func (c *Client) PutObject(ctx context.Context, in ports.PutObjectInput) (ports.PutObjectOutput, error) {
	if in.ObjectKey == "" {
		return ports.PutObjectOutput{}, fmt.Errorf("gdrive: object key is required")
	}
	if in.Reader == nil {
		return ports.PutObjectOutput{}, fmt.Errorf("gdrive: reader is required")
	}

	var opts []googleapi.MediaOption
	if in.ContentType != "" {
		opts = append(opts, googleapi.ContentType(in.ContentType))
	}

	existing, err := c.find(ctx, in.ObjectKey)
	if err != nil && err != ports.ErrObjectNotFound {
		return ports.PutObjectOutput{}, err
	}

	var saved *drive.File
	if existing != nil {
		saved, err = c.srv.Files.Update(existing.Id, &drive.File{}).
			Media(in.Reader, opts...).
			SupportsAllDrives(true).
			Fields(fileFields).
			Context(ctx).
			Do()
	} else {
		file := &drive.File{Name: in.ObjectKey, MimeType: in.ContentType}
		if c.folderID != "" {
			file.Parents = []string{c.folderID}
		}
		saved, err = c.srv.Files.Create(file).
			Media(in.Reader, opts...).
			SupportsAllDrives(true).
			Fields(fileFields).
			Context(ctx).
			Do()
	}
	if err != nil {
		return ports.PutObjectOutput{}, fmt.Errorf("gdrive: upload %s: %w", in.ObjectKey, err)
	}

	return ports.PutObjectOutput{ObjectKey: in.ObjectKey, Size: saved.Size}, nil
}

func (c *Client) GetObject(ctx context.Context, objectKey string) (io.ReadCloser, ports.ObjectInfo, error) {
	f, err := c.find(ctx, objectKey)
	if err != nil {
		return nil, ports.ObjectInfo{}, err
	}

	resp, err := c.srv.Files.Get(f.Id).
		SupportsAllDrives(true).
		Context(ctx).
		Download()
	if err != nil {
		return nil, ports.ObjectInfo{}, mapErr(err)
	}

	info := infoFromFile(objectKey, f)
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		info.ContentType = ct
	}
	if resp.ContentLength >= 0 {
		info.Size = resp.ContentLength
	}
	return resp.Body, info, nil
}

func (c *Client) StatObject(ctx context.Context, objectKey string) (ports.ObjectInfo, error) {
	f, err := c.find(ctx, objectKey)
	if err != nil {
		return ports.ObjectInfo{}, err
	}
	return infoFromFile(objectKey, f), nil
}

func (c *Client) DeleteObject(ctx context.Context, objectKey string) error {
	f, err := c.find(ctx, objectKey)
	if err == ports.ErrObjectNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	return mapErr(c.srv.Files.Delete(f.Id).
		SupportsAllDrives(true).
		Context(ctx).
		Do())
}

// GetSignedURL is not supported for Drive; downloads go through the API.
func (c *Client) GetSignedURL(ctx context.Context, objectKey string, expiresIn time.Duration) (ports.SignedURLOutput, error) {
	return ports.SignedURLOutput{URL: "", ExpiresAt: time.Now().UTC().Add(expiresIn)}, nil
}

func (c *Client) find(ctx context.Context, objectKey string) (*drive.File, error) {
	if objectKey == "" {
		return nil, fmt.Errorf("gdrive: object key is required")
	}
	list, err := c.srv.Files.List().
		Q(nameQuery(objectKey, c.folderID)).
		Fields(googleapi.Field("files(" + fileFields + ")")).
		PageSize(1).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("gdrive: lookup %s: %w", objectKey, err)
	}
	if len(list.Files) == 0 {
		return nil, ports.ErrObjectNotFound
	}
	return list.Files[0], nil
}

// nameQuery builds a Drive search expression matching exactly one name.
func nameQuery(name, folderID string) string {
	q := fmt.Sprintf("name = '%s' and trashed = false", escapeQuery(name))
	if folderID != "" {
		q += fmt.Sprintf(" and '%s' in parents", escapeQuery(folderID))
	}
	return q
}

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

func infoFromFile(objectKey string, f *drive.File) ports.ObjectInfo {
	info := ports.ObjectInfo{ObjectKey: objectKey, ContentType: f.MimeType, Size: f.Size}
	if t, err := time.Parse(time.RFC3339, f.ModifiedTime); err == nil {
		info.ModifiedAt = t
	}
	return info
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if gerr, ok := err.(*googleapi.Error); ok && gerr.Code == http.StatusNotFound {
		return fmt.Errorf("%w: %v", ports.ErrObjectNotFound, err)
	}
	return err
}
