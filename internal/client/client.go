// Package client is an HTTP client for the CGI Ad Generator API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cgiad/internal/httpkit"
	"cgiad/internal/service"
	"cgiad/internal/transform"
)

// DefaultTimeout covers a blocking generate call with room to spare.
const DefaultTimeout = 2 * time.Minute

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// BaseURL is the API root requests are sent to.
func (c *Client) BaseURL() string { return c.baseURL }

// GenerateParams are the form fields of generate and submit. Zero Duration
// leaves the server default in place.
type GenerateParams struct {
	Filename string
	Effect   string
	Duration int
}

func (p GenerateParams) form() url.Values {
	v := url.Values{"filename": {p.Filename}, "effect": {p.Effect}}
	if p.Duration != 0 {
		v.Set("duration", strconv.Itoa(p.Duration))
	}
	return v
}

type SubmitResponse struct {
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
	StatusURL string `json:"status_url"`
}

// UploadFile sends the file at path as the multipart "file" field.
func (c *Client) UploadFile(ctx context.Context, path string) (service.UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return service.UploadResult{}, err
	}
	defer f.Close()
	return c.Upload(ctx, filepath.Base(path), f)
}

// Upload streams r as a multipart upload named name.
func (c *Client) Upload(ctx context.Context, name string, r io.Reader) (service.UploadResult, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		fw, err := mw.CreateFormFile("file", name)
		if err == nil {
			_, err = io.Copy(fw, r)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	var out service.UploadResult
	err := c.do(ctx, http.MethodPost, "/api/upload", mw.FormDataContentType(), pr, &out)
	return out, err
}

func (c *Client) Generate(ctx context.Context, p GenerateParams) (service.GenerateResult, error) {
	var out service.GenerateResult
	err := c.doForm(ctx, "/api/generate", p.form(), &out)
	return out, err
}

func (c *Client) Submit(ctx context.Context, p GenerateParams) (SubmitResponse, error) {
	var out SubmitResponse
	err := c.doForm(ctx, "/api/jobs", p.form(), &out)
	return out, err
}

func (c *Client) Job(ctx context.Context, id string) (service.JobView, error) {
	var out service.JobView
	err := c.do(ctx, http.MethodGet, "/api/jobs/"+url.PathEscape(id), "", nil, &out)
	return out, err
}

func (c *Client) Effects(ctx context.Context) ([]transform.Effect, error) {
	var out struct {
		Effects []transform.Effect `json:"effects"`
	}
	err := c.do(ctx, http.MethodGet, "/api/effects", "", nil, &out)
	return out.Effects, err
}

// Fetch copies the video to w and returns the server-suggested filename.
func (c *Client) Fetch(ctx context.Context, videoID string, w io.Writer) (string, error) {
	resp, err := c.send(ctx, http.MethodGet, "/api/video/"+url.PathEscape(videoID), "", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", fmt.Errorf("download %s: %w", videoID, err)
	}
	return downloadName(resp.Header.Get("Content-Disposition"), videoID), nil
}

func (c *Client) doForm(ctx context.Context, path string, form url.Values, out any) error {
	return c.do(ctx, http.MethodPost, path, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()), out)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	resp, err := c.send(ctx, method, path, contentType, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// send returns the response for a 2xx status; anything else is decoded into
// an *APIError.
func (c *Client) send(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}
	return resp, nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var env httpkit.ErrorEnvelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&env); err == nil {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
	}
	return apiErr
}

func downloadName(disposition, videoID string) string {
	if _, params, err := parseDisposition(disposition); err == nil && params["filename"] != "" {
		return filepath.Base(params["filename"])
	}
	return videoID + ".mp4"
}
