package transform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	contracts "cgiad/internal/contracts/renderer/v1"
	"cgiad/internal/pkg/logger"
)

// HTTPRenderer delegates rendering to an external service that answers
// POST /render with the video bytes.
type HTTPRenderer struct {
	baseURL string
	client  *http.Client
	log     *logger.Logger
}

func NewHTTPRenderer(log *logger.Logger, baseURL string, client *http.Client) *HTTPRenderer {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Minute}
	}
	return &HTTPRenderer{baseURL: baseURL, client: client, log: log.WithComponent("transform")}
}

func (r *HTTPRenderer) Engine() string { return "http" }

func (r *HTTPRenderer) Transform(ctx context.Context, req Request, dst io.Writer) error {
	payload := contracts.RenderRequest{
		Version:         contracts.Version,
		JobID:           req.JobID,
		VideoID:         req.VideoID,
		Effect:          req.Effect,
		DurationSeconds: req.DurationSeconds,
		Input:           contracts.Input{ImagePath: req.SourcePath},
		Output:          contracts.Output{Format: "mp4", MediaType: "video/mp4"},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/render", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "video/mp4")

	r.log.FromContext(ctx).Info("posting render request", "url", httpReq.URL.String(), "effect", req.Effect)

	res, err := r.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		var e contracts.ErrorResponse
		if json.NewDecoder(io.LimitReader(res.Body, 64<<10)).Decode(&e) == nil && e.Error != "" {
			return fmt.Errorf("renderer http %d: %s", res.StatusCode, e.Error)
		}
		return fmt.Errorf("renderer http %d", res.StatusCode)
	}

	if _, err := io.Copy(dst, res.Body); err != nil {
		return fmt.Errorf("read renderer response: %w", err)
	}
	req.report(1, 1)
	return nil
}
