// Package v1 is the request contract for an external HTTP renderer.
//
// The renderer reads the image at input.image_path (shared volume) and
// answers with the encoded video as the response body.
package v1

const Version = "v1"

type RenderRequest struct {
	Version         string `json:"version"`
	JobID           string `json:"job_id,omitempty"`
	VideoID         string `json:"video_id,omitempty"`
	Effect          string `json:"effect"`
	DurationSeconds int    `json:"duration_seconds"`
	Input           Input  `json:"input"`
	Output          Output `json:"output"`
}

type Input struct {
	ImagePath string `json:"image_path"`
}

type Output struct {
	Format    string `json:"format"`
	MediaType string `json:"media_type"`
}

// ErrorResponse is the JSON body of a non-2xx renderer response.
type ErrorResponse struct {
	Error string `json:"error"`
}
