package client

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
)

// APIError is an error response from the API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	switch {
	case e.Code != "" && e.Message != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	case e.Message != "":
		return e.Message
	default:
		return fmt.Sprintf("api error: %d %s", e.Status, http.StatusText(e.Status))
	}
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

func parseDisposition(v string) (string, map[string]string, error) {
	if v == "" {
		return "", nil, errors.New("no content disposition")
	}
	return mime.ParseMediaType(v)
}
