package httpkit

import (
	"net/http"

	apperrors "cgiad/internal/pkg/errors"
)

// WriteError maps err onto the envelope. Coded errors keep their code, status,
// message and fields; anything else is an opaque 500.
func WriteError(w http.ResponseWriter, err error) {
	var e *apperrors.Error
	if !apperrors.As(err, &e) {
		WriteErr(w, http.StatusInternalServerError, string(apperrors.CodeInternal), "internal server error", nil)
		return
	}
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.HTTPStatus())
	}
	WriteErr(w, e.HTTPStatus(), string(e.Code), msg, publicDetails(e.Fields))
}

func publicDetails(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
