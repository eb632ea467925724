package handlers

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"cgiad/internal/httpkit"
	"cgiad/internal/pkg/errors"
	"cgiad/internal/service"
)

// Upload accepts a multipart "file" field and stores it as a new asset.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		httpkit.WriteError(w, errors.Validation("invalid multipart form"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpkit.WriteError(w, errors.ValidationField("file", "file is required"))
		return
	}
	defer file.Close()

	res, err := h.svc.Upload(r.Context(), file, header.Filename)
	if err != nil {
		httpkit.WriteError(w, err)
		return
	}
	httpkit.WriteJSON(w, http.StatusOK, res)
}

// Generate blocks until the video is produced.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	req, err := h.generateRequest(r)
	if err != nil {
		httpkit.WriteError(w, err)
		return
	}
	res, err := h.svc.Generate(r.Context(), req)
	if err != nil {
		httpkit.WriteError(w, err)
		return
	}
	httpkit.WriteJSON(w, http.StatusOK, res)
}

// GetVideo streams an artifact as a download.
func (h *Handler) GetVideo(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Fetch(r.Context(), chi.URLParam(r, "videoId"))
	if err != nil {
		httpkit.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+res.DownloadName+`"`)
	h.stream(w, r, res)
}

// GetOutput serves the static /outputs/{filename} mount.
func (h *Handler) GetOutput(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.FetchFile(r.Context(), chi.URLParam(r, "filename"))
	if err != nil {
		httpkit.WriteError(w, err)
		return
	}
	h.stream(w, r, res)
}

func (h *Handler) stream(w http.ResponseWriter, r *http.Request, res service.FetchResult) {
	defer res.Body.Close()

	w.Header().Set("Content-Type", res.MediaType)
	if res.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(res.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, res.Body); err != nil {
		h.log.FromContext(r.Context()).Warn("artifact stream interrupted", "error", err.Error())
	}
}

// generateRequest reads filename, effect and duration from a urlencoded or
// multipart form.
func (h *Handler) generateRequest(r *http.Request) (service.GenerateRequest, error) {
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		err = r.ParseMultipartForm(h.maxUploadBytes)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return service.GenerateRequest{}, errors.Validation("invalid form body")
	}

	req := service.GenerateRequest{
		Filename: strings.TrimSpace(r.FormValue("filename")),
		Effect:   strings.TrimSpace(r.FormValue("effect")),
	}
	if raw := strings.TrimSpace(r.FormValue("duration")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return service.GenerateRequest{}, errors.ValidationField("duration", "duration must be a positive integer")
		}
		req.DurationSeconds = &n
	}
	return req, nil
}
