package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"cgiad/internal/httpkit"
)

// PostJob queues a generation and answers 202 with a status URL to poll.
func (h *Handler) PostJob(w http.ResponseWriter, r *http.Request) {
	req, err := h.generateRequest(r)
	if err != nil {
		httpkit.WriteError(w, err)
		return
	}
	job, err := h.svc.Submit(r.Context(), req)
	if err != nil {
		httpkit.WriteError(w, err)
		return
	}

	statusURL := "/api/jobs/" + job.ID
	w.Header().Set("Location", statusURL)
	httpkit.WriteJSON(w, http.StatusAccepted, map[string]any{
		"job_id":     job.ID,
		"status":     job.Status,
		"status_url": statusURL,
	})
}

func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Job(r.Context(), chi.URLParam(r, "jobId"))
	if err != nil {
		httpkit.WriteError(w, err)
		return
	}
	httpkit.WriteJSON(w, http.StatusOK, view)
}
