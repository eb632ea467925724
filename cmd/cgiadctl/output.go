package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"cgiad/internal/service"
)

func writeJSON(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func writePlain(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeJob(w io.Writer, job service.JobView) error {
	lines := []string{
		"job_id: " + job.ID,
		"status: " + string(job.Status),
		fmt.Sprintf("progress: %d/%d", job.Progress.Step, job.Progress.Total),
		"filename: " + job.Filename,
		"effect: " + job.Effect,
	}
	if job.VideoID != "" {
		lines = append(lines, "video_id: "+job.VideoID)
	}
	if job.DownloadURL != "" {
		lines = append(lines, "download_url: "+job.DownloadURL)
	}
	if job.Error != "" {
		lines = append(lines, "error: "+job.Error)
	}
	return writePlain(w, "%s\n", strings.Join(lines, "\n"))
}
