package transform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cgiad/internal/config"
	contracts "cgiad/internal/contracts/renderer/v1"
	"cgiad/internal/pkg/logger"
)

func TestEncodeArgs(t *testing.T) {
	args := strings.Join(EncodeArgs("/in/a.png", 7), " ")
	for _, want := range []string{"-loop 1", "-i /in/a.png", "-t 7", "-c:v libx264", "-f mp4", "pipe:", "-y"} {
		if !strings.Contains(args, want) {
			t.Errorf("expected %q in %q", want, args)
		}
	}
}

func TestFFmpegEncoder(t *testing.T) {
	old := stubDelay
	stubDelay = 0
	defer func() { stubDelay = old }()

	enc := NewFFmpegEncoder(logger.Discard(), "")
	var gotBin string
	enc.Run = func(ctx context.Context, bin string, args []string, w io.Writer) error {
		gotBin = bin
		_, err := io.WriteString(w, "mp4-bytes")
		return err
	}

	var out bytes.Buffer
	var steps int
	err := enc.Transform(context.Background(), Request{
		SourcePath:      "/in/a.png",
		Effect:          "color-splash",
		DurationSeconds: 5,
		Progress:        func(step, total int) { steps++ },
	}, &out)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if gotBin != "ffmpeg" || out.String() != "mp4-bytes" || steps != 1 {
		t.Errorf("unexpected result bin=%s out=%q steps=%d", gotBin, out.String(), steps)
	}

	enc.Run = func(context.Context, string, []string, io.Writer) error { return errors.New("exit status 1") }
	if err := enc.Transform(context.Background(), Request{Effect: "x", DurationSeconds: 5}, &out); err == nil {
		t.Fatal("expected ffmpeg failure")
	}
	if err := enc.Transform(context.Background(), Request{Effect: "x"}, &out); err == nil {
		t.Fatal("expected zero duration to be rejected")
	}
}

func TestHTTPRenderer(t *testing.T) {
	var got contracts.RenderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/render" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if got.Effect == "boom" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_ = json.NewEncoder(w).Encode(contracts.ErrorResponse{Error: "unsupported effect"})
			return
		}
		w.Header().Set("Content-Type", "video/mp4")
		_, _ = io.WriteString(w, "rendered")
	}))
	defer srv.Close()

	r := NewHTTPRenderer(logger.Discard(), srv.URL, srv.Client())
	var out bytes.Buffer
	err := r.Transform(context.Background(), Request{SourcePath: "/in/a.png", Effect: "particle-burst", DurationSeconds: 5, VideoID: "v1"}, &out)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if out.String() != "rendered" {
		t.Errorf("unexpected body %q", out.String())
	}
	if got.Version != contracts.Version || got.Input.ImagePath != "/in/a.png" || got.VideoID != "v1" {
		t.Errorf("unexpected request %+v", got)
	}

	err = r.Transform(context.Background(), Request{Effect: "boom"}, &out)
	if err == nil || !strings.Contains(err.Error(), "unsupported effect") {
		t.Fatalf("expected renderer error, got %v", err)
	}
}

func TestNewSelectsEngine(t *testing.T) {
	tests := map[string]string{"": "simulated", "simulated": "simulated", "ffmpeg": "ffmpeg", "http": "http"}
	for engine, want := range tests {
		tr, err := New(&config.Config{TransformEngine: engine, RendererBaseURL: "http://r"}, logger.Discard())
		if err != nil {
			t.Fatalf("%s: %v", engine, err)
		}
		if tr.Engine() != want {
			t.Errorf("%s: expected %s, got %s", engine, want, tr.Engine())
		}
	}
	if _, err := New(&config.Config{TransformEngine: "blender"}, logger.Discard()); err == nil {
		t.Error("expected unknown engine error")
	}
}
