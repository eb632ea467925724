package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cgiad/internal/adapters/storage/localfs"
	"cgiad/internal/artifacts"
	"cgiad/internal/assets"
	"cgiad/internal/httpkit"
	"cgiad/internal/jobs"
	"cgiad/internal/models"
	"cgiad/internal/pkg/logger"
	"cgiad/internal/service"
	"cgiad/internal/transform"
	"cgiad/internal/worker"
	"cgiad/internal/worker/processor"
)

type testAPI struct {
	srv   *httptest.Server
	queue *jobs.MemoryQueue
	proc  *processor.Processor
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	dir := t.TempDir()
	log := logger.Discard()

	upFS, err := localfs.New(filepath.Join(dir, "uploads"))
	if err != nil {
		t.Fatal(err)
	}
	outFS, err := localfs.New(filepath.Join(dir, "outputs"))
	if err != nil {
		t.Fatal(err)
	}
	as := assets.New(upFS, "uploads")
	ar, err := artifacts.New(outFS, artifacts.Options{WorkDir: filepath.Join(dir, "work"), DisplayRoot: "outputs"})
	if err != nil {
		t.Fatal(err)
	}

	store := jobs.NewMemoryStore()
	queue := jobs.NewMemoryQueue(16)
	proc := processor.New(processor.Deps{
		Assets:      as,
		Artifacts:   ar,
		Transformer: transform.NewSimulator(log, 10, 0),
		Jobs:        store,
		WorkDir:     filepath.Join(dir, "work"),
		Log:         log,
	})
	svc := service.New(service.Deps{
		Assets:    as,
		Artifacts: ar,
		Processor: proc,
		Jobs:      store,
		Queue:     queue,
		Log:       log,
	})

	srv := httptest.NewServer(NewRouter(Deps{Service: svc, Log: log}))
	t.Cleanup(srv.Close)
	return &testAPI{srv: srv, queue: queue, proc: proc}
}

func (a *testAPI) upload(t *testing.T, name string, content []byte) map[string]any {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write(content)
	_ = mw.Close()

	resp, err := http.Post(a.srv.URL+"/api/upload", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload: status %d", resp.StatusCode)
	}
	return decodeMap(t, resp.Body)
}

func (a *testAPI) postForm(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	resp, err := http.PostForm(a.srv.URL+path, form)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decodeMap(t *testing.T, r io.Reader) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return m
}

func decodeErr(t *testing.T, r io.Reader) httpkit.ErrorEnvelope {
	t.Helper()
	var env httpkit.ErrorEnvelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return env
}

func TestRoot(t *testing.T) {
	a := newTestAPI(t)
	resp, err := http.Get(a.srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if got := decodeMap(t, resp.Body)["message"]; got != "CGI Ad Generator API is running" {
		t.Errorf("unexpected message %v", got)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Errorf("expected a request id header")
	}
}

func TestHealth(t *testing.T) {
	a := newTestAPI(t)
	resp, err := http.Get(a.srv.URL + "/health?deep=true")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body := decodeMap(t, resp.Body)
	if body["status"] != "ok" {
		t.Errorf("expected ok, got %v", body)
	}
	storage, _ := body["storage"].(map[string]any)
	if storage["uploads"] != "localfs" || storage["outputs"] != "localfs" {
		t.Errorf("unexpected storage %v", body["storage"])
	}
}

func TestUploadGenerateDownload(t *testing.T) {
	a := newTestAPI(t)

	up := a.upload(t, "shoe.jpg", []byte("jpeg bytes"))
	filename, _ := up["filename"].(string)
	if !strings.HasSuffix(filename, ".jpg") || up["file_path"] != "uploads/"+filename || up["message"] != "File uploaded successfully" {
		t.Fatalf("unexpected upload response %v", up)
	}

	resp := a.postForm(t, "/api/generate", url.Values{"filename": {filename}, "effect": {"zoom-and-shine"}, "duration": {"3"}})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate: status %d", resp.StatusCode)
	}
	gen := decodeMap(t, resp.Body)
	videoID, _ := gen["video_id"].(string)
	if videoID == "" || gen["download_url"] != "/outputs/"+videoID+".mp4" || gen["message"] != "Video generated successfully" {
		t.Fatalf("unexpected generate response %v", gen)
	}

	video, err := http.Get(a.srv.URL + "/api/video/" + videoID)
	if err != nil {
		t.Fatal(err)
	}
	defer video.Body.Close()
	if video.StatusCode != http.StatusOK {
		t.Fatalf("video: status %d", video.StatusCode)
	}
	if ct := video.Header.Get("Content-Type"); ct != "video/mp4" {
		t.Errorf("unexpected content type %s", ct)
	}
	if cd := video.Header.Get("Content-Disposition"); cd != `attachment; filename="cgi-ad-`+videoID+`.mp4"` {
		t.Errorf("unexpected content disposition %s", cd)
	}
	data, _ := io.ReadAll(video.Body)
	if string(data) != transform.Placeholder("zoom-and-shine") {
		t.Errorf("unexpected video body %q", data)
	}

	static, err := http.Get(a.srv.URL + "/outputs/" + videoID + ".mp4")
	if err != nil {
		t.Fatal(err)
	}
	static.Body.Close()
	if static.StatusCode != http.StatusOK {
		t.Errorf("static mount: status %d", static.StatusCode)
	}
}

func TestGenerateErrors(t *testing.T) {
	a := newTestAPI(t)
	up := a.upload(t, "a.png", []byte("png"))
	filename := up["filename"].(string)

	tests := []struct {
		name   string
		form   url.Values
		status int
		code   string
	}{
		{"unknown file", url.Values{"filename": {"nope.png"}, "effect": {"x"}}, 404, "NOT_FOUND"},
		{"traversal", url.Values{"filename": {"../secret.png"}, "effect": {"x"}}, 404, "NOT_FOUND"},
		{"reserved spool dir", url.Values{"filename": {".tmp"}, "effect": {"x"}}, 404, "NOT_FOUND"},
		{"missing effect", url.Values{"filename": {filename}}, 400, "VALIDATION_ERROR"},
		{"bad duration", url.Values{"filename": {filename}, "effect": {"x"}, "duration": {"soon"}}, 400, "VALIDATION_ERROR"},
		{"zero duration", url.Values{"filename": {filename}, "effect": {"x"}, "duration": {"0"}}, 400, "VALIDATION_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := a.postForm(t, "/api/generate", tt.form)
			defer resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Errorf("expected %d, got %d", tt.status, resp.StatusCode)
			}
			if env := decodeErr(t, resp.Body); env.Error.Code != tt.code {
				t.Errorf("expected code %s, got %+v", tt.code, env.Error)
			}
		})
	}
}

func TestUploadRequiresFile(t *testing.T) {
	a := newTestAPI(t)
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("other", "x")
	_ = mw.Close()

	resp, err := http.Post(a.srv.URL+"/api/upload", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestVideoNotFound(t *testing.T) {
	a := newTestAPI(t)
	for _, path := range []string{"/api/video/never-issued", "/outputs/never-issued.mp4", "/outputs/passwd"} {
		resp, err := http.Get(a.srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, resp.StatusCode)
		}
	}
}

func TestEffects(t *testing.T) {
	a := newTestAPI(t)
	resp, err := http.Get(a.srv.URL + "/api/effects")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body struct {
		Effects []transform.Effect `json:"effects"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Effects) != 5 || body.Effects[0].ID != "banner-unroll" {
		t.Errorf("unexpected effects %+v", body.Effects)
	}
}

func TestJobLifecycle(t *testing.T) {
	a := newTestAPI(t)
	up := a.upload(t, "a.png", []byte("png"))

	resp := a.postForm(t, "/api/jobs", url.Values{"filename": {up["filename"].(string)}, "effect": {"color-splash"}})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	submitted := decodeMap(t, resp.Body)
	jobID, _ := submitted["job_id"].(string)
	if jobID == "" || submitted["status"] != "received" || submitted["status_url"] != "/api/jobs/"+jobID {
		t.Fatalf("unexpected submit response %v", submitted)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool := worker.NewPool(worker.Deps{Queue: a.queue, Processor: a.proc, Log: logger.Discard(), PopTimeout: 50 * time.Millisecond}, 1)
	pool.Start(ctx)
	defer pool.Stop(context.Background())

	deadline := time.Now().Add(5 * time.Second)
	for {
		got, err := http.Get(a.srv.URL + "/api/jobs/" + jobID)
		if err != nil {
			t.Fatal(err)
		}
		body := decodeMap(t, got.Body)
		got.Body.Close()
		if body["status"] == string(models.JobCompleted) {
			videoID, _ := body["video_id"].(string)
			if body["download_url"] != "/outputs/"+videoID+".mp4" {
				t.Errorf("unexpected completed job %v", body)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("job did not complete, last state %v", body)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestJobNotFound(t *testing.T) {
	a := newTestAPI(t)
	resp, err := http.Get(a.srv.URL + "/api/jobs/unknown")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
