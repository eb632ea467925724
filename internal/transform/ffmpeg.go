package transform

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"cgiad/internal/pkg/logger"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// CommandRunner executes bin with args, streaming stdout into w.
type CommandRunner func(ctx context.Context, bin string, args []string, w io.Writer) error

// FFmpegEncoder loops the still image for the requested duration into a
// fragmented H.264 mp4 written straight to dst. When the effect renders
// frames they are not composited yet; the still is encoded as is.
type FFmpegEncoder struct {
	Bin string
	Run CommandRunner

	log *logger.Logger
}

func NewFFmpegEncoder(log *logger.Logger, bin string) *FFmpegEncoder {
	if bin == "" {
		bin = "ffmpeg"
	}
	return &FFmpegEncoder{Bin: bin, Run: execRunner, log: log.WithComponent("transform")}
}

func (e *FFmpegEncoder) Engine() string { return "ffmpeg" }

func (e *FFmpegEncoder) Transform(ctx context.Context, req Request, dst io.Writer) error {
	if req.DurationSeconds <= 0 {
		return fmt.Errorf("ffmpeg: duration must be positive, got %d", req.DurationSeconds)
	}
	log := e.log.FromContext(ctx)

	if effect, ok := LookupEffect(req.Effect); ok {
		frames, err := effect.Apply(ctx, req.SourcePath)
		if err != nil {
			return fmt.Errorf("effect %s: %w", req.Effect, err)
		}
		log.Debug("effect rendered", "effect", req.Effect, "frames", len(frames))
	} else {
		log.Warn("unknown effect, encoding plain still", "effect", req.Effect)
	}

	args := EncodeArgs(req.SourcePath, req.DurationSeconds)
	log.Info("running ffmpeg", "bin", e.Bin, "args", strings.Join(args, " "))

	if err := e.Run(ctx, e.Bin, args, dst); err != nil {
		return fmt.Errorf("ffmpeg failed: %w", err)
	}
	req.report(1, 1)
	return nil
}

// EncodeArgs builds the ffmpeg argument list for a still-image loop.
func EncodeArgs(sourcePath string, durationSeconds int) []string {
	return ffmpeg.Input(sourcePath, ffmpeg.KwArgs{"loop": "1"}).
		Output("pipe:", ffmpeg.KwArgs{
			"t":        strconv.Itoa(durationSeconds),
			"vf":       "scale=trunc(iw/2)*2:trunc(ih/2)*2",
			"c:v":      "libx264",
			"pix_fmt":  "yuv420p",
			"preset":   "veryfast",
			"f":        "mp4",
			"movflags": "frag_keyframe+empty_moov",
		}).
		OverWriteOutput().
		GetArgs()
}

func execRunner(ctx context.Context, bin string, args []string, w io.Writer) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = w
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if i := strings.LastIndexByte(msg, '\n'); i >= 0 {
			msg = msg[i+1:]
		}
		if msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}
