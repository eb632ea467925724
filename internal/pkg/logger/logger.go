package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"
)

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	JobIDKey     contextKey = "job_id"
	VideoIDKey   contextKey = "video_id"
)

// Logger wraps slog.Logger with the service's context conventions.
type Logger struct {
	*slog.Logger
}

// Config holds logger configuration.
type Config struct {
	// Level is the minimum level: debug, info, warn or error.
	Level string
	// Format is json (default) or text.
	Format string
	// Output defaults to os.Stdout.
	Output      io.Writer
	AddSource   bool
	ServiceName string
}

func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level:     ParseLevel(cfg.Level),
		AddSource: cfg.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339Nano))
				}
			}
			return a
		},
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(cfg.Output, opts)
	} else {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	}
	if cfg.ServiceName != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("service", cfg.ServiceName)})
	}

	return &Logger{Logger: slog.New(handler)}
}

// NewDefault builds a JSON info logger for places that were not handed one.
func NewDefault() *Logger {
	return New(Config{Level: "info", Format: "json", ServiceName: "cgiad"})
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() *Logger {
	return New(Config{Level: "error", Output: io.Discard})
}

func (l *Logger) with(key, value string) *Logger {
	return &Logger{Logger: l.Logger.With(slog.String(key, value))}
}

func (l *Logger) WithRequestID(requestID string) *Logger { return l.with("request_id", requestID) }

func (l *Logger) WithJobID(jobID string) *Logger { return l.with("job_id", jobID) }

func (l *Logger) WithVideoID(videoID string) *Logger { return l.with("video_id", videoID) }

func (l *Logger) WithComponent(component string) *Logger { return l.with("component", component) }

func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.with("error", err.Error())
}

// FromContext returns l enriched with the request, job and video ids found in ctx.
func (l *Logger) FromContext(ctx context.Context) *Logger {
	result := l
	if v, ok := ctx.Value(RequestIDKey).(string); ok && v != "" {
		result = result.WithRequestID(v)
	}
	if v, ok := ctx.Value(JobIDKey).(string); ok && v != "" {
		result = result.WithJobID(v)
	}
	if v, ok := ctx.Value(VideoIDKey).(string); ok && v != "" {
		result = result.WithVideoID(v)
	}
	return result
}

// LogError logs err at error level together with the caller location.
func (l *Logger) LogError(ctx context.Context, msg string, err error, args ...any) {
	if err == nil {
		return
	}
	if _, file, line, ok := runtime.Caller(1); ok {
		args = append(args, "source", slog.GroupValue(
			slog.String("file", file),
			slog.Int("line", line),
		))
	}
	args = append(args, "error", err.Error())
	l.FromContext(ctx).Error(msg, args...)
}

// LogFatal logs and exits with status 1.
func (l *Logger) LogFatal(msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "error", err.Error())
	}
	l.Error(msg, args...)
	os.Exit(1)
}

func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func ContextWithJobID(ctx context.Context, jobID string) context.Context {
	return context.WithValue(ctx, JobIDKey, jobID)
}

func ContextWithVideoID(ctx context.Context, videoID string) context.Context {
	return context.WithValue(ctx, VideoIDKey, videoID)
}

// ParseLevel maps a level name onto slog; unknown names mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
