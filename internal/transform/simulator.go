package transform

import (
	"context"
	"fmt"
	"io"
	"time"

	"cgiad/internal/pkg/logger"
)

const (
	DefaultSteps     = 10
	DefaultStepDelay = 500 * time.Millisecond
)

// Simulator is the placeholder engine: it walks a fixed number of timed steps
// and writes a short text payload. The requested duration is not used.
type Simulator struct {
	Steps     int
	StepDelay time.Duration
	// Sleep waits for d or until ctx is done. Nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration) error

	log *logger.Logger
}

func NewSimulator(log *logger.Logger, steps int, delay time.Duration) *Simulator {
	if steps <= 0 {
		steps = DefaultSteps
	}
	if delay < 0 {
		delay = DefaultStepDelay
	}
	return &Simulator{Steps: steps, StepDelay: delay, log: log.WithComponent("transform")}
}

func (s *Simulator) Engine() string { return "simulated" }

func (s *Simulator) Transform(ctx context.Context, req Request, dst io.Writer) error {
	log := s.log.FromContext(ctx)
	log.Info("generating video",
		"effect", req.Effect,
		"duration", req.DurationSeconds,
		"input", req.SourcePath)

	sleep := s.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	for step := 1; step <= s.Steps; step++ {
		if err := sleep(ctx, s.StepDelay); err != nil {
			return err
		}
		log.Info(fmt.Sprintf("processing step %d/%d for effect '%s'", step, s.Steps, req.Effect),
			"step", step,
			"total_steps", s.Steps)
		req.report(step, s.Steps)
	}

	if _, err := io.WriteString(dst, Placeholder(req.Effect)); err != nil {
		return fmt.Errorf("write placeholder: %w", err)
	}

	log.Info("video generation completed", "effect", req.Effect)
	return nil
}

// Placeholder is the payload written by the simulator.
func Placeholder(effect string) string {
	return "This is a mock video file for effect: " + effect
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
