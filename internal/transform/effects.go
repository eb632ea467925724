package transform

import (
	"context"
	"time"
)

// Frame is one rendered video frame.
type Frame struct {
	Index int
	Data  []byte
}

// EffectFunc renders the frames of an effect for the image at sourcePath.
type EffectFunc func(ctx context.Context, sourcePath string) ([]Frame, error)

type Effect struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Apply       EffectFunc `json:"-"`
}

// stubDelay is how long each placeholder effect pretends to work.
var stubDelay = 200 * time.Millisecond

// stub simulates an effect that produces no frames yet.
func stub(ctx context.Context, _ string) ([]Frame, error) {
	t := time.NewTimer(stubDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.C:
		return []Frame{}, nil
	}
}

var catalog = []Effect{
	{ID: "banner-unroll", Name: "Banner Unroll", Description: "Elegant unrolling animation", Apply: stub},
	{ID: "zoom-and-shine", Name: "Zoom & Shine", Description: "Zoom with light effects", Apply: stub},
	{ID: "3d-rotate", Name: "3D Rotate", Description: "360° product rotation", Apply: stub},
	{ID: "color-splash", Name: "Color Splash", Description: "Dramatic color reveal", Apply: stub},
	{ID: "particle-burst", Name: "Particle Burst", Description: "Explosive particle animation", Apply: stub},
}

// Effects returns the declared effects in display order.
func Effects() []Effect {
	out := make([]Effect, len(catalog))
	copy(out, catalog)
	return out
}

// LookupEffect finds a declared effect. Callers accept unknown tags anyway;
// the tag is carried through as an opaque label.
func LookupEffect(id string) (Effect, bool) {
	for _, e := range catalog {
		if e.ID == id {
			return e, true
		}
	}
	return Effect{}, false
}
