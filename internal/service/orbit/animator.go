package orbit

import (
	"context"
	"time"
)

// DefaultFPS is used when the configured frame rate is not positive.
const DefaultFPS = 30

// referenceFPS is the frame rate TimeStep was tuned for.
const referenceFPS = 60

// Animator drives a scene clock and emits frames at a fixed rate.
type Animator struct {
	fps int
}

// NewAnimator returns an animator ticking fps times per second.
func NewAnimator(fps int) *Animator {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Animator{fps: fps}
}

// FPS returns the effective frame rate.
func (a *Animator) FPS() int {
	return a.fps
}

// Step is the scene time added per emitted frame, so motion speed does not
// depend on the frame rate.
func (a *Animator) Step() float64 {
	return TimeStep * referenceFPS / float64(a.fps)
}

// Run emits frames until ctx is cancelled or emit fails. state is consulted on
// every tick so persona and typing changes apply immediately.
func (a *Animator) Run(ctx context.Context, state func() (Scene, bool), emit func(Frame) error) error {
	ticker := time.NewTicker(time.Second / time.Duration(a.fps))
	defer ticker.Stop()

	t := 0.0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			t += a.Step()
			scene, typing := state()
			if err := emit(scene.Frame(t, typing)); err != nil {
				return err
			}
		}
	}
}
