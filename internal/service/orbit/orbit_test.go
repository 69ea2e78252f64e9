package orbit

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/zhouzirui/threebody-chat/internal/model/persona"
)

func TestSceneForEveryPersona(t *testing.T) {
	want := map[persona.Persona]Pattern{
		persona.YeWenjie: PatternChaotic,
		persona.WangMiao: PatternStable,
		persona.DaShi:    PatternAggressive,
	}
	for p, pattern := range want {
		scene := SceneFor(p)
		if scene.Pattern != pattern {
			t.Fatalf("%s: expected %s, got %s", p, pattern, scene.Pattern)
		}
		if scene.PersonaID != p.ID() {
			t.Fatalf("%s: unexpected persona id %s", p, scene.PersonaID)
		}
	}

	if got := SceneFor(persona.Persona(99)); got.Pattern != PatternChaotic {
		t.Fatalf("expected fallback scene, got %s", got.Pattern)
	}
}

func TestStableFrameKeepsBodiesOnCircle(t *testing.T) {
	scene := SceneFor(persona.WangMiao)
	frame := scene.Frame(1.23, false)

	for i, body := range frame.Bodies {
		r := math.Hypot(body.X, body.Y)
		if math.Abs(r-2) > 1e-9 {
			t.Fatalf("body %d: expected radius 2, got %f", i, r)
		}
		if body.Scale != 1 {
			t.Fatalf("body %d: expected unit scale, got %f", i, body.Scale)
		}
		if body.Color != scene.Colors[i] || body.Size != scene.Sizes[i] {
			t.Fatalf("body %d: unexpected style %+v", i, body)
		}
	}
}

func TestTypingSpeedsUpAndPulses(t *testing.T) {
	scene := SceneFor(persona.YeWenjie)

	idle := scene.Frame(2, false)
	typing := scene.Frame(2, true)
	boosted := scene.Frame(3, false)

	if math.Abs(typing.Bodies[0].X-boosted.Bodies[0].X) > 1e-9 {
		t.Fatalf("expected typing at t=2 to match idle at t=3, got %f vs %f", typing.Bodies[0].X, boosted.Bodies[0].X)
	}
	if idle.Bodies[0].X == typing.Bodies[0].X {
		t.Fatal("expected typing to change positions")
	}
	want := 1 + math.Sin(10)*0.05
	if math.Abs(typing.Bodies[1].Scale-want) > 1e-12 {
		t.Fatalf("expected pulse scale %f, got %f", want, typing.Bodies[1].Scale)
	}
}

func TestFrameIsDeterministic(t *testing.T) {
	scene := SceneFor(persona.DaShi)
	if scene.Frame(0.5, true) != scene.Frame(0.5, true) {
		t.Fatal("expected identical frames for identical inputs")
	}
}

func TestAnimatorEmitsUntilEmitFails(t *testing.T) {
	animator := NewAnimator(200)
	stop := errors.New("stop")

	var frames []Frame
	err := animator.Run(context.Background(), func() (Scene, bool) {
		return SceneFor(persona.YeWenjie), false
	}, func(f Frame) error {
		frames = append(frames, f)
		if len(frames) == 3 {
			return stop
		}
		return nil
	})

	if !errors.Is(err, stop) {
		t.Fatalf("expected stop error, got %v", err)
	}
	if len(frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(frames))
	}
	if math.Abs(frames[2].Time-3*animator.Step()) > 1e-12 {
		t.Fatalf("unexpected clock %f", frames[2].Time)
	}
}

func TestAnimatorStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := NewAnimator(0).Run(ctx, func() (Scene, bool) {
		return SceneFor(persona.WangMiao), true
	}, func(Frame) error { return nil })
	if err != nil {
		t.Fatalf("expected nil on cancel, got %v", err)
	}
}

func TestStarFieldIsSeeded(t *testing.T) {
	a := StarField(10, 42)
	b := StarField(10, 42)
	if len(a) != 10 {
		t.Fatalf("expected 10 stars, got %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("star %d differs between identical seeds", i)
		}
		s := a[i]
		if s.X < 0 || s.X >= 100 || s.Size < 1 || s.Size >= 3 || s.Duration < 3 || s.Duration >= 7 || s.Delay < 0 || s.Delay >= 5 {
			t.Fatalf("star %d out of range: %+v", i, s)
		}
	}
	if got := len(StarField(0, 1)); got != DefaultStarCount {
		t.Fatalf("expected default count, got %d", got)
	}
}
