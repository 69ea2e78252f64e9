package orbit

import (
	"math"

	"github.com/zhouzirui/threebody-chat/internal/model/persona"
)

// Pattern selects the motion equations of a scene.
type Pattern string

const (
	PatternChaotic    Pattern = "chaotic"
	PatternStable     Pattern = "stable"
	PatternAggressive Pattern = "aggressive"
)

// TimeStep is how far the scene clock advances per frame.
const TimeStep = 0.01

// typingBoost multiplies the speed while the user types or a reply is pending.
const typingBoost = 1.5

// Scene describes the three bodies drawn for a persona.
type Scene struct {
	PersonaID string     `json:"personaId"`
	Colors    [3]string  `json:"colors"`
	Sizes     [3]float64 `json:"sizes"`
	Speed     float64    `json:"speed"`
	Pattern   Pattern    `json:"pattern"`
}

// Body is one sphere in a frame.
type Body struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	Scale float64 `json:"scale"`
	Size  float64 `json:"size"`
	Color string  `json:"color"`
}

// Frame is the full scene at one instant.
type Frame struct {
	Time   float64 `json:"t"`
	Typing bool    `json:"typing"`
	Bodies [3]Body `json:"bodies"`
}

// SceneFor returns the animation configuration of a persona. Unknown values
// get Ye Wenjie's scene.
func SceneFor(p persona.Persona) Scene {
	switch p {
	case persona.WangMiao:
		return Scene{
			PersonaID: p.ID(),
			Colors:    [3]string{"#9c4dff", "#3259ba", "#ff9d4d"},
			Sizes:     [3]float64{0.7, 0.7, 0.7},
			Speed:     0.3,
			Pattern:   PatternStable,
		}
	case persona.DaShi:
		return Scene{
			PersonaID: p.ID(),
			Colors:    [3]string{"#ff4d4d", "#ff9d4d", "#4dffff"},
			Sizes:     [3]float64{0.9, 0.5, 0.6},
			Speed:     0.5,
			Pattern:   PatternAggressive,
		}
	default:
		return Scene{
			PersonaID: persona.YeWenjie.ID(),
			Colors:    [3]string{"#64ffda", "#ff6464", "#4d91ff"},
			Sizes:     [3]float64{0.8, 0.6, 0.7},
			Speed:     0.4,
			Pattern:   PatternChaotic,
		}
	}
}

// Frame positions the bodies at scene time t.
func (s Scene) Frame(t float64, typing bool) Frame {
	speed := s.Speed
	if typing {
		speed *= typingBoost
	}

	scale := 1.0
	if typing {
		scale = 1 + math.Sin(t*5)*0.05
	}

	frame := Frame{Time: t, Typing: typing}
	for i := range frame.Bodies {
		x, y, z := s.position(t*speed, i)
		frame.Bodies[i] = Body{
			X:     x,
			Y:     y,
			Z:     z,
			Scale: scale,
			Size:  s.Sizes[i],
			Color: s.Colors[i],
		}
	}
	return frame
}

// position evaluates the pattern for body i at phase a = t*speed.
func (s Scene) position(a float64, i int) (float64, float64, float64) {
	n := float64(i)
	switch s.Pattern {
	case PatternChaotic:
		return math.Cos(a+n*2) * 2, math.Sin(a+n) * 2, math.Sin(a*0.5+n*3) * 0.5
	case PatternStable:
		offset := n * math.Pi * 2 / 3
		return math.Cos(a+offset) * 2, math.Sin(a+offset) * 2, math.Sin(a*0.3) * 0.3
	case PatternAggressive:
		return math.Cos(a*(n+1)) * 2.2, math.Sin(a*(n+1)) * 1.8, math.Cos(a*0.7+n) * 0.7
	default:
		return math.Cos(a+n) * 2, math.Sin(a+n) * 2, 0
	}
}
