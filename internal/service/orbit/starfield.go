package orbit

import "math/rand"

// Star is one twinkling background dot. X and Y are viewport percentages.
type Star struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Size     float64 `json:"size"`
	Duration float64 `json:"duration"`
	Delay    float64 `json:"delay"`
}

// DefaultStarCount is the star density of the page background.
const DefaultStarCount = 100

// StarField lays out count stars. The same seed always yields the same sky.
func StarField(count int, seed int64) []Star {
	if count <= 0 {
		count = DefaultStarCount
	}

	rng := rand.New(rand.NewSource(seed))
	stars := make([]Star, count)
	for i := range stars {
		stars[i] = Star{
			X:        rng.Float64() * 100,
			Y:        rng.Float64() * 100,
			Size:     rng.Float64()*2 + 1,
			Duration: rng.Float64()*4 + 3,
			Delay:    rng.Float64() * 5,
		}
	}
	return stars
}
