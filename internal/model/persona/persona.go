package persona

import (
	"fmt"
	"strings"
)

// Persona is one of the fixed characters the assistant can play.
type Persona int

const (
	YeWenjie Persona = iota
	WangMiao
	DaShi
)

// Default is used wherever an unknown persona has to be tolerated.
const Default = YeWenjie

// All lists the personas in selector order.
func All() []Persona {
	return []Persona{YeWenjie, WangMiao, DaShi}
}

// Profile captures the persona attributes exposed to the frontend.
type Profile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Title       string `json:"title"`
	Greeting    string `json:"greeting"`
	Description string `json:"description"`
}

// ID returns the stable identifier used by the HTTP API.
func (p Persona) ID() string {
	switch p {
	case YeWenjie:
		return "ye-wenjie"
	case WangMiao:
		return "wang-miao"
	case DaShi:
		return "da-shi"
	}
	return ""
}

// Name returns the character's display name.
func (p Persona) Name() string {
	switch p {
	case YeWenjie:
		return "Ye Wenjie"
	case WangMiao:
		return "Wang Miao"
	case DaShi:
		return "Da Shi"
	}
	return ""
}

// Title is the short role shown under the name in the selector.
func (p Persona) Title() string {
	switch p {
	case YeWenjie:
		return "Astrophysicist & Key Figure"
	case WangMiao:
		return "Nanomaterials Researcher"
	case DaShi:
		return "Police Detective"
	}
	return ""
}

// Greeting is the assistant message that seeds a fresh conversation.
func (p Persona) Greeting() string {
	switch p {
	case YeWenjie:
		return "Hello, I am Ye Wenjie, an astrophysicist. My experiences during the Cultural Revolution shaped my worldview significantly. What would you like to know about the three-body problem or my involvement with it?"
	case WangMiao:
		return "Greetings, I'm Wang Miao, a nanomaterials researcher. I've been experiencing strange phenomena lately, including mysterious countdowns appearing in my photos. What would you like to discuss about my experiences?"
	case DaShi:
		return "I'm Da Shi, detective with the Battle Command Center. I take a practical approach to the threats we face. No need for fancy science talk with me - what do you want to know?"
	}
	return ""
}

// Personality is the character sketch inserted into the system prompt.
func (p Persona) Personality() string {
	switch p {
	case YeWenjie:
		return "You witnessed the horrors of the Cultural Revolution and developed a cynical view of humanity. You are intellectual, traumatized, and determined. You believe contact with an alien civilization might save or judge humanity."
	case WangMiao:
		return "You are analytical, curious, and somewhat naive. As a scientist, you approach problems methodically and are disturbed by the strange phenomena you've been witnessing."
	case DaShi:
		return "You are direct, practical, and occasionally crude. You have street smarts and cut through academic pretension. You use simple language and focus on results."
	}
	return ""
}

// Description is the longer "About" blurb rendered next to the animation.
func (p Persona) Description() string {
	switch p {
	case YeWenjie:
		return "An astrophysicist who witnessed her father's death during the Cultural Revolution. Her experiences led to her fateful decision to contact the Trisolarans, setting the story's events in motion."
	case WangMiao:
		return "A nanomaterials researcher who becomes involved in investigating a mysterious organization. Through a virtual reality game, he learns about the Three-Body Problem and the Trisolaran civilization."
	case DaShi:
		return "A detective with the Battle Command Center, known for his straightforward approach and practical problem-solving. He provides a grounded perspective amid scientific complexities."
	}
	return ""
}

// Valid reports whether p is one of the declared personas.
func (p Persona) Valid() bool {
	return p.ID() != ""
}

func (p Persona) String() string {
	if name := p.Name(); name != "" {
		return name
	}
	return fmt.Sprintf("Persona(%d)", int(p))
}

// Profile returns the frontend view of the persona.
func (p Persona) Profile() Profile {
	return Profile{
		ID:          p.ID(),
		Name:        p.Name(),
		Title:       p.Title(),
		Greeting:    p.Greeting(),
		Description: p.Description(),
	}
}

// Parse accepts either the API identifier or the display name, case-insensitively.
func Parse(raw string) (Persona, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	for _, p := range All() {
		if key == p.ID() || key == strings.ToLower(p.Name()) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown persona %q", raw)
}

// Resolve is Parse with a fallback to Default for unrecognised input.
func Resolve(raw string) Persona {
	p, err := Parse(raw)
	if err != nil {
		return Default
	}
	return p
}
