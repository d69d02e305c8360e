// Package tone maps the formality and creativity sliders to labels and
// prompt fragments shared by every generation tool.
package tone

// Slider bounds.
const (
	MinFormality  = 1
	MaxFormality  = 8
	MinCreativity = 1
	MaxCreativity = 4
)

// Formality is the tone slider, from highly literary (1) to very street (8).
type Formality int

// Creativity is the style slider, from faithful (1) to creative (4).
type Creativity int

type level struct {
	label  string
	prompt string
}

var formalityLevels = map[Formality]level{
	1: {"Highly Literary", "highly literary, using elevated, poetic, and classical language with sophisticated vocabulary"},
	2: {"Literary", "literary, using refined and elegant prose with careful word choices"},
	3: {"Very formal", "very formal, using professional and respectful language"},
	4: {"Formal", "formal, using polite and proper language"},
	5: {"Friendly", "friendly, using warm and approachable language"},
	6: {"Very friendly", "very friendly, using casual and relaxed language"},
	7: {"Street", "street, using informal slang and colloquial expressions"},
	8: {"Very Street", "very street, using heavy slang, urban vernacular, and raw informal speech"},
}

var creativityLevels = map[Creativity]level{
	1: {"Faithful", "very literal and strictly faithful to the original"},
	2: {"Natural", "faithful but natural-sounding"},
	3: {"Freer", "a freer rewrite while preserving the core meaning"},
	4: {"Creative", "more creative while preserving the meaning and intent"},
}

// Valid reports whether f is within MinFormality..MaxFormality.
func (f Formality) Valid() bool { return f >= MinFormality && f <= MaxFormality }

// Label returns the short UI name, or "" when f is out of range.
func (f Formality) Label() string { return formalityLevels[f].label }

// Prompt returns the tone instruction used in system prompts.
func (f Formality) Prompt() string { return formalityLevels[f].prompt }

// Valid reports whether c is within MinCreativity..MaxCreativity.
func (c Creativity) Valid() bool { return c >= MinCreativity && c <= MaxCreativity }

// Label returns the short UI name, or "" when c is out of range.
func (c Creativity) Label() string { return creativityLevels[c].label }

// Prompt returns the style instruction used in system prompts.
func (c Creativity) Prompt() string { return creativityLevels[c].prompt }

// ParseFormality converts a decoded JSON number into a Formality. The value
// must be an integer in range; 3.5 or 9 are rejected.
func ParseFormality(v float64) (Formality, bool) {
	if !isIntInRange(v, MinFormality, MaxFormality) {
		return 0, false
	}
	return Formality(v), true
}

// ParseCreativity converts a decoded JSON number into a Creativity.
func ParseCreativity(v float64) (Creativity, bool) {
	if !isIntInRange(v, MinCreativity, MaxCreativity) {
		return 0, false
	}
	return Creativity(v), true
}

func isIntInRange(v float64, lo, hi int) bool {
	return v == float64(int(v)) && int(v) >= lo && int(v) <= hi
}
