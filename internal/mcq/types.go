package mcq

import "strings"

// Difficulty levels. Informational only; the session engine never
// enforces them.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Source types accepted by the generation boundary.
const (
	SourceText  = "text"
	SourcePDF   = "pdf"
	SourceTopic = "topic"
)

// Labels in canonical order. Every question carries exactly these four
// options; an empty option text is rendered as a placeholder, never
// rejected.
var Labels = []string{"A", "B", "C", "D"}

// Options holds the four answer choices keyed by label.
type Options struct {
	A string `json:"A"`
	B string `json:"B"`
	C string `json:"C"`
	D string `json:"D"`
}

// Get returns the option text for a label, or "" for an unknown label.
func (o Options) Get(label string) string {
	switch label {
	case "A":
		return o.A
	case "B":
		return o.B
	case "C":
		return o.C
	case "D":
		return o.D
	}
	return ""
}

// Question is an immutable value object. The engine never mutates one.
type Question struct {
	Text         string  `json:"question"`
	Options      Options `json:"options"`
	CorrectLabel string  `json:"correct_answer"`
	Difficulty   string  `json:"difficulty,omitempty"`
}

// TestSpec is the immutable input to one attempt: the authoritative
// question order plus the time budget. Created once, never re-sorted.
type TestSpec struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Difficulty        string     `json:"difficulty"`
	TimeBudgetSeconds int        `json:"time_budget_seconds"`
	Questions         []Question `json:"questions"`
}

// NormalizeLabel uppercases and trims a submitted label. Comparison of
// submitted vs correct labels always goes through this so "a " and "A"
// score identically.
func NormalizeLabel(label string) string {
	return strings.ToUpper(strings.TrimSpace(label))
}

// ValidLabel reports whether label is one of A, B, C, D after
// normalization.
func ValidLabel(label string) bool {
	switch NormalizeLabel(label) {
	case "A", "B", "C", "D":
		return true
	}
	return false
}

// ValidDifficulty reports whether d is a known difficulty level.
func ValidDifficulty(d string) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}
