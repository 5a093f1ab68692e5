package quiz

// Meta summarizes a completed harvesting run.
type Meta struct {
	Brand          string        `json:"brand"`
	Audience       string        `json:"audience"`
	TargetPerLabel int           `json:"target_per_label"`
	Counts         map[Label]int `json:"counts"`
	ScannedLesions int           `json:"scanned_lesions"`

	// SetSizes maps module name to the length of each of its quiz sets.
	SetSizes map[string][]int `json:"set_sizes"`

	Note string `json:"note"`
}

// Payload is the final output artifact: run metadata plus the assembled
// modules, each a list of quiz sets.
type Payload struct {
	Meta    Meta                 `json:"meta"`
	Modules map[string][]QuizSet `json:"modules"`
}
