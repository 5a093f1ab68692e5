package quiz

// Label is one of the closed set of diagnosis categories.
type Label string

const (
	LabelMelanoma             Label = "melanoma"
	LabelNevus                Label = "nevus"
	LabelBCC                  Label = "bcc"
	LabelSebaceousHyperplasia Label = "sebaceous_hyperplasia"
	LabelActinicKeratosis     Label = "actinic_keratosis"
	LabelBowen                Label = "bowen"
)

// Labels returns every diagnosis label in canonical order.
func Labels() []Label {
	return []Label{
		LabelMelanoma,
		LabelNevus,
		LabelBCC,
		LabelSebaceousHyperplasia,
		LabelActinicKeratosis,
		LabelBowen,
	}
}

// Valid reports whether l is a known diagnosis label.
func (l Label) Valid() bool {
	switch l {
	case LabelMelanoma, LabelNevus, LabelBCC,
		LabelSebaceousHyperplasia, LabelActinicKeratosis, LabelBowen:
		return true
	}
	return false
}

// Case is one accepted quiz image. Cases are immutable after creation;
// identity is the ISIC image ID.
type Case struct {
	ID        string `json:"id"`
	LesionID  string `json:"lesionId,omitempty"`
	ImageURL  string `json:"imageUrl"`
	Diagnosis Label  `json:"diagnosis"`
	Source    string `json:"source"`
}

// Valid reports whether the case satisfies the non-empty ID and image URL
// invariants.
func (c Case) Valid() bool {
	return c.ID != "" && c.ImageURL != ""
}
