package isic

// Partial-record types for the two consumed ISIC Archive v2 endpoints.
// Every field the archive may omit is explicit here and decodes to its zero
// value, so downstream filter logic never touches raw JSON.

// FileRef points at one hosted rendition of an image.
type FileRef struct {
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// Files lists the hosted renditions of an image.
type Files struct {
	Full      FileRef `json:"full"`
	Thumbnail FileRef `json:"thumbnail_256"`
}

// Acquisition holds imaging-modality metadata. ImageType is empty when the
// archive does not state the modality.
type Acquisition struct {
	ImageType string `json:"image_type"`
}

// Clinical holds diagnosis metadata. DiagnosisConfirmType is free text such
// as "histopathology" or "single image expert consensus".
type Clinical struct {
	Diagnosis            string `json:"diagnosis"`
	DiagnosisConfirmType string `json:"diagnosis_confirm_type"`
}

// Metadata groups the image metadata sections used by the case filter.
type Metadata struct {
	Acquisition Acquisition `json:"acquisition"`
	Clinical    Clinical    `json:"clinical"`
}

// Image is one image record from the search endpoint or a lesion's image
// list. LesionID is absent for images not linked to a lesion.
type Image struct {
	IsicID   string   `json:"isic_id"`
	LesionID string   `json:"lesion_id"`
	Files    Files    `json:"files"`
	Metadata Metadata `json:"metadata"`
}

// Lesion is one record from the lesion-listing endpoint. The outcome
// diagnosis fields are free text and may both be empty.
type Lesion struct {
	ID                string  `json:"id"`
	IndexImageID      string  `json:"index_image_id"`
	OutcomeDiagnosis  string  `json:"outcome_diagnosis"`
	OutcomeDiagnosis1 string  `json:"outcome_diagnosis_1"`
	Images            []Image `json:"images"`
}

// ImagePage is one page of image search results. Next is the absolute URL
// of the following page, empty on the last page.
type ImagePage struct {
	Count   int64   `json:"count"`
	Next    string  `json:"next"`
	Results []Image `json:"results"`
}

// LesionPage is one page of lesion-listing results.
type LesionPage struct {
	Count   int64    `json:"count"`
	Next    string   `json:"next"`
	Results []Lesion `json:"results"`
}
