package harvest

import (
	"strings"

	"dermquiz/pkg/isic"
	"dermquiz/pkg/quiz"
)

// Provenance tags recorded on accepted cases.
const (
	SourceLesions = "APIv2-lesions"
	SourceSearch  = "APIv2-search"
)

// IsDermoscopic reports whether an image's acquisition type allows it into
// a bucket. An absent type is accepted; anything stated must mention a
// dermoscopic modality. Clinical macro photographs are rejected here.
func IsDermoscopic(meta isic.Metadata) bool {
	imageType := strings.ToLower(meta.Acquisition.ImageType)
	return imageType == "" || strings.Contains(imageType, "dermo")
}

// IsHistopathologyConfirmed reports whether the diagnosis was verified by
// tissue biopsy rather than visual assessment.
func IsHistopathologyConfirmed(meta isic.Metadata) bool {
	confirmType := strings.ToLower(meta.Clinical.DiagnosisConfirmType)
	return strings.Contains(confirmType, "histopathology")
}

// labelRules maps free-text diagnosis fragments onto labels. Order matters:
// the first matching fragment wins.
var labelRules = []struct {
	fragment string
	label    quiz.Label
}{
	{"actinic keratosis", quiz.LabelActinicKeratosis},
	{"basal cell carcinoma", quiz.LabelBCC},
	{"melanoma", quiz.LabelMelanoma},
	{"nevus", quiz.LabelNevus},
	{"naevus", quiz.LabelNevus},
	{"bowen", quiz.LabelBowen},
	{"squamous cell carcinoma in situ", quiz.LabelBowen},
}

// DeriveLabel maps a lesion's free-text outcome diagnosis fields onto a
// diagnosis label. Lesions matching no rule carry no label and are dropped
// by the caller.
func DeriveLabel(lesion isic.Lesion) (quiz.Label, bool) {
	text := strings.ToLower(lesion.OutcomeDiagnosis + " | " + lesion.OutcomeDiagnosis1)

	for _, rule := range labelRules {
		if strings.Contains(text, rule.fragment) {
			return rule.label, true
		}
	}

	return "", false
}

// RepresentativeImage picks the image that stands in for a lesion: the
// declared index image when present in the image list, otherwise the first
// image.
func RepresentativeImage(lesion isic.Lesion) (isic.Image, bool) {
	for _, img := range lesion.Images {
		if lesion.IndexImageID != "" && img.IsicID == lesion.IndexImageID {
			return img, true
		}
	}

	if len(lesion.Images) > 0 {
		return lesion.Images[0], true
	}

	return isic.Image{}, false
}

// CaseFromImage converts an image record into a quiz case. Records missing
// an identifier or image URL, and non-dermoscopic images, yield no case;
// such records are skipped silently and harvesting continues.
func CaseFromImage(img isic.Image, label quiz.Label, source string) (quiz.Case, bool) {
	if img.IsicID == "" || img.Files.Full.URL == "" {
		return quiz.Case{}, false
	}
	if !IsDermoscopic(img.Metadata) {
		return quiz.Case{}, false
	}

	return quiz.Case{
		ID:        img.IsicID,
		LesionID:  img.LesionID,
		ImageURL:  img.Files.Full.URL,
		Diagnosis: label,
		Source:    source,
	}, true
}
