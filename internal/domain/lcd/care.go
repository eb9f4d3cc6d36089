package lcd

import (
	"strings"

	"github.com/VerminX/SanctuaryThree-sub004/internal/domain/woundcare"
)

// StandardOfCare records which conservative-care elements were documented.
// Offloading and Compression are nil when the wound does not require them.
type StandardOfCare struct {
	Offloading       *bool `json:"offloading"`
	Compression      *bool `json:"compression"`
	InfectionControl bool  `json:"infection_control"`
	PatientEducation bool  `json:"patient_education"`
	ElementsMet      int   `json:"elements_met"`
	ElementsRequired int   `json:"elements_required"`
}

var (
	offloadingTerms  = []string{"offload", "off-load", "off load", "tcc", "total contact cast", "boot"}
	compressionTerms = []string{"compression", "wrap", "bandage"}
	infectionTerms   = []string{"antibiotic", "antiseptic", "antimicrobial"}
	educationTerms   = []string{"education", "teaching"}
)

const (
	typeCompressionTherapy = "compression_therapy"
	typeInfectionMgmt      = "infection_management"
	typeDebridement        = "debridement"
	typeEducation          = "education"
	typeNutrition          = "nutrition_counseling"
)

// AssessStandardOfCare checks the interventions against the elements the
// classification makes mandatory. Matching is case-insensitive and by
// substring.
func AssessStandardOfCare(interventions []woundcare.Intervention, c Classification) StandardOfCare {
	var soc StandardOfCare

	if c.RequiresOffloading {
		met := anyIntervention(interventions, func(typ, name string) bool {
			return containsAny(strings.ReplaceAll(typ, "_", " "), offloadingTerms) || containsAny(name, offloadingTerms)
		})
		soc.Offloading = &met
	}
	if c.RequiresCompression {
		met := anyIntervention(interventions, func(typ, name string) bool {
			return typ == typeCompressionTherapy || containsAny(name, compressionTerms)
		})
		soc.Compression = &met
	}
	soc.InfectionControl = anyIntervention(interventions, func(typ, name string) bool {
		return typ == typeInfectionMgmt || strings.Contains(typ, typeDebridement) || containsAny(name, infectionTerms)
	})
	soc.PatientEducation = anyIntervention(interventions, func(typ, name string) bool {
		return typ == typeEducation || typ == typeNutrition || containsAny(name, educationTerms)
	})

	for _, el := range []*bool{soc.Offloading, soc.Compression, &soc.InfectionControl, &soc.PatientEducation} {
		if el == nil {
			continue
		}
		soc.ElementsRequired++
		if *el {
			soc.ElementsMet++
		}
	}
	return soc
}

func anyIntervention(interventions []woundcare.Intervention, pred func(typ, name string) bool) bool {
	for _, iv := range interventions {
		if pred(normalizeTag(iv.Type), strings.ToLower(iv.Name)) {
			return true
		}
	}
	return false
}

// normalizeTag lower-cases a type tag and treats '-' and ' ' as '_'.
func normalizeTag(t string) string {
	return strings.NewReplacer("-", "_", " ", "_").Replace(strings.ToLower(strings.TrimSpace(t)))
}
