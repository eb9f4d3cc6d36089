package lcd

import (
	"testing"

	"github.com/VerminX/SanctuaryThree-sub004/internal/platform/rules"
)

func TestClassify_ICD10Prefixes(t *testing.T) {
	tests := []struct {
		code        string
		category    string
		offloading  bool
		compression bool
	}{
		{"E11.621", rules.CategoryDiabeticFoot, true, false},
		{"E10.621", rules.CategoryDiabeticFoot, true, false},
		{"e11621", rules.CategoryDiabeticFoot, true, false},
		{"I83.023", rules.CategoryVenousLeg, false, true},
		{"I87.313", rules.CategoryVenousLeg, false, true},
		{"L89.154", rules.CategoryPressure, false, false},
		{"I70.235", rules.CategoryArterial, false, false},
		{"T81.31XA", rules.CategoryChronic, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			ep := newEpisode(tt.code, "", "")
			c := Classify(&ep, nil)
			if c.Category != tt.category {
				t.Errorf("expected category %s, got %s", tt.category, c.Category)
			}
			if c.RequiresOffloading != tt.offloading {
				t.Errorf("expected requires_offloading %v, got %v", tt.offloading, c.RequiresOffloading)
			}
			if c.RequiresCompression != tt.compression {
				t.Errorf("expected requires_compression %v, got %v", tt.compression, c.RequiresCompression)
			}
			if c.EvidenceSource != EvidenceICD10Primary {
				t.Errorf("expected icd10-primary, got %s", c.EvidenceSource)
			}
			if len(c.ICD10Codes) != 1 || c.ICD10Codes[0] != rules.NormalizeICD10(tt.code) {
				t.Errorf("unexpected icd10 codes %v", c.ICD10Codes)
			}
		})
	}
}

func TestClassify_DiabeticCodeBeatsFreeText(t *testing.T) {
	ep := newEpisode("E11.621", "venous stasis ulcer with pressure injury", "left calf")
	c := Classify(&ep, testSnapshot(t))

	if !c.IsDFU || !c.RequiresOffloading {
		t.Errorf("expected DFU with offloading, got %+v", c)
	}
	if c.IsVLU || c.IsPressureUlcer {
		t.Errorf("free text must not add categories after a code match: %+v", c)
	}
	if c.EvidenceSource != EvidenceICD10Primary {
		t.Errorf("expected icd10-primary, got %s", c.EvidenceSource)
	}
}

func TestClassify_ChronicUlcerByLocation(t *testing.T) {
	tests := []struct {
		location string
		category string
	}{
		{"Right great toe", rules.CategoryDiabeticFoot},
		{"left heel", rules.CategoryDiabeticFoot},
		{"medial ankle", rules.CategoryVenousLeg},
		{"Lower leg, anterior", rules.CategoryVenousLeg},
		{"sacrum", rules.CategoryChronic},
		{"", rules.CategoryChronic},
	}
	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			ep := newEpisode("L97.419", "ulcer", tt.location)
			c := Classify(&ep, nil)
			if c.Category != tt.category {
				t.Errorf("expected %s, got %s", tt.category, c.Category)
			}
			if c.EvidenceSource != EvidenceICD10Secondary {
				t.Errorf("expected icd10-secondary, got %s", c.EvidenceSource)
			}
		})
	}
}

func TestClassify_DictionaryLookups(t *testing.T) {
	snap := testSnapshot(t)

	ep := newEpisode("I83.899", "", "")
	if c := Classify(&ep, snap); c.Category != rules.CategoryVenousLeg || !c.RequiresCompression || c.Rule != "dictionary-code" {
		t.Errorf("expected exact dictionary match, got %+v", c)
	}

	ep = newEpisode("I70.299", "", "")
	if c := Classify(&ep, snap); c.Category != rules.CategoryArterial || c.Rule != "dictionary-prefix" {
		t.Errorf("expected dictionary prefix match, got %+v", c)
	}

	// without a snapshot the code is unknown and falls through to free text
	if c := Classify(&ep, nil); c.Category != rules.CategoryOther || c.EvidenceSource != EvidenceUnclassified {
		t.Errorf("expected unclassified without dictionary, got %+v", c)
	}
}

func TestClassify_FreeText(t *testing.T) {
	tests := []struct {
		woundType string
		location  string
		category  string
	}{
		{"Full-thickness ulceration", "plantar surface of foot", rules.CategoryDiabeticFoot},
		{"full thickness ulceration", "lateral calf", rules.CategoryVenousLeg},
		{"Neuropathic ulcer", "", rules.CategoryDiabeticFoot},
		{"venous stasis ulcer", "", rules.CategoryVenousLeg},
		{"Stage 3 pressure injury", "sacrum", rules.CategoryPressure},
		{"decubitus", "", rules.CategoryPressure},
		{"ischemic wound", "", rules.CategoryArterial},
		{"gravitational ulcer", "", rules.CategoryVenousLeg},
		{"skin tear", "forearm", rules.CategoryChronic},
	}
	snap := testSnapshot(t)
	for _, tt := range tests {
		t.Run(tt.woundType, func(t *testing.T) {
			ep := newEpisode("", tt.woundType, tt.location)
			c := Classify(&ep, snap)
			if c.Category != tt.category {
				t.Errorf("expected %s, got %s", tt.category, c.Category)
			}
			if c.EvidenceSource != EvidenceWoundTypeField {
				t.Errorf("expected wound-type-field, got %s", c.EvidenceSource)
			}
		})
	}
}

func TestClassify_MixedAetiology(t *testing.T) {
	ep := newEpisode("", "Mixed arterial/venous ulcer", "left leg")
	c := Classify(&ep, nil)
	if !c.IsVLU || !c.IsArterialUlcer {
		t.Errorf("expected both venous and arterial flags, got %+v", c)
	}
	if c.Category != rules.CategoryVenousLeg {
		t.Errorf("expected venous label, got %s", c.Category)
	}

	ep = newEpisode("", "diabetic foot ulcer with venous insufficiency", "")
	c = Classify(&ep, nil)
	if !c.IsDFU || !c.IsVLU || !c.RequiresOffloading || !c.RequiresCompression {
		t.Errorf("expected DFU and VLU requirements, got %+v", c)
	}
}

func TestClassify_Unclassified(t *testing.T) {
	ep := newEpisode("Z99.9", "  ", "")
	c := Classify(&ep, nil)
	if c.Category != rules.CategoryOther || c.EvidenceSource != EvidenceUnclassified {
		t.Errorf("expected other/unclassified, got %+v", c)
	}
	if c.RequiresOffloading || c.RequiresCompression {
		t.Error("unclassified wounds require nothing")
	}
}
