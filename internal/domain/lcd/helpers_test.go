package lcd

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/VerminX/SanctuaryThree-sub004/internal/domain/woundcare"
	"github.com/VerminX/SanctuaryThree-sub004/internal/platform/rules"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string { return &s }

func newEpisode(code, woundType, location string) woundcare.Episode {
	ep := woundcare.Episode{
		ID:            uuid.New(),
		PatientID:     uuid.New(),
		WoundType:     woundType,
		WoundLocation: location,
		StartDate:     day(2024, time.January, 1),
		Status:        "active",
	}
	if code != "" {
		ep.PrimaryDiagnosis = strPtr(code)
	}
	return ep
}

func measured(episodeID uuid.UUID, date time.Time, area float64, interventions ...woundcare.Intervention) woundcare.Encounter {
	enc := woundcare.Encounter{
		ID:           uuid.New(),
		EpisodeID:    episodeID,
		Date:         date,
		WoundDetails: json.RawMessage(fmt.Sprintf(`{"current_measurement":{"area":%g,"unit":"cm2"}}`, area)),
	}
	if interventions != nil {
		raw, _ := json.Marshal(woundcare.ConservativeCare{Interventions: interventions})
		enc.ConservativeCare = raw
	}
	return enc
}

func offloading() woundcare.Intervention {
	return woundcare.Intervention{Type: "offloading", Name: "Total contact cast", Date: "2024-01-01"}
}

func validException(episodeID uuid.UUID, week string, typ woundcare.ExceptionType) woundcare.DocumentedException {
	return woundcare.DocumentedException{
		ID:                uuid.New(),
		EpisodeID:         episodeID,
		WeekIdentifier:    week,
		ExceptionType:     typ,
		Reason:            "clinic closed",
		DocumentedBy:      "dr-smith",
		DocumentationDate: day(2024, time.January, 26),
		IsValidException:  true,
	}
}

// dfuBundle is a diabetic foot ulcer episode with weekly measurements from
// 2024-01-01 to 2024-01-29 and offloading documented on the first visit.
func dfuBundle() *woundcare.Bundle {
	ep := newEpisode("E11.621", "Diabetic foot ulcer", "left plantar foot")
	return &woundcare.Bundle{
		Episode: ep,
		Encounters: []woundcare.Encounter{
			measured(ep.ID, day(2024, time.January, 1), 10, offloading()),
			measured(ep.ID, day(2024, time.January, 8), 9),
			measured(ep.ID, day(2024, time.January, 15), 8),
			measured(ep.ID, day(2024, time.January, 22), 7.5),
			measured(ep.ID, day(2024, time.January, 29), 7),
		},
		DocumentedExceptions: []woundcare.DocumentedException{},
	}
}

func testSnapshot(t *testing.T) *rules.Snapshot {
	t.Helper()
	snap, err := rules.NewSnapshot(rules.Dictionary{
		SchemaVersion: rules.SupportedSchemaVersion,
		Version:       "2024.10",
		ICD10Codes: []rules.CodeEntry{
			{Code: "L98.491", Category: rules.CategoryChronic},
			{Code: "I83.899", Category: rules.CategoryVenousLeg},
		},
		ICD10Prefixes: []rules.PrefixEntry{
			{Prefix: "I70.2", Category: rules.CategoryArterial},
			{Prefix: "E11.5", Category: rules.CategoryArterial},
		},
		WoundTypeSynonyms: []rules.SynonymGroup{
			{Category: rules.CategoryVenousLeg, Terms: []string{"Gravitational ulcer"}},
			{Category: rules.CategoryPressure, Terms: []string{"device-related injury"}},
		},
		LCDTerminology: []string{"Total Contact Cast", "multilayer compression", "offloading"},
	}, day(2024, time.October, 1))
	if err != nil {
		t.Fatalf("build snapshot: %v", err)
	}
	return snap
}
