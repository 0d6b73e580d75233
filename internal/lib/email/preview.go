package email

import (
	"time"

	"github.com/pharmintel/pharmintel/internal/model"
)

// PreviewData contains sample template data for local preview/testing,
// keyed by template name.
var PreviewData = map[Template]any{
	TemplateDigest: DigestEmailData{
		Significance: "high",
		CreatedAt:    time.Date(2026, 8, 1, 6, 30, 0, 0, time.UTC).Format("Jan 2, 2006 15:04 MST"),
		SummaryLines: []string{
			"Semaglutide: 1 new trial, NCT05649735 moved from Phase 2 to Phase 3",
			"Aspirin: NCT00000541 enrollment 120 -> 180",
		},
		Events: []model.DigestEvent{
			{
				DrugName:     "Semaglutide",
				NCTID:        "NCT05649735",
				Kind:         "phase_changed",
				OldValue:     "Phase 2",
				NewValue:     "Phase 3",
				Significance: "high",
			},
			{
				DrugName:     "Aspirin",
				NCTID:        "NCT00000541",
				Kind:         "enrollment_changed",
				OldValue:     "120",
				NewValue:     "180",
				Significance: "low",
			},
		},
	},
}
