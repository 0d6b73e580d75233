// Package digest implements change detection over clinical-trial snapshots
// and builds the per-run digest that summarizes what moved.
//
// A digest run compares the trials just fetched from the registry against
// the rows already stored, keyed by NCT number, and emits one Change per
// observed difference. Changes are ranked by significance so downstream
// consumers (the digests API, the email notifier) can filter noise.
package digest

import (
	"fmt"
	"strings"
	"time"

	"github.com/pharmintel/pharmintel/internal/model"
)

// Kind identifies what changed on a trial between two snapshots.
type Kind string

const (
	KindTrialAdded        Kind = "trial_added"
	KindPhaseChanged      Kind = "phase_changed"
	KindStatusChanged     Kind = "status_changed"
	KindEnrollmentChanged Kind = "enrollment_changed"
)

// Level ranks how significant a change is. Levels are ordered; comparisons
// use the numeric rank, the string form is what gets persisted.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Rank returns the ordering value for a level. Unknown levels rank lowest.
func (l Level) Rank() int {
	switch l {
	case LevelHigh:
		return 3
	case LevelMedium:
		return 2
	case LevelLow:
		return 1
	}
	return 0
}

// AtLeast reports whether l meets the given threshold.
func (l Level) AtLeast(threshold Level) bool {
	return l.Rank() >= threshold.Rank()
}

// ParseLevel maps a config string onto a Level, defaulting to medium for
// anything unrecognized.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return LevelLow
	case "high":
		return LevelHigh
	default:
		return LevelMedium
	}
}

// Change is a single detected difference for one trial.
type Change struct {
	DrugID       int64
	NCTID        string
	Kind         Kind
	Old          string
	New          string
	Significance Level
}

// terminalStatuses are registry statuses that end a trial early. Any
// transition into one of these is high significance regardless of phase.
var terminalStatuses = map[string]struct{}{
	"terminated": {},
	"withdrawn":  {},
	"suspended":  {},
}

// phaseRank orders registry phase labels so phase transitions can be
// classified as advances or not. Unknown labels rank 0.
func phaseRank(phase string) int {
	switch strings.ToLower(strings.TrimSpace(phase)) {
	case "early phase 1", "early_phase1":
		return 1
	case "phase 1", "phase1":
		return 2
	case "phase 1/phase 2", "phase1/phase2":
		return 3
	case "phase 2", "phase2":
		return 4
	case "phase 2/phase 3", "phase2/phase3":
		return 5
	case "phase 3", "phase3":
		return 6
	case "phase 4", "phase4":
		return 7
	}
	return 0
}

// Detect compares the stored snapshot of a drug's trials against the rows
// just fetched and returns the changes, in the order the fetched rows were
// seen. Trials present only in the stored snapshot produce no change; the
// registry never deletes studies, so an absent row means the fetch was
// partial, not that the trial vanished.
//
// Significance rules:
//   - new trial: medium
//   - phase advance: high; any other phase change: medium
//   - status transition into terminated/withdrawn/suspended: high;
//     other status changes: medium
//   - enrollment-only change: low
func Detect(stored, fetched []model.Trial) []Change {
	prev := make(map[string]model.Trial, len(stored))
	for _, t := range stored {
		prev[t.NCTID] = t
	}

	var changes []Change
	for _, curr := range fetched {
		old, ok := prev[curr.NCTID]
		if !ok {
			changes = append(changes, Change{
				DrugID:       curr.DrugID,
				NCTID:        curr.NCTID,
				Kind:         KindTrialAdded,
				New:          fmt.Sprintf("%s (%s)", curr.Phase, curr.Status),
				Significance: LevelMedium,
			})
			continue
		}

		if !equalFold(old.Phase, curr.Phase) {
			level := LevelMedium
			if phaseRank(curr.Phase) > phaseRank(old.Phase) {
				level = LevelHigh
			}
			changes = append(changes, Change{
				DrugID:       curr.DrugID,
				NCTID:        curr.NCTID,
				Kind:         KindPhaseChanged,
				Old:          old.Phase,
				New:          curr.Phase,
				Significance: level,
			})
		}

		if !equalFold(old.Status, curr.Status) {
			level := LevelMedium
			if _, terminal := terminalStatuses[strings.ToLower(curr.Status)]; terminal {
				level = LevelHigh
			}
			changes = append(changes, Change{
				DrugID:       curr.DrugID,
				NCTID:        curr.NCTID,
				Kind:         KindStatusChanged,
				Old:          old.Status,
				New:          curr.Status,
				Significance: level,
			})
		}

		if old.Enrollment != curr.Enrollment {
			changes = append(changes, Change{
				DrugID:       curr.DrugID,
				NCTID:        curr.NCTID,
				Kind:         KindEnrollmentChanged,
				Old:          fmt.Sprintf("%d", old.Enrollment),
				New:          fmt.Sprintf("%d", curr.Enrollment),
				Significance: LevelLow,
			})
		}
	}

	return changes
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Build assembles a model.Digest from detected changes. Events are grouped
// by drug in first-seen order, the digest significance is the maximum event
// significance, and the summary is one line per drug. A run with no changes
// returns nil; callers persist and notify nothing.
func Build(changes []Change, drugNames map[int64]string, now time.Time) *model.Digest {
	if len(changes) == 0 {
		return nil
	}

	order := make([]int64, 0, 8)
	byDrug := make(map[int64][]Change)
	top := LevelLow
	for _, c := range changes {
		if _, seen := byDrug[c.DrugID]; !seen {
			order = append(order, c.DrugID)
		}
		byDrug[c.DrugID] = append(byDrug[c.DrugID], c)
		if c.Significance.Rank() > top.Rank() {
			top = c.Significance
		}
	}

	d := &model.Digest{
		Significance: string(top),
		CreatedAt:    now,
	}

	var summary strings.Builder
	for _, drugID := range order {
		name := drugNames[drugID]
		if name == "" {
			name = fmt.Sprintf("drug #%d", drugID)
		}

		drugChanges := byDrug[drugID]
		fmt.Fprintf(&summary, "%s: %s\n", name, summarize(drugChanges))

		for _, c := range drugChanges {
			d.Events = append(d.Events, model.DigestEvent{
				DrugID:       c.DrugID,
				DrugName:     name,
				NCTID:        c.NCTID,
				Kind:         string(c.Kind),
				OldValue:     c.Old,
				NewValue:     c.New,
				Significance: string(c.Significance),
			})
		}
	}

	d.Summary = strings.TrimRight(summary.String(), "\n")
	return d
}

// summarize renders one human-readable line for a drug's changes, e.g.
// "1 new trial, NCT01234567 advanced to Phase 3".
func summarize(changes []Change) string {
	var parts []string
	added := 0
	for _, c := range changes {
		switch c.Kind {
		case KindTrialAdded:
			added++
		case KindPhaseChanged:
			parts = append(parts, fmt.Sprintf("%s moved from %s to %s", c.NCTID, c.Old, c.New))
		case KindStatusChanged:
			parts = append(parts, fmt.Sprintf("%s is now %s", c.NCTID, c.New))
		case KindEnrollmentChanged:
			parts = append(parts, fmt.Sprintf("%s enrollment %s -> %s", c.NCTID, c.Old, c.New))
		}
	}
	if added == 1 {
		parts = append([]string{"1 new trial"}, parts...)
	} else if added > 1 {
		parts = append([]string{fmt.Sprintf("%d new trials", added)}, parts...)
	}
	return strings.Join(parts, ", ")
}
