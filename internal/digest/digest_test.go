package digest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmintel/pharmintel/internal/model"
)

func trial(drugID int64, nct, phase, status string, enrollment int) model.Trial {
	return model.Trial{
		DrugID:     drugID,
		NCTID:      nct,
		Phase:      phase,
		Status:     status,
		Enrollment: enrollment,
	}
}

func TestDetectNewTrial(t *testing.T) {
	stored := []model.Trial{trial(1, "NCT00000001", "Phase 1", "Recruiting", 50)}
	fetched := []model.Trial{
		trial(1, "NCT00000001", "Phase 1", "Recruiting", 50),
		trial(1, "NCT00000002", "Phase 2", "Recruiting", 120),
	}

	changes := Detect(stored, fetched)
	require.Len(t, changes, 1)
	assert.Equal(t, KindTrialAdded, changes[0].Kind)
	assert.Equal(t, "NCT00000002", changes[0].NCTID)
	assert.Equal(t, LevelMedium, changes[0].Significance)
}

func TestDetectPhaseAdvanceIsHigh(t *testing.T) {
	stored := []model.Trial{trial(1, "NCT00000001", "Phase 2", "Active, not recruiting", 200)}
	fetched := []model.Trial{trial(1, "NCT00000001", "Phase 3", "Active, not recruiting", 200)}

	changes := Detect(stored, fetched)
	require.Len(t, changes, 1)
	assert.Equal(t, KindPhaseChanged, changes[0].Kind)
	assert.Equal(t, "Phase 2", changes[0].Old)
	assert.Equal(t, "Phase 3", changes[0].New)
	assert.Equal(t, LevelHigh, changes[0].Significance)
}

func TestDetectPhaseRegressionIsMedium(t *testing.T) {
	stored := []model.Trial{trial(1, "NCT00000001", "Phase 3", "Recruiting", 10)}
	fetched := []model.Trial{trial(1, "NCT00000001", "Phase 2", "Recruiting", 10)}

	changes := Detect(stored, fetched)
	require.Len(t, changes, 1)
	assert.Equal(t, LevelMedium, changes[0].Significance)
}

func TestDetectTerminalStatusIsHigh(t *testing.T) {
	stored := []model.Trial{trial(1, "NCT00000001", "Phase 2", "Recruiting", 80)}
	fetched := []model.Trial{trial(1, "NCT00000001", "Phase 2", "Terminated", 80)}

	changes := Detect(stored, fetched)
	require.Len(t, changes, 1)
	assert.Equal(t, KindStatusChanged, changes[0].Kind)
	assert.Equal(t, LevelHigh, changes[0].Significance)
}

func TestDetectEnrollmentOnlyIsLow(t *testing.T) {
	stored := []model.Trial{trial(1, "NCT00000001", "Phase 2", "Recruiting", 80)}
	fetched := []model.Trial{trial(1, "NCT00000001", "Phase 2", "Recruiting", 95)}

	changes := Detect(stored, fetched)
	require.Len(t, changes, 1)
	assert.Equal(t, KindEnrollmentChanged, changes[0].Kind)
	assert.Equal(t, LevelLow, changes[0].Significance)
	assert.Equal(t, "80", changes[0].Old)
	assert.Equal(t, "95", changes[0].New)
}

func TestDetectUnchangedSnapshotEmitsNothing(t *testing.T) {
	rows := []model.Trial{
		trial(1, "NCT00000001", "Phase 2", "Recruiting", 80),
		trial(1, "NCT00000002", "Phase 1", "Completed", 40),
	}
	assert.Empty(t, Detect(rows, rows))
}

func TestDetectIgnoresCaseAndWhitespaceDrift(t *testing.T) {
	stored := []model.Trial{trial(1, "NCT00000001", "PHASE 2", "recruiting", 80)}
	fetched := []model.Trial{trial(1, "NCT00000001", "Phase 2 ", "Recruiting", 80)}

	assert.Empty(t, Detect(stored, fetched))
}

func TestDetectMissingFromFetchEmitsNothing(t *testing.T) {
	// Partial fetches must not look like deletions.
	stored := []model.Trial{
		trial(1, "NCT00000001", "Phase 2", "Recruiting", 80),
		trial(1, "NCT00000002", "Phase 1", "Completed", 40),
	}
	fetched := []model.Trial{trial(1, "NCT00000001", "Phase 2", "Recruiting", 80)}

	assert.Empty(t, Detect(stored, fetched))
}

func TestBuildGroupsByDrugAndRanksSignificance(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	changes := []Change{
		{DrugID: 2, NCTID: "NCT00000010", Kind: KindTrialAdded, New: "Phase 1 (Recruiting)", Significance: LevelMedium},
		{DrugID: 1, NCTID: "NCT00000001", Kind: KindPhaseChanged, Old: "Phase 2", New: "Phase 3", Significance: LevelHigh},
		{DrugID: 2, NCTID: "NCT00000011", Kind: KindEnrollmentChanged, Old: "10", New: "20", Significance: LevelLow},
	}
	names := map[int64]string{1: "Pembrolizumab", 2: "Nivolumab"}

	d := Build(changes, names, now)
	require.NotNil(t, d)

	assert.Equal(t, "high", d.Significance)
	assert.Equal(t, now, d.CreatedAt)
	require.Len(t, d.Events, 3)

	// First-seen drug order: drug 2 appeared first in the change list.
	assert.Equal(t, "Nivolumab", d.Events[0].DrugName)
	assert.Equal(t, "Nivolumab", d.Events[1].DrugName)
	assert.Equal(t, "Pembrolizumab", d.Events[2].DrugName)

	assert.Contains(t, d.Summary, "Nivolumab: 1 new trial")
	assert.Contains(t, d.Summary, "Pembrolizumab: NCT00000001 moved from Phase 2 to Phase 3")
}

func TestBuildEmptyChangesReturnsNil(t *testing.T) {
	assert.Nil(t, Build(nil, nil, time.Now()))
}

func TestLevelOrdering(t *testing.T) {
	assert.True(t, LevelHigh.AtLeast(LevelMedium))
	assert.True(t, LevelMedium.AtLeast(LevelMedium))
	assert.False(t, LevelLow.AtLeast(LevelMedium))
	assert.Equal(t, LevelMedium, ParseLevel("bogus"))
	assert.Equal(t, LevelHigh, ParseLevel("HIGH"))
}

// trialKey mirrors the trials table's unique key: one association row per
// (drug, NCT) pair, so a combination study tracked for two drugs never
// contends for a single row.
type trialKey struct {
	drugID int64
	nctID  string
}

func TestDetectCombinationTrialStaysQuiet(t *testing.T) {
	// NCT00000009 lists both tracked drugs as interventions, so the
	// registry returns it for both drugs on every sync.
	fetchedFor := map[int64][]model.Trial{
		1: {
			trial(1, "NCT00000005", "Phase 2", "Recruiting", 80),
			trial(1, "NCT00000009", "Phase 3", "Recruiting", 500),
		},
		2: {
			trial(2, "NCT00000009", "Phase 3", "Recruiting", 500),
		},
	}

	store := make(map[trialKey]model.Trial)
	listByDrug := func(drugID int64) []model.Trial {
		var trials []model.Trial
		for k, tr := range store {
			if k.drugID == drugID {
				trials = append(trials, tr)
			}
		}
		return trials
	}

	syncRound := func() []Change {
		var changes []Change
		for _, drugID := range []int64{1, 2} {
			fetched := fetchedFor[drugID]
			changes = append(changes, Detect(listByDrug(drugID), fetched)...)
			for _, tr := range fetched {
				store[trialKey{drugID: tr.DrugID, nctID: tr.NCTID}] = tr
			}
		}
		return changes
	}

	// First round discovers everything: two trials for drug 1, the shared
	// trial again for drug 2.
	first := syncRound()
	assert.Len(t, first, 3)

	// Re-running with byte-identical upstream data must stay silent; a
	// shared trial is not "added" again for either drug.
	assert.Empty(t, syncRound())
	assert.Empty(t, syncRound())
}
