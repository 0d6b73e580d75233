package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeedDrugList(t *testing.T) {
	s := &SourcesConfig{SeedDrugs: " aspirin, Pembrolizumab ,,semaglutide"}
	assert.Equal(t, []string{"aspirin", "Pembrolizumab", "semaglutide"}, s.SeedDrugList())

	assert.Nil(t, (&SourcesConfig{}).SeedDrugList())
}

func TestSeedTickerMap(t *testing.T) {
	s := &SourcesConfig{SeedTickers: "Pembrolizumab=mrk, semaglutide = NVO ,broken,=ABC,empty="}
	assert.Equal(t, map[string]string{
		"Pembrolizumab": "MRK",
		"semaglutide":   "NVO",
	}, s.SeedTickerMap())
}

func TestDefaultSchedulerLeavesTrialsToDigestBuild(t *testing.T) {
	cfg := DefaultSchedulerConfig()

	// The digest build runs the trial sync and digests its changes; a
	// separately scheduled plain trial sync would consume those changes
	// without digesting them.
	assert.Empty(t, cfg.TrialsSpec)
	assert.NotEmpty(t, cfg.DigestSpec)
}
