package ctgov

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmintel/pharmintel/internal/config"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.DefaultSourcesConfig()
	cfg.ClinicalTrials.BaseURL = srv.URL
	cfg.ClinicalTrials.RequestsPerSecond = 1000
	cfg.PageSize = 2

	log := zerolog.Nop()
	return New(cfg, &log)
}

func TestSearchByInterventionFollowsPages(t *testing.T) {
	page := 0
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/studies", r.URL.Path)
		assert.Equal(t, "pembrolizumab", r.URL.Query().Get("query.intr"))
		assert.Equal(t, "2", r.URL.Query().Get("pageSize"))

		page++
		resp := map[string]any{
			"studies": []map[string]any{
				{
					"protocolSection": map[string]any{
						"identificationModule": map[string]any{
							"nctId":      "NCT0000000" + r.URL.Query().Get("pageToken") + "1",
							"briefTitle": "Study",
						},
						"statusModule": map[string]any{
							"overallStatus":            "ACTIVE_NOT_RECRUITING",
							"startDateStruct":          map[string]any{"date": "2024-05"},
							"lastUpdatePostDateStruct": map[string]any{"date": "2026-01-15"},
						},
						"designModule": map[string]any{
							"phases":         []string{"PHASE3"},
							"enrollmentInfo": map[string]any{"count": 120},
						},
						"conditionsModule": map[string]any{"conditions": []string{"Melanoma"}},
						"sponsorCollaboratorsModule": map[string]any{
							"leadSponsor": map[string]any{"name": "Merck"},
						},
					},
				},
			},
		}
		if page == 1 {
			resp["nextPageToken"] = "p2"
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	trials, err := client.SearchByIntervention(context.Background(), "pembrolizumab")
	require.NoError(t, err)
	require.Len(t, trials, 2)

	first := trials[0]
	assert.Equal(t, "NCT00000001", first.NCTID)
	assert.Equal(t, "Phase 3", first.Phase)
	assert.Equal(t, "Active, not recruiting", first.Status)
	assert.Equal(t, 120, first.Enrollment)
	assert.Equal(t, []string{"Melanoma"}, first.Conditions)
	assert.Equal(t, "Merck", first.Sponsor)
	// The registry's last-update date survives conversion; the trial
	// upsert persists it instead of stamping the sync time.
	assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), first.LastUpdated)
	require.NotNil(t, first.StartDate)
	assert.Equal(t, 2024, first.StartDate.Year())
	assert.Equal(t, 2, page)
}

func TestSearchByInterventionServerError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})

	_, err := client.SearchByIntervention(context.Background(), "aspirin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestFormatPhases(t *testing.T) {
	assert.Equal(t, "", formatPhases(nil))
	assert.Equal(t, "Phase 1", formatPhases([]string{"PHASE1"}))
	assert.Equal(t, "Phase 2/Phase 3", formatPhases([]string{"PHASE2", "PHASE3"}))
	assert.Equal(t, "Early Phase 1", formatPhases([]string{"EARLY_PHASE1"}))
}
