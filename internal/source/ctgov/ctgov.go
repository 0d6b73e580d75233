// Package ctgov is the client for the ClinicalTrials.gov v2 API.
package ctgov

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pharmintel/pharmintel/internal/config"
	"github.com/pharmintel/pharmintel/internal/model"
	"github.com/pharmintel/pharmintel/internal/source"
)

// Client queries the ClinicalTrials.gov study search endpoint.
type Client struct {
	api      *source.Client
	pageSize int
}

// New builds a ctgov client from the sources config.
func New(cfg *config.SourcesConfig, log *zerolog.Logger) *Client {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Client{
		api:      source.NewClient("ctgov", cfg.ClinicalTrials, 2, cfg.ContactEmail, log),
		pageSize: pageSize,
	}
}

// studiesResponse mirrors the slice of the v2 payload this client reads.
type studiesResponse struct {
	Studies []struct {
		ProtocolSection struct {
			IdentificationModule struct {
				NCTID      string `json:"nctId"`
				BriefTitle string `json:"briefTitle"`
			} `json:"identificationModule"`
			StatusModule struct {
				OverallStatus   string `json:"overallStatus"`
				StartDateStruct struct {
					Date string `json:"date"`
				} `json:"startDateStruct"`
				LastUpdatePostDateStruct struct {
					Date string `json:"date"`
				} `json:"lastUpdatePostDateStruct"`
			} `json:"statusModule"`
			DesignModule struct {
				Phases         []string `json:"phases"`
				EnrollmentInfo struct {
					Count int `json:"count"`
				} `json:"enrollmentInfo"`
			} `json:"designModule"`
			ConditionsModule struct {
				Conditions []string `json:"conditions"`
			} `json:"conditionsModule"`
			SponsorCollaboratorsModule struct {
				LeadSponsor struct {
					Name string `json:"name"`
				} `json:"leadSponsor"`
			} `json:"sponsorCollaboratorsModule"`
		} `json:"protocolSection"`
	} `json:"studies"`
	NextPageToken string `json:"nextPageToken"`
}

// SearchByIntervention fetches every study whose intervention matches the
// drug name, following page tokens until the registry runs out of pages or
// the context is canceled.
func (c *Client) SearchByIntervention(ctx context.Context, drugName string) ([]model.Trial, error) {
	var trials []model.Trial
	pageToken := ""

	for {
		query := url.Values{}
		query.Set("query.intr", drugName)
		query.Set("pageSize", strconv.Itoa(c.pageSize))
		query.Set("format", "json")
		if pageToken != "" {
			query.Set("pageToken", pageToken)
		}

		var resp studiesResponse
		if err := c.api.GetJSON(ctx, "/studies", query, &resp); err != nil {
			return trials, err
		}

		for _, study := range resp.Studies {
			ps := study.ProtocolSection
			trial := model.Trial{
				NCTID:      ps.IdentificationModule.NCTID,
				Title:      ps.IdentificationModule.BriefTitle,
				Phase:      formatPhases(ps.DesignModule.Phases),
				Status:     formatStatus(ps.StatusModule.OverallStatus),
				Enrollment: ps.DesignModule.EnrollmentInfo.Count,
				Conditions: ps.ConditionsModule.Conditions,
				Sponsor:    ps.SponsorCollaboratorsModule.LeadSponsor.Name,
			}
			if d := parseRegistryDate(ps.StatusModule.StartDateStruct.Date); d != nil {
				trial.StartDate = d
			}
			if d := parseRegistryDate(ps.StatusModule.LastUpdatePostDateStruct.Date); d != nil {
				trial.LastUpdated = *d
			}
			trials = append(trials, trial)
		}

		if resp.NextPageToken == "" {
			return trials, nil
		}
		pageToken = resp.NextPageToken
	}
}

// formatPhases turns the registry's enum list ("PHASE3", "EARLY_PHASE1")
// into the display form used across the app ("Phase 3", "Early Phase 1").
// Multi-phase studies join with a slash: "Phase 2/Phase 3".
func formatPhases(phases []string) string {
	if len(phases) == 0 {
		return ""
	}
	formatted := make([]string, 0, len(phases))
	for _, p := range phases {
		p = strings.ReplaceAll(strings.ToLower(p), "_", " ")
		// "phase3" -> "phase 3"
		for i := 1; i <= 4; i++ {
			digit := strconv.Itoa(i)
			p = strings.ReplaceAll(p, "phase"+digit, "phase "+digit)
		}
		formatted = append(formatted, titleWords(p))
	}
	return strings.Join(formatted, "/")
}

// formatStatus maps "ACTIVE_NOT_RECRUITING" onto "Active, not recruiting"
// and the simpler enums onto plain title case.
func formatStatus(status string) string {
	if status == "" {
		return ""
	}
	out := strings.ToLower(strings.ReplaceAll(status, "_", " "))
	if out[0] >= 'a' && out[0] <= 'z' {
		out = string(out[0]-'a'+'A') + out[1:]
	}
	out = strings.Replace(out, "Active not", "Active, not", 1)
	return out
}

func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 0 && w[0] >= 'a' && w[0] <= 'z' {
			words[i] = string(w[0]-'a'+'A') + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// parseRegistryDate handles the registry's two date granularities,
// "2024-05-17" and "2024-05".
func parseRegistryDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", "2006-01"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
