// Package opentargets is the client for the OpenTargets Platform GraphQL
// API, used to resolve a drug's linked biological targets.
package opentargets

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pharmintel/pharmintel/internal/config"
	"github.com/pharmintel/pharmintel/internal/model"
	"github.com/pharmintel/pharmintel/internal/source"
)

// Client talks to the OpenTargets GraphQL endpoint. The base URL from
// config points directly at the graphql path, so requests post to "".
type Client struct {
	api *source.Client
}

func New(cfg *config.SourcesConfig, log *zerolog.Logger) *Client {
	return &Client{
		api: source.NewClient("opentargets", cfg.OpenTargets, 2, cfg.ContactEmail, log),
	}
}

// searchQuery resolves a free-text drug name to its ChEMBL ID.
const searchQuery = `
query drugSearch($q: String!) {
  search(queryString: $q, entityNames: ["drug"], page: {index: 0, size: 1}) {
    hits { id name }
  }
}`

// targetsQuery fetches the targets linked to a drug by ChEMBL ID, plus the
// maximum clinical trial phase OpenTargets has recorded for it.
const targetsQuery = `
query drugTargets($chemblId: String!) {
  drug(chemblId: $chemblId) {
    id
    name
    maximumClinicalTrialPhase
    linkedTargets {
      rows { id approvedSymbol approvedName }
    }
  }
}`

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type searchResponse struct {
	Data struct {
		Search struct {
			Hits []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"hits"`
		} `json:"search"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type targetsResponse struct {
	Data struct {
		Drug *struct {
			ID                        string  `json:"id"`
			Name                      string  `json:"name"`
			MaximumClinicalTrialPhase float64 `json:"maximumClinicalTrialPhase"`
			LinkedTargets             struct {
				Rows []struct {
					ID             string `json:"id"`
					ApprovedSymbol string `json:"approvedSymbol"`
					ApprovedName   string `json:"approvedName"`
				} `json:"rows"`
			} `json:"linkedTargets"`
		} `json:"drug"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// DrugInfo is the OpenTargets view of one drug: its registry ID, maximum
// trial phase, and linked targets.
type DrugInfo struct {
	ChemblID string
	Name     string
	MaxPhase int
	Targets  []model.Target
}

// LookupDrug resolves a drug name into its ChEMBL ID and linked targets.
// Returns (nil, nil) when OpenTargets does not know the drug, which is
// normal for early-stage or compound names; callers skip those.
func (c *Client) LookupDrug(ctx context.Context, drugName string) (*DrugInfo, error) {
	var search searchResponse
	err := c.api.PostJSON(ctx, "", graphqlRequest{
		Query:     searchQuery,
		Variables: map[string]any{"q": drugName},
	}, &search)
	if err != nil {
		return nil, err
	}
	if len(search.Errors) > 0 {
		return nil, fmt.Errorf("opentargets search: %s", search.Errors[0].Message)
	}
	if len(search.Data.Search.Hits) == 0 {
		return nil, nil
	}

	chemblID := search.Data.Search.Hits[0].ID

	var targets targetsResponse
	err = c.api.PostJSON(ctx, "", graphqlRequest{
		Query:     targetsQuery,
		Variables: map[string]any{"chemblId": chemblID},
	}, &targets)
	if err != nil {
		return nil, err
	}
	if len(targets.Errors) > 0 {
		return nil, fmt.Errorf("opentargets drug: %s", targets.Errors[0].Message)
	}
	if targets.Data.Drug == nil {
		return nil, nil
	}

	info := &DrugInfo{
		ChemblID: targets.Data.Drug.ID,
		Name:     targets.Data.Drug.Name,
		MaxPhase: int(targets.Data.Drug.MaximumClinicalTrialPhase),
	}
	for _, row := range targets.Data.Drug.LinkedTargets.Rows {
		info.Targets = append(info.Targets, model.Target{
			GeneSymbol:  row.ApprovedSymbol,
			EnsemblID:   row.ID,
			ProteinName: row.ApprovedName,
		})
	}

	return info, nil
}
