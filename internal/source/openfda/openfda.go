// Package openfda is the client for the OpenFDA drug APIs, used to pull
// aggregated adverse-event reaction counts and label excerpts.
package openfda

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/pharmintel/pharmintel/internal/config"
	"github.com/pharmintel/pharmintel/internal/source"
)

// Client queries the api.fda.gov drug endpoints.
type Client struct {
	api   *source.Client
	limit int
}

func New(cfg *config.SourcesConfig, log *zerolog.Logger) *Client {
	limit := cfg.PageSize
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	return &Client{
		api:   source.NewClient("openfda", cfg.OpenFDA, 1, cfg.ContactEmail, log),
		limit: limit,
	}
}

type countResponse struct {
	Results []struct {
		Term  string `json:"term"`
		Count int    `json:"count"`
	} `json:"results"`
}

// ReactionCount is one aggregated adverse-reaction bucket.
type ReactionCount struct {
	Reaction string
	Count    int
}

// TopReactions returns the most frequently reported adverse reactions for
// a drug, using OpenFDA's count aggregation over the event dataset.
//
// OpenFDA answers 404 for drugs with no reports at all; that case comes
// back as an empty slice, not an error.
func (c *Client) TopReactions(ctx context.Context, drugName string) ([]ReactionCount, error) {
	query := url.Values{}
	query.Set("search", fmt.Sprintf(`patient.drug.medicinalproduct:%q`, drugName))
	query.Set("count", "patient.reaction.reactionmeddrapt.exact")
	query.Set("limit", strconv.Itoa(c.limit))
	if key := c.api.APIKey(); key != "" {
		query.Set("api_key", key)
	}

	var resp countResponse
	if err := c.api.GetJSON(ctx, "/drug/event.json", query, &resp); err != nil {
		if source.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	counts := make([]ReactionCount, 0, len(resp.Results))
	for _, r := range resp.Results {
		counts = append(counts, ReactionCount{Reaction: r.Term, Count: r.Count})
	}
	return counts, nil
}

type labelResponse struct {
	Results []struct {
		IndicationsAndUsage []string `json:"indications_and_usage"`
	} `json:"results"`
}

// Indications fetches the indications-and-usage section of a drug's most
// recent label, or "" when OpenFDA has no label for the name.
func (c *Client) Indications(ctx context.Context, drugName string) (string, error) {
	query := url.Values{}
	query.Set("search", fmt.Sprintf(`openfda.generic_name:%q`, drugName))
	query.Set("limit", "1")
	if key := c.api.APIKey(); key != "" {
		query.Set("api_key", key)
	}

	var resp labelResponse
	if err := c.api.GetJSON(ctx, "/drug/label.json", query, &resp); err != nil {
		if source.IsNotFound(err) {
			return "", nil
		}
		return "", err
	}

	if len(resp.Results) == 0 || len(resp.Results[0].IndicationsAndUsage) == 0 {
		return "", nil
	}
	return resp.Results[0].IndicationsAndUsage[0], nil
}
