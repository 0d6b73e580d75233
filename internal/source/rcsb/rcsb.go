// Package rcsb is the client for the RCSB PDB search API, used to find
// experimental structure IDs for a protein.
package rcsb

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/pharmintel/pharmintel/internal/config"
	"github.com/pharmintel/pharmintel/internal/source"
)

// Client posts structured queries to the RCSB full-text search service.
type Client struct {
	api   *source.Client
	limit int
}

func New(cfg *config.SourcesConfig, log *zerolog.Logger) *Client {
	limit := cfg.PageSize
	if limit <= 0 || limit > 25 {
		limit = 10
	}
	return &Client{
		api:   source.NewClient("rcsb", cfg.RCSB, 2, cfg.ContactEmail, log),
		limit: limit,
	}
}

type searchResponse struct {
	ResultSet []struct {
		Identifier string `json:"identifier"`
	} `json:"result_set"`
}

// StructureIDs returns PDB entry IDs matching a UniProt accession,
// best-scoring first. RCSB answers 204 with no body when nothing matches;
// that decodes as an empty result set.
func (c *Client) StructureIDs(ctx context.Context, uniprotAccession string) ([]string, error) {
	if uniprotAccession == "" {
		return nil, nil
	}

	query := map[string]any{
		"query": map[string]any{
			"type":    "terminal",
			"service": "full_text",
			"parameters": map[string]any{
				"value": uniprotAccession,
			},
		},
		"return_type": "entry",
		"request_options": map[string]any{
			"paginate": map[string]any{
				"start": 0,
				"rows":  c.limit,
			},
		},
	}

	var resp searchResponse
	if err := c.api.PostJSON(ctx, "/query", query, &resp); err != nil {
		if source.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	ids := make([]string, 0, len(resp.ResultSet))
	for _, r := range resp.ResultSet {
		ids = append(ids, r.Identifier)
	}
	return ids, nil
}
