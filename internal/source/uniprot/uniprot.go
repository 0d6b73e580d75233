// Package uniprot is the client for the UniProt REST API, used to enrich
// targets with protein accessions and function annotations.
package uniprot

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/pharmintel/pharmintel/internal/config"
	"github.com/pharmintel/pharmintel/internal/source"
)

// Client queries the UniProtKB search endpoint.
type Client struct {
	api *source.Client
}

func New(cfg *config.SourcesConfig, log *zerolog.Logger) *Client {
	return &Client{
		api: source.NewClient("uniprot", cfg.UniProt, 2, cfg.ContactEmail, log),
	}
}

type searchResponse struct {
	Results []struct {
		PrimaryAccession   string `json:"primaryAccession"`
		ProteinDescription struct {
			RecommendedName struct {
				FullName struct {
					Value string `json:"value"`
				} `json:"fullName"`
			} `json:"recommendedName"`
		} `json:"proteinDescription"`
		Comments []struct {
			CommentType string `json:"commentType"`
			Texts       []struct {
				Value string `json:"value"`
			} `json:"texts"`
		} `json:"comments"`
	} `json:"results"`
}

// Protein is the subset of a UniProtKB entry the target tables keep.
type Protein struct {
	Accession string
	Name      string
	Function  string
}

// LookupGene fetches the reviewed human UniProtKB entry for a gene symbol.
// Returns (nil, nil) when no reviewed entry exists.
func (c *Client) LookupGene(ctx context.Context, geneSymbol string) (*Protein, error) {
	query := url.Values{}
	query.Set("query", fmt.Sprintf("gene_exact:%s AND organism_id:9606 AND reviewed:true", geneSymbol))
	query.Set("format", "json")
	query.Set("size", "1")
	query.Set("fields", "accession,protein_name,cc_function")

	var resp searchResponse
	if err := c.api.GetJSON(ctx, "/uniprotkb/search", query, &resp); err != nil {
		return nil, err
	}

	if len(resp.Results) == 0 {
		return nil, nil
	}

	entry := resp.Results[0]
	protein := &Protein{
		Accession: entry.PrimaryAccession,
		Name:      entry.ProteinDescription.RecommendedName.FullName.Value,
	}
	for _, comment := range entry.Comments {
		if comment.CommentType == "FUNCTION" && len(comment.Texts) > 0 {
			protein.Function = comment.Texts[0].Value
			break
		}
	}

	return protein, nil
}
