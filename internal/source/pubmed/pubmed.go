// Package pubmed is the client for the NCBI E-utilities API (esearch +
// esummary), used to find recent publications mentioning a drug.
//
// NCBI allows 3 requests per second without an API key and 10 with one;
// the rate comes from config and the key, when present, rides along on
// every call.
package pubmed

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pharmintel/pharmintel/internal/config"
	"github.com/pharmintel/pharmintel/internal/model"
	"github.com/pharmintel/pharmintel/internal/source"
)

const toolName = "pharmintel"

// Client queries PubMed through the E-utilities endpoints.
type Client struct {
	api     *source.Client
	contact string
	retMax  int
}

func New(cfg *config.SourcesConfig, log *zerolog.Logger) *Client {
	retMax := cfg.PageSize
	if retMax <= 0 {
		retMax = 50
	}
	return &Client{
		api:     source.NewClient("pubmed", cfg.PubMed, 3, cfg.ContactEmail, log),
		contact: cfg.ContactEmail,
		retMax:  retMax,
	}
}

type esearchResponse struct {
	ESearchResult struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// esummaryResponse has a dynamic "result" object: one key per UID plus a
// "uids" index array, so it decodes in two steps.
type esummaryResponse struct {
	Result json.RawMessage `json:"result"`
}

type summaryEntry struct {
	UID             string `json:"uid"`
	Title           string `json:"title"`
	FullJournalName string `json:"fulljournalname"`
	PubDate         string `json:"pubdate"`
	Authors         []struct {
		Name string `json:"name"`
	} `json:"authors"`
}

// baseParams carries the parameters NCBI asks every E-utilities consumer
// to send.
func (c *Client) baseParams() url.Values {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("retmode", "json")
	params.Set("tool", toolName)
	if c.contact != "" {
		params.Set("email", c.contact)
	}
	if key := c.api.APIKey(); key != "" {
		params.Set("api_key", key)
	}
	return params
}

// SearchPapers finds publications for a drug name and returns their
// summaries. The two-step flow mirrors E-utilities: esearch produces
// PMIDs, esummary fills in titles, journals, authors, and dates.
func (c *Client) SearchPapers(ctx context.Context, drugName string) ([]model.Paper, error) {
	searchParams := c.baseParams()
	searchParams.Set("term", drugName)
	searchParams.Set("retmax", strconv.Itoa(c.retMax))
	searchParams.Set("sort", "pub_date")

	var search esearchResponse
	if err := c.api.GetJSON(ctx, "/esearch.fcgi", searchParams, &search); err != nil {
		return nil, err
	}

	ids := search.ESearchResult.IDList
	if len(ids) == 0 {
		return nil, nil
	}

	summaryParams := c.baseParams()
	summaryParams.Set("id", strings.Join(ids, ","))

	var summary esummaryResponse
	if err := c.api.GetJSON(ctx, "/esummary.fcgi", summaryParams, &summary); err != nil {
		return nil, err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(summary.Result, &raw); err != nil {
		return nil, err
	}

	papers := make([]model.Paper, 0, len(ids))
	for _, id := range ids {
		entryRaw, ok := raw[id]
		if !ok {
			continue
		}
		var entry summaryEntry
		if err := json.Unmarshal(entryRaw, &entry); err != nil {
			continue
		}

		paper := model.Paper{
			PMID:    entry.UID,
			Title:   entry.Title,
			Journal: entry.FullJournalName,
		}
		for _, a := range entry.Authors {
			paper.Authors = append(paper.Authors, a.Name)
		}
		if t := parsePubDate(entry.PubDate); t != nil {
			paper.PubDate = *t
		}
		papers = append(papers, paper)
	}

	return papers, nil
}

// parsePubDate handles PubMed's loose date formats: "2026 Aug 12",
// "2026 Aug", and plain "2026".
func parsePubDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006 Jan 2", "2006 Jan", "2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
