// Package model defines the domain types shared across repositories,
// services, ETL syncs, and API handlers.
//
// These structs map one-to-one onto the database schema and are also the
// shapes serialized in API responses. External source payloads are decoded
// into source-local types first and converted into these here-defined types
// before anything is persisted.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Drug is a deduplicated drug entity. Name holds the representative display
// string; NormalizedName is the canonical dedup key produced by the
// normalize package and is unique across the table.
type Drug struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	NormalizedName string    `json:"normalized_name"`
	Description    string    `json:"description,omitempty"`
	Ticker         string    `json:"ticker,omitempty"`
	MaxPhase       int       `json:"max_phase"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Variants lists the raw display strings that collapsed into this drug
	// during deduplication. Populated on detail reads, empty on list reads.
	Variants []string `json:"variants,omitempty"`
}

// Target is a biological target (gene/protein) associated with a drug,
// enriched from OpenTargets, UniProt, and RCSB PDB.
type Target struct {
	ID               int64     `json:"id"`
	DrugID           int64     `json:"drug_id"`
	GeneSymbol       string    `json:"gene_symbol"`
	EnsemblID        string    `json:"ensembl_id,omitempty"`
	UniProtAccession string    `json:"uniprot_accession,omitempty"`
	ProteinName      string    `json:"protein_name,omitempty"`
	Function         string    `json:"function,omitempty"`
	PDBIDs           []string  `json:"pdb_ids,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Trial is a clinical trial registered on ClinicalTrials.gov. NCTID is the
// registry identifier and the natural key for upserts and change detection.
type Trial struct {
	ID          int64      `json:"id"`
	DrugID      int64      `json:"drug_id"`
	NCTID       string     `json:"nct_id"`
	Title       string     `json:"title"`
	Phase       string     `json:"phase"`
	Status      string     `json:"status"`
	Enrollment  int        `json:"enrollment"`
	Conditions  []string   `json:"conditions,omitempty"`
	Sponsor     string     `json:"sponsor,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	LastUpdated time.Time  `json:"last_updated"`
}

// Paper is a publication indexed in PubMed that mentions a drug.
type Paper struct {
	ID      int64     `json:"id"`
	DrugID  int64     `json:"drug_id"`
	PMID    string    `json:"pmid"`
	Title   string    `json:"title"`
	Journal string    `json:"journal,omitempty"`
	Authors []string  `json:"authors,omitempty"`
	PubDate time.Time `json:"pub_date"`
}

// AdverseEvent is an aggregated adverse-reaction count from OpenFDA's
// drug event endpoint for a single drug.
type AdverseEvent struct {
	DrugID    int64     `json:"drug_id"`
	Reaction  string    `json:"reaction"`
	Count     int       `json:"count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Quote is a point-in-time market quote for a drug sponsor's ticker,
// fetched from Yahoo Finance. Prices are decimals, not floats, so digests
// and exports never show binary rounding artifacts.
type Quote struct {
	ID        int64           `json:"id"`
	Ticker    string          `json:"ticker"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	MarketCap decimal.Decimal `json:"market_cap"`
	AsOf      time.Time       `json:"as_of"`
}

// Watchlist is a named, user-owned set of drugs. UserID is the subject
// claim from the auth token.
type Watchlist struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`

	Items []WatchlistItem `json:"items,omitempty"`
}

// WatchlistItem links a drug into a watchlist.
type WatchlistItem struct {
	WatchlistID uuid.UUID `json:"watchlist_id"`
	DrugID      int64     `json:"drug_id"`
	DrugName    string    `json:"drug_name,omitempty"`
	AddedAt     time.Time `json:"added_at"`
}

// Digest is a persisted change summary produced by a digest run. Significance
// is the highest significance among its events.
type Digest struct {
	ID           int64         `json:"id"`
	Significance string        `json:"significance"`
	Summary      string        `json:"summary"`
	CreatedAt    time.Time     `json:"created_at"`
	Events       []DigestEvent `json:"events,omitempty"`
}

// DigestEvent is a single detected change inside a digest.
type DigestEvent struct {
	ID           int64  `json:"id"`
	DigestID     int64  `json:"digest_id"`
	DrugID       int64  `json:"drug_id"`
	DrugName     string `json:"drug_name,omitempty"`
	NCTID        string `json:"nct_id"`
	Kind         string `json:"kind"`
	OldValue     string `json:"old_value,omitempty"`
	NewValue     string `json:"new_value,omitempty"`
	Significance string `json:"significance"`
}
