package config

import (
	"fmt"
	"strings"
	"time"
)

// SourcesConfig groups settings for every external data source the ETL
// layer talks to. Each source carries its own base URL and request rate so
// per-provider limits (NCBI's 3 req/s, for instance) are honored
// independently.
type SourcesConfig struct {
	ClinicalTrials SourceConfig `koanf:"clinical_trials"`
	OpenTargets    SourceConfig `koanf:"open_targets"`
	PubMed         SourceConfig `koanf:"pubmed"`
	UniProt        SourceConfig `koanf:"uniprot"`
	OpenFDA        SourceConfig `koanf:"openfda"`
	RCSB           SourceConfig `koanf:"rcsb"`
	YahooFinance   SourceConfig `koanf:"yahoo_finance"`

	// ContactEmail is sent in the User-Agent / tool parameters where a
	// provider asks for one (NCBI E-utilities does).
	ContactEmail string `koanf:"contact_email"`

	// PageSize caps how many records a single fetch page requests.
	PageSize int `koanf:"page_size"`

	// SeedDrugs is a comma-separated list of drug names to track. Syncs
	// union it with the names already in the database, so the list only
	// needs to carry drugs not yet ingested.
	SeedDrugs string `koanf:"seed_drugs"`

	// SeedTickers maps drug names to sponsor stock tickers, as
	// comma-separated "name=TICKER" pairs. The quote sync only covers
	// drugs with a ticker attached.
	SeedTickers string `koanf:"seed_tickers"`
}

// SeedDrugList splits SeedDrugs into trimmed, non-empty names.
func (s *SourcesConfig) SeedDrugList() []string {
	var names []string
	for _, part := range strings.Split(s.SeedDrugs, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// SeedTickerMap parses SeedTickers into a drug-name-to-ticker map. Names
// are kept raw; callers normalize them the same way drug keys are built.
func (s *SourcesConfig) SeedTickerMap() map[string]string {
	tickers := make(map[string]string)
	for _, part := range strings.Split(s.SeedTickers, ",") {
		name, ticker, ok := strings.Cut(part, "=")
		name, ticker = strings.TrimSpace(name), strings.TrimSpace(ticker)
		if ok && name != "" && ticker != "" {
			tickers[name] = strings.ToUpper(ticker)
		}
	}
	return tickers
}

// SourceConfig is the per-provider connection block.
type SourceConfig struct {
	BaseURL string `koanf:"base_url"`

	// RequestsPerSecond throttles calls to the provider. Zero means the
	// default for that provider is used.
	RequestsPerSecond float64 `koanf:"requests_per_second"`

	// Timeout bounds a single request. Parseable duration string in env
	// ("10s", "1m").
	Timeout time.Duration `koanf:"timeout"`

	// APIKey is optional; OpenFDA and PubMed raise rate limits when set.
	APIKey string `koanf:"api_key"`
}

// DefaultSourcesConfig returns production endpoints with conservative rates.
func DefaultSourcesConfig() *SourcesConfig {
	return &SourcesConfig{
		ClinicalTrials: SourceConfig{
			BaseURL:           "https://clinicaltrials.gov/api/v2",
			RequestsPerSecond: 2,
			Timeout:           15 * time.Second,
		},
		OpenTargets: SourceConfig{
			BaseURL:           "https://api.platform.opentargets.org/api/v4/graphql",
			RequestsPerSecond: 2,
			Timeout:           20 * time.Second,
		},
		PubMed: SourceConfig{
			BaseURL: "https://eutils.ncbi.nlm.nih.gov/entrez/eutils",
			// NCBI allows 3 req/s without an API key, 10 with one.
			RequestsPerSecond: 3,
			Timeout:           15 * time.Second,
		},
		UniProt: SourceConfig{
			BaseURL:           "https://rest.uniprot.org",
			RequestsPerSecond: 2,
			Timeout:           15 * time.Second,
		},
		OpenFDA: SourceConfig{
			BaseURL:           "https://api.fda.gov",
			RequestsPerSecond: 1,
			Timeout:           20 * time.Second,
		},
		RCSB: SourceConfig{
			BaseURL:           "https://search.rcsb.org/rcsbsearch/v2",
			RequestsPerSecond: 2,
			Timeout:           15 * time.Second,
		},
		YahooFinance: SourceConfig{
			BaseURL:           "https://query1.finance.yahoo.com",
			RequestsPerSecond: 1,
			Timeout:           10 * time.Second,
		},
		PageSize: 100,
	}
}

// Validate enforces the invariants the env-tag validator cannot express.
func (s *SourcesConfig) Validate() error {
	if s.PageSize < 0 {
		return fmt.Errorf("sources page_size must be non-negative")
	}
	for name, sc := range map[string]SourceConfig{
		"clinical_trials": s.ClinicalTrials,
		"open_targets":    s.OpenTargets,
		"pubmed":          s.PubMed,
		"uniprot":         s.UniProt,
		"openfda":         s.OpenFDA,
		"rcsb":            s.RCSB,
		"yahoo_finance":   s.YahooFinance,
	} {
		if sc.RequestsPerSecond < 0 {
			return fmt.Errorf("sources %s requests_per_second must be non-negative", name)
		}
		if sc.Timeout < 0 {
			return fmt.Errorf("sources %s timeout must be non-negative", name)
		}
	}
	return nil
}

// DigestConfig controls the change-detection digest flow.
type DigestConfig struct {
	// EmailThreshold is the minimum significance ("low", "medium", "high")
	// a digest must reach before an email is sent. Digests below the
	// threshold are persisted but not mailed.
	EmailThreshold string `koanf:"email_threshold"`

	// MaxRecipients caps how many watchers a single digest email fans out
	// to in one send.
	MaxRecipients int `koanf:"max_recipients"`
}

// DefaultDigestConfig mails medium-and-above to at most 100 recipients.
func DefaultDigestConfig() *DigestConfig {
	return &DigestConfig{
		EmailThreshold: "medium",
		MaxRecipients:  100,
	}
}

// SchedulerConfig holds cron specs for the periodic jobs. Specs use the
// standard five-field cron syntax. An empty spec disables that schedule.
type SchedulerConfig struct {
	Enabled bool `koanf:"enabled"`

	TrialsSpec     string `koanf:"trials_spec"`
	TargetsSpec    string `koanf:"targets_spec"`
	LiteratureSpec string `koanf:"literature_spec"`
	SafetySpec     string `koanf:"safety_spec"`
	QuotesSpec     string `koanf:"quotes_spec"`
	DigestSpec     string `koanf:"digest_spec"`
}

// DefaultSchedulerConfig builds digests nightly, refreshes slower-moving
// sources weekly, quotes hourly on weekdays.
//
// TrialsSpec defaults to empty: the digest build syncs trials itself and
// digests what it finds, while a plain trial sync discards the detected
// changes. Scheduling both would let the plain sync absorb every change
// between the two runs, so only environments that opt into an extra
// refresh set a trials spec.
func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		Enabled:        true,
		TrialsSpec:     "",
		TargetsSpec:    "0 4 * * 1",
		LiteratureSpec: "0 3 * * *",
		SafetySpec:     "0 5 * * 1",
		QuotesSpec:     "0 * * * 1-5",
		DigestSpec:     "30 6 * * *",
	}
}
