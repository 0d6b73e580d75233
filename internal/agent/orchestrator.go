// Package agent implements the dashboard's query orchestrator: a keyword
// dispatcher that routes a free-text question to one or more specialized
// agents and merges their answers into a single result map.
//
// Routing is deliberately simple keyword matching. There is no retry or
// concurrency coordination; agents run sequentially and a failing agent is
// reported in the answer rather than aborting the others.
package agent

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/pharmintel/pharmintel/internal/model"
	"github.com/pharmintel/pharmintel/internal/repository"
)

// Result is the merged key/value payload agents contribute to.
type Result map[string]any

// Agent answers one category of question about a drug.
type Agent interface {
	Name() string
	Handle(ctx context.Context, query string, drug *model.Drug) (Result, error)
}

// Answer is the orchestrator's response to one query.
type Answer struct {
	Query  string   `json:"query"`
	Drug   string   `json:"drug,omitempty"`
	DrugID int64    `json:"drug_id,omitempty"`
	Agents []string `json:"agents"`
	Data   Result   `json:"data"`

	// Errors lists agents that failed, by name. Partial answers are still
	// returned.
	Errors []string `json:"errors,omitempty"`
}

// routes maps query keywords onto agent names. A query matching keywords
// from several routes fans out to all of them.
var routes = map[string][]string{
	"database":   {"trial", "trials", "phase", "status", "enrollment", "study", "studies", "target", "targets"},
	"literature": {"paper", "papers", "publication", "publications", "literature", "pubmed", "research", "article"},
	"scraper":    {"side", "adverse", "safety", "reaction", "reactions", "label", "indication", "indications"},
	"chart-data": {"price", "stock", "market", "ticker", "quote", "chart", "shares"},
}

const (
	cacheKeyPrefix = "agent:answer:"
	cacheTTL       = 5 * time.Minute
)

// Orchestrator classifies queries and dispatches them to agents. A Redis
// client, when present, caches whole answers keyed by the query text.
type Orchestrator struct {
	log    *zerolog.Logger
	drugs  *repository.DrugsRepository
	agents []Agent
	cache  *redis.Client
}

// NewOrchestrator wires the standard agent set over the repositories.
func NewOrchestrator(log *zerolog.Logger, repos *repository.Repositories, cache *redis.Client) *Orchestrator {
	return &Orchestrator{
		log:   log,
		drugs: repos.Drugs,
		cache: cache,
		agents: []Agent{
			&databaseAgent{trials: repos.Trials, targets: repos.Targets},
			&literatureAgent{papers: repos.Papers},
			&scraperAgent{events: repos.AdverseEvents},
			&chartDataAgent{quotes: repos.Quotes},
		},
	}
}

// Query answers a free-text question. The drug is resolved by scanning the
// query for a known drug name; matched agents run sequentially and their
// result maps are merged. Later agents win key collisions, which cannot
// happen with the standard agent set since each namespaces its keys.
func (o *Orchestrator) Query(ctx context.Context, query string) (*Answer, error) {
	if cached := o.fromCache(ctx, query); cached != nil {
		return cached, nil
	}

	answer := &Answer{
		Query:  query,
		Agents: classify(query),
		Data:   Result{},
	}

	drug, err := o.resolveDrug(ctx, query)
	if err != nil {
		return nil, err
	}
	if drug != nil {
		answer.Drug = drug.Name
		answer.DrugID = drug.ID
	}

	for _, a := range o.agents {
		if !containsName(answer.Agents, a.Name()) {
			continue
		}
		partial, err := a.Handle(ctx, query, drug)
		if err != nil {
			o.log.Error().Err(err).Str("agent", a.Name()).Str("query", query).Msg("agent failed")
			answer.Errors = append(answer.Errors, a.Name())
			continue
		}
		for k, v := range partial {
			answer.Data[k] = v
		}
	}

	o.toCache(ctx, query, answer)
	return answer, nil
}

// classify maps a query onto the agent names whose keywords it mentions.
// Queries matching nothing go to the database agent.
func classify(query string) []string {
	lowered := strings.ToLower(query)
	words := strings.FieldsFunc(lowered, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	wordSet := make(map[string]bool, len(words))
	for _, w := range words {
		wordSet[w] = true
	}

	var matched []string
	for _, name := range []string{"database", "literature", "scraper", "chart-data"} {
		for _, kw := range routes[name] {
			if wordSet[kw] {
				matched = append(matched, name)
				break
			}
		}
	}
	if len(matched) == 0 {
		matched = []string{"database"}
	}
	return matched
}

// resolveDrug scans stored drug names and variants for a mention inside
// the query. Longest name wins so "interferon beta" beats "interferon".
func (o *Orchestrator) resolveDrug(ctx context.Context, query string) (*model.Drug, error) {
	drugs, err := o.drugs.List(ctx, "")
	if err != nil {
		return nil, err
	}

	lowered := strings.ToLower(query)
	var best *model.Drug
	for i := range drugs {
		name := strings.ToLower(drugs[i].Name)
		if !strings.Contains(lowered, name) {
			continue
		}
		if best == nil || len(name) > len(best.Name) {
			best = &drugs[i]
		}
	}
	return best, nil
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func (o *Orchestrator) fromCache(ctx context.Context, query string) *Answer {
	if o.cache == nil {
		return nil
	}
	raw, err := o.cache.Get(ctx, cacheKey(query)).Bytes()
	if err != nil {
		return nil
	}
	var answer Answer
	if err := json.Unmarshal(raw, &answer); err != nil {
		return nil
	}
	return &answer
}

func (o *Orchestrator) toCache(ctx context.Context, query string, answer *Answer) {
	if o.cache == nil {
		return
	}
	raw, err := json.Marshal(answer)
	if err != nil {
		return
	}
	if err := o.cache.Set(ctx, cacheKey(query), raw, cacheTTL).Err(); err != nil {
		o.log.Debug().Err(err).Msg("answer cache write failed")
	}
}

func cacheKey(query string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(query))))
	return cacheKeyPrefix + hex.EncodeToString(sum[:16])
}
