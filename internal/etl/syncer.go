// Package etl runs the enrichment syncs against the external data sources.
//
// Every sync is a sequential fetch-then-upsert loop: per-item failures are
// logged and skipped so one bad record never aborts a whole run, and loops
// check the context between items so cancellation stops them promptly.
package etl

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pharmintel/pharmintel/internal/config"
	"github.com/pharmintel/pharmintel/internal/digest"
	"github.com/pharmintel/pharmintel/internal/model"
	"github.com/pharmintel/pharmintel/internal/normalize"
	"github.com/pharmintel/pharmintel/internal/repository"
	"github.com/pharmintel/pharmintel/internal/source/ctgov"
	"github.com/pharmintel/pharmintel/internal/source/openfda"
	"github.com/pharmintel/pharmintel/internal/source/opentargets"
	"github.com/pharmintel/pharmintel/internal/source/pubmed"
	"github.com/pharmintel/pharmintel/internal/source/rcsb"
	"github.com/pharmintel/pharmintel/internal/source/uniprot"
	"github.com/pharmintel/pharmintel/internal/source/yfinance"
)

// Syncer owns the per-source sync loops. One instance is shared by the job
// handlers and the CLI.
type Syncer struct {
	log   *zerolog.Logger
	cfg   *config.Config
	repos *repository.Repositories

	registry   *ctgov.Client
	platform   *opentargets.Client
	literature *pubmed.Client
	proteins   *uniprot.Client
	safety     *openfda.Client
	structures *rcsb.Client
	market     *yfinance.Client
}

// NewSyncer builds the Syncer and its source clients.
func NewSyncer(log *zerolog.Logger, cfg *config.Config, repos *repository.Repositories) *Syncer {
	return &Syncer{
		log:        log,
		cfg:        cfg,
		repos:      repos,
		registry:   ctgov.New(cfg.Sources, log),
		platform:   opentargets.New(cfg.Sources, log),
		literature: pubmed.New(cfg.Sources, log),
		proteins:   uniprot.New(cfg.Sources, log),
		safety:     openfda.New(cfg.Sources, log),
		structures: rcsb.New(cfg.Sources, log),
		market:     yfinance.New(cfg.Sources, log),
	}
}

// trackedDrugs returns the drugs every sync iterates over: the rows already
// in the database, plus any configured seed names not yet ingested. Seed
// names are deduplicated through the normalizer before insert, so two seeds
// that collapse to the same drug produce one row with both variants.
func (s *Syncer) trackedDrugs(ctx context.Context) ([]model.Drug, error) {
	drugs, err := s.repos.Drugs.List(ctx, "")
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(drugs))
	for _, d := range drugs {
		known[d.NormalizedName] = true
	}

	seeds := s.cfg.Sources.SeedDrugList()
	records := make([]normalize.Record, 0, len(seeds))
	for i, name := range seeds {
		records = append(records, normalize.Record{ID: int64(i), Name: name})
	}

	tickers := make(map[string]string)
	for name, ticker := range s.cfg.Sources.SeedTickerMap() {
		tickers[normalize.Normalize(name)] = ticker
	}

	for _, group := range normalize.Unique(records) {
		if known[group.Key] {
			continue
		}
		saved, err := s.repos.Drugs.Upsert(ctx, &model.Drug{
			Name:           group.Representative.Name,
			NormalizedName: group.Key,
			Ticker:         tickers[group.Key],
		})
		if err != nil {
			s.log.Error().Err(err).Str("drug", group.Representative.Name).Msg("seeding drug failed")
			continue
		}
		if err := s.repos.Drugs.AddVariants(ctx, saved.ID, group.Variants); err != nil {
			s.log.Error().Err(err).Str("drug", saved.Name).Msg("recording seed variants failed")
		}
		drugs = append(drugs, *saved)
		known[group.Key] = true
	}

	return drugs, nil
}

// SyncTrials refreshes every tracked drug's trials from the registry and
// returns the detected changes alongside a drug-ID-to-name map for digest
// rendering. Upserts happen even when a trial is unchanged; the change list
// is computed against the pre-sync snapshot.
func (s *Syncer) SyncTrials(ctx context.Context) ([]digest.Change, map[int64]string, error) {
	drugs, err := s.trackedDrugs(ctx)
	if err != nil {
		return nil, nil, err
	}

	var changes []digest.Change
	names := make(map[int64]string, len(drugs))

	for _, drug := range drugs {
		if err := ctx.Err(); err != nil {
			return changes, names, err
		}
		names[drug.ID] = drug.Name

		fetched, err := s.registry.SearchByIntervention(ctx, drug.Name)
		if err != nil {
			s.log.Error().Err(err).Str("drug", drug.Name).Msg("registry fetch failed")
			continue
		}

		stored, err := s.repos.Trials.ListByDrug(ctx, drug.ID)
		if err != nil {
			s.log.Error().Err(err).Str("drug", drug.Name).Msg("loading stored trials failed")
			continue
		}

		for i := range fetched {
			fetched[i].DrugID = drug.ID
		}
		changes = append(changes, digest.Detect(stored, fetched)...)

		saved := 0
		for i := range fetched {
			if _, err := s.repos.Trials.Upsert(ctx, &fetched[i]); err != nil {
				s.log.Error().Err(err).Str("nct_id", fetched[i].NCTID).Msg("trial upsert failed")
				continue
			}
			saved++
		}
		s.log.Info().Str("drug", drug.Name).Int("fetched", len(fetched)).Int("saved", saved).Msg("trials synced")
	}

	return changes, names, nil
}

// SyncTargets enriches tracked drugs from the OpenTargets platform: max
// clinical phase, description, and linked targets.
func (s *Syncer) SyncTargets(ctx context.Context) error {
	drugs, err := s.trackedDrugs(ctx)
	if err != nil {
		return err
	}

	for _, drug := range drugs {
		if err := ctx.Err(); err != nil {
			return err
		}

		info, err := s.platform.LookupDrug(ctx, drug.Name)
		if err != nil {
			s.log.Error().Err(err).Str("drug", drug.Name).Msg("platform lookup failed")
			continue
		}
		if info == nil {
			s.log.Debug().Str("drug", drug.Name).Msg("drug unknown to platform")
			continue
		}

		if _, err := s.repos.Drugs.Upsert(ctx, &model.Drug{
			Name:           drug.Name,
			NormalizedName: drug.NormalizedName,
			MaxPhase:       info.MaxPhase,
		}); err != nil {
			s.log.Error().Err(err).Str("drug", drug.Name).Msg("drug enrichment upsert failed")
			continue
		}

		for _, t := range info.Targets {
			err := s.repos.Targets.Upsert(ctx, &model.Target{
				DrugID:      drug.ID,
				GeneSymbol:  t.GeneSymbol,
				EnsemblID:   t.EnsemblID,
				ProteinName: t.ProteinName,
			})
			if err != nil {
				s.log.Error().Err(err).Str("gene", t.GeneSymbol).Msg("target upsert failed")
			}
		}
		s.log.Info().Str("drug", drug.Name).Int("targets", len(info.Targets)).Msg("targets synced")
	}

	return nil
}

// SyncPapers pulls recent literature for each tracked drug from PubMed.
func (s *Syncer) SyncPapers(ctx context.Context) error {
	drugs, err := s.trackedDrugs(ctx)
	if err != nil {
		return err
	}

	for _, drug := range drugs {
		if err := ctx.Err(); err != nil {
			return err
		}

		papers, err := s.literature.SearchPapers(ctx, drug.Name)
		if err != nil {
			s.log.Error().Err(err).Str("drug", drug.Name).Msg("literature search failed")
			continue
		}

		saved := 0
		for i := range papers {
			papers[i].DrugID = drug.ID
			if err := s.repos.Papers.Upsert(ctx, &papers[i]); err != nil {
				s.log.Error().Err(err).Str("pmid", papers[i].PMID).Msg("paper upsert failed")
				continue
			}
			saved++
		}
		s.log.Info().Str("drug", drug.Name).Int("papers", saved).Msg("literature synced")
	}

	return nil
}

// SyncProteins fills in UniProt protein data for targets that only carry a
// gene symbol so far.
func (s *Syncer) SyncProteins(ctx context.Context) error {
	targets, err := s.repos.Targets.ListPendingUniProt(ctx)
	if err != nil {
		return err
	}

	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}

		protein, err := s.proteins.LookupGene(ctx, target.GeneSymbol)
		if err != nil {
			s.log.Error().Err(err).Str("gene", target.GeneSymbol).Msg("protein lookup failed")
			continue
		}
		if protein == nil {
			continue
		}

		target.UniProtAccession = protein.Accession
		target.ProteinName = protein.Name
		target.Function = protein.Function
		if err := s.repos.Targets.Upsert(ctx, &target); err != nil {
			s.log.Error().Err(err).Str("gene", target.GeneSymbol).Msg("protein enrichment failed")
		}
	}

	s.log.Info().Int("targets", len(targets)).Msg("proteins synced")
	return nil
}

// SyncStructures attaches PDB structure IDs to targets with a UniProt
// accession.
func (s *Syncer) SyncStructures(ctx context.Context) error {
	targets, err := s.repos.Targets.ListWithAccessions(ctx)
	if err != nil {
		return err
	}

	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}

		ids, err := s.structures.StructureIDs(ctx, target.UniProtAccession)
		if err != nil {
			s.log.Error().Err(err).Str("accession", target.UniProtAccession).Msg("structure search failed")
			continue
		}
		if len(ids) == 0 {
			continue
		}

		target.PDBIDs = ids
		if err := s.repos.Targets.Upsert(ctx, &target); err != nil {
			s.log.Error().Err(err).Str("accession", target.UniProtAccession).Msg("structure upsert failed")
		}
	}

	s.log.Info().Int("targets", len(targets)).Msg("structures synced")
	return nil
}

// SyncSafety replaces each tracked drug's adverse-event counts with the
// current OpenFDA aggregation, and fills in the drug description from the
// label's indications section when one exists.
func (s *Syncer) SyncSafety(ctx context.Context) error {
	drugs, err := s.trackedDrugs(ctx)
	if err != nil {
		return err
	}

	for _, drug := range drugs {
		if err := ctx.Err(); err != nil {
			return err
		}

		if indications, err := s.safety.Indications(ctx, drug.Name); err != nil {
			s.log.Error().Err(err).Str("drug", drug.Name).Msg("label fetch failed")
		} else if indications != "" {
			_, err := s.repos.Drugs.Upsert(ctx, &model.Drug{
				Name:           drug.Name,
				NormalizedName: drug.NormalizedName,
				Description:    indications,
			})
			if err != nil {
				s.log.Error().Err(err).Str("drug", drug.Name).Msg("description upsert failed")
			}
		}

		reactions, err := s.safety.TopReactions(ctx, drug.Name)
		if err != nil {
			s.log.Error().Err(err).Str("drug", drug.Name).Msg("adverse-event fetch failed")
			continue
		}

		events := make([]model.AdverseEvent, 0, len(reactions))
		for _, rc := range reactions {
			events = append(events, model.AdverseEvent{
				DrugID:   drug.ID,
				Reaction: strings.ToLower(rc.Reaction),
				Count:    rc.Count,
			})
		}
		if err := s.repos.AdverseEvents.ReplaceForDrug(ctx, drug.ID, events); err != nil {
			s.log.Error().Err(err).Str("drug", drug.Name).Msg("adverse-event replace failed")
			continue
		}
		s.log.Info().Str("drug", drug.Name).Int("reactions", len(events)).Msg("safety synced")
	}

	return nil
}

// SyncQuotes fetches a market quote for every distinct sponsor ticker.
func (s *Syncer) SyncQuotes(ctx context.Context) error {
	tickers, err := s.repos.Drugs.Tickers(ctx)
	if err != nil {
		return err
	}

	for _, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return err
		}

		quote, err := s.market.Quote(ctx, ticker)
		if err != nil {
			s.log.Error().Err(err).Str("ticker", ticker).Msg("quote fetch failed")
			continue
		}
		if err := s.repos.Quotes.Insert(ctx, quote); err != nil {
			s.log.Error().Err(err).Str("ticker", ticker).Msg("quote insert failed")
		}
	}

	s.log.Info().Int("tickers", len(tickers)).Msg("quotes synced")
	return nil
}
