package agent

import (
	"context"
	"time"

	"github.com/pharmintel/pharmintel/internal/model"
	"github.com/pharmintel/pharmintel/internal/repository"
)

// paperLimit caps how many publications the literature agent returns.
const paperLimit = 10

// databaseAgent answers trial and target questions from stored registry
// data.
type databaseAgent struct {
	trials  *repository.TrialsRepository
	targets *repository.TargetsRepository
}

func (a *databaseAgent) Name() string { return "database" }

func (a *databaseAgent) Handle(ctx context.Context, _ string, drug *model.Drug) (Result, error) {
	if drug == nil {
		return Result{"trials": []model.Trial{}}, nil
	}

	trials, err := a.trials.ListByDrug(ctx, drug.ID)
	if err != nil {
		return nil, err
	}
	targets, err := a.targets.ListByDrug(ctx, drug.ID)
	if err != nil {
		return nil, err
	}

	return Result{
		"trials":  trials,
		"targets": targets,
	}, nil
}

// literatureAgent surfaces recent PubMed papers.
type literatureAgent struct {
	papers *repository.PapersRepository
}

func (a *literatureAgent) Name() string { return "literature" }

func (a *literatureAgent) Handle(ctx context.Context, _ string, drug *model.Drug) (Result, error) {
	if drug == nil {
		return Result{"papers": []model.Paper{}}, nil
	}

	papers, err := a.papers.ListByDrug(ctx, drug.ID, paperLimit)
	if err != nil {
		return nil, err
	}
	return Result{"papers": papers}, nil
}

// scraperAgent answers safety questions from the scraped OpenFDA label and
// adverse-event data.
type scraperAgent struct {
	events *repository.AdverseEventsRepository
}

func (a *scraperAgent) Name() string { return "scraper" }

func (a *scraperAgent) Handle(ctx context.Context, _ string, drug *model.Drug) (Result, error) {
	if drug == nil {
		return Result{"adverse_events": []model.AdverseEvent{}}, nil
	}

	events, err := a.events.ListByDrug(ctx, drug.ID)
	if err != nil {
		return nil, err
	}

	out := Result{"adverse_events": events}
	if drug.Description != "" {
		out["indications"] = drug.Description
	}
	return out, nil
}

// chartHistoryWindow bounds how far back the chart-data agent reaches.
const chartHistoryWindow = 90 * 24 * time.Hour

// chartDataAgent returns the sponsor's quote series for chart rendering.
type chartDataAgent struct {
	quotes *repository.QuotesRepository
}

func (a *chartDataAgent) Name() string { return "chart-data" }

func (a *chartDataAgent) Handle(ctx context.Context, _ string, drug *model.Drug) (Result, error) {
	if drug == nil || drug.Ticker == "" {
		return Result{"quotes": []model.Quote{}}, nil
	}

	quotes, err := a.quotes.History(ctx, drug.Ticker, time.Now().Add(-chartHistoryWindow))
	if err != nil {
		return nil, err
	}
	return Result{
		"ticker": drug.Ticker,
		"quotes": quotes,
	}, nil
}
