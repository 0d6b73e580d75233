package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/pharmintel/pharmintel/internal/model"
	"github.com/pharmintel/pharmintel/internal/repository"
	"github.com/pharmintel/pharmintel/internal/server"
)

// IntelService serves the browse/search surface over the ingested data:
// drugs, their trials, targets, papers, and the CSV export.
type IntelService struct {
	server *server.Server
	repos  *repository.Repositories
}

func NewIntelService(s *server.Server, repos *repository.Repositories) *IntelService {
	return &IntelService{
		server: s,
		repos:  repos,
	}
}

// ListDrugs returns all drugs, optionally filtered by a search term
// matched against names and variants.
func (s *IntelService) ListDrugs(ctx context.Context, search string) ([]model.Drug, error) {
	return s.repos.Drugs.List(ctx, search)
}

// DrugDetail is a drug with its enrichment data attached.
type DrugDetail struct {
	model.Drug
	Targets       []model.Target       `json:"targets"`
	AdverseEvents []model.AdverseEvent `json:"adverse_events"`
	LatestQuote   *model.Quote         `json:"latest_quote,omitempty"`
}

// GetDrug loads one drug with variants, targets, adverse events, and the
// sponsor's latest quote.
func (s *IntelService) GetDrug(ctx context.Context, id int64) (*DrugDetail, error) {
	drug, err := s.repos.Drugs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &DrugDetail{Drug: *drug}

	detail.Targets, err = s.repos.Targets.ListByDrug(ctx, id)
	if err != nil {
		return nil, err
	}
	detail.AdverseEvents, err = s.repos.AdverseEvents.ListByDrug(ctx, id)
	if err != nil {
		return nil, err
	}

	if drug.Ticker != "" {
		quote, err := s.repos.Quotes.Latest(ctx, drug.Ticker)
		if err == nil {
			detail.LatestQuote = quote
		}
		// A missing quote is not an error; the ticker may simply not have
		// synced yet.
	}

	return detail, nil
}

// ListTrials returns a drug's trials. The drug is loaded first so an
// unknown ID yields a 404 rather than an empty list.
func (s *IntelService) ListTrials(ctx context.Context, drugID int64) ([]model.Trial, error) {
	if _, err := s.repos.Drugs.GetByID(ctx, drugID); err != nil {
		return nil, err
	}
	return s.repos.Trials.ListByDrug(ctx, drugID)
}

// ListPapers returns a drug's most recent publications.
func (s *IntelService) ListPapers(ctx context.Context, drugID int64, limit int) ([]model.Paper, error) {
	if _, err := s.repos.Drugs.GetByID(ctx, drugID); err != nil {
		return nil, err
	}
	return s.repos.Papers.ListByDrug(ctx, drugID, limit)
}

var trialsCSVHeader = []string{
	"drug", "nct_id", "title", "phase", "status", "enrollment",
	"conditions", "sponsor", "start_date", "last_updated",
}

// ExportTrialsCSV renders trials as CSV. With a drug ID the export covers
// that drug only; with nil it covers every trial in the database.
func (s *IntelService) ExportTrialsCSV(ctx context.Context, drugID *int64) ([]byte, error) {
	var (
		trials    []model.Trial
		drugNames map[int64]string
		err       error
	)

	if drugID != nil {
		drug, derr := s.repos.Drugs.GetByID(ctx, *drugID)
		if derr != nil {
			return nil, derr
		}
		trials, err = s.repos.Trials.ListByDrug(ctx, *drugID)
		drugNames = map[int64]string{drug.ID: drug.Name}
	} else {
		trials, drugNames, err = s.repos.Trials.ListAll(ctx)
	}
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(trialsCSVHeader); err != nil {
		return nil, errors.Wrap(err, "writing csv header")
	}
	for _, t := range trials {
		startDate := ""
		if t.StartDate != nil {
			startDate = t.StartDate.Format("2006-01-02")
		}
		record := []string{
			drugNames[t.DrugID],
			t.NCTID,
			t.Title,
			t.Phase,
			t.Status,
			strconv.Itoa(t.Enrollment),
			strings.Join(t.Conditions, "; "),
			t.Sponsor,
			startDate,
			t.LastUpdated.Format("2006-01-02"),
		}
		if err := w.Write(record); err != nil {
			return nil, errors.Wrap(err, "writing csv record")
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errors.Wrap(err, "flushing csv")
	}
	return buf.Bytes(), nil
}
