package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/pharmintel/pharmintel/internal/model"
)

// TrialsRepository persists clinical trials keyed by their registry NCT ID.
type TrialsRepository struct {
	pool *pgxpool.Pool
}

const trialColumns = `id, drug_id, nct_id, title, phase, status, enrollment, conditions, sponsor, start_date, last_updated`

func scanTrial(row pgx.Row) (*model.Trial, error) {
	var t model.Trial
	err := row.Scan(
		&t.ID, &t.DrugID, &t.NCTID, &t.Title, &t.Phase, &t.Status,
		&t.Enrollment, &t.Conditions, &t.Sponsor, &t.StartDate, &t.LastUpdated,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Upsert inserts or refreshes a drug's association with a trial. Registry
// data is authoritative, so every field is overwritten on conflict. A
// combination trial synced for several tracked drugs keeps one row per
// drug; the rows never contend for ownership.
//
// last_updated carries the registry's last-update date when the fetch
// parsed one, falling back to the sync time.
func (r *TrialsRepository) Upsert(ctx context.Context, trial *model.Trial) (*model.Trial, error) {
	query := `
		INSERT INTO trials (drug_id, nct_id, title, phase, status, enrollment, conditions, sponsor, start_date, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10::timestamptz, now()))
		ON CONFLICT (drug_id, nct_id) DO UPDATE SET
			title = EXCLUDED.title,
			phase = EXCLUDED.phase,
			status = EXCLUDED.status,
			enrollment = EXCLUDED.enrollment,
			conditions = EXCLUDED.conditions,
			sponsor = EXCLUDED.sponsor,
			start_date = EXCLUDED.start_date,
			last_updated = EXCLUDED.last_updated
		RETURNING ` + trialColumns

	var lastUpdated any
	if !trial.LastUpdated.IsZero() {
		lastUpdated = trial.LastUpdated
	}

	saved, err := scanTrial(r.pool.QueryRow(ctx, query,
		trial.DrugID, trial.NCTID, trial.Title, trial.Phase, trial.Status,
		trial.Enrollment, trial.Conditions, trial.Sponsor, trial.StartDate,
		lastUpdated,
	))
	if err != nil {
		return nil, errors.Wrap(err, "upserting trial")
	}
	return saved, nil
}

// ListByDrug returns a drug's trials, most recently updated first.
func (r *TrialsRepository) ListByDrug(ctx context.Context, drugID int64) ([]model.Trial, error) {
	query := `SELECT ` + trialColumns + ` FROM trials WHERE drug_id = $1 ORDER BY last_updated DESC, nct_id`

	rows, err := r.pool.Query(ctx, query, drugID)
	if err != nil {
		return nil, errors.Wrap(err, "listing trials")
	}
	defer rows.Close()

	return collectTrials(rows)
}

// ListAll returns every trial joined with its drug name, ordered for the
// CSV export: by drug, then newest registry update first.
func (r *TrialsRepository) ListAll(ctx context.Context) ([]model.Trial, map[int64]string, error) {
	query := `
		SELECT ` + prefixColumns("t", trialColumns) + `, d.name
		FROM trials t
		JOIN drugs d ON d.id = t.drug_id
		ORDER BY d.name, t.last_updated DESC, t.nct_id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, nil, errors.Wrap(err, "listing all trials")
	}
	defer rows.Close()

	var trials []model.Trial
	drugNames := make(map[int64]string)
	for rows.Next() {
		var t model.Trial
		var drugName string
		err := rows.Scan(
			&t.ID, &t.DrugID, &t.NCTID, &t.Title, &t.Phase, &t.Status,
			&t.Enrollment, &t.Conditions, &t.Sponsor, &t.StartDate, &t.LastUpdated,
			&drugName,
		)
		if err != nil {
			return nil, nil, errors.Wrap(err, "scanning trial")
		}
		trials = append(trials, t)
		drugNames[t.DrugID] = drugName
	}
	return trials, drugNames, rows.Err()
}

func collectTrials(rows pgx.Rows) ([]model.Trial, error) {
	var trials []model.Trial
	for rows.Next() {
		t, err := scanTrial(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning trial")
		}
		trials = append(trials, *t)
	}
	return trials, rows.Err()
}
