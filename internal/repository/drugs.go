package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/pharmintel/pharmintel/internal/model"
)

// DrugsRepository persists deduplicated drugs and the raw name variants
// that collapsed into them.
type DrugsRepository struct {
	pool *pgxpool.Pool
}

const drugColumns = `id, name, normalized_name, description, ticker, max_phase, created_at, updated_at`

func scanDrug(row pgx.Row) (*model.Drug, error) {
	var d model.Drug
	err := row.Scan(
		&d.ID, &d.Name, &d.NormalizedName, &d.Description,
		&d.Ticker, &d.MaxPhase, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Upsert inserts a drug keyed by its normalized name. On conflict the
// existing row keeps its display name (the first-seen representative wins)
// while enrichment fields are refreshed: non-empty description and ticker
// overwrite, and max_phase only ever moves up.
func (r *DrugsRepository) Upsert(ctx context.Context, drug *model.Drug) (*model.Drug, error) {
	query := `
		INSERT INTO drugs (name, normalized_name, description, ticker, max_phase)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (normalized_name) DO UPDATE SET
			description = CASE WHEN EXCLUDED.description <> '' THEN EXCLUDED.description ELSE drugs.description END,
			ticker = CASE WHEN EXCLUDED.ticker <> '' THEN EXCLUDED.ticker ELSE drugs.ticker END,
			max_phase = GREATEST(drugs.max_phase, EXCLUDED.max_phase),
			updated_at = now()
		RETURNING ` + drugColumns

	saved, err := scanDrug(r.pool.QueryRow(ctx, query,
		drug.Name, drug.NormalizedName, drug.Description, drug.Ticker, drug.MaxPhase,
	))
	if err != nil {
		return nil, errors.Wrap(err, "upserting drug")
	}
	return saved, nil
}

// AddVariants records raw display strings for a drug, preserving first-seen
// order via the position column. Already-known variants are left untouched.
func (r *DrugsRepository) AddVariants(ctx context.Context, drugID int64, variants []string) error {
	if len(variants) == 0 {
		return nil
	}

	query := `
		INSERT INTO drug_variants (drug_id, raw_name, position)
		SELECT $1, v.raw_name, v.position
		FROM unnest($2::text[]) WITH ORDINALITY AS v (raw_name, position)
		ON CONFLICT (drug_id, raw_name) DO NOTHING`

	if _, err := r.pool.Exec(ctx, query, drugID, variants); err != nil {
		return errors.Wrap(err, "adding drug variants")
	}
	return nil
}

// GetByID fetches a drug with its variants loaded.
func (r *DrugsRepository) GetByID(ctx context.Context, id int64) (*model.Drug, error) {
	query := `SELECT ` + drugColumns + ` FROM drugs WHERE id = $1`

	drug, err := scanDrug(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, errors.Wrap(err, "table:drugs")
	}

	drug.Variants, err = r.variants(ctx, id)
	if err != nil {
		return nil, err
	}
	return drug, nil
}

// GetByNormalizedName fetches a drug by its dedup key.
func (r *DrugsRepository) GetByNormalizedName(ctx context.Context, key string) (*model.Drug, error) {
	query := `SELECT ` + drugColumns + ` FROM drugs WHERE normalized_name = $1`

	drug, err := scanDrug(r.pool.QueryRow(ctx, query, key))
	if err != nil {
		return nil, errors.Wrap(err, "table:drugs")
	}
	return drug, nil
}

// List returns drugs ordered by name. A non-empty search term matches
// case-insensitively against the display name, the normalized name, and any
// recorded raw variant.
func (r *DrugsRepository) List(ctx context.Context, search string) ([]model.Drug, error) {
	query := `SELECT ` + drugColumns + ` FROM drugs`
	args := []any{}

	if search != "" {
		query += `
			WHERE name ILIKE '%' || $1 || '%'
			   OR normalized_name ILIKE '%' || $1 || '%'
			   OR id IN (SELECT drug_id FROM drug_variants WHERE raw_name ILIKE '%' || $1 || '%')`
		args = append(args, search)
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "listing drugs")
	}
	defer rows.Close()

	var drugs []model.Drug
	for rows.Next() {
		d, err := scanDrug(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning drug")
		}
		drugs = append(drugs, *d)
	}
	return drugs, rows.Err()
}

// Tickers returns the distinct non-empty sponsor tickers across all drugs,
// used by the market-quote sync.
func (r *DrugsRepository) Tickers(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT ticker FROM drugs WHERE ticker <> '' ORDER BY ticker`)
	if err != nil {
		return nil, errors.Wrap(err, "listing tickers")
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tickers = append(tickers, t)
	}
	return tickers, rows.Err()
}

func (r *DrugsRepository) variants(ctx context.Context, drugID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT raw_name FROM drug_variants WHERE drug_id = $1 ORDER BY position`, drugID)
	if err != nil {
		return nil, errors.Wrap(err, "listing drug variants")
	}
	defer rows.Close()

	var variants []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}
