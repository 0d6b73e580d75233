package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/pharmintel/pharmintel/internal/model"
)

// DigestsRepository persists change digests and their events.
type DigestsRepository struct {
	pool *pgxpool.Pool
}

// Create stores a digest and its events in one transaction, filling in the
// generated IDs on the passed-in value.
func (r *DigestsRepository) Create(ctx context.Context, digest *model.Digest) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "beginning digest insert")
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO digests (significance, summary) VALUES ($1, $2) RETURNING id, created_at`,
		digest.Significance, digest.Summary,
	).Scan(&digest.ID, &digest.CreatedAt)
	if err != nil {
		return errors.Wrap(err, "inserting digest")
	}

	for i := range digest.Events {
		e := &digest.Events[i]
		e.DigestID = digest.ID
		err = tx.QueryRow(ctx,
			`INSERT INTO digest_events (digest_id, drug_id, nct_id, kind, old_value, new_value, significance)
			 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
			e.DigestID, e.DrugID, e.NCTID, e.Kind, e.OldValue, e.NewValue, e.Significance,
		).Scan(&e.ID)
		if err != nil {
			return errors.Wrap(err, "inserting digest event")
		}
	}

	return errors.Wrap(tx.Commit(ctx), "committing digest insert")
}

// List returns recent digests, newest first, without events. A non-zero
// since cuts off older digests.
func (r *DigestsRepository) List(ctx context.Context, limit int, since time.Time) ([]model.Digest, error) {
	query := `
		SELECT id, significance, summary, created_at
		FROM digests
		WHERE ($2::timestamptz IS NULL OR created_at >= $2)
		ORDER BY created_at DESC LIMIT $1`

	var cutoff any
	if !since.IsZero() {
		cutoff = since
	}

	rows, err := r.pool.Query(ctx, query, limit, cutoff)
	if err != nil {
		return nil, errors.Wrap(err, "listing digests")
	}
	defer rows.Close()

	var digests []model.Digest
	for rows.Next() {
		var d model.Digest
		if err := rows.Scan(&d.ID, &d.Significance, &d.Summary, &d.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning digest")
		}
		digests = append(digests, d)
	}
	return digests, rows.Err()
}

// Get fetches a digest with its events and drug names loaded.
func (r *DigestsRepository) Get(ctx context.Context, id int64) (*model.Digest, error) {
	var d model.Digest
	err := r.pool.QueryRow(ctx,
		`SELECT id, significance, summary, created_at FROM digests WHERE id = $1`, id).
		Scan(&d.ID, &d.Significance, &d.Summary, &d.CreatedAt)
	if err != nil {
		return nil, errors.Wrap(err, "table:digests")
	}

	query := `
		SELECT e.id, e.digest_id, e.drug_id, d.name, e.nct_id, e.kind, e.old_value, e.new_value, e.significance
		FROM digest_events e
		JOIN drugs d ON d.id = e.drug_id
		WHERE e.digest_id = $1
		ORDER BY e.id`

	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, errors.Wrap(err, "listing digest events")
	}
	defer rows.Close()

	for rows.Next() {
		var e model.DigestEvent
		err := rows.Scan(&e.ID, &e.DigestID, &e.DrugID, &e.DrugName, &e.NCTID,
			&e.Kind, &e.OldValue, &e.NewValue, &e.Significance)
		if err != nil {
			return nil, errors.Wrap(err, "scanning digest event")
		}
		d.Events = append(d.Events, e)
	}
	return &d, rows.Err()
}
