package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/pharmintel/pharmintel/internal/model"
)

// AdverseEventsRepository persists aggregated OpenFDA adverse-reaction
// counts per drug.
type AdverseEventsRepository struct {
	pool *pgxpool.Pool
}

// ReplaceForDrug swaps a drug's adverse-event counts for a fresh snapshot
// in a single transaction. OpenFDA returns the full top-N aggregation each
// time, so stale reactions are dropped rather than merged.
func (r *AdverseEventsRepository) ReplaceForDrug(ctx context.Context, drugID int64, events []model.AdverseEvent) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "beginning adverse-event replace")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM adverse_events WHERE drug_id = $1`, drugID); err != nil {
		return errors.Wrap(err, "clearing adverse events")
	}

	if len(events) > 0 {
		rows := make([][]any, 0, len(events))
		for _, e := range events {
			rows = append(rows, []any{drugID, e.Reaction, e.Count})
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"adverse_events"},
			[]string{"drug_id", "reaction", "count"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return errors.Wrap(err, "inserting adverse events")
		}
	}

	return errors.Wrap(tx.Commit(ctx), "committing adverse-event replace")
}

// ListByDrug returns a drug's adverse events, highest count first.
func (r *AdverseEventsRepository) ListByDrug(ctx context.Context, drugID int64) ([]model.AdverseEvent, error) {
	query := `
		SELECT drug_id, reaction, count, updated_at
		FROM adverse_events WHERE drug_id = $1
		ORDER BY count DESC, reaction`

	rows, err := r.pool.Query(ctx, query, drugID)
	if err != nil {
		return nil, errors.Wrap(err, "listing adverse events")
	}
	defer rows.Close()

	var events []model.AdverseEvent
	for rows.Next() {
		var e model.AdverseEvent
		if err := rows.Scan(&e.DrugID, &e.Reaction, &e.Count, &e.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning adverse event")
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
