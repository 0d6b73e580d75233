package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/pharmintel/pharmintel/internal/model"
)

// PapersRepository persists PubMed publications linked to drugs.
type PapersRepository struct {
	pool *pgxpool.Pool
}

// Upsert inserts a paper keyed by (drug, PMID). PubMed metadata is
// authoritative, so conflicts overwrite.
func (r *PapersRepository) Upsert(ctx context.Context, paper *model.Paper) error {
	query := `
		INSERT INTO papers (drug_id, pmid, title, journal, authors, pub_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (drug_id, pmid) DO UPDATE SET
			title = EXCLUDED.title,
			journal = EXCLUDED.journal,
			authors = EXCLUDED.authors,
			pub_date = EXCLUDED.pub_date`

	var pubDate any
	if !paper.PubDate.IsZero() {
		pubDate = paper.PubDate
	}

	_, err := r.pool.Exec(ctx, query,
		paper.DrugID, paper.PMID, paper.Title, paper.Journal, paper.Authors, pubDate,
	)
	if err != nil {
		return errors.Wrap(err, "upserting paper")
	}
	return nil
}

// ListByDrug returns a drug's most recent papers, capped at limit.
func (r *PapersRepository) ListByDrug(ctx context.Context, drugID int64, limit int) ([]model.Paper, error) {
	query := `
		SELECT id, drug_id, pmid, title, journal, authors, COALESCE(pub_date, 'epoch'::date)
		FROM papers WHERE drug_id = $1
		ORDER BY pub_date DESC NULLS LAST, pmid DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, drugID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "listing papers")
	}
	defer rows.Close()

	var papers []model.Paper
	for rows.Next() {
		var p model.Paper
		err := rows.Scan(&p.ID, &p.DrugID, &p.PMID, &p.Title, &p.Journal, &p.Authors, &p.PubDate)
		if err != nil {
			return nil, errors.Wrap(err, "scanning paper")
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}
