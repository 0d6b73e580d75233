package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/pharmintel/pharmintel/internal/model"
)

// TargetsRepository persists drug targets enriched from OpenTargets,
// UniProt, and RCSB PDB.
type TargetsRepository struct {
	pool *pgxpool.Pool
}

const targetColumns = `id, drug_id, gene_symbol, ensembl_id, uniprot_accession, protein_name, function, pdb_ids, updated_at`

// Upsert inserts a target keyed by (drug, gene symbol). Enrichment fields
// only overwrite when the incoming value is non-empty, so a UniProt miss
// never wipes data a previous sync filled in.
func (r *TargetsRepository) Upsert(ctx context.Context, target *model.Target) error {
	query := `
		INSERT INTO targets (drug_id, gene_symbol, ensembl_id, uniprot_accession, protein_name, function, pdb_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (drug_id, gene_symbol) DO UPDATE SET
			ensembl_id = CASE WHEN EXCLUDED.ensembl_id <> '' THEN EXCLUDED.ensembl_id ELSE targets.ensembl_id END,
			uniprot_accession = CASE WHEN EXCLUDED.uniprot_accession <> '' THEN EXCLUDED.uniprot_accession ELSE targets.uniprot_accession END,
			protein_name = CASE WHEN EXCLUDED.protein_name <> '' THEN EXCLUDED.protein_name ELSE targets.protein_name END,
			function = CASE WHEN EXCLUDED.function <> '' THEN EXCLUDED.function ELSE targets.function END,
			pdb_ids = CASE WHEN cardinality(EXCLUDED.pdb_ids) > 0 THEN EXCLUDED.pdb_ids ELSE targets.pdb_ids END,
			updated_at = now()`

	_, err := r.pool.Exec(ctx, query,
		target.DrugID, target.GeneSymbol, target.EnsemblID,
		target.UniProtAccession, target.ProteinName, target.Function, target.PDBIDs,
	)
	if err != nil {
		return errors.Wrap(err, "upserting target")
	}
	return nil
}

// ListByDrug returns a drug's targets ordered by gene symbol.
func (r *TargetsRepository) ListByDrug(ctx context.Context, drugID int64) ([]model.Target, error) {
	return r.list(ctx, `WHERE drug_id = $1 ORDER BY gene_symbol`, drugID)
}

// ListPendingUniProt returns targets that have a gene symbol but no
// UniProt accession yet, for the protein enrichment sync.
func (r *TargetsRepository) ListPendingUniProt(ctx context.Context) ([]model.Target, error) {
	return r.list(ctx, `WHERE gene_symbol <> '' AND uniprot_accession = '' ORDER BY id`)
}

// ListWithAccessions returns targets that carry a UniProt accession, for
// the PDB structure sync.
func (r *TargetsRepository) ListWithAccessions(ctx context.Context) ([]model.Target, error) {
	return r.list(ctx, `WHERE uniprot_accession <> '' ORDER BY id`)
}

func (r *TargetsRepository) list(ctx context.Context, clause string, args ...any) ([]model.Target, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+targetColumns+` FROM targets `+clause, args...)
	if err != nil {
		return nil, errors.Wrap(err, "listing targets")
	}
	defer rows.Close()

	var targets []model.Target
	for rows.Next() {
		var t model.Target
		err := rows.Scan(
			&t.ID, &t.DrugID, &t.GeneSymbol, &t.EnsemblID,
			&t.UniProtAccession, &t.ProteinName, &t.Function, &t.PDBIDs, &t.UpdatedAt,
		)
		if err != nil {
			return nil, errors.Wrap(err, "scanning target")
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}
