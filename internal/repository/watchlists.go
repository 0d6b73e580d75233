package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/pharmintel/pharmintel/internal/model"
)

// WatchlistsRepository persists user-owned watchlists and their drug
// memberships. All reads are scoped by user ID so one user can never see
// another's lists.
type WatchlistsRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a watchlist. The (user_id, name) unique constraint
// surfaces duplicate names as a conflict error.
func (r *WatchlistsRepository) Create(ctx context.Context, userID, name string) (*model.Watchlist, error) {
	query := `
		INSERT INTO watchlists (id, user_id, name)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, name, created_at`

	var w model.Watchlist
	err := r.pool.QueryRow(ctx, query, uuid.New(), userID, name).
		Scan(&w.ID, &w.UserID, &w.Name, &w.CreatedAt)
	if err != nil {
		return nil, errors.Wrap(err, "creating watchlist")
	}
	return &w, nil
}

// ListByUser returns a user's watchlists, newest first, without items.
func (r *WatchlistsRepository) ListByUser(ctx context.Context, userID string) ([]model.Watchlist, error) {
	query := `
		SELECT id, user_id, name, created_at
		FROM watchlists WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, errors.Wrap(err, "listing watchlists")
	}
	defer rows.Close()

	var lists []model.Watchlist
	for rows.Next() {
		var w model.Watchlist
		if err := rows.Scan(&w.ID, &w.UserID, &w.Name, &w.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning watchlist")
		}
		lists = append(lists, w)
	}
	return lists, rows.Err()
}

// Get fetches a user's watchlist with its items and drug names loaded.
func (r *WatchlistsRepository) Get(ctx context.Context, userID string, id uuid.UUID) (*model.Watchlist, error) {
	query := `
		SELECT id, user_id, name, created_at
		FROM watchlists WHERE id = $1 AND user_id = $2`

	var w model.Watchlist
	err := r.pool.QueryRow(ctx, query, id, userID).
		Scan(&w.ID, &w.UserID, &w.Name, &w.CreatedAt)
	if err != nil {
		return nil, errors.Wrap(err, "table:watchlists")
	}

	w.Items, err = r.items(ctx, id)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Delete removes a user's watchlist. Items cascade.
func (r *WatchlistsRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM watchlists WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return errors.Wrap(err, "deleting watchlist")
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrap(pgx.ErrNoRows, "table:watchlists")
	}
	return nil
}

// AddItem links a drug into a user's watchlist. Adding a drug that is
// already on the list is a no-op. The ownership check rides along in the
// SELECT: no row is inserted for another user's list, which surfaces as a
// not-found error.
func (r *WatchlistsRepository) AddItem(ctx context.Context, userID string, watchlistID uuid.UUID, drugID int64) error {
	query := `
		INSERT INTO watchlist_items (watchlist_id, drug_id)
		SELECT w.id, $3 FROM watchlists w WHERE w.id = $1 AND w.user_id = $2
		ON CONFLICT (watchlist_id, drug_id) DO NOTHING`

	tag, err := r.pool.Exec(ctx, query, watchlistID, userID, drugID)
	if err != nil {
		return errors.Wrap(err, "adding watchlist item")
	}
	if tag.RowsAffected() == 0 {
		// Either the list isn't the user's or the drug was already on it;
		// distinguish so duplicates stay a silent success.
		exists, checkErr := r.ownedBy(ctx, userID, watchlistID)
		if checkErr != nil {
			return checkErr
		}
		if !exists {
			return errors.Wrap(pgx.ErrNoRows, "table:watchlists")
		}
	}
	return nil
}

// RemoveItem unlinks a drug from a user's watchlist.
func (r *WatchlistsRepository) RemoveItem(ctx context.Context, userID string, watchlistID uuid.UUID, drugID int64) error {
	query := `
		DELETE FROM watchlist_items wi
		USING watchlists w
		WHERE wi.watchlist_id = w.id AND w.id = $1 AND w.user_id = $2 AND wi.drug_id = $3`

	tag, err := r.pool.Exec(ctx, query, watchlistID, userID, drugID)
	if err != nil {
		return errors.Wrap(err, "removing watchlist item")
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrap(pgx.ErrNoRows, "table:watchlist_items")
	}
	return nil
}

// WatchedDrugIDs returns the distinct drug IDs appearing on any watchlist,
// used to scope digest notifications.
func (r *WatchlistsRepository) WatchedDrugIDs(ctx context.Context) (map[int64]bool, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT drug_id FROM watchlist_items`)
	if err != nil {
		return nil, errors.Wrap(err, "listing watched drugs")
	}
	defer rows.Close()

	watched := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		watched[id] = true
	}
	return watched, rows.Err()
}

// WatchersOfDrugs returns the distinct user IDs watching any of the given
// drugs, for digest notification fan-out.
func (r *WatchlistsRepository) WatchersOfDrugs(ctx context.Context, drugIDs []int64) ([]string, error) {
	if len(drugIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT DISTINCT w.user_id
		FROM watchlists w
		JOIN watchlist_items wi ON wi.watchlist_id = w.id
		WHERE wi.drug_id = ANY ($1)
		ORDER BY w.user_id`

	rows, err := r.pool.Query(ctx, query, drugIDs)
	if err != nil {
		return nil, errors.Wrap(err, "listing drug watchers")
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		users = append(users, id)
	}
	return users, rows.Err()
}

func (r *WatchlistsRepository) ownedBy(ctx context.Context, userID string, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM watchlists WHERE id = $1 AND user_id = $2)`, id, userID).
		Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "checking watchlist ownership")
	}
	return exists, nil
}

func (r *WatchlistsRepository) items(ctx context.Context, watchlistID uuid.UUID) ([]model.WatchlistItem, error) {
	query := `
		SELECT wi.watchlist_id, wi.drug_id, d.name, wi.added_at
		FROM watchlist_items wi
		JOIN drugs d ON d.id = wi.drug_id
		WHERE wi.watchlist_id = $1
		ORDER BY wi.added_at, d.name`

	rows, err := r.pool.Query(ctx, query, watchlistID)
	if err != nil {
		return nil, errors.Wrap(err, "listing watchlist items")
	}
	defer rows.Close()

	var items []model.WatchlistItem
	for rows.Next() {
		var it model.WatchlistItem
		if err := rows.Scan(&it.WatchlistID, &it.DrugID, &it.DrugName, &it.AddedAt); err != nil {
			return nil, errors.Wrap(err, "scanning watchlist item")
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
