package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/pharmintel/pharmintel/internal/model"
)

// QuotesRepository persists market quotes for sponsor tickers.
type QuotesRepository struct {
	pool *pgxpool.Pool
}

// Insert records a quote. Re-fetching the same (ticker, as_of) point is a
// no-op so repeated syncs stay idempotent.
func (r *QuotesRepository) Insert(ctx context.Context, quote *model.Quote) error {
	query := `
		INSERT INTO quotes (ticker, price, currency, market_cap, as_of)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (ticker, as_of) DO NOTHING`

	_, err := r.pool.Exec(ctx, query,
		quote.Ticker, quote.Price, quote.Currency, quote.MarketCap, quote.AsOf,
	)
	if err != nil {
		return errors.Wrap(err, "inserting quote")
	}
	return nil
}

// Latest returns the most recent quote for a ticker.
func (r *QuotesRepository) Latest(ctx context.Context, ticker string) (*model.Quote, error) {
	query := `
		SELECT id, ticker, price, currency, market_cap, as_of
		FROM quotes WHERE ticker = $1
		ORDER BY as_of DESC LIMIT 1`

	var q model.Quote
	err := r.pool.QueryRow(ctx, query, ticker).
		Scan(&q.ID, &q.Ticker, &q.Price, &q.Currency, &q.MarketCap, &q.AsOf)
	if err != nil {
		return nil, errors.Wrap(err, "table:quotes")
	}
	return &q, nil
}

// History returns a ticker's quotes since the given time, oldest first,
// for chart rendering.
func (r *QuotesRepository) History(ctx context.Context, ticker string, since time.Time) ([]model.Quote, error) {
	query := `
		SELECT id, ticker, price, currency, market_cap, as_of
		FROM quotes WHERE ticker = $1 AND as_of >= $2
		ORDER BY as_of`

	rows, err := r.pool.Query(ctx, query, ticker, since)
	if err != nil {
		return nil, errors.Wrap(err, "listing quote history")
	}
	defer rows.Close()

	var quotes []model.Quote
	for rows.Next() {
		var q model.Quote
		if err := rows.Scan(&q.ID, &q.Ticker, &q.Price, &q.Currency, &q.MarketCap, &q.AsOf); err != nil {
			return nil, errors.Wrap(err, "scanning quote")
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}
