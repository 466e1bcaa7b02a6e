package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"SalePulse/internal/domain/models"
	pkgch "SalePulse/pkg/clickhouse"
	applogger "SalePulse/pkg/logger"
)

// CHSalesStore reads the upstream sales tables from ClickHouse.
type CHSalesStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHSalesStore(ch *pkgch.Client) *CHSalesStore {
	return &CHSalesStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHSalesStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHSalesStore) AggregatesByDate(ctx context.Context, date time.Time) ([]models.SalesAggregate, error) {
	const q = `
        SELECT date, store_type, sum_amount, growth, avg_growth, growth_deviation
        FROM salepulse.daily_aggregates
        WHERE date = ?
        ORDER BY store_type ASC
    `
	rows, err := s.db.QueryContext(ctx, q, date.Format(models.DateLayout))
	if err != nil {
		s.logErr("aggregates_by_date", date, err)
		return nil, fmt.Errorf("aggregates by date: %w", err)
	}
	defer rows.Close()

	var out []models.SalesAggregate
	for rows.Next() {
		agg, err := scanAggregate(rows)
		if err != nil {
			s.logErr("aggregates_by_date", date, err)
			return nil, fmt.Errorf("scan aggregate: %w", err)
		}
		out = append(out, agg)
	}
	if err := rows.Err(); err != nil {
		s.logErr("aggregates_by_date", date, err)
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *CHSalesStore) AggregateFor(ctx context.Context, store models.Store, date time.Time) (models.SalesAggregate, error) {
	const q = `
        SELECT date, store_type, sum_amount, growth, avg_growth, growth_deviation
        FROM salepulse.daily_aggregates
        WHERE date = ? AND store_type = ?
        LIMIT 1
    `
	row := s.db.QueryRowContext(ctx, q, date.Format(models.DateLayout), store.UpstreamLabel())
	agg, err := scanAggregate(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.SalesAggregate{}, models.ErrNoData
		}
		s.logErr("aggregate_for", date, err)
		return models.SalesAggregate{}, fmt.Errorf("aggregate for %s: %w", store, err)
	}
	return agg, nil
}

func (s *CHSalesStore) HistoryBefore(ctx context.Context, store models.Store, before time.Time, limit int) ([]models.SalesRecord, error) {
	const q = `
        SELECT date, store_type, sum_amount,
               man10, man20, man30, man40, man50, man60,
               woman10, woman20, woman30, woman40, woman50, woman60,
               store_count, one_plus_one, two_plus_one, media_count
        FROM salepulse.daily_sales
        WHERE store_type = ? AND date < ?
        ORDER BY date DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, q, store.UpstreamLabel(), before.Format(models.DateLayout), limit)
	if err != nil {
		s.logErr("history_before", before, err)
		return nil, fmt.Errorf("history before: %w", err)
	}
	defer rows.Close()

	var recs []models.SalesRecord
	for rows.Next() {
		var r models.SalesRecord
		var date time.Time
		var label string
		if err := rows.Scan(&date, &label, &r.SumAmount,
			&r.Man[0], &r.Man[1], &r.Man[2], &r.Man[3], &r.Man[4], &r.Man[5],
			&r.Woman[0], &r.Woman[1], &r.Woman[2], &r.Woman[3], &r.Woman[4], &r.Woman[5],
			&r.StoreCount, &r.OnePlusOne, &r.TwoPlusOne, &r.MediaCount); err != nil {
			s.logErr("history_before", before, err)
			return nil, fmt.Errorf("scan sales record: %w", err)
		}
		r.Date = date
		r.Store = store
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		s.logErr("history_before", before, err)
		return nil, fmt.Errorf("rows: %w", err)
	}

	// Query returns newest first for the LIMIT; callers want ascending.
	for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
		recs[i], recs[j] = recs[j], recs[i]
	}
	return recs, nil
}

func (s *CHSalesStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAggregate(row rowScanner) (models.SalesAggregate, error) {
	var agg models.SalesAggregate
	var label string
	if err := row.Scan(&agg.Date, &label, &agg.SumAmount, &agg.Growth, &agg.AvgGrowth, &agg.GrowthDeviation); err != nil {
		return models.SalesAggregate{}, err
	}
	store, err := models.ParseStore(label)
	if err != nil {
		return models.SalesAggregate{}, err
	}
	agg.Store = store
	return agg, nil
}

func (s *CHSalesStore) logErr(op string, date time.Time, err error) {
	if s.l == nil {
		return
	}
	s.l.Error("clickhouse sales query error",
		applogger.String("op", op),
		applogger.String("date", date.Format(models.DateLayout)),
		applogger.Error(err),
	)
}
