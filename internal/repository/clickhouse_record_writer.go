package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"SalePulse/internal/domain/models"
	domrepo "SalePulse/internal/domain/repository"
	pkgch "SalePulse/pkg/clickhouse"
)

const salesColumns = "date, store_type, sum_amount, " +
	"man10, man20, man30, man40, man50, man60, " +
	"woman10, woman20, woman30, woman40, woman50, woman60, " +
	"store_count, one_plus_one, two_plus_one, media_count"

// CHRecordWriter persists ingested daily sales records.
type CHRecordWriter struct {
	db    *sql.DB
	table string
}

func NewCHRecordWriter(ch *pkgch.Client, table string) domrepo.RecordWriter {
	if table == "" {
		table = "salepulse.daily_sales"
	}
	return &CHRecordWriter{db: ch.DB(), table: table}
}

func (w *CHRecordWriter) Write(ctx context.Context, r *models.SalesRecord) error {
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", w.table, salesColumns, placeholders(19))
	_, err := w.db.ExecContext(ctx, q, recordArgs(r)...)
	return err
}

func (w *CHRecordWriter) WriteBatch(ctx context.Context, rs []*models.SalesRecord) error {
	if len(rs) == 0 {
		return nil
	}
	// Multi-row VALUES insert to cut round-trips; the daily feed is
	// three rows a day so chunking is not needed here.
	values := make([]string, 0, len(rs))
	args := make([]interface{}, 0, len(rs)*19)
	for _, r := range rs {
		if r == nil || r.Store == "" {
			continue
		}
		values = append(values, "("+placeholders(19)+")")
		args = append(args, recordArgs(r)...)
	}
	if len(values) == 0 {
		return nil
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", w.table, salesColumns, strings.Join(values, ","))
	_, err := w.db.ExecContext(ctx, q, args...)
	return err
}

func (w *CHRecordWriter) Close() error {
	return nil // Managed by pkg
}

func recordArgs(r *models.SalesRecord) []interface{} {
	args := make([]interface{}, 0, 19)
	args = append(args, r.Date.Format(models.DateLayout), r.Store.UpstreamLabel(), r.SumAmount)
	for i := 0; i < 6; i++ {
		args = append(args, r.Man[i])
	}
	for i := 0; i < 6; i++ {
		args = append(args, r.Woman[i])
	}
	return append(args, r.StoreCount, r.OnePlusOne, r.TwoPlusOne, r.MediaCount)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
