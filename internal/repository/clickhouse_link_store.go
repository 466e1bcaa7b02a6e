package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"SalePulse/internal/domain/models"
	pkgch "SalePulse/pkg/clickhouse"
)

// CHLinkStore reads the crawled video and news link tables.
type CHLinkStore struct {
	db *sql.DB
}

func NewCHLinkStore(ch *pkgch.Client) *CHLinkStore {
	return &CHLinkStore{db: ch.DB()}
}

// VideoURLs preserves upstream insertion order.
func (s *CHLinkStore) VideoURLs(ctx context.Context, store models.Store, date time.Time) ([]string, error) {
	const q = `
        SELECT url FROM salepulse.video_links
        WHERE date = ? AND store_type = ?
        ORDER BY position ASC
    `
	return s.queryURLs(ctx, q, store, date)
}

// NewsURLs returns most recent articles first.
func (s *CHLinkStore) NewsURLs(ctx context.Context, store models.Store, date time.Time) ([]string, error) {
	const q = `
        SELECT url FROM salepulse.news_links
        WHERE date = ? AND store_type = ?
        ORDER BY published_at DESC
    `
	return s.queryURLs(ctx, q, store, date)
}

func (s *CHLinkStore) queryURLs(ctx context.Context, q string, store models.Store, date time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, q, date.Format(models.DateLayout), store.UpstreamLabel())
	if err != nil {
		return nil, fmt.Errorf("link query: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}
