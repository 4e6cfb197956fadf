package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/rateshop/internal/model"
)

// CompetitorRateRepo appends and reads competitor_rates.  Rows are
// immutable: every refresh inserts a new batch sharing one scraped_at.
type CompetitorRateRepo struct {
	db *sql.DB
}

func NewCompetitorRateRepo(db *sql.DB) *CompetitorRateRepo { return &CompetitorRateRepo{db: db} }

// InsertBatch writes rates in one multi-row INSERT.  An empty slice is a
// no-op.  scraped_at is kept to the microsecond so that two refreshes within
// one second stay separate batches.
func (r *CompetitorRateRepo) InsertBatch(ctx context.Context, rates []model.CompetitorRate) error {
	if len(rates) == 0 {
		return nil
	}
	query := `INSERT INTO competitor_rates
	  (tenant_id, competitor_id, cache_key, check_in_date, source, raw_source, representative_price,
	   price_source_level, confidence, status, is_before_tax, scraped_at) VALUES `
	args := make([]any, 0, len(rates)*12)
	for i, rt := range rates {
		if i > 0 {
			query += ", "
		}
		query += "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
		args = append(args, rt.TenantID, rt.CompetitorID, rt.CacheKey, dateArg(rt.CheckInDate),
			rt.Source, rt.RawSource, nullInt64Arg(rt.RepresentativePrice), rt.PriceSourceLevel,
			string(rt.Confidence), string(rt.Status), rt.IsBeforeTax, rt.ScrapedAt.UTC().Truncate(time.Microsecond))
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// LatestBatch returns the most recent scrape of competitorID for cacheKey,
// one row per source.  It returns an empty slice when nothing was scraped.
func (r *CompetitorRateRepo) LatestBatch(ctx context.Context, competitorID uint64, cacheKey string) ([]model.CompetitorRate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, tenant_id, competitor_id, cache_key, check_in_date, source, raw_source, representative_price,
		        price_source_level, confidence, status, is_before_tax, scraped_at
		   FROM competitor_rates
		  WHERE competitor_id = ? AND cache_key = ?
		    AND scraped_at = (SELECT MAX(scraped_at) FROM competitor_rates WHERE competitor_id = ? AND cache_key = ?)
		  ORDER BY source`,
		competitorID, cacheKey, competitorID, cacheKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CompetitorRate
	for rows.Next() {
		var (
			rt         model.CompetitorRate
			price      sql.NullInt64
			confidence string
			status     string
		)
		if err := rows.Scan(&rt.ID, &rt.TenantID, &rt.CompetitorID, &rt.CacheKey, &rt.CheckInDate, &rt.Source,
			&rt.RawSource, &price, &rt.PriceSourceLevel, &confidence, &status, &rt.IsBeforeTax, &rt.ScrapedAt); err != nil {
			return nil, err
		}
		rt.RepresentativePrice = int64Ptr(price)
		rt.Confidence = model.Confidence(confidence)
		rt.Status = model.RateStatus(status)
		out = append(out, rt)
	}
	return out, rows.Err()
}

// PurgeBefore deletes rate history scraped before cutoff.
func (r *CompetitorRateRepo) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM competitor_rates WHERE scraped_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
