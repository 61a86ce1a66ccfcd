package cache

import (
	"context"
	"time"

	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/database"
)

// ReportCache stores computed monthly summaries keyed by month. Reports are
// rebuilt from the ledger on a miss, so a cold or absent cache only costs a
// query.
type ReportCache interface {
	Get(ctx context.Context, key string) (*database.GetMonthlySalesSummaryRow, bool, error)
	Set(ctx context.Context, key string, value *database.GetMonthlySalesSummaryRow, ttl time.Duration) error
}

// NoopReportCache is used when Redis is not configured.
type NoopReportCache struct{}

func (NoopReportCache) Get(_ context.Context, _ string) (*database.GetMonthlySalesSummaryRow, bool, error) {
	return nil, false, nil
}

func (NoopReportCache) Set(_ context.Context, _ string, _ *database.GetMonthlySalesSummaryRow, _ time.Duration) error {
	return nil
}
