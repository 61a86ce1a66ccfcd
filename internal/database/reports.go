package database

import (
	"context"
	"time"
)

const getMonthlySalesSummary = `
SELECT
	COALESCE(SUM(sell_price), 0),
	COALESCE(SUM(discount), 0),
	COALESCE(SUM(profit), 0),
	COUNT(*) FILTER (WHERE NOT is_bonus),
	COUNT(*) FILTER (WHERE NOT is_accessory AND code IS NOT NULL AND NOT is_bonus),
	COUNT(*) FILTER (WHERE is_accessory AND NOT is_bonus),
	COUNT(DISTINCT sl.invoice_id)
FROM sale_lines sl
JOIN invoices i ON i.invoice_id = sl.invoice_id
WHERE i.sale_date >= $1 AND i.sale_date < $2
`

type GetMonthlySalesSummaryParams struct {
	MonthStart time.Time
	MonthEnd   time.Time
}

type GetMonthlySalesSummaryRow struct {
	Revenue         int64
	Discount        int64
	Profit          int64
	PaidLines       int64
	UnitsSold       int64
	AccessoriesSold int64
	InvoiceCount    int64
}

func (q *Queries) GetMonthlySalesSummary(ctx context.Context, arg GetMonthlySalesSummaryParams) (GetMonthlySalesSummaryRow, error) {
	row := q.db.QueryRow(ctx, getMonthlySalesSummary, arg.MonthStart, arg.MonthEnd)
	var r GetMonthlySalesSummaryRow
	err := row.Scan(&r.Revenue, &r.Discount, &r.Profit, &r.PaidLines, &r.UnitsSold, &r.AccessoriesSold, &r.InvoiceCount)
	return r, err
}
