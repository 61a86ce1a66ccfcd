package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const listInvoiceIDsByPrefix = `
SELECT invoice_id
FROM invoices
WHERE invoice_id LIKE $1 || '%'
`

// ListInvoiceIDsByPrefix returns every invoice ID sharing a month prefix,
// used only for max-extraction when sequencing the next number.
func (q *Queries) ListInvoiceIDsByPrefix(ctx context.Context, prefix string) ([]string, error) {
	rows, err := q.db.Query(ctx, listInvoiceIDsByPrefix, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const createInvoice = `
INSERT INTO invoices (invoice_id, sale_date, buyer_name, buyer_phone, buyer_address, payment_method, subtotal, discount, total, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING invoice_id, sale_date, buyer_name, buyer_phone, buyer_address, payment_method, subtotal, discount, total, created_by, created_at
`

type CreateInvoiceParams struct {
	InvoiceID     string
	SaleDate      time.Time
	BuyerName     string
	BuyerPhone    pgtype.Text
	BuyerAddress  pgtype.Text
	PaymentMethod string
	Subtotal      int64
	Discount      int64
	Total         int64
	CreatedBy     uuid.UUID
}

func (q *Queries) CreateInvoice(ctx context.Context, arg CreateInvoiceParams) (Invoice, error) {
	row := q.db.QueryRow(ctx, createInvoice,
		arg.InvoiceID, arg.SaleDate, arg.BuyerName, arg.BuyerPhone, arg.BuyerAddress,
		arg.PaymentMethod, arg.Subtotal, arg.Discount, arg.Total, arg.CreatedBy)
	var inv Invoice
	err := row.Scan(&inv.InvoiceID, &inv.SaleDate, &inv.BuyerName, &inv.BuyerPhone, &inv.BuyerAddress,
		&inv.PaymentMethod, &inv.Subtotal, &inv.Discount, &inv.Total, &inv.CreatedBy, &inv.CreatedAt)
	return inv, err
}

const createSaleLine = `
INSERT INTO sale_lines (invoice_id, position, code, product_name, colour, storage, sell_price, cost_price, discount, profit, is_bonus, is_accessory, warranty_months, subscription_username)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
RETURNING id, invoice_id, position, code, product_name, colour, storage, sell_price, cost_price, discount, profit, is_bonus, is_accessory, warranty_months, subscription_username
`

type CreateSaleLineParams struct {
	InvoiceID            string
	Position             int32
	Code                 pgtype.Text
	ProductName          string
	Colour               pgtype.Text
	Storage              pgtype.Text
	SellPrice            int64
	CostPrice            int64
	Discount             int64
	Profit               int64
	IsBonus              bool
	IsAccessory          bool
	WarrantyMonths       int32
	SubscriptionUsername pgtype.Text
}

func (q *Queries) CreateSaleLine(ctx context.Context, arg CreateSaleLineParams) (SaleLine, error) {
	row := q.db.QueryRow(ctx, createSaleLine,
		arg.InvoiceID, arg.Position, arg.Code, arg.ProductName, arg.Colour, arg.Storage,
		arg.SellPrice, arg.CostPrice, arg.Discount, arg.Profit, arg.IsBonus, arg.IsAccessory,
		arg.WarrantyMonths, arg.SubscriptionUsername)
	var l SaleLine
	err := scanSaleLine(row, &l)
	return l, err
}

const getInvoice = `
SELECT invoice_id, sale_date, buyer_name, buyer_phone, buyer_address, payment_method, subtotal, discount, total, created_by, created_at
FROM invoices
WHERE invoice_id = $1
`

func (q *Queries) GetInvoice(ctx context.Context, invoiceID string) (Invoice, error) {
	row := q.db.QueryRow(ctx, getInvoice, invoiceID)
	var inv Invoice
	err := row.Scan(&inv.InvoiceID, &inv.SaleDate, &inv.BuyerName, &inv.BuyerPhone, &inv.BuyerAddress,
		&inv.PaymentMethod, &inv.Subtotal, &inv.Discount, &inv.Total, &inv.CreatedBy, &inv.CreatedAt)
	return inv, err
}

const listInvoices = `
SELECT invoice_id, sale_date, buyer_name, buyer_phone, buyer_address, payment_method, subtotal, discount, total, created_by, created_at
FROM invoices
WHERE ($1::date IS NULL OR sale_date >= $1)
  AND ($2::date IS NULL OR sale_date <= $2)
ORDER BY created_at DESC
LIMIT $3 OFFSET $4
`

type ListInvoicesParams struct {
	StartDate pgtype.Date
	EndDate   pgtype.Date
	Limit     int32
	Offset    int32
}

func (q *Queries) ListInvoices(ctx context.Context, arg ListInvoicesParams) ([]Invoice, error) {
	rows, err := q.db.Query(ctx, listInvoices, arg.StartDate, arg.EndDate, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Invoice
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(&inv.InvoiceID, &inv.SaleDate, &inv.BuyerName, &inv.BuyerPhone, &inv.BuyerAddress,
			&inv.PaymentMethod, &inv.Subtotal, &inv.Discount, &inv.Total, &inv.CreatedBy, &inv.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, inv)
	}
	return items, rows.Err()
}

const listSaleLinesByInvoice = `
SELECT id, invoice_id, position, code, product_name, colour, storage, sell_price, cost_price, discount, profit, is_bonus, is_accessory, warranty_months, subscription_username
FROM sale_lines
WHERE invoice_id = $1
ORDER BY position
`

func (q *Queries) ListSaleLinesByInvoice(ctx context.Context, invoiceID string) ([]SaleLine, error) {
	rows, err := q.db.Query(ctx, listSaleLinesByInvoice, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SaleLine
	for rows.Next() {
		var l SaleLine
		if err := scanSaleLine(rows, &l); err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

const deleteSaleLines = `
DELETE FROM sale_lines
WHERE invoice_id = $1
`

func (q *Queries) DeleteSaleLines(ctx context.Context, invoiceID string) error {
	_, err := q.db.Exec(ctx, deleteSaleLines, invoiceID)
	return err
}

const deleteInvoice = `
DELETE FROM invoices
WHERE invoice_id = $1
RETURNING invoice_id
`

func (q *Queries) DeleteInvoice(ctx context.Context, invoiceID string) (string, error) {
	row := q.db.QueryRow(ctx, deleteInvoice, invoiceID)
	var id string
	err := row.Scan(&id)
	return id, err
}

type saleLineScanner interface {
	Scan(dest ...any) error
}

func scanSaleLine(row saleLineScanner, l *SaleLine) error {
	return row.Scan(&l.ID, &l.InvoiceID, &l.Position, &l.Code, &l.ProductName, &l.Colour, &l.Storage,
		&l.SellPrice, &l.CostPrice, &l.Discount, &l.Profit, &l.IsBonus, &l.IsAccessory,
		&l.WarrantyMonths, &l.SubscriptionUsername)
}
