package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const getWarrantyClaim = `
SELECT id, invoice_id, serial_number, customer_name, issue, status, notes, created_at, updated_at
FROM warranty_claims
WHERE id = $1
`

func (q *Queries) GetWarrantyClaim(ctx context.Context, id uuid.UUID) (WarrantyClaim, error) {
	row := q.db.QueryRow(ctx, getWarrantyClaim, id)
	var c WarrantyClaim
	err := row.Scan(&c.ID, &c.InvoiceID, &c.SerialNumber, &c.CustomerName, &c.Issue, &c.Status, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

const listWarrantyClaims = `
SELECT id, invoice_id, serial_number, customer_name, issue, status, notes, created_at, updated_at
FROM warranty_claims
WHERE ($1::text = '' OR status = $1)
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`

type ListWarrantyClaimsParams struct {
	Status string
	Limit  int32
	Offset int32
}

func (q *Queries) ListWarrantyClaims(ctx context.Context, arg ListWarrantyClaimsParams) ([]WarrantyClaim, error) {
	rows, err := q.db.Query(ctx, listWarrantyClaims, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []WarrantyClaim
	for rows.Next() {
		var c WarrantyClaim
		if err := rows.Scan(&c.ID, &c.InvoiceID, &c.SerialNumber, &c.CustomerName, &c.Issue, &c.Status, &c.Notes, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const createWarrantyClaim = `
INSERT INTO warranty_claims (invoice_id, serial_number, customer_name, issue, status, notes)
VALUES ($1, $2, $3, $4, 'RECEIVED', $5)
RETURNING id, invoice_id, serial_number, customer_name, issue, status, notes, created_at, updated_at
`

type CreateWarrantyClaimParams struct {
	InvoiceID    pgtype.Text
	SerialNumber string
	CustomerName string
	Issue        string
	Notes        pgtype.Text
}

func (q *Queries) CreateWarrantyClaim(ctx context.Context, arg CreateWarrantyClaimParams) (WarrantyClaim, error) {
	row := q.db.QueryRow(ctx, createWarrantyClaim,
		arg.InvoiceID, arg.SerialNumber, arg.CustomerName, arg.Issue, arg.Notes)
	var c WarrantyClaim
	err := row.Scan(&c.ID, &c.InvoiceID, &c.SerialNumber, &c.CustomerName, &c.Issue, &c.Status, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

const updateWarrantyClaimStatus = `
UPDATE warranty_claims
SET status = $2, notes = $4, updated_at = now()
WHERE id = $1 AND status = $3
RETURNING id, invoice_id, serial_number, customer_name, issue, status, notes, created_at, updated_at
`

type UpdateWarrantyClaimStatusParams struct {
	ID         uuid.UUID
	Status     string
	FromStatus string
	Notes      pgtype.Text
}

// UpdateWarrantyClaimStatus transitions the claim only when it still has the
// status the caller read. pgx.ErrNoRows means the claim changed underneath
// the caller or does not exist.
func (q *Queries) UpdateWarrantyClaimStatus(ctx context.Context, arg UpdateWarrantyClaimStatusParams) (WarrantyClaim, error) {
	row := q.db.QueryRow(ctx, updateWarrantyClaimStatus, arg.ID, arg.Status, arg.FromStatus, arg.Notes)
	var c WarrantyClaim
	err := row.Scan(&c.ID, &c.InvoiceID, &c.SerialNumber, &c.CustomerName, &c.Issue, &c.Status, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}
