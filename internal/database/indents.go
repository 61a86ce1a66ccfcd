package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const getIndent = `
SELECT id, customer_name, phone, product_name, dp_amount, status, created_at, updated_at
FROM indents
WHERE id = $1
`

func (q *Queries) GetIndent(ctx context.Context, id uuid.UUID) (Indent, error) {
	row := q.db.QueryRow(ctx, getIndent, id)
	var ind Indent
	err := row.Scan(&ind.ID, &ind.CustomerName, &ind.Phone, &ind.ProductName, &ind.DpAmount, &ind.Status, &ind.CreatedAt, &ind.UpdatedAt)
	return ind, err
}

const listIndents = `
SELECT id, customer_name, phone, product_name, dp_amount, status, created_at, updated_at
FROM indents
WHERE ($1::text = '' OR status = $1)
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`

type ListIndentsParams struct {
	Status string
	Limit  int32
	Offset int32
}

func (q *Queries) ListIndents(ctx context.Context, arg ListIndentsParams) ([]Indent, error) {
	rows, err := q.db.Query(ctx, listIndents, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Indent
	for rows.Next() {
		var ind Indent
		if err := rows.Scan(&ind.ID, &ind.CustomerName, &ind.Phone, &ind.ProductName, &ind.DpAmount, &ind.Status, &ind.CreatedAt, &ind.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, ind)
	}
	return items, rows.Err()
}

const createIndent = `
INSERT INTO indents (customer_name, phone, product_name, dp_amount, status)
VALUES ($1, $2, $3, $4, 'PENDING')
RETURNING id, customer_name, phone, product_name, dp_amount, status, created_at, updated_at
`

type CreateIndentParams struct {
	CustomerName string
	Phone        pgtype.Text
	ProductName  string
	DpAmount     int64
}

func (q *Queries) CreateIndent(ctx context.Context, arg CreateIndentParams) (Indent, error) {
	row := q.db.QueryRow(ctx, createIndent, arg.CustomerName, arg.Phone, arg.ProductName, arg.DpAmount)
	var ind Indent
	err := row.Scan(&ind.ID, &ind.CustomerName, &ind.Phone, &ind.ProductName, &ind.DpAmount, &ind.Status, &ind.CreatedAt, &ind.UpdatedAt)
	return ind, err
}

const updateIndentStatus = `
UPDATE indents
SET status = $2, updated_at = now()
WHERE id = $1 AND status = 'PENDING'
RETURNING id, customer_name, phone, product_name, dp_amount, status, created_at, updated_at
`

type UpdateIndentStatusParams struct {
	ID     uuid.UUID
	Status string
}

// UpdateIndentStatus moves a PENDING indent to FULFILLED or CANCELLED.
// pgx.ErrNoRows means the indent is missing or already settled.
func (q *Queries) UpdateIndentStatus(ctx context.Context, arg UpdateIndentStatusParams) (Indent, error) {
	row := q.db.QueryRow(ctx, updateIndentStatus, arg.ID, arg.Status)
	var ind Indent
	err := row.Scan(&ind.ID, &ind.CustomerName, &ind.Phone, &ind.ProductName, &ind.DpAmount, &ind.Status, &ind.CreatedAt, &ind.UpdatedAt)
	return ind, err
}
