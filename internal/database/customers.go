package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const getCustomer = `
SELECT id, full_name, phone, address, email, created_at, updated_at
FROM customers
WHERE id = $1
`

func (q *Queries) GetCustomer(ctx context.Context, id uuid.UUID) (Customer, error) {
	row := q.db.QueryRow(ctx, getCustomer, id)
	var c Customer
	err := row.Scan(&c.ID, &c.FullName, &c.Phone, &c.Address, &c.Email, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

const searchCustomers = `
SELECT id, full_name, phone, address, email, created_at, updated_at
FROM customers
WHERE ($1::text = '' OR full_name ILIKE '%' || $1 || '%' OR phone LIKE '%' || $1 || '%')
ORDER BY full_name
LIMIT $2 OFFSET $3
`

type SearchCustomersParams struct {
	Query  string
	Limit  int32
	Offset int32
}

func (q *Queries) SearchCustomers(ctx context.Context, arg SearchCustomersParams) ([]Customer, error) {
	rows, err := q.db.Query(ctx, searchCustomers, arg.Query, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.FullName, &c.Phone, &c.Address, &c.Email, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const createCustomer = `
INSERT INTO customers (full_name, phone, address, email)
VALUES ($1, $2, $3, $4)
RETURNING id, full_name, phone, address, email, created_at, updated_at
`

type CreateCustomerParams struct {
	FullName string
	Phone    string
	Address  pgtype.Text
	Email    pgtype.Text
}

func (q *Queries) CreateCustomer(ctx context.Context, arg CreateCustomerParams) (Customer, error) {
	row := q.db.QueryRow(ctx, createCustomer, arg.FullName, arg.Phone, arg.Address, arg.Email)
	var c Customer
	err := row.Scan(&c.ID, &c.FullName, &c.Phone, &c.Address, &c.Email, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

const updateCustomer = `
UPDATE customers
SET full_name = $2, phone = $3, address = $4, email = $5, updated_at = now()
WHERE id = $1
RETURNING id, full_name, phone, address, email, created_at, updated_at
`

type UpdateCustomerParams struct {
	ID       uuid.UUID
	FullName string
	Phone    string
	Address  pgtype.Text
	Email    pgtype.Text
}

func (q *Queries) UpdateCustomer(ctx context.Context, arg UpdateCustomerParams) (Customer, error) {
	row := q.db.QueryRow(ctx, updateCustomer, arg.ID, arg.FullName, arg.Phone, arg.Address, arg.Email)
	var c Customer
	err := row.Scan(&c.ID, &c.FullName, &c.Phone, &c.Address, &c.Email, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

const deleteCustomer = `
DELETE FROM customers
WHERE id = $1
RETURNING id
`

func (q *Queries) DeleteCustomer(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deleteCustomer, id)
	var out uuid.UUID
	err := row.Scan(&out)
	return out, err
}
