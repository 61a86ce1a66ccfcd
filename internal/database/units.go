package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getUnit = `
SELECT serial_number, product_name, colour, storage, cost_price, warranty_months, status, created_at, updated_at
FROM unit_stock
WHERE serial_number = $1
`

func (q *Queries) GetUnit(ctx context.Context, serialNumber string) (UnitStock, error) {
	row := q.db.QueryRow(ctx, getUnit, serialNumber)
	var u UnitStock
	err := row.Scan(&u.SerialNumber, &u.ProductName, &u.Colour, &u.Storage, &u.CostPrice, &u.WarrantyMonths, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

const getReadyUnit = `
SELECT serial_number, product_name, colour, storage, cost_price, warranty_months, status, created_at, updated_at
FROM unit_stock
WHERE serial_number = $1 AND status = 'READY'
`

func (q *Queries) GetReadyUnit(ctx context.Context, serialNumber string) (UnitStock, error) {
	row := q.db.QueryRow(ctx, getReadyUnit, serialNumber)
	var u UnitStock
	err := row.Scan(&u.SerialNumber, &u.ProductName, &u.Colour, &u.Storage, &u.CostPrice, &u.WarrantyMonths, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

const listUnits = `
SELECT serial_number, product_name, colour, storage, cost_price, warranty_months, status, created_at, updated_at
FROM unit_stock
WHERE ($1::text = '' OR status = $1)
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`

type ListUnitsParams struct {
	Status string
	Limit  int32
	Offset int32
}

func (q *Queries) ListUnits(ctx context.Context, arg ListUnitsParams) ([]UnitStock, error) {
	rows, err := q.db.Query(ctx, listUnits, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []UnitStock
	for rows.Next() {
		var u UnitStock
		if err := rows.Scan(&u.SerialNumber, &u.ProductName, &u.Colour, &u.Storage, &u.CostPrice, &u.WarrantyMonths, &u.Status, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, rows.Err()
}

const createUnit = `
INSERT INTO unit_stock (serial_number, product_name, colour, storage, cost_price, warranty_months, status)
VALUES ($1, $2, $3, $4, $5, $6, 'READY')
RETURNING serial_number, product_name, colour, storage, cost_price, warranty_months, status, created_at, updated_at
`

type CreateUnitParams struct {
	SerialNumber   string
	ProductName    string
	Colour         pgtype.Text
	Storage        pgtype.Text
	CostPrice      int64
	WarrantyMonths int32
}

func (q *Queries) CreateUnit(ctx context.Context, arg CreateUnitParams) (UnitStock, error) {
	row := q.db.QueryRow(ctx, createUnit,
		arg.SerialNumber, arg.ProductName, arg.Colour, arg.Storage, arg.CostPrice, arg.WarrantyMonths)
	var u UnitStock
	err := row.Scan(&u.SerialNumber, &u.ProductName, &u.Colour, &u.Storage, &u.CostPrice, &u.WarrantyMonths, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

const updateUnit = `
UPDATE unit_stock
SET product_name = $2, colour = $3, storage = $4, cost_price = $5, warranty_months = $6, updated_at = now()
WHERE serial_number = $1
RETURNING serial_number, product_name, colour, storage, cost_price, warranty_months, status, created_at, updated_at
`

type UpdateUnitParams struct {
	SerialNumber   string
	ProductName    string
	Colour         pgtype.Text
	Storage        pgtype.Text
	CostPrice      int64
	WarrantyMonths int32
}

func (q *Queries) UpdateUnit(ctx context.Context, arg UpdateUnitParams) (UnitStock, error) {
	row := q.db.QueryRow(ctx, updateUnit,
		arg.SerialNumber, arg.ProductName, arg.Colour, arg.Storage, arg.CostPrice, arg.WarrantyMonths)
	var u UnitStock
	err := row.Scan(&u.SerialNumber, &u.ProductName, &u.Colour, &u.Storage, &u.CostPrice, &u.WarrantyMonths, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

const markUnitSold = `
UPDATE unit_stock
SET status = 'SOLD', updated_at = now()
WHERE serial_number = $1 AND status = 'READY'
RETURNING serial_number
`

// MarkUnitSold flips READY -> SOLD. Returns pgx.ErrNoRows when the unit is
// missing or already SOLD, which is the double-sale guard.
func (q *Queries) MarkUnitSold(ctx context.Context, serialNumber string) (string, error) {
	row := q.db.QueryRow(ctx, markUnitSold, serialNumber)
	var sn string
	err := row.Scan(&sn)
	return sn, err
}

const markUnitReady = `
UPDATE unit_stock
SET status = 'READY', updated_at = now()
WHERE serial_number = $1 AND status = 'SOLD'
RETURNING serial_number
`

func (q *Queries) MarkUnitReady(ctx context.Context, serialNumber string) (string, error) {
	row := q.db.QueryRow(ctx, markUnitReady, serialNumber)
	var sn string
	err := row.Scan(&sn)
	return sn, err
}

const deleteReadyUnit = `
DELETE FROM unit_stock
WHERE serial_number = $1 AND status = 'READY'
RETURNING serial_number
`

func (q *Queries) DeleteReadyUnit(ctx context.Context, serialNumber string) (string, error) {
	row := q.db.QueryRow(ctx, deleteReadyUnit, serialNumber)
	var sn string
	err := row.Scan(&sn)
	return sn, err
}
