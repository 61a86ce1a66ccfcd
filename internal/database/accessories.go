package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getAccessory = `
SELECT sku, product_name, colour, cost_price, quantity, created_at, updated_at
FROM accessory_stock
WHERE sku = $1
`

func (q *Queries) GetAccessory(ctx context.Context, sku string) (AccessoryStock, error) {
	row := q.db.QueryRow(ctx, getAccessory, sku)
	var a AccessoryStock
	err := row.Scan(&a.Sku, &a.ProductName, &a.Colour, &a.CostPrice, &a.Quantity, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

const listAccessories = `
SELECT sku, product_name, colour, cost_price, quantity, created_at, updated_at
FROM accessory_stock
ORDER BY product_name
LIMIT $1 OFFSET $2
`

type ListAccessoriesParams struct {
	Limit  int32
	Offset int32
}

func (q *Queries) ListAccessories(ctx context.Context, arg ListAccessoriesParams) ([]AccessoryStock, error) {
	rows, err := q.db.Query(ctx, listAccessories, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AccessoryStock
	for rows.Next() {
		var a AccessoryStock
		if err := rows.Scan(&a.Sku, &a.ProductName, &a.Colour, &a.CostPrice, &a.Quantity, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

const createAccessory = `
INSERT INTO accessory_stock (sku, product_name, colour, cost_price, quantity)
VALUES ($1, $2, $3, $4, $5)
RETURNING sku, product_name, colour, cost_price, quantity, created_at, updated_at
`

type CreateAccessoryParams struct {
	Sku         string
	ProductName string
	Colour      pgtype.Text
	CostPrice   int64
	Quantity    int32
}

func (q *Queries) CreateAccessory(ctx context.Context, arg CreateAccessoryParams) (AccessoryStock, error) {
	row := q.db.QueryRow(ctx, createAccessory,
		arg.Sku, arg.ProductName, arg.Colour, arg.CostPrice, arg.Quantity)
	var a AccessoryStock
	err := row.Scan(&a.Sku, &a.ProductName, &a.Colour, &a.CostPrice, &a.Quantity, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

const updateAccessory = `
UPDATE accessory_stock
SET product_name = $2, colour = $3, cost_price = $4, updated_at = now()
WHERE sku = $1
RETURNING sku, product_name, colour, cost_price, quantity, created_at, updated_at
`

type UpdateAccessoryParams struct {
	Sku         string
	ProductName string
	Colour      pgtype.Text
	CostPrice   int64
}

func (q *Queries) UpdateAccessory(ctx context.Context, arg UpdateAccessoryParams) (AccessoryStock, error) {
	row := q.db.QueryRow(ctx, updateAccessory, arg.Sku, arg.ProductName, arg.Colour, arg.CostPrice)
	var a AccessoryStock
	err := row.Scan(&a.Sku, &a.ProductName, &a.Colour, &a.CostPrice, &a.Quantity, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

const adjustAccessoryQuantity = `
UPDATE accessory_stock
SET quantity = quantity + $2, updated_at = now()
WHERE sku = $1 AND quantity + $2 >= 0
RETURNING sku, product_name, colour, cost_price, quantity, created_at, updated_at
`

type AdjustAccessoryQuantityParams struct {
	Sku   string
	Delta int32
}

// AdjustAccessoryQuantity applies a signed restock/correction delta. The
// WHERE clause keeps quantity from going negative; pgx.ErrNoRows means the
// SKU is missing or the delta would underflow.
func (q *Queries) AdjustAccessoryQuantity(ctx context.Context, arg AdjustAccessoryQuantityParams) (AccessoryStock, error) {
	row := q.db.QueryRow(ctx, adjustAccessoryQuantity, arg.Sku, arg.Delta)
	var a AccessoryStock
	err := row.Scan(&a.Sku, &a.ProductName, &a.Colour, &a.CostPrice, &a.Quantity, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

const decrementAccessory = `
UPDATE accessory_stock
SET quantity = quantity - 1, updated_at = now()
WHERE sku = $1 AND quantity >= 1
RETURNING quantity
`

// DecrementAccessory takes exactly one unit off the shelf. pgx.ErrNoRows
// means the SKU is missing or out of stock.
func (q *Queries) DecrementAccessory(ctx context.Context, sku string) (int32, error) {
	row := q.db.QueryRow(ctx, decrementAccessory, sku)
	var qty int32
	err := row.Scan(&qty)
	return qty, err
}

const incrementAccessory = `
UPDATE accessory_stock
SET quantity = quantity + 1, updated_at = now()
WHERE sku = $1
RETURNING quantity
`

func (q *Queries) IncrementAccessory(ctx context.Context, sku string) (int32, error) {
	row := q.db.QueryRow(ctx, incrementAccessory, sku)
	var qty int32
	err := row.Scan(&qty)
	return qty, err
}

const deleteAccessory = `
DELETE FROM accessory_stock
WHERE sku = $1
RETURNING sku
`

func (q *Queries) DeleteAccessory(ctx context.Context, sku string) (string, error) {
	row := q.db.QueryRow(ctx, deleteAccessory, sku)
	var s string
	err := row.Scan(&s)
	return s, err
}
