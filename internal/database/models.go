package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID             uuid.UUID
	Email          string
	HashedPassword string
	FullName       string
	Role           string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// UnitStock is one serialized physical item. SerialNumber is the natural key;
// it is unique while the unit is READY.
type UnitStock struct {
	SerialNumber   string
	ProductName    string
	Colour         pgtype.Text
	Storage        pgtype.Text
	CostPrice      int64
	WarrantyMonths int32
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AccessoryStock is a fungible SKU with an on-hand count.
type AccessoryStock struct {
	Sku         string
	ProductName string
	Colour      pgtype.Text
	CostPrice   int64
	Quantity    int32
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Invoice is the sale header. InvoiceID is the human-readable primary key
// (INV-CTI-MM-YYYY-N); its uniqueness backs the sequence retry loop.
type Invoice struct {
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
	CreatedAt     time.Time
}

// SaleLine is one committed ledger row: exactly one physical or synthetic
// unit sold. Profit is computed once at commit time and stored.
type SaleLine struct {
	ID                   uuid.UUID
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

type Customer struct {
	ID        uuid.UUID
	FullName  string
	Phone     string
	Address   pgtype.Text
	Email     pgtype.Text
	CreatedAt time.Time
	UpdatedAt time.Time
}

type WarrantyClaim struct {
	ID           uuid.UUID
	InvoiceID    pgtype.Text
	SerialNumber string
	CustomerName string
	Issue        string
	Status       string
	Notes        pgtype.Text
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Indent struct {
	ID           uuid.UUID
	CustomerName string
	Phone        pgtype.Text
	ProductName  string
	DpAmount     int64
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Attendance struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	WorkDate time.Time
	CheckIn  time.Time
	CheckOut pgtype.Timestamptz
}
