package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/database"
	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/enum"
)

const maxInvoiceNumberRetries = 3

// Errors returned by the sale service.
var (
	ErrEmptyCart           = errors.New("cart has no paid or bonus lines")
	ErrMissingSaleDate     = errors.New("sale date is required")
	ErrMissingBuyerName    = errors.New("buyer name is required")
	ErrInvalidIndentID     = errors.New("invalid indent_id")
	ErrUnitNotAvailable    = errors.New("unit is not available for sale")
	ErrInsufficientStock   = errors.New("insufficient accessory stock")
	ErrInvoiceNotFound     = errors.New("invoice not found")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// SaleStore defines the DB methods needed to resolve, commit and delete
// sales. Satisfied by *database.Queries (and its WithTx variant).
type SaleStore interface {
	GetReadyUnit(ctx context.Context, serialNumber string) (database.UnitStock, error)
	GetUnit(ctx context.Context, serialNumber string) (database.UnitStock, error)
	GetAccessory(ctx context.Context, sku string) (database.AccessoryStock, error)
	ListInvoiceIDsByPrefix(ctx context.Context, prefix string) ([]string, error)
	CreateInvoice(ctx context.Context, arg database.CreateInvoiceParams) (database.Invoice, error)
	CreateSaleLine(ctx context.Context, arg database.CreateSaleLineParams) (database.SaleLine, error)
	MarkUnitSold(ctx context.Context, serialNumber string) (string, error)
	MarkUnitReady(ctx context.Context, serialNumber string) (string, error)
	DecrementAccessory(ctx context.Context, sku string) (int32, error)
	IncrementAccessory(ctx context.Context, sku string) (int32, error)
	UpdateIndentStatus(ctx context.Context, arg database.UpdateIndentStatusParams) (database.Indent, error)
	GetInvoice(ctx context.Context, invoiceID string) (database.Invoice, error)
	ListSaleLinesByInvoice(ctx context.Context, invoiceID string) ([]database.SaleLine, error)
	DeleteSaleLines(ctx context.Context, invoiceID string) error
	DeleteInvoice(ctx context.Context, invoiceID string) (string, error)
}

// NewSaleStore creates a SaleStore from a DBTX (pool or tx), so the service
// can run the commit sequence inside a transaction.
type NewSaleStore func(db database.DBTX) SaleStore

// ResolvedLine is the outcome of a catalog lookup for a typed code.
type ResolvedLine struct {
	Kind           LineKind
	Code           string
	ProductName    string
	Colour         string
	Storage        string
	CostPrice      int64
	WarrantyMonths int32
	Quantity       int32
	Found          bool
}

// CreateSaleRequest is the validated input for committing a sale.
type CreateSaleRequest struct {
	SaleDate      time.Time
	BuyerName     string
	BuyerPhone    string
	BuyerAddress  string
	PaymentMethod string
	Discount      int64
	CreatedBy     uuid.UUID
	IndentID      string // optional layaway source, marked fulfilled best-effort
	Cart          *Cart
}

// CreateSaleResult is the committed invoice with its ledger rows.
type CreateSaleResult struct {
	Invoice database.Invoice
	Lines   []database.SaleLine
}

// SaleService owns the sales transaction builder: catalog resolution,
// pricing, invoice sequencing and the persist-and-mutate commit.
type SaleService struct {
	pool     TxBeginner
	store    SaleStore
	newStore NewSaleStore
}

// NewSaleService creates a new SaleService. store runs read-only lookups
// against the pool; newStore builds transaction-scoped stores for commits.
func NewSaleService(pool TxBeginner, store SaleStore, newStore NewSaleStore) *SaleService {
	return &SaleService{pool: pool, store: store, newStore: newStore}
}

// Resolve classifies a typed code against the two catalogs: READY units
// first, then accessory SKUs. An unknown code is not an error; it degrades
// to a bare unit-type line the operator fills in manually.
func (s *SaleService) Resolve(ctx context.Context, code string) (ResolvedLine, error) {
	code = NormalizeCode(code)
	if code == "" {
		return ResolvedLine{}, ErrEmptyCode
	}

	unit, err := s.store.GetReadyUnit(ctx, code)
	if err == nil {
		return ResolvedLine{
			Kind:           KindUnit,
			Code:           unit.SerialNumber,
			ProductName:    unit.ProductName,
			Colour:         unit.Colour.String,
			Storage:        unit.Storage.String,
			CostPrice:      unit.CostPrice,
			WarrantyMonths: unit.WarrantyMonths,
			Quantity:       1,
			Found:          true,
		}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return ResolvedLine{}, fmt.Errorf("lookup unit: %w", err)
	}

	acc, err := s.store.GetAccessory(ctx, code)
	if err == nil {
		return ResolvedLine{
			Kind:        KindAccessory,
			Code:        acc.Sku,
			ProductName: acc.ProductName,
			Colour:      acc.Colour.String,
			CostPrice:   acc.CostPrice,
			Quantity:    1,
			Found:       true,
		}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return ResolvedLine{}, fmt.Errorf("lookup accessory: %w", err)
	}

	// Manual-entry escape hatch: neither catalog knows the code.
	return ResolvedLine{Kind: KindUnit, Code: code, Quantity: 1, Found: false}, nil
}

// CreateSale expands the cart, allocates the discount and commits the sale
// atomically. Retries up to maxInvoiceNumberRetries times on invoice ID
// unique constraint violations (race condition where concurrent
// transactions scan the same MAX for the month).
func (s *SaleService) CreateSale(ctx context.Context, req CreateSaleRequest) (*CreateSaleResult, error) {
	if req.SaleDate.IsZero() {
		return nil, ErrMissingSaleDate
	}
	if req.BuyerName == "" {
		return nil, ErrMissingBuyerName
	}
	if req.Cart == nil || req.Cart.Empty() {
		return nil, ErrEmptyCart
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = enum.PaymentMethodCash
	}

	var indentID uuid.UUID
	if req.IndentID != "" {
		id, err := uuid.Parse(req.IndentID)
		if err != nil {
			return nil, ErrInvalidIndentID
		}
		indentID = id
	}

	lines := ExpandLines(req.Cart)
	discount := AllocateDiscount(lines, req.Discount)
	subtotal := Subtotal(lines)

	var result *CreateSaleResult
	var lastErr error
	for attempt := 0; attempt < maxInvoiceNumberRetries; attempt++ {
		res, err := s.createSaleTx(ctx, req, lines, subtotal, discount)
		if err == nil {
			result = res
			break
		}
		if isInvoiceIDConflict(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	if result == nil {
		return nil, lastErr
	}

	// Layaway follow-up is best-effort: the sale is already durable, so a
	// failure here is reported but does not fail the commit.
	if indentID != uuid.Nil {
		_, err := s.store.UpdateIndentStatus(ctx, database.UpdateIndentStatusParams{
			ID:     indentID,
			Status: enum.IndentStatusFulfilled,
		})
		if err != nil {
			log.Printf("WARN: sale %s committed but indent %s not marked fulfilled: %v",
				result.Invoice.InvoiceID, indentID, err)
		}
	}

	return result, nil
}

// isInvoiceIDConflict checks if the error is a unique constraint violation
// on the invoice primary key (pgconn error code 23505).
func isInvoiceIDConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "invoices_pkey"
	}
	return false
}

// createSaleTx runs the full commit sequence in a single transaction:
// sequence the invoice ID, insert the header, then for each expanded line
// insert its ledger row and apply its inventory mutation, in commit order.
// A failure on any line rolls the whole sale back.
func (s *SaleService) createSaleTx(ctx context.Context, req CreateSaleRequest, lines []ExpandedLine, subtotal, discount int64) (*CreateSaleResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	// --- Sequence the invoice ID ---
	prefix := InvoicePrefix(req.SaleDate)
	ids, err := store.ListInvoiceIDsByPrefix(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("scan invoice ids: %w", err)
	}
	invoiceID := FormatInvoiceID(req.SaleDate, NextInvoiceNumber(ids, prefix))

	// --- Insert header (its PK backs the retry loop) ---
	invoice, err := store.CreateInvoice(ctx, database.CreateInvoiceParams{
		InvoiceID:     invoiceID,
		SaleDate:      req.SaleDate,
		BuyerName:     req.BuyerName,
		BuyerPhone:    textOrNull(req.BuyerPhone),
		BuyerAddress:  textOrNull(req.BuyerAddress),
		PaymentMethod: req.PaymentMethod,
		Subtotal:      subtotal,
		Discount:      discount,
		Total:         subtotal - discount,
		CreatedBy:     req.CreatedBy,
	})
	if err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}

	// --- Persist-and-mutate, one expanded line at a time, in commit order.
	// The inventory mutation for a line always happens strictly after that
	// line's ledger row insert, so mutations never run ahead of persistence.
	var saved []database.SaleLine
	for i, line := range lines {
		row, err := store.CreateSaleLine(ctx, database.CreateSaleLineParams{
			InvoiceID:            invoiceID,
			Position:             int32(i),
			Code:                 textOrNull(line.Code),
			ProductName:          line.ProductName,
			Colour:               textOrNull(line.Colour),
			Storage:              textOrNull(line.Storage),
			SellPrice:            line.SellPrice,
			CostPrice:            line.CostPrice,
			Discount:             line.Discount,
			Profit:               (line.SellPrice - line.Discount) - line.CostPrice,
			IsBonus:              line.IsBonus,
			IsAccessory:          line.Kind == KindAccessory,
			WarrantyMonths:       line.WarrantyMonths,
			SubscriptionUsername: textOrNull(line.SubscriptionUsername),
		})
		if err != nil {
			return nil, fmt.Errorf("line[%d]: insert ledger row: %w", i, err)
		}
		saved = append(saved, row)

		if err := s.applyInventoryMutation(ctx, store, line); err != nil {
			return nil, fmt.Errorf("line[%d]: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CreateSaleResult{Invoice: invoice, Lines: saved}, nil
}

// applyInventoryMutation mirrors one persisted line into inventory: fee
// lines touch nothing; codes found in the unit catalog flip READY->SOLD;
// codes found in the accessory catalog decrement by exactly 1. Codes in
// neither catalog are manual-entry lines and have no inventory effect.
func (s *SaleService) applyInventoryMutation(ctx context.Context, store SaleStore, line ExpandedLine) error {
	if line.Kind == KindFee {
		return nil
	}

	_, err := store.GetUnit(ctx, line.Code)
	if err == nil {
		if _, err := store.MarkUnitSold(ctx, line.Code); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: %s", ErrUnitNotAvailable, line.Code)
			}
			return fmt.Errorf("mark unit sold: %w", err)
		}
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("lookup unit: %w", err)
	}

	_, err = store.GetAccessory(ctx, line.Code)
	if err == nil {
		if _, err := store.DecrementAccessory(ctx, line.Code); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: %s", ErrInsufficientStock, line.Code)
			}
			return fmt.Errorf("decrement accessory: %w", err)
		}
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("lookup accessory: %w", err)
	}

	// Manual-entry line: no catalog record, nothing to mutate.
	return nil
}

// DeleteSale removes a committed sale and compensates inventory: SOLD units
// referenced by its lines go back to READY and accessory counts are
// re-incremented, all in one transaction.
func (s *SaleService) DeleteSale(ctx context.Context, invoiceID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if _, err := store.GetInvoice(ctx, invoiceID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrInvoiceNotFound
		}
		return fmt.Errorf("get invoice: %w", err)
	}

	lines, err := store.ListSaleLinesByInvoice(ctx, invoiceID)
	if err != nil {
		return fmt.Errorf("list sale lines: %w", err)
	}

	for i, line := range lines {
		if !line.Code.Valid || line.Code.String == "" {
			continue // fee line
		}
		if err := s.revertInventoryMutation(ctx, store, line.Code.String); err != nil {
			return fmt.Errorf("line[%d]: %w", i, err)
		}
	}

	if err := store.DeleteSaleLines(ctx, invoiceID); err != nil {
		return fmt.Errorf("delete sale lines: %w", err)
	}
	if _, err := store.DeleteInvoice(ctx, invoiceID); err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *SaleService) revertInventoryMutation(ctx context.Context, store SaleStore, code string) error {
	_, err := store.GetUnit(ctx, code)
	if err == nil {
		if _, err := store.MarkUnitReady(ctx, code); err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("mark unit ready: %w", err)
		}
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("lookup unit: %w", err)
	}

	_, err = store.GetAccessory(ctx, code)
	if err == nil {
		if _, err := store.IncrementAccessory(ctx, code); err != nil {
			return fmt.Errorf("increment accessory: %w", err)
		}
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("lookup accessory: %w", err)
	}

	// Manual-entry line: nothing was mutated at commit time.
	return nil
}

func textOrNull(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
