package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/database"
	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/enum"
	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/middleware"
	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/service"
)

// SaleServicer defines the service methods needed by sale handlers.
// Satisfied by *service.SaleService; narrow interface for testability.
type SaleServicer interface {
	Resolve(ctx context.Context, code string) (service.ResolvedLine, error)
	CreateSale(ctx context.Context, req service.CreateSaleRequest) (*service.CreateSaleResult, error)
	DeleteSale(ctx context.Context, invoiceID string) error
}

// SaleReadStore defines the database methods needed by sale read handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type SaleReadStore interface {
	GetInvoice(ctx context.Context, invoiceID string) (database.Invoice, error)
	ListInvoices(ctx context.Context, arg database.ListInvoicesParams) ([]database.Invoice, error)
	ListSaleLinesByInvoice(ctx context.Context, invoiceID string) ([]database.SaleLine, error)
}

// Notifier pushes events to connected back-office clients.
// Satisfied by *ws.Hub.
type Notifier interface {
	BroadcastJSON(eventType string, payload interface{})
}

// SaleHandler handles sale transaction endpoints.
type SaleHandler struct {
	svc      SaleServicer
	store    SaleReadStore
	notifier Notifier
}

// NewSaleHandler creates a new SaleHandler. notifier may be nil.
func NewSaleHandler(svc SaleServicer, store SaleReadStore, notifier Notifier) *SaleHandler {
	return &SaleHandler{svc: svc, store: store, notifier: notifier}
}

// RegisterRoutes registers sale endpoints on the given Chi router.
func (h *SaleHandler) RegisterRoutes(r chi.Router) {
	r.Get("/resolve", h.Resolve)
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.With(middleware.RequireRole(enum.UserRoleOwner, enum.UserRoleAdmin)).Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type saleLineRequest struct {
	Kind                 string `json:"kind"` // UNIT or ACCESSORY
	Code                 string `json:"code"`
	ProductName          string `json:"product_name"`
	Colour               string `json:"colour"`
	Storage              string `json:"storage"`
	SellPrice            int64  `json:"sell_price"`
	CostPrice            int64  `json:"cost_price"`
	Quantity             int32  `json:"quantity"`
	WarrantyMonths       int32  `json:"warranty_months"`
	SubscriptionUsername string `json:"subscription_username"`
}

type saleFeeRequest struct {
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
}

type createSaleRequest struct {
	SaleDate      string            `json:"sale_date"` // YYYY-MM-DD
	BuyerName     string            `json:"buyer_name"`
	BuyerPhone    string            `json:"buyer_phone"`
	BuyerAddress  string            `json:"buyer_address"`
	PaymentMethod string            `json:"payment_method"`
	Discount      int64             `json:"discount"`
	IndentID      string            `json:"indent_id"`
	Lines         []saleLineRequest `json:"lines"`
	Bonuses       []saleLineRequest `json:"bonuses"`
	Fees          []saleFeeRequest  `json:"fees"`
}

type saleLineResponse struct {
	ID                   uuid.UUID `json:"id"`
	Position             int32     `json:"position"`
	Code                 *string   `json:"code"`
	ProductName          string    `json:"product_name"`
	Colour               *string   `json:"colour"`
	Storage              *string   `json:"storage"`
	SellPrice            int64     `json:"sell_price"`
	CostPrice            int64     `json:"cost_price"`
	Discount             int64     `json:"discount"`
	Profit               int64     `json:"profit"`
	IsBonus              bool      `json:"is_bonus"`
	IsAccessory          bool      `json:"is_accessory"`
	WarrantyMonths       int32     `json:"warranty_months"`
	SubscriptionUsername *string   `json:"subscription_username"`
}

type invoiceResponse struct {
	InvoiceID     string             `json:"invoice_id"`
	SaleDate      time.Time          `json:"sale_date"`
	BuyerName     string             `json:"buyer_name"`
	BuyerPhone    *string            `json:"buyer_phone"`
	BuyerAddress  *string            `json:"buyer_address"`
	PaymentMethod string             `json:"payment_method"`
	Subtotal      int64              `json:"subtotal"`
	Discount      int64              `json:"discount"`
	Total         int64              `json:"total"`
	CreatedBy     uuid.UUID          `json:"created_by"`
	CreatedAt     time.Time          `json:"created_at"`
	Lines         []saleLineResponse `json:"lines,omitempty"`
}

type invoiceListResponse struct {
	Invoices []invoiceResponse `json:"invoices"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

type resolveResponse struct {
	Kind           string  `json:"kind"`
	Code           string  `json:"code"`
	ProductName    string  `json:"product_name"`
	Colour         *string `json:"colour"`
	Storage        *string `json:"storage"`
	CostPrice      int64   `json:"cost_price"`
	WarrantyMonths int32   `json:"warranty_months"`
	Quantity       int32   `json:"quantity"`
	Found          bool    `json:"found"`
}

func toSaleLineResponse(l database.SaleLine) saleLineResponse {
	resp := saleLineResponse{
		ID:             l.ID,
		Position:       l.Position,
		ProductName:    l.ProductName,
		SellPrice:      l.SellPrice,
		CostPrice:      l.CostPrice,
		Discount:       l.Discount,
		Profit:         l.Profit,
		IsBonus:        l.IsBonus,
		IsAccessory:    l.IsAccessory,
		WarrantyMonths: l.WarrantyMonths,
	}
	if l.Code.Valid {
		resp.Code = &l.Code.String
	}
	if l.Colour.Valid {
		resp.Colour = &l.Colour.String
	}
	if l.Storage.Valid {
		resp.Storage = &l.Storage.String
	}
	if l.SubscriptionUsername.Valid {
		resp.SubscriptionUsername = &l.SubscriptionUsername.String
	}
	return resp
}

func toInvoiceResponse(inv database.Invoice, lines []database.SaleLine) invoiceResponse {
	resp := invoiceResponse{
		InvoiceID:     inv.InvoiceID,
		SaleDate:      inv.SaleDate,
		BuyerName:     inv.BuyerName,
		PaymentMethod: inv.PaymentMethod,
		Subtotal:      inv.Subtotal,
		Discount:      inv.Discount,
		Total:         inv.Total,
		CreatedBy:     inv.CreatedBy,
		CreatedAt:     inv.CreatedAt,
	}
	if inv.BuyerPhone.Valid {
		resp.BuyerPhone = &inv.BuyerPhone.String
	}
	if inv.BuyerAddress.Valid {
		resp.BuyerAddress = &inv.BuyerAddress.String
	}
	if lines != nil {
		resp.Lines = make([]saleLineResponse, len(lines))
		for i, l := range lines {
			resp.Lines[i] = toSaleLineResponse(l)
		}
	}
	return resp
}

// --- Helpers ---

func formatLineError(basket string, idx int, msg string) string {
	return basket + "[" + strconv.Itoa(idx) + "]: " + msg
}

func toCartLine(req saleLineRequest) (service.CartLine, bool) {
	var kind service.LineKind
	switch req.Kind {
	case string(service.KindUnit):
		kind = service.KindUnit
	case string(service.KindAccessory):
		kind = service.KindAccessory
	default:
		return service.CartLine{}, false
	}
	return service.CartLine{
		Kind:                 kind,
		Code:                 req.Code,
		ProductName:          req.ProductName,
		Colour:               req.Colour,
		Storage:              req.Storage,
		SellPrice:            req.SellPrice,
		CostPrice:            req.CostPrice,
		Quantity:             req.Quantity,
		WarrantyMonths:       req.WarrantyMonths,
		SubscriptionUsername: req.SubscriptionUsername,
	}, true
}

func isValidPaymentMethod(m string) bool {
	switch m {
	case enum.PaymentMethodCash, enum.PaymentMethodTransfer,
		enum.PaymentMethodQRIS, enum.PaymentMethodDebit:
		return true
	}
	return false
}

// isSaleValidationError checks if the error is a known validation error
// from the service layer that should result in 400 Bad Request.
func isSaleValidationError(err error) bool {
	return errors.Is(err, service.ErrEmptyCart) ||
		errors.Is(err, service.ErrMissingSaleDate) ||
		errors.Is(err, service.ErrMissingBuyerName) ||
		errors.Is(err, service.ErrInvalidIndentID)
}

// --- Handlers ---

// Resolve handles GET /sales/resolve?code=X. Classifies a typed code against
// the unit and accessory catalogs so the cart screen can prefill the line.
func (h *SaleHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")

	line, err := h.svc.Resolve(r.Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrEmptyCode) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "code is required"})
			return
		}
		log.Printf("ERROR: resolve code: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := resolveResponse{
		Kind:           string(line.Kind),
		Code:           line.Code,
		ProductName:    line.ProductName,
		CostPrice:      line.CostPrice,
		WarrantyMonths: line.WarrantyMonths,
		Quantity:       line.Quantity,
		Found:          line.Found,
	}
	if line.Colour != "" {
		resp.Colour = &line.Colour
	}
	if line.Storage != "" {
		resp.Storage = &line.Storage
	}

	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /sales. The request carries the full cart; the handler
// rebuilds it line by line so every cart rule runs before the commit.
func (h *SaleHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req createSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.SaleDate == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "sale_date is required"})
		return
	}
	saleDate, err := time.Parse("2006-01-02", req.SaleDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid sale_date format, use YYYY-MM-DD"})
		return
	}

	if req.PaymentMethod != "" && !isValidPaymentMethod(req.PaymentMethod) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payment_method"})
		return
	}

	cart := service.NewCart()
	for i, lr := range req.Lines {
		line, ok := toCartLine(lr)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": formatLineError("lines", i, "kind must be UNIT or ACCESSORY"),
			})
			return
		}
		if err := cart.AddPaid(line); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": formatLineError("lines", i, err.Error()),
			})
			return
		}
	}
	for i, lr := range req.Bonuses {
		line, ok := toCartLine(lr)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": formatLineError("bonuses", i, "kind must be UNIT or ACCESSORY"),
			})
			return
		}
		if err := cart.AddBonus(line); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": formatLineError("bonuses", i, err.Error()),
			})
			return
		}
	}
	for i, fr := range req.Fees {
		if err := cart.AddFee(fr.Description, fr.Amount); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": formatLineError("fees", i, err.Error()),
			})
			return
		}
	}

	result, err := h.svc.CreateSale(r.Context(), service.CreateSaleRequest{
		SaleDate:      saleDate,
		BuyerName:     req.BuyerName,
		BuyerPhone:    req.BuyerPhone,
		BuyerAddress:  req.BuyerAddress,
		PaymentMethod: req.PaymentMethod,
		Discount:      req.Discount,
		CreatedBy:     claims.UserID,
		IndentID:      req.IndentID,
		Cart:          cart,
	})
	if err != nil {
		if isSaleValidationError(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		if errors.Is(err, service.ErrUnitNotAvailable) || errors.Is(err, service.ErrInsufficientStock) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("ERROR: create sale: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := toInvoiceResponse(result.Invoice, result.Lines)
	if h.notifier != nil {
		h.notifier.BroadcastJSON("sale.created", resp)
	}

	writeJSON(w, http.StatusCreated, resp)
}

// List handles GET /sales with optional date range filters.
func (h *SaleHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	params := database.ListInvoicesParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	}

	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start_date format, use YYYY-MM-DD"})
			return
		}
		params.StartDate = pgtype.Date{Time: t, Valid: true}
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid end_date format, use YYYY-MM-DD"})
			return
		}
		params.EndDate = pgtype.Date{Time: t, Valid: true}
	}

	invoices, err := h.store.ListInvoices(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list invoices: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]invoiceResponse, len(invoices))
	for i, inv := range invoices {
		resp[i] = toInvoiceResponse(inv, nil)
	}

	writeJSON(w, http.StatusOK, invoiceListResponse{
		Invoices: resp,
		Limit:    limit,
		Offset:   offset,
	})
}

// Get handles GET /sales/{id}. Returns the invoice with its ledger rows.
func (h *SaleHandler) Get(w http.ResponseWriter, r *http.Request) {
	invoiceID := chi.URLParam(r, "id")

	invoice, err := h.store.GetInvoice(r.Context(), invoiceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "invoice not found"})
			return
		}
		log.Printf("ERROR: get invoice: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	lines, err := h.store.ListSaleLinesByInvoice(r.Context(), invoiceID)
	if err != nil {
		log.Printf("ERROR: list sale lines: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toInvoiceResponse(invoice, lines))
}

// Delete handles DELETE /sales/{id}. Removes the sale and compensates
// inventory; restricted to OWNER and ADMIN by route middleware.
func (h *SaleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	invoiceID := chi.URLParam(r, "id")

	if err := h.svc.DeleteSale(r.Context(), invoiceID); err != nil {
		if errors.Is(err, service.ErrInvoiceNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "invoice not found"})
			return
		}
		log.Printf("ERROR: delete sale: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if h.notifier != nil {
		h.notifier.BroadcastJSON("sale.deleted", map[string]string{"invoice_id": invoiceID})
	}

	w.WriteHeader(http.StatusNoContent)
}
