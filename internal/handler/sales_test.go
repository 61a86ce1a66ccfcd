package handler_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/database"
	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/enum"
	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/handler"
	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/middleware"
	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/service"
)

// --- Mock SaleServicer ---

type mockSaleService struct {
	resolveFn func(ctx context.Context, code string) (service.ResolvedLine, error)
	createFn  func(ctx context.Context, req service.CreateSaleRequest) (*service.CreateSaleResult, error)
	deleteFn  func(ctx context.Context, invoiceID string) error
}

func (m *mockSaleService) Resolve(ctx context.Context, code string) (service.ResolvedLine, error) {
	return m.resolveFn(ctx, code)
}

func (m *mockSaleService) CreateSale(ctx context.Context, req service.CreateSaleRequest) (*service.CreateSaleResult, error) {
	return m.createFn(ctx, req)
}

func (m *mockSaleService) DeleteSale(ctx context.Context, invoiceID string) error {
	return m.deleteFn(ctx, invoiceID)
}

// --- Mock SaleReadStore ---

type mockSaleReadStore struct {
	getInvoiceFn   func(ctx context.Context, invoiceID string) (database.Invoice, error)
	listInvoicesFn func(ctx context.Context, arg database.ListInvoicesParams) ([]database.Invoice, error)
	listLinesFn    func(ctx context.Context, invoiceID string) ([]database.SaleLine, error)
}

func (m *mockSaleReadStore) GetInvoice(ctx context.Context, invoiceID string) (database.Invoice, error) {
	return m.getInvoiceFn(ctx, invoiceID)
}

func (m *mockSaleReadStore) ListInvoices(ctx context.Context, arg database.ListInvoicesParams) ([]database.Invoice, error) {
	return m.listInvoicesFn(ctx, arg)
}

func (m *mockSaleReadStore) ListSaleLinesByInvoice(ctx context.Context, invoiceID string) ([]database.SaleLine, error) {
	return m.listLinesFn(ctx, invoiceID)
}

// --- Mock Notifier ---

type mockNotifier struct {
	events []string
}

func (m *mockNotifier) BroadcastJSON(eventType string, _ interface{}) {
	m.events = append(m.events, eventType)
}

// --- Helpers ---

func setupSaleRouter(svc *mockSaleService, store *mockSaleReadStore, notifier *mockNotifier) *chi.Mux {
	var n handler.Notifier
	if notifier != nil {
		n = notifier
	}
	h := handler.NewSaleHandler(svc, store, n)
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testJWTSecret))
	r.Route("/sales", h.RegisterRoutes)
	return r
}

func testInvoice() database.Invoice {
	return database.Invoice{
		InvoiceID:     "INV-CTI-01-2025-1",
		SaleDate:      time.Date(2025, 1, 14, 0, 0, 0, 0, time.UTC),
		BuyerName:     "Budi Santoso",
		PaymentMethod: enum.PaymentMethodTransfer,
		Subtotal:      12_600_000,
		Discount:      100_000,
		Total:         12_500_000,
		CreatedBy:     uuid.New(),
		CreatedAt:     time.Now(),
	}
}

func validCreateSaleBody() map[string]interface{} {
	return map[string]interface{}{
		"sale_date":      "2025-01-14",
		"buyer_name":     "Budi Santoso",
		"payment_method": enum.PaymentMethodTransfer,
		"discount":       100_000,
		"lines": []map[string]interface{}{
			{
				"kind":         "UNIT",
				"code":         "SN-IPH15-001",
				"product_name": "iPhone 15",
				"sell_price":   12_000_000,
			},
			{
				"kind":         "ACCESSORY",
				"code":         "CASE-IPH15",
				"product_name": "Casing iPhone 15",
				"sell_price":   600_000,
				"quantity":     2,
			},
		},
		"bonuses": []map[string]interface{}{
			{
				"kind":         "ACCESSORY",
				"code":         "TG-01",
				"product_name": "Tempered Glass",
				"quantity":     1,
			},
		},
	}
}

// --- Resolve tests ---

func TestResolveEndpoint_Found(t *testing.T) {
	svc := &mockSaleService{
		resolveFn: func(_ context.Context, code string) (service.ResolvedLine, error) {
			if code != "SN-IPH15-001" {
				t.Errorf("resolve code: got %s, want SN-IPH15-001", code)
			}
			return service.ResolvedLine{
				Kind:           service.KindUnit,
				Code:           "SN-IPH15-001",
				ProductName:    "iPhone 15",
				Colour:         "Black",
				CostPrice:      10_500_000,
				WarrantyMonths: 12,
				Found:          true,
			}, nil
		},
	}
	r := setupSaleRouter(svc, &mockSaleReadStore{}, nil)

	rr := doAuthRequest(t, r, "GET", "/sales/resolve?code=SN-IPH15-001", nil, uuid.New(), enum.UserRoleStaff)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["kind"] != "UNIT" {
		t.Errorf("kind: got %v, want UNIT", resp["kind"])
	}
	if resp["found"] != true {
		t.Error("expected found=true")
	}
	if resp["colour"] != "Black" {
		t.Errorf("colour: got %v, want Black", resp["colour"])
	}
}

func TestResolveEndpoint_EmptyCode(t *testing.T) {
	svc := &mockSaleService{
		resolveFn: func(_ context.Context, code string) (service.ResolvedLine, error) {
			return service.ResolvedLine{}, service.ErrEmptyCode
		},
	}
	r := setupSaleRouter(svc, &mockSaleReadStore{}, nil)

	rr := doAuthRequest(t, r, "GET", "/sales/resolve", nil, uuid.New(), enum.UserRoleStaff)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

// --- Create tests ---

func TestCreateSaleEndpoint_HappyPath(t *testing.T) {
	userID := uuid.New()
	var captured service.CreateSaleRequest
	svc := &mockSaleService{
		createFn: func(_ context.Context, req service.CreateSaleRequest) (*service.CreateSaleResult, error) {
			captured = req
			return &service.CreateSaleResult{Invoice: testInvoice()}, nil
		},
	}
	notifier := &mockNotifier{}
	r := setupSaleRouter(svc, &mockSaleReadStore{}, notifier)

	rr := doAuthRequest(t, r, "POST", "/sales/", validCreateSaleBody(), userID, enum.UserRoleStaff)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["invoice_id"] != "INV-CTI-01-2025-1" {
		t.Errorf("invoice_id: got %v, want INV-CTI-01-2025-1", resp["invoice_id"])
	}

	if captured.CreatedBy != userID {
		t.Errorf("created_by: got %s, want authenticated user %s", captured.CreatedBy, userID)
	}
	if captured.Discount != 100_000 {
		t.Errorf("discount: got %d, want 100000", captured.Discount)
	}
	if got := len(captured.Cart.Paid()); got != 2 {
		t.Errorf("paid lines: got %d, want 2", got)
	}
	if got := len(captured.Cart.Bonus()); got != 1 {
		t.Errorf("bonus lines: got %d, want 1", got)
	}

	if len(notifier.events) != 1 || notifier.events[0] != "sale.created" {
		t.Errorf("broadcast events: got %v, want [sale.created]", notifier.events)
	}
}

func TestCreateSaleEndpoint_InvalidKind(t *testing.T) {
	svc := &mockSaleService{}
	r := setupSaleRouter(svc, &mockSaleReadStore{}, nil)

	body := validCreateSaleBody()
	body["lines"] = []map[string]interface{}{
		{"kind": "GADGET", "code": "SN-1", "product_name": "X", "sell_price": 1000},
	}

	rr := doAuthRequest(t, r, "POST", "/sales/", body, uuid.New(), enum.UserRoleStaff)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	resp := decodeResponse(t, rr)
	if msg, _ := resp["error"].(string); !strings.HasPrefix(msg, "lines[0]") {
		t.Errorf("error message: got %q, want lines[0] prefix", msg)
	}
}

func TestCreateSaleEndpoint_DuplicateSerial(t *testing.T) {
	svc := &mockSaleService{}
	r := setupSaleRouter(svc, &mockSaleReadStore{}, nil)

	body := validCreateSaleBody()
	body["bonuses"] = []map[string]interface{}{
		{"kind": "UNIT", "code": "SN-IPH15-001", "product_name": "iPhone 15"},
	}

	rr := doAuthRequest(t, r, "POST", "/sales/", body, uuid.New(), enum.UserRoleStaff)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if msg, _ := resp["error"].(string); !strings.HasPrefix(msg, "bonuses[0]") {
		t.Errorf("error message: got %q, want bonuses[0] prefix", msg)
	}
}

func TestCreateSaleEndpoint_BadDate(t *testing.T) {
	svc := &mockSaleService{}
	r := setupSaleRouter(svc, &mockSaleReadStore{}, nil)

	body := validCreateSaleBody()
	body["sale_date"] = "14-01-2025"

	rr := doAuthRequest(t, r, "POST", "/sales/", body, uuid.New(), enum.UserRoleStaff)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestCreateSaleEndpoint_InvalidPaymentMethod(t *testing.T) {
	svc := &mockSaleService{}
	r := setupSaleRouter(svc, &mockSaleReadStore{}, nil)

	body := validCreateSaleBody()
	body["payment_method"] = "CRYPTO"

	rr := doAuthRequest(t, r, "POST", "/sales/", body, uuid.New(), enum.UserRoleStaff)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestCreateSaleEndpoint_ServiceValidationError(t *testing.T) {
	svc := &mockSaleService{
		createFn: func(_ context.Context, _ service.CreateSaleRequest) (*service.CreateSaleResult, error) {
			return nil, service.ErrMissingBuyerName
		},
	}
	r := setupSaleRouter(svc, &mockSaleReadStore{}, nil)

	body := validCreateSaleBody()
	body["buyer_name"] = ""

	rr := doAuthRequest(t, r, "POST", "/sales/", body, uuid.New(), enum.UserRoleStaff)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestCreateSaleEndpoint_StockConflict(t *testing.T) {
	notifier := &mockNotifier{}
	svc := &mockSaleService{
		createFn: func(_ context.Context, _ service.CreateSaleRequest) (*service.CreateSaleResult, error) {
			return nil, service.ErrUnitNotAvailable
		},
	}
	r := setupSaleRouter(svc, &mockSaleReadStore{}, notifier)

	rr := doAuthRequest(t, r, "POST", "/sales/", validCreateSaleBody(), uuid.New(), enum.UserRoleStaff)

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
	if len(notifier.events) != 0 {
		t.Errorf("expected no broadcast on failed sale, got %v", notifier.events)
	}
}

func TestCreateSaleEndpoint_Unauthenticated(t *testing.T) {
	svc := &mockSaleService{}
	r := setupSaleRouter(svc, &mockSaleReadStore{}, nil)

	rr := doRequest(t, r, "POST", "/sales/", validCreateSaleBody())

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

// --- Get / List tests ---

func TestGetSale_WithLines(t *testing.T) {
	inv := testInvoice()
	store := &mockSaleReadStore{
		getInvoiceFn: func(_ context.Context, invoiceID string) (database.Invoice, error) {
			if invoiceID != inv.InvoiceID {
				return database.Invoice{}, pgx.ErrNoRows
			}
			return inv, nil
		},
		listLinesFn: func(_ context.Context, _ string) ([]database.SaleLine, error) {
			return []database.SaleLine{
				{ID: uuid.New(), InvoiceID: inv.InvoiceID, Position: 1, ProductName: "iPhone 15", SellPrice: 12_000_000, Profit: 1_500_000},
			}, nil
		},
	}
	r := setupSaleRouter(&mockSaleService{}, store, nil)

	rr := doAuthRequest(t, r, "GET", "/sales/"+inv.InvoiceID, nil, uuid.New(), enum.UserRoleStaff)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	lines, ok := resp["lines"].([]interface{})
	if !ok || len(lines) != 1 {
		t.Fatalf("expected 1 line in response, got %v", resp["lines"])
	}
}

func TestGetSale_NotFound(t *testing.T) {
	store := &mockSaleReadStore{
		getInvoiceFn: func(_ context.Context, _ string) (database.Invoice, error) {
			return database.Invoice{}, pgx.ErrNoRows
		},
	}
	r := setupSaleRouter(&mockSaleService{}, store, nil)

	rr := doAuthRequest(t, r, "GET", "/sales/INV-CTI-01-2025-99", nil, uuid.New(), enum.UserRoleStaff)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestListSales_DateFilter(t *testing.T) {
	var captured database.ListInvoicesParams
	store := &mockSaleReadStore{
		listInvoicesFn: func(_ context.Context, arg database.ListInvoicesParams) ([]database.Invoice, error) {
			captured = arg
			return []database.Invoice{testInvoice()}, nil
		},
	}
	r := setupSaleRouter(&mockSaleService{}, store, nil)

	rr := doAuthRequest(t, r, "GET", "/sales/?start_date=2025-01-01&end_date=2025-01-31", nil, uuid.New(), enum.UserRoleStaff)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if !captured.StartDate.Valid || captured.StartDate.Time.Day() != 1 {
		t.Errorf("start_date not passed through: %+v", captured.StartDate)
	}
	if !captured.EndDate.Valid || captured.EndDate.Time.Day() != 31 {
		t.Errorf("end_date not passed through: %+v", captured.EndDate)
	}
}

// --- Delete tests ---

func TestDeleteSale_RequiresOwnerOrAdmin(t *testing.T) {
	svc := &mockSaleService{
		deleteFn: func(_ context.Context, _ string) error {
			t.Fatal("delete should not be reached by STAFF")
			return nil
		},
	}
	r := setupSaleRouter(svc, &mockSaleReadStore{}, nil)

	rr := doAuthRequest(t, r, "DELETE", "/sales/INV-CTI-01-2025-1", nil, uuid.New(), enum.UserRoleStaff)

	if rr.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusForbidden)
	}
}

func TestDeleteSale_AsOwner(t *testing.T) {
	var deleted string
	notifier := &mockNotifier{}
	svc := &mockSaleService{
		deleteFn: func(_ context.Context, invoiceID string) error {
			deleted = invoiceID
			return nil
		},
	}
	r := setupSaleRouter(svc, &mockSaleReadStore{}, notifier)

	rr := doAuthRequest(t, r, "DELETE", "/sales/INV-CTI-01-2025-1", nil, uuid.New(), enum.UserRoleOwner)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusNoContent, rr.Body.String())
	}
	if deleted != "INV-CTI-01-2025-1" {
		t.Errorf("deleted invoice: got %s, want INV-CTI-01-2025-1", deleted)
	}
	if len(notifier.events) != 1 || notifier.events[0] != "sale.deleted" {
		t.Errorf("broadcast events: got %v, want [sale.deleted]", notifier.events)
	}
}

func TestDeleteSale_NotFoundEndpoint(t *testing.T) {
	svc := &mockSaleService{
		deleteFn: func(_ context.Context, _ string) error {
			return service.ErrInvoiceNotFound
		},
	}
	r := setupSaleRouter(svc, &mockSaleReadStore{}, nil)

	rr := doAuthRequest(t, r, "DELETE", "/sales/INV-CTI-01-2025-42", nil, uuid.New(), enum.UserRoleAdmin)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}
