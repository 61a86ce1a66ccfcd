package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/database"
	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/enum"
	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/handler"
)

// --- Mock store ---

type mockUnitStore struct {
	units map[string]database.UnitStock // keyed by serial number
}

func newMockUnitStore() *mockUnitStore {
	return &mockUnitStore{units: make(map[string]database.UnitStock)}
}

func (m *mockUnitStore) GetUnit(_ context.Context, sn string) (database.UnitStock, error) {
	u, ok := m.units[sn]
	if !ok {
		return database.UnitStock{}, pgx.ErrNoRows
	}
	return u, nil
}

func (m *mockUnitStore) ListUnits(_ context.Context, arg database.ListUnitsParams) ([]database.UnitStock, error) {
	var result []database.UnitStock
	for _, u := range m.units {
		if arg.Status == "" || u.Status == arg.Status {
			result = append(result, u)
		}
	}
	return result, nil
}

func (m *mockUnitStore) CreateUnit(_ context.Context, arg database.CreateUnitParams) (database.UnitStock, error) {
	if _, exists := m.units[arg.SerialNumber]; exists {
		return database.UnitStock{}, &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
	}
	u := database.UnitStock{
		SerialNumber:   arg.SerialNumber,
		ProductName:    arg.ProductName,
		Colour:         arg.Colour,
		Storage:        arg.Storage,
		CostPrice:      arg.CostPrice,
		WarrantyMonths: arg.WarrantyMonths,
		Status:         enum.StockStatusReady,
	}
	m.units[u.SerialNumber] = u
	return u, nil
}

func (m *mockUnitStore) UpdateUnit(_ context.Context, arg database.UpdateUnitParams) (database.UnitStock, error) {
	u, ok := m.units[arg.SerialNumber]
	if !ok {
		return database.UnitStock{}, pgx.ErrNoRows
	}
	u.ProductName = arg.ProductName
	u.Colour = arg.Colour
	u.Storage = arg.Storage
	u.CostPrice = arg.CostPrice
	u.WarrantyMonths = arg.WarrantyMonths
	m.units[u.SerialNumber] = u
	return u, nil
}

func (m *mockUnitStore) DeleteReadyUnit(_ context.Context, sn string) (string, error) {
	u, ok := m.units[sn]
	if !ok || u.Status != enum.StockStatusReady {
		return "", pgx.ErrNoRows
	}
	delete(m.units, sn)
	return sn, nil
}

func setupUnitRouter(store *mockUnitStore) *chi.Mux {
	h := handler.NewUnitHandler(store)
	r := chi.NewRouter()
	r.Route("/units", h.RegisterRoutes)
	return r
}

func readyTestUnit() database.UnitStock {
	return database.UnitStock{
		SerialNumber:   "SN-IPH15-001",
		ProductName:    "iPhone 15",
		Colour:         pgtype.Text{String: "Black", Valid: true},
		Storage:        pgtype.Text{String: "128GB", Valid: true},
		CostPrice:      10_500_000,
		WarrantyMonths: 12,
		Status:         enum.StockStatusReady,
	}
}

// --- Tests ---

func TestCreateUnit_Valid(t *testing.T) {
	store := newMockUnitStore()
	r := setupUnitRouter(store)

	rr := doRequest(t, r, "POST", "/units/", map[string]interface{}{
		"serial_number":   "sn-iph15-001",
		"product_name":    "iPhone 15",
		"colour":          "Black",
		"storage":         "128GB",
		"cost_price":      10_500_000,
		"warranty_months": 12,
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	// Serial numbers are normalized to uppercase on the way in.
	if resp["serial_number"] != "SN-IPH15-001" {
		t.Errorf("serial_number: got %v, want SN-IPH15-001", resp["serial_number"])
	}
	if resp["status"] != enum.StockStatusReady {
		t.Errorf("status: got %v, want READY", resp["status"])
	}
}

func TestCreateUnit_DuplicateSerial(t *testing.T) {
	store := newMockUnitStore()
	store.units["SN-IPH15-001"] = readyTestUnit()
	r := setupUnitRouter(store)

	rr := doRequest(t, r, "POST", "/units/", map[string]interface{}{
		"serial_number": "SN-IPH15-001",
		"product_name":  "iPhone 15",
		"cost_price":    10_500_000,
	})

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestCreateUnit_MissingSerial(t *testing.T) {
	store := newMockUnitStore()
	r := setupUnitRouter(store)

	rr := doRequest(t, r, "POST", "/units/", map[string]interface{}{
		"serial_number": "   ",
		"product_name":  "iPhone 15",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestGetUnit_NormalizesSerial(t *testing.T) {
	store := newMockUnitStore()
	store.units["SN-IPH15-001"] = readyTestUnit()
	r := setupUnitRouter(store)

	rr := doRequest(t, r, "GET", "/units/sn-iph15-001", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["product_name"] != "iPhone 15" {
		t.Errorf("product_name: got %v, want iPhone 15", resp["product_name"])
	}
}

func TestGetUnit_NotFound(t *testing.T) {
	store := newMockUnitStore()
	r := setupUnitRouter(store)

	rr := doRequest(t, r, "GET", "/units/SN-MISSING", nil)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestListUnits_InvalidStatus(t *testing.T) {
	store := newMockUnitStore()
	r := setupUnitRouter(store)

	rr := doRequest(t, r, "GET", "/units/?status=BROKEN", nil)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestUpdateUnit_NotFound(t *testing.T) {
	store := newMockUnitStore()
	r := setupUnitRouter(store)

	rr := doRequest(t, r, "PUT", "/units/SN-MISSING", map[string]interface{}{
		"product_name": "iPhone 15",
		"cost_price":   10_000_000,
	})

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestDeleteUnit_Ready(t *testing.T) {
	store := newMockUnitStore()
	store.units["SN-IPH15-001"] = readyTestUnit()
	r := setupUnitRouter(store)

	rr := doRequest(t, r, "DELETE", "/units/SN-IPH15-001", nil)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusNoContent, rr.Body.String())
	}
	if _, exists := store.units["SN-IPH15-001"]; exists {
		t.Error("unit still present after delete")
	}
}

func TestDeleteUnit_SoldIsConflict(t *testing.T) {
	store := newMockUnitStore()
	unit := readyTestUnit()
	unit.Status = enum.StockStatusSold
	store.units[unit.SerialNumber] = unit
	r := setupUnitRouter(store)

	rr := doRequest(t, r, "DELETE", "/units/SN-IPH15-001", nil)

	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusConflict, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["error"] != "cannot delete a sold unit" {
		t.Errorf("error: got %v, want 'cannot delete a sold unit'", resp["error"])
	}
}

func TestDeleteUnit_NotFound(t *testing.T) {
	store := newMockUnitStore()
	r := setupUnitRouter(store)

	rr := doRequest(t, r, "DELETE", "/units/SN-MISSING", nil)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}
