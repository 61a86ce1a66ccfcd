package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/database"
	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/enum"
	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/handler"
)

// --- Mock store ---

type mockIndentStore struct {
	indents map[uuid.UUID]database.Indent
}

func newMockIndentStore() *mockIndentStore {
	return &mockIndentStore{indents: make(map[uuid.UUID]database.Indent)}
}

func (m *mockIndentStore) addIndent(status string) database.Indent {
	ind := database.Indent{
		ID:           uuid.New(),
		CustomerName: "Siti Rahma",
		ProductName:  "Samsung S24 Ultra",
		DpAmount:     2_000_000,
		Status:       status,
	}
	m.indents[ind.ID] = ind
	return ind
}

func (m *mockIndentStore) GetIndent(_ context.Context, id uuid.UUID) (database.Indent, error) {
	ind, ok := m.indents[id]
	if !ok {
		return database.Indent{}, pgx.ErrNoRows
	}
	return ind, nil
}

func (m *mockIndentStore) ListIndents(_ context.Context, arg database.ListIndentsParams) ([]database.Indent, error) {
	var result []database.Indent
	for _, ind := range m.indents {
		if arg.Status == "" || ind.Status == arg.Status {
			result = append(result, ind)
		}
	}
	return result, nil
}

func (m *mockIndentStore) CreateIndent(_ context.Context, arg database.CreateIndentParams) (database.Indent, error) {
	ind := database.Indent{
		ID:           uuid.New(),
		CustomerName: arg.CustomerName,
		Phone:        arg.Phone,
		ProductName:  arg.ProductName,
		DpAmount:     arg.DpAmount,
		Status:       enum.IndentStatusPending,
	}
	m.indents[ind.ID] = ind
	return ind, nil
}

func (m *mockIndentStore) UpdateIndentStatus(_ context.Context, arg database.UpdateIndentStatusParams) (database.Indent, error) {
	ind, ok := m.indents[arg.ID]
	if !ok || ind.Status != enum.IndentStatusPending {
		return database.Indent{}, pgx.ErrNoRows
	}
	ind.Status = arg.Status
	m.indents[ind.ID] = ind
	return ind, nil
}

func setupIndentRouter(store *mockIndentStore) *chi.Mux {
	h := handler.NewIndentHandler(store)
	r := chi.NewRouter()
	r.Route("/indents", h.RegisterRoutes)
	return r
}

// --- Tests ---

func TestCreateIndent_Valid(t *testing.T) {
	store := newMockIndentStore()
	r := setupIndentRouter(store)

	rr := doRequest(t, r, "POST", "/indents/", map[string]interface{}{
		"customer_name": "Siti Rahma",
		"phone":         "081234567890",
		"product_name":  "Samsung S24 Ultra",
		"dp_amount":     2_000_000,
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["status"] != enum.IndentStatusPending {
		t.Errorf("status: got %v, want PENDING", resp["status"])
	}
	if resp["dp_amount"] != float64(2_000_000) {
		t.Errorf("dp_amount: got %v, want 2000000", resp["dp_amount"])
	}
}

func TestCreateIndent_NegativeDownPayment(t *testing.T) {
	store := newMockIndentStore()
	r := setupIndentRouter(store)

	rr := doRequest(t, r, "POST", "/indents/", map[string]interface{}{
		"customer_name": "Siti Rahma",
		"product_name":  "Samsung S24 Ultra",
		"dp_amount":     -500_000,
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestUpdateIndentStatus_Fulfil(t *testing.T) {
	store := newMockIndentStore()
	ind := store.addIndent(enum.IndentStatusPending)
	r := setupIndentRouter(store)

	rr := doRequest(t, r, "PATCH", "/indents/"+ind.ID.String()+"/status", map[string]interface{}{
		"status": enum.IndentStatusFulfilled,
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["status"] != enum.IndentStatusFulfilled {
		t.Errorf("status: got %v, want FULFILLED", resp["status"])
	}
}

func TestUpdateIndentStatus_BackToPendingRejected(t *testing.T) {
	store := newMockIndentStore()
	ind := store.addIndent(enum.IndentStatusPending)
	r := setupIndentRouter(store)

	rr := doRequest(t, r, "PATCH", "/indents/"+ind.ID.String()+"/status", map[string]interface{}{
		"status": enum.IndentStatusPending,
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestUpdateIndentStatus_AlreadySettled(t *testing.T) {
	store := newMockIndentStore()
	ind := store.addIndent(enum.IndentStatusFulfilled)
	r := setupIndentRouter(store)

	rr := doRequest(t, r, "PATCH", "/indents/"+ind.ID.String()+"/status", map[string]interface{}{
		"status": enum.IndentStatusCancelled,
	})

	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusConflict, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["error"] != "indent is already FULFILLED" {
		t.Errorf("error: got %v, want 'indent is already FULFILLED'", resp["error"])
	}
}

func TestUpdateIndentStatus_NotFound(t *testing.T) {
	store := newMockIndentStore()
	r := setupIndentRouter(store)

	rr := doRequest(t, r, "PATCH", "/indents/"+uuid.NewString()+"/status", map[string]interface{}{
		"status": enum.IndentStatusCancelled,
	})

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}
