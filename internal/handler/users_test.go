package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/database"
	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/enum"
	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/handler"
)

// --- Mock store ---

type mockUserStore struct {
	users map[uuid.UUID]database.User
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{users: make(map[uuid.UUID]database.User)}
}

func (m *mockUserStore) GetUserByID(_ context.Context, id uuid.UUID) (database.User, error) {
	u, ok := m.users[id]
	if !ok || !u.IsActive {
		return database.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (m *mockUserStore) ListUsers(_ context.Context) ([]database.User, error) {
	var result []database.User
	for _, u := range m.users {
		if u.IsActive {
			result = append(result, u)
		}
	}
	return result, nil
}

func (m *mockUserStore) CreateUser(_ context.Context, arg database.CreateUserParams) (database.User, error) {
	for _, existing := range m.users {
		if existing.Email == arg.Email {
			return database.User{}, &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
		}
	}
	u := database.User{
		ID:             uuid.New(),
		Email:          arg.Email,
		HashedPassword: arg.HashedPassword,
		FullName:       arg.FullName,
		Role:           arg.Role,
		IsActive:       true,
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *mockUserStore) UpdateUser(_ context.Context, arg database.UpdateUserParams) (database.User, error) {
	u, ok := m.users[arg.ID]
	if !ok || !u.IsActive {
		return database.User{}, pgx.ErrNoRows
	}
	u.FullName = arg.FullName
	u.Role = arg.Role
	m.users[u.ID] = u
	return u, nil
}

func (m *mockUserStore) DeactivateUser(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	u, ok := m.users[id]
	if !ok || !u.IsActive {
		return uuid.Nil, pgx.ErrNoRows
	}
	u.IsActive = false
	m.users[u.ID] = u
	return u.ID, nil
}

func setupUserRouter(store *mockUserStore) *chi.Mux {
	h := handler.NewUserHandler(store)
	r := chi.NewRouter()
	r.Route("/users", h.RegisterRoutes)
	return r
}

// --- Tests ---

func TestCreateUser_Valid(t *testing.T) {
	store := newMockUserStore()
	r := setupUserRouter(store)

	rr := doRequest(t, r, "POST", "/users/", map[string]interface{}{
		"email":     "admin@connect-ind.com",
		"password":  "supersecret123",
		"full_name": "Admin Toko",
		"role":      enum.UserRoleAdmin,
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["email"] != "admin@connect-ind.com" {
		t.Errorf("email: got %v, want admin@connect-ind.com", resp["email"])
	}
	if resp["role"] != enum.UserRoleAdmin {
		t.Errorf("role: got %v, want ADMIN", resp["role"])
	}
	// The hash must never be plain text.
	for _, u := range store.users {
		if u.HashedPassword == "supersecret123" {
			t.Error("password stored unhashed")
		}
	}
}

func TestCreateUser_ShortPassword(t *testing.T) {
	store := newMockUserStore()
	r := setupUserRouter(store)

	rr := doRequest(t, r, "POST", "/users/", map[string]interface{}{
		"email":     "admin@connect-ind.com",
		"password":  "short",
		"full_name": "Admin Toko",
		"role":      enum.UserRoleAdmin,
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestCreateUser_InvalidRole(t *testing.T) {
	store := newMockUserStore()
	r := setupUserRouter(store)

	rr := doRequest(t, r, "POST", "/users/", map[string]interface{}{
		"email":     "admin@connect-ind.com",
		"password":  "supersecret123",
		"full_name": "Admin Toko",
		"role":      "SUPERUSER",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	store := newMockUserStore()
	r := setupUserRouter(store)

	body := map[string]interface{}{
		"email":     "admin@connect-ind.com",
		"password":  "supersecret123",
		"full_name": "Admin Toko",
		"role":      enum.UserRoleAdmin,
	}
	if rr := doRequest(t, r, "POST", "/users/", body); rr.Code != http.StatusCreated {
		t.Fatalf("first create: got %d, want %d", rr.Code, http.StatusCreated)
	}

	rr := doRequest(t, r, "POST", "/users/", body)
	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestUpdateUser_ChangesRole(t *testing.T) {
	store := newMockUserStore()
	u, err := store.CreateUser(context.Background(), database.CreateUserParams{
		Email: "staff@connect-ind.com", HashedPassword: "x", FullName: "Staff", Role: enum.UserRoleStaff,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	r := setupUserRouter(store)

	rr := doRequest(t, r, "PUT", "/users/"+u.ID.String(), map[string]interface{}{
		"full_name": "Staff Senior",
		"role":      enum.UserRoleAdmin,
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["role"] != enum.UserRoleAdmin {
		t.Errorf("role: got %v, want ADMIN", resp["role"])
	}
}

func TestDeactivateUser(t *testing.T) {
	store := newMockUserStore()
	u, err := store.CreateUser(context.Background(), database.CreateUserParams{
		Email: "staff@connect-ind.com", HashedPassword: "x", FullName: "Staff", Role: enum.UserRoleStaff,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	r := setupUserRouter(store)

	rr := doRequest(t, r, "DELETE", "/users/"+u.ID.String(), nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNoContent)
	}

	// Deactivated users disappear from reads.
	rr = doRequest(t, r, "GET", "/users/"+u.ID.String(), nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("get after deactivate: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestDeactivateUser_NotFound(t *testing.T) {
	store := newMockUserStore()
	r := setupUserRouter(store)

	rr := doRequest(t, r, "DELETE", "/users/"+uuid.NewString(), nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}
