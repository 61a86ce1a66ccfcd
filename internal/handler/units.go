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
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/database"
	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/enum"
	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/service"
)

// UnitStore defines the database methods needed by unit stock handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type UnitStore interface {
	GetUnit(ctx context.Context, serialNumber string) (database.UnitStock, error)
	ListUnits(ctx context.Context, arg database.ListUnitsParams) ([]database.UnitStock, error)
	CreateUnit(ctx context.Context, arg database.CreateUnitParams) (database.UnitStock, error)
	UpdateUnit(ctx context.Context, arg database.UpdateUnitParams) (database.UnitStock, error)
	DeleteReadyUnit(ctx context.Context, serialNumber string) (string, error)
}

// UnitHandler handles serialized stock endpoints.
type UnitHandler struct {
	store UnitStore
}

// NewUnitHandler creates a new UnitHandler.
func NewUnitHandler(store UnitStore) *UnitHandler {
	return &UnitHandler{store: store}
}

// RegisterRoutes registers unit stock endpoints on the given Chi router.
func (h *UnitHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{sn}", h.Get)
	r.Post("/", h.Create)
	r.Put("/{sn}", h.Update)
	r.Delete("/{sn}", h.Delete)
}

// --- Request / Response types ---

type createUnitRequest struct {
	SerialNumber   string `json:"serial_number"`
	ProductName    string `json:"product_name"`
	Colour         string `json:"colour"`
	Storage        string `json:"storage"`
	CostPrice      int64  `json:"cost_price"`
	WarrantyMonths int32  `json:"warranty_months"`
}

type unitResponse struct {
	SerialNumber   string    `json:"serial_number"`
	ProductName    string    `json:"product_name"`
	Colour         *string   `json:"colour"`
	Storage        *string   `json:"storage"`
	CostPrice      int64     `json:"cost_price"`
	WarrantyMonths int32     `json:"warranty_months"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toUnitResponse(u database.UnitStock) unitResponse {
	resp := unitResponse{
		SerialNumber:   u.SerialNumber,
		ProductName:    u.ProductName,
		CostPrice:      u.CostPrice,
		WarrantyMonths: u.WarrantyMonths,
		Status:         u.Status,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
	if u.Colour.Valid {
		resp.Colour = &u.Colour.String
	}
	if u.Storage.Valid {
		resp.Storage = &u.Storage.String
	}
	return resp
}

// --- Helpers shared by the stock handlers ---

// parsePagination reads limit/offset query params with a default page of 20
// and a hard cap of 100.
func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 100 {
		limit = 100
	}

	offset = 0
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}

func textOrNull(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// --- Handlers ---

// List returns units, optionally filtered by status.
func (h *UnitHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && status != enum.StockStatusReady && status != enum.StockStatusSold {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	limit, offset := parsePagination(r)
	units, err := h.store.ListUnits(r.Context(), database.ListUnitsParams{
		Status: status,
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		log.Printf("ERROR: list units: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]unitResponse, len(units))
	for i, u := range units {
		resp[i] = toUnitResponse(u)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single unit by serial number.
func (h *UnitHandler) Get(w http.ResponseWriter, r *http.Request) {
	sn := service.NormalizeCode(chi.URLParam(r, "sn"))
	if sn == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "serial number is required"})
		return
	}

	unit, err := h.store.GetUnit(r.Context(), sn)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "unit not found"})
			return
		}
		log.Printf("ERROR: get unit: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toUnitResponse(unit))
}

// Create registers a new READY unit.
func (h *UnitHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUnitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.SerialNumber = service.NormalizeCode(req.SerialNumber)
	if req.SerialNumber == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "serial_number is required"})
		return
	}
	if req.ProductName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "product_name is required"})
		return
	}
	if req.CostPrice < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cost_price must be >= 0"})
		return
	}

	unit, err := h.store.CreateUnit(r.Context(), database.CreateUnitParams{
		SerialNumber:   req.SerialNumber,
		ProductName:    req.ProductName,
		Colour:         textOrNull(req.Colour),
		Storage:        textOrNull(req.Storage),
		CostPrice:      req.CostPrice,
		WarrantyMonths: req.WarrantyMonths,
	})
	if err != nil {
		if isUniqueViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "serial number already registered"})
			return
		}
		log.Printf("ERROR: create unit: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toUnitResponse(unit))
}

// Update modifies unit attributes. Status is never writable here; it only
// moves through the sale commit and delete-sale compensation paths.
func (h *UnitHandler) Update(w http.ResponseWriter, r *http.Request) {
	sn := service.NormalizeCode(chi.URLParam(r, "sn"))

	var req createUnitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.ProductName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "product_name is required"})
		return
	}
	if req.CostPrice < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cost_price must be >= 0"})
		return
	}

	unit, err := h.store.UpdateUnit(r.Context(), database.UpdateUnitParams{
		SerialNumber:   sn,
		ProductName:    req.ProductName,
		Colour:         textOrNull(req.Colour),
		Storage:        textOrNull(req.Storage),
		CostPrice:      req.CostPrice,
		WarrantyMonths: req.WarrantyMonths,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "unit not found"})
			return
		}
		log.Printf("ERROR: update unit: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toUnitResponse(unit))
}

// Delete removes a unit that is still READY. SOLD units are ledger-backed
// and can only disappear through delete-sale compensation.
func (h *UnitHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sn := service.NormalizeCode(chi.URLParam(r, "sn"))

	_, err := h.store.DeleteReadyUnit(r.Context(), sn)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Missing or already SOLD. Fetch to give a better error message.
			unit, fetchErr := h.store.GetUnit(r.Context(), sn)
			if fetchErr != nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "unit not found"})
				return
			}
			if unit.Status == enum.StockStatusSold {
				writeJSON(w, http.StatusConflict, map[string]string{"error": "cannot delete a sold unit"})
				return
			}
			writeJSON(w, http.StatusConflict, map[string]string{"error": "unit cannot be deleted"})
			return
		}
		log.Printf("ERROR: delete unit: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
