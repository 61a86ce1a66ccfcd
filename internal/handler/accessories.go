package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/database"
	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/service"
)

// AccessoryStore defines the database methods needed by accessory handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type AccessoryStore interface {
	GetAccessory(ctx context.Context, sku string) (database.AccessoryStock, error)
	ListAccessories(ctx context.Context, arg database.ListAccessoriesParams) ([]database.AccessoryStock, error)
	CreateAccessory(ctx context.Context, arg database.CreateAccessoryParams) (database.AccessoryStock, error)
	UpdateAccessory(ctx context.Context, arg database.UpdateAccessoryParams) (database.AccessoryStock, error)
	AdjustAccessoryQuantity(ctx context.Context, arg database.AdjustAccessoryQuantityParams) (database.AccessoryStock, error)
	DeleteAccessory(ctx context.Context, sku string) (string, error)
}

// AccessoryHandler handles accessory stock endpoints.
type AccessoryHandler struct {
	store AccessoryStore
}

// NewAccessoryHandler creates a new AccessoryHandler.
func NewAccessoryHandler(store AccessoryStore) *AccessoryHandler {
	return &AccessoryHandler{store: store}
}

// RegisterRoutes registers accessory endpoints on the given Chi router.
func (h *AccessoryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{sku}", h.Get)
	r.Post("/", h.Create)
	r.Put("/{sku}", h.Update)
	r.Patch("/{sku}/quantity", h.AdjustQuantity)
	r.Delete("/{sku}", h.Delete)
}

// --- Request / Response types ---

type createAccessoryRequest struct {
	Sku         string `json:"sku"`
	ProductName string `json:"product_name"`
	Colour      string `json:"colour"`
	CostPrice   int64  `json:"cost_price"`
	Quantity    int32  `json:"quantity"`
}

type adjustQuantityRequest struct {
	Delta int32 `json:"delta"`
}

type accessoryResponse struct {
	Sku         string    `json:"sku"`
	ProductName string    `json:"product_name"`
	Colour      *string   `json:"colour"`
	CostPrice   int64     `json:"cost_price"`
	Quantity    int32     `json:"quantity"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toAccessoryResponse(a database.AccessoryStock) accessoryResponse {
	resp := accessoryResponse{
		Sku:         a.Sku,
		ProductName: a.ProductName,
		CostPrice:   a.CostPrice,
		Quantity:    a.Quantity,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
	if a.Colour.Valid {
		resp.Colour = &a.Colour.String
	}
	return resp
}

// --- Handlers ---

// List returns accessories ordered by product name.
func (h *AccessoryHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	accessories, err := h.store.ListAccessories(r.Context(), database.ListAccessoriesParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		log.Printf("ERROR: list accessories: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]accessoryResponse, len(accessories))
	for i, a := range accessories {
		resp[i] = toAccessoryResponse(a)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single accessory by SKU.
func (h *AccessoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	sku := service.NormalizeCode(chi.URLParam(r, "sku"))
	if sku == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "sku is required"})
		return
	}

	acc, err := h.store.GetAccessory(r.Context(), sku)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "accessory not found"})
			return
		}
		log.Printf("ERROR: get accessory: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toAccessoryResponse(acc))
}

// Create registers a new accessory SKU.
func (h *AccessoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAccessoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Sku = service.NormalizeCode(req.Sku)
	if req.Sku == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "sku is required"})
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
	if req.Quantity < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantity must be >= 0"})
		return
	}

	acc, err := h.store.CreateAccessory(r.Context(), database.CreateAccessoryParams{
		Sku:         req.Sku,
		ProductName: req.ProductName,
		Colour:      textOrNull(req.Colour),
		CostPrice:   req.CostPrice,
		Quantity:    req.Quantity,
	})
	if err != nil {
		if isUniqueViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "sku already registered"})
			return
		}
		log.Printf("ERROR: create accessory: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toAccessoryResponse(acc))
}

// Update modifies accessory attributes. Quantity moves only through sale
// commits and the AdjustQuantity endpoint.
func (h *AccessoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	sku := service.NormalizeCode(chi.URLParam(r, "sku"))

	var req createAccessoryRequest
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

	acc, err := h.store.UpdateAccessory(r.Context(), database.UpdateAccessoryParams{
		Sku:         sku,
		ProductName: req.ProductName,
		Colour:      textOrNull(req.Colour),
		CostPrice:   req.CostPrice,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "accessory not found"})
			return
		}
		log.Printf("ERROR: update accessory: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toAccessoryResponse(acc))
}

// AdjustQuantity applies a signed restock or correction delta. The query
// refuses deltas that would take the count below zero.
func (h *AccessoryHandler) AdjustQuantity(w http.ResponseWriter, r *http.Request) {
	sku := service.NormalizeCode(chi.URLParam(r, "sku"))

	var req adjustQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Delta == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "delta must be non-zero"})
		return
	}

	acc, err := h.store.AdjustAccessoryQuantity(r.Context(), database.AdjustAccessoryQuantityParams{
		Sku:   sku,
		Delta: req.Delta,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Missing SKU or the delta would underflow. Fetch to tell them apart.
			if _, fetchErr := h.store.GetAccessory(r.Context(), sku); fetchErr != nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "accessory not found"})
				return
			}
			writeJSON(w, http.StatusConflict, map[string]string{"error": "quantity cannot go below zero"})
			return
		}
		log.Printf("ERROR: adjust accessory quantity: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toAccessoryResponse(acc))
}

// Delete removes an accessory SKU.
func (h *AccessoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sku := service.NormalizeCode(chi.URLParam(r, "sku"))

	_, err := h.store.DeleteAccessory(r.Context(), sku)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "accessory not found"})
			return
		}
		log.Printf("ERROR: delete accessory: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
