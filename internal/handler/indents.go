package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/database"
	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/enum"
)

// IndentStore defines the database methods needed by indent handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type IndentStore interface {
	GetIndent(ctx context.Context, id uuid.UUID) (database.Indent, error)
	ListIndents(ctx context.Context, arg database.ListIndentsParams) ([]database.Indent, error)
	CreateIndent(ctx context.Context, arg database.CreateIndentParams) (database.Indent, error)
	UpdateIndentStatus(ctx context.Context, arg database.UpdateIndentStatusParams) (database.Indent, error)
}

// IndentHandler handles pre-order (indent) endpoints.
type IndentHandler struct {
	store IndentStore
}

// NewIndentHandler creates a new IndentHandler.
func NewIndentHandler(store IndentStore) *IndentHandler {
	return &IndentHandler{store: store}
}

// RegisterRoutes registers indent endpoints on the given Chi router.
func (h *IndentHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/", h.Create)
	r.Patch("/{id}/status", h.UpdateStatus)
}

// --- Request / Response types ---

type createIndentRequest struct {
	CustomerName string `json:"customer_name"`
	Phone        string `json:"phone"`
	ProductName  string `json:"product_name"`
	DpAmount     int64  `json:"dp_amount"`
}

type updateIndentStatusRequest struct {
	Status string `json:"status"`
}

type indentResponse struct {
	ID           uuid.UUID `json:"id"`
	CustomerName string    `json:"customer_name"`
	Phone        *string   `json:"phone"`
	ProductName  string    `json:"product_name"`
	DpAmount     int64     `json:"dp_amount"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toIndentResponse(ind database.Indent) indentResponse {
	resp := indentResponse{
		ID:           ind.ID,
		CustomerName: ind.CustomerName,
		ProductName:  ind.ProductName,
		DpAmount:     ind.DpAmount,
		Status:       ind.Status,
		CreatedAt:    ind.CreatedAt,
		UpdatedAt:    ind.UpdatedAt,
	}
	if ind.Phone.Valid {
		resp.Phone = &ind.Phone.String
	}
	return resp
}

func isValidIndentStatus(s string) bool {
	switch s {
	case enum.IndentStatusPending, enum.IndentStatusFulfilled, enum.IndentStatusCancelled:
		return true
	}
	return false
}

// --- Handlers ---

// List returns indents, optionally filtered by status.
func (h *IndentHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !isValidIndentStatus(status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	limit, offset := parsePagination(r)
	indents, err := h.store.ListIndents(r.Context(), database.ListIndentsParams{
		Status: status,
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		log.Printf("ERROR: list indents: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]indentResponse, len(indents))
	for i, ind := range indents {
		resp[i] = toIndentResponse(ind)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single indent by ID.
func (h *IndentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid indent ID"})
		return
	}

	indent, err := h.store.GetIndent(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "indent not found"})
			return
		}
		log.Printf("ERROR: get indent: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toIndentResponse(indent))
}

// Create registers a new PENDING indent with its down payment.
func (h *IndentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createIndentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.CustomerName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "customer_name is required"})
		return
	}
	if req.ProductName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "product_name is required"})
		return
	}
	if req.DpAmount < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "dp_amount must be >= 0"})
		return
	}

	indent, err := h.store.CreateIndent(r.Context(), database.CreateIndentParams{
		CustomerName: req.CustomerName,
		Phone:        textOrNull(req.Phone),
		ProductName:  req.ProductName,
		DpAmount:     req.DpAmount,
	})
	if err != nil {
		log.Printf("ERROR: create indent: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toIndentResponse(indent))
}

// UpdateStatus moves a PENDING indent to FULFILLED or CANCELLED. Fulfilment
// normally happens through the sale commit; this endpoint covers manual
// settlement and cancellations.
func (h *IndentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid indent ID"})
		return
	}

	var req updateIndentStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Status != enum.IndentStatusFulfilled && req.Status != enum.IndentStatusCancelled {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status must be FULFILLED or CANCELLED"})
		return
	}

	indent, err := h.store.UpdateIndentStatus(r.Context(), database.UpdateIndentStatusParams{
		ID:     id,
		Status: req.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Missing or already settled. Fetch to give a better error message.
			current, fetchErr := h.store.GetIndent(r.Context(), id)
			if fetchErr != nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "indent not found"})
				return
			}
			writeJSON(w, http.StatusConflict, map[string]string{"error": "indent is already " + current.Status})
			return
		}
		log.Printf("ERROR: update indent status: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toIndentResponse(indent))
}
