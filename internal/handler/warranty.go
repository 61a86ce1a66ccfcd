package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/database"
	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/enum"
	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/service"
)

// WarrantyStore defines the database methods needed by warranty handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type WarrantyStore interface {
	GetWarrantyClaim(ctx context.Context, id uuid.UUID) (database.WarrantyClaim, error)
	ListWarrantyClaims(ctx context.Context, arg database.ListWarrantyClaimsParams) ([]database.WarrantyClaim, error)
	CreateWarrantyClaim(ctx context.Context, arg database.CreateWarrantyClaimParams) (database.WarrantyClaim, error)
	UpdateWarrantyClaimStatus(ctx context.Context, arg database.UpdateWarrantyClaimStatusParams) (database.WarrantyClaim, error)
}

// WarrantyHandler handles warranty claim endpoints.
type WarrantyHandler struct {
	store    WarrantyStore
	notifier Notifier
}

// NewWarrantyHandler creates a new WarrantyHandler. notifier may be nil.
func NewWarrantyHandler(store WarrantyStore, notifier Notifier) *WarrantyHandler {
	return &WarrantyHandler{store: store, notifier: notifier}
}

// RegisterRoutes registers warranty endpoints on the given Chi router.
func (h *WarrantyHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/", h.Create)
	r.Patch("/{id}/status", h.UpdateStatus)
}

// --- Request / Response types ---

type createClaimRequest struct {
	InvoiceID    string `json:"invoice_id"`
	SerialNumber string `json:"serial_number"`
	CustomerName string `json:"customer_name"`
	Issue        string `json:"issue"`
	Notes        string `json:"notes"`
}

type updateClaimStatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

type claimResponse struct {
	ID           uuid.UUID `json:"id"`
	InvoiceID    *string   `json:"invoice_id"`
	SerialNumber string    `json:"serial_number"`
	CustomerName string    `json:"customer_name"`
	Issue        string    `json:"issue"`
	Status       string    `json:"status"`
	Notes        *string   `json:"notes"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toClaimResponse(c database.WarrantyClaim) claimResponse {
	resp := claimResponse{
		ID:           c.ID,
		SerialNumber: c.SerialNumber,
		CustomerName: c.CustomerName,
		Issue:        c.Issue,
		Status:       c.Status,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
	if c.InvoiceID.Valid {
		resp.InvoiceID = &c.InvoiceID.String
	}
	if c.Notes.Valid {
		resp.Notes = &c.Notes.String
	}
	return resp
}

// --- Helpers ---

func isValidClaimStatus(s string) bool {
	switch s {
	case enum.ClaimStatusReceived, enum.ClaimStatusInRepair, enum.ClaimStatusDone,
		enum.ClaimStatusReturned, enum.ClaimStatusCancelled:
		return true
	}
	return false
}

// allowedClaimTransitions defines valid claim status transitions.
// Key is current status, value is the set of statuses it can transition to.
var allowedClaimTransitions = map[string][]string{
	enum.ClaimStatusReceived: {enum.ClaimStatusInRepair, enum.ClaimStatusCancelled},
	enum.ClaimStatusInRepair: {enum.ClaimStatusDone, enum.ClaimStatusCancelled},
	enum.ClaimStatusDone:     {enum.ClaimStatusReturned},
}

// validateClaimTransition checks if the transition from current to next is allowed.
func validateClaimTransition(current, next string) error {
	allowed, ok := allowedClaimTransitions[current]
	if !ok {
		return fmt.Errorf("cannot transition from %s", current)
	}
	for _, s := range allowed {
		if s == next {
			return nil
		}
	}
	return fmt.Errorf("cannot transition from %s to %s", current, next)
}

// --- Handlers ---

// List returns claims, optionally filtered by status.
func (h *WarrantyHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !isValidClaimStatus(status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	limit, offset := parsePagination(r)
	claims, err := h.store.ListWarrantyClaims(r.Context(), database.ListWarrantyClaimsParams{
		Status: status,
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		log.Printf("ERROR: list warranty claims: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]claimResponse, len(claims))
	for i, c := range claims {
		resp[i] = toClaimResponse(c)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single claim by ID.
func (h *WarrantyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid claim ID"})
		return
	}

	claim, err := h.store.GetWarrantyClaim(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "claim not found"})
			return
		}
		log.Printf("ERROR: get warranty claim: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toClaimResponse(claim))
}

// Create registers a new claim with status RECEIVED.
func (h *WarrantyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.SerialNumber = service.NormalizeCode(req.SerialNumber)
	if req.SerialNumber == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "serial_number is required"})
		return
	}
	if req.CustomerName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "customer_name is required"})
		return
	}
	if req.Issue == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "issue is required"})
		return
	}

	claim, err := h.store.CreateWarrantyClaim(r.Context(), database.CreateWarrantyClaimParams{
		InvoiceID:    textOrNull(req.InvoiceID),
		SerialNumber: req.SerialNumber,
		CustomerName: req.CustomerName,
		Issue:        req.Issue,
		Notes:        textOrNull(req.Notes),
	})
	if err != nil {
		log.Printf("ERROR: create warranty claim: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := toClaimResponse(claim)
	if h.notifier != nil {
		h.notifier.BroadcastJSON("warranty.created", resp)
	}

	writeJSON(w, http.StatusCreated, resp)
}

// UpdateStatus handles PATCH /warranty/{id}/status.
func (h *WarrantyHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid claim ID"})
		return
	}

	var req updateClaimStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}
	if !isValidClaimStatus(req.Status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	// Fetch current claim to validate transition
	current, err := h.store.GetWarrantyClaim(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "claim not found"})
			return
		}
		log.Printf("ERROR: get claim for status update: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if err := validateClaimTransition(current.Status, req.Status); err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}

	notes := current.Notes
	if req.Notes != "" {
		notes = textOrNull(req.Notes)
	}

	updated, err := h.store.UpdateWarrantyClaimStatus(r.Context(), database.UpdateWarrantyClaimStatusParams{
		ID:         id,
		Status:     req.Status,
		FromStatus: current.Status,
		Notes:      notes,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The status changed between our read and write (race condition)
			writeJSON(w, http.StatusConflict, map[string]string{"error": "claim status changed, please retry"})
			return
		}
		log.Printf("ERROR: update claim status: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := toClaimResponse(updated)
	if h.notifier != nil {
		h.notifier.BroadcastJSON("warranty.updated", resp)
	}

	writeJSON(w, http.StatusOK, resp)
}
