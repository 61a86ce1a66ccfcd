package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/database"
	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/middleware"
)

// AttendanceStore defines the database methods needed by attendance handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type AttendanceStore interface {
	CheckIn(ctx context.Context, arg database.CheckInParams) (database.Attendance, error)
	CheckOut(ctx context.Context, arg database.CheckOutParams) (database.Attendance, error)
	ListAttendance(ctx context.Context, arg database.ListAttendanceParams) ([]database.Attendance, error)
}

// AttendanceHandler handles staff attendance endpoints.
type AttendanceHandler struct {
	store AttendanceStore

	// now is swappable for tests
	now func() time.Time
}

// NewAttendanceHandler creates a new AttendanceHandler.
func NewAttendanceHandler(store AttendanceStore) *AttendanceHandler {
	return &AttendanceHandler{store: store, now: time.Now}
}

// RegisterRoutes registers attendance endpoints on the given Chi router.
func (h *AttendanceHandler) RegisterRoutes(r chi.Router) {
	r.Post("/check-in", h.CheckIn)
	r.Post("/check-out", h.CheckOut)
	r.Get("/", h.List)
}

// --- Response types ---

type attendanceResponse struct {
	ID       uuid.UUID  `json:"id"`
	UserID   uuid.UUID  `json:"user_id"`
	WorkDate time.Time  `json:"work_date"`
	CheckIn  time.Time  `json:"check_in"`
	CheckOut *time.Time `json:"check_out"`
}

func toAttendanceResponse(a database.Attendance) attendanceResponse {
	resp := attendanceResponse{
		ID:       a.ID,
		UserID:   a.UserID,
		WorkDate: a.WorkDate,
		CheckIn:  a.CheckIn,
	}
	if a.CheckOut.Valid {
		resp.CheckOut = &a.CheckOut.Time
	}
	return resp
}

// workDate truncates to the calendar day; one attendance row per user per day.
func (h *AttendanceHandler) workDate() time.Time {
	y, m, d := h.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// --- Handlers ---

// CheckIn records the authenticated user's check-in for today.
func (h *AttendanceHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	att, err := h.store.CheckIn(r.Context(), database.CheckInParams{
		UserID:   claims.UserID,
		WorkDate: h.workDate(),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "already checked in today"})
			return
		}
		log.Printf("ERROR: check in: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toAttendanceResponse(att))
}

// CheckOut stamps the authenticated user's check-out for today.
func (h *AttendanceHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	att, err := h.store.CheckOut(r.Context(), database.CheckOutParams{
		UserID:   claims.UserID,
		WorkDate: h.workDate(),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "no open check-in for today"})
			return
		}
		log.Printf("ERROR: check out: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toAttendanceResponse(att))
}

// List handles GET /attendance?start_date=&end_date=. Defaults to the
// current calendar month.
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)

	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start_date format, use YYYY-MM-DD"})
			return
		}
		start = t
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid end_date format, use YYYY-MM-DD"})
			return
		}
		end = t
	}

	items, err := h.store.ListAttendance(r.Context(), database.ListAttendanceParams{
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		log.Printf("ERROR: list attendance: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]attendanceResponse, len(items))
	for i, a := range items {
		resp[i] = toAttendanceResponse(a)
	}

	writeJSON(w, http.StatusOK, resp)
}
