package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/cache"
	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/database"
)

// reportCacheTTL bounds staleness; delete-sale invalidates nothing, so the
// summary can lag a deletion by at most this long.
const reportCacheTTL = 5 * time.Minute

// ReportStore defines the database methods needed by report handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ReportStore interface {
	GetMonthlySalesSummary(ctx context.Context, arg database.GetMonthlySalesSummaryParams) (database.GetMonthlySalesSummaryRow, error)
}

// ReportHandler handles reporting endpoints.
type ReportHandler struct {
	store ReportStore
	cache cache.ReportCache
}

// NewReportHandler creates a new ReportHandler. Pass cache.NoopReportCache
// when Redis is not configured.
func NewReportHandler(store ReportStore, c cache.ReportCache) *ReportHandler {
	return &ReportHandler{store: store, cache: c}
}

// RegisterRoutes registers report endpoints on the given Chi router.
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/monthly", h.Monthly)
}

type monthlyReportResponse struct {
	Month           string `json:"month"`
	Revenue         int64  `json:"revenue"`
	Discount        int64  `json:"discount"`
	Profit          int64  `json:"profit"`
	PaidLines       int64  `json:"paid_lines"`
	UnitsSold       int64  `json:"units_sold"`
	AccessoriesSold int64  `json:"accessories_sold"`
	InvoiceCount    int64  `json:"invoice_count"`
}

// Monthly handles GET /reports/monthly?month=YYYY-MM. Defaults to the
// current month. Summaries are cached per month.
func (h *ReportHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month == "" {
		month = time.Now().Format("2006-01")
	}

	start, err := time.Parse("2006-01", month)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid month format, use YYYY-MM"})
		return
	}
	end := start.AddDate(0, 1, 0)

	cacheKey := "report:monthly:" + month
	if row, ok, err := h.cache.Get(r.Context(), cacheKey); err == nil && ok {
		writeJSON(w, http.StatusOK, toMonthlyResponse(month, *row))
		return
	} else if err != nil {
		// A broken cache must never take reporting down.
		log.Printf("WARN: report cache get: %v", err)
	}

	row, err := h.store.GetMonthlySalesSummary(r.Context(), database.GetMonthlySalesSummaryParams{
		MonthStart: start,
		MonthEnd:   end,
	})
	if err != nil {
		log.Printf("ERROR: monthly sales summary: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if err := h.cache.Set(r.Context(), cacheKey, &row, reportCacheTTL); err != nil {
		log.Printf("WARN: report cache set: %v", err)
	}

	writeJSON(w, http.StatusOK, toMonthlyResponse(month, row))
}

func toMonthlyResponse(month string, row database.GetMonthlySalesSummaryRow) monthlyReportResponse {
	return monthlyReportResponse{
		Month:           month,
		Revenue:         row.Revenue,
		Discount:        row.Discount,
		Profit:          row.Profit,
		PaidLines:       row.PaidLines,
		UnitsSold:       row.UnitsSold,
		AccessoriesSold: row.AccessoriesSold,
		InvoiceCount:    row.InvoiceCount,
	}
}
