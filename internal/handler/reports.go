package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/agni-pos/api/internal/database"
	"github.com/go-chi/chi/v5"
)

// ReportStore defines the database methods needed by report handlers.
// Satisfied by *database.ReportsStore; narrow interface for testability.
type ReportStore interface {
	DailySalesBetween(ctx context.Context, from, to time.Time) ([]*database.DailySales, error)
	PaymentSummaryBetween(ctx context.Context, from, to time.Time) ([]*database.PaymentSummary, error)
	StaffIncentivesBetween(ctx context.Context, from, to time.Time) ([]*database.StaffIncentive, error)
}

// ReportHandler handles the read-only sales reporting endpoints.
type ReportHandler struct {
	store ReportStore
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(store ReportStore) *ReportHandler {
	return &ReportHandler{store: store}
}

// RegisterRoutes registers report endpoints on the given Chi router.
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/sales", h.DailySales)
	r.Get("/payments", h.PaymentSummary)
	r.Get("/incentives", h.StaffIncentives)
}

// --- Response types ---

type dailySalesResponse struct {
	Day       string `json:"day"`
	BillCount int64  `json:"bill_count"`
	Subtotal  string `json:"subtotal"`
	GST       string `json:"gst"`
	Incentive string `json:"incentive"`
	Total     string `json:"total"`
}

type paymentSummaryResponse struct {
	Mode      string `json:"mode"`
	BillCount int64  `json:"bill_count"`
	Total     string `json:"total"`
}

type staffIncentiveResponse struct {
	StaffName string `json:"staff_name"`
	BillCount int64  `json:"bill_count"`
	Incentive string `json:"incentive"`
}

// --- Handlers ---

// DailySales handles GET /reports/sales?from=&to=.
func (h *ReportHandler) DailySales(w http.ResponseWriter, r *http.Request) {
	from, to, ok := parseDateRange(w, r)
	if !ok {
		return
	}

	rows, err := h.store.DailySalesBetween(r.Context(), from, to)
	if err != nil {
		log.Printf("ERROR: daily sales report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]dailySalesResponse, len(rows))
	for i, d := range rows {
		resp[i] = dailySalesResponse{
			Day:       d.Day.Format("2006-01-02"),
			BillCount: d.BillCount,
			Subtotal:  d.Subtotal.StringFixed(2),
			GST:       d.GST.StringFixed(2),
			Incentive: d.Incentive.StringFixed(2),
			Total:     d.Total.StringFixed(2),
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"days": resp})
}

// PaymentSummary handles GET /reports/payments?from=&to=.
func (h *ReportHandler) PaymentSummary(w http.ResponseWriter, r *http.Request) {
	from, to, ok := parseDateRange(w, r)
	if !ok {
		return
	}

	rows, err := h.store.PaymentSummaryBetween(r.Context(), from, to)
	if err != nil {
		log.Printf("ERROR: payment summary report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]paymentSummaryResponse, len(rows))
	for i, p := range rows {
		resp[i] = paymentSummaryResponse{
			Mode:      p.Mode,
			BillCount: p.BillCount,
			Total:     p.Total.StringFixed(2),
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"modes": resp})
}

// StaffIncentives handles GET /reports/incentives?from=&to=.
func (h *ReportHandler) StaffIncentives(w http.ResponseWriter, r *http.Request) {
	from, to, ok := parseDateRange(w, r)
	if !ok {
		return
	}

	rows, err := h.store.StaffIncentivesBetween(r.Context(), from, to)
	if err != nil {
		log.Printf("ERROR: staff incentive report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]staffIncentiveResponse, len(rows))
	for i, si := range rows {
		resp[i] = staffIncentiveResponse{
			StaffName: si.StaffName,
			BillCount: si.BillCount,
			Incentive: si.Incentive.StringFixed(2),
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"staff": resp})
}
