package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/agni-pos/api/internal/billing"
	"github.com/agni-pos/api/internal/enum"
	"github.com/agni-pos/api/internal/middleware"
	"github.com/agni-pos/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// BillHandler handles the bill lifecycle endpoints: printing, payment,
// cancellation and the pending-bills screen.
type BillHandler struct {
	engine *billing.Engine
	hub    *ws.Hub
}

// NewBillHandler creates a new BillHandler.
func NewBillHandler(engine *billing.Engine, hub *ws.Hub) *BillHandler {
	return &BillHandler{engine: engine, hub: hub}
}

// RegisterRoutes registers bill endpoints on the given Chi router. Print is
// under /tables because it acts on a table, not an existing bill.
func (h *BillHandler) RegisterRoutes(r chi.Router) {
	r.Post("/tables/{table}/print", h.Print)
	r.Get("/bills/pending", h.ListPending)
	r.Post("/bills/{billNo}/pay", h.Pay)
	r.Post("/bills/{billNo}/cancel", h.Cancel)
}

// --- Request / Response types ---

type payRequest struct {
	Mode      string `json:"mode"`
	CashGiven string `json:"cash_given"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

type billResponse struct {
	BillNo       string             `json:"bill_no"`
	TableNumber  string             `json:"table_number"`
	Staff        *staffResponse     `json:"staff"`
	Items        []lineItemResponse `json:"items"`
	Subtotal     string             `json:"subtotal"`
	GST          string             `json:"gst"`
	Incentive    string             `json:"incentive"`
	Total        string             `json:"total"`
	Status       string             `json:"status"`
	CreatedAt    time.Time          `json:"created_at"`
	CreatedBy    string             `json:"created_by"`
	PaidAt       *time.Time         `json:"paid_at,omitempty"`
	PaymentMode  string             `json:"payment_mode,omitempty"`
	CashGiven    *string            `json:"cash_given,omitempty"`
	CashReturned *string            `json:"cash_returned,omitempty"`
	CancelReason string             `json:"cancel_reason,omitempty"`
}

// --- Handlers ---

// Print handles POST /tables/{table}/print: bills the active order and
// vacates the table.
func (h *BillHandler) Print(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")

	createdBy := ""
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		createdBy = claims.UserID.String()
	}

	bill, err := h.engine.Print(r.Context(), table, createdBy)
	if err != nil {
		respondBillingError(w, "print bill", err)
		return
	}

	h.broadcast("bill.printed", bill)
	writeJSON(w, http.StatusCreated, toBillResponse(bill))
}

// Pay handles POST /bills/{billNo}/pay.
func (h *BillHandler) Pay(w http.ResponseWriter, r *http.Request) {
	billNo := chi.URLParam(r, "billNo")

	var req payRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if !isValidPaymentMode(req.Mode) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payment mode"})
		return
	}

	cashGiven := decimal.Zero
	if req.Mode == enum.PaymentModeCash {
		if req.CashGiven == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cash_given is required for cash payments"})
			return
		}
		var err error
		cashGiven, err = decimal.NewFromString(req.CashGiven)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cash_given"})
			return
		}
	}

	bill, err := h.engine.Pay(r.Context(), billNo, req.Mode, cashGiven)
	if err != nil {
		respondBillingError(w, "pay bill", err)
		return
	}

	h.broadcast("bill.paid", bill)
	writeJSON(w, http.StatusOK, toBillResponse(bill))
}

// Cancel handles POST /bills/{billNo}/cancel.
func (h *BillHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	billNo := chi.URLParam(r, "billNo")

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	bill, err := h.engine.Cancel(r.Context(), billNo, req.Reason)
	if err != nil {
		respondBillingError(w, "cancel bill", err)
		return
	}

	h.broadcast("bill.cancelled", bill)
	writeJSON(w, http.StatusOK, toBillResponse(bill))
}

// ListPending handles GET /bills/pending: PRINTED bills, newest first.
func (h *BillHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	bills, err := h.engine.ListPending(r.Context())
	if err != nil {
		respondBillingError(w, "list pending bills", err)
		return
	}

	resp := make([]billResponse, len(bills))
	for i, b := range bills {
		resp[i] = toBillResponse(b)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"bills": resp})
}

// --- Helpers ---

func isValidPaymentMode(mode string) bool {
	switch mode {
	case enum.PaymentModeCash, enum.PaymentModeQR, enum.PaymentModeCard, enum.PaymentModeGPay:
		return true
	}
	return false
}

func (h *BillHandler) broadcast(eventType string, bill *billing.Bill) {
	if h.hub == nil {
		return
	}
	payload, err := json.Marshal(toBillResponse(bill))
	if err != nil {
		return
	}
	h.hub.Broadcast(ws.Event{Type: eventType, Payload: payload})
}

func toBillResponse(b *billing.Bill) billResponse {
	resp := billResponse{
		BillNo:       b.BillNo,
		TableNumber:  b.TableNumber,
		Items:        toLineItemResponses(b.Items),
		Subtotal:     b.Subtotal.StringFixed(2),
		GST:          b.GST.StringFixed(2),
		Incentive:    b.Incentive.StringFixed(2),
		Total:        b.Total.StringFixed(2),
		Status:       string(b.Status),
		CreatedAt:    b.CreatedAt,
		CreatedBy:    b.CreatedBy,
		PaidAt:       b.PaidAt,
		PaymentMode:  b.PaymentMode,
		CancelReason: b.CancelReason,
	}
	if b.Staff != nil {
		resp.Staff = &staffResponse{ID: b.Staff.ID, Name: b.Staff.Name, Role: b.Staff.Role}
	}
	if b.CashGiven != nil {
		s := b.CashGiven.StringFixed(2)
		resp.CashGiven = &s
	}
	if b.CashReturned != nil {
		s := b.CashReturned.StringFixed(2)
		resp.CashReturned = &s
	}
	return resp
}
