package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/agni-pos/api/internal/billing"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// TableCatalog defines the catalog lookups needed to price an incoming order.
// Satisfied by *database.CatalogStore; narrow interface for testability.
type TableCatalog interface {
	GetItemByCode(ctx context.Context, code string) (*billing.MenuItem, error)
	GetStaff(ctx context.Context, empID string) (*billing.StaffMember, error)
}

// TableHandler handles the active-floor endpoints: committing, editing and
// listing occupied tables.
type TableHandler struct {
	ledger  *billing.Ledger
	catalog TableCatalog
}

// NewTableHandler creates a new TableHandler.
func NewTableHandler(ledger *billing.Ledger, catalog TableCatalog) *TableHandler {
	return &TableHandler{ledger: ledger, catalog: catalog}
}

// RegisterRoutes registers table endpoints on the given Chi router.
func (h *TableHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Commit)
	r.Put("/{table}", h.Update)
	r.Get("/", h.List)
	r.Get("/search", h.Search)
}

// --- Request / Response types ---

type orderItemRequest struct {
	ItemCode    string `json:"item_code"`
	Seating     string `json:"seating"`
	Quantity    int32  `json:"quantity"`
	ManualPrice string `json:"manual_price"`
}

type orderRequest struct {
	TableNumber string             `json:"table_number"`
	StaffID     string             `json:"staff_id"`
	Seating     string             `json:"seating"`
	Items       []orderItemRequest `json:"items"`
}

type lineItemResponse struct {
	ItemCode  string `json:"item_code"`
	ItemName  string `json:"item_name"`
	Seating   string `json:"seating"`
	Quantity  int32  `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Amount    string `json:"amount"`
}

type staffResponse struct {
	ID   string `json:"emp_id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

type activeOrderResponse struct {
	TableNumber string             `json:"table_number"`
	Staff       *staffResponse     `json:"staff"`
	Seating     string             `json:"seating"`
	Items       []lineItemResponse `json:"items"`
	Subtotal    string             `json:"subtotal"`
	GST         string             `json:"gst"`
	Incentive   string             `json:"incentive"`
	Total       string             `json:"total"`
}

type staffGroupResponse struct {
	Staff  string                `json:"staff"`
	Orders []activeOrderResponse `json:"orders"`
}

// --- Handlers ---

// Commit handles POST /tables: validates and prices the order, then claims
// the table.
func (h *TableHandler) Commit(w http.ResponseWriter, r *http.Request) {
	draft, ok := h.buildDraft(w, r)
	if !ok {
		return
	}

	order, err := h.ledger.Commit(r.Context(), draft)
	if err != nil {
		respondBillingError(w, "commit table", err)
		return
	}

	writeJSON(w, http.StatusCreated, toActiveOrderResponse(order))
}

// Update handles PUT /tables/{table}: replaces the order on an occupied table.
func (h *TableHandler) Update(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")

	draft, ok := h.buildDraft(w, r)
	if !ok {
		return
	}

	order, err := h.ledger.Update(r.Context(), table, draft)
	if err != nil {
		respondBillingError(w, "update table", err)
		return
	}

	writeJSON(w, http.StatusOK, toActiveOrderResponse(order))
}

// List handles GET /tables: all active orders grouped by captain, groups in
// first-commit order.
func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	groups := h.ledger.ListGroupedByStaff()

	resp := make([]staffGroupResponse, len(groups))
	for i, g := range groups {
		orders := make([]activeOrderResponse, len(g.Orders))
		for j, o := range g.Orders {
			orders[j] = toActiveOrderResponse(o)
		}
		resp[i] = staffGroupResponse{Staff: g.Staff, Orders: orders}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"groups": resp})
}

// Search handles GET /tables/search?q=: active orders whose table number
// contains q, in commit order.
func (h *TableHandler) Search(w http.ResponseWriter, r *http.Request) {
	orders := h.ledger.Search(r.URL.Query().Get("q"))

	resp := make([]activeOrderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toActiveOrderResponse(o)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"orders": resp})
}

// --- Helpers ---

// buildDraft decodes the request body and assembles a priced draft from the
// catalog. Writes the error response itself and returns ok=false on failure.
func (h *TableHandler) buildDraft(w http.ResponseWriter, r *http.Request) (*billing.Draft, bool) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return nil, false
	}

	if req.StaffID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "staff_id is required"})
		return nil, false
	}
	if len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "items are required"})
		return nil, false
	}

	staff, err := h.catalog.GetStaff(r.Context(), req.StaffID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown staff id"})
			return nil, false
		}
		log.Printf("ERROR: get staff: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return nil, false
	}

	draft := billing.NewDraft()
	draft.TableNumber = req.TableNumber
	draft.Staff = staff
	draft.Seating = billing.SeatingType(req.Seating)

	for i, it := range req.Items {
		item, err := h.catalog.GetItemByCode(r.Context(), it.ItemCode)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeJSON(w, http.StatusBadRequest, map[string]string{
					"error": formatItemError(i, "unknown item code"),
				})
				return nil, false
			}
			log.Printf("ERROR: get menu item: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return nil, false
		}

		manualPrice := decimal.Zero
		if it.ManualPrice != "" {
			manualPrice, err = decimal.NewFromString(it.ManualPrice)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{
					"error": formatItemError(i, "invalid manual_price"),
				})
				return nil, false
			}
		}

		seating := draft.Seating
		if it.Seating != "" {
			seating = billing.SeatingType(it.Seating)
		}

		if err := draft.AddLine(item, seating, manualPrice); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": formatItemError(i, err.Error()),
			})
			return nil, false
		}
		if it.Quantity > 1 {
			_ = draft.SetQuantity(len(draft.Lines)-1, it.Quantity)
		}
	}

	return draft, true
}

func formatItemError(idx int, msg string) string {
	return "items[" + strconv.Itoa(idx) + "]: " + msg
}

// respondBillingError maps core billing errors to HTTP status codes.
// Validation problems are 400, stale-view conflicts are 404/409, anything
// else is a 500 with the detail kept server-side.
func respondBillingError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, billing.ErrOrderNotFound) || errors.Is(err, billing.ErrBillNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, billing.ErrInvalidBillState):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case billing.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func toActiveOrderResponse(o *billing.ActiveOrder) activeOrderResponse {
	totals := billing.ComputeTotals(o.Lines)
	resp := activeOrderResponse{
		TableNumber: o.TableNumber,
		Seating:     string(o.Seating),
		Items:       toLineItemResponses(o.Lines),
		Subtotal:    totals.Subtotal.StringFixed(2),
		GST:         totals.GST.StringFixed(2),
		Incentive:   totals.Incentive.StringFixed(2),
		Total:       totals.Grand.StringFixed(2),
	}
	if o.Staff != nil {
		resp.Staff = &staffResponse{ID: o.Staff.ID, Name: o.Staff.Name, Role: o.Staff.Role}
	}
	return resp
}

func toLineItemResponses(lines []billing.LineItem) []lineItemResponse {
	out := make([]lineItemResponse, len(lines))
	for i, l := range lines {
		amount := l.UnitPrice.Mul(decimal.NewFromInt32(l.Quantity))
		out[i] = lineItemResponse{
			ItemCode:  l.ItemCode,
			ItemName:  l.ItemName,
			Seating:   string(l.Seating),
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice.StringFixed(2),
			Amount:    amount.StringFixed(2),
		}
	}
	return out
}
