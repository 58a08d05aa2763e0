package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/agni-pos/api/internal/database"
	"github.com/agni-pos/api/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ExpenseStore defines the database methods needed by expense handlers.
// Satisfied by *database.ExpensesStore; narrow interface for testability.
type ExpenseStore interface {
	ListExpenseTypes(ctx context.Context) ([]string, error)
	CreateExpenseType(ctx context.Context, name string) error
	CreateExpense(ctx context.Context, e *database.Expense) (*database.Expense, error)
	ListExpensesBetween(ctx context.Context, from, to time.Time) ([]*database.Expense, error)
	DeleteExpense(ctx context.Context, id int64) error
}

// ExpenseHandler handles the back-office expense endpoints.
type ExpenseHandler struct {
	store ExpenseStore
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(store ExpenseStore) *ExpenseHandler {
	return &ExpenseHandler{store: store}
}

// RegisterRoutes registers expense endpoints on the given Chi router.
func (h *ExpenseHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Delete("/{id}", h.Delete)
	r.Get("/types", h.ListTypes)
	r.Post("/types", h.CreateType)
}

// --- Request / Response types ---

type expenseRequest struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	SpentAt     string `json:"spent_at"`
}

type expenseTypeRequest struct {
	Name string `json:"name"`
}

type expenseResponse struct {
	ID          int64     `json:"id"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Amount      string    `json:"amount"`
	SpentAt     time.Time `json:"spent_at"`
	CreatedBy   string    `json:"created_by"`
}

// --- Handlers ---

// List handles GET /expenses?from=YYYY-MM-DD&to=YYYY-MM-DD. Defaults to the
// current day when no range is given.
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	from, to, ok := parseDateRange(w, r)
	if !ok {
		return
	}

	expenses, err := h.store.ListExpensesBetween(r.Context(), from, to)
	if err != nil {
		log.Printf("ERROR: list expenses: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]expenseResponse, len(expenses))
	for i, e := range expenses {
		resp[i] = expenseResponse{
			ID:          e.ID,
			Type:        e.Type,
			Description: e.Description,
			Amount:      e.Amount.StringFixed(2),
			SpentAt:     e.SpentAt,
			CreatedBy:   e.CreatedBy,
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"expenses": resp})
}

// Create handles POST /expenses.
func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Type == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "type is required"})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.Sign() <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "amount must be a positive number"})
		return
	}

	spentAt := time.Now()
	if req.SpentAt != "" {
		spentAt, err = time.Parse("2006-01-02", req.SpentAt)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid spent_at format, use YYYY-MM-DD"})
			return
		}
	}

	createdBy := ""
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		createdBy = claims.UserID.String()
	}

	expense, err := h.store.CreateExpense(r.Context(), &database.Expense{
		Type:        req.Type,
		Description: req.Description,
		Amount:      amount,
		SpentAt:     spentAt,
		CreatedBy:   createdBy,
	})
	if err != nil {
		log.Printf("ERROR: create expense: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, expenseResponse{
		ID:          expense.ID,
		Type:        expense.Type,
		Description: expense.Description,
		Amount:      expense.Amount.StringFixed(2),
		SpentAt:     expense.SpentAt,
		CreatedBy:   expense.CreatedBy,
	})
}

// Delete handles DELETE /expenses/{id}.
func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid expense id"})
		return
	}

	if err := h.store.DeleteExpense(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "expense not found"})
			return
		}
		log.Printf("ERROR: delete expense: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListTypes handles GET /expenses/types.
func (h *ExpenseHandler) ListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.store.ListExpenseTypes(r.Context())
	if err != nil {
		log.Printf("ERROR: list expense types: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"types": types})
}

// CreateType handles POST /expenses/types.
func (h *ExpenseHandler) CreateType(w http.ResponseWriter, r *http.Request) {
	var req expenseTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	if err := h.store.CreateExpenseType(r.Context(), req.Name); err != nil {
		log.Printf("ERROR: create expense type: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"name": req.Name})
}

// parseDateRange reads from/to query params as YYYY-MM-DD. The range is
// half-open: [from, to+1day). Missing params default to today.
func parseDateRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	to := from.AddDate(0, 0, 1)

	if s := r.URL.Query().Get("from"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid from format, use YYYY-MM-DD"})
			return time.Time{}, time.Time{}, false
		}
		from = t
	}
	if s := r.URL.Query().Get("to"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid to format, use YYYY-MM-DD"})
			return time.Time{}, time.Time{}, false
		}
		to = t.AddDate(0, 0, 1)
	}
	return from, to, true
}
