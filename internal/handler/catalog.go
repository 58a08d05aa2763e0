package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/agni-pos/api/internal/billing"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// CatalogStore defines the database methods needed by menu-item handlers.
// Satisfied by *database.CatalogStore; narrow interface for testability.
type CatalogStore interface {
	GetItemByCode(ctx context.Context, code string) (*billing.MenuItem, error)
	FindItemsByPrefix(ctx context.Context, q string) ([]*billing.MenuItem, error)
	CreateItem(ctx context.Context, item *billing.MenuItem) error
	UpdateItem(ctx context.Context, item *billing.MenuItem) error
	DeleteItem(ctx context.Context, code string) error
}

// CatalogHandler handles the menu-item catalog endpoints.
type CatalogHandler struct {
	store CatalogStore
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(store CatalogStore) *CatalogHandler {
	return &CatalogHandler{store: store}
}

// RegisterRoutes registers catalog read endpoints on the given Chi router.
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{code}", h.Get)
}

// RegisterManageRoutes registers catalog write endpoints; mount these behind
// the manager role check.
func (h *CatalogHandler) RegisterManageRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Put("/{code}", h.Update)
	r.Delete("/{code}", h.Delete)
}

// --- Request / Response types ---

type menuItemRequest struct {
	Code             string   `json:"code"`
	Name             string   `json:"name"`
	PriceNonAC       string   `json:"price_non_ac"`
	PriceAC          string   `json:"price_ac"`
	PriceParcel      string   `json:"price_parcel"`
	DynamicPrice     bool     `json:"dynamic_price"`
	GST              bool     `json:"gst"`
	GSTPercent       string   `json:"gst_percent"`
	Incentive        bool     `json:"incentive"`
	IncentivePercent string   `json:"incentive_percent"`
	Ingredients      []string `json:"ingredients"`
}

type menuItemResponse struct {
	Code             string   `json:"code"`
	Name             string   `json:"name"`
	PriceNonAC       string   `json:"price_non_ac"`
	PriceAC          string   `json:"price_ac"`
	PriceParcel      string   `json:"price_parcel"`
	DynamicPrice     bool     `json:"dynamic_price"`
	GST              bool     `json:"gst"`
	GSTPercent       string   `json:"gst_percent"`
	Incentive        bool     `json:"incentive"`
	IncentivePercent string   `json:"incentive_percent"`
	Ingredients      []string `json:"ingredients"`
}

// --- Handlers ---

// List handles GET /items. The q parameter narrows by code or name prefix;
// the pricing screen uses it for autocomplete.
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.FindItemsByPrefix(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		log.Printf("ERROR: list menu items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]menuItemResponse, len(items))
	for i, item := range items {
		resp[i] = toMenuItemResponse(item)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": resp})
}

// Get handles GET /items/{code}.
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.store.GetItemByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: get menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

// Create handles POST /items.
func (h *CatalogHandler) Create(w http.ResponseWriter, r *http.Request) {
	item, ok := decodeMenuItem(w, r)
	if !ok {
		return
	}

	if err := h.store.CreateItem(r.Context(), item); err != nil {
		log.Printf("ERROR: create menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusCreated, toMenuItemResponse(item))
}

// Update handles PUT /items/{code}.
func (h *CatalogHandler) Update(w http.ResponseWriter, r *http.Request) {
	item, ok := decodeMenuItem(w, r)
	if !ok {
		return
	}
	item.Code = chi.URLParam(r, "code")

	if err := h.store.UpdateItem(r.Context(), item); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: update menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

// Delete handles DELETE /items/{code}.
func (h *CatalogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteItem(r.Context(), chi.URLParam(r, "code")); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: delete menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

func decodeMenuItem(w http.ResponseWriter, r *http.Request) (*billing.MenuItem, bool) {
	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return nil, false
	}
	if req.Code == "" && r.Method == http.MethodPost {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "code is required"})
		return nil, false
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return nil, false
	}

	item := &billing.MenuItem{
		Code:         req.Code,
		Name:         req.Name,
		DynamicPrice: req.DynamicPrice,
		GST:          req.GST,
		Incentive:    req.Incentive,
		Ingredients:  req.Ingredients,
	}

	fields := []struct {
		name string
		src  string
		dst  *decimal.Decimal
	}{
		{"price_non_ac", req.PriceNonAC, &item.PriceNonAC},
		{"price_ac", req.PriceAC, &item.PriceAC},
		{"price_parcel", req.PriceParcel, &item.PriceParcel},
		{"gst_percent", req.GSTPercent, &item.GSTPercent},
		{"incentive_percent", req.IncentivePercent, &item.IncentivePercent},
	}
	for _, f := range fields {
		if f.src == "" {
			continue
		}
		d, err := decimal.NewFromString(f.src)
		if err != nil || d.IsNegative() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid " + f.name})
			return nil, false
		}
		*f.dst = d
	}

	return item, true
}

func toMenuItemResponse(item *billing.MenuItem) menuItemResponse {
	return menuItemResponse{
		Code:             item.Code,
		Name:             item.Name,
		PriceNonAC:       item.PriceNonAC.StringFixed(2),
		PriceAC:          item.PriceAC.StringFixed(2),
		PriceParcel:      item.PriceParcel.StringFixed(2),
		DynamicPrice:     item.DynamicPrice,
		GST:              item.GST,
		GSTPercent:       item.GSTPercent.String(),
		Incentive:        item.Incentive,
		IncentivePercent: item.IncentivePercent.String(),
		Ingredients:      item.Ingredients,
	}
}
