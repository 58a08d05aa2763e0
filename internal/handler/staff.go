package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/agni-pos/api/internal/billing"
	"github.com/agni-pos/api/internal/enum"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
)

// StaffStore defines the database methods needed by staff handlers.
// Satisfied by *database.CatalogStore; narrow interface for testability.
type StaffStore interface {
	FindStaffByPrefix(ctx context.Context, q string) ([]billing.StaffMember, error)
	CreateStaff(ctx context.Context, m *billing.StaffMember) error
	UpdateStaff(ctx context.Context, m *billing.StaffMember) error
	DeleteStaff(ctx context.Context, empID string) error
}

// StaffHandler handles the captain/supplier roster endpoints.
type StaffHandler struct {
	store StaffStore
}

// NewStaffHandler creates a new StaffHandler.
func NewStaffHandler(store StaffStore) *StaffHandler {
	return &StaffHandler{store: store}
}

// RegisterRoutes registers staff read endpoints on the given Chi router.
func (h *StaffHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
}

// RegisterManageRoutes registers staff write endpoints; mount these behind
// the manager role check.
func (h *StaffHandler) RegisterManageRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Put("/{empID}", h.Update)
	r.Delete("/{empID}", h.Delete)
}

type staffRequest struct {
	ID   string `json:"emp_id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// List handles GET /staff. The q parameter narrows by employee id or name
// prefix for the order screen's captain picker.
func (h *StaffHandler) List(w http.ResponseWriter, r *http.Request) {
	staff, err := h.store.FindStaffByPrefix(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		log.Printf("ERROR: list staff: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]staffResponse, len(staff))
	for i, m := range staff {
		resp[i] = staffResponse{ID: m.ID, Name: m.Name, Role: m.Role}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"staff": resp})
}

// Create handles POST /staff.
func (h *StaffHandler) Create(w http.ResponseWriter, r *http.Request) {
	m, ok := decodeStaff(w, r)
	if !ok {
		return
	}

	if err := h.store.CreateStaff(r.Context(), m); err != nil {
		log.Printf("ERROR: create staff: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusCreated, staffResponse{ID: m.ID, Name: m.Name, Role: m.Role})
}

// Update handles PUT /staff/{empID}.
func (h *StaffHandler) Update(w http.ResponseWriter, r *http.Request) {
	m, ok := decodeStaff(w, r)
	if !ok {
		return
	}
	m.ID = chi.URLParam(r, "empID")

	if err := h.store.UpdateStaff(r.Context(), m); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "staff not found"})
			return
		}
		log.Printf("ERROR: update staff: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, staffResponse{ID: m.ID, Name: m.Name, Role: m.Role})
}

// Delete handles DELETE /staff/{empID}.
func (h *StaffHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteStaff(r.Context(), chi.URLParam(r, "empID")); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "staff not found"})
			return
		}
		log.Printf("ERROR: delete staff: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeStaff(w http.ResponseWriter, r *http.Request) (*billing.StaffMember, bool) {
	var req staffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return nil, false
	}
	if req.ID == "" && r.Method == http.MethodPost {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "emp_id is required"})
		return nil, false
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return nil, false
	}
	if req.Role != enum.StaffRoleCaptain && req.Role != enum.StaffRoleSupplier {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid role"})
		return nil, false
	}
	return &billing.StaffMember{ID: req.ID, Name: req.Name, Role: req.Role}, true
}
