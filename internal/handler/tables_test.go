package handler_test

import (
	"net/http"
	"testing"

	"github.com/agni-pos/api/internal/billing"
	"github.com/agni-pos/api/internal/handler"
	"github.com/go-chi/chi/v5"
)

func newTableRouter(t *testing.T) (chi.Router, *billing.Ledger) {
	t.Helper()
	ledger := billing.NewLedger(newMemTableStore())
	h := handler.NewTableHandler(ledger, newMockCatalog())
	r := chi.NewRouter()
	r.Route("/tables", h.RegisterRoutes)
	return r, ledger
}

func commitBody(table string) map[string]interface{} {
	return map[string]interface{}{
		"table_number": table,
		"staff_id":     "C01",
		"seating":      "AC",
		"items": []map[string]interface{}{
			{"item_code": "M01", "quantity": 2},
		},
	}
}

func TestCommitTable(t *testing.T) {
	r, ledger := newTableRouter(t)

	rr := postJSON(t, r, "/tables", commitBody("5"))
	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d (%s)", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	// 2 x 95 AC tariff, 5% GST
	if resp["subtotal"] != "190.00" {
		t.Errorf("subtotal: got %v, want 190.00", resp["subtotal"])
	}
	if resp["gst"] != "9.50" {
		t.Errorf("gst: got %v, want 9.50", resp["gst"])
	}
	if resp["total"] != "199.50" {
		t.Errorf("total: got %v, want 199.50", resp["total"])
	}

	if _, ok := ledger.Get("5"); !ok {
		t.Error("table 5 not active after commit")
	}
}

func TestCommitTable_Duplicate(t *testing.T) {
	r, _ := newTableRouter(t)

	if rr := postJSON(t, r, "/tables", commitBody("5")); rr.Code != http.StatusCreated {
		t.Fatalf("first commit: %d (%s)", rr.Code, rr.Body.String())
	}
	rr := postJSON(t, r, "/tables", commitBody("5"))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestCommitTable_InvalidTableNumber(t *testing.T) {
	r, _ := newTableRouter(t)

	rr := postJSON(t, r, "/tables", commitBody("abc"))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestCommitTable_UnknownItem(t *testing.T) {
	r, _ := newTableRouter(t)

	body := commitBody("5")
	body["items"] = []map[string]interface{}{{"item_code": "NOPE"}}
	rr := postJSON(t, r, "/tables", body)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestCommitTable_UnknownStaff(t *testing.T) {
	r, _ := newTableRouter(t)

	body := commitBody("5")
	body["staff_id"] = "ZZ"
	rr := postJSON(t, r, "/tables", body)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestCommitTable_DynamicItemNeedsManualPrice(t *testing.T) {
	r, _ := newTableRouter(t)

	body := commitBody("5")
	body["items"] = []map[string]interface{}{{"item_code": "M04"}}
	rr := postJSON(t, r, "/tables", body)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}

	body["items"] = []map[string]interface{}{{"item_code": "M04", "manual_price": "150"}}
	rr = postJSON(t, r, "/tables", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status with manual price: got %d, want %d (%s)", rr.Code, http.StatusCreated, rr.Body.String())
	}
}

func TestUpdateTable(t *testing.T) {
	r, _ := newTableRouter(t)

	if rr := postJSON(t, r, "/tables", commitBody("5")); rr.Code != http.StatusCreated {
		t.Fatalf("commit: %d", rr.Code)
	}

	body := commitBody("5")
	body["items"] = []map[string]interface{}{{"item_code": "M01", "quantity": 3}}
	req := putJSON(t, r, "/tables/5", body)
	if req.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (%s)", req.Code, http.StatusOK, req.Body.String())
	}

	resp := decodeResponse(t, req)
	if resp["subtotal"] != "285.00" {
		t.Errorf("subtotal after update: got %v, want 285.00", resp["subtotal"])
	}
}

func TestUpdateTable_NotActive(t *testing.T) {
	r, _ := newTableRouter(t)

	rr := putJSON(t, r, "/tables/9", commitBody("9"))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestListTables_GroupedByStaff(t *testing.T) {
	r, _ := newTableRouter(t)

	for _, tn := range []string{"5", "7"} {
		if rr := postJSON(t, r, "/tables", commitBody(tn)); rr.Code != http.StatusCreated {
			t.Fatalf("commit %s: %d", tn, rr.Code)
		}
	}

	rr := getJSON(t, r, "/tables")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	resp := decodeResponse(t, rr)
	groups, _ := resp["groups"].([]interface{})
	if len(groups) != 1 {
		t.Fatalf("groups: got %d, want 1", len(groups))
	}
	group := groups[0].(map[string]interface{})
	if group["staff"] != "Ravi" {
		t.Errorf("group staff: got %v, want Ravi", group["staff"])
	}
	if orders := group["orders"].([]interface{}); len(orders) != 2 {
		t.Errorf("group orders: got %d, want 2", len(orders))
	}
}

func TestSearchTables(t *testing.T) {
	r, _ := newTableRouter(t)

	for _, tn := range []string{"5", "15", "23"} {
		if rr := postJSON(t, r, "/tables", commitBody(tn)); rr.Code != http.StatusCreated {
			t.Fatalf("commit %s: %d", tn, rr.Code)
		}
	}

	rr := getJSON(t, r, "/tables/search?q=5")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	resp := decodeResponse(t, rr)
	if orders := resp["orders"].([]interface{}); len(orders) != 2 {
		t.Errorf("search results: got %d, want 2 (tables 5 and 15)", len(orders))
	}
}
