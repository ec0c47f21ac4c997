package handler

import (
	"net/http"
	"testing"

	"github.com/bitfantasy/loom/internal/fulfillment/testutil"
)

// TestManufacturerAdmin covers manufacturer creation and association management
func TestManufacturerAdmin(t *testing.T) {
	env := setupPortalTest(t)
	admin := testutil.AdminToken()

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/manufacturers", map[string]interface{}{
		"code":    "MFR-A",
		"name":    "工厂A",
		"country": "CN",
		"city":    "Dongguan",
	}, admin)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	mfrID := data["id"].(string)
	if data["status"] != "active" {
		t.Fatalf("expected active status, got %v", data["status"])
	}

	// Association against an unknown manufacturer is rejected
	w2 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/manufacturers/associations", map[string]interface{}{
		"user_id":         "user-a",
		"manufacturer_id": "missing",
	}, admin)
	if w2.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w2.Code)
	}

	// Associate user-a; the user gains portal access
	w3 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/manufacturers/associations", map[string]interface{}{
		"user_id":         "user-a",
		"manufacturer_id": mfrID,
	}, admin)
	if w3.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w3.Code, w3.Body.String())
	}
	wJobs := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/jobs", nil, testutil.ManufacturerToken("user-a"))
	if wJobs.Code != http.StatusOK {
		t.Fatalf("associated user should list jobs, got %d: %s", wJobs.Code, wJobs.Body.String())
	}

	// Manufacturer role cannot manage manufacturers
	wForbidden := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/manufacturers", map[string]interface{}{
		"code": "MFR-X", "name": "X",
	}, testutil.ManufacturerToken("user-a"))
	if wForbidden.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", wForbidden.Code)
	}
}

// TestLineItemAssignmentAdmin covers assigning order line items to manufacturers
func TestLineItemAssignmentAdmin(t *testing.T) {
	env := setupPortalTest(t)
	admin := testutil.AdminToken()

	testutil.SeedManufacturer(t, env.DB, "mfr-a", "MFR-A", "工厂A")
	testutil.SeedOrder(t, env.DB, "ord-001", "WO-2026-001")
	li := testutil.SeedLineItem(t, env.DB, "li-1", "ord-001", "Team Hoodie", 1)

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/order-line-items/"+li.ID+"/assignments",
		map[string]interface{}{"manufacturer_id": "mfr-a", "lead_time_days": 14}, admin)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	// Duplicate assignment is rejected
	w2 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/order-line-items/"+li.ID+"/assignments",
		map[string]interface{}{"manufacturer_id": "mfr-a"}, admin)
	if w2.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w2.Code, w2.Body.String())
	}

	wList := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/order-line-items/"+li.ID+"/assignments", nil, admin)
	if wList.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", wList.Code)
	}
	rows := testutil.ParseResponse(wList)["data"].([]interface{})
	if len(rows) != 1 {
		t.Fatalf("expected 1 assignment, got %d", len(rows))
	}

	// Assignment management is staff-only
	testutil.SeedAssociation(t, env.DB, "user-a", "mfr-a")
	w3 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/order-line-items/"+li.ID+"/assignments",
		map[string]interface{}{"manufacturer_id": "mfr-a"}, testutil.ManufacturerToken("user-a"))
	if w3.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w3.Code)
	}
}
