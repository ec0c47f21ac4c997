package handler

import (
	"net/http"
	"testing"

	"github.com/bitfantasy/loom/internal/fulfillment/entity"
	"github.com/bitfantasy/loom/internal/fulfillment/testutil"
)

// TestCreateRecordUniquePerOrder verifies one manufacturing record per order
func TestCreateRecordUniquePerOrder(t *testing.T) {
	env := setupPortalTest(t)
	token := testutil.AdminToken()

	testutil.SeedOrder(t, env.DB, "ord-001", "WO-2026-001")

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/records",
		map[string]interface{}{"order_id": "ord-001"}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["status"] != entity.PublicStatusAwaitingConfirmation {
		t.Fatalf("expected awaiting_confirmation, got %v", data["status"])
	}
	if data["priority"] != "normal" {
		t.Fatalf("expected default priority normal, got %v", data["priority"])
	}

	// Second record for the same order is rejected
	w2 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/records",
		map[string]interface{}{"order_id": "ord-001"}, token)
	if w2.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w2.Code, w2.Body.String())
	}

	// Unknown order
	w3 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/records",
		map[string]interface{}{"order_id": "missing"}, token)
	if w3.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w3.Code)
	}
}

// TestCreateUpdateMaterializesSnapshot verifies each update freezes the line items
func TestCreateUpdateMaterializesSnapshot(t *testing.T) {
	env := setupPortalTest(t)
	token := testutil.AdminToken()

	testutil.SeedOrder(t, env.DB, "ord-001", "WO-2026-001")
	testutil.SeedLineItem(t, env.DB, "li-1", "ord-001", "Team Hoodie", 1)
	testutil.SeedLineItem(t, env.DB, "li-2", "ord-001", "Team Tee", 2)
	testutil.SeedRecord(t, env.DB, "rec-001", "ord-001", nil)

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/records/rec-001/updates",
		map[string]interface{}{"notes": "生产启动"}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})

	// Update freezes the record's public status at creation time
	if data["status"] != entity.PublicStatusAwaitingConfirmation {
		t.Fatalf("expected frozen status awaiting_confirmation, got %v", data["status"])
	}

	items := data["line_items"].([]interface{})
	if len(items) != 2 {
		t.Fatalf("expected 2 snapshot rows, got %d", len(items))
	}
	first := items[0].(map[string]interface{})
	if first["product_name"] != "Team Hoodie" {
		t.Fatalf("expected product name snapshot, got %v", first["product_name"])
	}
	if first["variant_color"] != "Navy" {
		t.Fatalf("expected variant color snapshot, got %v", first["variant_color"])
	}
	if first["qty_m"].(float64) != 20 {
		t.Fatalf("expected qty_m 20, got %v", first["qty_m"])
	}

	// A second update gets its own independent snapshot rows
	testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/records/rec-001/updates",
		map[string]interface{}{"notes": "第二次更新"}, token)
	var rows int64
	env.DB.Model(&entity.UpdateLineItem{}).Count(&rows)
	if rows != 4 {
		t.Fatalf("expected 4 snapshot rows total, got %d", rows)
	}
}

// TestRefreshPreservesWorkflowFields verifies refresh overwrites snapshot fields only
func TestRefreshPreservesWorkflowFields(t *testing.T) {
	env := setupPortalTest(t)
	token := testutil.AdminToken()

	testutil.SeedOrder(t, env.DB, "ord-001", "WO-2026-001")
	li := testutil.SeedLineItem(t, env.DB, "li-1", "ord-001", "Team Hoodie", 1)
	testutil.SeedRecord(t, env.DB, "rec-001", "ord-001", nil)

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/records/rec-001/updates",
		map[string]interface{}{}, token)
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	updateID := data["id"].(string)
	rowID := data["line_items"].([]interface{})[0].(map[string]interface{})["id"].(string)

	// Set workflow fields on the snapshot row
	cost := 7.5
	wEdit := testutil.DoRequest(env.Router, http.MethodPatch, "/api/v1/update-line-items/"+rowID,
		map[string]interface{}{"actual_cost": cost, "notes": "裁剪完成"}, token)
	if wEdit.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", wEdit.Code, wEdit.Body.String())
	}
	wDone := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/update-line-items/"+rowID+"/complete", nil, token)
	if wDone.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", wDone.Code, wDone.Body.String())
	}

	// Mutate the live order: rename product, change quantity, add a new line item
	env.DB.Model(&entity.Product{}).Where("id = ?", "prod-li-1").Update("name", "Team Hoodie V2")
	env.DB.Model(&entity.OrderLineItem{}).Where("id = ?", li.ID).Update("qty_m", 99)
	testutil.SeedLineItem(t, env.DB, "li-2", "ord-001", "Team Tee", 2)

	wRefresh := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/updates/"+updateID+"/refresh-line-items", nil, token)
	if wRefresh.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", wRefresh.Code, wRefresh.Body.String())
	}
	refreshData := testutil.ParseResponse(wRefresh)["data"].(map[string]interface{})
	if refreshData["updated"].(float64) != 1 || refreshData["created"].(float64) != 1 {
		t.Fatalf("expected updated=1 created=1, got %+v", refreshData)
	}

	// Snapshot fields follow the live order, workflow fields survive
	var row entity.UpdateLineItem
	env.DB.Where("id = ?", rowID).First(&row)
	if row.ProductName != "Team Hoodie V2" {
		t.Fatalf("expected refreshed product name, got %s", row.ProductName)
	}
	if row.QtyM != 99 {
		t.Fatalf("expected refreshed qty_m 99, got %d", row.QtyM)
	}
	if !row.ManufacturerCompleted || row.CompletedBy == nil {
		t.Fatal("refresh must not clear manufacturer_completed")
	}
	if row.ActualCost == nil || *row.ActualCost != 7.5 {
		t.Fatalf("refresh must not clear actual_cost, got %v", row.ActualCost)
	}
	if row.Notes != "裁剪完成" {
		t.Fatalf("refresh must not clear notes, got %s", row.Notes)
	}

	// Removing the live line item never deletes its snapshot row
	env.DB.Where("id = ?", "li-2").Delete(&entity.OrderLineItem{})
	wRefresh2 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/updates/"+updateID+"/refresh-line-items", nil, token)
	refreshData2 := testutil.ParseResponse(wRefresh2)["data"].(map[string]interface{})
	if refreshData2["created"].(float64) != 0 {
		t.Fatalf("expected no new rows, got %+v", refreshData2)
	}
	var rows int64
	env.DB.Model(&entity.UpdateLineItem{}).Where("update_id = ?", updateID).Count(&rows)
	if rows != 2 {
		t.Fatalf("snapshot rows must never be deleted, got %d", rows)
	}

	// Refresh is staff-only
	testutil.SeedManufacturer(t, env.DB, "mfr-a", "MFR-A", "工厂A")
	testutil.SeedAssociation(t, env.DB, "user-a", "mfr-a")
	wForbidden := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/updates/"+updateID+"/refresh-line-items", nil, testutil.ManufacturerToken("user-a"))
	if wForbidden.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for manufacturer refresh, got %d", wForbidden.Code)
	}
}

// TestLineItemWorkflowByManufacturer verifies assignment-based access on snapshot rows
func TestLineItemWorkflowByManufacturer(t *testing.T) {
	env := setupPortalTest(t)
	admin := testutil.AdminToken()

	testutil.SeedManufacturer(t, env.DB, "mfr-a", "MFR-A", "工厂A")
	testutil.SeedManufacturer(t, env.DB, "mfr-b", "MFR-B", "工厂B")
	testutil.SeedAssociation(t, env.DB, "user-a", "mfr-a")
	testutil.SeedAssociation(t, env.DB, "user-b", "mfr-b")

	testutil.SeedOrder(t, env.DB, "ord-001", "WO-2026-001")
	li := testutil.SeedLineItem(t, env.DB, "li-1", "ord-001", "Team Hoodie", 1)
	testutil.SeedAssignment(t, env.DB, li.ID, "mfr-a")
	testutil.SeedRecord(t, env.DB, "rec-001", "ord-001", nil)

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/records/rec-001/updates",
		map[string]interface{}{}, admin)
	rowID := testutil.ParseResponse(w)["data"].(map[string]interface{})["line_items"].([]interface{})[0].(map[string]interface{})["id"].(string)

	tokenA := testutil.ManufacturerToken("user-a")
	tokenB := testutil.ManufacturerToken("user-b")

	// Assigned manufacturer confirms sizes
	wConfirm := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/update-line-items/"+rowID+"/confirm-sizes", nil, tokenA)
	if wConfirm.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", wConfirm.Code, wConfirm.Body.String())
	}
	var row entity.UpdateLineItem
	env.DB.Where("id = ?", rowID).First(&row)
	if !row.SizesConfirmed || row.SizesConfirmedBy == nil || *row.SizesConfirmedBy != "user-a" {
		t.Fatalf("expected sizes confirmed by user-a, got %+v", row)
	}

	// Unassigned manufacturer is rejected on every row operation
	for _, req := range []struct{ method, path string }{
		{http.MethodPatch, "/api/v1/update-line-items/" + rowID},
		{http.MethodPost, "/api/v1/update-line-items/" + rowID + "/confirm-sizes"},
		{http.MethodPost, "/api/v1/update-line-items/" + rowID + "/complete"},
	} {
		var body interface{}
		if req.method == http.MethodPatch {
			body = map[string]interface{}{"notes": "x"}
		}
		w := testutil.DoRequest(env.Router, req.method, req.path, body, tokenB)
		if w.Code != http.StatusForbidden {
			t.Errorf("%s %s: expected 403, got %d", req.method, req.path, w.Code)
		}
	}

	// Manufacturer edit response is redacted (actual_cost written but not echoed)
	cost := 6.8
	wEdit := testutil.DoRequest(env.Router, http.MethodPatch, "/api/v1/update-line-items/"+rowID,
		map[string]interface{}{"actual_cost": cost}, tokenA)
	if wEdit.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", wEdit.Code, wEdit.Body.String())
	}
	editData := testutil.ParseResponse(wEdit)["data"].(map[string]interface{})
	assertNoFinancialFields(t, editData, "$")
	env.DB.Where("id = ?", rowID).First(&row)
	if row.ActualCost == nil || *row.ActualCost != 6.8 {
		t.Fatalf("actual_cost should be persisted, got %v", row.ActualCost)
	}
}

// TestRecordTenantIsolation verifies manufacturer users only reach their own records
func TestRecordTenantIsolation(t *testing.T) {
	env := setupPortalTest(t)
	admin := testutil.AdminToken()

	testutil.SeedManufacturer(t, env.DB, "mfr-a", "MFR-A", "工厂A")
	testutil.SeedManufacturer(t, env.DB, "mfr-b", "MFR-B", "工厂B")
	testutil.SeedAssociation(t, env.DB, "user-a", "mfr-a")

	testutil.SeedOrder(t, env.DB, "ord-a", "WO-A")
	testutil.SeedOrder(t, env.DB, "ord-b", "WO-B")
	liA := testutil.SeedLineItem(t, env.DB, "li-a1", "ord-a", "Team Hoodie", 1)
	testutil.SeedLineItem(t, env.DB, "li-a2", "ord-a", "Team Tee", 2)
	testutil.SeedAssignment(t, env.DB, liA.ID, "mfr-a")
	mfrA, mfrB := "mfr-a", "mfr-b"
	testutil.SeedRecord(t, env.DB, "rec-a", "ord-a", &mfrA)
	testutil.SeedRecord(t, env.DB, "rec-b", "ord-b", &mfrB)

	testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/records/rec-a/updates",
		map[string]interface{}{}, admin)
	testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/records/rec-b/updates",
		map[string]interface{}{}, admin)

	tokenA := testutil.ManufacturerToken("user-a")
	tokenNone := testutil.ManufacturerToken("user-none")

	// List is scoped server-side and the query param cannot widen it
	for _, path := range []string{"/api/v1/records", "/api/v1/records?manufacturer_id=mfr-b"} {
		w := testutil.DoRequest(env.Router, http.MethodGet, path, nil, tokenA)
		if w.Code != http.StatusOK {
			t.Fatalf("GET %s: expected 200, got %d: %s", path, w.Code, w.Body.String())
		}
		items := testutil.ParseResponse(w)["data"].(map[string]interface{})["items"].([]interface{})
		if len(items) != 1 {
			t.Fatalf("GET %s: expected 1 scoped record, got %d", path, len(items))
		}
		if items[0].(map[string]interface{})["id"] != "rec-a" {
			t.Fatalf("GET %s: list leaked a foreign record", path)
		}
	}

	// Own record is readable, a foreign record is forbidden
	if w := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/records/rec-a", nil, tokenA); w.Code != http.StatusOK {
		t.Fatalf("expected 200 for own record, got %d: %s", w.Code, w.Body.String())
	}
	for _, path := range []string{"/api/v1/records/rec-b", "/api/v1/records/rec-b/updates"} {
		w := testutil.DoRequest(env.Router, http.MethodGet, path, nil, tokenA)
		if w.Code != http.StatusForbidden {
			t.Errorf("GET %s: expected 403 for foreign record, got %d", path, w.Code)
		}
	}

	// Update history only exposes the caller's assigned line items
	wUpd := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/records/rec-a/updates", nil, tokenA)
	if wUpd.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", wUpd.Code, wUpd.Body.String())
	}
	updates := testutil.ParseResponse(wUpd)["data"].([]interface{})
	rows := updates[0].(map[string]interface{})["line_items"].([]interface{})
	if len(rows) != 1 {
		t.Fatalf("expected 1 assigned snapshot row, got %d", len(rows))
	}
	if rows[0].(map[string]interface{})["order_line_item_id"] != liA.ID {
		t.Fatal("update history leaked an unassigned line item")
	}

	// Intake writes are staff operations
	wCreate := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/records",
		map[string]interface{}{"order_id": "ord-a"}, tokenA)
	if wCreate.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for manufacturer record intake, got %d", wCreate.Code)
	}
	wUpdate := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/records/rec-a/updates",
		map[string]interface{}{}, tokenA)
	if wUpdate.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for manufacturer update intake, got %d", wUpdate.Code)
	}

	// No association fails closed on every records surface
	for _, path := range []string{"/api/v1/records", "/api/v1/records/rec-a", "/api/v1/records/rec-a/updates"} {
		w := testutil.DoRequest(env.Router, http.MethodGet, path, nil, tokenNone)
		if w.Code != http.StatusForbidden {
			t.Errorf("GET %s: expected 403 for unassociated user, got %d", path, w.Code)
		}
	}
}

// TestUploadMockupScopeBeforeStorage verifies row access is checked before any storage write
func TestUploadMockupScopeBeforeStorage(t *testing.T) {
	env := setupPortalTest(t)
	admin := testutil.AdminToken()

	testutil.SeedManufacturer(t, env.DB, "mfr-a", "MFR-A", "工厂A")
	testutil.SeedManufacturer(t, env.DB, "mfr-b", "MFR-B", "工厂B")
	testutil.SeedAssociation(t, env.DB, "user-b", "mfr-b")
	testutil.SeedOrder(t, env.DB, "ord-001", "WO-2026-001")
	li := testutil.SeedLineItem(t, env.DB, "li-1", "ord-001", "Team Hoodie", 1)
	testutil.SeedAssignment(t, env.DB, li.ID, "mfr-a")
	testutil.SeedRecord(t, env.DB, "rec-001", "ord-001", nil)

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/records/rec-001/updates",
		map[string]interface{}{}, admin)
	rowID := testutil.ParseResponse(w)["data"].(map[string]interface{})["line_items"].([]interface{})[0].(map[string]interface{})["id"].(string)

	// Unassigned manufacturer is rejected before the storage backend is consulted
	wForbidden := testutil.DoRequest(env.Router, http.MethodPost,
		"/api/v1/update-line-items/"+rowID+"/mockup", nil, testutil.ManufacturerToken("user-b"))
	if wForbidden.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", wForbidden.Code, wForbidden.Body.String())
	}

	// An authorized caller fails on the unconfigured store, not on access
	wNoStore := testutil.DoRequest(env.Router, http.MethodPost,
		"/api/v1/update-line-items/"+rowID+"/mockup", nil, admin)
	if wNoStore.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 without object storage, got %d: %s", wNoStore.Code, wNoStore.Body.String())
	}
}

// TestArchiveRecordStaffOnly verifies archive is a staff operation
func TestArchiveRecordStaffOnly(t *testing.T) {
	env := setupPortalTest(t)
	admin := testutil.AdminToken()

	testutil.SeedOrder(t, env.DB, "ord-001", "WO-2026-001")
	testutil.SeedRecord(t, env.DB, "rec-001", "ord-001", nil)
	testutil.SeedManufacturer(t, env.DB, "mfr-a", "MFR-A", "工厂A")
	testutil.SeedAssociation(t, env.DB, "user-a", "mfr-a")

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/records/rec-001/archive", nil, testutil.ManufacturerToken("user-a"))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}

	w2 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/records/rec-001/archive", nil, admin)
	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w2.Code, w2.Body.String())
	}
	var record entity.ManufacturingRecord
	env.DB.Where("id = ?", "rec-001").First(&record)
	if !record.Archived {
		t.Fatal("expected record archived")
	}
}
