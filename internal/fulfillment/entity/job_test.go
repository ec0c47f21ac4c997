package entity

import "testing"

// TestFunnelTransitionChain walks the main production path end to end
func TestFunnelTransitionChain(t *testing.T) {
	chain := []string{
		FunnelIntakePending,
		FunnelSpecsLockReview,
		FunnelSpecsLocked,
		FunnelMaterialsReserved,
		FunnelSamplesInProgress,
		FunnelSamplesAwaitingApproval,
		FunnelSamplesApproved,
		FunnelBulkCutting,
		FunnelBulkPrintEmbSublim,
		FunnelBulkStitching,
		FunnelBulkQC,
		FunnelPackingComplete,
		FunnelHandedToCarrier,
		FunnelDeliveredConfirmed,
	}

	for i := 0; i < len(chain)-1; i++ {
		if !IsValidFunnelTransition(chain[i], chain[i+1]) {
			t.Errorf("expected %s -> %s to be valid", chain[i], chain[i+1])
		}
	}

	// Skipping a step is never allowed
	for i := 0; i < len(chain)-2; i++ {
		if IsValidFunnelTransition(chain[i], chain[i+2]) {
			t.Errorf("expected %s -> %s to be invalid (skips a step)", chain[i], chain[i+2])
		}
	}

	// Backward moves on the main chain are not allowed
	for i := 1; i < len(chain); i++ {
		if IsValidFunnelTransition(chain[i], chain[i-1]) {
			t.Errorf("expected %s -> %s to be invalid (backward)", chain[i], chain[i-1])
		}
	}
}

// TestFunnelSampleBranch covers the approval/revise fork and the revise loop
func TestFunnelSampleBranch(t *testing.T) {
	if !IsValidFunnelTransition(FunnelSamplesAwaitingApproval, FunnelSamplesApproved) {
		t.Error("awaiting approval should allow approved")
	}
	if !IsValidFunnelTransition(FunnelSamplesAwaitingApproval, FunnelSamplesRevise) {
		t.Error("awaiting approval should allow revise")
	}
	// Revise loops back into sample production
	if !IsValidFunnelTransition(FunnelSamplesRevise, FunnelSamplesInProgress) {
		t.Error("revise should loop back to samples in progress")
	}
	// Revise never proceeds directly to bulk
	if IsValidFunnelTransition(FunnelSamplesRevise, FunnelBulkCutting) {
		t.Error("revise must not jump to bulk cutting")
	}
}

// TestFunnelIdempotentSelfTransition verifies same-state requests are allowed for every state
func TestFunnelIdempotentSelfTransition(t *testing.T) {
	for state := range ValidJobTransitions {
		if !IsValidFunnelTransition(state, state) {
			t.Errorf("self transition should be valid for %s", state)
		}
	}
}

// TestFunnelTerminalState verifies delivered_confirmed has no outgoing transitions
func TestFunnelTerminalState(t *testing.T) {
	if len(ValidJobTransitions[FunnelDeliveredConfirmed]) != 0 {
		t.Error("delivered_confirmed should be terminal")
	}
	for state := range ValidJobTransitions {
		if state == FunnelDeliveredConfirmed {
			continue
		}
		if IsValidFunnelTransition(FunnelDeliveredConfirmed, state) {
			t.Errorf("terminal state should not transition to %s", state)
		}
	}
}

// TestFunnelUnknownStates verifies unknown states are rejected in both positions
func TestFunnelUnknownStates(t *testing.T) {
	if IsValidFunnelTransition("bogus", FunnelSpecsLocked) {
		t.Error("unknown current state should be invalid")
	}
	if IsValidFunnelTransition(FunnelIntakePending, "bogus") {
		t.Error("unknown requested state should be invalid")
	}
	if IsValidFunnelTransition("bogus", "bogus") {
		t.Error("unknown self transition should be invalid")
	}
}

// TestPublicStatusMapping verifies every funnel state maps to a known public status
func TestPublicStatusMapping(t *testing.T) {
	known := make(map[string]bool, len(PublicStatuses))
	for _, s := range PublicStatuses {
		known[s] = true
	}

	if len(FunnelStates) != len(ValidJobTransitions) {
		t.Fatalf("catalog and transition table out of sync: %d vs %d",
			len(FunnelStates), len(ValidJobTransitions))
	}

	for _, state := range FunnelStates {
		public := PublicStatusFor(state.Status)
		if public == "" {
			t.Errorf("no public status for %s", state.Status)
		}
		if !known[public] {
			t.Errorf("%s maps to unknown public status %s", state.Status, public)
		}
	}

	// Spot-check boundary mappings
	cases := map[string]string{
		FunnelIntakePending:      PublicStatusAwaitingConfirmation,
		FunnelSamplesRevise:      PublicStatusConfirmed,
		FunnelBulkStitching:      PublicStatusCuttingSewing,
		FunnelBulkPrintEmbSublim: PublicStatusPrinting,
		FunnelBulkQC:             PublicStatusFinalPacking,
		FunnelHandedToCarrier:    PublicStatusShipped,
		FunnelDeliveredConfirmed: PublicStatusCompleted,
	}
	for funnel, want := range cases {
		if got := PublicStatusFor(funnel); got != want {
			t.Errorf("PublicStatusFor(%s) = %s, want %s", funnel, got, want)
		}
	}

	if PublicStatusFor("bogus") != "" {
		t.Error("unknown funnel status should map to empty string")
	}
}

// TestCopySnapshotFields verifies snapshot copy and the image fallback to variant
func TestCopySnapshotFields(t *testing.T) {
	price := 18.0
	li := &OrderLineItem{
		ID:        "li-1",
		QtyS:      10,
		QtyM:      20,
		Qty4XL:    3,
		UnitPrice: &price,
		Product:   &Product{Name: "Team Hoodie"},
		Variant:   &ProductVariant{Code: "HD-NVY", Color: "Navy", ImageURL: "variant.png"},
	}

	var row UpdateLineItem
	row.ActualCost = &price
	row.ManufacturerCompleted = true
	row.CopySnapshotFields(li)

	if row.ProductName != "Team Hoodie" || row.VariantCode != "HD-NVY" || row.VariantColor != "Navy" {
		t.Errorf("snapshot fields not copied: %+v", row)
	}
	if row.QtyS != 10 || row.QtyM != 20 || row.Qty4XL != 3 {
		t.Errorf("quantities not copied: %+v", row)
	}
	// Line item has no image: falls back to variant image
	if row.ImageURL != "variant.png" {
		t.Errorf("expected variant image fallback, got %q", row.ImageURL)
	}
	// Workflow fields untouched by the copy
	if row.ActualCost == nil || !row.ManufacturerCompleted {
		t.Error("copy must not touch workflow fields")
	}

	// Line item image wins when present
	li.ImageURL = "item.png"
	row.CopySnapshotFields(li)
	if row.ImageURL != "item.png" {
		t.Errorf("expected line item image to win, got %q", row.ImageURL)
	}
}
