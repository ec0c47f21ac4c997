package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bitfantasy/loom/internal/fulfillment/entity"
	"github.com/bitfantasy/loom/internal/fulfillment/repository"
	"github.com/bitfantasy/loom/internal/fulfillment/testutil"
)

// TestExportJobs verifies scoping and the staff-only money column
func TestExportJobs(t *testing.T) {
	db := testutil.SetupTestDB(t)

	testutil.SeedManufacturer(t, db, "mfr-a", "MFR-A", "工厂A")
	testutil.SeedManufacturer(t, db, "mfr-b", "MFR-B", "工厂B")
	testutil.SeedOrder(t, db, "ord-a", "WO-A")
	testutil.SeedOrder(t, db, "ord-b", "WO-B")
	mfrA, mfrB := "mfr-a", "mfr-b"
	testutil.SeedRecord(t, db, "rec-a", "ord-a", &mfrA)
	testutil.SeedRecord(t, db, "rec-b", "ord-b", &mfrB)

	for _, seed := range []struct{ id, recordID, mfrID string }{
		{"job-a", "rec-a", "mfr-a"},
		{"job-b", "rec-b", "mfr-b"},
	} {
		job := &entity.ManufacturerJob{
			ID:             seed.id,
			RecordID:       seed.recordID,
			ManufacturerID: seed.mfrID,
			FunnelStatus:   entity.FunnelIntakePending,
			PublicStatus:   entity.PublicStatusAwaitingConfirmation,
		}
		if err := db.Create(job).Error; err != nil {
			t.Fatalf("seed job: %v", err)
		}
	}

	svc := NewExportService(repository.NewJobRepository(db))
	ctx := context.Background()

	// Staff export: both jobs, money column present
	f, filename, err := svc.ExportJobs(ctx, entity.Actor{UserID: "admin", Role: entity.RoleAdmin}, nil)
	if err != nil {
		t.Fatalf("staff export: %v", err)
	}
	defer f.Close()
	if filename != "manufacturer_jobs.xlsx" {
		t.Fatalf("unexpected filename %s", filename)
	}
	header, _ := f.GetCellValue("Jobs", "J1")
	if header != "订单金额" {
		t.Fatalf("expected money column header for staff, got %q", header)
	}
	rows, _ := f.GetRows("Jobs")
	if len(rows) != 3 { // header + 2 jobs
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	// Manufacturer export: own jobs only, no money column
	mf, _, err := svc.ExportJobs(ctx, entity.Actor{
		UserID: "user-a", Role: entity.RoleManufacturer, ManufacturerID: "mfr-a",
	}, nil)
	if err != nil {
		t.Fatalf("manufacturer export: %v", err)
	}
	defer mf.Close()
	mHeader, _ := mf.GetCellValue("Jobs", "J1")
	if mHeader != "" {
		t.Fatalf("manufacturer export must not have money column, got %q", mHeader)
	}
	mRows, _ := mf.GetRows("Jobs")
	if len(mRows) != 2 { // header + 1 scoped job
		t.Fatalf("expected 2 rows for scoped export, got %d", len(mRows))
	}

	// Manufacturer without association fails closed
	if _, _, err := svc.ExportJobs(ctx, entity.Actor{UserID: "user-x", Role: entity.RoleManufacturer}, nil); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
