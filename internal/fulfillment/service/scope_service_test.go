package service

import (
	"testing"

	"github.com/bitfantasy/loom/internal/fulfillment/entity"
)

// TestCanAccessJob covers the role matrix and the fail-closed default
func TestCanAccessJob(t *testing.T) {
	s := &ScopeService{}
	job := &entity.ManufacturerJob{ID: "job-1", ManufacturerID: "mfr-a"}

	cases := []struct {
		name  string
		actor entity.Actor
		want  bool
	}{
		{"admin", entity.Actor{UserID: "u1", Role: entity.RoleAdmin}, true},
		{"ops", entity.Actor{UserID: "u2", Role: entity.RoleOps}, true},
		{"own manufacturer", entity.Actor{UserID: "u3", Role: entity.RoleManufacturer, ManufacturerID: "mfr-a"}, true},
		{"other manufacturer", entity.Actor{UserID: "u4", Role: entity.RoleManufacturer, ManufacturerID: "mfr-b"}, false},
		{"manufacturer without association", entity.Actor{UserID: "u5", Role: entity.RoleManufacturer}, false},
		{"unknown role", entity.Actor{UserID: "u6", Role: "customer"}, false},
		{"empty role", entity.Actor{UserID: "u7"}, false},
	}

	for _, tc := range cases {
		if got := s.CanAccessJob(tc.actor, job); got != tc.want {
			t.Errorf("%s: CanAccessJob = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestActorIsStaff(t *testing.T) {
	if !(entity.Actor{Role: entity.RoleAdmin}).IsStaff() {
		t.Error("admin should be staff")
	}
	if !(entity.Actor{Role: entity.RoleOps}).IsStaff() {
		t.Error("ops should be staff")
	}
	if (entity.Actor{Role: entity.RoleManufacturer}).IsStaff() {
		t.Error("manufacturer should not be staff")
	}
	if (entity.Actor{}).IsStaff() {
		t.Error("empty role should not be staff")
	}
}
