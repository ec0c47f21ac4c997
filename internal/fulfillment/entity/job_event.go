package entity

import "time"

// ManufacturerEvent 作业审计事件（只追加，永不修改或删除）
type ManufacturerEvent struct {
	ID        string `json:"id" gorm:"primaryKey;size:32"`
	JobID     string `json:"job_id" gorm:"size:32;not null;index:idx_mfr_event_job"`
	EventType string `json:"event_type" gorm:"size:50;not null"`
	Title     string `json:"title" gorm:"size:200"`
	PrevValue string `json:"prev_value" gorm:"size:100"`
	NewValue  string `json:"new_value" gorm:"size:100"`
	Notes     string `json:"notes" gorm:"type:text"`
	Metadata  JSONB  `json:"metadata" gorm:"type:jsonb"`

	ActorID   string    `json:"actor_id" gorm:"size:32"`
	ActorName string    `json:"actor_name" gorm:"size:100"`
	CreatedAt time.Time `json:"created_at"`
}

func (ManufacturerEvent) TableName() string {
	return "manufacturer_events"
}

// 事件类型
const (
	EventTypeCreated        = "created"
	EventTypeStatusChange   = "status_change"
	EventTypeSpecUpdate     = "spec_update"
	EventTypeSampleApproved = "sample_approved"
	EventTypeSampleRevise   = "sample_revise"
	EventTypeIssueFlagged   = "issue_flagged"
	EventTypeShipment       = "shipment"
	EventTypeNote           = "note"
)
