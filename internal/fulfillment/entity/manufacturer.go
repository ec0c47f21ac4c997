package entity

import "time"

// Manufacturer 制造商组织
type Manufacturer struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Code      string    `json:"code" gorm:"size:32;uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"size:200;not null"`
	Status    string    `json:"status" gorm:"size:20;default:active"` // active/suspended
	Country   string    `json:"country" gorm:"size:50"`
	City      string    `json:"city" gorm:"size:50"`
	Contact   string    `json:"contact" gorm:"size:100"`
	Email     string    `json:"email" gorm:"size:200"`
	Phone     string    `json:"phone" gorm:"size:50"`
	Notes     string    `json:"notes" gorm:"type:text"`
	CreatedBy string    `json:"created_by" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Manufacturer) TableName() string {
	return "manufacturers"
}

// 制造商状态
const (
	ManufacturerStatusActive    = "active"
	ManufacturerStatusSuspended = "suspended"
)

// UserManufacturerAssociation 用户-制造商关联
// manufacturer角色用户没有关联时视为无任何访问权限（fail closed）
type UserManufacturerAssociation struct {
	ID             string    `json:"id" gorm:"primaryKey;size:32"`
	UserID         string    `json:"user_id" gorm:"size:32;not null;uniqueIndex:idx_uma_user_mfr"`
	ManufacturerID string    `json:"manufacturer_id" gorm:"size:32;not null;uniqueIndex:idx_uma_user_mfr;index"`
	CreatedBy      string    `json:"created_by" gorm:"size:32"`
	CreatedAt      time.Time `json:"created_at"`
}

func (UserManufacturerAssociation) TableName() string {
	return "user_manufacturer_associations"
}
