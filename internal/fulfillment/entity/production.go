package entity

import "time"

// ManufacturingRecord 生产记录（与订单1:1），status为客户可见状态
type ManufacturingRecord struct {
	ID             string  `json:"id" gorm:"primaryKey;size:32"`
	OrderID        string  `json:"order_id" gorm:"size:32;uniqueIndex;not null"`
	Status         string  `json:"status" gorm:"size:30;default:awaiting_confirmation"`
	ManufacturerID *string `json:"manufacturer_id" gorm:"size:32;index"`
	Priority       string  `json:"priority" gorm:"size:20;default:normal"` // urgent/high/normal/low
	Archived       bool    `json:"archived" gorm:"default:false"`

	CreatedBy string    `json:"created_by" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Notes     string    `json:"notes" gorm:"type:text"`

	// 关联
	Order   *Order                `json:"order,omitempty" gorm:"foreignKey:OrderID"`
	Updates []ManufacturingUpdate `json:"updates,omitempty" gorm:"foreignKey:RecordID"`
}

func (ManufacturingRecord) TableName() string {
	return "manufacturing_records"
}

// 客户可见状态（公开状态）
const (
	PublicStatusAwaitingConfirmation = "awaiting_confirmation"
	PublicStatusConfirmed            = "confirmed"
	PublicStatusCuttingSewing        = "cutting_sewing"
	PublicStatusPrinting             = "printing"
	PublicStatusFinalPacking         = "final_packing"
	PublicStatusShipped              = "shipped"
	PublicStatusCompleted            = "completed"
)

// PublicStatuses 公开状态有序列表
var PublicStatuses = []string{
	PublicStatusAwaitingConfirmation,
	PublicStatusConfirmed,
	PublicStatusCuttingSewing,
	PublicStatusPrinting,
	PublicStatusFinalPacking,
	PublicStatusShipped,
	PublicStatusCompleted,
}

// ManufacturingUpdate 生产更新（追加写入，状态历史不可改写）
type ManufacturingUpdate struct {
	ID                string     `json:"id" gorm:"primaryKey;size:32"`
	RecordID          string     `json:"record_id" gorm:"size:32;not null;index"`
	Status            string     `json:"status" gorm:"size:30;not null"` // 当时的公开状态
	Notes             string     `json:"notes" gorm:"type:text"`
	TrackingNumber    string     `json:"tracking_number" gorm:"size:100"`
	EstimatedShipDate *time.Time `json:"estimated_ship_date"`
	CreatedBy         string     `json:"created_by" gorm:"size:32"`
	CreatedAt         time.Time  `json:"created_at"`

	// 关联
	LineItems []UpdateLineItem `json:"line_items,omitempty" gorm:"foreignKey:UpdateID"`
}

func (ManufacturingUpdate) TableName() string {
	return "manufacturing_updates"
}

// UpdateLineItem 更新行项快照
// 快照字段在创建时写入一次；refresh只覆盖快照字段，工作流字段永不被refresh触碰
type UpdateLineItem struct {
	ID              string `json:"id" gorm:"primaryKey;size:32"`
	UpdateID        string `json:"update_id" gorm:"size:32;not null;index:idx_uli_update"`
	OrderLineItemID string `json:"order_line_item_id" gorm:"size:32;not null;index:idx_uli_item"`

	// 快照字段
	ProductName  string `json:"product_name" gorm:"size:200"`
	VariantCode  string `json:"variant_code" gorm:"size:50"`
	VariantColor string `json:"variant_color" gorm:"size:50"`
	ImageURL     string `json:"image_url" gorm:"size:512"`

	QtyYXS int `json:"qty_yxs" gorm:"default:0"`
	QtyYS  int `json:"qty_ys" gorm:"default:0"`
	QtyYM  int `json:"qty_ym" gorm:"default:0"`
	QtyYL  int `json:"qty_yl" gorm:"default:0"`
	QtyXS  int `json:"qty_xs" gorm:"default:0"`
	QtyS   int `json:"qty_s" gorm:"default:0"`
	QtyM   int `json:"qty_m" gorm:"default:0"`
	QtyL   int `json:"qty_l" gorm:"default:0"`
	QtyXL  int `json:"qty_xl" gorm:"default:0"`
	Qty2XL int `json:"qty_2xl" gorm:"default:0"`
	Qty3XL int `json:"qty_3xl" gorm:"default:0"`
	Qty4XL int `json:"qty_4xl" gorm:"default:0"`

	// 工作流字段（属于快照行本身，不回写订单）
	MockupURL             string      `json:"mockup_url" gorm:"size:512"`
	ActualCost            *float64    `json:"actual_cost" gorm:"type:decimal(12,2)"`
	SizesConfirmed        bool        `json:"sizes_confirmed" gorm:"default:false"`
	SizesConfirmedBy      *string     `json:"sizes_confirmed_by" gorm:"size:32"`
	SizesConfirmedAt      *time.Time  `json:"sizes_confirmed_at"`
	ManufacturerCompleted bool        `json:"manufacturer_completed" gorm:"default:false"`
	CompletedBy           *string     `json:"completed_by" gorm:"size:32"`
	CompletedAt           *time.Time  `json:"completed_at"`
	Notes                 string      `json:"notes" gorm:"type:text"`
	Tags                  *JSONBArray `json:"tags" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (UpdateLineItem) TableName() string {
	return "manufacturing_update_line_items"
}

// CopySnapshotFields 把活行项的快照字段写入本行（工作流字段不动）
func (s *UpdateLineItem) CopySnapshotFields(li *OrderLineItem) {
	if li.Product != nil {
		s.ProductName = li.Product.Name
	}
	if li.Variant != nil {
		s.VariantCode = li.Variant.Code
		s.VariantColor = li.Variant.Color
	}
	// 图片回退：行项图 → 变体图
	s.ImageURL = li.ImageURL
	if s.ImageURL == "" && li.Variant != nil {
		s.ImageURL = li.Variant.ImageURL
	}
	s.QtyYXS = li.QtyYXS
	s.QtyYS = li.QtyYS
	s.QtyYM = li.QtyYM
	s.QtyYL = li.QtyYL
	s.QtyXS = li.QtyXS
	s.QtyS = li.QtyS
	s.QtyM = li.QtyM
	s.QtyL = li.QtyL
	s.QtyXL = li.QtyXL
	s.Qty2XL = li.Qty2XL
	s.Qty3XL = li.Qty3XL
	s.Qty4XL = li.Qty4XL
}
