package entity

import "time"

// Order 批发订单（生产侧只读视图，订单CRUD由外围系统维护）
type Order struct {
	ID           string     `json:"id" gorm:"primaryKey;size:32"`
	OrderNumber  string     `json:"order_number" gorm:"size:32;uniqueIndex;not null"`
	CustomerName string     `json:"customer_name" gorm:"size:200"`
	Status       string     `json:"status" gorm:"size:20;default:pending"`
	Subtotal     *float64   `json:"subtotal" gorm:"type:decimal(15,2)"`
	Tax          *float64   `json:"tax" gorm:"type:decimal(15,2)"`
	Discount     *float64   `json:"discount" gorm:"type:decimal(15,2)"`
	Total        *float64   `json:"total" gorm:"type:decimal(15,2)"`
	AmountPaid   *float64   `json:"amount_paid" gorm:"type:decimal(15,2)"`
	InvoiceURL   string     `json:"invoice_url" gorm:"size:512"`
	DueDate      *time.Time `json:"due_date"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// 关联
	LineItems []OrderLineItem `json:"line_items,omitempty" gorm:"foreignKey:OrderID"`
}

func (Order) TableName() string {
	return "orders"
}

// Product 产品
type Product struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Name      string    `json:"name" gorm:"size:200;not null"`
	SKU       string    `json:"sku" gorm:"size:50"`
	BasePrice *float64  `json:"base_price" gorm:"type:decimal(12,2)"`
	MSRP      *float64  `json:"msrp" gorm:"type:decimal(12,2)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

// ProductVariant 产品变体（颜色/款式）
type ProductVariant struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	ProductID string    `json:"product_id" gorm:"size:32;not null;index"`
	Code      string    `json:"code" gorm:"size:50"`
	Color     string    `json:"color" gorm:"size:50"`
	ImageURL  string    `json:"image_url" gorm:"size:512"`
	Cost      *float64  `json:"cost" gorm:"type:decimal(12,2)"`
	CreatedAt time.Time `json:"created_at"`

	// 关联
	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

func (ProductVariant) TableName() string {
	return "product_variants"
}

// OrderLineItem 订单行项（活数据，快照来源）
// 12个尺码桶：青少年XS-XL + 成人XS-4XL
type OrderLineItem struct {
	ID        string  `json:"id" gorm:"primaryKey;size:32"`
	OrderID   string  `json:"order_id" gorm:"size:32;not null;index"`
	ProductID *string `json:"product_id" gorm:"size:32"`
	VariantID *string `json:"variant_id" gorm:"size:32"`
	ImageURL  string  `json:"image_url" gorm:"size:512"`

	// 尺码数量
	QtyYXS  int `json:"qty_yxs" gorm:"default:0"`
	QtyYS   int `json:"qty_ys" gorm:"default:0"`
	QtyYM   int `json:"qty_ym" gorm:"default:0"`
	QtyYL   int `json:"qty_yl" gorm:"default:0"`
	QtyXS   int `json:"qty_xs" gorm:"default:0"`
	QtyS    int `json:"qty_s" gorm:"default:0"`
	QtyM    int `json:"qty_m" gorm:"default:0"`
	QtyL    int `json:"qty_l" gorm:"default:0"`
	QtyXL   int `json:"qty_xl" gorm:"default:0"`
	Qty2XL  int `json:"qty_2xl" gorm:"default:0"`
	Qty3XL  int `json:"qty_3xl" gorm:"default:0"`
	Qty4XL  int `json:"qty_4xl" gorm:"default:0"`

	UnitPrice *float64 `json:"unit_price" gorm:"type:decimal(12,2)"`
	LineTotal *float64 `json:"line_total" gorm:"type:decimal(15,2)"`

	SortOrder int       `json:"sort_order" gorm:"default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 关联
	Product *Product        `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Variant *ProductVariant `json:"variant,omitempty" gorm:"foreignKey:VariantID"`
}

func (OrderLineItem) TableName() string {
	return "order_line_items"
}

// TotalQty 全部尺码数量合计
func (li *OrderLineItem) TotalQty() int {
	return li.QtyYXS + li.QtyYS + li.QtyYM + li.QtyYL +
		li.QtyXS + li.QtyS + li.QtyM + li.QtyL +
		li.QtyXL + li.Qty2XL + li.Qty3XL + li.Qty4XL
}

// OrderLineItemManufacturer 行项-制造商分配（租户隔离的依据）
type OrderLineItemManufacturer struct {
	ID              string    `json:"id" gorm:"primaryKey;size:32"`
	OrderLineItemID string    `json:"order_line_item_id" gorm:"size:32;not null;index:idx_olim_item"`
	ManufacturerID  string    `json:"manufacturer_id" gorm:"size:32;not null;index:idx_olim_mfr"`
	LeadTimeDays    *int      `json:"lead_time_days"`
	UnitCost        *float64  `json:"unit_cost" gorm:"type:decimal(12,4)"`
	AssignedBy      string    `json:"assigned_by" gorm:"size:32"`
	CreatedAt       time.Time `json:"created_at"`
}

func (OrderLineItemManufacturer) TableName() string {
	return "order_line_item_manufacturers"
}
