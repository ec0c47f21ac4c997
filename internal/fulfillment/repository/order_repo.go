package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/loom/internal/fulfillment/entity"
	"gorm.io/gorm"
)

// OrderRepository 订单仓库（生产侧只读）
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// FindByID 根据ID查找订单
func (r *OrderRepository) FindByID(ctx context.Context, id string) (*entity.Order, error) {
	var order entity.Order
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindLineItems 查询订单活行项（含变体和产品，供快照使用）
func (r *OrderRepository) FindLineItems(ctx context.Context, orderID string) ([]entity.OrderLineItem, error) {
	var items []entity.OrderLineItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Variant").
		Where("order_id = ?", orderID).
		Order("sort_order ASC").
		Find(&items).Error
	return items, err
}

// FindLineItemAssignments 查询行项的制造商分配
func (r *OrderRepository) FindLineItemAssignments(ctx context.Context, lineItemID string) ([]entity.OrderLineItemManufacturer, error) {
	var rows []entity.OrderLineItemManufacturer
	err := r.db.WithContext(ctx).
		Where("order_line_item_id = ?", lineItemID).
		Find(&rows).Error
	return rows, err
}

// AssignManufacturer 为行项分配制造商
func (r *OrderRepository) AssignManufacturer(ctx context.Context, row *entity.OrderLineItemManufacturer) error {
	return r.db.WithContext(ctx).Create(row).Error
}

// FindAssignedLineItemIDs 查询制造商名下的全部行项ID
func (r *OrderRepository) FindAssignedLineItemIDs(ctx context.Context, manufacturerID string) (map[string]bool, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&entity.OrderLineItemManufacturer{}).
		Where("manufacturer_id = ?", manufacturerID).
		Pluck("order_line_item_id", &ids).Error
	if err != nil {
		return nil, err
	}
	assigned := make(map[string]bool, len(ids))
	for _, id := range ids {
		assigned[id] = true
	}
	return assigned, nil
}

// IsLineItemAssignedTo 行项是否分配给该制造商
func (r *OrderRepository) IsLineItemAssignedTo(ctx context.Context, lineItemID, manufacturerID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.OrderLineItemManufacturer{}).
		Where("order_line_item_id = ? AND manufacturer_id = ?", lineItemID, manufacturerID).
		Count(&count).Error
	return count > 0, err
}
