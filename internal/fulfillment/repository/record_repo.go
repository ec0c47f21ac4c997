package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/loom/internal/fulfillment/entity"
	"gorm.io/gorm"
)

// RecordRepository 生产记录仓库
type RecordRepository struct {
	db *gorm.DB
}

func NewRecordRepository(db *gorm.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// FindAll 查询生产记录列表
func (r *RecordRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.ManufacturingRecord, int64, error) {
	var items []entity.ManufacturingRecord
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.ManufacturingRecord{})

	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if manufacturerID := filters["manufacturer_id"]; manufacturerID != "" {
		query = query.Where("manufacturer_id = ?", manufacturerID)
	}
	if priority := filters["priority"]; priority != "" {
		query = query.Where("priority = ?", priority)
	}
	if filters["archived"] != "true" {
		query = query.Where("archived = false")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Order").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindByID 根据ID查找生产记录
func (r *RecordRepository) FindByID(ctx context.Context, id string) (*entity.ManufacturingRecord, error) {
	var record entity.ManufacturingRecord
	err := r.db.WithContext(ctx).
		Preload("Order").
		Where("id = ?", id).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindByOrderID 根据订单ID查找生产记录
func (r *RecordRepository) FindByOrderID(ctx context.Context, orderID string) (*entity.ManufacturingRecord, error) {
	var record entity.ManufacturingRecord
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// Create 创建生产记录
func (r *RecordRepository) Create(ctx context.Context, record *entity.ManufacturingRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// Update 更新生产记录
func (r *RecordRepository) Update(ctx context.Context, record *entity.ManufacturingRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

// FindWithoutJob 查询还没有作业的生产记录（sync-jobs用）
func (r *RecordRepository) FindWithoutJob(ctx context.Context) ([]entity.ManufacturingRecord, error) {
	var records []entity.ManufacturingRecord
	err := r.db.WithContext(ctx).
		Where("archived = false").
		Where("manufacturer_id IS NOT NULL").
		Where("id NOT IN (?)", r.db.Model(&entity.ManufacturerJob{}).Select("record_id")).
		Find(&records).Error
	return records, err
}
