package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/loom/internal/fulfillment/entity"
	"gorm.io/gorm"
)

// UpdateRepository 生产更新与快照行项仓库
type UpdateRepository struct {
	db *gorm.DB
}

func NewUpdateRepository(db *gorm.DB) *UpdateRepository {
	return &UpdateRepository{db: db}
}

// FindByID 根据ID查找更新（含快照行项）
func (r *UpdateRepository) FindByID(ctx context.Context, id string) (*entity.ManufacturingUpdate, error) {
	var update entity.ManufacturingUpdate
	err := r.db.WithContext(ctx).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ?", id).
		First(&update).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &update, nil
}

// FindByRecordID 查询生产记录的全部更新（时间倒序）
func (r *UpdateRepository) FindByRecordID(ctx context.Context, recordID string) ([]entity.ManufacturingUpdate, error) {
	var updates []entity.ManufacturingUpdate
	err := r.db.WithContext(ctx).
		Preload("LineItems").
		Where("record_id = ?", recordID).
		Order("created_at DESC").
		Find(&updates).Error
	return updates, err
}

// Create 创建更新
func (r *UpdateRepository) Create(ctx context.Context, update *entity.ManufacturingUpdate) error {
	return r.db.WithContext(ctx).Create(update).Error
}

// CountSnapshotRows 更新下已有的快照行数（幂等检查用）
func (r *UpdateRepository) CountSnapshotRows(ctx context.Context, updateID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.UpdateLineItem{}).
		Where("update_id = ?", updateID).
		Count(&count).Error
	return count, err
}

// FindSnapshotRows 查询更新的快照行
func (r *UpdateRepository) FindSnapshotRows(ctx context.Context, updateID string) ([]entity.UpdateLineItem, error) {
	var rows []entity.UpdateLineItem
	err := r.db.WithContext(ctx).
		Where("update_id = ?", updateID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// FindSnapshotRow 根据ID查找快照行
func (r *UpdateRepository) FindSnapshotRow(ctx context.Context, id string) (*entity.UpdateLineItem, error) {
	var row entity.UpdateLineItem
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

// UpdateSnapshotRow 保存快照行
func (r *UpdateRepository) UpdateSnapshotRow(ctx context.Context, row *entity.UpdateLineItem) error {
	return r.db.WithContext(ctx).Save(row).Error
}
