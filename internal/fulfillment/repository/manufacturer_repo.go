package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/loom/internal/fulfillment/entity"
	"gorm.io/gorm"
)

// ManufacturerRepository 制造商与用户关联仓库
type ManufacturerRepository struct {
	db *gorm.DB
}

func NewManufacturerRepository(db *gorm.DB) *ManufacturerRepository {
	return &ManufacturerRepository{db: db}
}

// FindAll 查询制造商列表
func (r *ManufacturerRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Manufacturer, int64, error) {
	var items []entity.Manufacturer
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Manufacturer{})

	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if search := filters["search"]; search != "" {
		query = query.Where("name ILIKE ? OR code ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindByID 根据ID查找制造商
func (r *ManufacturerRepository) FindByID(ctx context.Context, id string) (*entity.Manufacturer, error) {
	var m entity.Manufacturer
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// Create 创建制造商
func (r *ManufacturerRepository) Create(ctx context.Context, m *entity.Manufacturer) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// FindAssociationByUserID 查找用户的制造商关联
func (r *ManufacturerRepository) FindAssociationByUserID(ctx context.Context, userID string) (*entity.UserManufacturerAssociation, error) {
	var assoc entity.UserManufacturerAssociation
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&assoc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &assoc, nil
}

// CreateAssociation 创建用户-制造商关联
func (r *ManufacturerRepository) CreateAssociation(ctx context.Context, assoc *entity.UserManufacturerAssociation) error {
	return r.db.WithContext(ctx).Create(assoc).Error
}

// DeleteAssociation 删除用户-制造商关联
func (r *ManufacturerRepository) DeleteAssociation(ctx context.Context, userID, manufacturerID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND manufacturer_id = ?", userID, manufacturerID).
		Delete(&entity.UserManufacturerAssociation{}).Error
}
