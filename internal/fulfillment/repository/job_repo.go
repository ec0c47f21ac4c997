package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/loom/internal/fulfillment/entity"
	"gorm.io/gorm"
)

// JobRepository 制造商作业仓库
type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// FindAll 查询作业列表
// manufacturerID非空时在查询层面过滤（租户隔离不依赖客户端参数）；
// 未锁定租户时才采用客户端的manufacturer_id筛选
func (r *JobRepository) FindAll(ctx context.Context, page, pageSize int, manufacturerID string, filters map[string]string) ([]entity.ManufacturerJob, int64, error) {
	var items []entity.ManufacturerJob
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.ManufacturerJob{})

	if manufacturerID != "" {
		query = query.Where("manufacturer_id = ?", manufacturerID)
	} else if mfrFilter := filters["manufacturer_id"]; mfrFilter != "" {
		query = query.Where("manufacturer_id = ?", mfrFilter)
	}
	if status := filters["funnel_status"]; status != "" {
		query = query.Where("funnel_status = ?", status)
	}
	if publicStatus := filters["public_status"]; publicStatus != "" {
		query = query.Where("public_status = ?", publicStatus)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Record").
		Preload("Record.Order").
		Preload("Manufacturer").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindByID 根据ID查找作业
func (r *JobRepository) FindByID(ctx context.Context, id string) (*entity.ManufacturerJob, error) {
	var job entity.ManufacturerJob
	err := r.db.WithContext(ctx).
		Preload("Record").
		Preload("Record.Order").
		Preload("Manufacturer").
		Where("id = ?", id).
		First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

// FindByRecordID 根据生产记录ID查找作业（唯一性检查用）
func (r *JobRepository) FindByRecordID(ctx context.Context, recordID string) (*entity.ManufacturerJob, error) {
	var job entity.ManufacturerJob
	err := r.db.WithContext(ctx).Where("record_id = ?", recordID).First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

// Create 创建作业
func (r *JobRepository) Create(ctx context.Context, job *entity.ManufacturerJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// Update 更新作业
func (r *JobRepository) Update(ctx context.Context, job *entity.ManufacturerJob) error {
	return r.db.WithContext(ctx).Save(job).Error
}
