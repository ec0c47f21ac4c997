package repository

import (
	"context"

	"github.com/bitfantasy/loom/internal/fulfillment/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventRepository 作业审计事件仓库（只追加）
type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create 追加事件
func (r *EventRepository) Create(ctx context.Context, event *entity.ManufacturerEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()[:32]
	}
	return r.db.WithContext(ctx).Create(event).Error
}

// FindByJobID 查询作业的事件（时间倒序）
func (r *EventRepository) FindByJobID(ctx context.Context, jobID string, page, pageSize int) ([]entity.ManufacturerEvent, int64, error) {
	var items []entity.ManufacturerEvent
	var total int64

	query := r.db.WithContext(ctx).
		Model(&entity.ManufacturerEvent{}).
		Where("job_id = ?", jobID)

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

// LogEvent 便捷追加事件，忽略错误（审计写入不阻断主流程）
func (r *EventRepository) LogEvent(ctx context.Context, jobID, eventType, title, prevValue, newValue, actorID, actorName string) {
	event := &entity.ManufacturerEvent{
		ID:        uuid.New().String()[:32],
		JobID:     jobID,
		EventType: eventType,
		Title:     title,
		PrevValue: prevValue,
		NewValue:  newValue,
		ActorID:   actorID,
		ActorName: actorName,
	}
	r.db.WithContext(ctx).Create(event)
}
