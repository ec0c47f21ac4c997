package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bitfantasy/loom/internal/fulfillment/entity"
	"github.com/bitfantasy/loom/internal/fulfillment/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WorkflowService 作业状态机编排
// 漏斗状态的唯一写路径：校验流转 → 作业+父记录+审计事件在同一事务内落库
type WorkflowService struct {
	jobRepo    *repository.JobRepository
	recordRepo *repository.RecordRepository
	eventRepo  *repository.EventRepository
	mfrRepo    *repository.ManufacturerRepository
	scope      *ScopeService
	db         *gorm.DB
	logger     *zap.Logger
}

func NewWorkflowService(
	jobRepo *repository.JobRepository,
	recordRepo *repository.RecordRepository,
	eventRepo *repository.EventRepository,
	mfrRepo *repository.ManufacturerRepository,
	scope *ScopeService,
	db *gorm.DB,
	logger *zap.Logger,
) *WorkflowService {
	return &WorkflowService{
		jobRepo:    jobRepo,
		recordRepo: recordRepo,
		eventRepo:  eventRepo,
		mfrRepo:    mfrRepo,
		scope:      scope,
		db:         db,
		logger:     logger,
	}
}

// ListJobs 作业列表，manufacturer角色在查询层面锁定到自己的制造商
func (s *WorkflowService) ListJobs(ctx context.Context, actor entity.Actor, page, pageSize int, filters map[string]string) ([]entity.ManufacturerJob, int64, error) {
	scopeID := ""
	if !actor.IsStaff() {
		if actor.Role != entity.RoleManufacturer || actor.ManufacturerID == "" {
			return nil, 0, ErrForbidden
		}
		scopeID = actor.ManufacturerID
	}
	return s.jobRepo.FindAll(ctx, page, pageSize, scopeID, filters)
}

// GetJob 作业详情
func (s *WorkflowService) GetJob(ctx context.Context, actor entity.Actor, id string) (*entity.ManufacturerJob, error) {
	job, err := s.jobRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.scope.CanAccessJob(actor, job) {
		return nil, ErrForbidden
	}
	return job, nil
}

// CreateJobRequest 创建作业请求
type CreateJobRequest struct {
	RecordID       string     `json:"record_id" binding:"required"`
	ManufacturerID string     `json:"manufacturer_id"`
	PrintMethod    string     `json:"print_method"`
	SampleRequired *bool      `json:"sample_required"`
	SampleDeadline *time.Time `json:"sample_deadline"`
	Notes          string     `json:"notes"`
}

// CreateJob 从生产记录创建作业（每记录唯一）
func (s *WorkflowService) CreateJob(ctx context.Context, actor entity.Actor, req *CreateJobRequest) (*entity.ManufacturerJob, error) {
	record, err := s.recordRepo.FindByID(ctx, req.RecordID)
	if err != nil {
		return nil, err
	}

	// 唯一性：同一生产记录只允许一个作业
	if existing, err := s.jobRepo.FindByRecordID(ctx, req.RecordID); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: 该生产记录已有作业 %s", ErrConflict, existing.ID)
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	// 确定归属制造商：请求指定 > 记录已分配 > manufacturer角色取自身
	manufacturerID := req.ManufacturerID
	if manufacturerID == "" && record.ManufacturerID != nil {
		manufacturerID = *record.ManufacturerID
	}
	if actor.Role == entity.RoleManufacturer {
		if actor.ManufacturerID == "" {
			return nil, ErrForbidden
		}
		if manufacturerID == "" {
			manufacturerID = actor.ManufacturerID
		}
	}
	if manufacturerID == "" {
		return nil, fmt.Errorf("manufacturer_id不能为空")
	}

	// 跨制造商校验：记录已分配他家，或manufacturer角色试图建别家的作业
	if record.ManufacturerID != nil && *record.ManufacturerID != manufacturerID {
		return nil, ErrForbidden
	}
	if actor.Role == entity.RoleManufacturer && manufacturerID != actor.ManufacturerID {
		return nil, ErrForbidden
	}

	if _, err := s.mfrRepo.FindByID(ctx, manufacturerID); err != nil {
		return nil, fmt.Errorf("制造商不存在: %w", err)
	}

	job := &entity.ManufacturerJob{
		ID:             uuid.New().String()[:32],
		RecordID:       record.ID,
		ManufacturerID: manufacturerID,
		FunnelStatus:   entity.FunnelIntakePending,
		PublicStatus:   entity.PublicStatusFor(entity.FunnelIntakePending),
		PrintMethod:    req.PrintMethod,
		SampleRequired: true,
		SampleDeadline: req.SampleDeadline,
		CreatedBy:      actor.UserID,
		Notes:          req.Notes,
	}
	if req.SampleRequired != nil {
		job.SampleRequired = *req.SampleRequired
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(job).Error; err != nil {
			return err
		}
		// 记录还未绑定制造商时，作业创建即绑定
		if record.ManufacturerID == nil {
			if err := tx.Model(&entity.ManufacturingRecord{}).
				Where("id = ?", record.ID).
				Update("manufacturer_id", manufacturerID).Error; err != nil {
				return err
			}
		}
		event := &entity.ManufacturerEvent{
			ID:        uuid.New().String()[:32],
			JobID:     job.ID,
			EventType: entity.EventTypeCreated,
			Title:     "作业创建",
			NewValue:  entity.FunnelIntakePending,
			ActorID:   actor.UserID,
			ActorName: actor.Name,
		}
		return tx.Create(event).Error
	})
	if err != nil {
		return nil, fmt.Errorf("创建作业失败: %w", err)
	}

	s.logger.Info("manufacturer job created",
		zap.String("job_id", job.ID),
		zap.String("record_id", record.ID),
		zap.String("manufacturer_id", manufacturerID))

	return job, nil
}

// ChangeStatusRequest 状态流转请求
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

// ChangeStatus 漏斗状态流转
// 作业、父生产记录的公开状态、审计事件在同一事务内提交；
// 事务内对作业行加锁重读，并发请求串行化，后到者以已提交的最新状态校验
func (s *WorkflowService) ChangeStatus(ctx context.Context, actor entity.Actor, jobID string, req *ChangeStatusRequest) (*entity.ManufacturerJob, error) {
	job, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !s.scope.CanAccessJob(actor, job) {
		return nil, ErrForbidden
	}

	var updated *entity.ManufacturerJob
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var fresh entity.ManufacturerJob
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", jobID).First(&fresh).Error; err != nil {
			return err
		}

		if !entity.IsValidFunnelTransition(fresh.FunnelStatus, req.Status) {
			return &InvalidTransitionError{Current: fresh.FunnelStatus, Requested: req.Status}
		}

		// 幂等空操作：不落库不记事件
		if fresh.FunnelStatus == req.Status {
			updated = &fresh
			return nil
		}

		prev := fresh.FunnelStatus
		publicStatus := entity.PublicStatusFor(req.Status)

		fresh.FunnelStatus = req.Status
		fresh.PublicStatus = publicStatus
		switch req.Status {
		case entity.FunnelSpecsLocked:
			now := time.Now()
			fresh.SpecsLockedAt = &now
		case entity.FunnelHandedToCarrier:
			now := time.Now()
			fresh.ShippedAt = &now
		}
		if err := tx.Save(&fresh).Error; err != nil {
			return err
		}

		// 公开状态回写父生产记录
		if err := tx.Model(&entity.ManufacturingRecord{}).
			Where("id = ?", fresh.RecordID).
			Update("status", publicStatus).Error; err != nil {
			return err
		}

		// 关键节点用专有事件类型，时间线可直接筛选
		eventType := entity.EventTypeStatusChange
		switch req.Status {
		case entity.FunnelSamplesApproved:
			eventType = entity.EventTypeSampleApproved
		case entity.FunnelSamplesRevise:
			eventType = entity.EventTypeSampleRevise
		case entity.FunnelHandedToCarrier:
			eventType = entity.EventTypeShipment
		}

		event := &entity.ManufacturerEvent{
			ID:        uuid.New().String()[:32],
			JobID:     fresh.ID,
			EventType: eventType,
			Title:     fmt.Sprintf("状态变更: %s → %s", prev, req.Status),
			PrevValue: prev,
			NewValue:  req.Status,
			Notes:     req.Notes,
			ActorID:   actor.UserID,
			ActorName: actor.Name,
		}
		if err := tx.Create(event).Error; err != nil {
			return err
		}

		updated = &fresh
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("job status changed",
		zap.String("job_id", jobID),
		zap.String("status", updated.FunnelStatus),
		zap.String("public_status", updated.PublicStatus),
		zap.String("actor", actor.UserID))

	return s.jobRepo.FindByID(ctx, jobID)
}

// UpdateJobRequest 编辑作业规格字段（不含状态）
type UpdateJobRequest struct {
	PrintMethod      *string    `json:"print_method"`
	SampleRequired   *bool      `json:"sample_required"`
	SampleDeadline   *time.Time `json:"sample_deadline"`
	ExpectedShipDate *time.Time `json:"expected_ship_date"`
	Notes            *string    `json:"notes"`
}

// UpdateJob 编辑作业规格字段
func (s *WorkflowService) UpdateJob(ctx context.Context, actor entity.Actor, jobID string, req *UpdateJobRequest) (*entity.ManufacturerJob, error) {
	job, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !s.scope.CanAccessJob(actor, job) {
		return nil, ErrForbidden
	}

	if req.PrintMethod != nil {
		job.PrintMethod = *req.PrintMethod
	}
	if req.SampleRequired != nil {
		job.SampleRequired = *req.SampleRequired
	}
	if req.SampleDeadline != nil {
		job.SampleDeadline = req.SampleDeadline
	}
	if req.ExpectedShipDate != nil {
		job.ExpectedShipDate = req.ExpectedShipDate
	}
	if req.Notes != nil {
		job.Notes = *req.Notes
	}

	if err := s.jobRepo.Update(ctx, job); err != nil {
		return nil, fmt.Errorf("更新作业失败: %w", err)
	}

	s.eventRepo.LogEvent(ctx, job.ID, entity.EventTypeSpecUpdate, "规格字段更新", "", "", actor.UserID, actor.Name)

	return job, nil
}

// AppendEventRequest 追加审计事件请求
type AppendEventRequest struct {
	EventType string `json:"event_type" binding:"required"`
	Title     string `json:"title" binding:"required"`
	Notes     string `json:"notes"`
}

// AppendEvent 追加审计事件
func (s *WorkflowService) AppendEvent(ctx context.Context, actor entity.Actor, jobID string, req *AppendEventRequest) (*entity.ManufacturerEvent, error) {
	job, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !s.scope.CanAccessJob(actor, job) {
		return nil, ErrForbidden
	}

	event := &entity.ManufacturerEvent{
		ID:        uuid.New().String()[:32],
		JobID:     job.ID,
		EventType: req.EventType,
		Title:     req.Title,
		Notes:     req.Notes,
		ActorID:   actor.UserID,
		ActorName: actor.Name,
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("追加事件失败: %w", err)
	}
	return event, nil
}

// ListEvents 作业事件列表
func (s *WorkflowService) ListEvents(ctx context.Context, actor entity.Actor, jobID string, page, pageSize int) ([]entity.ManufacturerEvent, int64, error) {
	job, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		return nil, 0, err
	}
	if !s.scope.CanAccessJob(actor, job) {
		return nil, 0, ErrForbidden
	}
	return s.eventRepo.FindByJobID(ctx, jobID, page, pageSize)
}

// SyncJobsResult 批量补建结果
type SyncJobsResult struct {
	Created int      `json:"created"`
	JobIDs  []string `json:"job_ids"`
}

// SyncJobs 为已分配制造商但缺作业的生产记录批量补建作业（admin/ops）
func (s *WorkflowService) SyncJobs(ctx context.Context, actor entity.Actor) (*SyncJobsResult, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}

	records, err := s.recordRepo.FindWithoutJob(ctx)
	if err != nil {
		return nil, fmt.Errorf("查询缺作业记录失败: %w", err)
	}

	result := &SyncJobsResult{JobIDs: []string{}}
	for _, record := range records {
		job, err := s.CreateJob(ctx, actor, &CreateJobRequest{
			RecordID:       record.ID,
			ManufacturerID: *record.ManufacturerID,
		})
		if err != nil {
			s.logger.Warn("sync-jobs: create job failed",
				zap.String("record_id", record.ID), zap.Error(err))
			continue
		}
		result.Created++
		result.JobIDs = append(result.JobIDs, job.ID)
	}
	return result, nil
}
