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
)

// ProductionService 生产记录与更新服务
type ProductionService struct {
	recordRepo *repository.RecordRepository
	orderRepo  *repository.OrderRepository
	updateRepo *repository.UpdateRepository
	snapshot   *SnapshotService
	scope      *ScopeService
	logger     *zap.Logger
}

func NewProductionService(
	recordRepo *repository.RecordRepository,
	orderRepo *repository.OrderRepository,
	updateRepo *repository.UpdateRepository,
	snapshot *SnapshotService,
	scope *ScopeService,
	logger *zap.Logger,
) *ProductionService {
	return &ProductionService{
		recordRepo: recordRepo,
		orderRepo:  orderRepo,
		updateRepo: updateRepo,
		snapshot:   snapshot,
		scope:      scope,
		logger:     logger,
	}
}

// ListRecords 生产记录列表，manufacturer角色在查询层面锁定到自己的制造商
func (s *ProductionService) ListRecords(ctx context.Context, actor entity.Actor, page, pageSize int, filters map[string]string) ([]entity.ManufacturingRecord, int64, error) {
	if !actor.IsStaff() {
		if actor.Role != entity.RoleManufacturer || actor.ManufacturerID == "" {
			return nil, 0, ErrForbidden
		}
		filters["manufacturer_id"] = actor.ManufacturerID
	}
	return s.recordRepo.FindAll(ctx, page, pageSize, filters)
}

// GetRecord 生产记录详情
func (s *ProductionService) GetRecord(ctx context.Context, actor entity.Actor, id string) (*entity.ManufacturingRecord, error) {
	record, err := s.recordRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.scope.CanAccessRecord(actor, record) {
		return nil, ErrForbidden
	}
	return record, nil
}

// CreateRecordRequest 创建生产记录请求
type CreateRecordRequest struct {
	OrderID        string  `json:"order_id" binding:"required"`
	ManufacturerID *string `json:"manufacturer_id"`
	Priority       string  `json:"priority"`
	Notes          string  `json:"notes"`
}

// CreateRecord 订单进入生产时创建生产记录（每订单唯一，admin/ops）
func (s *ProductionService) CreateRecord(ctx context.Context, actor entity.Actor, req *CreateRecordRequest) (*entity.ManufacturingRecord, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}
	if _, err := s.orderRepo.FindByID(ctx, req.OrderID); err != nil {
		return nil, err
	}

	if existing, err := s.recordRepo.FindByOrderID(ctx, req.OrderID); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: 该订单已有生产记录 %s", ErrConflict, existing.ID)
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	record := &entity.ManufacturingRecord{
		ID:             uuid.New().String()[:32],
		OrderID:        req.OrderID,
		Status:         entity.PublicStatusAwaitingConfirmation,
		ManufacturerID: req.ManufacturerID,
		Priority:       req.Priority,
		CreatedBy:      actor.UserID,
		Notes:          req.Notes,
	}
	if record.Priority == "" {
		record.Priority = "normal"
	}

	if err := s.recordRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("创建生产记录失败: %w", err)
	}
	return record, nil
}

// ArchiveRecord 归档生产记录（软删除）
func (s *ProductionService) ArchiveRecord(ctx context.Context, actor entity.Actor, id string) (*entity.ManufacturingRecord, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}
	record, err := s.recordRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	record.Archived = true
	if err := s.recordRepo.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("归档失败: %w", err)
	}
	return record, nil
}

// CreateUpdateRequest 创建生产更新请求
type CreateUpdateRequest struct {
	Notes             string     `json:"notes"`
	TrackingNumber    string     `json:"tracking_number"`
	EstimatedShipDate *time.Time `json:"estimated_ship_date"`
}

// CreateUpdate 追加生产更新并物化快照（admin/ops）
// 更新冻结当时的公开状态与行项数据，历史不随活订单漂移
func (s *ProductionService) CreateUpdate(ctx context.Context, actor entity.Actor, recordID string, req *CreateUpdateRequest) (*entity.ManufacturingUpdate, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}
	record, err := s.recordRepo.FindByID(ctx, recordID)
	if err != nil {
		return nil, err
	}

	update := &entity.ManufacturingUpdate{
		ID:                uuid.New().String()[:32],
		RecordID:          record.ID,
		Status:            record.Status,
		Notes:             req.Notes,
		TrackingNumber:    req.TrackingNumber,
		EstimatedShipDate: req.EstimatedShipDate,
		CreatedBy:         actor.UserID,
	}

	if err := s.updateRepo.Create(ctx, update); err != nil {
		return nil, fmt.Errorf("创建生产更新失败: %w", err)
	}

	rows, err := s.snapshot.CreateSnapshot(ctx, update.ID, record.OrderID)
	if err != nil {
		return nil, err
	}
	update.LineItems = rows

	return update, nil
}

// ListUpdates 生产记录的更新历史
// manufacturer角色只能看自己记录的更新，且快照行过滤到分配给其制造商的行项
func (s *ProductionService) ListUpdates(ctx context.Context, actor entity.Actor, recordID string) ([]entity.ManufacturingUpdate, error) {
	record, err := s.recordRepo.FindByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if !s.scope.CanAccessRecord(actor, record) {
		return nil, ErrForbidden
	}

	updates, err := s.updateRepo.FindByRecordID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if actor.IsStaff() {
		return updates, nil
	}

	assigned, err := s.orderRepo.FindAssignedLineItemIDs(ctx, actor.ManufacturerID)
	if err != nil {
		return nil, err
	}
	for i := range updates {
		rows := updates[i].LineItems[:0]
		for _, row := range updates[i].LineItems {
			if assigned[row.OrderLineItemID] {
				rows = append(rows, row)
			}
		}
		updates[i].LineItems = rows
	}
	return updates, nil
}
