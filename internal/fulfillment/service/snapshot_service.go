package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bitfantasy/loom/internal/fulfillment/entity"
	"github.com/bitfantasy/loom/internal/fulfillment/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SnapshotService 快照引擎
// 更新创建时把订单活行项物化为不可变快照；refresh只覆盖快照字段，
// 工作流字段（成本、确认/完成标记）永不被refresh触碰，快照行只增不删
type SnapshotService struct {
	updateRepo *repository.UpdateRepository
	orderRepo  *repository.OrderRepository
	recordRepo *repository.RecordRepository
	scope      *ScopeService
	db         *gorm.DB
	logger     *zap.Logger
}

func NewSnapshotService(
	updateRepo *repository.UpdateRepository,
	orderRepo *repository.OrderRepository,
	recordRepo *repository.RecordRepository,
	scope *ScopeService,
	db *gorm.DB,
	logger *zap.Logger,
) *SnapshotService {
	return &SnapshotService{
		updateRepo: updateRepo,
		orderRepo:  orderRepo,
		recordRepo: recordRepo,
		scope:      scope,
		db:         db,
		logger:     logger,
	}
}

// CreateSnapshot 为更新物化快照行（按更新ID幂等，已有快照行时为空操作）
func (s *SnapshotService) CreateSnapshot(ctx context.Context, updateID, orderID string) ([]entity.UpdateLineItem, error) {
	count, err := s.updateRepo.CountSnapshotRows(ctx, updateID)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return s.updateRepo.FindSnapshotRows(ctx, updateID)
	}

	liveItems, err := s.orderRepo.FindLineItems(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("查询订单行项失败: %w", err)
	}

	var rows []entity.UpdateLineItem
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range liveItems {
			row := entity.UpdateLineItem{
				ID:              uuid.New().String()[:32],
				UpdateID:        updateID,
				OrderLineItemID: liveItems[i].ID,
			}
			row.CopySnapshotFields(&liveItems[i])
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			rows = append(rows, row)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("创建快照失败: %w", err)
	}

	s.logger.Info("snapshot created",
		zap.String("update_id", updateID),
		zap.Int("rows", len(rows)))

	return rows, nil
}

// RefreshResult 快照刷新结果
type RefreshResult struct {
	Updated int `json:"updated"`
	Created int `json:"created"`
}

// RefreshSnapshot 从活订单重新同步快照字段（admin/ops）
// 已有快照行只覆盖快照字段；新增行项补建快照行；订单中已删除的行项保留在快照里
func (s *SnapshotService) RefreshSnapshot(ctx context.Context, actor entity.Actor, updateID string) (*RefreshResult, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}

	update, err := s.updateRepo.FindByID(ctx, updateID)
	if err != nil {
		return nil, err
	}
	record, err := s.recordRepo.FindByID(ctx, update.RecordID)
	if err != nil {
		return nil, err
	}

	liveItems, err := s.orderRepo.FindLineItems(ctx, record.OrderID)
	if err != nil {
		return nil, fmt.Errorf("查询订单行项失败: %w", err)
	}

	existing := make(map[string]*entity.UpdateLineItem, len(update.LineItems))
	for i := range update.LineItems {
		existing[update.LineItems[i].OrderLineItemID] = &update.LineItems[i]
	}

	result := &RefreshResult{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range liveItems {
			if row, ok := existing[liveItems[i].ID]; ok {
				row.CopySnapshotFields(&liveItems[i])
				if err := tx.Save(row).Error; err != nil {
					return err
				}
				result.Updated++
				continue
			}
			row := entity.UpdateLineItem{
				ID:              uuid.New().String()[:32],
				UpdateID:        updateID,
				OrderLineItemID: liveItems[i].ID,
			}
			row.CopySnapshotFields(&liveItems[i])
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			result.Created++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("刷新快照失败: %w", err)
	}

	s.logger.Info("snapshot refreshed",
		zap.String("update_id", updateID),
		zap.Int("updated", result.Updated),
		zap.Int("created", result.Created),
		zap.String("actor", actor.UserID))

	return result, nil
}

// GetSnapshotRow 查询快照行（带租户访问校验）
func (s *SnapshotService) GetSnapshotRow(ctx context.Context, actor entity.Actor, lineItemID string) (*entity.UpdateLineItem, error) {
	row, err := s.updateRepo.FindSnapshotRow(ctx, lineItemID)
	if err != nil {
		return nil, err
	}
	ok, err := s.scope.CanAccessLineItem(ctx, actor, row.OrderLineItemID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}
	return row, nil
}

// UpdateWorkflowFieldsRequest 编辑快照行工作流字段
type UpdateWorkflowFieldsRequest struct {
	MockupURL  *string            `json:"mockup_url"`
	ActualCost *float64           `json:"actual_cost"`
	Notes      *string            `json:"notes"`
	Tags       *entity.JSONBArray `json:"tags"`
}

// UpdateWorkflowFields 编辑快照行的工作流字段（快照字段不可改）
func (s *SnapshotService) UpdateWorkflowFields(ctx context.Context, actor entity.Actor, lineItemID string, req *UpdateWorkflowFieldsRequest) (*entity.UpdateLineItem, error) {
	row, err := s.updateRepo.FindSnapshotRow(ctx, lineItemID)
	if err != nil {
		return nil, err
	}

	ok, err := s.scope.CanAccessLineItem(ctx, actor, row.OrderLineItemID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}

	if req.MockupURL != nil {
		row.MockupURL = *req.MockupURL
	}
	if req.ActualCost != nil {
		row.ActualCost = req.ActualCost
	}
	if req.Notes != nil {
		row.Notes = *req.Notes
	}
	if req.Tags != nil {
		row.Tags = req.Tags
	}

	if err := s.updateRepo.UpdateSnapshotRow(ctx, row); err != nil {
		return nil, fmt.Errorf("更新行项失败: %w", err)
	}
	return row, nil
}

// ConfirmSizes 确认尺码（记录操作者与时间）
func (s *SnapshotService) ConfirmSizes(ctx context.Context, actor entity.Actor, lineItemID string) (*entity.UpdateLineItem, error) {
	row, err := s.updateRepo.FindSnapshotRow(ctx, lineItemID)
	if err != nil {
		return nil, err
	}

	ok, err := s.scope.CanAccessLineItem(ctx, actor, row.OrderLineItemID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}

	now := time.Now()
	row.SizesConfirmed = true
	row.SizesConfirmedBy = &actor.UserID
	row.SizesConfirmedAt = &now

	if err := s.updateRepo.UpdateSnapshotRow(ctx, row); err != nil {
		return nil, fmt.Errorf("确认尺码失败: %w", err)
	}
	return row, nil
}

// MarkCompleted 制造商标记完成（记录操作者与时间）
func (s *SnapshotService) MarkCompleted(ctx context.Context, actor entity.Actor, lineItemID string) (*entity.UpdateLineItem, error) {
	row, err := s.updateRepo.FindSnapshotRow(ctx, lineItemID)
	if err != nil {
		return nil, err
	}

	ok, err := s.scope.CanAccessLineItem(ctx, actor, row.OrderLineItemID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}

	now := time.Now()
	row.ManufacturerCompleted = true
	row.CompletedBy = &actor.UserID
	row.CompletedAt = &now

	if err := s.updateRepo.UpdateSnapshotRow(ctx, row); err != nil {
		return nil, fmt.Errorf("标记完成失败: %w", err)
	}
	return row, nil
}
