package service

import (
	"context"
	"fmt"

	"github.com/bitfantasy/loom/internal/fulfillment/entity"
	"github.com/bitfantasy/loom/internal/fulfillment/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ManufacturerService 制造商、用户关联与行项分配管理（admin/ops）
type ManufacturerService struct {
	mfrRepo   *repository.ManufacturerRepository
	orderRepo *repository.OrderRepository
	scope     *ScopeService
	logger    *zap.Logger
}

func NewManufacturerService(mfrRepo *repository.ManufacturerRepository, orderRepo *repository.OrderRepository, scope *ScopeService, logger *zap.Logger) *ManufacturerService {
	return &ManufacturerService{mfrRepo: mfrRepo, orderRepo: orderRepo, scope: scope, logger: logger}
}

// ListManufacturers 制造商列表
func (s *ManufacturerService) ListManufacturers(ctx context.Context, actor entity.Actor, page, pageSize int, filters map[string]string) ([]entity.Manufacturer, int64, error) {
	if !actor.IsStaff() {
		return nil, 0, ErrForbidden
	}
	return s.mfrRepo.FindAll(ctx, page, pageSize, filters)
}

// GetManufacturer 制造商详情
// manufacturer角色只能查看自己所属的制造商
func (s *ManufacturerService) GetManufacturer(ctx context.Context, actor entity.Actor, id string) (*entity.Manufacturer, error) {
	if !actor.IsStaff() {
		if actor.Role != entity.RoleManufacturer || actor.ManufacturerID != id {
			return nil, ErrForbidden
		}
	}
	return s.mfrRepo.FindByID(ctx, id)
}

// CreateManufacturerRequest 创建制造商请求
type CreateManufacturerRequest struct {
	Code    string `json:"code" binding:"required"`
	Name    string `json:"name" binding:"required"`
	Country string `json:"country"`
	City    string `json:"city"`
	Contact string `json:"contact"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Notes   string `json:"notes"`
}

// CreateManufacturer 创建制造商
func (s *ManufacturerService) CreateManufacturer(ctx context.Context, actor entity.Actor, req *CreateManufacturerRequest) (*entity.Manufacturer, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}

	m := &entity.Manufacturer{
		ID:        uuid.New().String()[:32],
		Code:      req.Code,
		Name:      req.Name,
		Status:    entity.ManufacturerStatusActive,
		Country:   req.Country,
		City:      req.City,
		Contact:   req.Contact,
		Email:     req.Email,
		Phone:     req.Phone,
		Notes:     req.Notes,
		CreatedBy: actor.UserID,
	}
	if err := s.mfrRepo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("创建制造商失败: %w", err)
	}
	return m, nil
}

// CreateAssociationRequest 创建用户-制造商关联请求
type CreateAssociationRequest struct {
	UserID         string `json:"user_id" binding:"required"`
	ManufacturerID string `json:"manufacturer_id" binding:"required"`
}

// CreateAssociation 建立用户-制造商关联并失效范围缓存
func (s *ManufacturerService) CreateAssociation(ctx context.Context, actor entity.Actor, req *CreateAssociationRequest) (*entity.UserManufacturerAssociation, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}

	if _, err := s.mfrRepo.FindByID(ctx, req.ManufacturerID); err != nil {
		return nil, err
	}

	assoc := &entity.UserManufacturerAssociation{
		ID:             uuid.New().String()[:32],
		UserID:         req.UserID,
		ManufacturerID: req.ManufacturerID,
		CreatedBy:      actor.UserID,
	}
	if err := s.mfrRepo.CreateAssociation(ctx, assoc); err != nil {
		return nil, fmt.Errorf("创建关联失败: %w", err)
	}

	s.scope.InvalidateScope(ctx, req.UserID)
	s.logger.Info("manufacturer association created",
		zap.String("user_id", req.UserID),
		zap.String("manufacturer_id", req.ManufacturerID))

	return assoc, nil
}

// DeleteAssociation 删除用户-制造商关联并失效范围缓存
func (s *ManufacturerService) DeleteAssociation(ctx context.Context, actor entity.Actor, userID, manufacturerID string) error {
	if !actor.IsStaff() {
		return ErrForbidden
	}
	if err := s.mfrRepo.DeleteAssociation(ctx, userID, manufacturerID); err != nil {
		return fmt.Errorf("删除关联失败: %w", err)
	}
	s.scope.InvalidateScope(ctx, userID)
	return nil
}

// AssignLineItemRequest 行项分配请求
type AssignLineItemRequest struct {
	ManufacturerID string   `json:"manufacturer_id" binding:"required"`
	LeadTimeDays   *int     `json:"lead_time_days"`
	UnitCost       *float64 `json:"unit_cost"`
}

// AssignLineItem 把订单行项分配给制造商（行项级访问控制的依据）
func (s *ManufacturerService) AssignLineItem(ctx context.Context, actor entity.Actor, lineItemID string, req *AssignLineItemRequest) (*entity.OrderLineItemManufacturer, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}

	if _, err := s.mfrRepo.FindByID(ctx, req.ManufacturerID); err != nil {
		return nil, err
	}

	assigned, err := s.orderRepo.IsLineItemAssignedTo(ctx, lineItemID, req.ManufacturerID)
	if err != nil {
		return nil, err
	}
	if assigned {
		return nil, fmt.Errorf("%w: 行项已分配给该制造商", ErrConflict)
	}

	row := &entity.OrderLineItemManufacturer{
		ID:              uuid.New().String()[:32],
		OrderLineItemID: lineItemID,
		ManufacturerID:  req.ManufacturerID,
		LeadTimeDays:    req.LeadTimeDays,
		UnitCost:        req.UnitCost,
		AssignedBy:      actor.UserID,
	}
	if err := s.orderRepo.AssignManufacturer(ctx, row); err != nil {
		return nil, fmt.Errorf("分配行项失败: %w", err)
	}

	s.logger.Info("line item assigned",
		zap.String("line_item_id", lineItemID),
		zap.String("manufacturer_id", req.ManufacturerID))

	return row, nil
}

// ListLineItemAssignments 行项的制造商分配列表
func (s *ManufacturerService) ListLineItemAssignments(ctx context.Context, actor entity.Actor, lineItemID string) ([]entity.OrderLineItemManufacturer, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}
	return s.orderRepo.FindLineItemAssignments(ctx, lineItemID)
}
