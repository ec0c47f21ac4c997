package service

import (
	"context"
	"errors"
	"time"

	"github.com/bitfantasy/loom/internal/fulfillment/entity"
	"github.com/bitfantasy/loom/internal/fulfillment/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	scopeCacheKeyPrefix = "loom:scope:user:"
	scopeCacheTTL       = 10 * time.Minute
	scopeCacheNone      = "-" // 缓存"无关联"，避免反复查库
)

// ScopeService 租户隔离：解析用户所属制造商并校验访问范围
type ScopeService struct {
	mfrRepo   *repository.ManufacturerRepository
	orderRepo *repository.OrderRepository
	rdb       *redis.Client // 可为nil，降级为直查库
	logger    *zap.Logger
}

func NewScopeService(mfrRepo *repository.ManufacturerRepository, orderRepo *repository.OrderRepository, rdb *redis.Client, logger *zap.Logger) *ScopeService {
	return &ScopeService{
		mfrRepo:   mfrRepo,
		orderRepo: orderRepo,
		rdb:       rdb,
		logger:    logger,
	}
}

// ResolveManufacturerID 解析用户的制造商ID，无关联返回空串
func (s *ScopeService) ResolveManufacturerID(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", nil
	}

	// 先查Redis缓存
	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, scopeCacheKeyPrefix+userID).Result()
		if err == nil {
			if cached == scopeCacheNone {
				return "", nil
			}
			return cached, nil
		}
	}

	assoc, err := s.mfrRepo.FindAssociationByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.cacheScope(ctx, userID, scopeCacheNone)
			return "", nil
		}
		return "", err
	}

	s.cacheScope(ctx, userID, assoc.ManufacturerID)
	return assoc.ManufacturerID, nil
}

func (s *ScopeService) cacheScope(ctx context.Context, userID, value string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Set(ctx, scopeCacheKeyPrefix+userID, value, scopeCacheTTL).Err(); err != nil {
		s.logger.Warn("scope cache set failed", zap.String("user_id", userID), zap.Error(err))
	}
}

// InvalidateScope 关联变更后失效缓存
func (s *ScopeService) InvalidateScope(ctx context.Context, userID string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, scopeCacheKeyPrefix+userID).Err(); err != nil {
		s.logger.Warn("scope cache del failed", zap.String("user_id", userID), zap.Error(err))
	}
}

// CanAccessJob 作业访问校验
// admin/ops无条件放行；manufacturer角色仅当作业属于其制造商时放行，无关联一律拒绝
func (s *ScopeService) CanAccessJob(actor entity.Actor, job *entity.ManufacturerJob) bool {
	if actor.IsStaff() {
		return true
	}
	if actor.Role != entity.RoleManufacturer {
		return false
	}
	if actor.ManufacturerID == "" {
		return false
	}
	return job.ManufacturerID == actor.ManufacturerID
}

// CanAccessRecord 生产记录访问校验
// manufacturer角色仅当记录已分配给其制造商时放行，未分配或无关联一律拒绝
func (s *ScopeService) CanAccessRecord(actor entity.Actor, record *entity.ManufacturingRecord) bool {
	if actor.IsStaff() {
		return true
	}
	if actor.Role != entity.RoleManufacturer {
		return false
	}
	if actor.ManufacturerID == "" {
		return false
	}
	return record.ManufacturerID != nil && *record.ManufacturerID == actor.ManufacturerID
}

// CanAccessLineItem 快照行访问校验（按行项的制造商分配判定）
func (s *ScopeService) CanAccessLineItem(ctx context.Context, actor entity.Actor, orderLineItemID string) (bool, error) {
	if actor.IsStaff() {
		return true, nil
	}
	if actor.Role != entity.RoleManufacturer || actor.ManufacturerID == "" {
		return false, nil
	}
	return s.orderRepo.IsLineItemAssignedTo(ctx, orderLineItemID, actor.ManufacturerID)
}
