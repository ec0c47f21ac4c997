package service

import (
	"errors"
	"fmt"

	"github.com/bitfantasy/loom/internal/fulfillment/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 服务层错误，handler映射到HTTP错误码
var (
	ErrForbidden = errors.New("forbidden")
	ErrConflict  = errors.New("conflict")
)

// InvalidTransitionError 非法状态流转，携带当前/请求状态供客户端展示
type InvalidTransitionError struct {
	Current   string
	Requested string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("不允许从 %s 流转到 %s", e.Current, e.Requested)
}

// Services 服务集合
type Services struct {
	Scope        *ScopeService
	Workflow     *WorkflowService
	Snapshot     *SnapshotService
	Production   *ProductionService
	Manufacturer *ManufacturerService
	Export       *ExportService
}

// NewServices 创建服务集合
func NewServices(repos *repository.Repositories, db *gorm.DB, rdb *redis.Client, logger *zap.Logger) *Services {
	scope := NewScopeService(repos.Manufacturer, repos.Order, rdb, logger)
	snapshot := NewSnapshotService(repos.Update, repos.Order, repos.Record, scope, db, logger)
	workflow := NewWorkflowService(repos.Job, repos.Record, repos.Event, repos.Manufacturer, scope, db, logger)
	production := NewProductionService(repos.Record, repos.Order, repos.Update, snapshot, scope, logger)
	manufacturer := NewManufacturerService(repos.Manufacturer, repos.Order, scope, logger)
	export := NewExportService(repos.Job)

	return &Services{
		Scope:        scope,
		Workflow:     workflow,
		Snapshot:     snapshot,
		Production:   production,
		Manufacturer: manufacturer,
		Export:       export,
	}
}
