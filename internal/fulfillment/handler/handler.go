package handler

import (
	"errors"
	"strconv"

	"github.com/bitfantasy/loom/internal/fulfillment/entity"
	"github.com/bitfantasy/loom/internal/fulfillment/repository"
	"github.com/bitfantasy/loom/internal/fulfillment/service"
	"github.com/bitfantasy/loom/internal/shared/storage"
	"github.com/gin-gonic/gin"
)

// Handlers 处理器集合
type Handlers struct {
	Config       *ConfigHandler
	Job          *JobHandler
	Record       *RecordHandler
	Manufacturer *ManufacturerHandler
	Export       *ExportHandler
	Upload       *UploadHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services, store *storage.Client) *Handlers {
	return &Handlers{
		Config:       NewConfigHandler(),
		Job:          NewJobHandler(svc.Workflow, svc.Scope),
		Record:       NewRecordHandler(svc.Production, svc.Snapshot, svc.Scope),
		Manufacturer: NewManufacturerHandler(svc.Manufacturer, svc.Scope),
		Export:       NewExportHandler(svc.Export, svc.Scope),
		Upload:       NewUploadHandler(store, svc.Snapshot, svc.Scope),
	}
}

// === 响应辅助函数 ===

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// RedactedSuccess 按角色过滤金额字段后的成功响应
// manufacturer角色可触达的端点一律走这里，保证过滤跑在每条响应路径上
func RedactedSuccess(c *gin.Context, actor entity.Actor, data interface{}) {
	Success(c, Redact(data, actor.Role))
}

// RedactedCreated 按角色过滤金额字段后的创建响应
func RedactedCreated(c *gin.Context, actor entity.Actor, data interface{}) {
	Created(c, Redact(data, actor.Role))
}

func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// HandleServiceError 服务层错误映射到HTTP错误
func HandleServiceError(c *gin.Context, err error, notFoundMsg string) {
	var invalidTransition *service.InvalidTransitionError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, notFoundMsg)
	case errors.Is(err, service.ErrForbidden):
		Forbidden(c, "无权访问该资源")
	case errors.Is(err, service.ErrConflict):
		Conflict(c, err.Error())
	case errors.As(err, &invalidTransition):
		BadRequest(c, invalidTransition.Error())
	default:
		InternalError(c, err.Error())
	}
}

func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetActor 从JWT上下文解析操作者，manufacturer角色附带制造商归属
func GetActor(c *gin.Context, scope *service.ScopeService) entity.Actor {
	actor := entity.Actor{
		UserID: GetUserID(c),
		Name:   c.GetString("user_name"),
	}

	rolesVal, _ := c.Get("roles")
	roles, _ := rolesVal.([]string)
	for _, r := range roles {
		switch r {
		case entity.RoleAdmin:
			actor.Role = entity.RoleAdmin
		case entity.RoleOps:
			if actor.Role != entity.RoleAdmin {
				actor.Role = entity.RoleOps
			}
		case entity.RoleManufacturer:
			if actor.Role == "" {
				actor.Role = entity.RoleManufacturer
			}
		}
	}

	if actor.Role == entity.RoleManufacturer {
		mfrID, err := scope.ResolveManufacturerID(c.Request.Context(), actor.UserID)
		if err == nil {
			actor.ManufacturerID = mfrID
		}
	}

	return actor
}

func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}

func totalPages(total int64, pageSize int) int {
	pages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		pages++
	}
	return pages
}
