package handler

import (
	"github.com/bitfantasy/loom/internal/fulfillment/service"
	"github.com/gin-gonic/gin"
)

// RecordHandler 生产记录、更新与快照行接口
type RecordHandler struct {
	production *service.ProductionService
	snapshot   *service.SnapshotService
	scope      *service.ScopeService
}

func NewRecordHandler(production *service.ProductionService, snapshot *service.SnapshotService, scope *service.ScopeService) *RecordHandler {
	return &RecordHandler{production: production, snapshot: snapshot, scope: scope}
}

// ListRecords 生产记录列表（manufacturer角色锁定到自己的制造商）
// GET /api/v1/records
func (h *RecordHandler) ListRecords(c *gin.Context) {
	actor := GetActor(c, h.scope)
	page, pageSize := GetPagination(c)

	filters := map[string]string{}
	if v := c.Query("status"); v != "" {
		filters["status"] = v
	}
	if v := c.Query("manufacturer_id"); v != "" {
		filters["manufacturer_id"] = v
	}
	if v := c.Query("priority"); v != "" {
		filters["priority"] = v
	}
	if v := c.Query("archived"); v != "" {
		filters["archived"] = v
	}

	records, total, err := h.production.ListRecords(c.Request.Context(), actor, page, pageSize, filters)
	if err != nil {
		HandleServiceError(c, err, "生产记录不存在")
		return
	}

	RedactedSuccess(c, actor, ListResponse{
		Items: records,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages(total, pageSize),
		},
	})
}

// GetRecord 生产记录详情
// GET /api/v1/records/:id
func (h *RecordHandler) GetRecord(c *gin.Context) {
	actor := GetActor(c, h.scope)

	record, err := h.production.GetRecord(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		HandleServiceError(c, err, "生产记录不存在")
		return
	}
	RedactedSuccess(c, actor, record)
}

// CreateRecord 创建生产记录（admin/ops）
// POST /api/v1/records
func (h *RecordHandler) CreateRecord(c *gin.Context) {
	actor := GetActor(c, h.scope)

	var req service.CreateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	record, err := h.production.CreateRecord(c.Request.Context(), actor, &req)
	if err != nil {
		HandleServiceError(c, err, "订单不存在")
		return
	}
	RedactedCreated(c, actor, record)
}

// ArchiveRecord 归档生产记录
// POST /api/v1/records/:id/archive
func (h *RecordHandler) ArchiveRecord(c *gin.Context) {
	actor := GetActor(c, h.scope)

	record, err := h.production.ArchiveRecord(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		HandleServiceError(c, err, "生产记录不存在")
		return
	}
	Success(c, record)
}

// CreateUpdate 追加生产更新（创建时物化快照，admin/ops）
// POST /api/v1/records/:id/updates
func (h *RecordHandler) CreateUpdate(c *gin.Context) {
	actor := GetActor(c, h.scope)

	var req service.CreateUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	update, err := h.production.CreateUpdate(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		HandleServiceError(c, err, "生产记录不存在")
		return
	}
	RedactedCreated(c, actor, update)
}

// ListUpdates 更新历史
// GET /api/v1/records/:id/updates
func (h *RecordHandler) ListUpdates(c *gin.Context) {
	actor := GetActor(c, h.scope)

	updates, err := h.production.ListUpdates(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		HandleServiceError(c, err, "生产记录不存在")
		return
	}
	RedactedSuccess(c, actor, updates)
}

// RefreshSnapshot 从活订单重刷快照字段（admin/ops）
// POST /api/v1/updates/:id/refresh-line-items
func (h *RecordHandler) RefreshSnapshot(c *gin.Context) {
	actor := GetActor(c, h.scope)

	result, err := h.snapshot.RefreshSnapshot(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		HandleServiceError(c, err, "生产更新不存在")
		return
	}
	Success(c, result)
}

// UpdateLineItem 编辑快照行工作流字段
// PATCH /api/v1/update-line-items/:id
func (h *RecordHandler) UpdateLineItem(c *gin.Context) {
	actor := GetActor(c, h.scope)

	var req service.UpdateWorkflowFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	row, err := h.snapshot.UpdateWorkflowFields(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		HandleServiceError(c, err, "快照行不存在")
		return
	}
	RedactedSuccess(c, actor, row)
}

// ConfirmSizes 确认尺码
// POST /api/v1/update-line-items/:id/confirm-sizes
func (h *RecordHandler) ConfirmSizes(c *gin.Context) {
	actor := GetActor(c, h.scope)

	row, err := h.snapshot.ConfirmSizes(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		HandleServiceError(c, err, "快照行不存在")
		return
	}
	RedactedSuccess(c, actor, row)
}

// MarkCompleted 制造商标记完成
// POST /api/v1/update-line-items/:id/complete
func (h *RecordHandler) MarkCompleted(c *gin.Context) {
	actor := GetActor(c, h.scope)

	row, err := h.snapshot.MarkCompleted(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		HandleServiceError(c, err, "快照行不存在")
		return
	}
	RedactedSuccess(c, actor, row)
}
