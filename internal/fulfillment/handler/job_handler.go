package handler

import (
	"github.com/bitfantasy/loom/internal/fulfillment/service"
	"github.com/gin-gonic/gin"
)

// JobHandler 作业相关接口
type JobHandler struct {
	workflow *service.WorkflowService
	scope    *service.ScopeService
}

func NewJobHandler(workflow *service.WorkflowService, scope *service.ScopeService) *JobHandler {
	return &JobHandler{workflow: workflow, scope: scope}
}

// ListJobs 作业列表
// GET /api/v1/jobs
func (h *JobHandler) ListJobs(c *gin.Context) {
	actor := GetActor(c, h.scope)
	page, pageSize := GetPagination(c)

	filters := map[string]string{}
	if v := c.Query("funnel_status"); v != "" {
		filters["funnel_status"] = v
	}
	if v := c.Query("public_status"); v != "" {
		filters["public_status"] = v
	}
	if v := c.Query("manufacturer_id"); v != "" {
		filters["manufacturer_id"] = v
	}

	jobs, total, err := h.workflow.ListJobs(c.Request.Context(), actor, page, pageSize, filters)
	if err != nil {
		HandleServiceError(c, err, "作业不存在")
		return
	}

	RedactedSuccess(c, actor, ListResponse{
		Items: jobs,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages(total, pageSize),
		},
	})
}

// GetJob 作业详情
// GET /api/v1/jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	actor := GetActor(c, h.scope)

	job, err := h.workflow.GetJob(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		HandleServiceError(c, err, "作业不存在")
		return
	}
	RedactedSuccess(c, actor, job)
}

// CreateJob 创建作业
// POST /api/v1/jobs
func (h *JobHandler) CreateJob(c *gin.Context) {
	actor := GetActor(c, h.scope)

	var req service.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	job, err := h.workflow.CreateJob(c.Request.Context(), actor, &req)
	if err != nil {
		HandleServiceError(c, err, "生产记录不存在")
		return
	}
	RedactedCreated(c, actor, job)
}

// UpdateJob 编辑作业规格字段
// PATCH /api/v1/jobs/:id
func (h *JobHandler) UpdateJob(c *gin.Context) {
	actor := GetActor(c, h.scope)

	var req service.UpdateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	job, err := h.workflow.UpdateJob(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		HandleServiceError(c, err, "作业不存在")
		return
	}
	RedactedSuccess(c, actor, job)
}

// ChangeStatus 漏斗状态流转
// PATCH /api/v1/jobs/:id/status
func (h *JobHandler) ChangeStatus(c *gin.Context) {
	actor := GetActor(c, h.scope)

	var req service.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	job, err := h.workflow.ChangeStatus(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		HandleServiceError(c, err, "作业不存在")
		return
	}
	RedactedSuccess(c, actor, job)
}

// ListEvents 作业事件列表
// GET /api/v1/jobs/:id/events
func (h *JobHandler) ListEvents(c *gin.Context) {
	actor := GetActor(c, h.scope)
	page, pageSize := GetPagination(c)

	events, total, err := h.workflow.ListEvents(c.Request.Context(), actor, c.Param("id"), page, pageSize)
	if err != nil {
		HandleServiceError(c, err, "作业不存在")
		return
	}

	Success(c, ListResponse{
		Items: events,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages(total, pageSize),
		},
	})
}

// AppendEvent 追加审计事件
// POST /api/v1/jobs/:id/events
func (h *JobHandler) AppendEvent(c *gin.Context) {
	actor := GetActor(c, h.scope)

	var req service.AppendEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	event, err := h.workflow.AppendEvent(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		HandleServiceError(c, err, "作业不存在")
		return
	}
	Created(c, event)
}

// SyncJobs 批量补建作业（admin/ops）
// POST /api/v1/jobs/sync
func (h *JobHandler) SyncJobs(c *gin.Context) {
	actor := GetActor(c, h.scope)

	result, err := h.workflow.SyncJobs(c.Request.Context(), actor)
	if err != nil {
		HandleServiceError(c, err, "生产记录不存在")
		return
	}
	Success(c, result)
}
