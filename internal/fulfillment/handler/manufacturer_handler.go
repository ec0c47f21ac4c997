package handler

import (
	"github.com/bitfantasy/loom/internal/fulfillment/service"
	"github.com/gin-gonic/gin"
)

// ManufacturerHandler 制造商管理接口
type ManufacturerHandler struct {
	manufacturer *service.ManufacturerService
	scope        *service.ScopeService
}

func NewManufacturerHandler(manufacturer *service.ManufacturerService, scope *service.ScopeService) *ManufacturerHandler {
	return &ManufacturerHandler{manufacturer: manufacturer, scope: scope}
}

// ListManufacturers 制造商列表（admin/ops）
// GET /api/v1/manufacturers
func (h *ManufacturerHandler) ListManufacturers(c *gin.Context) {
	actor := GetActor(c, h.scope)
	page, pageSize := GetPagination(c)

	filters := map[string]string{}
	if v := c.Query("status"); v != "" {
		filters["status"] = v
	}
	if v := c.Query("search"); v != "" {
		filters["search"] = v
	}

	items, total, err := h.manufacturer.ListManufacturers(c.Request.Context(), actor, page, pageSize, filters)
	if err != nil {
		HandleServiceError(c, err, "制造商不存在")
		return
	}

	Success(c, ListResponse{
		Items: items,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages(total, pageSize),
		},
	})
}

// GetManufacturer 制造商详情
// GET /api/v1/manufacturers/:id
func (h *ManufacturerHandler) GetManufacturer(c *gin.Context) {
	actor := GetActor(c, h.scope)

	m, err := h.manufacturer.GetManufacturer(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		HandleServiceError(c, err, "制造商不存在")
		return
	}
	Success(c, m)
}

// CreateManufacturer 创建制造商（admin/ops）
// POST /api/v1/manufacturers
func (h *ManufacturerHandler) CreateManufacturer(c *gin.Context) {
	actor := GetActor(c, h.scope)

	var req service.CreateManufacturerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	m, err := h.manufacturer.CreateManufacturer(c.Request.Context(), actor, &req)
	if err != nil {
		HandleServiceError(c, err, "制造商不存在")
		return
	}
	Created(c, m)
}

// CreateAssociation 建立用户-制造商关联（admin/ops）
// POST /api/v1/manufacturers/associations
func (h *ManufacturerHandler) CreateAssociation(c *gin.Context) {
	actor := GetActor(c, h.scope)

	var req service.CreateAssociationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	assoc, err := h.manufacturer.CreateAssociation(c.Request.Context(), actor, &req)
	if err != nil {
		HandleServiceError(c, err, "制造商不存在")
		return
	}
	Created(c, assoc)
}

// DeleteAssociation 删除用户-制造商关联（admin/ops）
// DELETE /api/v1/manufacturers/:id/associations/:userId
func (h *ManufacturerHandler) DeleteAssociation(c *gin.Context) {
	actor := GetActor(c, h.scope)

	if err := h.manufacturer.DeleteAssociation(c.Request.Context(), actor, c.Param("userId"), c.Param("id")); err != nil {
		HandleServiceError(c, err, "关联不存在")
		return
	}
	Success(c, nil)
}

// AssignLineItem 把订单行项分配给制造商（admin/ops）
// POST /api/v1/order-line-items/:id/assignments
func (h *ManufacturerHandler) AssignLineItem(c *gin.Context) {
	actor := GetActor(c, h.scope)

	var req service.AssignLineItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	row, err := h.manufacturer.AssignLineItem(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		HandleServiceError(c, err, "制造商不存在")
		return
	}
	Created(c, row)
}

// ListLineItemAssignments 行项分配列表（admin/ops）
// GET /api/v1/order-line-items/:id/assignments
func (h *ManufacturerHandler) ListLineItemAssignments(c *gin.Context) {
	actor := GetActor(c, h.scope)

	rows, err := h.manufacturer.ListLineItemAssignments(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		HandleServiceError(c, err, "行项不存在")
		return
	}
	Success(c, rows)
}
