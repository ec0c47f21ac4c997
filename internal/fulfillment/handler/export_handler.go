package handler

import (
	"github.com/bitfantasy/loom/internal/fulfillment/service"
	"github.com/gin-gonic/gin"
)

// ExportHandler 导出接口
type ExportHandler struct {
	export *service.ExportService
	scope  *service.ScopeService
}

func NewExportHandler(export *service.ExportService, scope *service.ScopeService) *ExportHandler {
	return &ExportHandler{export: export, scope: scope}
}

// ExportJobs 导出作业清单xlsx
// GET /api/v1/jobs/export
func (h *ExportHandler) ExportJobs(c *gin.Context) {
	actor := GetActor(c, h.scope)

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

	f, filename, err := h.export.ExportJobs(c.Request.Context(), actor, filters)
	if err != nil {
		HandleServiceError(c, err, "作业不存在")
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "导出失败: "+err.Error())
	}
}
