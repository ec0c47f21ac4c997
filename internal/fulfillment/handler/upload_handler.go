package handler

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bitfantasy/loom/internal/fulfillment/service"
	"github.com/bitfantasy/loom/internal/shared/storage"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UploadHandler 设计稿上传接口
type UploadHandler struct {
	store    *storage.Client
	snapshot *service.SnapshotService
	scope    *service.ScopeService
}

func NewUploadHandler(store *storage.Client, snapshot *service.SnapshotService, scope *service.ScopeService) *UploadHandler {
	return &UploadHandler{store: store, snapshot: snapshot, scope: scope}
}

// 设计稿允许的文件类型
var allowedMockupExts = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".pdf":  "application/pdf",
}

const maxMockupSize = 20 << 20 // 20MB

// UploadMockup 上传快照行设计稿并回写mockup_url
// POST /api/v1/update-line-items/:id/mockup
func (h *UploadHandler) UploadMockup(c *gin.Context) {
	actor := GetActor(c, h.scope)
	lineItemID := c.Param("id")

	// 先做租户校验，越权请求不能在对象存储留下文件
	if _, err := h.snapshot.GetSnapshotRow(c.Request.Context(), actor, lineItemID); err != nil {
		HandleServiceError(c, err, "快照行不存在")
		return
	}

	if !h.store.Enabled() {
		InternalError(c, "对象存储未配置")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "缺少上传文件")
		return
	}
	if file.Size > maxMockupSize {
		BadRequest(c, "文件超过20MB限制")
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	contentType, ok := allowedMockupExts[ext]
	if !ok {
		BadRequest(c, "不支持的文件类型: "+ext)
		return
	}

	src, err := file.Open()
	if err != nil {
		InternalError(c, "读取上传文件失败: "+err.Error())
		return
	}
	defer src.Close()

	objectName := fmt.Sprintf("mockups/%s/%s%s", lineItemID, uuid.New().String()[:32], ext)

	url, err := h.store.Upload(c.Request.Context(), objectName, src, file.Size, contentType)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	row, err := h.snapshot.UpdateWorkflowFields(c.Request.Context(), actor, lineItemID, &service.UpdateWorkflowFieldsRequest{
		MockupURL: &url,
	})
	if err != nil {
		HandleServiceError(c, err, "快照行不存在")
		return
	}
	RedactedSuccess(c, actor, row)
}
