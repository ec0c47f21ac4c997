package handler

import (
	"github.com/bitfantasy/loom/internal/fulfillment/entity"
	"github.com/gin-gonic/gin"
)

// ConfigHandler 门户配置
type ConfigHandler struct{}

func NewConfigHandler() *ConfigHandler {
	return &ConfigHandler{}
}

// GetPortalConfig 门户状态机配置
// GET /api/v1/config/portal
// 前端据此渲染漏斗状态、允许的流转和公开状态映射，不在前端硬编码
func (h *ConfigHandler) GetPortalConfig(c *gin.Context) {
	transitions := make(map[string][]string, len(entity.ValidJobTransitions))
	for from, targets := range entity.ValidJobTransitions {
		list := make([]string, len(targets))
		copy(list, targets)
		transitions[from] = list
	}

	Success(c, gin.H{
		"funnel_states":   entity.FunnelStates,
		"transitions":     transitions,
		"public_statuses": entity.PublicStatuses,
	})
}
