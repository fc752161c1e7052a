package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"seequence/internal/config"
	"seequence/internal/pkg/storage"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	cfg   *config.Config
	store storage.Storage
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(cfg *config.Config, store storage.Storage) *HealthHandler {
	return &HealthHandler{cfg: cfg, store: store}
}

// Health 健康检查
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready 就绪检查，确认图像服务凭据已配置且存储后端可达
func (h *HealthHandler) Ready(c *gin.Context) {
	var configured bool
	switch h.cfg.Image.Provider {
	case "replicate":
		configured = h.cfg.Image.Replicate.APIToken != ""
	case "ark":
		configured = h.cfg.Image.Ark.APIKey != ""
	}
	if !configured {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "image provider credentials not configured",
		})
		return
	}
	// 探测存储后端：本地是 stat，OSS 是一次真实请求；key 存在与否不重要
	if h.store != nil {
		if _, err := h.store.Exists(c.Request.Context(), ".ready_probe"); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"reason": "storage backend unreachable: " + err.Error(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}
