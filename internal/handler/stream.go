package handler

import (
	"io"

	"github.com/gin-gonic/gin"

	"seequence/internal/model"
)

// GenerateVisualsStream 流式执行流水线，SSE 推送进度
// 事件流以唯一的 complete 或 error 事件收尾
func (h *Handler) GenerateVisualsStream(c *gin.Context) {
	var req model.GenerateVisualsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	events := h.svc.StreamVisuals(c.Request.Context(), req.Text, req.MaxScenes)
	c.Stream(func(w io.Writer) bool {
		ev, ok := <-events
		if !ok {
			return false
		}
		c.SSEvent(ev.Type, ev)
		return true
	})
}
