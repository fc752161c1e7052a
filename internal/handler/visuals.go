package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"seequence/internal/model"
)

// Segment 文本分段，只切场景不出图
func (h *Handler) Segment(c *gin.Context) {
	var req model.SegmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	scenes, err := h.svc.Segment(c.Request.Context(), req.Text, req.MaxScenes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.SegmentResponse{Scenes: scenes})
}

// GenerateImage 按提示词生成单张图片
func (h *Handler) GenerateImage(c *gin.Context) {
	var req model.GenerateImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	url, err := h.svc.GenerateImage(c.Request.Context(), req.Prompt, req.Seed)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.GenerateImageResponse{ImageURL: url})
}

// GenerateVisuals 完整流水线：分段、提示词、出图
func (h *Handler) GenerateVisuals(c *gin.Context) {
	var req model.GenerateVisualsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	resp, err := h.svc.GenerateVisuals(c.Request.Context(), req.Text, req.MaxScenes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GenerateVisualsWithAudio 完整流水线加逐场景旁白
func (h *Handler) GenerateVisualsWithAudio(c *gin.Context) {
	var req model.GenerateVisualsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	resp, err := h.svc.GenerateVisualsWithAudio(c.Request.Context(), req.Text, req.MaxScenes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GenerateVisualsSingleAudio 完整流水线加合并音轨
func (h *Handler) GenerateVisualsSingleAudio(c *gin.Context) {
	var req model.GenerateVisualsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	resp, err := h.svc.GenerateVisualsSingleAudio(c.Request.Context(), req.Text, req.MaxScenes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
