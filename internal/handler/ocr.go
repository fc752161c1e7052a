package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"seequence/internal/model"
)

// 上传图片大小上限：10MB
const maxUploadBytes = 10 << 20

// OCRFromImageURL 从图片URL提取文字
func (h *Handler) OCRFromImageURL(c *gin.Context) {
	var req model.OCRFromImageURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	text, err := h.svc.ExtractTextFromImageURL(c.Request.Context(), req.ImageURL, req.PromptHint)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.OCRTextResponse{ExtractedText: text})
}

// OCRFromImageUpload 从上传的图片提取文字（multipart 表单，字段名 file）
func (h *Handler) OCRFromImageUpload(c *gin.Context) {
	data, contentType, err := readUploadedImage(c)
	if err != nil {
		respondBadRequest(c, err)
		return
	}

	text, err := h.svc.ExtractTextFromImageBytes(c.Request.Context(), contentType, data, c.PostForm("prompt_hint"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.OCRTextResponse{ExtractedText: text})
}

// VisualsFromImageURL OCR 后直接进完整流水线
func (h *Handler) VisualsFromImageURL(c *gin.Context) {
	var req model.VisualsFromImageURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	text, err := h.svc.ExtractTextFromImageURL(c.Request.Context(), req.ImageURL, req.PromptHint)
	if err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.svc.VisualsFromText(c.Request.Context(), text, req.MaxScenes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// VisualsFromImageUpload 上传图片OCR后直接进完整流水线
func (h *Handler) VisualsFromImageUpload(c *gin.Context) {
	data, contentType, err := readUploadedImage(c)
	if err != nil {
		respondBadRequest(c, err)
		return
	}

	text, err := h.svc.ExtractTextFromImageBytes(c.Request.Context(), contentType, data, c.PostForm("prompt_hint"))
	if err != nil {
		respondError(c, err)
		return
	}

	maxScenes := 0
	if v := c.PostForm("max_scenes"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			maxScenes = n
		}
	}

	resp, err := h.svc.VisualsFromText(c.Request.Context(), text, maxScenes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// readUploadedImage 读取 multipart 表单里的图片文件
func readUploadedImage(c *gin.Context) ([]byte, string, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, "", fmt.Errorf("file field is required: %w", err)
	}
	if fileHeader.Size > maxUploadBytes {
		return nil, "", fmt.Errorf("file too large: %d bytes (max %d)", fileHeader.Size, maxUploadBytes)
	}

	f, err := fileHeader.Open()
	if err != nil {
		return nil, "", fmt.Errorf("open uploaded file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read uploaded file: %w", err)
	}
	if len(data) > maxUploadBytes {
		return nil, "", fmt.Errorf("file too large (max %d bytes)", maxUploadBytes)
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}
