package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"seequence/internal/imagegen"
	httpresp "seequence/internal/pkg/http"
	"seequence/internal/service"
	"seequence/internal/story"
)

// Handler 可视化接口处理器
type Handler struct {
	svc *service.VisualsService
}

// NewHandler 创建可视化接口处理器
func NewHandler(svc *service.VisualsService) *Handler {
	return &Handler{svc: svc}
}

// respondError 把服务层错误映射到 HTTP 状态码
// 计费错误固定 402；其余上游失败统一 502，调用方能区分出「去充值」和「稍后重试」
func respondError(c *gin.Context, err error) {
	var billing *imagegen.BillingCreditError
	if errors.As(err, &billing) {
		c.JSON(http.StatusPaymentRequired,
			httpresp.NewErrorResponse(40201, "image provider credit exhausted", billing.Msg))
		return
	}

	var malformed *story.MalformedOutputError
	if errors.As(err, &malformed) {
		c.JSON(http.StatusBadGateway,
			httpresp.NewErrorResponse(50201, "language model returned malformed output", err.Error()))
		return
	}

	var unrecognized *imagegen.UnrecognizedResponseError
	if errors.As(err, &unrecognized) {
		c.JSON(http.StatusBadGateway,
			httpresp.NewErrorResponse(50202, "unrecognized image provider response", err.Error()))
		return
	}

	if errors.Is(err, service.ErrNoNarration) {
		c.JSON(http.StatusBadGateway,
			httpresp.NewErrorResponse(50203, "no narration produced"))
		return
	}

	c.JSON(http.StatusBadGateway,
		httpresp.NewErrorResponse(50200, "upstream generation failed", err.Error()))
}

func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest,
		httpresp.NewErrorResponse(40001, "Invalid request body", err.Error()))
}
