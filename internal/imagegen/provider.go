package imagegen

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Provider 图片生成提供者接口
// 统一抽象 Replicate（托管模型运行器）与 Ark（直连模型 API）两种后端
type Provider interface {
	// Generate 根据提示词生成一张图片，返回可访问的URL
	Generate(ctx context.Context, prompt string, seed *int64) (string, error)
}

// clampDim 把尺寸钳到 64 的倍数（下取整，下限 64）
func clampDim(v int) int {
	if v < 64 {
		v = 64
	}
	return v / 64 * 64
}

// isBillingMessage 判断错误消息是否为计费/额度类错误
func isBillingMessage(msg string) bool {
	return strings.Contains(msg, "Insufficient credit") ||
		strings.Contains(strings.ToLower(msg), "insufficient credit") ||
		strings.Contains(msg, "status: 402")
}

const (
	maxAttempts  = 3
	backoffStart = 2 * time.Second
	backoffCap   = 20 * time.Second
)

// withRetry 瞬时失败重试包装
// 最多 maxAttempts 次，指数退避；计费错误永远直接短路，不参与重试
func withRetry(ctx context.Context, op func() (string, error)) (string, error) {
	var lastErr error
	wait := backoffStart

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		url, err := op()
		if err == nil {
			return url, nil
		}

		var billing *BillingCreditError
		if errors.As(err, &billing) {
			return "", err
		}

		lastErr = err
		if attempt == maxAttempts {
			break
		}

		log.Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Msg("image generation failed, retrying")

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(wait):
		}

		wait *= 2
		if wait > backoffCap {
			wait = backoffCap
		}
	}

	return "", lastErr
}
