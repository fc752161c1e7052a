package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/volcengine/volcengine-go-sdk/service/arkruntime"
	arkmodel "github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"

	"seequence/internal/config"
	"seequence/internal/pkg/id"
	"seequence/internal/pkg/storage"
)

// ArkClient Ark 图片生成客户端（直连模型 API）
// 模型返回内嵌的 base64 图片载荷，解码后经 Storage 落盘，返回相对静态路径/URL
type ArkClient struct {
	client    *arkruntime.Client
	model     string
	size      string   // 首选输出尺寸
	fallbacks []string // 尺寸被拒绝时按序降级
	store     storage.Storage
}

// NewArkClient 创建 Ark 图片生成客户端
func NewArkClient(cfg *config.ArkImageConfig, store storage.Storage) (*ArkClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("ark api_key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "doubao-seedream-3-0-t2i-250415" // 默认图片生成模型
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://ark.cn-beijing.volces.com/api/v3"
	}

	size := cfg.Size
	if size == "" {
		size = "1280x720"
	}

	fallbacks := cfg.Fallbacks
	if len(fallbacks) == 0 {
		fallbacks = []string{"1024x576", "1024x1024", "720x1280"}
	}

	arkClient := arkruntime.NewClientWithApiKey(cfg.APIKey, arkruntime.WithBaseUrl(baseURL))

	return &ArkClient{
		client:    arkClient,
		model:     model,
		size:      size,
		fallbacks: fallbacks,
		store:     store,
	}, nil
}

// Generate 根据提示词生成一张图片并落盘，返回URL
// 首选尺寸被拒绝时按配置的降级列表逐个重试；其他失败走通用瞬时重试
func (c *ArkClient) Generate(ctx context.Context, prompt string, seed *int64) (string, error) {
	return withRetry(ctx, func() (string, error) {
		return c.generateOnce(ctx, prompt, seed)
	})
}

func (c *ArkClient) generateOnce(ctx context.Context, prompt string, seed *int64) (string, error) {
	sizes := append([]string{c.size}, c.fallbacks...)

	var lastErr error
	for _, size := range sizes {
		data, err := c.generateAtSize(ctx, prompt, size, seed)
		if err != nil {
			msg := err.Error()
			if isBillingMessage(msg) {
				return "", &BillingCreditError{Msg: "ark billing: insufficient credit, please top up"}
			}
			if isSizeRejection(msg) {
				log.Warn().Str("size", size).Str("error", msg).Msg("ark rejected size, trying next")
				lastErr = err
				continue
			}
			return "", fmt.Errorf("ark generate image: %w", err)
		}
		return c.persist(ctx, data)
	}

	return "", fmt.Errorf("ark generate image: all sizes rejected: %w", lastErr)
}

// generateAtSize 以指定尺寸调用一次 GenerateImages
func (c *ArkClient) generateAtSize(ctx context.Context, prompt, size string, seed *int64) ([]byte, error) {
	responseFormat := "b64_json"
	watermark := false

	input := arkmodel.GenerateImagesRequest{
		Model:          c.model,
		Prompt:         prompt,
		Size:           &size,
		ResponseFormat: &responseFormat,
		Watermark:      &watermark,
	}
	if seed != nil {
		s := *seed
		input.Seed = &s
	}

	output, err := c.client.GenerateImages(ctx, input)
	if err != nil {
		return nil, err
	}

	if len(output.Data) == 0 {
		return nil, fmt.Errorf("no image data in response")
	}
	firstImage := output.Data[0]
	if firstImage.B64Json == nil {
		return nil, fmt.Errorf("no b64_json in response data")
	}

	imageData, err := base64.StdEncoding.DecodeString(*firstImage.B64Json)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image data: %w", err)
	}

	return imageData, nil
}

// persist 将图片数据经 Storage 落盘，文件名防撞
func (c *ArkClient) persist(ctx context.Context, data []byte) (string, error) {
	key := "images/" + id.AssetFilename("scene", "png")
	url, err := c.store.Save(ctx, key, bytes.NewReader(data), "image/png")
	if err != nil {
		return "", fmt.Errorf("persist generated image: %w", err)
	}

	log.Info().Str("key", key).Int("size", len(data)).Msg("ark 图片生成成功")
	return url, nil
}

// isSizeRejection 判断错误消息是否为尺寸类拒绝
func isSizeRejection(msg string) bool {
	m := strings.ToLower(msg)
	for _, tok := range []string{"size", "dimension", "width", "height", "resolution"} {
		if strings.Contains(m, tok) {
			return true
		}
	}
	return false
}
