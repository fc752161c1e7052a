package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"seequence/internal/config"
)

const defaultReplicateBaseURL = "https://api.replicate.com"

// runFunc 执行一次底层预测调用
// 抽出来方便注入假实现做单测
type runFunc func(ctx context.Context, payload map[string]interface{}) (interface{}, error)

// ReplicateClient Replicate 托管模型运行器客户端
// 负责按模型族整形尺寸参数、参数被拒后的降级重试、以及异构响应的归一化
type ReplicateClient struct {
	apiToken    string
	model       string // 如 black-forest-labs/flux-1.1-pro
	timeout     time.Duration
	aspectRatio string
	width       int
	height      int

	baseURL    string
	httpClient *http.Client
	run        runFunc
}

// NewReplicateClient 创建 Replicate 客户端
func NewReplicateClient(cfg *config.ReplicateConfig) (*ReplicateClient, error) {
	if cfg.APIToken == "" {
		return nil, fmt.Errorf("replicate api_token is required")
	}

	model := cfg.Model
	if model == "" {
		model = "black-forest-labs/flux-1.1-pro"
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 300 * time.Second
	}

	c := &ReplicateClient{
		apiToken:    cfg.APIToken,
		model:       model,
		timeout:     timeout,
		aspectRatio: cfg.AspectRatio,
		width:       cfg.Width,
		height:      cfg.Height,
		baseURL:     defaultReplicateBaseURL,
		httpClient:  &http.Client{Timeout: timeout},
	}
	c.run = c.runPrediction
	return c, nil
}

// Generate 根据提示词生成一张图片并返回URL
// 整个调用（参数整形 + 降级阶梯）外层再包一层瞬时失败重试；计费错误直接短路
func (c *ReplicateClient) Generate(ctx context.Context, prompt string, seed *int64) (string, error) {
	return withRetry(ctx, func() (string, error) {
		return c.generateOnce(ctx, prompt, seed)
	})
}

// generateOnce 单次生成：构建载荷、调用、按降级阶梯重试一次、归一化响应
func (c *ReplicateClient) generateOnce(ctx context.Context, prompt string, seed *int64) (string, error) {
	payload := c.buildPayload(prompt, seed)

	output, err := c.run(ctx, payload)
	if err != nil {
		msg := err.Error()
		if isBillingMessage(msg) {
			return "", &BillingCreditError{Msg: "replicate billing: insufficient credit, please top up"}
		}

		log.Warn().Str("model", c.model).Str("error", msg).Msg("replicate rejected request, trying fallback")

		// 按降级阶梯找到第一条匹配的规则，整形后只重试一次
		for _, fb := range fallbackLadder {
			if !fb.match(msg) {
				continue
			}
			retryPayload := fb.reshape(payload, prompt, c.aspectRatio)
			output, err = c.run(ctx, retryPayload)
			if err != nil {
				if isBillingMessage(err.Error()) {
					return "", &BillingCreditError{Msg: "replicate billing: insufficient credit, please top up"}
				}
				return "", fmt.Errorf("replicate generate (after %s fallback): %w", fb.name, err)
			}
			break
		}
		if err != nil {
			return "", fmt.Errorf("replicate generate: %w", err)
		}
	}

	return extractImageURL(output)
}

// buildPayload 按模型族整形请求载荷
// sd3 族只接受 aspect_ratio；其余模型优先显式宽高（钳到64的倍数），否则用纵横比
func (c *ReplicateClient) buildPayload(prompt string, seed *int64) map[string]interface{} {
	payload := map[string]interface{}{"prompt": prompt}

	if isSD3Like(c.model) {
		ar := c.aspectRatio
		if ar == "" {
			ar = "16:9"
		}
		payload["aspect_ratio"] = ar
	} else if c.width > 0 && c.height > 0 {
		cw, ch := clampDim(c.width), clampDim(c.height)
		if cw != c.width || ch != c.height {
			log.Info().
				Int("width", c.width).Int("height", c.height).
				Int("clamped_width", cw).Int("clamped_height", ch).
				Str("model", c.model).
				Msg("adjusted requested size for model")
		}
		payload["width"], payload["height"] = cw, ch
	} else if c.aspectRatio != "" {
		payload["aspect_ratio"] = c.aspectRatio
	}

	if seed != nil {
		payload["seed"] = *seed
	}
	return payload
}

// isSD3Like 判断模型族是否只接受 aspect_ratio 参数
func isSD3Like(model string) bool {
	m := strings.ToLower(model)
	for _, tok := range []string{
		"stability-ai/stable-diffusion-3",
		"stability-ai/sd3",
		"stable-diffusion-3",
		"sd3",
	} {
		if strings.Contains(m, tok) {
			return true
		}
	}
	return false
}

// fallback 降级阶梯的一条规则：错误消息谓词 + 载荷整形
type fallback struct {
	name    string
	match   func(msg string) bool
	reshape func(payload map[string]interface{}, prompt, configuredAR string) map[string]interface{}
}

// fallbackLadder 参数被拒后的降级阶梯，按序取第一条匹配规则，每条只重试一次
var fallbackLadder = []fallback{
	{
		name: "aspect-ratio",
		match: func(msg string) bool {
			return strings.Contains(msg, "aspect") && strings.Contains(msg, "ratio")
		},
		reshape: func(payload map[string]interface{}, _, _ string) map[string]interface{} {
			retry := copyPayload(payload)
			delete(retry, "aspect_ratio")
			retry["width"], retry["height"] = 1280, 720
			return retry
		},
	},
	{
		name: "dimensions",
		match: func(msg string) bool {
			for _, tok := range []string{"width", "height", "size", "dimension"} {
				if strings.Contains(msg, tok) {
					return true
				}
			}
			return false
		},
		reshape: func(payload map[string]interface{}, _, configuredAR string) map[string]interface{} {
			retry := copyPayload(payload)
			delete(retry, "width")
			delete(retry, "height")
			if configuredAR == "" {
				configuredAR = "16:9"
			}
			retry["aspect_ratio"] = configuredAR
			return retry
		},
	},
	{
		name:  "prompt-hint",
		match: func(string) bool { return true },
		reshape: func(payload map[string]interface{}, prompt, _ string) map[string]interface{} {
			retry := copyPayload(payload)
			delete(retry, "width")
			delete(retry, "height")
			delete(retry, "aspect_ratio")
			retry["prompt"] = prompt + "\n\n[Compose in a 16:9 aspect ratio]"
			return retry
		},
	},
}

func copyPayload(payload map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(payload))
	for k, v := range payload {
		out[k] = v
	}
	return out
}

// predictionResponse Replicate 预测响应
type predictionResponse struct {
	ID     string      `json:"id"`
	Status string      `json:"status"`
	Output interface{} `json:"output"`
	Error  interface{} `json:"error"`
	URLs   struct {
		Get string `json:"get"`
	} `json:"urls"`
}

// runPrediction 执行一次预测调用并等待终态
// POST /v1/models/{model}/predictions（Prefer: wait），未到终态时轮询 urls.get
func (c *ReplicateClient) runPrediction(ctx context.Context, payload map[string]interface{}) (interface{}, error) {
	body, err := json.Marshal(map[string]interface{}{"input": payload})
	if err != nil {
		return nil, fmt.Errorf("marshal prediction request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/models/%s/predictions", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create prediction request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "wait")

	pred, err := c.doPrediction(req)
	if err != nil {
		return nil, err
	}

	// 轮询直到终态或超时
	deadline := time.Now().Add(c.timeout)
	for pred.Status == "starting" || pred.Status == "processing" {
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("prediction %s timed out after %s", pred.ID, c.timeout)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}

		pollReq, err := http.NewRequestWithContext(ctx, http.MethodGet, pred.URLs.Get, nil)
		if err != nil {
			return nil, fmt.Errorf("create poll request: %w", err)
		}
		pollReq.Header.Set("Authorization", "Bearer "+c.apiToken)

		pred, err = c.doPrediction(pollReq)
		if err != nil {
			return nil, err
		}
	}

	if pred.Status != "succeeded" {
		detail := ""
		if pred.Error != nil {
			detail = fmt.Sprintf("%v", pred.Error)
		}
		return nil, fmt.Errorf("prediction %s %s: %s", pred.ID, pred.Status, detail)
	}

	return pred.Output, nil
}

// doPrediction 发送请求并解析预测响应
func (c *ReplicateClient) doPrediction(req *http.Request) (*predictionResponse, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("replicate request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read replicate response: %w", err)
	}

	if resp.StatusCode == http.StatusPaymentRequired {
		return nil, fmt.Errorf("replicate request failed, status: 402, body: %s", string(respBody))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("replicate request failed, status: %d, body: %s", resp.StatusCode, string(respBody))
	}

	var pred predictionResponse
	if err := json.Unmarshal(respBody, &pred); err != nil {
		return nil, fmt.Errorf("parse replicate response: %w", err)
	}
	return &pred, nil
}

// extractImageURL 归一化异构的服务响应，提取可用的图片URL
// 依次尝试：列表首个URL字符串、列表首个文件句柄、扫描整个列表、扫描字典值（含一层嵌套列表）
func extractImageURL(output interface{}) (string, error) {
	switch v := output.(type) {
	case []interface{}:
		if len(v) == 0 {
			break
		}
		if url, ok := asURL(v[0]); ok {
			return url, nil
		}
		if url, ok := asFileHandle(v[0]); ok {
			return url, nil
		}
		// 通用提取：扫描所有列表元素
		for _, item := range v {
			if url, ok := asURL(item); ok {
				return url, nil
			}
			if m, ok := item.(map[string]interface{}); ok {
				for _, vv := range m {
					if url, ok := asURL(vv); ok {
						return url, nil
					}
				}
			}
		}

	case string:
		return v, nil

	case map[string]interface{}:
		for _, item := range v {
			if url, ok := asURL(item); ok {
				return url, nil
			}
			if list, ok := item.([]interface{}); ok && len(list) > 0 {
				if url, ok := asURL(list[0]); ok {
					return url, nil
				}
				if url, ok := asFileHandle(list[0]); ok {
					return url, nil
				}
			}
		}
	}

	return "", &UnrecognizedResponseError{Shape: describeShape(output)}
}

// asURL 值是否为 http URL 字符串
func asURL(v interface{}) (string, bool) {
	s, ok := v.(string)
	if ok && strings.HasPrefix(s, "http") {
		return s, true
	}
	return "", false
}

// asFileHandle 值是否为文件句柄对象（优先 url 属性，退化到本地文件引用）
func asFileHandle(v interface{}) (string, bool) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return "", false
	}
	if url, ok := m["url"].(string); ok && url != "" {
		return url, true
	}
	if path, ok := m["path"].(string); ok && path != "" {
		return "file://" + path, true
	}
	return "", false
}

// describeShape 描述观测到的响应形状（类型 + 截断样本）
func describeShape(output interface{}) string {
	sample, err := json.Marshal(output)
	if err != nil {
		return fmt.Sprintf("%T", output)
	}
	s := string(sample)
	if len(s) > 200 {
		s = s[:200]
	}
	return fmt.Sprintf("%T: %s", output, s)
}
