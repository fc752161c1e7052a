package narration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"seequence/internal/config"
	"seequence/internal/pkg/id"
	"seequence/internal/pkg/tts"
)

// Clip 一段合成好的旁白音频
type Clip struct {
	Path     string  // 本地文件路径，供 ffmpeg 合并使用
	URL      string  // 对外可访问的 URL
	Duration float64 // 时长（秒），探测失败时为0
}

// Synthesizer 旁白语音合成
type Synthesizer interface {
	// Synthesize 合成一段文本的旁白，返回落盘后的音频片段
	Synthesize(ctx context.Context, text string, stem string) (*Clip, error)
	Voice() string
}

// NewSynthesizer 按配置创建语音合成器
func NewSynthesizer(cfg *config.TTSConfig, prober DurationProber) (Synthesizer, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAISynthesizer(cfg, prober), nil
	case "volcano":
		client, err := tts.NewClient(tts.Config{
			APIURL:      cfg.APIURL,
			AccessToken: cfg.APIKey,
			AppID:       cfg.AppID,
			Cluster:     cfg.Cluster,
			VoiceType:   cfg.Voice,
		})
		if err != nil {
			return nil, fmt.Errorf("init volcano tts client: %w", err)
		}
		return NewVolcanoSynthesizer(client, cfg.OutputDir, prober), nil
	default:
		return nil, fmt.Errorf("unsupported tts provider: %s", cfg.Provider)
	}
}

// OpenAISynthesizer 走 OpenAI speech 接口的语音合成
type OpenAISynthesizer struct {
	apiKey     string
	apiURL     string
	model      string
	voice      string
	outputDir  string
	httpClient *http.Client
	prober     DurationProber
}

// NewOpenAISynthesizer 创建 OpenAI 语音合成器
func NewOpenAISynthesizer(cfg *config.TTSConfig, prober DurationProber) *OpenAISynthesizer {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = "https://api.openai.com/v1/audio/speech"
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini-tts"
	}
	voice := cfg.Voice
	if voice == "" {
		voice = "alloy"
	}
	return &OpenAISynthesizer{
		apiKey:     cfg.APIKey,
		apiURL:     apiURL,
		model:      model,
		voice:      voice,
		outputDir:  cfg.OutputDir,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		prober:     prober,
	}
}

func (s *OpenAISynthesizer) Voice() string {
	return s.voice
}

// Synthesize 合成旁白并写入输出目录
func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text string, stem string) (*Clip, error) {
	if text == "" {
		return nil, fmt.Errorf("empty narration text")
	}

	reqBody := map[string]interface{}{
		"model":           s.model,
		"voice":           s.voice,
		"input":           text,
		"response_format": "mp3",
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal speech request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create speech request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("speech request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2000))
		return nil, fmt.Errorf("speech API status %d: %s", resp.StatusCode, string(body))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read speech response: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("speech API returned empty audio")
	}

	return writeClip(ctx, s.outputDir, stem, s.voice, "mp3", audio, s.prober)
}

// VolcanoSynthesizer 走火山引擎 TTS 的语音合成
type VolcanoSynthesizer struct {
	client    *tts.Client
	outputDir string
	prober    DurationProber
}

// NewVolcanoSynthesizer 创建火山引擎语音合成器
func NewVolcanoSynthesizer(client *tts.Client, outputDir string, prober DurationProber) *VolcanoSynthesizer {
	return &VolcanoSynthesizer{
		client:    client,
		outputDir: outputDir,
		prober:    prober,
	}
}

func (s *VolcanoSynthesizer) Voice() string {
	return s.client.Voice()
}

// Synthesize 合成旁白并写入输出目录
func (s *VolcanoSynthesizer) Synthesize(ctx context.Context, text string, stem string) (*Clip, error) {
	if text == "" {
		return nil, fmt.Errorf("empty narration text")
	}

	result, err := s.client.Synthesize(ctx, text)
	if err != nil {
		return nil, err
	}

	clip, err := writeClip(ctx, s.outputDir, stem, s.client.Voice(), "mp3", result.AudioData, s.prober)
	if err != nil {
		return nil, err
	}
	// 接口自带时长时优先用接口的
	if result.Duration > 0 {
		clip.Duration = result.Duration
	}
	return clip, nil
}

// writeClip 将音频字节落盘并探测时长
// 文件名带纳秒时间戳和随机后缀，避免并发合成时互相覆盖
func writeClip(ctx context.Context, outputDir, stem, voice, ext string, audio []byte, prober DurationProber) (*Clip, error) {
	if outputDir == "" {
		outputDir = "./output/audio"
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	filename := id.AssetFilename(stem+"_"+voice, ext)
	path := filepath.Join(outputDir, filename)
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return nil, fmt.Errorf("write audio file: %w", err)
	}

	var duration float64
	if prober != nil {
		duration = prober.ProbeDuration(ctx, path)
	}

	log.Info().Str("path", path).Float64("duration", duration).Int("bytes", len(audio)).Msg("旁白音频已生成")
	return &Clip{
		Path:     path,
		URL:      "/static/audio/" + filename,
		Duration: duration,
	}, nil
}
