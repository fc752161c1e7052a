package config

import (
	"errors"
	"time"
)

// Config 应用配置根结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	AI       AIConfig       `mapstructure:"ai"`
	Image    ImageConfig    `mapstructure:"image"`
	TTS      TTSConfig      `mapstructure:"tts"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Log      LogConfig      `mapstructure:"log"`
	Storage  StorageConfig  `mapstructure:"storage"`
	CORS     CORSConfig     `mapstructure:"cors"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// AIConfig 文本生成（LLM）配置
type AIConfig struct {
	Provider string          `mapstructure:"provider"` // openai | azure | ark
	APIKey   string          `mapstructure:"api_key"`
	Model    string          `mapstructure:"model"`
	BaseURL  string          `mapstructure:"base_url"`
	Options  AIOptionsConfig `mapstructure:"options"`
}

// AIOptionsConfig LLM 模型参数
type AIOptionsConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	TopP        float64 `mapstructure:"top_p"`
}

// ImageConfig 图片生成配置
// Provider 选择进程生命周期内唯一的后端：replicate（托管模型运行器）或 ark（直连模型 API）
type ImageConfig struct {
	Provider  string          `mapstructure:"provider"` // replicate | ark
	Replicate ReplicateConfig `mapstructure:"replicate"`
	Ark       ArkImageConfig  `mapstructure:"ark"`
}

// ReplicateConfig Replicate 托管模型运行器配置
type ReplicateConfig struct {
	APIToken    string        `mapstructure:"api_token"`
	Model       string        `mapstructure:"model"` // 如 black-forest-labs/flux-1.1-pro
	Timeout     time.Duration `mapstructure:"timeout"`
	AspectRatio string        `mapstructure:"aspect_ratio"` // 如 "16:9"，与宽高二选一
	Width       int           `mapstructure:"width"`
	Height      int           `mapstructure:"height"`
}

// ArkImageConfig Ark 图片生成配置（直连模型 API，结果落盘）
type ArkImageConfig struct {
	APIKey    string   `mapstructure:"api_key"`
	Model     string   `mapstructure:"model"`
	BaseURL   string   `mapstructure:"base_url"`
	Size      string   `mapstructure:"size"`      // 首选输出尺寸，如 "1280x720"
	Fallbacks []string `mapstructure:"fallbacks"` // 尺寸被拒绝时按序降级
}

// TTSConfig 旁白语音合成配置
type TTSConfig struct {
	Provider  string `mapstructure:"provider"` // openai | volcano
	Model     string `mapstructure:"model"`
	Voice     string `mapstructure:"voice"`
	APIKey    string `mapstructure:"api_key"`
	APIURL    string `mapstructure:"api_url"`
	AppID     string `mapstructure:"app_id"`  // volcano 专用
	Cluster   string `mapstructure:"cluster"` // volcano 专用
	OutputDir string `mapstructure:"output_dir"`
}

// PipelineConfig 生成流水线配置
type PipelineConfig struct {
	Engine         string `mapstructure:"engine"`          // graph | imperative
	MaxConcurrency int    `mapstructure:"max_concurrency"` // 图片生成并发上限
	StyleGuide     string `mapstructure:"style_guide"`     // 注入每个场景提示词的默认风格指南
}

// LogConfig 日志配置 (Zerolog)
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	TimeFormat string `mapstructure:"time_format"`
}

// StorageConfig 生成资源（音频/图片）的存储配置
type StorageConfig struct {
	Type  string       `mapstructure:"type"` // local, oss
	Local *LocalConfig `mapstructure:"local,omitempty"`
	OSS   *OSSConfig   `mapstructure:"oss,omitempty"`
}

// LocalConfig 本地文件系统配置
type LocalConfig struct {
	BasePath string `mapstructure:"base_path"` // 基础路径
	BaseURL  string `mapstructure:"base_url"`  // 基础URL（用于生成访问URL）
}

// OSSConfig 阿里云OSS配置
type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	PresignExpiry   int    `mapstructure:"presign_expiry"` // 预签名URL过期时间（秒）
}

// CORSConfig 跨域访问配置
type CORSConfig struct {
	Origins     []string `mapstructure:"origins"`      // 允许的来源，["*"] 表示全部
	OriginRegex string   `mapstructure:"origin_regex"` // 可选：来源正则，优先于 Origins
}

// Validate 验证配置有效性
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("invalid server port")
	}

	validModes := map[string]bool{"debug": true, "release": true, "test": true}
	if !validModes[c.Server.Mode] {
		return errors.New("invalid server mode, must be debug/release/test")
	}

	switch c.Image.Provider {
	case "replicate", "ark":
	default:
		return errors.New("invalid image provider, must be replicate/ark")
	}

	switch c.Pipeline.Engine {
	case "graph", "imperative":
	default:
		return errors.New("invalid pipeline engine, must be graph/imperative")
	}

	if c.Pipeline.MaxConcurrency <= 0 {
		return errors.New("pipeline max_concurrency must be positive")
	}

	return nil
}
