package model

// SegmentRequest 文本分段请求
type SegmentRequest struct {
	Text      string `json:"text" binding:"required"`
	MaxScenes int    `json:"max_scenes"`
}

// SegmentResponse 文本分段响应
type SegmentResponse struct {
	Scenes []Scene `json:"scenes"`
}

// GenerateImageRequest 单图生成请求（测试用）
type GenerateImageRequest struct {
	Prompt string `json:"prompt" binding:"required"`
	Seed   *int64 `json:"seed,omitempty"`
}

// GenerateImageResponse 单图生成响应
type GenerateImageResponse struct {
	ImageURL string `json:"image_url"`
}

// GenerateVisualsRequest 完整流水线请求
type GenerateVisualsRequest struct {
	Text      string `json:"text" binding:"required"`
	MaxScenes int    `json:"max_scenes"`
}

// GenerateVisualsResponse 完整流水线响应
type GenerateVisualsResponse struct {
	Title  string  `json:"title,omitempty"`
	Scenes []Scene `json:"scenes"`
}

// GenerateVisualsWithAudioResponse 带逐场景旁白的流水线响应
type GenerateVisualsWithAudioResponse struct {
	Title  string           `json:"title,omitempty"`
	Scenes []SceneWithAudio `json:"scenes"`
}

// GenerateVisualsSingleAudioResponse 带合并音轨的流水线响应
type GenerateVisualsSingleAudioResponse struct {
	Title           string          `json:"title,omitempty"`
	AudioURL        string          `json:"audio_url"`
	DurationSeconds float64         `json:"duration_seconds"`
	Timeline        []TimelineEntry `json:"timeline"`
	Scenes          []Scene         `json:"scenes"`
}

// OCRFromImageURLRequest 图片OCR请求（按URL）
type OCRFromImageURLRequest struct {
	ImageURL   string `json:"image_url" binding:"required"`
	PromptHint string `json:"prompt_hint,omitempty"`
}

// OCRTextResponse 图片OCR响应
type OCRTextResponse struct {
	ExtractedText string `json:"extracted_text"`
}

// VisualsFromImageURLRequest 图片驱动的流水线请求（OCR后直接生成）
type VisualsFromImageURLRequest struct {
	ImageURL   string `json:"image_url" binding:"required"`
	MaxScenes  int    `json:"max_scenes"`
	PromptHint string `json:"prompt_hint,omitempty"`
}

// VisualsFromImageResponse 图片驱动的流水线响应
type VisualsFromImageResponse struct {
	ExtractedText string                  `json:"extracted_text"`
	Result        GenerateVisualsResponse `json:"result"`
}
