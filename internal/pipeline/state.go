package pipeline

import (
	"context"

	"seequence/internal/model"
	"seequence/internal/story"
)

// Segmenter 文本切分为场景
type Segmenter interface {
	Segment(ctx context.Context, text string, maxScenes int) ([]model.Scene, error)
}

// Prompter 提示词与摘要生成
type Prompter interface {
	WritePrompt(ctx context.Context, input story.PromptInput) (string, error)
	SummarizeGlobalContext(ctx context.Context, text string, maxChars int) (string, error)
	GenerateTitle(ctx context.Context, text string, maxChars int) (string, error)
}

// ImageProvider 图像生成
type ImageProvider interface {
	Generate(ctx context.Context, prompt string, seed *int64) (string, error)
}

// Runner 可视化流水线的批处理入口，图式与命令式策略都实现它
type Runner interface {
	Run(ctx context.Context, state *RunState) (*RunState, error)
}

// RunState 一次可视化流水线运行的状态，由各阶段依次填充
type RunState struct {
	// 输入
	Text       string
	MaxScenes  int
	StyleGuide string
	Seed       *int64

	// 各阶段产物
	Title         string
	GlobalSummary string
	Scenes        []model.Scene
}
