package pipeline

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	"seequence/internal/story"
)

// GraphPipeline 基于 Eino 编排的可视化流水线
// 各阶段串成一条 Chain：切分 -> 全局摘要 -> 提示词 -> 图像
// 图像阶段逐场景容错：单个场景失败只丢图，不中断整次运行
type GraphPipeline struct {
	segmenter Segmenter
	prompter  Prompter
	images    ImageProvider
	runnable  compose.Runnable[*RunState, *RunState]
}

// NewGraphPipeline 编译流水线 Chain
func NewGraphPipeline(ctx context.Context, segmenter Segmenter, prompter Prompter, images ImageProvider) (*GraphPipeline, error) {
	p := &GraphPipeline{
		segmenter: segmenter,
		prompter:  prompter,
		images:    images,
	}

	chain := compose.NewChain[*RunState, *RunState]()
	chain.AppendLambda(compose.InvokableLambda(p.segmentStage))
	chain.AppendLambda(compose.InvokableLambda(p.summarizeStage))
	chain.AppendLambda(compose.InvokableLambda(p.promptStage))
	chain.AppendLambda(compose.InvokableLambda(p.imageStage))

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile pipeline chain: %w", err)
	}
	p.runnable = runnable
	return p, nil
}

// Run 执行一次完整的可视化流水线
func (p *GraphPipeline) Run(ctx context.Context, state *RunState) (*RunState, error) {
	return p.runnable.Invoke(ctx, state)
}

func (p *GraphPipeline) segmentStage(ctx context.Context, state *RunState) (*RunState, error) {
	scenes, err := p.segmenter.Segment(ctx, state.Text, state.MaxScenes)
	if err != nil {
		return nil, err
	}
	state.Scenes = scenes
	log.Info().Int("scenes", len(scenes)).Msg("场景切分完成")
	return state, nil
}

func (p *GraphPipeline) summarizeStage(ctx context.Context, state *RunState) (*RunState, error) {
	// 标题和全局摘要都是尽力而为，失败不影响后续阶段
	if title, err := p.prompter.GenerateTitle(ctx, state.Text, 0); err == nil {
		state.Title = title
	} else {
		log.Warn().Err(err).Msg("标题生成失败，使用空标题")
	}
	if summary, err := p.prompter.SummarizeGlobalContext(ctx, state.Text, 0); err == nil {
		state.GlobalSummary = summary
	} else {
		log.Warn().Err(err).Msg("全局摘要生成失败，使用空摘要")
	}
	return state, nil
}

func (p *GraphPipeline) promptStage(ctx context.Context, state *RunState) (*RunState, error) {
	for i := range state.Scenes {
		scene := &state.Scenes[i]
		prompt, err := p.prompter.WritePrompt(ctx, story.PromptInput{
			SceneSummary:    scene.SceneSummary,
			GlobalSummary:   state.GlobalSummary,
			StyleGuide:      state.StyleGuide,
			SourceSentences: scene.SourceSentences,
		})
		if err != nil {
			return nil, fmt.Errorf("write prompt for scene %d: %w", scene.SceneID, err)
		}
		scene.Prompt = prompt
	}
	return state, nil
}

func (p *GraphPipeline) imageStage(ctx context.Context, state *RunState) (*RunState, error) {
	for i := range state.Scenes {
		scene := &state.Scenes[i]
		if scene.Prompt == "" {
			continue
		}
		url, err := p.images.Generate(ctx, scene.Prompt, state.Seed)
		if err != nil {
			// 单场景失败不终止运行，该场景不带图返回
			log.Warn().Err(err).Int("scene_id", scene.SceneID).Msg("场景图像生成失败")
			continue
		}
		scene.ImageURL = url
	}
	return state, nil
}
