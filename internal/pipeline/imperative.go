package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"seequence/internal/imagegen"
	"seequence/internal/story"
)

// ImperativePipeline 不走编排框架的流水线实现
// 批处理变体并发出图、首错取消；流式变体逐场景顺序推进并推送事件
type ImperativePipeline struct {
	segmenter      Segmenter
	prompter       Prompter
	images         ImageProvider
	maxConcurrency int
}

// NewImperativePipeline 创建命令式流水线
func NewImperativePipeline(segmenter Segmenter, prompter Prompter, images ImageProvider, maxConcurrency int) *ImperativePipeline {
	if maxConcurrency < 1 {
		maxConcurrency = 4
	}
	return &ImperativePipeline{
		segmenter:      segmenter,
		prompter:       prompter,
		images:         images,
		maxConcurrency: maxConcurrency,
	}
}

// Run 批处理执行：切分、摘要、提示词顺序，图像并发
// 与图式策略不同，任一场景出图失败会取消其余场景并整体报错
func (p *ImperativePipeline) Run(ctx context.Context, state *RunState) (*RunState, error) {
	scenes, err := p.segmenter.Segment(ctx, state.Text, state.MaxScenes)
	if err != nil {
		return nil, err
	}
	state.Scenes = scenes

	p.fillSummaries(ctx, state)

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

	if err := p.generateImages(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// generateImages 并发为各场景出图，channel 信号量控制并发数
// 首个失败通过 context 取消其余场景并原样向上返回
func (p *ImperativePipeline) generateImages(ctx context.Context, state *RunState) error {
	genCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	semaphore := make(chan struct{}, p.maxConcurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i := range state.Scenes {
		scene := &state.Scenes[i]
		if scene.Prompt == "" {
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}:
			case <-genCtx.Done():
				return
			}
			defer func() { <-semaphore }()

			url, err := p.images.Generate(genCtx, scene.Prompt, state.Seed)
			if err != nil {
				if genCtx.Err() != nil && !isBilling(err) {
					return
				}
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("scene %d: %w", scene.SceneID, err)
					cancel()
				}
				mu.Unlock()
				return
			}
			scene.ImageURL = url
		}()
	}

	wg.Wait()
	return firstErr
}

// RunStream 流式执行：逐场景顺序推进，进度通过事件通道对外推送
// 通道在 goroutine 结束时关闭；任何图像失败都以唯一的 error 终态事件收尾
func (p *ImperativePipeline) RunStream(ctx context.Context, state *RunState) <-chan Event {
	events := make(chan Event, 16)

	go func() {
		defer close(events)

		emit := func(e Event) bool {
			select {
			case events <- e:
				return true
			case <-ctx.Done():
				return false
			}
		}
		fail := func(err error) {
			kind := ErrorKindUpstream
			if isBilling(err) {
				kind = ErrorKindBilling
			}
			log.Error().Err(err).Str("kind", kind).Msg("流式流水线中止")
			emit(Event{Type: EventError, Error: err.Error(), ErrorKind: kind})
		}

		scenes, err := p.segmenter.Segment(ctx, state.Text, state.MaxScenes)
		if err != nil {
			fail(err)
			return
		}
		state.Scenes = scenes
		if !emit(Event{Type: EventSegmented, Scenes: scenes}) {
			return
		}

		p.fillSummaries(ctx, state)
		if !emit(Event{Type: EventSummarized, Title: state.Title, GlobalSummary: state.GlobalSummary}) {
			return
		}

		for i := range state.Scenes {
			scene := &state.Scenes[i]

			prompt, err := p.prompter.WritePrompt(ctx, story.PromptInput{
				SceneSummary:    scene.SceneSummary,
				GlobalSummary:   state.GlobalSummary,
				StyleGuide:      state.StyleGuide,
				SourceSentences: scene.SourceSentences,
			})
			if err != nil {
				fail(fmt.Errorf("scene %d: %w", scene.SceneID, err))
				return
			}
			scene.Prompt = prompt
			if !emit(Event{Type: EventPrompt, SceneID: scene.SceneID, Prompt: prompt}) {
				return
			}

			if !emit(Event{Type: EventImageStart, SceneID: scene.SceneID}) {
				return
			}
			url, err := p.images.Generate(ctx, scene.Prompt, state.Seed)
			if err != nil {
				fail(fmt.Errorf("scene %d: %w", scene.SceneID, err))
				return
			}
			scene.ImageURL = url
			if !emit(Event{Type: EventImageDone, SceneID: scene.SceneID, ImageURL: url}) {
				return
			}
		}

		emit(Event{Type: EventComplete, Title: state.Title, Scenes: state.Scenes})
	}()

	return events
}

// fillSummaries 标题与全局摘要，均为尽力而为
func (p *ImperativePipeline) fillSummaries(ctx context.Context, state *RunState) {
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
}

func isBilling(err error) bool {
	var billing *imagegen.BillingCreditError
	return errors.As(err, &billing)
}
