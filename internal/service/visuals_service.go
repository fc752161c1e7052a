package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"seequence/internal/config"
	"seequence/internal/imagegen"
	"seequence/internal/llm"
	"seequence/internal/model"
	"seequence/internal/narration"
	"seequence/internal/pipeline"
	"seequence/internal/story"
)

// ErrNoNarration 所有场景旁白合成都失败时返回
var ErrNoNarration = fmt.Errorf("no narration produced")

// VisualsService 可视化服务
// 用途：把文本切分成场景、生成图像提示词和图片，按需合成旁白并合并音轨
type VisualsService struct {
	segmenter   *story.Segmenter
	prompter    *story.Prompter
	images      imagegen.Provider
	runner      pipeline.Runner
	streamer    *pipeline.ImperativePipeline
	synthesizer narration.Synthesizer
	merger      *narration.Merger
	llmClient   *llm.Client
	cfg         *config.PipelineConfig
}

// NewVisualsService 创建可视化服务
func NewVisualsService(
	segmenter *story.Segmenter,
	prompter *story.Prompter,
	images imagegen.Provider,
	runner pipeline.Runner,
	streamer *pipeline.ImperativePipeline,
	synthesizer narration.Synthesizer,
	merger *narration.Merger,
	llmClient *llm.Client,
	cfg *config.PipelineConfig,
) *VisualsService {
	return &VisualsService{
		segmenter:   segmenter,
		prompter:    prompter,
		images:      images,
		runner:      runner,
		streamer:    streamer,
		synthesizer: synthesizer,
		merger:      merger,
		llmClient:   llmClient,
		cfg:         cfg,
	}
}

// Segment 仅做场景切分，不生成提示词和图片
func (s *VisualsService) Segment(ctx context.Context, text string, maxScenes int) ([]model.Scene, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("text is required")
	}
	return s.segmenter.Segment(ctx, text, maxScenes)
}

// GenerateImage 按提示词生成单张图片
func (s *VisualsService) GenerateImage(ctx context.Context, prompt string, seed *int64) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", fmt.Errorf("prompt is required")
	}
	return s.images.Generate(ctx, prompt, seed)
}

// GenerateVisuals 执行完整流水线：切分、摘要、提示词、出图
func (s *VisualsService) GenerateVisuals(ctx context.Context, text string, maxScenes int) (*model.GenerateVisualsResponse, error) {
	state, err := s.run(ctx, text, maxScenes)
	if err != nil {
		return nil, err
	}
	return &model.GenerateVisualsResponse{
		Title:  state.Title,
		Scenes: state.Scenes,
	}, nil
}

// GenerateVisualsWithAudio 完整流水线加逐场景旁白
// 单场景合成失败只降级该场景的音频字段，不影响整体结果
func (s *VisualsService) GenerateVisualsWithAudio(ctx context.Context, text string, maxScenes int) (*model.GenerateVisualsWithAudioResponse, error) {
	state, err := s.run(ctx, text, maxScenes)
	if err != nil {
		return nil, err
	}

	scenes := make([]model.SceneWithAudio, 0, len(state.Scenes))
	for _, scene := range state.Scenes {
		sw := model.SceneWithAudio{Scene: scene}
		clip := s.synthesizeScene(ctx, scene)
		if clip != nil {
			sw.AudioURL = clip.URL
			dur := clip.Duration
			sw.AudioDurationSeconds = &dur
		}
		scenes = append(scenes, sw)
	}

	return &model.GenerateVisualsWithAudioResponse{
		Title:  state.Title,
		Scenes: scenes,
	}, nil
}

// GenerateVisualsSingleAudio 完整流水线加合并为单条音轨的旁白
// 所有场景合成都失败时返回 ErrNoNarration；部分失败的场景不出现在时间轴里
func (s *VisualsService) GenerateVisualsSingleAudio(ctx context.Context, text string, maxScenes int) (*model.GenerateVisualsSingleAudioResponse, error) {
	state, err := s.run(ctx, text, maxScenes)
	if err != nil {
		return nil, err
	}

	clips := make([]narration.MergeInput, 0, len(state.Scenes))
	for _, scene := range state.Scenes {
		clip := s.synthesizeScene(ctx, scene)
		if clip == nil {
			continue
		}
		clips = append(clips, narration.MergeInput{SceneID: scene.SceneID, Path: clip.Path})
	}
	if len(clips) == 0 {
		return nil, ErrNoNarration
	}

	merged, err := s.merger.Merge(ctx, clips, "narration")
	if err != nil {
		return nil, err
	}

	return &model.GenerateVisualsSingleAudioResponse{
		Title:           state.Title,
		AudioURL:        merged.URL,
		DurationSeconds: merged.Duration,
		Timeline:        merged.Timeline,
		Scenes:          state.Scenes,
	}, nil
}

// StreamVisuals 流式执行流水线，事件通道在结束时关闭
// 图像阶段的事件来自流式流水线，旁白与合并阶段在其 complete 之后由本层补充
func (s *VisualsService) StreamVisuals(ctx context.Context, text string, maxScenes int) <-chan pipeline.Event {
	out := make(chan pipeline.Event, 16)

	go func() {
		defer close(out)

		emit := func(e pipeline.Event) bool {
			select {
			case out <- e:
				return true
			case <-ctx.Done():
				return false
			}
		}

		state := s.newState(text, maxScenes)
		var final *pipeline.Event
		for ev := range s.streamer.RunStream(ctx, state) {
			if ev.Type == pipeline.EventComplete {
				evCopy := ev
				final = &evCopy
				break
			}
			if !emit(ev) {
				return
			}
			if ev.Type == pipeline.EventError {
				return
			}
		}
		if final == nil {
			return
		}

		// 出图完成后逐场景合成旁白并合并音轨，失败只降级不终止
		clips := make([]narration.MergeInput, 0, len(state.Scenes))
		for _, scene := range state.Scenes {
			if !emit(pipeline.Event{Type: pipeline.EventNarrationStart, SceneID: scene.SceneID}) {
				return
			}
			clip := s.synthesizeScene(ctx, scene)
			ev := pipeline.Event{Type: pipeline.EventNarrationDone, SceneID: scene.SceneID}
			if clip != nil {
				ev.AudioURL = clip.URL
				ev.Duration = clip.Duration
				clips = append(clips, narration.MergeInput{SceneID: scene.SceneID, Path: clip.Path})
			}
			if !emit(ev) {
				return
			}
		}

		if len(clips) > 0 {
			if !emit(pipeline.Event{Type: pipeline.EventMergeStart}) {
				return
			}
			merged, err := s.merger.Merge(ctx, clips, "narration")
			if err != nil {
				log.Warn().Err(err).Msg("流式旁白合并失败，结果不带合并音轨")
			} else {
				if !emit(pipeline.Event{Type: pipeline.EventMergeDone, AudioURL: merged.URL, Duration: merged.Duration, Timeline: merged.Timeline}) {
					return
				}
				final.AudioURL = merged.URL
				final.Duration = merged.Duration
				final.Timeline = merged.Timeline
			}
		}

		final.Scenes = state.Scenes
		emit(*final)
	}()

	return out
}

// ExtractTextFromImageURL 从图片URL提取文字
func (s *VisualsService) ExtractTextFromImageURL(ctx context.Context, imageURL, hint string) (string, error) {
	if strings.TrimSpace(imageURL) == "" {
		return "", fmt.Errorf("image_url is required")
	}
	return s.llmClient.ExtractTextFromImageURL(ctx, imageURL, hint)
}

// ExtractTextFromImageBytes 从上传的图片字节提取文字
func (s *VisualsService) ExtractTextFromImageBytes(ctx context.Context, contentType string, data []byte, hint string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("image data is required")
	}
	return s.llmClient.ExtractTextFromImageBytes(ctx, contentType, data, hint)
}

// VisualsFromText OCR结果直接喂给完整流水线
func (s *VisualsService) VisualsFromText(ctx context.Context, extractedText string, maxScenes int) (*model.VisualsFromImageResponse, error) {
	extractedText = strings.TrimSpace(extractedText)
	if extractedText == "" {
		return nil, fmt.Errorf("no text extracted from image")
	}
	result, err := s.GenerateVisuals(ctx, extractedText, maxScenes)
	if err != nil {
		return nil, err
	}
	return &model.VisualsFromImageResponse{
		ExtractedText: extractedText,
		Result:        *result,
	}, nil
}

func (s *VisualsService) run(ctx context.Context, text string, maxScenes int) (*pipeline.RunState, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("text is required")
	}
	return s.runner.Run(ctx, s.newState(text, maxScenes))
}

func (s *VisualsService) newState(text string, maxScenes int) *pipeline.RunState {
	return &pipeline.RunState{
		Text:       text,
		MaxScenes:  maxScenes,
		StyleGuide: s.cfg.StyleGuide,
	}
}

// synthesizeScene 为单个场景合成旁白，任何失败都降级为无音频
func (s *VisualsService) synthesizeScene(ctx context.Context, scene model.Scene) *narration.Clip {
	if s.synthesizer == nil {
		return nil
	}
	text := narrationText(scene)
	if text == "" {
		return nil
	}
	clip, err := s.synthesizer.Synthesize(ctx, text, fmt.Sprintf("scene_%d", scene.SceneID))
	if err != nil {
		log.Warn().Err(err).Int("scene_id", scene.SceneID).Msg("旁白合成失败，该场景不带音频")
		return nil
	}
	return clip
}

// narrationText 场景的旁白文本：优先原文句子拼接，退回场景概要
func narrationText(scene model.Scene) string {
	if len(scene.SourceSentences) > 0 {
		return strings.Join(scene.SourceSentences, " ")
	}
	return strings.TrimSpace(scene.SceneSummary)
}
