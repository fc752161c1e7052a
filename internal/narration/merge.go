package narration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"seequence/internal/model"
	"seequence/internal/pkg/ffmpeg"
	"seequence/internal/pkg/id"
)

// MergeResult 合并多段旁白后的结果
type MergeResult struct {
	Path     string
	URL      string
	Duration float64
	Timeline []model.TimelineEntry
}

// Merger 旁白片段合并，基于 ffmpeg concat
type Merger struct {
	ffmpeg    *ffmpeg.Client
	prober    DurationProber
	outputDir string
}

// NewMerger 创建旁白合并器
func NewMerger(ff *ffmpeg.Client, prober DurationProber, outputDir string) *Merger {
	return &Merger{
		ffmpeg:    ff,
		prober:    prober,
		outputDir: outputDir,
	}
}

// MergeInput 待合并的一段旁白
type MergeInput struct {
	SceneID int
	Path    string
}

// Merge 按顺序合并旁白片段，返回合并文件与各场景在总音轨中的时间轴
// 时间轴基于合并前的逐段时长累加，合并失败直接报错，不做降级
func (m *Merger) Merge(ctx context.Context, clips []MergeInput, stem string) (*MergeResult, error) {
	if len(clips) == 0 {
		return nil, fmt.Errorf("no audio clips to merge")
	}
	if err := m.ffmpeg.Available(); err != nil {
		return nil, err
	}

	// 先逐段探测时长，累加得到每个场景的起点
	durations := make([]float64, len(clips))
	paths := make([]string, len(clips))
	for i, c := range clips {
		durations[i] = m.prober.ProbeDuration(ctx, c.Path)
		paths[i] = c.Path
	}
	timeline, cursor := buildTimeline(clips, durations)

	outputDir := m.outputDir
	if outputDir == "" {
		outputDir = "./output/audio"
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	filename := id.AssetFilename(stem+"_full", "mp3")
	outPath := filepath.Join(outputDir, filename)

	if err := m.ffmpeg.ConcatAudio(ctx, paths, outPath); err != nil {
		return nil, fmt.Errorf("merge audio: %w", err)
	}

	// 总时长以合并后文件实测为准，探测失败退回累加值
	total := m.prober.ProbeDuration(ctx, outPath)
	if total <= 0 {
		total = cursor
	}

	log.Info().Int("clips", len(clips)).Float64("duration", total).Str("path", outPath).Msg("旁白合并完成")
	return &MergeResult{
		Path:     outPath,
		URL:      "/static/audio/" + filename,
		Duration: total,
		Timeline: timeline,
	}, nil
}

// buildTimeline 按片段顺序累加时长，生成无间隙无重叠的时间轴
// 返回时间轴和累计总时长
func buildTimeline(clips []MergeInput, durations []float64) ([]model.TimelineEntry, float64) {
	timeline := make([]model.TimelineEntry, 0, len(clips))
	cursor := 0.0
	for i, c := range clips {
		timeline = append(timeline, model.TimelineEntry{
			SceneID:     c.SceneID,
			StartSec:    cursor,
			DurationSec: durations[i],
		})
		cursor += durations[i]
	}
	return timeline, cursor
}
