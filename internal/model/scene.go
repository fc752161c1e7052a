package model

// Scene 一段可视化的故事情节
// 由分段器创建，提示词合成与图片生成按阶段填充字段；SceneID 在单次运行内从1开始连续编号
type Scene struct {
	SceneID      int    `json:"scene_id"`
	SceneSummary string `json:"scene_summary"`
	Prompt       string `json:"prompt,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
	// 场景引用的原文句子（1-based 下标与原句文本，两者长度一致）
	SourceSentenceIndices []int    `json:"source_sentence_indices,omitempty"`
	SourceSentences       []string `json:"source_sentences,omitempty"`
}

// SceneWithAudio 带旁白音频的场景
// 音频合成失败时 AudioURL 为空、时长为 nil，不影响其余场景
type SceneWithAudio struct {
	Scene
	AudioURL             string   `json:"audio_url,omitempty"`
	AudioDurationSeconds *float64 `json:"audio_duration_seconds,omitempty"`
}

// TimelineEntry 合并音轨中单个场景的时间轴条目
// start_sec 严格等于前一条的 start_sec + duration_sec，无间隙无重叠
type TimelineEntry struct {
	SceneID     int     `json:"scene_id"`
	StartSec    float64 `json:"start_sec"`
	DurationSec float64 `json:"duration_sec"`
}
