package pipeline

import "seequence/internal/model"

// 流式运行中的事件类型
const (
	EventSegmented      = "segmented"
	EventSummarized     = "summarized"
	EventPrompt         = "prompt"
	EventImageStart     = "image_start"
	EventImageDone      = "image_done"
	EventNarrationStart = "narration_start"
	EventNarrationDone  = "narration_done"
	EventMergeStart     = "merge_start"
	EventMergeDone      = "merge_done"
	EventComplete       = "complete"
	EventError          = "error"
)

// Event 流式流水线对外推送的事件
// 终态要么是一个 complete，要么是一个 error，不会两者都有
type Event struct {
	Type          string                `json:"type"`
	SceneID       int                   `json:"scene_id,omitempty"`
	Title         string                `json:"title,omitempty"`
	GlobalSummary string                `json:"global_summary,omitempty"`
	Scene         *model.Scene          `json:"scene,omitempty"`
	Scenes        []model.Scene         `json:"scenes,omitempty"`
	Prompt        string                `json:"prompt,omitempty"`
	ImageURL      string                `json:"image_url,omitempty"`
	AudioURL      string                `json:"audio_url,omitempty"`
	Duration      float64               `json:"duration_seconds,omitempty"`
	Timeline      []model.TimelineEntry `json:"timeline,omitempty"`
	Error         string                `json:"error,omitempty"`
	ErrorKind     string                `json:"error_kind,omitempty"`
}

// 错误事件的分类，计费错误单独标出方便前端提示充值
const (
	ErrorKindBilling  = "billing"
	ErrorKindUpstream = "upstream"
)
