package story

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"seequence/internal/llm"
	"seequence/internal/model"
)

const segmentSystemPrompt = "You are a skilled story editor for visual learners. " +
	"Split the user's text into at most %d clear story beats. Each beat should be a short, " +
	"concrete scene that is visually depictable. Preserve important factual details (names, " +
	"dates, places, numbers, distinctive objects, colors, and actions). Avoid over-summarizing; " +
	"retain concrete nouns and attributes that help the illustrator keep accuracy. Also, for " +
	"each scene, list which original sentences (by 1-based index) you used and include their exact text snippets."

const segmentUserPrompt = "Text:\n\n%s\n\nRespond as a JSON array of objects with fields: " +
	"scene_id (1-based), scene_summary (<= 30 words), source_sentence_indices (array of 1-based integers), " +
	"source_sentences (array of strings)."

// Segmenter 场景分段器
// 通过 LLM 把原始文本切成有序的故事情节，并做结构校验与修复
type Segmenter struct {
	gen       llm.TextGenerator
	sentences *SentenceSplitter
}

// NewSegmenter 创建场景分段器
func NewSegmenter(gen llm.TextGenerator) *Segmenter {
	return &Segmenter{
		gen:       gen,
		sentences: NewSentenceSplitter(),
	}
}

// rawScene 模型返回的单条场景记录
// 兼容模型常见的字段别名（summary / source_indices / sources）
type rawScene struct {
	SceneID               int      `json:"scene_id"`
	SceneSummary          string   `json:"scene_summary"`
	Summary               string   `json:"summary"`
	SourceSentenceIndices []int    `json:"source_sentence_indices"`
	SourceIndices         []int    `json:"source_indices"`
	SourceSentences       []string `json:"source_sentences"`
	Sources               []string `json:"sources"`
}

// Segment 把文本切成至多 maxScenes 个场景（不含提示词与图片字段）
// 场景编号与模型回显无关，统一重排为 1..N；单条记录缺字段时降级为空值而不是整体失败
func (s *Segmenter) Segment(ctx context.Context, text string, maxScenes int) ([]model.Scene, error) {
	if maxScenes <= 0 {
		maxScenes = 8
	}

	raw, err := s.gen.Complete(ctx,
		fmt.Sprintf(segmentSystemPrompt, maxScenes),
		fmt.Sprintf(segmentUserPrompt, text),
	)
	if err != nil {
		return nil, fmt.Errorf("segment text: %w", err)
	}

	records, err := parseSceneArray(raw)
	if err != nil {
		return nil, err
	}

	sentenceList := s.sentences.Split(text)

	scenes := make([]model.Scene, 0, len(records))
	for i, item := range records {
		if i >= maxScenes {
			break
		}

		summary := item.SceneSummary
		if summary == "" {
			summary = item.Summary
		}
		indices := item.SourceSentenceIndices
		if len(indices) == 0 {
			indices = item.SourceIndices
		}
		snippets := item.SourceSentences
		if len(snippets) == 0 {
			snippets = item.Sources
		}

		indices, snippets = repairSources(indices, snippets, sentenceList)

		scenes = append(scenes, model.Scene{
			SceneID:               i + 1,
			SceneSummary:          summary,
			SourceSentenceIndices: indices,
			SourceSentences:       snippets,
		})
	}

	log.Debug().
		Int("scenes", len(scenes)).
		Int("max_scenes", maxScenes).
		Msg("text segmented into scenes")

	return scenes, nil
}

// parseSceneArray 解析模型返回的 JSON 数组
// 先清理 markdown 代码块标记，失败后尝试提取 [...] 子串，再失败返回 MalformedOutputError
func parseSceneArray(raw string) ([]rawScene, error) {
	cleaned := cleanJSONContent(raw)

	var records []rawScene
	if err := json.Unmarshal([]byte(cleaned), &records); err == nil {
		return records, nil
	}

	match := jsonArrayPattern.FindString(cleaned)
	if match == "" {
		return nil, newMalformedOutputError(raw)
	}
	if err := json.Unmarshal([]byte(match), &records); err != nil {
		return nil, newMalformedOutputError(raw)
	}
	return records, nil
}

var jsonArrayPattern = regexp.MustCompile(`(?s)\[.*\]`)

var markdownFencePattern = regexp.MustCompile(`(?s)^\s*` + "```" + `(?:json)?\s*\n(.*?)\n\s*` + "```" + `\s*$`)

// cleanJSONContent 清理 LLM 返回的 JSON 内容
// 移除 markdown 代码块标记
func cleanJSONContent(content string) string {
	content = strings.TrimSpace(content)

	if matches := markdownFencePattern.FindStringSubmatch(content); len(matches) > 1 {
		content = matches[1]
	}

	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

// repairSources 校验并修复原句引用
// 越界下标被丢弃；有下标没原句时从本地句子表补齐；两者长度对齐
func repairSources(indices []int, snippets []string, sentenceList []string) ([]int, []string) {
	if len(indices) == 0 {
		if snippets == nil {
			snippets = []string{}
		}
		return []int{}, snippets
	}

	valid := make([]int, 0, len(indices))
	for _, idx := range indices {
		if idx >= 1 && idx <= len(sentenceList) {
			valid = append(valid, idx)
		}
	}

	if len(snippets) == len(valid) && len(valid) == len(indices) {
		return valid, snippets
	}

	// 模型给了下标但原句缺失或不对齐，按下标从句子表取回
	filled := make([]string, 0, len(valid))
	for _, idx := range valid {
		filled = append(filled, sentenceList[idx-1])
	}
	return valid, filled
}
