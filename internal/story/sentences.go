package story

import (
	"strings"

	"github.com/go-ego/gse"
)

// SentenceSplitter 句子分割器
// 把输入文本切成有序句子表，场景的 source_sentence_indices 以此为准（1-based）
type SentenceSplitter struct {
	maxRunLength int            // 无标点长串的最大字符数，超过按词边界切
	segmenter    *gse.Segmenter // gse 分词器
}

// NewSentenceSplitter 创建句子分割器实例
func NewSentenceSplitter() *SentenceSplitter {
	// 初始化 gse 分词器，失败时降级为整串保留
	var seg *gse.Segmenter
	if s, err := gse.New(); err == nil {
		seg = &s
	}

	return &SentenceSplitter{
		maxRunLength: 200,
		segmenter:    seg,
	}
}

// 中英文句子结束符
var sentenceEndings = []rune{'。', '！', '？', '；', '…', '.', '!', '?', ';'}

// Split 按句子结束符切分文本，返回有序句子表
// 对没有任何结束符的超长串，使用 gse 词边界切分，避免词组被裁断
func (ss *SentenceSplitter) Split(text string) []string {
	sentences := splitByEndings(text, sentenceEndings)

	var out []string
	for _, sentence := range sentences {
		if len([]rune(sentence)) <= ss.maxRunLength {
			out = append(out, sentence)
			continue
		}
		out = append(out, ss.splitLongRun(sentence)...)
	}
	return out
}

// splitByEndings 按结束符切分，结束符保留在句尾
func splitByEndings(text string, endings []rune) []string {
	var sentences []string
	var current strings.Builder

	for _, char := range text {
		current.WriteRune(char)
		if containsRune(endings, char) {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

// splitLongRun 切分没有结束符的超长串
// 使用 gse 分词获取词边界，逐词累积到上限
func (ss *SentenceSplitter) splitLongRun(run string) []string {
	var words []string
	if ss.segmenter != nil {
		words = ss.segmenter.Cut(run, false)
	} else {
		// 降级：没有分词器时整串保留
		return []string{run}
	}

	var segments []string
	var current strings.Builder
	for _, word := range words {
		if len([]rune(current.String()))+len([]rune(word)) > ss.maxRunLength && current.Len() > 0 {
			segments = append(segments, strings.TrimSpace(current.String()))
			current.Reset()
		}
		current.WriteString(word)
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		segments = append(segments, s)
	}
	return segments
}

func containsRune(runes []rune, r rune) bool {
	for _, c := range runes {
		if c == r {
			return true
		}
	}
	return false
}
