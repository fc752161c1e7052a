package story

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"seequence/internal/llm"
)

const keyFactsSystemPrompt = "Extract the most important concrete facts to preserve in an illustration. " +
	"Prefer names, dates, locations, quantities, colors, distinctive objects, and relationships."

const promptSystemPrompt = "You are a prompt engineer creating concise, concrete prompts for an illustration model. " +
	"Avoid text in images and watermarks. Keep critical details from the scene summary (names, numbers, locations, " +
	"distinctive items, colors, and relationships) so the image stays informative."

const summarySystemPrompt = "You write a single concise summary capturing overall narrative, recurring characters, " +
	"setting, and tone for consistent visuals."

const titleSystemPrompt = "You craft concise, engaging educational titles that summarize the core topic precisely."

// Prompter 提示词合成器
// 把场景摘要（加全局上下文、风格指南、原句引用）转成单句图片生成指令
type Prompter struct {
	gen               llm.TextGenerator
	defaultStyleGuide string
}

// NewPrompter 创建提示词合成器
// defaultStyleGuide 在调用方没有显式传入风格指南时生效
func NewPrompter(gen llm.TextGenerator, defaultStyleGuide string) *Prompter {
	return &Prompter{
		gen:               gen,
		defaultStyleGuide: defaultStyleGuide,
	}
}

// PromptInput 单个场景的提示词合成输入
type PromptInput struct {
	SceneSummary    string
	GlobalSummary   string   // 跨场景一致性的全局上下文（可空）
	StyleGuide      string   // 显式风格指南，空则用默认配置
	SourceSentences []string // 原文句子引用（可空）
}

// WritePrompt 生成单个场景的图片提示词
// 有原句引用时先尽力提取关键事实清单，前置到引用文本，提升画面的事实保真度
func (p *Prompter) WritePrompt(ctx context.Context, in PromptInput) (string, error) {
	styleGuide := in.StyleGuide
	if styleGuide == "" {
		styleGuide = p.defaultStyleGuide
	}

	references := strings.Join(in.SourceSentences, "\n")
	if len(in.SourceSentences) > 0 {
		if facts := p.ExtractKeyFacts(ctx, in.SceneSummary, in.SourceSentences, 6); facts != "" {
			references = "Key facts to preserve:\n" + facts + "\n\n" + references
		}
	}

	user := fmt.Sprintf(
		"Create a single-sentence image prompt for this scene (35-60 words, present tense).\n"+
			"Global context (for consistency across scenes): %s\n"+
			"Style guide: %s\n"+
			"Reference snippets from the original text (verbatim, for factual fidelity):\n%s\n"+
			"Scene: %s\n"+
			"Constraints: kid-friendly, dyslexia-friendly visuals, consistent characters/props; "+
			"avoid text overlays; include composition cues; preserve concrete facts and attributes from the scene.",
		in.GlobalSummary, styleGuide, references, in.SceneSummary,
	)

	out, err := p.gen.Complete(ctx, promptSystemPrompt, user)
	if err != nil {
		return "", fmt.Errorf("generate visual prompt: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// ExtractKeyFacts 提取关键事实清单（尽力而为）
// 任何失败都静默返回空串，调用方在没有事实清单时照常继续
func (p *Prompter) ExtractKeyFacts(ctx context.Context, sceneSummary string, sourceSentences []string, maxFacts int) string {
	if maxFacts <= 0 {
		maxFacts = 6
	}

	user := fmt.Sprintf(
		"Scene summary: %s\n\nReference snippets (verbatim):\n%s\n\nReturn %d bullets maximum. Keep each bullet under 12 words.",
		sceneSummary, strings.Join(sourceSentences, "\n"), maxFacts,
	)

	facts, err := p.gen.Complete(ctx, keyFactsSystemPrompt, user)
	if err != nil {
		log.Debug().Err(err).Msg("key facts extraction failed, continuing without facts")
		return ""
	}
	return strings.TrimSpace(facts)
}

// SummarizeGlobalContext 生成全文的1-2句全局摘要
// 超出字符预算时硬截断并追加省略号
func (p *Prompter) SummarizeGlobalContext(ctx context.Context, text string, maxChars int) (string, error) {
	if maxChars <= 0 {
		maxChars = 400
	}

	user := fmt.Sprintf(
		"Summarize the following text into 1-2 sentences (hard limit %d characters) for global visual context.\n\n%s",
		maxChars, text,
	)

	out, err := p.gen.Complete(ctx, summarySystemPrompt, user)
	if err != nil {
		return "", fmt.Errorf("summarize global context: %w", err)
	}
	return truncateWithEllipsis(strings.TrimSpace(out), maxChars), nil
}

// GenerateTitle 生成全文的短标题
// 去掉完整包裹的引号对，超出字符预算时硬截断并追加省略号
func (p *Prompter) GenerateTitle(ctx context.Context, text string, maxChars int) (string, error) {
	if maxChars <= 0 {
		maxChars = 80
	}

	user := fmt.Sprintf(
		"Write a short textbook chapter title (max %d chars) for the following content. Avoid quotes.\n\n%s",
		maxChars, text,
	)

	title, err := p.gen.Complete(ctx, titleSystemPrompt, user)
	if err != nil {
		return "", fmt.Errorf("generate title: %w", err)
	}

	title = truncateWithEllipsis(strings.TrimSpace(title), maxChars)
	return stripWrappingQuotes(title), nil
}

// truncateWithEllipsis 按字符数硬截断，截断时以省略号结尾
func truncateWithEllipsis(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars-1]) + "…"
}

// stripWrappingQuotes 去掉首尾完整配对的引号
// 只处理整体包裹的情况，句中的单个引号保持原样
func stripWrappingQuotes(s string) string {
	runes := []rune(s)
	if len(runes) < 2 {
		return s
	}
	first, last := runes[0], runes[len(runes)-1]
	isQuote := func(r rune) bool { return r == '"' || r == '\'' }
	if isQuote(first) && isQuote(last) {
		return strings.TrimSpace(string(runes[1 : len(runes)-1]))
	}
	return s
}
