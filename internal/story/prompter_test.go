package story

import (
	"context"
	"errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

// routingGen 按系统提示词路由返回值的 TextGenerator
type routingGen struct {
	bySystem map[string]string
	byErr    map[string]error
	lastUser string
}

func (r *routingGen) Complete(_ context.Context, system, user string) (string, error) {
	r.lastUser = user
	if err, ok := r.byErr[system]; ok {
		return "", err
	}
	return r.bySystem[system], nil
}

func TestPrompter_GenerateTitle(t *testing.T) {
	ctx := context.Background()

	Convey("Prompter.GenerateTitle 生成并清理标题", t, func() {
		Convey("完整包裹的引号对被去掉", func() {
			gen := &routingGen{bySystem: map[string]string{titleSystemPrompt: `"The Sun"`}}
			title, err := NewPrompter(gen, "").GenerateTitle(ctx, "about the sun", 80)
			So(err, ShouldBeNil)
			So(title, ShouldEqual, "The Sun")
		})

		Convey("句中的单引号保持原样", func() {
			gen := &routingGen{bySystem: map[string]string{titleSystemPrompt: "Sam's Trip"}}
			title, err := NewPrompter(gen, "").GenerateTitle(ctx, "a trip", 80)
			So(err, ShouldBeNil)
			So(title, ShouldEqual, "Sam's Trip")
		})

		Convey("超长标题按字符数硬截断并以省略号结尾", func() {
			gen := &routingGen{bySystem: map[string]string{titleSystemPrompt: strings.Repeat("a", 120)}}
			title, err := NewPrompter(gen, "").GenerateTitle(ctx, "long", 80)
			So(err, ShouldBeNil)
			So(len([]rune(title)), ShouldEqual, 80)
			So(strings.HasSuffix(title, "…"), ShouldBeTrue)
		})
	})
}

func TestPrompter_SummarizeGlobalContext(t *testing.T) {
	ctx := context.Background()

	Convey("Prompter.SummarizeGlobalContext 遵守字符预算", t, func() {
		Convey("预算内的摘要原样返回", func() {
			gen := &routingGen{bySystem: map[string]string{summarySystemPrompt: "A short story about fish."}}
			summary, err := NewPrompter(gen, "").SummarizeGlobalContext(ctx, "text", 50)
			So(err, ShouldBeNil)
			So(summary, ShouldEqual, "A short story about fish.")
		})

		Convey("超预算的摘要被截断", func() {
			gen := &routingGen{bySystem: map[string]string{summarySystemPrompt: strings.Repeat("x", 500)}}
			summary, err := NewPrompter(gen, "").SummarizeGlobalContext(ctx, "text", 50)
			So(err, ShouldBeNil)
			So(len([]rune(summary)), ShouldEqual, 50)
		})
	})
}

func TestPrompter_WritePrompt(t *testing.T) {
	ctx := context.Background()

	Convey("Prompter.WritePrompt 合成场景提示词", t, func() {
		Convey("有原句引用时关键事实清单前置到用户消息", func() {
			gen := &routingGen{bySystem: map[string]string{
				keyFactsSystemPrompt: "- the fish is red",
				promptSystemPrompt:   "A red fish swims in gentle water.",
			}}
			p := NewPrompter(gen, "soft colors")
			out, err := p.WritePrompt(ctx, PromptInput{
				SceneSummary:    "A fish swims",
				SourceSentences: []string{"The red fish swims."},
			})
			So(err, ShouldBeNil)
			So(out, ShouldEqual, "A red fish swims in gentle water.")
			So(gen.lastUser, ShouldContainSubstring, "Key facts to preserve:")
			So(gen.lastUser, ShouldContainSubstring, "- the fish is red")
			So(gen.lastUser, ShouldContainSubstring, "soft colors")
		})

		Convey("事实提取失败时静默继续", func() {
			gen := &routingGen{
				bySystem: map[string]string{promptSystemPrompt: "A plain prompt."},
				byErr:    map[string]error{keyFactsSystemPrompt: errors.New("boom")},
			}
			out, err := NewPrompter(gen, "").WritePrompt(ctx, PromptInput{
				SceneSummary:    "A fish swims",
				SourceSentences: []string{"The red fish swims."},
			})
			So(err, ShouldBeNil)
			So(out, ShouldEqual, "A plain prompt.")
			So(gen.lastUser, ShouldNotContainSubstring, "Key facts to preserve:")
		})

		Convey("显式风格指南优先于默认值", func() {
			gen := &routingGen{bySystem: map[string]string{promptSystemPrompt: "out"}}
			_, err := NewPrompter(gen, "default style").WritePrompt(ctx, PromptInput{
				SceneSummary: "scene",
				StyleGuide:   "explicit style",
			})
			So(err, ShouldBeNil)
			So(gen.lastUser, ShouldContainSubstring, "explicit style")
			So(gen.lastUser, ShouldNotContainSubstring, "default style")
		})
	})
}
