package story

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

// fakeGen 固定返回预置文本的 TextGenerator
type fakeGen struct {
	out string
	err error
}

func (f *fakeGen) Complete(_ context.Context, _, _ string) (string, error) {
	return f.out, f.err
}

func TestSegmenter_Segment(t *testing.T) {
	ctx := context.Background()
	text := "One fish swims. Two fish jump. Red fish sleeps."

	Convey("Segmenter.Segment 能把模型输出规整为有序场景", t, func() {
		Convey("场景编号统一重排为 1..N，与模型回显无关", func() {
			gen := &fakeGen{out: `[
				{"scene_id": 7, "scene_summary": "A fish swims", "source_sentence_indices": [1], "source_sentences": ["One fish swims."]},
				{"scene_id": 9, "scene_summary": "Fish jump", "source_sentence_indices": [2], "source_sentences": ["Two fish jump."]}
			]`}
			scenes, err := NewSegmenter(gen).Segment(ctx, text, 8)
			So(err, ShouldBeNil)
			So(len(scenes), ShouldEqual, 2)
			So(scenes[0].SceneID, ShouldEqual, 1)
			So(scenes[1].SceneID, ShouldEqual, 2)
		})

		Convey("超过 maxScenes 的记录被截断", func() {
			gen := &fakeGen{out: `[
				{"scene_id": 1, "scene_summary": "a"},
				{"scene_id": 2, "scene_summary": "b"},
				{"scene_id": 3, "scene_summary": "c"}
			]`}
			scenes, err := NewSegmenter(gen).Segment(ctx, text, 2)
			So(err, ShouldBeNil)
			So(len(scenes), ShouldEqual, 2)
			So(scenes[1].SceneSummary, ShouldEqual, "b")
		})

		Convey("markdown 代码块包裹的 JSON 能正常解析", func() {
			gen := &fakeGen{out: "```json\n[{\"scene_id\": 1, \"scene_summary\": \"fenced\"}]\n```"}
			scenes, err := NewSegmenter(gen).Segment(ctx, text, 8)
			So(err, ShouldBeNil)
			So(len(scenes), ShouldEqual, 1)
			So(scenes[0].SceneSummary, ShouldEqual, "fenced")
		})

		Convey("JSON 数组混在说明文字里也能提取", func() {
			gen := &fakeGen{out: `Here are the scenes: [{"scene_id": 1, "scene_summary": "embedded"}] hope that helps!`}
			scenes, err := NewSegmenter(gen).Segment(ctx, text, 8)
			So(err, ShouldBeNil)
			So(len(scenes), ShouldEqual, 1)
			So(scenes[0].SceneSummary, ShouldEqual, "embedded")
		})

		Convey("完全不是 JSON 时返回 MalformedOutputError", func() {
			gen := &fakeGen{out: "I am sorry, I cannot split this text."}
			_, err := NewSegmenter(gen).Segment(ctx, text, 8)
			So(err, ShouldNotBeNil)
			var malformed *MalformedOutputError
			So(errors.As(err, &malformed), ShouldBeTrue)
		})

		Convey("兼容 summary/source_indices/sources 字段别名", func() {
			gen := &fakeGen{out: `[{"scene_id": 1, "summary": "alias summary", "source_indices": [1], "sources": ["One fish swims."]}]`}
			scenes, err := NewSegmenter(gen).Segment(ctx, text, 8)
			So(err, ShouldBeNil)
			So(scenes[0].SceneSummary, ShouldEqual, "alias summary")
			So(scenes[0].SourceSentenceIndices, ShouldResemble, []int{1})
		})

		Convey("越界下标被丢弃，缺失的原句按下标从句子表补齐", func() {
			gen := &fakeGen{out: `[{"scene_id": 1, "scene_summary": "s", "source_sentence_indices": [1, 99]}]`}
			scenes, err := NewSegmenter(gen).Segment(ctx, text, 8)
			So(err, ShouldBeNil)
			So(scenes[0].SourceSentenceIndices, ShouldResemble, []int{1})
			So(scenes[0].SourceSentences, ShouldResemble, []string{"One fish swims."})
		})

		Convey("下标和原句长度对齐时原句原样保留", func() {
			gen := &fakeGen{out: `[{"scene_id": 1, "scene_summary": "s", "source_sentence_indices": [2], "source_sentences": ["Two fish jump."]}]`}
			scenes, err := NewSegmenter(gen).Segment(ctx, text, 8)
			So(err, ShouldBeNil)
			So(scenes[0].SourceSentences, ShouldResemble, []string{"Two fish jump."})
		})

		Convey("模型调用失败时原样报错", func() {
			gen := &fakeGen{err: errors.New("rate limited")}
			_, err := NewSegmenter(gen).Segment(ctx, text, 8)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "rate limited")
		})
	})
}
