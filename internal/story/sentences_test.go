package story

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSentenceSplitter_Split(t *testing.T) {
	Convey("SentenceSplitter.Split 能切分中英文句子", t, func() {
		splitter := NewSentenceSplitter()

		Convey("英文句子按结束符切分，结束符保留在句尾", func() {
			out := splitter.Split("One fish swims. Two fish jump! Red fish sleeps?")
			So(out, ShouldResemble, []string{"One fish swims.", "Two fish jump!", "Red fish sleeps?"})
		})

		Convey("中文句子按中文结束符切分", func() {
			out := splitter.Split("小鱼在游。小鱼跳了起来！")
			So(out, ShouldResemble, []string{"小鱼在游。", "小鱼跳了起来！"})
		})

		Convey("没有结束符的尾部内容保留为最后一句", func() {
			out := splitter.Split("First sentence. trailing words")
			So(out, ShouldResemble, []string{"First sentence.", "trailing words"})
		})

		Convey("空文本返回空表", func() {
			So(splitter.Split(""), ShouldBeEmpty)
			So(splitter.Split("   \n  "), ShouldBeEmpty)
		})
	})
}
