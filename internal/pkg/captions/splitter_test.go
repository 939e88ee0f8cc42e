package captions

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSplitter_Split(t *testing.T) {
	Convey("字幕分割", t, func() {
		splitter := NewSplitter(12)

		Convey("分词器初始化成功", func() {
			So(splitter.segmenter, ShouldNotBeNil)
		})

		Convey("空文本返回空结果", func() {
			So(splitter.Split(""), ShouldBeEmpty)
			So(splitter.Split("   "), ShouldBeEmpty)
		})

		Convey("按句子结束符分割", func() {
			lines := splitter.Split("你好世界。今天天气不错。")
			So(lines, ShouldResemble, []string{"你好世界。", "今天天气不错。"})
		})

		Convey("短句保持完整", func() {
			lines := splitter.Split("一句短话")
			So(lines, ShouldHaveLength, 1)
			So(lines[0], ShouldEqual, "一句短话")
		})

		Convey("超长句子被分割且每行不超过限制", func() {
			splitter := NewSplitter(6)
			lines := splitter.Split("这是一段没有任何标点符号的很长很长的旁白文本内容")
			So(len(lines), ShouldBeGreaterThan, 1)
			for _, line := range lines {
				So(runeLen(line), ShouldBeLessThanOrEqualTo, 6)
			}
		})
	})
}

func TestSplitter_SplitTimed(t *testing.T) {
	Convey("字幕时间分配", t, func() {
		splitter := NewSplitter(12)

		Convey("空文本无字幕", func() {
			So(splitter.SplitTimed("", 5.0), ShouldBeEmpty)
		})

		Convey("时间轴连续且覆盖总时长", func() {
			lines := splitter.SplitTimed("你好世界。今天天气不错。出门走走吧。", 9.0)
			So(len(lines), ShouldBeGreaterThan, 1)

			So(lines[0].Start, ShouldEqual, 0.0)
			So(lines[len(lines)-1].End, ShouldEqual, 9.0)
			for i := 1; i < len(lines); i++ {
				So(lines[i].Start, ShouldEqual, lines[i-1].End)
			}
			for _, line := range lines {
				So(line.End, ShouldBeGreaterThan, line.Start)
			}
		})

		Convey("较长的行获得较多时间", func() {
			lines := splitter.SplitTimed("短句。这是一个明显更长的句子。", 10.0)
			So(lines, ShouldHaveLength, 2)
			So(lines[1].End-lines[1].Start, ShouldBeGreaterThan, lines[0].End-lines[0].Start)
		})
	})
}
