package engine

import (
	"context"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"pomelo/internal/model/compose"
	"pomelo/internal/pkg/captions"
	"pomelo/internal/pkg/ffmpeg"
	"pomelo/internal/pkg/narration"
)

// stubNarrator 测试用旁白提供方
type stubNarrator struct {
	speech *narration.Speech
	err    error
}

func (s *stubNarrator) Synthesize(ctx context.Context, text string, voice narration.VoiceConfig) (*narration.Speech, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.speech, nil
}

func newTestCompositor(narrator narration.Provider) *SceneCompositor {
	source := &stubSource{paths: map[string]string{}}
	return NewSceneCompositor(
		ffmpeg.NewClient(),
		NewAssetRenderer(source, ""),
		narrator,
		captions.NewSplitter(12),
		0,
		"",
	)
}

func TestSceneCompositor_AddNarration(t *testing.T) {
	Convey("旁白合成", t, func() {
		profile, _ := ResolveProfile("high")
		scene := &compose.Scene{ID: "s1", Duration: 5, NarrationText: "你好，世界。"}

		Convey("合成成功时加入音轨和字幕", func() {
			c := newTestCompositor(&stubNarrator{speech: &narration.Speech{
				AudioData: []byte("mp3"),
				Duration:  4,
			}})

			graph := &ffmpeg.FilterGraph{}
			var filters []string
			var audioLabels []string
			var warnings []Warning
			overlayIdx := 0

			out := c.addNarration(context.Background(), graph, &filters, scene, profile,
				t.TempDir(), "bg", &overlayIdx, &audioLabels, &warnings)

			So(warnings, ShouldBeEmpty)
			So(audioLabels, ShouldHaveLength, 1)
			So(len(graph.Inputs), ShouldEqual, 1)
			So(strings.Join(filters, ";"), ShouldContainSubstring, "drawtext")
			So(out, ShouldNotEqual, "bg")
		})

		Convey("提供方返回数字人画面时叠加在最顶层", func() {
			c := newTestCompositor(&stubNarrator{speech: &narration.Speech{
				AudioData: []byte("mp3"),
				Duration:  4,
				Overlay:   []byte("mp4"),
			}})

			graph := &ffmpeg.FilterGraph{}
			var filters []string
			var audioLabels []string
			var warnings []Warning
			overlayIdx := 0

			out := c.addNarration(context.Background(), graph, &filters, scene, profile,
				t.TempDir(), "bg", &overlayIdx, &audioLabels, &warnings)

			So(warnings, ShouldBeEmpty)
			// 旁白音频 + 数字人视频两个输入
			So(len(graph.Inputs), ShouldEqual, 2)
			So(graph.Inputs[1].Path, ShouldContainSubstring, "avatar_s1.mp4")

			joined := strings.Join(filters, ";")
			So(joined, ShouldContainSubstring, "overlay=x=W-w-32:y=H-h-32")
			// 数字人叠加是最后一个画面滤镜，输出标签即最终标签
			So(filters[len(filters)-1], ShouldContainSubstring, "["+out+"]")
			So(filters[len(filters)-1], ShouldContainSubstring, "overlay=")
		})

		Convey("能力不可用时降级为无旁白并记录警告", func() {
			c := newTestCompositor(&stubNarrator{err: narration.ErrUnavailable})

			graph := &ffmpeg.FilterGraph{}
			var filters []string
			var audioLabels []string
			var warnings []Warning
			overlayIdx := 0

			out := c.addNarration(context.Background(), graph, &filters, scene, profile,
				t.TempDir(), "bg", &overlayIdx, &audioLabels, &warnings)

			So(out, ShouldEqual, "bg")
			So(graph.Inputs, ShouldBeEmpty)
			So(audioLabels, ShouldBeEmpty)
			So(warnings, ShouldHaveLength, 1)
			So(warnings[0].Kind, ShouldEqual, WarnNarrationSkipped)
			So(warnings[0].SceneID, ShouldEqual, "s1")
		})
	})
}
