package engine

import (
	"context"
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"pomelo/internal/model/compose"
)

// stubSource 测试用资产源
type stubSource struct {
	paths map[string]string
}

func (s *stubSource) Stage(ctx context.Context, resourceID string) (string, error) {
	if path, ok := s.paths[resourceID]; ok {
		return path, nil
	}
	return "", fmt.Errorf("resource %s not found", resourceID)
}

func TestAssetRenderer_RenderVisual(t *testing.T) {
	Convey("视觉资产渲染", t, func() {
		source := &stubSource{paths: map[string]string{"r1": "/tmp/r1.png"}}
		renderer := NewAssetRenderer(source, "")

		Convey("源文件缺失时跳过并产生警告", func() {
			asset := &compose.Asset{ID: "a1", Kind: compose.AssetKindImage, ResourceID: "missing"}
			unit, warn := renderer.RenderVisual(context.Background(), asset, 5)

			So(unit, ShouldBeNil)
			So(warn, ShouldNotBeNil)
			So(warn.Kind, ShouldEqual, WarnAssetSourceMissing)
			So(warn.AssetID, ShouldEqual, "a1")
		})

		Convey("不支持的类型跳过并产生警告", func() {
			asset := &compose.Asset{ID: "a1", Kind: compose.AssetKind("hologram")}
			unit, warn := renderer.RenderVisual(context.Background(), asset, 5)

			So(unit, ShouldBeNil)
			So(warn.Kind, ShouldEqual, WarnAssetKindUnknown)
		})

		Convey("图片资产生成定长循环输入和叠加窗口", func() {
			asset := &compose.Asset{
				ID: "a1", Kind: compose.AssetKindImage, ResourceID: "r1",
				X: 0.25, Y: 0.5, Scale: 2, Opacity: floatPtr(0.5),
				TimelineStart: 1, TimelineEnd: floatPtr(4),
			}
			unit, warn := renderer.RenderVisual(context.Background(), asset, 5)

			So(warn, ShouldBeNil)
			So(unit.Input, ShouldNotBeNil)
			So(unit.Input.Path, ShouldEqual, "/tmp/r1.png")
			So(unit.Input.Args, ShouldResemble, []string{"-loop", "1", "-t", "3"})
			So(unit.Start, ShouldEqual, 1.0)
			So(unit.End, ShouldEqual, 4.0)
			So(unit.Chain, ShouldContainSubstring, "scale=iw*2:ih*2")
			So(unit.Chain, ShouldContainSubstring, "colorchannelmixer=aa=0.5")
			So(unit.Chain, ShouldContainSubstring, "setpts=PTS-STARTPTS+1/TB")
		})

		Convey("视频资产先截断到时间窗口", func() {
			asset := &compose.Asset{
				ID: "a1", Kind: compose.AssetKindVideo, ResourceID: "r1",
				TimelineStart: 0, TimelineEnd: floatPtr(3),
			}
			unit, warn := renderer.RenderVisual(context.Background(), asset, 5)

			So(warn, ShouldBeNil)
			So(unit.Chain, ShouldContainSubstring, "trim=duration=3")
		})

		Convey("不透明度为0时渲染为完全透明", func() {
			asset := &compose.Asset{
				ID: "a1", Kind: compose.AssetKindImage, ResourceID: "r1",
				Opacity: floatPtr(0),
			}
			unit, warn := renderer.RenderVisual(context.Background(), asset, 5)

			So(warn, ShouldBeNil)
			So(unit.Chain, ShouldContainSubstring, "colorchannelmixer=aa=0")
		})

		Convey("不透明度缺省为完全不透明，越界值被钳制", func() {
			asset := &compose.Asset{
				ID: "a1", Kind: compose.AssetKindImage, ResourceID: "r1",
			}
			unit, _ := renderer.RenderVisual(context.Background(), asset, 5)
			So(unit.Chain, ShouldNotContainSubstring, "colorchannelmixer")

			asset.Opacity = floatPtr(1.5)
			unit, _ = renderer.RenderVisual(context.Background(), asset, 5)
			So(unit.Chain, ShouldNotContainSubstring, "colorchannelmixer")

			asset.Opacity = floatPtr(-0.5)
			unit, _ = renderer.RenderVisual(context.Background(), asset, 5)
			So(unit.Chain, ShouldContainSubstring, "colorchannelmixer=aa=0")
		})

		Convey("裁剪和旋转进入滤镜链", func() {
			asset := &compose.Asset{
				ID: "a1", Kind: compose.AssetKindImage, ResourceID: "r1",
				Rotation: 45,
				Crop:     &compose.CropRect{X: 0.1, Y: 0.1, Width: 0.8, Height: 0.8},
			}
			unit, _ := renderer.RenderVisual(context.Background(), asset, 5)

			So(unit.Chain, ShouldContainSubstring, "crop=iw*0.8:ih*0.8:iw*0.1:ih*0.1")
			So(unit.Chain, ShouldContainSubstring, "rotate=45*PI/180")
		})

		Convey("入场/出场动画在资产窗口内生效", func() {
			asset := &compose.Asset{
				ID: "a1", Kind: compose.AssetKindImage, ResourceID: "r1",
				TimelineStart: 1, TimelineEnd: floatPtr(4),
				Animation: &compose.Animation{Entry: "fade", Exit: "fade", Duration: 0.5},
			}
			unit, _ := renderer.RenderVisual(context.Background(), asset, 5)

			So(unit.Chain, ShouldContainSubstring, "fade=t=in:st=0:d=0.5:alpha=1")
			// 出场淡出从窗口末尾倒推：窗口3秒 - 0.5秒
			So(unit.Chain, ShouldContainSubstring, "fade=t=out:st=2.5:d=0.5:alpha=1")
		})

		Convey("文本资产无外部文件依赖", func() {
			asset := &compose.Asset{
				ID: "a1", Kind: compose.AssetKindText,
				X: 0.5, Y: 0.3,
				Text: &compose.TextStyle{Content: "标题", Size: 64, Color: "red", Alignment: compose.TextAlignCenter},
			}
			unit, warn := renderer.RenderVisual(context.Background(), asset, 5)

			So(warn, ShouldBeNil)
			So(unit.Input, ShouldBeNil)
			So(unit.DrawText, ShouldContainSubstring, "text='标题'")
			So(unit.DrawText, ShouldContainSubstring, "fontsize=64")
			So(unit.DrawText, ShouldContainSubstring, "fontcolor=red")
			So(unit.DrawText, ShouldContainSubstring, "x=w*0.5-text_w/2")
			So(unit.DrawText, ShouldContainSubstring, "enable='between(t,0,5)'")
		})

		Convey("文本内容为空时跳过并产生警告", func() {
			asset := &compose.Asset{ID: "a1", Kind: compose.AssetKindText}
			unit, warn := renderer.RenderVisual(context.Background(), asset, 5)

			So(unit, ShouldBeNil)
			So(warn.Kind, ShouldEqual, WarnAssetRenderFailed)
		})
	})
}

func TestAssetRenderer_RenderAudio(t *testing.T) {
	Convey("音频资产渲染", t, func() {
		source := &stubSource{paths: map[string]string{"r1": "/tmp/r1.mp3"}}
		renderer := NewAssetRenderer(source, "")

		Convey("音量、淡入淡出和窗口延迟进入滤镜链", func() {
			asset := &compose.Asset{
				ID: "a1", Kind: compose.AssetKindAudioTrack, ResourceID: "r1",
				TimelineStart: 2, TimelineEnd: floatPtr(6),
				Audio: &compose.AudioStyle{Volume: 0.8, FadeIn: 1, FadeOut: 1},
			}
			unit, warn := renderer.RenderAudio(context.Background(), asset, 10)

			So(warn, ShouldBeNil)
			So(unit.Chain, ShouldContainSubstring, "atrim=duration=4")
			So(unit.Chain, ShouldContainSubstring, "volume=0.8")
			So(unit.Chain, ShouldContainSubstring, "afade=t=in:st=0:d=1")
			So(unit.Chain, ShouldContainSubstring, "afade=t=out:st=3:d=1")
			So(unit.Chain, ShouldContainSubstring, "adelay=2000|2000")
		})

		Convey("循环音频使用 stream_loop 输入", func() {
			asset := &compose.Asset{
				ID: "a1", Kind: compose.AssetKindBackgroundMusic, ResourceID: "r1",
				Audio: &compose.AudioStyle{Volume: 1, Loop: true},
			}
			unit, warn := renderer.RenderAudio(context.Background(), asset, 10)

			So(warn, ShouldBeNil)
			So(unit.Input.Args, ShouldResemble, []string{"-stream_loop", "-1"})
		})

		Convey("源文件缺失时跳过并产生警告", func() {
			asset := &compose.Asset{ID: "a1", Kind: compose.AssetKindAudioTrack, ResourceID: "missing"}
			unit, warn := renderer.RenderAudio(context.Background(), asset, 10)

			So(unit, ShouldBeNil)
			So(warn.Kind, ShouldEqual, WarnAssetSourceMissing)
		})
	})
}

func TestEscapeDrawText(t *testing.T) {
	Convey("drawtext 文本转义", t, func() {
		So(escapeDrawText("a:b"), ShouldEqual, `a\:b`)
		So(escapeDrawText("100%"), ShouldEqual, `100\%`)
		So(escapeDrawText("普通文本"), ShouldEqual, "普通文本")
	})
}

func TestFormatFloat(t *testing.T) {
	Convey("浮点参数格式化", t, func() {
		So(formatFloat(5), ShouldEqual, "5")
		So(formatFloat(1.5), ShouldEqual, "1.5")
		So(formatFloat(0.3333333), ShouldEqual, "0.3333")
		So(formatFloat(0), ShouldEqual, "0")
	})
}
