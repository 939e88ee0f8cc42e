package engine

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestResolveProfile(t *testing.T) {
	Convey("质量预设解析", t, func() {
		Convey("四档预设都能解析", func() {
			for _, name := range []string{"low", "medium", "high", "ultra"} {
				profile, ok := ResolveProfile(name)
				So(ok, ShouldBeTrue)
				So(profile.Name, ShouldEqual, name)
				So(profile.Width, ShouldBeGreaterThan, 0)
				So(profile.Height, ShouldBeGreaterThan, 0)
				So(profile.FPS, ShouldBeGreaterThan, 0)
			}
		})

		Convey("未知质量名称回退到 high 预设，不拒绝任务", func() {
			fallback, ok := ResolveProfile("cinema_8k")
			So(ok, ShouldBeFalse)

			high, _ := ResolveProfile("high")
			So(fallback, ShouldResemble, high)
		})

		Convey("分辨率字符串为 宽x高", func() {
			profile, _ := ResolveProfile("high")
			So(profile.Resolution(), ShouldEqual, "1920x1080")
		})
	})
}
