package engine

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"pomelo/internal/model/compose"
)

func TestTransitionWindow(t *testing.T) {
	Convey("转场窗口解析", t, func() {
		Convey("未配置转场是合法的硬切", func() {
			window, known := transitionWindow(compose.Transition{}, 5)
			So(window, ShouldEqual, 0.0)
			So(known, ShouldBeTrue)
		})

		Convey("已知效果返回配置的窗口时长", func() {
			window, known := transitionWindow(compose.Transition{Name: "fade", Duration: 1}, 5)
			So(window, ShouldEqual, 1.0)
			So(known, ShouldBeTrue)
		})

		Convey("未知效果回退为硬切", func() {
			window, known := transitionWindow(compose.Transition{Name: "star_wipe", Duration: 1}, 5)
			So(window, ShouldEqual, 0.0)
			So(known, ShouldBeFalse)
		})

		Convey("窗口不超过片段时长", func() {
			window, known := transitionWindow(compose.Transition{Name: "dissolve", Duration: 10}, 3)
			So(window, ShouldEqual, 3.0)
			So(known, ShouldBeTrue)
		})
	})
}

func TestPlanFades(t *testing.T) {
	Convey("转场淡化计划", t, func() {
		Convey("单个片段永远不产生转场", func() {
			clips := []*SceneClip{
				{SceneID: "s1", Duration: 5, ExitTransition: compose.Transition{Name: "fade", Duration: 1}},
			}
			plans, warnings := planFades(clips)

			So(plans, ShouldHaveLength, 1)
			So(plans[0].headFade, ShouldEqual, 0.0)
			So(plans[0].tailFade, ShouldEqual, 0.0)
			So(warnings, ShouldBeEmpty)
		})

		Convey("相邻场景之间应用前者出场和后者入场转场", func() {
			clips := []*SceneClip{
				{SceneID: "s1", Duration: 5, ExitTransition: compose.Transition{Name: "fade", Duration: 1}},
				{SceneID: "s2", Duration: 3, EntryTransition: compose.Transition{Name: "fade", Duration: 1}},
			}
			plans, warnings := planFades(clips)

			So(warnings, ShouldBeEmpty)
			// 场景1的最后1秒淡出，场景2的第一个1秒淡入，总时长不变
			So(plans[0].tailFade, ShouldEqual, 1.0)
			So(plans[0].headFade, ShouldEqual, 0.0)
			So(plans[1].headFade, ShouldEqual, 1.0)
			So(plans[1].tailFade, ShouldEqual, 0.0)
		})

		Convey("未知转场回退为硬切并记录警告", func() {
			clips := []*SceneClip{
				{SceneID: "s1", Duration: 5, ExitTransition: compose.Transition{Name: "star_wipe", Duration: 1}},
				{SceneID: "s2", Duration: 3},
			}
			plans, warnings := planFades(clips)

			So(plans[0].tailFade, ShouldEqual, 0.0)
			So(warnings, ShouldHaveLength, 1)
			So(warnings[0].Kind, ShouldEqual, WarnTransitionUnknown)
			So(warnings[0].SceneID, ShouldEqual, "s1")
		})

		Convey("中间场景同时有首尾淡化", func() {
			clips := []*SceneClip{
				{SceneID: "s1", Duration: 5, ExitTransition: compose.Transition{Name: "fade", Duration: 1}},
				{
					SceneID: "s2", Duration: 4,
					EntryTransition: compose.Transition{Name: "fade", Duration: 1},
					ExitTransition:  compose.Transition{Name: "dissolve", Duration: 0.5},
				},
				{SceneID: "s3", Duration: 3, EntryTransition: compose.Transition{Name: "dissolve", Duration: 0.5}},
			}
			plans, warnings := planFades(clips)

			So(warnings, ShouldBeEmpty)
			So(plans[1].headFade, ShouldEqual, 1.0)
			So(plans[1].tailFade, ShouldEqual, 0.5)
			So(plans[2].headFade, ShouldEqual, 0.5)
		})
	})
}
