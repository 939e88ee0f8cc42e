package engine

import (
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"pomelo/internal/model/compose"
)

func floatPtr(v float64) *float64 { return &v }

func TestSnapshot_Normalize(t *testing.T) {
	Convey("快照规范化", t, func() {
		Convey("场景按 order 升序，相同值按创建时间", func() {
			base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
			snap := &Snapshot{
				ProjectID: "p1",
				Scenes: []*SceneNode{
					{Scene: &compose.Scene{ID: "s3", Order: 2, CreatedAt: base}},
					{Scene: &compose.Scene{ID: "s2", Order: 1, CreatedAt: base.Add(time.Hour)}},
					{Scene: &compose.Scene{ID: "s1", Order: 1, CreatedAt: base}},
				},
			}

			snap.Normalize()

			So(snap.Scenes[0].Scene.ID, ShouldEqual, "s1")
			So(snap.Scenes[1].Scene.ID, ShouldEqual, "s2")
			So(snap.Scenes[2].Scene.ID, ShouldEqual, "s3")
		})

		Convey("资产按 layer 升序，相同值按资产ID升序保证确定性", func() {
			snap := &Snapshot{
				Scenes: []*SceneNode{
					{
						Scene: &compose.Scene{ID: "s1", Duration: 5},
						Assets: []*compose.Asset{
							{ID: "b", Layer: 1},
							{ID: "a", Layer: 1},
							{ID: "c", Layer: 0},
						},
					},
				},
			}

			snap.Normalize()

			assets := snap.Scenes[0].Assets
			So(assets[0].ID, ShouldEqual, "c")
			So(assets[1].ID, ShouldEqual, "a")
			So(assets[2].ID, ShouldEqual, "b")

			Convey("重复规范化结果一致", func() {
				snap.Normalize()
				So(snap.Scenes[0].Assets[0].ID, ShouldEqual, "c")
				So(snap.Scenes[0].Assets[1].ID, ShouldEqual, "a")
				So(snap.Scenes[0].Assets[2].ID, ShouldEqual, "b")
			})
		})
	})
}

func TestSnapshot_Validate(t *testing.T) {
	Convey("快照结构校验", t, func() {
		Convey("空快照是致命错误", func() {
			snap := &Snapshot{ProjectID: "p1"}
			err := snap.Validate()

			var renderErr *RenderError
			So(errors.As(err, &renderErr), ShouldBeTrue)
			So(renderErr.Kind, ShouldEqual, ErrKindInvalidSnapshot)
		})

		Convey("场景时长必须为正", func() {
			snap := &Snapshot{
				Scenes: []*SceneNode{
					{Scene: &compose.Scene{ID: "s1", Duration: 0}},
				},
			}
			err := snap.Validate()

			var renderErr *RenderError
			So(errors.As(err, &renderErr), ShouldBeTrue)
			So(renderErr.SceneID, ShouldEqual, "s1")
		})

		Convey("资产时间窗口超出场景时长是致命错误", func() {
			snap := &Snapshot{
				Scenes: []*SceneNode{
					{
						Scene: &compose.Scene{ID: "s1", Duration: 5},
						Assets: []*compose.Asset{
							{ID: "a1", TimelineStart: 0, TimelineEnd: floatPtr(7)},
						},
					},
				},
			}
			err := snap.Validate()

			var renderErr *RenderError
			So(errors.As(err, &renderErr), ShouldBeTrue)
			So(renderErr.Kind, ShouldEqual, ErrKindInvalidSnapshot)
			So(renderErr.SceneID, ShouldEqual, "s1")
			So(renderErr.AssetID, ShouldEqual, "a1")
		})

		Convey("窗口起点不能为负", func() {
			snap := &Snapshot{
				Scenes: []*SceneNode{
					{
						Scene: &compose.Scene{ID: "s1", Duration: 5},
						Assets: []*compose.Asset{
							{ID: "a1", TimelineStart: -1},
						},
					},
				},
			}
			So(snap.Validate(), ShouldNotBeNil)
		})

		Convey("空窗口是致命错误", func() {
			snap := &Snapshot{
				Scenes: []*SceneNode{
					{
						Scene: &compose.Scene{ID: "s1", Duration: 5},
						Assets: []*compose.Asset{
							{ID: "a1", TimelineStart: 3, TimelineEnd: floatPtr(3)},
						},
					},
				},
			}
			So(snap.Validate(), ShouldNotBeNil)
		})

		Convey("合法快照通过校验", func() {
			snap := &Snapshot{
				Scenes: []*SceneNode{
					{
						Scene: &compose.Scene{ID: "s1", Duration: 5},
						Assets: []*compose.Asset{
							{ID: "a1", TimelineStart: 0},
							{ID: "a2", TimelineStart: 1, TimelineEnd: floatPtr(4)},
						},
					},
				},
			}
			So(snap.Validate(), ShouldBeNil)
		})
	})
}

func TestResolveWindow(t *testing.T) {
	Convey("资产时间窗口解析", t, func() {
		Convey("终点缺省为场景时长", func() {
			asset := &compose.Asset{TimelineStart: 1}
			start, end := ResolveWindow(asset, 5)
			So(start, ShouldEqual, 1.0)
			So(end, ShouldEqual, 5.0)
		})

		Convey("窗口被裁剪到场景范围内", func() {
			asset := &compose.Asset{TimelineStart: -2, TimelineEnd: floatPtr(10)}
			start, end := ResolveWindow(asset, 5)
			So(start, ShouldEqual, 0.0)
			So(end, ShouldEqual, 5.0)
		})

		Convey("窗口内的终点原样保留", func() {
			asset := &compose.Asset{TimelineStart: 1, TimelineEnd: floatPtr(3)}
			start, end := ResolveWindow(asset, 5)
			So(start, ShouldEqual, 1.0)
			So(end, ShouldEqual, 3.0)
		})
	})
}
