package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"pomelo/internal/engine"
	modelrender "pomelo/internal/model/render"
)

func TestClassifyOutcome(t *testing.T) {
	Convey("渲染结果到任务终态的映射", t, func() {
		Convey("无错误时任务完成", func() {
			status, jobErr := classifyOutcome(nil)
			So(status, ShouldEqual, modelrender.JobStatusCompleted)
			So(jobErr, ShouldBeNil)
		})

		Convey("上下文取消映射为已取消，不携带结构化错误", func() {
			status, jobErr := classifyOutcome(context.Canceled)
			So(status, ShouldEqual, modelrender.JobStatusCancelled)
			So(jobErr, ShouldBeNil)
		})

		Convey("包装过的取消错误同样映射为已取消", func() {
			status, jobErr := classifyOutcome(fmt.Errorf("render: %w", context.Canceled))
			So(status, ShouldEqual, modelrender.JobStatusCancelled)
			So(jobErr, ShouldBeNil)
		})

		Convey("渲染错误映射为失败并保留错误分类", func() {
			renderErr := &engine.RenderError{
				Kind:    engine.ErrKindSceneRender,
				SceneID: "s1",
				AssetID: "a1",
				Message: "compose scene clip",
			}

			status, jobErr := classifyOutcome(renderErr)
			So(status, ShouldEqual, modelrender.JobStatusFailed)
			So(jobErr, ShouldNotBeNil)
			So(jobErr.Kind, ShouldEqual, "scene_render")
			So(jobErr.SceneID, ShouldEqual, "s1")
			So(jobErr.AssetID, ShouldEqual, "a1")
		})

		Convey("包装过的渲染错误通过 errors.As 解出分类", func() {
			wrapped := fmt.Errorf("pipeline: %w", &engine.RenderError{
				Kind:    engine.ErrKindEncode,
				Message: "encode output",
			})

			status, jobErr := classifyOutcome(wrapped)
			So(status, ShouldEqual, modelrender.JobStatusFailed)
			So(jobErr.Kind, ShouldEqual, "encode")
		})

		Convey("未知错误归为 internal 分类", func() {
			status, jobErr := classifyOutcome(errors.New("boom"))
			So(status, ShouldEqual, modelrender.JobStatusFailed)
			So(jobErr.Kind, ShouldEqual, "internal")
			So(jobErr.Message, ShouldEqual, "boom")
		})
	})
}
