package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"pomelo/internal/model/compose"
	"pomelo/internal/pkg/ffmpeg"
)

// SceneClip 一个已合成的场景片段
type SceneClip struct {
	SceneID         string
	Path            string
	Duration        float64
	EntryTransition compose.Transition
	ExitTransition  compose.Transition
}

// fadePlan 单个片段首尾的淡化窗口（秒，0表示硬切）
type fadePlan struct {
	headFade float64
	tailFade float64
}

// 支持的转场效果，都实现为片段边缘的淡入淡出
var knownTransitions = map[string]bool{
	"fade":      true,
	"crossfade": true,
	"dissolve":  true,
}

// transitionWindow 解析转场配置为淡化窗口时长
// 不认识的效果名称按硬切处理（窗口为0），返回 false
func transitionWindow(t compose.Transition, clipDuration float64) (float64, bool) {
	if t.Name == "" {
		return 0, true // 未配置转场不算未知
	}
	if !knownTransitions[t.Name] {
		return 0, false
	}
	window := t.Duration
	if window <= 0 {
		return 0, true
	}
	if window > clipDuration {
		window = clipDuration
	}
	return window, true
}

// planFades 计算每个片段的首尾淡化窗口
// 相邻场景之间应用前者的出场转场和后者的入场转场；单个片段永远不产生转场
func planFades(clips []*SceneClip) ([]fadePlan, []Warning) {
	plans := make([]fadePlan, len(clips))
	var warnings []Warning

	if len(clips) < 2 {
		return plans, nil
	}

	for i := 0; i < len(clips)-1; i++ {
		exit := clips[i].ExitTransition
		if window, known := transitionWindow(exit, clips[i].Duration); known {
			plans[i].tailFade = window
		} else {
			warnings = append(warnings, Warning{
				Kind:    WarnTransitionUnknown,
				SceneID: clips[i].SceneID,
				Message: fmt.Sprintf("unknown exit transition %q, using hard cut", exit.Name),
			})
		}

		entry := clips[i+1].EntryTransition
		if window, known := transitionWindow(entry, clips[i+1].Duration); known {
			plans[i+1].headFade = window
		} else {
			warnings = append(warnings, Warning{
				Kind:    WarnTransitionUnknown,
				SceneID: clips[i+1].SceneID,
				Message: fmt.Sprintf("unknown entry transition %q, using hard cut", entry.Name),
			})
		}
	}

	return plans, warnings
}

// TimelineAssembler 时间线拼接器
// 按场景顺序拼接片段，转场窗口内淡出前一个片段的尾部、淡入后一个片段的头部，
// 窗口之外的内容和各片段时长保持不变
type TimelineAssembler struct {
	ffmpeg *ffmpeg.Client
}

// NewTimelineAssembler 创建时间线拼接器
func NewTimelineAssembler(ffmpegClient *ffmpeg.Client) *TimelineAssembler {
	return &TimelineAssembler{ffmpeg: ffmpegClient}
}

// Assemble 把有序的场景片段拼接为一条连续的时间线
func (a *TimelineAssembler) Assemble(ctx context.Context, clips []*SceneClip, workDir, outputPath string) ([]Warning, error) {
	if len(clips) == 0 {
		return nil, &RenderError{
			Kind:    ErrKindAssemble,
			Message: "no scene clips to assemble",
		}
	}

	// 单场景项目不应用任何转场，片段原样输出
	if len(clips) == 1 {
		if err := os.Rename(clips[0].Path, outputPath); err != nil {
			return nil, &RenderError{
				Kind:    ErrKindAssemble,
				SceneID: clips[0].SceneID,
				Message: "move single scene clip",
				Err:     err,
			}
		}
		return nil, nil
	}

	plans, warnings := planFades(clips)

	paths := make([]string, len(clips))
	for i, clip := range clips {
		plan := plans[i]
		if plan.headFade <= 0 && plan.tailFade <= 0 {
			paths[i] = clip.Path
			continue
		}

		fadedPath := filepath.Join(workDir, fmt.Sprintf("faded_%02d.mp4", i))
		if err := a.ffmpeg.ApplyEdgeFades(ctx, clip.Path, fadedPath, clip.Duration, plan.headFade, plan.tailFade); err != nil {
			if ctx.Err() != nil {
				return warnings, ctx.Err()
			}
			return warnings, &RenderError{
				Kind:    ErrKindAssemble,
				SceneID: clip.SceneID,
				Message: "apply transition fades",
				Err:     err,
			}
		}
		paths[i] = fadedPath
	}

	if err := a.ffmpeg.ConcatVideos(ctx, paths, outputPath); err != nil {
		if ctx.Err() != nil {
			return warnings, ctx.Err()
		}
		return warnings, &RenderError{
			Kind:    ErrKindAssemble,
			Message: "concat scene clips",
			Err:     err,
		}
	}

	log.Info().
		Int("scenes", len(clips)).
		Str("output", outputPath).
		Msg("时间线拼接完成")

	return warnings, nil
}
