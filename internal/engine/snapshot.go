package engine

import (
	"fmt"

	"golang.org/x/exp/slices"

	"pomelo/internal/model/compose"
)

// SceneNode 快照中的一个场景及其资产
type SceneNode struct {
	Scene  *compose.Scene   `json:"scene"`
	Assets []*compose.Asset `json:"assets"`
}

// Snapshot 场景图快照
// 渲染任务启动时一次性加载，渲染期间只读，项目的并发编辑不影响进行中的任务
type Snapshot struct {
	ProjectID string       `json:"project_id"`
	Scenes    []*SceneNode `json:"scenes"`
}

// Normalize 规范化渲染顺序
// 场景按 order 升序（相同值按创建时间），资产按 layer 升序（相同值按资产ID升序）
// 排序是稳定且确定的，保证同一快照两次渲染的叠加顺序一致
func (s *Snapshot) Normalize() {
	slices.SortStableFunc(s.Scenes, func(a, b *SceneNode) int {
		if a.Scene.Order != b.Scene.Order {
			return a.Scene.Order - b.Scene.Order
		}
		return a.Scene.CreatedAt.Compare(b.Scene.CreatedAt)
	})

	for _, node := range s.Scenes {
		slices.SortStableFunc(node.Assets, func(a, b *compose.Asset) int {
			if a.Layer != b.Layer {
				return a.Layer - b.Layer
			}
			switch {
			case a.ID < b.ID:
				return -1
			case a.ID > b.ID:
				return 1
			}
			return 0
		})
	}
}

// Validate 校验快照的结构约束
// 违反约束是任务级致命错误：场景时长必须为正，资产时间窗口必须落在场景时长内
func (s *Snapshot) Validate() error {
	if len(s.Scenes) == 0 {
		return &RenderError{
			Kind:    ErrKindInvalidSnapshot,
			Message: "snapshot has no scenes",
		}
	}

	for _, node := range s.Scenes {
		scene := node.Scene
		if scene == nil {
			return &RenderError{
				Kind:    ErrKindInvalidSnapshot,
				Message: "snapshot contains nil scene",
			}
		}
		if scene.Duration <= 0 {
			return &RenderError{
				Kind:    ErrKindInvalidSnapshot,
				SceneID: scene.ID,
				Message: fmt.Sprintf("scene duration must be positive, got %.3f", scene.Duration),
			}
		}

		for _, asset := range node.Assets {
			start, end := ResolveWindow(asset, scene.Duration)
			if asset.TimelineStart < 0 {
				return &RenderError{
					Kind:    ErrKindInvalidSnapshot,
					SceneID: scene.ID,
					AssetID: asset.ID,
					Message: fmt.Sprintf("asset timeline_start %.3f is negative", asset.TimelineStart),
				}
			}
			if asset.TimelineEnd != nil && *asset.TimelineEnd > scene.Duration {
				return &RenderError{
					Kind:    ErrKindInvalidSnapshot,
					SceneID: scene.ID,
					AssetID: asset.ID,
					Message: fmt.Sprintf("asset timeline_end %.3f exceeds scene duration %.3f", *asset.TimelineEnd, scene.Duration),
				}
			}
			if start >= end {
				return &RenderError{
					Kind:    ErrKindInvalidSnapshot,
					SceneID: scene.ID,
					AssetID: asset.ID,
					Message: fmt.Sprintf("asset time window [%.3f, %.3f] is empty", start, end),
				}
			}
		}
	}

	return nil
}

// ResolveWindow 解析资产在场景内的有效时间窗口
// TimelineEnd 缺省为场景时长；窗口被裁剪到 [0, sceneDuration]
func ResolveWindow(asset *compose.Asset, sceneDuration float64) (start, end float64) {
	start = asset.TimelineStart
	if start < 0 {
		start = 0
	}

	end = sceneDuration
	if asset.TimelineEnd != nil {
		end = *asset.TimelineEnd
	}
	if end > sceneDuration {
		end = sceneDuration
	}

	return start, end
}
