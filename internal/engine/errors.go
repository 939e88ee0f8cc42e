package engine

import "fmt"

// ErrorKind 渲染错误分类
type ErrorKind string

const (
	ErrKindInvalidSnapshot ErrorKind = "invalid_snapshot" // 场景图快照不满足结构约束
	ErrKindSceneRender     ErrorKind = "scene_render"     // 场景合成失败
	ErrKindAssemble        ErrorKind = "assemble"         // 时间线拼接失败
	ErrKindEncode          ErrorKind = "encode"           // 导出编码失败
	ErrKindOutputIO        ErrorKind = "output_io"        // 输出路径 I/O 错误
)

// RenderError 任务级致命错误
// 携带错误分类和出错的场景/资产ID（如适用）
type RenderError struct {
	Kind    ErrorKind
	SceneID string
	AssetID string
	Message string
	Err     error
}

func (e *RenderError) Error() string {
	msg := fmt.Sprintf("render error [%s]", e.Kind)
	if e.SceneID != "" {
		msg += fmt.Sprintf(" scene=%s", e.SceneID)
	}
	if e.AssetID != "" {
		msg += fmt.Sprintf(" asset=%s", e.AssetID)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Warning 可恢复的渲染警告
// 资产缺失、类型不支持、旁白降级等都记录为警告，任务继续
type Warning struct {
	Kind    string `json:"kind"`
	SceneID string `json:"scene_id,omitempty"`
	AssetID string `json:"asset_id,omitempty"`
	Message string `json:"message"`
}

const (
	WarnAssetSourceMissing = "asset_source_missing"
	WarnAssetKindUnknown   = "asset_kind_unknown"
	WarnAssetRenderFailed  = "asset_render_failed"
	WarnNarrationSkipped   = "narration_skipped"
	WarnTransitionUnknown  = "transition_unknown"
	WarnQualityUnknown     = "quality_unknown"
)
