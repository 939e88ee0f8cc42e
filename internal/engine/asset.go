package engine

import (
	"context"
	"fmt"
	"os"
	"strings"

	"pomelo/internal/model/compose"
	"pomelo/internal/pkg/ffmpeg"
)

// AssetSource 资产源文件访问能力
// 引擎只需要按资源ID获取一个可读的本地文件路径，不直接接触持久化层
type AssetSource interface {
	// Stage 将资源落地为本地文件，返回其路径
	Stage(ctx context.Context, resourceID string) (string, error)
}

// VisualUnit 一个可叠加的视觉单元
// Input 不为空时是一路独立输入（image/video），由合成器 overlay 到画面上；
// DrawText 不为空时是直接作用在画面链上的 drawtext 滤镜（text）
type VisualUnit struct {
	AssetID  string
	Layer    int
	Input    *ffmpeg.Input
	Chain    string // 作用于该路输入的滤镜链
	DrawText string
	X, Y     float64 // 画面比例坐标 [0,1]
	Start    float64 // 场景内出现时间（秒）
	End      float64
}

// AudioUnit 一个参与混音的音频单元
type AudioUnit struct {
	AssetID string
	Input   ffmpeg.Input
	Chain   string
}

// AssetRenderer 资产渲染器
// 把单个资产描述转换为受时间窗口约束的、已定位变换的滤镜单元
type AssetRenderer struct {
	source   AssetSource
	fontFile string // 默认字体文件（文本资产字体无效时的替补）
}

// NewAssetRenderer 创建资产渲染器
func NewAssetRenderer(source AssetSource, fontFile string) *AssetRenderer {
	return &AssetRenderer{
		source:   source,
		fontFile: fontFile,
	}
}

// RenderVisual 渲染视觉资产（image/video/text）
// 源文件缺失或类型不支持时返回警告而不是错误，场景继续渲染
func (r *AssetRenderer) RenderVisual(ctx context.Context, asset *compose.Asset, sceneDuration float64) (*VisualUnit, *Warning) {
	start, end := ResolveWindow(asset, sceneDuration)

	switch asset.Kind {
	case compose.AssetKindText:
		if asset.Text == nil || asset.Text.Content == "" {
			return nil, &Warning{
				Kind:    WarnAssetRenderFailed,
				AssetID: asset.ID,
				Message: "text asset has no content",
			}
		}
		return &VisualUnit{
			AssetID:  asset.ID,
			Layer:    asset.Layer,
			DrawText: r.buildDrawText(asset, start, end),
			Start:    start,
			End:      end,
		}, nil

	case compose.AssetKindImage, compose.AssetKindVideo:
		path, err := r.source.Stage(ctx, asset.ResourceID)
		if err != nil {
			return nil, &Warning{
				Kind:    WarnAssetSourceMissing,
				AssetID: asset.ID,
				Message: fmt.Sprintf("stage resource %s: %v", asset.ResourceID, err),
			}
		}

		input := &ffmpeg.Input{Path: path}
		if asset.Kind == compose.AssetKindImage {
			// 静态图循环为定长视频流
			input.Args = []string{"-loop", "1", "-t", formatFloat(end - start)}
		}

		return &VisualUnit{
			AssetID: asset.ID,
			Layer:   asset.Layer,
			Input:   input,
			Chain:   buildVisualChain(asset, start, end),
			X:       asset.X,
			Y:       asset.Y,
			Start:   start,
			End:     end,
		}, nil

	default:
		return nil, &Warning{
			Kind:    WarnAssetKindUnknown,
			AssetID: asset.ID,
			Message: fmt.Sprintf("unsupported visual asset kind %q", asset.Kind),
		}
	}
}

// RenderAudio 渲染音频资产（audio_track/background_music）
func (r *AssetRenderer) RenderAudio(ctx context.Context, asset *compose.Asset, sceneDuration float64) (*AudioUnit, *Warning) {
	if !asset.Kind.IsAudio() {
		return nil, &Warning{
			Kind:    WarnAssetKindUnknown,
			AssetID: asset.ID,
			Message: fmt.Sprintf("unsupported audio asset kind %q", asset.Kind),
		}
	}

	path, err := r.source.Stage(ctx, asset.ResourceID)
	if err != nil {
		return nil, &Warning{
			Kind:    WarnAssetSourceMissing,
			AssetID: asset.ID,
			Message: fmt.Sprintf("stage resource %s: %v", asset.ResourceID, err),
		}
	}

	start, end := ResolveWindow(asset, sceneDuration)

	input := ffmpeg.Input{Path: path}
	if asset.Audio != nil && asset.Audio.Loop {
		// 循环填满时间窗口，超出部分由 atrim 截断
		input.Args = []string{"-stream_loop", "-1"}
	}

	return &AudioUnit{
		AssetID: asset.ID,
		Input:   input,
		Chain:   buildAudioChain(asset, start, end),
	}, nil
}

// buildVisualChain 构建视觉资产的滤镜链
// 处理顺序：裁剪 → 缩放/旋转 → 不透明度 → 入场/出场动画 → 时间轴对齐
func buildVisualChain(asset *compose.Asset, start, end float64) string {
	var chain []string

	if asset.Kind == compose.AssetKindVideo {
		chain = append(chain,
			fmt.Sprintf("trim=duration=%s", formatFloat(end-start)),
			"setpts=PTS-STARTPTS",
		)
	}

	if c := asset.Crop; c != nil && c.Width > 0 && c.Height > 0 {
		chain = append(chain, fmt.Sprintf("crop=iw*%s:ih*%s:iw*%s:ih*%s",
			formatFloat(c.Width), formatFloat(c.Height),
			formatFloat(c.X), formatFloat(c.Y)))
	}

	scale := asset.Scale
	if scale <= 0 {
		scale = 1.0
	}
	if scale != 1.0 {
		chain = append(chain, fmt.Sprintf("scale=iw*%s:ih*%s", formatFloat(scale), formatFloat(scale)))
	}

	// 旋转和不透明度都需要 alpha 通道
	chain = append(chain, "format=rgba")

	if asset.Rotation != 0 {
		rad := fmt.Sprintf("%s*PI/180", formatFloat(asset.Rotation))
		chain = append(chain, fmt.Sprintf("rotate=%s:c=none:ow=rotw(%s):oh=roth(%s)", rad, rad, rad))
	}

	// 缺省视为完全不透明；显式的 0 是合法值（完全透明），只钳制越界值
	opacity := 1.0
	if asset.Opacity != nil {
		opacity = *asset.Opacity
		if opacity < 0 {
			opacity = 0
		} else if opacity > 1 {
			opacity = 1
		}
	}
	if opacity != 1.0 {
		chain = append(chain, fmt.Sprintf("colorchannelmixer=aa=%s", formatFloat(opacity)))
	}

	// 入场/出场动画统一实现为 alpha 淡入淡出，在资产自身窗口内生效
	if anim := asset.Animation; anim != nil && anim.Duration > 0 {
		if anim.Entry != "" {
			st := anim.Delay
			chain = append(chain, fmt.Sprintf("fade=t=in:st=%s:d=%s:alpha=1",
				formatFloat(st), formatFloat(anim.Duration)))
		}
		if anim.Exit != "" {
			st := (end - start) - anim.Duration
			if st < 0 {
				st = 0
			}
			chain = append(chain, fmt.Sprintf("fade=t=out:st=%s:d=%s:alpha=1",
				formatFloat(st), formatFloat(anim.Duration)))
		}
	}

	// 平移到场景时间轴上的出现位置，供 overlay 的 enable 窗口使用
	chain = append(chain, fmt.Sprintf("setpts=PTS-STARTPTS+%s/TB", formatFloat(start)))

	return strings.Join(chain, ",")
}

// buildDrawText 构建文本资产的 drawtext 滤镜
func (r *AssetRenderer) buildDrawText(asset *compose.Asset, start, end float64) string {
	style := asset.Text

	size := style.Size
	if size <= 0 {
		size = 48
	}
	color := style.Color
	if color == "" {
		color = "white"
	}

	// 对齐方式决定 x 表达式的锚点
	var xExpr string
	switch style.Alignment {
	case compose.TextAlignCenter:
		xExpr = fmt.Sprintf("w*%s-text_w/2", formatFloat(asset.X))
	case compose.TextAlignRight:
		xExpr = fmt.Sprintf("w*%s-text_w", formatFloat(asset.X))
	default:
		xExpr = fmt.Sprintf("w*%s", formatFloat(asset.X))
	}

	parts := []string{
		fmt.Sprintf("text='%s'", escapeDrawText(style.Content)),
		fmt.Sprintf("fontsize=%d", size),
		fmt.Sprintf("fontcolor=%s", color),
		fmt.Sprintf("x=%s", xExpr),
		fmt.Sprintf("y=h*%s", formatFloat(asset.Y)),
		fmt.Sprintf("enable='between(t,%s,%s)'", formatFloat(start), formatFloat(end)),
	}

	if font := r.resolveFont(style.Font); font != "" {
		parts = append(parts, fmt.Sprintf("fontfile=%s", font))
	}

	return "drawtext=" + strings.Join(parts, ":")
}

// resolveFont 校验字体文件，无效时替换为默认字体
func (r *AssetRenderer) resolveFont(font string) string {
	if font != "" {
		if _, err := os.Stat(font); err == nil {
			return font
		}
	}
	return r.fontFile
}

// buildAudioChain 构建音频资产的滤镜链
// 截断到时间窗口 → 音量 → 淡入淡出 → 延迟到窗口起点
func buildAudioChain(asset *compose.Asset, start, end float64) string {
	window := end - start

	chain := []string{
		fmt.Sprintf("atrim=duration=%s", formatFloat(window)),
		"asetpts=PTS-STARTPTS",
	}

	if a := asset.Audio; a != nil {
		if a.Volume > 0 && a.Volume != 1.0 {
			chain = append(chain, fmt.Sprintf("volume=%s", formatFloat(a.Volume)))
		}
		if a.FadeIn > 0 {
			chain = append(chain, fmt.Sprintf("afade=t=in:st=0:d=%s", formatFloat(a.FadeIn)))
		}
		if a.FadeOut > 0 {
			st := window - a.FadeOut
			if st < 0 {
				st = 0
			}
			chain = append(chain, fmt.Sprintf("afade=t=out:st=%s:d=%s", formatFloat(st), formatFloat(a.FadeOut)))
		}
	}

	if start > 0 {
		ms := int(start * 1000)
		chain = append(chain, fmt.Sprintf("adelay=%d|%d", ms, ms))
	}

	return strings.Join(chain, ",")
}

// escapeDrawText 转义 drawtext 文本中的特殊字符
func escapeDrawText(text string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\\\'`,
		`:`, `\:`,
		`%`, `\%`,
	)
	return replacer.Replace(text)
}

// formatFloat 格式化滤镜浮点参数，去掉多余的尾零
func formatFloat(v float64) string {
	s := fmt.Sprintf("%.4f", v)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}
