package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"pomelo/internal/model/compose"
	"pomelo/internal/pkg/captions"
	"pomelo/internal/pkg/ffmpeg"
	"pomelo/internal/pkg/narration"
)

// SceneCompositor 场景合成器
// 把场景的背景、分层资产和可选的旁白合成为一个固定时长的片段
type SceneCompositor struct {
	ffmpeg           *ffmpeg.Client
	assets           *AssetRenderer
	narrator         narration.Provider
	splitter         *captions.Splitter
	narrationTimeout time.Duration
	fontFile         string
}

// NewSceneCompositor 创建场景合成器
func NewSceneCompositor(
	ffmpegClient *ffmpeg.Client,
	assets *AssetRenderer,
	narrator narration.Provider,
	splitter *captions.Splitter,
	narrationTimeout time.Duration,
	fontFile string,
) *SceneCompositor {
	if narrationTimeout <= 0 {
		narrationTimeout = 60 * time.Second
	}
	return &SceneCompositor{
		ffmpeg:           ffmpegClient,
		assets:           assets,
		narrator:         narrator,
		splitter:         splitter,
		narrationTimeout: narrationTimeout,
		fontFile:         fontFile,
	}
}

// Compose 合成单个场景
// 输出片段严格等于场景声明的时长；资产级失败只产生警告，不中断合成
func (c *SceneCompositor) Compose(ctx context.Context, node *SceneNode, profile Profile, workDir, outputPath string) ([]Warning, error) {
	scene := node.Scene
	var warnings []Warning

	graph := &ffmpeg.FilterGraph{}
	var filters []string

	// 背景永远是最底层
	bgLabel, bgWarn := c.addBackground(ctx, graph, &filters, scene, profile)
	if bgWarn != nil {
		bgWarn.SceneID = scene.ID
		warnings = append(warnings, *bgWarn)
	}

	// 资产按 layer 升序叠加（Normalize 已排好序）
	current := bgLabel
	overlayIdx := 0
	var audioLabels []string

	for _, asset := range node.Assets {
		if asset.Kind.IsAudio() {
			unit, warn := c.assets.RenderAudio(ctx, asset, scene.Duration)
			if warn != nil {
				warn.SceneID = scene.ID
				warnings = append(warnings, *warn)
				log.Warn().
					Str("scene_id", scene.ID).
					Str("asset_id", warn.AssetID).
					Str("kind", warn.Kind).
					Msg("音频资产已跳过")
				continue
			}
			idx := len(graph.Inputs)
			graph.Inputs = append(graph.Inputs, unit.Input)
			label := fmt.Sprintf("a%d", idx)
			filters = append(filters, fmt.Sprintf("[%d:a]%s[%s]", idx, unit.Chain, label))
			audioLabels = append(audioLabels, label)
			continue
		}

		unit, warn := c.assets.RenderVisual(ctx, asset, scene.Duration)
		if warn != nil {
			warn.SceneID = scene.ID
			warnings = append(warnings, *warn)
			log.Warn().
				Str("scene_id", scene.ID).
				Str("asset_id", warn.AssetID).
				Str("kind", warn.Kind).
				Msg("视觉资产已跳过")
			continue
		}

		next := fmt.Sprintf("ov%d", overlayIdx)
		overlayIdx++

		if unit.DrawText != "" {
			filters = append(filters, fmt.Sprintf("[%s]%s[%s]", current, unit.DrawText, next))
		} else {
			idx := len(graph.Inputs)
			graph.Inputs = append(graph.Inputs, *unit.Input)
			srcLabel := fmt.Sprintf("v%d", idx)
			filters = append(filters, fmt.Sprintf("[%d:v]%s[%s]", idx, unit.Chain, srcLabel))
			filters = append(filters, fmt.Sprintf("[%s][%s]overlay=x=W*%s:y=H*%s:enable='between(t,%s,%s)'[%s]",
				current, srcLabel,
				formatFloat(unit.X), formatFloat(unit.Y),
				formatFloat(unit.Start), formatFloat(unit.End),
				next))
		}
		current = next
	}

	// 旁白：失败或超时只降级，场景照常渲染（字幕和数字人画面叠加在最顶层）
	if scene.NarrationText != "" {
		current = c.addNarration(ctx, graph, &filters, scene, profile, workDir, current, &overlayIdx, &audioLabels, &warnings)
	}

	// 静音基准轨保证输出始终带音轨
	baseIdx := len(graph.Inputs)
	graph.Inputs = append(graph.Inputs, ffmpeg.Input{
		Args: []string{"-f", "lavfi", "-t", formatFloat(scene.Duration)},
		Path: "anullsrc=channel_layout=stereo:sample_rate=44100",
	})

	if len(audioLabels) == 0 {
		filters = append(filters, fmt.Sprintf("[%d:a]anull[aout]", baseIdx))
	} else {
		mixInputs := fmt.Sprintf("[%d:a]", baseIdx)
		for _, label := range audioLabels {
			mixInputs += fmt.Sprintf("[%s]", label)
		}
		filters = append(filters, fmt.Sprintf("%samix=inputs=%d:duration=first:dropout_transition=0[aout]",
			mixInputs, len(audioLabels)+1))
	}

	filters = append(filters, fmt.Sprintf("[%s]fps=%d,format=yuv420p[vout]", current, profile.FPS))

	graph.Filter = strings.Join(filters, ";")
	graph.Maps = []string{"[vout]", "[aout]"}
	graph.OutputArgs = []string{
		"-c:v", "libx264",
		"-preset", "medium",
		"-crf", "18",
		"-c:a", "aac",
		"-b:a", "160k",
		"-t", formatFloat(scene.Duration),
	}

	if err := c.ffmpeg.RunFilterGraph(ctx, graph, outputPath); err != nil {
		if ctx.Err() != nil {
			return warnings, ctx.Err()
		}
		return warnings, &RenderError{
			Kind:    ErrKindSceneRender,
			SceneID: scene.ID,
			Message: "compose scene clip",
			Err:     err,
		}
	}

	log.Info().
		Str("scene_id", scene.ID).
		Float64("duration", scene.Duration).
		Int("warnings", len(warnings)).
		Msg("场景合成完成")

	return warnings, nil
}

// addBackground 添加背景输入和滤镜链，返回背景的输出标签
// 背景资源缺失时降级为纯黑背景
func (c *SceneCompositor) addBackground(ctx context.Context, graph *ffmpeg.FilterGraph, filters *[]string, scene *compose.Scene, profile Profile) (string, *Warning) {
	d := formatFloat(scene.Duration)
	size := fmt.Sprintf("%dx%d", profile.Width, profile.Height)
	bg := scene.Background

	solid := func(color string) {
		graph.Inputs = append(graph.Inputs, ffmpeg.Input{
			Args: []string{"-f", "lavfi", "-t", d},
			Path: fmt.Sprintf("color=c=%s:s=%s:r=%d", color, size, profile.FPS),
		})
	}

	switch bg.Type {
	case compose.BackgroundTypeSolidColor:
		color := bg.Color
		if color == "" {
			color = "black"
		}
		solid(color)
		idx := len(graph.Inputs) - 1
		*filters = append(*filters, fmt.Sprintf("[%d:v]null[bg]", idx))
		return "bg", nil

	case compose.BackgroundTypeGradient:
		from, to := bg.GradientFrom, bg.GradientTo
		if from == "" {
			from = "black"
		}
		if to == "" {
			to = "black"
		}
		graph.Inputs = append(graph.Inputs, ffmpeg.Input{
			Args: []string{"-f", "lavfi", "-t", d},
			Path: fmt.Sprintf("gradients=s=%s:c0=%s:c1=%s", size, from, to),
		})
		idx := len(graph.Inputs) - 1
		*filters = append(*filters, fmt.Sprintf("[%d:v]fps=%d[bg]", idx, profile.FPS))
		return "bg", nil

	case compose.BackgroundTypeImage, compose.BackgroundTypeVideo:
		path, err := c.assets.source.Stage(ctx, bg.ResourceID)
		if err != nil {
			solid("black")
			idx := len(graph.Inputs) - 1
			*filters = append(*filters, fmt.Sprintf("[%d:v]null[bg]", idx))
			return "bg", &Warning{
				Kind:    WarnAssetSourceMissing,
				Message: fmt.Sprintf("background resource %s unavailable, using solid black: %v", bg.ResourceID, err),
			}
		}

		input := ffmpeg.Input{Path: path}
		chain := fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,setsar=1",
			profile.Width, profile.Height, profile.Width, profile.Height)
		if bg.Type == compose.BackgroundTypeImage {
			input.Args = []string{"-loop", "1", "-t", d}
		} else {
			// 视频不够长时循环填满场景时长
			input.Args = []string{"-stream_loop", "-1", "-t", d}
			chain = fmt.Sprintf("trim=duration=%s,setpts=PTS-STARTPTS,%s", d, chain)
		}

		graph.Inputs = append(graph.Inputs, input)
		idx := len(graph.Inputs) - 1
		*filters = append(*filters, fmt.Sprintf("[%d:v]%s[bg]", idx, chain))
		return "bg", nil

	default:
		solid("black")
		idx := len(graph.Inputs) - 1
		*filters = append(*filters, fmt.Sprintf("[%d:v]null[bg]", idx))
		return "bg", &Warning{
			Kind:    WarnAssetRenderFailed,
			Message: fmt.Sprintf("unknown background type %q, using solid black", bg.Type),
		}
	}
}

// addNarration 合成旁白音轨、顶层字幕和可选的数字人画面
// 任何失败（含超时）都只记录警告，返回未变或叠加后的画面标签
func (c *SceneCompositor) addNarration(
	ctx context.Context,
	graph *ffmpeg.FilterGraph,
	filters *[]string,
	scene *compose.Scene,
	profile Profile,
	workDir string,
	current string,
	overlayIdx *int,
	audioLabels *[]string,
	warnings *[]Warning,
) string {
	synthCtx, cancel := context.WithTimeout(ctx, c.narrationTimeout)
	defer cancel()

	speech, err := c.narrator.Synthesize(synthCtx, scene.NarrationText, narration.VoiceConfig{})
	if err != nil {
		*warnings = append(*warnings, Warning{
			Kind:    WarnNarrationSkipped,
			SceneID: scene.ID,
			Message: fmt.Sprintf("narration unavailable: %v", err),
		})
		log.Warn().Str("scene_id", scene.ID).Err(err).Msg("旁白降级，场景按无旁白渲染")
		return current
	}

	audioPath := filepath.Join(workDir, fmt.Sprintf("narration_%s.mp3", scene.ID))
	if err := os.WriteFile(audioPath, speech.AudioData, 0o644); err != nil {
		*warnings = append(*warnings, Warning{
			Kind:    WarnNarrationSkipped,
			SceneID: scene.ID,
			Message: fmt.Sprintf("write narration audio: %v", err),
		})
		return current
	}

	idx := len(graph.Inputs)
	graph.Inputs = append(graph.Inputs, ffmpeg.Input{Path: audioPath})
	label := fmt.Sprintf("a%d", idx)
	*filters = append(*filters, fmt.Sprintf("[%d:a]atrim=duration=%s,asetpts=PTS-STARTPTS[%s]",
		idx, formatFloat(scene.Duration), label))
	*audioLabels = append(*audioLabels, label)

	// 字幕时长以音频为准，但不超过场景时长
	captionDuration := speech.Duration
	if captionDuration <= 0 || captionDuration > scene.Duration {
		captionDuration = scene.Duration
	}

	for _, line := range c.splitter.SplitTimed(scene.NarrationText, captionDuration) {
		next := fmt.Sprintf("ov%d", *overlayIdx)
		*overlayIdx++

		parts := []string{
			fmt.Sprintf("text='%s'", escapeDrawText(line.Text)),
			"fontsize=42",
			"fontcolor=white",
			"borderw=2",
			"bordercolor=black",
			"x=(w-text_w)/2",
			"y=h*0.85",
			fmt.Sprintf("enable='between(t,%s,%s)'", formatFloat(line.Start), formatFloat(line.End)),
		}
		if c.fontFile != "" {
			parts = append(parts, fmt.Sprintf("fontfile=%s", c.fontFile))
		}

		*filters = append(*filters, fmt.Sprintf("[%s]drawtext=%s[%s]", current, strings.Join(parts, ":"), next))
		current = next
	}

	// 数字人画面在所有图层之上，置于右下角
	if len(speech.Overlay) > 0 {
		overlayPath := filepath.Join(workDir, fmt.Sprintf("avatar_%s.mp4", scene.ID))
		if err := os.WriteFile(overlayPath, speech.Overlay, 0o644); err != nil {
			*warnings = append(*warnings, Warning{
				Kind:    WarnNarrationSkipped,
				SceneID: scene.ID,
				Message: fmt.Sprintf("write avatar overlay: %v", err),
			})
			return current
		}

		avatarIdx := len(graph.Inputs)
		graph.Inputs = append(graph.Inputs, ffmpeg.Input{Path: overlayPath})
		next := fmt.Sprintf("ov%d", *overlayIdx)
		*overlayIdx++

		avatarLabel := fmt.Sprintf("av%d", avatarIdx)
		*filters = append(*filters, fmt.Sprintf("[%d:v]trim=duration=%s,setpts=PTS-STARTPTS,scale=-2:%d,format=rgba[%s]",
			avatarIdx, formatFloat(scene.Duration), profile.Height/4, avatarLabel))
		*filters = append(*filters, fmt.Sprintf("[%s][%s]overlay=x=W-w-32:y=H-h-32[%s]",
			current, avatarLabel, next))
		current = next
	}

	return current
}
