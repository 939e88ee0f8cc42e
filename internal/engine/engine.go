package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"pomelo/internal/pkg/captions"
	"pomelo/internal/pkg/ffmpeg"
	"pomelo/internal/pkg/narration"
)

// Options 引擎配置
type Options struct {
	SceneWorkers     int           // 场景并行渲染的最大并发数（默认4）
	WorkDir          string        // 任务工作目录的父目录（默认系统临时目录）
	FontFile         string        // 默认字体文件路径
	CaptionMaxLength int           // 字幕单行最大字符数
	NarrationTimeout time.Duration // 旁白合成超时
}

// Engine 视频合成引擎
// 把场景图快照渲染为单个输出视频：
// 场景图加载 → 各场景并行渲染 → 时间线拼接 → 导出编码
type Engine struct {
	compositor *SceneCompositor
	assembler  *TimelineAssembler
	exporter   *ExportPipeline
	workers    int
	workDir    string
}

// New 创建引擎
// narrator 传入空实现（NewNoopProvider）时场景全部按无旁白渲染
func New(source AssetSource, narrator narration.Provider, opts Options) *Engine {
	if opts.SceneWorkers <= 0 {
		opts.SceneWorkers = 4
	}
	if narrator == nil {
		narrator = narration.NewNoopProvider()
	}

	ffmpegClient := ffmpeg.NewClient()
	assets := NewAssetRenderer(source, opts.FontFile)
	splitter := captions.NewSplitter(opts.CaptionMaxLength)

	return &Engine{
		compositor: NewSceneCompositor(ffmpegClient, assets, narrator, splitter, opts.NarrationTimeout, opts.FontFile),
		assembler:  NewTimelineAssembler(ffmpegClient),
		exporter:   NewExportPipeline(ffmpegClient),
		workers:    opts.SceneWorkers,
		workDir:    opts.WorkDir,
	}
}

// Result 渲染结果
type Result struct {
	OutputPath      string    `json:"output_path"`
	DurationSeconds float64   `json:"duration_seconds"`
	SceneCount      int       `json:"scene_count"`
	FileSizeBytes   int64     `json:"file_size_bytes"`
	Resolution      string    `json:"resolution"`
	Quality         string    `json:"quality"`
	Warnings        []Warning `json:"warnings,omitempty"`
}

// Render 渲染一个场景图快照
// 快照校验失败、拼接或编码失败返回 *RenderError；上下文取消返回 ctx.Err()，
// 两种情况都保证工作目录被清理、输出路径不留下不完整文件
func (e *Engine) Render(ctx context.Context, snap *Snapshot, quality, outputPath string) (*Result, error) {
	var warnings []Warning

	profile, known := ResolveProfile(quality)
	if !known {
		warnings = append(warnings, Warning{
			Kind:    WarnQualityUnknown,
			Message: fmt.Sprintf("unknown quality %q, using %q", quality, DefaultQuality),
		})
		log.Warn().Str("quality", quality).Msg("质量预设未知，回退到 high")
	}

	snap.Normalize()
	if err := snap.Validate(); err != nil {
		return nil, err
	}

	// 每个任务独占一个工作目录，成功和失败路径都保证清理
	if e.workDir != "" {
		if err := os.MkdirAll(e.workDir, 0o755); err != nil {
			return nil, &RenderError{Kind: ErrKindOutputIO, Message: "create work dir", Err: err}
		}
	}
	jobDir, err := os.MkdirTemp(e.workDir, "render-*")
	if err != nil {
		return nil, &RenderError{Kind: ErrKindOutputIO, Message: "create job dir", Err: err}
	}
	defer os.RemoveAll(jobDir)

	clips, sceneWarnings, err := e.renderScenes(ctx, snap, profile, jobDir)
	warnings = append(warnings, sceneWarnings...)
	if err != nil {
		return nil, err
	}

	timelinePath := filepath.Join(jobDir, "timeline.mp4")
	assembleWarnings, err := e.assembler.Assemble(ctx, clips, jobDir, timelinePath)
	warnings = append(warnings, assembleWarnings...)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, &RenderError{Kind: ErrKindOutputIO, Message: "create output dir", Err: err}
	}

	exported, err := e.exporter.Export(ctx, timelinePath, outputPath, profile)
	if err != nil {
		return nil, err
	}

	return &Result{
		OutputPath:      exported.OutputPath,
		DurationSeconds: exported.Duration,
		SceneCount:      len(snap.Scenes),
		FileSizeBytes:   exported.FileSizeBytes,
		Resolution:      exported.Resolution,
		Quality:         profile.Name,
		Warnings:        warnings,
	}, nil
}

// renderScenes 并行渲染所有场景
// 场景之间没有数据依赖，用有界并发渲染；结果按快照中的顺序收集，
// 与各个 worker 的完成先后无关
func (e *Engine) renderScenes(ctx context.Context, snap *Snapshot, profile Profile, jobDir string) ([]*SceneClip, []Warning, error) {
	renderCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		warnings []Warning
	)
	sem := make(chan struct{}, e.workers)
	clips := make([]*SceneClip, len(snap.Scenes))

	for i, node := range snap.Scenes {
		wg.Add(1)
		go func(i int, node *SceneNode) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-renderCtx.Done():
				return
			}

			clipPath := filepath.Join(jobDir, fmt.Sprintf("scene_%03d.mp4", i))
			sceneWarnings, err := e.compositor.Compose(renderCtx, node, profile, jobDir, clipPath)

			mu.Lock()
			defer mu.Unlock()
			warnings = append(warnings, sceneWarnings...)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				cancel() // 任一场景致命失败时中止其余场景
				return
			}
			clips[i] = &SceneClip{
				SceneID:         node.Scene.ID,
				Path:            clipPath,
				Duration:        node.Scene.Duration,
				EntryTransition: node.Scene.EntryTransition,
				ExitTransition:  node.Scene.ExitTransition,
			}
		}(i, node)
	}
	wg.Wait()

	// 外部取消优先于场景错误上报，取消必须与失败可区分
	if ctx.Err() != nil {
		return nil, warnings, ctx.Err()
	}
	if firstErr != nil {
		return nil, warnings, firstErr
	}

	return clips, warnings, nil
}
