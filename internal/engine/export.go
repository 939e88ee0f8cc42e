package engine

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	ffmpeggo "github.com/u2takey/ffmpeg-go"

	"pomelo/internal/pkg/ffmpeg"
)

// Profile 质量预设，决定导出的分辨率、帧率和码率
type Profile struct {
	Name         string
	Width        int
	Height       int
	FPS          int
	VideoBitrate string
	AudioBitrate string
}

// Resolution 返回 "宽x高" 形式的分辨率
func (p Profile) Resolution() string {
	return fmt.Sprintf("%dx%d", p.Width, p.Height)
}

// DefaultQuality 不认识的质量名称回退到的预设
const DefaultQuality = "high"

var qualityProfiles = map[string]Profile{
	"low":    {Name: "low", Width: 854, Height: 480, FPS: 24, VideoBitrate: "1000k", AudioBitrate: "96k"},
	"medium": {Name: "medium", Width: 1280, Height: 720, FPS: 30, VideoBitrate: "2500k", AudioBitrate: "128k"},
	"high":   {Name: "high", Width: 1920, Height: 1080, FPS: 30, VideoBitrate: "5000k", AudioBitrate: "192k"},
	"ultra":  {Name: "ultra", Width: 3840, Height: 2160, FPS: 60, VideoBitrate: "16000k", AudioBitrate: "256k"},
}

// ResolveProfile 按质量名称解析预设
// 不认识的名称回退到 high，返回 false（调用方记录警告，任务不拒绝）
func ResolveProfile(quality string) (Profile, bool) {
	if p, ok := qualityProfiles[quality]; ok {
		return p, true
	}
	return qualityProfiles[DefaultQuality], false
}

// ExportResult 导出结果
type ExportResult struct {
	OutputPath    string
	Duration      float64
	FileSizeBytes int64
	Resolution    string
}

// ExportPipeline 导出管道
// 把拼接好的时间线按质量预设编码为最终输出文件
type ExportPipeline struct {
	ffmpeg *ffmpeg.Client
}

// NewExportPipeline 创建导出管道
func NewExportPipeline(ffmpegClient *ffmpeg.Client) *ExportPipeline {
	return &ExportPipeline{ffmpeg: ffmpegClient}
}

// Export 编码时间线到输出文件
// 取消时会中止编码并删除不完整的输出，保证不留下半成品文件
func (p *ExportPipeline) Export(ctx context.Context, timelinePath, outputPath string, profile Profile) (*ExportResult, error) {
	cmd := ffmpeggo.Input(timelinePath).
		Output(outputPath, ffmpeggo.KwArgs{
			"c:v":      "libx264",
			"preset":   "medium",
			"b:v":      profile.VideoBitrate,
			"s":        profile.Resolution(),
			"r":        profile.FPS,
			"pix_fmt":  "yuv420p",
			"c:a":      "aac",
			"b:a":      profile.AudioBitrate,
			"movflags": "+faststart",
		}).
		OverWriteOutput().
		Compile()

	if err := cmd.Start(); err != nil {
		return nil, &RenderError{
			Kind:    ErrKindEncode,
			Message: "start encoder",
			Err:     err,
		}
	}

	// 取消传播：上下文结束时杀掉编码进程
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = cmd.Process.Kill()
		case <-done:
		}
	}()

	err := cmd.Wait()
	close(done)

	if ctx.Err() != nil {
		os.Remove(outputPath) // 不留下不完整的输出文件
		return nil, ctx.Err()
	}
	if err != nil {
		os.Remove(outputPath)
		return nil, &RenderError{
			Kind:    ErrKindEncode,
			Message: "encode timeline",
			Err:     err,
		}
	}

	stat, err := os.Stat(outputPath)
	if err != nil {
		return nil, &RenderError{
			Kind:    ErrKindOutputIO,
			Message: "stat output file",
			Err:     err,
		}
	}

	info, err := p.ffmpeg.Probe(ctx, outputPath)
	if err != nil {
		return nil, &RenderError{
			Kind:    ErrKindOutputIO,
			Message: "probe output file",
			Err:     err,
		}
	}

	log.Info().
		Str("output", outputPath).
		Str("quality", profile.Name).
		Float64("duration", info.Duration).
		Int64("size", stat.Size()).
		Msg("导出完成")

	return &ExportResult{
		OutputPath:    outputPath,
		Duration:      info.Duration,
		FileSizeBytes: stat.Size(),
		Resolution:    profile.Resolution(),
	}, nil
}
