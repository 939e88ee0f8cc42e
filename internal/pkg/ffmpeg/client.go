package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Client FFmpeg 客户端
// 用于封装 FFmpeg / FFprobe 命令调用
type Client struct {
	ffmpegPath  string // FFmpeg 可执行文件路径（默认: ffmpeg）
	ffprobePath string // FFprobe 可执行文件路径（默认: ffprobe）
}

// NewClient 创建 FFmpeg 客户端
func NewClient() *Client {
	ffmpegPath := os.Getenv("FFMPEG_PATH")
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}

	ffprobePath := os.Getenv("FFPROBE_PATH")
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}

	return &Client{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
	}
}

// MediaInfo 媒体信息
type MediaInfo struct {
	Width    int     // 宽度（无视频流时为0）
	Height   int     // 高度（无视频流时为0）
	FPS      float64 // 帧率（无视频流时为0）
	Duration float64 // 时长（秒）
}

// probeOutput ffprobe -of json 的输出结构
type probeOutput struct {
	Streams []struct {
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe 获取媒体文件信息
// ffprobe -v error -select_streams v:0 -show_entries stream=width,height,r_frame_rate -show_entries format=duration -of json file
func (c *Client) Probe(ctx context.Context, path string) (*MediaInfo, error) {
	cmd := exec.CommandContext(ctx, c.ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate",
		"-show_entries", "format=duration",
		"-of", "json",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	var parsed probeOutput
	if err := json.Unmarshal(output, &parsed); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	info := &MediaInfo{}
	if parsed.Format.Duration != "" {
		if d, err := strconv.ParseFloat(parsed.Format.Duration, 64); err == nil {
			info.Duration = d
		}
	}
	if len(parsed.Streams) > 0 {
		s := parsed.Streams[0]
		info.Width = s.Width
		info.Height = s.Height
		// r_frame_rate 格式为 "30000/1001"
		if num, den, ok := strings.Cut(s.RFrameRate, "/"); ok {
			n, err1 := strconv.Atoi(num)
			d, err2 := strconv.Atoi(den)
			if err1 == nil && err2 == nil && d > 0 {
				info.FPS = float64(n) / float64(d)
			}
		}
	}

	return info, nil
}

// Input 滤镜图的一路输入
// Args 放在 -i 之前（如 -f lavfi、-loop 1、-stream_loop -1、-t 等）
type Input struct {
	Args []string
	Path string
}

// FilterGraph 一次 filter_complex 调用的完整描述
type FilterGraph struct {
	Inputs     []Input  // 输入列表（顺序决定 [N:v]/[N:a] 编号）
	Filter     string   // filter_complex 表达式
	Maps       []string // -map 参数（如 "[vout]"、"[aout]"）
	OutputArgs []string // 编码参数（-c:v 等）
}

// RunFilterGraph 执行 filter_complex 滤镜图
// 场景合成器用它把背景、资产叠加层和混音在一次调用中完成
func (c *Client) RunFilterGraph(ctx context.Context, graph *FilterGraph, outputPath string) error {
	args := []string{"-y"}
	for _, in := range graph.Inputs {
		args = append(args, in.Args...)
		args = append(args, "-i", in.Path)
	}
	if graph.Filter != "" {
		args = append(args, "-filter_complex", graph.Filter)
	}
	for _, m := range graph.Maps {
		args = append(args, "-map", m)
	}
	args = append(args, graph.OutputArgs...)
	args = append(args, outputPath)

	cmd := exec.CommandContext(ctx, c.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg filter graph failed: %w, stderr: %s", err, tail(stderr.String()))
	}

	return nil
}

// ConcatVideos 合并多个视频文件
// 使用 concat demuxer（需要创建 concat list 文件）
func (c *Client) ConcatVideos(ctx context.Context, videoPaths []string, outputPath string) error {
	if len(videoPaths) == 0 {
		return fmt.Errorf("no videos to concat")
	}

	tempDir := filepath.Dir(outputPath)
	concatListFile := filepath.Join(tempDir, fmt.Sprintf("concat_list_%d.txt", time.Now().UnixNano()))

	file, err := os.Create(concatListFile)
	if err != nil {
		return fmt.Errorf("create concat list file: %w", err)
	}
	defer os.Remove(concatListFile) // 清理临时文件

	for _, videoPath := range videoPaths {
		absPath, err := filepath.Abs(videoPath)
		if err != nil {
			file.Close()
			return fmt.Errorf("get absolute path: %w", err)
		}
		fmt.Fprintf(file, "file '%s'\n", absPath)
	}
	file.Close()

	// ffmpeg -f concat -safe 0 -i concat_list.txt -c copy output.mp4
	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", concatListFile,
		"-c", "copy", // 使用 copy 避免重新编码
		"-avoid_negative_ts", "make_zero",
		outputPath,
	}

	cmd := exec.CommandContext(ctx, c.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg concat failed: %w, stderr: %s", err, tail(stderr.String()))
	}

	log.Info().
		Int("count", len(videoPaths)).
		Str("output", outputPath).
		Msg("视频合并成功")

	return nil
}

// ApplyEdgeFades 对片段施加首尾淡入淡出（画面+音频）
// fadeIn/fadeOut 为窗口时长（秒），为0表示不处理对应一端
// 转场窗口之外的内容保持不变，总时长不变
func (c *Client) ApplyEdgeFades(ctx context.Context, inputPath, outputPath string, duration, fadeIn, fadeOut float64) error {
	if fadeIn <= 0 && fadeOut <= 0 {
		return fmt.Errorf("no fades to apply")
	}

	var vf, af []string
	if fadeIn > 0 {
		vf = append(vf, fmt.Sprintf("fade=t=in:st=0:d=%.3f", fadeIn))
		af = append(af, fmt.Sprintf("afade=t=in:st=0:d=%.3f", fadeIn))
	}
	if fadeOut > 0 {
		st := duration - fadeOut
		if st < 0 {
			st = 0
		}
		vf = append(vf, fmt.Sprintf("fade=t=out:st=%.3f:d=%.3f", st, fadeOut))
		af = append(af, fmt.Sprintf("afade=t=out:st=%.3f:d=%.3f", st, fadeOut))
	}

	args := []string{
		"-y",
		"-i", inputPath,
		"-vf", strings.Join(vf, ","),
		"-af", strings.Join(af, ","),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "160k",
		outputPath,
	}

	cmd := exec.CommandContext(ctx, c.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg edge fades failed: %w, stderr: %s", err, tail(stderr.String()))
	}

	return nil
}

// tail 截取 stderr 的末尾部分，避免错误信息过长
func tail(s string) string {
	const max = 1024
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max:]
}
