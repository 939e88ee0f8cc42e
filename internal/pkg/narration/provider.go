package narration

import (
	"context"
	"errors"

	"pomelo/internal/pkg/tts"
)

// ErrUnavailable 表示当前没有可用的旁白合成能力
// 调用方应当降级处理（场景保持无声），而不是让整个任务失败
var ErrUnavailable = errors.New("narration provider unavailable")

// VoiceConfig 旁白语音配置
type VoiceConfig struct {
	VoiceType  string  // 语音类型，为空时使用提供方默认值
	SpeedRatio float64 // 语速倍率，为0时默认1.0
}

// Speech 旁白合成结果
type Speech struct {
	AudioData []byte              // 音频数据（mp3 二进制）
	Duration  float64             // 音频时长（秒）
	Words     []tts.WordTimestamp // 词级时间戳（用于字幕对齐，可能为空）
	Overlay   []byte              // 可选的数字人画面（mp4 二进制），为空时场景只叠加字幕
}

// Provider 旁白合成能力
// 实现方可以是真实的 TTS 服务，也可以是空实现（能力未配置时）
type Provider interface {
	// Synthesize 将旁白文本合成为语音
	// 能力不可用时返回 ErrUnavailable
	Synthesize(ctx context.Context, text string, voice VoiceConfig) (*Speech, error)
}
