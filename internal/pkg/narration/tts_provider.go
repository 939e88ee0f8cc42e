package narration

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"pomelo/internal/pkg/tts"
)

// ttsProvider 基于 TTS 客户端的旁白提供方
type ttsProvider struct {
	client *tts.Client
}

// NewTTSProvider 创建 TTS 旁白提供方
func NewTTSProvider(client *tts.Client) Provider {
	return &ttsProvider{client: client}
}

// Synthesize 调用 TTS 服务合成旁白
func (p *ttsProvider) Synthesize(ctx context.Context, text string, voice VoiceConfig) (*Speech, error) {
	speedRatio := voice.SpeedRatio
	if speedRatio <= 0 {
		speedRatio = 1.0
	}

	result, err := p.client.GenerateVoice(ctx, text, voice.VoiceType, speedRatio)
	if err != nil {
		return nil, fmt.Errorf("synthesize narration: %w", err)
	}

	log.Debug().
		Float64("duration", result.Duration).
		Int("words", len(result.WordTimestamps)).
		Msg("旁白合成完成")

	return &Speech{
		AudioData: result.AudioData,
		Duration:  result.Duration,
		Words:     result.WordTimestamps,
	}, nil
}
