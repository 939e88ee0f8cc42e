package narration

import "context"

// noopProvider 未配置旁白能力时的空实现
type noopProvider struct{}

// NewNoopProvider 创建空旁白提供方
func NewNoopProvider() Provider {
	return &noopProvider{}
}

func (p *noopProvider) Synthesize(ctx context.Context, text string, voice VoiceConfig) (*Speech, error) {
	return nil, ErrUnavailable
}
