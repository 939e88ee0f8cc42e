package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"pomelo/internal/pkg/id"
)

// Config TTS 配置
type Config struct {
	APIURL      string // API 地址，默认: https://openspeech.bytedance.com/api/v1/tts
	AccessToken string // 访问令牌（必需）
	AppID       string // 应用ID（可选）
	Cluster     string // 集群名称，默认: volcano_tts
	VoiceType   string // 语音类型，默认: BV115_streaming
	SampleRate  int    // 采样率，默认: 44100
}

// Client TTS 客户端封装
// 用于调用火山引擎的 TTS API（文本转语音）
// 参考: https://openspeech.bytedance.com/api/v1/tts
type Client struct {
	apiURL      string
	accessToken string
	appID       string
	cluster     string
	voiceType   string
	sampleRate  int
	httpClient  *http.Client
}

// NewClient 创建 TTS 客户端
func NewClient(config Config) (*Client, error) {
	if config.AccessToken == "" {
		return nil, fmt.Errorf("TTS access token is required")
	}

	apiURL := config.APIURL
	if apiURL == "" {
		apiURL = "https://openspeech.bytedance.com/api/v1/tts"
	}

	cluster := config.Cluster
	if cluster == "" {
		cluster = "volcano_tts"
	}

	voiceType := config.VoiceType
	if voiceType == "" {
		voiceType = "BV115_streaming"
	}

	sampleRate := config.SampleRate
	if sampleRate == 0 {
		sampleRate = 44100
	}

	return &Client{
		apiURL:      apiURL,
		accessToken: config.AccessToken,
		appID:       config.AppID,
		cluster:     cluster,
		voiceType:   voiceType,
		sampleRate:  sampleRate,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Result TTS 生成结果
type Result struct {
	AudioData      []byte          // 音频数据（mp3 二进制）
	Duration       float64         // 音频时长（秒）
	WordTimestamps []WordTimestamp // 词级时间戳（用于字幕对齐，可能为空）
}

// WordTimestamp 词级时间戳
type WordTimestamp struct {
	Word      string  `json:"word"`
	StartTime float64 `json:"start_time"` // 开始时间（秒）
	EndTime   float64 `json:"end_time"`   // 结束时间（秒）
}

// GenerateVoice 生成语音
// voiceType 为空时使用客户端默认值
// 返回音频数据、时长和词级时间戳，不保存到文件
func (c *Client) GenerateVoice(ctx context.Context, text, voiceType string, speedRatio float64) (*Result, error) {
	requestID := id.New()
	if voiceType == "" {
		voiceType = c.voiceType
	}
	reqBody, err := json.Marshal(c.buildRequestConfig(text, requestID, voiceType, speedRatio))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer; %s", c.accessToken))
	req.Header.Set("Content-Type", "application/json")

	log.Debug().
		Str("request_id", requestID).
		Int("text_len", len([]rune(text))).
		Msg("发送 TTS 请求")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var apiResp map[string]interface{}
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("parse JSON response: %w", err)
	}

	code, _ := apiResp["code"].(float64)
	if code != 3000 {
		message, _ := apiResp["message"].(string)
		if message == "" {
			message = "unknown error"
		}
		return nil, fmt.Errorf("API response error: %s (code: %.0f)", message, code)
	}

	audioDataBase64, ok := apiResp["data"].(string)
	if !ok {
		return nil, fmt.Errorf("audio data not found in response")
	}

	audioData, err := base64.StdEncoding.DecodeString(audioDataBase64)
	if err != nil {
		return nil, fmt.Errorf("decode audio data: %w", err)
	}

	duration, words := c.parseAddition(apiResp)

	return &Result{
		AudioData:      audioData,
		Duration:       duration,
		WordTimestamps: words,
	}, nil
}

// buildRequestConfig 构建请求配置
// 参考官方文档: https://openspeech.bytedance.com/api/v1/tts
func (c *Client) buildRequestConfig(text, requestID, voiceType string, speedRatio float64) map[string]interface{} {
	appConfig := map[string]interface{}{
		"token":   c.accessToken,
		"cluster": c.cluster,
	}
	if c.appID != "" {
		appConfig["appid"] = c.appID
	}

	audioConfig := map[string]interface{}{
		"voice_type":       voiceType,
		"encoding":         "mp3",
		"compression_rate": 1,
		"rate":             c.sampleRate,
		"speed_ratio":      speedRatio,
		"volume_ratio":     1.0,
		"pitch_ratio":      1.0,
		"language":         "cn",
	}

	requestConfig := map[string]interface{}{
		"reqid":            requestID,
		"text":             text,
		"text_type":        "plain",
		"operation":        "query",
		"silence_duration": "125",
		"with_frontend":    "1",
		"frontend_type":    "unitTson",
		"pure_english_opt": "1",
	}

	return map[string]interface{}{
		"app":     appConfig,
		"user":    map[string]interface{}{"uid": requestID},
		"audio":   audioConfig,
		"request": requestConfig,
	}
}

// parseAddition 从 addition 字段解析音频时长和词级时间戳
func (c *Client) parseAddition(apiResp map[string]interface{}) (float64, []WordTimestamp) {
	addition, ok := apiResp["addition"].(map[string]interface{})
	if !ok {
		return 0, nil
	}

	var duration float64
	// duration 单位为毫秒，可能是字符串或数字
	switch v := addition["duration"].(type) {
	case string:
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			duration = parsed / 1000.0
		}
	case float64:
		duration = v / 1000.0
	}

	var frontendData map[string]interface{}
	switch v := addition["frontend"].(type) {
	case string:
		if err := json.Unmarshal([]byte(v), &frontendData); err != nil {
			log.Warn().Err(err).Msg("解析 frontend 时间戳失败")
			return duration, nil
		}
	case map[string]interface{}:
		frontendData = v
	default:
		return duration, nil
	}

	wordItems, ok := frontendData["words"].([]interface{})
	if !ok {
		return duration, nil
	}

	var words []WordTimestamp
	for _, item := range wordItems {
		wordInfo, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		word, _ := wordInfo["word"].(string)
		startTime, _ := wordInfo["start_time"].(float64)
		endTime, _ := wordInfo["end_time"].(float64)
		if word == "" {
			continue
		}
		words = append(words, WordTimestamp{
			Word:      word,
			StartTime: startTime,
			EndTime:   endTime,
		})
	}

	return duration, words
}
