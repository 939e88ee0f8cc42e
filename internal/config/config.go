package config

import (
	"errors"
	"time"
)

// Config 应用配置根结构
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Render    RenderConfig    `mapstructure:"render"`
	Narration NarrationConfig `mapstructure:"narration"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// LogConfig 日志配置 (Zerolog)
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	TimeFormat string `mapstructure:"time_format"`
}

// MongoConfig MongoDB 配置
type MongoConfig struct {
	URI         string `mapstructure:"uri"`
	Database    string `mapstructure:"database"`
	MaxPoolSize uint64 `mapstructure:"max_pool_size"`
	MinPoolSize uint64 `mapstructure:"min_pool_size"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig 认证配置
type AuthConfig struct {
	JWTSecret         string        `mapstructure:"jwt_secret"`          // JWT密钥
	AccessTokenExpiry time.Duration `mapstructure:"access_token_expiry"` // Access Token过期时间
}

// StorageConfig 存储配置
type StorageConfig struct {
	Type  string       `mapstructure:"type"` // local, oss
	Local *LocalConfig `mapstructure:"local,omitempty"`
	OSS   *OSSConfig   `mapstructure:"oss,omitempty"`
}

// LocalConfig 本地文件系统配置
type LocalConfig struct {
	BasePath      string `mapstructure:"base_path"`      // 基础路径
	BaseURL       string `mapstructure:"base_url"`       // 基础URL（用于生成访问URL）
	PresignExpiry int    `mapstructure:"presign_expiry"` // 预签名URL过期时间（秒）
}

// OSSConfig 阿里云OSS配置
type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`          // OSS端点
	Bucket          string `mapstructure:"bucket"`            // Bucket名称
	AccessKeyID     string `mapstructure:"access_key_id"`     // AccessKey ID
	AccessKeySecret string `mapstructure:"access_key_secret"` // AccessKey Secret
	PresignExpiry   int    `mapstructure:"presign_expiry"`    // 预签名URL过期时间（秒）
}

// RenderConfig 渲染引擎配置
type RenderConfig struct {
	OutputDir        string        `mapstructure:"output_dir"`         // 最终视频输出目录
	WorkDir          string        `mapstructure:"work_dir"`           // 任务临时工作目录的父目录（空则使用系统临时目录）
	SceneWorkers     int           `mapstructure:"scene_workers"`      // 场景并行渲染的最大 worker 数
	DefaultQuality   string        `mapstructure:"default_quality"`    // 默认画质档位（low/medium/high/ultra）
	FontFile         string        `mapstructure:"font_file"`          // 文本资产使用的字体文件
	CaptionMaxLength int           `mapstructure:"caption_max_length"` // 解说字幕每行最大字符数
	NarrationTimeout time.Duration `mapstructure:"narration_timeout"`  // 解说合成调用超时（超时则降级无解说）
}

// NarrationConfig 解说合成（TTS）配置
type NarrationConfig struct {
	Enabled     bool   `mapstructure:"enabled"`      // 是否启用解说合成（关闭时使用空实现）
	APIURL      string `mapstructure:"api_url"`      // TTS API 地址
	AccessToken string `mapstructure:"access_token"` // 访问令牌
	AppID       string `mapstructure:"app_id"`       // 应用ID
	Cluster     string `mapstructure:"cluster"`      // 集群名称
	VoiceType   string `mapstructure:"voice_type"`   // 默认语音类型
	SampleRate  int    `mapstructure:"sample_rate"`  // 采样率
}

// Validate 验证配置有效性
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("invalid server port")
	}

	validModes := map[string]bool{"debug": true, "release": true, "test": true}
	if !validModes[c.Server.Mode] {
		return errors.New("invalid server mode, must be debug/release/test")
	}

	if c.Render.SceneWorkers <= 0 {
		return errors.New("render.scene_workers must be positive")
	}

	return nil
}
