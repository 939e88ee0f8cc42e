package compose

// AssetKind 资产类型
// 按能力分为两类：渲染为画面帧（image/video/text）和渲染为音频采样（audio_track/background_music）
type AssetKind string

const (
	AssetKindImage           AssetKind = "image"            // 图片
	AssetKindVideo           AssetKind = "video"            // 视频
	AssetKindText            AssetKind = "text"             // 文本
	AssetKindAudioTrack      AssetKind = "audio_track"      // 音轨
	AssetKindBackgroundMusic AssetKind = "background_music" // 背景音乐
)

// String 返回类型的字符串表示
func (k AssetKind) String() string {
	return string(k)
}

// IsVisual 是否渲染为画面帧
func (k AssetKind) IsVisual() bool {
	switch k {
	case AssetKindImage, AssetKindVideo, AssetKindText:
		return true
	}
	return false
}

// IsAudio 是否渲染为音频采样
func (k AssetKind) IsAudio() bool {
	switch k {
	case AssetKindAudioTrack, AssetKindBackgroundMusic:
		return true
	}
	return false
}

// BackgroundType 场景背景类型
type BackgroundType string

const (
	BackgroundTypeSolidColor BackgroundType = "solid_color" // 纯色
	BackgroundTypeGradient   BackgroundType = "gradient"    // 渐变
	BackgroundTypeImage      BackgroundType = "image"       // 图片
	BackgroundTypeVideo      BackgroundType = "video"       // 视频
)

// String 返回类型的字符串表示
func (t BackgroundType) String() string {
	return string(t)
}

// TextAlignment 文本对齐方式
type TextAlignment string

const (
	TextAlignLeft   TextAlignment = "left"
	TextAlignCenter TextAlignment = "center"
	TextAlignRight  TextAlignment = "right"
)
