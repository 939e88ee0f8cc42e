package compose

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CropRect 裁剪矩形（图片/视频资产）
// 各字段为相对于源画面的比例值 [0,1]
type CropRect struct {
	X      float64 `bson:"x" json:"x"`           // 左上角X
	Y      float64 `bson:"y" json:"y"`           // 左上角Y
	Width  float64 `bson:"width" json:"width"`   // 宽度
	Height float64 `bson:"height" json:"height"` // 高度
}

// TextStyle 文本资产样式
type TextStyle struct {
	Content   string        `bson:"content" json:"content"`                         // 文本内容
	Font      string        `bson:"font,omitempty" json:"font,omitempty"`           // 字体文件路径（无效时使用默认字体）
	Size      int           `bson:"size,omitempty" json:"size,omitempty"`           // 字号
	Color     string        `bson:"color,omitempty" json:"color,omitempty"`         // 颜色
	Alignment TextAlignment `bson:"alignment,omitempty" json:"alignment,omitempty"` // 对齐方式
}

// AudioStyle 音频资产参数
type AudioStyle struct {
	Volume  float64 `bson:"volume" json:"volume"`                       // 音量系数（1.0为原始音量）
	FadeIn  float64 `bson:"fade_in,omitempty" json:"fade_in,omitempty"` // 淡入时长（秒）
	FadeOut float64 `bson:"fade_out,omitempty" json:"fade_out,omitempty"` // 淡出时长（秒）
	Loop    bool    `bson:"loop,omitempty" json:"loop,omitempty"`       // 是否循环填满时间窗口
}

// Animation 入场/出场动画
// 在资产自身的时间窗口内生效
type Animation struct {
	Entry    string  `bson:"entry,omitempty" json:"entry,omitempty"`       // 入场动画名称
	Exit     string  `bson:"exit,omitempty" json:"exit,omitempty"`         // 出场动画名称
	Duration float64 `bson:"duration,omitempty" json:"duration,omitempty"` // 动画时长（秒）
	Delay    float64 `bson:"delay,omitempty" json:"delay,omitempty"`       // 延迟（秒，相对窗口起点）
}

// Asset 资产实体
// 资产是放置在场景内、带时间窗口的视觉或音频元素，属于且仅属于一个场景
// （素材库资产 SceneID 为空、挂在项目下，渲染器不使用）
type Asset struct {
	ID        string    `bson:"id" json:"id"`                                   // 资产ID（UUID）
	SceneID   string    `bson:"scene_id,omitempty" json:"scene_id,omitempty"`   // 所属场景ID（素材库资产为空）
	ProjectID string    `bson:"project_id" json:"project_id"`                   // 所属项目ID
	UserID    string    `bson:"user_id" json:"user_id"`                         // 用户ID（冗余字段，方便查询）
	Kind      AssetKind `bson:"kind" json:"kind"`                               // 资产类型
	ResourceID string   `bson:"resource_id,omitempty" json:"resource_id,omitempty"` // 源文件资源ID（text 类型不需要）

	// 空间字段（视觉资产）
	X        float64 `bson:"x" json:"x"`               // 横向位置（画面宽度比例 [0,1]）
	Y        float64 `bson:"y" json:"y"`               // 纵向位置（画面高度比例 [0,1]）
	Scale    float64 `bson:"scale" json:"scale"`       // 缩放系数
	Rotation float64 `bson:"rotation" json:"rotation"` // 旋转角度（度）
	Opacity  *float64 `bson:"opacity,omitempty" json:"opacity,omitempty"` // 不透明度 [0,1]，缺省为完全不透明
	Layer    int     `bson:"layer" json:"layer"`       // 图层（越大越靠上；相同值按资产ID升序，保证确定性）

	// 时间字段（场景内，秒）
	// 不变量：0 <= TimelineStart < TimelineEnd <= scene.Duration
	TimelineStart float64  `bson:"timeline_start" json:"timeline_start"`                     // 窗口起点
	TimelineEnd   *float64 `bson:"timeline_end,omitempty" json:"timeline_end,omitempty"`     // 窗口终点（缺省为场景时长）

	// 类型相关字段
	Crop      *CropRect   `bson:"crop,omitempty" json:"crop,omitempty"`           // 裁剪（image/video）
	Text      *TextStyle  `bson:"text,omitempty" json:"text,omitempty"`           // 文本样式（text）
	Audio     *AudioStyle `bson:"audio,omitempty" json:"audio,omitempty"`         // 音频参数（audio_track/background_music）
	Animation *Animation  `bson:"animation,omitempty" json:"animation,omitempty"` // 入场/出场动画

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
}

// Collection 返回集合名称
func (a *Asset) Collection() string {
	return "assets"
}

// EnsureIndexes 创建和维护索引
func (a *Asset) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(a.Collection())
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_id_unique"),
		},
		{
			Keys:    bson.D{{Key: "scene_id", Value: 1}, {Key: "layer", Value: 1}, {Key: "id", Value: 1}},
			Options: options.Index().SetName("idx_scene_layer"),
		},
		{
			Keys:    bson.D{{Key: "project_id", Value: 1}},
			Options: options.Index().SetName("idx_project_id"),
		},
	}
	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}
