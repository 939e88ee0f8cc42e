package compose

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Background 场景背景配置
// Type 决定哪些字段生效：solid_color 用 Color，gradient 用 GradientFrom/GradientTo，
// image/video 用 ResourceID
type Background struct {
	Type         BackgroundType `bson:"type" json:"type"`                                       // 背景类型
	Color        string         `bson:"color,omitempty" json:"color,omitempty"`                 // 纯色（如 "black"、"0x1A1A2E"）
	GradientFrom string         `bson:"gradient_from,omitempty" json:"gradient_from,omitempty"` // 渐变起始色
	GradientTo   string         `bson:"gradient_to,omitempty" json:"gradient_to,omitempty"`     // 渐变结束色
	ResourceID   string         `bson:"resource_id,omitempty" json:"resource_id,omitempty"`     // 图片/视频资源ID
}

// Transition 转场配置
// Name 为空或不认识的名称按硬切处理（时长为0）
type Transition struct {
	Name     string  `bson:"name,omitempty" json:"name,omitempty"`         // 效果名称（fade/dissolve/...）
	Duration float64 `bson:"duration,omitempty" json:"duration,omitempty"` // 窗口时长（秒）
}

// Scene 场景实体
// 场景是输出视频中一段固定时长的片段，拥有自己的背景、解说和分层资产
// Scene 独占其 Assets，删除场景时级联删除
type Scene struct {
	ID              string     `bson:"id" json:"id"`                                                   // 场景ID（UUID）
	ProjectID       string     `bson:"project_id" json:"project_id"`                                   // 关联的项目ID
	UserID          string     `bson:"user_id" json:"user_id"`                                         // 用户ID（冗余字段，方便查询）
	Order           int        `bson:"order" json:"order"`                                             // 渲染顺序（不要求连续，但必须可全序排序；相同值按创建顺序）
	Duration        float64    `bson:"duration" json:"duration"`                                       // 时长（秒，必须 > 0）
	NarrationText   string     `bson:"narration_text,omitempty" json:"narration_text,omitempty"`       // 解说文本（驱动解说合成，可选）
	Background      Background `bson:"background" json:"background"`                                   // 背景配置
	StylePreset     string     `bson:"style_preset,omitempty" json:"style_preset,omitempty"`           // 样式预设名称
	EntryTransition Transition `bson:"entry_transition,omitempty" json:"entry_transition,omitempty"`   // 入场转场
	ExitTransition  Transition `bson:"exit_transition,omitempty" json:"exit_transition,omitempty"`     // 出场转场
	CreatedAt       time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `bson:"updated_at" json:"updated_at"`
	DeletedAt       *time.Time `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
}

// Collection 返回集合名称
func (s *Scene) Collection() string {
	return "scenes"
}

// EnsureIndexes 创建和维护索引
func (s *Scene) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(s.Collection())
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_id_unique"),
		},
		{
			Keys:    bson.D{{Key: "project_id", Value: 1}, {Key: "order", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_project_order"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_user_created"),
		},
	}
	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}
