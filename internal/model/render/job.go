package render

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// JobStatus 渲染任务状态
// 状态机：queued → rendering → {completed | failed | cancelled}
// 不支持部分完成/断点续传：失败的任务整体重新提交
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"    // 已入队
	JobStatusRendering JobStatus = "rendering" // 渲染中
	JobStatusCompleted JobStatus = "completed" // 已完成
	JobStatusFailed    JobStatus = "failed"    // 失败
	JobStatusCancelled JobStatus = "cancelled" // 已取消（与失败区分）
)

// String 返回状态的字符串表示
func (s JobStatus) String() string {
	return string(s)
}

// IsTerminal 是否为终态
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// Manifest 渲染产物清单
type Manifest struct {
	OutputPath       string    `bson:"output_path" json:"output_path"`               // 输出文件路径
	OutputResourceID string    `bson:"output_resource_id,omitempty" json:"output_resource_id,omitempty"` // 上传后的资源ID（可选）
	DurationSeconds  float64   `bson:"duration_seconds" json:"duration_seconds"`     // 总时长（秒）
	SceneCount       int       `bson:"scene_count" json:"scene_count"`               // 场景数
	FileSizeBytes    int64     `bson:"file_size_bytes" json:"file_size_bytes"`       // 文件字节数
	Resolution       string    `bson:"resolution" json:"resolution"`                 // 分辨率（如 "1920x1080"）
	CreatedAt        time.Time `bson:"created_at" json:"created_at"`                 // 产物生成时间
}

// JobError 结构化任务错误
// 只有结构性/致命错误会让任务进入 failed；可恢复错误记录为 Warning
type JobError struct {
	Kind    string `bson:"kind" json:"kind"`                             // 错误类别（invalid_snapshot/encoder/output_io/...）
	SceneID string `bson:"scene_id,omitempty" json:"scene_id,omitempty"` // 关联场景ID（如适用）
	AssetID string `bson:"asset_id,omitempty" json:"asset_id,omitempty"` // 关联资产ID（如适用）
	Message string `bson:"message" json:"message"`                       // 错误信息
}

// Warning 渲染告警（可恢复降级的记录）
type Warning struct {
	SceneID string `bson:"scene_id,omitempty" json:"scene_id,omitempty"`
	AssetID string `bson:"asset_id,omitempty" json:"asset_id,omitempty"`
	Message string `bson:"message" json:"message"`
}

// Job 渲染任务实体
// 一次 Job 把项目场景图的不可变快照渲染为单个视频文件
type Job struct {
	ID          string     `bson:"id" json:"id"`                                   // 任务ID（UUID）
	ProjectID   string     `bson:"project_id" json:"project_id"`                   // 项目ID
	UserID      string     `bson:"user_id" json:"user_id"`                         // 用户ID
	Quality     string     `bson:"quality" json:"quality"`                         // 画质档位（提交时的原始字符串）
	Status      JobStatus  `bson:"status" json:"status"`                           // 状态
	Manifest    *Manifest  `bson:"manifest,omitempty" json:"manifest,omitempty"`   // 产物清单（completed 时有值）
	Error       *JobError  `bson:"error,omitempty" json:"error,omitempty"`         // 结构化错误（failed 时有值）
	Warnings    []Warning  `bson:"warnings,omitempty" json:"warnings,omitempty"`   // 渲染过程中的降级记录
	Version     int        `bson:"version" json:"version"`                         // 项目渲染版本号
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
	StartedAt   *time.Time `bson:"started_at,omitempty" json:"started_at,omitempty"`
	CompletedAt *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
}

// Collection 返回集合名称
func (j *Job) Collection() string {
	return "render_jobs"
}

// EnsureIndexes 创建和维护索引
func (j *Job) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(j.Collection())
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_id_unique"),
		},
		{
			Keys:    bson.D{{Key: "project_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_project_created"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_status"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_user_created"),
		},
	}
	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}
