package compose

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Project 项目实体
// 一个 Project 拥有一组有序的 Scene；渲染开始后项目内容不再影响进行中的任务
// （渲染任务在提交时读取一份不可变快照）
type Project struct {
	ID        string     `bson:"id" json:"id"`           // 项目ID（UUID）
	UserID    string     `bson:"user_id" json:"user_id"` // 用户ID
	Title     string     `bson:"title" json:"title"`     // 项目标题
	Version   int        `bson:"version" json:"version"` // 版本号（每次成功渲染后递增）
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
}

// Collection 返回集合名称
func (p *Project) Collection() string {
	return "projects"
}

// EnsureIndexes 创建和维护索引
func (p *Project) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(p.Collection())
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_id_unique"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_user_created"),
		},
	}
	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}
