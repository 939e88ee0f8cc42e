package compose

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pomelo/internal/model/compose"
)

// ProjectRepository 项目仓库接口
type ProjectRepository interface {
	Create(ctx context.Context, p *compose.Project) error
	FindByID(ctx context.Context, id string) (*compose.Project, error)
	FindByUserID(ctx context.Context, userID string) ([]*compose.Project, error)
	UpdateTitle(ctx context.Context, id string, title string) error
	IncrementVersion(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// ProjectRepo 项目仓库实现
type ProjectRepo struct {
	coll *mongo.Collection
}

// NewProjectRepo 创建项目仓库
func NewProjectRepo(db *mongo.Database) *ProjectRepo {
	var p compose.Project
	return &ProjectRepo{coll: db.Collection(p.Collection())}
}

// Create 创建项目
func (r *ProjectRepo) Create(ctx context.Context, p *compose.Project) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Version == 0 {
		p.Version = 1 // 默认版本为 1
	}
	_, err := r.coll.InsertOne(ctx, p)
	return err
}

// FindByID 根据ID查询项目
func (r *ProjectRepo) FindByID(ctx context.Context, id string) (*compose.Project, error) {
	var p compose.Project
	if err := r.coll.FindOne(ctx, bson.M{"id": id, "deleted_at": nil}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByUserID 查询用户的所有项目
func (r *ProjectRepo) FindByUserID(ctx context.Context, userID string) ([]*compose.Project, error) {
	filter := bson.M{"user_id": userID, "deleted_at": nil}
	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var projects []*compose.Project
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// UpdateTitle 更新项目标题
func (r *ProjectRepo) UpdateTitle(ctx context.Context, id string, title string) error {
	update := bson.M{"$set": bson.M{"title": title, "updated_at": time.Now()}}
	_, err := r.coll.UpdateOne(ctx, bson.M{"id": id, "deleted_at": nil}, update)
	return err
}

// IncrementVersion 递增项目版本号（每次成功渲染后调用）
func (r *ProjectRepo) IncrementVersion(ctx context.Context, id string) error {
	update := bson.M{
		"$inc": bson.M{"version": 1},
		"$set": bson.M{"updated_at": time.Now()},
	}
	_, err := r.coll.UpdateOne(ctx, bson.M{"id": id, "deleted_at": nil}, update)
	return err
}

// Delete 软删除项目
func (r *ProjectRepo) Delete(ctx context.Context, id string) error {
	now := time.Now()
	update := bson.M{"$set": bson.M{"deleted_at": now, "updated_at": now}}
	_, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	return err
}
