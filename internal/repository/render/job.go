package render

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pomelo/internal/model/render"
)

// JobRepository 渲染任务仓库接口
type JobRepository interface {
	Create(ctx context.Context, j *render.Job) error
	FindByID(ctx context.Context, id string) (*render.Job, error)
	FindByProjectID(ctx context.Context, projectID string) ([]*render.Job, error)
	FindByStatus(ctx context.Context, status render.JobStatus) ([]*render.Job, error)
	MarkRendering(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id string, manifest *render.Manifest, warnings []render.Warning) error
	MarkFailed(ctx context.Context, id string, jobErr *render.JobError, warnings []render.Warning) error
	MarkCancelled(ctx context.Context, id string) error
}

// JobRepo 渲染任务仓库实现
type JobRepo struct {
	coll *mongo.Collection
}

// NewJobRepo 创建渲染任务仓库
func NewJobRepo(db *mongo.Database) *JobRepo {
	var j render.Job
	return &JobRepo{coll: db.Collection(j.Collection())}
}

// Create 创建任务记录
func (r *JobRepo) Create(ctx context.Context, j *render.Job) error {
	now := time.Now()
	j.CreatedAt = now
	j.UpdatedAt = now
	if j.Status == "" {
		j.Status = render.JobStatusQueued // 默认状态为已入队
	}
	_, err := r.coll.InsertOne(ctx, j)
	return err
}

// FindByID 根据ID查询任务
func (r *JobRepo) FindByID(ctx context.Context, id string) (*render.Job, error) {
	var j render.Job
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&j); err != nil {
		return nil, err
	}
	return &j, nil
}

// FindByProjectID 查询项目的所有任务，按创建时间倒序
func (r *JobRepo) FindByProjectID(ctx context.Context, projectID string) ([]*render.Job, error) {
	filter := bson.M{"project_id": projectID}
	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var jobs []*render.Job
	if err := cursor.All(ctx, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// FindByStatus 按状态查询任务（用于轮询和启动恢复）
func (r *JobRepo) FindByStatus(ctx context.Context, status render.JobStatus) ([]*render.Job, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"status": status})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var jobs []*render.Job
	if err := cursor.All(ctx, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// MarkRendering 任务进入渲染中
func (r *JobRepo) MarkRendering(ctx context.Context, id string) error {
	now := time.Now()
	update := bson.M{"$set": bson.M{
		"status":     render.JobStatusRendering,
		"started_at": now,
		"updated_at": now,
	}}
	_, err := r.coll.UpdateOne(ctx, bson.M{"id": id, "status": render.JobStatusQueued}, update)
	return err
}

// MarkCompleted 任务完成，写入产物清单
func (r *JobRepo) MarkCompleted(ctx context.Context, id string, manifest *render.Manifest, warnings []render.Warning) error {
	now := time.Now()
	update := bson.M{"$set": bson.M{
		"status":       render.JobStatusCompleted,
		"manifest":     manifest,
		"warnings":     warnings,
		"completed_at": now,
		"updated_at":   now,
	}}
	_, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	return err
}

// MarkFailed 任务失败，写入结构化错误
func (r *JobRepo) MarkFailed(ctx context.Context, id string, jobErr *render.JobError, warnings []render.Warning) error {
	now := time.Now()
	update := bson.M{"$set": bson.M{
		"status":       render.JobStatusFailed,
		"error":        jobErr,
		"warnings":     warnings,
		"completed_at": now,
		"updated_at":   now,
	}}
	_, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	return err
}

// MarkCancelled 任务取消（与失败区分，不写入错误）
func (r *JobRepo) MarkCancelled(ctx context.Context, id string) error {
	now := time.Now()
	update := bson.M{"$set": bson.M{
		"status":       render.JobStatusCancelled,
		"completed_at": now,
		"updated_at":   now,
	}}
	// 终态任务不再改写
	filter := bson.M{"id": id, "status": bson.M{"$in": []render.JobStatus{
		render.JobStatusQueued, render.JobStatusRendering,
	}}}
	_, err := r.coll.UpdateOne(ctx, filter, update)
	return err
}
