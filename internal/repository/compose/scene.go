package compose

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pomelo/internal/model/compose"
)

// SceneRepository 场景仓库接口
type SceneRepository interface {
	Create(ctx context.Context, s *compose.Scene) error
	FindByID(ctx context.Context, id string) (*compose.Scene, error)
	FindByProjectID(ctx context.Context, projectID string) ([]*compose.Scene, error)
	Update(ctx context.Context, s *compose.Scene) error
	Delete(ctx context.Context, id string) error
	DeleteByProjectID(ctx context.Context, projectID string) error
}

// SceneRepo 场景仓库实现
type SceneRepo struct {
	coll *mongo.Collection
}

// NewSceneRepo 创建场景仓库
func NewSceneRepo(db *mongo.Database) *SceneRepo {
	var s compose.Scene
	return &SceneRepo{coll: db.Collection(s.Collection())}
}

// Create 创建场景
func (r *SceneRepo) Create(ctx context.Context, s *compose.Scene) error {
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now
	_, err := r.coll.InsertOne(ctx, s)
	return err
}

// FindByID 根据ID查询场景
func (r *SceneRepo) FindByID(ctx context.Context, id string) (*compose.Scene, error) {
	var s compose.Scene
	if err := r.coll.FindOne(ctx, bson.M{"id": id, "deleted_at": nil}).Decode(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// FindByProjectID 查询项目的所有场景，按渲染顺序排序
// order 值不要求连续；相同值按创建时间升序
func (r *SceneRepo) FindByProjectID(ctx context.Context, projectID string) ([]*compose.Scene, error) {
	filter := bson.M{"project_id": projectID, "deleted_at": nil}
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "created_at", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var scenes []*compose.Scene
	if err := cursor.All(ctx, &scenes); err != nil {
		return nil, err
	}
	return scenes, nil
}

// Update 更新场景
func (r *SceneRepo) Update(ctx context.Context, s *compose.Scene) error {
	s.UpdatedAt = time.Now()
	update := bson.M{"$set": bson.M{
		"order":            s.Order,
		"duration":         s.Duration,
		"narration_text":   s.NarrationText,
		"background":       s.Background,
		"style_preset":     s.StylePreset,
		"entry_transition": s.EntryTransition,
		"exit_transition":  s.ExitTransition,
		"updated_at":       s.UpdatedAt,
	}}
	_, err := r.coll.UpdateOne(ctx, bson.M{"id": s.ID, "deleted_at": nil}, update)
	return err
}

// Delete 软删除场景
func (r *SceneRepo) Delete(ctx context.Context, id string) error {
	now := time.Now()
	update := bson.M{"$set": bson.M{"deleted_at": now, "updated_at": now}}
	_, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	return err
}

// DeleteByProjectID 软删除项目下的所有场景
func (r *SceneRepo) DeleteByProjectID(ctx context.Context, projectID string) error {
	now := time.Now()
	update := bson.M{"$set": bson.M{"deleted_at": now, "updated_at": now}}
	_, err := r.coll.UpdateMany(ctx, bson.M{"project_id": projectID}, update)
	return err
}
