package compose

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pomelo/internal/model/compose"
)

// AssetRepository 资产仓库接口
type AssetRepository interface {
	Create(ctx context.Context, a *compose.Asset) error
	FindByID(ctx context.Context, id string) (*compose.Asset, error)
	FindBySceneID(ctx context.Context, sceneID string) ([]*compose.Asset, error)
	FindBySceneIDs(ctx context.Context, sceneIDs []string) ([]*compose.Asset, error)
	Update(ctx context.Context, a *compose.Asset) error
	Delete(ctx context.Context, id string) error
	DeleteBySceneID(ctx context.Context, sceneID string) error
}

// AssetRepo 资产仓库实现
type AssetRepo struct {
	coll *mongo.Collection
}

// NewAssetRepo 创建资产仓库
func NewAssetRepo(db *mongo.Database) *AssetRepo {
	var a compose.Asset
	return &AssetRepo{coll: db.Collection(a.Collection())}
}

// Create 创建资产
func (r *AssetRepo) Create(ctx context.Context, a *compose.Asset) error {
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.Scale == 0 {
		a.Scale = 1.0 // 默认不缩放
	}
	_, err := r.coll.InsertOne(ctx, a)
	return err
}

// FindByID 根据ID查询资产
func (r *AssetRepo) FindByID(ctx context.Context, id string) (*compose.Asset, error) {
	var a compose.Asset
	if err := r.coll.FindOne(ctx, bson.M{"id": id, "deleted_at": nil}).Decode(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

// FindBySceneID 查询场景的所有资产，按图层升序（相同图层按资产ID升序）
func (r *AssetRepo) FindBySceneID(ctx context.Context, sceneID string) ([]*compose.Asset, error) {
	return r.find(ctx, bson.M{"scene_id": sceneID, "deleted_at": nil})
}

// FindBySceneIDs 批量查询多个场景的资产（快照加载用）
func (r *AssetRepo) FindBySceneIDs(ctx context.Context, sceneIDs []string) ([]*compose.Asset, error) {
	return r.find(ctx, bson.M{"scene_id": bson.M{"$in": sceneIDs}, "deleted_at": nil})
}

func (r *AssetRepo) find(ctx context.Context, filter bson.M) ([]*compose.Asset, error) {
	opts := options.Find().SetSort(bson.D{{Key: "layer", Value: 1}, {Key: "id", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var assets []*compose.Asset
	if err := cursor.All(ctx, &assets); err != nil {
		return nil, err
	}
	return assets, nil
}

// Update 更新资产
func (r *AssetRepo) Update(ctx context.Context, a *compose.Asset) error {
	a.UpdatedAt = time.Now()
	update := bson.M{"$set": bson.M{
		"kind":           a.Kind,
		"resource_id":    a.ResourceID,
		"x":              a.X,
		"y":              a.Y,
		"scale":          a.Scale,
		"rotation":       a.Rotation,
		"opacity":        a.Opacity,
		"layer":          a.Layer,
		"timeline_start": a.TimelineStart,
		"timeline_end":   a.TimelineEnd,
		"crop":           a.Crop,
		"text":           a.Text,
		"audio":          a.Audio,
		"animation":      a.Animation,
		"updated_at":     a.UpdatedAt,
	}}
	_, err := r.coll.UpdateOne(ctx, bson.M{"id": a.ID, "deleted_at": nil}, update)
	return err
}

// Delete 软删除资产
func (r *AssetRepo) Delete(ctx context.Context, id string) error {
	now := time.Now()
	update := bson.M{"$set": bson.M{"deleted_at": now, "updated_at": now}}
	_, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	return err
}

// DeleteBySceneID 软删除场景下的所有资产（场景删除时级联）
func (r *AssetRepo) DeleteBySceneID(ctx context.Context, sceneID string) error {
	now := time.Now()
	update := bson.M{"$set": bson.M{"deleted_at": now, "updated_at": now}}
	_, err := r.coll.UpdateMany(ctx, bson.M{"scene_id": sceneID}, update)
	return err
}
