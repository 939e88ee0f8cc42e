package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"pomelo/internal/model/compose"
	"pomelo/internal/model/render"
)

// EnsureIndexes 创建所有模型的索引
// 统一入口，在应用启动时调用
func EnsureIndexes(db *mongo.Database) error {
	ctx := context.Background()

	models := []Model{
		&compose.Project{},
		&compose.Scene{},
		&compose.Asset{},
		&render.Job{},
	}

	return EnsureAllIndexes(ctx, db, models...)
}
