package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"pomelo/internal/engine"
	"pomelo/internal/pkg/storage"
)

// storageAssetSource 基于存储抽象的资产源
// 把存储中的对象落地为本地文件供 FFmpeg 读取；同一资源只下载一次
type storageAssetSource struct {
	store    storage.Storage
	stageDir string
}

// NewStorageAssetSource 创建存储资产源
func NewStorageAssetSource(store storage.Storage, stageDir string) engine.AssetSource {
	return &storageAssetSource{
		store:    store,
		stageDir: stageDir,
	}
}

// Stage 下载资源到暂存目录，返回本地文件路径
func (s *storageAssetSource) Stage(ctx context.Context, resourceID string) (string, error) {
	if resourceID == "" {
		return "", fmt.Errorf("empty resource id")
	}

	localPath := filepath.Join(s.stageDir, strings.ReplaceAll(resourceID, "/", "_"))
	if _, err := os.Stat(localPath); err == nil {
		return localPath, nil
	}

	reader, err := s.store.Download(ctx, resourceID)
	if err != nil {
		return "", fmt.Errorf("download resource %s: %w", resourceID, err)
	}
	defer reader.Close()

	if err := os.MkdirAll(s.stageDir, 0o755); err != nil {
		return "", fmt.Errorf("create stage dir: %w", err)
	}

	// 先写临时文件再改名，避免并发 Stage 读到半个文件
	tmp, err := os.CreateTemp(s.stageDir, ".staging-*")
	if err != nil {
		return "", fmt.Errorf("create staging file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write staging file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close staging file: %w", err)
	}
	if err := os.Rename(tmp.Name(), localPath); err != nil {
		return "", fmt.Errorf("finalize staging file: %w", err)
	}

	return localPath, nil
}
