package storagefactory

import (
	"context"
	"io"
	"strings"
	"testing"

	"pomelo/internal/config"
)

func TestNewStorage(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name     string
		cfg      *config.StorageConfig
		wantErr  bool
		wantType string
	}{
		{
			name: "valid local storage config",
			cfg: &config.StorageConfig{
				Type: "local",
				Local: &config.LocalConfig{
					BasePath:      tmpDir,
					BaseURL:       "http://localhost:8080/storage",
					PresignExpiry: 3600,
				},
			},
			wantErr:  false,
			wantType: "local",
		},
		{
			name: "missing local config",
			cfg: &config.StorageConfig{
				Type:  "local",
				Local: nil,
			},
			wantErr: true,
		},
		{
			name: "missing oss config",
			cfg: &config.StorageConfig{
				Type: "oss",
				OSS:  nil,
			},
			wantErr: true,
		},
		{
			name: "unsupported storage type",
			cfg: &config.StorageConfig{
				Type: "invalid",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store, err := NewStorage(ctx, tt.cfg)

			if tt.wantErr {
				if err == nil {
					t.Errorf("NewStorage() expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("NewStorage() unexpected error: %v", err)
			}
			if store == nil {
				t.Fatal("NewStorage() expected storage instance, got nil")
			}
			if store.GetStorageType() != tt.wantType {
				t.Errorf("GetStorageType() = %v, want %v", store.GetStorageType(), tt.wantType)
			}
		})
	}
}

func TestLocalStorage_Operations(t *testing.T) {
	tmpDir := t.TempDir()
	baseURL := "http://localhost:8080/storage"

	cfg := &config.StorageConfig{
		Type: "local",
		Local: &config.LocalConfig{
			BasePath:      tmpDir,
			BaseURL:       baseURL,
			PresignExpiry: 3600,
		},
	}

	ctx := context.Background()
	store, err := NewStorage(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	testKey := "outputs/test.mp4"
	testContent := "not really a video"

	url, err := store.Upload(ctx, testKey, strings.NewReader(testContent), "video/mp4")
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if want := baseURL + "/" + testKey; url != want {
		t.Errorf("Upload() url = %v, want %v", url, want)
	}

	exists, err := store.Exists(ctx, testKey)
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if !exists {
		t.Error("Exists() = false, want true")
	}

	reader, err := store.Download(ctx, testKey)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	defer reader.Close()

	got, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(got) != testContent {
		t.Errorf("Download() content = %q, want %q", string(got), testContent)
	}

	info, err := store.GetFileInfo(ctx, testKey)
	if err != nil {
		t.Fatalf("GetFileInfo() error = %v", err)
	}
	if info.Key != testKey {
		t.Errorf("GetFileInfo() Key = %v, want %v", info.Key, testKey)
	}
	if info.Size != int64(len(testContent)) {
		t.Errorf("GetFileInfo() Size = %v, want %v", info.Size, len(testContent))
	}
	if info.ContentType != "video/mp4" {
		t.Errorf("GetFileInfo() ContentType = %v, want video/mp4", info.ContentType)
	}

	if err := store.Delete(ctx, testKey); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	exists, err = store.Exists(ctx, testKey)
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if exists {
		t.Error("Exists() = true after Delete(), want false")
	}

	// 删除不存在的文件应当成功
	if err := store.Delete(ctx, "nonexistent/file.mp4"); err != nil {
		t.Errorf("Delete() error = %v, should succeed for non-existent file", err)
	}
}
