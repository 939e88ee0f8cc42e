package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"pomelo/internal/engine"
	"pomelo/internal/pkg/narration"
	"pomelo/internal/pkg/storage/local"
	"pomelo/internal/service"
)

var (
	renderSnapshot string
	renderAssets   string
	renderOutput   string
	renderQuality  string
	renderWorkers  int
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a scene graph snapshot to a video file",
	Long: `Render a scene graph snapshot (JSON) to a video file without the API server.
Asset resource IDs are resolved as paths relative to the --assets directory.`,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	flags := renderCmd.Flags()
	flags.StringVarP(&renderSnapshot, "snapshot", "s", "", "scene graph snapshot JSON file (required)")
	flags.StringVarP(&renderAssets, "assets", "a", ".", "directory containing asset resources")
	flags.StringVarP(&renderOutput, "output", "o", "output.mp4", "output video path")
	flags.StringVarP(&renderQuality, "quality", "q", "high", "quality preset (low/medium/high/ultra)")
	flags.IntVarP(&renderWorkers, "workers", "w", 2, "concurrent scene render workers")

	_ = renderCmd.MarkFlagRequired("snapshot")
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	data, err := os.ReadFile(renderSnapshot)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	snap := &engine.Snapshot{}
	if err := json.Unmarshal(data, snap); err != nil {
		return fmt.Errorf("failed to parse snapshot: %w", err)
	}

	// 资产目录当作本地存储，resource_id 即相对路径
	store, err := local.NewLocalStorage(renderAssets, "", 0)
	if err != nil {
		return fmt.Errorf("failed to open assets dir: %w", err)
	}

	workDir := cfg.Render.WorkDir
	if workDir == "" {
		workDir = filepath.Join(os.TempDir(), "pomelo")
	}
	source := service.NewStorageAssetSource(store, filepath.Join(workDir, "stage"))

	eng := engine.New(source, narration.NewNoopProvider(), engine.Options{
		SceneWorkers:     renderWorkers,
		WorkDir:          workDir,
		FontFile:         cfg.Render.FontFile,
		CaptionMaxLength: cfg.Render.CaptionMaxLength,
		NarrationTimeout: cfg.Render.NarrationTimeout,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info().
		Str("snapshot", renderSnapshot).
		Str("output", renderOutput).
		Str("quality", renderQuality).
		Int("scenes", len(snap.Scenes)).
		Msg("开始离线渲染")

	result, err := eng.Render(ctx, snap, renderQuality, renderOutput)
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	for _, w := range result.Warnings {
		log.Warn().
			Str("kind", w.Kind).
			Str("scene_id", w.SceneID).
			Str("asset_id", w.AssetID).
			Msg(w.Message)
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))
	return nil
}
