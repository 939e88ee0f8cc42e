package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"

	"pomelo/internal/config"
	"pomelo/internal/engine"
	modelrender "pomelo/internal/model/render"
	"pomelo/internal/pkg/cache"
	"pomelo/internal/pkg/id"
	"pomelo/internal/pkg/narration"
	"pomelo/internal/pkg/storage"
	composerepo "pomelo/internal/repository/compose"
	renderrepo "pomelo/internal/repository/render"
)

// RenderService 渲染任务服务接口
// 提交/轮询/取消契约：submit 返回任务ID，poll 返回状态和产物清单或结构化错误，
// cancel 中止进行中的任务（取消与失败是不同的终态）
type RenderService interface {
	// Submit 提交渲染任务
	// 提交时读取项目场景图的不可变快照，之后的项目编辑不影响该任务
	Submit(ctx context.Context, userID, projectID, quality string) (*modelrender.Job, error)

	// Poll 查询任务状态
	Poll(ctx context.Context, jobID string) (*modelrender.Job, error)

	// Cancel 取消任务
	// 取消会传播到进行中的场景渲染和编码进程，不留下不完整的输出文件
	Cancel(ctx context.Context, jobID string) error

	// ListByProject 查询项目的所有渲染任务
	ListByProject(ctx context.Context, projectID string) ([]*modelrender.Job, error)
}

// renderService 渲染任务服务实现
type renderService struct {
	compose     ComposeService
	jobRepo     renderrepo.JobRepository
	projectRepo composerepo.ProjectRepository
	eng         *engine.Engine
	store       storage.Storage
	cache       *cache.RedisCache // 可选，为 nil 时直接查库
	outputDir   string

	mu      sync.Mutex
	running map[string]context.CancelFunc // 进行中任务的取消入口
}

// NewRenderService 创建渲染任务服务
func NewRenderService(
	db *mongo.Database,
	composeService ComposeService,
	store storage.Storage,
	redisCache *cache.RedisCache,
	narrator narration.Provider,
	cfg *config.RenderConfig,
) RenderService {
	workDir := cfg.WorkDir
	if workDir == "" {
		workDir = filepath.Join(os.TempDir(), "pomelo")
	}

	eng := engine.New(
		NewStorageAssetSource(store, filepath.Join(workDir, "stage")),
		narrator,
		engine.Options{
			SceneWorkers:     cfg.SceneWorkers,
			WorkDir:          workDir,
			FontFile:         cfg.FontFile,
			CaptionMaxLength: cfg.CaptionMaxLength,
			NarrationTimeout: cfg.NarrationTimeout,
		},
	)

	return &renderService{
		compose:     composeService,
		jobRepo:     renderrepo.NewJobRepo(db),
		projectRepo: composerepo.NewProjectRepo(db),
		eng:         eng,
		store:       store,
		cache:       redisCache,
		outputDir:   cfg.OutputDir,
		running:     make(map[string]context.CancelFunc),
	}
}

// Submit 提交渲染任务
func (s *renderService) Submit(ctx context.Context, userID, projectID, quality string) (*modelrender.Job, error) {
	project, err := s.compose.GetProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("项目不存在: %w", err)
	}

	snap, err := s.compose.LoadSnapshot(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("加载场景图快照失败: %w", err)
	}

	job := &modelrender.Job{
		ID:        id.New(),
		ProjectID: projectID,
		UserID:    userID,
		Quality:   quality,
		Status:    modelrender.JobStatusQueued,
		Version:   project.Version,
	}
	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("创建任务记录失败: %w", err)
	}

	// 任务生命周期独立于提交请求的上下文
	jobCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.running[job.ID] = cancel
	s.mu.Unlock()

	go s.run(jobCtx, job, snap)

	log.Info().
		Str("job_id", job.ID).
		Str("project_id", projectID).
		Str("quality", quality).
		Msg("渲染任务已提交")

	return job, nil
}

// run 执行渲染管线并落盘终态
func (s *renderService) run(ctx context.Context, job *modelrender.Job, snap *engine.Snapshot) {
	defer func() {
		s.mu.Lock()
		if cancel, ok := s.running[job.ID]; ok {
			cancel()
			delete(s.running, job.ID)
		}
		s.mu.Unlock()
	}()

	// 状态落盘不能用任务上下文，取消后仍要写终态
	saveCtx, saveCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer saveCancel()

	if err := s.jobRepo.MarkRendering(saveCtx, job.ID); err != nil {
		log.Error().Str("job_id", job.ID).Err(err).Msg("任务状态更新失败")
	}
	s.invalidateCache(saveCtx, job.ID)

	outputPath := filepath.Join(s.outputDir, fmt.Sprintf("%s.mp4", job.ID))
	result, err := s.eng.Render(ctx, snap, job.Quality, outputPath)

	switch status, jobErr := classifyOutcome(err); status {
	case modelrender.JobStatusCompleted:
		s.complete(saveCtx, job, result)

	case modelrender.JobStatusCancelled:
		if markErr := s.jobRepo.MarkCancelled(saveCtx, job.ID); markErr != nil {
			log.Error().Str("job_id", job.ID).Err(markErr).Msg("任务取消状态落盘失败")
		}
		log.Info().Str("job_id", job.ID).Msg("渲染任务已取消")

	default:
		if markErr := s.jobRepo.MarkFailed(saveCtx, job.ID, jobErr, nil); markErr != nil {
			log.Error().Str("job_id", job.ID).Err(markErr).Msg("任务失败状态落盘失败")
		}
		log.Error().
			Str("job_id", job.ID).
			Str("kind", jobErr.Kind).
			Err(err).
			Msg("渲染任务失败")
	}

	s.invalidateCache(saveCtx, job.ID)
}

// complete 上传产物、写入清单并递增项目版本
func (s *renderService) complete(ctx context.Context, job *modelrender.Job, result *engine.Result) {
	manifest := &modelrender.Manifest{
		OutputPath:      result.OutputPath,
		DurationSeconds: result.DurationSeconds,
		SceneCount:      result.SceneCount,
		FileSizeBytes:   result.FileSizeBytes,
		Resolution:      result.Resolution,
		CreatedAt:       time.Now(),
	}

	// 产物上传失败不影响任务完成，输出文件仍在本地输出目录
	if resourceID, err := s.uploadOutput(ctx, job.ID, result.OutputPath); err != nil {
		log.Warn().Str("job_id", job.ID).Err(err).Msg("产物上传失败，仅保留本地文件")
	} else {
		manifest.OutputResourceID = resourceID
	}

	warnings := make([]modelrender.Warning, 0, len(result.Warnings))
	for _, w := range result.Warnings {
		warnings = append(warnings, modelrender.Warning{
			SceneID: w.SceneID,
			AssetID: w.AssetID,
			Message: fmt.Sprintf("[%s] %s", w.Kind, w.Message),
		})
	}

	if err := s.jobRepo.MarkCompleted(ctx, job.ID, manifest, warnings); err != nil {
		log.Error().Str("job_id", job.ID).Err(err).Msg("任务完成状态落盘失败")
		return
	}
	if err := s.projectRepo.IncrementVersion(ctx, job.ProjectID); err != nil {
		log.Warn().Str("project_id", job.ProjectID).Err(err).Msg("项目版本号递增失败")
	}

	log.Info().
		Str("job_id", job.ID).
		Float64("duration", manifest.DurationSeconds).
		Int("scenes", manifest.SceneCount).
		Int("warnings", len(warnings)).
		Msg("渲染任务完成")
}

// uploadOutput 把输出文件上传到存储，返回资源ID
func (s *renderService) uploadOutput(ctx context.Context, jobID, outputPath string) (string, error) {
	file, err := os.Open(outputPath)
	if err != nil {
		return "", fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	resourceID := fmt.Sprintf("outputs/%s.mp4", jobID)
	if _, err := s.store.Upload(ctx, resourceID, file, "video/mp4"); err != nil {
		return "", fmt.Errorf("upload output: %w", err)
	}
	return resourceID, nil
}

// Poll 查询任务状态
// 终态任务走 Redis 缓存，减少轮询对 MongoDB 的压力
func (s *renderService) Poll(ctx context.Context, jobID string) (*modelrender.Job, error) {
	if s.cache != nil {
		var cached modelrender.Job
		if err := s.cache.Get(ctx, cache.RenderJobCacheKey(jobID), &cached); err == nil {
			return &cached, nil
		}
	}

	job, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("任务不存在: %w", err)
	}

	if s.cache != nil && job.Status.IsTerminal() {
		if err := s.cache.Set(ctx, cache.RenderJobCacheKey(jobID), job, cache.RenderJobCacheTTL); err != nil {
			log.Warn().Str("job_id", jobID).Err(err).Msg("任务缓存写入失败")
		}
	}

	return job, nil
}

// Cancel 取消任务
func (s *renderService) Cancel(ctx context.Context, jobID string) error {
	s.mu.Lock()
	cancel, inFlight := s.running[jobID]
	s.mu.Unlock()

	if inFlight {
		// 进行中的任务：取消传播到场景 worker 和编码进程，
		// 终态由 run 统一落盘
		cancel()
		return nil
	}

	job, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("任务不存在: %w", err)
	}
	if job.Status.IsTerminal() {
		return fmt.Errorf("任务已结束，状态为 %s", job.Status)
	}

	// 队列中但不在本进程运行（如进程重启后的遗留任务）
	if err := s.jobRepo.MarkCancelled(ctx, jobID); err != nil {
		return fmt.Errorf("取消任务失败: %w", err)
	}
	s.invalidateCache(ctx, jobID)
	return nil
}

// ListByProject 查询项目的所有渲染任务
func (s *renderService) ListByProject(ctx context.Context, projectID string) ([]*modelrender.Job, error) {
	return s.jobRepo.FindByProjectID(ctx, projectID)
}

func (s *renderService) invalidateCache(ctx context.Context, jobID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cache.RenderJobCacheKey(jobID)); err != nil {
		log.Warn().Str("job_id", jobID).Err(err).Msg("任务缓存清理失败")
	}
}

// classifyOutcome 把引擎的渲染结果映射为任务终态
// 取消与失败是不同的终态：取消不携带结构化错误
func classifyOutcome(err error) (modelrender.JobStatus, *modelrender.JobError) {
	switch {
	case err == nil:
		return modelrender.JobStatusCompleted, nil
	case errors.Is(err, context.Canceled):
		return modelrender.JobStatusCancelled, nil
	default:
		return modelrender.JobStatusFailed, toJobError(err)
	}
}

// toJobError 把引擎错误转换为结构化任务错误
func toJobError(err error) *modelrender.JobError {
	var renderErr *engine.RenderError
	if errors.As(err, &renderErr) {
		return &modelrender.JobError{
			Kind:    string(renderErr.Kind),
			SceneID: renderErr.SceneID,
			AssetID: renderErr.AssetID,
			Message: renderErr.Error(),
		}
	}
	return &modelrender.JobError{
		Kind:    "internal",
		Message: err.Error(),
	}
}
