package service

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"pomelo/internal/engine"
	modelcompose "pomelo/internal/model/compose"
	"pomelo/internal/pkg/id"
	composerepo "pomelo/internal/repository/compose"
)

// ComposeService 场景图编排服务接口
// 负责项目/场景/资产的增删改查，以及渲染用的不可变快照加载
type ComposeService interface {
	// CreateProject 创建项目
	CreateProject(ctx context.Context, userID, title string) (*modelcompose.Project, error)

	// GetProject 获取项目
	GetProject(ctx context.Context, projectID string) (*modelcompose.Project, error)

	// ListProjects 获取用户的所有项目
	ListProjects(ctx context.Context, userID string) ([]*modelcompose.Project, error)

	// UpdateProjectTitle 更新项目标题
	UpdateProjectTitle(ctx context.Context, projectID, title string) error

	// DeleteProject 删除项目（级联删除场景和资产）
	DeleteProject(ctx context.Context, projectID string) error

	// CreateScene 在项目下创建场景
	CreateScene(ctx context.Context, scene *modelcompose.Scene) (*modelcompose.Scene, error)

	// ListScenes 获取项目的所有场景（按渲染顺序）
	ListScenes(ctx context.Context, projectID string) ([]*modelcompose.Scene, error)

	// UpdateScene 更新场景
	UpdateScene(ctx context.Context, scene *modelcompose.Scene) error

	// DeleteScene 删除场景（级联删除资产）
	DeleteScene(ctx context.Context, sceneID string) error

	// CreateAsset 在场景下创建资产
	CreateAsset(ctx context.Context, asset *modelcompose.Asset) (*modelcompose.Asset, error)

	// ListAssets 获取场景的所有资产（按图层顺序）
	ListAssets(ctx context.Context, sceneID string) ([]*modelcompose.Asset, error)

	// UpdateAsset 更新资产
	UpdateAsset(ctx context.Context, asset *modelcompose.Asset) error

	// DeleteAsset 删除资产
	DeleteAsset(ctx context.Context, assetID string) error

	// LoadSnapshot 加载项目场景图的不可变快照
	// 渲染任务提交时调用一次，之后项目的并发编辑不影响进行中的任务
	LoadSnapshot(ctx context.Context, projectID string) (*engine.Snapshot, error)
}

// composeService 场景图编排服务实现
type composeService struct {
	projectRepo composerepo.ProjectRepository
	sceneRepo   composerepo.SceneRepository
	assetRepo   composerepo.AssetRepository
}

// NewComposeService 创建场景图编排服务
func NewComposeService(db *mongo.Database) ComposeService {
	return &composeService{
		projectRepo: composerepo.NewProjectRepo(db),
		sceneRepo:   composerepo.NewSceneRepo(db),
		assetRepo:   composerepo.NewAssetRepo(db),
	}
}

// CreateProject 创建项目
func (s *composeService) CreateProject(ctx context.Context, userID, title string) (*modelcompose.Project, error) {
	project := &modelcompose.Project{
		ID:     id.New(),
		UserID: userID,
		Title:  title,
	}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("创建项目失败: %w", err)
	}
	return project, nil
}

// GetProject 获取项目
func (s *composeService) GetProject(ctx context.Context, projectID string) (*modelcompose.Project, error) {
	return s.projectRepo.FindByID(ctx, projectID)
}

// ListProjects 获取用户的所有项目
func (s *composeService) ListProjects(ctx context.Context, userID string) ([]*modelcompose.Project, error) {
	return s.projectRepo.FindByUserID(ctx, userID)
}

// UpdateProjectTitle 更新项目标题
func (s *composeService) UpdateProjectTitle(ctx context.Context, projectID, title string) error {
	return s.projectRepo.UpdateTitle(ctx, projectID, title)
}

// DeleteProject 删除项目，级联删除其下的场景和资产
func (s *composeService) DeleteProject(ctx context.Context, projectID string) error {
	scenes, err := s.sceneRepo.FindByProjectID(ctx, projectID)
	if err != nil {
		return fmt.Errorf("查询项目场景失败: %w", err)
	}
	for _, scene := range scenes {
		if err := s.assetRepo.DeleteBySceneID(ctx, scene.ID); err != nil {
			return fmt.Errorf("级联删除资产失败: %w", err)
		}
	}
	if err := s.sceneRepo.DeleteByProjectID(ctx, projectID); err != nil {
		return fmt.Errorf("级联删除场景失败: %w", err)
	}
	return s.projectRepo.Delete(ctx, projectID)
}

// CreateScene 在项目下创建场景
func (s *composeService) CreateScene(ctx context.Context, scene *modelcompose.Scene) (*modelcompose.Scene, error) {
	if scene.Duration <= 0 {
		return nil, fmt.Errorf("场景时长必须为正数")
	}
	if _, err := s.projectRepo.FindByID(ctx, scene.ProjectID); err != nil {
		return nil, fmt.Errorf("项目不存在: %w", err)
	}

	scene.ID = id.New()
	if err := s.sceneRepo.Create(ctx, scene); err != nil {
		return nil, fmt.Errorf("创建场景失败: %w", err)
	}
	return scene, nil
}

// ListScenes 获取项目的所有场景
func (s *composeService) ListScenes(ctx context.Context, projectID string) ([]*modelcompose.Scene, error) {
	return s.sceneRepo.FindByProjectID(ctx, projectID)
}

// UpdateScene 更新场景
func (s *composeService) UpdateScene(ctx context.Context, scene *modelcompose.Scene) error {
	if scene.Duration <= 0 {
		return fmt.Errorf("场景时长必须为正数")
	}
	return s.sceneRepo.Update(ctx, scene)
}

// DeleteScene 删除场景，级联删除其下的资产
func (s *composeService) DeleteScene(ctx context.Context, sceneID string) error {
	if err := s.assetRepo.DeleteBySceneID(ctx, sceneID); err != nil {
		return fmt.Errorf("级联删除资产失败: %w", err)
	}
	return s.sceneRepo.Delete(ctx, sceneID)
}

// CreateAsset 在场景下创建资产
func (s *composeService) CreateAsset(ctx context.Context, asset *modelcompose.Asset) (*modelcompose.Asset, error) {
	scene, err := s.sceneRepo.FindByID(ctx, asset.SceneID)
	if err != nil {
		return nil, fmt.Errorf("场景不存在: %w", err)
	}
	if err := validateAssetWindow(asset, scene.Duration); err != nil {
		return nil, err
	}

	asset.ID = id.New()
	asset.ProjectID = scene.ProjectID
	if err := s.assetRepo.Create(ctx, asset); err != nil {
		return nil, fmt.Errorf("创建资产失败: %w", err)
	}
	return asset, nil
}

// ListAssets 获取场景的所有资产
func (s *composeService) ListAssets(ctx context.Context, sceneID string) ([]*modelcompose.Asset, error) {
	return s.assetRepo.FindBySceneID(ctx, sceneID)
}

// UpdateAsset 更新资产
func (s *composeService) UpdateAsset(ctx context.Context, asset *modelcompose.Asset) error {
	scene, err := s.sceneRepo.FindByID(ctx, asset.SceneID)
	if err != nil {
		return fmt.Errorf("场景不存在: %w", err)
	}
	if err := validateAssetWindow(asset, scene.Duration); err != nil {
		return err
	}
	return s.assetRepo.Update(ctx, asset)
}

// DeleteAsset 删除资产
func (s *composeService) DeleteAsset(ctx context.Context, assetID string) error {
	return s.assetRepo.Delete(ctx, assetID)
}

// LoadSnapshot 加载项目场景图的不可变快照
func (s *composeService) LoadSnapshot(ctx context.Context, projectID string) (*engine.Snapshot, error) {
	if _, err := s.projectRepo.FindByID(ctx, projectID); err != nil {
		return nil, fmt.Errorf("项目不存在: %w", err)
	}

	scenes, err := s.sceneRepo.FindByProjectID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("加载场景失败: %w", err)
	}
	if len(scenes) == 0 {
		return nil, fmt.Errorf("项目没有任何场景")
	}

	sceneIDs := make([]string, 0, len(scenes))
	for _, scene := range scenes {
		sceneIDs = append(sceneIDs, scene.ID)
	}
	assets, err := s.assetRepo.FindBySceneIDs(ctx, sceneIDs)
	if err != nil {
		return nil, fmt.Errorf("加载资产失败: %w", err)
	}

	assetsByScene := make(map[string][]*modelcompose.Asset, len(scenes))
	for _, asset := range assets {
		assetsByScene[asset.SceneID] = append(assetsByScene[asset.SceneID], asset)
	}

	snap := &engine.Snapshot{ProjectID: projectID}
	for _, scene := range scenes {
		snap.Scenes = append(snap.Scenes, &engine.SceneNode{
			Scene:  scene,
			Assets: assetsByScene[scene.ID],
		})
	}

	return snap, nil
}

// validateAssetWindow 校验资产时间窗口落在场景时长内
func validateAssetWindow(asset *modelcompose.Asset, sceneDuration float64) error {
	if asset.TimelineStart < 0 {
		return fmt.Errorf("资产时间窗口起点不能为负")
	}
	end := sceneDuration
	if asset.TimelineEnd != nil {
		end = *asset.TimelineEnd
	}
	if end > sceneDuration {
		return fmt.Errorf("资产时间窗口终点 %.3f 超出场景时长 %.3f", end, sceneDuration)
	}
	if asset.TimelineStart >= end {
		return fmt.Errorf("资产时间窗口为空")
	}
	return nil
}
