package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "pomelo/docs"
	"pomelo/internal/config"
	"pomelo/internal/handler"
	composeHandler "pomelo/internal/handler/compose"
	renderHandler "pomelo/internal/handler/render"
	"pomelo/internal/pkg/cache"
	"pomelo/internal/pkg/jwt"
	"pomelo/internal/pkg/mongodb"
	"pomelo/internal/pkg/narration"
	"pomelo/internal/pkg/storagefactory"
	"pomelo/internal/pkg/tts"
	"pomelo/internal/server/middleware"
	"pomelo/internal/service"
)

// Server HTTP 服务器
type Server struct {
	cfg    *config.Config
	engine *gin.Engine
	mongo  *mongodb.Client
	redis  *cache.RedisCache
}

// New 创建服务器实例
func New(cfg *config.Config) (*Server, error) {
	// 设置 Gin 模式
	switch cfg.Server.Mode {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// 初始化 MongoDB (可选，未配置时业务接口不注册)
	var mongoClient *mongodb.Client
	if cfg.Mongo.URI != "" {
		client, err := mongodb.New(&cfg.Mongo)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to MongoDB, continuing without it")
		} else {
			mongoClient = client
			log.Info().Str("database", cfg.Mongo.Database).Msg("connected to MongoDB")

			if err := mongodb.EnsureIndexes(mongoClient.Database()); err != nil {
				log.Warn().Err(err).Msg("failed to ensure indexes")
			}
		}
	}

	// 初始化 Redis (可选，任务轮询缓存)
	var redisCache *cache.RedisCache
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisCache(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, continuing without it")
		} else {
			redisCache = rc
			log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")
		}
	}

	srv := &Server{
		cfg:    cfg,
		engine: engine,
		mongo:  mongoClient,
		redis:  redisCache,
	}

	if err := srv.setupRoutes(); err != nil {
		return nil, err
	}

	return srv, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() error {
	// 全局中间件
	s.engine.Use(middleware.Recovery())
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.Logger())
	s.engine.Use(middleware.CORS())

	// 健康检查（配置了 MongoDB 时就绪检查探测连接）
	var pinger handler.Pinger
	if s.mongo != nil {
		pinger = s.mongo
	}
	healthHandler := handler.NewHealthHandler(pinger)
	s.engine.GET("/health", healthHandler.Health)
	s.engine.GET("/ready", healthHandler.Ready)

	// Swagger 文档
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if s.mongo == nil {
		log.Warn().Msg("MongoDB not configured, compose/render endpoints disabled")
		return nil
	}

	// 存储（资产源文件读取 + 产物上传）
	store, err := storagefactory.NewStorage(context.Background(), &s.cfg.Storage)
	if err != nil {
		return err
	}

	// 解说提供方：未启用或未配置令牌时使用空实现，场景按无解说渲染
	narrator := buildNarrator(&s.cfg.Narration)

	composeSvc := service.NewComposeService(s.mongo.Database())
	renderSvc := service.NewRenderService(
		s.mongo.Database(),
		composeSvc,
		store,
		s.redis,
		narrator,
		&s.cfg.Render,
	)

	composeHdl := composeHandler.NewHandler(composeSvc)
	renderHdl := renderHandler.NewHandler(renderSvc)

	// API v1
	v1 := s.engine.Group("/api/v1")

	// JWT 认证（未配置密钥时告警并放行，仅限开发环境）
	if s.cfg.Auth.JWTSecret != "" {
		expiry := s.cfg.Auth.AccessTokenExpiry
		if expiry == 0 {
			expiry = 24 * time.Hour
		}
		v1.Use(middleware.Auth(jwt.NewJWT(s.cfg.Auth.JWTSecret, expiry)))
	} else {
		log.Warn().Msg("JWT secret not configured, API auth disabled (NOT SECURE for production)")
	}

	{
		// 项目
		v1.POST("/projects", composeHdl.CreateProject)
		v1.GET("/projects", composeHdl.ListProjects)
		v1.GET("/projects/:project_id", composeHdl.GetProject)
		v1.PUT("/projects/:project_id", composeHdl.UpdateProject)
		v1.DELETE("/projects/:project_id", composeHdl.DeleteProject)

		// 场景
		v1.POST("/projects/:project_id/scenes", composeHdl.CreateScene)
		v1.GET("/projects/:project_id/scenes", composeHdl.ListScenes)
		v1.PUT("/scenes/:scene_id", composeHdl.UpdateScene)
		v1.DELETE("/scenes/:scene_id", composeHdl.DeleteScene)

		// 资产
		v1.POST("/scenes/:scene_id/assets", composeHdl.CreateAsset)
		v1.GET("/scenes/:scene_id/assets", composeHdl.ListAssets)
		v1.PUT("/assets/:asset_id", composeHdl.UpdateAsset)
		v1.DELETE("/assets/:asset_id", composeHdl.DeleteAsset)

		// 渲染任务
		v1.POST("/render/jobs", renderHdl.Submit)
		v1.GET("/render/jobs/:job_id", renderHdl.Poll)
		v1.POST("/render/jobs/:job_id/cancel", renderHdl.Cancel)
		v1.GET("/projects/:project_id/render/jobs", renderHdl.ListByProject)
	}

	return nil
}

// buildNarrator 构建解说提供方
func buildNarrator(cfg *config.NarrationConfig) narration.Provider {
	if !cfg.Enabled || cfg.AccessToken == "" {
		log.Info().Msg("narration disabled, scenes will render without narration")
		return narration.NewNoopProvider()
	}

	client, err := tts.NewClient(tts.Config{
		APIURL:      cfg.APIURL,
		AccessToken: cfg.AccessToken,
		AppID:       cfg.AppID,
		Cluster:     cfg.Cluster,
		VoiceType:   cfg.VoiceType,
		SampleRate:  cfg.SampleRate,
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize TTS client, narration disabled")
		return narration.NewNoopProvider()
	}

	return narration.NewTTSProvider(client)
}

// Run 启动服务器
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待关闭信号或错误
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server...")

		if s.mongo != nil {
			if err := s.mongo.Close(context.Background()); err != nil {
				log.Error().Err(err).Msg("failed to close MongoDB connection")
			}
		}
		if s.redis != nil {
			if err := s.redis.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close Redis connection")
			}
		}

		return srv.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}

// Engine 获取 Gin 引擎 (用于测试)
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
