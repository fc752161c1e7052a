package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"seequence/internal/ai/component"
	"seequence/internal/config"
	"seequence/internal/handler"
	"seequence/internal/imagegen"
	"seequence/internal/llm"
	"seequence/internal/narration"
	"seequence/internal/pipeline"
	"seequence/internal/pkg/ffmpeg"
	"seequence/internal/pkg/storage"
	"seequence/internal/pkg/storagefactory"
	"seequence/internal/server/middleware"
	"seequence/internal/service"
	"seequence/internal/story"
)

// Server HTTP 服务器
type Server struct {
	cfg    *config.Config
	engine *gin.Engine
}

// New 创建服务器实例并完成全部依赖装配
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
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

	// 文本模型
	chatModel, err := component.NewChatModel(ctx, &cfg.AI)
	if err != nil {
		return nil, fmt.Errorf("init chat model: %w", err)
	}
	llmClient := llm.NewClient(chatModel)

	// 图像后端
	store, err := storagefactory.NewStorage(&cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.Info().Str("type", store.Type()).Msg("存储后端初始化完成")
	var images imagegen.Provider
	switch cfg.Image.Provider {
	case "replicate":
		images, err = imagegen.NewReplicateClient(&cfg.Image.Replicate)
	case "ark":
		images, err = imagegen.NewArkClient(&cfg.Image.Ark, store)
	default:
		err = fmt.Errorf("unsupported image provider: %s", cfg.Image.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init image provider: %w", err)
	}

	// 文本处理
	segmenter := story.NewSegmenter(llmClient)
	prompter := story.NewPrompter(llmClient, cfg.Pipeline.StyleGuide)

	// 旁白
	ffmpegClient := ffmpeg.NewClient()
	prober := narration.NewProber(ffmpegClient)
	synthesizer, err := narration.NewSynthesizer(&cfg.TTS, prober)
	if err != nil {
		return nil, fmt.Errorf("init tts synthesizer: %w", err)
	}
	merger := narration.NewMerger(ffmpegClient, prober, cfg.TTS.OutputDir)

	// 流水线：批处理按配置选引擎，流式固定命令式
	imperative := pipeline.NewImperativePipeline(segmenter, prompter, images, cfg.Pipeline.MaxConcurrency)
	var runner pipeline.Runner = imperative
	if cfg.Pipeline.Engine == "graph" {
		graph, err := pipeline.NewGraphPipeline(ctx, segmenter, prompter, images)
		if err != nil {
			return nil, fmt.Errorf("init graph pipeline: %w", err)
		}
		runner = graph
	}

	svc := service.NewVisualsService(segmenter, prompter, images, runner, imperative, synthesizer, merger, llmClient, &cfg.Pipeline)

	srv := &Server{
		cfg:    cfg,
		engine: engine,
	}
	srv.setupRoutes(svc, store)
	return srv, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes(svc *service.VisualsService, store storage.Storage) {
	// 全局中间件
	s.engine.Use(middleware.Recovery())
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.Logger())
	s.engine.Use(middleware.CORS(&s.cfg.CORS))

	// 健康检查
	healthHandler := handler.NewHealthHandler(s.cfg, store)
	s.engine.GET("/health", healthHandler.Health)
	s.engine.GET("/ready", healthHandler.Ready)

	// 生成的静态资源
	if s.cfg.TTS.OutputDir != "" {
		s.engine.Static("/static/audio", s.cfg.TTS.OutputDir)
	}
	if s.cfg.Storage.Type == "local" && s.cfg.Storage.Local != nil {
		s.engine.Static(s.cfg.Storage.Local.BaseURL, s.cfg.Storage.Local.BasePath)
	}

	hdl := handler.NewHandler(svc)

	api := s.engine.Group("/api")
	{
		api.POST("/segment", hdl.Segment)
		api.POST("/generate_image", hdl.GenerateImage)
		api.POST("/generate_visuals", hdl.GenerateVisuals)
		api.POST("/generate_visuals_with_audio", hdl.GenerateVisualsWithAudio)
		api.POST("/generate_visuals_single_audio", hdl.GenerateVisualsSingleAudio)
		api.POST("/generate_visuals_stream", hdl.GenerateVisualsStream)
		api.POST("/ocr_from_image_url", hdl.OCRFromImageURL)
		api.POST("/ocr_from_image_upload", hdl.OCRFromImageUpload)
		api.POST("/visuals_from_image_url", hdl.VisualsFromImageURL)
		api.POST("/visuals_from_image_upload", hdl.VisualsFromImageUpload)
	}
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

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server...")
		return srv.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}

// Engine 获取 Gin 引擎 (用于测试)
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
