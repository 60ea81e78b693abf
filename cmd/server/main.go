package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/vidscribe/api/internal/client"
	"github.com/vidscribe/api/internal/config"
	"github.com/vidscribe/api/internal/handler"
	"github.com/vidscribe/api/internal/media"
	"github.com/vidscribe/api/internal/middleware"
	"github.com/vidscribe/api/internal/model"
	"github.com/vidscribe/api/internal/pipeline"
	"github.com/vidscribe/api/internal/render"
	"github.com/vidscribe/api/internal/service"
	"github.com/vidscribe/api/internal/store"
	"github.com/vidscribe/api/internal/worker"
	ws "github.com/vidscribe/api/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Paths.Ensure(); err != nil {
		log.Fatalf("Failed to create output directories: %v", err)
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Test Redis connection
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis not available: %v", err)
	}

	// Initialize Asynq client
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	// Initialize validator
	validate := validator.New()

	// Initialize WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Local artifact tier plus the shared pipeline tooling
	localStore := store.NewLocal(cfg.Paths.OutputsDir)
	frameExtractor := media.NewFFmpegExtractor(&cfg.Render)
	pdfRenderer := render.NewPDFRenderer(&cfg.Render)
	docxRenderer := render.NewDocxRenderer()

	s3Configured := cfg.S3.AccessKeyID != "" && cfg.S3.SecretAccessKey != ""
	if !s3Configured {
		log.Println("Info: S3 storage not configured, runs are local-only")
	}

	// Engine factory binds the run's provider/model and tenant storage
	engineFactory := func(runCfg model.RunConfig, identity model.RunIdentity) (*pipeline.Engine, error) {
		llm, err := client.NewLLM(&cfg.LLM, runCfg.Provider, runCfg.Model)
		if err != nil {
			return nil, err
		}

		var remote store.Store
		if s3Configured && identity.TenantID != "" {
			s3Store, err := store.NewS3(&cfg.S3, identity.TenantID)
			if err != nil {
				log.Printf("Warning: S3 store not initialized: %v", err)
			} else {
				remote = s3Store
			}
		}

		return pipeline.NewEngine(pipeline.EngineParams{
			LLM:           llm,
			Frames:        frameExtractor,
			Renderer:      pdfRenderer,
			Docx:          docxRenderer,
			Local:         localStore,
			Remote:        remote,
			FramesDir:     cfg.Paths.FramesDir,
			MaxConcurrent: cfg.Pipeline.MaxConcurrent,
		}), nil
	}

	// Initialize services and handlers
	runService := service.NewRunService(redisClient, asynqClient, cfg.Pipeline)
	runHandler := handler.NewRunHandler(runService, validate)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    50 * 1024 * 1024, // transcripts can be large
	})

	// Global middleware
	app.Use(recover.New())
	isDebug := strings.EqualFold(cfg.Server.LogLevel, "debug")
	logFormat := "[${time}] ${status} - ${latency} ${method} ${path}\n"
	if isDebug {
		logFormat = "[${time}] ${status} - ${latency} ${method} ${path} ${queryParams} ${body} ${reqHeaders}\n"
		log.Println("Debug logging enabled")
	}
	app.Use(logger.New(logger.Config{
		Format: logFormat,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Base URL - timestamp
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"timestamp": time.Now().Unix(),
		})
	})

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"groq":   cfg.LLM.GroqAPIKey != "",
				"gemini": cfg.LLM.GeminiAPIKey != "",
				"s3":     s3Configured,
				"redis":  redisClient.Ping(c.Context()).Err() == nil,
				"auth":   cfg.JWT.Secret != "",
			},
		})
	})

	// API routes
	api := app.Group("/api", authMiddleware.Authenticate())

	// Run routes
	run := api.Group("/run")
	run.Post("/start", rateLimiter.RunLimit(cfg.RateLimit.RunsPerHour), runHandler.Start)
	run.Get("/status/:runId", runHandler.Status)
	run.Get("/result/:runId", runHandler.Result)
	run.Post("/cancel/:runId", runHandler.Cancel)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/runs/:runId", websocket.New(func(c *websocket.Conn) {
		runID := c.Params("runId")
		hub.HandleConnection(c, runID)
	}))

	// Start Asynq worker server
	go startWorkerServer(cfg, runService, engineFactory, hub)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func startWorkerServer(
	cfg *config.Config,
	runService *service.RunService,
	engineFactory worker.EngineFactory,
	hub *ws.Hub,
) {
	asynqLogLevel := asynq.InfoLevel
	if strings.EqualFold(cfg.Server.LogLevel, "debug") {
		asynqLogLevel = asynq.DebugLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "warn") {
		asynqLogLevel = asynq.WarnLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "error") {
		asynqLogLevel = asynq.ErrorLevel
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				"runs": 10,
			},
			LogLevel: asynqLogLevel,
		},
	)

	pipelineWorker := worker.NewPipelineWorker(runService, engineFactory, hub)

	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeRun, pipelineWorker.ProcessTask)

	if err := srv.Run(mux); err != nil {
		log.Printf("Asynq worker error: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "SERVICE_ERROR",
			"message": message,
		},
	})
}
