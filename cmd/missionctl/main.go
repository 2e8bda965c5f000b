// Package main is the unified entry point for missionctl.
// This single binary runs the REST API, WebSocket gateway, task executor
// and optional embedded MCP server with shared infrastructure.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/missionctl/missionctl/internal/agent/runtime"
	"github.com/missionctl/missionctl/internal/common/config"
	"github.com/missionctl/missionctl/internal/common/httpmw"
	"github.com/missionctl/missionctl/internal/common/logger"
	"github.com/missionctl/missionctl/internal/events"
	gateways "github.com/missionctl/missionctl/internal/gateway/websocket"
	"github.com/missionctl/missionctl/internal/mission/handlers"
	"github.com/missionctl/missionctl/internal/mission/repository"
	"github.com/missionctl/missionctl/internal/mission/roster"
	"github.com/missionctl/missionctl/internal/mission/service"
	"github.com/missionctl/missionctl/internal/orchestrator/executor"
	"github.com/missionctl/missionctl/internal/tracing"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize logger
	log, err := logger.NewLogger(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	logger.SetDefault(log)

	log.Info("Starting missionctl...")

	// 3. Root context cancelled on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 4. Event bus (in-memory, or NATS if configured)
	provided, busCleanup, err := events.Provide(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize event bus", zap.Error(err))
	}
	eventBus := provided.Bus

	// 5. Mission store
	repo, repoCleanup, err := repository.Provide(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}

	// 6. Agent roster
	if err := roster.SeedFromFile(ctx, repo, cfg.Agents.RosterPath, log); err != nil {
		log.Fatal("Failed to seed agent roster", zap.Error(err))
	}

	// 7. Task executor
	runners := runtime.NewProvider(cfg.Agents, log)
	exec := executor.New(repo, runners, eventBus, log, executor.Config{
		MaxConcurrentTasks: cfg.Executor.MaxConcurrentTasks,
	})
	log.Info("Task executor initialized", zap.Int("max_concurrent_tasks", exec.Limit()))

	// 8. Mission service
	svc := service.NewService(repo, eventBus, log)

	// 9. WebSocket gateway
	gateway := gateways.NewGateway(log)
	go gateway.Hub.Run(ctx)
	gateways.RegisterTaskNotifications(ctx, eventBus, gateway.Hub, log)

	// 10. HTTP router (REST + WebSocket endpoints)
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(httpmw.RequestLogger(log, "missionctl"))
	router.Use(httpmw.OtelTracing("missionctl"))

	gateway.SetupRoutes(router)
	handlers.RegisterTaskRoutes(router, gateway.Dispatcher, svc, exec, log)
	handlers.RegisterAgentRoutes(router, gateway.Dispatcher, svc, log)
	handlers.RegisterRecordRoutes(router, gateway.Dispatcher, svc, log)
	handlers.RegisterSystemRoutes(router, cfg.Desktop.ScreenshotDir, log)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "missionctl",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 11. Embedded MCP server (optional)
	mcpEndpoint, mcpCleanup, err := provideMcpServer(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to start MCP server", zap.Error(err))
	}
	if mcpEndpoint != "" {
		log.Info("Embedded MCP server started", zap.String("sse_endpoint", mcpEndpoint))
	}

	// 12. HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("HTTP server listening",
			zap.String("addr", server.Addr),
			zap.String("websocket", "/ws"),
			zap.String("api", "/api/v1"))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down missionctl...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// Stop in-flight executions before closing their stores.
		for _, taskID := range exec.RunningTasks() {
			exec.StopTask(shutdownCtx, taskID)
		}

		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server error", zap.Error(err))
	}

	// 13. Ordered cleanup
	if mcpCleanup != nil {
		if err := mcpCleanup(); err != nil {
			log.Error("MCP server shutdown error", zap.Error(err))
		}
	}
	if err := busCleanup(); err != nil {
		log.Error("Event bus shutdown error", zap.Error(err))
	}
	if err := repoCleanup(); err != nil {
		log.Error("Database close error", zap.Error(err))
	}

	flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer flushCancel()
	if err := tracing.Shutdown(flushCtx); err != nil {
		log.Error("Tracing shutdown error", zap.Error(err))
	}

	log.Info("missionctl stopped")
}
