package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/missionctl/missionctl/internal/common/logger"
	"github.com/missionctl/missionctl/internal/desktop"
	v1 "github.com/missionctl/missionctl/pkg/api/v1"
)

// defaultScreenshotDir receives captures when no directory is configured.
const defaultScreenshotDir = "screenshots"

// SystemHandlers serves host-level tools: status snapshot and screen capture.
type SystemHandlers struct {
	screenshotDir string
	capture       func(ctx context.Context, dir string) (string, error)
	logger        *logger.Logger
}

func NewSystemHandlers(screenshotDir string, log *logger.Logger) *SystemHandlers {
	if screenshotDir == "" {
		screenshotDir = defaultScreenshotDir
	}
	return &SystemHandlers{
		screenshotDir: screenshotDir,
		capture:       desktop.CaptureScreenshot,
		logger:        log.WithFields(zap.String("component", "system_handlers")),
	}
}

func RegisterSystemRoutes(router *gin.Engine, screenshotDir string, log *logger.Logger) {
	handlers := NewSystemHandlers(screenshotDir, log)
	handlers.registerHTTP(router)
}

func (h *SystemHandlers) registerHTTP(router *gin.Engine) {
	api := router.Group("/api/v1")
	api.GET("/system/status", h.httpSystemStatus)
	api.POST("/system/screenshot", h.httpScreenshot)
}

func (h *SystemHandlers) httpSystemStatus(c *gin.Context) {
	c.JSON(http.StatusOK, desktop.Status())
}

func (h *SystemHandlers) httpScreenshot(c *gin.Context) {
	path, err := h.capture(c.Request.Context(), h.screenshotDir)
	if err != nil {
		h.logger.Warn("screenshot capture failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, v1.ScreenshotResponse{Path: path})
}
