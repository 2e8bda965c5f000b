package handlers

import (
	"context"
	"errors"

	"go.uber.org/zap"

	apperrors "github.com/missionctl/missionctl/internal/common/errors"
	"github.com/missionctl/missionctl/internal/common/logger"
	ws "github.com/missionctl/missionctl/pkg/websocket"
)

// wsServiceError maps a service error onto a WS error envelope.
// Application error codes share the protocol's naming, so they pass
// through unchanged; anything else is logged and reported generically.
func wsServiceError(msg *ws.Message, log *logger.Logger, err error) (*ws.Message, error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return ws.NewError(msg.ID, msg.Action, appErr.Code, appErr.Message, nil)
	}
	log.Error("ws request failed", zap.String("action", msg.Action), zap.Error(err))
	return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeInternalError, "request failed", nil)
}

// wsIDOnlyRequest is the common request struct for WS handlers that take a single ID field.
type wsIDOnlyRequest struct {
	ID string `json:"id"`
}

// wsHandleIDRequest handles the common WS handler pattern for operations with a
// single "id" field. fn receives the ID and returns the response payload and any error.
func wsHandleIDRequest(
	ctx context.Context,
	msg *ws.Message,
	log *logger.Logger,
	fn func(ctx context.Context, id string) (any, error),
) (*ws.Message, error) {
	var req wsIDOnlyRequest
	if err := msg.ParsePayload(&req); err != nil {
		return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeBadRequest, "Invalid payload: "+err.Error(), nil)
	}
	if req.ID == "" {
		return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeValidation, "id is required", nil)
	}
	resp, err := fn(ctx, req.ID)
	if err != nil {
		return wsServiceError(msg, log, err)
	}
	return ws.NewResponse(msg.ID, msg.Action, resp)
}
