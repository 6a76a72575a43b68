package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"wonderfulgo/internal/gemini"
	"wonderfulgo/internal/logger"
	"wonderfulgo/internal/metrics"
	"wonderfulgo/internal/planner"
)

const (
	msgAPIKeyMissing  = "APIキーが設定されていません。"
	msgInvalidBody    = "リクエストの形式が正しくありません。"
	msgEmptyMessage   = "空のメッセージです。"
	msgUpstreamBusy   = "アクセスが集中しています。再度お試しください。"
	msgProcessingFail = "処理エラー"
)

type chatHTTPError struct {
	Status int
	Detail string
	Err    error
}

func (e *chatHTTPError) Error() string {
	return e.Detail
}

func (e *chatHTTPError) Unwrap() error {
	return e.Err
}

func (a *App) chat(c *gin.Context) {
	// Checked before binding: no credential, no upstream call.
	if strings.TrimSpace(a.cfg.GoogleAPIKey) == "" {
		a.writeChatExecutionError(c, &chatHTTPError{Status: http.StatusInternalServerError, Detail: msgAPIKeyMissing})
		return
	}

	var req planner.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.writeChatExecutionError(c, &chatHTTPError{Status: http.StatusBadRequest, Detail: msgInvalidBody, Err: err})
		return
	}

	payload, err := a.runChat(c.Request.Context(), req)
	if err != nil {
		a.writeChatExecutionError(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

// runChat drives one request through prompt building, the model chain, text
// extraction and plan normalization.
func (a *App) runChat(ctx context.Context, req planner.ChatRequest) (map[string]any, error) {
	if !req.HasMessage() {
		return nil, &chatHTTPError{Status: http.StatusBadRequest, Detail: msgEmptyMessage}
	}

	mode := planner.DetectMode(req.Message, a.keywords)
	prompt := planner.BuildPrompt(req, mode, a.keywords)

	result, err := a.invoker.Invoke(ctx, prompt, mode.Planning)
	if err != nil {
		return nil, &chatHTTPError{Status: http.StatusServiceUnavailable, Detail: msgUpstreamBusy, Err: err}
	}

	text, err := gemini.ExtractText(result.Envelope)
	if err != nil {
		return nil, &chatHTTPError{Status: http.StatusInternalServerError, Detail: msgProcessingFail, Err: err}
	}

	payload, outcome := planner.Normalize(text, mode)
	metrics.ChatResponsesTotal.WithLabelValues(string(outcome)).Inc()
	logger.Info(ctx, "chat answered",
		"model", result.Model,
		"attempts", result.Attempts,
		"planning", mode.Planning,
		"car_trip", mode.CarTrip,
		"outcome", string(outcome),
	)
	return payload, nil
}

func (a *App) writeChatExecutionError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	ctx := c.Request.Context()
	var httpErr *chatHTTPError
	if errors.As(err, &httpErr) {
		switch {
		case errors.Is(httpErr, gemini.ErrAllModelsFailed):
			logger.Error(ctx, "gemini model chain exhausted", httpErr.Err, "models", a.invoker.Models())
		case errors.Is(httpErr, gemini.ErrNoText):
			logger.Error(ctx, "gemini response had no extractable text", httpErr.Err)
		case httpErr.Status >= http.StatusInternalServerError:
			logger.Error(ctx, "chat request failed", httpErr.Err, "detail", httpErr.Detail)
		default:
			logger.Warn(ctx, "chat request rejected", "status", httpErr.Status, "detail", httpErr.Detail)
		}
		writeError(c, httpErr.Status, httpErr.Detail)
		return
	}
	logger.Error(ctx, "chat query failed unclassified", err)
	writeError(c, http.StatusInternalServerError, msgProcessingFail)
}
