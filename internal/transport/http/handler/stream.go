package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DEVector-it/mythai.github.io/internal/app"
	"github.com/DEVector-it/mythai.github.io/internal/plan"
	"github.com/DEVector-it/mythai.github.io/internal/quota"
	"github.com/DEVector-it/mythai.github.io/internal/stream"
	"github.com/DEVector-it/mythai.github.io/internal/transport/http/response"
)

type TurnHandler struct {
	turnService *app.TurnService
}

type StreamTurnRequest struct {
	Content string `json:"content" binding:"required"`
	Model   string `json:"model" binding:"max=64"`
}

func NewTurnHandler(turnService *app.TurnService) *TurnHandler {
	return &TurnHandler{turnService: turnService}
}

// StreamTurn runs one generation over SSE. Output increments arrive as
// data events with a JSON body, so chunk text with newlines survives
// the framing. Denials that happen before any output was produced are
// answered with a plain JSON status instead of a stream.
func (h *TurnHandler) StreamTurn(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	chatID := c.Param("id")
	var req StreamTurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "stream not supported")
		return
	}

	startedStreaming := false
	sendChunk := func(chunk string) error {
		if !startedStreaming {
			writeSSEHeaders(c)
			startedStreaming = true
		}
		payload, err := json.Marshal(gin.H{"delta": chunk})
		if err != nil {
			return err
		}
		if _, writeErr := c.Writer.Write([]byte("data: " + string(payload) + "\n\n")); writeErr != nil {
			return writeErr
		}
		flusher.Flush()
		return nil
	}

	result, err := h.turnService.StreamTurn(c.Request.Context(), app.TurnInput{
		UserID:  userID,
		ChatID:  chatID,
		Content: req.Content,
		Model:   req.Model,
	}, sendChunk)
	if err != nil {
		h.denyTurn(c, err)
		return
	}

	if !startedStreaming {
		writeSSEHeaders(c)
	}
	if result.ProviderErr != nil {
		writeSSEEvent(c, flusher, "error", gin.H{
			"reason":  "generation_failed",
			"message": result.ProviderErr.Error(),
		})
	}
	if result.PersistErr != nil {
		writeSSEEvent(c, flusher, "error", gin.H{
			"reason": "persistence_failed",
		})
	}
	writeSSEEvent(c, flusher, "done", gin.H{
		"outcome": result.Outcome.String(),
		"partial": result.Partial,
		"model":   result.Model,
	})
}

// CancelTurn requests cooperative cancellation of the chat's running
// generation. The response reports whether anything was running;
// cancelling an idle chat is not an error.
func (h *TurnHandler) CancelTurn(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	chatID := c.Param("id")
	cancelled, err := h.turnService.CancelTurn(userID, chatID)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrChatNotFound):
			response.Error(c, http.StatusNotFound, response.CodeChatNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "cancel failed")
		}
		return
	}

	response.OK(c, gin.H{"cancelled": cancelled})
}

func (h *TurnHandler) denyTurn(c *gin.Context, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidInput), errors.Is(err, app.ErrMessageEmpty):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrUserNotFound):
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, err.Error())
	case errors.Is(err, plan.ErrUnknownPlan):
		response.Error(c, http.StatusForbidden, response.CodeForbidden, err.Error())
	case errors.Is(err, plan.ErrModelNotAllowed):
		response.Error(c, http.StatusForbidden, response.CodeModelNotAllowed, err.Error())
	case errors.Is(err, app.ErrChatNotFound):
		response.Error(c, http.StatusNotFound, response.CodeChatNotFound, err.Error())
	case errors.Is(err, stream.ErrChatBusy):
		response.Error(c, http.StatusConflict, response.CodeChatBusy, err.Error())
	case errors.Is(err, quota.ErrQuotaExceeded):
		response.Error(c, http.StatusTooManyRequests, response.CodeQuotaExceeded, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "turn failed")
	}
}

func writeSSEHeaders(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
}

func writeSSEEvent(c *gin.Context, flusher http.Flusher, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if _, writeErr := c.Writer.Write([]byte("event: " + event + "\ndata: " + string(data) + "\n\n")); writeErr == nil {
		flusher.Flush()
	}
}
