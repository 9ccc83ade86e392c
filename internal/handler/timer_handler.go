package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "pomofocus/backend/internal/errors"
	"pomofocus/backend/internal/model"
	"pomofocus/backend/internal/service"
)

type TimerHandler struct {
	timers *service.TimerService
}

// Missing, non-positive or non-numeric durations are clamped to one minute by
// the service.
type settingsRequest struct {
	WorkMinutes       minutesField `json:"workMinutes"`
	ShortBreakMinutes minutesField `json:"shortBreakMinutes"`
	LongBreakMinutes  minutesField `json:"longBreakMinutes"`
	LongBreakInterval minutesField `json:"longBreakInterval"`
	AutoAdvance       bool         `json:"autoAdvance"`
	WorkSound         string       `json:"workSound" binding:"max=32"`
	BreakSound        string       `json:"breakSound" binding:"max=32"`
}

func (r settingsRequest) config() model.SessionConfig {
	return model.SessionConfig{
		WorkMinutes:       int(r.WorkMinutes),
		ShortBreakMinutes: int(r.ShortBreakMinutes),
		LongBreakMinutes:  int(r.LongBreakMinutes),
		LongBreakInterval: int(r.LongBreakInterval),
		AutoAdvance:       r.AutoAdvance,
		WorkSound:         r.WorkSound,
		BreakSound:        r.BreakSound,
	}
}

func NewTimerHandler(timers *service.TimerService) *TimerHandler {
	return &TimerHandler{timers: timers}
}

func (h *TimerHandler) GetState(c *gin.Context) {
	h.respond(c, h.timers.State)
}

func (h *TimerHandler) Start(c *gin.Context) {
	h.respond(c, h.timers.Start)
}

func (h *TimerHandler) Pause(c *gin.Context) {
	h.respond(c, h.timers.Pause)
}

func (h *TimerHandler) Reset(c *gin.Context) {
	h.respond(c, h.timers.Reset)
}

func (h *TimerHandler) UpdateSettings(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req settingsRequest
	if !bindJSON(c, &req) {
		return
	}

	state, apiErr := h.timers.UpdateSettings(c.Request.Context(), userID, req.config())
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *TimerHandler) Sounds(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sounds": h.timers.Sounds()})
}

func (h *TimerHandler) GetHistory(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(c, apperrors.BadRequest("invalid_limit", "limit must be a number"))
			return
		}
		limit = parsed
	}

	sessions, apiErr := h.timers.History(c.Request.Context(), userID, limit)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (h *TimerHandler) respond(c *gin.Context, op func(ctx context.Context, userID string) (*service.TimerState, *apperrors.APIError)) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	state, apiErr := op(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}
