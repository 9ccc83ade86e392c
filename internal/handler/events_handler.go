package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/starfederation/datastar-go/datastar"

	"pomofocus/backend/internal/events"
	"pomofocus/backend/internal/service"
	"pomofocus/backend/internal/view"
)

const toastContainerID = "toasts"

// EventsHandler streams a user's timer activity as datastar server-sent events:
// timer state and sound or notification requests as signal patches, toasts as
// HTML appended to the toast container.
type EventsHandler struct {
	hub    *events.Hub
	timers *service.TimerService
}

func NewEventsHandler(hub *events.Hub, timers *service.TimerService) *EventsHandler {
	return &EventsHandler{hub: hub, timers: timers}
}

func (h *EventsHandler) Stream(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	state, apiErr := h.timers.State(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	sub := h.hub.Subscribe(userID)
	defer sub.Close()

	sse := datastar.NewSSE(c.Writer, c.Request)
	if err := sse.MarshalAndPatchSignals(gin.H{"timer": state}); err != nil {
		return
	}

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, open := <-sub.C():
			if !open {
				return
			}
			if err := h.send(sse, msg); err != nil {
				slog.Debug("event stream closed", "user_id", userID, "error", err)
				return
			}
		}
	}
}

func (h *EventsHandler) send(sse *datastar.ServerSentEventGenerator, msg events.Message) error {
	switch msg.Kind {
	case events.KindState:
		if msg.Snapshot == nil {
			return nil
		}
		return sse.MarshalAndPatchSignals(gin.H{"timer": service.NewTimerState(*msg.Snapshot)})
	case events.KindSound:
		return sse.MarshalAndPatchSignals(gin.H{"sound": gin.H{"id": msg.Sound, "requestId": msg.ID}})
	case events.KindNotification:
		return sse.MarshalAndPatchSignals(gin.H{"notification": gin.H{
			"title":     msg.Title,
			"body":      msg.Body,
			"requestId": msg.ID,
		}})
	case events.KindToast:
		return sse.PatchElementTempl(
			view.Toast(msg.ID, msg.Title, msg.Body, msg.Phase),
			datastar.WithSelectorID(toastContainerID),
			datastar.WithModeAppend(),
		)
	}
	return nil
}
