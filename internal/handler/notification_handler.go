package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pomofocus/backend/internal/model"
	"pomofocus/backend/internal/notify"
)

type NotificationHandler struct {
	permissions *notify.Permissions
}

type permissionRequest struct {
	Granted *bool `json:"granted" binding:"required"`
}

func NewNotificationHandler(permissions *notify.Permissions) *NotificationHandler {
	return &NotificationHandler{permissions: permissions}
}

func (h *NotificationHandler) GetPermission(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"permission": h.permissions.Get(userID)})
}

// RequestPermission records the user's answer to the permission prompt. Once
// answered, the stored permission is returned unchanged.
func (h *NotificationHandler) RequestPermission(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req permissionRequest
	if !bindJSON(c, &req) {
		return
	}

	state, changed := h.permissions.Request(userID, *req.Granted)
	body := gin.H{"permission": state, "changed": changed}
	switch {
	case !changed:
		body["message"] = "notification permission was already " + string(state)
	case state == model.PermissionGranted:
		body["message"] = "notifications enabled"
	default:
		body["message"] = "notifications disabled"
	}
	c.JSON(http.StatusOK, body)
}
