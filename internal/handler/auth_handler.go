package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pomofocus/backend/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

// Field rules live in AuthService so register and login report the same codes.
type authRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	authRequest
	Timer *settingsRequest `json:"timer"`
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	input := service.RegisterInput{Email: req.Email, Password: req.Password}
	if req.Timer != nil {
		timer := req.Timer.config()
		input.Timer = &timer
	}
	result, apiErr := h.authService.Register(c.Request.Context(), input)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req authRequest
	if !bindJSON(c, &req) {
		return
	}

	result, apiErr := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	profile, apiErr := h.authService.Profile(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, profile)
}
