package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pomofocus/backend/internal/service"
)

type TaskHandler struct {
	tasks *service.TaskService
}

type createTaskRequest struct {
	Name     string `json:"name" binding:"required,max=200"`
	Category string `json:"category" binding:"max=64"`
	DueDate  string `json:"dueDate"`
}

type renameTaskRequest struct {
	Name string `json:"name" binding:"required,max=200"`
}

func NewTaskHandler(tasks *service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

func (h *TaskHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	tasks, apiErr := h.tasks.List(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (h *TaskHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req createTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, apiErr := h.tasks.Create(c.Request.Context(), userID, service.CreateTaskInput{
		Name:     req.Name,
		Category: req.Category,
		DueDate:  req.DueDate,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task": task})
}

func (h *TaskHandler) Rename(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req renameTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, apiErr := h.tasks.Rename(c.Request.Context(), userID, c.Param("id"), req.Name)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

func (h *TaskHandler) Toggle(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	task, apiErr := h.tasks.Toggle(c.Request.Context(), userID, c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

func (h *TaskHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if apiErr := h.tasks.Delete(c.Request.Context(), userID, c.Param("id")); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TaskHandler) Categories(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	categories, apiErr := h.tasks.Categories(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}
