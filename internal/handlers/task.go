package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/tax-task-tracker/internal/dto"
	apierrors "github.com/yukikurage/tax-task-tracker/internal/errors"
	"github.com/yukikurage/tax-task-tracker/internal/services"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// taskRequest is the body of create and update. Both replace every field.
type taskRequest struct {
	Title      string `json:"title" binding:"max=255"`
	AssigneeID string `json:"assigneeId"`
	DueDate    string `json:"dueDate"`
	Notes      string `json:"notes"`
	Recurring  bool   `json:"recurring"`
	Frequency  string `json:"frequency"`
}

func (r taskRequest) input() services.TaskInput {
	return services.TaskInput{
		Title:      r.Title,
		AssigneeID: r.AssigneeID,
		DueDate:    r.DueDate,
		Notes:      r.Notes,
		Recurring:  r.Recurring,
		Frequency:  r.Frequency,
	}
}

// ListTasks returns tasks with their attachments
// Supports assigneeId, status and mine=true filters
func (h *TaskHandler) ListTasks(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	mine, _ := strconv.ParseBool(c.DefaultQuery("mine", "false"))
	tasks, err := h.taskService.ListTasks(p, services.ListTasksInput{
		AssigneeID: c.Query("assigneeId"),
		Status:     c.Query("status"),
		Mine:       mine,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTOs(tasks))
}

// GetTask returns a specific task by ID
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, err := h.taskService.GetTask(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), p, req.input())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTask replaces the editable fields of a task
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), p, c.Param("id"), req.input())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// UpdateTaskStatus changes only the status. Assignees may do this for
// their own tasks.
func (h *TaskHandler) UpdateTaskStatus(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	type StatusRequest struct {
		Status string `json:"status" binding:"required"`
	}

	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Status is required")
		return
	}

	task, err := h.taskService.UpdateTaskStatus(c.Request.Context(), p, c.Param("id"), req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask deletes a task with its attachments
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), p, c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}
