package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/yukikurage/tax-task-tracker/internal/auth"
	"github.com/yukikurage/tax-task-tracker/internal/models"
	"github.com/yukikurage/tax-task-tracker/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrAssigneeNotFound = errors.New("assignee not found")
)

// TaskDirRemover deletes the attachment directory of a task.
type TaskDirRemover interface {
	RemoveTaskDir(taskID string) error
}

// TaskService handles task business logic
type TaskService struct {
	taskRepo repository.TaskRepository
	userRepo repository.UserRepository
	activity *ActivityService
	files    TaskDirRemover
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, userRepo repository.UserRepository, activity *ActivityService, files TaskDirRemover) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		userRepo: userRepo,
		activity: activity,
		files:    files,
	}
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	AssigneeID string
	Status     string
	Mine       bool
}

// TaskInput carries every mutable task field. Create and update both
// replace all of them.
type TaskInput struct {
	Title      string
	AssigneeID string
	DueDate    string
	Notes      string
	Recurring  bool
	Frequency  string
}

// ListTasks returns tasks with their attachments, ordered by due date
func (s *TaskService) ListTasks(actor *auth.Principal, input ListTasksInput) ([]models.Task, error) {
	var filter repository.TaskFilter

	switch {
	case input.Mine:
		filter.AssigneeID = &actor.ID
	case input.AssigneeID != "":
		filter.AssigneeID = &input.AssigneeID
	}
	if input.Status != "" {
		status, err := models.ParseTaskStatus(input.Status)
		if err != nil {
			return nil, validationErrorf("status must be pending, in_progress or completed")
		}
		filter.Status = &status
	}

	tasks, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// GetTask returns a task with its attachments
func (s *TaskService) GetTask(taskID string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// CreateTask creates a task and records a create_task entry
func (s *TaskService) CreateTask(ctx context.Context, actor *auth.Principal, input TaskInput) (*models.Task, error) {
	if err := auth.Authorize(actor, auth.ActionCreateTask, auth.Target{}); err != nil {
		return nil, err
	}

	task := &models.Task{Status: models.TaskStatusPending}
	if err := s.apply(task, input); err != nil {
		return nil, err
	}

	entry := newEntry(actor, models.ActivityCreateTask, "", task.Title)
	if err := s.taskRepo.Create(task, entry); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	s.activity.Publish(ctx, entry)

	return s.GetTask(task.ID)
}

// UpdateTask replaces the mutable fields of a task. Status is kept.
func (s *TaskService) UpdateTask(ctx context.Context, actor *auth.Principal, taskID string, input TaskInput) (*models.Task, error) {
	if err := auth.Authorize(actor, auth.ActionEditTask, auth.Target{}); err != nil {
		return nil, err
	}

	task, err := s.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	if err := s.apply(task, input); err != nil {
		return nil, err
	}

	entry := newEntry(actor, models.ActivityEditTask, task.ID, task.Title)
	if err := s.taskRepo.Update(task, entry); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	s.activity.Publish(ctx, entry)

	return s.GetTask(task.ID)
}

// UpdateTaskStatus changes the status of a task. Admins and the assignee may do this.
func (s *TaskService) UpdateTaskStatus(ctx context.Context, actor *auth.Principal, taskID, status string) (*models.Task, error) {
	if strings.TrimSpace(status) == "" {
		return nil, validationErrorf("status is required")
	}
	next, err := models.ParseTaskStatus(status)
	if err != nil {
		return nil, validationErrorf("status must be pending, in_progress or completed")
	}

	task, err := s.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(actor, auth.ActionUpdateTaskStatus, auth.Target{AssigneeID: task.AssigneeID}); err != nil {
		return nil, err
	}

	entry := newEntry(actor, models.ActivityUpdateTaskStatus, task.ID, task.Title)
	if err := s.taskRepo.UpdateStatus(task.ID, next, entry); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to update status: %w", err)
	}
	s.activity.Publish(ctx, entry)

	task.Status = next
	return task, nil
}

// DeleteTask removes a task, its attachment records and, best effort, its
// attachment directory.
func (s *TaskService) DeleteTask(ctx context.Context, actor *auth.Principal, taskID string) error {
	if err := auth.Authorize(actor, auth.ActionDeleteTask, auth.Target{}); err != nil {
		return err
	}

	task, err := s.GetTask(taskID)
	if err != nil {
		return err
	}

	entry := newEntry(actor, models.ActivityDeleteTask, task.ID, task.Title)
	if err := s.taskRepo.Delete(task.ID, entry); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}
	s.activity.Publish(ctx, entry)

	if s.files != nil {
		if err := s.files.RemoveTaskDir(task.ID); err != nil {
			log.Printf("[TASKS] could not remove attachments of %s: %v", task.ID, err)
		}
	}
	return nil
}

// apply validates input and copies it onto task.
func (s *TaskService) apply(task *models.Task, input TaskInput) error {
	title := strings.TrimSpace(input.Title)
	assigneeID := strings.TrimSpace(input.AssigneeID)
	if title == "" || assigneeID == "" || strings.TrimSpace(input.DueDate) == "" {
		return validationErrorf("title, assigneeId and dueDate are required")
	}

	due, err := ParseDueDate(input.DueDate)
	if err != nil {
		return err
	}
	frequency, err := models.ParseFrequency(input.Frequency)
	if err != nil {
		return validationErrorf("frequency must be weekly, monthly, quarterly or yearly")
	}

	assignee, err := s.userRepo.FindByID(assigneeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ValidationError{Message: ErrAssigneeNotFound.Error()}
		}
		return fmt.Errorf("failed to find assignee: %w", err)
	}

	task.Title = title
	task.AssigneeID = assignee.ID
	task.AssigneeName = displayNameOf(assignee)
	task.DueDate = due
	task.Notes = strings.TrimSpace(input.Notes)
	task.Recurring = input.Recurring
	task.Frequency = frequency
	return nil
}

// ParseDueDate accepts a calendar date or an RFC 3339 timestamp and returns
// midnight UTC of that day.
func ParseDueDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if d, err := time.Parse(time.DateOnly, raw); err == nil {
		return d, nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		y, m, d := ts.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, validationErrorf("dueDate must be a YYYY-MM-DD date")
}

func displayNameOf(u *models.User) string {
	if name := strings.TrimSpace(u.DisplayName); name != "" {
		return name
	}
	if local, _, ok := strings.Cut(u.Email, "@"); ok && local != "" {
		return local
	}
	return u.Email
}
