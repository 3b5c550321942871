package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/yukikurage/tax-task-tracker/internal/auth"
	"github.com/yukikurage/tax-task-tracker/internal/events"
	"github.com/yukikurage/tax-task-tracker/internal/models"
	"github.com/yukikurage/tax-task-tracker/internal/repository"
	"github.com/yukikurage/tax-task-tracker/internal/utils"
)

const publishTimeout = 3 * time.Second

// ActivityService reads and appends the activity log and forwards stored
// entries to the event stream.
type ActivityService struct {
	activityRepo repository.ActivityRepository
	publisher    events.Publisher
}

// NewActivityService creates a new ActivityService. A nil publisher
// disables streaming.
func NewActivityService(activityRepo repository.ActivityRepository, publisher events.Publisher) *ActivityService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &ActivityService{
		activityRepo: activityRepo,
		publisher:    publisher,
	}
}

// AppendInput is a client-reported activity entry.
type AppendInput struct {
	Action    string
	TaskID    string
	TaskTitle string
}

func (s *ActivityService) Append(ctx context.Context, actor *auth.Principal, input AppendInput) (*models.ActivityLog, error) {
	action := strings.TrimSpace(input.Action)
	taskID := strings.TrimSpace(input.TaskID)
	taskTitle := strings.TrimSpace(input.TaskTitle)
	if action == "" || taskID == "" || taskTitle == "" {
		return nil, validationErrorf("action, taskId and taskTitle are required")
	}

	entry := newEntry(actor, models.ActivityKind(action), taskID, taskTitle)
	if err := s.activityRepo.Append(entry); err != nil {
		return nil, fmt.Errorf("failed to append activity: %w", err)
	}
	s.Publish(ctx, entry)
	return entry, nil
}

// Record appends a server-generated entry and publishes it.
func (s *ActivityService) Record(ctx context.Context, entry *models.ActivityLog) error {
	if err := s.activityRepo.Append(entry); err != nil {
		return fmt.Errorf("failed to append activity: %w", err)
	}
	s.Publish(ctx, entry)
	return nil
}

// List returns every entry for administrators and only the actor's own
// entries otherwise, newest first.
func (s *ActivityService) List(actor *auth.Principal, page utils.PaginationParams) ([]models.ActivityLog, int64, error) {
	filter := repository.ActivityFilter{Pagination: page}
	if err := auth.Authorize(actor, auth.ActionViewAllLogs, auth.Target{}); err != nil {
		filter.UserID = &actor.ID
	}

	entries, total, err := s.activityRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list activity: %w", err)
	}
	return entries, total, nil
}

// Publish forwards a committed entry. Failures are logged and never reach
// the caller.
func (s *ActivityService) Publish(ctx context.Context, entry *models.ActivityLog) {
	if s == nil || entry == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pubCtx, *entry); err != nil {
		log.Printf("[EVENTS] failed to publish %s for task %s: %v", entry.Action, entry.TaskID, err)
	}
}

func newEntry(actor *auth.Principal, action models.ActivityKind, taskID, taskTitle string) *models.ActivityLog {
	return &models.ActivityLog{
		UserID:    actor.ID,
		UserEmail: actor.Email,
		Action:    action,
		TaskID:    taskID,
		TaskTitle: taskTitle,
	}
}
