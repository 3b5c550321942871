package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/yukikurage/tax-task-tracker/internal/auth"
	"github.com/yukikurage/tax-task-tracker/internal/constants"
	"github.com/yukikurage/tax-task-tracker/internal/models"
	"github.com/yukikurage/tax-task-tracker/internal/obligations"
	"github.com/yukikurage/tax-task-tracker/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrCatalogFeedUnavailable = errors.New("obligation feed is not configured")
	ErrNoObligationsExtracted = errors.New("no obligations could be extracted from the text")
)

// CatalogFeed supplies a replacement catalog.
type CatalogFeed interface {
	Fetch(ctx context.Context) ([]obligations.Entry, string, error)
}

// schedulerPrincipal acts for jobs started by the scheduler.
var schedulerPrincipal = &auth.Principal{
	ID:          "scheduler",
	Email:       "scheduler@localhost",
	DisplayName: "Scheduler",
	Role:        models.RoleAdmin,
}

// ObligationService expands the obligation catalog into tasks.
type ObligationService struct {
	catalog   *obligations.Catalog
	taskRepo  repository.TaskRepository
	userRepo  repository.UserRepository
	activity  *ActivityService
	feed      CatalogFeed
	extractor ObligationExtractor
	now       func() time.Time
}

// NewObligationService creates a new ObligationService. feed and extractor
// may be nil.
func NewObligationService(
	catalog *obligations.Catalog,
	taskRepo repository.TaskRepository,
	userRepo repository.UserRepository,
	activity *ActivityService,
	feed CatalogFeed,
	extractor ObligationExtractor,
) *ObligationService {
	return &ObligationService{
		catalog:   catalog,
		taskRepo:  taskRepo,
		userRepo:  userRepo,
		activity:  activity,
		feed:      feed,
		extractor: extractor,
		now:       time.Now,
	}
}

// GenerateInput selects what to generate and for whom. An empty
// AssigneeEmail assigns the tasks to the acting user.
type GenerateInput struct {
	Year          int
	Month         int
	AssigneeEmail string
	Filter        obligations.Filter
}

// MonthOutcome reports one month of a batch.
type MonthOutcome struct {
	Year     int           `json:"year"`
	Month    int           `json:"month"`
	Created  int           `json:"created"`
	Skipped  int           `json:"skipped"`
	Assignee string        `json:"assignee"`
	Error    string        `json:"error,omitempty"`
	Tasks    []models.Task `json:"-"`
}

// YearOutcome aggregates the twelve month outcomes of a year batch.
type YearOutcome struct {
	Year      int            `json:"year"`
	Created   int            `json:"created"`
	Skipped   int            `json:"skipped"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Months    []MonthOutcome `json:"months"`
}

// CatalogView is the catalog grouped by month.
type CatalogView struct {
	Source    string                   `json:"source"`
	UpdatedAt time.Time                `json:"updatedAt"`
	Total     int                      `json:"total"`
	Months    []obligations.MonthGroup `json:"months"`
}

func (s *ObligationService) Catalog(actor *auth.Principal, filter obligations.Filter) (*CatalogView, error) {
	if err := auth.Authorize(actor, auth.ActionGenerateObligations, auth.Target{}); err != nil {
		return nil, err
	}
	source, updatedAt, total := s.catalog.Info()
	return &CatalogView{
		Source:    source,
		UpdatedAt: updatedAt,
		Total:     total,
		Months:    s.catalog.ByMonth(filter),
	}, nil
}

// GenerateMonth creates the tasks of one month.
func (s *ObligationService) GenerateMonth(ctx context.Context, actor *auth.Principal, input GenerateInput) (*MonthOutcome, error) {
	if err := auth.Authorize(actor, auth.ActionGenerateObligations, auth.Target{}); err != nil {
		return nil, err
	}
	if err := validateYear(input.Year); err != nil {
		return nil, err
	}
	if input.Month < 1 || input.Month > 12 {
		return nil, validationErrorf("month must be between 1 and 12")
	}

	assignee, err := s.resolveAssignee(actor, input.AssigneeEmail)
	if err != nil {
		return nil, err
	}

	outcome, err := s.generate(input.Year, input.Month, assignee, input.Filter)
	if err != nil {
		return nil, err
	}

	s.record(ctx, actor, models.ActivityGenerateMonth,
		fmt.Sprintf("agenda-%d-%02d", input.Year, input.Month),
		fmt.Sprintf("Obligation calendar %02d/%d (%d tasks)", input.Month, input.Year, outcome.Created))
	return outcome, nil
}

// GenerateYear runs every month of a year independently. A failing month is
// reported in its outcome and does not stop the others.
func (s *ObligationService) GenerateYear(ctx context.Context, actor *auth.Principal, input GenerateInput) (*YearOutcome, error) {
	if err := auth.Authorize(actor, auth.ActionGenerateObligations, auth.Target{}); err != nil {
		return nil, err
	}
	if err := validateYear(input.Year); err != nil {
		return nil, err
	}

	assignee, err := s.resolveAssignee(actor, input.AssigneeEmail)
	if err != nil {
		return nil, err
	}

	result := &YearOutcome{Year: input.Year, Months: make([]MonthOutcome, 0, 12)}
	for month := 1; month <= 12; month++ {
		outcome, err := s.generate(input.Year, month, assignee, input.Filter)
		if err != nil {
			log.Printf("[AGENDA] %02d/%d failed: %v", month, input.Year, err)
			outcome.Error = err.Error()
			result.Failed++
		} else {
			result.Succeeded++
		}
		result.Created += outcome.Created
		result.Skipped += outcome.Skipped
		result.Months = append(result.Months, *outcome)
	}

	s.record(ctx, actor, models.ActivityGenerateYear,
		fmt.Sprintf("agenda-%d", input.Year),
		fmt.Sprintf("Obligation calendar %d (%d tasks, %d months)", input.Year, result.Created, result.Succeeded))
	return result, nil
}

// GenerateNextMonth creates the tasks of the month after the current one.
func (s *ObligationService) GenerateNextMonth(ctx context.Context, actor *auth.Principal, assigneeEmail string, filter obligations.Filter) (*MonthOutcome, error) {
	if err := auth.Authorize(actor, auth.ActionGenerateObligations, auth.Target{}); err != nil {
		return nil, err
	}

	year, month := NextMonth(s.now())
	assignee, err := s.resolveAssignee(actor, assigneeEmail)
	if err != nil {
		return nil, err
	}

	outcome, err := s.generate(year, month, assignee, filter)
	if err != nil {
		return nil, err
	}

	s.record(ctx, actor, models.ActivityGenerateNextMonth,
		fmt.Sprintf("agenda-%d-%02d", year, month),
		fmt.Sprintf("Obligation calendar %02d/%d (%d tasks)", month, year, outcome.Created))
	return outcome, nil
}

// GenerateScheduled is the scheduler entry point for next-month generation.
func (s *ObligationService) GenerateScheduled(ctx context.Context, assigneeEmail string) (*MonthOutcome, error) {
	if strings.TrimSpace(assigneeEmail) == "" {
		return nil, validationErrorf("an assignee email is required for scheduled generation")
	}
	return s.GenerateNextMonth(ctx, schedulerPrincipal, assigneeEmail, obligations.Filter{})
}

// RefreshCatalog replaces the catalog with the configured feed.
func (s *ObligationService) RefreshCatalog(ctx context.Context, actor *auth.Principal) (*CatalogView, error) {
	if err := auth.Authorize(actor, auth.ActionGenerateObligations, auth.Target{}); err != nil {
		return nil, err
	}
	if s.feed == nil {
		return nil, ErrCatalogFeedUnavailable
	}

	entries, source, err := s.feed.Fetch(ctx)
	if err != nil {
		if errors.Is(err, obligations.ErrFeedNotConfigured) {
			return nil, ErrCatalogFeedUnavailable
		}
		return nil, fmt.Errorf("failed to fetch obligation feed: %w", err)
	}
	if err := s.catalog.Replace(entries, source); err != nil {
		return nil, &ValidationError{Message: "obligation feed rejected: " + err.Error()}
	}

	_, _, total := s.catalog.Info()
	log.Printf("[AGENDA] catalog refreshed from %s (%d obligations)", source, total)
	s.record(ctx, actor, models.ActivityRefreshObligations, "agenda-catalog",
		fmt.Sprintf("Obligation catalog refreshed from %s (%d obligations)", source, total))

	return s.Catalog(actor, obligations.Filter{})
}

// ExtractResult lists what was read from a bulletin and how many entries
// were new to the catalog.
type ExtractResult struct {
	Obligations []obligations.Entry `json:"obligations"`
	Added       int                 `json:"added"`
}

// ExtractFromText reads obligations from pasted text and, when merge is set,
// adds the unknown ones to the catalog.
func (s *ObligationService) ExtractFromText(ctx context.Context, actor *auth.Principal, text string, merge bool) (*ExtractResult, error) {
	if err := auth.Authorize(actor, auth.ActionGenerateObligations, auth.Target{}); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, validationErrorf("text is required")
	}
	if s.extractor == nil {
		return nil, ErrAIServiceNotConfigured
	}

	entries, err := s.extractor.ExtractObligations(ctx, text)
	if err != nil {
		if errors.Is(err, ErrAIServiceNotConfigured) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to extract obligations: %w", err)
	}
	if len(entries) == 0 {
		return nil, ErrNoObligationsExtracted
	}

	result := &ExtractResult{Obligations: entries}
	if merge {
		result.Added = s.catalog.Merge(entries, "ai")
		if result.Added > 0 {
			s.record(ctx, actor, models.ActivityRefreshObligations, "agenda-catalog",
				fmt.Sprintf("Obligation catalog extended with %d extracted obligations", result.Added))
		}
	}
	return result, nil
}

// generate creates the tasks of one month. Tasks already present for the
// same title, due date and assignee are skipped.
func (s *ObligationService) generate(year, month int, assignee *models.User, filter obligations.Filter) (*MonthOutcome, error) {
	outcome := &MonthOutcome{Year: year, Month: month, Assignee: displayNameOf(assignee)}

	for _, e := range s.catalog.ForMonth(month, filter) {
		due := obligations.DueDate(year, month, e.DueDay)
		exists, err := s.taskRepo.Exists(e.Title, due, assignee.ID)
		if err != nil {
			return outcome, fmt.Errorf("failed to check %q: %w", e.Title, err)
		}
		if exists {
			outcome.Skipped++
			continue
		}

		task := &models.Task{
			Title:        e.Title,
			AssigneeID:   assignee.ID,
			AssigneeName: displayNameOf(assignee),
			DueDate:      due,
			Notes:        e.Notes,
			Status:       models.TaskStatusPending,
			Recurring:    true,
			Frequency:    e.TaskFrequency(),
		}
		if err := s.taskRepo.Create(task, nil); err != nil {
			return outcome, fmt.Errorf("failed to create %q: %w", e.Title, err)
		}
		outcome.Created++
		outcome.Tasks = append(outcome.Tasks, *task)
	}
	return outcome, nil
}

func (s *ObligationService) resolveAssignee(actor *auth.Principal, email string) (*models.User, error) {
	lookup := strings.TrimSpace(email)
	var (
		user *models.User
		err  error
	)
	if lookup == "" {
		user, err = s.userRepo.FindByID(actor.ID)
	} else {
		user, err = s.userRepo.FindByEmail(lookup)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ValidationError{Message: ErrAssigneeNotFound.Error()}
		}
		return nil, fmt.Errorf("failed to find assignee: %w", err)
	}
	return user, nil
}

func (s *ObligationService) record(ctx context.Context, actor *auth.Principal, action models.ActivityKind, ref, summary string) {
	if err := s.activity.Record(ctx, newEntry(actor, action, ref, summary)); err != nil {
		log.Printf("[AGENDA] %v", err)
	}
}

// NextMonth returns the calendar month after the one containing now.
func NextMonth(now time.Time) (int, int) {
	if now.Month() == time.December {
		return now.Year() + 1, 1
	}
	return now.Year(), int(now.Month()) + 1
}

func validateYear(year int) error {
	if year < constants.MinAgendaYear || year > constants.MaxAgendaYear {
		return validationErrorf("year must be between %d and %d", constants.MinAgendaYear, constants.MaxAgendaYear)
	}
	return nil
}
