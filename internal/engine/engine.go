// Package engine owns the marketplace state machines: task and order
// lifecycles, applicant selection, settlement and rating aggregation.
// Every operation takes an explicit actor id, validates preconditions,
// then mutates, notifies and journals inside a single transaction.
package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gigline/internal/config"
	"gigline/internal/domain"
	"gigline/internal/engine/auth"
	"gigline/internal/events"
	"gigline/internal/repo"
)

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	Log    *zap.Logger
	Now    func() time.Time
}

func New(db *sql.DB, cfg *config.Config, log *zap.Logger) Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Config: cfg,
		Log:    log,
		Now:    time.Now,
	}
}

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAlreadyApplied    = errors.New("applicant already applied to this task")
	ErrAlreadyRated      = errors.New("already rated")
)

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) nowString() string {
	return e.now().UTC().Format(time.RFC3339)
}

func (e Engine) notify(ctx context.Context, tx *sql.Tx, userID, message, link string) error {
	n := domain.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Message:   message,
		Link:      link,
		CreatedAt: e.nowString(),
	}
	return e.Repo.InsertNotificationTx(ctx, tx, n)
}

// TaskCreateOptions are parameters for posting a task.
type TaskCreateOptions struct {
	ActorID        string
	Title          string
	Description    string
	RequiredSkills []string
	Budget         float64
	Deadline       string
	Urgent         bool
}

func (e Engine) CreateTask(ctx context.Context, opts TaskCreateOptions) (domain.Task, error) {
	if opts.Title == "" {
		return domain.Task{}, errors.New("title is required")
	}
	if opts.Description == "" {
		return domain.Task{}, errors.New("description is required")
	}
	if len(opts.RequiredSkills) == 0 {
		return domain.Task{}, errors.New("at least one required skill is required")
	}
	if opts.Budget <= 0 {
		return domain.Task{}, errors.New("budget must be positive")
	}
	if _, err := e.Repo.GetUser(ctx, opts.ActorID); err != nil {
		return domain.Task{}, fmt.Errorf("creator: %w", err)
	}
	t := domain.Task{
		ID:             uuid.NewString(),
		CreatorID:      opts.ActorID,
		Title:          opts.Title,
		Description:    opts.Description,
		RequiredSkills: opts.RequiredSkills,
		Budget:         opts.Budget,
		Deadline:       opts.Deadline,
		Urgent:         opts.Urgent,
		Status:         "open",
		CreatedAt:      e.nowString(),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertTaskTx(ctx, tx, t); err != nil {
		return domain.Task{}, err
	}
	if err := e.Events.Append(ctx, tx, "task.created", "task", t.ID, opts.ActorID, events.EventPayload{
		"title":  t.Title,
		"budget": t.Budget,
	}); err != nil {
		return domain.Task{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Task{}, err
	}
	return t, nil
}

func (e Engine) ApplyToTask(ctx context.Context, taskID, actorID, message string) (domain.Application, error) {
	t, err := e.Repo.GetTask(ctx, taskID)
	if err != nil {
		return domain.Application{}, err
	}
	if t.Status != "open" {
		return domain.Application{}, fmt.Errorf("%w: cannot apply while task is %s", ErrInvalidTransition, t.Status)
	}
	if err := auth.Can(actorID, auth.OpApplyToTask, t); err != nil {
		return domain.Application{}, err
	}
	applicant, err := e.Repo.GetUser(ctx, actorID)
	if err != nil {
		return domain.Application{}, fmt.Errorf("applicant: %w", err)
	}
	if _, err := e.Repo.GetApplicationByApplicant(ctx, taskID, actorID); err == nil {
		return domain.Application{}, ErrAlreadyApplied
	} else if !errors.Is(err, repo.ErrNotFound) {
		return domain.Application{}, err
	}
	a := domain.Application{
		ID:          uuid.NewString(),
		TaskID:      taskID,
		ApplicantID: actorID,
		Message:     message,
		Status:      "pending",
		CreatedAt:   e.nowString(),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Application{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertApplicationTx(ctx, tx, a); err != nil {
		return domain.Application{}, err
	}
	if err := e.notify(ctx, tx, t.CreatorID, fmt.Sprintf("%s applied to %q", applicant.Name, t.Title), "/tasks/"+t.ID); err != nil {
		return domain.Application{}, err
	}
	if err := e.Events.Append(ctx, tx, "task.applied", "task", t.ID, actorID, events.EventPayload{
		"application_id": a.ID,
	}); err != nil {
		return domain.Application{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Application{}, err
	}
	return a, nil
}

// SelectApplicant moves an open task to in_progress and resolves every
// application on it in the same transaction: the chosen one becomes
// selected, all others rejected.
func (e Engine) SelectApplicant(ctx context.Context, taskID, applicantID, actorID string) (domain.Task, error) {
	t, err := e.Repo.GetTask(ctx, taskID)
	if err != nil {
		return t, err
	}
	if t.Status != "open" {
		return t, fmt.Errorf("%w: cannot select applicant while task is %s", ErrInvalidTransition, t.Status)
	}
	if err := auth.Can(actorID, auth.OpSelectApplicant, t); err != nil {
		return t, err
	}
	if _, err := e.Repo.GetApplicationByApplicant(ctx, taskID, applicantID); err != nil {
		return t, fmt.Errorf("application from %s: %w", applicantID, err)
	}
	now := e.nowString()
	t.Status = "in_progress"
	t.SelectedApplicantID = &applicantID
	t.AcceptedAt = &now

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return t, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateTaskTx(ctx, tx, t); err != nil {
		return t, err
	}
	if err := e.Repo.RelabelApplicationsTx(ctx, tx, taskID, applicantID); err != nil {
		return t, err
	}
	if err := e.notify(ctx, tx, applicantID, fmt.Sprintf("You were selected for %q", t.Title), "/tasks/"+t.ID); err != nil {
		return t, err
	}
	if err := e.Events.Append(ctx, tx, "task.selected", "task", t.ID, actorID, events.EventPayload{
		"applicant_id": applicantID,
	}); err != nil {
		return t, err
	}
	if err := tx.Commit(); err != nil {
		return t, err
	}
	return t, nil
}

func (e Engine) SubmitTask(ctx context.Context, taskID, actorID, message string) (domain.Task, error) {
	t, err := e.Repo.GetTask(ctx, taskID)
	if err != nil {
		return t, err
	}
	if t.Status != "in_progress" && t.Status != "revision_requested" {
		return t, fmt.Errorf("%w: cannot submit while task is %s", ErrInvalidTransition, t.Status)
	}
	if err := auth.Can(actorID, auth.OpSubmitTask, t); err != nil {
		return t, err
	}
	t.Status = "submitted"
	t.SubmissionMessage = &message

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return t, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateTaskTx(ctx, tx, t); err != nil {
		return t, err
	}
	if err := e.notify(ctx, tx, t.CreatorID, fmt.Sprintf("Work submitted for %q", t.Title), "/tasks/"+t.ID); err != nil {
		return t, err
	}
	if err := e.Events.Append(ctx, tx, "task.submitted", "task", t.ID, actorID, nil); err != nil {
		return t, err
	}
	if err := tx.Commit(); err != nil {
		return t, err
	}
	return t, nil
}

func (e Engine) RequestRevision(ctx context.Context, taskID, actorID, message string) (domain.Task, error) {
	t, err := e.Repo.GetTask(ctx, taskID)
	if err != nil {
		return t, err
	}
	if t.Status != "submitted" {
		return t, fmt.Errorf("%w: cannot request revision while task is %s", ErrInvalidTransition, t.Status)
	}
	if err := auth.Can(actorID, auth.OpReviseTask, t); err != nil {
		return t, err
	}
	t.Status = "revision_requested"
	t.RevisionMessages = append(t.RevisionMessages, message)

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return t, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateTaskTx(ctx, tx, t); err != nil {
		return t, err
	}
	if t.SelectedApplicantID != nil {
		if err := e.notify(ctx, tx, *t.SelectedApplicantID, fmt.Sprintf("Revision requested for %q", t.Title), "/tasks/"+t.ID); err != nil {
			return t, err
		}
	}
	if err := e.Events.Append(ctx, tx, "task.revision_requested", "task", t.ID, actorID, events.EventPayload{
		"revisions": len(t.RevisionMessages),
	}); err != nil {
		return t, err
	}
	if err := tx.Commit(); err != nil {
		return t, err
	}
	return t, nil
}

// CompleteTask is the creator's accept-and-pay action: the task closes and
// the budget settles from creator to worker in the same transaction.
func (e Engine) CompleteTask(ctx context.Context, taskID, actorID string) (domain.Task, error) {
	t, err := e.Repo.GetTask(ctx, taskID)
	if err != nil {
		return t, err
	}
	if t.Status != "submitted" {
		return t, fmt.Errorf("%w: cannot complete while task is %s", ErrInvalidTransition, t.Status)
	}
	if err := auth.Can(actorID, auth.OpCompleteTask, t); err != nil {
		return t, err
	}
	if t.SelectedApplicantID == nil {
		return t, errors.New("task has no selected applicant")
	}
	worker := *t.SelectedApplicantID
	t.Status = "completed"

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return t, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateTaskTx(ctx, tx, t); err != nil {
		return t, err
	}
	if err := e.settle(ctx, tx, t.CreatorID, worker, t.Budget, t.ID); err != nil {
		return t, err
	}
	if err := e.notify(ctx, tx, worker, fmt.Sprintf("Payment of $%v received for %q", t.Budget, t.Title), "/wallet"); err != nil {
		return t, err
	}
	if err := e.Events.Append(ctx, tx, "task.completed", "task", t.ID, actorID, events.EventPayload{
		"amount":   t.Budget,
		"payee_id": worker,
	}); err != nil {
		return t, err
	}
	if err := tx.Commit(); err != nil {
		return t, err
	}
	return t, nil
}

func (e Engine) RateTask(ctx context.Context, taskID, actorID string, score float64, comment string) (domain.Rating, error) {
	t, err := e.Repo.GetTask(ctx, taskID)
	if err != nil {
		return domain.Rating{}, err
	}
	if t.Status != "completed" {
		return domain.Rating{}, fmt.Errorf("%w: cannot rate while task is %s", ErrInvalidTransition, t.Status)
	}
	if t.Rated {
		return domain.Rating{}, ErrAlreadyRated
	}
	if err := auth.Can(actorID, auth.OpRateTask, t); err != nil {
		return domain.Rating{}, err
	}
	if t.SelectedApplicantID == nil {
		return domain.Rating{}, errors.New("task has no selected applicant")
	}
	if score < 1 || score > 5 {
		return domain.Rating{}, errors.New("score must be between 1 and 5")
	}
	t.Rated = true

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Rating{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateTaskTx(ctx, tx, t); err != nil {
		return domain.Rating{}, err
	}
	rating, err := e.recordRating(ctx, tx, t.ID, actorID, *t.SelectedApplicantID, score, comment)
	if err != nil {
		return domain.Rating{}, err
	}
	if err := e.Events.Append(ctx, tx, "task.rated", "task", t.ID, actorID, events.EventPayload{
		"score": score,
	}); err != nil {
		return domain.Rating{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Rating{}, err
	}
	return rating, nil
}
