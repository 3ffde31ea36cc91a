package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"gigline/internal/domain"
	"gigline/internal/events"
	"gigline/internal/recommend"
)

// UserCreateOptions are parameters for registering a marketplace user. New
// wallets start at the configured opening balance.
type UserCreateOptions struct {
	Name   string
	Bio    string
	Skills []string
	Avatar string
}

func (e Engine) CreateUser(ctx context.Context, opts UserCreateOptions) (domain.User, error) {
	if opts.Name == "" {
		return domain.User{}, errors.New("name is required")
	}
	opening := 0.0
	if e.Config != nil {
		opening = e.Config.Marketplace.OpeningBalance
	}
	u := domain.User{
		ID:             uuid.NewString(),
		Name:           opts.Name,
		Bio:            opts.Bio,
		Skills:         opts.Skills,
		Avatar:         opts.Avatar,
		WalletBalance:  opening,
		OpeningBalance: opening,
		CreatedAt:      e.nowString(),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.User{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertUserTx(ctx, tx, u); err != nil {
		return domain.User{}, err
	}
	if err := e.Events.Append(ctx, tx, "user.created", "user", u.ID, u.ID, events.EventPayload{
		"name": u.Name,
	}); err != nil {
		return domain.User{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// ProfileUpdate carries partial profile edits; nil fields are left alone.
type ProfileUpdate struct {
	Name   *string
	Bio    *string
	Skills []string
	Avatar *string
}

func (e Engine) UpdateProfile(ctx context.Context, actorID string, upd ProfileUpdate) (domain.User, error) {
	u, err := e.Repo.GetUser(ctx, actorID)
	if err != nil {
		return u, err
	}
	if upd.Name != nil {
		if *upd.Name == "" {
			return u, errors.New("name must not be empty")
		}
		u.Name = *upd.Name
	}
	if upd.Bio != nil {
		u.Bio = *upd.Bio
	}
	if upd.Skills != nil {
		u.Skills = upd.Skills
	}
	if upd.Avatar != nil {
		u.Avatar = *upd.Avatar
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return u, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateProfileTx(ctx, tx, u); err != nil {
		return u, err
	}
	if err := e.Events.Append(ctx, tx, "profile.updated", "user", u.ID, actorID, nil); err != nil {
		return u, err
	}
	if err := tx.Commit(); err != nil {
		return u, err
	}
	return u, nil
}

// SwitchUser points the stored session at another existing user.
func (e Engine) SwitchUser(ctx context.Context, userID string) (domain.User, error) {
	u, err := e.Repo.GetUser(ctx, userID)
	if err != nil {
		return u, err
	}
	return u, e.Repo.SetSessionUser(ctx, userID)
}

func (e Engine) SwitchRole(ctx context.Context, role domain.Role) error {
	if role != domain.RoleClient && role != domain.RoleStudent {
		return fmt.Errorf("unknown role %q", role)
	}
	return e.Repo.SetSessionRole(ctx, role)
}

func (e Engine) Session(ctx context.Context) (domain.Session, error) {
	return e.Repo.GetSession(ctx)
}

func (e Engine) Notifications(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error) {
	return e.Repo.ListNotifications(ctx, userID, unreadOnly)
}

func (e Engine) MarkNotificationRead(ctx context.Context, notifID string) error {
	return e.Repo.MarkNotificationRead(ctx, notifID)
}

func (e Engine) recommendLimit(limit int) int {
	if limit > 0 {
		return limit
	}
	if e.Config != nil && e.Config.Recommend.Limit > 0 {
		return e.Config.Recommend.Limit
	}
	return 5
}

// RecommendedTasks ranks open tasks for a worker. Scores are recomputed on
// every call; the collections are small.
func (e Engine) RecommendedTasks(ctx context.Context, workerID string, limit int) ([]domain.Task, error) {
	worker, err := e.Repo.GetUser(ctx, workerID)
	if err != nil {
		return nil, err
	}
	tasks, err := e.Repo.ListTasks(ctx, "")
	if err != nil {
		return nil, err
	}
	return recommend.Tasks(tasks, worker, e.now().UTC(), e.recommendLimit(limit)), nil
}

// RecommendedWorkers ranks candidate workers for a task.
func (e Engine) RecommendedWorkers(ctx context.Context, taskID string, limit int) ([]domain.User, error) {
	t, err := e.Repo.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	users, err := e.Repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	return recommend.Workers(t, users, e.recommendLimit(limit)), nil
}

// RecommendedGigs ranks gigs for a client.
func (e Engine) RecommendedGigs(ctx context.Context, clientID string, limit int) ([]domain.Gig, error) {
	client, err := e.Repo.GetUser(ctx, clientID)
	if err != nil {
		return nil, err
	}
	gigs, err := e.Repo.ListGigs(ctx)
	if err != nil {
		return nil, err
	}
	users, err := e.Repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	return recommend.Gigs(gigs, users, client, e.recommendLimit(limit)), nil
}
