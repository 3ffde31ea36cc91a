// Package app wires a workspace database to a usable session: it seeds the
// demo dataset on first run and resolves the stored identity the CLI acts as.
package app

import (
	"context"
	"errors"
	"fmt"

	"gigline/internal/config"
	"gigline/internal/domain"
	"gigline/internal/repo"
)

// ResolveSession ensures the store has users and a current identity,
// seeding demo data and defaulting the session to the first user as client
// when missing.
func ResolveSession(ctx context.Context, r repo.Repo, cfg *config.Config) (domain.Session, error) {
	n, err := r.CountUsers(ctx)
	if err != nil {
		return domain.Session{}, err
	}
	if n == 0 {
		if cfg == nil || !cfg.Seed.Demo {
			return domain.Session{}, errors.New("no users exist; create one with 'gig user add' or enable seed.demo")
		}
		if err := SeedDemo(ctx, r); err != nil {
			return domain.Session{}, fmt.Errorf("seed demo data: %w", err)
		}
	}
	s, err := r.GetSession(ctx)
	if err == nil {
		if _, err := r.GetUser(ctx, s.UserID); err == nil {
			return s, nil
		}
	} else if !errors.Is(err, repo.ErrNotFound) {
		return domain.Session{}, err
	}
	users, err := r.ListUsers(ctx)
	if err != nil {
		return domain.Session{}, err
	}
	if len(users) == 0 {
		return domain.Session{}, errors.New("no users exist")
	}
	s = domain.Session{UserID: users[0].ID, Role: domain.RoleClient}
	if err := r.SetSessionUser(ctx, s.UserID); err != nil {
		return domain.Session{}, err
	}
	if err := r.SetSessionRole(ctx, s.Role); err != nil {
		return domain.Session{}, err
	}
	return s, nil
}
