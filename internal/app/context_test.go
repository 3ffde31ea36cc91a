package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"gigline/internal/app"
	"gigline/internal/config"
	"gigline/internal/db"
	"gigline/internal/domain"
	"gigline/internal/engine"
	"gigline/internal/migrate"
	"gigline/internal/repo"
)

func newRepo(t *testing.T) repo.Repo {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, migrate.Migrate(conn))
	return repo.Repo{DB: conn}
}

func TestResolveSessionSeedsDemoData(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	s, err := app.ResolveSession(ctx, r, config.Default())
	require.NoError(t, err)
	require.Equal(t, "user-1", s.UserID)
	require.Equal(t, domain.RoleClient, s.Role)

	users, err := r.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 4)
	tasks, err := r.ListTasks(ctx, "open")
	require.NoError(t, err)
	require.Len(t, tasks, 4)
	gigs, err := r.ListGigs(ctx)
	require.NoError(t, err)
	require.Len(t, gigs, 3)

	// a second resolve must not seed again
	s, err = app.ResolveSession(ctx, r, config.Default())
	require.NoError(t, err)
	require.Equal(t, "user-1", s.UserID)
	users, err = r.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 4)
}

func TestResolveSessionWithoutSeedErrors(t *testing.T) {
	r := newRepo(t)
	cfg := config.Default()
	cfg.Seed.Demo = false

	_, err := app.ResolveSession(context.Background(), r, cfg)
	require.Error(t, err)
}

func TestResolveSessionKeepsStoredIdentity(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	_, err := app.ResolveSession(ctx, r, config.Default())
	require.NoError(t, err)
	require.NoError(t, r.SetSessionUser(ctx, "user-3"))
	require.NoError(t, r.SetSessionRole(ctx, domain.RoleStudent))

	s, err := app.ResolveSession(ctx, r, config.Default())
	require.NoError(t, err)
	require.Equal(t, "user-3", s.UserID)
	require.Equal(t, domain.RoleStudent, s.Role)
}

func TestSeededWalletsMatchLedger(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	_, err := app.ResolveSession(ctx, r, config.Default())
	require.NoError(t, err)

	eng := engine.New(r.DB, config.Default(), nil)
	mismatches, err := eng.VerifyBalances(ctx)
	require.NoError(t, err)
	require.Empty(t, mismatches)
}
