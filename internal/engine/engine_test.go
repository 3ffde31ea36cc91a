package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gigline/internal/config"
	"gigline/internal/db"
	"gigline/internal/engine"
	"gigline/internal/engine/auth"
	"gigline/internal/migrate"
	"gigline/internal/repo"
)

type testEnv struct {
	Engine engine.Engine
	Ctx    context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, migrate.Migrate(conn))
	eng := engine.New(conn, config.Default(), nil)
	eng.Now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return testEnv{Engine: eng, Ctx: context.Background()}
}

func (env testEnv) addUser(t *testing.T, name string, skills ...string) string {
	t.Helper()
	u, err := env.Engine.CreateUser(env.Ctx, engine.UserCreateOptions{Name: name, Skills: skills})
	require.NoError(t, err)
	return u.ID
}

func TestTaskLifecycle(t *testing.T) {
	env := newTestEnv(t)
	client := env.addUser(t, "client")
	worker := env.addUser(t, "worker", "React")

	task, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{
		ActorID:        client,
		Title:          "Landing page",
		Description:    "Responsive landing page",
		RequiredSkills: []string{"React"},
		Budget:         300,
	})
	require.NoError(t, err)
	require.Equal(t, "open", task.Status)

	_, err = env.Engine.ApplyToTask(env.Ctx, task.ID, worker, "I can do this")
	require.NoError(t, err)

	task, err = env.Engine.SelectApplicant(env.Ctx, task.ID, worker, client)
	require.NoError(t, err)
	require.Equal(t, "in_progress", task.Status)
	require.NotNil(t, task.SelectedApplicantID)
	require.Equal(t, worker, *task.SelectedApplicantID)
	require.NotNil(t, task.AcceptedAt)

	task, err = env.Engine.SubmitTask(env.Ctx, task.ID, worker, "done, see attached")
	require.NoError(t, err)
	require.Equal(t, "submitted", task.Status)

	task, err = env.Engine.RequestRevision(env.Ctx, task.ID, client, "make the hero bigger")
	require.NoError(t, err)
	require.Equal(t, "revision_requested", task.Status)
	require.Len(t, task.RevisionMessages, 1)

	task, err = env.Engine.SubmitTask(env.Ctx, task.ID, worker, "hero enlarged")
	require.NoError(t, err)
	require.Equal(t, "submitted", task.Status)

	task, err = env.Engine.CompleteTask(env.Ctx, task.ID, client)
	require.NoError(t, err)
	require.Equal(t, "completed", task.Status)

	payer, err := env.Engine.Repo.GetUser(env.Ctx, client)
	require.NoError(t, err)
	require.InDelta(t, -300, payer.WalletBalance, 1e-9)
	require.InDelta(t, 300, payer.TotalSpent, 1e-9)

	payee, err := env.Engine.Repo.GetUser(env.Ctx, worker)
	require.NoError(t, err)
	require.InDelta(t, 300, payee.WalletBalance, 1e-9)
	require.InDelta(t, 300, payee.TotalEarnings, 1e-9)
	require.Equal(t, 1, payee.CompletedTasks)

	rating, err := env.Engine.RateTask(env.Ctx, task.ID, client, 5, "great work")
	require.NoError(t, err)
	require.Equal(t, worker, rating.ToUserID)

	rated, err := env.Engine.Repo.GetUser(env.Ctx, worker)
	require.NoError(t, err)
	require.InDelta(t, 5.0, rated.AverageRating, 1e-9)
	require.Equal(t, 1, rated.TotalRatings)

	_, err = env.Engine.RateTask(env.Ctx, task.ID, client, 4, "again")
	require.ErrorIs(t, err, engine.ErrAlreadyRated)
}

func TestSelectionResolvesEveryApplication(t *testing.T) {
	env := newTestEnv(t)
	client := env.addUser(t, "client")
	a := env.addUser(t, "a")
	b := env.addUser(t, "b")
	c := env.addUser(t, "c")

	task, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{
		ActorID: client, Title: "t", Description: "d", RequiredSkills: []string{"Writing"}, Budget: 50,
	})
	require.NoError(t, err)
	for _, id := range []string{a, b, c} {
		_, err := env.Engine.ApplyToTask(env.Ctx, task.ID, id, "")
		require.NoError(t, err)
	}

	_, err = env.Engine.SelectApplicant(env.Ctx, task.ID, b, client)
	require.NoError(t, err)

	apps, err := env.Engine.Repo.ListApplications(env.Ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, apps, 3)
	for _, app := range apps {
		if app.ApplicantID == b {
			require.Equal(t, "selected", app.Status)
		} else {
			require.Equal(t, "rejected", app.Status)
		}
	}
}

func TestDuplicateApplicationRejected(t *testing.T) {
	env := newTestEnv(t)
	client := env.addUser(t, "client")
	worker := env.addUser(t, "worker")

	task, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{
		ActorID: client, Title: "t", Description: "d", RequiredSkills: []string{"SEO"}, Budget: 10,
	})
	require.NoError(t, err)

	_, err = env.Engine.ApplyToTask(env.Ctx, task.ID, worker, "first")
	require.NoError(t, err)
	_, err = env.Engine.ApplyToTask(env.Ctx, task.ID, worker, "second")
	require.ErrorIs(t, err, engine.ErrAlreadyApplied)
}

func TestTaskAuthorization(t *testing.T) {
	env := newTestEnv(t)
	client := env.addUser(t, "client")
	worker := env.addUser(t, "worker")
	stranger := env.addUser(t, "stranger")

	task, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{
		ActorID: client, Title: "t", Description: "d", RequiredSkills: []string{"Design"}, Budget: 40,
	})
	require.NoError(t, err)

	// the creator cannot apply to their own task
	_, err = env.Engine.ApplyToTask(env.Ctx, task.ID, client, "")
	var forbidden auth.ForbiddenError
	require.ErrorAs(t, err, &forbidden)

	_, err = env.Engine.ApplyToTask(env.Ctx, task.ID, worker, "")
	require.NoError(t, err)

	// only the creator selects
	_, err = env.Engine.SelectApplicant(env.Ctx, task.ID, worker, stranger)
	require.ErrorAs(t, err, &forbidden)
	_, err = env.Engine.SelectApplicant(env.Ctx, task.ID, worker, client)
	require.NoError(t, err)

	// only the selected worker submits
	_, err = env.Engine.SubmitTask(env.Ctx, task.ID, stranger, "")
	require.ErrorAs(t, err, &forbidden)
	_, err = env.Engine.SubmitTask(env.Ctx, task.ID, worker, "done")
	require.NoError(t, err)

	// only the creator completes
	_, err = env.Engine.CompleteTask(env.Ctx, task.ID, worker)
	require.ErrorAs(t, err, &forbidden)
	_, err = env.Engine.CompleteTask(env.Ctx, task.ID, client)
	require.NoError(t, err)
}

func TestInvalidTaskTransitions(t *testing.T) {
	env := newTestEnv(t)
	client := env.addUser(t, "client")
	worker := env.addUser(t, "worker")

	task, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{
		ActorID: client, Title: "t", Description: "d", RequiredSkills: []string{"Python"}, Budget: 20,
	})
	require.NoError(t, err)

	// open task cannot be submitted, revised or completed
	_, err = env.Engine.SubmitTask(env.Ctx, task.ID, worker, "")
	require.ErrorIs(t, err, engine.ErrInvalidTransition)
	_, err = env.Engine.RequestRevision(env.Ctx, task.ID, client, "x")
	require.ErrorIs(t, err, engine.ErrInvalidTransition)
	_, err = env.Engine.CompleteTask(env.Ctx, task.ID, client)
	require.ErrorIs(t, err, engine.ErrInvalidTransition)

	_, err = env.Engine.ApplyToTask(env.Ctx, task.ID, worker, "")
	require.NoError(t, err)
	_, err = env.Engine.SelectApplicant(env.Ctx, task.ID, worker, client)
	require.NoError(t, err)

	// in_progress task no longer accepts applications or selection
	_, err = env.Engine.ApplyToTask(env.Ctx, task.ID, worker, "")
	require.ErrorIs(t, err, engine.ErrInvalidTransition)
	_, err = env.Engine.SelectApplicant(env.Ctx, task.ID, worker, client)
	require.ErrorIs(t, err, engine.ErrInvalidTransition)
}

func TestNotificationsFlow(t *testing.T) {
	env := newTestEnv(t)
	client := env.addUser(t, "client")
	worker := env.addUser(t, "worker")

	task, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{
		ActorID: client, Title: "t", Description: "d", RequiredSkills: []string{"DevOps"}, Budget: 60,
	})
	require.NoError(t, err)
	_, err = env.Engine.ApplyToTask(env.Ctx, task.ID, worker, "hi")
	require.NoError(t, err)

	// creator got an application notice
	items, err := env.Engine.Notifications(env.Ctx, client, true)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.False(t, items[0].Read)

	require.NoError(t, env.Engine.MarkNotificationRead(env.Ctx, items[0].ID))
	items, err = env.Engine.Notifications(env.Ctx, client, true)
	require.NoError(t, err)
	require.Empty(t, items)

	_, err = env.Engine.SelectApplicant(env.Ctx, task.ID, worker, client)
	require.NoError(t, err)
	items, err = env.Engine.Notifications(env.Ctx, worker, true)
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestEventsAppendedPerOperation(t *testing.T) {
	env := newTestEnv(t)
	client := env.addUser(t, "client")
	worker := env.addUser(t, "worker")

	task, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{
		ActorID: client, Title: "t", Description: "d", RequiredSkills: []string{"SEO"}, Budget: 80,
	})
	require.NoError(t, err)
	_, err = env.Engine.ApplyToTask(env.Ctx, task.ID, worker, "")
	require.NoError(t, err)
	_, err = env.Engine.SelectApplicant(env.Ctx, task.ID, worker, client)
	require.NoError(t, err)

	evts, err := env.Engine.Repo.LatestEvents(env.Ctx, 10, "", "task", task.ID)
	require.NoError(t, err)
	types := make([]string, 0, len(evts))
	for _, e := range evts {
		types = append(types, e.Type)
	}
	// newest first
	require.Equal(t, []string{"task.selected", "task.applied", "task.created"}, types)
}

func TestSessionSwitching(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addUser(t, "alice")
	bob := env.addUser(t, "bob")

	_, err := env.Engine.SwitchUser(env.Ctx, alice)
	require.NoError(t, err)
	require.NoError(t, env.Engine.SwitchRole(env.Ctx, "student"))

	s, err := env.Engine.Session(env.Ctx)
	require.NoError(t, err)
	require.Equal(t, alice, s.UserID)
	require.Equal(t, "student", string(s.Role))

	_, err = env.Engine.SwitchUser(env.Ctx, bob)
	require.NoError(t, err)
	s, err = env.Engine.Session(env.Ctx)
	require.NoError(t, err)
	require.Equal(t, bob, s.UserID)

	_, err = env.Engine.SwitchUser(env.Ctx, "nope")
	require.ErrorIs(t, err, repo.ErrNotFound)
	require.Error(t, env.Engine.SwitchRole(env.Ctx, "admin"))
}

func TestProfileUpdatePartial(t *testing.T) {
	env := newTestEnv(t)
	id := env.addUser(t, "alice", "Writing")

	bio := "new bio"
	u, err := env.Engine.UpdateProfile(env.Ctx, id, engine.ProfileUpdate{Bio: &bio})
	require.NoError(t, err)
	require.Equal(t, "alice", u.Name)
	require.Equal(t, "new bio", u.Bio)
	require.Equal(t, []string{"Writing"}, u.Skills)

	empty := ""
	_, err = env.Engine.UpdateProfile(env.Ctx, id, engine.ProfileUpdate{Name: &empty})
	require.Error(t, err)
}
