package engine_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"gigline/internal/domain"
	"gigline/internal/engine"
)

func (env testEnv) completeTask(t *testing.T, client, worker string, budget float64) domain.Task {
	t.Helper()
	task, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{
		ActorID: client, Title: "t", Description: "d", RequiredSkills: []string{"Writing"}, Budget: budget,
	})
	require.NoError(t, err)
	_, err = env.Engine.ApplyToTask(env.Ctx, task.ID, worker, "")
	require.NoError(t, err)
	_, err = env.Engine.SelectApplicant(env.Ctx, task.ID, worker, client)
	require.NoError(t, err)
	_, err = env.Engine.SubmitTask(env.Ctx, task.ID, worker, "done")
	require.NoError(t, err)
	task, err = env.Engine.CompleteTask(env.Ctx, task.ID, client)
	require.NoError(t, err)
	return task
}

func TestSettlementWritesTransactionPair(t *testing.T) {
	env := newTestEnv(t)
	client := env.addUser(t, "client")
	worker := env.addUser(t, "worker")

	task := env.completeTask(t, client, worker, 120)

	txs, err := env.Engine.Repo.ListTransactionsByRef(env.Ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	types := map[string]bool{}
	for _, x := range txs {
		types[x.Type] = true
		require.Equal(t, client, x.FromUserID)
		require.Equal(t, worker, x.ToUserID)
		require.InDelta(t, 120, x.Amount, 1e-9)
	}
	require.True(t, types["payment"])
	require.True(t, types["earning"])
}

func TestWalletSummarySplitsDirections(t *testing.T) {
	env := newTestEnv(t)
	client := env.addUser(t, "client")
	worker := env.addUser(t, "worker")

	env.completeTask(t, client, worker, 75)

	s, err := env.Engine.Wallet(env.Ctx, worker)
	require.NoError(t, err)
	require.Len(t, s.Incoming, 1)
	require.Empty(t, s.Outgoing)
	require.InDelta(t, 75, s.User.WalletBalance, 1e-9)

	s, err = env.Engine.Wallet(env.Ctx, client)
	require.NoError(t, err)
	require.Empty(t, s.Incoming)
	require.Len(t, s.Outgoing, 1)
	require.InDelta(t, -75, s.User.WalletBalance, 1e-9)
}

func TestRatingAverageRoundsToOneDecimal(t *testing.T) {
	env := newTestEnv(t)
	client := env.addUser(t, "client")

	// worker arrives with rating history
	worker := domain.User{
		ID: "seasoned", Name: "seasoned",
		AverageRating: 4.0, TotalRatings: 2,
		CreatedAt: "2026-01-01T00:00:00Z",
	}
	tx, err := env.Engine.DB.BeginTx(env.Ctx, nil)
	require.NoError(t, err)
	require.NoError(t, env.Engine.Repo.InsertUserTx(env.Ctx, tx, worker))
	require.NoError(t, tx.Commit())

	task := env.completeTask(t, client, worker.ID, 30)
	_, err = env.Engine.RateTask(env.Ctx, task.ID, client, 5, "")
	require.NoError(t, err)

	u, err := env.Engine.Repo.GetUser(env.Ctx, worker.ID)
	require.NoError(t, err)
	// (4.0*2 + 5) / 3 = 4.333... rounds to 4.3
	require.InDelta(t, 4.3, u.AverageRating, 1e-9)
	require.Equal(t, 3, u.TotalRatings)
}

func TestVerifyBalances(t *testing.T) {
	env := newTestEnv(t)
	client := env.addUser(t, "client")
	worker := env.addUser(t, "worker")

	env.completeTask(t, client, worker, 90)

	mismatches, err := env.Engine.VerifyBalances(env.Ctx)
	require.NoError(t, err)
	require.Empty(t, mismatches)

	// corrupt a stored balance behind the ledger's back
	_, err = env.Engine.DB.ExecContext(env.Ctx, `UPDATE users SET wallet_balance = wallet_balance + 999 WHERE id = ?`, worker)
	require.NoError(t, err)

	mismatches, err = env.Engine.VerifyBalances(env.Ctx)
	require.NoError(t, err)
	require.Len(t, mismatches, 1)
	require.Equal(t, worker, mismatches[0].UserID)
	require.InDelta(t, 90, mismatches[0].Computed, 1e-9)
	require.InDelta(t, 1089, mismatches[0].Stored, 1e-9)
}

func TestOpeningBalanceAnchorsLedger(t *testing.T) {
	env := newTestEnv(t)

	// a user seeded with funds but no transaction history still verifies
	u := domain.User{
		ID: "funded", Name: "funded",
		WalletBalance: 500, OpeningBalance: 500,
		CreatedAt: "2026-01-01T00:00:00Z",
	}
	tx, err := env.Engine.DB.BeginTx(env.Ctx, nil)
	require.NoError(t, err)
	require.NoError(t, env.Engine.Repo.InsertUserTx(env.Ctx, tx, u))
	require.NoError(t, tx.Commit())

	mismatches, err := env.Engine.VerifyBalances(env.Ctx)
	require.NoError(t, err)
	require.Empty(t, mismatches)
}
