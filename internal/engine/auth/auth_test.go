package auth_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"gigline/internal/domain"
	"gigline/internal/engine/auth"
)

func TestTaskCapabilities(t *testing.T) {
	worker := "w"
	task := domain.Task{ID: "t", CreatorID: "c", SelectedApplicantID: &worker}

	require.NoError(t, auth.Can("other", auth.OpApplyToTask, task))
	require.Error(t, auth.Can("c", auth.OpApplyToTask, task))

	for _, op := range []auth.Operation{auth.OpSelectApplicant, auth.OpReviseTask, auth.OpCompleteTask, auth.OpRateTask} {
		require.NoError(t, auth.Can("c", op, task))
		require.Error(t, auth.Can("w", op, task))
	}

	require.NoError(t, auth.Can("w", auth.OpSubmitTask, task))
	require.Error(t, auth.Can("c", auth.OpSubmitTask, task))

	unselected := domain.Task{ID: "t", CreatorID: "c"}
	require.Error(t, auth.Can("w", auth.OpSubmitTask, unselected))
}

func TestOrderCapabilities(t *testing.T) {
	order := domain.Order{ID: "o", ClientID: "c", StudentID: "s"}

	for _, op := range []auth.Operation{auth.OpAcceptOrder, auth.OpRejectOrder, auth.OpSubmitOrder} {
		require.NoError(t, auth.Can("s", op, order))
		require.Error(t, auth.Can("c", op, order))
	}
	for _, op := range []auth.Operation{auth.OpReviseOrder, auth.OpCompleteOrder, auth.OpRateOrder} {
		require.NoError(t, auth.Can("c", op, order))
		require.Error(t, auth.Can("s", op, order))
	}

	gig := domain.Gig{ID: "g", UserID: "s"}
	require.NoError(t, auth.Can("c", auth.OpPlaceOrder, gig))
	require.Error(t, auth.Can("s", auth.OpPlaceOrder, gig))
}

func TestWrongEntityKindForbidden(t *testing.T) {
	require.Error(t, auth.Can("x", auth.OpSubmitTask, domain.Order{}))
	require.Error(t, auth.Can("x", auth.OpAcceptOrder, domain.Task{}))

	var forbidden auth.ForbiddenError
	err := auth.Can("x", auth.OpCompleteTask, domain.Task{CreatorID: "c"})
	require.ErrorAs(t, err, &forbidden)
	require.Equal(t, auth.OpCompleteTask, forbidden.Op)
	require.Equal(t, "x", forbidden.ActorID)
}
