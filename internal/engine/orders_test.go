package engine_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"gigline/internal/domain"
	"gigline/internal/engine"
	"gigline/internal/engine/auth"
)

func (env testEnv) addGig(t *testing.T, sellerID string) domain.Gig {
	t.Helper()
	g, err := env.Engine.CreateGig(env.Ctx, engine.GigCreateOptions{
		ActorID:       sellerID,
		Category:      "Web Development",
		Description:   "I will build your site",
		StartingPrice: 150,
		Tags:          []string{"React", "Responsive"},
	})
	require.NoError(t, err)
	return g
}

func TestGigCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	seller := env.addUser(t, "seller")

	g := env.addGig(t, seller)
	require.Equal(t, 7, g.DeliveryDays) // defaulted

	_, err := env.Engine.CreateGig(env.Ctx, engine.GigCreateOptions{
		ActorID: seller, Category: "Underwater Basket Weaving", Description: "x", StartingPrice: 10,
	})
	require.Error(t, err)

	_, err = env.Engine.CreateGig(env.Ctx, engine.GigCreateOptions{
		ActorID: seller, Category: "Web Development", Description: "x", StartingPrice: 0,
	})
	require.Error(t, err)
}

func TestOrderLifecycle(t *testing.T) {
	env := newTestEnv(t)
	seller := env.addUser(t, "seller")
	client := env.addUser(t, "client")
	gig := env.addGig(t, seller)

	order, err := env.Engine.PlaceOrder(env.Ctx, engine.OrderCreateOptions{
		ActorID:     client,
		GigID:       gig.ID,
		Description: "Need a portfolio site",
		Budget:      200,
	})
	require.NoError(t, err)
	require.Equal(t, "pending", order.Status)
	require.Equal(t, seller, order.StudentID)

	order, err = env.Engine.AcceptOrder(env.Ctx, order.ID, seller)
	require.NoError(t, err)
	require.Equal(t, "in_progress", order.Status)
	require.NotNil(t, order.AcceptedAt)

	order, err = env.Engine.SubmitOrder(env.Ctx, order.ID, seller, "first draft")
	require.NoError(t, err)
	require.Equal(t, "submitted", order.Status)

	order, err = env.Engine.RequestOrderRevision(env.Ctx, order.ID, client, "darker theme please")
	require.NoError(t, err)
	require.Equal(t, "revision_requested", order.Status)
	require.Len(t, order.RevisionMessages, 1)

	order, err = env.Engine.SubmitOrder(env.Ctx, order.ID, seller, "darker now")
	require.NoError(t, err)

	order, err = env.Engine.CompleteOrder(env.Ctx, order.ID, client)
	require.NoError(t, err)
	require.Equal(t, "completed", order.Status)

	paid, err := env.Engine.Repo.GetUser(env.Ctx, seller)
	require.NoError(t, err)
	require.InDelta(t, 200, paid.WalletBalance, 1e-9)
	require.Equal(t, 1, paid.CompletedTasks)

	rating, err := env.Engine.RateOrder(env.Ctx, order.ID, client, 4, "solid")
	require.NoError(t, err)
	require.Equal(t, seller, rating.ToUserID)
	_, err = env.Engine.RateOrder(env.Ctx, order.ID, client, 4, "")
	require.ErrorIs(t, err, engine.ErrAlreadyRated)
}

func TestOrderRejectIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	seller := env.addUser(t, "seller")
	client := env.addUser(t, "client")
	gig := env.addGig(t, seller)

	order, err := env.Engine.PlaceOrder(env.Ctx, engine.OrderCreateOptions{
		ActorID: client, GigID: gig.ID, Description: "x", Budget: 50,
	})
	require.NoError(t, err)

	order, err = env.Engine.RejectOrder(env.Ctx, order.ID, seller)
	require.NoError(t, err)
	require.Equal(t, "rejected", order.Status)

	_, err = env.Engine.AcceptOrder(env.Ctx, order.ID, seller)
	require.ErrorIs(t, err, engine.ErrInvalidTransition)
	_, err = env.Engine.SubmitOrder(env.Ctx, order.ID, seller, "")
	require.ErrorIs(t, err, engine.ErrInvalidTransition)
	_, err = env.Engine.CompleteOrder(env.Ctx, order.ID, client)
	require.ErrorIs(t, err, engine.ErrInvalidTransition)
}

func TestOrderAuthorization(t *testing.T) {
	env := newTestEnv(t)
	seller := env.addUser(t, "seller")
	client := env.addUser(t, "client")
	gig := env.addGig(t, seller)

	var forbidden auth.ForbiddenError

	// a seller cannot order their own gig
	_, err := env.Engine.PlaceOrder(env.Ctx, engine.OrderCreateOptions{
		ActorID: seller, GigID: gig.ID, Description: "x", Budget: 10,
	})
	require.ErrorAs(t, err, &forbidden)

	order, err := env.Engine.PlaceOrder(env.Ctx, engine.OrderCreateOptions{
		ActorID: client, GigID: gig.ID, Description: "x", Budget: 10,
	})
	require.NoError(t, err)

	// only the seller accepts, only the client completes
	_, err = env.Engine.AcceptOrder(env.Ctx, order.ID, client)
	require.ErrorAs(t, err, &forbidden)
	_, err = env.Engine.AcceptOrder(env.Ctx, order.ID, seller)
	require.NoError(t, err)
	_, err = env.Engine.SubmitOrder(env.Ctx, order.ID, client, "")
	require.ErrorAs(t, err, &forbidden)
	_, err = env.Engine.SubmitOrder(env.Ctx, order.ID, seller, "done")
	require.NoError(t, err)
	_, err = env.Engine.CompleteOrder(env.Ctx, order.ID, seller)
	require.ErrorAs(t, err, &forbidden)
	_, err = env.Engine.CompleteOrder(env.Ctx, order.ID, client)
	require.NoError(t, err)
	_, err = env.Engine.RateOrder(env.Ctx, order.ID, seller, 5, "")
	require.ErrorAs(t, err, &forbidden)
}

func TestOrderListInvolvement(t *testing.T) {
	env := newTestEnv(t)
	seller := env.addUser(t, "seller")
	client := env.addUser(t, "client")
	bystander := env.addUser(t, "bystander")
	gig := env.addGig(t, seller)

	_, err := env.Engine.PlaceOrder(env.Ctx, engine.OrderCreateOptions{
		ActorID: client, GigID: gig.ID, Description: "x", Budget: 25,
	})
	require.NoError(t, err)

	for _, id := range []string{seller, client} {
		orders, err := env.Engine.Repo.ListOrders(env.Ctx, id)
		require.NoError(t, err)
		require.Len(t, orders, 1)
	}
	orders, err := env.Engine.Repo.ListOrders(env.Ctx, bystander)
	require.NoError(t, err)
	require.Empty(t, orders)
}
