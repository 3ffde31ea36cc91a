package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"gigline/internal/domain"
	"gigline/internal/engine/auth"
	"gigline/internal/events"
)

// GigCreateOptions are parameters for publishing a gig listing.
type GigCreateOptions struct {
	ActorID       string
	Category      string
	Description   string
	StartingPrice float64
	Tags          []string
	DeliveryDays  int
}

func (e Engine) CreateGig(ctx context.Context, opts GigCreateOptions) (domain.Gig, error) {
	if opts.Category == "" {
		return domain.Gig{}, errors.New("category is required")
	}
	if opts.Description == "" {
		return domain.Gig{}, errors.New("description is required")
	}
	if opts.StartingPrice <= 0 {
		return domain.Gig{}, errors.New("starting price must be positive")
	}
	if e.Config != nil && len(e.Config.Catalog.Categories) > 0 &&
		!slices.Contains(e.Config.Catalog.Categories, opts.Category) {
		return domain.Gig{}, fmt.Errorf("unknown category %q", opts.Category)
	}
	if _, err := e.Repo.GetUser(ctx, opts.ActorID); err != nil {
		return domain.Gig{}, fmt.Errorf("seller: %w", err)
	}
	if opts.DeliveryDays <= 0 {
		opts.DeliveryDays = 7
	}
	g := domain.Gig{
		ID:            uuid.NewString(),
		UserID:        opts.ActorID,
		Category:      opts.Category,
		Description:   opts.Description,
		StartingPrice: opts.StartingPrice,
		Tags:          opts.Tags,
		DeliveryDays:  opts.DeliveryDays,
		CreatedAt:     e.nowString(),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Gig{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertGigTx(ctx, tx, g); err != nil {
		return domain.Gig{}, err
	}
	if err := e.Events.Append(ctx, tx, "gig.created", "gig", g.ID, opts.ActorID, events.EventPayload{
		"category": g.Category,
		"price":    g.StartingPrice,
	}); err != nil {
		return domain.Gig{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Gig{}, err
	}
	return g, nil
}

// OrderCreateOptions are parameters for purchasing against a gig.
type OrderCreateOptions struct {
	ActorID     string
	GigID       string
	Description string
	Budget      float64
	Deadline    string
}

func (e Engine) PlaceOrder(ctx context.Context, opts OrderCreateOptions) (domain.Order, error) {
	g, err := e.Repo.GetGig(ctx, opts.GigID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("gig: %w", err)
	}
	if err := auth.Can(opts.ActorID, auth.OpPlaceOrder, g); err != nil {
		return domain.Order{}, err
	}
	if opts.Description == "" {
		return domain.Order{}, errors.New("description is required")
	}
	if opts.Budget <= 0 {
		return domain.Order{}, errors.New("budget must be positive")
	}
	client, err := e.Repo.GetUser(ctx, opts.ActorID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("client: %w", err)
	}
	o := domain.Order{
		ID:          uuid.NewString(),
		GigID:       g.ID,
		ClientID:    client.ID,
		StudentID:   g.UserID,
		Description: opts.Description,
		Budget:      opts.Budget,
		Deadline:    opts.Deadline,
		Status:      "pending",
		CreatedAt:   e.nowString(),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertOrderTx(ctx, tx, o); err != nil {
		return domain.Order{}, err
	}
	if err := e.notify(ctx, tx, g.UserID, fmt.Sprintf("New order from %s", client.Name), "/orders/"+o.ID); err != nil {
		return domain.Order{}, err
	}
	if err := e.Events.Append(ctx, tx, "order.placed", "order", o.ID, opts.ActorID, events.EventPayload{
		"gig_id": g.ID,
		"budget": o.Budget,
	}); err != nil {
		return domain.Order{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

// AcceptOrder moves a pending order straight to in_progress; there is no
// resting accepted state.
func (e Engine) AcceptOrder(ctx context.Context, orderID, actorID string) (domain.Order, error) {
	o, err := e.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return o, err
	}
	if o.Status != "pending" {
		return o, fmt.Errorf("%w: cannot accept while order is %s", ErrInvalidTransition, o.Status)
	}
	if err := auth.Can(actorID, auth.OpAcceptOrder, o); err != nil {
		return o, err
	}
	now := e.nowString()
	o.Status = "in_progress"
	o.AcceptedAt = &now
	return e.updateOrder(ctx, o, actorID, "order.accepted", o.ClientID, "Your order was accepted", nil)
}

func (e Engine) RejectOrder(ctx context.Context, orderID, actorID string) (domain.Order, error) {
	o, err := e.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return o, err
	}
	if o.Status != "pending" {
		return o, fmt.Errorf("%w: cannot reject while order is %s", ErrInvalidTransition, o.Status)
	}
	if err := auth.Can(actorID, auth.OpRejectOrder, o); err != nil {
		return o, err
	}
	o.Status = "rejected"
	return e.updateOrder(ctx, o, actorID, "order.rejected", o.ClientID, "Your order was declined", nil)
}

func (e Engine) SubmitOrder(ctx context.Context, orderID, actorID, message string) (domain.Order, error) {
	o, err := e.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return o, err
	}
	if o.Status != "in_progress" && o.Status != "revision_requested" {
		return o, fmt.Errorf("%w: cannot submit while order is %s", ErrInvalidTransition, o.Status)
	}
	if err := auth.Can(actorID, auth.OpSubmitOrder, o); err != nil {
		return o, err
	}
	o.Status = "submitted"
	o.SubmissionMessage = &message
	return e.updateOrder(ctx, o, actorID, "order.submitted", o.ClientID, "Work submitted for your order", nil)
}

func (e Engine) RequestOrderRevision(ctx context.Context, orderID, actorID, message string) (domain.Order, error) {
	o, err := e.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return o, err
	}
	if o.Status != "submitted" {
		return o, fmt.Errorf("%w: cannot request revision while order is %s", ErrInvalidTransition, o.Status)
	}
	if err := auth.Can(actorID, auth.OpReviseOrder, o); err != nil {
		return o, err
	}
	o.Status = "revision_requested"
	o.RevisionMessages = append(o.RevisionMessages, message)
	return e.updateOrder(ctx, o, actorID, "order.revision_requested", o.StudentID, "Revision requested for your order",
		events.EventPayload{"revisions": len(o.RevisionMessages)})
}

// CompleteOrder mirrors CompleteTask with the client paying the student.
func (e Engine) CompleteOrder(ctx context.Context, orderID, actorID string) (domain.Order, error) {
	o, err := e.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return o, err
	}
	if o.Status != "submitted" {
		return o, fmt.Errorf("%w: cannot complete while order is %s", ErrInvalidTransition, o.Status)
	}
	if err := auth.Can(actorID, auth.OpCompleteOrder, o); err != nil {
		return o, err
	}
	o.Status = "completed"

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return o, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateOrderTx(ctx, tx, o); err != nil {
		return o, err
	}
	if err := e.settle(ctx, tx, o.ClientID, o.StudentID, o.Budget, o.ID); err != nil {
		return o, err
	}
	if err := e.notify(ctx, tx, o.StudentID, fmt.Sprintf("Payment of $%v received!", o.Budget), "/wallet"); err != nil {
		return o, err
	}
	if err := e.Events.Append(ctx, tx, "order.completed", "order", o.ID, actorID, events.EventPayload{
		"amount":   o.Budget,
		"payee_id": o.StudentID,
	}); err != nil {
		return o, err
	}
	if err := tx.Commit(); err != nil {
		return o, err
	}
	return o, nil
}

func (e Engine) RateOrder(ctx context.Context, orderID, actorID string, score float64, comment string) (domain.Rating, error) {
	o, err := e.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return domain.Rating{}, err
	}
	if o.Status != "completed" {
		return domain.Rating{}, fmt.Errorf("%w: cannot rate while order is %s", ErrInvalidTransition, o.Status)
	}
	if o.Rated {
		return domain.Rating{}, ErrAlreadyRated
	}
	if err := auth.Can(actorID, auth.OpRateOrder, o); err != nil {
		return domain.Rating{}, err
	}
	if score < 1 || score > 5 {
		return domain.Rating{}, errors.New("score must be between 1 and 5")
	}
	o.Rated = true

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Rating{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateOrderTx(ctx, tx, o); err != nil {
		return domain.Rating{}, err
	}
	rating, err := e.recordRating(ctx, tx, o.ID, actorID, o.StudentID, score, comment)
	if err != nil {
		return domain.Rating{}, err
	}
	if err := e.Events.Append(ctx, tx, "order.rated", "order", o.ID, actorID, events.EventPayload{
		"score": score,
	}); err != nil {
		return domain.Rating{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Rating{}, err
	}
	return rating, nil
}

// updateOrder persists a prepared order mutation plus its notification and
// event in one transaction.
func (e Engine) updateOrder(ctx context.Context, o domain.Order, actorID, evtType, notifyUserID, message string, payload events.EventPayload) (domain.Order, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return o, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateOrderTx(ctx, tx, o); err != nil {
		return o, err
	}
	if err := e.notify(ctx, tx, notifyUserID, message, "/orders/"+o.ID); err != nil {
		return o, err
	}
	if err := e.Events.Append(ctx, tx, evtType, "order", o.ID, actorID, payload); err != nil {
		return o, err
	}
	if err := tx.Commit(); err != nil {
		return o, err
	}
	return o, nil
}
