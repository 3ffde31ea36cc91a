// Package auth decides whether an actor may perform an operation on an
// entity, independent of any display or session concern.
package auth

import (
	"fmt"

	"gigline/internal/domain"
)

type Operation string

const (
	OpApplyToTask     Operation = "task.apply"
	OpSelectApplicant Operation = "task.select"
	OpSubmitTask      Operation = "task.submit"
	OpReviseTask      Operation = "task.revise"
	OpCompleteTask    Operation = "task.complete"
	OpRateTask        Operation = "task.rate"

	OpPlaceOrder    Operation = "order.place"
	OpAcceptOrder   Operation = "order.accept"
	OpRejectOrder   Operation = "order.reject"
	OpSubmitOrder   Operation = "order.submit"
	OpReviseOrder   Operation = "order.revise"
	OpCompleteOrder Operation = "order.complete"
	OpRateOrder     Operation = "order.rate"
)

// ForbiddenError indicates the actor is not party to the operation.
type ForbiddenError struct {
	Op      Operation
	ActorID string
}

func (e ForbiddenError) Error() string {
	return fmt.Sprintf("actor %s may not perform %s", e.ActorID, e.Op)
}

// Can reports whether actorID may perform op on the given entity. Task
// operations split between the creator (select, revise, complete, rate) and
// the selected worker (submit); order operations between the client (revise,
// complete, rate) and the seller (accept, reject, submit).
func Can(actorID string, op Operation, entity any) error {
	forbidden := ForbiddenError{Op: op, ActorID: actorID}
	switch op {
	case OpApplyToTask:
		t, ok := entity.(domain.Task)
		if !ok || actorID == t.CreatorID {
			return forbidden
		}
	case OpSelectApplicant, OpReviseTask, OpCompleteTask, OpRateTask:
		t, ok := entity.(domain.Task)
		if !ok || actorID != t.CreatorID {
			return forbidden
		}
	case OpSubmitTask:
		t, ok := entity.(domain.Task)
		if !ok || t.SelectedApplicantID == nil || actorID != *t.SelectedApplicantID {
			return forbidden
		}
	case OpPlaceOrder:
		g, ok := entity.(domain.Gig)
		if !ok || actorID == g.UserID {
			return forbidden
		}
	case OpAcceptOrder, OpRejectOrder, OpSubmitOrder:
		o, ok := entity.(domain.Order)
		if !ok || actorID != o.StudentID {
			return forbidden
		}
	case OpReviseOrder, OpCompleteOrder, OpRateOrder:
		o, ok := entity.(domain.Order)
		if !ok || actorID != o.ClientID {
			return forbidden
		}
	default:
		return fmt.Errorf("unknown operation %s", op)
	}
	return nil
}
