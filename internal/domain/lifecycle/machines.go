package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"github.com/foodlink/donation-coordinator/internal/domain/entity"
	"github.com/foodlink/donation-coordinator/internal/domain/workflow"
)

type lastActiveKey struct{}

// withLastActive tells the food machine whether the request being rejected
// is the only active one left for the lot
func withLastActive(ctx context.Context, last bool) context.Context {
	return context.WithValue(ctx, lastActiveKey{}, last)
}

func isLastActive(ctx context.Context) bool {
	last, _ := ctx.Value(lastActiveKey{}).(bool)
	return last
}

var (
	foodMachine    = newFoodMachine()
	requestMachine = newRequestMachine()
	taskMachine    = newTaskMachine()
)

func newFoodMachine() workflow.StateMachineBuilder[entity.FoodStatus] {
	b := workflow.NewBuilder[entity.FoodStatus]()

	b.Configure(entity.FoodStatusAvailable).
		Permit(workflow.TriggerSubmit, entity.FoodStatusRequested).
		Permit(workflow.TriggerExpire, entity.FoodStatusExpired).
		Permit(workflow.TriggerWithdraw, entity.FoodStatusCancelled)

	b.Configure(entity.FoodStatusRequested).
		Permit(workflow.TriggerSubmit, entity.FoodStatusRequested).
		Permit(workflow.TriggerApprove, entity.FoodStatusApproved).
		PermitIf(workflow.TriggerReject, entity.FoodStatusAvailable, isLastActive).
		Permit(workflow.TriggerReject, entity.FoodStatusRequested).
		Permit(workflow.TriggerExpire, entity.FoodStatusExpired).
		Permit(workflow.TriggerWithdraw, entity.FoodStatusCancelled)

	b.Configure(entity.FoodStatusApproved).
		Permit(workflow.TriggerPickUp, entity.FoodStatusPickedUp).
		Permit(workflow.TriggerCancel, entity.FoodStatusAvailable)

	// Once the lot has left the donor it cannot be offered again
	b.Configure(entity.FoodStatusPickedUp).
		Permit(workflow.TriggerReachNGO, entity.FoodStatusReachedNGO).
		Permit(workflow.TriggerCancel, entity.FoodStatusCancelled)

	b.Configure(entity.FoodStatusReachedNGO).
		Permit(workflow.TriggerConfirm, entity.FoodStatusCompleted).
		Permit(workflow.TriggerCancel, entity.FoodStatusCancelled)

	return b
}

func newRequestMachine() workflow.StateMachineBuilder[entity.RequestStatus] {
	b := workflow.NewBuilder[entity.RequestStatus]()

	b.Configure(entity.RequestStatusPending).
		Permit(workflow.TriggerApprove, entity.RequestStatusApproved).
		Permit(workflow.TriggerReject, entity.RequestStatusRejected).
		Permit(workflow.TriggerSupersede, entity.RequestStatusRejected).
		Permit(workflow.TriggerExpire, entity.RequestStatusRejected).
		Permit(workflow.TriggerWithdraw, entity.RequestStatusRejected)

	b.Configure(entity.RequestStatusApproved).
		Permit(workflow.TriggerConfirm, entity.RequestStatusCompleted).
		Permit(workflow.TriggerCancel, entity.RequestStatusRejected)

	return b
}

func newTaskMachine() workflow.StateMachineBuilder[entity.TaskStatus] {
	b := workflow.NewBuilder[entity.TaskStatus]()

	advance := map[entity.TaskStatus]workflow.Trigger{
		entity.TaskStatusAssigned:   workflow.TriggerAccept,
		entity.TaskStatusAccepted:   workflow.TriggerPickUp,
		entity.TaskStatusPickedUp:   workflow.TriggerReachNGO,
		entity.TaskStatusReachedNGO: workflow.TriggerConfirm,
	}

	progression := entity.TaskProgression()
	for i, from := range progression[:len(progression)-1] {
		b.Configure(from).
			Permit(advance[from], progression[i+1]).
			Permit(workflow.TriggerCancel, entity.TaskStatusCancelled)
	}

	return b
}

// fire runs one trigger against a freshly built machine and returns the resulting state
func fire[S workflow.State](ctx context.Context, b workflow.StateMachineBuilder[S], from S, trigger workflow.Trigger) (S, error) {
	if !from.IsValid() {
		return from, fmt.Errorf("%w: %q", workflow.ErrInvalidState, string(from))
	}

	m := b.Build(from)
	if !m.CanFire(trigger) {
		return from, &blockedError{trigger: trigger, from: string(from), permitted: m.PermittedTriggers()}
	}
	if err := m.Fire(ctx, trigger); err != nil {
		return from, err
	}
	return m.State(), nil
}

// blockedError is a trigger the current state has no transition for
type blockedError struct {
	trigger   workflow.Trigger
	from      string
	permitted []workflow.Trigger
}

func (e *blockedError) Error() string {
	return fmt.Sprintf("%s not permitted from %s (permitted: %v)", e.trigger, e.from, e.permitted)
}

func (e *blockedError) Unwrap() error { return workflow.ErrInvalidTransition }

// nextSteps lists the permitted triggers in lower case for error reasons
func (e *blockedError) nextSteps() string {
	steps := make([]string, len(e.permitted))
	for i, t := range e.permitted {
		steps[i] = strings.ToLower(string(t))
	}
	return strings.Join(steps, ", ")
}
