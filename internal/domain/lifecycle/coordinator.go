package lifecycle

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/foodlink/donation-coordinator/internal/domain/entity"
	"github.com/foodlink/donation-coordinator/internal/domain/workflow"
)

// Coordinator decides lifecycle transitions. It holds no state between calls:
// every decision is a function of the intent, the snapshot and the clock.
type Coordinator struct {
	now   func() time.Time
	newID func() string
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
	}
}

// WithIDGenerator overrides how ids for new requests, tasks and notifications are made
func WithIDGenerator(newID func() string) Option {
	return func(c *Coordinator) {
		c.newID = newID
	}
}

// NewCoordinator creates a coordinator using UTC wall time and random UUIDs
func NewCoordinator(opts ...Option) *Coordinator {
	c := &Coordinator{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Now returns the coordinator's current time in UTC
func (c *Coordinator) Now() time.Time {
	return c.now().UTC()
}

// Decide validates the intent against the snapshot and computes the write set.
// The snapshot is never modified.
func (c *Coordinator) Decide(ctx context.Context, intent Intent, snap *Snapshot) (*Outcome, error) {
	if err := intent.validate(); err != nil {
		return nil, err
	}
	if snap == nil || snap.Food == nil {
		target := intent.Target()
		return nil, NewError(ErrNotFound, intent.Transition(), target.Entity, target.ID, "no food for target")
	}

	phase, err := snap.Phase()
	if err != nil {
		return nil, withTransition(err, intent.Transition())
	}

	ch := newChange(ctx, c, intent, snap, phase)

	switch in := intent.(type) {
	case SubmitRequest:
		err = ch.submit(in)
	case ApproveRequest:
		err = ch.approve(in)
	case RejectRequest:
		err = ch.reject(in)
	case AssignVolunteer:
		err = ch.assign(in)
	case AcceptTask:
		err = ch.advance(in.Actor, in.TaskID, entity.TaskStatusAccepted, workflow.TriggerAccept)
	case MarkPickedUp:
		err = ch.advance(in.Actor, in.TaskID, entity.TaskStatusPickedUp, workflow.TriggerPickUp)
	case MarkReachedNGO:
		err = ch.advance(in.Actor, in.TaskID, entity.TaskStatusReachedNGO, workflow.TriggerReachNGO)
	case ConfirmCompletion:
		err = ch.confirm(in)
	case ExpireFood:
		err = ch.expire(in)
	case CancelDelivery:
		err = ch.cancel(in)
	case WithdrawListing:
		err = ch.withdraw(in)
	default:
		target := intent.Target()
		err = NewError(ErrInvalidIntent, intent.Transition(), target.Entity, target.ID, "unsupported intent %T", intent)
	}
	if err != nil {
		return nil, err
	}

	return ch.outcome()
}

func withTransition(err error, t Transition) error {
	var lerr *Error
	if errors.As(err, &lerr) && lerr.Transition == "" {
		cp := *lerr
		cp.Transition = t
		return &cp
	}
	return err
}
