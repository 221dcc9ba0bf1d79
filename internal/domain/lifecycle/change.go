package lifecycle

import (
	"context"
	"errors"
	"time"

	"github.com/foodlink/donation-coordinator/internal/domain/entity"
	"github.com/foodlink/donation-coordinator/internal/domain/workflow"
)

// change is the working copy of one lot while a transition is decided
type change struct {
	ctx        context.Context
	c          *Coordinator
	now        time.Time
	transition Transition
	phase      Phase

	food     *entity.Food
	requests []*entity.Request
	tasks    []*entity.Task
	users    map[string]*entity.User

	applied bool
	request *entity.Request
	task    *entity.Task

	createdRequest  *entity.Request
	createdTask     *entity.Task
	updatedRequests []*entity.Request
	updatedTask     *entity.Task
	superseded      []string
	notifications   []*entity.Notification
}

func newChange(ctx context.Context, c *Coordinator, intent Intent, snap *Snapshot, phase Phase) *change {
	ch := &change{
		ctx:        ctx,
		c:          c,
		now:        c.Now(),
		transition: intent.Transition(),
		phase:      phase,
		food:       snap.Food.Clone(),
		requests:   make([]*entity.Request, 0, len(snap.Requests)+1),
		tasks:      make([]*entity.Task, 0, len(snap.Tasks)+1),
		users:      snap.Users,
	}
	for _, r := range snap.Requests {
		ch.requests = append(ch.requests, r.Clone())
	}
	for _, t := range snap.Tasks {
		ch.tasks = append(ch.tasks, t.Clone())
	}
	return ch
}

func (ch *change) fail(kind error, entityName, id, format string, args ...any) error {
	return NewError(kind, ch.transition, entityName, id, format, args...)
}

// alreadyApplied ends the decision without writes
func (ch *change) alreadyApplied(r *entity.Request, t *entity.Task) error {
	ch.applied = true
	ch.request = r
	ch.task = t
	return nil
}

func (ch *change) requireRole(actor Actor, roles ...entity.Role) error {
	for _, role := range roles {
		if actor.Role == role {
			return nil
		}
	}
	return ch.fail(ErrAuthorizationFailed, EntityUser, actor.UserID, "role %q may not %s", actor.Role, ch.transition)
}

func (ch *change) user(id string) (*entity.User, error) {
	if u, ok := ch.users[id]; ok && u != nil {
		return u, nil
	}
	return nil, ch.fail(ErrNotFound, EntityUser, id, "user does not exist")
}

func (ch *change) requestByID(id string) (*entity.Request, error) {
	for _, r := range ch.requests {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, ch.fail(ErrNotFound, EntityRequest, id, "request does not exist")
}

func (ch *change) taskByID(id string) (*entity.Task, error) {
	for _, t := range ch.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, ch.fail(ErrNotFound, EntityTask, id, "task does not exist")
}

func (ch *change) taskFor(requestID string) *entity.Task {
	for _, t := range ch.tasks {
		if t.RequestID == requestID {
			return t
		}
	}
	return nil
}

// siblings returns the other requests for the lot matching the predicate
func (ch *change) siblings(of *entity.Request, match func(entity.RequestStatus) bool) []*entity.Request {
	var out []*entity.Request
	for _, r := range ch.requests {
		if (of == nil || r.ID != of.ID) && match(r.Status) {
			out = append(out, r)
		}
	}
	return out
}

func isPending(s entity.RequestStatus) bool { return s == entity.RequestStatusPending }

// moveFood fires a trigger on the food machine
func (ch *change) moveFood(ctx context.Context, trigger workflow.Trigger) error {
	next, err := fire(ctx, foodMachine, ch.food.Status, trigger)
	if err != nil {
		return ch.machineError(err, EntityFood, ch.food.ID, string(ch.food.Status))
	}
	ch.food.Status = next
	return nil
}

func (ch *change) moveRequest(r *entity.Request, trigger workflow.Trigger) error {
	next, err := fire(ch.ctx, requestMachine, r.Status, trigger)
	if err != nil {
		return ch.machineError(err, EntityRequest, r.ID, string(r.Status))
	}
	r.Status = next
	ch.touchRequest(r)
	return nil
}

func (ch *change) moveTask(t *entity.Task, trigger workflow.Trigger) error {
	next, err := fire(ch.ctx, taskMachine, t.Status, trigger)
	if err != nil {
		return ch.machineError(err, EntityTask, t.ID, string(t.Status))
	}
	t.Status = next
	t.Stamp(next, ch.now)
	ch.touchTask(t)
	return nil
}

func (ch *change) machineError(err error, entityName, id, status string) error {
	if errors.Is(err, workflow.ErrInvalidState) {
		return ch.fail(ErrInvariantViolation, entityName, id, "%v", err)
	}
	var blocked *blockedError
	if errors.As(err, &blocked) && len(blocked.permitted) > 0 {
		return ch.fail(ErrPreconditionFailed, entityName, id, "%s is %s; allowed next: %s", entityName, status, blocked.nextSteps())
	}
	return ch.fail(ErrPreconditionFailed, entityName, id, "%s is %s", entityName, status)
}

// rejectWith moves a request to rejected and records why
func (ch *change) rejectWith(r *entity.Request, trigger workflow.Trigger, reason string) error {
	if err := ch.moveRequest(r, trigger); err != nil {
		return err
	}
	r.RejectionReason = reason
	return nil
}

func (ch *change) touchRequest(r *entity.Request) {
	r.UpdatedAt = ch.now
	if r == ch.createdRequest {
		return
	}
	for _, u := range ch.updatedRequests {
		if u == r {
			return
		}
	}
	ch.updatedRequests = append(ch.updatedRequests, r)
}

func (ch *change) touchTask(t *entity.Task) {
	t.UpdatedAt = ch.now
	if t != ch.createdTask {
		ch.updatedTask = t
	}
}

func (ch *change) addRequest(r *entity.Request) {
	ch.requests = append(ch.requests, r)
	ch.createdRequest = r
}

func (ch *change) addTask(t *entity.Task) {
	ch.tasks = append(ch.tasks, t)
	ch.createdTask = t
}

// notify queues messages referencing the given request and task
func (ch *change) notify(r *entity.Request, t *entity.Task, msgs ...message) {
	for _, m := range msgs {
		if m.userID == "" {
			continue
		}
		n := &entity.Notification{
			ID:             ch.c.newID(),
			UserID:         m.userID,
			Title:          m.title,
			Message:        m.body,
			Category:       m.category,
			FoodID:         ch.food.ID,
			DeliveryStatus: entity.NotificationStatusPending,
			CreatedAt:      ch.now,
			UpdatedAt:      ch.now,
		}
		if r != nil {
			n.RequestID = r.ID
		}
		if t != nil {
			n.TaskID = t.ID
		}
		ch.notifications = append(ch.notifications, n)
	}
}

func (ch *change) outcome() (*Outcome, error) {
	out := &Outcome{
		Transition: ch.transition,
		Food:       ch.food,
		Request:    ch.request,
		Task:       ch.task,
	}

	if ch.applied {
		out.AlreadyApplied = true
		out.Phase = ch.phase
		return out, nil
	}

	phase, err := DerivePhase(ch.food, ch.requests, ch.tasks)
	if err != nil {
		return nil, withTransition(err, ch.transition)
	}

	// The food row is always written so that its version orders every change to the lot
	ch.food.UpdatedAt = ch.now

	out.Phase = phase
	out.Superseded = ch.superseded
	out.Writes = WriteSet{
		Food:           ch.food,
		CreateRequest:  ch.createdRequest,
		UpdateRequests: ch.updatedRequests,
		CreateTask:     ch.createdTask,
		UpdateTask:     ch.updatedTask,
		Notifications:  ch.notifications,
	}
	return out, nil
}
