package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/foodlink/donation-coordinator/internal/application/dispatcher"
	"github.com/foodlink/donation-coordinator/internal/application/port"
	"github.com/foodlink/donation-coordinator/internal/domain/entity"
	"github.com/foodlink/donation-coordinator/internal/domain/event"
	"github.com/foodlink/donation-coordinator/internal/domain/lifecycle"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Repositories groups the stores the services read and write
type Repositories struct {
	Foods         port.FoodRepository
	Requests      port.RequestRepository
	Tasks         port.TaskRepository
	Users         port.UserRepository
	Notifications port.NotificationRepository
}

// LifecycleView is the read model of one lot
type LifecycleView struct {
	Food     *entity.Food      `json:"food"`
	Requests []*entity.Request `json:"requests"`
	Tasks    []*entity.Task    `json:"tasks"`
	Phase    lifecycle.Phase   `json:"phase"`
}

// LifecycleService runs coordinator intents against the store
type LifecycleService interface {
	// Execute loads the lot, decides the intent and commits the write set atomically,
	// retrying from a fresh read on version conflicts
	Execute(ctx context.Context, intent lifecycle.Intent) (*lifecycle.Outcome, error)

	// GetLifecycle returns the lot with its requests, tasks and derived phase
	GetLifecycle(ctx context.Context, foodID string) (*LifecycleView, error)

	ListRequestsByNGO(ctx context.Context, ngoID string) ([]*entity.Request, error)
	ListTasksByVolunteer(ctx context.Context, volunteerID string) ([]*entity.Task, error)
}

// DefaultMaxCommitAttempts bounds the retry loop when no limit is configured
const DefaultMaxCommitAttempts = 3

type lifecycleServiceImpl struct {
	coordinator *lifecycle.Coordinator
	repos       Repositories
	txManager   port.TransactionManager
	dispatcher  dispatcher.Dispatcher
	maxAttempts int
	logger      Logger
}

// NewLifecycleService creates a new LifecycleService. The dispatcher may be nil.
func NewLifecycleService(
	coordinator *lifecycle.Coordinator,
	repos Repositories,
	txManager port.TransactionManager,
	events dispatcher.Dispatcher,
	maxAttempts int,
	logger Logger,
) LifecycleService {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxCommitAttempts
	}
	return &lifecycleServiceImpl{
		coordinator: coordinator,
		repos:       repos,
		txManager:   txManager,
		dispatcher:  events,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// committed is what one successful transaction produced
type committed struct {
	outcome *lifecycle.Outcome
	expired *lifecycle.Outcome
	foodID  string
}

func (s *lifecycleServiceImpl) Execute(ctx context.Context, intent lifecycle.Intent) (*lifecycle.Outcome, error) {
	transition := intent.Transition()
	target := intent.Target()

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		res, err := s.attempt(ctx, intent)
		if err == nil {
			if res.expired != nil {
				s.publish(ctx, lifecycle.SystemActor, res.expired)
				return nil, lifecycle.NewError(lifecycle.ErrPreconditionFailed, transition, lifecycle.EntityFood, res.foodID, "food has expired")
			}
			if !res.outcome.AlreadyApplied {
				s.publish(ctx, intent.Initiator(), res.outcome)
			}
			s.logger.Info("Transition decided",
				"transition", transition,
				"food_id", res.foodID,
				"phase", res.outcome.Phase,
				"already_applied", res.outcome.AlreadyApplied,
				"attempt", attempt,
			)
			return res.outcome, nil
		}

		if !errors.Is(err, port.ErrVersionConflict) {
			if errors.Is(err, lifecycle.ErrInvariantViolation) {
				s.logger.Error("Invariant violation, transition aborted",
					"transition", transition,
					"target", target.Entity,
					"target_id", target.ID,
					"error", err,
				)
			}
			return nil, err
		}

		lastErr = err
		s.logger.Info("Version conflict, retrying from fresh read",
			"transition", transition,
			"target_id", target.ID,
			"attempt", attempt,
		)
	}

	s.logger.Error("Giving up after version conflicts",
		"transition", transition,
		"target_id", target.ID,
		"attempts", s.maxAttempts,
	)
	return nil, lifecycle.Conflict(transition, target.ID, lastErr)
}

// attempt runs load, decide and commit inside one transaction. A lot found past
// its expiry is committed as expired instead, and the intent is not decided.
func (s *lifecycleServiceImpl) attempt(ctx context.Context, intent lifecycle.Intent) (*committed, error) {
	res := &committed{}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		snap, err := s.load(txCtx, intent)
		if err != nil {
			return err
		}
		res.foodID = snap.Food.ID

		if _, expiring := intent.(lifecycle.ExpireFood); !expiring && snap.Food.IsExpired(s.coordinator.Now()) {
			out, err := s.coordinator.Decide(txCtx, lifecycle.ExpireFood{Actor: lifecycle.SystemActor, FoodID: snap.Food.ID}, snap)
			if err != nil {
				return err
			}
			res.expired = out
			return s.commit(txCtx, out.Writes)
		}

		out, err := s.coordinator.Decide(txCtx, intent, snap)
		if err != nil {
			return err
		}
		res.outcome = out
		return s.commit(txCtx, out.Writes)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// resolveFood finds the lot an intent's target belongs to
func (s *lifecycleServiceImpl) resolveFood(ctx context.Context, t lifecycle.Transition, target lifecycle.Target) (string, error) {
	notFound := lifecycle.NewError(lifecycle.ErrNotFound, t, target.Entity, target.ID, "%s does not exist", target.Entity)

	switch target.Entity {
	case lifecycle.EntityFood:
		return target.ID, nil

	case lifecycle.EntityRequest:
		req, err := s.repos.Requests.GetByID(ctx, target.ID)
		if err != nil {
			return "", fmt.Errorf("get request: %w", err)
		}
		if req == nil {
			return "", notFound
		}
		return req.FoodID, nil

	case lifecycle.EntityTask:
		task, err := s.repos.Tasks.GetByID(ctx, target.ID)
		if err != nil {
			return "", fmt.Errorf("get task: %w", err)
		}
		if task == nil {
			return "", notFound
		}
		req, err := s.repos.Requests.GetByID(ctx, task.RequestID)
		if err != nil {
			return "", fmt.Errorf("get request: %w", err)
		}
		if req == nil {
			return "", lifecycle.NewError(lifecycle.ErrInvariantViolation, t, lifecycle.EntityTask, task.ID, "request %s is missing", task.RequestID)
		}
		return req.FoodID, nil
	}

	return "", lifecycle.NewError(lifecycle.ErrInvalidIntent, t, target.Entity, target.ID, "unknown target")
}

func (s *lifecycleServiceImpl) load(ctx context.Context, intent lifecycle.Intent) (*lifecycle.Snapshot, error) {
	t := intent.Transition()
	foodID, err := s.resolveFood(ctx, t, intent.Target())
	if err != nil {
		return nil, err
	}

	snap, err := s.loadLot(ctx, foodID)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, lifecycle.NewError(lifecycle.ErrNotFound, t, lifecycle.EntityFood, foodID, "food does not exist")
	}

	userIDs := []string{intent.Initiator().UserID}
	if assign, ok := intent.(lifecycle.AssignVolunteer); ok {
		userIDs = append(userIDs, assign.VolunteerID)
	}
	for _, id := range userIDs {
		if id == "" || snap.Users[id] != nil {
			continue
		}
		user, err := s.repos.Users.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get user: %w", err)
		}
		if user != nil {
			snap.Users[id] = user
		}
	}

	return snap, nil
}

// loadLot reads the food with every request and task that belongs to it
func (s *lifecycleServiceImpl) loadLot(ctx context.Context, foodID string) (*lifecycle.Snapshot, error) {
	food, err := s.repos.Foods.GetByID(ctx, foodID)
	if err != nil {
		return nil, fmt.Errorf("get food: %w", err)
	}
	if food == nil {
		return nil, nil
	}

	requests, err := s.repos.Requests.ListByFood(ctx, foodID)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	tasks, err := s.repos.Tasks.ListByFood(ctx, foodID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	return &lifecycle.Snapshot{
		Food:     food,
		Requests: requests,
		Tasks:    tasks,
		Users:    make(map[string]*entity.User),
	}, nil
}

// commit applies a write set. It must run inside a transaction.
func (s *lifecycleServiceImpl) commit(ctx context.Context, w lifecycle.WriteSet) error {
	// Replays decide nothing new
	if w.IsEmpty() {
		return nil
	}
	if w.Food != nil {
		if err := s.repos.Foods.Update(ctx, w.Food); err != nil {
			return fmt.Errorf("update food: %w", err)
		}
	}
	if w.CreateRequest != nil {
		if err := s.repos.Requests.Create(ctx, w.CreateRequest); err != nil {
			return fmt.Errorf("create request: %w", err)
		}
	}
	for _, req := range w.UpdateRequests {
		if err := s.repos.Requests.Update(ctx, req); err != nil {
			return fmt.Errorf("update request %s: %w", req.ID, err)
		}
	}
	if w.CreateTask != nil {
		if err := s.repos.Tasks.Create(ctx, w.CreateTask); err != nil {
			return fmt.Errorf("create task: %w", err)
		}
	}
	if w.UpdateTask != nil {
		if err := s.repos.Tasks.Update(ctx, w.UpdateTask); err != nil {
			return fmt.Errorf("update task: %w", err)
		}
	}
	for _, n := range w.Notifications {
		if err := s.repos.Notifications.Create(ctx, n); err != nil {
			return fmt.Errorf("enqueue notification: %w", err)
		}
	}
	return nil
}

var transitionEvents = map[lifecycle.Transition]event.Type{
	lifecycle.TransitionSubmitRequest:     event.TypeRequestSubmitted,
	lifecycle.TransitionApproveRequest:    event.TypeRequestApproved,
	lifecycle.TransitionRejectRequest:     event.TypeRequestRejected,
	lifecycle.TransitionAssignVolunteer:   event.TypeTaskAssigned,
	lifecycle.TransitionAcceptTask:        event.TypeTaskAccepted,
	lifecycle.TransitionMarkPickedUp:      event.TypeTaskPickedUp,
	lifecycle.TransitionMarkReachedNGO:    event.TypeTaskReachedNGO,
	lifecycle.TransitionConfirmCompletion: event.TypeDonationCompleted,
	lifecycle.TransitionExpireFood:        event.TypeFoodExpired,
	lifecycle.TransitionCancelDelivery:    event.TypeDeliveryCancelled,
	lifecycle.TransitionWithdrawListing:   event.TypeListingWithdrawn,
}

// publish announces a committed outcome. Handler failures are logged; the commit stands.
func (s *lifecycleServiceImpl) publish(ctx context.Context, actor lifecycle.Actor, out *lifecycle.Outcome) {
	if s.dispatcher == nil {
		return
	}

	payload := map[string]any{
		"transition": out.Transition.String(),
		"phase":      out.Phase.String(),
		"food":       out.Food.Status.String(),
	}
	if out.Request != nil {
		payload["request_id"] = out.Request.ID
	}
	if out.Task != nil {
		payload["task_id"] = out.Task.ID
	}
	if len(out.Superseded) > 0 {
		payload["superseded"] = out.Superseded
	}

	evt := event.NewEvent(transitionEvents[out.Transition], out.Food.ID, actor.UserID, payload)
	if err := s.dispatcher.Dispatch(ctx, evt); err != nil {
		s.logger.Error("Event handlers failed", "event_type", evt.Type, "food_id", evt.FoodID, "error", err)
	}

	if n := len(out.Writes.Notifications); n > 0 {
		queued := evt.Follow(event.TypeNotificationsQueued, map[string]any{"count": n})
		if err := s.dispatcher.Dispatch(ctx, queued); err != nil {
			s.logger.Error("Event handlers failed", "event_type", queued.Type, "food_id", queued.FoodID, "error", err)
		}
	}
}

func (s *lifecycleServiceImpl) GetLifecycle(ctx context.Context, foodID string) (*LifecycleView, error) {
	snap, err := s.loadLot(ctx, foodID)
	if err != nil {
		s.logger.Error("Failed to load lot", "error", err, "food_id", foodID)
		return nil, err
	}
	if snap == nil {
		return nil, lifecycle.NewError(lifecycle.ErrNotFound, "", lifecycle.EntityFood, foodID, "food does not exist")
	}

	if snap.Food.IsExpired(s.coordinator.Now()) {
		if _, err := s.Execute(ctx, lifecycle.ExpireFood{Actor: lifecycle.SystemActor, FoodID: foodID}); err != nil {
			return nil, err
		}
		if snap, err = s.loadLot(ctx, foodID); err != nil {
			return nil, err
		}
	}

	phase, err := snap.Phase()
	if err != nil {
		s.logger.Error("Lot violates lifecycle invariants", "food_id", foodID, "error", err)
		return nil, err
	}

	return &LifecycleView{
		Food:     snap.Food,
		Requests: snap.Requests,
		Tasks:    snap.Tasks,
		Phase:    phase,
	}, nil
}

func (s *lifecycleServiceImpl) ListRequestsByNGO(ctx context.Context, ngoID string) ([]*entity.Request, error) {
	requests, err := s.repos.Requests.ListByNGO(ctx, ngoID)
	if err != nil {
		s.logger.Error("Failed to list requests", "error", err, "ngo_id", ngoID)
		return nil, err
	}
	return requests, nil
}

func (s *lifecycleServiceImpl) ListTasksByVolunteer(ctx context.Context, volunteerID string) ([]*entity.Task, error) {
	tasks, err := s.repos.Tasks.ListByVolunteer(ctx, volunteerID)
	if err != nil {
		s.logger.Error("Failed to list tasks", "error", err, "volunteer_id", volunteerID)
		return nil, err
	}
	return tasks, nil
}
