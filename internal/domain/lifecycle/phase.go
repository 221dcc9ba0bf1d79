package lifecycle

import (
	"fmt"

	"github.com/foodlink/donation-coordinator/internal/domain/entity"
)

// Phase is the combined lifecycle stage of a lot, derived from Food, its
// winning Request and that Request's Task. It is never stored.
type Phase string

const (
	PhaseOpen               Phase = "open"
	PhaseRequested          Phase = "requested"
	PhaseApprovedUnassigned Phase = "approved_unassigned"
	PhaseAssigned           Phase = "assigned"
	PhaseAccepted           Phase = "accepted"
	PhaseInTransit          Phase = "in_transit"
	PhaseAtNGO              Phase = "at_ngo"
	PhaseCompleted          Phase = "completed"
	PhaseRejected           Phase = "rejected"
	PhaseExpired            Phase = "expired"
	PhaseCancelled          Phase = "cancelled"
)

func (p Phase) String() string {
	return string(p)
}

// Snapshot is everything the coordinator reads for one lot: the food, every
// request that references it, the tasks of those requests and the users the
// intent refers to.
type Snapshot struct {
	Food     *entity.Food
	Requests []*entity.Request
	Tasks    []*entity.Task
	Users    map[string]*entity.User
}

// Phase derives the lot's phase, failing if the entities are inconsistent
func (s *Snapshot) Phase() (Phase, error) {
	return DerivePhase(s.Food, s.Requests, s.Tasks)
}

// DerivePhase projects the three entity kinds onto a single phase. Any
// combination that has no phase is reported as ErrInvariantViolation.
func DerivePhase(food *entity.Food, requests []*entity.Request, tasks []*entity.Task) (Phase, error) {
	if food == nil {
		return "", violation("", "food is missing")
	}
	if !food.Status.IsValid() {
		return "", violation(food.ID, "unknown food status %q", food.Status)
	}

	var (
		pending   int
		winner    *entity.Request
		byID      = make(map[string]*entity.Request, len(requests))
		activeNGO = make(map[string]string)
	)
	for _, r := range requests {
		if r.FoodID != food.ID {
			return "", violation(food.ID, "request %s references food %s", r.ID, r.FoodID)
		}
		if !r.Status.IsValid() {
			return "", violation(food.ID, "request %s has unknown status %q", r.ID, r.Status)
		}
		byID[r.ID] = r

		if r.Status.IsActive() {
			if other, ok := activeNGO[r.NGOID]; ok {
				return "", violation(food.ID, "ngo %s has two active requests (%s, %s)", r.NGOID, other, r.ID)
			}
			activeNGO[r.NGOID] = r.ID
		}
		if r.Status == entity.RequestStatusPending {
			pending++
		}
		if r.Status.IsWinning() {
			if winner != nil {
				return "", violation(food.ID, "requests %s and %s both won the lot", winner.ID, r.ID)
			}
			winner = r
		}
	}

	var (
		winnerTask *entity.Task
		cancelled  bool
		perRequest = make(map[string]string, len(tasks))
	)
	for _, t := range tasks {
		r, ok := byID[t.RequestID]
		if !ok {
			return "", violation(food.ID, "task %s references unknown request %s", t.ID, t.RequestID)
		}
		if !t.Status.IsValid() {
			return "", violation(food.ID, "task %s has unknown status %q", t.ID, t.Status)
		}
		if other, dup := perRequest[t.RequestID]; dup {
			return "", violation(food.ID, "request %s has two tasks (%s, %s)", t.RequestID, other, t.ID)
		}
		perRequest[t.RequestID] = t.ID

		switch {
		case t.Status == entity.TaskStatusCancelled:
			cancelled = true
			if r.Status != entity.RequestStatusRejected {
				return "", violation(food.ID, "cancelled task %s belongs to %s request %s", t.ID, r.Status, r.ID)
			}
		case t.Status == entity.TaskStatusCompleted:
			if r.Status != entity.RequestStatusCompleted {
				return "", violation(food.ID, "completed task %s belongs to %s request %s", t.ID, r.Status, r.ID)
			}
			winnerTask = t
		default:
			if r.Status != entity.RequestStatusApproved {
				return "", violation(food.ID, "live task %s belongs to %s request %s", t.ID, r.Status, r.ID)
			}
			winnerTask = t
		}
	}

	if winner != nil && winner.Status == entity.RequestStatusCompleted && winnerTask == nil {
		return "", violation(food.ID, "completed request %s has no completed task", winner.ID)
	}

	taskStatus := func() entity.TaskStatus {
		if winnerTask == nil {
			return ""
		}
		return winnerTask.Status
	}

	// From here on every pending request or winner must agree with the food status
	switch food.Status {
	case entity.FoodStatusAvailable:
		if pending > 0 || winner != nil {
			return "", violation(food.ID, "available food has active requests")
		}
		switch {
		case len(requests) == 0:
			return PhaseOpen, nil
		case cancelled:
			return PhaseCancelled, nil
		default:
			return PhaseRejected, nil
		}

	case entity.FoodStatusRequested:
		if pending == 0 || winner != nil {
			return "", violation(food.ID, "requested food needs pending requests and no winner")
		}
		return PhaseRequested, nil

	case entity.FoodStatusApproved, entity.FoodStatusPickedUp, entity.FoodStatusReachedNGO:
		if winner == nil || winner.Status != entity.RequestStatusApproved {
			return "", violation(food.ID, "%s food has no approved request", food.Status)
		}
		if pending > 0 {
			return "", violation(food.ID, "%d sibling requests still pending after approval", pending)
		}
		return deliveryPhase(food, taskStatus())

	case entity.FoodStatusCompleted:
		if winner == nil || winner.Status != entity.RequestStatusCompleted || taskStatus() != entity.TaskStatusCompleted {
			return "", violation(food.ID, "completed food needs a completed request and task")
		}
		if pending > 0 {
			return "", violation(food.ID, "completed food has pending requests")
		}
		return PhaseCompleted, nil

	case entity.FoodStatusExpired, entity.FoodStatusCancelled:
		if pending > 0 || winner != nil {
			return "", violation(food.ID, "%s food has active requests", food.Status)
		}
		if food.Status == entity.FoodStatusExpired {
			return PhaseExpired, nil
		}
		return PhaseCancelled, nil
	}

	return "", violation(food.ID, "no phase for food status %q", food.Status)
}

// deliveryPhase maps the food status of an approved lot and its task onto a phase
func deliveryPhase(food *entity.Food, task entity.TaskStatus) (Phase, error) {
	want := map[entity.TaskStatus]struct {
		food  entity.FoodStatus
		phase Phase
	}{
		"":                          {entity.FoodStatusApproved, PhaseApprovedUnassigned},
		entity.TaskStatusAssigned:   {entity.FoodStatusApproved, PhaseAssigned},
		entity.TaskStatusAccepted:   {entity.FoodStatusApproved, PhaseAccepted},
		entity.TaskStatusPickedUp:   {entity.FoodStatusPickedUp, PhaseInTransit},
		entity.TaskStatusReachedNGO: {entity.FoodStatusReachedNGO, PhaseAtNGO},
	}

	w, ok := want[task]
	if !ok || w.food != food.Status {
		return "", violation(food.ID, "food %s does not match task %q", food.Status, task)
	}
	return w.phase, nil
}

func violation(foodID, format string, args ...any) *Error {
	return &Error{
		Kind:   ErrInvariantViolation,
		Entity: EntityFood,
		ID:     foodID,
		Reason: fmt.Sprintf(format, args...),
	}
}
