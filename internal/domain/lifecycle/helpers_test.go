package lifecycle

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/foodlink/donation-coordinator/internal/domain/entity"
)

var (
	admin      = Actor{UserID: "admin-1", Role: entity.RoleAdmin}
	donor      = Actor{UserID: "donor-1", Role: entity.RoleDonor}
	ngoA       = Actor{UserID: "ngo-a", Role: entity.RoleNGO}
	ngoB       = Actor{UserID: "ngo-b", Role: entity.RoleNGO}
	ngoC       = Actor{UserID: "ngo-c", Role: entity.RoleNGO}
	ngoPending = Actor{UserID: "ngo-p", Role: entity.RoleNGO}
	volunteer  = Actor{UserID: "vol-1", Role: entity.RoleVolunteer}
	volunteer2 = Actor{UserID: "vol-2", Role: entity.RoleVolunteer}
)

func kg(amount float64) entity.Quantity {
	return entity.Quantity{Amount: amount, Unit: "kg"}
}

// lot applies decided outcomes to an in-memory snapshot the way the store would
type lot struct {
	t     *testing.T
	c     *Coordinator
	now   time.Time
	snap  *Snapshot
	sent  []*entity.Notification
	idSeq int
}

func newLot(t *testing.T) *lot {
	t.Helper()

	l := &lot{
		t:   t,
		now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	l.c = NewCoordinator(
		WithClock(func() time.Time { return l.now }),
		WithIDGenerator(func() string {
			l.idSeq++
			return fmt.Sprintf("id-%d", l.idSeq)
		}),
	)

	users := map[string]*entity.User{}
	for _, u := range []struct {
		actor  Actor
		status string
	}{
		{admin, entity.AccountStatusApproved},
		{donor, entity.AccountStatusApproved},
		{ngoA, entity.AccountStatusApproved},
		{ngoB, entity.AccountStatusApproved},
		{ngoC, entity.AccountStatusApproved},
		{ngoPending, entity.AccountStatusPending},
		{volunteer, entity.AccountStatusApproved},
		{volunteer2, entity.AccountStatusApproved},
	} {
		users[u.actor.UserID] = &entity.User{ID: u.actor.UserID, Role: u.actor.Role, AccountStatus: u.status}
	}

	l.snap = &Snapshot{
		Food: &entity.Food{
			ID:        "food-1",
			DonorID:   donor.UserID,
			Title:     "Vegetable curry",
			Quantity:  kg(10),
			Status:    entity.FoodStatusAvailable,
			ExpiresAt: l.now.Add(24 * time.Hour),
			Pickup:    entity.Location{Address: "12 Market St"},
			Version:   1,
		},
		Users: users,
	}
	return l
}

// do decides the intent and applies its writes
func (l *lot) do(intent Intent) (*Outcome, error) {
	l.t.Helper()

	out, err := l.c.Decide(context.Background(), intent, l.snap)
	if err != nil {
		return nil, err
	}
	l.apply(out.Writes)
	return out, nil
}

// must is do for steps that have to succeed
func (l *lot) must(intent Intent) *Outcome {
	l.t.Helper()

	out, err := l.do(intent)
	require.NoError(l.t, err, "%s", intent.Transition())
	return out
}

func (l *lot) apply(w WriteSet) {
	if w.Food != nil {
		f := w.Food.Clone()
		f.Version++
		l.snap.Food = f
	}
	if w.CreateRequest != nil {
		l.snap.Requests = append(l.snap.Requests, w.CreateRequest.Clone())
	}
	for _, u := range w.UpdateRequests {
		for i, r := range l.snap.Requests {
			if r.ID == u.ID {
				c := u.Clone()
				c.Version++
				l.snap.Requests[i] = c
			}
		}
	}
	if w.CreateTask != nil {
		l.snap.Tasks = append(l.snap.Tasks, w.CreateTask.Clone())
	}
	if w.UpdateTask != nil {
		for i, t := range l.snap.Tasks {
			if t.ID == w.UpdateTask.ID {
				c := w.UpdateTask.Clone()
				c.Version++
				l.snap.Tasks[i] = c
			}
		}
	}
	l.sent = append(l.sent, w.Notifications...)
}

func (l *lot) request(id string) *entity.Request {
	for _, r := range l.snap.Requests {
		if r.ID == id {
			return r
		}
	}
	l.t.Fatalf("request %s not in snapshot", id)
	return nil
}

func (l *lot) task(id string) *entity.Task {
	for _, t := range l.snap.Tasks {
		if t.ID == id {
			return t
		}
	}
	l.t.Fatalf("task %s not in snapshot", id)
	return nil
}

func (l *lot) phase() Phase {
	l.t.Helper()

	p, err := l.snap.Phase()
	require.NoError(l.t, err)
	return p
}

// sentTo returns the categories notified to a user, in order
func (l *lot) sentTo(userID string) []entity.Category {
	var out []entity.Category
	for _, n := range l.sent {
		if n.UserID == userID {
			out = append(out, n.Category)
		}
	}
	return out
}

// approvedAndAssigned drives the lot to the Assigned phase with ngo-a winning
func (l *lot) approvedAndAssigned() (requestID, taskID string) {
	l.t.Helper()

	r := l.must(SubmitRequest{Actor: ngoA, FoodID: "food-1", Quantity: kg(5)}).Request
	l.must(ApproveRequest{Actor: admin, RequestID: r.ID})
	task := l.must(AssignVolunteer{Actor: admin, RequestID: r.ID, VolunteerID: volunteer.UserID}).Task
	return r.ID, task.ID
}
