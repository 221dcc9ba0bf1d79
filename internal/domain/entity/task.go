package entity

import "time"

// Task is the volunteer delivery assignment bound to exactly one approved Request.
// Each transition records its own timestamp.
type Task struct {
	ID          string     `json:"id"`
	RequestID   string     `json:"request_id"`
	VolunteerID string     `json:"volunteer_id"`
	Status      TaskStatus `json:"status"`

	AssignedAt   time.Time  `json:"assigned_at"`
	AcceptedAt   *time.Time `json:"accepted_at,omitempty"`
	PickedUpAt   *time.Time `json:"picked_up_at,omitempty"`
	ReachedNGOAt *time.Time `json:"reached_ngo_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsLive returns true while the task is still moving towards delivery
func (t *Task) IsLive() bool {
	return t != nil && !t.Status.IsTerminal()
}

// Stamp records the transition time for the given status
func (t *Task) Stamp(status TaskStatus, at time.Time) {
	ts := at
	switch status {
	case TaskStatusAssigned:
		t.AssignedAt = at
	case TaskStatusAccepted:
		t.AcceptedAt = &ts
	case TaskStatusPickedUp:
		t.PickedUpAt = &ts
	case TaskStatusReachedNGO:
		t.ReachedNGOAt = &ts
	case TaskStatusCompleted:
		t.CompletedAt = &ts
	case TaskStatusCancelled:
		t.CancelledAt = &ts
	}
}

// Clone returns a copy safe to mutate
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	c.AcceptedAt = cloneTime(t.AcceptedAt)
	c.PickedUpAt = cloneTime(t.PickedUpAt)
	c.ReachedNGOAt = cloneTime(t.ReachedNGOAt)
	c.CompletedAt = cloneTime(t.CompletedAt)
	c.CancelledAt = cloneTime(t.CancelledAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
