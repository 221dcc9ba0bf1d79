package lifecycle

import "github.com/foodlink/donation-coordinator/internal/domain/entity"

// WriteSet is the complete set of changes one transition makes. It must be
// committed atomically; updates carry the version that was read.
type WriteSet struct {
	Food           *entity.Food
	CreateRequest  *entity.Request
	UpdateRequests []*entity.Request
	CreateTask     *entity.Task
	UpdateTask     *entity.Task
	Notifications  []*entity.Notification
}

// IsEmpty returns true when there is nothing to commit
func (w *WriteSet) IsEmpty() bool {
	return w.Food == nil &&
		w.CreateRequest == nil &&
		len(w.UpdateRequests) == 0 &&
		w.CreateTask == nil &&
		w.UpdateTask == nil &&
		len(w.Notifications) == 0
}

// Outcome is the result of a decided intent
type Outcome struct {
	Transition Transition `json:"transition"`

	// AlreadyApplied is set when the intent had already taken effect; Writes is empty
	AlreadyApplied bool  `json:"already_applied"`
	Phase          Phase `json:"phase"`

	Food    *entity.Food    `json:"food"`
	Request *entity.Request `json:"request,omitempty"`
	Task    *entity.Task    `json:"task,omitempty"`

	// Superseded lists requests rejected as a side effect of this transition
	Superseded []string `json:"superseded,omitempty"`

	Writes WriteSet `json:"-"`
}
