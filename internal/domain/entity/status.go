package entity

// FoodStatus is the lifecycle status of a donated food lot
type FoodStatus string

const (
	FoodStatusAvailable  FoodStatus = "available"
	FoodStatusRequested  FoodStatus = "requested"
	FoodStatusApproved   FoodStatus = "approved"
	FoodStatusPickedUp   FoodStatus = "picked_up"
	FoodStatusReachedNGO FoodStatus = "reached_ngo"
	FoodStatusCompleted  FoodStatus = "completed"
	FoodStatusCancelled  FoodStatus = "cancelled"
	FoodStatusExpired    FoodStatus = "expired"
)

var validFoodStatuses = map[FoodStatus]bool{
	FoodStatusAvailable:  true,
	FoodStatusRequested:  true,
	FoodStatusApproved:   true,
	FoodStatusPickedUp:   true,
	FoodStatusReachedNGO: true,
	FoodStatusCompleted:  true,
	FoodStatusCancelled:  true,
	FoodStatusExpired:    true,
}

var terminalFoodStatuses = map[FoodStatus]bool{
	FoodStatusCompleted: true,
	FoodStatusCancelled: true,
	FoodStatusExpired:   true,
}

// IsValid returns true if the status is a known food status
func (s FoodStatus) IsValid() bool {
	return validFoodStatuses[s]
}

// IsTerminal returns true if no further transitions are allowed
func (s FoodStatus) IsTerminal() bool {
	return terminalFoodStatuses[s]
}

// IsRequestable returns true if NGOs may still submit requests for the lot
func (s FoodStatus) IsRequestable() bool {
	return s == FoodStatusAvailable || s == FoodStatusRequested
}

func (s FoodStatus) String() string {
	return string(s)
}

// RequestStatus is the status of an NGO request
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusApproved  RequestStatus = "approved"
	RequestStatusRejected  RequestStatus = "rejected"
	RequestStatusCompleted RequestStatus = "completed"
)

var validRequestStatuses = map[RequestStatus]bool{
	RequestStatusPending:   true,
	RequestStatusApproved:  true,
	RequestStatusRejected:  true,
	RequestStatusCompleted: true,
}

// IsValid returns true if the status is a known request status
func (s RequestStatus) IsValid() bool {
	return validRequestStatuses[s]
}

// IsTerminal returns true for rejected and completed requests
func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusRejected || s == RequestStatusCompleted
}

// IsActive returns true while the request still competes for or holds the lot
func (s RequestStatus) IsActive() bool {
	return s == RequestStatusPending || s == RequestStatusApproved
}

// IsWinning returns true for the request that was approved for its lot
func (s RequestStatus) IsWinning() bool {
	return s == RequestStatusApproved || s == RequestStatusCompleted
}

func (s RequestStatus) String() string {
	return string(s)
}

// TaskStatus is the status of a volunteer delivery task
type TaskStatus string

const (
	TaskStatusAssigned   TaskStatus = "assigned"
	TaskStatusAccepted   TaskStatus = "accepted"
	TaskStatusPickedUp   TaskStatus = "picked_up"
	TaskStatusReachedNGO TaskStatus = "reached_ngo"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// taskProgression is the only order in which a task may advance
var taskProgression = []TaskStatus{
	TaskStatusAssigned,
	TaskStatusAccepted,
	TaskStatusPickedUp,
	TaskStatusReachedNGO,
	TaskStatusCompleted,
}

// IsValid returns true if the status is a known task status
func (s TaskStatus) IsValid() bool {
	return s == TaskStatusCancelled || s.Step() >= 0
}

// IsTerminal returns true for completed and cancelled tasks
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusCancelled
}

// Step returns the position of the status in the delivery progression,
// or -1 for cancelled and unknown statuses
func (s TaskStatus) Step() int {
	for i, st := range taskProgression {
		if st == s {
			return i
		}
	}
	return -1
}

// Previous returns the status that must directly precede s
func (s TaskStatus) Previous() (TaskStatus, bool) {
	step := s.Step()
	if step <= 0 {
		return "", false
	}
	return taskProgression[step-1], true
}

func (s TaskStatus) String() string {
	return string(s)
}

// TaskProgression returns a copy of the ordered delivery statuses
func TaskProgression() []TaskStatus {
	return append([]TaskStatus(nil), taskProgression...)
}
