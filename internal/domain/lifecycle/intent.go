package lifecycle

import "github.com/foodlink/donation-coordinator/internal/domain/entity"

// Transition names one coordinator operation
type Transition string

const (
	TransitionSubmitRequest     Transition = "submit_request"
	TransitionApproveRequest    Transition = "approve_request"
	TransitionRejectRequest     Transition = "reject_request"
	TransitionAssignVolunteer   Transition = "assign_volunteer"
	TransitionAcceptTask        Transition = "accept_task"
	TransitionMarkPickedUp      Transition = "mark_picked_up"
	TransitionMarkReachedNGO    Transition = "mark_reached_ngo"
	TransitionConfirmCompletion Transition = "confirm_completion"
	TransitionExpireFood        Transition = "expire_food"
	TransitionCancelDelivery    Transition = "cancel_delivery"
	TransitionWithdrawListing   Transition = "withdraw_listing"
)

func (t Transition) String() string {
	return string(t)
}

// Actor is the pre-authenticated caller of an intent
type Actor struct {
	UserID string
	Role   entity.Role
}

// SystemActor is used for transitions the coordinator initiates itself
var SystemActor = Actor{UserID: "system", Role: entity.RoleSystem}

// Target identifies the entity an intent is addressed to
type Target struct {
	Entity string
	ID     string
}

// Intent is a request to perform one transition. The set of intents is closed.
type Intent interface {
	Transition() Transition
	Target() Target
	Initiator() Actor
	validate() error
}

// SubmitRequest asks for a food lot on behalf of an NGO
type SubmitRequest struct {
	Actor    Actor
	FoodID   string
	Quantity entity.Quantity
}

// ApproveRequest selects the winning request for a lot
type ApproveRequest struct {
	Actor     Actor
	RequestID string
}

// RejectRequest declines a pending request. An empty Reason records a generic admin rejection.
type RejectRequest struct {
	Actor     Actor
	RequestID string
	Reason    string
}

// AssignVolunteer creates the delivery task for an approved request
type AssignVolunteer struct {
	Actor       Actor
	RequestID   string
	VolunteerID string
}

// AcceptTask is sent by the assigned volunteer
type AcceptTask struct {
	Actor  Actor
	TaskID string
}

// MarkPickedUp is sent by the assigned volunteer once the food has been collected
type MarkPickedUp struct {
	Actor  Actor
	TaskID string
}

// MarkReachedNGO is sent by the assigned volunteer on arrival
type MarkReachedNGO struct {
	Actor  Actor
	TaskID string
}

// ConfirmCompletion is sent by the requesting NGO after receipt
type ConfirmCompletion struct {
	Actor    Actor
	TaskID   string
	Rating   *int
	Feedback string
}

// ExpireFood marks a lot whose expiry has passed
type ExpireFood struct {
	Actor  Actor
	FoodID string
}

// CancelDelivery aborts an approved request and its task
type CancelDelivery struct {
	Actor     Actor
	RequestID string
	Reason    string
}

// WithdrawListing takes a lot off the market before it is approved
type WithdrawListing struct {
	Actor  Actor
	FoodID string
}

func (SubmitRequest) Transition() Transition     { return TransitionSubmitRequest }
func (ApproveRequest) Transition() Transition    { return TransitionApproveRequest }
func (RejectRequest) Transition() Transition     { return TransitionRejectRequest }
func (AssignVolunteer) Transition() Transition   { return TransitionAssignVolunteer }
func (AcceptTask) Transition() Transition        { return TransitionAcceptTask }
func (MarkPickedUp) Transition() Transition      { return TransitionMarkPickedUp }
func (MarkReachedNGO) Transition() Transition    { return TransitionMarkReachedNGO }
func (ConfirmCompletion) Transition() Transition { return TransitionConfirmCompletion }
func (ExpireFood) Transition() Transition        { return TransitionExpireFood }
func (CancelDelivery) Transition() Transition    { return TransitionCancelDelivery }
func (WithdrawListing) Transition() Transition   { return TransitionWithdrawListing }

func (i SubmitRequest) Target() Target     { return Target{EntityFood, i.FoodID} }
func (i ApproveRequest) Target() Target    { return Target{EntityRequest, i.RequestID} }
func (i RejectRequest) Target() Target     { return Target{EntityRequest, i.RequestID} }
func (i AssignVolunteer) Target() Target   { return Target{EntityRequest, i.RequestID} }
func (i AcceptTask) Target() Target        { return Target{EntityTask, i.TaskID} }
func (i MarkPickedUp) Target() Target      { return Target{EntityTask, i.TaskID} }
func (i MarkReachedNGO) Target() Target    { return Target{EntityTask, i.TaskID} }
func (i ConfirmCompletion) Target() Target { return Target{EntityTask, i.TaskID} }
func (i ExpireFood) Target() Target        { return Target{EntityFood, i.FoodID} }
func (i CancelDelivery) Target() Target    { return Target{EntityRequest, i.RequestID} }
func (i WithdrawListing) Target() Target   { return Target{EntityFood, i.FoodID} }

func (i SubmitRequest) Initiator() Actor     { return i.Actor }
func (i ApproveRequest) Initiator() Actor    { return i.Actor }
func (i RejectRequest) Initiator() Actor     { return i.Actor }
func (i AssignVolunteer) Initiator() Actor   { return i.Actor }
func (i AcceptTask) Initiator() Actor        { return i.Actor }
func (i MarkPickedUp) Initiator() Actor      { return i.Actor }
func (i MarkReachedNGO) Initiator() Actor    { return i.Actor }
func (i ConfirmCompletion) Initiator() Actor { return i.Actor }
func (i ExpireFood) Initiator() Actor        { return i.Actor }
func (i CancelDelivery) Initiator() Actor    { return i.Actor }
func (i WithdrawListing) Initiator() Actor   { return i.Actor }

func (i SubmitRequest) validate() error {
	if i.Quantity.Amount <= 0 {
		return invalid(i, "quantity must be positive")
	}
	return nil
}

func (i ApproveRequest) validate() error  { return nil }
func (i RejectRequest) validate() error   { return nil }
func (i AcceptTask) validate() error      { return nil }
func (i MarkPickedUp) validate() error    { return nil }
func (i MarkReachedNGO) validate() error  { return nil }
func (i ExpireFood) validate() error      { return nil }
func (i CancelDelivery) validate() error  { return nil }
func (i WithdrawListing) validate() error { return nil }

func (i AssignVolunteer) validate() error {
	if i.VolunteerID == "" {
		return invalid(i, "volunteer id is required")
	}
	return nil
}

// Ratings run from 1 to 5
const (
	MinRating = 1
	MaxRating = 5
)

func (i ConfirmCompletion) validate() error {
	if i.Rating != nil && (*i.Rating < MinRating || *i.Rating > MaxRating) {
		return invalid(i, "rating must be between %d and %d", MinRating, MaxRating)
	}
	return nil
}

func invalid(i Intent, format string, args ...any) error {
	target := i.Target()
	return NewError(ErrInvalidIntent, i.Transition(), target.Entity, target.ID, format, args...)
}
