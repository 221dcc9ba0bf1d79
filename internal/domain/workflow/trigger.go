package workflow

// Trigger represents an event that can cause a state transition
type Trigger string

const (
	TriggerSubmit    Trigger = "SUBMIT"
	TriggerApprove   Trigger = "APPROVE"
	TriggerReject    Trigger = "REJECT"
	TriggerSupersede Trigger = "SUPERSEDE"
	TriggerAccept    Trigger = "ACCEPT"
	TriggerPickUp    Trigger = "PICK_UP"
	TriggerReachNGO  Trigger = "REACH_NGO"
	TriggerConfirm   Trigger = "CONFIRM"
	TriggerExpire    Trigger = "EXPIRE"
	TriggerCancel    Trigger = "CANCEL"
	TriggerWithdraw  Trigger = "WITHDRAW"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
