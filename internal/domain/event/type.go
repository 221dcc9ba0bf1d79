package event

// Type identifies the type of domain event
type Type string

const (
	TypeRequestSubmitted  Type = "request.submitted"
	TypeRequestApproved   Type = "request.approved"
	TypeRequestRejected   Type = "request.rejected"
	TypeTaskAssigned      Type = "task.assigned"
	TypeTaskAccepted      Type = "task.accepted"
	TypeTaskPickedUp      Type = "task.picked_up"
	TypeTaskReachedNGO    Type = "task.reached_ngo"
	TypeDonationCompleted Type = "donation.completed"
	TypeFoodExpired       Type = "food.expired"
	TypeDeliveryCancelled Type = "delivery.cancelled"
	TypeListingWithdrawn  Type = "listing.withdrawn"

	// TypeNotificationsQueued is published whenever a commit added outbox rows
	TypeNotificationsQueued Type = "notifications.queued"
)

var validTypes = map[Type]bool{
	TypeRequestSubmitted:    true,
	TypeRequestApproved:     true,
	TypeRequestRejected:     true,
	TypeTaskAssigned:        true,
	TypeTaskAccepted:        true,
	TypeTaskPickedUp:        true,
	TypeTaskReachedNGO:      true,
	TypeDonationCompleted:   true,
	TypeFoodExpired:         true,
	TypeDeliveryCancelled:   true,
	TypeListingWithdrawn:    true,
	TypeNotificationsQueued: true,
}

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	return validTypes[t]
}

// Types returns every defined event type
func Types() []Type {
	types := make([]Type, 0, len(validTypes))
	for t := range validTypes {
		types = append(types, t)
	}
	return types
}
