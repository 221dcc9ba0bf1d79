package entity

import "time"

// Category groups notifications for the inbox
type Category string

const (
	CategoryRequestSubmitted  Category = "request_submitted"
	CategoryRequestReceived   Category = "request_received"
	CategoryRequestApproved   Category = "request_approved"
	CategoryRequestRejected   Category = "request_rejected"
	CategoryTaskAssigned      Category = "task_assigned"
	CategoryTaskUpdate        Category = "task_update"
	CategoryConfirmDelivery   Category = "confirm_delivery"
	CategoryDonationCompleted Category = "donation_completed"
	CategoryFoodExpired       Category = "food_expired"
	CategoryDeliveryCancelled Category = "delivery_cancelled"
	CategoryListingWithdrawn  Category = "listing_withdrawn"
)

// Delivery status constants for the notification outbox
const (
	NotificationStatusPending = "PENDING"
	NotificationStatusSent    = "SENT"
	NotificationStatusFailed  = "FAILED"
)

// Notification is an inbox entry addressed to one user.
// It doubles as an outbox row: DeliveryStatus tracks hand-off to external channels.
type Notification struct {
	ID       string   `json:"id"`
	UserID   string   `json:"user_id"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Category Category `json:"category"`

	FoodID    string `json:"food_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	TaskID    string `json:"task_id,omitempty"`

	Read   bool       `json:"read"`
	ReadAt *time.Time `json:"read_at,omitempty"`

	DeliveryStatus string     `json:"delivery_status"`
	Attempts       int        `json:"attempts"`
	LastError      string     `json:"last_error,omitempty"`
	SentAt         *time.Time `json:"sent_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
