package entity

import "time"

// Rejection reasons recorded on requests. Only the coordinator writes them;
// free text from an admin goes to RejectionNote.
const (
	RejectReasonAdmin           = "rejected_by_admin"
	RejectReasonSiblingApproved = "another_request_approved"
	RejectReasonExpired         = "expired"
	RejectReasonWithdrawn       = "withdrawn"
	RejectReasonCancelled       = "cancelled"
)

// Request is one NGO's ask for (part of) a food lot
type Request struct {
	ID              string        `json:"id"`
	FoodID          string        `json:"food_id"`
	NGOID           string        `json:"ngo_id"`
	Quantity        Quantity      `json:"quantity"`
	Status          RequestStatus `json:"status"`
	RejectionReason string        `json:"rejection_reason,omitempty"`
	RejectionNote   string        `json:"rejection_note,omitempty"`
	Rating          *int          `json:"rating,omitempty"`
	Feedback        string        `json:"feedback,omitempty"`
	Version         int64         `json:"version"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// Clone returns a copy safe to mutate
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	c := *r
	if r.Rating != nil {
		rating := *r.Rating
		c.Rating = &rating
	}
	return &c
}
