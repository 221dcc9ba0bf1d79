package entity

import "time"

// Quantity is a unit-tagged amount, e.g. 10 kg
type Quantity struct {
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

// Location is the pickup point of a food lot
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

// Food represents one donor-listed lot of surplus food.
// Quantity is fixed at creation and never decremented.
type Food struct {
	ID          string     `json:"id"`
	DonorID     string     `json:"donor_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Quantity    Quantity   `json:"quantity"`
	Status      FoodStatus `json:"status"`
	ExpiresAt   time.Time  `json:"expires_at"`
	Pickup      Location   `json:"pickup"`
	Version     int64      `json:"version"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsExpired reports whether the lot is still open to requests but its expiry has passed.
// A zero ExpiresAt never expires.
func (f *Food) IsExpired(now time.Time) bool {
	if f.ExpiresAt.IsZero() || !f.Status.IsRequestable() {
		return false
	}
	return !now.Before(f.ExpiresAt)
}

// Clone returns a copy safe to mutate
func (f *Food) Clone() *Food {
	if f == nil {
		return nil
	}
	c := *f
	return &c
}
