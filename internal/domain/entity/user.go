package entity

import "time"

// Role identifies which portal an actor belongs to
type Role string

const (
	RoleDonor     Role = "donor"
	RoleNGO       Role = "ngo"
	RoleVolunteer Role = "volunteer"
	RoleAdmin     Role = "admin"
	// RoleSystem is used for transitions nobody initiates directly, such as expiry
	RoleSystem Role = "system"
)

// IsValid returns true for the four portal roles and the system role
func (r Role) IsValid() bool {
	switch r {
	case RoleDonor, RoleNGO, RoleVolunteer, RoleAdmin, RoleSystem:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

// AccountStatus constants
const (
	AccountStatusPending   = "pending"
	AccountStatusApproved  = "approved"
	AccountStatusSuspended = "suspended"
)

// User is a registered actor. Contact fields are optional delivery targets
// for notification channels.
type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email,omitempty"`
	Role           Role      `json:"role"`
	AccountStatus  string    `json:"account_status"`
	LarkOpenID     string    `json:"lark_open_id,omitempty"`
	TelegramChatID int64     `json:"telegram_chat_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// IsApproved returns true if the account has been vetted by an admin
func (u *User) IsApproved() bool {
	return u != nil && u.AccountStatus == AccountStatusApproved
}
