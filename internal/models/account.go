package models

import "time"

// Balance bounds shared by every ledger mutation.
const (
	MinBalance int64 = 0
	MaxBalance int64 = 1_000_000_000
	MaxDelta   int64 = 1_000_000_000
)

// MaxUsernameLength is the longest accepted username.
const MaxUsernameLength = 10

// Role distinguishes customers from the single administrator.
type Role int

const (
	RoleCustomer      Role = 0
	RoleAdministrator Role = 1
)

// String returns the role name shown by the shell.
func (r Role) String() string {
	switch r {
	case RoleCustomer:
		return "CUSTOMER"
	case RoleAdministrator:
		return "ADMINISTRATOR"
	default:
		return "UNKNOWN"
	}
}

// Account represents a registered user.
type Account struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"type"`
	Balance      int64     `json:"balance"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsAdministrator reports whether the account holds the administrator role.
func (a Account) IsAdministrator() bool {
	return a.Role == RoleAdministrator
}

// AccountInfo is the view returned by an info request.
type AccountInfo struct {
	Username string `json:"username"`
	Role     Role   `json:"type"`
	Balance  int64  `json:"balance"`
}
