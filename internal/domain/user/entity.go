package user

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Role represents user role in the system
type Role string

const (
	RoleCitizen   Role = "citizen"
	RoleAuthority Role = "authority"
	RoleAdmin     Role = "admin"
)

// User represents an account that signs in with an email or a phone number
type User struct {
	ID        uuid.UUID      `db:"id"`
	Email     sql.NullString `db:"email"`
	Phone     sql.NullString `db:"phone"`
	Role      Role           `db:"role"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

// IsAuthority returns true if user may change report status
func (u *User) IsAuthority() bool {
	return u.Role == RoleAuthority || u.Role == RoleAdmin
}

// ContactEmail returns the user's email, or "" for phone-only accounts
func (u *User) ContactEmail() string {
	if u.Email.Valid {
		return u.Email.String
	}
	return ""
}

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	switch r {
	case RoleCitizen, RoleAuthority, RoleAdmin:
		return true
	}
	return false
}
