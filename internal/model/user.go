package model

import "time"

// Role is the authorization role of an account.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleStaff    Role = "STAFF"
	RoleManager  Role = "MANAGER"
	RoleOwner    Role = "OWNER"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleStaff, RoleManager, RoleOwner:
		return true
	}
	return false
}

// IsStaff reports whether r works at the theater (staff, manager or owner).
func (r Role) IsStaff() bool {
	return r == RoleStaff || r == RoleManager || r == RoleOwner
}

// StaffRoles are the roles allowed to run the box office and schedule shows.
var StaffRoles = []Role{RoleStaff, RoleManager, RoleOwner}

// ManagementRoles are the roles allowed to see reports and provision staff.
var ManagementRoles = []Role{RoleManager, RoleOwner}

// User represents an account as stored in the `users` table.
//
// Fields:
//
//	ID           – primary key identifier, also the account id carried in tokens.
//	Email        – unique email address.
//	Name         – display name.
//	PasswordHash – bcrypt hashed password.
//	Role         – CUSTOMER, STAFF, MANAGER or OWNER.
//	IsActive     – whether the account may sign in.
type User struct {
	ID           uint64    `db:"id"`            // users.id
	Email        string    `db:"email"`         // users.email
	Name         string    `db:"name"`          // users.name
	PasswordHash string    `db:"password_hash"` // users.password_hash
	Role         Role      `db:"role"`          // users.role
	IsActive     bool      `db:"is_active"`     // users.is_active
	CreatedAt    time.Time `db:"created_at"`    // users.created_at
	UpdatedAt    time.Time `db:"updated_at"`    // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table. Only the
// SHA-256 hash of the token is stored.
type RefreshToken struct {
	ID        uint64     `db:"id"`         // refresh_tokens.id
	UserID    uint64     `db:"user_id"`    // refresh_tokens.user_id
	TokenHash string     `db:"token_hash"` // refresh_tokens.token_hash
	ExpiresAt time.Time  `db:"expires_at"` // refresh_tokens.expires_at
	RevokedAt *time.Time `db:"revoked_at"` // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  `db:"created_at"` // refresh_tokens.created_at
}
