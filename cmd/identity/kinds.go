package identity

// UserID is a database-assigned user identifier.
type UserID = int32

// Role is the account-level role enum (user_role on the relational side).
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleRegular Role = "regular"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleRegular
}
