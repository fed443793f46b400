package models

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// Valid reports whether r is one of the roles the service understands.
func (r UserRole) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// UserRecord is the role/profile document kept per uid in the users
// collection. It is written once, on first authentication, and never updated.
type UserRecord struct {
	UID         string   `json:"uid"`
	Email       string   `json:"email"`
	Role        UserRole `json:"role"`
	Name        string   `json:"name"`
	PhoneNumber string   `json:"phone_number"`
	Region      string   `json:"region"`
}
