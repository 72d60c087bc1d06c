package models

// Role tags a user as mentor, mentee or admin
type Role string

const (
	RoleMentor Role = "mentor"
	RoleMentee Role = "mentee"
	RoleAdmin  Role = "admin"
)

// Valid reports whether the role is one of the known tags
func (r Role) Valid() bool {
	return r == RoleMentor || r == RoleMentee || r == RoleAdmin
}

// Actor is the single authenticated identity the services see. The auth
// middleware normalizes JWT claims into this type at the boundary; nothing
// past the middleware reads raw claims.
type Actor struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}
