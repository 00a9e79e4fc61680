package models

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin    UserRole = "ADMIN"
	RoleLecturer UserRole = "LECTURER"
	RoleStudent  UserRole = "STUDENT"
)

// DisplayName returns the label shown on the login screen.
func (r UserRole) DisplayName() string {
	switch r {
	case RoleAdmin:
		return "Student Record Administrator"
	case RoleLecturer:
		return "Lecturer"
	case RoleStudent:
		return "Student"
	default:
		return string(r)
	}
}

// Valid reports whether the role is known.
func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleLecturer || r == RoleStudent
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
