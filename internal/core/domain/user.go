package domain

const (
	RoleAdmin      = "ADMIN"
	RoleSuperAdmin = "SUPER_ADMIN"
	RoleUser       = "USER"
)

// User is the profile the backend returns for a principal. Fields mirror the
// backend's GraphQL selection so responses can be relayed as-is.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Role      string `json:"role"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}
