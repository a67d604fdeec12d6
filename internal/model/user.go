package model

// Portal roles, mirrored from the front-desk deployment.
const (
	RoleAdmin        = "ADMIN"
	RolePR           = "PR"
	RoleMedicalAdmin = "MEDICAL_ADMIN"
	RoleViewOnly     = "VIEW_ONLY"
)

type User struct {
	Base
	Username     string `db:"username" json:"username"`
	Name         string `db:"name" json:"name"`
	PasswordHash string `db:"password_hash" json:"-"`
	Role         string `db:"role" json:"role"`
	Active       bool   `db:"active" json:"active"`
}

// TokenClaims is what a validated access token carries.
type TokenClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}
