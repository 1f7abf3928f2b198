package entity

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	BaseSimple
	Username     string   `db:"username"`
	PasswordHash string   `db:"password_hash"`
	Role         UserRole `db:"role"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
