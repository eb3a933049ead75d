package model

import "time"

type UserRole string

const (
	UserRoleHost     UserRole = "host"
	UserRoleBusiness UserRole = "business"
	UserRoleGuest    UserRole = "guest"
)

// User is an account in the wider platform. This core only reads it to
// resolve display data; account management lives elsewhere.
type User struct {
	ID        string    `db:"id"`
	Username  string    `db:"username"`
	Email     string    `db:"email"`
	Role      UserRole  `db:"role"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
