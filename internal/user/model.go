package user

import "time"

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

type User struct {
	ID            uint
	Email         string
	Password      string
	Role          Role
	EmailVerified bool
	CreatedAt     time.Time
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
