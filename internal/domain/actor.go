package domain

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Actor is the authenticated caller of a booking operation.
type Actor struct {
	UserID string
	Email  string
	Name   string
	Role   Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

func (a Actor) Owns(b *Booking) bool {
	return b != nil && a.UserID != "" && a.UserID == b.UserID
}
