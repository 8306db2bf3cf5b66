package security

import "time"

const (
	RoleMember    = "member"
	RoleOrganizer = "organizer"
	RoleAdmin     = "admin"
)

type TokenClaims struct {
	MemberID int64
	Role     string
	Ver      int64
	Exp      time.Time
	Issuer   string
	Subject  string
}

// CanOrganize reports whether the role may create events and edit the catalog.
func (c TokenClaims) CanOrganize() bool {
	return c.Role == RoleAdmin || c.Role == RoleOrganizer
}
