package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents an operator account's role.
type Role string

const (
	// RoleAdmin manages quorum configuration, roster and bills.
	RoleAdmin Role = "admin"
	// RoleOperator drives sessions: attendance, agenda, open/close votes.
	RoleOperator Role = "operator"
	// RoleMember is a parliamentarian account, allowed to cast its own ballots.
	RoleMember Role = "member"
)

// User is an authenticated account. Member accounts link to a roster seat.
type User struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	Password  string     `json:"-"`
	FullName  string     `json:"full_name"`
	Role      Role       `json:"role"`
	MemberID  *uuid.UUID `json:"member_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// UserPublic is User without sensitive fields for API responses.
type UserPublic struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	FullName  string     `json:"full_name"`
	Role      Role       `json:"role"`
	MemberID  *uuid.UUID `json:"member_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		MemberID:  u.MemberID,
		CreatedAt: u.CreatedAt,
	}
}
