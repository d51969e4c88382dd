package model

import (
	"fmt"
	"time"
)

// Role is the closed set of account roles.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

// ParseRole maps a form value onto a Role. An empty value means patient.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return RolePatient, nil
	}
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// User represents a system user
type User struct {
	Base
	Username     string     `json:"username" db:"username"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Role         Role       `json:"role" db:"role"`
	Contact      string     `json:"contact" db:"contact"`
	Address      string     `json:"address" db:"address"`
	City         string     `json:"city" db:"city"`
	DOB          *time.Time `json:"dob,omitempty" db:"dob"`
}

func (u *User) IsAdmin() bool  { return u != nil && u.Role == RoleAdmin }
func (u *User) IsDoctor() bool { return u != nil && u.Role == RoleDoctor }

// DOBString formats the date of birth as YYYY-MM-DD, or "" when unset.
func (u *User) DOBString() string {
	if u == nil || u.DOB == nil {
		return ""
	}
	return u.DOB.Format("2006-01-02")
}

// ProfileUpdate carries the user-editable profile fields.
type ProfileUpdate struct {
	Address string
	City    string
	DOB     *time.Time
}
