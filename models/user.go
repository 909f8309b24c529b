package models

import (
	"time"

	"gorm.io/gorm"
)

// Role names known to the system. "principal" passes every role check.
const (
	RolePrincipal = "principal"
	RoleTeacher   = "teacher"
	RoleGuardian  = "guardian"
)

// User is any account in the system: principals, teachers, other staff
// and guardians all live in the same table and differ by role.
type User struct {
	gorm.Model
	Login     string     `json:"login" gorm:"unique;not null"`
	Password  string     `json:"-"`
	FullName  string     `json:"fullName" gorm:"not null"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Status    string     `json:"status" gorm:"size:20;default:'active'"`
	PhotoURL  string     `json:"photoUrl"`
	BirthDate *time.Time `json:"birthDate"`
	Roles     []Role     `json:"roles" gorm:"many2many:user_roles;"`
}

// Role groups users into principal / teacher / guardian.
type Role struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"unique;not null"`
	Description string `json:"description"`
}

// HasRole reports whether the user holds the named role.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// UserSummary is the trimmed user shape embedded in thread lists, event
// participant lists and the recipient directory. It never carries the
// password hash.
type UserSummary struct {
	ID       uint   `json:"ID"`
	FullName string `json:"fullName"`
	PhotoURL string `json:"photoUrl"`
	Role     string `json:"role,omitempty"`
}
