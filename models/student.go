package models

import (
	"time"

	"gorm.io/gorm"
)

// Student is an enrolled (or formerly enrolled) pupil. Deletion is soft
// so class rosters and message history stay consistent.
type Student struct {
	gorm.Model
	PhotoURL string `json:"photoUrl"`
	ClassID  *uint  `json:"classId"`

	IsEnrolled   *bool      `json:"isEnrolled" gorm:"default:true"`
	LastName     string     `json:"lastName" gorm:"not null"`
	FirstName    string     `json:"firstName" gorm:"not null"`
	MiddleName   string     `json:"middleName"`
	Gender       string     `json:"gender"`
	BirthDate    *time.Time `json:"birthDate"`
	StudentPhone string     `json:"studentPhone"`
	Email        string     `json:"email"`
	StartDate    *time.Time `json:"startDate"`
	EndDate      *time.Time `json:"endDate"`
	HomeAddress  string     `json:"homeAddress"`
	MedicalInfo  string     `json:"medicalInfo"`
	Comments     string     `json:"comments"`

	Class         *Class            `json:"class,omitempty" gorm:"foreignKey:ClassID"`
	GuardianLinks []GuardianStudent `json:"guardianLinks,omitempty" gorm:"foreignKey:StudentID"`
}

// FullName joins the name parts the way lists and exports display them.
func (s *Student) FullName() string {
	name := s.LastName + " " + s.FirstName
	if s.MiddleName != "" {
		name += " " + s.MiddleName
	}
	return name
}
