package models

import "time"

// GuardianStudent links a guardian account to a student. One guardian can
// be linked to several students and vice versa; the (guardian, student)
// pair is unique.
type GuardianStudent struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	GuardianID   uint      `json:"guardianId" gorm:"not null;uniqueIndex:idx_guardian_student,priority:1"`
	StudentID    uint      `json:"studentId" gorm:"not null;uniqueIndex:idx_guardian_student,priority:2"`
	Relationship string    `json:"relationship" gorm:"size:50"`
	CreatedAt    time.Time `json:"createdAt"`

	Guardian User    `json:"guardian,omitempty" gorm:"foreignKey:GuardianID"`
	Student  Student `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}
