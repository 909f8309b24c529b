package models

import "time"

// Class is a school section/group, e.g. grade 7 section "B".
type Class struct {
	ID          uint              `json:"id" gorm:"primaryKey"`
	GradeNumber int               `json:"grade_number" gorm:"not null"`
	SectionID   uint              `json:"-" gorm:"not null"`
	Section     *ClassSection     `json:"-" gorm:"foreignKey:SectionID"`
	Language    string            `json:"language" gorm:"size:50"`
	StudyType   string            `json:"study_type" gorm:"size:50"`
	Assignments []ClassAssignment `json:"assignments"`
}

// ClassSection interns section letters ("A", "B", ...) so classes of
// different grades can share them.
type ClassSection struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"size:3;unique;not null"`
}

// ClassAssignment links a teacher to a class with a role in that class
// (homeroom, subject teacher, assistant).
type ClassAssignment struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	ClassID     uint      `json:"classId" gorm:"not null;uniqueIndex:idx_class_teacher,priority:1"`
	UserID      uint      `json:"teacherId" gorm:"not null;uniqueIndex:idx_class_teacher,priority:2"`
	RoleInClass string    `json:"roleInClass" gorm:"size:100;not null"`
	CreatedAt   time.Time `json:"createdAt"`

	User User `json:"teacher" gorm:"foreignKey:UserID"`
}

// ClassResponse is the list-item shape for the classes page.
type ClassResponse struct {
	ID           uint     `json:"id"`
	GradeNumber  int      `json:"grade_number"`
	Section      string   `json:"section"`
	StudentCount int      `json:"student_count"`
	Language     string   `json:"language"`
	StudyType    string   `json:"study_type"`
	Teachers     []string `json:"teachers"`
}

// ClassInput binds the JSON body for class create/update.
type ClassInput struct {
	GradeNumber int    `json:"grade_number" binding:"required,min=0,max=12"`
	Section     string `json:"section" binding:"required"`
	Language    string `json:"language"`
	StudyType   string `json:"study_type"`
	Assignments []struct {
		TeacherID   uint   `json:"teacherId" binding:"required"`
		RoleInClass string `json:"roleInClass" binding:"required"`
	} `json:"assignments"`
}
