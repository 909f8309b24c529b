package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"classbridge/config"
	"classbridge/models"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// StudentListItem is the trimmed row shape for the students table.
type StudentListItem struct {
	ID         uint   `json:"ID"`
	LastName   string `json:"lastName"`
	FirstName  string `json:"firstName"`
	Grade      string `json:"grade"`
	Section    string `json:"section"`
	IsEnrolled bool   `json:"isEnrolled"`
	PhotoURL   string `json:"photoUrl"`
}

// StudentInput binds student create/update bodies.
type StudentInput struct {
	LastName     string     `json:"lastName" binding:"required"`
	FirstName    string     `json:"firstName" binding:"required"`
	MiddleName   string     `json:"middleName"`
	Gender       string     `json:"gender"`
	BirthDate    *time.Time `json:"birthDate"`
	StudentPhone string     `json:"studentPhone"`
	Email        string     `json:"email"`
	ClassID      *uint      `json:"classId"`
	IsEnrolled   *bool      `json:"isEnrolled"`
	StartDate    *time.Time `json:"startDate"`
	EndDate      *time.Time `json:"endDate"`
	HomeAddress  string     `json:"homeAddress"`
	MedicalInfo  string     `json:"medicalInfo"`
	Comments     string     `json:"comments"`
	PhotoURL     string     `json:"photoUrl"`
}

func studentListQuery(c *gin.Context) *gorm.DB {
	query := config.DB.Model(&models.Student{}).Preload("Class.Section")

	if search := c.Query("search"); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(last_name) LIKE ? OR LOWER(first_name) LIKE ?",
			pattern, pattern,
		)
	}

	if classIDStr := c.Query("classId"); classIDStr != "" {
		if classID, err := strconv.Atoi(classIDStr); err == nil {
			query = query.Where("class_id = ?", classID)
		}
	}

	return query
}

func toStudentListItem(s models.Student) StudentListItem {
	item := StudentListItem{
		ID:         s.ID,
		LastName:   s.LastName,
		FirstName:  s.FirstName,
		IsEnrolled: s.IsEnrolled == nil || *s.IsEnrolled,
		PhotoURL:   s.PhotoURL,
	}
	if s.Class != nil {
		item.Grade = strconv.Itoa(s.Class.GradeNumber)
		if s.Class.Section != nil {
			item.Section = s.Class.Section.Name
		}
	}
	return item
}

// ListStudentsHandler returns students with optional ?search= and
// ?classId= filters. Paginated unless ?all=true.
func ListStudentsHandler(c *gin.Context) {
	var dbStudents []models.Student

	if c.Query("all") == "true" {
		if err := studentListQuery(c).Order("last_name, first_name").Find(&dbStudents).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch students"})
			return
		}
		items := make([]StudentListItem, 0, len(dbStudents))
		for _, s := range dbStudents {
			items = append(items, toStudentListItem(s))
		}
		c.JSON(http.StatusOK, gin.H{"data": items})
		return
	}

	var totalRows int64
	if err := studentListQuery(c).Count(&totalRows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not count students"})
		return
	}

	if err := studentListQuery(c).Scopes(Paginate(c)).Order("last_name, first_name").Find(&dbStudents).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch students"})
		return
	}

	items := make([]StudentListItem, 0, len(dbStudents))
	for _, s := range dbStudents {
		items = append(items, toStudentListItem(s))
	}
	c.JSON(http.StatusOK, CreatePaginatedResponse(c, items, totalRows))
}

// GetStudentHandler returns one student with class and guardian links.
func GetStudentHandler(c *gin.Context) {
	id := c.Param("id")

	var student models.Student
	err := config.DB.
		Preload("Class.Section").
		Preload("GuardianLinks.Guardian").
		First(&student, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch student"})
		return
	}

	c.JSON(http.StatusOK, student)
}

// CreateStudentHandler enrolls a new student.
func CreateStudentHandler(c *gin.Context) {
	var input StudentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	if input.ClassID != nil {
		var class models.Class
		if err := config.DB.First(&class, *input.ClassID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Class not found"})
			return
		}
	}

	student := models.Student{
		LastName:     input.LastName,
		FirstName:    input.FirstName,
		MiddleName:   input.MiddleName,
		Gender:       input.Gender,
		BirthDate:    input.BirthDate,
		StudentPhone: input.StudentPhone,
		Email:        input.Email,
		ClassID:      input.ClassID,
		IsEnrolled:   input.IsEnrolled,
		StartDate:    input.StartDate,
		EndDate:      input.EndDate,
		HomeAddress:  input.HomeAddress,
		MedicalInfo:  input.MedicalInfo,
		Comments:     input.Comments,
		PhotoURL:     input.PhotoURL,
	}
	if err := config.DB.Create(&student).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create student: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Student created successfully", "id": student.ID})
}

// UpdateStudentHandler updates an existing student.
func UpdateStudentHandler(c *gin.Context) {
	id := c.Param("id")

	var student models.Student
	if err := config.DB.First(&student, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
		return
	}

	var input StudentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	if input.ClassID != nil {
		var class models.Class
		if err := config.DB.First(&class, *input.ClassID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Class not found"})
			return
		}
	}

	student.LastName = input.LastName
	student.FirstName = input.FirstName
	student.MiddleName = input.MiddleName
	student.Gender = input.Gender
	student.BirthDate = input.BirthDate
	student.StudentPhone = input.StudentPhone
	student.Email = input.Email
	student.ClassID = input.ClassID
	student.IsEnrolled = input.IsEnrolled
	student.StartDate = input.StartDate
	student.EndDate = input.EndDate
	student.HomeAddress = input.HomeAddress
	student.MedicalInfo = input.MedicalInfo
	student.Comments = input.Comments
	if input.PhotoURL != "" {
		student.PhotoURL = input.PhotoURL
	}

	if err := config.DB.Save(&student).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update student: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Student updated successfully"})
}

// DeleteStudentHandler soft-deletes a student and drops guardian links.
func DeleteStudentHandler(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("student_id = ?", id).Delete(&models.GuardianStudent{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Student{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete student: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Student deleted successfully"})
}

// ExportStudentsHandler writes the (optionally class-filtered) roster as
// an xlsx attachment.
func ExportStudentsHandler(c *gin.Context) {
	var students []models.Student
	if err := studentListQuery(c).Order("last_name, first_name").Find(&students).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch data for export"})
		return
	}

	f := excelize.NewFile()
	sheetName := "Students"
	index, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"#", "Full name", "Class", "Gender", "Birth date", "Phone", "Email", "Enrolled"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	for i, s := range students {
		row := i + 2
		class := ""
		if s.Class != nil {
			class = strconv.Itoa(s.Class.GradeNumber)
			if s.Class.Section != nil {
				class += s.Class.Section.Name
			}
		}
		enrolled := "yes"
		if s.IsEnrolled != nil && !*s.IsEnrolled {
			enrolled = "no"
		}
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), i+1)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), s.FullName())
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), class)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), s.Gender)
		if s.BirthDate != nil {
			f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), s.BirthDate.Format("02.01.2006"))
		}
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), s.StudentPhone)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), s.Email)
		f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), enrolled)
	}

	fileName := fmt.Sprintf("students_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	if err := f.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file"})
	}
}
