package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"classbridge/config"
	"classbridge/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ListClassesHandler returns the classes list with per-class student
// counts and teacher names. Paginated unless ?all=true.
func ListClassesHandler(c *gin.Context) {
	var dbClasses []models.Class
	query := config.DB.Preload("Section").Preload("Assignments.User").
		Joins("LEFT JOIN class_sections ON class_sections.id = classes.section_id").
		Order("classes.grade_number, class_sections.name")

	all := c.Query("all") == "true"
	if !all {
		query = query.Scopes(Paginate(c))
	}
	if err := query.Find(&dbClasses).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch classes: " + err.Error()})
		return
	}

	// One grouped query for all student counts instead of a count per row.
	type classCount struct {
		ClassID uint
		Count   int
	}
	var counts []classCount
	config.DB.Model(&models.Student{}).
		Select("class_id as class_id, count(*) as count").
		Where("class_id IS NOT NULL").
		Group("class_id").
		Scan(&counts)
	countByClass := make(map[uint]int, len(counts))
	for _, cc := range counts {
		countByClass[cc.ClassID] = cc.Count
	}

	classes := make([]models.ClassResponse, 0, len(dbClasses))
	for _, cl := range dbClasses {
		section := "?"
		if cl.Section != nil {
			section = cl.Section.Name
		}
		var teachers []string
		for _, a := range cl.Assignments {
			teachers = append(teachers, a.User.FullName)
		}
		classes = append(classes, models.ClassResponse{
			ID:           cl.ID,
			GradeNumber:  cl.GradeNumber,
			Section:      section,
			StudentCount: countByClass[cl.ID],
			Language:     cl.Language,
			StudyType:    cl.StudyType,
			Teachers:     teachers,
		})
	}

	if all {
		c.JSON(http.StatusOK, classes)
		return
	}

	var totalRows int64
	config.DB.Model(&models.Class{}).Count(&totalRows)
	c.JSON(http.StatusOK, CreatePaginatedResponse(c, classes, totalRows))
}

// CreateClassHandler creates a class with its teacher assignments.
func CreateClassHandler(c *gin.Context) {
	var input models.ClassInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	var newClass models.Class
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		var section models.ClassSection
		if err := tx.Where(models.ClassSection{Name: input.Section}).FirstOrCreate(&section).Error; err != nil {
			return err
		}

		newClass = models.Class{
			GradeNumber: input.GradeNumber,
			SectionID:   section.ID,
			Language:    input.Language,
			StudyType:   input.StudyType,
		}
		if err := tx.Create(&newClass).Error; err != nil {
			return err
		}

		for _, a := range input.Assignments {
			assignment := models.ClassAssignment{
				ClassID:     newClass.ID,
				UserID:      a.TeacherID,
				RoleInClass: a.RoleInClass,
			}
			if err := tx.Create(&assignment).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create class: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Class created successfully", "id": newClass.ID})
}

// GetClassHandler returns one class with its assignments.
func GetClassHandler(c *gin.Context) {
	id := c.Param("id")

	var class models.Class
	if err := config.DB.Preload("Section").Preload("Assignments.User").First(&class, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Class not found"})
		return
	}

	section := ""
	if class.Section != nil {
		section = class.Section.Name
	}

	c.JSON(http.StatusOK, gin.H{
		"id":           class.ID,
		"grade_number": class.GradeNumber,
		"section":      section,
		"language":     class.Language,
		"study_type":   class.StudyType,
		"assignments":  class.Assignments,
	})
}

// UpdateClassHandler replaces class fields and assignments.
func UpdateClassHandler(c *gin.Context) {
	id := c.Param("id")
	var input models.ClassInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		var class models.Class
		if err := tx.First(&class, id).Error; err != nil {
			return fmt.Errorf("class %s not found", id)
		}

		var section models.ClassSection
		if err := tx.Where(models.ClassSection{Name: input.Section}).FirstOrCreate(&section).Error; err != nil {
			return err
		}

		updateData := models.Class{
			GradeNumber: input.GradeNumber,
			SectionID:   section.ID,
			Language:    input.Language,
			StudyType:   input.StudyType,
		}
		if err := tx.Model(&class).Updates(updateData).Error; err != nil {
			return err
		}

		if err := tx.Where("class_id = ?", id).Delete(&models.ClassAssignment{}).Error; err != nil {
			return err
		}
		for _, a := range input.Assignments {
			assignment := models.ClassAssignment{
				ClassID:     class.ID,
				UserID:      a.TeacherID,
				RoleInClass: a.RoleInClass,
			}
			if err := tx.Create(&assignment).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update class: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Class updated successfully"})
}

// DeleteClassHandler removes a class. Refused while students are still
// enrolled in it.
func DeleteClassHandler(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return
	}

	var studentCount int64
	config.DB.Model(&models.Student{}).Where("class_id = ?", id).Count(&studentCount)
	if studentCount > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("Cannot delete class: %d students are enrolled in it", studentCount)})
		return
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("class_id = ?", id).Delete(&models.ClassAssignment{}).Error; err != nil {
			return err
		}
		if result := tx.Delete(&models.Class{}, id); result.Error != nil {
			return result.Error
		} else if result.RowsAffected == 0 {
			return fmt.Errorf("class not found")
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete class: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Class deleted successfully"})
}
