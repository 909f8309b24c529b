package handlers

import (
	"net/http"

	"classbridge/config"
	"classbridge/models"

	"github.com/gin-gonic/gin"
)

// AssignTeacherInput binds the assign/remove teacher-class bodies.
type AssignTeacherInput struct {
	TeacherID   uint   `json:"teacher_id" binding:"required"`
	ClassID     uint   `json:"class_id" binding:"required"`
	RoleInClass string `json:"role_in_class"`
}

// AssignTeacherClassHandler links a teacher to a class.
func AssignTeacherClassHandler(c *gin.Context) {
	var input AssignTeacherInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	var teacher models.User
	if err := config.DB.Preload("Roles").First(&teacher, input.TeacherID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Teacher not found"})
		return
	}
	if !teacher.HasRole(models.RoleTeacher) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User does not hold the teacher role"})
		return
	}

	var class models.Class
	if err := config.DB.First(&class, input.ClassID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Class not found"})
		return
	}

	var existing int64
	config.DB.Model(&models.ClassAssignment{}).
		Where("class_id = ? AND user_id = ?", input.ClassID, input.TeacherID).
		Count(&existing)
	if existing > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Teacher is already assigned to this class"})
		return
	}

	roleInClass := input.RoleInClass
	if roleInClass == "" {
		roleInClass = "subject"
	}

	assignment := models.ClassAssignment{
		ClassID:     input.ClassID,
		UserID:      input.TeacherID,
		RoleInClass: roleInClass,
	}
	if err := config.DB.Create(&assignment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to assign teacher: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Teacher assigned to class", "id": assignment.ID})
}

// RemoveTeacherClassHandler unlinks a teacher from a class.
func RemoveTeacherClassHandler(c *gin.Context) {
	var input AssignTeacherInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	result := config.DB.
		Where("class_id = ? AND user_id = ?", input.ClassID, input.TeacherID).
		Delete(&models.ClassAssignment{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove assignment: " + result.Error.Error()})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Assignment not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Teacher removed from class"})
}
