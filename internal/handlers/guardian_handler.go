package handlers

import (
	"net/http"
	"strconv"

	"classbridge/config"
	"classbridge/internal/middleware"
	"classbridge/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// GuardianInput binds guardian create/update from the principal panel.
type GuardianInput struct {
	Login    string `json:"login" binding:"required"`
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Status   string `json:"status"`
}

// GuardianStudentInput binds link creation.
type GuardianStudentInput struct {
	GuardianID   uint   `json:"guardianId" binding:"required"`
	StudentID    uint   `json:"studentId" binding:"required"`
	Relationship string `json:"relationship"`
}

// ListGuardiansHandler returns guardian accounts, paginated unless
// ?all=true.
func ListGuardiansHandler(c *gin.Context) {
	var users []models.User
	query := usersWithRole(models.RoleGuardian).Order("users.full_name asc")

	if c.Query("all") == "true" {
		if err := query.Find(&users).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch guardians"})
			return
		}
		responseData := make([]StaffResponse, 0, len(users))
		for _, user := range users {
			responseData = append(responseData, toStaffResponse(user))
		}
		c.JSON(http.StatusOK, gin.H{"data": responseData})
		return
	}

	var totalRows int64
	usersWithRole(models.RoleGuardian).Count(&totalRows)

	if err := query.Scopes(Paginate(c)).Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch guardians"})
		return
	}

	responseData := make([]StaffResponse, 0, len(users))
	for _, user := range users {
		responseData = append(responseData, toStaffResponse(user))
	}
	c.JSON(http.StatusOK, CreatePaginatedResponse(c, responseData, totalRows))
}

// GetGuardianHandler returns one guardian with linked students.
func GetGuardianHandler(c *gin.Context) {
	id := c.Param("id")

	var user models.User
	if err := config.DB.Preload("Roles").First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Guardian not found"})
		return
	}
	if !user.HasRole(models.RoleGuardian) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Guardian not found"})
		return
	}

	var links []models.GuardianStudent
	config.DB.Preload("Student.Class.Section").Where("guardian_id = ?", user.ID).Find(&links)

	c.JSON(http.StatusOK, gin.H{
		"guardian": toStaffResponse(user),
		"students": links,
	})
}

// CreateGuardianHandler creates a guardian account.
func CreateGuardianHandler(c *gin.Context) {
	var input GuardianInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	var count int64
	config.DB.Model(&models.User{}).Where("login = ?", input.Login).Count(&count)
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Login is already taken"})
		return
	}

	password := input.Password
	if password == "" {
		// Accounts created without a password get a random one; the
		// guardian resets it on first login.
		password = randomPassword()
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	status := input.Status
	if status == "" {
		status = "active"
	}

	user := models.User{
		Login:    input.Login,
		FullName: input.FullName,
		Email:    input.Email,
		Phone:    input.Phone,
		Password: string(hashed),
		Status:   status,
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		var guardianRole models.Role
		if err := tx.Where(models.Role{Name: models.RoleGuardian}).FirstOrCreate(&guardianRole).Error; err != nil {
			return err
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Model(&user).Association("Roles").Append(&guardianRole)
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create guardian: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Guardian created successfully", "id": user.ID})
}

// UpdateGuardianHandler updates a guardian account.
func UpdateGuardianHandler(c *gin.Context) {
	id := c.Param("id")

	var user models.User
	if err := config.DB.Preload("Roles").First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Guardian not found"})
		return
	}
	if !user.HasRole(models.RoleGuardian) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Guardian not found"})
		return
	}

	var input GuardianInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	user.FullName = input.FullName
	user.Email = input.Email
	user.Phone = input.Phone
	if input.Status != "" {
		user.Status = input.Status
	}
	if input.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}
		user.Password = string(hashed)
	}

	if err := config.DB.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update guardian: " + err.Error()})
		return
	}

	middleware.InvalidateUserCache(user.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Guardian updated successfully"})
}

// DeleteGuardianHandler soft-deletes a guardian and removes student links.
func DeleteGuardianHandler(c *gin.Context) {
	id := c.Param("id")

	var user models.User
	if err := config.DB.Preload("Roles").First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Guardian not found"})
		return
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("guardian_id = ?", user.ID).Delete(&models.GuardianStudent{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete guardian: " + err.Error()})
		return
	}

	middleware.InvalidateUserCache(user.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Guardian deleted successfully"})
}

// ListGuardianStudentsHandler lists links, filtered by ?guardianId= or
// ?studentId=.
func ListGuardianStudentsHandler(c *gin.Context) {
	query := config.DB.Preload("Guardian").Preload("Student.Class.Section").Model(&models.GuardianStudent{})

	if guardianIDStr := c.Query("guardianId"); guardianIDStr != "" {
		if guardianID, err := strconv.Atoi(guardianIDStr); err == nil {
			query = query.Where("guardian_id = ?", guardianID)
		}
	}
	if studentIDStr := c.Query("studentId"); studentIDStr != "" {
		if studentID, err := strconv.Atoi(studentIDStr); err == nil {
			query = query.Where("student_id = ?", studentID)
		}
	}

	var links []models.GuardianStudent
	if err := query.Order("id asc").Find(&links).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch guardian-student links"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": links})
}

// CreateGuardianStudentHandler links a guardian to a student.
func CreateGuardianStudentHandler(c *gin.Context) {
	var input GuardianStudentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	var guardian models.User
	if err := config.DB.Preload("Roles").First(&guardian, input.GuardianID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Guardian not found"})
		return
	}
	if !guardian.HasRole(models.RoleGuardian) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User does not hold the guardian role"})
		return
	}

	var student models.Student
	if err := config.DB.First(&student, input.StudentID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
		return
	}

	var existing int64
	config.DB.Model(&models.GuardianStudent{}).
		Where("guardian_id = ? AND student_id = ?", input.GuardianID, input.StudentID).
		Count(&existing)
	if existing > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Guardian is already linked to this student"})
		return
	}

	link := models.GuardianStudent{
		GuardianID:   input.GuardianID,
		StudentID:    input.StudentID,
		Relationship: input.Relationship,
	}
	if err := config.DB.Create(&link).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create link: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Guardian linked to student", "id": link.ID})
}

// DeleteGuardianStudentHandler removes a link by id.
func DeleteGuardianStudentHandler(c *gin.Context) {
	id := c.Param("id")

	result := config.DB.Delete(&models.GuardianStudent{}, id)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete link: " + result.Error.Error()})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Link removed"})
}
