package handlers

import (
	"net/http"
	"time"

	"classbridge/config"
	"classbridge/internal/middleware"
	"classbridge/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// StaffResponse is the user shape sent for staff-management pages. It
// never includes the password hash.
type StaffResponse struct {
	ID        uint      `json:"id"`
	Login     string    `json:"login"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	Phone     string    `json:"phone"`
	Status    string    `json:"status"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"createdAt"`
	PhotoURL  string    `json:"photoUrl"`
}

// CreateStaffInput binds staff account creation from the principal panel.
type CreateStaffInput struct {
	Login    string `json:"login" binding:"required"`
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Phone    string `json:"phone"`
	Status   string `json:"status"`
	RoleIDs  []uint `json:"roleIds" binding:"required,min=1"`
}

// UpdateStaffInput binds staff account updates.
type UpdateStaffInput struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Status   string `json:"status"`
	RoleIDs  []uint `json:"roleIds"`
	Password string `json:"password"`
}

func toStaffResponse(user models.User) StaffResponse {
	var roleNames []string
	for _, role := range user.Roles {
		roleNames = append(roleNames, role.Name)
	}
	photoURL := user.PhotoURL
	if photoURL == "" {
		photoURL = "/static/placeholder.png"
	}
	return StaffResponse{
		ID:        user.ID,
		Login:     user.Login,
		Email:     user.Email,
		FullName:  user.FullName,
		Phone:     user.Phone,
		Status:    user.Status,
		Roles:     roleNames,
		CreatedAt: user.CreatedAt,
		PhotoURL:  photoURL,
	}
}

// usersWithRole queries users holding any of the named roles.
func usersWithRole(roleNames ...string) *gorm.DB {
	return config.DB.Model(&models.User{}).Preload("Roles").
		Joins("JOIN user_roles ON user_roles.user_id = users.id").
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("roles.name IN ?", roleNames).
		Group("users.id")
}

// ListStaffHandler returns teacher/staff accounts (everyone who is not
// only a guardian), paginated unless ?all=true.
func ListStaffHandler(c *gin.Context) {
	var users []models.User
	query := usersWithRole(models.RoleTeacher, models.RolePrincipal).Order("users.id asc")

	if c.Query("all") == "true" {
		if err := query.Find(&users).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch staff"})
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
	usersWithRole(models.RoleTeacher, models.RolePrincipal).Count(&totalRows)

	if err := query.Scopes(Paginate(c)).Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch staff"})
		return
	}

	responseData := make([]StaffResponse, 0, len(users))
	for _, user := range users {
		responseData = append(responseData, toStaffResponse(user))
	}
	c.JSON(http.StatusOK, CreatePaginatedResponse(c, responseData, totalRows))
}

// ListPrincipalsHandler returns all principal accounts.
func ListPrincipalsHandler(c *gin.Context) {
	var users []models.User
	if err := usersWithRole(models.RolePrincipal).Order("users.full_name asc").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch principals"})
		return
	}

	responseData := make([]StaffResponse, 0, len(users))
	for _, user := range users {
		responseData = append(responseData, toStaffResponse(user))
	}
	c.JSON(http.StatusOK, gin.H{"data": responseData})
}

// GetStaffHandler returns one staff account.
func GetStaffHandler(c *gin.Context) {
	id := c.Param("id")
	var user models.User
	if err := config.DB.Preload("Roles").First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, toStaffResponse(user))
}

// CreateStaffHandler creates a staff account with roles.
func CreateStaffHandler(c *gin.Context) {
	var input CreateStaffInput
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

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
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
		var roles []models.Role
		if err := tx.Where("id IN ?", input.RoleIDs).Find(&roles).Error; err != nil {
			return err
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Model(&user).Association("Roles").Replace(roles)
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create staff account: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Staff account created successfully", "id": user.ID})
}

// UpdateStaffHandler updates profile fields, roles and optionally the
// password of a staff account.
func UpdateStaffHandler(c *gin.Context) {
	id := c.Param("id")

	var user models.User
	if err := config.DB.Preload("Roles").First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var input UpdateStaffInput
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

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&user).Error; err != nil {
			return err
		}
		if input.RoleIDs != nil {
			var roles []models.Role
			if err := tx.Where("id IN ?", input.RoleIDs).Find(&roles).Error; err != nil {
				return err
			}
			if err := tx.Model(&user).Association("Roles").Replace(roles); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update staff account: " + err.Error()})
		return
	}

	middleware.InvalidateUserCache(user.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Staff account updated successfully"})
}

// DeleteStaffHandler soft-deletes a staff account. Class assignments are
// removed so rosters stop showing the teacher.
func DeleteStaffHandler(c *gin.Context) {
	id := c.Param("id")

	var user models.User
	if err := config.DB.First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.ClassAssignment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete staff account: " + err.Error()})
		return
	}

	middleware.InvalidateUserCache(user.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Staff account deleted successfully"})
}
