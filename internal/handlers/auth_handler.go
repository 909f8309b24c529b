package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"classbridge/config"
	"classbridge/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// randomPassword returns a throwaway password for accounts created by a
// principal without an explicit one.
func randomPassword() string { return uuid.New().String() }

const tokenLifetime = 24 * time.Hour

// LoginInput binds the login form/JSON body.
type LoginInput struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterInput binds self-registration. New accounts get the guardian
// role; staff accounts are created by a principal via staff management.
type RegisterInput struct {
	Login    string `json:"login" binding:"required"`
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Phone    string `json:"phone"`
}

func issueToken(c *gin.Context, userID uint) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(tokenLifetime).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(config.JwtKey)
	if err != nil {
		return "", err
	}
	c.SetCookie("auth_token", signed, int(tokenLifetime.Seconds()), "/", "", false, true)
	return signed, nil
}

// LoginHandler verifies credentials and issues a JWT in the auth_token
// cookie (and in the body, for clients that prefer bearer headers).
func LoginHandler(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	var user models.User
	if err := config.DB.Preload("Roles").Where("login = ?", input.Login).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid login or password"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid login or password"})
		return
	}

	if user.Status != "" && user.Status != "active" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is not active"})
		return
	}

	signed, err := issueToken(c, user.ID)
	if err != nil {
		slog.Error("Failed to sign auth token", "error", err, "user_id", user.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	var roleNames []string
	for _, r := range user.Roles {
		roleNames = append(roleNames, r.Name)
	}

	c.JSON(http.StatusOK, gin.H{
		"token": signed,
		"user": gin.H{
			"id":       user.ID,
			"login":    user.Login,
			"fullName": user.FullName,
			"roles":    roleNames,
		},
	})
}

// RegisterHandler creates a guardian account.
func RegisterHandler(c *gin.Context) {
	var input RegisterInput
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

	user := models.User{
		Login:    input.Login,
		FullName: input.FullName,
		Email:    input.Email,
		Phone:    input.Phone,
		Password: string(hashed),
		Status:   "active",
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
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Account created successfully", "id": user.ID})
}

// LogoutHandler clears the auth cookie.
func LogoutHandler(c *gin.Context) {
	c.SetCookie("auth_token", "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}
