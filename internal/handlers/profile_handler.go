package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"classbridge/config"
	"classbridge/internal/middleware"
	"classbridge/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// GetProfileHandler returns the current user. Roles come from the
// request context, the rest from one narrow select.
func GetProfileHandler(c *gin.Context) {
	userIDVal, _ := c.Get("user_id")
	loginVal, _ := c.Get("login")
	rolesVal, _ := c.Get("roles")

	userID, _ := userIDVal.(uint)
	login, _ := loginVal.(string)
	roles, _ := rolesVal.([]string)

	var userDetails models.User
	if err := config.DB.Select("full_name", "email", "phone", "photo_url").First(&userDetails, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User details not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":       userID,
		"login":    login,
		"fullName": userDetails.FullName,
		"email":    userDetails.Email,
		"phone":    userDetails.Phone,
		"photoUrl": userDetails.PhotoURL,
		"roles":    roles,
	})
}

// UpdateProfileHandler updates the current user's own profile from a
// multipart form, optionally changing the password and photo.
func UpdateProfileHandler(c *gin.Context) {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authorized"})
		return
	}
	userID := userIDVal.(uint)

	var user models.User
	if err := config.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	// Only touch fields the form actually carries.
	if fullName := c.PostForm("fullName"); fullName != "" {
		user.FullName = fullName
	}
	if email := c.PostForm("email"); email != "" {
		user.Email = email
	}
	if phone := c.PostForm("phone"); phone != "" {
		user.Phone = phone
	}

	if password := c.PostForm("newPassword"); password != "" {
		oldPassword := c.PostForm("oldPassword")
		if oldPassword == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Changing the password requires the old password"})
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Old password is incorrect"})
			return
		}
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash new password"})
			return
		}
		user.Password = string(hashedPassword)
	}

	if file, _ := c.FormFile("photo"); file != nil {
		uploadDir := "./static/uploads/users"
		if err := os.MkdirAll(uploadDir, os.ModePerm); err == nil {
			ext := filepath.Ext(file.Filename)
			newFileName := fmt.Sprintf("%d_%d%s", user.ID, time.Now().Unix(), ext)
			filePath := filepath.Join(uploadDir, newFileName)
			if err := c.SaveUploadedFile(file, filePath); err == nil {
				user.PhotoURL = "/static/uploads/users/" + newFileName
			}
		}
	}

	if err := config.DB.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save profile: " + err.Error()})
		return
	}

	middleware.InvalidateUserCache(user.ID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user": gin.H{
			"photoUrl": user.PhotoURL,
			"login":    user.Login,
		},
	})
}
