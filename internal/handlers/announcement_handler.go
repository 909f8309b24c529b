package handlers

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"classbridge/config"
	"classbridge/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const announcementUploadDir = "./static/uploads/announcements"

func hasRoleName(c *gin.Context, name string) bool {
	rolesVal, _ := c.Get("roles")
	roles, _ := rolesVal.([]string)
	for _, r := range roles {
		if r == name {
			return true
		}
	}
	return false
}

// announcementFeedScope limits the feed to the audiences the current
// user may read. Principals and authors of everything see all posts.
func announcementFeedScope(c *gin.Context) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if hasRoleName(c, models.RolePrincipal) {
			return db
		}
		audiences := []string{models.AudienceAll}
		if hasRoleName(c, models.RoleTeacher) {
			audiences = append(audiences, models.AudienceTeachers)
		}
		if hasRoleName(c, models.RoleGuardian) {
			audiences = append(audiences, models.AudienceGuardians)
		}
		return db.Where("audience IN ?", audiences)
	}
}

// ListAnnouncementsHandler returns the feed visible to the current user,
// newest first.
func ListAnnouncementsHandler(c *gin.Context) {
	var posts []models.Announcement

	err := config.DB.
		Preload("Author").
		Preload("PollOptions.Votes").
		Preload("Files").
		Scopes(announcementFeedScope(c)).
		Order("created_at desc").
		Find(&posts).Error
	if err != nil {
		slog.Error("Failed to fetch announcements", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch announcements"})
		return
	}

	if posts == nil {
		posts = make([]models.Announcement, 0)
	}

	c.JSON(http.StatusOK, posts)
}

// CreateAnnouncementHandler creates a message or poll post with up to 10
// attachments, from a multipart form.
func CreateAnnouncementHandler(c *gin.Context) {
	userID, _ := c.Get("user_id")

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid form data: " + err.Error()})
		return
	}

	formValue := func(key string) string {
		if vals := form.Value[key]; len(vals) > 0 {
			return vals[0]
		}
		return ""
	}

	post := models.Announcement{
		AuthorID: userID.(uint),
		Title:    formValue("title"),
		Content:  formValue("content"),
		Type:     formValue("type"),
		Audience: formValue("audience"),
	}
	if post.Type == "" {
		post.Type = "message"
	}
	if post.Audience == "" {
		post.Audience = models.AudienceAll
	}
	switch post.Audience {
	case models.AudienceAll, models.AudienceTeachers, models.AudienceGuardians:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown audience"})
		return
	}

	if post.Type == "poll" {
		post.PollQuestion = formValue("poll_question")
		options := form.Value["options[]"]
		if len(options) < 2 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "A poll must have at least two options"})
			return
		}
		for _, optText := range options {
			post.PollOptions = append(post.PollOptions, models.PollOption{Text: optText})
		}
	}

	files := form.File["files"]
	if len(files) > 10 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You can upload a maximum of 10 files"})
		return
	}

	for _, file := range files {
		fileURL, err := saveUploadedFile(c, file, announcementUploadDir)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		post.Files = append(post.Files, models.AnnouncementFile{
			FileURL:  fileURL,
			FileType: fileTypeForExt(filepath.Ext(file.Filename)),
		})
	}

	if err := config.DB.Create(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create announcement: " + err.Error()})
		return
	}

	config.DB.Preload("Author").Preload("PollOptions.Votes").Preload("Files").First(&post, post.ID)
	c.JSON(http.StatusCreated, post)
}

// UpdateAnnouncementHandler lets the author edit title and content.
func UpdateAnnouncementHandler(c *gin.Context) {
	postID := c.Param("id")
	userID, _ := c.Get("user_id")

	var post models.Announcement
	if err := config.DB.First(&post, postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Announcement not found"})
		return
	}

	if post.AuthorID != userID.(uint) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not allowed to edit this announcement"})
		return
	}

	var input struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	post.Title = input.Title
	post.Content = input.Content
	if err := config.DB.Save(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update announcement"})
		return
	}

	config.DB.Preload("Author").Preload("PollOptions.Votes").Preload("Files").First(&post, post.ID)
	c.JSON(http.StatusOK, post)
}

// DeleteAnnouncementHandler removes a post. Allowed for the author and
// for principals; attachment files are removed from disk as well.
func DeleteAnnouncementHandler(c *gin.Context) {
	postID := c.Param("id")
	userID, _ := c.Get("user_id")

	var post models.Announcement
	if err := config.DB.Preload("Files").First(&post, postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Announcement not found"})
		return
	}

	if post.AuthorID != userID.(uint) && !hasRoleName(c, models.RolePrincipal) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not allowed to delete this announcement"})
		return
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		// Options, votes and file rows follow the post via OnDelete:CASCADE.
		if err := tx.Delete(&post).Error; err != nil {
			return err
		}

		for _, file := range post.Files {
			fullPath := filepath.Join(".", strings.TrimPrefix(filepath.FromSlash(file.FileURL), "/"))
			if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
				slog.Warn("Could not delete announcement file from disk", "path", fullPath, "error", err)
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete announcement: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Announcement deleted successfully"})
}

// VoteInPollHandler records one vote per user per poll.
func VoteInPollHandler(c *gin.Context) {
	userID, _ := c.Get("user_id")
	postID := c.Param("id")
	optionID, _ := strconv.Atoi(c.Param("optionId"))

	var option models.PollOption
	if err := config.DB.Where("id = ? AND announcement_id = ?", optionID, postID).First(&option).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Poll option not found"})
		return
	}

	var existingVote models.PollVote
	err := config.DB.
		Joins("JOIN poll_options ON poll_options.id = poll_votes.poll_option_id").
		Where("poll_options.announcement_id = ? AND poll_votes.user_id = ?", postID, userID).
		First(&existingVote).Error
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "You have already voted in this poll"})
		return
	}
	if err != gorm.ErrRecordNotFound {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error while checking vote"})
		return
	}

	vote := models.PollVote{
		PollOptionID: uint(optionID),
		UserID:       userID.(uint),
	}
	if err := config.DB.Create(&vote).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cast vote"})
		return
	}

	var updatedPost models.Announcement
	config.DB.Preload("Author").Preload("PollOptions.Votes").Preload("Files").First(&updatedPost, postID)
	c.JSON(http.StatusOK, updatedPost)
}
