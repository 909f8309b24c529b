package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"classbridge/config"
	"classbridge/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const messageUploadDir = "./static/uploads/messages"

var errNotThreadParticipant = errors.New("user is not a participant of the thread")

// CreateThreadInput binds thread creation.
type CreateThreadInput struct {
	Name           string `json:"name"`
	Type           string `json:"type" binding:"required"` // "personal" or "group"
	ParticipantIDs []uint `json:"participantIds" binding:"required"`
}

// SendMessageInput binds a message send, over REST or the websocket.
// ClientID is generated by the sender; a resend with the same ClientID
// returns the already-stored message.
type SendMessageInput struct {
	ThreadID uint   `json:"thread_id" binding:"required"`
	ClientID string `json:"client_id"`
	Type     string `json:"type"`
	Content  string `json:"content"`
	FileURL  string `json:"file_url"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
}

// ThreadListItem is one row in the inbox.
type ThreadListItem struct {
	ID           uint                 `json:"ID"`
	Name         string               `json:"name"`
	Type         string               `json:"type"`
	Participants []models.UserSummary `json:"participants"`
	LastMessage  string               `json:"lastMessage"`
	UpdatedAt    string               `json:"UpdatedAt"`
	UnreadCount  int64                `json:"unreadCount"`
}

func isThreadParticipant(threadID, userID uint) bool {
	var count int64
	config.DB.Model(&models.ThreadParticipant{}).
		Where("message_thread_id = ? AND user_id = ?", threadID, userID).
		Count(&count)
	return count > 0
}

// persistMessage stores one message. The ClientID unique index makes the
// operation idempotent: when a message with the same ClientID already
// exists it is returned unchanged and created is false.
func persistMessage(senderID uint, input SendMessageInput) (msg models.Message, created bool, err error) {
	if !isThreadParticipant(input.ThreadID, senderID) {
		return models.Message{}, false, errNotThreadParticipant
	}

	if input.ClientID != "" {
		var existing models.Message
		err := config.DB.Preload("User").Where("client_id = ?", input.ClientID).First(&existing).Error
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Message{}, false, err
		}
	}

	msgType := input.Type
	if msgType == "" {
		msgType = "text"
	}

	msg = models.Message{
		ThreadID: input.ThreadID,
		UserID:   senderID,
		Type:     msgType,
		Content:  input.Content,
		FileURL:  input.FileURL,
		FileName: input.FileName,
		FileSize: input.FileSize,
	}
	if input.ClientID != "" {
		msg.ClientID = &input.ClientID
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}
		// Bump the thread so the inbox sorts it to the top.
		return tx.Model(&models.MessageThread{}).
			Where("id = ?", input.ThreadID).
			Update("updated_at", time.Now()).Error
	})
	if err != nil {
		return models.Message{}, false, err
	}

	config.DB.Preload("User").First(&msg, msg.ID)
	return msg, true, nil
}

// ListThreadsHandler returns the inbox of the current user.
func ListThreadsHandler(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var threads []models.MessageThread
	config.DB.Preload("Participants").
		Joins("JOIN thread_participants tp ON tp.message_thread_id = message_threads.id").
		Where("tp.user_id = ?", userID).
		Order("message_threads.updated_at DESC").
		Find(&threads)

	response := make([]ThreadListItem, 0, len(threads))
	for _, thread := range threads {
		var lastMsg models.Message
		config.DB.Where("thread_id = ?", thread.ID).Order("created_at DESC").Limit(1).Find(&lastMsg)

		var readStatus models.MessageReadStatus
		config.DB.Where("thread_id = ? AND user_id = ?", thread.ID, userID).Limit(1).Find(&readStatus)

		var unreadCount int64
		config.DB.Model(&models.Message{}).
			Where("thread_id = ? AND id > ? AND user_id != ?", thread.ID, readStatus.LastReadMessageID, userID).
			Count(&unreadCount)

		participants := make([]models.UserSummary, 0, len(thread.Participants))
		for _, p := range thread.Participants {
			participants = append(participants, models.UserSummary{
				ID:       p.ID,
				FullName: p.FullName,
				PhotoURL: p.PhotoURL,
			})
		}

		lastMessageText := lastMsg.Content
		if lastMsg.Type == "file" || lastMsg.Type == "voice" {
			lastMessageText = lastMsg.FileName
		}

		response = append(response, ThreadListItem{
			ID:           thread.ID,
			Name:         thread.Name,
			Type:         thread.Type,
			Participants: participants,
			LastMessage:  lastMessageText,
			UpdatedAt:    thread.UpdatedAt.Format(time.RFC3339),
			UnreadCount:  unreadCount,
		})
	}

	c.JSON(http.StatusOK, response)
}

// CreateThreadHandler creates a conversation. Personal threads are
// unique per user pair: an existing one is returned instead of creating
// a duplicate.
func CreateThreadHandler(c *gin.Context) {
	var input CreateThreadInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	if input.Type != models.ThreadPersonal && input.Type != models.ThreadGroup {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Thread type must be personal or group"})
		return
	}

	userID, _ := c.Get("user_id")
	currentUserID := userID.(uint)

	participantIDs := input.ParticipantIDs
	isCurrentUserParticipant := false
	for _, id := range participantIDs {
		if id == currentUserID {
			isCurrentUserParticipant = true
			break
		}
	}
	if !isCurrentUserParticipant {
		participantIDs = append(participantIDs, currentUserID)
	}
	participantIDs = uniqueUint(participantIDs)

	if input.Type == models.ThreadPersonal {
		if len(participantIDs) != 2 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "A personal thread has exactly two distinct participants"})
			return
		}

		var existingThreadID uint
		config.DB.Raw(`
            SELECT tp1.message_thread_id
            FROM thread_participants AS tp1
            JOIN thread_participants AS tp2 ON tp1.message_thread_id = tp2.message_thread_id
            JOIN message_threads ON message_threads.id = tp1.message_thread_id
            WHERE message_threads.type = 'personal' AND tp1.user_id = ? AND tp2.user_id = ?
            LIMIT 1`, participantIDs[0], participantIDs[1]).Scan(&existingThreadID)

		if existingThreadID != 0 {
			var existingThread models.MessageThread
			config.DB.Preload("Participants").First(&existingThread, existingThreadID)
			c.JSON(http.StatusOK, gin.H{"message": "Thread already exists", "thread": existingThread})
			return
		}
	}

	thread := models.MessageThread{
		Name:        input.Name,
		Type:        input.Type,
		CreatedByID: currentUserID,
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&thread).Error; err != nil {
			return err
		}

		var participants []models.User
		if err := tx.Where("id IN ?", participantIDs).Find(&participants).Error; err != nil {
			return err
		}
		if len(participants) != len(uniqueUint(participantIDs)) {
			return errors.New("one or more participants do not exist")
		}
		return tx.Model(&thread).Association("Participants").Replace(participants)
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create thread: " + err.Error()})
		return
	}

	config.DB.Preload("Participants").First(&thread, thread.ID)
	c.JSON(http.StatusCreated, gin.H{"message": "Thread created successfully", "thread": thread})
}

// GetMessageItemsHandler returns the paginated history of a thread,
// newest first, and advances the caller's read marker.
func GetMessageItemsHandler(c *gin.Context) {
	threadID, err := strconv.Atoi(c.Query("threadId"))
	if err != nil || threadID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid thread ID"})
		return
	}
	userID, _ := c.Get("user_id")

	if !isThreadParticipant(uint(threadID), userID.(uint)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not a member of this thread"})
		return
	}

	var messages []models.Message
	err = config.DB.Preload("User").
		Where("thread_id = ?", threadID).
		Order("id DESC").
		Scopes(Paginate(c)).
		Find(&messages).Error
	if err != nil {
		slog.Error("Failed to fetch messages", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
		return
	}

	// Newest first, so the first row is the read high-water mark.
	if len(messages) > 0 {
		readStatus := models.MessageReadStatus{
			ThreadID:          uint(threadID),
			UserID:            userID.(uint),
			LastReadMessageID: messages[0].ID,
		}
		err = config.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "thread_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_read_message_id"}),
		}).Create(&readStatus).Error
		if err != nil {
			// Not critical for displaying history.
			slog.Error("Failed to update read status", "error", err)
		}
	}

	c.JSON(http.StatusOK, messages)
}

// SendMessageItemHandler stores a message and fans it out over the hub.
func SendMessageItemHandler(c *gin.Context) {
	var input SendMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	userID, _ := c.Get("user_id")

	msg, created, err := persistMessage(userID.(uint), input)
	if err != nil {
		if errors.Is(err, errNotThreadParticipant) {
			c.JSON(http.StatusForbidden, gin.H{"error": "You are not a member of this thread"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message: " + err.Error()})
		return
	}

	if created {
		GlobalHub.SendMessageToThread(msg)
		c.JSON(http.StatusCreated, msg)
		return
	}
	c.JSON(http.StatusOK, msg)
}

// ListMessageParticipantsHandler is the recipient directory, scoped by
// role:
//   - guardians see teachers of their children's classes plus principals;
//   - teachers see guardians of their classes' students plus staff;
//   - principals see everyone.
func ListMessageParticipantsHandler(c *gin.Context) {
	userID, _ := c.Get("user_id")
	currentUserID := userID.(uint)

	var users []models.User
	var err error

	switch {
	case hasRoleName(c, models.RolePrincipal):
		err = config.DB.Preload("Roles").
			Where("id != ?", currentUserID).
			Order("full_name ASC").
			Find(&users).Error

	case hasRoleName(c, models.RoleTeacher):
		users, err = recipientsForTeacher(currentUserID)

	case hasRoleName(c, models.RoleGuardian):
		users, err = recipientsForGuardian(currentUserID)

	default:
		c.JSON(http.StatusForbidden, gin.H{"error": "No messaging directory for this account"})
		return
	}

	if err != nil {
		slog.Error("Failed to build recipient directory", "error", err, "user_id", currentUserID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch recipients"})
		return
	}

	response := make([]models.UserSummary, 0, len(users))
	seen := make(map[uint]bool, len(users))
	for _, u := range users {
		if u.ID == currentUserID || seen[u.ID] {
			continue
		}
		seen[u.ID] = true
		photo := u.PhotoURL
		if photo == "" {
			photo = "/static/placeholder.png"
		}
		role := ""
		if len(u.Roles) > 0 {
			role = u.Roles[0].Name
		}
		response = append(response, models.UserSummary{
			ID:       u.ID,
			FullName: u.FullName,
			PhotoURL: photo,
			Role:     role,
		})
	}

	c.JSON(http.StatusOK, response)
}

// recipientsForGuardian: teachers assigned to the classes of the
// guardian's linked students, plus principals.
func recipientsForGuardian(guardianID uint) ([]models.User, error) {
	var classIDs []uint
	err := config.DB.Model(&models.GuardianStudent{}).
		Joins("JOIN students ON students.id = guardian_students.student_id").
		Where("guardian_students.guardian_id = ? AND students.class_id IS NOT NULL AND students.deleted_at IS NULL", guardianID).
		Distinct().
		Pluck("students.class_id", &classIDs).Error
	if err != nil {
		return nil, err
	}

	var teachers []models.User
	if len(classIDs) > 0 {
		err = config.DB.Preload("Roles").
			Joins("JOIN class_assignments ON class_assignments.user_id = users.id").
			Where("class_assignments.class_id IN ?", classIDs).
			Group("users.id").
			Order("users.full_name ASC").
			Find(&teachers).Error
		if err != nil {
			return nil, err
		}
	}

	var principals []models.User
	if err := usersWithRole(models.RolePrincipal).Order("users.full_name ASC").Find(&principals).Error; err != nil {
		return nil, err
	}

	return append(teachers, principals...), nil
}

// recipientsForTeacher: guardians of students enrolled in the teacher's
// classes, plus all staff.
func recipientsForTeacher(teacherID uint) ([]models.User, error) {
	var classIDs []uint
	err := config.DB.Model(&models.ClassAssignment{}).
		Where("user_id = ?", teacherID).
		Pluck("class_id", &classIDs).Error
	if err != nil {
		return nil, err
	}

	var guardians []models.User
	if len(classIDs) > 0 {
		err = config.DB.Preload("Roles").
			Joins("JOIN guardian_students ON guardian_students.guardian_id = users.id").
			Joins("JOIN students ON students.id = guardian_students.student_id").
			Where("students.class_id IN ? AND students.deleted_at IS NULL", classIDs).
			Group("users.id").
			Order("users.full_name ASC").
			Find(&guardians).Error
		if err != nil {
			return nil, err
		}
	}

	var staff []models.User
	if err := usersWithRole(models.RoleTeacher, models.RolePrincipal).Order("users.full_name ASC").Find(&staff).Error; err != nil {
		return nil, err
	}

	return append(guardians, staff...), nil
}

// UploadMessageFileHandler stores a chat attachment and returns its URL.
func UploadMessageFileHandler(c *gin.Context) {
	// 10 MB plus form overhead.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 10<<20+512)

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File not provided or too large"})
		return
	}

	fileURL, err := saveUploadedFile(c, file, messageUploadDir)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":  fileURL,
		"name": file.Filename,
		"size": file.Size,
	})
}
