package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"classbridge/config"
	"classbridge/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CombinedEvent is the wire shape for every calendar entry the dashboards
// render, both editable events and generated all-day entries.
type CombinedEvent struct {
	ID          string    `json:"id"`
	GroupID     string    `json:"groupId,omitempty"`
	Title       string    `json:"title"`
	Start       time.Time `json:"start,omitempty"`
	End         time.Time `json:"end,omitempty"`
	AllDay      bool      `json:"allDay"`
	Editable    bool      `json:"editable"`
	Color       string    `json:"color,omitempty"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
}

// EventRequest binds event create/update bodies.
type EventRequest struct {
	Title          string    `json:"title" binding:"required"`
	Description    string    `json:"description"`
	StartTime      time.Time `json:"start_time" binding:"required"`
	EndTime        time.Time `json:"end_time" binding:"required"`
	Color          string    `json:"color"`
	Location       string    `json:"location"`
	ParticipantIDs []uint    `json:"participant_ids"`
}

// ParticipantStatusRequest binds an invitation response.
type ParticipantStatusRequest struct {
	Status string `json:"status" binding:"required"` // "accepted" or "declined"
}

// GetEvents returns the combined feed for the current user: own and
// accepted invited events plus student birthdays for staff.
func GetEvents(c *gin.Context) {
	currentUserID := c.GetUint("user_id")
	if currentUserID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	allEvents := make([]CombinedEvent, 0)

	personalEvents, err := fetchUserEvents(currentUserID)
	if err != nil {
		slog.Error("Failed to fetch user events", "error", err, "user_id", currentUserID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch events"})
		return
	}
	allEvents = append(allEvents, personalEvents...)

	if hasRoleName(c, models.RoleTeacher) || hasRoleName(c, models.RolePrincipal) {
		birthdayEvents, err := fetchStudentBirthdays(c, currentUserID)
		if err != nil {
			slog.Error("Failed to fetch birthdays", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch birthdays"})
			return
		}
		allEvents = append(allEvents, birthdayEvents...)
	}

	c.JSON(http.StatusOK, allEvents)
}

// CreateEvent creates an event; the creator joins as accepted, invited
// participants as pending.
func CreateEvent(c *gin.Context) {
	currentUserID := c.GetUint("user_id")

	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if req.EndTime.Before(req.StartTime) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Event cannot end before it starts"})
		return
	}

	var event models.Event
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		event = models.Event{
			Title:       req.Title,
			Description: req.Description,
			StartTime:   req.StartTime,
			EndTime:     req.EndTime,
			OwnerID:     currentUserID,
			Color:       req.Color,
			Location:    req.Location,
		}
		if err := tx.Create(&event).Error; err != nil {
			return err
		}

		for _, pID := range uniqueUint(append(req.ParticipantIDs, currentUserID)) {
			status := models.ParticipantPending
			if pID == currentUserID {
				status = models.ParticipantAccepted
			}
			participant := models.EventParticipant{EventID: event.ID, UserID: pID, Status: status}
			if err := tx.Create(&participant).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		slog.Error("Event create transaction failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create event: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Event created successfully", "id": event.ID})
}

// UpdateEvent updates an event; owner only. Invitations for removed
// participants are dropped, new ones start pending again.
func UpdateEvent(c *gin.Context) {
	currentUserID := c.GetUint("user_id")
	eventID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event ID"})
		return
	}

	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if req.EndTime.Before(req.StartTime) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Event cannot end before it starts"})
		return
	}

	var event models.Event
	if err := config.DB.First(&event, eventID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	if event.OwnerID != currentUserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not the owner of this event"})
		return
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		// Map form so cleared fields are written too.
		result := tx.Model(&event).Updates(map[string]interface{}{
			"title":       req.Title,
			"description": req.Description,
			"start_time":  req.StartTime,
			"end_time":    req.EndTime,
			"color":       req.Color,
			"location":    req.Location,
		})
		if result.Error != nil {
			return result.Error
		}

		if err := tx.Where("event_id = ? AND user_id != ?", eventID, currentUserID).Delete(&models.EventParticipant{}).Error; err != nil {
			return err
		}

		for _, pID := range uniqueUint(req.ParticipantIDs) {
			if pID == currentUserID {
				continue
			}
			participant := models.EventParticipant{EventID: event.ID, UserID: pID, Status: models.ParticipantPending}
			if err := tx.Create(&participant).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		slog.Error("Event update transaction failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update event"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Event updated successfully"})
}

// DeleteEvent removes an event; owner only.
func DeleteEvent(c *gin.Context) {
	currentUserID := c.GetUint("user_id")
	eventID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event ID"})
		return
	}

	var event models.Event
	if err := config.DB.First(&event, eventID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	if event.OwnerID != currentUserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not the owner of this event"})
		return
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", eventID).Delete(&models.EventParticipant{}).Error; err != nil {
			return err
		}
		return tx.Delete(&event).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete event"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Event deleted successfully"})
}

// UpdateParticipantStatus lets an invited user accept or decline.
func UpdateParticipantStatus(c *gin.Context) {
	currentUserID := c.GetUint("user_id")
	eventID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event ID"})
		return
	}

	var req ParticipantStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if req.Status != models.ParticipantAccepted && req.Status != models.ParticipantDeclined {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status must be accepted or declined"})
		return
	}

	result := config.DB.Model(&models.EventParticipant{}).
		Where("event_id = ? AND user_id = ?", eventID, currentUserID).
		Update("status", req.Status)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update status"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invitation not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Status updated successfully"})
}

// fetchUserEvents loads events the user owns or accepted an invitation
// to, plus pending invitations so the dashboard can prompt for them.
func fetchUserEvents(userID uint) ([]CombinedEvent, error) {
	var events []models.Event
	err := config.DB.
		Joins("JOIN event_participants ep ON ep.event_id = events.id").
		Where("ep.user_id = ? AND ep.status != ?", userID, models.ParticipantDeclined).
		Order("events.start_time").
		Find(&events).Error
	if err != nil {
		return nil, err
	}

	combined := make([]CombinedEvent, 0, len(events))
	for _, e := range events {
		combined = append(combined, CombinedEvent{
			ID:          "event_" + strconv.Itoa(int(e.ID)),
			Title:       e.Title,
			Start:       e.StartTime,
			End:         e.EndTime,
			AllDay:      false,
			Editable:    e.OwnerID == userID,
			Color:       e.Color,
			Description: e.Description,
			Location:    e.Location,
		})
	}
	return combined, nil
}

// fetchStudentBirthdays builds read-only all-day entries for this year's
// student birthdays. Teachers see only students of their classes;
// principals see everyone.
func fetchStudentBirthdays(c *gin.Context, userID uint) ([]CombinedEvent, error) {
	query := config.DB.Preload("Class.Section").
		Where("birth_date IS NOT NULL")

	if !hasRoleName(c, models.RolePrincipal) {
		var classIDs []uint
		config.DB.Model(&models.ClassAssignment{}).Where("user_id = ?", userID).Pluck("class_id", &classIDs)
		if len(classIDs) == 0 {
			return []CombinedEvent{}, nil
		}
		query = query.Where("class_id IN ?", classIDs)
	}

	var students []models.Student
	if err := query.Find(&students).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	birthdayEvents := make([]CombinedEvent, 0, len(students))
	for _, student := range students {
		if student.BirthDate == nil {
			continue
		}
		birthDate := time.Date(now.Year(), student.BirthDate.Month(), student.BirthDate.Day(), 0, 0, 0, 0, time.UTC)
		class := ""
		if student.Class != nil {
			class = strconv.Itoa(student.Class.GradeNumber)
			if student.Class.Section != nil {
				class += student.Class.Section.Name
			}
		}
		title := fmt.Sprintf("Birthday: %s %s", student.FirstName, student.LastName)
		if class != "" {
			title += " (" + class + ")"
		}
		birthdayEvents = append(birthdayEvents, CombinedEvent{
			ID:       "birthday_student_" + strconv.Itoa(int(student.ID)),
			GroupID:  "birthdays",
			Title:    title,
			Start:    birthDate,
			AllDay:   true,
			Editable: false,
			Color:    "#3498db",
		})
	}
	return birthdayEvents, nil
}

// uniqueUint removes duplicates from a slice of ids.
func uniqueUint(slice []uint) []uint {
	seen := make(map[uint]bool, len(slice))
	var list []uint
	for _, entry := range slice {
		if !seen[entry] {
			seen[entry] = true
			list = append(list, entry)
		}
	}
	return list
}
