package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"classbridge/config"
	"classbridge/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type threadEnvelope struct {
	Thread struct {
		ID   uint   `json:"ID"`
		Type string `json:"type"`
	} `json:"thread"`
}

// startThread creates a personal thread between two users and returns
// its id.
func startThread(t *testing.T, r *gin.Engine, fromID, toID uint) uint {
	t.Helper()

	rec := doJSON(t, r, http.MethodPost, "/api/messages", token(t, fromID), map[string]interface{}{
		"type":           models.ThreadPersonal,
		"participantIds": []uint{toID},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var env threadEnvelope
	decode(t, rec, &env)
	require.NotZero(t, env.Thread.ID)
	return env.Thread.ID
}

func TestPersonalThreadDeduplicated(t *testing.T) {
	r := setupTest(t)
	guardian := createUser(t, "guardian", models.RoleGuardian)
	teacher := createUser(t, "teacher", models.RoleTeacher)

	threadID := startThread(t, r, guardian.ID, teacher.ID)

	// Opening the same conversation again, even from the other side,
	// returns the existing thread.
	rec := doJSON(t, r, http.MethodPost, "/api/messages", token(t, teacher.ID), map[string]interface{}{
		"type":           models.ThreadPersonal,
		"participantIds": []uint{guardian.ID},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var env threadEnvelope
	decode(t, rec, &env)
	assert.Equal(t, threadID, env.Thread.ID)

	var count int64
	config.DB.Model(&models.MessageThread{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestCreateThreadValidation(t *testing.T) {
	r := setupTest(t)
	guardian := createUser(t, "guardian", models.RoleGuardian)
	teacher := createUser(t, "teacher", models.RoleTeacher)
	principal := createUser(t, "principal", models.RolePrincipal)

	// A personal thread has exactly two participants.
	rec := doJSON(t, r, http.MethodPost, "/api/messages", token(t, guardian.ID), map[string]interface{}{
		"type":           models.ThreadPersonal,
		"participantIds": []uint{teacher.ID, principal.ID},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown thread type.
	rec = doJSON(t, r, http.MethodPost, "/api/messages", token(t, guardian.ID), map[string]interface{}{
		"type":           "broadcast",
		"participantIds": []uint{teacher.ID},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown participant.
	rec = doJSON(t, r, http.MethodPost, "/api/messages", token(t, guardian.ID), map[string]interface{}{
		"type":           models.ThreadPersonal,
		"participantIds": []uint{9999},
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	// Group threads can hold more than two users.
	rec = doJSON(t, r, http.MethodPost, "/api/messages", token(t, principal.ID), map[string]interface{}{
		"name":           "Grade 3 staff",
		"type":           models.ThreadGroup,
		"participantIds": []uint{teacher.ID, guardian.ID},
	})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestSendMessageIdempotentByClientID(t *testing.T) {
	r := setupTest(t)
	guardian := createUser(t, "guardian", models.RoleGuardian)
	teacher := createUser(t, "teacher", models.RoleTeacher)
	threadID := startThread(t, r, guardian.ID, teacher.ID)

	body := map[string]interface{}{
		"thread_id": threadID,
		"client_id": "c0ffee-1",
		"content":   "Hello!",
	}

	rec := doJSON(t, r, http.MethodPost, "/api/message-items", token(t, guardian.ID), body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var first models.Message
	decode(t, rec, &first)
	assert.Equal(t, "Hello!", first.Content)
	assert.Equal(t, guardian.ID, first.UserID)

	// A retry with the same client id replays the stored message.
	rec = doJSON(t, r, http.MethodPost, "/api/message-items", token(t, guardian.ID), body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var second models.Message
	decode(t, rec, &second)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	config.DB.Model(&models.Message{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestSendMessagesWithoutClientID(t *testing.T) {
	r := setupTest(t)
	guardian := createUser(t, "guardian", models.RoleGuardian)
	teacher := createUser(t, "teacher", models.RoleTeacher)
	threadID := startThread(t, r, guardian.ID, teacher.ID)

	// Clients that skip the optimistic id must still be able to send
	// more than once.
	for i, content := range []string{"first", "second"} {
		rec := doJSON(t, r, http.MethodPost, "/api/message-items", token(t, guardian.ID), map[string]interface{}{
			"thread_id": threadID,
			"content":   content,
		})
		require.Equalf(t, http.StatusCreated, rec.Code, "send %d: %s", i+1, rec.Body.String())
	}

	var count int64
	config.DB.Model(&models.Message{}).Where("thread_id = ?", threadID).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestPersonalThreadRejectsSelf(t *testing.T) {
	r := setupTest(t)
	guardian := createUser(t, "guardian", models.RoleGuardian)
	teacher := createUser(t, "teacher", models.RoleTeacher)

	// An existing conversation must not be handed back for a
	// self-addressed request.
	startThread(t, r, guardian.ID, teacher.ID)

	rec := doJSON(t, r, http.MethodPost, "/api/messages", token(t, guardian.ID), map[string]interface{}{
		"type":           models.ThreadPersonal,
		"participantIds": []uint{guardian.ID, guardian.ID},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = doJSON(t, r, http.MethodPost, "/api/messages", token(t, guardian.ID), map[string]interface{}{
		"type":           models.ThreadPersonal,
		"participantIds": []uint{guardian.ID},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var count int64
	config.DB.Model(&models.MessageThread{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestMessagingRequiresParticipation(t *testing.T) {
	r := setupTest(t)
	guardian := createUser(t, "guardian", models.RoleGuardian)
	teacher := createUser(t, "teacher", models.RoleTeacher)
	outsider := createUser(t, "outsider", models.RoleTeacher)
	threadID := startThread(t, r, guardian.ID, teacher.ID)

	rec := doJSON(t, r, http.MethodPost, "/api/message-items", token(t, outsider.ID), map[string]interface{}{
		"thread_id": threadID,
		"content":   "Let me in",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/message-items?threadId=%d", threadID), token(t, outsider.ID), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// The outsider's inbox stays empty.
	rec = doJSON(t, r, http.MethodGet, "/api/messages", token(t, outsider.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var inbox []ThreadListItemView
	decode(t, rec, &inbox)
	assert.Empty(t, inbox)
}

// ThreadListItemView mirrors the inbox row shape for decoding.
type ThreadListItemView struct {
	ID          uint   `json:"ID"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	LastMessage string `json:"lastMessage"`
	UnreadCount int64  `json:"unreadCount"`
}

func TestUnreadCountsAndReadMarker(t *testing.T) {
	r := setupTest(t)
	guardian := createUser(t, "guardian", models.RoleGuardian)
	teacher := createUser(t, "teacher", models.RoleTeacher)
	threadID := startThread(t, r, guardian.ID, teacher.ID)

	send := func(fromID uint, clientID, content string) {
		rec := doJSON(t, r, http.MethodPost, "/api/message-items", token(t, fromID), map[string]interface{}{
			"thread_id": threadID,
			"client_id": clientID,
			"content":   content,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	send(teacher.ID, "t-1", "Your child forgot the textbook")
	send(teacher.ID, "t-2", "Again")

	inboxFor := func(userID uint) []ThreadListItemView {
		rec := doJSON(t, r, http.MethodGet, "/api/messages", token(t, userID), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var inbox []ThreadListItemView
		decode(t, rec, &inbox)
		return inbox
	}

	// Two unread for the guardian, none for the sender.
	guardianInbox := inboxFor(guardian.ID)
	require.Len(t, guardianInbox, 1)
	assert.Equal(t, int64(2), guardianInbox[0].UnreadCount)
	assert.Equal(t, "Again", guardianInbox[0].LastMessage)

	teacherInbox := inboxFor(teacher.ID)
	require.Len(t, teacherInbox, 1)
	assert.Equal(t, int64(0), teacherInbox[0].UnreadCount)

	// Fetching history advances the guardian's read marker.
	rec := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/message-items?threadId=%d", threadID), token(t, guardian.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []models.Message
	decode(t, rec, &history)
	require.Len(t, history, 2)
	// Newest first.
	assert.Equal(t, "Again", history[0].Content)

	guardianInbox = inboxFor(guardian.ID)
	require.Len(t, guardianInbox, 1)
	assert.Equal(t, int64(0), guardianInbox[0].UnreadCount)

	// A new message becomes unread again.
	send(teacher.ID, "t-3", "One more thing")
	guardianInbox = inboxFor(guardian.ID)
	assert.Equal(t, int64(1), guardianInbox[0].UnreadCount)
}

func TestRecipientDirectoryScoping(t *testing.T) {
	r := setupTest(t)
	principal := createUser(t, "principal", models.RolePrincipal)
	teacher := createUser(t, "teacher", models.RoleTeacher)
	otherTeacher := createUser(t, "otherteacher", models.RoleTeacher)
	guardian := createUser(t, "guardian", models.RoleGuardian)
	otherGuardian := createUser(t, "otherguardian", models.RoleGuardian)

	classA := createClass(t, 2, "A")
	classB := createClass(t, 2, "B")
	require.NoError(t, config.DB.Create(&models.ClassAssignment{
		ClassID: classA.ID, UserID: teacher.ID, RoleInClass: "homeroom",
	}).Error)
	require.NoError(t, config.DB.Create(&models.ClassAssignment{
		ClassID: classB.ID, UserID: otherTeacher.ID, RoleInClass: "homeroom",
	}).Error)

	studentA := createStudent(t, "ChildA", &classA.ID)
	studentB := createStudent(t, "ChildB", &classB.ID)
	require.NoError(t, config.DB.Create(&models.GuardianStudent{
		GuardianID: guardian.ID, StudentID: studentA.ID,
	}).Error)
	require.NoError(t, config.DB.Create(&models.GuardianStudent{
		GuardianID: otherGuardian.ID, StudentID: studentB.ID,
	}).Error)

	directoryFor := func(userID uint) map[uint]bool {
		rec := doJSON(t, r, http.MethodGet, "/api/message-participants", token(t, userID), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var entries []models.UserSummary
		decode(t, rec, &entries)
		ids := make(map[uint]bool, len(entries))
		for _, e := range entries {
			ids[e.ID] = true
		}
		return ids
	}

	// The guardian sees their child's teacher and the principal, but not
	// the teacher of another class or other guardians.
	guardianDir := directoryFor(guardian.ID)
	assert.True(t, guardianDir[teacher.ID])
	assert.True(t, guardianDir[principal.ID])
	assert.False(t, guardianDir[otherTeacher.ID])
	assert.False(t, guardianDir[otherGuardian.ID])

	// The teacher sees the guardian of a student in their class plus all
	// staff, but not guardians of other classes.
	teacherDir := directoryFor(teacher.ID)
	assert.True(t, teacherDir[guardian.ID])
	assert.True(t, teacherDir[principal.ID])
	assert.True(t, teacherDir[otherTeacher.ID])
	assert.False(t, teacherDir[otherGuardian.ID])
	assert.False(t, teacherDir[teacher.ID])

	// The principal sees everyone but themselves.
	principalDir := directoryFor(principal.ID)
	assert.Len(t, principalDir, 4)
	assert.False(t, principalDir[principal.ID])
}
