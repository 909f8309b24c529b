package handlers_test

import (
	"net/http"
	"testing"

	"classbridge/config"
	"classbridge/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignAndRemoveTeacherClass(t *testing.T) {
	r := setupTest(t)
	principal := createUser(t, "principal", models.RolePrincipal)
	teacher := createUser(t, "teacher", models.RoleTeacher)
	class := createClass(t, 6, "A")
	tok := token(t, principal.ID)

	body := map[string]interface{}{
		"teacher_id": teacher.ID,
		"class_id":   class.ID,
	}

	rec := doJSON(t, r, http.MethodPost, "/api/assign-teacher-class", tok, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var assignment models.ClassAssignment
	require.NoError(t, config.DB.Where("class_id = ? AND user_id = ?", class.ID, teacher.ID).First(&assignment).Error)
	assert.Equal(t, "subject", assignment.RoleInClass)

	// Second assignment of the same pair is rejected.
	rec = doJSON(t, r, http.MethodPost, "/api/assign-teacher-class", tok, body)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/api/remove-teacher-class", tok, body)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/api/remove-teacher-class", tok, body)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAssignTeacherClassValidation(t *testing.T) {
	r := setupTest(t)
	principal := createUser(t, "principal", models.RolePrincipal)
	guardian := createUser(t, "guardian", models.RoleGuardian)
	class := createClass(t, 6, "A")
	tok := token(t, principal.ID)

	// Unknown teacher.
	rec := doJSON(t, r, http.MethodPost, "/api/assign-teacher-class", tok, map[string]interface{}{
		"teacher_id": 9999, "class_id": class.ID,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Existing user without the teacher role.
	rec = doJSON(t, r, http.MethodPost, "/api/assign-teacher-class", tok, map[string]interface{}{
		"teacher_id": guardian.ID, "class_id": class.ID,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown class.
	teacher := createUser(t, "teacher", models.RoleTeacher)
	rec = doJSON(t, r, http.MethodPost, "/api/assign-teacher-class", tok, map[string]interface{}{
		"teacher_id": teacher.ID, "class_id": 9999,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
