package handlers_test

import (
	"net/http"
	"testing"

	"classbridge/config"
	"classbridge/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStudentCRUD(t *testing.T) {
	r := setupTest(t)
	principal := createUser(t, "principal", models.RolePrincipal)
	class := createClass(t, 4, "A")
	tok := token(t, principal.ID)

	rec := doJSON(t, r, http.MethodPost, "/api/students", tok, map[string]interface{}{
		"lastName":  "Ivanov",
		"firstName": "Petr",
		"gender":    "male",
		"classId":   class.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID uint `json:"id"`
	}
	decode(t, rec, &created)
	require.NotZero(t, created.ID)

	rec = doJSON(t, r, http.MethodGet, "/api/students/1", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var student models.Student
	decode(t, rec, &student)
	assert.Equal(t, "Ivanov", student.LastName)
	require.NotNil(t, student.Class)
	assert.Equal(t, 4, student.Class.GradeNumber)

	rec = doJSON(t, r, http.MethodPut, "/api/students/1", tok, map[string]interface{}{
		"lastName":  "Ivanov",
		"firstName": "Pyotr",
		"classId":   class.ID,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, config.DB.First(&student, created.ID).Error)
	assert.Equal(t, "Pyotr", student.FirstName)

	rec = doJSON(t, r, http.MethodDelete, "/api/students/1", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/api/students/1", tok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateStudentUnknownClass(t *testing.T) {
	r := setupTest(t)
	principal := createUser(t, "principal", models.RolePrincipal)
	tok := token(t, principal.ID)

	rec := doJSON(t, r, http.MethodPost, "/api/students", tok, map[string]interface{}{
		"lastName":  "Orphan",
		"firstName": "Class",
		"classId":   42,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListStudentsSearchAndClassFilter(t *testing.T) {
	r := setupTest(t)
	principal := createUser(t, "principal", models.RolePrincipal)
	classA := createClass(t, 2, "A")
	classB := createClass(t, 2, "B")
	tok := token(t, principal.ID)

	createStudent(t, "Abrikosov", &classA.ID)
	createStudent(t, "Borisov", &classB.ID)
	createStudent(t, "Abramova", &classB.ID)

	rec := doJSON(t, r, http.MethodGet, "/api/students?all=true&search=abr", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data []map[string]interface{} `json:"data"`
	}
	decode(t, rec, &resp)
	assert.Len(t, resp.Data, 2)

	rec = doJSON(t, r, http.MethodGet, "/api/students?all=true&classId=2", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &resp)
	assert.Len(t, resp.Data, 2)
}

func TestListStudentsPagination(t *testing.T) {
	r := setupTest(t)
	principal := createUser(t, "principal", models.RolePrincipal)
	tok := token(t, principal.ID)

	for i := 0; i < 25; i++ {
		createStudent(t, "Student"+string(rune('A'+i)), nil)
	}

	rec := doJSON(t, r, http.MethodGet, "/api/students?page=2&pageSize=20", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data        []map[string]interface{} `json:"data"`
		CurrentPage int                      `json:"currentPage"`
		TotalRows   int64                    `json:"totalRows"`
		TotalPages  int                      `json:"totalPages"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, 2, resp.CurrentPage)
	assert.Equal(t, int64(25), resp.TotalRows)
	assert.Equal(t, 2, resp.TotalPages)
	assert.Len(t, resp.Data, 5)
}

func TestExportStudentsIsAttachment(t *testing.T) {
	r := setupTest(t)
	principal := createUser(t, "principal", models.RolePrincipal)
	class := createClass(t, 9, "V")
	createStudent(t, "Exported", &class.ID)
	tok := token(t, principal.ID)

	rec := doJSON(t, r, http.MethodGet, "/api/students/export", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
	assert.NotZero(t, rec.Body.Len())
}

func TestStudentRoutesForbiddenForGuardians(t *testing.T) {
	r := setupTest(t)
	guardian := createUser(t, "guardian", models.RoleGuardian)
	tok := token(t, guardian.ID)

	rec := doJSON(t, r, http.MethodGet, "/api/students?all=true", tok, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
