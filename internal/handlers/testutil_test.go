package handlers_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http/httptest"
	"testing"
	"time"

	"classbridge/config"
	"classbridge/internal/routes"
	"classbridge/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTest gives every test a fresh in-memory database and a router
// with the full route table. Redis stays nil, so caching is off.
func setupTest(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Class{},
		&models.ClassSection{},
		&models.ClassAssignment{},
		&models.Student{},
		&models.GuardianStudent{},
		&models.Announcement{},
		&models.AnnouncementFile{},
		&models.PollOption{},
		&models.PollVote{},
		&models.Event{},
		&models.EventParticipant{},
		&models.MessageThread{},
		&models.ThreadParticipant{},
		&models.Message{},
		&models.MessageReadStatus{},
	))

	config.DB = db
	config.RDB = nil
	config.JwtKey = []byte("test-secret")

	r := gin.New()
	routes.SetupRoutes(r)
	return r
}

// createUser inserts a user with the given roles and returns it.
func createUser(t *testing.T, login string, roleNames ...string) models.User {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := models.User{
		Login:    login,
		FullName: "Test " + login,
		Email:    login + "@example.com",
		Password: string(hashed),
		Status:   "active",
	}
	require.NoError(t, config.DB.Create(&user).Error)

	for _, name := range roleNames {
		var role models.Role
		require.NoError(t, config.DB.Where(models.Role{Name: name}).FirstOrCreate(&role).Error)
		require.NoError(t, config.DB.Model(&user).Association("Roles").Append(&role))
	}
	return user
}

// token signs a JWT for the user, the same way LoginHandler does.
func token(t *testing.T, userID uint) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(config.JwtKey)
	require.NoError(t, err)
	return signed
}

// doJSON performs an authenticated JSON request against the router.
func doJSON(t *testing.T, r *gin.Engine, method, path, tok string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// doForm sends a multipart form with the given fields.
func doForm(t *testing.T, r *gin.Engine, method, path, tok string, fields map[string][]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, values := range fields {
		for _, v := range values {
			require.NoError(t, w.WriteField(key, v))
		}
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+tok)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// decode unmarshals a recorder body into out.
func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

// createClass inserts a class with a section directly.
func createClass(t *testing.T, grade int, section string) models.Class {
	t.Helper()

	var sec models.ClassSection
	require.NoError(t, config.DB.Where(models.ClassSection{Name: section}).FirstOrCreate(&sec).Error)

	class := models.Class{GradeNumber: grade, SectionID: sec.ID}
	require.NoError(t, config.DB.Create(&class).Error)
	return class
}

// createStudent inserts a student, optionally enrolled in a class.
func createStudent(t *testing.T, lastName string, classID *uint) models.Student {
	t.Helper()

	student := models.Student{LastName: lastName, FirstName: "Student"}
	student.ClassID = classID
	require.NoError(t, config.DB.Create(&student).Error)
	return student
}
