package handlers_test

import (
	"net/http"
	"testing"

	"classbridge/config"
	"classbridge/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestGetProfile(t *testing.T) {
	r := setupTest(t)
	user := createUser(t, "me", models.RoleTeacher)

	rec := doJSON(t, r, http.MethodGet, "/api/profile", token(t, user.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var profile struct {
		Login    string   `json:"login"`
		FullName string   `json:"fullName"`
		Roles    []string `json:"roles"`
	}
	decode(t, rec, &profile)
	assert.Equal(t, "me", profile.Login)
	assert.Equal(t, user.FullName, profile.FullName)
	assert.Equal(t, []string{models.RoleTeacher}, profile.Roles)
}

func TestUpdateProfilePasswordChange(t *testing.T) {
	r := setupTest(t)
	user := createUser(t, "me", models.RoleGuardian)
	tok := token(t, user.ID)

	doPut := func(fields map[string][]string) int {
		rec := doForm(t, r, http.MethodPut, "/api/profile", tok, fields)
		return rec.Code
	}

	// Changing the password without the old one is rejected.
	code := doPut(map[string][]string{
		"fullName":    {"Renamed"},
		"email":       {"me@example.com"},
		"newPassword": {"newsecret123"},
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code = doPut(map[string][]string{
		"fullName":    {"Renamed"},
		"email":       {"me@example.com"},
		"oldPassword": {"wrong"},
		"newPassword": {"newsecret123"},
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code = doPut(map[string][]string{
		"fullName":    {"Renamed"},
		"email":       {"me@example.com"},
		"oldPassword": {"password123"},
		"newPassword": {"newsecret123"},
	})
	require.Equal(t, http.StatusOK, code)

	var updated models.User
	require.NoError(t, config.DB.First(&updated, user.ID).Error)
	assert.Equal(t, "Renamed", updated.FullName)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.Password), []byte("newsecret123")))
}

func TestUpdateProfileKeepsOmittedFields(t *testing.T) {
	r := setupTest(t)
	user := createUser(t, "me", models.RoleTeacher)
	require.NoError(t, config.DB.Model(&user).Update("phone", "+77010000000").Error)
	tok := token(t, user.ID)

	// A form carrying only the phone leaves name and email untouched.
	rec := doForm(t, r, http.MethodPut, "/api/profile", tok, map[string][]string{
		"phone": {"+77019999999"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated models.User
	require.NoError(t, config.DB.First(&updated, user.ID).Error)
	assert.Equal(t, user.FullName, updated.FullName)
	assert.Equal(t, user.Email, updated.Email)
	assert.Equal(t, "+77019999999", updated.Phone)
}
