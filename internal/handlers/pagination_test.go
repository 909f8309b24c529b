package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func testContext(rawQuery string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+rawQuery, nil)
	return c
}

func TestPageParams(t *testing.T) {
	cases := []struct {
		query    string
		page     int
		pageSize int
	}{
		{"", 1, DefaultPageSize},
		{"page=3&pageSize=50", 3, 50},
		{"page=0&pageSize=0", 1, DefaultPageSize},
		{"page=-2&pageSize=-5", 1, DefaultPageSize},
		{"pageSize=1000", 1, MaxPageSize},
		{"page=abc&pageSize=abc", 1, DefaultPageSize},
	}

	for _, tc := range cases {
		page, pageSize := pageParams(testContext(tc.query))
		assert.Equal(t, tc.page, page, "query %q", tc.query)
		assert.Equal(t, tc.pageSize, pageSize, "query %q", tc.query)
	}
}

func TestCreatePaginatedResponse(t *testing.T) {
	c := testContext("page=2&pageSize=10")

	resp := CreatePaginatedResponse(c, []string{"a"}, 25)
	assert.Equal(t, int64(25), resp.TotalRows)
	assert.Equal(t, 3, resp.TotalPages)
	assert.Equal(t, 2, resp.CurrentPage)
	assert.Equal(t, 10, resp.PageSize)

	empty := CreatePaginatedResponse(c, []string{}, 0)
	assert.Equal(t, 0, empty.TotalPages)
}
