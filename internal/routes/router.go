package routes

import (
	"classbridge/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRoutes wires all application routes onto the engine.
func SetupRoutes(r *gin.Engine) {
	// Public routes first: login, registration, logout.
	RegisterAuthRoutes(r)

	r.Static("/static", "./static")

	// Everything else requires a valid token.
	authRequired := r.Group("/")
	authRequired.Use(middleware.AuthMiddleware())
	{
		RegisterAPIRoutes(authRequired)
	}
}
