package main

import (
	"log/slog"
	"os"

	"classbridge/config"
	"classbridge/internal/handlers"
	"classbridge/internal/routes"
	"classbridge/models"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found, using process environment")
	}

	config.LoadSecrets()
	config.ConnectDB()
	config.ConnectRedis()

	if err := config.DB.AutoMigrate(
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
	); err != nil {
		slog.Error("Auto-migration failed", "error", err)
		os.Exit(1)
	}
	seedRoles()

	go handlers.GlobalHub.Run()

	r := gin.Default()
	routes.SetupRoutes(r)

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	slog.Info("Starting server", "addr", addr)
	if err := r.Run(addr); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

// seedRoles makes sure the built-in roles exist.
func seedRoles() {
	for _, name := range []string{models.RolePrincipal, models.RoleTeacher, models.RoleGuardian} {
		var role models.Role
		if err := config.DB.Where(models.Role{Name: name}).FirstOrCreate(&role).Error; err != nil {
			slog.Error("Failed to seed role", "role", name, "error", err)
		}
	}
}
