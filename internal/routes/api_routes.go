package routes

import (
	"classbridge/internal/handlers"
	"classbridge/internal/middleware"
	"classbridge/models"

	"github.com/gin-gonic/gin"
)

// RegisterAPIRoutes registers every authenticated API route.
func RegisterAPIRoutes(api *gin.RouterGroup) {
	apiGroup := api.Group("/api")
	{
		// --- PROFILE ---
		profile := apiGroup.Group("/profile")
		{
			profile.GET("", handlers.GetProfileHandler)
			profile.PUT("", handlers.UpdateProfileHandler)
		}

		// --- CLASSES ---
		classes := apiGroup.Group("/classes")
		{
			classes.GET("", handlers.ListClassesHandler)
			classes.POST("", middleware.RequireRole(models.RolePrincipal), handlers.CreateClassHandler)
			classes.GET("/:id", handlers.GetClassHandler)
			classes.PUT("/:id", middleware.RequireRole(models.RolePrincipal), handlers.UpdateClassHandler)
			classes.DELETE("/:id", middleware.RequireRole(models.RolePrincipal), handlers.DeleteClassHandler)
		}

		// --- TEACHER-CLASS ASSIGNMENT ---
		apiGroup.POST("/assign-teacher-class", middleware.RequireRole(models.RolePrincipal), handlers.AssignTeacherClassHandler)
		apiGroup.POST("/remove-teacher-class", middleware.RequireRole(models.RolePrincipal), handlers.RemoveTeacherClassHandler)

		// --- STUDENTS ---
		students := apiGroup.Group("/students")
		students.Use(middleware.RequireRole(models.RolePrincipal, models.RoleTeacher))
		{
			students.GET("", handlers.ListStudentsHandler)
			students.GET("/export", middleware.RequireRole(models.RolePrincipal), handlers.ExportStudentsHandler)
			students.POST("", middleware.RequireRole(models.RolePrincipal), handlers.CreateStudentHandler)
			students.GET("/:id", handlers.GetStudentHandler)
			students.PUT("/:id", middleware.RequireRole(models.RolePrincipal), handlers.UpdateStudentHandler)
			students.DELETE("/:id", middleware.RequireRole(models.RolePrincipal), handlers.DeleteStudentHandler)
		}

		// --- GUARDIANS ---
		guardians := apiGroup.Group("/guardians")
		guardians.Use(middleware.RequireRole(models.RolePrincipal))
		{
			guardians.GET("", handlers.ListGuardiansHandler)
			guardians.POST("", handlers.CreateGuardianHandler)
			guardians.GET("/:id", handlers.GetGuardianHandler)
			guardians.PUT("/:id", handlers.UpdateGuardianHandler)
			guardians.DELETE("/:id", handlers.DeleteGuardianHandler)
		}

		guardianStudents := apiGroup.Group("/guardian-students")
		guardianStudents.Use(middleware.RequireRole(models.RolePrincipal))
		{
			guardianStudents.GET("", handlers.ListGuardianStudentsHandler)
			guardianStudents.POST("", handlers.CreateGuardianStudentHandler)
			guardianStudents.DELETE("/:id", handlers.DeleteGuardianStudentHandler)
		}

		// --- STAFF ---
		staff := apiGroup.Group("/staff-management")
		staff.Use(middleware.RequireRole(models.RolePrincipal))
		{
			staff.GET("", handlers.ListStaffHandler)
			staff.POST("", handlers.CreateStaffHandler)
			staff.GET("/:id", handlers.GetStaffHandler)
			staff.PUT("/:id", handlers.UpdateStaffHandler)
			staff.DELETE("/:id", handlers.DeleteStaffHandler)
		}
		apiGroup.GET("/principals", handlers.ListPrincipalsHandler)

		// --- ANNOUNCEMENTS ---
		announcements := apiGroup.Group("/announcements")
		{
			announcements.GET("", handlers.ListAnnouncementsHandler)
			announcements.POST("", middleware.RequireRole(models.RolePrincipal, models.RoleTeacher), handlers.CreateAnnouncementHandler)
			announcements.PUT("/:id", handlers.UpdateAnnouncementHandler)
			announcements.DELETE("/:id", handlers.DeleteAnnouncementHandler)
			announcements.POST("/:id/vote/:optionId", handlers.VoteInPollHandler)
		}

		// --- CALENDAR ---
		calendar := apiGroup.Group("/calendar")
		{
			calendar.GET("/events", handlers.GetEvents)
			calendar.POST("/events", handlers.CreateEvent)
			calendar.PUT("/events/:id", handlers.UpdateEvent)
			calendar.DELETE("/events/:id", handlers.DeleteEvent)
			calendar.POST("/events/:id/participants/status", handlers.UpdateParticipantStatus)
		}

		// --- MESSAGING ---
		messages := apiGroup.Group("/messages")
		{
			messages.GET("/ws", handlers.MessagesWSEndpoint)
			messages.GET("", handlers.ListThreadsHandler)
			messages.POST("", handlers.CreateThreadHandler)
			messages.POST("/upload", handlers.UploadMessageFileHandler)
		}
		apiGroup.GET("/message-items", handlers.GetMessageItemsHandler)
		apiGroup.POST("/message-items", handlers.SendMessageItemHandler)
		apiGroup.GET("/message-participants", handlers.ListMessageParticipantsHandler)
	}
}
