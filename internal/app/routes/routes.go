package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/electives/internal/app/controllers"
	"github.com/yigit/electives/internal/app/models"
	"github.com/yigit/electives/internal/app/models/dto"
	"github.com/yigit/electives/internal/middleware"
	"github.com/yigit/electives/internal/pkg/websocket"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	allocationController *controllers.AllocationController,
	subjectController *controllers.SubjectController,
	adminController *controllers.AdminController,
	occupancyFeed *websocket.Handler,
	authMiddleware *middleware.AuthMiddleware,
) {
	// Liveness (public)
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	// API version group
	v1 := router.Group("/api/v1")

	v1.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"status": "ok"}))
	})

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		// Subject catalog, readable by every role
		subjects := authenticated.Group("/subjects")
		{
			subjects.GET("", subjectController.GetAllSubjects)
			subjects.GET("/:id/occupancy", subjectController.GetOccupancy)
			subjects.GET("/live", occupancyFeed.HandleConnection)
		}

		// Student selection routes, closed while student login is disabled
		selections := authenticated.Group("/selections")
		selections.Use(
			authMiddleware.RoleRequired(models.RoleStudent),
			authMiddleware.StudentAccessRequired(),
		)
		{
			selections.POST("", allocationController.SelectSubject)
			selections.POST("/preferences", allocationController.SubmitPreferences)
			selections.GET("/me", allocationController.GetMySelection)
		}

		// Admin routes
		admin := authenticated.Group("/admin")
		admin.Use(authMiddleware.RoleRequired(models.RoleAdmin))
		{
			admin.GET("/selections", adminController.GetRoster)
			admin.GET("/selections/export", adminController.ExportRoster)
			admin.DELETE("/selections/:studentId", adminController.ResetSelection)

			admin.GET("/settings", adminController.GetSettings)
			admin.PUT("/settings", adminController.UpdateSettings)
		}

		// Opened by browsers that cannot attach an Authorization header
		authMiddleware.AllowQueryToken(
			subjects.BasePath()+"/live",
			admin.BasePath()+"/selections/export",
		)
	}
}
