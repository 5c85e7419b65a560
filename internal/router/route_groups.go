package router

import (
	"barbershop_backend/internal/handlers"
	"barbershop_backend/internal/middleware"
	"barbershop_backend/internal/models"
	"barbershop_backend/internal/realtime"

	"github.com/gin-gonic/gin"
)

// SetupAuthRoutes sets up the authentication routes.
func SetupAuthRoutes(apiGroup *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	authRoutes := apiGroup.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/refresh-token", authHandler.Refresh)

		authRequiredRoutes := authRoutes.Group("")
		authRequiredRoutes.Use(middleware.AuthMiddleware())
		{
			authRequiredRoutes.GET("/me", authHandler.Profile)
		}
	}

	userRoutes := apiGroup.Group("/users")
	userRoutes.Use(middleware.AuthMiddleware(), middleware.RoleAuthMiddleware(models.RoleAdmin))
	{
		userRoutes.PATCH("/:id/role", authHandler.SetRole)
	}
}

// SetupPublicQueueRoutes sets up the routes customers hit without an account:
// joining, watching the board, checking a position, leaving.
func SetupPublicQueueRoutes(apiGroup *gin.RouterGroup, queueHandler *handlers.QueueHandler,
	catalogHandler *handlers.CatalogHandler, settingsHandler *handlers.SettingsHandler, hub *realtime.Hub) {
	queueRoutes := apiGroup.Group("/queue")
	{
		queueRoutes.POST("/join", queueHandler.Join)
		queueRoutes.POST("/join-group", queueHandler.JoinGroup)
		queueRoutes.GET("", queueHandler.ListWaiting)
		queueRoutes.GET("/board", queueHandler.Board)
		queueRoutes.GET("/events", hub.ServeSSE)
		queueRoutes.GET("/settings", settingsHandler.Get)
	}

	ticketRoutes := apiGroup.Group("/tickets")
	{
		ticketRoutes.GET("/:id", queueHandler.GetTicket)
		ticketRoutes.GET("/:id/position", queueHandler.GetPosition)
		ticketRoutes.POST("/:id/leave", queueHandler.Leave)
	}

	apiGroup.GET("/services", catalogHandler.ListServices)
	apiGroup.GET("/barbers", catalogHandler.ListBarbers)
}

// SetupQueueStaffRoutes sets up the ticket lifecycle routes for staff.
func SetupQueueStaffRoutes(authenticatedGroup *gin.RouterGroup, queueHandler *handlers.QueueHandler) {
	ticketRoutes := authenticatedGroup.Group("/tickets")
	ticketRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleBarber))
	{
		ticketRoutes.POST("/:id/call", queueHandler.Call)
		ticketRoutes.POST("/:id/start", queueHandler.Start)
		ticketRoutes.POST("/:id/complete", queueHandler.Complete)
		ticketRoutes.POST("/:id/no-show", queueHandler.NoShow)
		ticketRoutes.POST("/:id/transfer", queueHandler.Transfer)
		ticketRoutes.POST("/:id/services", queueHandler.AddService)
		ticketRoutes.DELETE("/:id/services/:serviceId", queueHandler.RemoveService)
		ticketRoutes.DELETE("/:id", queueHandler.Remove)
	}
}

// SetupCatalogRoutes sets up service and barber management.
func SetupCatalogRoutes(authenticatedGroup *gin.RouterGroup, catalogHandler *handlers.CatalogHandler) {
	serviceRoutes := authenticatedGroup.Group("/services")
	serviceRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
	{
		serviceRoutes.POST("", catalogHandler.CreateService)
		serviceRoutes.GET("/:id", catalogHandler.GetService)
		serviceRoutes.PUT("/:id", catalogHandler.UpdateService)
		serviceRoutes.DELETE("/:id", catalogHandler.DeleteService)
	}

	barberRoutes := authenticatedGroup.Group("/barbers")
	barberRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
	{
		barberRoutes.POST("", catalogHandler.CreateBarber)
		barberRoutes.GET("/:id", catalogHandler.GetBarber)
		barberRoutes.PUT("/:id", catalogHandler.UpdateBarber)
		barberRoutes.PATCH("/:id/commission", catalogHandler.SetCommission)
	}

	// Barbers flip their own presence; the handler rejects a barber touching
	// another chair.
	statusRoutes := authenticatedGroup.Group("/barbers")
	statusRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleBarber))
	{
		statusRoutes.PATCH("/:id/status", catalogHandler.SetBarberStatus)
	}
}

// SetupRequestRoutes sets up the queue request workflow.
func SetupRequestRoutes(authenticatedGroup *gin.RouterGroup, requestHandler *handlers.RequestHandler) {
	requestRoutes := authenticatedGroup.Group("/queue-requests")
	{
		barberRoutes := requestRoutes.Group("")
		barberRoutes.Use(middleware.RoleAuthMiddleware(models.RoleBarber))
		{
			barberRoutes.POST("", requestHandler.Submit)
		}

		// Barbers read back their own submissions; the handler scopes the
		// queries by requester.
		staffRoutes := requestRoutes.Group("")
		staffRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleBarber))
		{
			staffRoutes.GET("", requestHandler.List)
			staffRoutes.GET("/:id", requestHandler.Get)
		}

		adminRoutes := requestRoutes.Group("")
		adminRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
		{
			adminRoutes.POST("/:id/approve", requestHandler.Approve)
			adminRoutes.POST("/:id/reject", requestHandler.Reject)
		}
	}
}

// SetupSettingsRoutes sets up queue settings management.
func SetupSettingsRoutes(authenticatedGroup *gin.RouterGroup, settingsHandler *handlers.SettingsHandler) {
	settingsRoutes := authenticatedGroup.Group("/queue/settings")
	settingsRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
	{
		settingsRoutes.PUT("", settingsHandler.Update)
		settingsRoutes.PATCH("/active", settingsHandler.SetActive)
	}
}

// SetupReportRoutes sets up the financial report routes.
func SetupReportRoutes(authenticatedGroup *gin.RouterGroup, reportHandler *handlers.ReportHandler) {
	reportRoutes := authenticatedGroup.Group("/reports")
	reportRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
	{
		reportRoutes.GET("/summary", reportHandler.FinancialSummary)
		reportRoutes.GET("/daily-revenue", reportHandler.DailyRevenue)
		reportRoutes.GET("/barbers/:id/earnings", reportHandler.BarberEarnings)
	}

	attendanceRoutes := authenticatedGroup.Group("/attendance")
	attendanceRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleBarber))
	{
		attendanceRoutes.GET("", reportHandler.ListAttendance)
		attendanceRoutes.GET("/:id", reportHandler.GetAttendance)
	}

	attendanceAdminRoutes := authenticatedGroup.Group("/attendance")
	attendanceAdminRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
	{
		attendanceAdminRoutes.DELETE("", reportHandler.DeleteAttendanceRange)
		attendanceAdminRoutes.DELETE("/:id", reportHandler.DeleteAttendance)
	}
}
