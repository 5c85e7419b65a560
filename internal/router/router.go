package router

import (
	"database/sql"

	"barbershop_backend/internal/handlers"
	"barbershop_backend/internal/middleware"
	"barbershop_backend/internal/notify"
	"barbershop_backend/internal/realtime"
	"barbershop_backend/internal/repositories"
	"barbershop_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// Setup wires repositories, services and handlers onto the engine.
func Setup(engine *gin.Engine, db *sql.DB, dispatcher notify.Dispatcher, hub *realtime.Hub) services.QueueService {
	// Initialize Repositories
	authRepo := repositories.NewAuthRepository(db)
	serviceRepo := repositories.NewServiceRepository(db)
	barberRepo := repositories.NewBarberRepository(db)
	ticketRepo := repositories.NewTicketRepository(db)
	settingsRepo := repositories.NewSettingsRepository(db)
	requestRepo := repositories.NewRequestRepository(db)
	transferRepo := repositories.NewTransferRepository(db)
	attendRepo := repositories.NewAttendanceRepository(db)
	outboxRepo := repositories.NewOutboxRepository(db)

	// Initialize Services
	authService := services.NewAuthService(authRepo, db)
	catalogService := services.NewCatalogService(serviceRepo, barberRepo, db)
	settingsService := services.NewSettingsService(settingsRepo, outboxRepo, db)
	queueService := services.NewQueueService(ticketRepo, serviceRepo, barberRepo, settingsRepo,
		transferRepo, attendRepo, outboxRepo, dispatcher, db)
	requestService := services.NewRequestService(requestRepo, serviceRepo, barberRepo, settingsRepo,
		ticketRepo, outboxRepo, dispatcher, db)
	reportService := services.NewReportService(attendRepo, barberRepo, db)

	// Initialize Handlers
	authHandler := handlers.NewAuthHandler(authService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	settingsHandler := handlers.NewSettingsHandler(settingsService)
	queueHandler := handlers.NewQueueHandler(queueService, catalogService)
	requestHandler := handlers.NewRequestHandler(requestService, catalogService)
	reportHandler := handlers.NewReportHandler(reportService)

	apiV1 := engine.Group("/api/v1")

	SetupAuthRoutes(apiV1, authHandler)
	SetupPublicQueueRoutes(apiV1, queueHandler, catalogHandler, settingsHandler, hub)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupQueueStaffRoutes(authenticated, queueHandler)
		SetupCatalogRoutes(authenticated, catalogHandler)
		SetupRequestRoutes(authenticated, requestHandler)
		SetupSettingsRoutes(authenticated, settingsHandler)
		SetupReportRoutes(authenticated, reportHandler)
	}

	return queueService
}
