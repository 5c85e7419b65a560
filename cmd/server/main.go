package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"barbershop_backend/internal/database"
	"barbershop_backend/internal/jobs"
	"barbershop_backend/internal/notify"
	"barbershop_backend/internal/realtime"
	"barbershop_backend/internal/repositories"
	router_pkg "barbershop_backend/internal/router"
	"barbershop_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	utils.LoadEnv()
	utils.InitLogger()
	utils.SetJWTSecret(os.Getenv("JWT_SECRET"))

	// Load database configuration from environment variables
	dbHost := utils.Getenv("DB_HOST", "localhost")
	dbPort := utils.Getenv("DB_PORT", "5432")
	dbUser := utils.Getenv("DB_USER", "barbershop_user")
	dbPassword := utils.Getenv("DB_PASSWORD", "barbershop_password")
	dbName := utils.Getenv("DB_NAME", "barbershop_db")
	dbSSLMode := utils.Getenv("DB_SSLMODE", "disable")
	dbSchemaPath := utils.Getenv("DB_SCHEMA_PATH", "")

	database.InitDB(dbHost, dbPort, dbUser, dbPassword, dbName, dbSSLMode, dbSchemaPath)
	utils.LogInfo("Database initialized", map[string]interface{}{"configured_from_env": true})
	dbConn := database.GetDB()

	// Notifications go through asynq when Redis is configured; otherwise
	// they are dropped and only the change feed carries updates.
	var dispatcher notify.Dispatcher = notify.NopDispatcher{}
	var worker *notify.Worker
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr != "" {
		dispatcher = notify.NewDispatcher(redisAddr)
		worker = notify.NewWorker(redisAddr, notify.LogSender{})
		if err := worker.Start(); err != nil {
			log.Fatalf("Failed to start notification worker: %v", err)
		}
		defer worker.Shutdown()
		utils.LogInfo("Notification worker started", map[string]interface{}{"redis_addr": redisAddr})
	} else {
		utils.LogInfo("REDIS_ADDR not set, customer notifications disabled")
	}

	engine := gin.Default()
	engine.Use(utils.GinLogger())

	// CORS configuration
	corsAllowedOriginsEnv := os.Getenv("CORS_ALLOWED_ORIGINS")
	var allowedOrigins []string
	if corsAllowedOriginsEnv != "" {
		allowedOrigins = strings.Split(corsAllowedOriginsEnv, ",")
	} else {
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:3001"}
	}

	config := cors.DefaultConfig()
	config.AllowOrigins = allowedOrigins
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	config.AllowCredentials = true
	engine.Use(cors.New(config))

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Change feed: Postgres NOTIFY -> hub -> SSE clients.
	hub := realtime.NewHub()
	listenerCtx, cancelListener := context.WithCancel(context.Background())
	defer cancelListener()
	listener := realtime.NewListener(
		database.ConnString(dbHost, dbPort, dbUser, dbPassword, dbName, dbSSLMode), hub)
	go func() {
		if err := listener.Run(listenerCtx); err != nil && listenerCtx.Err() == nil {
			utils.LogError(err, "queue events listener stopped")
		}
	}()

	queueService := router_pkg.Setup(engine, dbConn, dispatcher, hub)

	// No-show sweeper. NOSHOW_GRACE_MINUTES=0 disables automatic sweeping.
	graceMinutes, err := strconv.Atoi(utils.Getenv("NOSHOW_GRACE_MINUTES", "10"))
	if err != nil || graceMinutes < 0 {
		log.Fatalf("Invalid NOSHOW_GRACE_MINUTES value")
	}
	scheduler := jobs.NewScheduler(queueService, repositories.NewOutboxRepository(dbConn),
		time.Duration(graceMinutes)*time.Minute)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer scheduler.Stop()

	port := utils.Getenv("PORT", "8080")
	utils.LogInfo("Server starting", map[string]interface{}{"port": port, "configured_from_env": true})

	if err := engine.Run(":" + port); err != nil {
		utils.LogError(err, "Failed to start server")
		log.Fatalf("Failed to start server: %v", err)
	}
}
