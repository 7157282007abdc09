// api/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"quizlytics/api/database"
	"quizlytics/api/handlers"
	"quizlytics/api/middleware"
	"quizlytics/api/store"
)

func main() {
	// Load .env file at the very start
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading .env: %v", err)
	}

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// --- Primary analytics database (SQLite file or hosted Postgres) ---
	dbClient, err := database.NewAnalyticsDB()
	if err != nil {
		log.Fatalf("Failed to initialize analytics database: %v", err)
	}
	defer dbClient.Close()

	// --- Optional ClickHouse mirror store ---
	chClient, err := database.NewClickHouseDB()
	if err != nil {
		// Best-effort by contract: run without the mirror rather than die.
		log.Printf("Mirror store unavailable, continuing without it: %v", err)
		chClient = nil
	}
	if chClient != nil {
		defer chClient.Close()
	}

	analyticsStore := store.NewAnalyticsStore(dbClient)

	var mirror store.MirrorStore
	var forwarder *store.Forwarder
	if chClient != nil {
		mirror = store.NewClickHouseMirror(chClient)
		forwarder = store.NewForwarder(mirror)
		defer forwarder.Close()
	}

	analyticsHandlers := handlers.NewAnalyticsHandlers(analyticsStore, mirror, forwarder)
	authHandlers := handlers.NewAuthHandlers()

	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	api := r.Group("/api")
	api.Use(middleware.EnsureSession())
	{
		api.GET("/health", analyticsHandlers.Health)

		api.POST("/events", analyticsHandlers.TrackEvents)
		api.GET("/events", analyticsHandlers.ListEvents)
		api.POST("/results", analyticsHandlers.TrackResult)
		api.GET("/results", analyticsHandlers.ListResults)
		api.GET("/user-results", analyticsHandlers.UserResults)

		api.POST("/admin/login", authHandlers.AdminLogin)
		api.POST("/admin/logout", authHandlers.AdminLogout)

		admin := api.Group("/")
		admin.Use(middleware.AdminRequired())
		{
			admin.GET("/dashboard", analyticsHandlers.Dashboard)
			admin.GET("/realtime", analyticsHandlers.Realtime)
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		log.Printf("Quizlytics API server starting on http://localhost:%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("API server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
