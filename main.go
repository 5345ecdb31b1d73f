package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/studyspark/StudySparkApi/ai"
	"github.com/studyspark/StudySparkApi/config"
	"github.com/studyspark/StudySparkApi/db"
	"github.com/studyspark/StudySparkApi/handlers"
	"github.com/studyspark/StudySparkApi/jobs"
	"github.com/studyspark/StudySparkApi/ledger"
	"github.com/studyspark/StudySparkApi/progress"
	"github.com/studyspark/StudySparkApi/utils"
)

func main() {
	// Set up logging with timestamps
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	utils.LogStartup("StudySpark API starting...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[FATAL] Failed to load configuration: %v", err)
	}
	utils.LogStartup("Using port %s, database %s", cfg.Port, cfg.DatabasePath)

	// Initialize database
	utils.LogStartup("Initializing database connection...")
	database, err := db.InitDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize database: %v", err)
	}

	// Provider config: stored row wins, environment seeds the first run.
	storedCfg, err := database.GetProviderConfig()
	if err != nil {
		log.Fatalf("[FATAL] Failed to load provider config: %v", err)
	}
	providerCfg := cfg.DefaultProvider
	if storedCfg != nil {
		providerCfg = *storedCfg
	} else if err := database.SaveProviderConfig(providerCfg); err != nil {
		utils.LogError("Failed to seed provider config: %v", err)
	}
	configHandlers := handlers.NewConfigHandlers(database, providerCfg)

	// Entitlement ledger, restored from the persisted snapshot.
	snapshot, err := database.GetEntitlement()
	if err != nil {
		log.Fatalf("[FATAL] Failed to load entitlement state: %v", err)
	}
	usedOrders, err := database.GetUsedOrders()
	if err != nil {
		log.Fatalf("[FATAL] Failed to load order history: %v", err)
	}
	entitlements := ledger.New(snapshot, usedOrders, configHandlers.HasKey, database)
	utils.LogStartup("Entitlement ledger loaded: balance=%d, %d used topics", entitlements.Balance(), len(snapshot.UsedTopics))

	// Progress tracker
	tracker, err := progress.NewTracker(database)
	if err != nil {
		log.Fatalf("[FATAL] Failed to load learning stats: %v", err)
	}

	// AI client; retry notices go to the log.
	aiClient := ai.NewClient()
	aiClient.SetNoticeFunc(func(msg string) {
		utils.LogAI("%s", msg)
	})

	// Background job manager (history writes and stats updates)
	utils.LogStartup("Starting background job manager...")
	jobManager := jobs.NewJobManager(cfg.RedisURL)
	jobManager.RegisterHandlers(database, tracker)
	go func() {
		if err := jobManager.Start(); err != nil {
			utils.LogError("Job manager stopped: %v", err)
		}
	}()

	// Set up graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		utils.LogShutdown("Received shutdown signal, stopping job manager...")
		jobManager.Stop()
		utils.LogShutdown("Closing database...")
		if err := database.Close(); err != nil {
			utils.LogError("Error closing database: %v", err)
		} else {
			utils.LogShutdown("Database connection closed successfully")
		}
		os.Exit(0)
	}()

	// Setup API routes
	utils.LogStartup("Setting up API routes...")
	router := handlers.NewRouter(database, entitlements, tracker, aiClient, jobManager, cfg, configHandlers)

	// No write timeout: answer streaming holds the connection open for
	// the full reveal, which regularly exceeds any sane fixed limit.
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	utils.LogStartup("Starting HTTP server on port %s...", cfg.Port)
	utils.LogStartup("Server ready to accept connections at http://localhost:%s", cfg.Port)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("[FATAL] Server failed to start: %v", err)
	}
}
