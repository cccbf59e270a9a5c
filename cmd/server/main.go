package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"machitan.jp/machi-backend/internal/api"
	"machitan.jp/machi-backend/internal/config"
	"machitan.jp/machi-backend/internal/core"
	"machitan.jp/machi-backend/internal/store"
)

func main() {
	// Load configuration
	config.LoadConfig()

	// Setup logging
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if config.AppConfig.LogLevel == "DEBUG" {
		log.Println("Service starting in DEBUG mode")
	}

	// Command line flag for offline inspection of the model-interaction log
	dumpLogsFlag := flag.Bool("dumplogs", false, "Dump recent assistant interaction logs as JSON lines and exit")
	flag.Parse()

	// Initialize database store. A fresh or outdated file is brought up to
	// the current schema here; a store that cannot be opened is fatal.
	dbStore, err := store.NewSQLiteStore(config.AppConfig.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer dbStore.Close()

	// Initialize model client (fallback mode when no API key is set)
	llmService := core.NewLLMService()
	defer llmService.Close()

	// Initialize services
	commentService := core.NewCommentService(dbStore)
	identityService := core.NewIdentityService(dbStore)
	classroomService := core.NewClassroomService(dbStore)
	assistantService := core.NewAssistantService(dbStore, llmService)

	// Handle log dumping if flag is set
	if *dumpLogsFlag {
		logs, err := assistantService.ListRecentLogs(20)
		if err != nil {
			log.Fatalf("Failed to read assistant logs: %v", err)
		}
		enc := json.NewEncoder(os.Stdout)
		for _, entry := range logs {
			if err := enc.Encode(entry); err != nil {
				log.Fatalf("Failed to encode log entry: %v", err)
			}
		}
		os.Exit(0)
	}

	// Initialize API Handler and Router
	apiHandler := api.NewAPIHandler(commentService, identityService, classroomService, assistantService, config.AppConfig.CommentListLimit)
	router := api.NewRouter(apiHandler)

	// Start HTTP server
	serverAddr := fmt.Sprintf(":%s", config.AppConfig.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // model calls can take time
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		log.Printf("Starting server on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", serverAddr, err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give active connections time to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting gracefully")
}
