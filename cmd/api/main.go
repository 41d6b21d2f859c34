package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/interview-retrieval-api/internal/config"
	"github.com/interview-retrieval-api/internal/db"
	"github.com/interview-retrieval-api/internal/handlers"
	"github.com/interview-retrieval-api/internal/middleware"
	"github.com/interview-retrieval-api/internal/repository"
	"github.com/interview-retrieval-api/internal/repository/memory"
	"github.com/interview-retrieval-api/internal/repository/postgres"
	"github.com/interview-retrieval-api/internal/services"
)

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	cfg := config.Load()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(middleware.CORSMiddleware(cfg.CORSOrigins))

	ctx := context.Background()

	// Wire the store and indexes for the configured backend
	var (
		store      repository.SegmentStore
		similarity repository.SimilarityIndex
		lexical    repository.LexicalIndex
		evals      repository.EvaluationStore
		pgDB       *sqlx.DB
	)
	switch cfg.StoreBackend {
	case "memory":
		log.Println("Using in-memory store backend")
		mem := memory.NewStore()
		store, similarity, lexical, evals = mem, mem, mem, mem
	default:
		log.Println("Using PostgreSQL store backend")
		var err error
		pgDB, err = db.Connect(ctx, cfg.PostgresURI)
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL: %v", err)
		}
		store = postgres.NewSegmentRepository(pgDB)
		similarity = postgres.NewSimilarityRepository(pgDB)
		lexical = postgres.NewLexicalRepository(pgDB)
		evals = postgres.NewEvaluationRepository(pgDB)
	}

	// Create services
	retrievalSvc := services.NewRetrievalService(store, similarity, lexical)
	evalSvc := services.NewEvaluationService(retrievalSvc, evals)

	// Create API group with prefix
	api := e.Group(cfg.APIPrefix)

	// Register handlers
	handlers.NewHealthHandler(pgDB).RegisterRoutes(api)
	handlers.NewSearchHandler(retrievalSvc).RegisterRoutes(api)
	handlers.NewSegmentsHandler(store).RegisterRoutes(api)
	handlers.NewEvaluationHandler(evalSvc).RegisterRoutes(api)

	// Root health check
	e.GET("/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"name":    cfg.APITitle,
			"version": cfg.APIVersion,
			"status":  "running",
		})
	})

	// Start server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Printf("Starting %s v%s on %s", cfg.APITitle, cfg.APIVersion, addr)
		if err := e.Start(addr); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down server: %v", err)
	}

	if pgDB != nil {
		if err := pgDB.Close(); err != nil {
			log.Printf("Error closing PostgreSQL: %v", err)
		}
	}

	log.Println("Server stopped")
}
