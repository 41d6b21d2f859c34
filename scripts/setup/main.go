// setup applies the database schema migrations.
//
// The schema (tables, constraints, HNSW and GIN indexes) is embedded in
// internal/db/migrations and applied through a versioned schema_migrations
// table, so reruns are safe.
//
// Environment variables:
//   POSTGRES_URI - PostgreSQL connection string
//
// Usage:
//   go run scripts/setup/main.go

package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/interview-retrieval-api/internal/db"
)

func main() {
	godotenv.Load()

	postgresURI := os.Getenv("POSTGRES_URI")
	if postgresURI == "" {
		log.Fatal("POSTGRES_URI environment variable is required")
	}

	ctx := context.Background()

	conn, err := db.Connect(ctx, postgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	if err := db.Migrate(ctx, conn); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Schema migrations applied")
}
