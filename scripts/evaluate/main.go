// evaluate runs a stored evaluation dataset against the retrieval core and
// prints the aggregate metrics.
//
// Test queries without a stored embedding are embedded via the configured
// provider before the run, so datasets can be authored as plain text.
//
// Environment variables: same as scripts/ingest.
//
// Usage:
//   go run scripts/evaluate/main.go -dataset baseline-v1 [-count 10] [-semantic 0.7] [-keyword 0.3]

package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/interview-retrieval-api/internal/config"
	"github.com/interview-retrieval-api/internal/db"
	"github.com/interview-retrieval-api/internal/models"
	"github.com/interview-retrieval-api/internal/repository/postgres"
	"github.com/interview-retrieval-api/internal/services"
	"github.com/interview-retrieval-api/pkg/embed"
)

func main() {
	datasetID := flag.String("dataset", "", "Evaluation dataset ID")
	matchCount := flag.Int("count", models.DefaultMatchCount, "Results per query")
	semanticWeight := flag.Float64("semantic", models.DefaultSemanticWeight, "Semantic score weight")
	keywordWeight := flag.Float64("keyword", models.DefaultKeywordWeight, "Keyword score weight")
	flag.Parse()

	godotenv.Load()
	cfg := config.Load()

	if *datasetID == "" {
		log.Fatal("-dataset is required")
	}

	ctx := context.Background()

	conn, err := db.Connect(ctx, cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	evalRepo := postgres.NewEvaluationRepository(conn)
	retrievalSvc := services.NewRetrievalService(
		postgres.NewSegmentRepository(conn),
		postgres.NewSimilarityRepository(conn),
		postgres.NewLexicalRepository(conn),
	)
	evalSvc := services.NewEvaluationService(retrievalSvc, evalRepo)

	if err := embedDatasetQueries(ctx, cfg, evalRepo, *datasetID); err != nil {
		log.Fatalf("Failed to embed dataset queries: %v", err)
	}

	result, err := evalSvc.RunDataset(ctx, *datasetID, models.EvaluationConfig{
		MatchCount:     *matchCount,
		SemanticWeight: *semanticWeight,
		KeywordWeight:  *keywordWeight,
	})
	if err != nil {
		log.Fatalf("Evaluation failed: %v", err)
	}

	log.Printf("Evaluation %s stored", result.EvaluationID)
	out, _ := json.MarshalIndent(result.OverallMetrics, "", "  ")
	os.Stdout.Write(out)
	os.Stdout.Write([]byte("\n"))
}

// embedDatasetQueries backfills missing query embeddings and re-stores the
// dataset so later runs skip the embedding step.
func embedDatasetQueries(ctx context.Context, cfg *config.Config, evalRepo *postgres.EvaluationRepository, datasetID string) error {
	ds, err := evalRepo.GetDataset(ctx, datasetID)
	if err != nil {
		return err
	}

	var missing []int
	for i := range ds.TestQueries {
		if len(ds.TestQueries[i].QueryEmbedding) == 0 && ds.TestQueries[i].QueryText != "" {
			missing = append(missing, i)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	var embedder embed.Embedder
	switch cfg.EmbeddingProvider {
	case "custom":
		embedder = embed.NewCustomEmbedder(cfg.EmbeddingServiceURL)
	default:
		vertex, err := embed.NewVertexEmbedder(ctx, embed.VertexConfig{
			ProjectID: cfg.GCPProjectID,
			Location:  cfg.GCPLocation,
			Model:     cfg.VertexModel,
		})
		if err != nil {
			return err
		}
		defer vertex.Close()
		embedder = vertex
	}

	texts := make([]string, len(missing))
	for i, idx := range missing {
		texts[i] = ds.TestQueries[idx].QueryText
	}
	embeddings, err := embedder.EmbedBatch(ctx, texts, embed.TaskTypeQuery)
	if err != nil {
		return err
	}
	for i, idx := range missing {
		ds.TestQueries[idx].QueryEmbedding = embeddings[i]
	}

	_, err = evalRepo.PutDataset(ctx, ds)
	return err
}
