// ingest loads transcript segments from a JSONL file, embeds their text and
// batch-inserts them into the store.
//
// Each input line is one JSON segment object (interview_id, speaker_role,
// start_time, end_time, text, ...). Segments without an embedding are
// embedded via the configured provider before insertion. Inserts go through
// the all-or-nothing batch path in chunks.
//
// Environment variables:
//   POSTGRES_URI          - PostgreSQL connection string
//   EMBEDDING_PROVIDER    - "vertex" or "custom" (default vertex)
//   EMBEDDING_SERVICE_URL - custom provider endpoint
//   GCP_PROJECT_ID, GCP_LOCATION, VERTEX_MODEL - vertex provider settings
//
// Usage:
//   go run scripts/ingest/main.go -file segments.jsonl -interview interview-001

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/interview-retrieval-api/internal/config"
	"github.com/interview-retrieval-api/internal/db"
	"github.com/interview-retrieval-api/internal/models"
	"github.com/interview-retrieval-api/internal/repository/postgres"
	"github.com/interview-retrieval-api/pkg/embed"
)

const (
	batchSize    = 100
	embedWorkers = 4
)

func main() {
	filePath := flag.String("file", "", "JSONL file with segment records")
	interviewID := flag.String("interview", "", "Interview ID to register and attach segments to")
	title := flag.String("title", "", "Interview title")
	mode := flag.String("mode", string(models.IngestionOffline), "Ingestion mode: OFFLINE or LIVE")
	flag.Parse()

	godotenv.Load()
	cfg := config.Load()

	if *filePath == "" || *interviewID == "" {
		log.Fatal("-file and -interview are required")
	}

	ctx := context.Background()

	conn, err := db.Connect(ctx, cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()
	store := postgres.NewSegmentRepository(conn)

	embedder, closeEmbedder, err := newEmbedder(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}
	defer closeEmbedder()

	segments, err := readSegments(*filePath, *interviewID, models.IngestionMode(*mode))
	if err != nil {
		log.Fatalf("Failed to read segments: %v", err)
	}
	log.Printf("Read %d segments from %s", len(segments), *filePath)

	if _, err := store.UpsertInterview(ctx, models.Interview{
		InterviewID:   *interviewID,
		Title:         *title,
		IngestionMode: models.IngestionMode(*mode),
	}); err != nil {
		log.Fatalf("Failed to register interview: %v", err)
	}

	if err := embedSegments(ctx, embedder, segments); err != nil {
		log.Fatalf("Failed to embed segments: %v", err)
	}

	inserted := 0
	for start := 0; start < len(segments); start += batchSize {
		end := start + batchSize
		if end > len(segments) {
			end = len(segments)
		}
		stored, err := store.PutBatch(ctx, segments[start:end])
		if err != nil {
			log.Fatalf("Batch insert failed at offset %d: %v", start, err)
		}
		inserted += len(stored)
		log.Printf("Inserted %d/%d segments", inserted, len(segments))
	}

	log.Printf("Done: %d segments ingested for interview %s", inserted, *interviewID)
}

func newEmbedder(ctx context.Context, cfg *config.Config) (embed.Embedder, func(), error) {
	switch cfg.EmbeddingProvider {
	case "custom":
		return embed.NewCustomEmbedder(cfg.EmbeddingServiceURL), func() {}, nil
	default:
		vertex, err := embed.NewVertexEmbedder(ctx, embed.VertexConfig{
			ProjectID: cfg.GCPProjectID,
			Location:  cfg.GCPLocation,
			Model:     cfg.VertexModel,
		})
		if err != nil {
			return nil, nil, err
		}
		return vertex, func() { vertex.Close() }, nil
	}
}

func readSegments(path, interviewID string, mode models.IngestionMode) ([]models.Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var segments []models.Segment
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var seg models.Segment
		if err := json.Unmarshal(line, &seg); err != nil {
			return nil, err
		}
		seg.InterviewID = interviewID
		if seg.IngestionMode == "" {
			seg.IngestionMode = mode
		}
		if seg.SpeakerRole == "" {
			seg.SpeakerRole = models.SpeakerUnknown
		}
		segments = append(segments, seg)
	}
	return segments, scanner.Err()
}

// embedSegments fills in missing embeddings, batching texts per worker
func embedSegments(ctx context.Context, embedder embed.Embedder, segments []models.Segment) error {
	var missing []int
	for i := range segments {
		if !segments[i].HasEmbedding() {
			missing = append(missing, i)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	log.Printf("Embedding %d segments", len(missing))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedWorkers)
	for start := 0; start < len(missing); start += batchSize {
		end := start + batchSize
		if end > len(missing) {
			end = len(missing)
		}
		chunk := missing[start:end]
		g.Go(func() error {
			texts := make([]string, len(chunk))
			for i, idx := range chunk {
				texts[i] = segments[idx].Text
			}
			embeddings, err := embedder.EmbedBatch(gctx, texts, embed.TaskTypeDocument)
			if err != nil {
				return err
			}
			for i, idx := range chunk {
				segments[idx].Embedding = embeddings[i]
			}
			return nil
		})
	}
	return g.Wait()
}
