package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// CustomEmbedder implements Embedder using a custom HTTP embedding service
type CustomEmbedder struct {
	serviceURL string
	httpClient *http.Client
}

// NewCustomEmbedder creates a new custom HTTP embedder
func NewCustomEmbedder(serviceURL string) *CustomEmbedder {
	return &CustomEmbedder{
		serviceURL: serviceURL,
		httpClient: &http.Client{},
	}
}

var taskTypeToInstruction = map[TaskType]string{
	TaskTypeQuery:    "Represent the question for retrieving relevant clinical interview segments: ",
	TaskTypeDocument: "Represent the clinical interview segment for retrieval: ",
}

type customEmbeddingRequest struct {
	Text        string `json:"text"`
	Instruction string `json:"instruction"`
}

type customEmbeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

type customBatchEmbeddingRequest struct {
	Texts       []string `json:"texts"`
	Instruction string   `json:"instruction"`
}

type customBatchEmbeddingResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed generates an embedding for a single text
func (e *CustomEmbedder) Embed(ctx context.Context, text string, taskType TaskType) ([]float32, error) {
	var resp customEmbeddingResponse
	req := customEmbeddingRequest{
		Text:        text,
		Instruction: instructionFor(taskType),
	}
	if err := e.post(ctx, "/embed", req, &resp); err != nil {
		return nil, err
	}
	return resp.Embedding, nil
}

// EmbedBatch generates embeddings for multiple texts
func (e *CustomEmbedder) EmbedBatch(ctx context.Context, texts []string, taskType TaskType) ([][]float32, error) {
	var resp customBatchEmbeddingResponse
	req := customBatchEmbeddingRequest{
		Texts:       texts,
		Instruction: instructionFor(taskType),
	}
	if err := e.post(ctx, "/embed/batch", req, &resp); err != nil {
		return nil, err
	}
	return resp.Embeddings, nil
}

func (e *CustomEmbedder) post(ctx context.Context, path string, reqBody, respBody interface{}) error {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.serviceURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call embedding service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("embedding service error: %s", string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func instructionFor(taskType TaskType) string {
	if instruction, ok := taskTypeToInstruction[taskType]; ok {
		return instruction
	}
	return taskTypeToInstruction[TaskTypeDocument]
}
