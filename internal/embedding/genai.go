package embedding

import (
	"context"
	"fmt"

	"linkcore/internal/logging"

	"google.golang.org/genai"
)

// maxBatchSize is the maximum number of texts GenAI accepts per batch
// EmbedContent request; the API rejects larger batches with a 400.
const maxBatchSize = 100

func int32Ptr(i int32) *int32 { return &i }

// GenAIEngine generates embeddings using Google's Gemini API. Used when
// embedding.provider=genai; optional, cloud-backed alternative to Ollama.
type GenAIEngine struct {
	client   *genai.Client
	model    string
	taskType string
	dims     int
}

// NewGenAIEngine creates a GenAI-backed embedding engine.
func NewGenAIEngine(apiKey, model, taskType string) (*GenAIEngine, error) {
	timer := logging.StartTimer(logging.CategoryEmbedding, "NewGenAIEngine")
	defer timer.Stop()

	if apiKey == "" {
		return nil, fmt.Errorf("genai API key is required")
	}
	if model == "" {
		model = "gemini-embedding-001"
	}
	if taskType == "" {
		taskType = "SEMANTIC_SIMILARITY"
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GenAIEngine{client: client, model: model, taskType: taskType, dims: 3072}, nil
}

func (e *GenAIEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	timer := logging.StartTimer(logging.CategoryEmbedding, "GenAI.Embed")
	defer timer.Stop()

	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}

	result, err := e.client.Models.EmbedContent(ctx, e.model, contents,
		&genai.EmbedContentConfig{OutputDimensionality: int32Ptr(int32(e.dims))})
	if err != nil {
		return nil, fmt.Errorf("genai embed failed: %w", err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("genai returned no embeddings")
	}

	return result.Embeddings[0].Values, nil
}

func (e *GenAIEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		contents := make([]*genai.Content, 0, end-start)
		for _, t := range texts[start:end] {
			contents = append(contents, genai.NewContentFromText(t, genai.RoleUser))
		}

		result, err := e.client.Models.EmbedContent(ctx, e.model, contents,
			&genai.EmbedContentConfig{OutputDimensionality: int32Ptr(int32(e.dims))})
		if err != nil {
			return nil, fmt.Errorf("genai batch embed failed at offset %d: %w", start, err)
		}

		for _, emb := range result.Embeddings {
			out = append(out, emb.Values)
		}
	}

	return out, nil
}

func (e *GenAIEngine) Dimensions() int { return e.dims }
func (e *GenAIEngine) Name() string    { return "genai:" + e.model }
