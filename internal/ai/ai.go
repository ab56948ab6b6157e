package ai

import "context"

// Request is a single system plus user prompt exchange.
type Request struct {
	System      string
	User        string
	// Temperature is sent as is, zero included. Nil keeps the provider default.
	Temperature *float32
	// JSON asks the provider to answer with a JSON document only.
	JSON bool
}

// Temperature returns a pointer to v for Request.Temperature.
func Temperature(v float32) *float32 {
	return &v
}

// Chat sends one prompt and returns the model's textual answer.
type Chat interface {
	Chat(ctx context.Context, req Request) (string, error)
	Model() string
}

// Embedder turns text into fixed-dimension vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
