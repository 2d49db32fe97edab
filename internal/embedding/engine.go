// Package embedding maps text to fixed-length vectors for similarity scoring.
// Supports two backends: Ollama (self-hosted, default) and Google GenAI (cloud).
package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
)

// ErrNotComparable is returned when two vectors cannot be compared
// (length mismatch, empty, or zero magnitude).
var ErrNotComparable = errors.New("vectors not comparable")

// Engine generates vector embeddings for text.
type Engine interface {
	// Embed generates the embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Name identifies the backend and model, e.g. "ollama:all-minilm".
	Name() string
}

// Config selects and configures an embedding backend.
type Config struct {
	Provider string // "ollama" or "genai"

	OllamaEndpoint string // default http://localhost:11434
	OllamaModel    string // default all-minilm (384 dimensions)

	GenAIAPIKey string
	GenAIModel  string // default gemini-embedding-001
}

// DefaultConfig matches the vectors stored on rounds (384-dim MiniLM).
func DefaultConfig() Config {
	return Config{
		Provider:       "ollama",
		OllamaEndpoint: "http://localhost:11434",
		OllamaModel:    "all-minilm",
		GenAIModel:     "gemini-embedding-001",
	}
}

// NewEngine creates an embedding engine based on configuration.
func NewEngine(ctx context.Context, cfg Config) (Engine, error) {
	var (
		engine Engine
		err    error
	)
	switch cfg.Provider {
	case "ollama", "":
		engine, err = NewOllamaEngine(cfg.OllamaEndpoint, cfg.OllamaModel)
	case "genai":
		engine, err = NewGenAIEngine(ctx, cfg.GenAIAPIKey, cfg.GenAIModel)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s (use 'ollama' or 'genai')", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	log.Debug().Str("engine", engine.Name()).Msg("embedding engine ready")
	return engine, nil
}

// CosineSimilarity calculates the cosine similarity between two vectors.
// Returns a value between -1 and 1, where 1 means identical direction.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, fmt.Errorf("%w: lengths %d and %d", ErrNotComparable, len(a), len(b))
	}

	var dot, aMag, bMag float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		aMag += x * x
		bMag += y * y
	}
	if aMag == 0 || bMag == 0 {
		return 0, fmt.Errorf("%w: zero magnitude", ErrNotComparable)
	}
	return dot / (math.Sqrt(aMag) * math.Sqrt(bMag)), nil
}

// Float32s converts stored float64 vectors (as decoded from BSON/JSON) to float32.
func Float32s(in []float64) []float32 {
	if len(in) == 0 {
		return nil
	}
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}

// Float64s is the inverse of Float32s.
func Float64s(in []float32) []float64 {
	if len(in) == 0 {
		return nil
	}
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}
