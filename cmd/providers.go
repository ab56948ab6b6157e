package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/talent-suite/internal/ai/gemini"
	"github.com/spigell/talent-suite/internal/embedding"
	"github.com/spigell/talent-suite/internal/evaluation"
	"github.com/spigell/talent-suite/internal/secrets"
	"github.com/spigell/talent-suite/internal/store"
)

type providers struct {
	chat    *gemini.Generator
	encoder *embedding.Engine
}

func newProviders(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (*providers, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  cfg.Gemini.APIKeyFile,
		Value: cfg.Gemini.APIKey,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	client, err := gemini.NewClient(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	opts := gemini.Options{
		Model:          cfg.Gemini.Model,
		EmbeddingModel: cfg.Gemini.EmbeddingModel,
		MaxRetries:     cfg.Gemini.MaxRetries,
		RequestTimeout: cfg.Gemini.RequestTimeout,
	}

	chat, err := gemini.NewGenerator(client, opts, logger)
	if err != nil {
		return nil, err
	}

	embedder, err := gemini.NewEmbedder(client, opts, logger)
	if err != nil {
		return nil, err
	}

	encoder, err := embedding.New(embedder, logger)
	if err != nil {
		return nil, err
	}

	return &providers{chat: chat, encoder: encoder}, nil
}

func connectStore(ctx context.Context, cfg *DatabaseConfig, logger *zap.Logger) (*store.Postgres, error) {
	if cfg == nil || strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("database url is not configured (set database.url or DATABASE_URL)")
	}

	db, err := store.Connect(ctx, cfg.URL, logger)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return db, nil
}

// newArtifacts prefers MinIO when an endpoint is configured.
func newArtifacts(ctx context.Context, cfg *ArtifactsConfig, logger *zap.Logger) (store.ArtifactStore, error) {
	if cfg != nil && cfg.MinIO != nil && strings.TrimSpace(cfg.MinIO.Endpoint) != "" {
		return store.NewMinIOArtifacts(ctx, *cfg.MinIO, logger)
	}

	dir := ""
	if cfg != nil {
		dir = cfg.Dir
	}
	return store.NewLocalArtifacts(dir), nil
}

// loadOffer reads a plain text offer. The title is the first non-empty line
// unless given explicitly.
func loadOffer(path, title string) (evaluation.Offer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return evaluation.Offer{}, fmt.Errorf("reading offer: %w", err)
	}
	return parseOffer(string(data), title), nil
}

func parseOffer(text, title string) evaluation.Offer {
	title = strings.TrimSpace(title)
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	if title == "" {
		for i, line := range lines {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				title = trimmed
				lines = lines[i+1:]
				break
			}
		}
	}

	return evaluation.Offer{
		Title:       title,
		Description: strings.TrimSpace(strings.Join(lines, "\n")),
	}
}
