package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/talent-suite/internal/courses"
)

const (
	defaultQdrantURL        = "http://localhost:6334"
	defaultQdrantCollection = "courses"
)

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "Manage the course catalog used for upskilling suggestions",
}

var coursesIngestCmd = &cobra.Command{
	Use:   "ingest <catalog.json>",
	Short: "Embed a course catalog and store it in the vector index",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		ingestCourses(args[0])
	},
}

func init() {
	rootCmd.AddCommand(coursesCmd)
	coursesCmd.AddCommand(coursesIngestCmd)
}

// newCourseRetriever connects the course index with defaults for a local Qdrant.
func newCourseRetriever(cfg *courses.QdrantConfig, encoder courses.Encoder, logger *zap.Logger) (*courses.Retriever, error) {
	qc := courses.QdrantConfig{URL: defaultQdrantURL, Collection: defaultQdrantCollection}
	if cfg != nil {
		if strings.TrimSpace(cfg.URL) != "" {
			qc.URL = cfg.URL
		}
		if strings.TrimSpace(cfg.Collection) != "" {
			qc.Collection = cfg.Collection
		}
		qc.APIKey = cfg.APIKey
	}

	index, err := courses.NewQdrantIndex(qc)
	if err != nil {
		return nil, err
	}
	return courses.NewRetriever(encoder, index, logger), nil
}

func ingestCourses(path string) {
	ctx := context.Background()

	logger, config := commandSetup()

	catalog, err := courses.LoadCatalog(path)
	if err != nil {
		logger.Fatal("loading the catalog", zap.Error(err), zap.String("path", path))
	}

	p, err := newProviders(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("configuring ai provider", zap.Error(err))
	}

	retriever, err := newCourseRetriever(config.Qdrant, p.encoder, logger)
	if err != nil {
		logger.Fatal("connecting to the course index", zap.Error(err))
	}

	count, err := retriever.Ingest(ctx, catalog)
	if err != nil {
		logger.Fatal("ingesting courses", zap.Error(err))
	}

	logger.Info("courses ingested", zap.Int("count", count), zap.Int("catalog", len(catalog)))
}
