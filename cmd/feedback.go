package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/talent-suite/internal/feedback"
	"github.com/spigell/talent-suite/internal/report"
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback <session-id>",
	Short: "Build the feedback report of an interview session",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		generateFeedback(args[0])
	},
}

func init() {
	rootCmd.AddCommand(feedbackCmd)

	feedbackCmd.Flags().String("artifacts-dir", "", "directory for local reports. Default is data")
	viper.BindPFlag("artifacts.dir", feedbackCmd.Flags().Lookup("artifacts-dir"))
}

func generateFeedback(sessionID string) {
	ctx := context.Background()

	logger, config := commandSetup()

	db, err := connectStore(ctx, config.Database, logger)
	if err != nil {
		logger.Fatal("connecting to the database", zap.Error(err))
	}
	defer db.Close()

	artifacts, err := newArtifacts(ctx, config.Artifacts, logger)
	if err != nil {
		logger.Fatal("configuring the artifact store", zap.Error(err))
	}

	p, err := newProviders(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("configuring ai provider", zap.Error(err))
	}

	retriever, err := newCourseRetriever(config.Qdrant, p.encoder, logger)
	if err != nil {
		logger.Fatal("connecting to the course index", zap.Error(err))
	}

	pipeline, err := feedback.New(feedback.Deps{
		Sessions:  db,
		Positions: db,
		Artifacts: artifacts,
		Chat:      p.chat,
		Courses:   retriever,
		Renderer:  report.New(),
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal("creating the feedback pipeline", zap.Error(err))
	}

	location, err := pipeline.Run(ctx, sessionID)
	if err != nil {
		logger.Fatal("building feedback", zap.Error(err), zap.String("session_id", sessionID))
	}

	logger.Info("feedback report saved", zap.String("session_id", sessionID), zap.String("location", location))
}
