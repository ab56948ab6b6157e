package cmd

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/talent-suite/internal/store"
)

var positionsCmd = &cobra.Command{
	Use:   "positions",
	Short: "Manage open job positions",
}

var positionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the known positions",
	Run: func(_ *cobra.Command, _ []string) {
		listPositions()
	},
}

var positionsUpsertCmd = &cobra.Command{
	Use:   "upsert <id> <name>",
	Short: "Create or update a position",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		upsertPosition(cmd, args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(positionsCmd)
	positionsCmd.AddCommand(positionsListCmd, positionsUpsertCmd)

	positionsUpsertCmd.Flags().String("payload", "", "JSON file with extra position details")
}

func listPositions() {
	ctx := context.Background()

	logger, config := commandSetup()

	db, err := connectStore(ctx, config.Database, logger)
	if err != nil {
		logger.Fatal("connecting to the database", zap.Error(err))
	}
	defer db.Close()

	positions, err := db.ListPositions(ctx)
	if err != nil {
		logger.Fatal("listing positions", zap.Error(err))
	}

	if positions == nil {
		positions = []store.Position{}
	}
	if err := writeJSON("", positions); err != nil {
		logger.Fatal("writing positions", zap.Error(err))
	}
}

func upsertPosition(cmd *cobra.Command, id, name string) {
	ctx := context.Background()

	logger, config := commandSetup()

	position := store.Position{ID: id, Name: name}

	if path, _ := cmd.Flags().GetString("payload"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Fatal("reading the payload", zap.Error(err), zap.String("path", path))
		}
		if err := json.Unmarshal(data, &position.Payload); err != nil {
			logger.Fatal("decoding the payload", zap.Error(err), zap.String("path", path))
		}
	}

	db, err := connectStore(ctx, config.Database, logger)
	if err != nil {
		logger.Fatal("connecting to the database", zap.Error(err))
	}
	defer db.Close()

	if err := db.UpsertPosition(ctx, position); err != nil {
		logger.Fatal("saving the position", zap.Error(err))
	}

	logger.Info("position saved", zap.String("position_id", id), zap.String("position_name", name))
}
