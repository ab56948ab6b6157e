package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/talent-suite/internal/logger"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage interview sessions",
}

var sessionCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an interview session and print its id",
	Run: func(cmd *cobra.Command, _ []string) {
		createSession(cmd)
	},
}

var sessionSetStageCmd = &cobra.Command{
	Use:   "set-stage <session-id> <stage> <file>",
	Short: "Store a file as a session stage, e.g. cv_analysis_report or case_evaluation_report",
	Args:  cobra.ExactArgs(3),
	Run: func(_ *cobra.Command, args []string) {
		setSessionStage(args[0], args[1], args[2])
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionCreateCmd, sessionSetStageCmd)

	sessionCreateCmd.Flags().StringP("position", "p", "", "position id (required)")
	sessionCreateCmd.Flags().StringP("candidate", "n", "", "candidate name")
	sessionCreateCmd.Flags().String("id", "", "session id. Default is a random uuid")

	sessionCreateCmd.MarkFlagRequired("position")
}

func createSession(cmd *cobra.Command) {
	ctx := context.Background()

	logger, config := commandSetup()

	db, err := connectStore(ctx, config.Database, logger)
	if err != nil {
		logger.Fatal("connecting to the database", zap.Error(err))
	}
	defer db.Close()

	positionID, _ := cmd.Flags().GetString("position")
	candidate, _ := cmd.Flags().GetString("candidate")
	id, _ := cmd.Flags().GetString("id")
	if strings.TrimSpace(id) == "" {
		id = uuid.NewString()
	}

	if err := db.CreateSession(ctx, id, positionID, candidate); err != nil {
		logger.Fatal("creating the session", zap.Error(err))
	}

	fmt.Println(id)
}

func setSessionStage(sessionID, stage, path string) {
	ctx := context.Background()

	logger, config := commandSetup()

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Fatal("reading the stage file", zap.Error(err), zap.String("path", path))
	}

	// Reports are usually markdown or plain text, structured stages are JSON.
	var value any = string(data)
	if json.Valid(data) {
		value = json.RawMessage(data)
	}

	db, err := connectStore(ctx, config.Database, logger)
	if err != nil {
		logger.Fatal("connecting to the database", zap.Error(err))
	}
	defer db.Close()

	if err := db.SetStage(ctx, sessionID, stage, value); err != nil {
		logger.Fatal("setting the stage", zap.Error(err), zap.String("session_id", sessionID))
	}

	logger.Info("stage stored", zap.String("session_id", sessionID), zap.String("stage", stage))
}

func commandSetup() (*zap.Logger, *Config) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	return logger, config
}
