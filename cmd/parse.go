package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/talent-suite/internal/cv"
	"github.com/spigell/talent-suite/internal/document"
	"github.com/spigell/talent-suite/internal/logger"
	"github.com/spigell/talent-suite/internal/store"
)

var parseCmd = &cobra.Command{
	Use:   "parse <cv-file>...",
	Short: "Parse CV documents into structured profiles",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		parse(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().String("locale-dir", "", "directory with config_<lang>.json overrides")
	parseCmd.Flags().StringP("session", "s", "", "store the profile as the parsed_cv stage of this session (single file only)")
	parseCmd.Flags().StringP("output", "o", "", "write the profiles to this file instead of stdout")

	viper.BindPFlag("locale-dir", parseCmd.Flags().Lookup("locale-dir"))
}

func parse(cmd *cobra.Command, files []string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	sessionID, _ := cmd.Flags().GetString("session")
	if sessionID != "" && len(files) != 1 {
		logger.Fatal("a session takes exactly one cv", zap.Int("files", len(files)))
	}

	extractor := document.NewExtractor()
	parser := cv.NewDefaultParser(config.LocaleDir, logger)

	profiles := make([]*cv.Profile, 0, len(files))
	for _, path := range files {
		if !document.Supported(path) {
			logger.Warn("skipping unsupported file", zap.String("path", path))
			continue
		}

		text, err := extractor.ExtractText(path)
		if err != nil {
			logger.Error("extracting text", zap.String("path", path), zap.Error(err))
			continue
		}

		id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		profile, err := parser.Parse(ctx, id, text)
		if err != nil {
			logger.Fatal("parsing cv", zap.String("path", path), zap.Error(err))
		}

		logger.Info("cv parsed",
			zap.String("cv_id", profile.ID),
			zap.String("language", profile.Language),
			zap.Int("sections", len(profile.Sections)),
		)
		profiles = append(profiles, profile)
	}

	if sessionID != "" && len(profiles) == 1 {
		if err := storeProfile(ctx, config, sessionID, profiles[0], logger); err != nil {
			logger.Fatal("storing the profile", zap.Error(err), zap.String("session_id", sessionID))
		}
	}

	output, _ := cmd.Flags().GetString("output")
	if err := writeJSON(output, profiles); err != nil {
		logger.Fatal("writing profiles", zap.Error(err))
	}
}

func storeProfile(ctx context.Context, config *Config, sessionID string, profile *cv.Profile, logger *zap.Logger) error {
	db, err := connectStore(ctx, config.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.SetStage(ctx, sessionID, store.StageParsedCV, profile); err != nil {
		return err
	}
	logger.Info("profile stored", zap.String("session_id", sessionID), zap.String("stage", store.StageParsedCV))
	return nil
}

// writeJSON prints v to stdout when path is empty.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
