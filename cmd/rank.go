package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/talent-suite/internal/candidates"
	"github.com/spigell/talent-suite/internal/evaluation"
	"github.com/spigell/talent-suite/internal/logger"
	"github.com/spigell/talent-suite/internal/recruitment"
)

const (
	PromptYes             = "Yes"
	PromptNo              = "No"
	PromptShowVerdicts    = "Show verdicts"
	PromptVerdictsToFile  = "Dump verdicts to file"
	defaultOutputFileName = "ranking_results.json"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Save the results?",
	Items: []string{PromptYes, PromptNo, PromptShowVerdicts, PromptVerdictsToFile},
}

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank candidates against a job offer",
	Run: func(cmd *cobra.Command, _ []string) {
		rank(cmd)
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().StringP("offer", "o", "", "plain text file with the job offer (required)")
	rankCmd.Flags().String("offer-title", "", "job title. Default is the first non-empty line of the offer")
	rankCmd.Flags().StringP("candidates", "c", "", "JSON file with the candidates (required)")
	rankCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before saving the results")
	rankCmd.Flags().StringP("exclude-file", "e", "", "special file with candidates to exclude. Default is unset.")
	rankCmd.Flags().Bool("exclude-rejected", false, "append rejected candidates to the exclude file")
	rankCmd.Flags().Float64P("threshold", "t", recruitment.DefaultThreshold, "minimum affinity score for the model evaluation")
	rankCmd.Flags().Int("batch-size", evaluation.DefaultMaxBatchSize, "candidates per model request")
	rankCmd.Flags().Duration("pause", recruitment.DefaultPause, "pause between model requests")
	rankCmd.Flags().String("output-file", defaultOutputFileName, "file the verdicts are written to")
	rankCmd.Flags().Bool("no-db", false, "do not save the results in the database")

	rankCmd.MarkFlagRequired("offer")
	rankCmd.MarkFlagRequired("candidates")

	viper.BindPFlag("ranking.exclude-file", rankCmd.Flags().Lookup("exclude-file"))
	viper.BindPFlag("ranking.threshold", rankCmd.Flags().Lookup("threshold"))
	viper.BindPFlag("ranking.batch-size", rankCmd.Flags().Lookup("batch-size"))
	viper.BindPFlag("ranking.pause", rankCmd.Flags().Lookup("pause"))
	viper.BindPFlag("ranking.output-file", rankCmd.Flags().Lookup("output-file"))
}

func rank(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the ranking", zap.String("version", version))

	offerPath, _ := cmd.Flags().GetString("offer")
	offerTitle, _ := cmd.Flags().GetString("offer-title")
	offer, err := loadOffer(offerPath, offerTitle)
	if err != nil {
		logger.Fatal("loading the offer", zap.Error(err))
	}

	candidatesPath, _ := cmd.Flags().GetString("candidates")
	list, err := candidates.Load(candidatesPath)
	if err != nil {
		logger.Fatal("loading candidates", zap.Error(err), zap.String("path", candidatesPath))
	}

	if len(list) == 0 {
		logger.Info("exiting", zap.String("reason", "no candidates found"))
		return
	}

	logger.Info("ranking candidates",
		zap.String("offer_title", offer.Title),
		zap.Int("candidates", len(list)),
	)

	p, err := newProviders(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("configuring ai provider", zap.Error(err))
	}

	evaluator := evaluation.New(p.chat, evaluation.Options{
		MaxLogLength: config.AI.Gemini.MaxLogLength,
	}, logger)

	sinks := []recruitment.ResultSink{recruitment.NewFileSink(config.Ranking.OutputFile)}

	noDB, _ := cmd.Flags().GetBool("no-db")
	if !noDB && config.Database.URL != "" {
		db, err := connectStore(ctx, config.Database, logger)
		if err != nil {
			logger.Fatal("connecting to the database", zap.Error(err))
		}
		defer db.Close()
		sinks = append(sinks, db)
	}

	if cmd.Flag("auto-approve").Value.String() == "false" {
		sinks = []recruitment.ResultSink{&confirmSink{sinks: sinks, logger: logger}}
	}

	excludeRejected, _ := cmd.Flags().GetBool("exclude-rejected")

	pipeline, err := recruitment.New(recruitment.Deps{
		Encoder:   p.encoder,
		Evaluator: evaluator,
		Sinks:     sinks,
		Logger:    logger,
	}, recruitment.Options{
		Threshold:       config.Ranking.Threshold,
		BatchSize:       config.Ranking.BatchSize,
		Pause:           config.Ranking.Pause,
		ExcludeFile:     config.Ranking.ExcludeFile,
		ExcludeRejected: excludeRejected,
	})
	if err != nil {
		logger.Fatal("creating the pipeline", zap.Error(err))
	}

	result, err := pipeline.Run(ctx, offer, list)
	if err != nil {
		logger.Fatal("ranking failed", zap.Error(err), zap.String("stage", pipeline.Stage().String()))
	}

	failed := 0
	for _, b := range result.Batches {
		if b.Err != nil {
			failed++
		}
	}

	logger.Info("ranking completed",
		zap.String("run_id", result.RunID),
		zap.Int("qualified", len(result.Qualified)),
		zap.Int("verdicts", len(result.Verdicts)),
		zap.Int("rejected", len(result.Rejected())),
		zap.Int("failed_batches", failed),
		zap.Int("embedding_calls", p.encoder.Calls()),
	)
}

// confirmSink asks before handing the run to the real sinks.
type confirmSink struct {
	sinks  []recruitment.ResultSink
	logger *zap.Logger
}

func (s *confirmSink) Name() string { return "confirm" }

func (s *confirmSink) SaveResults(ctx context.Context, run *recruitment.Run) error {
	for {
		_, action, err := prompt.Run()
		if err != nil {
			return err
		}

		err = s.handleAction(ctx, action, run)
		if errors.Is(err, errExit) {
			return nil
		}
		if err != nil {
			return err
		}
		if action == PromptYes {
			return nil
		}
	}
}

func (s *confirmSink) handleAction(ctx context.Context, action string, run *recruitment.Run) error {
	switch action {
	case PromptYes:
		for _, sink := range s.sinks {
			if err := sink.SaveResults(ctx, run); err != nil {
				s.logger.Error("saving results failed", zap.String("sink", sink.Name()), zap.Error(err))
				continue
			}
			s.logger.Info("results saved", zap.String("sink", sink.Name()))
		}
		return nil
	case PromptNo:
		s.logger.Info("results are not saved", zap.String("reason", "got no from prompt"))
		return errExit
	case PromptShowVerdicts:
		pretty, _ := json.MarshalIndent(run.Verdicts, "", "  ")
		s.logger.Info(string(pretty), zap.Int("verdicts count", len(run.Verdicts)))
		return nil
	case PromptVerdictsToFile:
		filename, err := dumpToTmpFile(run.Verdicts)
		if err != nil {
			return fmt.Errorf("dump verdicts to file: %w", err)
		}
		s.logger.Info("dumping verdicts to file", zap.String("filename", filename))
		return nil
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func dumpToTmpFile(v any) (string, error) {
	file, err := os.CreateTemp("", app+"-verdicts-*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return file.Name(), nil
}
