package cmd

import (
	"context"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/talent-suite/internal/candidates"
	"github.com/spigell/talent-suite/internal/evaluation"
	"github.com/spigell/talent-suite/internal/logger"
	"github.com/spigell/talent-suite/internal/recruitment"
)

var titlesCmd = &cobra.Command{
	Use:   "titles",
	Short: "Rank the current positions of candidates against a job offer",
	Run: func(cmd *cobra.Command, _ []string) {
		titles(cmd)
	},
}

var archetypeCmd = &cobra.Command{
	Use:   "archetype",
	Short: "Build the ideal candidate from the best title matches and compare everyone else with it",
	Run: func(cmd *cobra.Command, _ []string) {
		archetype(cmd)
	},
}

func init() {
	for _, c := range []*cobra.Command{titlesCmd, archetypeCmd} {
		rootCmd.AddCommand(c)

		c.Flags().StringP("offer", "o", "", "plain text file with the job offer (required)")
		c.Flags().String("offer-title", "", "job title. Default is the first non-empty line of the offer")
		c.Flags().StringP("candidates", "c", "", "JSON file with the candidates (required)")
		c.Flags().String("output", "", "write the result to this file instead of stdout")

		c.MarkFlagRequired("offer")
		c.MarkFlagRequired("candidates")
	}

	archetypeCmd.Flags().IntP("top", "n", recruitment.DefaultTopTitles, "number of best title matches forming the archetype")
}

type offerInput struct {
	config    *Config
	logger    *zap.Logger
	offer     evaluation.Offer
	list      []*candidates.Candidate
	providers *providers
}

func loadOfferInput(ctx context.Context, cmd *cobra.Command) *offerInput {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

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

	p, err := newProviders(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("configuring ai provider", zap.Error(err))
	}

	return &offerInput{config: config, logger: logger, offer: offer, list: list, providers: p}
}

func titles(cmd *cobra.Command) {
	ctx := context.Background()
	in := loadOfferInput(ctx, cmd)

	matches, err := recruitment.RankTitles(ctx, in.providers.encoder, in.offer.Text(), in.list)
	if err != nil {
		in.logger.Fatal("ranking titles", zap.Error(err))
	}

	in.logger.Info("titles ranked", zap.Int("count", len(matches)), zap.String("offer_title", in.offer.Title))

	output, _ := cmd.Flags().GetString("output")
	if err := writeJSON(output, matches); err != nil {
		in.logger.Fatal("writing titles", zap.Error(err))
	}
}

func archetype(cmd *cobra.Command) {
	ctx := context.Background()
	in := loadOfferInput(ctx, cmd)

	top, _ := cmd.Flags().GetInt("top")
	result, err := recruitment.Archetype(ctx, in.providers.encoder, in.offer.Text(), in.list, top)
	if err != nil {
		in.logger.Fatal("building the archetype", zap.Error(err))
	}

	in.logger.Info("archetype built",
		zap.Ints("selected", result.Selected),
		zap.Int("compared", len(result.Remaining)),
	)

	// Vectors are too large to print.
	result.Centroid = nil

	output, _ := cmd.Flags().GetString("output")
	if err := writeJSON(output, result); err != nil {
		in.logger.Fatal("writing the archetype", zap.Error(err))
	}
}
