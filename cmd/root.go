package cmd

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/talent-suite/internal/courses"
	"github.com/spigell/talent-suite/internal/store"
)

const (
	app = "talent-suite"
)

type Config struct {
	LocaleDir string                `mapstructure:"locale-dir"`
	Ranking   *RankingConfig        `mapstructure:"ranking"`
	AI        *AIConfig             `mapstructure:"ai"`
	Database  *DatabaseConfig       `mapstructure:"database"`
	Artifacts *ArtifactsConfig      `mapstructure:"artifacts"`
	Qdrant    *courses.QdrantConfig `mapstructure:"qdrant"`
}

type RankingConfig struct {
	Threshold   float64       `mapstructure:"threshold"`
	BatchSize   int           `mapstructure:"batch-size"`
	Pause       time.Duration `mapstructure:"pause"`
	ExcludeFile string        `mapstructure:"exclude-file"`
	OutputFile  string        `mapstructure:"output-file"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey         string        `mapstructure:"api-key"`
	APIKeyFile     string        `mapstructure:"api-key-file"`
	Model          string        `mapstructure:"model"`
	EmbeddingModel string        `mapstructure:"embedding-model"`
	MaxRetries     int           `mapstructure:"max-retries"`
	RequestTimeout time.Duration `mapstructure:"request-timeout"`
	MaxLogLength   int           `mapstructure:"max-log-length"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type ArtifactsConfig struct {
	Dir   string             `mapstructure:"dir"`
	MinIO *store.MinIOConfig `mapstructure:"minio"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "talent-suite parses CVs, ranks candidates against job offers and writes feedback reports",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// .env is optional, real environment always wins.
	_ = godotenv.Load()

	viper.SetEnvPrefix("TALENT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("ai.gemini.api-key", "GEMINI_API_KEY"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY environment variable: %v", err)
	}
	if err := viper.BindEnv("database.url", "DATABASE_URL"); err != nil {
		log.Fatalf("binding DATABASE_URL environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is talent-suite.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
		viper.SetConfigType("yaml")
	}

	// Every command can run from flags and env alone, so only an explicit
	// or broken config file is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	config := &Config{
		Ranking:   &RankingConfig{},
		AI:        &AIConfig{Gemini: &GeminiConfig{}},
		Database:  &DatabaseConfig{},
		Artifacts: &ArtifactsConfig{},
		Qdrant:    &courses.QdrantConfig{},
	}
	if err := viper.Unmarshal(config); err != nil {
		return config, err
	}

	// Keys that only come from the environment are not visited by Unmarshal.
	if config.AI.Gemini.APIKeyFile == "" {
		config.AI.Gemini.APIKeyFile = viper.GetString("ai.gemini.api-key-file")
	}
	if config.AI.Gemini.APIKey == "" {
		config.AI.Gemini.APIKey = viper.GetString("ai.gemini.api-key")
	}
	if config.Database.URL == "" {
		config.Database.URL = viper.GetString("database.url")
	}

	return config, nil
}
