package cv

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/talent-suite/internal/locale"
	"github.com/spigell/talent-suite/internal/nlp"
)

// LanguageDetector decides the locale of a document.
type LanguageDetector interface {
	Detect(text string) string
}

// ConfigSource resolves locale configs.
type ConfigSource interface {
	Load(code string) (*locale.Config, error)
}

// Analyzer is the NLP model used for tokenization and person entities.
type Analyzer interface {
	PeopleFinder
	Tokens(text string) ([]string, error)
}

// Parser turns raw CV text into a Profile.
type Parser struct {
	detector LanguageDetector
	configs  ConfigSource
	analyzer Analyzer
	logger   *zap.Logger
}

// NewParser wires a parser. A nil logger is replaced with a no-op logger.
func NewParser(detector LanguageDetector, configs ConfigSource, analyzer Analyzer, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{
		detector: detector,
		configs:  configs,
		analyzer: analyzer,
		logger:   logger,
	}
}

// NewDefaultParser wires the lingua detector, the embedded locale configs and
// the prose analyzer.
func NewDefaultParser(localeDir string, logger *zap.Logger) *Parser {
	return NewParser(nlp.NewDetector(0), locale.NewLoader(localeDir), nlp.NewProse(), logger)
}

// Parse normalizes text, detects its language and extracts the profile.
// The only error source is a missing locale config.
func (p *Parser) Parse(ctx context.Context, id, raw string) (*Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text := Normalize(raw)

	language := locale.Default
	if p.detector != nil {
		language = p.detector.Detect(text)
	}

	cfg, err := p.configs.Load(language)
	if err != nil {
		return nil, fmt.Errorf("loading %s config: %w", language, err)
	}

	profile := &Profile{
		ID:           id,
		Language:     language,
		PersonalInfo: NewExtractor(p.analyzer).Extract(text, cfg),
		Sections:     Segment(text, cfg.HeaderKeywords),
		Keywords:     []Keyword{},
	}

	if p.analyzer != nil {
		tokens, err := p.analyzer.Tokens(text)
		if err != nil {
			p.logger.Warn("keyword extraction skipped", zap.String("cv_id", id), zap.Error(err))
		} else {
			profile.Keywords = Keywords(tokens, nlp.StopWords(language), TopKeywords)
		}
	}

	p.logger.Debug("cv parsed",
		zap.String("cv_id", id),
		zap.String("language", language),
		zap.Int("sections", len(profile.Sections)),
		zap.Int("keywords", len(profile.Keywords)),
	)

	return profile, nil
}
