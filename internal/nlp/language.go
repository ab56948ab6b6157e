package nlp

import (
	"strings"

	"github.com/pemistahl/lingua-go"

	"github.com/spigell/talent-suite/internal/locale"
)

// DefaultSampleTokens is how many leading whitespace tokens decide the
// language of a document.
const DefaultSampleTokens = 400

// Detector classifies text as one of the supported locales.
type Detector struct {
	detector     lingua.LanguageDetector
	sampleTokens int
}

// NewDetector builds a detector restricted to Italian and English. A
// non-positive sampleTokens uses DefaultSampleTokens.
func NewDetector(sampleTokens int) *Detector {
	if sampleTokens <= 0 {
		sampleTokens = DefaultSampleTokens
	}

	return &Detector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromLanguages(lingua.Italian, lingua.English).
			Build(),
		sampleTokens: sampleTokens,
	}
}

// Detect returns "it" or "en". Anything the model cannot decide collapses to
// locale.Default.
func (d *Detector) Detect(text string) string {
	sample := Sample(text, d.sampleTokens)
	if sample == "" || d.detector == nil {
		return locale.Default
	}

	lang, ok := d.detector.DetectLanguageOf(sample)
	if !ok {
		return locale.Default
	}

	switch lang {
	case lingua.Italian:
		return locale.Italian
	case lingua.English:
		return locale.English
	default:
		return locale.Default
	}
}

// Sample returns the first n whitespace separated tokens of text joined by a
// single space.
func Sample(text string, n int) string {
	fields := strings.Fields(text)
	if n > 0 && len(fields) > n {
		fields = fields[:n]
	}
	return strings.Join(fields, " ")
}
