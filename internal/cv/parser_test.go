package cv

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/talent-suite/internal/locale"
)

type fixedDetector string

func (d fixedDetector) Detect(string) string { return string(d) }

type fieldsAnalyzer struct {
	tokenErr error
}

func (a fieldsAnalyzer) Tokens(text string) ([]string, error) {
	if a.tokenErr != nil {
		return nil, a.tokenErr
	}
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == '\n' || r == ',' || r == ':'
	}), nil
}

func (fieldsAnalyzer) People(string) ([]string, error) { return nil, nil }

const italianCV = `Nome: Mario
Cognome: Rossi
Indirizzo: Via Roma 12, Milano
Email: mario.rossi@example.com
Telefono: +39 333 1234567
ESPERIENZA
Sviluppatore Go presso Acme
Go Kubernetes Go
ISTRUZIONE
Laurea in Informatica
Lingue
Inglese fluente, francese scolastico
Certificazione AWS Solutions Architect
`

func TestParseItalianCV(t *testing.T) {
	t.Parallel()

	parser := NewParser(fixedDetector("it"), locale.NewLoader(""), fieldsAnalyzer{}, nil)

	profile, err := parser.Parse(context.Background(), "cv-1", italianCV)
	require.NoError(t, err)

	assert.Equal(t, "cv-1", profile.ID)
	assert.Equal(t, "it", profile.Language)

	pi := profile.PersonalInfo
	assert.Equal(t, "Mario", pi.FirstName)
	assert.Equal(t, "Rossi", pi.LastName)
	assert.Equal(t, "Via Roma 12, Milano", pi.Address)
	assert.Equal(t, []string{"mario.rossi@example.com"}, pi.Emails)
	assert.Equal(t, []string{"+39 333 1234567"}, pi.PhoneNumbers)
	assert.Equal(t, []string{"Inglese", "Francese"}, pi.LanguageSkills)
	assert.Equal(t, []string{"Certificazione Aws Solutions Architect"}, pi.Certifications)

	experience, ok := profile.Sections.Get("esperienza")
	require.True(t, ok)
	assert.Equal(t, "Sviluppatore Go presso Acme Go Kubernetes Go", experience)

	education, ok := profile.Sections.Get("istruzione")
	require.True(t, ok)
	assert.Equal(t, "Laurea in Informatica", education)

	require.NotEmpty(t, profile.Keywords)
	assert.Equal(t, Keyword{Word: "go", Count: 3}, profile.Keywords[0])
	for _, kw := range profile.Keywords {
		assert.NotEqual(t, "in", kw.Word)
	}
}

func TestParseKeepsProfileWhenTokenizerFails(t *testing.T) {
	t.Parallel()

	parser := NewParser(fixedDetector("en"), locale.NewLoader(""), fieldsAnalyzer{tokenErr: errors.New("model missing")}, nil)

	profile, err := parser.Parse(context.Background(), "cv-2", "John Smith\njohn@example.com")
	require.NoError(t, err)
	assert.Empty(t, profile.Keywords)
	assert.Equal(t, "John", profile.PersonalInfo.FirstName)
}

func TestParseUnknownLocale(t *testing.T) {
	t.Parallel()

	parser := NewParser(fixedDetector("xx"), locale.NewLoader(""), fieldsAnalyzer{}, nil)

	_, err := parser.Parse(context.Background(), "cv-3", "text")
	assert.ErrorIs(t, err, locale.ErrConfigNotFound)
}

func TestParseHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewParser(fixedDetector("en"), locale.NewLoader(""), nil, nil).Parse(ctx, "cv-4", "text")
	assert.ErrorIs(t, err, context.Canceled)
}
