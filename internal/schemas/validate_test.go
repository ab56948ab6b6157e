package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedSchemasCompile(t *testing.T) {
	t.Parallel()

	for _, name := range []Name{Evaluation, GapAnalysis, FeedbackContent, CourseCatalog} {
		_, err := load(name)
		require.NoError(t, err, "schema %s", name)
	}
}

func TestValidateEvaluation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{name: "valid", doc: `{"results":[{"ID":1,"scartato":false,"motivazione":"ok"}]}`},
		{name: "empty results", doc: `{"results":[]}`},
		{name: "missing results", doc: `{"items":[]}`, wantErr: true},
		{name: "string id", doc: `{"results":[{"ID":"1","scartato":false,"motivazione":"ok"}]}`, wantErr: true},
		{name: "missing reason", doc: `{"results":[{"ID":1,"scartato":true}]}`, wantErr: true},
		{name: "fractional id", doc: `{"results":[{"ID":1.5,"scartato":true,"motivazione":"x"}]}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateJSONString(Evaluation, tt.doc)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.NotEmpty(t, verr.Errors)
		})
	}
}

func TestValidateMalformedDocument(t *testing.T) {
	t.Parallel()

	err := ValidateJSONString(Evaluation, `{"results": [`)

	var derr *DocumentError
	assert.True(t, errors.As(err, &derr), "expected DocumentError, got %v", err)
}

func TestValidateUnknownSchema(t *testing.T) {
	t.Parallel()

	err := ValidateJSONString(Name("nope"), `{}`)

	var lerr *SchemaLoadError
	assert.True(t, errors.As(err, &lerr), "expected SchemaLoadError, got %v", err)
}

func TestValidateFeedbackContent(t *testing.T) {
	t.Parallel()

	doc := `{
		"profile_summary": "s",
		"cv_analysis_outcome": "c",
		"interview_outcome": "i",
		"suggested_pathway": [{"course_name": "Go", "justification": "j", "level": "base", "duration_hours": 10, "url": "https://x"}],
		"market_benchmark": "m"
	}`
	assert.NoError(t, ValidateJSONString(FeedbackContent, doc))

	err := ValidateJSONString(FeedbackContent, `{"profile_summary": "s"}`)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "feedback_content validation failed")
}
