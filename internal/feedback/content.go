package feedback

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/spigell/talent-suite/internal/courses"
	"github.com/spigell/talent-suite/internal/schemas"
	"github.com/spigell/talent-suite/internal/utils"
)

// Content is everything the feedback report shows.
type Content struct {
	CandidateName     string             `json:"candidate_name" validate:"required"`
	TargetRole        string             `json:"target_role" validate:"required"`
	ProfileSummary    string             `json:"profile_summary" validate:"required"`
	CVAnalysisOutcome string             `json:"cv_analysis_outcome" validate:"required"`
	InterviewOutcome  string             `json:"interview_outcome" validate:"required"`
	SuggestedPathway  []CourseSuggestion `json:"suggested_pathway" validate:"dive"`
	MarketBenchmark   string             `json:"market_benchmark"`
}

// CourseSuggestion is one step of the suggested upskilling pathway.
type CourseSuggestion struct {
	CourseName    string  `json:"course_name" validate:"required"`
	Justification string  `json:"justification"`
	Level         string  `json:"level"`
	DurationHours float64 `json:"duration_hours" validate:"gte=0"`
	URL           string  `json:"url"`
}

// GapAnalysis groups the candidate's skill gaps by family.
type GapAnalysis struct {
	SkillFamilies []SkillFamily `json:"skill_families"`
}

// SkillFamily is a group of related skill gaps.
type SkillFamily struct {
	SkillFamilyGap string     `json:"skill_family_gap"`
	SkillGaps      []SkillGap `json:"skill_gaps"`
}

// SkillGap is one missing or weak skill.
type SkillGap struct {
	SkillGap    string `json:"skill_gap"`
	Description string `json:"description,omitempty"`
}

// Names returns the gap names of the family.
func (f SkillFamily) Names() []string {
	names := make([]string, 0, len(f.SkillGaps))
	for _, g := range f.SkillGaps {
		names = append(names, g.SkillGap)
	}
	return names
}

// FamilyWithCourses is a skill family with the courses retrieved for it.
type FamilyWithCourses struct {
	SkillFamily
	SuggestedCourses []courses.Course `json:"suggested_courses"`
}

// GapsWithCourses is stored as the gaps_with_courses stage.
type GapsWithCourses struct {
	SkillFamiliesWithCourses []FamilyWithCourses `json:"skill_families_with_courses"`
}

var validate = validator.New()

// Validate checks the required fields of the content.
func (c *Content) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid report content: %w", err)
	}
	return nil
}

// decodeModelJSON validates a model answer against schema and decodes it
// into out.
func decodeModelJSON(raw string, schema schemas.Name, out any) error {
	cleaned := utils.StripCodeFences(raw)
	if err := schemas.ValidateJSONString(schema, cleaned); err != nil {
		return err
	}

	var generic any
	if err := json.Unmarshal([]byte(cleaned), &generic); err != nil {
		return fmt.Errorf("decode %s: %w", schema, err)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  out,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(generic); err != nil {
		return fmt.Errorf("decode %s: %w", schema, err)
	}
	return nil
}

func jsonString(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode %T: %w", v, err)
	}
	return string(data), nil
}
