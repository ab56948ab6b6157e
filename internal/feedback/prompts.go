package feedback

import (
	"strings"

	_ "embed"
)

var (
	//go:embed prompts/system.md
	systemPrompt string
	//go:embed prompts/consolidate.md
	consolidateTemplate string
	//go:embed prompts/gaps.md
	gapsTemplate string
	//go:embed prompts/query.md
	queryTemplate string
	//go:embed prompts/content.md
	contentTemplate string
)

func render(template string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for key, value := range values {
		pairs = append(pairs, "{{"+key+"}}", value)
	}
	return strings.TrimSpace(strings.NewReplacer(pairs...).Replace(template))
}
