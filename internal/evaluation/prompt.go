package evaluation

import (
	"fmt"
	"strconv"
	"strings"

	_ "embed"
)

//go:embed prompts/system.md
var systemPrompt string

//go:embed prompts/user.md
var userTemplate string

func buildSystemPrompt() string {
	return strings.TrimSpace(systemPrompt)
}

func buildUserPrompt(offer Offer, dossiers []Dossier) string {
	var candidates strings.Builder
	for _, d := range dossiers {
		fmt.Fprintf(&candidates, "\n--- CANDIDATO %d ---\nID: %d\nSCORE: %.4f\nPOSIZIONE: %s\nDESCRIZIONE: %s\n-----------------------\n",
			d.Index+1, d.ID, d.Score, d.CurrentPosition, d.EnrichedDescription)
	}

	// Single pass: placeholders inside substituted values stay literal.
	prompt := strings.NewReplacer(
		"{{OFFER_TITLE}}", offer.Title,
		"{{OFFER_DESCRIPTION}}", offer.Description,
		"{{CANDIDATES}}", candidates.String(),
		"{{MAX_REASON_WORDS}}", strconv.Itoa(MaxReasonWords),
	).Replace(userTemplate)
	return strings.TrimSpace(prompt)
}
