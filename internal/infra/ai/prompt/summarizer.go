package prompt

import (
	"fmt"
	"strings"

	domain "github.com/bryanwahyu/lexiguard/internal/domain/analysis"
)

// maxPromptChars caps document text sent upstream to avoid token overflow
const maxPromptChars = 12000

// GetSystemPrompt returns the system role prompt for the verdict generation.
func GetSystemPrompt() string {
	return `You are a Legal Document Intelligence Agent.

You will receive the text of a legal document together with statutory
references already identified in it. Using ONLY that information, generate:

1. A complete overall summary
2. The identified legal sections (IT Act, IPC, Constitution etc.) with
   factual context/explanation for each
3. Red flags (ambiguities, missing data, contradictions)
4. Do NOT provide legal advice
5. End with: "Disclaimer: This is an automated analysis, not legal advice."`
}

// GetUserPrompt builds the user prompt from extracted text and matched references.
func GetUserPrompt(text string, refs []domain.StatuteRef) string {
	var sb strings.Builder
	sb.WriteString("Identified statutory references:\n")
	if len(refs) == 0 {
		sb.WriteString("- none found\n")
	}
	for _, r := range refs {
		if r.Title != "" {
			fmt.Fprintf(&sb, "- %s, Section %s: %s\n", r.Act, r.Section, r.Title)
		} else {
			fmt.Fprintf(&sb, "- %s, Section %s\n", r.Act, r.Section)
		}
	}

	sb.WriteString("\nDocument text:\n---------------------\n")
	sb.WriteString(truncate(text, maxPromptChars))
	sb.WriteString("\n---------------------\n")
	return sb.String()
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
