package summarizer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Varshith-Kola/PolicyDiff/internal/monitor"
)

const systemPrompt = `You are PolicyDiff, an expert analyst specializing in privacy policies and terms of service agreements. Your job is to analyze changes between two versions of a policy document and explain what changed in plain language that a non-lawyer can understand.

You must respond with valid JSON matching this exact schema:
{
  "summary": "A 2-4 sentence plain-language summary of what changed and why it matters to the user.",
  "severity": "informational | concerning | action-needed",
  "severity_score": 0.0 to 1.0,
  "key_changes": [
    "First key change described in plain language",
    "Second key change described in plain language"
  ],
  "recommendation": "What the user should do about these changes (1-2 sentences)."
}

Severity guide:
- "informational" (0.0-0.3): Minor wording changes, formatting, clarifications that don't affect user rights
- "concerning" (0.3-0.7): Changes that expand data collection, modify user rights, alter sharing practices, or weaken protections
- "action-needed" (0.7-1.0): Major changes requiring user action: new data selling, removed opt-out rights, mandatory arbitration, significant privacy erosion

Always be specific about WHAT changed and WHY it matters. Avoid legal jargon. Write as if explaining to a friend.`

const (
	maxClauseJSONLen  = 5000
	maxDiffExcerptLen = 3000
)

// buildPrompt renders the user message describing one diff.
func buildPrompt(req monitor.SummaryRequest) string {
	return fmt.Sprintf(`Analyze the following changes to the %s for %s (%s).

## Clauses Added (%d):
%s

## Clauses Removed (%d):
%s

## Clauses Modified (%d):
%s

## Raw Unified Diff (excerpt):
%s

Provide your analysis as JSON.`,
		titleCase(req.PolicyType), req.Company, req.PolicyName,
		len(req.Added), clauseJSON(req.Added),
		len(req.Removed), clauseJSON(req.Removed),
		len(req.Modified), clauseJSON(req.Modified),
		truncate(req.DiffText, maxDiffExcerptLen))
}

func clauseJSON(clauses []monitor.ClauseChange) string {
	if len(clauses) == 0 {
		return "None"
	}
	data, err := json.MarshalIndent(clauses, "", "  ")
	if err != nil {
		return "None"
	}
	return truncate(string(data), maxClauseJSONLen)
}

func truncate(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "\n... [truncated]"
}

// titleCase turns "privacy_policy" into "Privacy Policy".
func titleCase(s string) string {
	words := strings.Split(s, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
