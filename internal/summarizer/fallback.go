package summarizer

import (
	"fmt"

	"github.com/Varshith-Kola/PolicyDiff/internal/monitor"
)

const maxKeyChanges = 10

// Fallback produces a deterministic local analysis when no remote model
// is configured or reachable. Severity leans conservative: any removed
// section is concerning, as is a large batch of changes.
func Fallback(req monitor.SummaryRequest) monitor.Analysis {
	total := len(req.Added) + len(req.Removed) + len(req.Modified)

	var (
		severity monitor.Severity
		score    float64
	)
	switch {
	case total == 0:
		severity, score = monitor.SeverityInformational, 0.1
	case len(req.Removed) > 0:
		severity, score = monitor.SeverityConcerning, 0.5
	case total > 3:
		severity, score = monitor.SeverityConcerning, 0.4
	default:
		severity, score = monitor.SeverityInformational, 0.2
	}

	var changes []string
	for _, c := range req.Added {
		changes = append(changes, "New section added: "+sectionName(c))
	}
	for _, c := range req.Removed {
		changes = append(changes, "Section removed: "+sectionName(c))
	}
	for _, c := range req.Modified {
		changes = append(changes, "Section modified: "+sectionName(c))
	}
	if len(changes) > maxKeyChanges {
		changes = changes[:maxKeyChanges]
	}

	return monitor.Analysis{
		Summary: fmt.Sprintf(
			"Detected %d changes: %d sections added, %d removed, %d modified. Configure an OpenAI API key for detailed plain-language analysis.",
			total, len(req.Added), len(req.Removed), len(req.Modified)),
		Severity:       severity,
		SeverityScore:  score,
		KeyChanges:     changes,
		Recommendation: "Review the changes in the diff view to understand what was modified.",
	}
}

func sectionName(c monitor.ClauseChange) string {
	if c.Section == "" {
		return "Unknown"
	}
	return c.Section
}
