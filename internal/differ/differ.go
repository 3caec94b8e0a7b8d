// Package differ computes clause-level changes between two versions of a
// policy document, plus unified-text and side-by-side HTML renderings.
package differ

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/Varshith-Kola/PolicyDiff/internal/monitor"
)

// Options tunes fuzzy clause matching. Heading and content similarity are
// blended with the two weights; a combined score below FuzzyThreshold
// means no match.
type Options struct {
	HeadingWeight  float64
	ContentWeight  float64
	FuzzyThreshold float64
}

// DefaultOptions matches renamed sections when the blended similarity of
// heading (40%) and content (60%) reaches 0.6.
func DefaultOptions() Options {
	return Options{
		HeadingWeight:  0.4,
		ContentWeight:  0.6,
		FuzzyThreshold: 0.6,
	}
}

// Differ compares policy snapshots.
type Differ struct {
	opts Options
}

func New(opts Options) *Differ {
	return &Differ{opts: opts}
}

// Result holds every rendering of a snapshot comparison.
type Result struct {
	DiffText string
	DiffHTML string
	Added    []monitor.ClauseChange
	Removed  []monitor.ClauseChange
	Modified []monitor.ClauseChange
}

// Changed reports whether the comparison found any clause-level change.
func (r Result) Changed() bool {
	return len(r.Added)+len(r.Removed)+len(r.Modified) > 0
}

// Compute compares two policy texts and returns all diff formats.
func (d *Differ) Compute(oldText, newText string) Result {
	added, removed, modified := d.clauseChanges(oldText, newText)
	return Result{
		DiffText: UnifiedDiff(oldText, newText),
		DiffHTML: HTMLDiff(oldText, newText),
		Added:    added,
		Removed:  removed,
		Modified: modified,
	}
}

// UnifiedDiff renders a standard unified diff with three lines of context.
func UnifiedDiff(oldText, newText string) string {
	out, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(oldText),
		B:        difflib.SplitLines(newText),
		FromFile: "Previous Version",
		ToFile:   "Current Version",
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return strings.TrimRight(out, "\n")
}

var (
	reSpaceRun   = regexp.MustCompile(`[ \t]+`)
	reNewlineRun = regexp.MustCompile(`\n{2,}`)
)

const previewMaxLen = 500

// sanitizePreview trims a clause body down to a display-safe preview:
// printable characters only, collapsed whitespace, capped at 500 runes.
func sanitizePreview(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == '\n' || r == '\t' || unicode.IsPrint(r) {
			b.WriteRune(r)
		}
	}
	out := reSpaceRun.ReplaceAllString(b.String(), " ")
	out = reNewlineRun.ReplaceAllString(out, "\n")
	out = strings.TrimSpace(out)
	if runes := []rune(out); len(runes) > previewMaxLen {
		out = string(runes[:previewMaxLen]) + "..."
	}
	return out
}
