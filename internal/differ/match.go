package differ

import (
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/Varshith-Kola/PolicyDiff/internal/monitor"
)

// clauseMap preserves document order while allowing heading lookup. A
// duplicate heading keeps its first position and takes the later content.
type clauseMap struct {
	order   []string
	content map[string]string
}

func newClauseMap(clauses []clause) *clauseMap {
	m := &clauseMap{content: make(map[string]string, len(clauses))}
	for _, c := range clauses {
		if _, ok := m.content[c.Heading]; !ok {
			m.order = append(m.order, c.Heading)
		}
		m.content[c.Heading] = c.Content
	}
	return m
}

// similarity is a character-level SequenceMatcher ratio.
func similarity(a, b string) float64 {
	return difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, "")).Ratio()
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// bestMatch scores every candidate heading against a clause by blending
// heading similarity and content similarity, comparing only each clause's
// leading 2000 characters. Returns false when no candidate clears the
// fuzzy threshold.
func (d *Differ) bestMatch(heading, content string, candidates *clauseMap) (string, bool) {
	bestHeading := ""
	bestScore := 0.0
	lowerHeading := strings.ToLower(heading)
	head := truncateRunes(content, 2000)

	for _, candHeading := range candidates.order {
		headingSim := similarity(lowerHeading, strings.ToLower(candHeading))
		contentSim := similarity(head, truncateRunes(candidates.content[candHeading], 2000))
		combined := d.opts.HeadingWeight*headingSim + d.opts.ContentWeight*contentSim
		if combined > bestScore {
			bestScore = combined
			bestHeading = candHeading
		}
	}

	if bestScore >= d.opts.FuzzyThreshold {
		return bestHeading, true
	}
	return "", false
}

// clauseChanges compares two policy texts clause by clause. Matching runs
// in three passes: exact heading matches, fuzzy matches for renamed or
// reordered sections, then whatever remains is a pure addition or removal.
// Each returned list is sorted by significance, highest first.
func (d *Differ) clauseChanges(oldText, newText string) (added, removed, modified []monitor.ClauseChange) {
	oldClauses := newClauseMap(splitClauses(oldText))
	newClauses := newClauseMap(splitClauses(newText))

	matchedOld := map[string]bool{}
	matchedNew := map[string]bool{}

	for _, heading := range oldClauses.order {
		newContent, ok := newClauses.content[heading]
		if !ok {
			continue
		}
		matchedOld[heading] = true
		matchedNew[heading] = true
		oldContent := oldClauses.content[heading]
		if oldContent != newContent {
			modified = append(modified, monitor.ClauseChange{
				Section:      heading,
				OldText:      sanitizePreview(oldContent),
				NewText:      sanitizePreview(newContent),
				Kind:         monitor.ChangeModified,
				Significance: maxFloat(Significance(oldContent), Significance(newContent)),
			})
		}
	}

	unmatchedNew := &clauseMap{content: map[string]string{}}
	for _, h := range newClauses.order {
		if !matchedNew[h] {
			unmatchedNew.order = append(unmatchedNew.order, h)
			unmatchedNew.content[h] = newClauses.content[h]
		}
	}

	for _, oldHeading := range oldClauses.order {
		if matchedOld[oldHeading] || len(unmatchedNew.order) == 0 {
			continue
		}
		oldContent := oldClauses.content[oldHeading]
		best, ok := d.bestMatch(oldHeading, oldContent, unmatchedNew)
		if !ok {
			continue
		}
		section := oldHeading
		if oldHeading != best {
			section = oldHeading + " → " + best
		}
		modified = append(modified, monitor.ClauseChange{
			Section:      section,
			OldText:      sanitizePreview(oldContent),
			NewText:      sanitizePreview(unmatchedNew.content[best]),
			Kind:         monitor.ChangeModified,
			Significance: maxFloat(Significance(oldContent), Significance(unmatchedNew.content[best])),
		})
		matchedOld[oldHeading] = true
		matchedNew[best] = true
		unmatchedNew.remove(best)
	}

	for _, heading := range oldClauses.order {
		if matchedOld[heading] {
			continue
		}
		content := oldClauses.content[heading]
		removed = append(removed, monitor.ClauseChange{
			Section:      heading,
			OldText:      sanitizePreview(content),
			NewText:      "",
			Kind:         monitor.ChangeRemoved,
			Significance: Significance(content),
		})
	}

	for _, heading := range newClauses.order {
		if matchedNew[heading] {
			continue
		}
		content := newClauses.content[heading]
		added = append(added, monitor.ClauseChange{
			Section:      heading,
			OldText:      "",
			NewText:      sanitizePreview(content),
			Kind:         monitor.ChangeAdded,
			Significance: Significance(content),
		})
	}

	bySignificance(added)
	bySignificance(removed)
	bySignificance(modified)
	return added, removed, modified
}

func (m *clauseMap) remove(heading string) {
	delete(m.content, heading)
	for i, h := range m.order {
		if h == heading {
			m.order = append(m.order[:i], m.order[i+1:]...)
			return
		}
	}
}

// bySignificance sorts highest first, keeping document order for ties.
func bySignificance(changes []monitor.ClauseChange) {
	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].Significance > changes[j].Significance
	})
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
