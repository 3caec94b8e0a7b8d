package differ

import (
	"regexp"
	"strings"
	"unicode"
)

// clause is one heading-delimited section of a policy document.
type clause struct {
	Heading string
	Content string
}

var (
	reMarkdownHeading = regexp.MustCompile(`^#{1,6}\s+`)
	reNumbered        = regexp.MustCompile(`^\d+\.\s+[A-Z]`)
	reDottedNumbered  = regexp.MustCompile(`^\d+(\.\d+)+\.?\s+\S`)
	reLettered        = regexp.MustCompile(`(?i)^\([a-z]\)\s+\S`)
	reRoman           = regexp.MustCompile(`(?i)^\((i{1,3}|iv|v|vi{0,3}|ix|x)\)\s+\S`)
	reDefinition      = regexp.MustCompile(`(?i)^["\x{201c}].+?["\x{201d}]\s+means\b`)
	reDefinitionTerm  = regexp.MustCompile(`^["\x{201c}](.+?)["\x{201d}]`)
	reBoldEmphasis    = regexp.MustCompile(`^(\*\*|__).+?(\*\*|__)\s*$`)
)

// detectHeading reports whether a line is a section heading and returns
// its cleaned text. Recognizes markdown headings, ALL-CAPS lines, numbered
// and dotted-numbered sections, lettered and Roman-numeral subsections,
// definition clauses, and bold-emphasis lines.
func detectHeading(line string) (string, bool) {
	stripped := strings.TrimSpace(line)
	if stripped == "" {
		return "", false
	}

	if reMarkdownHeading.MatchString(stripped) {
		return strings.TrimSpace(strings.TrimLeft(stripped, "#")), true
	}

	if n := len([]rune(stripped)); n > 3 && n < 100 &&
		isUpper(stripped) && len(strings.Fields(stripped)) <= 10 {
		return stripped, true
	}

	if reNumbered.MatchString(stripped) {
		return stripped, true
	}

	if reDottedNumbered.MatchString(stripped) {
		return stripped, true
	}

	if len(stripped) < 150 && (reLettered.MatchString(stripped) || reRoman.MatchString(stripped)) {
		return stripped, true
	}

	if reDefinition.MatchString(stripped) {
		if m := reDefinitionTerm.FindStringSubmatch(stripped); m != nil {
			return "Definition: " + m[1], true
		}
	}

	if reBoldEmphasis.MatchString(stripped) {
		cleaned := strings.TrimSpace(strings.Trim(strings.Trim(stripped, "*"), "_"))
		if n := len([]rune(cleaned)); n > 2 && n < 100 {
			return cleaned, true
		}
	}

	return "", false
}

// isUpper mirrors the "no lowercase, at least one cased rune" rule used
// for ALL-CAPS heading detection.
func isUpper(s string) bool {
	hasCased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			hasCased = true
		}
	}
	return hasCased
}

// splitClauses breaks policy text into heading-delimited clauses. Text
// before the first heading lands under "Introduction". A heading seen
// while no content has accumulated yet is treated as content, so documents
// that open with a title keep it inside the first clause.
func splitClauses(text string) []clause {
	var clauses []clause
	currentHeading := "Introduction"
	var currentLines []string

	for _, line := range strings.Split(text, "\n") {
		heading, ok := detectHeading(line)
		if ok && len(currentLines) > 0 {
			if content := strings.TrimSpace(strings.Join(currentLines, "\n")); content != "" {
				clauses = append(clauses, clause{Heading: currentHeading, Content: content})
			}
			currentHeading = heading
			currentLines = currentLines[:0]
		} else {
			currentLines = append(currentLines, line)
		}
	}

	if content := strings.TrimSpace(strings.Join(currentLines, "\n")); content != "" {
		clauses = append(clauses, clause{Heading: currentHeading, Content: content})
	}

	return clauses
}
