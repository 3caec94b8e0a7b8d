package extract

import (
	"regexp"
	"strings"
	"unicode"
)

// Invisible Unicode control/formatting characters stripped from text.
var invisibleReplacer = strings.NewReplacer(
	"\u2060", "", // word joiner
	"\u200b", "", // zero-width space
	"\u200c", "", // zero-width non-joiner
	"\u200d", "", // zero-width joiner
	"\ufeff", "", // zero-width no-break space / BOM
	"\u00ad", "", // soft hyphen
	"\u2063", "", // invisible separator
	"\u2062", "", // invisible times
)

var (
	reMultiNewline    = regexp.MustCompile(`\n{3,}`)
	reEmptyLink       = regexp.MustCompile(`\[]\([^)]*\)`)
	reMultiSpace      = regexp.MustCompile(`[ \t]{2,}`)
	reEscapedNumbered = regexp.MustCompile(`(?m)^(#{1,6}\s+\d+)\\(\.)`)
	reEmptyHeading    = regexp.MustCompile(`(?m)^#{1,6}\s*$`)
)

func stripInvisible(s string) string {
	return invisibleReplacer.Replace(s)
}

// CleanText normalizes whitespace, strips non-printable characters, and
// drops garbage lines from converted markdown.
func CleanText(text string) string {
	text = stripInvisible(text)

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r == '\n' || r == '\t':
			b.WriteRune(r)
		case unicode.IsControl(r):
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	text = b.String()

	lines := strings.Split(text, "\n")
	clean := make([]string, 0, len(lines))
	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			clean = append(clean, "")
			continue
		}
		if len([]rune(stripped)) < 15 {
			clean = append(clean, stripped)
			continue
		}
		if printableASCIIRatio(stripped) < 0.5 {
			continue
		}
		if hasLongBlob(stripped) {
			continue
		}
		clean = append(clean, stripped)
	}

	text = strings.Join(clean, "\n")
	text = reMultiNewline.ReplaceAllString(text, "\n\n")
	text = reEmptyLink.ReplaceAllString(text, "")
	text = reMultiSpace.ReplaceAllString(text, " ")
	text = reEscapedNumbered.ReplaceAllString(text, "$1$2")
	text = reEmptyHeading.ReplaceAllString(text, "")
	text = reMultiNewline.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func printableASCIIRatio(s string) float64 {
	runes := []rune(s)
	if len(runes) == 0 {
		return 1.0
	}
	printable := 0
	for _, r := range runes {
		if r == '\n' || r == '\t' || (r <= unicode.MaxASCII && unicode.IsPrint(r)) {
			printable++
		}
	}
	return float64(printable) / float64(len(runes))
}

// hasLongBlob reports whether any single token is over 100 characters
// without containing a URL (base64 dumps, minified junk).
func hasLongBlob(s string) bool {
	for _, word := range strings.Fields(s) {
		if len(word) > 100 && !strings.Contains(word, "http") {
			return true
		}
	}
	return false
}
