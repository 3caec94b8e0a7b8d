package differ

import (
	"strings"
	"testing"

	"github.com/Varshith-Kola/PolicyDiff/internal/monitor"
)

func TestSignificanceScoring(t *testing.T) {
	t.Parallel()

	if got := Significance(""); got != 0.0 {
		t.Fatalf("empty text should score 0, got %v", got)
	}
	if got := Significance("We may sell your data."); got < 0.35 {
		t.Fatalf("sell clause should score at least 0.35, got %v", got)
	}
	// "selling" matches both "sell" and "selling"; with arbitration the
	// sum exceeds 1.0 and must clamp.
	if got := Significance("selling and arbitration terms"); got != 1.0 {
		t.Fatalf("score should clamp at 1.0, got %v", got)
	}
	if got := Significance("consent and tracking"); got != 0.4 {
		t.Fatalf("expected 0.4 for two 0.2 keywords, got %v", got)
	}
}

func TestSignificanceMonotonic(t *testing.T) {
	t.Parallel()

	base := Significance("We use cookies.")
	more := Significance("We use cookies and share your data with third parties.")
	if more <= base {
		t.Fatalf("adding keywords must not lower the score: %v -> %v", base, more)
	}
}

func TestDetectHeading(t *testing.T) {
	t.Parallel()

	cases := []struct {
		line string
		want string
		ok   bool
	}{
		{"## Data Sharing", "Data Sharing", true},
		{"#NoSpace", "", false},
		{"YOUR RIGHTS AND CHOICES", "YOUR RIGHTS AND CHOICES", true},
		{"OK", "", false}, // too short for an ALL-CAPS heading
		{"1. Introduction", "1. Introduction", true},
		{"2.1 Data We Collect", "2.1 Data We Collect", true},
		{"(a) Scope", "(a) Scope", true},
		{"(ii) Retention", "(ii) Retention", true},
		{`"Personal Data" means any information about you.`, "Definition: Personal Data", true},
		{"**Data Retention**", "Data Retention", true},
		{"We collect information you provide.", "", false},
		{"   ", "", false},
	}
	for _, tc := range cases {
		got, ok := detectHeading(tc.line)
		if ok != tc.ok || got != tc.want {
			t.Errorf("detectHeading(%q) = (%q, %v), want (%q, %v)", tc.line, got, ok, tc.want, tc.ok)
		}
	}
}

func TestSplitClausesLeadingTitleStaysInFirstClause(t *testing.T) {
	t.Parallel()

	clauses := splitClauses("# Privacy Policy\n\nWe collect your data.\n")
	if len(clauses) != 1 {
		t.Fatalf("expected one clause, got %d: %+v", len(clauses), clauses)
	}
	if clauses[0].Heading != "Introduction" {
		t.Fatalf("leading title should fold into Introduction, got %q", clauses[0].Heading)
	}
	if !strings.Contains(clauses[0].Content, "# Privacy Policy") {
		t.Fatalf("title line should remain in content: %q", clauses[0].Content)
	}
}

func TestSplitClausesSections(t *testing.T) {
	t.Parallel()

	text := "Intro paragraph.\n\n## Section A\nContent A.\n\n## Section B\nContent B.\n"
	clauses := splitClauses(text)
	if len(clauses) != 3 {
		t.Fatalf("expected 3 clauses, got %d: %+v", len(clauses), clauses)
	}
	if clauses[0].Heading != "Introduction" || clauses[1].Heading != "Section A" || clauses[2].Heading != "Section B" {
		t.Fatalf("unexpected headings: %+v", clauses)
	}
	if clauses[1].Content != "Content A." {
		t.Fatalf("unexpected content: %q", clauses[1].Content)
	}
}

func TestComputeIdenticalTexts(t *testing.T) {
	t.Parallel()

	text := "# Privacy Policy\n\nWe collect your data.\n"
	res := New(DefaultOptions()).Compute(text, text)
	if res.Changed() {
		t.Fatalf("identical texts should produce no clause changes: %+v", res)
	}
	if res.DiffText != "" {
		t.Fatalf("identical texts should produce an empty unified diff: %q", res.DiffText)
	}
}

func TestComputeAddedSection(t *testing.T) {
	t.Parallel()

	old := "# Privacy Policy\n\nWe collect your data.\n"
	new := old + "\n## New Section\n\nNew content here.\n"
	res := New(DefaultOptions()).Compute(old, new)
	if len(res.Added) != 1 {
		t.Fatalf("expected one added clause, got %+v", res.Added)
	}
	if res.Added[0].Section != "New Section" || res.Added[0].Kind != monitor.ChangeAdded {
		t.Fatalf("unexpected added clause: %+v", res.Added[0])
	}
	if res.Added[0].OldText != "" {
		t.Fatalf("added clause should have no old text: %+v", res.Added[0])
	}
}

func TestComputeRemovedSection(t *testing.T) {
	t.Parallel()

	old := "# Policy\n\n## Section A\n\nContent A.\n\n## Section B\n\nContent B.\n"
	new := "# Policy\n\n## Section A\n\nContent A.\n"
	res := New(DefaultOptions()).Compute(old, new)
	if len(res.Removed) != 1 {
		t.Fatalf("expected one removed clause, got %+v", res.Removed)
	}
	if res.Removed[0].Section != "Section B" || res.Removed[0].Kind != monitor.ChangeRemoved {
		t.Fatalf("unexpected removed clause: %+v", res.Removed[0])
	}
}

func TestComputeModifiedClauseSignificance(t *testing.T) {
	t.Parallel()

	old := "Intro.\n\n## Your Data\nWe do not sell your personal information.\n\n## Contact\nEmail us at a@b.com.\n"
	new := "Intro.\n\n## Your Data\nWe may sell your personal information to third parties.\n\n## Contact\nEmail us at c@d.com.\n"
	res := New(DefaultOptions()).Compute(old, new)
	if len(res.Modified) != 2 {
		t.Fatalf("expected two modified clauses, got %+v", res.Modified)
	}
	// Highest significance first.
	if res.Modified[0].Section != "Your Data" {
		t.Fatalf("sell clause should sort first: %+v", res.Modified)
	}
	if res.Modified[0].Significance < 0.35 {
		t.Fatalf("sell clause significance too low: %v", res.Modified[0].Significance)
	}
	if res.Modified[0].Significance < res.Modified[1].Significance {
		t.Fatalf("modified clauses not sorted by significance: %+v", res.Modified)
	}
}

func TestComputeFuzzyRenamedSection(t *testing.T) {
	t.Parallel()

	body := "We share your data with partners for advertising purposes and analytics."
	old := "Intro text about the service.\n\n## Data Sharing\n" + body + "\n"
	new := "Intro text about the service.\n\n## Information Sharing\n" + body + "\n"
	res := New(DefaultOptions()).Compute(old, new)
	if len(res.Added) != 0 || len(res.Removed) != 0 {
		t.Fatalf("renamed section should not report add/remove: %+v", res)
	}
	if len(res.Modified) != 1 {
		t.Fatalf("expected one modified clause, got %+v", res.Modified)
	}
	if res.Modified[0].Section != "Data Sharing → Information Sharing" {
		t.Fatalf("renamed section label wrong: %q", res.Modified[0].Section)
	}
}

func TestComputeBelowThresholdIsAddRemove(t *testing.T) {
	t.Parallel()

	old := "Intro.\n\n## Governing Law\nDisputes are resolved in Delaware courts under Delaware law.\n"
	new := "Intro.\n\n## Biometric Data\nWe collect fingerprints and facial geometry from enrolled devices.\n"
	res := New(DefaultOptions()).Compute(old, new)
	if len(res.Removed) != 1 || len(res.Added) != 1 {
		t.Fatalf("dissimilar sections should be add+remove, got %+v", res)
	}
}

func TestUnifiedDiffLabels(t *testing.T) {
	t.Parallel()

	out := UnifiedDiff("Line one.\nLine two.\n", "Line one.\nLine three.\n")
	if !strings.Contains(out, "--- Previous Version") || !strings.Contains(out, "+++ Current Version") {
		t.Fatalf("unified diff missing version labels:\n%s", out)
	}
	if !strings.Contains(out, "-Line two.") || !strings.Contains(out, "+Line three.") {
		t.Fatalf("unified diff missing changed lines:\n%s", out)
	}
}

func TestHTMLDiffCollapsesLongEqualSpans(t *testing.T) {
	t.Parallel()

	var lines []string
	for i := 0; i < 10; i++ {
		lines = append(lines, "Same line about data handling practices.")
	}
	old := strings.Join(lines, "\n") + "\nOld tail.\n"
	new := strings.Join(lines, "\n") + "\nNew tail.\n"

	out := HTMLDiff(old, new)
	if !strings.Contains(out, "... 4 unchanged lines ...") {
		t.Fatalf("long equal span should collapse:\n%s", out)
	}
	if !strings.Contains(out, `diff-del">Old tail.`) || !strings.Contains(out, `diff-add">New tail.`) {
		t.Fatalf("replace rows missing:\n%s", out)
	}
	if !strings.Contains(out, "Previous Version") || !strings.Contains(out, "Current Version") {
		t.Fatalf("column headers missing:\n%s", out)
	}
}

func TestHTMLDiffEscapesMarkup(t *testing.T) {
	t.Parallel()

	out := HTMLDiff("<script>alert(1)</script>\n", "safe\n")
	if strings.Contains(out, "<script>") {
		t.Fatalf("content must be escaped:\n%s", out)
	}
	if !strings.Contains(out, "&lt;script&gt;") {
		t.Fatalf("expected escaped markup:\n%s", out)
	}
}

func TestSanitizePreviewCapsLength(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("word ", 200)
	out := sanitizePreview(long)
	if len([]rune(out)) != previewMaxLen+3 {
		t.Fatalf("preview should cap at %d runes plus ellipsis, got %d", previewMaxLen, len([]rune(out)))
	}
	if !strings.HasSuffix(out, "...") {
		t.Fatalf("capped preview should end with ellipsis: %q", out)
	}

	messy := "a\tb\n\n\nc\x00d"
	if got := sanitizePreview(messy); got != "a b\ncd" {
		t.Fatalf("whitespace normalization wrong: %q", got)
	}
}
