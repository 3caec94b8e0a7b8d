package differ

import (
	"fmt"
	"html"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Equal spans longer than this collapse to the first and last three lines.
const collapseAfter = 6

// HTMLDiff renders a side-by-side diff table. Long unchanged spans are
// collapsed behind a separator row so large documents stay readable.
func HTMLDiff(oldText, newText string) string {
	oldLines := splitLines(oldText)
	newLines := splitLines(newText)

	opcodes := difflib.NewMatcher(oldLines, newLines).GetOpCodes()

	var rows []string
	for _, op := range opcodes {
		switch op.Tag {
		case 'e':
			n := op.I2 - op.I1
			if n > collapseAfter {
				for k := 0; k < 3; k++ {
					rows = append(rows, contextRow(op.I1+k, oldLines[op.I1+k], op.J1+k, newLines[op.J1+k]))
				}
				rows = append(rows, separatorRow(fmt.Sprintf("... %d unchanged lines ...", n-6)))
				for k := n - 3; k < n; k++ {
					rows = append(rows, contextRow(op.I1+k, oldLines[op.I1+k], op.J1+k, newLines[op.J1+k]))
				}
			} else {
				for k := 0; k < n; k++ {
					rows = append(rows, contextRow(op.I1+k, oldLines[op.I1+k], op.J1+k, newLines[op.J1+k]))
				}
			}

		case 'r':
			oldN, newN := op.I2-op.I1, op.J2-op.J1
			max := oldN
			if newN > max {
				max = newN
			}
			for k := 0; k < max; k++ {
				oldNum, oldCell, oldCls := "", "", "empty"
				if k < oldN {
					oldNum = fmt.Sprint(op.I1 + k + 1)
					oldCell = escape(oldLines[op.I1+k])
					oldCls = "del"
				}
				newNum, newCell, newCls := "", "", "empty"
				if k < newN {
					newNum = fmt.Sprint(op.J1 + k + 1)
					newCell = escape(newLines[op.J1+k])
					newCls = "add"
				}
				rows = append(rows, splitRow(oldNum, oldCell, oldCls, newNum, newCell, newCls))
			}

		case 'd':
			for k := op.I1; k < op.I2; k++ {
				rows = append(rows, splitRow(fmt.Sprint(k+1), escape(oldLines[k]), "del", "", "", "empty"))
			}

		case 'i':
			for k := op.J1; k < op.J2; k++ {
				rows = append(rows, splitRow("", "", "empty", fmt.Sprint(k+1), escape(newLines[k]), "add"))
			}
		}
	}

	return `<table class="policydiff-table">
<thead>
<tr>
<th class="ln-col"></th>
<th class="content-col">Previous Version</th>
<th class="ln-col"></th>
<th class="content-col">Current Version</th>
</tr>
</thead>
<tbody>
` + strings.Join(rows, "\n") + `
</tbody>
</table>`
}

// splitLines drops the phantom empty element a trailing newline would
// otherwise produce.
func splitLines(s string) []string {
	lines := strings.Split(s, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

func escape(s string) string {
	return html.EscapeString(s)
}

func contextRow(oldIdx int, oldLine string, newIdx int, newLine string) string {
	return fmt.Sprintf(`<tr class="diff-ctx">
<td class="ln">%d</td>
<td class="code">%s</td>
<td class="ln">%d</td>
<td class="code">%s</td>
</tr>`, oldIdx+1, escape(oldLine), newIdx+1, escape(newLine))
}

func splitRow(oldNum, oldCell, oldCls, newNum, newCell, newCls string) string {
	return fmt.Sprintf(`<tr>
<td class="ln diff-%[3]s-ln">%[1]s</td>
<td class="code diff-%[3]s">%[2]s</td>
<td class="ln diff-%[6]s-ln">%[4]s</td>
<td class="code diff-%[6]s">%[5]s</td>
</tr>`, oldNum, oldCell, oldCls, newNum, newCell, newCls)
}

func separatorRow(message string) string {
	return fmt.Sprintf(`<tr class="diff-sep">
<td colspan="4">%s</td>
</tr>`, escape(message))
}
