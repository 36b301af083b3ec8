package output

import (
	"fmt"
	"strings"
)

// StackRow is one branch line in the rendered stack, tip-most first.
type StackRow struct {
	Branch  string
	Current bool
	Detail  string // e.g. "2 commits, 1 pending"
}

// RenderStack renders a stack as a vertical tree, tip at the top and the base
// branch at the bottom.
func RenderStack(rows []StackRow, base string) string {
	var b strings.Builder
	for i, row := range rows {
		marker := "◯"
		if row.Current {
			marker = "◉"
		}
		depth := len(rows) - i
		line := fmt.Sprintf("%s  %s", marker, ColorForDepth(row.Branch, depth))
		if row.Detail != "" {
			line += "  " + Dim("("+row.Detail+")")
		}
		b.WriteString(line + "\n")
		b.WriteString("│\n")
	}
	b.WriteString(fmt.Sprintf("◯  %s\n", ColorForDepth(base, 0)))
	return b.String()
}
