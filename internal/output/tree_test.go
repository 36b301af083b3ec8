package output

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderStack(t *testing.T) {
	rows := []StackRow{
		{Branch: "task/DB", Current: true, Detail: "1 pending to source"},
		{Branch: "task/AUTH"},
	}

	out := RenderStack(rows, "main")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 5)

	require.Contains(t, lines[0], "◉")
	require.Contains(t, lines[0], "task/DB")
	require.Contains(t, lines[0], "1 pending to source")
	require.Contains(t, lines[2], "◯")
	require.Contains(t, lines[2], "task/AUTH")
	require.Contains(t, lines[4], "main")
}

func TestRenderStackBaseOnly(t *testing.T) {
	out := RenderStack(nil, "main")
	require.Contains(t, out, "main")
	require.NotContains(t, out, "│")
}
