package output

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// stackPalette colors branches by stack depth.
var stackPalette = [][]int{
	{76, 203, 241},  // Light blue
	{77, 202, 125},  // Green
	{245, 200, 0},   // Yellow
	{248, 144, 72},  // Orange
	{244, 98, 81},   // Red
	{235, 130, 188}, // Pink
	{159, 131, 228}, // Purple
	{80, 132, 243},  // Blue
}

var colorEnabled = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

// ColorForDepth styles text with the palette color for a stack depth. Output
// that is not a terminal gets the raw text.
func ColorForDepth(text string, depth int) string {
	if !colorEnabled {
		return text
	}
	c := stackPalette[depth%len(stackPalette)]
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])))
	return style.Render(text)
}

// Dim renders secondary detail text.
func Dim(text string) string {
	if !colorEnabled {
		return text
	}
	return lipgloss.NewStyle().Faint(true).Render(text)
}
