package common

import (
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	// Report widths used by the operator tools
	DefaultWidth = 80
	WideWidth    = 110
)

// Output is where report helpers write. Tests swap it for a buffer.
var Output io.Writer = os.Stdout

func rule(char string, width int) string {
	return strings.Repeat(char, width)
}

// PrintSeparator prints a full-width rule
func PrintSeparator(char string, width int) {
	fmt.Fprintln(Output, rule(char, width))
}

// PrintHeader prints a report title framed by double rules, preceded by a blank line
func PrintHeader(title string, width int) {
	fmt.Fprintf(Output, "\n%s\n%s\n%s\n", rule("=", width), title, rule("=", width))
}

// PrintFooter prints a closing summary line framed like a header
func PrintFooter(message string, width int) {
	fmt.Fprintf(Output, "\n%s\n%s\n%s\n\n", rule("=", width), message, rule("=", width))
}

// PrintBoxSeparator closes the heading of a per-user block
func PrintBoxSeparator(width int) {
	fmt.Fprintln(Output, "├"+rule("─", width))
}

// BoxPrefix returns the tree prefix for an item line
func BoxPrefix(isLast bool) string {
	if isLast {
		return "└  "
	}
	return "│  "
}

// BoxDetailPrefix returns the prefix for continuation lines under an item
func BoxDetailPrefix(isLast bool) string {
	if isLast {
		return "   "
	}
	return "│  "
}
