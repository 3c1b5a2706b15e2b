// Package ui provides colored console output for the chat agent server and CLI.
package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Version is printed in the banner.
const Version = "v1.0.0"

// PrintBanner displays the startup banner with the bound provider.
func PrintBanner(w io.Writer, provider string) {
	cyan := color.New(color.FgCyan, color.Bold)
	magenta := color.New(color.FgHiMagenta, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	dim := color.New(color.FgHiBlack)

	fmt.Fprintln(w)
	cyan.Fprintln(w, "╔══════════════════════════════════════════════╗")
	cyan.Fprint(w, "║  ")
	magenta.Fprint(w, "HPN CHAT AGENT")
	dim.Fprint(w, "  │  ")
	yellow.Fprintf(w, "%-10s", provider)
	dim.Fprint(w, "  │  ")
	fmt.Fprintf(w, "%-7s", Version)
	cyan.Fprintln(w, " ║")
	cyan.Fprintln(w, "╚══════════════════════════════════════════════╝")
	fmt.Fprintln(w)
}
