package ui

import (
	"fmt"
	"io"
	"net/http"

	"github.com/fatih/color"
)

var (
	// Badge colors
	successBadge = color.New(color.BgGreen, color.FgBlack, color.Bold)
	warningBadge = color.New(color.FgYellow, color.Bold)
	errorBadge   = color.New(color.BgRed, color.FgWhite, color.Bold)
	infoBadge    = color.New(color.FgCyan, color.Bold)

	// Text colors
	successText = color.New(color.FgGreen, color.Bold)
	warningText = color.New(color.FgYellow)
	errorText   = color.New(color.FgRed)
	mutedText   = color.New(color.FgHiBlack)
	neonBlue    = color.New(color.FgHiCyan, color.Bold)

	// Method colors
	methodPOST = color.New(color.BgHiMagenta, color.FgBlack, color.Bold)
	methodGET  = color.New(color.BgHiCyan, color.FgBlack, color.Bold)
)

// Endpoint describes one route for the startup listing.
type Endpoint struct {
	Method      string
	Path        string
	Description string
}

// PrintInfo logs general information.
// Format: [AGENT] message
func PrintInfo(w io.Writer, msg string) {
	infoBadge.Fprint(w, "[AGENT]")
	fmt.Fprintf(w, " %s\n", msg)
}

// PrintSuccess logs a success line with green styling.
// Format: [ OK ] message
func PrintSuccess(w io.Writer, msg string) {
	successBadge.Fprint(w, " OK ")
	fmt.Fprint(w, " ")
	successText.Fprintln(w, msg)
}

// PrintError logs a failure with red styling.
// Format: [ ERROR ] message
func PrintError(w io.Writer, msg string) {
	errorBadge.Fprint(w, " ERROR ")
	fmt.Fprint(w, " ")
	errorText.Fprintln(w, msg)
}

// PrintStartupInfo prints the listen address, the bound provider and the routes.
func PrintStartupInfo(w io.Writer, addr, provider, model string, endpoints []Endpoint) {
	fmt.Fprintln(w)
	infoBadge.Fprint(w, "[AGENT]")
	fmt.Fprint(w, " Server starting on ")
	neonBlue.Fprintf(w, "http://%s\n", addr)

	infoBadge.Fprint(w, "[AGENT]")
	fmt.Fprint(w, " Provider: ")
	successText.Fprint(w, provider)
	fmt.Fprint(w, " | Model: ")
	successText.Fprintln(w, model)

	fmt.Fprintln(w)
	for _, e := range endpoints {
		fmt.Fprint(w, "  ")
		printMethodBadge(w, e.Method)
		fmt.Fprintf(w, " %-10s ", e.Path)
		mutedText.Fprintln(w, e.Description)
	}
	fmt.Fprintln(w)
}

// printMethodBadge prints the HTTP method with appropriate color.
func printMethodBadge(w io.Writer, method string) {
	switch method {
	case http.MethodPost:
		methodPOST.Fprintf(w, " %-4s ", method)
	default:
		methodGET.Fprintf(w, " %-4s ", method)
	}
}

// PrintShutdown prints a styled shutdown message.
func PrintShutdown(w io.Writer) {
	fmt.Fprintln(w)
	warningBadge.Fprint(w, "[SHUTDOWN]")
	warningText.Fprintln(w, " Graceful shutdown initiated...")
}

// PrintGoodbye prints a styled goodbye message.
func PrintGoodbye(w io.Writer) {
	PrintSuccess(w, "Server stopped. Goodbye!")
}
