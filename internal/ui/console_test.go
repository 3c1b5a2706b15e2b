package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestConsoleOutput(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	PrintBanner(&buf, "gemini")
	PrintStartupInfo(&buf, "0.0.0.0:8080", "gemini", "gemini-pro", []Endpoint{
		{Method: "POST", Path: "/chat", Description: "Send a chat message"},
		{Method: "GET", Path: "/health", Description: "Health check"},
	})
	PrintError(&buf, "gemini API returned 500")

	out := buf.String()
	for _, want := range []string{
		"HPN CHAT AGENT",
		Version,
		"http://0.0.0.0:8080",
		"Provider: gemini | Model: gemini-pro",
		" POST  /chat",
		" GET   /health",
		"ERROR  gemini API returned 500",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
