package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/hpn/hpn-chat-agent/internal/adapter"
	"github.com/hpn/hpn-chat-agent/internal/config"
	"github.com/hpn/hpn-chat-agent/internal/domain"
	"github.com/hpn/hpn-chat-agent/internal/security"
	"github.com/hpn/hpn-chat-agent/internal/ui"
)

const testAPIUsage = "usage: chat-agent test-api <openai|gemini> <message>"

// runTestAPI sends one message through the named provider and prints the
// reply to stdout. Diagnostics go to stderr so the reply can be piped.
// It returns the process exit code.
func runTestAPI(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		fmt.Fprintln(stderr, testAPIUsage)
		return 1
	}

	provider, ok := domain.ParseProviderType(args[0])
	if !ok {
		ui.PrintError(stderr, fmt.Sprintf("unsupported chat provider %q", args[0]))
		fmt.Fprintln(stderr, testAPIUsage)
		return 1
	}
	message := strings.Join(args[1:], " ")

	cfg, err := config.Load("", config.WithProvider(string(provider)))
	if err != nil {
		ui.PrintError(stderr, configFailure(err))
		return 1
	}

	logger := setupLogger(cfg.Logging.Level, "text", stderr)

	chat, err := adapter.NewFromConfig(cfg.AIProvider, logger)
	if err != nil {
		ui.PrintError(stderr, security.Redact(err.Error()))
		return 1
	}

	ui.PrintInfo(stderr, fmt.Sprintf("sending test message to %s", chat.Name()))

	reply, err := chat.GetResponse(ctx, message)
	if err != nil {
		logger.Error("test-api call failed", slog.String("provider", chat.Name()), slog.String("error", err.Error()))
		ui.PrintError(stderr, security.Redact(err.Error()))
		return 1
	}

	fmt.Fprintln(stdout, reply)
	return 0
}

// configFailure describes a config.Load error for the console.
func configFailure(err error) string {
	msg := security.Redact(err.Error())
	switch {
	case config.IsValidationError(err):
		return "invalid configuration: " + msg
	case config.IsConfigError(err):
		return "could not read configuration: " + msg
	default:
		return msg
	}
}
