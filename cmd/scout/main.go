// Scout is a tool-calling conversational agent.
//
// It answers questions by driving a chat model through tool calls:
// GitHub repository inspection, current weather lookups, or Wikipedia
// search, depending on the selected agent. It exposes an HTTP API with
// persistent session history, plus an interactive terminal chat and
// one-shot queries. Configuration is loaded from a single YAML file
// discovered automatically (see [config.DefaultSearchPaths]).
//
// Usage:
//
//	scout serve                  Start the API server
//	scout chat                   Interactive chat in the terminal
//	scout ask <question>         Ask a single question
//	scout version                Print version and build information
//	scout -agent weather chat    Chat with a specific agent
//	scout -o json version        Output version information as JSON
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/scoutagent/scout/internal/api"
	"github.com/scoutagent/scout/internal/buildinfo"
	"github.com/scoutagent/scout/internal/config"
	"github.com/scoutagent/scout/internal/history"
	"github.com/scoutagent/scout/internal/llm"
	"github.com/scoutagent/scout/internal/session"
)

// main constructs the OS-level environment (context, stdio, argv) and
// delegates to [run]. Keeping os.Exit, os.Stdin, and os.Args out of the
// application logic lets tests drive the full lifecycle.
func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdin, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point for the scout command. Arguments are
// parsed by hand: the flag package relies on package-level globals,
// which interfere with parallel tests, and the surface here is small.
func run(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args []string) error {
	var configPath string
	var agentName string
	var outputFmt string // "text" (default) or "json"
	var command string
	var cmdArgs []string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case args[i] == "-agent" && i+1 < len(args):
			agentName = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-agent="):
			agentName = strings.TrimPrefix(args[i], "-agent=")
		case (args[i] == "-o" || args[i] == "--output") && i+1 < len(args):
			outputFmt = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-o="):
			outputFmt = strings.TrimPrefix(args[i], "-o=")
		case strings.HasPrefix(args[i], "--output="):
			outputFmt = strings.TrimPrefix(args[i], "--output=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-") && command == "":
			command = args[i]
		default:
			if command != "" {
				cmdArgs = append(cmdArgs, args[i])
			} else {
				return fmt.Errorf("unknown flag: %s", args[i])
			}
		}
	}

	if outputFmt == "" {
		outputFmt = "text"
	}
	if outputFmt != "text" && outputFmt != "json" {
		return fmt.Errorf("unknown output format: %q (expected text or json)", outputFmt)
	}

	switch command {
	case "serve":
		return runServe(ctx, stdout, configPath)
	case "chat":
		return runChat(ctx, stdin, stdout, stderr, configPath, agentName)
	case "ask":
		if len(cmdArgs) == 0 {
			return fmt.Errorf("usage: scout ask <question>")
		}
		return runAsk(ctx, stdout, stderr, configPath, agentName, cmdArgs)
	case "version":
		return runVersion(stdout, outputFmt)
	case "":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// runServe starts the HTTP API with the SQLite-backed history store
// and blocks until the context is cancelled or the server fails.
func runServe(ctx context.Context, stdout io.Writer, configPath string) error {
	cfg, cfgPath, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger, err := newLoggerFromConfig(stdout, cfg)
	if err != nil {
		return err
	}
	logger.Info("starting", "build", buildinfo.String(), "config", cfgPath)

	store, err := history.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer store.Close()

	client := llm.NewOpenAIClient(cfg.Model.BaseURL, cfg.Model.APIKey)
	if err := client.Ping(ctx); err != nil {
		logger.Warn("model endpoint unreachable at startup",
			"base_url", cfg.Model.BaseURL, "error", err)
	}

	manager, err := session.NewManager(cfg, client, store, logger)
	if err != nil {
		return fmt.Errorf("build agents: %w", err)
	}

	server := api.NewServer(cfg, manager, store, logger)

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Run()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

// runChat handles "scout chat": an interactive loop on the terminal.
// Conversation state stays in memory; nothing touches the database.
func runChat(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, configPath, agentName string) error {
	manager, kind, err := buildCLIManager(stderr, configPath, agentName)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "scout %s agent (type 'quit' to exit)\n", kind)
	return manager.Chat(ctx, kind, stdin, stdout)
}

// runAsk handles "scout ask <question>": one question, one answer, no
// persistence.
func runAsk(ctx context.Context, stdout, stderr io.Writer, configPath, agentName string, args []string) error {
	manager, kind, err := buildCLIManager(stderr, configPath, agentName)
	if err != nil {
		return err
	}

	answer, err := manager.Ask(ctx, kind, strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}
	fmt.Fprintln(stdout, answer)
	return nil
}

// buildCLIManager assembles a session manager for the terminal
// commands: in-memory history, logs to stderr so answers on stdout
// stay clean. A missing config file is fine here; defaults point at a
// local Ollama.
func buildCLIManager(stderr io.Writer, configPath, agentName string) (*session.Manager, session.Kind, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		if configPath != "" {
			return nil, 0, err
		}
		cfg = config.Default()
	}

	logger, err := newLoggerFromConfig(stderr, cfg)
	if err != nil {
		return nil, 0, err
	}

	name := agentName
	if name == "" {
		name = cfg.Agent.Kind
	}
	kind, err := session.ParseKind(name)
	if err != nil {
		return nil, 0, err
	}

	client := llm.NewOpenAIClient(cfg.Model.BaseURL, cfg.Model.APIKey)
	manager, err := session.NewManager(cfg, client, history.NewMemStore(), logger)
	if err != nil {
		return nil, 0, err
	}
	return manager, kind, nil
}

// runVersion prints build metadata in the requested output format.
func runVersion(w io.Writer, outputFmt string) error {
	info := buildinfo.Info()
	if outputFmt == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	fmt.Fprintln(w, buildinfo.String())
	for _, k := range []string{"version", "git_commit", "build_time", "go_version", "os", "arch"} {
		if v, ok := info[k]; ok {
			fmt.Fprintf(w, "  %-12s %s\n", k+":", v)
		}
	}
	return nil
}

// newLoggerFromConfig builds the process logger honoring the
// configured log level.
func newLoggerFromConfig(w io.Writer, cfg *config.Config) (*slog.Logger, error) {
	level := slog.LevelInfo
	if cfg.LogLevel != "" {
		parsed, err := config.ParseLogLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		level = parsed
	}
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// loadConfig locates and parses the YAML configuration file. If
// explicit is non-empty, that exact path is used and must exist.
func loadConfig(explicit string) (*config.Config, string, error) {
	cfgPath, err := config.FindConfig(explicit)
	if err != nil {
		return nil, "", err
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, cfgPath, fmt.Errorf("load config %s: %w", cfgPath, err)
	}
	return cfg, cfgPath, nil
}

// printUsage writes the top-level help text to w.
func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "Scout - Tool-Calling Conversational Agent")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: scout [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve        Start the API server")
	fmt.Fprintln(w, "  chat         Interactive chat in the terminal")
	fmt.Fprintln(w, "  ask          Ask a single question")
	fmt.Fprintln(w, "  version      Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <path>    Path to config file (default: auto-discover)")
	fmt.Fprintln(w, "  -agent <kind>     Agent for chat/ask: github, weather, wikipedia")
	fmt.Fprintln(w, "  -o, --output fmt  Output format: text (default) or json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Config search order:")
	fmt.Fprintln(w, "  ./scout.yaml, ~/.config/scout/config.yaml, /etc/scout/config.yaml")
	return nil
}
