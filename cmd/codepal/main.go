// CodePal - interactive Gemini coding assistant for the terminal.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/joho/godotenv"

	"github.com/ashureev/codepal/internal/agent"
	"github.com/ashureev/codepal/internal/ai"
	"github.com/ashureev/codepal/internal/command"
	"github.com/ashureev/codepal/internal/config"
	"github.com/ashureev/codepal/internal/domain"
	"github.com/ashureev/codepal/internal/engine"
	"github.com/ashureev/codepal/internal/gitops"
	"github.com/ashureev/codepal/internal/progress"
	"github.com/ashureev/codepal/internal/project"
	"github.com/ashureev/codepal/internal/store"
	"github.com/ashureev/codepal/internal/term"
)

func main() {
	// Load never overrides variables already present in the environment.
	envLoaded := godotenv.Load() == nil

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "codepal:", err)
		os.Exit(1)
	}

	// The terminal belongs to the conversation; structured logs go to a
	// file, falling back to stderr when it cannot be opened.
	logWriter := io.Writer(os.Stderr)
	if err := os.MkdirAll(filepath.Dir(cfg.LogPath), 0o755); err != nil {
		fmt.Fprintln(os.Stderr, "codepal: create log directory:", err)
	} else if logFile, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err != nil {
		fmt.Fprintln(os.Stderr, "codepal: open log file:", err)
	} else {
		logWriter = logFile
		defer func() {
			_ = logFile.Close()
		}()
	}

	logger := slog.New(slog.NewJSONHandler(logWriter, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	if !envLoaded {
		logger.Info("no .env file found, using environment variables")
	}
	logger.Info("starting codepal", "db", cfg.DBPath, "default_model", cfg.DefaultModel, "user", cfg.Username)

	fatal := func(msg string, err error) {
		logger.Error(msg, "error", err)
		fmt.Fprintf(os.Stderr, "codepal: %s: %v\n", msg, err)
		os.Exit(1)
	}

	ctx := context.Background()

	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		fatal("initialize database", err)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			logger.Error("close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(ctx); err != nil {
		fatal("database health check", err)
	}
	logger.Info("database connected")

	user, err := repo.EnsureUser(ctx, cfg.Username)
	if err != nil {
		fatal("load user profile", err)
	}

	convlog, err := agent.NewConversationLogger(agent.ConversationLogConfig{
		Enabled:   cfg.ConversationLog.Enabled,
		Dir:       cfg.ConversationLog.Dir,
		QueueSize: cfg.ConversationLog.QueueSize,
	}, logger)
	if err != nil {
		fatal("initialize conversation logger", err)
	}
	defer func() {
		if closeErr := convlog.Close(); closeErr != nil {
			logger.Error("close conversation logger", "error", closeErr)
		}
	}()

	settings := agent.ProfileSettings{
		Repo:      repo,
		Username:  cfg.Username,
		EnvAPIKey: cfg.GeminiAPIKey,
		EnvModel:  cfg.DefaultModel,
	}
	client := ai.NewGemini(settings, ai.GeminiConfig{RequestTimeout: cfg.RequestTimeout}, logger)
	assistant := agent.New(repo, client, user, convlog, logger)

	git := gitops.NewCLI(".")
	analyzer := project.NewAnalyzer()

	printer := term.NewPrinter(os.Stdout)
	prog := progress.New(term.NewBarRenderer(os.Stdout), progress.DefaultConfig())

	registry := command.NewRegistry()
	registry.Register(command.NewSetup(assistant, repo, client.Refresh))
	registry.Register(command.NewModels(assistant, repo, client.Refresh))
	registry.Register(command.NewSessions(assistant, repo))
	registry.Register(command.NewCommit(assistant, settings, git))
	registry.Register(command.NewReview(assistant, settings, git))
	registry.Register(command.NewExplain(assistant, settings, analyzer))
	registry.Register(command.NewInit(assistant, settings, analyzer))
	registry.Register(command.NewClean(assistant, repo))
	registry.Register(command.NewHelp(registry))
	chat := command.NewChat(assistant, settings)

	if err := os.MkdirAll(filepath.Dir(cfg.HistoryFile), 0o755); err != nil {
		logger.Warn("create history directory", "error", err)
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "> ",
		HistoryFile:       cfg.HistoryFile,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
		Stdin:             readline.NewCancelableStdin(os.Stdin),
		Stdout:            os.Stdout,
		Stderr:            os.Stderr,
	})
	if err != nil {
		fatal("initialize input", err)
	}
	defer func() {
		_ = rl.Close()
	}()

	// Pending-prompt hints ride in the readline prompt instead of a printed
	// line, so they sit right where the user types.
	printer.OnPlaceholder(func(hint string) {
		if hint == "" || hint == engine.IdleHint {
			rl.SetPrompt("> ")
			return
		}
		rl.SetPrompt("(" + hint + ") > ")
	})

	eng := engine.New(registry, chat, printer, prog, logger)

	printer.Print("CodePal - Gemini coding assistant")
	printer.Muted("Commands: /help /setup /models /sessions /commit /review /explain /init /clean")
	printer.Muted("Plain text is sent to the assistant. /exit to leave, /clear to clear the screen.")
	if apiKey, _, err := settings.AIConfig(ctx); err != nil || domain.ValidateAPIKey(apiKey) != nil {
		printer.Notice("No Gemini API key configured yet. Run /setup to get started.")
	}

	runREPL(ctx, eng, rl, printer, logger)

	printer.Print("Goodbye!")
	logger.Info("codepal stopped")
}

// runREPL feeds input lines to the engine until the user leaves. Ctrl-C
// cancels a pending prompt the same way an empty line does; Ctrl-D exits.
func runREPL(ctx context.Context, eng *engine.Engine, rl *readline.Instance, printer *term.Printer, log *slog.Logger) {
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if eng.State() == engine.StateAwaitingReply {
				eng.HandleLine(ctx, "")
			} else {
				printer.Muted("Use /exit to leave.")
			}
			continue
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			log.Error("read input", "error", err)
			return
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "/exit", "/quit":
			return
		case "/clear":
			fmt.Fprint(os.Stdout, "\x1b[2J\x1b[H")
			continue
		}

		eng.HandleLine(ctx, line)
	}
}
