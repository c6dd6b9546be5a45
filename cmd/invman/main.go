package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/erazemk/invman/internal/client"
	"github.com/erazemk/invman/internal/config"
)

// levelRouter is a slog.Handler that routes records below ERROR to stdout and
// ERROR+ to stderr, dropping anything under min.
type levelRouter struct {
	min    slog.Level
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= lr.min
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		min:    lr.min,
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		min:    lr.min,
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

// setupLogger configures structured logging. Records below ERROR go to stdout,
// ERROR goes to stderr. If logPath is non-empty, all levels are also written
// to that file. Returns a cleanup function that closes the log file (if opened).
func setupLogger(logPath string, min slog.Level, stdout io.Writer) (func(), error) {
	opts := &slog.HandlerOptions{Level: min}

	var cleanup func()

	stdoutW := stdout
	stderrW := io.Writer(os.Stderr)

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdoutW = io.MultiWriter(stdout, f)
		stderrW = io.MultiWriter(os.Stderr, f)
	}

	handler := &levelRouter{
		min:    min,
		stdout: slog.NewTextHandler(stdoutW, opts),
		stderr: slog.NewTextHandler(stderrW, opts),
	}
	slog.SetDefault(slog.New(handler))
	return cleanup, nil
}

// command is an invman subcommand.
type command struct {
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"serve":      {"run the API server", runServe},
	"login":      {"sign in and save the session", runLogin},
	"logout":     {"sign out and forget the session", runLogout},
	"whoami":     {"show the signed-in user", runWhoami},
	"signup":     {"register a new user", runSignup},
	"passwd":     {"change your password", runPasswd},
	"users":      {"list users (admin)", runUsers},
	"dashboard":  {"show your role's summary", runDashboard},
	"org":        {"show the organization hierarchy", runOrg},
	"categories": {"list categories", runCategories},
	"products":   {"list products", runProducts},
	"customers":  {"list customers", runCustomers},
	"orders":     {"list, review and export orders", runOrders},
	"transfers":  {"list, create, review, export and watch stock transfers", runTransfers},
}

func usage(w io.Writer) {
	fmt.Fprint(w, "Usage: invman <command> [flags]\n\nCommands:\n")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-11s %s\n", name, commands[name].usage)
	}
	fmt.Fprint(w, `
Client flags (all commands except serve):
  -api <url>          API base URL (default: INVMAN_API_URL or http://localhost:8000)
  -session <path>     session file (default: INVMAN_SESSION_FILE or the user config dir)

Settings are also read from .env and INVMAN_* environment variables.
`)
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(1)
	}
	name := os.Args[1]
	if name == "-h" || name == "-help" || name == "help" {
		usage(os.Stdout)
		os.Exit(0)
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", name)
		usage(os.Stderr)
		os.Exit(1)
	}

	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := newApp(cfg, os.Stdin, os.Stdout)
	err = cmd.run(ctx, a, os.Args[2:])
	a.close()
	switch {
	case err == nil:
	case errors.Is(err, flag.ErrHelp):
	case errors.Is(err, client.ErrUnauthorized), errors.Is(err, client.ErrNotSignedIn):
		fmt.Fprintln(os.Stderr, "error: your session has expired or you are not signed in; log in again with 'invman login'")
		os.Exit(1)
	default:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
