package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/erazemk/invman/internal/catalog"
	"github.com/erazemk/invman/internal/client"
	"github.com/erazemk/invman/internal/config"
	"github.com/erazemk/invman/internal/session"
	"github.com/erazemk/invman/internal/transfer"
)

// app carries what client subcommands share.
type app struct {
	cfg *config.Config
	in  *bufio.Reader
	out io.Writer

	client  *client.Client
	catalog *catalog.Catalog
	yes     bool

	closeLog func()
}

func newApp(cfg *config.Config, in io.Reader, out io.Writer) *app {
	return &app{cfg: cfg, in: bufio.NewReader(in), out: out}
}

// flags returns a flag set with the client flags registered.
func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("invman "+name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	a.cfg.ClientFlags(fs)
	return fs
}

// confirmFlag registers -yes on fs.
func (a *app) confirmFlag(fs *flag.FlagSet) {
	fs.BoolVar(&a.yes, "yes", false, "do not ask for confirmation")
	fs.BoolVar(&a.yes, "y", false, "do not ask for confirmation")
}

// connect builds the client once flags are parsed.
func (a *app) connect(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	closeLog, err := setupLogger(a.cfg.LogFile, slog.LevelWarn, a.out)
	if err != nil {
		return err
	}
	a.closeLog = closeLog

	a.client = client.New(a.cfg.APIURL, session.NewFile(a.cfg.SessionFile))
	a.catalog = catalog.New(a.client, nil)
	return nil
}

func (a *app) close() {
	if a.closeLog != nil {
		a.closeLog()
	}
}

// user returns the signed-in user without contacting the server.
func (a *app) user() (*session.User, error) {
	s, err := a.client.Session.Get()
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, client.ErrNotSignedIn
	}
	return &s.User, nil
}

func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label)
	line, err := a.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", fmt.Errorf("reading %s: %w", strings.TrimSpace(strings.TrimSuffix(label, ":")), err)
	}
	return strings.TrimSpace(line), nil
}

func (a *app) promptInt(label string) (int64, error) {
	for {
		s, err := a.prompt(label)
		if err != nil {
			return 0, err
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			return n, nil
		}
		fmt.Fprintf(a.out, "not a number: %q\n", s)
	}
}

// Confirm asks y/N unless -yes was given.
func (a *app) Confirm(_ context.Context, s transfer.Summary) (bool, error) {
	return a.ask(s.String())
}

func (a *app) ask(question string) (bool, error) {
	if a.yes {
		return true, nil
	}
	answer, err := a.prompt(question + " [y/N]: ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func (a *app) table() *tabwriter.Writer {
	return newTable(a.out)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// argID parses the single id argument of fs.
func argID(fs *flag.FlagSet, what string) (int64, error) {
	if fs.NArg() != 1 {
		return 0, fmt.Errorf("expected one %s id", what)
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id: %q", what, fs.Arg(0))
	}
	return id, nil
}
