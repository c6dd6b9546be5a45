package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/invman/internal/api"
	"github.com/erazemk/invman/internal/db"
	"github.com/erazemk/invman/internal/metrics"
	"github.com/erazemk/invman/internal/model"
	"github.com/erazemk/invman/internal/store"
)

func runServe(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("invman serve", flag.ContinueOnError)
	fs.SetOutput(a.out)

	var adminEmail string
	fs.StringVar(&adminEmail, "admin", "admin@invman.local", "")
	fs.StringVar(&adminEmail, "u", "admin@invman.local", "")
	a.cfg.ServerFlags(fs)

	fs.Usage = func() {
		fmt.Fprint(a.out, `Usage: invman serve [flags]

Flags:
  -d, -db <path>          SQLite database path (default: INVMAN_DB or invman.sqlite3)
  -a, -addr <host:port>   listen address (default: INVMAN_ADDR or :8000)
  -u, -admin <email>      admin email on first run (default: admin@invman.local)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -h, -help               show this help and exit
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	closeLog, err := setupLogger(a.cfg.LogFile, slog.LevelInfo, os.Stdout)
	if err != nil {
		return err
	}
	a.closeLog = closeLog

	dbPath := a.cfg.DBPath

	// Check if DB exists, auto-init if not.
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		database, password, err := initDatabase(dbPath, adminEmail)
		if err != nil {
			return fmt.Errorf("initializing database: %w", err)
		}
		database.Close()

		printInitResult(a, dbPath, adminEmail, password)
		fmt.Fprintln(a.out)
	}

	database, err := db.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Idempotent.
	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	slog.Info("database ready", "path", dbPath)

	// INVMAN_JWT_SECRET wins over the secret generated on first run.
	jwtSecret := a.cfg.JWTSecret
	if jwtSecret == "" {
		jwtSecret, err = store.GetJWTSecret(ctx, database)
		if err != nil {
			return fmt.Errorf("getting JWT secret: %w", err)
		}
	}

	server := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           api.NewRouter(database, jwtSecret, metrics.New()),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", a.cfg.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("server stopped, closing database")
	return nil
}

// initDatabase creates a new database, runs the migrations and creates the admin user.
func initDatabase(path, adminEmail string) (*sql.DB, string, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening database: %w", err)
	}

	fail := func(err error) (*sql.DB, string, error) {
		database.Close()
		os.Remove(path)
		return nil, "", err
	}

	if err := db.Migrate(database); err != nil {
		return fail(fmt.Errorf("migrating database: %w", err))
	}

	password, err := generatePassword(16)
	if err != nil {
		return fail(fmt.Errorf("generating password: %w", err))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fail(fmt.Errorf("hashing password: %w", err))
	}

	ctx := context.Background()
	if _, err := store.CreateUser(ctx, database, adminEmail, "Admin", string(hash), model.RoleAdmin); err != nil {
		return fail(fmt.Errorf("creating admin user: %w", err))
	}

	return database, password, nil
}

func printInitResult(a *app, dbPath, email, password string) {
	fmt.Fprintf(a.out, "Database created: %s\n", dbPath)
	fmt.Fprintln(a.out, "Schema initialized.")
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "Admin account created:")
	fmt.Fprintf(a.out, "  Email:    %s\n", email)
	fmt.Fprintf(a.out, "  Password: %s\n", password)
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "Save this password, it cannot be recovered.")
	fmt.Fprintln(a.out, "Sign in with 'invman login -admin' and change it with 'invman passwd'.")
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
