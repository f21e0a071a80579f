package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"parcel-tracker/internal/auth"
	"parcel-tracker/internal/clock"
	"parcel-tracker/internal/config"
	"parcel-tracker/internal/handlers"
	"parcel-tracker/internal/prompt"
	"parcel-tracker/internal/service"
	"parcel-tracker/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	log.SetOutput(stderr)

	fs := flag.NewFlagSet("parcel", flag.ContinueOnError)
	fs.SetOutput(stderr)

	cfg, err := config.Load(fs, args)
	if err != nil {
		return err
	}

	hasher, err := auth.NewHasher(cfg.PasswordHashing)
	if err != nil {
		return err
	}

	db, err := storage.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	svc := service.New(db, hasher, clock.System())
	if err := seedAdministrator(ctx, svc, cfg, stdin, stdout); err != nil {
		return err
	}

	shell := handlers.NewHandlers(svc, stdout)
	if prompt.IsTerminal(stdin) {
		shell.Prompt = "> "
		fmt.Fprintln(stdout, "Type help for a list of commands.")
	}
	return shell.Run(ctx, stdin)
}

// seedAdministrator creates the administrator on first start. Without a
// configured password it asks for one, but only on a terminal.
func seedAdministrator(ctx context.Context, svc *service.Service, cfg config.Config, stdin io.Reader, stdout io.Writer) error {
	exists, err := svc.HasAdministrator(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	password := cfg.AdminPassword
	if password == "" {
		password, err = prompt.TerminalPassword(stdin, stdout, fmt.Sprintf("Password for administrator %s: ", cfg.AdminUser))
		if errors.Is(err, prompt.ErrNotTerminal) {
			return errors.New("administrator password is required: set ADMIN_PASSWORD or -admin-password")
		}
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	}

	if _, err := svc.SeedAdministrator(ctx, cfg.AdminUser, password); err != nil {
		return fmt.Errorf("failed to create administrator: %w", err)
	}
	return nil
}
