package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"parcel-tracker/internal/auth"
	"parcel-tracker/internal/clock"
	"parcel-tracker/internal/config"
	"parcel-tracker/internal/models"
	"parcel-tracker/internal/prompt"
	"parcel-tracker/internal/service"
	"parcel-tracker/internal/storage"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var cfg config.Config
	if err := config.ParseEnv(&cfg); err != nil {
		return err
	}

	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	username := fs.String("user", "", "Username")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to database file")
	fs.StringVar(&cfg.PasswordHashing, "hashing", cfg.PasswordHashing, "Password storage: bcrypt or plain")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *username == "" {
		fmt.Fprintln(stdout, "Usage: adduser -user <username> [-password <password>] [-db <db_path>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: user")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	password := *passwordFlag
	if password == "" {
		var err error
		password, err = prompt.Password(stdin, stdout, "Password: ")
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	}

	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
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

	svc := service.New(db, hasher, clock.NewCalendar(time.Now()))
	err = svc.Register(context.Background(), *username, password, models.RoleCustomer)
	if errors.Is(err, service.ErrUsernameTaken) {
		return fmt.Errorf("user %s already exists", *username)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(stdout, "User %s created successfully\n", *username)
	return nil
}
