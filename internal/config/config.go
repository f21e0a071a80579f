// Package config loads runtime settings from the environment and flags.
package config

import (
	"errors"
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Password hashing modes.
const (
	HashingBcrypt = "bcrypt"
	HashingPlain  = "plain"
)

// Config holds the settings shared by the binaries.
type Config struct {
	DBPath          string `env:"DB_PATH" envDefault:"parcels.db"`
	AdminUser       string `env:"ADMIN_USER" envDefault:"admin"`
	AdminPassword   string `env:"ADMIN_PASSWORD"`
	PasswordHashing string `env:"PASSWORD_HASHING" envDefault:"bcrypt"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads the environment first and lets flags in args override it.
func Load(fs *flag.FlagSet, args []string) (Config, error) {
	if fs == nil {
		return Config{}, errors.New("flag parser is required")
	}

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to database file")
	fs.StringVar(&cfg.AdminUser, "admin", cfg.AdminUser, "Administrator username seeded when absent")
	fs.StringVar(&cfg.AdminPassword, "admin-password", cfg.AdminPassword, "Administrator password (prompted if omitted)")
	fs.StringVar(&cfg.PasswordHashing, "hashing", cfg.PasswordHashing, "Password storage: bcrypt or plain")

	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that the environment parser cannot.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("database path is required")
	}
	if c.AdminUser == "" {
		return errors.New("administrator username is required")
	}
	switch c.PasswordHashing {
	case HashingBcrypt, HashingPlain:
	default:
		return fmt.Errorf("unknown password hashing %q", c.PasswordHashing)
	}
	return nil
}
