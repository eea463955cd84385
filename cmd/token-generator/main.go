// Command token-generator prints a signed bearer token for the write
// routes. The secret and lifetime come from the same configuration the
// server loads (ENSEMBLE_AUTH_JWT_SECRET, ENSEMBLE_AUTH_TOKEN_LIFETIME_MINUTES).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/phrazzld/ensemble-api/internal/auth"
	"github.com/phrazzld/ensemble-api/internal/config"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("token-generator", flag.ContinueOnError)
	flags.SetOutput(stderr)
	subject := flags.String("subject", "", "subject the token is issued to")
	lifetime := flags.Int("lifetime", 0, "token lifetime in minutes (defaults to the configured lifetime)")
	if err := flags.Parse(args); err != nil {
		return 2
	}
	if *subject == "" {
		fmt.Fprintln(stderr, "-subject is required")
		return 2
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(stderr, "failed to read .env: %v\n", err)
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "failed to load configuration: %v\n", err)
		return 1
	}

	token, err := issue(context.Background(), cfg.Auth, *subject, *lifetime)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, token)
	return 0
}

func issue(ctx context.Context, cfg config.AuthConfig, subject string, lifetime int) (string, error) {
	if cfg.JWTSecret == "" {
		return "", errors.New("auth.jwt_secret is not configured")
	}
	if lifetime > 0 {
		cfg.TokenLifetimeMinutes = lifetime
	}

	tokens, err := auth.NewTokenService(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to initialize token service: %w", err)
	}
	return tokens.GenerateToken(ctx, subject)
}
