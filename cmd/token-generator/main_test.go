package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/phrazzld/ensemble-api/internal/auth"
	"github.com/phrazzld/ensemble-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssue(t *testing.T) {
	cfg := config.AuthConfig{JWTSecret: "0123456789abcdef0123456789abcdef", TokenLifetimeMinutes: 60}

	token, err := issue(context.Background(), cfg, "admin", 5)
	require.NoError(t, err)

	tokens, err := auth.NewTokenService(cfg)
	require.NoError(t, err)
	claims, err := tokens.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)
	assert.WithinDuration(t, claims.IssuedAt.Add(5*time.Minute), claims.ExpiresAt, 0)
}

func TestIssueWithoutSecret(t *testing.T) {
	_, err := issue(context.Background(), config.AuthConfig{}, "admin", 0)
	assert.ErrorContains(t, err, "jwt_secret")
}

func TestRunRequiresSubject(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run(nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "-subject is required")
	assert.Empty(t, stdout.String())
}
