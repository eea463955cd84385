package shared

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTraceID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx), "Expected empty trace ID in original context")

	id := NewTraceID()
	assert.Len(t, id, 32)
	_, err := hex.DecodeString(id)
	assert.NoError(t, err, "Expected valid hex string")
	assert.NotEqual(t, id, NewTraceID())

	withTrace := WithTraceID(ctx, id)
	assert.Equal(t, id, GetTraceID(withTrace))
	assert.Empty(t, GetTraceID(ctx), "Expected original context to remain unchanged")
}

func TestGetTraceIDWithInvalidContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), TraceIDKey, 123)
	assert.Empty(t, GetTraceID(ctx), "Expected empty trace ID when context has invalid type")
}

func TestSubject(t *testing.T) {
	_, ok := GetSubject(context.Background())
	assert.False(t, ok)

	subject, ok := GetSubject(WithSubject(context.Background(), "admin"))
	assert.True(t, ok)
	assert.Equal(t, "admin", subject)

	_, ok = GetSubject(WithSubject(context.Background(), ""))
	assert.False(t, ok)
}
