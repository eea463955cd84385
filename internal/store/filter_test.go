package store_test

import (
	"encoding/json"
	"testing"

	"github.com/phrazzld/ensemble-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilter(t *testing.T) {
	t.Run("empty matches everything", func(t *testing.T) {
		f, err := store.ParseFilter("  ")
		require.NoError(t, err)
		assert.Nil(t, f)
	})

	t.Run("object with operators", func(t *testing.T) {
		f, err := store.ParseFilter(`{"genre":"jazz","duration_minutes":{"$gte":30}}`)
		require.NoError(t, err)
		assert.Equal(t, "jazz", f["genre"])
		ops, ok := f["duration_minutes"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, json.Number("30"), ops["$gte"])
	})

	invalid := map[string]string{
		"not json":      `{genre:jazz}`,
		"array":         `[1,2]`,
		"null":          `null`,
		"trailing data": `{"a":1} {"b":2}`,
	}
	for name, raw := range invalid {
		t.Run(name, func(t *testing.T) {
			f, err := store.ParseFilter(raw)
			assert.ErrorIs(t, err, store.ErrMalformedFilter)
			assert.Nil(t, f)
		})
	}
}
