package validation_test

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/phrazzld/ensemble-api/internal/domain"
	"github.com/phrazzld/ensemble-api/internal/locale"
	"github.com/phrazzld/ensemble-api/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var courseSchema = validation.Schema{Fields: []validation.Field{
	{Name: "title", Type: validation.String, Rules: []validation.Rule{
		validation.RequiredRule(), validation.MinLengthRule(3), validation.MaxLengthRule(20),
	}},
	{Name: "level", Type: validation.String, Rules: []validation.Rule{
		validation.RequiredRule(), validation.OneOfRule("beginner", "advanced"),
	}},
	{Name: "duration", Type: validation.Number, Rules: []validation.Rule{
		validation.IntegerRule(), validation.MinRule(1), validation.MaxRule(600),
	}},
	{Name: "artist_id", Type: validation.String, Rules: []validation.Rule{validation.UUIDRule()}},
	{Name: "contact", Type: validation.String, Rules: []validation.Rule{validation.EmailRule()}},
	{Name: "website", Type: validation.String, Rules: []validation.Rule{validation.URLRule()}},
	{Name: "published", Type: validation.Boolean},
}}

func boundValidator(t *testing.T, name string) *validation.Validator {
	t.Helper()
	catalog, err := locale.NewCatalog()
	require.NoError(t, err)
	v := validation.New(catalog)
	require.NoError(t, v.Bind(name))
	return v
}

func details(t *testing.T, err error) []validation.Detail {
	t.Helper()
	require.Error(t, err)
	var ve *validation.ValidationError
	require.ErrorAs(t, err, &ve)
	require.ErrorIs(t, err, domain.ErrValidation)
	return ve.Details
}

func TestValidateBeforeBind(t *testing.T) {
	catalog, err := locale.NewCatalog()
	require.NoError(t, err)
	v := validation.New(catalog)

	_, err = v.Validate(map[string]any{"title": "Jazz"}, courseSchema, validation.Full)
	assert.ErrorIs(t, err, validation.ErrUnbound)
	assert.Equal(t, "", v.Locale())
}

func TestBindUnsupportedLocale(t *testing.T) {
	catalog, err := locale.NewCatalog()
	require.NoError(t, err)
	v := validation.New(catalog)

	err = v.Bind("ja")
	assert.ErrorIs(t, err, locale.ErrUnsupportedLocale)
	assert.Equal(t, "", v.Locale())
}

func TestValidateAcceptsAndNormalizes(t *testing.T) {
	v := boundValidator(t, "en")

	out, err := v.Validate(map[string]any{
		"title":     "Jazz Piano",
		"level":     "beginner",
		"duration":  json.Number("90"),
		"artist_id": "6f1c2a8e-7a4b-4c1e-9d1b-2f5e3c4d5a6b",
		"contact":   "coach@example.com",
		"website":   "https://example.com",
		"published": true,
	}, courseSchema, validation.Full)
	require.NoError(t, err)
	assert.Equal(t, int64(90), out["duration"])
	assert.Equal(t, "Jazz Piano", out["title"])
	assert.Equal(t, true, out["published"])
}

func TestValidateFailures(t *testing.T) {
	v := boundValidator(t, "en")

	tests := []struct {
		name    string
		payload map[string]any
		mode    validation.Mode
		field   string
		rule    string
		message string
	}{
		{
			name:    "field exceeds max length",
			payload: map[string]any{"title": strings.Repeat("a", 21), "level": "beginner"},
			field:   "title",
			rule:    "maxLength",
			message: "title must be at most 20 characters long",
		},
		{
			name:    "missing required field",
			payload: map[string]any{"title": "Jazz"},
			field:   "level",
			rule:    "required",
			message: "level is required",
		},
		{
			name:    "blank required string",
			payload: map[string]any{"title": "   ", "level": "beginner"},
			field:   "title",
			rule:    "required",
		},
		{
			name:    "choice outside set",
			payload: map[string]any{"title": "Jazz", "level": "expert"},
			field:   "level",
			rule:    "oneOf",
			message: "level must be one of [beginner, advanced]",
		},
		{
			name:    "fractional integer",
			payload: map[string]any{"title": "Jazz", "level": "beginner", "duration": 1.5},
			field:   "duration",
			rule:    "integer",
		},
		{
			name:    "integer beyond exact float range",
			payload: map[string]any{"title": "Jazz", "level": "beginner", "duration": 1e30},
			field:   "duration",
			rule:    "integer",
		},
		{
			name:    "below minimum",
			payload: map[string]any{"title": "Jazz", "level": "beginner", "duration": float64(0)},
			field:   "duration",
			rule:    "min",
			message: "duration must be 1 or greater",
		},
		{
			name:    "wrong type",
			payload: map[string]any{"title": 12.0, "level": "beginner"},
			field:   "title",
			rule:    "type",
			message: "title must be a string",
		},
		{
			name:    "bad uuid",
			payload: map[string]any{"title": "Jazz", "level": "beginner", "artist_id": "nope"},
			field:   "artist_id",
			rule:    "uuid",
		},
		{
			name:    "bad email",
			payload: map[string]any{"title": "Jazz", "level": "beginner", "contact": "nope"},
			field:   "contact",
			rule:    "email",
		},
		{
			name:    "unknown field",
			payload: map[string]any{"title": "Jazz", "level": "beginner", "rating": 5.0},
			field:   "rating",
			rule:    "unknown",
			message: "rating is not allowed",
		},
		{
			name:    "partial mode still checks present fields",
			payload: map[string]any{"title": "ab"},
			mode:    validation.Partial,
			field:   "title",
			rule:    "minLength",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := v.Validate(tt.payload, courseSchema, tt.mode)
			assert.Nil(t, out)
			assert.ErrorIs(t, err, domain.ErrValidation)

			got := details(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, tt.field, got[0].Field)
			assert.Equal(t, tt.rule, got[0].Rule)
			if tt.message != "" {
				assert.Equal(t, tt.message, got[0].Message)
			}
		})
	}
}

func TestValidatePartialSkipsRequired(t *testing.T) {
	v := boundValidator(t, "en")

	out, err := v.Validate(map[string]any{"duration": "45"}, courseSchema, validation.Partial)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"duration": int64(45)}, out)
}

func TestValidateReportsEveryField(t *testing.T) {
	v := boundValidator(t, "en")

	_, err := v.Validate(map[string]any{}, courseSchema, validation.Full)
	got := details(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "level", got[0].Field)
	assert.Equal(t, "title", got[1].Field)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidateUsesBoundLocale(t *testing.T) {
	v := boundValidator(t, "fr")
	assert.Equal(t, "fr", v.Locale())

	_, err := v.Validate(map[string]any{"title": "Jazz"}, courseSchema, validation.Full)
	got := details(t, err)
	assert.Equal(t, "level est obligatoire", got[0].Message)
}

func TestValidateConcurrentWithRebind(t *testing.T) {
	v := boundValidator(t, "en")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				assert.NoError(t, v.Bind("es"))
				return
			}
			_, err := v.Validate(map[string]any{"title": "Jazz", "level": "beginner"}, courseSchema, validation.Full)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
}

func TestValidateNullRequiredFieldInPartialMode(t *testing.T) {
	v := boundValidator(t, "en")

	_, err := v.Validate(map[string]any{"title": nil}, courseSchema, validation.Partial)
	got := details(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "required", got[0].Rule)

	out, err := v.Validate(map[string]any{"contact": nil}, courseSchema, validation.Partial)
	require.NoError(t, err)
	assert.Contains(t, out, "contact")
	assert.Nil(t, out["contact"])
}
