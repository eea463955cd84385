package envelope_test

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/ensemble-api/internal/api/envelope"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func serve(h http.HandlerFunc) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/artists", nil)
	envelope.Guard(h).ServeHTTP(rec, req)
	return rec
}

func TestSend(t *testing.T) {
	t.Run("payload and meta", func(t *testing.T) {
		rec := serve(func(w http.ResponseWriter, r *http.Request) {
			err := envelope.Send(w, r, []string{"a", "b"}, envelope.OK, map[string]int{"page": 1})
			assert.NoError(t, err)
		})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
		body := decode(t, rec)
		assert.Equal(t, float64(200), body["status"])
		assert.Equal(t, []any{"a", "b"}, body["data"])
		assert.Equal(t, map[string]any{"page": float64(1)}, body["meta"])
	})

	t.Run("meta omitted when nil", func(t *testing.T) {
		rec := serve(func(w http.ResponseWriter, r *http.Request) {
			assert.NoError(t, envelope.Send(w, r, "created", envelope.Created, nil))
		})

		assert.Equal(t, http.StatusCreated, rec.Code)
		body := decode(t, rec)
		assert.NotContains(t, body, "meta")
		assert.Equal(t, "created", body["data"])
	})

	t.Run("double send is detected", func(t *testing.T) {
		var second error
		rec := serve(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, envelope.Send(w, r, "first", envelope.OK, nil))
			second = envelope.Send(w, r, "second", envelope.InternalServerError, nil)
		})

		assert.ErrorIs(t, second, envelope.ErrAlreadySent)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "first", decode(t, rec)["data"])
	})

	t.Run("zero status becomes a server error", func(t *testing.T) {
		rec := serve(func(w http.ResponseWriter, r *http.Request) {
			assert.NoError(t, envelope.Send(w, r, "oops", envelope.Status{}, nil))
		})

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, float64(500), body["status"])
		assert.Equal(t, "oops", body["data"])
	})

	t.Run("unencodable payload becomes a server error", func(t *testing.T) {
		rec := serve(func(w http.ResponseWriter, r *http.Request) {
			assert.NoError(t, envelope.Send(w, r, math.Inf(1), envelope.OK, nil))
		})

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, float64(500), decode(t, rec)["status"])
	})
}

func TestSendError(t *testing.T) {
	t.Run("zero status is logged as a server error", func(t *testing.T) {
		rec := serve(func(w http.ResponseWriter, r *http.Request) {
			assert.NoError(t, envelope.SendError(w, r, envelope.Status{}, errors.New("lost status"), nil))
		})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "lost status", decode(t, rec)["data"])
	})

	t.Run("server error carries redacted diagnostics", func(t *testing.T) {
		rec := serve(func(w http.ResponseWriter, r *http.Request) {
			err := errors.New("dial postgres://app:hunter2@db:5432/ensemble failed")
			assert.NoError(t, envelope.SendError(w, r, envelope.InternalServerError, err, nil))
		})

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		data, ok := decode(t, rec)["data"].(string)
		require.True(t, ok)
		assert.NotContains(t, data, "hunter2")
		assert.Contains(t, data, "REDACTED")
	})

	t.Run("explicit data wins", func(t *testing.T) {
		details := []map[string]string{{"field": "name", "message": "name is required"}}
		rec := serve(func(w http.ResponseWriter, r *http.Request) {
			assert.NoError(t, envelope.SendError(w, r, envelope.UnprocessableEntity, errors.New("invalid"), details))
		})

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		data := decode(t, rec)["data"].([]any)
		require.Len(t, data, 1)
	})

	t.Run("nil error falls back to status text", func(t *testing.T) {
		rec := serve(func(w http.ResponseWriter, r *http.Request) {
			assert.NoError(t, envelope.SendError(w, r, envelope.NotFound, nil, nil))
		})
		assert.Equal(t, "Not Found", decode(t, rec)["data"])
	})
}

func TestStatusVocabulary(t *testing.T) {
	assert.Equal(t, 422, envelope.UnprocessableEntity.Code())
	assert.Equal(t, "UNPROCESSABLE_ENTITY", envelope.UnprocessableEntity.String())
	assert.True(t, envelope.Unauthorized.IsError())
	assert.False(t, envelope.OK.IsError())
	assert.Equal(t, 0, envelope.Status{}.Code())
}
