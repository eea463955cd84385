package lifecycle_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/phrazzld/ensemble-api/internal/api/envelope"
	"github.com/phrazzld/ensemble-api/internal/lifecycle"
	"github.com/phrazzld/ensemble-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveGuarded(h http.Handler) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	envelope.Guard(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/work", nil))
	return rec
}

func TestSupervisorRecover(t *testing.T) {
	t.Run("contains the fault", func(t *testing.T) {
		reporter := &fakeReporter{}
		sup := lifecycle.NewSupervisor(false, reporter, logger.Discard())

		rec := serveGuarded(sup.Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic(errors.New("nil map write"))
		})))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"status":500,"data":"Internal server error"}`, rec.Body.String())
		require.Equal(t, 1, reporter.count())
		assert.Equal(t, "http GET /work", reporter.traces[0].Source)
		assert.NotEmpty(t, reporter.traces[0].Stack)

		select {
		case <-sup.Faults():
			t.Fatal("fault escalated outside development")
		default:
		}
	})

	t.Run("escalates when enabled", func(t *testing.T) {
		sup := lifecycle.NewSupervisor(true, &fakeReporter{}, logger.Discard())
		cause := errors.New("nil map write")

		rec := serveGuarded(sup.Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic(cause)
		})))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		select {
		case fault := <-sup.Faults():
			assert.ErrorIs(t, fault, cause)
		default:
			t.Fatal("fault not escalated")
		}
	})

	t.Run("keeps a response that was already sent", func(t *testing.T) {
		sup := lifecycle.NewSupervisor(false, &fakeReporter{}, logger.Discard())

		rec := serveGuarded(sup.Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = envelope.Send(w, r, "done", envelope.OK, nil)
			panic("after send")
		})))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":200,"data":"done"}`, rec.Body.String())
	})

	t.Run("re-panics aborted handlers", func(t *testing.T) {
		reporter := &fakeReporter{}
		sup := lifecycle.NewSupervisor(false, reporter, logger.Discard())

		assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
			serveGuarded(sup.Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				panic(http.ErrAbortHandler)
			})))
		})
		assert.Zero(t, reporter.count())
	})
}

func TestSupervisorGo(t *testing.T) {
	reporter := &fakeReporter{}
	sup := lifecycle.NewSupervisor(true, reporter, logger.Discard())

	ran := make(chan struct{})
	sup.Go(context.Background(), "ok job", func(context.Context) { close(ran) })
	sup.Go(context.Background(), "bad job", func(context.Context) { panic("job exploded") })
	sup.Wait()

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("job did not run")
	}

	select {
	case fault := <-sup.Faults():
		assert.Equal(t, "bad job", fault.Source)
		assert.Equal(t, "runtime fault in bad job: job exploded", fault.Error())
		assert.Nil(t, fault.Unwrap())
	default:
		t.Fatal("fault not escalated")
	}
	assert.Equal(t, 1, reporter.count())
}
