package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	usersBefore := testutil.ToFloat64(usersCreated)
	appendedBefore := testutil.ToFloat64(exercisesAppended)

	RecordUserCreated()
	RecordExerciseAppended()
	RecordExerciseAppended()
	RecordLogQueried(3)

	assert.Equal(t, usersBefore+1, testutil.ToFloat64(usersCreated))
	assert.Equal(t, appendedBefore+2, testutil.ToFloat64(exercisesAppended))
}

func TestWithMetricsHTTPMiddleware(t *testing.T) {
	mux := chi.NewRouter()
	mux.Use(WithMetricsHTTPMiddleware)
	mux.Get("/api/exercise/log", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	before := testutil.CollectAndCount(httpRequestDuration)

	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/exercise/log?userId=abc", nil))
	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/exercise/log?userId=def", nil))

	assert.Equal(t, before+1, testutil.CollectAndCount(httpRequestDuration))

	recorder := httptest.NewRecorder()
	Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, recorder.Body.String(), `route="/api/exercise/log"`)
}
