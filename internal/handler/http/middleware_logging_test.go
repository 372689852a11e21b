package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/aberthet/chantier-sync/internal/logger"
)

// loggedRequest builds a request whose context carries a logger writing to
// buf, the way withTraceID sets one up in the real chain.
func loggedRequest(method, path string, buf *bytes.Buffer) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	zl := zerolog.New(buf).With().Timestamp().Logger()
	return req.WithContext(zl.WithContext(req.Context()))
}

func loggingHandler() *Handler {
	return &Handler{logger: logger.Nop()}
}

func TestWithLogging_AccessLine(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		path     string
		status   int
		body     string
		wantInLog []string
	}{
		{
			name:   "push accepted",
			method: http.MethodPost,
			path:   "/api/sync/push",
			status: http.StatusOK,
			body:   `{"success":["p1"]}`,
			wantInLog: []string{
				`"method":"POST"`,
				`"uri":"/api/sync/push"`,
				`"status":200`,
				`"size":18`,
				`"duration":`,
			},
		},
		{
			name:   "pull keeps the checkpoint query",
			method: http.MethodGet,
			path:   "/api/sync/pull?since=1700000000000",
			status: http.StatusOK,
			body:   `{"operations":[]}`,
			wantInLog: []string{
				`"uri":"/api/sync/pull?since=1700000000000"`,
				`"status":200`,
			},
		},
		{
			name:   "rejected session",
			method: http.MethodPost,
			path:   "/api/sync/push",
			status: http.StatusUnauthorized,
			wantInLog: []string{
				`"status":401`,
				`"size":0`,
			},
		},
		{
			name:   "version check from the client",
			method: http.MethodGet,
			path:   "/api/version",
			status: http.StatusOK,
			body:   `{"version":"1.4.0"}`,
			wantInLog: []string{
				`"method":"GET"`,
				`"status":200`,
			},
		},
		{
			name:   "conflicted resolve",
			method: http.MethodPost,
			path:   "/api/sync/resolve",
			status: http.StatusConflict,
			body:   `{"error":"version périmée"}`,
			wantInLog: []string{
				`"status":409`,
			},
		},
		{
			name:   "server failure",
			method: http.MethodGet,
			path:   "/api/sync/pull",
			status: http.StatusInternalServerError,
			wantInLog: []string{
				`"status":500`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logBuf bytes.Buffer

			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				if tt.body != "" {
					_, _ = w.Write([]byte(tt.body))
				}
			})

			rr := httptest.NewRecorder()
			loggingHandler().withLogging(next).ServeHTTP(rr, loggedRequest(tt.method, tt.path, &logBuf))

			assert.Equal(t, tt.status, rr.Code)
			for _, want := range tt.wantInLog {
				assert.Contains(t, logBuf.String(), want)
			}
		})
	}
}

func TestWithLogging_ImplicitStatusIs200(t *testing.T) {
	var logBuf bytes.Buffer

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"version":"1.4.0"}`))
	})

	rr := httptest.NewRecorder()
	loggingHandler().withLogging(next).ServeHTTP(rr, loggedRequest(http.MethodGet, "/api/version", &logBuf))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, logBuf.String(), `"status":200`)
}

func TestWithLogging_SizeCountsTheWholeBatch(t *testing.T) {
	var logBuf bytes.Buffer
	batch := bytes.Repeat([]byte("x"), 2048)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(batch)
	})

	rr := httptest.NewRecorder()
	loggingHandler().withLogging(next).ServeHTTP(rr, loggedRequest(http.MethodGet, "/api/sync/pull", &logBuf))

	assert.Contains(t, logBuf.String(), `"size":2048`)
}

func TestWithLogging_ConcurrentDevices(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	middleware := loggingHandler().withLogging(next)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			var buf bytes.Buffer
			rr := httptest.NewRecorder()
			middleware.ServeHTTP(rr, loggedRequest(http.MethodPost, "/api/sync/push", &buf))

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Contains(t, buf.String(), `"status":200`)
		}()
	}
	wg.Wait()
}

func TestWithLogging_SlowHandlerDurationObserved(t *testing.T) {
	delay := 60 * time.Millisecond
	var logBuf bytes.Buffer

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(delay)
		w.WriteHeader(http.StatusOK)
	})

	start := time.Now()
	rr := httptest.NewRecorder()
	loggingHandler().withLogging(next).ServeHTTP(rr, loggedRequest(http.MethodGet, "/api/sync/pull", &logBuf))

	assert.GreaterOrEqual(t, time.Since(start), delay)
	assert.Contains(t, logBuf.String(), `"duration":`)
}

func TestWithLogging_PanicFlowsToRecoverer(t *testing.T) {
	// recovery belongs to chi's Recoverer, mounted above this middleware
	var logBuf bytes.Buffer

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	assert.Panics(t, func() {
		loggingHandler().withLogging(next).
			ServeHTTP(httptest.NewRecorder(), loggedRequest(http.MethodGet, "/api/version", &logBuf))
	})
}

func TestWithLogging_NopLoggerInContext(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	nop := logger.Nop()
	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	req = req.WithContext(nop.Logger.WithContext(req.Context()))

	rr := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		loggingHandler().withLogging(next).ServeHTTP(rr, req)
	})
	assert.Equal(t, http.StatusOK, rr.Code)
}
