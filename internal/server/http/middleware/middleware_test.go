package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/lip/internal/common"
	"github.com/dmitrijs2005/lip/internal/logging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// chain wraps h so that mws run in the order given.
func chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// recLogger keeps every record, with the attributes of With merged in.
type recLogger struct {
	mu      *sync.Mutex
	base    []any
	records *[]record
}

type record struct {
	level string
	msg   string
	attrs map[string]any
}

func newRecLogger() *recLogger {
	return &recLogger{mu: &sync.Mutex{}, records: &[]record{}}
}

func (l *recLogger) log(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	attrs := map[string]any{}
	all := append(append([]any{}, l.base...), args...)
	for i := 0; i+1 < len(all); i += 2 {
		if k, ok := all[i].(string); ok {
			attrs[k] = all[i+1]
		}
	}
	*l.records = append(*l.records, record{level: level, msg: msg, attrs: attrs})
}

func (l *recLogger) Debug(_ context.Context, msg string, args ...any) { l.log("debug", msg, args) }
func (l *recLogger) Info(_ context.Context, msg string, args ...any)  { l.log("info", msg, args) }
func (l *recLogger) Warn(_ context.Context, msg string, args ...any)  { l.log("warn", msg, args) }
func (l *recLogger) Error(_ context.Context, msg string, args ...any) { l.log("error", msg, args) }

func (l *recLogger) With(args ...any) logging.Logger {
	return &recLogger{mu: l.mu, base: append(append([]any{}, l.base...), args...), records: l.records}
}

func (l *recLogger) all() []record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]record(nil), *l.records...)
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name+"-begin")
				next.ServeHTTP(w, r)
				order = append(order, name+"-end")
			})
		}
	}
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
		w.WriteHeader(http.StatusTeapot)
	})

	rr := httptest.NewRecorder()
	chain(final, mw("m1"), mw("m2")).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, []string{"m1-begin", "m2-begin", "handler", "m2-end", "m1-end"}, order)
	require.Equal(t, http.StatusTeapot, rr.Code)
}

func TestRequestID_GeneratesUUID(t *testing.T) {
	var seen string
	h := chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}), RequestID())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/create", nil))

	got := rr.Header().Get(common.RequestIDHeaderName)
	_, err := uuid.Parse(got)
	require.NoError(t, err)
	require.Equal(t, got, seen)
}

func TestRequestID_KeepsClientValue(t *testing.T) {
	h := chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}), RequestID())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(common.RequestIDHeaderName, "rid-1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, "rid-1", rr.Header().Get(common.RequestIDHeaderName))
}

func TestLogging_RecordsRequestWithID(t *testing.T) {
	log := newRecLogger()
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logging.From(r.Context(), logging.Nop{}).Debug(r.Context(), "inside")
		_, _ = w.Write([]byte("0123456789"))
	})

	req := httptest.NewRequest(http.MethodPost, "/update", nil)
	req.Header.Set(common.RequestIDHeaderName, "rid-7")
	rr := httptest.NewRecorder()
	chain(final, RequestID(), Logging(log)).ServeHTTP(rr, req)

	recs := log.all()
	require.Len(t, recs, 2)
	require.Equal(t, "inside", recs[0].msg)
	require.Equal(t, "rid-7", recs[0].attrs["request_id"])

	last := recs[1]
	require.Equal(t, "http", last.msg)
	require.Equal(t, "rid-7", last.attrs["request_id"])
	require.Equal(t, http.MethodPost, last.attrs["method"])
	require.Equal(t, "/update", last.attrs["path"])
	require.Equal(t, http.StatusOK, last.attrs["status"])
	require.Equal(t, 10, last.attrs["bytes"])
}

func TestRecover_WritesInternalError(t *testing.T) {
	log := newRecLogger()
	h := chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}), Recover(log))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.JSONEq(t, `{"info":"internal server error"}`, rr.Body.String())

	recs := log.all()
	require.Len(t, recs, 1)
	require.Equal(t, "panic", recs[0].msg)
	require.Equal(t, "error", recs[0].level)
}

func TestTimeout_SetsDeadline(t *testing.T) {
	var has bool
	h := chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, has = r.Context().Deadline()
	}), Timeout(50*time.Millisecond))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, has)
}

func TestTimeout_KeepsEarlierDeadline(t *testing.T) {
	var got time.Time
	h := chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = r.Context().Deadline()
	}), Timeout(time.Hour))

	parent, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil).WithContext(parent))

	want, _ := parent.Deadline()
	require.Equal(t, want, got)
}

func TestTimeout_ZeroIsNoop(t *testing.T) {
	var has bool
	h := chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, has = r.Context().Deadline()
	}), Timeout(0))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.False(t, has)
}
