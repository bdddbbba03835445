package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/lip/internal/logging"
	"github.com/dmitrijs2005/lip/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c := &config.Config{}
	c.LoadDefaults()
	c.HTTPAddr = "127.0.0.1:0"
	c.DatabaseDSN = fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	c.Hasher = config.HasherSHA256
	c.ToStdout = false
	c.Env = logging.EnvProd
	return c
}

func call(t *testing.T, h http.Handler, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return rr.Code, out
}

func TestNewApp_ServesAgainstSQLite(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.db.Close() })

	h := app.Handler()

	code, _ := call(t, h, "/create", `{"id":"home","access_password":"a","master_password":"m","lifetime":60}`)
	require.Equal(t, http.StatusOK, code)

	code, body := call(t, h, "/jwt", `{"id":"home","password":"a","mode":"write"}`)
	require.Equal(t, http.StatusOK, code)
	write := body["info"].(string)

	code, body = call(t, h, "/jwt", `{"id":"home","password":"a","mode":"read"}`)
	require.Equal(t, http.StatusOK, code)
	read := body["info"].(string)

	code, _ = call(t, h, "/update", fmt.Sprintf(`{"jwt":%q,"ip_address":"[::1]:9000"}`, write))
	require.Equal(t, http.StatusOK, code)

	code, body = call(t, h, "/retrieve", fmt.Sprintf(`{"jwt":%q}`, read))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "[::1]:9000", body["info"])
	assert.LessOrEqual(t, body["lifetime"].(float64), 60.0)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rr.Body.String(), "lip_operations_total")
}

func TestNewApp_RejectsBadSettings(t *testing.T) {
	c := testConfig(t)
	c.Hasher = "md5"
	_, err := NewApp(context.Background(), c)
	assert.Error(t, err)

	c = testConfig(t)
	c.DBDriver = "oracle"
	_, err = NewApp(context.Background(), c)
	assert.Error(t, err)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	c := testConfig(t)
	c.GRPCAddr = "127.0.0.1:0"
	c.ReaperInterval = 10 * time.Millisecond

	app, err := NewApp(context.Background(), c)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	require.Eventually(t, app.ready.Load, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
	assert.False(t, app.ready.Load())
}
