package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/projecteru2/logview/common"
	"github.com/projecteru2/logview/manager/logview"
	"github.com/projecteru2/logview/metrics"
	"github.com/projecteru2/logview/source/command"
	sourcemocks "github.com/projecteru2/logview/source/mocks"
	"github.com/projecteru2/logview/types"
	"github.com/projecteru2/logview/view"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *sourcemocks.Mosdns) {
	config := &types.Config{
		Source: types.SourceConfig{Type: common.MocksSource},
		Poll:   types.PollConfig{Interval: time.Second, Timeout: time.Second, ShutdownTimeout: time.Second},
		Clear:  types.ClearConfig{Timeout: time.Second},
		Buffer: types.BufferConfig{MaxLines: 100, MaxSize: "1M"},
	}
	src := sourcemocks.FromTemplate().(*sourcemocks.Mosdns)
	metricsClient := metrics.New("", "logview", prometheus.NewRegistry())
	manager, err := logview.New(config, src, metricsClient)
	require.NoError(t, err)

	h := NewHandler(config, manager, view.NewRegistry(time.Minute), metricsClient)
	server := httptest.NewServer(h.Router())
	t.Cleanup(server.Close)
	return server, src
}

func do(t *testing.T, method, url string) (int, string) {
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func doJSON(t *testing.T, method, url string) (int, map[string]interface{}) {
	code, body := do(t, method, url)
	r := map[string]interface{}{}
	require.NoError(t, json.Unmarshal([]byte(body), &r), body)
	return code, r
}

func TestLog(t *testing.T) {
	server, src := newTestServer(t)

	code, body := do(t, "GET", server.URL+"/log/")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, common.NoLogData, body)

	code, r := doJSON(t, "POST", server.URL+"/log/refresh/")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, r["refreshed"])
	assert.Equal(t, "line1\nline2", r["content"])

	code, body = do(t, "GET", server.URL+"/log/")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "line1\nline2", body)

	code, body = do(t, "GET", server.URL+"/log/?lines=1")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "line2", body)

	// errors keep what we had
	src.SetFetchError(errors.Wrap(common.ErrSourceUnavailable, "no such file"))
	doJSON(t, "POST", server.URL+"/log/refresh/")
	_, body = do(t, "GET", server.URL+"/log/")
	assert.Equal(t, "line1\nline2", body)

	code, r = doJSON(t, "GET", server.URL+"/log/status/")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "unavailable", r["last_error_kind"])
	assert.Equal(t, float64(2), r["lines"])
}

func TestClear(t *testing.T) {
	server, src := newTestServer(t)
	doJSON(t, "POST", server.URL+"/log/refresh/")

	src.SetClearError(errors.Wrap(common.ErrSourceNonZeroExit, "mosdns.sh exit status 1"))
	code, r := doJSON(t, "POST", server.URL+"/log/clear/")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.True(t, strings.HasPrefix(r["error"].(string), common.ErrClearFailed.Error()))
	_, body := do(t, "GET", server.URL+"/log/")
	assert.Equal(t, "line1\nline2", body)

	src.SetClearError(nil)
	code, r = doJSON(t, "POST", server.URL+"/log/clear/")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, common.NoLogData, r["content"])
	assert.Equal(t, float64(1), r["generation"])
}

func TestClearOutlivesClient(t *testing.T) {
	config := &types.Config{
		Source: types.SourceConfig{Type: common.CommandSource},
		Poll:   types.PollConfig{Interval: time.Second, Timeout: time.Second, ShutdownTimeout: time.Second},
		Clear:  types.ClearConfig{Timeout: 5 * time.Second},
		Buffer: types.BufferConfig{MaxLines: 100, MaxSize: "1M"},
	}
	src, err := command.New([]string{"/bin/sh", "-c", "printf 'line1\\n'"}, []string{"/bin/sh", "-c", "true"})
	require.NoError(t, err)
	metricsClient := metrics.New("", "logview", prometheus.NewRegistry())
	manager, err := logview.New(config, src, metricsClient)
	require.NoError(t, err)
	router := NewHandler(config, manager, view.NewRegistry(time.Minute), metricsClient).Router()

	// client already gone
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/log/clear/", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, uint64(1), manager.Status().Clears)
}

func TestFollow(t *testing.T) {
	config := &types.Config{
		Source: types.SourceConfig{Type: common.MocksSource},
		Poll:   types.PollConfig{Interval: time.Hour, Timeout: time.Second, ShutdownTimeout: time.Second},
		Clear:  types.ClearConfig{Timeout: time.Second},
		Buffer: types.BufferConfig{MaxLines: 100, MaxSize: "1M"},
	}
	src := sourcemocks.FromTemplate().(*sourcemocks.Mosdns)
	metricsClient := metrics.New("", "logview", prometheus.NewRegistry())
	manager, err := logview.New(config, src, metricsClient)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, manager.Run(ctx))
	}()
	server := httptest.NewServer(NewHandler(config, manager, view.NewRegistry(time.Minute), metricsClient).Router())
	defer server.Close()

	// wait for the first poll
	require.Eventually(t, func() bool { return manager.Snapshot().Text == "line1\nline2" }, time.Second, 10*time.Millisecond)

	resp, err := http.Get(server.URL + "/log/follow/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/x-ndjson", resp.Header.Get("Content-Type"))
	decoder := json.NewDecoder(resp.Body)

	next := func() map[string]interface{} {
		event := map[string]interface{}{}
		require.NoError(t, decoder.Decode(&event))
		return event
	}
	assert.Equal(t, "line1\nline2", next()["content"])

	src.SetLog("line1\nline2\nline3\n")
	require.Eventually(t, func() bool { return manager.Refresh(ctx) }, time.Second, 10*time.Millisecond)
	event := next()
	assert.Equal(t, "line1\nline2\nline3", event["content"])
	assert.Equal(t, float64(3), event["lines"])

	code, _ := doJSON(t, "POST", server.URL+"/log/clear/")
	assert.Equal(t, http.StatusOK, code)
	event = next()
	assert.Equal(t, common.NoLogData, event["content"])
	assert.Equal(t, float64(1), event["generation"])

	// stream ends with the daemon
	cancel()
	<-done
	assert.Error(t, decoder.Decode(&event))
}

func TestSession(t *testing.T) {
	server, src := newTestServer(t)
	doJSON(t, "POST", server.URL+"/log/refresh/")

	code, r := doJSON(t, "POST", server.URL+"/session/")
	assert.Equal(t, http.StatusCreated, code)
	ID := r["id"].(string)
	sessionURL := server.URL + "/session/" + ID + "/"

	// follows by default
	code, r = doJSON(t, "GET", sessionURL+"?height=200")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(200), r["offset"])
	assert.Equal(t, true, r["auto_follow"])

	code, r = doJSON(t, "PUT", sessionURL+"scroll/?offset=120")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, r["auto_follow"])

	// content grows, offset stays
	src.SetLog(strings.Repeat("line\n", 50))
	doJSON(t, "POST", server.URL+"/log/refresh/")
	_, r = doJSON(t, "GET", sessionURL+"?height=400")
	assert.Equal(t, float64(120), r["offset"])
	assert.Equal(t, false, r["auto_follow"])

	code, _ = doJSON(t, "PUT", sessionURL+"reset/")
	assert.Equal(t, http.StatusOK, code)
	_, r = doJSON(t, "GET", sessionURL)
	assert.Equal(t, float64(50), r["offset"])

	code, _ = doJSON(t, "DELETE", sessionURL)
	assert.Equal(t, http.StatusOK, code)
	code, r = doJSON(t, "GET", sessionURL)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, common.ErrSessionNotFound.Error(), r["error"])
	code, _ = doJSON(t, "DELETE", sessionURL)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestMisc(t *testing.T) {
	server, _ := newTestServer(t)

	code, r := doJSON(t, "GET", server.URL+"/version/")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "logview", r["name"])

	code, r = doJSON(t, "GET", server.URL+"/profile/")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, r, "goroutine")

	code, _ = do(t, "GET", server.URL+"/metrics")
	assert.Equal(t, http.StatusOK, code)
}
