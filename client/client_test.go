package client

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/projecteru2/logview/api"
	"github.com/projecteru2/logview/common"
	"github.com/projecteru2/logview/manager/logview"
	"github.com/projecteru2/logview/metrics"
	sourcemocks "github.com/projecteru2/logview/source/mocks"
	"github.com/projecteru2/logview/types"
	"github.com/projecteru2/logview/view"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *sourcemocks.Mosdns) {
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
	server := httptest.NewServer(api.NewHandler(config, manager, view.NewRegistry(time.Minute), metricsClient).Router())
	t.Cleanup(server.Close)

	c, err := New(server.URL, 5*time.Second)
	require.NoError(t, err)
	return c, src
}

func TestNew(t *testing.T) {
	_, err := New(" ", time.Second)
	assert.ErrorIs(t, err, ErrAPIUnavailable)

	c, err := New("127.0.0.1:7520/whatever?x=1", time.Second)
	assert.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:7520", c.base.String())
}

func TestClient(t *testing.T) {
	ctx := context.Background()
	c, src := newTestClient(t)

	text, err := c.Log(ctx, 0)
	assert.NoError(t, err)
	assert.Equal(t, common.NoLogData, text)

	text, err = c.Refresh(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "line1\nline2", text)

	text, err = c.Log(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, "line2", text)

	status, err := c.Status(ctx)
	assert.NoError(t, err)
	assert.Equal(t, common.MocksSource, status.Source)
	assert.Equal(t, 2, status.Lines)

	src.SetClearError(errors.Wrap(common.ErrSourceNonZeroExit, "mosdns.sh exit status 1"))
	_, err = c.Clear(ctx)
	assert.ErrorIs(t, err, common.ErrClearFailed)
	assert.Contains(t, err.Error(), "exit status 1")

	src.SetClearError(nil)
	text, err = c.Clear(ctx)
	assert.NoError(t, err)
	assert.Equal(t, common.NoLogData, text)
}

func TestUnavailable(t *testing.T) {
	c, err := New("127.0.0.1:1", time.Second)
	require.NoError(t, err)
	_, err = c.Log(context.Background(), 0)
	assert.True(t, IsUnavailable(err))
	assert.False(t, IsUnavailable(nil))

	var nilClient *Client
	_, err = nilClient.Status(context.Background())
	assert.True(t, IsUnavailable(err))
}
