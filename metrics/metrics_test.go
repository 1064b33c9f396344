package metrics

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/projecteru2/logview/types"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectors(t *testing.T) {
	m := New("", "logview", prometheus.NewRegistry())

	m.Poll("data", 10*time.Millisecond)
	m.Poll("data", 10*time.Millisecond)
	m.Poll("error", time.Millisecond)
	m.Skip()
	m.Clear(true)
	m.Clear(false)
	m.Buffer(types.Snapshot{Lines: 3, Bytes: 17, Generation: 2})
	m.Sessions(4)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.polls.WithLabelValues("data")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.polls.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.skipped))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.clears.WithLabelValues("failed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.lines))
	assert.Equal(t, 17.0, testutil.ToFloat64(m.bytes))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.generation))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.sessions))

	assert.Equal(t, 2.0, m.data["poll.data"])
	assert.Equal(t, 1.0, m.data["clear.ok"])

	// no statsd configured
	assert.NoError(t, m.Send())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m.Run(ctx, time.Second)
}

func TestSendStatsd(t *testing.T) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer conn.Close()

	m := New(conn.LocalAddr().String(), "logview", prometheus.NewRegistry())
	m.Buffer(types.Snapshot{Lines: 3})
	assert.Nil(t, m.statsdClient)
	require.NoError(t, m.Send())
	assert.NotNil(t, m.statsdClient)
	// data is kept, counters are cumulative
	assert.Equal(t, 3.0, m.data["buffer.lines"])
}
