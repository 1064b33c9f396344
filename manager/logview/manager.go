package logview

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/projecteru2/logview/buffer"
	"github.com/projecteru2/logview/common"
	"github.com/projecteru2/logview/metrics"
	"github.com/projecteru2/logview/source"
	"github.com/projecteru2/logview/source/command"
	"github.com/projecteru2/logview/source/file"
	sourcemocks "github.com/projecteru2/logview/source/mocks"
	"github.com/projecteru2/logview/types"
	"github.com/projecteru2/logview/utils"
	"github.com/projecteru2/logview/watcher"

	"github.com/docker/go-units"
	"github.com/shirou/gopsutil/process"
	log "github.com/sirupsen/logrus"
)

// Manager keeps the buffer in sync with the source
type Manager struct {
	config  *types.Config
	source  source.Source
	buffer  *buffer.Buffer
	metrics *metrics.Client
	watcher *watcher.Watcher

	// cycle serializes a poll's generation capture and apply steps with Clear
	cycle    sync.Mutex
	polling  utils.AtomicBool
	inflight sync.WaitGroup
	// gate orders inflight.Add against drain
	gate     sync.Mutex
	stopping bool

	stats stats
}

type stats struct {
	sync.Mutex
	lastPoll      time.Time
	lastSuccess   time.Time
	lastErrorKind string
	lastError     string
	polls         uint64
	failures      uint64
	skipped       uint64
	stale         uint64
	clears        uint64
}

// NewManager returns a log view manager reading from the configured source
func NewManager(ctx context.Context, config *types.Config, metricsClient *metrics.Client) (*Manager, error) {
	maxBytes, err := config.Buffer.MaxBytes()
	if err != nil {
		return nil, err
	}

	var src source.Source
	switch config.Source.Type {
	case common.CommandSource:
		if src, err = command.New(config.Source.PrintCommand, config.Source.ClearCommand); err != nil {
			log.Errorf("[NewManager] failed to create command source: %v", err)
			return nil, err
		}
	case common.FileSource:
		src = file.New(config.Source.File, maxBytes)
	case common.MocksSource:
		src = sourcemocks.FromTemplate()
	default:
		log.Errorf("[NewManager] unknown source type %s", config.Source.Type)
		return nil, common.ErrInvalidSourceType
	}
	return New(config, src, metricsClient)
}

// New returns a log view manager reading from src
func New(config *types.Config, src source.Source, metricsClient *metrics.Client) (*Manager, error) {
	maxBytes, err := config.Buffer.MaxBytes()
	if err != nil {
		return nil, err
	}
	manager := &Manager{
		config:  config,
		source:  src,
		buffer:  buffer.New(config.Buffer.MaxLines, maxBytes),
		metrics: metricsClient,
		watcher: watcher.New(),
	}
	log.Infof("[NewManager] log source %s, buffer %d lines / %s", src.Name(), config.Buffer.MaxLines, units.BytesSize(float64(maxBytes)))
	return manager, nil
}

// Run polls the source every interval
// blocks by ctx.Done()
func (m *Manager) Run(ctx context.Context) error {
	// fetches outlive ctx for at most ShutdownTimeout
	fetchCtx, abort := context.WithCancel(context.WithoutCancel(ctx))
	defer abort()

	go m.watcher.Serve(ctx)

	tick := time.NewTicker(m.config.Poll.Interval)
	defer tick.Stop()

	m.tick(fetchCtx)
	for {
		select {
		case <-tick.C:
			m.tick(fetchCtx)
		case <-ctx.Done():
			log.Info("[LogViewManager] exiting")
			m.drain(abort)
			return nil
		}
	}
}

// drain waits for the in-flight fetch, abandons it after ShutdownTimeout.
// No fetch can start once it is called.
func (m *Manager) drain(abort context.CancelFunc) {
	m.gate.Lock()
	m.stopping = true
	m.gate.Unlock()

	done := make(chan struct{})
	go func() {
		m.inflight.Wait()
		close(done)
	}()

	timer := time.NewTimer(m.config.Poll.ShutdownTimeout)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		log.Warnf("[LogViewManager] fetch still running after %v, abandon it", m.config.Poll.ShutdownTimeout)
		abort()
		<-done
	}
}

// Snapshot returns current log content, never blocks on poll or clear
func (m *Manager) Snapshot() types.Snapshot {
	return m.buffer.Snapshot()
}

// Follow subscribes to content changes, only works while Run is running
func (m *Manager) Follow(ctx context.Context) (*watcher.Follower, error) {
	return m.watcher.Follow(ctx)
}

// Unfollow .
func (m *Manager) Unfollow(follower *watcher.Follower) {
	m.watcher.Leave(follower)
}

// Status .
func (m *Manager) Status() *types.Status {
	snapshot := m.buffer.Snapshot()
	m.stats.Lock()
	defer m.stats.Unlock()
	return &types.Status{
		Source:        m.source.Name(),
		Generation:    snapshot.Generation,
		Lines:         snapshot.Lines,
		Bytes:         snapshot.Bytes,
		Size:          units.HumanSize(float64(snapshot.Bytes)),
		Empty:         snapshot.Empty,
		Polling:       m.polling.Bool(),
		LastPoll:      m.stats.lastPoll,
		LastSuccess:   m.stats.lastSuccess,
		LastErrorKind: m.stats.lastErrorKind,
		LastError:     m.stats.lastError,
		Polls:         m.stats.polls,
		Failures:      m.stats.failures,
		Skipped:       m.stats.skipped,
		Stale:         m.stats.stale,
		Clears:        m.stats.clears,
		Memory:        selfMemory(),
	}
}

// selfMemory is the resident memory of this process
func selfMemory() string {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Debugf("[LogViewManager] get process failed %v", err)
		return ""
	}
	mem, err := p.MemoryInfo()
	if err != nil {
		log.Debugf("[LogViewManager] get memory info failed %v", err)
		return ""
	}
	return units.BytesSize(float64(mem.RSS))
}

func (m *Manager) withStats(f func(s *stats)) {
	m.stats.Lock()
	defer m.stats.Unlock()
	f(&m.stats)
}
