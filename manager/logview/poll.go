package logview

import (
	"context"
	"errors"
	"time"

	"github.com/projecteru2/logview/common"
	"github.com/projecteru2/logview/source"
	"github.com/projecteru2/logview/types"
	"github.com/projecteru2/logview/utils"

	log "github.com/sirupsen/logrus"
)

// begin claims the single fetch slot, false while a fetch is running or once shutdown started
func (m *Manager) begin() bool {
	m.gate.Lock()
	defer m.gate.Unlock()
	if m.stopping || !m.polling.TrySet() {
		return false
	}
	m.inflight.Add(1)
	return true
}

func (m *Manager) end() {
	m.polling.Unset()
	m.inflight.Done()
}

// tick starts a poll unless one is still running, skipped ticks are not queued
func (m *Manager) tick(ctx context.Context) {
	if !m.begin() {
		log.Debug("[poll] fetch still running, skip tick")
		m.withStats(func(s *stats) { s.skipped++ })
		m.metrics.Skip()
		return
	}
	go func() {
		defer m.end()
		m.poll(ctx)
	}()
}

// Refresh polls right away, returns false if a fetch was already running
// or the manager is shutting down
func (m *Manager) Refresh(ctx context.Context) bool {
	if !m.begin() {
		return false
	}
	defer m.end()
	m.poll(ctx)
	return true
}

// poll does one fetch and applies it.
// The source is called outside the cycle lock, a Clear finishing meanwhile
// bumps the generation and the result is dropped.
func (m *Manager) poll(ctx context.Context) {
	m.cycle.Lock()
	gen := m.buffer.Generation()
	m.cycle.Unlock()

	start := time.Now()
	var result types.PollResult
	var err error
	utils.WithTimeout(ctx, m.config.Poll.Timeout, func(ctx context.Context) {
		result, err = m.source.Fetch(ctx)
	})
	if err != nil {
		result = types.ErrorResult(err)
	}
	m.apply(gen, result, time.Since(start))
}

func (m *Manager) apply(gen uint64, result types.PollResult, took time.Duration) {
	m.cycle.Lock()
	defer m.cycle.Unlock()

	now := time.Now()
	m.withStats(func(s *stats) {
		s.polls++
		s.lastPoll = now
	})

	before := m.buffer.Snapshot()
	applied := false
	switch result.Kind {
	case types.PollError:
		if errors.Is(result.Err, context.Canceled) {
			log.Debug("[poll] fetch abandoned")
			return
		}
		kind := common.ErrorKind(result.Err)
		log.Warnf("[poll] fetch from %s failed (%s), keep current content: %v", m.source.Name(), kind, result.Err)
		m.withStats(func(s *stats) {
			s.failures++
			s.lastErrorKind = kind
			s.lastError = result.Err.Error()
		})
		m.metrics.Poll(result.Kind.String(), took)
		return
	case types.PollEmpty:
		applied = m.buffer.ReplaceIf(gen, "")
	case types.PollData:
		if result.Incremental {
			applied = m.buffer.AppendIf(gen, result.Text)
		} else {
			applied = m.buffer.ReplaceIf(gen, result.Text)
		}
	}

	if !applied {
		log.Debugf("[poll] drop result fetched at generation %d, now %d", gen, m.buffer.Generation())
		// the source already moved past what was dropped
		if r, ok := m.source.(source.Rewinder); ok {
			r.Rewind()
		}
		m.withStats(func(s *stats) { s.stale++ })
		m.metrics.Poll("stale", took)
		return
	}

	m.withStats(func(s *stats) {
		s.lastSuccess = now
		s.lastErrorKind = ""
		s.lastError = ""
	})
	snapshot := m.buffer.Snapshot()
	m.metrics.Poll(result.Kind.String(), took)
	m.metrics.Buffer(snapshot)
	if snapshot.Generation != before.Generation || snapshot.Text != before.Text {
		m.watcher.Publish(snapshot)
	}
}
