package mocks

import (
	"context"
	"strings"
	"sync"

	"github.com/projecteru2/logview/common"
	"github.com/projecteru2/logview/source"
	"github.com/projecteru2/logview/types"

	"github.com/stretchr/testify/mock"
)

// Mosdns a fake mosdns helper script
type Mosdns struct {
	Source
	sync.Mutex
	log      string
	fetchErr error
	clearErr error
	lastErr  error

	// fetch blocks on gate when it is set
	gate     chan struct{}
	fetching chan struct{}
	fetches  int
	clears   int
}

func (m *Mosdns) withLock(f func()) {
	m.Lock()
	defer m.Unlock()
	f()
}

// FromTemplate returns a mock source instance created from template
func FromTemplate() source.Source {
	m := &Mosdns{
		log:      "line1\nline2\n",
		fetching: make(chan struct{}, 128),
	}
	m.On("Name").Return(common.MocksSource)
	m.On("Fetch", mock.Anything).Return(func(ctx context.Context) types.PollResult {
		var text string
		var err error
		var gate chan struct{}
		m.withLock(func() {
			m.fetches++
			text, err, gate = m.log, m.fetchErr, m.gate
		})
		select {
		case m.fetching <- struct{}{}:
		default:
		}
		if gate != nil {
			select {
			case <-gate:
			case <-ctx.Done():
				err = ctx.Err()
			}
		}
		m.withLock(func() { m.lastErr = err })
		if err != nil {
			return types.PollResult{}
		}
		if strings.TrimSpace(text) == "" {
			return types.EmptyResult()
		}
		return types.DataResult(text)
	}, func(ctx context.Context) error {
		var err error
		m.withLock(func() { err = m.lastErr })
		return err
	})
	m.On("Clear", mock.Anything).Return(func(ctx context.Context) error {
		var err error
		m.withLock(func() {
			m.clears++
			if m.clearErr != nil {
				err = m.clearErr
				return
			}
			m.log = ""
		})
		return err
	})
	return m
}

// SetLog replaces what the next fetch prints
func (m *Mosdns) SetLog(text string) {
	m.withLock(func() { m.log = text })
}

// SetFetchError makes fetches fail, nil restores
func (m *Mosdns) SetFetchError(err error) {
	m.withLock(func() { m.fetchErr = err })
}

// SetClearError makes clear fail, nil restores
func (m *Mosdns) SetClearError(err error) {
	m.withLock(func() { m.clearErr = err })
}

// Block holds every following fetch until Release, earlier Fetching signals are dropped
func (m *Mosdns) Block() {
	m.withLock(func() { m.gate = make(chan struct{}) })
	for {
		select {
		case <-m.fetching:
		default:
			return
		}
	}
}

// Release unblocks held fetches
func (m *Mosdns) Release() {
	m.withLock(func() {
		if m.gate != nil {
			close(m.gate)
			m.gate = nil
		}
	})
}

// Fetching is signaled whenever a fetch starts
func (m *Mosdns) Fetching() <-chan struct{} {
	return m.fetching
}

// Counts returns how many fetches and clears ran
func (m *Mosdns) Counts() (fetches, clears int) {
	m.withLock(func() { fetches, clears = m.fetches, m.clears })
	return
}
