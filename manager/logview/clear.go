package logview

import (
	"context"
	"fmt"

	"github.com/projecteru2/logview/common"
	"github.com/projecteru2/logview/types"
	"github.com/projecteru2/logview/utils"

	log "github.com/sirupsen/logrus"
)

// Clear asks the source to clear the log, then empties the buffer.
// On failure the buffer is left untouched and the error wraps ErrClearFailed.
func (m *Manager) Clear(ctx context.Context) (types.Snapshot, error) {
	m.cycle.Lock()
	defer m.cycle.Unlock()

	var err error
	utils.WithTimeout(ctx, m.config.Clear.Timeout, func(ctx context.Context) {
		err = m.source.Clear(ctx)
	})
	if err != nil {
		log.Errorf("[clear] clear %s failed (%s): %v", m.source.Name(), common.ErrorKind(err), err)
		m.metrics.Clear(false)
		return m.buffer.Snapshot(), fmt.Errorf("%w: %w", common.ErrClearFailed, err)
	}

	gen := m.buffer.Reset()
	m.withStats(func(s *stats) { s.clears++ })
	m.metrics.Clear(true)

	snapshot := m.buffer.Snapshot()
	m.metrics.Buffer(snapshot)
	m.watcher.Publish(snapshot)
	log.Infof("[clear] log cleared, generation %d", gen)
	return snapshot, nil
}
