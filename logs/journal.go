package logs

import (
	"fmt"
	"strings"
	"sync"

	"github.com/coreos/go-systemd/journal"
	log "github.com/sirupsen/logrus"
)

var errJournalDisabled = fmt.Errorf("journal disabled")

// JournalHook mirrors logrus entries to journald
type JournalHook struct {
	sync.Mutex
	identifier string
	send       func(message string, priority journal.Priority, vars map[string]string) error
}

// NewJournalHook .
func NewJournalHook(identifier string) (*JournalHook, error) {
	if !journal.Enabled() {
		return nil, errJournalDisabled
	}
	return &JournalHook{identifier: identifier, send: journal.Send}, nil
}

// Levels .
func (h *JournalHook) Levels() []log.Level {
	return log.AllLevels
}

// Fire .
func (h *JournalHook) Fire(entry *log.Entry) error {
	vars := map[string]string{
		"SYSLOG_IDENTIFIER": h.identifier,
	}
	for k, v := range entry.Data {
		vars[fieldName(k)] = fmt.Sprint(v)
	}

	h.Lock()
	defer h.Unlock()
	return h.send(entry.Message, priority(entry.Level), vars)
}

func priority(level log.Level) journal.Priority {
	switch level {
	case log.PanicLevel:
		return journal.PriEmerg
	case log.FatalLevel:
		return journal.PriCrit
	case log.ErrorLevel:
		return journal.PriErr
	case log.WarnLevel:
		return journal.PriWarning
	case log.InfoLevel:
		return journal.PriInfo
	default:
		return journal.PriDebug
	}
}

// journald field names are upper case letters, digits and underscores
func fieldName(k string) string {
	k = strings.ToUpper(k)
	return strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return '_'
	}, k)
}
