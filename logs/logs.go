package logs

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// Setup sets log level and output, optionally mirrors to journald
func Setup(level string, journal bool, identifier string) error {
	l, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetLevel(l)
	log.SetOutput(os.Stdout)

	if !journal {
		return nil
	}
	hook, err := NewJournalHook(identifier)
	if err != nil {
		log.Warnf("[logs] journald unavailable, skip: %v", err)
		return nil
	}
	log.AddHook(hook)
	return nil
}
