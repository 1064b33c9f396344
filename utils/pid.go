package utils

import (
	"os"
	"strconv"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

// ErrAlreadyRunning means another process holds the pid file
var ErrAlreadyRunning = errors.New("another instance is running")

// PidFile is an exclusively locked pid file
type PidFile struct {
	path string
	lock *flock.Flock
}

// WritePid locks path and writes our pid into it
func WritePid(path string) (*PidFile, error) {
	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, errors.Wrapf(err, "lock pid file %s", path)
	}
	if !locked {
		return nil, errors.Wrapf(ErrAlreadyRunning, "pid file %s", path)
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0644); err != nil {
		_ = lock.Unlock()
		return nil, errors.Wrapf(err, "save pid file %s", path)
	}
	return &PidFile{path: path, lock: lock}, nil
}

// Remove unlocks and deletes the pid file
func (p *PidFile) Remove() {
	_ = os.Remove(p.path)
	_ = p.lock.Unlock()
}
