package utils

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWritePid(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), "logview.pid")

	pid, err := WritePid(pidPath)
	assert.NoError(t, err)

	content, err := os.ReadFile(pidPath)
	assert.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(content))

	_, err = WritePid(pidPath)
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	pid.Remove()
	_, err = os.Stat(pidPath)
	assert.True(t, os.IsNotExist(err))
}

func TestWithTimeout(t *testing.T) {
	var deadline time.Time
	var ok bool
	WithTimeout(context.Background(), time.Minute, func(ctx context.Context) {
		deadline, ok = ctx.Deadline()
	})
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
}

func TestAtoi(t *testing.T) {
	assert.Equal(t, 20, Atoi("", 20))
	assert.Equal(t, 20, Atoi("x", 20))
	assert.Equal(t, 7, Atoi("7", 20))
}

func TestAtomicBool(t *testing.T) {
	b := &AtomicBool{}
	assert.False(t, b.Bool())
	assert.True(t, b.TrySet())
	assert.False(t, b.TrySet())
	assert.True(t, b.Bool())
	b.Unset()
	assert.False(t, b.Bool())
	b.Set()
	assert.True(t, b.Bool())
}
