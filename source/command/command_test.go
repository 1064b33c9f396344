package command

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/projecteru2/logview/common"
	"github.com/projecteru2/logview/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sh(script string) []string {
	return []string{"/bin/sh", "-c", script}
}

func TestNew(t *testing.T) {
	_, err := New(nil, sh("true"))
	assert.ErrorIs(t, err, common.ErrEmptyCommand)
	s, err := New(sh("true"), sh("true"))
	assert.NoError(t, err)
	assert.Equal(t, common.CommandSource, s.Name())
}

func TestFetch(t *testing.T) {
	ctx := context.Background()

	s, err := New(sh(`printf 'line1\nline2\n'`), sh("true"))
	require.NoError(t, err)
	r, err := s.Fetch(ctx)
	assert.NoError(t, err)
	assert.Equal(t, types.PollData, r.Kind)
	assert.Equal(t, "line1\nline2\n", r.Text)
	assert.False(t, r.Incremental)

	s, err = New(sh(`printf '\n'`), sh("true"))
	require.NoError(t, err)
	r, err = s.Fetch(ctx)
	assert.NoError(t, err)
	assert.Equal(t, types.PollEmpty, r.Kind)
}

func TestFetchErrors(t *testing.T) {
	ctx := context.Background()

	s, err := New(sh("echo oops >&2; exit 3"), sh("true"))
	require.NoError(t, err)
	_, err = s.Fetch(ctx)
	assert.ErrorIs(t, err, common.ErrSourceNonZeroExit)
	assert.Contains(t, err.Error(), "exit status 3")
	assert.Contains(t, err.Error(), "oops")

	s, err = New([]string{"/nonexistent/mosdns.sh", "printlog"}, sh("true"))
	require.NoError(t, err)
	_, err = s.Fetch(ctx)
	assert.ErrorIs(t, err, common.ErrSourceUnavailable)

	s, err = New(sh("sleep 5"), sh("true"))
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err = s.Fetch(ctx)
	assert.ErrorIs(t, err, common.ErrSourceTimeout)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mosdns.log")
	require.NoError(t, os.WriteFile(path, []byte("a\nb\n"), 0644))

	s, err := New(sh("cat "+path), sh(": > "+path))
	require.NoError(t, err)
	require.NoError(t, s.Clear(context.Background()))

	r, err := s.Fetch(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, types.PollEmpty, r.Kind)

	s, err = New(sh("true"), sh("exit 1"))
	require.NoError(t, err)
	assert.ErrorIs(t, s.Clear(context.Background()), common.ErrSourceNonZeroExit)
}
