package command

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/projecteru2/logview/common"
	"github.com/projecteru2/logview/types"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const stderrTail = 256

// Source runs the service helper script, e.g. `mosdns.sh printlog`
type Source struct {
	print []string
	clear []string
}

// New .
func New(print, clear []string) (*Source, error) {
	if len(print) == 0 || len(clear) == 0 {
		return nil, common.ErrEmptyCommand
	}
	return &Source{print: print, clear: clear}, nil
}

// Name .
func (s *Source) Name() string {
	return common.CommandSource
}

// Fetch runs the print command, stdout is the whole log
func (s *Source) Fetch(ctx context.Context) (types.PollResult, error) {
	out, err := run(ctx, s.print)
	if err != nil {
		return types.PollResult{}, err
	}
	if strings.TrimSpace(out) == "" {
		return types.EmptyResult(), nil
	}
	return types.DataResult(out), nil
}

// Clear runs the clear command
func (s *Source) Clear(ctx context.Context) error {
	_, err := run(ctx, s.clear)
	return err
}

func run(ctx context.Context, argv []string) (string, error) {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) //nolint:gosec
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	// children may inherit the pipes, don't wait for them forever once killed
	cmd.WaitDelay = time.Second

	log.Debugf("[command] run %v", argv)
	err := cmd.Run()
	if err == nil {
		return stdout.String(), nil
	}
	return "", classify(ctx, argv, err, stderr.String())
}

func classify(ctx context.Context, argv []string, err error, stderr string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.Wrapf(common.ErrSourceTimeout, "%s", argv[0])
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		msg := fmt.Sprintf("%s exit status %d", argv[0], exitErr.ExitCode())
		if tail := lastBytes(strings.TrimSpace(stderr), stderrTail); tail != "" {
			msg += ": " + tail
		}
		return errors.Wrap(common.ErrSourceNonZeroExit, msg)
	}
	// not found, not executable, fork failure
	return errors.Wrapf(common.ErrSourceUnavailable, "%s: %v", argv[0], err)
}

func lastBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
