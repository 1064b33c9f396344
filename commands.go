package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/projecteru2/logview/client"
	"github.com/projecteru2/logview/common"
	"github.com/projecteru2/logview/tui"
	"github.com/projecteru2/logview/types"
	"github.com/projecteru2/logview/utils"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "github.com/urfave/cli/v2"
)

const clientTimeout = 15 * time.Second

func newClient(c *cli.Context) (*client.Client, error) {
	addr := c.String("api-addr")
	if addr == "" {
		addr = common.DefaultAPIAddr
	}
	return client.New(addr, clientTimeout)
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func tailLog(c *cli.Context) error {
	cl, err := newClient(c)
	if err != nil {
		return cli.Exit(err, 1)
	}

	// plain output when piped
	if !isTerminal(os.Stdout) {
		content, err := cl.Log(c.Context, 0)
		if err != nil {
			return cli.Exit(err, 1)
		}
		fmt.Fprintln(c.App.Writer, content)
		return nil
	}

	// the daemon may still be starting
	if err := utils.BackoffRetry(c.Context, 3, func() error {
		_, err := cl.Status(c.Context)
		return err
	}); err != nil {
		return cli.Exit(errors.Wrap(err, "daemon not reachable"), 1)
	}

	err = tui.Run(c.Context, cl, "mosdns log", c.Duration("interval"))
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) && !errors.Is(err, context.Canceled) {
		return cli.Exit(err, 1)
	}
	return nil
}

func clearLog(c *cli.Context) error {
	cl, err := newClient(c)
	if err != nil {
		return cli.Exit(err, 1)
	}
	content, err := cl.Clear(c.Context)
	if err != nil {
		return cli.Exit(err, 1)
	}
	fmt.Fprintln(c.App.Writer, content)
	return nil
}

func showStatus(c *cli.Context) error {
	cl, err := newClient(c)
	if err != nil {
		return cli.Exit(err, 1)
	}
	s, err := cl.Status(c.Context)
	if err != nil {
		return cli.Exit(err, 1)
	}
	renderStatus(c.App.Writer, s, isTerminal(os.Stdout))
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format(common.DateTimeFormat)
}

func renderStatus(w io.Writer, s *types.Status, pretty bool) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	if pretty {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleLight)
		tw.Style().Options = table.OptionsNoBordersAndSeparators
	}
	tw.AppendHeader(table.Row{"Field", "Value"})

	lastError := "-"
	if s.LastError != "" {
		lastError = fmt.Sprintf("%s (%s)", s.LastError, s.LastErrorKind)
	}
	rows := [][2]string{
		{"source", s.Source},
		{"generation", strconv.FormatUint(s.Generation, 10)},
		{"lines", strconv.Itoa(s.Lines)},
		{"size", s.Size},
		{"empty", strconv.FormatBool(s.Empty)},
		{"polling", strconv.FormatBool(s.Polling)},
		{"last poll", formatTime(s.LastPoll)},
		{"last success", formatTime(s.LastSuccess)},
		{"last error", lastError},
		{"polls", strconv.FormatUint(s.Polls, 10)},
		{"failures", strconv.FormatUint(s.Failures, 10)},
		{"skipped", strconv.FormatUint(s.Skipped, 10)},
		{"stale", strconv.FormatUint(s.Stale, 10)},
		{"clears", strconv.FormatUint(s.Clears, 10)},
		{"sessions", strconv.Itoa(s.Sessions)},
		{"memory", s.Memory},
	}
	for _, row := range rows {
		tw.AppendRow(table.Row{row[0], row[1]})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft},
	})
	tw.Render()
}
