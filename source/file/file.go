package file

import (
	"bytes"
	"context"
	"io"
	"os"
	"sync"

	"github.com/projecteru2/logview/common"
	"github.com/projecteru2/logview/types"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Source reads the log file itself instead of asking the helper script.
// The first read is a full one, after that only complete lines appended
// since the previous read are returned. A truncated or rotated file starts
// over with a full read.
type Source struct {
	sync.Mutex
	path  string
	limit int64

	info   os.FileInfo
	offset int64
}

// New . limit bounds how much of the file tail a full read loads
func New(path string, limit int64) *Source {
	if limit <= 0 {
		limit = common.DefaultMaxBytes
	}
	return &Source{path: path, limit: limit}
}

// Name .
func (s *Source) Name() string {
	return common.FileSource
}

// Fetch .
func (s *Source) Fetch(ctx context.Context) (types.PollResult, error) {
	if err := ctx.Err(); err != nil {
		return types.PollResult{}, err
	}

	s.Lock()
	defer s.Unlock()

	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		s.info, s.offset = nil, 0
		return types.EmptyResult(), nil
	}
	if err != nil {
		return types.PollResult{}, errors.Wrapf(common.ErrSourceUnavailable, "%v", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return types.PollResult{}, errors.Wrapf(common.ErrSourceUnavailable, "%v", err)
	}

	if s.info != nil && os.SameFile(s.info, info) && info.Size() >= s.offset {
		text, err := s.readFrom(f, s.offset, info.Size())
		if err != nil {
			return types.PollResult{}, err
		}
		s.info = info
		return types.AppendResult(text), nil
	}

	if s.info != nil {
		log.Infof("[file] %s truncated or rotated, reload", s.path)
	}
	start := int64(0)
	if info.Size() > s.limit {
		start = info.Size() - s.limit
	}
	text, err := s.readFrom(f, start, info.Size())
	if err != nil {
		return types.PollResult{}, err
	}
	if start > 0 {
		// drop the partial first line
		if idx := bytes.IndexByte([]byte(text), '\n'); idx >= 0 {
			text = text[idx+1:]
		}
	}
	s.info = info
	if text == "" {
		return types.EmptyResult(), nil
	}
	return types.DataResult(text), nil
}

// readFrom returns complete lines in [start, end) and moves the offset past them
func (s *Source) readFrom(f *os.File, start, end int64) (string, error) {
	s.offset = start
	if end <= start {
		return "", nil
	}
	data := make([]byte, end-start)
	n, err := f.ReadAt(data, start)
	if err != nil && err != io.EOF {
		return "", errors.Wrapf(common.ErrSourceUnavailable, "read %s: %v", s.path, err)
	}
	data = data[:n]
	idx := bytes.LastIndexByte(data, '\n')
	if idx < 0 {
		return "", nil
	}
	s.offset = start + int64(idx) + 1
	return string(data[:idx+1]), nil
}

// Rewind forgets the read position, the next fetch is a full read
func (s *Source) Rewind() {
	s.Lock()
	defer s.Unlock()
	s.info, s.offset = nil, 0
}

// Clear truncates the log file
func (s *Source) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.Lock()
	defer s.Unlock()

	if err := os.Truncate(s.path, 0); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(common.ErrSourceUnavailable, "%v", err)
	}
	s.offset = 0
	return nil
}
