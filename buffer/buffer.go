// Package buffer keeps the bounded in-memory copy of the service log.
//
// Writers (the poller and the clear command) are serialized by a mutex.
// Readers only load an immutable snapshot, so a read never waits for a writer.
package buffer

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/projecteru2/logview/common"
	"github.com/projecteru2/logview/types"
)

// Buffer .
type Buffer struct {
	sync.Mutex
	maxLines int
	maxBytes int

	lines      []string
	size       int
	generation uint64

	snapshot atomic.Pointer[types.Snapshot]
}

// New creates an empty buffer, non-positive caps fall back to defaults
func New(maxLines int, maxBytes int64) *Buffer {
	if maxLines <= 0 {
		maxLines = common.DefaultMaxLines
	}
	if maxBytes <= 0 {
		maxBytes = common.DefaultMaxBytes
	}
	b := &Buffer{
		maxLines: maxLines,
		maxBytes: int(maxBytes),
	}
	b.publish()
	return b
}

// Normalize turns CRLF and lone CR into LF and drops trailing newlines
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.TrimRight(text, "\n")
}

func split(text string) []string {
	text = Normalize(text)
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// Snapshot returns the latest published state
func (b *Buffer) Snapshot() types.Snapshot {
	return *b.snapshot.Load()
}

// Generation returns the current generation, bumped by every Reset
func (b *Buffer) Generation() uint64 {
	b.Lock()
	defer b.Unlock()
	return b.generation
}

// Replace sets the content to exactly text
func (b *Buffer) Replace(text string) {
	b.Lock()
	defer b.Unlock()
	b.replace(text)
}

// Append adds text after the current content
func (b *Buffer) Append(text string) {
	b.Lock()
	defer b.Unlock()
	b.append(text)
}

// ReplaceIf replaces only when gen is still the current generation
func (b *Buffer) ReplaceIf(gen uint64, text string) bool {
	b.Lock()
	defer b.Unlock()
	if gen != b.generation {
		return false
	}
	b.replace(text)
	return true
}

// AppendIf appends only when gen is still the current generation
func (b *Buffer) AppendIf(gen uint64, text string) bool {
	b.Lock()
	defer b.Unlock()
	if gen != b.generation {
		return false
	}
	b.append(text)
	return true
}

// Reset drops everything and starts a new generation
func (b *Buffer) Reset() uint64 {
	b.Lock()
	defer b.Unlock()
	b.lines = nil
	b.size = 0
	b.generation++
	b.publish()
	return b.generation
}

func (b *Buffer) replace(text string) {
	b.lines = split(text)
	b.size = 0
	for _, line := range b.lines {
		b.size += len(line) + 1
	}
	b.evict()
	b.publish()
}

func (b *Buffer) append(text string) {
	lines := split(text)
	if len(lines) == 0 {
		return
	}
	for _, line := range lines {
		b.size += len(line) + 1
	}
	b.lines = append(b.lines, lines...)
	b.evict()
	b.publish()
}

// evict drops the oldest lines until both caps hold.
// size counts one separator per line, the joined text is size-1 bytes.
func (b *Buffer) evict() {
	drop := 0
	for len(b.lines)-drop > b.maxLines {
		b.size -= len(b.lines[drop]) + 1
		drop++
	}
	for len(b.lines)-drop > 1 && b.size-1 > b.maxBytes {
		b.size -= len(b.lines[drop]) + 1
		drop++
	}
	if drop > 0 {
		b.lines = append([]string(nil), b.lines[drop:]...)
	}
	if len(b.lines) == 1 && len(b.lines[0]) > b.maxBytes {
		b.lines[0] = cutHead(b.lines[0], b.maxBytes)
		b.size = len(b.lines[0]) + 1
	}
}

// cutHead keeps the last n bytes of s without splitting a rune
func cutHead(s string, n int) string {
	i := len(s) - n
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return s[i:]
}

func (b *Buffer) publish() {
	text := strings.Join(b.lines, "\n")
	b.snapshot.Store(&types.Snapshot{
		Text:       text,
		Lines:      len(b.lines),
		Bytes:      len(text),
		Generation: b.generation,
		Empty:      len(b.lines) == 0,
		UpdatedAt:  time.Now(),
	})
}
