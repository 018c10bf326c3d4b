package logger

import (
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Entry is one captured log line. Seq starts at 1 and never repeats.
type Entry struct {
	Seq  uint64
	Line string
}

// Buffer keeps the most recent log lines for the live log stream.
type Buffer struct {
	mu      sync.RWMutex
	entries []Entry
	size    int
	next    uint64
}

func NewBuffer(size int) *Buffer {
	if size <= 0 {
		size = 1000
	}
	return &Buffer{
		entries: make([]Entry, 0, size),
		size:    size,
		next:    1,
	}
}

func (b *Buffer) Append(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.entries) == b.size {
		copy(b.entries, b.entries[1:])
		b.entries = b.entries[:len(b.entries)-1]
	}
	b.entries = append(b.entries, Entry{Seq: b.next, Line: line})
	b.next++
}

// Since returns the retained entries with Seq > after.
func (b *Buffer) Since(after uint64) []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []Entry
	for _, e := range b.entries {
		if e.Seq > after {
			out = append(out, e)
		}
	}
	return out
}

type bufferHook struct {
	buffer    *Buffer
	formatter logrus.Formatter
}

func newBufferHook(buffer *Buffer) *bufferHook {
	return &bufferHook{
		buffer: buffer,
		formatter: &logrus.TextFormatter{
			DisableColors:   true,
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		},
	}
}

func (h *bufferHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *bufferHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	h.buffer.Append(strings.TrimRight(string(line), "\n"))
	return nil
}
