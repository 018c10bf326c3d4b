package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

type Logger struct {
	entry  *logrus.Entry
	buffer *Buffer
}

// New builds a logger writing to stderr and mirroring every line into an
// in-memory buffer of bufferSize entries.
func New(level string, bufferSize int) *Logger {
	base := logrus.New()
	base.SetOutput(os.Stderr)
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	base.SetLevel(lvl)

	buffer := NewBuffer(bufferSize)
	base.AddHook(newBufferHook(buffer))

	return &Logger{
		entry:  logrus.NewEntry(base),
		buffer: buffer,
	}
}

// WithField returns a logger that tags every line with key=value.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{
		entry:  l.entry.WithField(key, value),
		buffer: l.buffer,
	}
}

// Buffer exposes the captured log lines.
func (l *Logger) Buffer() *Buffer {
	return l.buffer
}

func (l *Logger) Info(msg string, args ...interface{}) {
	l.entry.Infof(msg, args...)
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	l.entry.Debugf(msg, args...)
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	l.entry.Warnf(msg, args...)
}

func (l *Logger) Error(msg string, args ...interface{}) {
	l.entry.Errorf(msg, args...)
}

func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.entry.Fatalf(msg, args...)
}
