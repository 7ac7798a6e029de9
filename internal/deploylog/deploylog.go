// Package deploylog writes the per-run deployment log: a header, one timestamped line
// per entry appended as it happens, and a completion footer with the run duration.
// Entries are mirrored to the process logger.
package deploylog

import (
	"fmt"
	"os"
	"path"
	"strconv"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5"
	"go.uber.org/zap"
)

// FileName is the log's name inside the output directory.
const FileName = "deployment.log"

// TimeFormat renders timestamps as ISO-8601 UTC with millisecond precision.
const TimeFormat = "2006-01-02T15:04:05.000Z"

type Level string

const (
	LevelInfo    Level = "INFO"
	LevelWarn    Level = "WARN"
	LevelError   Level = "ERROR"
	LevelSuccess Level = "SUCCESS"
)

// Summary is what Finalize reports about the run.
type Summary struct {
	Duration time.Duration
	Logs     []string
	LogFile  string
}

// Seconds is the duration in seconds at millisecond resolution.
func (s Summary) Seconds() float64 {
	return s.Duration.Truncate(time.Millisecond).Seconds()
}

type Option func(*Logger)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) { l.now = now }
}

// WithZap mirrors entries to z instead of a no-op logger.
func WithZap(z *zap.Logger) Option {
	return func(l *Logger) { l.zap = z }
}

type Logger struct {
	fs      billy.Filesystem
	path    string
	now     func() time.Time
	zap     *zap.Logger
	started time.Time

	mu      sync.Mutex
	entries []string
}

// New creates (or truncates) the log file at name on fs and writes the header.
func New(fs billy.Filesystem, name string, opts ...Option) (*Logger, error) {
	l := &Logger{fs: fs, path: name, now: time.Now, zap: zap.NewNop()}
	for _, o := range opts {
		o(l)
	}
	l.started = l.now()

	if dir := path.Dir(name); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}

	f, err := fs.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create deployment log: %w", err)
	}
	defer f.Close()

	header := fmt.Sprintf("=== Luxe Queer Magazine Platform Deployment Log ===\nStarted at: %s\n\n", format(l.started))
	if _, err := f.Write([]byte(header)); err != nil {
		return nil, fmt.Errorf("write log header: %w", err)
	}
	return l, nil
}

func (l *Logger) Info(msg string)    { l.Log(LevelInfo, msg) }
func (l *Logger) Warn(msg string)    { l.Log(LevelWarn, msg) }
func (l *Logger) Error(msg string)   { l.Log(LevelError, msg) }
func (l *Logger) Success(msg string) { l.Log(LevelSuccess, msg) }

// Log records one entry. A failing append is reported to the process logger only;
// the entry is still kept in memory.
func (l *Logger) Log(level Level, msg string) {
	line := fmt.Sprintf("[%s] [%s] %s", format(l.now()), level, msg)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, line)
	l.mirror(level, msg)
	if err := l.append(line + "\n"); err != nil {
		l.zap.Warn("deployment log append failed", zap.String("file", l.path), zap.Error(err))
	}
}

// Entries returns a copy of the lines logged so far.
func (l *Logger) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

// Path is the log file's name on its file system.
func (l *Logger) Path() string { return l.path }

// Finalize writes the completion footer and returns the run summary.
func (l *Logger) Finalize() (Summary, error) {
	s := Summary{Duration: l.now().Sub(l.started), LogFile: l.path}
	footer := fmt.Sprintf("\n=== Deployment Completed ===\nDuration: %s seconds\n",
		strconv.FormatFloat(s.Seconds(), 'f', -1, 64))

	l.mu.Lock()
	defer l.mu.Unlock()

	s.Logs = append([]string(nil), l.entries...)
	if err := l.append(footer); err != nil {
		return s, fmt.Errorf("write log footer: %w", err)
	}
	return s, nil
}

func (l *Logger) append(text string) error {
	f, err := l.fs.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write([]byte(text)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (l *Logger) mirror(level Level, msg string) {
	switch level {
	case LevelWarn:
		l.zap.Warn(msg)
	case LevelError:
		l.zap.Error(msg)
	case LevelSuccess:
		l.zap.Info(msg, zap.Bool("success", true))
	default:
		l.zap.Info(msg)
	}
}

func format(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}
