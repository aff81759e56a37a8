package log

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

var (
	logFile    *dailyFile
	eventsFile *dailyFile

	// if true, Verbosef() will log messages
	Verbose bool
)

// dailyFile appends to <dir>/<YYYY-MM-DD>.txt and moves
// to a new file when the UTC day changes
type dailyFile struct {
	dir  string
	day  string
	file *os.File
	mu   sync.Mutex
}

func newDailyFile(dir string) *dailyFile {
	return &dailyFile{dir: dir}
}

func (w *dailyFile) open(day string) error {
	path := filepath.Join(w.dir, day+".txt")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	w.file = f
	w.day = day
	return nil
}

// write is a no-op on nil receiver, so logging works before Init
func (w *dailyFile) write(d []byte) error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	day := time.Now().UTC().Format("2006-01-02")
	if w.file != nil && w.day != day {
		if err := w.closeFile(); err != nil {
			return err
		}
	}
	if w.file == nil {
		if err := w.open(day); err != nil {
			return err
		}
	}
	_, err := w.file.Write(d)
	return err
}

func (w *dailyFile) closeFile() error {
	if w.file == nil {
		return nil
	}
	errSync := w.file.Sync()
	err := w.file.Close()
	w.file = nil
	w.day = ""
	if errSync != nil {
		return errSync
	}
	return err
}

func (w *dailyFile) sync() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	return w.file.Sync()
}

func (w *dailyFile) close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeFile()
}

type Config struct {
	// messages go to "log" and store changes to "events" sub-directory
	Dir string
}

// Init starts writing messages and store changes under config.Dir.
// Before Init (and after Close) messages only go to stdout and
// changes are not recorded.
func Init(config *Config) error {
	Close()
	if config == nil || config.Dir == "" {
		return errors.New("log directory is not set")
	}
	logDir := filepath.Join(config.Dir, "log")
	eventsDir := EventsDir(config.Dir)
	for _, dir := range []string{logDir, eventsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create log directory '%s': %w", dir, err)
		}
	}
	// files are created on first write, no changes means no events file
	logFile = newDailyFile(logDir)
	eventsFile = newDailyFile(eventsDir)
	return nil
}

// EventsDir returns directory with event files for log directory dir
func EventsDir(dir string) string {
	return filepath.Join(dir, "events")
}

func Close() {
	logFile.close()
	eventsFile.close()
	logFile = nil
	eventsFile = nil
}

// Flush syncs log files to disk
func Flush() {
	logFile.sync()
	eventsFile.sync()
}

// in the log file every message is prefixed with the time
func writeToLogFile(s string) {
	logFile.write([]byte(time.Now().UTC().Format("15:04:05 ") + s))
}

// Logf prints to stdout and appends to today's log file
func Logf(s string, args ...any) {
	if len(args) > 0 {
		s = fmt.Sprintf(s, args...)
	}
	fmt.Print(s)
	writeToLogFile(s)
}

func Verbosef(format string, args ...any) {
	if !Verbose {
		return
	}
	Logf(format, args...)
}

func Warnf(format string, args ...any) {
	Logf("warning: "+format, args...)
}

// NumberCoerced reports a value in the species file that
// doesn't parse as a number and was read as 0
func NumberCoerced(line int, column string, raw string) {
	Warnf("line %d: %s '%s' is not a number, using 0\n", line, column, raw)
}

// CommandFailed records a failed command in the log file.
// It's not printed, showing err to the user is up to the caller.
func CommandFailed(args []string, err error) {
	if err == nil {
		return
	}
	writeToLogFile(fmt.Sprintf("failed: %s: %s\n", strings.Join(args, " "), err))
}
