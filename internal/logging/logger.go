package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"
)

const (
	DefaultMaxLogs  = 10
	DefaultCrashDir = "/app/logs/crash/"
)

type Logger struct {
	mu       sync.Mutex
	out      io.Writer
	logs     []string
	logIndex int
	maxLogs  int
	crashDir string
}

var (
	instance   *Logger
	instanceMu sync.Mutex
)

// InitLogger sets up the process wide logger. It keeps the last maxLogs lines
// so a crash report can include them. Calling it again replaces the logger.
func InitLogger(maxLogs int, crashDir string) {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	instance = newLogger(os.Stdout, maxLogs, crashDir)
}

// GetLogger returns the process wide logger, creating one with the defaults if
// InitLogger was never called.
func GetLogger() *Logger {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	if instance == nil {
		instance = newLogger(os.Stdout, DefaultMaxLogs, DefaultCrashDir)
	}
	return instance
}

func newLogger(out io.Writer, maxLogs int, crashDir string) *Logger {
	if maxLogs <= 0 {
		maxLogs = DefaultMaxLogs
	}
	if crashDir == "" {
		crashDir = DefaultCrashDir
	}
	return &Logger{
		out:      out,
		logs:     make([]string, maxLogs),
		maxLogs:  maxLogs,
		crashDir: crashDir,
	}
}

// Log something to the output in the 2006-01-02 15:04:05 format
func (l *Logger) Log(level, message string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	formattedMessage := fmt.Sprintf("[%s] [%s] %s", timestamp, level, message)

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.out, formattedMessage)
	l.logs[l.logIndex] = formattedMessage
	l.logIndex = (l.logIndex + 1) % l.maxLogs
}

func (l *Logger) Info(message string) {
	l.Log("INFO", message)
}

func (l *Logger) Infof(format string, args ...any) {
	l.Log("INFO", fmt.Sprintf(format, args...))
}

func (l *Logger) Debug(message string) {
	l.Log("DEBUG", message)
}

func (l *Logger) Warn(message string) {
	l.Log("WARN", message)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.Log("WARN", fmt.Sprintf(format, args...))
}

func (l *Logger) Error(message string) {
	l.Log("ERROR", message)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.Log("ERROR", fmt.Sprintf(format, args...))
}

// RecoverAndLogPanic writes a crash report and re-panics. Use it deferred at the
// top of main.
func (l *Logger) RecoverAndLogPanic() {
	if r := recover(); r != nil {
		if _, err := l.WriteCrashFile(r); err != nil {
			fmt.Fprintf(l.out, "failed to write crash file: %v\n", err)
		}
		panic(r)
	}
}

// WriteCrashFile writes the panic value, its stack and the recent log lines
// into a new file in the crash directory and returns its path.
func (l *Logger) WriteCrashFile(r any) (string, error) {
	recentLogs := l.GetRecentLogs()

	if err := os.MkdirAll(l.crashDir, os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405.000000")
	crashFile := filepath.Join(l.crashDir, fmt.Sprintf("crash-%s.log", timestamp))
	file, err := os.Create(crashFile)
	if err != nil {
		return "", fmt.Errorf("failed to create crash file: %w", err)
	}
	defer file.Close()

	fmt.Fprintf(file, "==== Crash Report ====\n")
	fmt.Fprintf(file, "Time: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(file, "Panic: %v\n\n", r)
	fmt.Fprintf(file, "==== Stack ====\n%s\n", debug.Stack())
	fmt.Fprintf(file, "==== Last %d Logs ====\n", l.maxLogs)
	for _, log := range recentLogs {
		fmt.Fprintln(file, log)
	}

	return crashFile, nil
}

// GetRecentLogs returns the buffered lines, oldest first.
func (l *Logger) GetRecentLogs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var recentLogs []string
	for i := 0; i < l.maxLogs; i++ {
		index := (l.logIndex + i) % l.maxLogs
		if l.logs[index] != "" {
			recentLogs = append(recentLogs, l.logs[index])
		}
	}
	return recentLogs
}
