// Package logger provides crash logging and recovery for taskflow.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
	"time"
)

const (
	// CrashLogDir is the directory for crash logs relative to the project root.
	CrashLogDir = "crash_logs"

	// MaxCrashLogs is the maximum number of crash logs to keep.
	MaxCrashLogs = 10
)

// CrashContext stores context for crash logging.
type CrashContext struct {
	mu       sync.RWMutex
	command  string
	version  string
	basePath string
}

// globalContext is the singleton crash context.
var globalContext = &CrashContext{}

// SetBasePath sets the base path for crash logs (typically the .taskflow directory).
func SetBasePath(path string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.basePath = path
}

// SetVersion sets the application version for crash logs.
func SetVersion(version string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.version = version
}

// SetCommand sets the current command being executed.
func SetCommand(cmd string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.command = cmd
}

// CrashLog represents a crash log entry.
type CrashLog struct {
	Timestamp  time.Time `json:"timestamp"`
	Version    string    `json:"version"`
	Command    string    `json:"command"`
	PanicValue string    `json:"panic_value"`
	StackTrace string    `json:"stack_trace"`
	GoVersion  string    `json:"go_version"`
	OS         string    `json:"os"`
	Arch       string    `json:"arch"`
}

// HandlePanic is a deferred function that recovers from panics and logs them.
// Usage: defer logger.HandlePanic()
func HandlePanic() {
	if r := recover(); r != nil {
		log := createCrashLog(r)
		if err := writeCrashLog(log); err != nil {
			fmt.Fprintf(os.Stderr, "\n[CRASH] Failed to write crash log: %v\n", err)
			fmt.Fprintf(os.Stderr, "[CRASH] Panic: %v\n%s\n", r, debug.Stack())
		}

		fmt.Fprintf(os.Stderr, "\ntaskflow encountered an unexpected error.\n")
		fmt.Fprintf(os.Stderr, "A crash log has been saved to:\n  %s\n", getCrashLogPath(log.Timestamp))

		os.Exit(1)
	}
}

// createCrashLog creates a CrashLog from a panic value.
func createCrashLog(panicValue any) CrashLog {
	globalContext.mu.RLock()
	defer globalContext.mu.RUnlock()

	return CrashLog{
		Timestamp:  time.Now(),
		Version:    globalContext.version,
		Command:    globalContext.command,
		PanicValue: fmt.Sprintf("%v", panicValue),
		StackTrace: string(debug.Stack()),
		GoVersion:  runtime.Version(),
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
	}
}

// writeCrashLog writes a crash log to disk.
func writeCrashLog(log CrashLog) error {
	dir := getCrashLogDir()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create crash log dir: %w", err)
	}

	if err := cleanOldCrashLogs(dir); err != nil {
		// Non-fatal, continue with writing
		fmt.Fprintf(os.Stderr, "[WARN] Failed to clean old crash logs: %v\n", err)
	}

	path := getCrashLogPath(log.Timestamp)
	content := formatCrashLog(log)

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("write crash log: %w", err)
	}

	return nil
}

// getCrashLogDir returns the directory for crash logs.
func getCrashLogDir() string {
	globalContext.mu.RLock()
	basePath := globalContext.basePath
	globalContext.mu.RUnlock()

	if basePath == "" {
		basePath = ".taskflow"
	}

	return filepath.Join(basePath, CrashLogDir)
}

// getCrashLogPath returns the path for a crash log file.
func getCrashLogPath(t time.Time) string {
	filename := fmt.Sprintf("crash_%s.log", t.Format("20060102_150405"))
	return filepath.Join(getCrashLogDir(), filename)
}

// formatCrashLog formats a CrashLog as human-readable text.
func formatCrashLog(log CrashLog) string {
	var sb strings.Builder

	sb.WriteString(strings.Repeat("=", 80) + "\n")
	sb.WriteString("TASKFLOW CRASH LOG\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n\n")

	sb.WriteString(fmt.Sprintf("Timestamp: %s\n", log.Timestamp.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Version:   %s\n", log.Version))
	sb.WriteString(fmt.Sprintf("Command:   %s\n", log.Command))
	sb.WriteString(fmt.Sprintf("Go:        %s\n", log.GoVersion))
	sb.WriteString(fmt.Sprintf("OS/Arch:   %s/%s\n", log.OS, log.Arch))

	sb.WriteString("\n" + strings.Repeat("-", 80) + "\n")
	sb.WriteString("PANIC VALUE\n")
	sb.WriteString(strings.Repeat("-", 80) + "\n")
	sb.WriteString(log.PanicValue + "\n")

	sb.WriteString("\n" + strings.Repeat("-", 80) + "\n")
	sb.WriteString("STACK TRACE\n")
	sb.WriteString(strings.Repeat("-", 80) + "\n")
	sb.WriteString(log.StackTrace)

	sb.WriteString("\n" + strings.Repeat("=", 80) + "\n")
	sb.WriteString("END OF CRASH LOG\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n")

	return sb.String()
}

// cleanOldCrashLogs removes old crash logs, keeping only MaxCrashLogs most recent.
func cleanOldCrashLogs(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var crashLogs []os.DirEntry
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "crash_") && strings.HasSuffix(e.Name(), ".log") {
			crashLogs = append(crashLogs, e)
		}
	}

	if len(crashLogs) <= MaxCrashLogs {
		return nil
	}

	// os.ReadDir returns entries sorted by name, which embeds the
	// timestamp, so the oldest logs come first.
	toRemove := len(crashLogs) - MaxCrashLogs
	for i := range toRemove {
		path := filepath.Join(dir, crashLogs[i].Name())
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("remove old crash log %s: %w", crashLogs[i].Name(), err)
		}
	}

	return nil
}

// ListCrashLogs returns a list of all crash logs in the crash log directory.
func ListCrashLogs() ([]string, error) {
	dir := getCrashLogDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var logs []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "crash_") && strings.HasSuffix(e.Name(), ".log") {
			logs = append(logs, filepath.Join(dir, e.Name()))
		}
	}

	return logs, nil
}
