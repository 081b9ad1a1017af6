// Package crashlog captures unrecoverable failures for post-mortem
// diagnosis. Reports land in a bounded directory: beyond the retention
// count the oldest files are evicted.
package crashlog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"
)

// DefaultKeep is how many crash reports are retained by default.
const DefaultKeep = 5

// Recorder writes crash reports into a directory with oldest-first
// eviction beyond the retention count.
type Recorder struct {
	dir  string
	keep int
}

// New creates a Recorder writing into dir, keeping at most keep
// reports. A non-positive keep falls back to DefaultKeep.
func New(dir string, keep int) *Recorder {
	if keep <= 0 {
		keep = DefaultKeep
	}
	return &Recorder{dir: dir, keep: keep}
}

// Capture is meant to be deferred once at the top of main. It records
// an escaped panic and then re-panics so the process still dies on the
// platform's normal termination path; the application does not attempt
// to keep running.
func (r *Recorder) Capture() {
	v := recover()
	if v == nil {
		return
	}

	buf := make([]byte, 64<<10)
	buf = buf[:runtime.Stack(buf, false)]

	if path, err := r.Write(v, buf); err != nil {
		slog.Error("Failed to write crash report", "error", err)
	} else {
		slog.Error("Unhandled panic, crash report written", "report", path, "panic", v)
	}

	panic(v)
}

// Write records one crash report and evicts old ones.
func (r *Recorder) Write(value any, stack []byte) (string, error) {
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create crash log directory: %w", err)
	}

	name := fmt.Sprintf("crash_%s.txt", time.Now().Format("2006-01-02_15-04-05.000"))
	path := filepath.Join(r.dir, name)

	report := fmt.Sprintf("Time: %s\nGo version: %s\nOS/Arch: %s/%s\n\nPanic: %v\n\nStack trace:\n%s\n",
		time.Now().Format(time.RFC3339), runtime.Version(), runtime.GOOS, runtime.GOARCH, value, stack)

	if err := os.WriteFile(path, []byte(report), 0644); err != nil {
		return "", fmt.Errorf("failed to write crash report: %w", err)
	}

	r.evict()
	return path, nil
}

// evict removes the oldest reports beyond the retention count.
func (r *Recorder) evict() {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		slog.Error("Failed to list crash log directory", "error", err)
		return
	}

	type report struct {
		name    string
		modTime time.Time
	}
	var reports []report
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		reports = append(reports, report{name: entry.Name(), modTime: info.ModTime()})
	}
	if len(reports) <= r.keep {
		return
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].modTime.Before(reports[j].modTime)
	})
	for _, old := range reports[:len(reports)-r.keep] {
		if err := os.Remove(filepath.Join(r.dir, old.name)); err != nil {
			slog.Error("Failed to evict old crash report", "report", old.name, "error", err)
		}
	}
}
