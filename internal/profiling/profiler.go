// Package profiling writes CPU, heap and trace profiles around a command.
package profiling

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"

	jerrors "github.com/Aman-CERP/jump/internal/errors"
)

// Flags names the profile files to write. Empty paths are skipped.
type Flags struct {
	CPU   string
	Heap  string
	Trace string
}

// Enabled reports whether any profile was requested.
func (f Flags) Enabled() bool {
	return f.CPU != "" || f.Heap != "" || f.Trace != ""
}

// Profiler runs the profiles requested by Flags.
type Profiler struct {
	flags     Flags
	cpuFile   *os.File
	traceFile *os.File
}

// Start begins CPU profiling and tracing. Stop must be called to flush
// them and to write the heap profile.
func Start(flags Flags) (*Profiler, error) {
	p := &Profiler{flags: flags}

	if flags.CPU != "" {
		f, err := os.Create(flags.CPU)
		if err != nil {
			return nil, jerrors.New(jerrors.ErrCodeInvalidPath, "failed to create CPU profile file", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return nil, jerrors.InternalError("failed to start CPU profile", err)
		}
		p.cpuFile = f
	}

	if flags.Trace != "" {
		f, err := os.Create(flags.Trace)
		if err != nil {
			p.stopCPU()
			return nil, jerrors.New(jerrors.ErrCodeInvalidPath, "failed to create trace file", err)
		}
		if err := trace.Start(f); err != nil {
			_ = f.Close()
			p.stopCPU()
			return nil, jerrors.InternalError("failed to start trace", err)
		}
		p.traceFile = f
	}

	return p, nil
}

// Stop ends the running profiles and writes the heap profile. It is safe
// to call more than once.
func (p *Profiler) Stop() error {
	var errs []error
	if err := p.stopCPU(); err != nil {
		errs = append(errs, err)
	}
	if p.traceFile != nil {
		trace.Stop()
		if err := p.traceFile.Close(); err != nil {
			errs = append(errs, err)
		}
		p.traceFile = nil
	}
	if p.flags.Heap != "" {
		if err := WriteHeap(p.flags.Heap); err != nil {
			errs = append(errs, err)
		}
		p.flags.Heap = ""
	}
	return errors.Join(errs...)
}

func (p *Profiler) stopCPU() error {
	if p.cpuFile == nil {
		return nil
	}
	pprof.StopCPUProfile()
	err := p.cpuFile.Close()
	p.cpuFile = nil
	return err
}

// WriteHeap writes a heap profile after a forced collection.
func WriteHeap(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return jerrors.New(jerrors.ErrCodeInvalidPath, "failed to create heap profile file", err)
	}
	defer func() { _ = f.Close() }()

	runtime.GC()

	if err := pprof.WriteHeapProfile(f); err != nil {
		return jerrors.InternalError("failed to write heap profile", err)
	}
	return nil
}

// MemStats returns current memory statistics.
func MemStats() runtime.MemStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m
}

// FormatBytes formats bytes into human-readable form.
func FormatBytes(bytes uint64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
