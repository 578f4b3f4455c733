package cmd

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"

	"github.com/spiffcs/evidence-collector/internal/log"
)

// startProfiling starts the CPU profile and execution trace requested on
// the command line. The returned function stops them in reverse order and
// then writes the heap profile. Failures while stopping are only logged.
func startProfiling(opts *Options) (func(), error) {
	var stops []func() error

	stop := func() {
		for i := len(stops) - 1; i >= 0; i-- {
			if err := stops[i](); err != nil {
				log.Warn("could not finish profile", "error", err)
			}
		}
		if opts.MemProfile != "" {
			if err := writeHeapProfile(opts.MemProfile); err != nil {
				log.Warn("could not write memory profile", "path", opts.MemProfile, "error", err)
			}
		}
	}

	if opts.CPUProfile != "" {
		f, err := os.Create(opts.CPUProfile)
		if err != nil {
			return nil, fmt.Errorf("could not create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("could not start CPU profile: %w", err)
		}
		stops = append(stops, func() error {
			pprof.StopCPUProfile()
			return f.Close()
		})
	}

	if opts.Trace != "" {
		f, err := os.Create(opts.Trace)
		if err != nil {
			stop()
			return nil, fmt.Errorf("could not create trace: %w", err)
		}
		if err := trace.Start(f); err != nil {
			_ = f.Close()
			stop()
			return nil, fmt.Errorf("could not start trace: %w", err)
		}
		stops = append(stops, func() error {
			trace.Stop()
			return f.Close()
		})
	}

	return stop, nil
}

func writeHeapProfile(path string) (err error) {
	log.Debug("writing memory profile", "path", path)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	runtime.GC()
	return pprof.WriteHeapProfile(f)
}
