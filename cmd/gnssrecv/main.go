// Command gnssrecv is the GPS L1 C/A software receiver: it owns the
// flag/config surface, wires up the pipeline, and maps the result to
// one of the process exit codes described in spec.md §6.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/doismellburning/gnssrecv/internal/config"
	"github.com/doismellburning/gnssrecv/internal/diagnostics"
	"github.com/doismellburning/gnssrecv/internal/logging"
	"github.com/doismellburning/gnssrecv/internal/measurement"
	"github.com/doismellburning/gnssrecv/internal/pipeline"
	"github.com/doismellburning/gnssrecv/internal/solver"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Parse(args)
	if err != nil {
		return config.ExitCodeFor(err)
	}

	logging.Init(cfg.LogLevel)

	opts, cleanup, err := buildOptions(cfg)
	defer cleanup()
	if err != nil {
		logging.Errorf("gnssrecv: %v", err)
		return config.ExitCodeFor(err)
	}

	p, err := pipeline.New(cfg, opts...)
	if err != nil {
		logging.Errorf("gnssrecv: %v", err)
		return config.ExitCodeFor(err)
	}
	defer p.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := p.Run(ctx); err != nil {
		logging.Errorf("gnssrecv: %v", err)
		return config.ExitCodeFor(err)
	}

	return config.ExitSuccess
}

// buildOptions wires the optional collaborators spec.md §6 describes
// as off-by-default: the diagnostics publisher (enabled by -o), the
// pty debug tap, and a TCP solver collaborator (GNSSRECV_SOLVER_ADDR
// in the environment; falls back to the non-computing stub). The
// returned cleanup func is always safe to call, even on error.
func buildOptions(cfg *config.Config) ([]pipeline.Option, func(), error) {
	var opts []pipeline.Option
	var closers []func() error

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logging.Warnf("gnssrecv: cleanup: %v", err)
			}
		}
	}

	if cfg.DiagDir != "" {
		pub, err := diagnostics.NewPublisher(cfg.DiagDir, secondsToDuration(cfg.DiagInterval))
		if err != nil {
			return nil, cleanup, fmt.Errorf("start diagnostics publisher: %w", err)
		}
		opts = append(opts, pipeline.WithDiagnostics(pub))

		srv, err := diagnostics.StartServer(":0", cfg.DiagDir)
		if err != nil {
			logging.Warnf("gnssrecv: diagnostics HTTP server: %v", err)
		} else {
			closers = append(closers, srv.Shutdown)
			diagnostics.Advertise("gnssrecv", srv.Port())
		}
	}

	if addr := os.Getenv("GNSSRECV_SOLVER_ADDR"); addr != "" {
		opts = append(opts, pipeline.WithSolver(solver.NewClient(addr)))
	}

	if os.Getenv("GNSSRECV_PTY_TAP") != "" {
		tap, err := measurement.NewPtyTap()
		if err != nil {
			logging.Warnf("gnssrecv: pty tap unavailable: %v", err)
		} else {
			logging.Infof("gnssrecv: measurement tap at %s", tap.SlaveName())
			opts = append(opts, pipeline.WithPtyTap(tap))
			closers = append(closers, tap.Close)
		}
	}

	return opts, cleanup, nil
}

func secondsToDuration(s float64) time.Duration {
	if s <= 0 {
		return 0
	}
	return time.Duration(s * float64(time.Second))
}
