package observability

import (
	"log/slog"

	"github.com/aretw0/speriment/pkg/domain"
)

// Combine merges several hook sets into one. Callbacks run in argument order.
func Combine(sets ...domain.CompileHooks) domain.CompileHooks {
	pick := func(get func(domain.CompileHooks) func(*domain.CompileEvent)) func(*domain.CompileEvent) {
		var fns []func(*domain.CompileEvent)
		for _, s := range sets {
			if fn := get(s); fn != nil {
				fns = append(fns, fn)
			}
		}
		if len(fns) == 0 {
			return nil
		}
		return func(e *domain.CompileEvent) {
			for _, fn := range fns {
				fn(e)
			}
		}
	}
	return domain.CompileHooks{
		OnCompileStart:  pick(func(h domain.CompileHooks) func(*domain.CompileEvent) { return h.OnCompileStart }),
		OnStageDone:     pick(func(h domain.CompileHooks) func(*domain.CompileEvent) { return h.OnStageDone }),
		OnCompileDone:   pick(func(h domain.CompileHooks) func(*domain.CompileEvent) { return h.OnCompileDone }),
		OnCompileFailed: pick(func(h domain.CompileHooks) func(*domain.CompileEvent) { return h.OnCompileFailed }),
	}
}

// LoggingHooks logs the outcome of every compilation at info level, failures at warn.
func LoggingHooks(logger *slog.Logger) domain.CompileHooks {
	return domain.CompileHooks{
		OnCompileDone: func(e *domain.CompileEvent) {
			logger.Info("Experiment compiled",
				"experiment", e.ExperimentID,
				"pages", e.Pages,
				"bytes", e.Bytes,
				"duration", e.Duration,
			)
		},
		OnCompileFailed: func(e *domain.CompileEvent) {
			logger.Warn("Compilation failed",
				"experiment", e.ExperimentID,
				"stage", e.Stage,
				"err", e.Err,
			)
		},
	}
}
