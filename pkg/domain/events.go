package domain

import (
	"time"
)

// Stage names a pass of the compiler.
type Stage string

const (
	StageValidate Stage = "validate"
	StageExpand   Stage = "expand"
	StageEncode   Stage = "encode"
)

// CompileEvent describes the progress or outcome of one compilation.
type CompileEvent struct {
	Timestamp    time.Time     `json:"timestamp"`
	ExperimentID string        `json:"experiment_id"`
	Stage        Stage         `json:"stage,omitempty"`
	Duration     time.Duration `json:"duration,omitempty"`
	// Pages is the number of pages in the expanded tree, synthesized ones included.
	Pages int `json:"pages,omitempty"`
	// Bytes is the size of the emitted artifact.
	Bytes int   `json:"bytes,omitempty"`
	Err   error `json:"-"`
}

// CompileHooks defines callbacks for compiler observability.
// Compilation is synchronous, so hooks run on the compiling goroutine.
type CompileHooks struct {
	OnCompileStart  func(*CompileEvent)
	OnStageDone     func(*CompileEvent)
	OnCompileDone   func(*CompileEvent)
	OnCompileFailed func(*CompileEvent)
}
