package speriment

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/speriment/internal/compiler"
	"github.com/aretw0/speriment/internal/validator"
	"github.com/aretw0/speriment/pkg/domain"
	"github.com/aretw0/speriment/pkg/dsl"
	"github.com/aretw0/speriment/pkg/schema"
	"github.com/aretw0/speriment/pkg/session"
)

// ErrInvalidVariableName is returned when a host wrapper is requested with a name
// that is not a JavaScript identifier.
var ErrInvalidVariableName = domain.ErrInvalidVariableName

// Compiler is the high-level entry point of the library.
// It runs validation, expansion and encoding in order and reports progress to hooks.
// A Compiler holds no per-compilation state and can be shared; sessions cannot.
type Compiler struct {
	gate   *schema.Gate
	hooks  domain.CompileHooks
	logger *slog.Logger
}

// Option defines a functional option for configuring the Compiler.
type Option func(*Compiler)

// WithLogger sets a custom structured logger for the compiler.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		c.logger = logger
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.CompileHooks) Option {
	return func(c *Compiler) {
		c.hooks = hooks
	}
}

// WithSchema replaces the embedded artifact schema.
func WithSchema(gate *schema.Gate) Option {
	return func(c *Compiler) {
		c.gate = gate
	}
}

// New initializes a Compiler. Unless WithSchema is given it loads the embedded schema.
func New(opts ...Option) (*Compiler, error) {
	c := &Compiler{}
	for _, opt := range opts {
		opt(c)
	}

	if c.gate == nil {
		gate, err := schema.Default()
		if err != nil {
			return nil, fmt.Errorf("failed to load artifact schema: %w", err)
		}
		c.gate = gate
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return c, nil
}

// Artifact is one compiled experiment.
type Artifact struct {
	// ExperimentID is the identifier allocated to the experiment root. It is not part of JSON.
	ExperimentID string
	// JSON is the schema-valid artifact.
	JSON []byte
	// Pages counts the pages of the expanded tree, synthesized ones included.
	Pages int
}

// ValidVariableName reports whether name can be used as the host wrapper's variable.
func ValidVariableName(name string) bool {
	return domain.ValidVariableName(name)
}

// Script wraps the artifact for a host page: `var <varname> = <json>`.
func (a *Artifact) Script(varname string) ([]byte, error) {
	return domain.Script(varname, a.JSON)
}

// Validate runs the structural checks without compiling.
func (c *Compiler) Validate(exp *domain.Experiment) error {
	return validator.Validate(exp)
}

// Expand validates exp and returns the expanded copy the encoder would see,
// feedback pages and guards included. Used by outline and graph views.
func (c *Compiler) Expand(sess *session.Session, exp *domain.Experiment) (*domain.Experiment, error) {
	if sess == nil || !sess.Active() {
		return nil, &domain.NoActiveSessionError{Op: "expand"}
	}
	if err := validator.Validate(exp); err != nil {
		return nil, err
	}
	return compiler.Expand(exp, sess)
}

// Compile validates exp, expands it and encodes the result. sess must be the open
// session exp was built with; synthesized pages and options draw their identifiers
// from it. Either a complete artifact or an error is returned, never both.
func (c *Compiler) Compile(sess *session.Session, exp *domain.Experiment) (*Artifact, error) {
	start := time.Now()
	evt := &domain.CompileEvent{Timestamp: start}
	if exp != nil {
		evt.ExperimentID = exp.ID
	}
	logger := c.logger.With("experiment", evt.ExperimentID)
	if c.hooks.OnCompileStart != nil {
		c.hooks.OnCompileStart(evt)
	}

	art, err := c.compile(sess, exp, evt, logger)
	evt.Duration = time.Since(start)
	if err != nil {
		evt.Err = err
		logger.Debug("Compilation failed", "stage", evt.Stage, "error", err)
		if c.hooks.OnCompileFailed != nil {
			c.hooks.OnCompileFailed(evt)
		}
		return nil, err
	}

	logger.Debug("Compilation done", "pages", art.Pages, "bytes", len(art.JSON), "ids", sess.Issued(), "duration", evt.Duration)
	if c.hooks.OnCompileDone != nil {
		c.hooks.OnCompileDone(evt)
	}
	return art, nil
}

func (c *Compiler) compile(sess *session.Session, exp *domain.Experiment, evt *domain.CompileEvent, logger *slog.Logger) (*Artifact, error) {
	if sess == nil || !sess.Active() {
		evt.Stage = domain.StageExpand
		return nil, &domain.NoActiveSessionError{Op: "compile"}
	}

	stage := func(s domain.Stage, fn func() error) error {
		evt.Stage = s
		began := time.Now()
		if err := fn(); err != nil {
			return err
		}
		if c.hooks.OnStageDone != nil {
			c.hooks.OnStageDone(&domain.CompileEvent{
				Timestamp:    began,
				ExperimentID: evt.ExperimentID,
				Stage:        s,
				Duration:     time.Since(began),
				Pages:        evt.Pages,
				Bytes:        evt.Bytes,
			})
		}
		logger.Debug("Stage done", "stage", s)
		return nil
	}

	var expanded *domain.Experiment
	var raw []byte

	if err := stage(domain.StageValidate, func() error {
		return validator.Validate(exp)
	}); err != nil {
		return nil, err
	}
	if err := stage(domain.StageExpand, func() error {
		var err error
		if expanded, err = compiler.Expand(exp, sess); err != nil {
			return err
		}
		evt.Pages = countPages(expanded)
		return nil
	}); err != nil {
		return nil, err
	}
	if err := stage(domain.StageEncode, func() error {
		var err error
		if raw, err = compiler.Encode(expanded, c.gate); err != nil {
			return err
		}
		evt.Bytes = len(raw)
		return nil
	}); err != nil {
		return nil, err
	}

	return &Artifact{ExperimentID: exp.ID, JSON: raw, Pages: evt.Pages}, nil
}

func countPages(exp *domain.Experiment) int {
	n := 0
	domain.Walk(exp, func(c domain.Component) bool {
		if c.Kind() == domain.KindPage {
			n++
		}
		return true
	})
	return n
}

// Build opens a session starting at seed, lets fn author the experiment with a
// builder bound to it, compiles the result and closes the session on every path.
func (c *Compiler) Build(seed int, fn func(b *dsl.Builder) (*domain.Experiment, error)) (*Artifact, error) {
	var art *Artifact
	err := session.Scope(seed, func(s *session.Session) error {
		b := dsl.New(s)
		exp, err := fn(b)
		if err != nil {
			return err
		}
		if err := b.Err(); err != nil {
			return err
		}
		art, err = c.Compile(s, exp)
		return err
	})
	if err != nil {
		return nil, err
	}
	return art, nil
}

// Build is a shortcut for New(opts...) followed by Compiler.Build.
func Build(seed int, fn func(b *dsl.Builder) (*domain.Experiment, error), opts ...Option) (*Artifact, error) {
	c, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return c.Build(seed, fn)
}
