package schema

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/aretw0/speriment/pkg/domain"
)

// RootSchema is the name of the component schema describing a whole artifact.
const RootSchema = "Experiment"

//go:embed artifact.yaml
var artifactDocument []byte

// Document returns the embedded schema document.
func Document() []byte {
	out := make([]byte, len(artifactDocument))
	copy(out, artifactDocument)
	return out
}

// Gate validates encoded artifacts against one schema.
type Gate struct {
	root *openapi3.Schema
}

var (
	defaultOnce sync.Once
	defaultGate *Gate
	defaultErr  error
)

// Default returns the gate for the embedded schema. The document is parsed once.
func Default() (*Gate, error) {
	defaultOnce.Do(func() {
		defaultGate, defaultErr = Load(artifactDocument)
	})
	return defaultGate, defaultErr
}

// Load parses an OpenAPI 3 document and builds a gate from its RootSchema component.
func Load(data []byte) (*Gate, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema document: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid schema document: %w", err)
	}
	if doc.Components == nil {
		return nil, fmt.Errorf("schema document has no components")
	}
	ref, ok := doc.Components.Schemas[RootSchema]
	if !ok || ref.Value == nil {
		return nil, fmt.Errorf("schema document has no %q component", RootSchema)
	}
	return &Gate{root: ref.Value}, nil
}

// Check validates record, which may be any value that marshals to JSON.
// Every failure is a *domain.SchemaViolationError.
func (g *Gate) Check(record any) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return &domain.SchemaViolationError{Reason: "artifact is not representable as JSON", Err: err}
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return &domain.SchemaViolationError{Reason: "artifact is not representable as JSON", Err: err}
	}
	if err := g.root.VisitJSON(generic); err != nil {
		return &domain.SchemaViolationError{Reason: describe(err), Err: err}
	}
	return nil
}

// describe renders the deepest schema error with its location.
func describe(err error) string {
	var se *openapi3.SchemaError
	if !errors.As(err, &se) {
		return err.Error()
	}
	path := "/" + strings.Join(se.JSONPointer(), "/")
	if se.Reason == "" {
		return fmt.Sprintf("at %s: %v", path, err)
	}
	return fmt.Sprintf("at %s: %s", path, se.Reason)
}
