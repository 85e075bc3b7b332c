package domain

import (
	"errors"
	"fmt"
)

// ErrArtifactNotFound is returned when a compiled artifact cannot be found in a store.
var ErrArtifactNotFound = errors.New("artifact not found")

// NoActiveSessionError is returned when an identifier is requested outside an open session.
type NoActiveSessionError struct {
	// Op names the operation that needed an identifier (e.g. "clone page").
	Op string
}

func (e *NoActiveSessionError) Error() string {
	if e.Op == "" {
		return "no active session: identifiers can only be allocated inside an open session"
	}
	return fmt.Sprintf("%s: no active session: identifiers can only be allocated inside an open session", e.Op)
}

// StructuralError reports a violated structural rule. It is always fatal to the compilation.
type StructuralError struct {
	Kind   Kind   // Entity kind, e.g. "block"
	ID     string // Entity id, empty when not yet allocated
	Field  string // Offending field, empty when the rule spans the entity
	Reason string // Human-readable cause
}

func (e *StructuralError) Error() string {
	subject := string(e.Kind)
	if e.ID != "" {
		subject = fmt.Sprintf("%s %s", e.Kind, e.ID)
	}
	if e.Field == "" {
		return fmt.Sprintf("invalid %s: %s", subject, e.Reason)
	}
	return fmt.Sprintf("invalid %s: field %q: %s", subject, e.Field, e.Reason)
}

// Structuralf builds a StructuralError with a formatted reason.
func Structuralf(kind Kind, id, field, format string, args ...any) *StructuralError {
	return &StructuralError{
		Kind:   kind,
		ID:     id,
		Field:  field,
		Reason: fmt.Sprintf(format, args...),
	}
}

// SchemaViolationError is returned when the encoded artifact does not satisfy the artifact schema.
// When it is returned, no artifact bytes are produced.
type SchemaViolationError struct {
	Reason string
	Err    error
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("artifact violates schema: %s", e.Reason)
}

func (e *SchemaViolationError) Unwrap() error {
	return e.Err
}

// ContainerTypeError is returned when a field documented as a list receives a single value.
type ContainerTypeError struct {
	Kind  Kind   // Entity kind owning the field
	Field string // Field name as written by the author
	Got   string // Description of what was found instead (e.g. "mapping")
}

func (e *ContainerTypeError) Error() string {
	return fmt.Sprintf("%s field %q must be a list, got %s", e.Kind, e.Field, e.Got)
}
