package ports

import (
	"context"
)

// ArtifactStore persists compiled artifacts.
// Names are JavaScript identifiers (see domain.ValidVariableName) because a stored
// artifact may be served as `var <name> = <json>`.
type ArtifactStore interface {
	// Save stores the artifact JSON under name, replacing any previous artifact.
	// Returns domain.ErrInvalidVariableName if name is not an identifier.
	Save(ctx context.Context, name string, artifact []byte) error

	// Load retrieves the artifact JSON stored under name.
	// Returns domain.ErrArtifactNotFound if there is none.
	Load(ctx context.Context, name string) ([]byte, error)

	// Delete removes the artifact. Deleting a missing artifact is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names of all stored artifacts in ascending order.
	List(ctx context.Context) ([]string, error)
}
