package document

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/speriment/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// ErrEmptyDocument is returned when a document has no content.
var ErrEmptyDocument = errors.New("empty document")

// ErrTablesDisabled is returned by Build when a bank names a table but the
// document was parsed WithoutTables.
var ErrTablesDisabled = errors.New("table banks are disabled")

// Document is a parsed authoring document. It holds no identifiers yet:
// Build allocates them from the builder's session.
type Document struct {
	// Name is the artifact variable name declared by the document, if any.
	Name string

	root     experimentDef
	dir      string
	noTables bool
}

// Option configures parsing.
type Option func(*Document)

// WithBaseDir sets the directory table banks are resolved against.
// Load defaults it to the document's directory; Parse to the working directory.
func WithBaseDir(dir string) Option {
	return func(d *Document) {
		d.dir = dir
	}
}

// WithoutTables rejects table banks, for documents from untrusted sources.
func WithoutTables() Option {
	return func(d *Document) {
		d.noTables = true
	}
}

// Load reads and parses the document at path.
func Load(path string, opts ...Option) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	opts = append([]Option{WithBaseDir(filepath.Dir(path))}, opts...)
	doc, err := Parse(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse decodes a YAML (or JSON) document and checks its container shapes.
// A bare value where a list is required fails with *domain.ContainerTypeError.
func Parse(data []byte, opts ...Option) (*Document, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	if raw == nil {
		return nil, ErrEmptyDocument
	}
	if err := checkShape(domain.KindExperiment, raw); err != nil {
		return nil, err
	}

	doc := &Document{}
	for _, opt := range opts {
		opt(doc)
	}
	if err := decode(raw, &doc.root); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	doc.Name = doc.root.Name
	return doc, nil
}

// decode maps a generic node onto a definition. Unknown keys are errors so
// that typos do not silently drop settings.
func decode(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}
