// Package schema holds the fixed artifact schema and the gate every compiled
// artifact must pass before it is returned.
//
// The schema is an OpenAPI 3 component document (artifact.yaml, embedded) whose
// "Experiment" schema describes the whole artifact. The gate validates the generic
// JSON form of an encoded record with kin-openapi, so the check sees exactly the
// keys and values a consumer would read.
//
//	gate, err := schema.Default()
//	if err != nil {
//	    // the embedded document is broken
//	}
//	if err := gate.Check(record); err != nil {
//	    var sv *domain.SchemaViolationError
//	    errors.As(err, &sv) // always true
//	}
package schema
