package domain

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidVariableName is returned when an artifact name is not a usable JavaScript identifier.
var ErrInvalidVariableName = errors.New("invalid JavaScript variable name")

// ErrNotScript is returned when a host script does not have the `var <name> = ` prefix.
var ErrNotScript = errors.New("not an artifact script")

var jsIdentifier = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

var jsReserved = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true, "continue": true,
	"debugger": true, "default": true, "delete": true, "do": true, "else": true, "enum": true,
	"export": true, "extends": true, "false": true, "finally": true, "for": true, "function": true,
	"if": true, "import": true, "in": true, "instanceof": true, "new": true, "null": true,
	"return": true, "super": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "var": true, "void": true, "while": true, "with": true,
	"let": true, "static": true, "yield": true, "await": true,
}

// ValidVariableName reports whether name can be bound by the host wrapper.
// Artifact stores use the same rule for their keys.
func ValidVariableName(name string) bool {
	return jsIdentifier.MatchString(name) && !jsReserved[name]
}

// Script wraps artifact JSON for a host page: `var <name> = <json>`.
func Script(name string, artifact []byte) ([]byte, error) {
	if !ValidVariableName(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVariableName, name)
	}
	var buf bytes.Buffer
	buf.Grow(len(name) + len(artifact) + 7)
	buf.WriteString("var ")
	buf.WriteString(name)
	buf.WriteString(" = ")
	buf.Write(artifact)
	return buf.Bytes(), nil
}

// Unscript is the inverse of Script. A trailing semicolon or newline is tolerated.
func Unscript(script []byte) (name string, artifact []byte, err error) {
	rest, ok := bytes.CutPrefix(script, []byte("var "))
	if !ok {
		return "", nil, ErrNotScript
	}
	head, body, ok := bytes.Cut(rest, []byte(" = "))
	if !ok || !ValidVariableName(string(head)) {
		return "", nil, ErrNotScript
	}
	body = bytes.TrimRight(body, "; \r\n")
	return string(head), body, nil
}
