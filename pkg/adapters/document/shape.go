package document

import (
	"fmt"

	"github.com/aretw0/speriment/pkg/domain"
)

// listField is a field documented as a list. Elements of kind elem are checked
// recursively; nested fields are lists of lists (groups, treatments).
type listField struct {
	name   string
	elem   domain.Kind
	nested bool
}

var shapes = map[domain.Kind][]listField{
	domain.KindExperiment: {
		{name: "blocks", elem: domain.KindBlock},
		{name: "exchangeable"},
		{name: "treatments", nested: true},
	},
	domain.KindBlock: {
		{name: "pages", elem: domain.KindPage},
		{name: "groups", elem: domain.KindPage, nested: true},
		{name: "blocks", elem: domain.KindBlock},
		{name: "items", elem: domain.KindItem},
		{name: "exchangeable"},
		{name: "treatments", nested: true},
	},
	domain.KindItem: {
		{name: "pages", elem: domain.KindPage},
		{name: "tags"},
	},
	domain.KindPage: {
		{name: "options", elem: domain.KindOption},
		{name: "resources"},
		{name: "tags"},
	},
	domain.KindOption: {
		{name: "resources"},
		{name: "tags"},
	},
}

// checkShape walks the generic document and rejects a bare value where a list is required.
func checkShape(kind domain.Kind, node any) error {
	m, ok := node.(map[string]any)
	if !ok {
		return fmt.Errorf("%s must be a mapping, got %s", kind, describe(node))
	}

	for _, f := range shapes[kind] {
		v, present := m[f.name]
		if !present || v == nil {
			continue
		}
		list, ok := v.([]any)
		if !ok {
			return &domain.ContainerTypeError{Kind: kind, Field: f.name, Got: describe(v)}
		}
		for _, el := range list {
			if f.nested {
				inner, ok := el.([]any)
				if !ok {
					return &domain.ContainerTypeError{Kind: kind, Field: f.name + "[]", Got: describe(el)}
				}
				if err := checkElems(f.elem, inner); err != nil {
					return err
				}
				continue
			}
			if err := checkElems(f.elem, []any{el}); err != nil {
				return err
			}
		}
	}

	if banks, ok := m["banks"]; ok && banks != nil {
		bm, ok := banks.(map[string]any)
		if !ok {
			return fmt.Errorf("%s field \"banks\" must be a mapping, got %s", kind, describe(banks))
		}
		for name, bank := range bm {
			switch bank.(type) {
			case []any, map[string]any:
			default:
				return &domain.ContainerTypeError{Kind: kind, Field: "banks." + name, Got: describe(bank)}
			}
		}
	}

	if fb, ok := m["feedback"].(map[string]any); ok {
		return checkShape(domain.KindPage, fb)
	}
	return nil
}

func checkElems(kind domain.Kind, elems []any) error {
	if kind == "" {
		return nil
	}
	for _, el := range elems {
		if err := checkShape(kind, el); err != nil {
			return err
		}
	}
	return nil
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any, map[any]any:
		return "mapping"
	case []any:
		return "list"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int64, uint64, float64:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
