package schema_test

import (
	"testing"

	"github.com/aretw0/speriment/pkg/domain"
	"github.com/aretw0/speriment/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type obj = map[string]any

func validArtifact() obj {
	return obj{
		"exchangeable": []any{},
		"blocks": []any{
			obj{
				"id": "4",
				"pages": []any{
					obj{
						"id":   "2",
						"text": "Pick one",
						"options": []any{
							obj{"id": "1", "text": "a", "correct": true},
						},
						"resources": []any{
							obj{"source": "cat.jpg", "mediaType": nil, "controls": true, "autoplay": false, "required": false},
							obj{"sampleFrom": "animals", "variable": 0},
						},
					},
					obj{"id": "3", "text": "fb", "runIf": obj{"pageID": "2", "optionID": "1"}},
				},
				"criterion": 1,
			},
			obj{
				"id":     "6",
				"groups": []any{[]any{obj{"id": "5", "text": obj{"sampleFrom": "nouns"}}}},
				"runIf":  obj{"permutation": 0},
			},
		},
	}
}

func TestDefault_LoadsEmbeddedDocument(t *testing.T) {
	gate, err := schema.Default()
	require.NoError(t, err)
	again, err := schema.Default()
	require.NoError(t, err)
	assert.Same(t, gate, again)
	assert.Contains(t, string(schema.Document()), "components:")
}

func TestGate_AcceptsValidArtifact(t *testing.T) {
	gate, err := schema.Default()
	require.NoError(t, err)
	assert.NoError(t, gate.Check(validArtifact()))
}

func TestGate_RejectsViolations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a obj)
	}{
		{"missing exchangeable", func(a obj) { delete(a, "exchangeable") }},
		{"unknown top-level key", func(a obj) { a["extra"] = 1 }},
		{"block with two content kinds", func(a obj) {
			a["blocks"].([]any)[0].(obj)["items"] = []any{}
		}},
		{"block without content", func(a obj) {
			delete(a["blocks"].([]any)[0].(obj), "pages")
		}},
		{"page without id", func(a obj) {
			page := a["blocks"].([]any)[0].(obj)["pages"].([]any)[0].(obj)
			delete(page, "id")
		}},
		{"run condition mixing forms", func(a obj) {
			page := a["blocks"].([]any)[0].(obj)["pages"].([]any)[1].(obj)
			page["runIf"] = obj{"pageID": "2", "optionID": "1", "regex": "x"}
		}},
		{"run condition without page", func(a obj) {
			page := a["blocks"].([]any)[0].(obj)["pages"].([]any)[1].(obj)
			page["runIf"] = obj{"optionID": "1"}
		}},
		{"resource without media type", func(a obj) {
			page := a["blocks"].([]any)[0].(obj)["pages"].([]any)[0].(obj)
			page["resources"] = []any{obj{"source": "x.png", "controls": true, "autoplay": false, "required": false}}
		}},
		{"sample with both indexes", func(a obj) {
			page := a["blocks"].([]any)[0].(obj)["pages"].([]any)[0].(obj)
			page["resources"] = []any{obj{"sampleFrom": "b", "variable": 0, "notVariable": 1}}
		}},
		{"criterion out of range", func(a obj) {
			a["blocks"].([]any)[0].(obj)["criterion"] = 1.5
		}},
		{"snake case key", func(a obj) {
			blk := a["blocks"].([]any)[1].(obj)
			blk["latin_square"] = true
		}},
	}
	gate, err := schema.Default()
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := validArtifact()
			tt.mutate(a)
			err := gate.Check(a)
			var sv *domain.SchemaViolationError
			require.ErrorAs(t, err, &sv)
			assert.NotEmpty(t, sv.Reason)
			assert.NotNil(t, sv.Unwrap())
		})
	}
}

func TestGate_AcceptsStructs(t *testing.T) {
	type block struct {
		ID    string `json:"id"`
		Pages []any  `json:"pages"`
	}
	type artifact struct {
		Blocks       []block  `json:"blocks"`
		Exchangeable []string `json:"exchangeable"`
	}
	gate, err := schema.Default()
	require.NoError(t, err)
	assert.NoError(t, gate.Check(artifact{Blocks: []block{{ID: "1", Pages: []any{}}}, Exchangeable: []string{}}))
}

func TestGate_UnrepresentableValue(t *testing.T) {
	gate, err := schema.Default()
	require.NoError(t, err)
	var sv *domain.SchemaViolationError
	assert.ErrorAs(t, gate.Check(obj{"blocks": make(chan int)}), &sv)
}

func TestLoad_CustomDocument(t *testing.T) {
	doc := []byte(`
openapi: 3.0.3
info: {title: strict, version: "1"}
paths: {}
components:
  schemas:
    Experiment:
      type: object
      required: [blocks]
      properties:
        blocks:
          type: array
          maxItems: 0
`)
	gate, err := schema.Load(doc)
	require.NoError(t, err)
	assert.NoError(t, gate.Check(obj{"blocks": []any{}}))
	assert.Error(t, gate.Check(obj{"blocks": []any{obj{"id": "1"}}}))
}

func TestLoad_Errors(t *testing.T) {
	_, err := schema.Load([]byte("not: [valid"))
	assert.Error(t, err)

	_, err = schema.Load([]byte(`
openapi: 3.0.3
info: {title: empty, version: "1"}
paths: {}
components:
  schemas:
    Other:
      type: string
`))
	assert.ErrorContains(t, err, "Experiment")
}
