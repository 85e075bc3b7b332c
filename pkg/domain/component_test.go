package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestWalk_DeclaredOrder(t *testing.T) {
	fb := &Page{ID: "fb"}
	o := &Option{ID: "o", Feedback: &Feedback{Page: fb}}
	p1 := &Page{ID: "p1", Options: []*Option{o}}
	p2 := &Page{ID: "p2"}
	g := &Page{ID: "g"}
	it := &Item{ID: "it", Pages: []*Page{p2}}
	exp := &Experiment{ID: "e", Blocks: []*Block{
		{ID: "b1", Pages: []*Page{p1}},
		{ID: "b2", Items: []*Item{it}},
		{ID: "b3", Groups: [][]*Page{{g}}},
	}}

	var visited []string
	Walk(exp, func(c Component) bool {
		visited = append(visited, c.Identify())
		return true
	})
	assert.Equal(t, []string{"e", "b1", "p1", "o", "fb", "b2", "it", "p2", "b3", "g"}, visited)
}

func TestWalk_SkipsChildren(t *testing.T) {
	exp := &Experiment{ID: "e", Blocks: []*Block{{ID: "b", Pages: []*Page{{ID: "p"}}}}}
	var visited []string
	Walk(exp, func(c Component) bool {
		visited = append(visited, c.Identify())
		return c.Kind() != KindBlock
	})
	assert.Equal(t, []string{"e", "b"}, visited)
}

func TestBlock_ContentExclusivity(t *testing.T) {
	tests := []struct {
		name    string
		block   *Block
		wantErr bool
	}{
		{"none", &Block{ID: "b"}, true},
		{"empty pages", &Block{ID: "b", Pages: []*Page{}}, false},
		{"pages and groups", &Block{ID: "b", Pages: []*Page{}, Groups: [][]*Page{}}, true},
		{"blocks and items", &Block{ID: "b", Blocks: []*Block{}, Items: []*Item{}}, true},
		{"items", &Block{ID: "b", Items: []*Item{{ID: "i", Pages: []*Page{{ID: "p"}}}}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.block.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var se *StructuralError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, KindBlock, se.Kind)
			assert.Equal(t, "b", se.ID)
		})
	}
}

func groupsOf(sizes ...int) [][]*Page {
	var groups [][]*Page
	n := 0
	for _, size := range sizes {
		var g []*Page
		for i := 0; i < size; i++ {
			n++
			g = append(g, &Page{ID: string(rune('a' + n)), Condition: string(rune('x' + i%2))})
		}
		groups = append(groups, g)
	}
	return groups
}

func TestBlock_LatinSquare(t *testing.T) {
	tests := []struct {
		name    string
		block   *Block
		wantErr bool
	}{
		{"four groups of two", &Block{ID: "b", Groups: groupsOf(2, 2, 2, 2), LatinSquare: ptr(true)}, false},
		{"unequal lengths", &Block{ID: "b", Groups: groupsOf(2, 3), LatinSquare: ptr(true)}, true},
		{"count not a multiple", &Block{ID: "b", Groups: groupsOf(2, 2, 2), LatinSquare: ptr(true)}, true},
		{"empty groups", &Block{ID: "b", Groups: [][]*Page{{}, {}}, LatinSquare: ptr(true)}, true},
		{"on pages", &Block{ID: "b", Pages: []*Page{{ID: "p"}}, LatinSquare: ptr(true)}, true},
		{"false is ignored", &Block{ID: "b", Pages: []*Page{{ID: "p"}}, LatinSquare: ptr(false)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.block.Validate()
			if tt.wantErr {
				var se *StructuralError
				assert.ErrorAs(t, err, &se)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBlock_Pseudorandom(t *testing.T) {
	balancedPages := []*Page{{ID: "1", Condition: "a"}, {ID: "2", Condition: "b"}, {ID: "3", Condition: "a"}, {ID: "4", Condition: "b"}}
	unbalanced := []*Page{{ID: "1", Condition: "a"}, {ID: "2", Condition: "a"}, {ID: "3", Condition: "b"}}
	missing := []*Page{{ID: "1", Condition: "a"}, {ID: "2"}}

	tests := []struct {
		name    string
		block   *Block
		wantErr string
	}{
		{"balanced pages", &Block{ID: "b", Pages: balancedPages, Pseudorandom: true}, ""},
		{"unbalanced pages", &Block{ID: "b", Pages: unbalanced, Pseudorandom: true}, "equally often"},
		{"missing condition", &Block{ID: "b", Pages: missing, Pseudorandom: true}, "condition"},
		{"groups with latin square", &Block{ID: "b", Groups: groupsOf(2, 2), LatinSquare: ptr(true), Pseudorandom: true}, ""},
		{"groups without latin square", &Block{ID: "b", Groups: groupsOf(2, 2), LatinSquare: ptr(false), Pseudorandom: true}, "at random"},
		{"groups with latin square unset", &Block{ID: "b", Groups: groupsOf(2, 2), Pseudorandom: true}, "explicitly"},
		{"blocks", &Block{ID: "b", Blocks: []*Block{}, Pseudorandom: true}, "only valid"},
		{"items inherit condition", &Block{ID: "b", Pseudorandom: true, Items: []*Item{
			{ID: "i1", Condition: "a", Pages: []*Page{{ID: "1"}}},
			{ID: "i2", Condition: "b", Pages: []*Page{{ID: "2"}}},
		}}, ""},
		{"empty item", &Block{ID: "b", Pseudorandom: true, Items: []*Item{{ID: "i1"}}}, "at least one page"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.block.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var se *StructuralError
			require.ErrorAs(t, err, &se)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBlock_Ordering(t *testing.T) {
	x := &Block{ID: "x", Pages: []*Page{}}
	y := &Block{ID: "y", Pages: []*Page{}}
	guarded := &Block{ID: "g", Pages: []*Page{}, RunIf: &RunCondition{PageID: "p", OptionID: "o"}}

	tests := []struct {
		name    string
		block   *Block
		wantErr string
	}{
		{"exchangeable members", &Block{ID: "b", Blocks: []*Block{x, y}, Exchangeable: []string{"x", "y"}}, ""},
		{"exchangeable stranger", &Block{ID: "b", Blocks: []*Block{x}, Exchangeable: []string{"y"}}, "immediate sub-block"},
		{"exchangeable on pages", &Block{ID: "b", Pages: []*Page{}, Exchangeable: []string{"x"}}, "only valid"},
		{"treatments", &Block{ID: "b", Blocks: []*Block{x, y}, Treatments: [][]string{{"x"}, {"y"}}}, ""},
		{"overlapping treatments", &Block{ID: "b", Blocks: []*Block{x, y}, Treatments: [][]string{{"x"}, {"x", "y"}}}, "disjoint"},
		{"empty treatment", &Block{ID: "b", Blocks: []*Block{x, y}, Treatments: [][]string{{}}}, "empty"},
		{"treatment with own guard", &Block{ID: "b", Blocks: []*Block{x, guarded}, Treatments: [][]string{{"g"}}}, "run condition"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.block.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPage_FreeText(t *testing.T) {
	tests := []struct {
		name    string
		page    *Page
		wantErr bool
	}{
		{"no options", &Page{ID: "p", FreeText: true}, false},
		{"pattern option", &Page{ID: "p", FreeText: true, Options: []*Option{{ID: "o", Correct: &Correctness{Pattern: ptr("^a")}}}}, false},
		{"two options", &Page{ID: "p", FreeText: true, Options: []*Option{{ID: "o1"}, {ID: "o2"}}}, true},
		{"boolean option", &Page{ID: "p", FreeText: true, Options: []*Option{{ID: "o", Correct: &Correctness{Bool: ptr(true)}}}}, true},
		{"boolean page", &Page{ID: "p", FreeText: true, Correct: &Correctness{Bool: ptr(false)}}, true},
		{"pattern on choice option", &Page{ID: "p", Options: []*Option{{ID: "o", Correct: &Correctness{Pattern: ptr("x")}}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.page.Validate()
			if tt.wantErr {
				var se *StructuralError
				assert.ErrorAs(t, err, &se)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPage_MutualExclusions(t *testing.T) {
	assert.Error(t, (&Page{ID: "p", Text: "t", TextSample: &SampleDirective{Bank: "b"}}).Validate())
	assert.Error(t, (&Page{ID: "p", Correct: &Correctness{}}).Validate())
	assert.Error(t, (&Page{ID: "p", Correct: &Correctness{Bool: ptr(true), Pattern: ptr("x")}}).Validate())
	assert.Error(t, (&Page{ID: "p", Feedback: &Feedback{}}).Validate())
	assert.Error(t, (&Page{ID: "p", Feedback: &Feedback{Text: "x", Page: &Page{ID: "q"}}}).Validate())
	assert.Error(t, (&Page{ID: "p", Resources: []Media{&Resource{}}}).Validate())

	self := &Page{ID: "p"}
	self.Feedback = &Feedback{Page: self}
	assert.Error(t, self.Validate())
}

func TestSampleDirective_Validate(t *testing.T) {
	assert.NoError(t, (&SampleDirective{Bank: "b"}).Validate())
	assert.NoError(t, (&SampleDirective{Bank: "b", Variable: ptr(1)}).Validate())
	assert.NoError(t, (&SampleDirective{Bank: "b", NotVariable: ptr(0)}).Validate())

	var se *StructuralError
	assert.ErrorAs(t, (&SampleDirective{Bank: "b", Variable: ptr(1), NotVariable: ptr(2)}).Validate(), &se)
	assert.Equal(t, KindSample, se.Kind)
	assert.Error(t, (&SampleDirective{}).Validate())
	assert.Error(t, (&SampleDirective{Bank: "b", Variable: ptr(-1)}).Validate())
}

func TestRunCondition_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cond    RunCondition
		wantErr bool
	}{
		{"option", RunCondition{PageID: "p", OptionID: "o"}, false},
		{"regex", RunCondition{PageID: "p", Regex: "^a"}, false},
		{"permutation", RunCondition{Permutation: ptr(0)}, false},
		{"no page", RunCondition{OptionID: "o"}, true},
		{"option and regex", RunCondition{PageID: "p", OptionID: "o", Regex: "x"}, true},
		{"neither", RunCondition{PageID: "p"}, true},
		{"permutation with page", RunCondition{PageID: "p", Permutation: ptr(1)}, true},
		{"negative permutation", RunCondition{Permutation: ptr(-1)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cond.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCriterion_Validate(t *testing.T) {
	assert.NoError(t, (&Criterion{Streak: 3}).validate("b"))
	assert.NoError(t, (&Criterion{Accuracy: 0.8}).validate("b"))
	assert.Error(t, (&Criterion{}).validate("b"))
	assert.Error(t, (&Criterion{Accuracy: 1}).validate("b"))
	assert.Error(t, (&Criterion{Streak: 2, Accuracy: 0.5}).validate("b"))
	assert.Error(t, (&Criterion{Streak: -1}).validate("b"))
}

func TestValidate_Idempotent(t *testing.T) {
	b := &Block{ID: "b", Pages: []*Page{{ID: "1", Condition: "a"}, {ID: "2", Condition: "a"}, {ID: "3", Condition: "b"}}, Pseudorandom: true}
	first := b.Validate()
	second := b.Validate()
	require.Error(t, first)
	assert.Equal(t, first.Error(), second.Error())
}

func TestStructuralError_Message(t *testing.T) {
	err := Structuralf(KindBlock, "7", "cutoff", "must not be negative, got %d", -1)
	assert.Equal(t, `invalid block 7: field "cutoff": must not be negative, got -1`, err.Error())

	err = Structuralf(KindSample, "", "", "broken")
	assert.Equal(t, "invalid sample: broken", err.Error())
}
