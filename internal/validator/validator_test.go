package validator_test

import (
	"testing"

	"github.com/aretw0/speriment/internal/validator"
	"github.com/aretw0/speriment/pkg/domain"
	"github.com/aretw0/speriment/pkg/dsl"
	"github.com/aretw0/speriment/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBuilder(t *testing.T) *dsl.Builder {
	t.Helper()
	s := session.Open(0)
	t.Cleanup(s.Close)
	return dsl.New(s)
}

func experimentOf(b *dsl.Builder, pages ...*domain.Page) *domain.Experiment {
	return b.Experiment(dsl.ExperimentConfig{Blocks: []*domain.Block{b.Block(dsl.BlockConfig{Pages: pages})}})
}

func requireStructural(t *testing.T, err error) *domain.StructuralError {
	t.Helper()
	var se *domain.StructuralError
	require.ErrorAs(t, err, &se)
	return se
}

func TestValidate_ValidExperiment(t *testing.T) {
	b := newBuilder(t)
	yes := b.Option(dsl.OptionConfig{Text: "yes", Correct: dsl.Correct(true), Tags: []string{"y"}, Feedback: dsl.FeedbackText("good")})
	no := b.Option(dsl.OptionConfig{Text: "no", Correct: dsl.Correct(false), Tags: []string{"n"}})
	q := b.Page(dsl.PageConfig{Text: "q", Options: []*domain.Option{yes, no}, Tags: []string{"q"}})
	follow := b.Page(dsl.PageConfig{Text: "f", Tags: []string{"f"}, RunIf: dsl.RunIfSelected(q, yes)})
	typed := b.Page(dsl.PageConfig{Text: "type", FreeText: true, Tags: []string{"t"}, Correct: dsl.Matches("^a")})
	later := b.Block(dsl.BlockConfig{Pages: []*domain.Page{typed}, RunIf: dsl.RunIfMatched(typed, "x")})

	exp := b.Experiment(dsl.ExperimentConfig{Blocks: []*domain.Block{
		b.Block(dsl.BlockConfig{Pages: []*domain.Page{q, follow}, Criterion: dsl.Streak(1)}),
		later,
	}})
	require.NoError(t, b.Err())
	assert.NoError(t, validator.Validate(exp))
}

func TestValidate_Nil(t *testing.T) {
	requireStructural(t, validator.Validate(nil))
}

func TestValidate_FirstViolationInDeclaredOrder(t *testing.T) {
	b := newBuilder(t)
	first := b.Block(dsl.BlockConfig{}) // no content
	second := b.Block(dsl.BlockConfig{Pages: []*domain.Page{}, Cutoff: -1})
	exp := b.Experiment(dsl.ExperimentConfig{Blocks: []*domain.Block{first, second}})

	se := requireStructural(t, validator.Validate(exp))
	assert.Equal(t, first.ID, se.ID)
}

func TestValidate_DuplicateIdentifier(t *testing.T) {
	b := newBuilder(t)
	p := b.Page(dsl.PageConfig{Text: "shared"})
	exp := b.Experiment(dsl.ExperimentConfig{Blocks: []*domain.Block{
		b.Block(dsl.BlockConfig{Pages: []*domain.Page{p}}),
		b.Block(dsl.BlockConfig{Pages: []*domain.Page{p}}),
	}})

	se := requireStructural(t, validator.Validate(exp))
	assert.Equal(t, p.ID, se.ID)
	assert.Contains(t, se.Reason, "Clone")

	// A clone of the page is accepted.
	b2 := newBuilder(t)
	p2 := b2.Page(dsl.PageConfig{Text: "shared"})
	exp2 := b2.Experiment(dsl.ExperimentConfig{Blocks: []*domain.Block{
		b2.Block(dsl.BlockConfig{Pages: []*domain.Page{p2}}),
		b2.Block(dsl.BlockConfig{Pages: []*domain.Page{dsl.Clone(b2, p2)}}),
	}})
	require.NoError(t, b2.Err())
	assert.NoError(t, validator.Validate(exp2))
}

func TestValidate_TagAlignment(t *testing.T) {
	t.Run("pages", func(t *testing.T) {
		b := newBuilder(t)
		p1 := b.Page(dsl.PageConfig{Text: "1", Tags: []string{"a", "b"}})
		p2 := b.Page(dsl.PageConfig{Text: "2", Tags: []string{"a"}})
		se := requireStructural(t, validator.Validate(experimentOf(b, p1, p2)))
		assert.Equal(t, domain.KindPage, se.Kind)
		assert.Equal(t, p2.ID, se.ID)
		assert.Equal(t, "tags", se.Field)
	})

	t.Run("options across pages", func(t *testing.T) {
		b := newBuilder(t)
		p1 := b.Page(dsl.PageConfig{Text: "1", Options: []*domain.Option{b.Option(dsl.OptionConfig{Text: "a", Tags: []string{"x"}})}})
		bad := b.Option(dsl.OptionConfig{Text: "b"})
		p2 := b.Page(dsl.PageConfig{Text: "2", Options: []*domain.Option{bad}})
		se := requireStructural(t, validator.Validate(experimentOf(b, p1, p2)))
		assert.Equal(t, domain.KindOption, se.Kind)
		assert.Equal(t, bad.ID, se.ID)
	})

	t.Run("feedback pages are exempt", func(t *testing.T) {
		b := newBuilder(t)
		fb := b.Page(dsl.PageConfig{Text: "fb"})
		p := b.Page(dsl.PageConfig{Text: "1", Tags: []string{"a"}, Feedback: dsl.FeedbackPage(fb)})
		assert.NoError(t, validator.Validate(experimentOf(b, p)))
	})

	t.Run("groups and items count", func(t *testing.T) {
		b := newBuilder(t)
		g := b.Page(dsl.PageConfig{Text: "g", Tags: []string{"a"}})
		ip := b.Page(dsl.PageConfig{Text: "i"})
		exp := b.Experiment(dsl.ExperimentConfig{Blocks: []*domain.Block{
			b.Block(dsl.BlockConfig{Groups: [][]*domain.Page{{g}}}),
			b.Block(dsl.BlockConfig{Items: []*domain.Item{b.Item(dsl.ItemConfig{Pages: []*domain.Page{ip}})}}),
		}})
		se := requireStructural(t, validator.Validate(exp))
		assert.Equal(t, ip.ID, se.ID)
	})
}

func TestValidate_RunIfReferences(t *testing.T) {
	b := newBuilder(t)
	o := b.Option(dsl.OptionConfig{Text: "o"})
	q := b.Page(dsl.PageConfig{Text: "q", Options: []*domain.Option{o}})
	other := b.Option(dsl.OptionConfig{Text: "other"})
	elsewhere := b.Page(dsl.PageConfig{Text: "elsewhere", Options: []*domain.Option{other}})

	t.Run("missing page", func(t *testing.T) {
		ghost := b.Page(dsl.PageConfig{Text: "ghost"})
		guarded := b.Page(dsl.PageConfig{Text: "g", RunIf: dsl.RunIfMatched(ghost, "x")})
		se := requireStructural(t, validator.Validate(experimentOf(b, q, guarded)))
		assert.Equal(t, guarded.ID, se.ID)
		assert.Equal(t, "runIf", se.Field)
	})

	t.Run("option of another page", func(t *testing.T) {
		guarded := b.Page(dsl.PageConfig{Text: "g", RunIf: &domain.RunCondition{PageID: q.ID, OptionID: other.ID}})
		se := requireStructural(t, validator.Validate(experimentOf(b, q, elsewhere, guarded)))
		assert.Contains(t, se.Reason, "not an option of page")
	})

	t.Run("block guard", func(t *testing.T) {
		blk := b.Block(dsl.BlockConfig{Pages: []*domain.Page{}, RunIf: dsl.RunIfSelected(elsewhere, other)})
		exp := b.Experiment(dsl.ExperimentConfig{Blocks: []*domain.Block{b.Block(dsl.BlockConfig{Pages: []*domain.Page{q}}), blk}})
		se := requireStructural(t, validator.Validate(exp))
		assert.Equal(t, domain.KindBlock, se.Kind)
	})

	t.Run("self reference", func(t *testing.T) {
		self := b.Page(dsl.PageConfig{Text: "self"})
		self.RunIf = dsl.RunIfMatched(self, ".*")
		se := requireStructural(t, validator.Validate(experimentOf(b, self)))
		assert.Equal(t, self.ID, se.ID)
	})
}

func TestValidate_FeedbackInsideGroups(t *testing.T) {
	b := newBuilder(t)
	opt := b.Option(dsl.OptionConfig{Text: "o", Feedback: dsl.FeedbackText("nice")})
	g := b.Page(dsl.PageConfig{Text: "g", Options: []*domain.Option{opt}})
	exp := b.Experiment(dsl.ExperimentConfig{Blocks: []*domain.Block{b.Block(dsl.BlockConfig{Groups: [][]*domain.Page{{g}}})}})

	se := requireStructural(t, validator.Validate(exp))
	assert.Equal(t, g.ID, se.ID)
	assert.Equal(t, "feedback", se.Field)
}

func TestValidate_NestedEntityRules(t *testing.T) {
	b := newBuilder(t)
	sample := &domain.SampleDirective{Bank: "b", Variable: dsl.Ptr(0), NotVariable: dsl.Ptr(1)}
	p := b.Page(dsl.PageConfig{Text: "p", Options: []*domain.Option{b.Option(dsl.OptionConfig{TextSample: sample})}})

	se := requireStructural(t, validator.Validate(experimentOf(b, p)))
	assert.Equal(t, domain.KindSample, se.Kind)
}

func TestValidate_ExperimentTreatments(t *testing.T) {
	b := newBuilder(t)
	x := b.Block(dsl.BlockConfig{Pages: []*domain.Page{}})
	y := b.Block(dsl.BlockConfig{Pages: []*domain.Page{}})
	stranger := b.Block(dsl.BlockConfig{Pages: []*domain.Page{}})

	ok := b.Experiment(dsl.ExperimentConfig{Blocks: []*domain.Block{x, y}, Treatments: [][]*domain.Block{{x}, {y}}, Exchangeable: []*domain.Block{x, y}})
	assert.NoError(t, validator.Validate(ok))

	bad := b.Experiment(dsl.ExperimentConfig{Blocks: []*domain.Block{x, y}, Exchangeable: []*domain.Block{stranger}})
	se := requireStructural(t, validator.Validate(bad))
	assert.Equal(t, domain.KindExperiment, se.Kind)
}

func TestValidate_DoesNotMutate(t *testing.T) {
	b := newBuilder(t)
	p := b.Page(dsl.PageConfig{Text: "free", FreeText: true})
	exp := experimentOf(b, p)

	require.NoError(t, validator.Validate(exp))
	require.NoError(t, validator.Validate(exp))
	assert.Nil(t, p.Options)
}
