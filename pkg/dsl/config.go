package dsl

import "github.com/aretw0/speriment/pkg/domain"

// OptionConfig describes an Option. Leave ID empty to have one allocated.
type OptionConfig struct {
	ID         string
	Text       string
	TextSample *domain.SampleDirective
	Correct    *domain.Correctness
	Feedback   *domain.Feedback
	Tags       []string
	Resources  []domain.Media
}

// PageConfig describes a Page.
type PageConfig struct {
	ID         string
	Text       string
	TextSample *domain.SampleDirective
	Options    []*domain.Option
	Resources  []domain.Media
	Feedback   *domain.Feedback
	// Correct names the correct option (see CorrectOption) or, on a free-text page,
	// the pattern a correct answer matches.
	Correct   *domain.Correctness
	Tags      []string
	Condition string
	Ordered   bool
	Exclusive bool
	FreeText  bool
	RunIf     *domain.RunCondition
}

// ItemConfig describes an Item.
type ItemConfig struct {
	ID        string
	Pages     []*domain.Page
	Condition string
	Tags      []string
}

// BlockConfig describes a Block. Set exactly one of Pages, Groups, Blocks and Items.
// Exchangeable and Treatments reference members of Blocks.
type BlockConfig struct {
	ID     string
	Pages  []*domain.Page
	Groups [][]*domain.Page
	Blocks []*domain.Block
	Items  []*domain.Item

	Exchangeable []*domain.Block
	Treatments   [][]*domain.Block
	LatinSquare  *bool
	Pseudorandom bool
	Criterion    *domain.Criterion
	Cutoff       int
	Banks        map[string][]string
	RunIf        *domain.RunCondition
}

// ExperimentConfig describes the root of the tree.
type ExperimentConfig struct {
	ID           string
	Blocks       []*domain.Block
	Exchangeable []*domain.Block
	Treatments   [][]*domain.Block
	Banks        map[string][]string
}
