package document

import (
	"fmt"
	"path/filepath"
	"unicode/utf8"

	"github.com/aretw0/speriment/pkg/adapters/table"
	"github.com/aretw0/speriment/pkg/domain"
	"github.com/aretw0/speriment/pkg/dsl"
)

// pageRef is a keyed page and its keyed options, the targets of run_if.
type pageRef struct {
	page    *domain.Page
	options map[string]*domain.Option
}

// guard is a run_if whose references are resolved once the whole tree exists,
// so documents may point forward.
type guard struct {
	def *runIfDef
	set func(*domain.RunCondition)
}

type treeBuilder struct {
	b        *dsl.Builder
	dir      string
	noTables bool
	pages  map[string]*pageRef
	blocks map[string]bool
	guards []guard
}

// Build constructs the experiment with b. Identifiers come from b's session in
// document order, children before their parents.
func (d *Document) Build(b *dsl.Builder) (*domain.Experiment, error) {
	t := &treeBuilder{
		b:        b,
		dir:      d.dir,
		noTables: d.noTables,
		pages:    make(map[string]*pageRef),
		blocks:   make(map[string]bool),
	}
	exp, err := t.experiment(&d.root)
	if err != nil {
		return nil, err
	}
	if err := b.Err(); err != nil {
		return nil, err
	}
	for _, g := range t.guards {
		rc, err := t.resolve(g.def)
		if err != nil {
			return nil, err
		}
		g.set(rc)
	}
	return exp, nil
}

func (t *treeBuilder) experiment(def *experimentDef) (*domain.Experiment, error) {
	blocks, keys, err := t.blockList(def.Blocks)
	if err != nil {
		return nil, err
	}
	cfg := dsl.ExperimentConfig{ID: def.ID, Blocks: blocks}
	if cfg.Exchangeable, err = pick(domain.KindExperiment, "exchangeable", keys, def.Exchangeable); err != nil {
		return nil, err
	}
	if cfg.Treatments, err = pickGroups(domain.KindExperiment, keys, def.Treatments); err != nil {
		return nil, err
	}
	if cfg.Banks, err = t.banks(domain.KindExperiment, def.Banks); err != nil {
		return nil, err
	}
	return t.b.Experiment(cfg), nil
}

// blockList builds sibling blocks and indexes them by key for exchangeable and treatments.
func (t *treeBuilder) blockList(defs []blockDef) ([]*domain.Block, map[string]*domain.Block, error) {
	if defs == nil {
		return nil, nil, nil
	}
	blocks := make([]*domain.Block, 0, len(defs))
	keys := make(map[string]*domain.Block)
	for i := range defs {
		blk, err := t.block(&defs[i])
		if err != nil {
			return nil, nil, err
		}
		if k := defs[i].Key; k != "" {
			if t.blocks[k] {
				return nil, nil, domain.Structuralf(domain.KindBlock, "", "key", "duplicate key %q", k)
			}
			t.blocks[k] = true
			keys[k] = blk
		}
		blocks = append(blocks, blk)
	}
	return blocks, keys, nil
}

func (t *treeBuilder) block(def *blockDef) (*domain.Block, error) {
	cfg := dsl.BlockConfig{
		ID:           def.ID,
		LatinSquare:  def.LatinSquare,
		Pseudorandom: def.Pseudorandom,
		Cutoff:       def.Cutoff,
	}

	var keys map[string]*domain.Block
	var err error
	if def.Pages != nil {
		if cfg.Pages, err = t.pageList(def.Pages); err != nil {
			return nil, err
		}
	}
	if def.Groups != nil {
		cfg.Groups = make([][]*domain.Page, 0, len(def.Groups))
		for _, g := range def.Groups {
			pages, err := t.pageList(g)
			if err != nil {
				return nil, err
			}
			cfg.Groups = append(cfg.Groups, pages)
		}
	}
	if def.Blocks != nil {
		if cfg.Blocks, keys, err = t.blockList(def.Blocks); err != nil {
			return nil, err
		}
	}
	if def.Items != nil {
		cfg.Items = make([]*domain.Item, 0, len(def.Items))
		for i := range def.Items {
			it := &def.Items[i]
			pages, err := t.pageList(it.Pages)
			if err != nil {
				return nil, err
			}
			cfg.Items = append(cfg.Items, t.b.Item(dsl.ItemConfig{ID: it.ID, Pages: pages, Condition: it.Condition, Tags: it.Tags}))
		}
	}

	if cfg.Exchangeable, err = pick(domain.KindBlock, "exchangeable", keys, def.Exchangeable); err != nil {
		return nil, err
	}
	if cfg.Treatments, err = pickGroups(domain.KindBlock, keys, def.Treatments); err != nil {
		return nil, err
	}
	if cfg.Banks, err = t.banks(domain.KindBlock, def.Banks); err != nil {
		return nil, err
	}
	if def.Criterion != nil {
		if cfg.Criterion, err = criterion(def.Criterion); err != nil {
			return nil, err
		}
	}

	blk := t.b.Block(cfg)
	if def.RunIf != nil {
		t.guards = append(t.guards, guard{def: def.RunIf, set: func(rc *domain.RunCondition) { blk.RunIf = rc }})
	}
	return blk, nil
}

func (t *treeBuilder) pageList(defs []pageDef) ([]*domain.Page, error) {
	pages := make([]*domain.Page, 0, len(defs))
	for i := range defs {
		p, err := t.page(&defs[i])
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, nil
}

func (t *treeBuilder) page(def *pageDef) (*domain.Page, error) {
	ref := &pageRef{options: make(map[string]*domain.Option)}
	cfg := dsl.PageConfig{
		ID:        def.ID,
		Tags:      def.Tags,
		Condition: def.Condition,
		Ordered:   def.Ordered,
		Exclusive: def.Exclusive,
		FreeText:  def.FreeText,
	}

	var err error
	if cfg.Text, cfg.TextSample, err = text(domain.KindPage, def.Text); err != nil {
		return nil, err
	}
	if def.Options != nil {
		cfg.Options = make([]*domain.Option, 0, len(def.Options))
		for i := range def.Options {
			od := &def.Options[i]
			o, err := t.option(od)
			if err != nil {
				return nil, err
			}
			if od.Key != "" {
				if _, dup := ref.options[od.Key]; dup {
					return nil, domain.Structuralf(domain.KindOption, "", "key", "duplicate key %q on page %q", od.Key, def.Key)
				}
				ref.options[od.Key] = o
			}
			cfg.Options = append(cfg.Options, o)
		}
	}
	if cfg.Resources, err = media(def.Resources); err != nil {
		return nil, err
	}
	if cfg.Feedback, err = t.feedback(def.Feedback); err != nil {
		return nil, err
	}
	if cfg.Correct, err = pageCorrect(def.Correct, ref.options); err != nil {
		return nil, err
	}

	p := t.b.Page(cfg)
	ref.page = p
	if def.Key != "" {
		if _, dup := t.pages[def.Key]; dup {
			return nil, domain.Structuralf(domain.KindPage, "", "key", "duplicate key %q", def.Key)
		}
		t.pages[def.Key] = ref
	}
	if def.RunIf != nil {
		t.guards = append(t.guards, guard{def: def.RunIf, set: func(rc *domain.RunCondition) { p.RunIf = rc }})
	}
	return p, nil
}

func (t *treeBuilder) option(def *optionDef) (*domain.Option, error) {
	cfg := dsl.OptionConfig{ID: def.ID, Tags: def.Tags}

	var err error
	if cfg.Text, cfg.TextSample, err = text(domain.KindOption, def.Text); err != nil {
		return nil, err
	}
	if cfg.Resources, err = media(def.Resources); err != nil {
		return nil, err
	}
	if cfg.Feedback, err = t.feedback(def.Feedback); err != nil {
		return nil, err
	}
	switch c := def.Correct.(type) {
	case nil:
	case bool:
		cfg.Correct = dsl.Correct(c)
	case string:
		cfg.Correct = dsl.Matches(c)
	default:
		return nil, fmt.Errorf("option field \"correct\" must be a boolean or a pattern, got %s", describe(c))
	}
	return t.b.Option(cfg), nil
}

func (t *treeBuilder) feedback(v any) (*domain.Feedback, error) {
	switch f := v.(type) {
	case nil:
		return nil, nil
	case string:
		return dsl.FeedbackText(f), nil
	case map[string]any:
		var def pageDef
		if err := decode(f, &def); err != nil {
			return nil, fmt.Errorf("failed to decode feedback page: %w", err)
		}
		p, err := t.page(&def)
		if err != nil {
			return nil, err
		}
		return dsl.FeedbackPage(p), nil
	default:
		return nil, fmt.Errorf("field \"feedback\" must be text or a page, got %s", describe(f))
	}
}

func (t *treeBuilder) resolve(def *runIfDef) (*domain.RunCondition, error) {
	ref, ok := t.pages[def.Page]
	if !ok {
		return nil, domain.Structuralf(domain.KindRunIf, "", "page", "unknown page key %q", def.Page)
	}
	if def.Option == "" {
		return dsl.RunIfMatched(ref.page, def.Regex), nil
	}
	o, ok := ref.options[def.Option]
	if !ok {
		return nil, domain.Structuralf(domain.KindRunIf, "", "option", "page %q has no option with key %q", def.Page, def.Option)
	}
	rc := dsl.RunIfSelected(ref.page, o)
	rc.Regex = def.Regex
	return rc, nil
}

func (t *treeBuilder) banks(kind domain.Kind, defs map[string]any) (map[string][]string, error) {
	if defs == nil {
		return nil, nil
	}
	banks := make(map[string][]string, len(defs))
	for name, v := range defs {
		switch bank := v.(type) {
		case []any:
			values := make([]string, len(bank))
			for i, el := range bank {
				values[i] = fmt.Sprint(el)
			}
			banks[name] = values
		case map[string]any:
			var def tableBankDef
			if err := decode(bank, &def); err != nil {
				return nil, fmt.Errorf("bank %q: %w", name, err)
			}
			values, err := t.tableBank(&def)
			if err != nil {
				return nil, fmt.Errorf("bank %q: %w", name, err)
			}
			banks[name] = values
		default:
			return nil, &domain.ContainerTypeError{Kind: kind, Field: "banks." + name, Got: describe(v)}
		}
	}
	return banks, nil
}

func (t *treeBuilder) tableBank(def *tableBankDef) ([]string, error) {
	if t.noTables {
		return nil, ErrTablesDisabled
	}
	if def.Table == "" || def.Column == "" {
		return nil, fmt.Errorf("a table bank needs both table and column")
	}
	path := def.Table
	if !filepath.IsAbs(path) {
		path = filepath.Join(t.dir, path)
	}
	var opts []table.Option
	if def.Separator != "" {
		sep, size := utf8.DecodeRuneInString(def.Separator)
		if size != len(def.Separator) {
			return nil, fmt.Errorf("separator must be a single character, got %q", def.Separator)
		}
		opts = append(opts, table.WithSeparator(sep))
	}
	return table.Column(path, def.Column, opts...)
}

func text(kind domain.Kind, v any) (string, *domain.SampleDirective, error) {
	switch tv := v.(type) {
	case nil:
		return "", nil, nil
	case string:
		return tv, nil, nil
	case map[string]any:
		s, err := sample(tv)
		return "", s, err
	case int, float64, bool:
		return fmt.Sprint(tv), nil, nil
	default:
		return "", nil, fmt.Errorf("%s field \"text\" must be text or a sample, got %s", kind, describe(v))
	}
}

func sample(m map[string]any) (*domain.SampleDirective, error) {
	var def sampleDef
	if err := decode(m, &def); err != nil {
		return nil, fmt.Errorf("failed to decode sample: %w", err)
	}
	return &domain.SampleDirective{Bank: def.SampleFrom, Variable: def.Variable, NotVariable: def.NotVariable}, nil
}

func media(entries []any) ([]domain.Media, error) {
	if entries == nil {
		return nil, nil
	}
	out := make([]domain.Media, 0, len(entries))
	for _, e := range entries {
		switch m := e.(type) {
		case string:
			out = append(out, dsl.Source(m))
		case map[string]any:
			if _, ok := m["sample_from"]; ok {
				s, err := sample(m)
				if err != nil {
					return nil, err
				}
				out = append(out, s)
				continue
			}
			var def resourceDef
			if err := decode(m, &def); err != nil {
				return nil, fmt.Errorf("failed to decode resource: %w", err)
			}
			out = append(out, &domain.Resource{
				Source:    def.Source,
				MediaType: def.MediaType,
				Controls:  def.Controls,
				Autoplay:  def.Autoplay,
				Required:  def.Required,
			})
		default:
			return nil, fmt.Errorf("resource must be a source, a resource or a sample, got %s", describe(e))
		}
	}
	return out, nil
}

func pageCorrect(v any, options map[string]*domain.Option) (*domain.Correctness, error) {
	switch c := v.(type) {
	case nil:
		return nil, nil
	case string:
		return dsl.Matches(c), nil
	case bool:
		return dsl.Correct(c), nil
	case map[string]any:
		var def correctOptionDef
		if err := decode(c, &def); err != nil {
			return nil, fmt.Errorf("failed to decode correct option: %w", err)
		}
		o, ok := options[def.Option]
		if !ok {
			return nil, domain.Structuralf(domain.KindPage, "", "correct", "no option with key %q", def.Option)
		}
		return dsl.CorrectOption(o), nil
	default:
		return nil, fmt.Errorf("page field \"correct\" must be a pattern or {option: key}, got %s", describe(c))
	}
}

func criterion(v any) (*domain.Criterion, error) {
	switch c := v.(type) {
	case int:
		return dsl.Streak(c), nil
	case float64:
		return dsl.Accuracy(c), nil
	default:
		return nil, fmt.Errorf("block field \"criterion\" must be a number, got %s", describe(v))
	}
}

// pick resolves keys against sibling blocks.
func pick(kind domain.Kind, field string, siblings map[string]*domain.Block, keys []string) ([]*domain.Block, error) {
	if keys == nil {
		return nil, nil
	}
	out := make([]*domain.Block, 0, len(keys))
	for _, k := range keys {
		blk, ok := siblings[k]
		if !ok {
			return nil, domain.Structuralf(kind, "", field, "%q is not the key of a sub-block", k)
		}
		out = append(out, blk)
	}
	return out, nil
}

func pickGroups(kind domain.Kind, siblings map[string]*domain.Block, groups [][]string) ([][]*domain.Block, error) {
	if groups == nil {
		return nil, nil
	}
	out := make([][]*domain.Block, 0, len(groups))
	for _, g := range groups {
		blocks, err := pick(kind, "treatments", siblings, g)
		if err != nil {
			return nil, err
		}
		out = append(out, blocks)
	}
	return out, nil
}
