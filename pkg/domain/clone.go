package domain

import (
	"fmt"
	"maps"
	"slices"
)

// IDSource hands out fresh identifiers. *session.Session implements it.
type IDSource interface {
	Next() (string, error)
}

// Clone returns a deep copy of c in which c and every component it owns get fresh
// identifiers from ids. References inside the copy (exchangeable and treatment ids,
// run conditions) that pointed at cloned components are rewired to the new ids;
// references to components outside c are kept.
func Clone[T Component](c T, ids IDSource) (T, error) {
	cp := &copier{
		next:  ids.Next,
		remap: make(map[string]string),
	}
	out, err := cp.component(c)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("clone %s %s: %w", c.Kind(), c.Identify(), err)
	}
	cp.rewire(out)
	return out.(T), nil
}

// Copy returns a deep copy of c that keeps every identifier.
func Copy[T Component](c T) T {
	cp := &copier{}
	out, _ := cp.component(c) // cannot fail without an id source
	return out.(T)
}

type copier struct {
	next  func() (string, error) // nil keeps ids
	remap map[string]string
}

func (c *copier) id(old string) (string, error) {
	if c.next == nil {
		return old, nil
	}
	fresh, err := c.next()
	if err != nil {
		return "", err
	}
	if old != "" {
		c.remap[old] = fresh
	}
	return fresh, nil
}

func (c *copier) component(x Component) (Component, error) {
	switch v := x.(type) {
	case *Option:
		return c.option(v)
	case *Page:
		return c.page(v)
	case *Item:
		return c.item(v)
	case *Block:
		return c.block(v)
	case *Experiment:
		return c.experiment(v)
	default:
		return nil, fmt.Errorf("unknown component %T", x)
	}
}

func (c *copier) option(o *Option) (*Option, error) {
	if o == nil {
		return nil, nil
	}
	id, err := c.id(o.ID)
	if err != nil {
		return nil, err
	}
	out := &Option{
		ID:         id,
		Text:       o.Text,
		TextSample: copySample(o.TextSample),
		Correct:    copyCorrectness(o.Correct),
		Tags:       slices.Clone(o.Tags),
		Resources:  copyMedia(o.Resources),
	}
	if out.Feedback, err = c.feedback(o.Feedback); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *copier) page(p *Page) (*Page, error) {
	if p == nil {
		return nil, nil
	}
	id, err := c.id(p.ID)
	if err != nil {
		return nil, err
	}
	out := &Page{
		ID:         id,
		Text:       p.Text,
		TextSample: copySample(p.TextSample),
		Resources:  copyMedia(p.Resources),
		Correct:    copyCorrectness(p.Correct),
		Tags:       slices.Clone(p.Tags),
		Condition:  p.Condition,
		Ordered:    p.Ordered,
		Exclusive:  p.Exclusive,
		FreeText:   p.FreeText,
		RunIf:      copyRunIf(p.RunIf),
	}
	if p.Options != nil {
		out.Options = make([]*Option, len(p.Options))
		for i, o := range p.Options {
			if out.Options[i], err = c.option(o); err != nil {
				return nil, err
			}
		}
	}
	if out.Feedback, err = c.feedback(p.Feedback); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *copier) feedback(f *Feedback) (*Feedback, error) {
	if f == nil {
		return nil, nil
	}
	page, err := c.page(f.Page)
	if err != nil {
		return nil, err
	}
	return &Feedback{Text: f.Text, Page: page}, nil
}

func (c *copier) pages(in []*Page) ([]*Page, error) {
	if in == nil {
		return nil, nil
	}
	out := make([]*Page, len(in))
	for i, p := range in {
		var err error
		if out[i], err = c.page(p); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (c *copier) item(it *Item) (*Item, error) {
	if it == nil {
		return nil, nil
	}
	id, err := c.id(it.ID)
	if err != nil {
		return nil, err
	}
	pages, err := c.pages(it.Pages)
	if err != nil {
		return nil, err
	}
	return &Item{ID: id, Pages: pages, Condition: it.Condition, Tags: slices.Clone(it.Tags)}, nil
}

func (c *copier) block(b *Block) (*Block, error) {
	if b == nil {
		return nil, nil
	}
	id, err := c.id(b.ID)
	if err != nil {
		return nil, err
	}
	out := &Block{
		ID:           id,
		Exchangeable: slices.Clone(b.Exchangeable),
		Treatments:   copyTreatments(b.Treatments),
		LatinSquare:  copyPtr(b.LatinSquare),
		Pseudorandom: b.Pseudorandom,
		Criterion:    copyPtr(b.Criterion),
		Cutoff:       b.Cutoff,
		Banks:        copyBanks(b.Banks),
		RunIf:        copyRunIf(b.RunIf),
	}
	if out.Pages, err = c.pages(b.Pages); err != nil {
		return nil, err
	}
	if b.Groups != nil {
		out.Groups = make([][]*Page, len(b.Groups))
		for i, g := range b.Groups {
			if out.Groups[i], err = c.pages(g); err != nil {
				return nil, err
			}
		}
	}
	if b.Blocks != nil {
		out.Blocks = make([]*Block, len(b.Blocks))
		for i, sub := range b.Blocks {
			if out.Blocks[i], err = c.block(sub); err != nil {
				return nil, err
			}
		}
	}
	if b.Items != nil {
		out.Items = make([]*Item, len(b.Items))
		for i, it := range b.Items {
			if out.Items[i], err = c.item(it); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func (c *copier) experiment(e *Experiment) (*Experiment, error) {
	if e == nil {
		return nil, nil
	}
	id, err := c.id(e.ID)
	if err != nil {
		return nil, err
	}
	out := &Experiment{
		ID:           id,
		Exchangeable: slices.Clone(e.Exchangeable),
		Treatments:   copyTreatments(e.Treatments),
		Banks:        copyBanks(e.Banks),
	}
	if e.Blocks != nil {
		out.Blocks = make([]*Block, len(e.Blocks))
		for i, b := range e.Blocks {
			if out.Blocks[i], err = c.block(b); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// rewire points references inside a clone at the clone's own ids.
func (c *copier) rewire(root Component) {
	if len(c.remap) == 0 {
		return
	}
	ref := func(id string) string {
		if fresh, ok := c.remap[id]; ok {
			return fresh
		}
		return id
	}
	refs := func(ids []string) {
		for i := range ids {
			ids[i] = ref(ids[i])
		}
	}
	guard := func(r *RunCondition) {
		if r == nil {
			return
		}
		if r.PageID != "" {
			r.PageID = ref(r.PageID)
		}
		if r.OptionID != "" {
			r.OptionID = ref(r.OptionID)
		}
	}
	Walk(root, func(x Component) bool {
		switch v := x.(type) {
		case *Page:
			guard(v.RunIf)
			if v.Correct.IsPattern() && !v.FreeText {
				// Choice pages name their correct option by id.
				*v.Correct.Pattern = ref(*v.Correct.Pattern)
			}
		case *Block:
			guard(v.RunIf)
			refs(v.Exchangeable)
			for _, g := range v.Treatments {
				refs(g)
			}
		case *Experiment:
			refs(v.Exchangeable)
			for _, g := range v.Treatments {
				refs(g)
			}
		}
		return true
	})
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copySample(s *SampleDirective) *SampleDirective {
	if s == nil {
		return nil
	}
	return &SampleDirective{Bank: s.Bank, Variable: copyPtr(s.Variable), NotVariable: copyPtr(s.NotVariable)}
}

func copyCorrectness(c *Correctness) *Correctness {
	if c == nil {
		return nil
	}
	return &Correctness{Bool: copyPtr(c.Bool), Pattern: copyPtr(c.Pattern)}
}

func copyRunIf(r *RunCondition) *RunCondition {
	if r == nil {
		return nil
	}
	out := *r
	out.Permutation = copyPtr(r.Permutation)
	return &out
}

func copyMedia(in []Media) []Media {
	if in == nil {
		return nil
	}
	out := make([]Media, len(in))
	for i, m := range in {
		switch v := m.(type) {
		case *Resource:
			r := *v
			r.Controls = copyPtr(v.Controls)
			out[i] = &r
		case *SampleDirective:
			out[i] = copySample(v)
		default:
			out[i] = m
		}
	}
	return out
}

func copyTreatments(in [][]string) [][]string {
	if in == nil {
		return nil
	}
	out := make([][]string, len(in))
	for i, g := range in {
		out[i] = slices.Clone(g)
	}
	return out
}

func copyBanks(in map[string][]string) map[string][]string {
	if in == nil {
		return nil
	}
	out := maps.Clone(in)
	for k, v := range out {
		out[k] = slices.Clone(v)
	}
	return out
}
