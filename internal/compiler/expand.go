package compiler

import (
	"fmt"

	"github.com/aretw0/speriment/pkg/domain"
)

// Expand returns the expanded form of exp. The experiment itself is left untouched;
// expansion works on a copy that keeps every identifier. ids supplies identifiers
// for synthesized pages and options, so it must be the session that built exp.
//
// exp is expected to have passed validation.
func Expand(exp *domain.Experiment, ids domain.IDSource) (*domain.Experiment, error) {
	out := domain.Copy(exp)
	x := &expander{ids: ids}

	if err := x.treatments(out.Blocks, out.Treatments); err != nil {
		return nil, err
	}
	for _, b := range out.Blocks {
		if err := x.block(b); err != nil {
			return nil, err
		}
	}

	var err error
	domain.Walk(out, func(c domain.Component) bool {
		if err != nil {
			return false
		}
		switch v := c.(type) {
		case *domain.Page:
			err = x.page(v)
		case *domain.Option:
			normalizeMedia(v.TextSample, v.Resources)
		}
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type expander struct {
	ids domain.IDSource
}

func (x *expander) next(what string) (string, error) {
	if x.ids == nil {
		return "", &domain.NoActiveSessionError{Op: what}
	}
	id, err := x.ids.Next()
	if err != nil {
		return "", fmt.Errorf("%s: %w", what, err)
	}
	return id, nil
}

func (x *expander) block(b *domain.Block) error {
	var err error
	if b.Pages != nil {
		if b.Pages, err = x.feedback(b.Pages); err != nil {
			return err
		}
	}
	for _, it := range b.Items {
		for _, p := range it.Pages {
			if p.Condition == "" {
				p.Condition = it.Condition
			}
		}
		if it.Pages, err = x.feedback(it.Pages); err != nil {
			return err
		}
	}
	if err := x.treatments(b.Blocks, b.Treatments); err != nil {
		return err
	}
	for _, sub := range b.Blocks {
		if err := x.block(sub); err != nil {
			return err
		}
	}
	if b.Criterion != nil {
		return checkStreak(b)
	}
	return nil
}

// feedback inserts the feedback pages of each page right after it: one guarded
// page per option with feedback, in option order, then the page's own feedback.
// Synthesized pages are not expanded again.
func (x *expander) feedback(pages []*domain.Page) ([]*domain.Page, error) {
	out := make([]*domain.Page, 0, len(pages))
	for _, p := range pages {
		out = append(out, p)
		for _, o := range p.Options {
			if o.Feedback == nil {
				continue
			}
			fb, err := x.feedbackPage(o.Feedback, "option feedback")
			if err != nil {
				return nil, err
			}
			if fb.RunIf != nil {
				return nil, domain.Structuralf(domain.KindPage, fb.ID, "runIf", "feedback page of option %s already has a run condition", o.ID)
			}
			fb.RunIf = &domain.RunCondition{PageID: p.ID, OptionID: o.ID}
			o.Feedback = nil
			out = append(out, fb)
		}
		if p.Feedback != nil {
			fb, err := x.feedbackPage(p.Feedback, "page feedback")
			if err != nil {
				return nil, err
			}
			p.Feedback = nil
			out = append(out, fb)
		}
	}
	return out, nil
}

func (x *expander) feedbackPage(f *domain.Feedback, what string) (*domain.Page, error) {
	if p := f.Page; p != nil {
		if p.Feedback != nil {
			return nil, domain.Structuralf(domain.KindPage, p.ID, "feedback", "a feedback page cannot carry feedback of its own")
		}
		for _, o := range p.Options {
			if o.Feedback != nil {
				return nil, domain.Structuralf(domain.KindOption, o.ID, "feedback", "option of feedback page %s cannot carry feedback", p.ID)
			}
		}
		return p, nil
	}
	id, err := x.next(what)
	if err != nil {
		return nil, err
	}
	return &domain.Page{ID: id, Text: f.Text}, nil
}

// treatments guards every member of treatment k with permutation k.
func (x *expander) treatments(subs []*domain.Block, treatments [][]string) error {
	if len(treatments) == 0 {
		return nil
	}
	byID := make(map[string]*domain.Block, len(subs))
	for _, sub := range subs {
		byID[sub.ID] = sub
	}
	for k, group := range treatments {
		for _, id := range group {
			sub, ok := byID[id]
			if !ok {
				return domain.Structuralf(domain.KindBlock, id, "treatments", "not an immediate sub-block")
			}
			if sub.RunIf != nil {
				return domain.Structuralf(domain.KindBlock, id, "runIf", "a block in a treatment cannot also carry its own run condition")
			}
			perm := k
			sub.RunIf = &domain.RunCondition{Permutation: &perm}
		}
	}
	return nil
}

// page fills in what the runtime expects every page to have.
func (x *expander) page(p *domain.Page) error {
	if p.FreeText && len(p.Options) == 0 {
		id, err := x.next("text box option")
		if err != nil {
			return err
		}
		p.Options = []*domain.Option{{ID: id}}
	}
	normalizeMedia(p.TextSample, p.Resources)
	return nil
}

func normalizeMedia(text *domain.SampleDirective, resources []domain.Media) {
	normalizeSample(text)
	for _, m := range resources {
		switch v := m.(type) {
		case *domain.Resource:
			if v.Controls == nil {
				on := true
				v.Controls = &on
			}
		case *domain.SampleDirective:
			normalizeSample(v)
		}
	}
}

func normalizeSample(s *domain.SampleDirective) {
	if s != nil && s.Variable == nil && s.NotVariable == nil {
		zero := 0
		s.Variable = &zero
	}
}

// checkStreak bounds a streak criterion by the pages b can score once expanded,
// feedback pages included.
func checkStreak(b *domain.Block) error {
	c := b.Criterion
	if c.Streak == 0 {
		return nil
	}
	if n := scorable(b); c.Streak > n {
		return domain.Structuralf(domain.KindBlock, b.ID, "criterion", "a streak of %d needs at least as many scorable pages, the block has %d", c.Streak, n)
	}
	return nil
}

// scorable counts the gradable pages a participant sees in one pass of b.
// A group counts once, since only one of its pages is shown.
func scorable(b *domain.Block) int {
	n := 0
	for _, p := range b.Pages {
		if p.Scorable() {
			n++
		}
	}
	for _, g := range b.Groups {
		for _, p := range g {
			if p.Scorable() {
				n++
				break
			}
		}
	}
	for _, it := range b.Items {
		for _, p := range it.Pages {
			if p.Scorable() {
				n++
			}
		}
	}
	for _, sub := range b.Blocks {
		n += scorable(sub)
	}
	return n
}
