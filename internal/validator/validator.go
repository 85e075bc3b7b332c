package validator

import (
	"github.com/aretw0/speriment/pkg/domain"
)

// Validate checks the whole experiment and returns the first violated rule as a
// *domain.StructuralError. Components are visited depth first in declared order,
// so the reported violation is deterministic. Validate never modifies the tree.
func Validate(exp *domain.Experiment) error {
	if exp == nil {
		return domain.Structuralf(domain.KindExperiment, "", "", "experiment is nil")
	}
	v := &treeValidator{
		seen:    make(map[string]domain.Kind),
		pages:   make(map[string]*domain.Page),
		options: make(map[string]string),
	}
	if err := v.entities(exp); err != nil {
		return err
	}
	if err := v.tags(exp); err != nil {
		return err
	}
	return v.references(exp)
}

type treeValidator struct {
	seen    map[string]domain.Kind
	pages   map[string]*domain.Page
	options map[string]string // option id -> page id
}

// entities runs the entity-local checks and the rules that need the parent:
// identifier uniqueness and feedback inside groups.
func (v *treeValidator) entities(exp *domain.Experiment) error {
	var err error
	domain.Walk(exp, func(c domain.Component) bool {
		if err != nil {
			return false
		}
		id := c.Identify()
		if id == "" {
			err = domain.Structuralf(c.Kind(), "", "id", "component has no identifier")
			return false
		}
		if prev, dup := v.seen[id]; dup {
			err = domain.Structuralf(c.Kind(), id, "id", "identifier already used by a %s; use Clone to place a copy of a component twice", prev)
			return false
		}
		v.seen[id] = c.Kind()

		if err = c.Validate(); err != nil {
			return false
		}

		switch x := c.(type) {
		case *domain.Page:
			v.pages[id] = x
			for _, o := range x.Options {
				v.options[o.ID] = id
			}
		case *domain.Block:
			for _, g := range x.Groups {
				for _, p := range g {
					if p.Feedback != nil || hasOptionFeedback(p) {
						err = domain.Structuralf(domain.KindPage, p.ID, "feedback", "pages inside groups of block %s cannot have feedback; move the page to a block of pages", x.ID)
						return false
					}
				}
			}
		}
		return true
	})
	return err
}

func hasOptionFeedback(p *domain.Page) bool {
	for _, o := range p.Options {
		if o != nil && o.Feedback != nil {
			return true
		}
	}
	return false
}

// tags checks that every content page, and every option on those pages, carries
// the same number of tags, so the columns of the data file stay aligned.
func (v *treeValidator) tags(exp *domain.Experiment) error {
	pageTags := alignment{kind: domain.KindPage}
	optionTags := alignment{kind: domain.KindOption}

	for _, p := range contentPages(exp) {
		if err := pageTags.check(p.ID, len(p.Tags)); err != nil {
			return err
		}
		for _, o := range p.Options {
			if err := optionTags.check(o.ID, len(o.Tags)); err != nil {
				return err
			}
		}
	}
	return nil
}

type alignment struct {
	kind  domain.Kind
	first string
	want  int
	set   bool
}

func (a *alignment) check(id string, n int) error {
	if !a.set {
		a.first, a.want, a.set = id, n, true
		return nil
	}
	if n != a.want {
		return domain.Structuralf(a.kind, id, "tags", "has %d tags but %s %s has %d; every %s must carry the same number of tags", n, a.kind, a.first, a.want, a.kind)
	}
	return nil
}

// contentPages lists the pages reachable as block content, in declared order.
// Feedback pages are not content.
func contentPages(exp *domain.Experiment) []*domain.Page {
	var pages []*domain.Page
	var visit func(b *domain.Block)
	visit = func(b *domain.Block) {
		pages = append(pages, b.Pages...)
		for _, g := range b.Groups {
			pages = append(pages, g...)
		}
		for _, it := range b.Items {
			pages = append(pages, it.Pages...)
		}
		for _, sub := range b.Blocks {
			visit(sub)
		}
	}
	for _, b := range exp.Blocks {
		visit(b)
	}
	return pages
}

// references checks that every run condition points at a page, and an option of
// that page, that exist in the experiment.
func (v *treeValidator) references(exp *domain.Experiment) error {
	var err error
	domain.Walk(exp, func(c domain.Component) bool {
		if err != nil {
			return false
		}
		var guard *domain.RunCondition
		switch x := c.(type) {
		case *domain.Page:
			guard = x.RunIf
		case *domain.Block:
			guard = x.RunIf
		}
		if guard != nil {
			err = v.guard(c, guard)
		}
		return err == nil
	})
	return err
}

func (v *treeValidator) guard(owner domain.Component, r *domain.RunCondition) error {
	if r.Permutation != nil {
		return nil
	}
	if _, ok := v.pages[r.PageID]; !ok {
		return domain.Structuralf(owner.Kind(), owner.Identify(), "runIf", "references page %s, which is not part of the experiment", r.PageID)
	}
	if r.PageID == owner.Identify() {
		return domain.Structuralf(owner.Kind(), owner.Identify(), "runIf", "a page cannot depend on its own answer")
	}
	if r.OptionID == "" {
		return nil
	}
	if onPage, ok := v.options[r.OptionID]; !ok || onPage != r.PageID {
		return domain.Structuralf(owner.Kind(), owner.Identify(), "runIf", "references option %s, which is not an option of page %s", r.OptionID, r.PageID)
	}
	return nil
}
