package dsl

import (
	"fmt"

	"github.com/aretw0/speriment/pkg/domain"
)

// Builder constructs components whose identifiers come from one session.
type Builder struct {
	ids domain.IDSource
	err error
}

// New creates a builder bound to ids, usually a *session.Session.
func New(ids domain.IDSource) *Builder {
	return &Builder{ids: ids}
}

// Err returns the first error met while constructing components.
func (b *Builder) Err() error {
	return b.err
}

func (b *Builder) allocate(kind domain.Kind, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if b.err != nil {
		return ""
	}
	if b.ids == nil {
		b.err = &domain.NoActiveSessionError{Op: fmt.Sprintf("new %s", kind)}
		return ""
	}
	id, err := b.ids.Next()
	if err != nil {
		b.err = fmt.Errorf("new %s: %w", kind, err)
		return ""
	}
	return id
}

// Option creates an Option.
func (b *Builder) Option(cfg OptionConfig) *domain.Option {
	return &domain.Option{
		ID:         b.allocate(domain.KindOption, cfg.ID),
		Text:       cfg.Text,
		TextSample: cfg.TextSample,
		Correct:    cfg.Correct,
		Feedback:   cfg.Feedback,
		Tags:       cfg.Tags,
		Resources:  cfg.Resources,
	}
}

// Page creates a Page.
func (b *Builder) Page(cfg PageConfig) *domain.Page {
	return &domain.Page{
		ID:         b.allocate(domain.KindPage, cfg.ID),
		Text:       cfg.Text,
		TextSample: cfg.TextSample,
		Options:    cfg.Options,
		Resources:  cfg.Resources,
		Feedback:   cfg.Feedback,
		Correct:    cfg.Correct,
		Tags:       cfg.Tags,
		Condition:  cfg.Condition,
		Ordered:    cfg.Ordered,
		Exclusive:  cfg.Exclusive,
		FreeText:   cfg.FreeText,
		RunIf:      cfg.RunIf,
	}
}

// Item creates an Item.
func (b *Builder) Item(cfg ItemConfig) *domain.Item {
	return &domain.Item{
		ID:        b.allocate(domain.KindItem, cfg.ID),
		Pages:     cfg.Pages,
		Condition: cfg.Condition,
		Tags:      cfg.Tags,
	}
}

// Block creates a Block.
func (b *Builder) Block(cfg BlockConfig) *domain.Block {
	return &domain.Block{
		ID:           b.allocate(domain.KindBlock, cfg.ID),
		Pages:        cfg.Pages,
		Groups:       cfg.Groups,
		Blocks:       cfg.Blocks,
		Items:        cfg.Items,
		Exchangeable: idsOf(cfg.Exchangeable),
		Treatments:   treatmentIDs(cfg.Treatments),
		LatinSquare:  cfg.LatinSquare,
		Pseudorandom: cfg.Pseudorandom,
		Criterion:    cfg.Criterion,
		Cutoff:       cfg.Cutoff,
		Banks:        cfg.Banks,
		RunIf:        cfg.RunIf,
	}
}

// Experiment creates the root of the tree. The experiment gets an identifier like
// every other component, but it is not part of the compiled artifact.
func (b *Builder) Experiment(cfg ExperimentConfig) *domain.Experiment {
	return &domain.Experiment{
		ID:           b.allocate(domain.KindExperiment, cfg.ID),
		Blocks:       cfg.Blocks,
		Exchangeable: idsOf(cfg.Exchangeable),
		Treatments:   treatmentIDs(cfg.Treatments),
		Banks:        cfg.Banks,
	}
}

// Clone copies c with fresh identifiers for it and everything it owns,
// so the copy can sit in the same experiment as the original.
func Clone[T domain.Component](b *Builder, c T) T {
	if b.err != nil {
		return c
	}
	if b.ids == nil {
		b.err = &domain.NoActiveSessionError{Op: fmt.Sprintf("clone %s", c.Kind())}
		return c
	}
	out, err := domain.Clone(c, b.ids)
	if err != nil {
		b.err = err
		return c
	}
	return out
}

func idsOf(blocks []*domain.Block) []string {
	if len(blocks) == 0 {
		return nil
	}
	ids := make([]string, 0, len(blocks))
	for _, blk := range blocks {
		if blk != nil {
			ids = append(ids, blk.ID)
		}
	}
	return ids
}

func treatmentIDs(groups [][]*domain.Block) [][]string {
	if len(groups) == 0 {
		return nil
	}
	out := make([][]string, len(groups))
	for i, g := range groups {
		out[i] = idsOf(g)
		if out[i] == nil {
			out[i] = []string{}
		}
	}
	return out
}
