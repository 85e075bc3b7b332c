package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/speriment/pkg/domain"
)

// Outline describes an experiment as markdown, one heading per block and one
// list entry per page. It is meant for authors proofreading an expanded tree.
func Outline(exp *domain.Experiment) string {
	var sb strings.Builder
	sb.WriteString("# Experiment\n\n")
	if len(exp.Treatments) > 0 {
		fmt.Fprintf(&sb, "Treatments: %s\n\n", groups(exp.Treatments))
	}
	if len(exp.Exchangeable) > 0 {
		fmt.Fprintf(&sb, "Exchangeable: %s\n\n", strings.Join(exp.Exchangeable, ", "))
	}
	banks(&sb, exp.Banks)
	for _, b := range exp.Blocks {
		block(&sb, b, 2)
	}
	return sb.String()
}

func block(sb *strings.Builder, b *domain.Block, level int) {
	if level > 6 {
		level = 6
	}
	fmt.Fprintf(sb, "%s Block %s\n\n", strings.Repeat("#", level), b.ID)

	var notes []string
	if b.UsesLatinSquare() {
		notes = append(notes, "latin square")
	}
	if b.Pseudorandom {
		notes = append(notes, "pseudorandom")
	}
	if b.Criterion != nil {
		note := fmt.Sprintf("repeat until criterion %v", b.Criterion.Value())
		if b.Cutoff > 0 {
			note += fmt.Sprintf(" (at most %d times)", b.Cutoff)
		}
		notes = append(notes, note)
	}
	if b.RunIf != nil {
		notes = append(notes, "runs if "+guard(b.RunIf))
	}
	if len(b.Exchangeable) > 0 {
		notes = append(notes, "exchangeable: "+strings.Join(b.Exchangeable, ", "))
	}
	if len(b.Treatments) > 0 {
		notes = append(notes, "treatments: "+groups(b.Treatments))
	}
	if len(notes) > 0 {
		fmt.Fprintf(sb, "*%s*\n\n", strings.Join(notes, "; "))
	}
	banks(sb, b.Banks)

	switch {
	case b.Pages != nil:
		pages(sb, b.Pages, "")
	case b.Groups != nil:
		for k, g := range b.Groups {
			fmt.Fprintf(sb, "Group %d:\n\n", k)
			pages(sb, g, "")
		}
	case b.Items != nil:
		for _, it := range b.Items {
			fmt.Fprintf(sb, "Item %s", it.ID)
			if it.Condition != "" {
				fmt.Fprintf(sb, " (condition `%s`)", it.Condition)
			}
			sb.WriteString(":\n\n")
			pages(sb, it.Pages, "")
		}
	case b.Blocks != nil:
		for _, sub := range b.Blocks {
			block(sb, sub, level+1)
		}
	}
}

func pages(sb *strings.Builder, ps []*domain.Page, indent string) {
	if len(ps) == 0 {
		sb.WriteString("*(no pages)*\n\n")
		return
	}
	for _, p := range ps {
		fmt.Fprintf(sb, "%s- **%s** %s", indent, p.ID, text(p.Text, p.TextSample))
		var notes []string
		if p.Condition != "" {
			notes = append(notes, "condition `"+p.Condition+"`")
		}
		if p.RunIf != nil {
			notes = append(notes, "runs if "+guard(p.RunIf))
		}
		if p.FreeText {
			notes = append(notes, "free text")
		}
		if p.Correct.IsPattern() {
			if p.FreeText {
				notes = append(notes, "correct if matches `"+*p.Correct.Pattern+"`")
			} else {
				notes = append(notes, "correct option "+*p.Correct.Pattern)
			}
		}
		if len(p.Resources) > 0 {
			notes = append(notes, fmt.Sprintf("%d resources", len(p.Resources)))
		}
		if len(notes) > 0 {
			fmt.Fprintf(sb, " _(%s)_", strings.Join(notes, ", "))
		}
		sb.WriteString("\n")
		if !p.FreeText {
			for _, o := range p.Options {
				mark := " "
				if o.Correct.IsBool() && *o.Correct.Bool {
					mark = "x"
				}
				fmt.Fprintf(sb, "%s  - [%s] %s %s\n", indent, mark, o.ID, text(o.Text, o.TextSample))
			}
		}
	}
	sb.WriteString("\n")
}

func text(s string, sample *domain.SampleDirective) string {
	if sample != nil {
		return "_sampled from " + sample.Bank + "_"
	}
	return strings.Join(strings.Fields(s), " ")
}

func guard(r *domain.RunCondition) string {
	switch {
	case r.Permutation != nil:
		return fmt.Sprintf("permutation %d", *r.Permutation)
	case r.OptionID != "":
		return fmt.Sprintf("option %s chosen on page %s", r.OptionID, r.PageID)
	default:
		return fmt.Sprintf("answer to page %s matches `%s`", r.PageID, r.Regex)
	}
}

func groups(gs [][]string) string {
	parts := make([]string, len(gs))
	for i, g := range gs {
		parts[i] = "[" + strings.Join(g, ", ") + "]"
	}
	return strings.Join(parts, " ")
}

func banks(sb *strings.Builder, bs map[string][]string) {
	if len(bs) == 0 {
		return
	}
	names := make([]string, 0, len(bs))
	for name := range bs {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(sb, "Bank `%s`: %d values\n\n", name, len(bs[name]))
	}
}
