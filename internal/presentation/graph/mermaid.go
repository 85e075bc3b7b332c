package graph

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/aretw0/speriment/pkg/domain"
)

// Overlay highlights pages on the diagram, e.g. the pages touched by a diff or a
// validation error.
type Overlay struct {
	Highlight []string
}

// maxLabel caps page text shown inside a node.
const maxLabel = 32

// GenerateMermaid produces a Mermaid flowchart of an (expanded) experiment.
// Blocks and items become subgraphs, and pages inside a block are chained in
// declared order. Shapes:
// - Free-text page: [/Parallelogram/]
// - Page with options: [Rectangle]
// - Page without options (instructions, feedback): ([Stadium])
// Run conditions referencing a page are drawn as dotted edges from that page.
func GenerateMermaid(exp *domain.Experiment, overlay *Overlay) string {
	w := &writer{}
	w.line(0, "graph TD")
	for _, b := range exp.Blocks {
		w.block(b, 1)
	}
	w.sequence(1, firstPages(exp.Blocks))
	w.guards(exp)

	if overlay != nil && len(overlay.Highlight) > 0 {
		w.line(0, "")
		w.line(1, "%% Overlay Styles")
		// Force black text (color:#000) for contrast regardless of theme
		w.line(1, "classDef highlight fill:#ffeb3b,stroke:#fbc02d,stroke-width:3px,color:#000;")
		seen := make(map[string]bool)
		for _, id := range overlay.Highlight {
			safe := sanitizeMermaidID("p" + id)
			if id != "" && !seen[safe] {
				seen[safe] = true
				w.line(1, "class %s highlight;", safe)
			}
		}
	}
	return w.String()
}

type writer struct {
	strings.Builder
}

func (w *writer) line(depth int, format string, args ...any) {
	w.WriteString(strings.Repeat("    ", depth))
	fmt.Fprintf(w, format, args...)
	w.WriteByte('\n')
}

func (w *writer) block(b *domain.Block, depth int) {
	w.line(depth, "subgraph %s[\"%s\"]", nodeID(b), blockLabel(b))
	w.line(depth+1, "direction TB")
	switch {
	case b.Pages != nil:
		for _, p := range b.Pages {
			w.page(p, depth+1)
		}
		w.sequence(depth+1, pageIDs(b.Pages))
	case b.Groups != nil:
		for k, g := range b.Groups {
			w.line(depth+1, "subgraph %s_g%d[\"group %d\"]", nodeID(b), k, k)
			for _, p := range g {
				w.page(p, depth+2)
			}
			w.line(depth+1, "end")
		}
	case b.Items != nil:
		for _, it := range b.Items {
			w.line(depth+1, "subgraph %s[\"item %s\"]", nodeID(it), it.ID)
			for _, p := range it.Pages {
				w.page(p, depth+2)
			}
			w.sequence(depth+2, pageIDs(it.Pages))
			w.line(depth+1, "end")
		}
	case b.Blocks != nil:
		for _, sub := range b.Blocks {
			w.block(sub, depth+1)
		}
		w.sequence(depth+1, firstPages(b.Blocks))
	}
	w.line(depth, "end")
}

func (w *writer) page(p *domain.Page, depth int) {
	opener, closer := "[", "]"
	switch {
	case p.FreeText:
		opener, closer = "[/", "/]"
	case len(p.Options) == 0:
		opener, closer = "([", "])"
	}
	w.line(depth, "%s%s\"%s\"%s", nodeID(p), opener, pageLabel(p), closer)
}

// sequence chains consecutive nodes with solid arrows.
func (w *writer) sequence(depth int, ids []string) {
	for i := 1; i < len(ids); i++ {
		w.line(depth, "%s --> %s", ids[i-1], ids[i])
	}
}

func (w *writer) guards(exp *domain.Experiment) {
	domain.Walk(exp, func(c domain.Component) bool {
		var guard *domain.RunCondition
		switch v := c.(type) {
		case *domain.Page:
			guard = v.RunIf
		case *domain.Block:
			guard = v.RunIf
		}
		if guard == nil || guard.PageID == "" {
			return true
		}
		label := "option " + guard.OptionID
		if guard.OptionID == "" {
			// Escape double quotes for Mermaid labels
			label = "matches " + strings.ReplaceAll(guard.Regex, "\"", "'")
		}
		w.line(1, "%s -. \"%s\" .-> %s", sanitizeMermaidID("p"+guard.PageID), label, nodeID(c))
		return true
	})
}

func nodeID(c domain.Component) string {
	prefix := "p"
	switch c.Kind() {
	case domain.KindBlock:
		prefix = "b"
	case domain.KindItem:
		prefix = "i"
	}
	return sanitizeMermaidID(prefix + c.Identify())
}

func pageIDs(pages []*domain.Page) []string {
	ids := make([]string, len(pages))
	for i, p := range pages {
		ids[i] = nodeID(p)
	}
	return ids
}

// firstPages returns block node ids so sibling blocks are chained in order.
func firstPages(blocks []*domain.Block) []string {
	ids := make([]string, len(blocks))
	for i, b := range blocks {
		ids[i] = nodeID(b)
	}
	return ids
}

func blockLabel(b *domain.Block) string {
	parts := []string{"block " + b.ID}
	if b.UsesLatinSquare() {
		parts = append(parts, "latin square")
	}
	if b.Pseudorandom {
		parts = append(parts, "pseudorandom")
	}
	if b.Criterion != nil {
		parts = append(parts, fmt.Sprintf("repeat until %v", b.Criterion.Value()))
	}
	if b.RunIf != nil && b.RunIf.Permutation != nil {
		parts = append(parts, fmt.Sprintf("permutation %d", *b.RunIf.Permutation))
	}
	return strings.Join(parts, " <br/> ")
}

func pageLabel(p *domain.Page) string {
	text := p.Text
	if p.TextSample != nil {
		text = "sample of " + p.TextSample.Bank
	}
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) > maxLabel {
		text = string([]rune(text)[:maxLabel-1]) + "…"
	}
	text = strings.ReplaceAll(text, "\"", "'")
	return fmt.Sprintf("%s: %s", p.ID, text)
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
