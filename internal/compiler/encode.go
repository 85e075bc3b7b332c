package compiler

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/aretw0/speriment/pkg/domain"
)

// Gate validates an encoded record before it is serialized.
// *schema.Gate implements it.
type Gate interface {
	Check(record any) error
}

// Indent is the indentation of the emitted artifact.
const Indent = "    "

// Encode serializes an expanded experiment. The record passes through gate first;
// if the gate rejects it, Encode returns the gate's error and no bytes.
// Equal trees always encode to identical bytes.
func Encode(exp *domain.Experiment, gate Gate) ([]byte, error) {
	record := encodeExperiment(exp)
	if gate != nil {
		if err := gate.Check(record); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false) // page text is HTML shown by the runtime
	enc.SetIndent("", Indent)
	if err := enc.Encode(record); err != nil {
		return nil, fmt.Errorf("failed to serialize artifact: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Wire records. Field names follow the runtime's camel case convention.

type wireExperiment struct {
	Blocks       []wireBlock         `json:"blocks"`
	Exchangeable []string            `json:"exchangeable"`
	Banks        map[string][]string `json:"banks,omitempty"`
}

type wireBlock struct {
	ID string `json:"id"`
	// Content slices are pointers so that an empty list is kept and an absent one dropped.
	Pages        *[]wirePage         `json:"pages,omitempty"`
	Groups       *[][]wirePage       `json:"groups,omitempty"`
	Blocks       *[]wireBlock        `json:"blocks,omitempty"`
	Items        *[]wireItem         `json:"items,omitempty"`
	Exchangeable []string            `json:"exchangeable,omitempty"`
	LatinSquare  *bool               `json:"latinSquare,omitempty"`
	Pseudorandom bool                `json:"pseudorandom,omitempty"`
	Criterion    any                 `json:"criterion,omitempty"`
	Cutoff       int                 `json:"cutoff,omitempty"`
	Banks        map[string][]string `json:"banks,omitempty"`
	RunIf        *wireRunIf          `json:"runIf,omitempty"`
}

type wireItem struct {
	ID        string     `json:"id"`
	Pages     []wirePage `json:"pages"`
	Condition string     `json:"condition,omitempty"`
	Tags      []string   `json:"tags,omitempty"`
}

type wirePage struct {
	ID        string       `json:"id"`
	Text      any          `json:"text"`
	Options   []wireOption `json:"options,omitempty"`
	Resources []any        `json:"resources,omitempty"`
	Condition string       `json:"condition,omitempty"`
	Tags      []string     `json:"tags,omitempty"`
	Correct   any          `json:"correct,omitempty"`
	Ordered   bool         `json:"ordered,omitempty"`
	Exclusive bool         `json:"exclusive,omitempty"`
	FreeText  bool         `json:"freetext,omitempty"`
	RunIf     *wireRunIf   `json:"runIf,omitempty"`
}

type wireOption struct {
	ID        string   `json:"id"`
	Text      any      `json:"text,omitempty"`
	Correct   any      `json:"correct,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Resources []any    `json:"resources,omitempty"`
}

type wireResource struct {
	Source    string  `json:"source"`
	MediaType *string `json:"mediaType"`
	Controls  bool    `json:"controls"`
	Autoplay  bool    `json:"autoplay"`
	Required  bool    `json:"required"`
}

type wireSample struct {
	SampleFrom  string `json:"sampleFrom"`
	Variable    *int   `json:"variable,omitempty"`
	NotVariable *int   `json:"notVariable,omitempty"`
}

type wireRunIf struct {
	PageID      string `json:"pageID,omitempty"`
	OptionID    string `json:"optionID,omitempty"`
	Regex       string `json:"regex,omitempty"`
	Permutation *int   `json:"permutation,omitempty"`
}

func encodeExperiment(e *domain.Experiment) *wireExperiment {
	out := &wireExperiment{
		Blocks:       make([]wireBlock, 0, len(e.Blocks)),
		Exchangeable: e.Exchangeable,
		Banks:        e.Banks,
	}
	if out.Exchangeable == nil {
		out.Exchangeable = []string{}
	}
	for _, b := range e.Blocks {
		out.Blocks = append(out.Blocks, encodeBlock(b))
	}
	return out
}

func encodeBlock(b *domain.Block) wireBlock {
	out := wireBlock{
		ID:           b.ID,
		Exchangeable: b.Exchangeable,
		LatinSquare:  b.LatinSquare,
		Pseudorandom: b.Pseudorandom,
		Cutoff:       b.Cutoff,
		Banks:        b.Banks,
		RunIf:        encodeRunIf(b.RunIf),
	}
	if b.Criterion != nil {
		out.Criterion = b.Criterion.Value()
	}
	switch {
	case b.Pages != nil:
		pages := encodePages(b.Pages)
		out.Pages = &pages
	case b.Groups != nil:
		groups := make([][]wirePage, len(b.Groups))
		for i, g := range b.Groups {
			groups[i] = encodePages(g)
		}
		out.Groups = &groups
	case b.Blocks != nil:
		blocks := make([]wireBlock, len(b.Blocks))
		for i, sub := range b.Blocks {
			blocks[i] = encodeBlock(sub)
		}
		out.Blocks = &blocks
	case b.Items != nil:
		items := make([]wireItem, len(b.Items))
		for i, it := range b.Items {
			items[i] = wireItem{
				ID:        it.ID,
				Pages:     encodePages(it.Pages),
				Condition: it.Condition,
				Tags:      it.Tags,
			}
		}
		out.Items = &items
	}
	return out
}

func encodePages(pages []*domain.Page) []wirePage {
	out := make([]wirePage, len(pages))
	for i, p := range pages {
		out[i] = encodePage(p)
	}
	return out
}

func encodePage(p *domain.Page) wirePage {
	out := wirePage{
		ID:        p.ID,
		Text:      p.Text,
		Resources: encodeMedia(p.Resources),
		Condition: p.Condition,
		Tags:      p.Tags,
		Ordered:   p.Ordered,
		Exclusive: p.Exclusive,
		FreeText:  p.FreeText,
		RunIf:     encodeRunIf(p.RunIf),
	}
	if p.TextSample != nil {
		out.Text = encodeSample(p.TextSample)
	}
	if p.Correct != nil {
		out.Correct = p.Correct.Value()
	}
	if len(p.Options) > 0 {
		out.Options = make([]wireOption, len(p.Options))
		for i, o := range p.Options {
			out.Options[i] = encodeOption(o)
		}
	}
	return out
}

func encodeOption(o *domain.Option) wireOption {
	out := wireOption{
		ID:        o.ID,
		Tags:      o.Tags,
		Resources: encodeMedia(o.Resources),
	}
	switch {
	case o.TextSample != nil:
		out.Text = encodeSample(o.TextSample)
	case o.Text != "":
		out.Text = o.Text
	}
	if o.Correct != nil {
		out.Correct = o.Correct.Value()
	}
	return out
}

func encodeMedia(media []domain.Media) []any {
	if len(media) == 0 {
		return nil
	}
	out := make([]any, 0, len(media))
	for _, m := range media {
		switch v := m.(type) {
		case *domain.Resource:
			r := wireResource{
				Source:   v.Source,
				Controls: v.ShowsControls(),
				Autoplay: v.Autoplay,
				Required: v.Required,
			}
			if v.MediaType != "" {
				mt := v.MediaType
				r.MediaType = &mt
			}
			out = append(out, r)
		case *domain.SampleDirective:
			out = append(out, encodeSample(v))
		}
	}
	return out
}

func encodeSample(s *domain.SampleDirective) wireSample {
	return wireSample{SampleFrom: s.Bank, Variable: s.Variable, NotVariable: s.NotVariable}
}

func encodeRunIf(r *domain.RunCondition) *wireRunIf {
	if r == nil {
		return nil
	}
	return &wireRunIf{PageID: r.PageID, OptionID: r.OptionID, Regex: r.Regex, Permutation: r.Permutation}
}
