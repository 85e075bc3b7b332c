package domain

// Page is one displayable screen.
type Page struct {
	ID         string
	Text       string
	TextSample *SampleDirective
	Options    []*Option
	Resources  []Media
	// Feedback is shown after the page regardless of the answer.
	Feedback *Feedback
	// Correct is, for a free-text page, the pattern a correct answer matches;
	// otherwise the id of the correct option.
	Correct *Correctness
	// Tags are passed through to the data file; every page of the experiment
	// must carry the same number of tags.
	Tags []string
	// Condition labels the page's experimental condition, used by pseudorandom ordering.
	Condition string
	// Ordered keeps options in declared order (they may still be reversed).
	Ordered bool
	// Exclusive lets the participant choose only one option.
	Exclusive bool
	// FreeText turns the single option into a text box.
	FreeText bool
	RunIf    *RunCondition
}

func (p *Page) component() {}

func (p *Page) Identify() string { return p.ID }

func (p *Page) Kind() Kind { return KindPage }

// Children returns the options followed by the feedback page, if any.
func (p *Page) Children() []Component {
	children := make([]Component, 0, len(p.Options)+1)
	for _, o := range p.Options {
		children = append(children, o)
	}
	if p.Feedback != nil && p.Feedback.Page != nil {
		children = append(children, p.Feedback.Page)
	}
	return children
}

func (p *Page) Validate() error {
	if p.Text != "" && p.TextSample != nil {
		return Structuralf(KindPage, p.ID, "text", "text and sampled text are mutually exclusive")
	}
	if p.TextSample != nil {
		if err := p.TextSample.Validate(); err != nil {
			return err
		}
	}
	for i, o := range p.Options {
		if o == nil {
			return Structuralf(KindPage, p.ID, "options", "option %d is nil", i)
		}
	}
	for _, r := range p.Resources {
		if r == nil {
			return Structuralf(KindPage, p.ID, "resources", "resource entry is nil")
		}
		if err := r.Validate(); err != nil {
			return err
		}
	}
	if p.Correct != nil {
		if err := p.Correct.validate(KindPage, p.ID); err != nil {
			return err
		}
	}
	if p.Feedback != nil {
		if err := p.Feedback.validate(KindPage, p.ID); err != nil {
			return err
		}
		if p.Feedback.Page == p {
			return Structuralf(KindPage, p.ID, "feedback", "a page cannot be its own feedback")
		}
	}
	if p.RunIf != nil {
		if err := p.RunIf.Validate(); err != nil {
			return err
		}
	}
	return p.validateFreeText()
}

func (p *Page) validateFreeText() error {
	if !p.FreeText {
		for _, o := range p.Options {
			if o.Correct.IsPattern() {
				return Structuralf(KindOption, o.ID, "correct", "a choice option needs a boolean, not a pattern, as its correctness")
			}
		}
		return nil
	}
	if len(p.Options) > 1 {
		return Structuralf(KindPage, p.ID, "options", "a free-text page has a text box as its only option, got %d options", len(p.Options))
	}
	if len(p.Options) == 1 && p.Options[0].Correct.IsBool() {
		return Structuralf(KindOption, p.Options[0].ID, "correct", "a text box option needs a pattern rather than a boolean as its correctness")
	}
	if p.Correct.IsBool() {
		return Structuralf(KindPage, p.ID, "correct", "a free-text page needs a pattern rather than a boolean as its correctness")
	}
	return nil
}

// Scorable reports whether an answer to this page can be graded.
func (p *Page) Scorable() bool {
	if p.Correct != nil {
		return true
	}
	for _, o := range p.Options {
		if o.Scorable() {
			return true
		}
	}
	return false
}
