package domain

// Option is one selectable or answerable choice on a Page.
// Its widget (radio, checkbox, dropdown or text box) is decided by the runtime
// from the containing Page, never by the Option itself.
type Option struct {
	ID string
	// Text is the label; for a text box it is unused.
	Text string
	// TextSample replaces Text with a value drawn from a bank.
	TextSample *SampleDirective
	Correct    *Correctness
	Feedback   *Feedback
	// Tags are passed through to the data file; every option of the experiment
	// must carry the same number of tags.
	Tags      []string
	Resources []Media
}

func (o *Option) component() {}

func (o *Option) Identify() string { return o.ID }

func (o *Option) Kind() Kind { return KindOption }

// Children returns the feedback page, if any.
func (o *Option) Children() []Component {
	if o.Feedback != nil && o.Feedback.Page != nil {
		return []Component{o.Feedback.Page}
	}
	return nil
}

func (o *Option) Validate() error {
	if o.Text != "" && o.TextSample != nil {
		return Structuralf(KindOption, o.ID, "text", "text and sampled text are mutually exclusive")
	}
	if o.TextSample != nil {
		if err := o.TextSample.Validate(); err != nil {
			return err
		}
	}
	if o.Correct != nil {
		if err := o.Correct.validate(KindOption, o.ID); err != nil {
			return err
		}
	}
	if o.Feedback != nil {
		if err := o.Feedback.validate(KindOption, o.ID); err != nil {
			return err
		}
	}
	for _, r := range o.Resources {
		if r == nil {
			return Structuralf(KindOption, o.ID, "resources", "resource entry is nil")
		}
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Scorable reports whether answering with this option can be graded.
func (o *Option) Scorable() bool {
	return o.Correct != nil
}
