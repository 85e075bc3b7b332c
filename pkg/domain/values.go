package domain

// Correctness marks what counts as a correct answer: a boolean for choice
// options, or a regular expression for free-text answers.
type Correctness struct {
	Bool    *bool
	Pattern *string
}

// IsBool reports whether the correctness is a boolean.
func (c *Correctness) IsBool() bool {
	return c != nil && c.Bool != nil
}

// IsPattern reports whether the correctness is a pattern.
func (c *Correctness) IsPattern() bool {
	return c != nil && c.Pattern != nil
}

// Value returns the bool or the pattern.
func (c *Correctness) Value() any {
	if c.Bool != nil {
		return *c.Bool
	}
	return *c.Pattern
}

func (c *Correctness) validate(kind Kind, id string) error {
	if (c.Bool == nil) == (c.Pattern == nil) {
		return Structuralf(kind, id, "correct", "exactly one of a boolean and a pattern must be set")
	}
	return nil
}

// Feedback is shown after a page is answered: either plain text, from which
// the compiler synthesizes a page, or a fully authored Page.
type Feedback struct {
	Text string
	Page *Page
}

func (f *Feedback) validate(kind Kind, id string) error {
	if (f.Text == "") == (f.Page == nil) {
		return Structuralf(kind, id, "feedback", "exactly one of text and page must be set")
	}
	return nil
}

// Criterion asks the runtime to repeat a block until the participant performs well enough.
// Streak is the number of trailing correct answers needed; Accuracy the overall proportion.
type Criterion struct {
	Streak   int
	Accuracy float64
}

// Value returns the wire value: an integer streak or a fractional accuracy.
func (c *Criterion) Value() any {
	if c.Streak > 0 {
		return c.Streak
	}
	return c.Accuracy
}

func (c *Criterion) validate(id string) error {
	switch {
	case c.Streak < 0:
		return Structuralf(KindBlock, id, "criterion", "streak must be positive, got %d", c.Streak)
	case c.Streak > 0 && c.Accuracy != 0:
		return Structuralf(KindBlock, id, "criterion", "exactly one of streak and accuracy must be set")
	case c.Streak == 0 && (c.Accuracy <= 0 || c.Accuracy >= 1):
		return Structuralf(KindBlock, id, "criterion", "accuracy must be strictly between 0 and 1, got %v", c.Accuracy)
	}
	return nil
}

// RunCondition guards a page or block. Exactly one form is used:
// {PageID, OptionID} runs when that option was the last answer to that page,
// {PageID, Regex} runs when the last answer matched, and {Permutation} runs
// when the participant was assigned that permutation.
type RunCondition struct {
	PageID      string
	OptionID    string
	Regex       string
	Permutation *int
}

// Validate checks that exactly one guard form is used.
func (r *RunCondition) Validate() error {
	if r.Permutation != nil {
		if r.PageID != "" || r.OptionID != "" || r.Regex != "" {
			return Structuralf(KindRunIf, "", "permutation", "a permutation guard cannot also reference a page, option or regex")
		}
		if *r.Permutation < 0 {
			return Structuralf(KindRunIf, "", "permutation", "must not be negative, got %d", *r.Permutation)
		}
		return nil
	}
	if r.PageID == "" {
		return Structuralf(KindRunIf, "", "pageID", "guard must reference a page")
	}
	if (r.OptionID == "") == (r.Regex == "") {
		return Structuralf(KindRunIf, "", "optionID", "exactly one of option and regex must be set")
	}
	return nil
}
