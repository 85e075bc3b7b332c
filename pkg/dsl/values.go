package dsl

import "github.com/aretw0/speriment/pkg/domain"

// Ptr returns a pointer to v, for optional fields such as BlockConfig.LatinSquare.
func Ptr[T any](v T) *T {
	return &v
}

// Correct marks a choice option as correct or incorrect.
func Correct(ok bool) *domain.Correctness {
	return &domain.Correctness{Bool: &ok}
}

// Matches marks free-text answers matching pattern as correct.
func Matches(pattern string) *domain.Correctness {
	return &domain.Correctness{Pattern: &pattern}
}

// CorrectOption names the correct option of a choice page.
func CorrectOption(o *domain.Option) *domain.Correctness {
	return Matches(o.ID)
}

// FeedbackText shows text after the answer; the compiler turns it into a page.
func FeedbackText(text string) *domain.Feedback {
	return &domain.Feedback{Text: text}
}

// FeedbackPage shows an authored page after the answer.
func FeedbackPage(p *domain.Page) *domain.Feedback {
	return &domain.Feedback{Page: p}
}

// RunIfSelected runs a page or block only if o was the last answer to p.
func RunIfSelected(p *domain.Page, o *domain.Option) *domain.RunCondition {
	return &domain.RunCondition{PageID: p.ID, OptionID: o.ID}
}

// RunIfMatched runs a page or block only if the last answer to p matched regex.
func RunIfMatched(p *domain.Page, regex string) *domain.RunCondition {
	return &domain.RunCondition{PageID: p.ID, Regex: regex}
}

// Source references a media file with the runtime's defaults.
func Source(src string) *domain.Resource {
	return &domain.Resource{Source: src}
}

// SampleFrom draws a value from bank.
func SampleFrom(bank string) *domain.SampleDirective {
	return &domain.SampleDirective{Bank: bank}
}

// SampleVariable draws from bank the value bound to index, shared by every
// directive using the same index.
func SampleVariable(bank string, index int) *domain.SampleDirective {
	return &domain.SampleDirective{Bank: bank, Variable: &index}
}

// SampleNotVariable draws from bank a value different from the one bound to index.
func SampleNotVariable(bank string, index int) *domain.SampleDirective {
	return &domain.SampleDirective{Bank: bank, NotVariable: &index}
}

// Resources collects media entries into the list Page and Option configs expect.
func Resources(media ...domain.Media) []domain.Media {
	return media
}

// Streak requires n trailing correct answers.
func Streak(n int) *domain.Criterion {
	return &domain.Criterion{Streak: n}
}

// Accuracy requires the given proportion of correct answers.
func Accuracy(p float64) *domain.Criterion {
	return &domain.Criterion{Accuracy: p}
}
