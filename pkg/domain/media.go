package domain

// Media is a resource entry of a Page or Option: either a concrete Resource
// or a SampleDirective resolved by the runtime.
type Media interface {
	Validate() error
	media()
}

// Resource references an image, audio or video file displayed with a page.
type Resource struct {
	Source string
	// MediaType is encoded as null when empty; the runtime then guesses from the extension.
	MediaType string
	// Controls defaults to true when nil.
	Controls *bool
	Autoplay bool
	Required bool
}

func (r *Resource) media() {}

// Validate checks that the resource names a source.
func (r *Resource) Validate() error {
	if r.Source == "" {
		return Structuralf(KindResource, "", "source", "resource must name a source")
	}
	return nil
}

// ShowsControls resolves the Controls default.
func (r *Resource) ShowsControls() bool {
	return r.Controls == nil || *r.Controls
}

// SampleDirective is a placeholder the runtime replaces with a value drawn from a named bank.
// Variable pins the draw so that several directives with the same index get the same value;
// NotVariable asks for a value different from the one drawn for that index.
type SampleDirective struct {
	Bank        string
	Variable    *int
	NotVariable *int
}

func (s *SampleDirective) media() {}

// Validate enforces that at most one of Variable and NotVariable is set.
func (s *SampleDirective) Validate() error {
	if s.Bank == "" {
		return Structuralf(KindSample, "", "bank", "sample directive must name a bank")
	}
	if s.Variable != nil && s.NotVariable != nil {
		return Structuralf(KindSample, "", "variable", "at most one of variable and not_variable may be set (bank %q)", s.Bank)
	}
	if s.Variable != nil && *s.Variable < 0 {
		return Structuralf(KindSample, "", "variable", "index must not be negative, got %d", *s.Variable)
	}
	if s.NotVariable != nil && *s.NotVariable < 0 {
		return Structuralf(KindSample, "", "not_variable", "index must not be negative, got %d", *s.NotVariable)
	}
	return nil
}
