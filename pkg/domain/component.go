package domain

// Kind tags each variant of the component model.
type Kind string

const (
	KindOption     Kind = "option"
	KindPage       Kind = "page"
	KindItem       Kind = "item"
	KindBlock      Kind = "block"
	KindExperiment Kind = "experiment"
	KindResource   Kind = "resource"
	KindSample     Kind = "sample"
	KindRunIf      Kind = "runIf"
)

// Component is implemented by every id-bearing entity of an experiment.
// The set is closed: only the types of this package implement it.
type Component interface {
	// Identify returns the identifier allocated at construction.
	Identify() string
	// Kind returns the variant tag.
	Kind() Kind
	// Children returns the owned components in declared order.
	Children() []Component
	// Validate runs the checks that only need this entity and returns the first violation.
	Validate() error

	component()
}

// Walk visits c and every component it owns, depth first in declared order.
// When fn returns false the children of that component are skipped.
func Walk(c Component, fn func(Component) bool) {
	if c == nil || !fn(c) {
		return
	}
	for _, child := range c.Children() {
		Walk(child, fn)
	}
}
