package domain

// Experiment is the root of the component tree.
type Experiment struct {
	ID     string
	Blocks []*Block
	// Exchangeable lists ids of top-level blocks that may swap places with each other.
	Exchangeable []string
	// Treatments partitions top-level block ids into between-subjects groups.
	Treatments [][]string
	// Banks are experiment-wide sampling pools.
	Banks map[string][]string
}

func (e *Experiment) component() {}

func (e *Experiment) Identify() string { return e.ID }

func (e *Experiment) Kind() Kind { return KindExperiment }

func (e *Experiment) Children() []Component {
	children := make([]Component, 0, len(e.Blocks))
	for _, b := range e.Blocks {
		children = append(children, b)
	}
	return children
}

func (e *Experiment) Validate() error {
	for i, b := range e.Blocks {
		if b == nil {
			return Structuralf(KindExperiment, e.ID, "blocks", "block %d is nil", i)
		}
	}
	subs := e.Blocks
	if subs == nil {
		subs = []*Block{}
	}
	return validateOrdering(KindExperiment, e.ID, subs, e.Exchangeable, e.Treatments)
}
