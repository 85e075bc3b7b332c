package domain

import (
	"slices"
	"strings"
)

// Block groups content and carries the counterbalancing descriptors the runtime applies to it.
// Exactly one of Pages, Groups, Blocks and Items is present; presence means a non-nil
// slice, so an empty page list is a valid (empty) block.
type Block struct {
	ID string

	Pages []*Page
	// Groups holds alternatives: one page of each inner list is shown per participant.
	Groups [][]*Page
	Blocks []*Block
	Items  []*Item

	// Exchangeable lists ids of sub-blocks that may swap places with each other.
	Exchangeable []string
	// Treatments partitions sub-block ids; group k runs only for participants assigned permutation k.
	Treatments [][]string
	// LatinSquare chooses pages from groups by Latin square. Nil means unset.
	LatinSquare *bool
	// Pseudorandom keeps pages of the same condition from appearing in a row.
	Pseudorandom bool
	Criterion    *Criterion
	// Cutoff caps how many times a block with a criterion repeats; zero leaves it to the runtime.
	Cutoff int
	// Banks are the named pools sample directives inside this block draw from.
	Banks map[string][]string
	RunIf *RunCondition
}

func (b *Block) component() {}

func (b *Block) Identify() string { return b.ID }

func (b *Block) Kind() Kind { return KindBlock }

func (b *Block) Children() []Component {
	var children []Component
	for _, p := range b.Pages {
		children = append(children, p)
	}
	for _, g := range b.Groups {
		for _, p := range g {
			children = append(children, p)
		}
	}
	for _, sub := range b.Blocks {
		children = append(children, sub)
	}
	for _, it := range b.Items {
		children = append(children, it)
	}
	return children
}

// ContentKinds lists the content kinds that are present.
func (b *Block) ContentKinds() []string {
	var kinds []string
	if b.Pages != nil {
		kinds = append(kinds, "pages")
	}
	if b.Groups != nil {
		kinds = append(kinds, "groups")
	}
	if b.Blocks != nil {
		kinds = append(kinds, "blocks")
	}
	if b.Items != nil {
		kinds = append(kinds, "items")
	}
	return kinds
}

// UsesLatinSquare reports whether the Latin square flag is set to true.
func (b *Block) UsesLatinSquare() bool {
	return b.LatinSquare != nil && *b.LatinSquare
}

func (b *Block) Validate() error {
	if kinds := b.ContentKinds(); len(kinds) != 1 {
		found := "none"
		if len(kinds) > 0 {
			found = strings.Join(kinds, ", ")
		}
		return Structuralf(KindBlock, b.ID, "", "must have exactly one of pages, groups, blocks and items, found %s", found)
	}
	if err := b.validateMembers(); err != nil {
		return err
	}
	if err := b.validateLatinSquare(); err != nil {
		return err
	}
	if err := b.validatePseudorandom(); err != nil {
		return err
	}
	if err := validateOrdering(KindBlock, b.ID, b.Blocks, b.Exchangeable, b.Treatments); err != nil {
		return err
	}
	if b.Criterion != nil {
		if err := b.Criterion.validate(b.ID); err != nil {
			return err
		}
	}
	if b.Cutoff < 0 {
		return Structuralf(KindBlock, b.ID, "cutoff", "must not be negative, got %d", b.Cutoff)
	}
	if b.RunIf != nil {
		if err := b.RunIf.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (b *Block) validateMembers() error {
	for i, p := range b.Pages {
		if p == nil {
			return Structuralf(KindBlock, b.ID, "pages", "page %d is nil", i)
		}
	}
	for i, g := range b.Groups {
		for j, p := range g {
			if p == nil {
				return Structuralf(KindBlock, b.ID, "groups", "page %d of group %d is nil", j, i)
			}
		}
	}
	for i, sub := range b.Blocks {
		if sub == nil {
			return Structuralf(KindBlock, b.ID, "blocks", "block %d is nil", i)
		}
	}
	for i, it := range b.Items {
		if it == nil {
			return Structuralf(KindBlock, b.ID, "items", "item %d is nil", i)
		}
	}
	return nil
}

func (b *Block) validateLatinSquare() error {
	if !b.UsesLatinSquare() {
		return nil
	}
	if b.Groups == nil {
		return Structuralf(KindBlock, b.ID, "latin_square", "only valid when the block's content is groups of pages")
	}
	if len(b.Groups) == 0 {
		return nil
	}
	size := len(b.Groups[0])
	if size == 0 {
		return Structuralf(KindBlock, b.ID, "groups", "Latin square groups must not be empty")
	}
	for i, g := range b.Groups {
		if len(g) != size {
			return Structuralf(KindBlock, b.ID, "groups", "Latin square needs groups of equal length, group 0 has %d pages and group %d has %d", size, i, len(g))
		}
	}
	if len(b.Groups)%size != 0 {
		return Structuralf(KindBlock, b.ID, "groups", "Latin square needs the number of groups (%d) to be a multiple of the group length (%d)", len(b.Groups), size)
	}
	return nil
}

func (b *Block) validatePseudorandom() error {
	if !b.Pseudorandom {
		return nil
	}
	var conditions []string
	switch {
	case b.Groups != nil:
		if b.LatinSquare == nil {
			return Structuralf(KindBlock, b.ID, "latin_square", "pseudorandom groups need latin_square set explicitly; choosing pages at random cannot guarantee equal condition counts")
		}
		if !*b.LatinSquare {
			return Structuralf(KindBlock, b.ID, "pseudorandom", "cannot choose pages from groups at random and pseudorandomize them; supply pages instead, set latin_square, or drop pseudorandom")
		}
		for _, g := range b.Groups {
			for _, p := range g {
				if p.Condition == "" {
					return Structuralf(KindPage, p.ID, "condition", "pseudorandom block %s needs a condition on every page", b.ID)
				}
				conditions = append(conditions, p.Condition)
			}
		}
	case b.Pages != nil:
		for _, p := range b.Pages {
			if p.Condition == "" {
				return Structuralf(KindPage, p.ID, "condition", "pseudorandom block %s needs a condition on every page", b.ID)
			}
			conditions = append(conditions, p.Condition)
		}
	case b.Items != nil:
		for _, it := range b.Items {
			if err := it.Validate(); err != nil {
				return err
			}
			for _, p := range it.Pages {
				c := it.ConditionOf(p)
				if c == "" {
					return Structuralf(KindPage, p.ID, "condition", "pseudorandom block %s needs a condition on every page", b.ID)
				}
				conditions = append(conditions, c)
			}
		}
	default:
		return Structuralf(KindBlock, b.ID, "pseudorandom", "only valid when the block's content is pages, items or groups")
	}
	return balanced(b.ID, conditions)
}

func balanced(blockID string, conditions []string) error {
	counts := make(map[string]int)
	for _, c := range conditions {
		counts[c]++
	}
	want := -1
	for _, c := range sortedKeys(counts) {
		if want == -1 {
			want = counts[c]
			continue
		}
		if counts[c] != want {
			return Structuralf(KindBlock, blockID, "pseudorandom", "every condition must occur equally often, condition %q occurs %d times and others %d", c, counts[c], want)
		}
	}
	return nil
}

// validateOrdering checks exchangeable and treatment references against the immediate sub-blocks.
func validateOrdering(kind Kind, id string, subs []*Block, exchangeable []string, treatments [][]string) error {
	if len(exchangeable) == 0 && len(treatments) == 0 {
		return nil
	}
	if subs == nil {
		field := "exchangeable"
		if len(exchangeable) == 0 {
			field = "treatments"
		}
		return Structuralf(kind, id, field, "only valid when the content is blocks")
	}
	byID := make(map[string]*Block, len(subs))
	for _, sub := range subs {
		if sub != nil {
			byID[sub.ID] = sub
		}
	}
	for _, ref := range exchangeable {
		if _, ok := byID[ref]; !ok {
			return Structuralf(kind, id, "exchangeable", "%q is not an immediate sub-block", ref)
		}
	}
	seen := make(map[string]int)
	for k, group := range treatments {
		if len(group) == 0 {
			return Structuralf(kind, id, "treatments", "treatment %d is empty", k)
		}
		for _, ref := range group {
			sub, ok := byID[ref]
			if !ok {
				return Structuralf(kind, id, "treatments", "%q is not an immediate sub-block", ref)
			}
			if prev, dup := seen[ref]; dup {
				return Structuralf(kind, id, "treatments", "block %s appears in treatments %d and %d; treatments must be disjoint", ref, prev, k)
			}
			seen[ref] = k
			if sub.RunIf != nil {
				return Structuralf(KindBlock, ref, "runIf", "a block in a treatment cannot also carry its own run condition")
			}
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
