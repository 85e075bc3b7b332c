package domain

// Item is a unit of display made of one or more pages. Its condition applies
// to every member page that does not set its own.
type Item struct {
	ID        string
	Pages     []*Page
	Condition string
	Tags      []string
}

func (i *Item) component() {}

func (i *Item) Identify() string { return i.ID }

func (i *Item) Kind() Kind { return KindItem }

func (i *Item) Children() []Component {
	children := make([]Component, 0, len(i.Pages))
	for _, p := range i.Pages {
		children = append(children, p)
	}
	return children
}

func (i *Item) Validate() error {
	if len(i.Pages) == 0 {
		return Structuralf(KindItem, i.ID, "pages", "an item must hold at least one page")
	}
	for n, p := range i.Pages {
		if p == nil {
			return Structuralf(KindItem, i.ID, "pages", "page %d is nil", n)
		}
	}
	return nil
}

// ConditionOf returns the effective condition of a member page.
func (i *Item) ConditionOf(p *Page) string {
	if p.Condition != "" {
		return p.Condition
	}
	return i.Condition
}
