package document

// Definitions mirror the document layout. Union-typed fields stay `any` and are
// resolved when the tree is built.

type experimentDef struct {
	Name         string         `mapstructure:"name"`
	ID           string         `mapstructure:"id"`
	Blocks       []blockDef     `mapstructure:"blocks"`
	Exchangeable []string       `mapstructure:"exchangeable"`
	Treatments   [][]string     `mapstructure:"treatments"`
	Banks        map[string]any `mapstructure:"banks"`
}

type blockDef struct {
	Key    string      `mapstructure:"key"`
	ID     string      `mapstructure:"id"`
	Pages  []pageDef   `mapstructure:"pages"`
	Groups [][]pageDef `mapstructure:"groups"`
	Blocks []blockDef  `mapstructure:"blocks"`
	Items  []itemDef   `mapstructure:"items"`

	Exchangeable []string       `mapstructure:"exchangeable"`
	Treatments   [][]string     `mapstructure:"treatments"`
	LatinSquare  *bool          `mapstructure:"latin_square"`
	Pseudorandom bool           `mapstructure:"pseudorandom"`
	Criterion    any            `mapstructure:"criterion"`
	Cutoff       int            `mapstructure:"cutoff"`
	Banks        map[string]any `mapstructure:"banks"`
	RunIf        *runIfDef      `mapstructure:"run_if"`
}

type itemDef struct {
	Key       string    `mapstructure:"key"`
	ID        string    `mapstructure:"id"`
	Pages     []pageDef `mapstructure:"pages"`
	Condition string    `mapstructure:"condition"`
	Tags      []string  `mapstructure:"tags"`
}

type pageDef struct {
	Key       string      `mapstructure:"key"`
	ID        string      `mapstructure:"id"`
	Text      any         `mapstructure:"text"`
	Options   []optionDef `mapstructure:"options"`
	Resources []any       `mapstructure:"resources"`
	Feedback  any         `mapstructure:"feedback"`
	Correct   any         `mapstructure:"correct"`
	Tags      []string    `mapstructure:"tags"`
	Condition string      `mapstructure:"condition"`
	Ordered   bool        `mapstructure:"ordered"`
	Exclusive bool        `mapstructure:"exclusive"`
	FreeText  bool        `mapstructure:"freetext"`
	RunIf     *runIfDef   `mapstructure:"run_if"`
}

type optionDef struct {
	Key       string   `mapstructure:"key"`
	ID        string   `mapstructure:"id"`
	Text      any      `mapstructure:"text"`
	Correct   any      `mapstructure:"correct"`
	Feedback  any      `mapstructure:"feedback"`
	Tags      []string `mapstructure:"tags"`
	Resources []any    `mapstructure:"resources"`
}

// runIfDef references a page by key and one of its options by key, or a regex.
type runIfDef struct {
	Page   string `mapstructure:"page"`
	Option string `mapstructure:"option"`
	Regex  string `mapstructure:"regex"`
}

type sampleDef struct {
	SampleFrom  string `mapstructure:"sample_from"`
	Variable    *int   `mapstructure:"variable"`
	NotVariable *int   `mapstructure:"not_variable"`
}

type resourceDef struct {
	Source    string `mapstructure:"source"`
	MediaType string `mapstructure:"media_type"`
	Controls  *bool  `mapstructure:"controls"`
	Autoplay  bool   `mapstructure:"autoplay"`
	Required  bool   `mapstructure:"required"`
}

// tableBankDef fills a bank from one column of a delimited file.
type tableBankDef struct {
	Table     string `mapstructure:"table"`
	Column    string `mapstructure:"column"`
	Separator string `mapstructure:"separator"`
}

// correctOptionDef names the correct option of a page by key.
type correctOptionDef struct {
	Option string `mapstructure:"option"`
}
