package catalog

// Model is a selectable model.
type Model struct {
	DisplayName string `json:"name" mapstructure:"display_name" yaml:"display_name"`
	Identifier  string `json:"value" mapstructure:"identifier" yaml:"identifier"`
}

// Defaults are used when no models are configured.
var Defaults = []Model{
	{DisplayName: "GPT 4o", Identifier: "openai/gpt-4o"},
	{DisplayName: "Deepseek R1", Identifier: "deepseek/deepseek-r1"},
}

// Catalog holds the models a client may pick from. The first one is the default.
type Catalog struct {
	models []Model
	byID   map[string]Model
}

func New(models []Model) *Catalog {
	if len(models) == 0 {
		models = Defaults
	}
	c := &Catalog{byID: make(map[string]Model, len(models))}
	for _, m := range models {
		if m.Identifier == "" {
			continue
		}
		if _, dup := c.byID[m.Identifier]; dup {
			continue
		}
		if m.DisplayName == "" {
			m.DisplayName = m.Identifier
		}
		c.models = append(c.models, m)
		c.byID[m.Identifier] = m
	}
	return c
}

// Lookup returns the model with the given identifier.
func (c *Catalog) Lookup(id string) (Model, bool) {
	m, ok := c.byID[id]
	return m, ok
}

// Resolve returns the model for id, or the default model when id is unknown or empty.
func (c *Catalog) Resolve(id string) Model {
	if m, ok := c.byID[id]; ok {
		return m
	}
	return c.Default()
}

func (c *Catalog) Default() Model {
	if len(c.models) == 0 {
		return Model{}
	}
	return c.models[0]
}

func (c *Catalog) Models() []Model {
	out := make([]Model, len(c.models))
	copy(out, c.models)
	return out
}
