package registry

// SchemaVersion identifies the export format, not the catalog contents.
const SchemaVersion = "1"

// Schema is the machine-readable catalog export client integrations depend
// on. Pattern ids and placeholder types are a stable contract.
type Schema struct {
	Version    string          `json:"version" yaml:"version"`
	Categories []string        `json:"categories" yaml:"categories"`
	Patterns   []SchemaPattern `json:"patterns" yaml:"patterns"`
}

// SchemaPattern is one catalog entry in the exported schema.
type SchemaPattern struct {
	ID          string   `json:"id" yaml:"id"`
	Category    string   `json:"category" yaml:"category"`
	Template    string   `json:"template" yaml:"template"`
	Aliases     []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Params      []string `json:"params" yaml:"params"`
	Description string   `json:"description" yaml:"description"`
	Examples    []string `json:"examples,omitempty" yaml:"examples,omitempty"`
}

// ExportSchema enumerates every pattern in catalog order.
func (r *Registry) ExportSchema() *Schema {
	s := &Schema{Version: SchemaVersion, Categories: r.Categories()}
	for _, p := range r.All() {
		params := p.ParamTypes()
		if params == nil {
			params = []string{}
		}
		s.Patterns = append(s.Patterns, SchemaPattern{
			ID:          p.ID,
			Category:    p.Category,
			Template:    p.Template,
			Aliases:     p.Aliases,
			Params:      params,
			Description: p.Description,
			Examples:    p.Examples,
		})
	}
	return s
}
