package tools

import "sort"

// Param describes one tool argument.
type Param struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool   `json:"required" yaml:"required"`
}

// Info is the listing view of a tool.
type Info struct {
	Name        string  `json:"name" yaml:"name"`
	Category    string  `json:"category" yaml:"category"`
	Description string  `json:"description" yaml:"description"`
	Params      []Param `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// Catalog describes every registered tool in listing order.
func (r *Registry) Catalog() []Info {
	tools := r.Tools()
	out := make([]Info, 0, len(tools))
	for _, tool := range tools {
		out = append(out, tool.Info())
	}
	return out
}

// Info derives the listing view from the tool's input schema.
func (t Tool) Info() Info {
	schema := t.Definition.InputSchema
	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if required[names[i]] != required[names[j]] {
			return required[names[i]]
		}
		return names[i] < names[j]
	})

	params := make([]Param, 0, len(names))
	for _, name := range names {
		param := Param{Name: name, Required: required[name]}
		if prop, ok := schema.Properties[name].(map[string]any); ok {
			param.Type, _ = prop["type"].(string)
			param.Description, _ = prop["description"].(string)
		}
		params = append(params, param)
	}

	return Info{
		Name:        t.Name(),
		Category:    string(t.Category),
		Description: t.Definition.Description,
		Params:      params,
	}
}
