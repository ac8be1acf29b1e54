package models

// InputSchema describes the fields an operator must supply to a form step.
// It carries no rendering concerns; presentation layers decide how to draw it.
type InputSchema struct {
	Title       string               `json:"title,omitempty"`
	Description string               `json:"description,omitempty"`
	Properties  map[string]*Property `json:"properties,omitempty"`
	Required    []string             `json:"required,omitempty"`
}

// Property describes a single input field.
type Property struct {
	Type        string               `json:"type"`
	Description string               `json:"description,omitempty"`
	Enum        []any                `json:"enum,omitempty"`
	Default     any                  `json:"default,omitempty"`
	Format      string               `json:"format,omitempty"`
	MinLength   *int                 `json:"minLength,omitempty"`
	MaxLength   *int                 `json:"maxLength,omitempty"`
	Pattern     string               `json:"pattern,omitempty"`
	Items       *Property            `json:"items,omitempty"`
	Properties  map[string]*Property `json:"properties,omitempty"`
	Required    []string             `json:"required,omitempty"`
}

// ToJSONSchema renders the schema as a JSON Schema object document.
func (s *InputSchema) ToJSONSchema() map[string]any {
	doc := map[string]any{
		"type": "object",
	}

	if s.Title != "" {
		doc["title"] = s.Title
	}

	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, p := range s.Properties {
			props[name] = p.toJSONSchema()
		}

		doc["properties"] = props
	}

	if len(s.Required) > 0 {
		required := make([]any, len(s.Required))
		for i, r := range s.Required {
			required[i] = r
		}

		doc["required"] = required
	}

	return doc
}

func (p *Property) toJSONSchema() map[string]any {
	doc := map[string]any{}

	if p.Type != "" {
		doc["type"] = p.Type
	}

	if len(p.Enum) > 0 {
		doc["enum"] = p.Enum
	}

	if p.Format != "" {
		doc["format"] = p.Format
	}

	if p.MinLength != nil {
		doc["minLength"] = *p.MinLength
	}

	if p.MaxLength != nil {
		doc["maxLength"] = *p.MaxLength
	}

	if p.Pattern != "" {
		doc["pattern"] = p.Pattern
	}

	if p.Items != nil {
		doc["items"] = p.Items.toJSONSchema()
	}

	if len(p.Properties) > 0 {
		props := make(map[string]any, len(p.Properties))
		for name, child := range p.Properties {
			props[name] = child.toJSONSchema()
		}

		doc["properties"] = props
	}

	if len(p.Required) > 0 {
		required := make([]any, len(p.Required))
		for i, r := range p.Required {
			required[i] = r
		}

		doc["required"] = required
	}

	return doc
}

// IntPtr is a helper for optional schema bounds.
func IntPtr(v int) *int {
	return &v
}
