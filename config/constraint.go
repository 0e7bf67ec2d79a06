package config

// Constraint is a declarative validation constraint set for one candidate
// value. Constraints are immutable configuration: loaded once and shared
// read-only across all invocations. The enforcement logic lives in the
// translate package.
type Constraint struct {
	// Type is one of "string", "array", "object", "integer" or "number".
	// Empty means any type.
	Type string `yaml:"type"`

	// String bounds. Values shorter than MinLength are rejected as noise;
	// values longer than MaxLength are truncated, not rejected. Zero
	// means unbounded.
	MinLength int `yaml:"min_length"`
	MaxLength int `yaml:"max_length"`

	// Array bounds. A list longer than MaxItems rejects the whole field:
	// unbounded lists signal bad input rather than legitimate data.
	MinItems int `yaml:"min_items"`
	MaxItems int `yaml:"max_items"`

	// Enum restricts the value to the listed strings.
	Enum []string `yaml:"enum"`

	// Object properties. Required properties must be present; when
	// AdditionalProperties is false, unknown keys are dropped silently.
	Required             []string               `yaml:"required"`
	Properties           map[string]*Constraint `yaml:"properties"`
	AdditionalProperties bool                   `yaml:"additional_properties"`

	// Items constrains each element of an array value.
	Items *Constraint `yaml:"items"`
}

// Property returns the constraint for an object property (or an array
// item's property), nil when none is declared.
func (c *Constraint) Property(key string) *Constraint {
	if c == nil {
		return nil
	}
	if c.Type == "array" && c.Items != nil {
		return c.Items.Property(key)
	}
	if c.Properties == nil {
		return nil
	}
	return c.Properties[key]
}
