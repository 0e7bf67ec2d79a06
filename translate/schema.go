package translate

import (
	"github.com/OpenDaL/ingestion-and-transformation/config"
	"github.com/OpenDaL/ingestion-and-transformation/record"
)

// Ellipsis marks truncated strings.
const Ellipsis = "…"

// Validate applies a declarative constraint set to a candidate value.
// The returned value may differ from the input: overlong strings are
// truncated with an ellipsis, and unknown object keys are dropped when the
// constraint disallows additional properties. Rejection is a normal return
// value; log (optional) receives one entry per rejection or truncation.
func Validate(value any, c *config.Constraint, field string, log *record.Log) (any, bool) {
	if c == nil {
		return value, true
	}
	switch c.Type {
	case "string":
		s, ok := record.AsString(value)
		if !ok {
			log.Reject(field, record.ReasonTypeMismatch)
			return nil, false
		}
		out, truncated, ok := TruncateString(s, c)
		if !ok {
			log.Reject(field, record.ReasonTooShort)
			return nil, false
		}
		if truncated {
			log.Truncate(field)
		}
		if len(c.Enum) > 0 && !inEnum(out, c.Enum) {
			log.Reject(field, record.ReasonEnumInvalid)
			return nil, false
		}
		return out, true
	case "array":
		list, ok := record.AsList(value)
		if !ok {
			log.Reject(field, record.ReasonTypeMismatch)
			return nil, false
		}
		if c.MaxItems > 0 && len(list) > c.MaxItems {
			// Unbounded lists signal bad input; the whole field goes.
			log.Reject(field, record.ReasonListTooLong)
			return nil, false
		}
		if len(list) < c.MinItems {
			log.Reject(field, record.ReasonOutOfBounds)
			return nil, false
		}
		if c.Items != nil {
			out := make([]any, 0, len(list))
			for _, item := range list {
				v, ok := Validate(item, c.Items, field, log)
				if !ok {
					return nil, false
				}
				out = append(out, v)
			}
			return out, true
		}
		return list, true
	case "object":
		obj, ok := record.AsObject(value)
		if !ok {
			log.Reject(field, record.ReasonTypeMismatch)
			return nil, false
		}
		for _, req := range c.Required {
			if _, present := obj[req]; !present {
				log.Reject(field, record.ReasonTypeMismatch)
				return nil, false
			}
		}
		out := make(map[string]any, len(obj))
		for key, v := range obj {
			prop := c.Property(key)
			if prop == nil && !c.AdditionalProperties && len(c.Properties) > 0 {
				// Unknown keys are dropped silently, not rejected.
				continue
			}
			if prop != nil {
				pv, ok := Validate(v, prop, field, log)
				if !ok {
					return nil, false
				}
				v = pv
			}
			out[key] = v
		}
		return out, true
	case "integer", "number":
		n, ok := record.AsNumber(value)
		if !ok {
			log.Reject(field, record.ReasonTypeMismatch)
			return nil, false
		}
		return n, true
	default:
		return value, true
	}
}

// TruncateString bounds a string by a constraint's length limits: strings
// under the minimum are rejected as noise, strings over the maximum are
// shortened to maxLength-1 characters plus an ellipsis.
func TruncateString(s string, c *config.Constraint) (out string, truncated, ok bool) {
	if c == nil {
		return s, false, true
	}
	r := []rune(s)
	if len(r) < c.MinLength {
		return "", false, false
	}
	if c.MaxLength > 0 && len(r) > c.MaxLength {
		return string(r[:c.MaxLength-1]) + Ellipsis, true, true
	}
	return s, false, true
}

func inEnum(s string, enum []string) bool {
	for _, e := range enum {
		if e == s {
			return true
		}
	}
	return false
}
