// Package record defines the value model shared by the translation engine:
// structured input records, canonical output records, and the diagnostic
// log of rejected or adjusted fields.
package record

// Structured is one source record as produced by the structuring stage: a
// flat mapping from source field name to a JSON-derived value. Values are
// strings, float64 numbers, bools, nil, []any or map[string]any nested to
// any depth. The preparse stage may delete consumed keys; translators treat
// the record as read-only.
type Structured map[string]any

// Canonical is one translated record. Keys come from the canonical field
// vocabulary below; a present key always carries a value that passed its
// translator's validation. Absent keys mean no acceptable value was found.
type Canonical map[string]any

// Canonical field names.
const (
	FieldTitle            = "title"
	FieldDescription      = "description"
	FieldVersion          = "version"
	FieldCreator          = "creator"
	FieldPublisher        = "publisher"
	FieldIssued           = "issued"
	FieldModified         = "modified"
	FieldCreated          = "created"
	FieldOtherDates       = "otherDates"
	FieldContact          = "contact"
	FieldLicense          = "license"
	FieldMaintenance      = "maintenance"
	FieldIdentifier       = "identifier"
	FieldType             = "type"
	FieldSubject          = "subject"
	FieldLocation         = "location"
	FieldTimePeriod       = "timePeriod"
	FieldFormat           = "format"
	FieldLanguage         = "language"
	FieldCoordinateSystem = "coordinateSystem"
)

// Fields lists the full canonical vocabulary.
var Fields = []string{
	FieldTitle, FieldDescription, FieldVersion, FieldCreator, FieldPublisher,
	FieldIssued, FieldModified, FieldCreated, FieldOtherDates, FieldContact,
	FieldLicense, FieldMaintenance, FieldIdentifier, FieldType, FieldSubject,
	FieldLocation, FieldTimePeriod, FieldFormat, FieldLanguage,
	FieldCoordinateSystem,
}

var fieldSet = func() map[string]struct{} {
	s := make(map[string]struct{}, len(Fields))
	for _, f := range Fields {
		s[f] = struct{}{}
	}
	return s
}()

// IsCanonicalField reports whether name belongs to the canonical vocabulary.
func IsCanonicalField(name string) bool {
	_, ok := fieldSet[name]
	return ok
}

// Copy returns a shallow copy of the structured record. The engine copies
// the caller's record before preparsing so key deletion stays confined to
// one translation call.
func (s Structured) Copy() Structured {
	out := make(Structured, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// IsEmpty reports whether a value counts as absent during resolution: nil,
// the empty string, an empty list or an empty object.
func IsEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

// AsString unwraps v as a string.
func AsString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// AsObject unwraps v as an object.
func AsObject(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// AsList unwraps v as a list.
func AsList(v any) ([]any, bool) {
	l, ok := v.([]any)
	return l, ok
}

// AsNumber unwraps v as a number. Integers arriving through typed decoders
// are accepted alongside the float64 that encoding/json produces.
func AsNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	}
	return 0, false
}
