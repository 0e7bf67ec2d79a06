package translate

import (
	"regexp"
	"strings"

	"github.com/OpenDaL/ingestion-and-transformation/config"
	"github.com/OpenDaL/ingestion-and-transformation/record"
)

var (
	doiPattern  = regexp.MustCompile(`(?i)(((https?://)?(www\.)?(dx\.)?doi\.org/)|(doi:))?(10\.[\d.]+/\S+)`)
	isbnPattern = regexp.MustCompile(`(?i)(isbn[=:]?\s?)?([\d\- ]{9,17}x?)`)
)

// identifierTranslator derives the identifier field. Only identifiers with
// a recognizable scheme survive: DOIs by their directory prefix, ISBNs by
// structure and checksum.
type identifierTranslator struct {
	spec  config.IdentifierSpec
	rules *rules
}

func newIdentifierTranslator(spec config.IdentifierSpec, r *rules) *identifierTranslator {
	return &identifierTranslator{spec: spec, rules: r}
}

func (t *identifierTranslator) Field() string { return record.FieldIdentifier }

func (t *identifierTranslator) Translate(rec record.Structured, _ record.Canonical, _ Hints, log *record.Log) (any, bool) {
	for fields := t.spec.Fields; ; {
		field, value, present := Resolve(rec, fields)
		if !present {
			return nil, false
		}
		fields = fieldsAfter(fields, field)
		resolved, ok := Disambiguate(value, t.spec.KeyPriority, nil, nil)
		if !ok {
			continue
		}
		s, ok := record.AsString(resolved)
		if !ok {
			continue
		}
		entry, ok := ParseIdentifier(s)
		if !ok {
			continue
		}
		if out, ok := Validate(entry, &t.spec.Constraint, record.FieldIdentifier, log); ok {
			return out, true
		}
	}
}

// ParseIdentifier extracts a typed identifier from free text.
func ParseIdentifier(s string) (map[string]any, bool) {
	s = strings.TrimSpace(s)
	if m := doiPattern.FindStringSubmatch(s); m != nil {
		return map[string]any{"type": "DOI", "value": m[7]}, true
	}
	if m := isbnPattern.FindStringSubmatch(s); m != nil {
		if isbn, ok := normalizeISBN(m[2]); ok {
			return map[string]any{"type": "ISBN", "value": isbn}, true
		}
	}
	return nil, false
}

// normalizeISBN strips separators and verifies the checksum.
func normalizeISBN(s string) (string, bool) {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'x' || r == 'X':
			b.WriteByte('X')
		}
	}
	isbn := b.String()
	switch len(isbn) {
	case 10:
		return isbn, validISBN10(isbn)
	case 13:
		return isbn, validISBN13(isbn)
	}
	return "", false
}

func validISBN10(isbn string) bool {
	sum := 0
	for i, r := range isbn {
		var digit int
		if r == 'X' {
			if i != 9 {
				return false
			}
			digit = 10
		} else {
			digit = int(r - '0')
		}
		sum += (10 - i) * digit
	}
	return sum%11 == 0
}

func validISBN13(isbn string) bool {
	if strings.Contains(isbn, "X") {
		return false
	}
	sum := 0
	for i, r := range isbn {
		digit := int(r - '0')
		if i%2 == 1 {
			digit *= 3
		}
		sum += digit
	}
	return sum%10 == 0
}

// InvalidType is the mapping sentinel for source types that carry no
// information and must be discarded rather than passed through.
const InvalidType = "_invalid"

var nonLetters = regexp.MustCompile(`[^a-z]+`)

// typeTranslator derives the resource type as the full hierarchy of the
// matched tag: "Document:Report" yields ["Document", "Document:Report"].
type typeTranslator struct {
	spec  config.TypeSpec
	rules *rules
}

func newTypeTranslator(spec config.TypeSpec, r *rules) *typeTranslator {
	return &typeTranslator{spec: spec, rules: r}
}

func (t *typeTranslator) Field() string { return record.FieldType }

func (t *typeTranslator) Translate(rec record.Structured, _ record.Canonical, _ Hints, _ *record.Log) (any, bool) {
	for fields := t.spec.Fields; ; {
		field, value, present := Resolve(rec, fields)
		if !present {
			return nil, false
		}
		fields = fieldsAfter(fields, field)
		if tag, ok := t.process(value); ok {
			return expandHierarchy(tag), true
		}
	}
}

func (t *typeTranslator) process(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return t.fromString(v)
	case map[string]any:
		resolved, ok := Disambiguate(v, t.spec.KeyPriority, nil, nil)
		if !ok {
			return "", false
		}
		if s, ok := record.AsString(resolved); ok {
			return t.fromString(s)
		}
		return "", false
	case []any:
		// All entries are matched; a Dataset subtype wins over the rest.
		var first string
		found := false
		for _, item := range v {
			tag, ok := t.process(item)
			if !ok {
				continue
			}
			if strings.HasPrefix(tag, "Dataset") {
				return tag, true
			}
			if !found {
				first = tag
				found = true
			}
		}
		return first, found
	}
	return "", false
}

func (t *typeTranslator) fromString(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.Contains(s, "http") {
		// Code-list URIs carry the type in the last path segment.
		if i := strings.LastIndex(s, "/"); i >= 0 {
			s = s[i+1:]
		}
	}
	if len(s) > 32 {
		return "", false
	}
	key := nonLetters.ReplaceAllString(s, "")
	if key == "" {
		return "", false
	}
	// Substring heuristics run before the mapping so qualified source
	// vocabularies ("dataset:census") still resolve. "nongeo" values and
	// data papers are excluded from the geo and data matches.
	switch {
	case strings.Contains(key, "geo") && !strings.Contains(key, "nongeo"),
		strings.Contains(key, "map"):
		return "Dataset:Geographic", true
	case strings.Contains(key, "chart"), strings.Contains(key, "table"):
		return "Dataset:Tabular", true
	case strings.Contains(key, "document"):
		return "Document", true
	case strings.Contains(key, "report"):
		return "Document:Report", true
	case strings.Contains(key, "data") && key != "datapaper":
		return "Dataset", true
	}
	if tag, ok := t.spec.Mapping[key]; ok {
		return tag, tag != InvalidType
	}
	return "", false
}

// expandHierarchy lists a tag together with all its ancestors.
func expandHierarchy(tag string) []any {
	parts := strings.Split(tag, ":")
	out := make([]any, 0, len(parts))
	for i := range parts {
		out = append(out, strings.Join(parts[:i+1], ":"))
	}
	return out
}
