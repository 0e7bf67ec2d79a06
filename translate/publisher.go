package translate

import (
	"net/url"
	"sort"
	"strings"

	"github.com/OpenDaL/ingestion-and-transformation/config"
	"github.com/OpenDaL/ingestion-and-transformation/record"
)

// validURL reports whether s parses as an absolute http(s) URL.
func validURL(s string) bool {
	if !urlPattern.MatchString(s) {
		return false
	}
	u, err := url.Parse(s)
	return err == nil && u.Host != ""
}

// publisherTranslator derives the publisher field: the organization that
// made the resource available, with an optional homepage identifier.
type publisherTranslator struct {
	spec  config.PublisherSpec
	rules *rules
}

func newPublisherTranslator(spec config.PublisherSpec, r *rules) *publisherTranslator {
	return &publisherTranslator{spec: spec, rules: r}
}

func (t *publisherTranslator) Field() string { return record.FieldPublisher }

func (t *publisherTranslator) Translate(rec record.Structured, _ record.Canonical, _ Hints, log *record.Log) (any, bool) {
	for fields := t.spec.Fields; ; {
		field, value, present := Resolve(rec, fields)
		if !present {
			return nil, false
		}
		fields = fieldsAfter(fields, field)
		entry, ok := t.process(value)
		if !ok {
			continue
		}
		if out, ok := Validate(entry, &t.spec.Constraint, record.FieldPublisher, log); ok {
			return out, true
		}
	}
}

func (t *publisherTranslator) process(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case string:
		return t.fromString(v)
	case map[string]any:
		return t.fromObject(v)
	case []any:
		if preferred, ok := t.rules.preferredLanguageValue(v); ok {
			return t.process(preferred)
		}
		for _, item := range v {
			if entry, ok := t.process(item); ok {
				return entry, true
			}
		}
	}
	return nil, false
}

func (t *publisherTranslator) fromString(s string) (map[string]any, bool) {
	s = strings.TrimSpace(s)
	if validURL(s) {
		return nil, false
	}
	if !t.rules.validString(s, true, true) {
		return nil, false
	}
	name := normalizeName(s)
	if name == "" {
		return nil, false
	}
	return map[string]any{"name": name}, true
}

func (t *publisherTranslator) fromObject(obj map[string]any) (map[string]any, bool) {
	// A party tagged with a non-publisher role belongs to another field.
	if role, ok := objectRole(obj); ok && roleTarget(role) != record.FieldPublisher {
		return nil, false
	}
	var name string
	for _, key := range t.spec.KeyPriority {
		raw, present := obj[key]
		if !present || record.IsEmpty(raw) {
			continue
		}
		if nested, ok := record.AsObject(raw); ok {
			// Language-mapped names ({"en": ..., "fr": ...}).
			if s, ok := record.AsString(nested["en"]); ok {
				raw = s
			} else if s, ok := record.AsString(nested[t.rules.textKey]); ok {
				raw = s
			}
		}
		if s, ok := record.AsString(unwrapSingle(raw)); ok && t.rules.validString(s, true, true) {
			name = normalizeName(s)
			break
		}
	}
	if name == "" {
		return nil, false
	}
	entry := map[string]any{"name": name}
	for _, key := range t.spec.URLKeys {
		if s, ok := record.AsString(unwrapSingle(obj[key])); ok && validURL(strings.TrimSpace(s)) {
			entry["identifier"] = strings.TrimSpace(s)
			break
		}
	}
	return entry, true
}

// licenseTranslator derives the license field as {type, content} with an
// optional short name. A URL-typed content is the strongest outcome: it
// replaces free text found earlier and ends the search.
type licenseTranslator struct {
	spec  config.LicenseSpec
	rules *rules
}

func newLicenseTranslator(spec config.LicenseSpec, r *rules) *licenseTranslator {
	return &licenseTranslator{spec: spec, rules: r}
}

func (t *licenseTranslator) Field() string { return record.FieldLicense }

func (t *licenseTranslator) Translate(rec record.Structured, _ record.Canonical, _ Hints, log *record.Log) (any, bool) {
	result := make(map[string]any)
	for _, field := range t.spec.Fields {
		value, present := rec[field]
		if !present || record.IsEmpty(value) {
			continue
		}
		partial, ok := t.process(value)
		if !ok {
			continue
		}
		mergeLicense(result, partial)
		if result["type"] == "URL" && result["name"] != nil {
			break
		}
	}
	if _, hasContent := result["content"]; !hasContent {
		if name, ok := record.AsString(result["name"]); ok {
			result = map[string]any{"name": name, "type": "Text", "content": name}
		} else {
			return nil, false
		}
	}
	return Validate(result, &t.spec.Constraint, record.FieldLicense, log)
}

// mergeLicense folds a partial result into the accumulated one. Names fill
// a missing name; content replaces when absent or when a URL displaces
// text.
func mergeLicense(result, partial map[string]any) {
	if name, ok := partial["name"]; ok && result["name"] == nil {
		result["name"] = name
	}
	content, ok := partial["content"]
	if !ok {
		return
	}
	if result["content"] == nil || (partial["type"] == "URL" && result["type"] != "URL") {
		result["content"] = content
		result["type"] = partial["type"]
	}
}

func (t *licenseTranslator) process(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case string:
		return t.fromString(v)
	case map[string]any:
		return t.fromObject(v)
	case []any:
		if preferred, ok := t.rules.preferredLanguageValue(v); ok {
			return t.process(preferred)
		}
		for _, item := range v {
			if partial, ok := t.process(item); ok {
				return partial, true
			}
		}
	}
	return nil, false
}

func (t *licenseTranslator) fromString(s string) (map[string]any, bool) {
	s = strings.TrimSpace(s)
	if !t.rules.validString(s, false, true) {
		return nil, false
	}
	if validURL(s) {
		return map[string]any{"type": "URL", "content": s}, true
	}
	if t.isName(s) {
		return map[string]any{"name": s}, true
	}
	if len(s) > 64 {
		return map[string]any{"type": "Text", "content": s}, true
	}
	return nil, false
}

// isName recognizes short human-readable license names: a few words, or a
// known identifier prefix like cc-by.
func (t *licenseTranslator) isName(s string) bool {
	if strings.Contains(s, " ") && len(s) > 6 && len(s) <= 64 {
		return true
	}
	ls := strings.ToLower(s)
	for _, prefix := range t.spec.NameStartswith {
		if strings.HasPrefix(ls, prefix) {
			return true
		}
	}
	return false
}

func (t *licenseTranslator) fromObject(obj map[string]any) (map[string]any, bool) {
	result := make(map[string]any)
	keys := make([]string, 0, len(t.spec.KeyRoles))
	for key := range t.spec.KeyRoles {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	// URL keys first: a URL always beats free text.
	for _, wanted := range []string{"url", "text"} {
		for _, key := range keys {
			if t.spec.KeyRoles[key] != wanted {
				continue
			}
			s, ok := record.AsString(unwrapSingle(obj[key]))
			if !ok {
				continue
			}
			s = strings.TrimSpace(s)
			if s == "" || !t.rules.validString(s, false, true) {
				continue
			}
			switch wanted {
			case "url":
				if validURL(s) && result["type"] != "URL" {
					result["content"] = s
					result["type"] = "URL"
				}
			case "text":
				if t.isName(s) && result["name"] == nil {
					result["name"] = s
				}
				if result["content"] == nil {
					result["content"] = s
					result["type"] = "Text"
				}
			}
		}
	}
	if len(result) == 0 {
		return nil, false
	}
	return result, true
}

// maintenanceTranslator maps update-frequency phrases to the canonical
// interval vocabulary.
type maintenanceTranslator struct {
	spec  config.MaintenanceSpec
	rules *rules
}

func newMaintenanceTranslator(spec config.MaintenanceSpec, r *rules) *maintenanceTranslator {
	return &maintenanceTranslator{spec: spec, rules: r}
}

func (t *maintenanceTranslator) Field() string { return record.FieldMaintenance }

func (t *maintenanceTranslator) Translate(rec record.Structured, _ record.Canonical, _ Hints, _ *record.Log) (any, bool) {
	for fields := t.spec.Fields; ; {
		field, value, present := Resolve(rec, fields)
		if !present {
			return nil, false
		}
		fields = fieldsAfter(fields, field)
		if interval, ok := t.process(value); ok {
			return interval, true
		}
	}
}

func (t *maintenanceTranslator) process(value any) (string, bool) {
	switch v := unwrapSingle(value).(type) {
	case string:
		return t.lookup(v)
	case map[string]any:
		for _, key := range t.spec.PeriodKeys {
			if s, ok := record.AsString(v[key]); ok {
				if interval, ok := t.lookup(s); ok {
					return interval, true
				}
			}
		}
	}
	return "", false
}

func (t *maintenanceTranslator) lookup(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	// Frequencies arrive as plain words and as code-list URIs; only the
	// last path segment carries the phrase.
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	interval, ok := t.spec.Periods[s]
	return interval, ok
}
