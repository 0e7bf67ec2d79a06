package translate

import (
	"regexp"
	"sort"
	"strings"

	"github.com/OpenDaL/ingestion-and-transformation/config"
	"github.com/OpenDaL/ingestion-and-transformation/record"
)

// roleTargets maps lowercase responsible-party roles to the canonical
// field that should receive the party. Roles are matched by suffix, since
// several portals publish them as full code-list URIs.
var roleTargets = map[string]string{
	"author":                record.FieldCreator,
	"principalinvestigator": record.FieldCreator,
	"coinvestigator":        record.FieldCreator,
	"pointofcontact":        record.FieldContact,
	"distributor":           record.FieldPublisher,
	"originator":            record.FieldPublisher,
	"publisher":             record.FieldPublisher,
	"resourceprovider":      record.FieldPublisher,
	"owner":                 record.FieldPublisher,
}

// roleTarget resolves a role value to a canonical field, or "" when the
// role is unknown.
func roleTarget(role string) string {
	role = strings.ToLower(strings.TrimSpace(role))
	for suffix, target := range roleTargets {
		if strings.HasSuffix(role, suffix) {
			return target
		}
	}
	return ""
}

var (
	initialsPattern = regexp.MustCompile(`^([A-Z]\.?){1,2}$`)
	digitsPattern   = regexp.MustCompile(`\d`)
	namePattern     = regexp.MustCompile(`^[\pL\s.,'-]+$`)
)

// normalizeName cleans a personal or organizational name: bracketed
// annotations go, and a single "Last, First" comma is reversed when both
// sides look like name parts.
func normalizeName(s string) string {
	s = bracketsPattern.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), " ")
	if strings.Count(s, ",") == 1 {
		parts := strings.SplitN(s, ",", 2)
		last := strings.TrimSpace(parts[0])
		first := strings.TrimSpace(parts[1])
		if last != "" && first != "" && strings.Count(last, " ") <= 1 {
			firstSpaces := strings.Count(first, " ")
			reversible := firstSpaces == 0
			if firstSpaces == 1 {
				// "Smith, John A." style, where one part is initials.
				halves := strings.SplitN(first, " ", 2)
				reversible = initialsPattern.MatchString(halves[0]) ||
					initialsPattern.MatchString(halves[1])
			}
			if reversible {
				s = first + " " + last
			}
		}
	}
	return strings.TrimSpace(s)
}

// validName reports whether s is usable as a party name.
func validName(s string) bool {
	if s == "" || emailPattern.MatchString(s) || urlPattern.MatchString(s) {
		return false
	}
	return namePattern.MatchString(s) && !digitsPattern.MatchString(s)
}

// splitNames breaks a combined author string on its separator. Only
// separators that occur at least once split; a bare name passes through.
func splitNames(s string) []string {
	for _, sep := range []string{";", " & ", " and "} {
		if strings.Contains(s, sep) {
			parts := strings.Split(s, sep)
			out := make([]string, 0, len(parts))
			for _, p := range parts {
				if p = strings.TrimSpace(p); p != "" {
					out = append(out, p)
				}
			}
			return out
		}
	}
	return []string{strings.TrimSpace(s)}
}

// creatorTranslator derives the creator field: the people or organizations
// that produced the resource.
type creatorTranslator struct {
	spec  config.CreatorSpec
	rules *rules
	// orgFields marks source fields whose values are organizations by
	// definition, never personal names.
	orgFields map[string]struct{}
}

func newCreatorTranslator(spec config.CreatorSpec, r *rules) *creatorTranslator {
	orgFields := make(map[string]struct{}, len(spec.OrganizationFields))
	for _, f := range spec.OrganizationFields {
		orgFields[f] = struct{}{}
	}
	return &creatorTranslator{spec: spec, rules: r, orgFields: orgFields}
}

func (t *creatorTranslator) Field() string { return record.FieldCreator }

func (t *creatorTranslator) Translate(rec record.Structured, _ record.Canonical, _ Hints, log *record.Log) (any, bool) {
	for fields := t.spec.Fields; ; {
		field, value, present := Resolve(rec, fields)
		if !present {
			return nil, false
		}
		fields = fieldsAfter(fields, field)
		_, isOrg := t.orgFields[field]
		entries := t.process(value, isOrg)
		if len(entries) == 0 {
			continue
		}
		if out, ok := Validate(entries, &t.spec.Constraint, record.FieldCreator, log); ok {
			return out, true
		}
		// An overlong creator list rejects the whole field, and a later
		// field will not do better.
		return nil, false
	}
}

func (t *creatorTranslator) process(value any, isOrg bool) []any {
	switch v := value.(type) {
	case string:
		return t.fromString(v, isOrg)
	case map[string]any:
		if entry, ok := t.fromObject(v, isOrg); ok {
			return []any{entry}
		}
		return nil
	case []any:
		if preferred, ok := t.rules.preferredLanguageValue(v); ok {
			return t.process(preferred, isOrg)
		}
		var out []any
		for _, item := range v {
			out = append(out, t.process(item, isOrg)...)
		}
		return out
	}
	return nil
}

func (t *creatorTranslator) fromString(s string, isOrg bool) []any {
	if !t.rules.validString(s, true, true) {
		return nil
	}
	var out []any
	for _, part := range splitNames(s) {
		name := normalizeName(part)
		if isOrg {
			if name != "" && !emailPattern.MatchString(name) && !urlPattern.MatchString(name) {
				out = append(out, map[string]any{"organization": name})
			}
			continue
		}
		if validName(name) {
			out = append(out, map[string]any{"name": name})
		}
	}
	return out
}

// fromObject handles the structured author shapes the portals publish:
// plain name objects with an optional role, given/family name pairs, and
// DataCite-style creatorName entries with affiliation and identifier.
func (t *creatorTranslator) fromObject(obj map[string]any, isOrg bool) (map[string]any, bool) {
	if role, ok := objectRole(obj); ok && roleTarget(role) != record.FieldCreator {
		return nil, false
	}

	if given, ok := record.AsString(obj["givenName"]); ok {
		if family, ok := record.AsString(obj["familyName"]); ok {
			name := normalizeName(given + " " + family)
			if validName(name) {
				return map[string]any{"name": name}, true
			}
			return nil, false
		}
	}

	for _, key := range []string{"creatorName", "authorName"} {
		raw, present := obj[key]
		if !present {
			continue
		}
		if nested, ok := record.AsObject(raw); ok {
			raw = nested[t.rules.textKey]
		}
		s, ok := record.AsString(raw)
		if !ok {
			continue
		}
		name := normalizeName(s)
		if !validName(name) {
			return nil, false
		}
		entry := map[string]any{"name": name}
		if aff, ok := record.AsString(unwrapSingle(obj["affiliation"])); ok && t.rules.validString(aff, false, false) {
			entry["affiliation"] = strings.TrimSpace(aff)
		}
		if id, ok := record.AsObject(obj["nameIdentifier"]); ok {
			scheme, _ := record.AsString(id["nameIdentifierScheme"])
			value, _ := record.AsString(id[t.rules.textKey])
			if scheme != "" && value != "" {
				entry["identifier"] = strings.ReplaceAll(value, "-", "")
				entry["identifierScheme"] = scheme
			}
		}
		return entry, true
	}

	for _, key := range []string{"name", "Name", "Organisation", "organisation", "organization"} {
		s, ok := record.AsString(obj[key])
		if !ok {
			continue
		}
		name := normalizeName(s)
		orgKey := isOrg || (key != "name" && key != "Name")
		if orgKey {
			if name != "" && !emailPattern.MatchString(name) && !urlPattern.MatchString(name) {
				return map[string]any{"organization": name}, true
			}
			return nil, false
		}
		if validName(name) {
			return map[string]any{"name": name}, true
		}
		return nil, false
	}
	return nil, false
}

// objectRole reads a responsible-party role tag from an object.
func objectRole(obj map[string]any) (string, bool) {
	for _, key := range []string{"role", "roles", "Role", "type"} {
		value, present := obj[key]
		if !present {
			continue
		}
		if s, ok := record.AsString(unwrapSingle(value)); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

var phonePattern = regexp.MustCompile(`^\+?[\d\s-]{5,24}$`)

// contactTranslator derives the contact field: who to reach about the
// resource, as name plus one contact detail.
type contactTranslator struct {
	spec  config.ContactSpec
	rules *rules
	// roleFields holds the fallback fields in deterministic order.
	roleFields []string
}

func newContactTranslator(spec config.ContactSpec, r *rules) *contactTranslator {
	fields := make([]string, 0, len(spec.FieldRoles))
	ranked := make(map[string]struct{}, len(spec.FieldPriority))
	for _, f := range spec.FieldPriority {
		if _, known := spec.FieldRoles[f]; known {
			fields = append(fields, f)
			ranked[f] = struct{}{}
		}
	}
	// Fields missing from the priority list rank last, alphabetically so
	// runs stay reproducible.
	rest := make([]string, 0, len(spec.FieldRoles))
	for f := range spec.FieldRoles {
		if _, ok := ranked[f]; !ok {
			rest = append(rest, f)
		}
	}
	sort.Strings(rest)
	return &contactTranslator{spec: spec, rules: r, roleFields: append(fields, rest...)}
}

func (t *contactTranslator) Field() string { return record.FieldContact }

func (t *contactTranslator) Translate(rec record.Structured, _ record.Canonical, _ Hints, log *record.Log) (any, bool) {
	var contacts []any
	seen := make(map[string]struct{})

	add := func(name, details, detailsType string) {
		if _, dup := seen[details]; dup {
			return
		}
		seen[details] = struct{}{}
		contacts = append(contacts, map[string]any{
			"name":        name,
			"details":     details,
			"detailsType": detailsType,
		})
	}

	for _, pair := range t.spec.PrimaryPairs {
		nameValue, namePresent := rec[pair[0]]
		detailsValue, detailsPresent := rec[pair[1]]
		if !namePresent || !detailsPresent {
			continue
		}
		name, ok := t.contactName(nameValue)
		if !ok {
			continue
		}
		details, detailsType, ok := t.contactDetails(detailsValue)
		if !ok {
			continue
		}
		add(name, details, detailsType)
	}

	if len(contacts) == 0 {
		// No pair matched; reassemble one contact from whatever single
		// fields carry a name and a detail.
		var name, details, detailsType string
		for _, field := range t.roleFields {
			value, present := rec[field]
			if !present || record.IsEmpty(value) {
				continue
			}
			for _, role := range t.spec.FieldRoles[field] {
				switch role {
				case "name":
					if name == "" {
						if n, ok := t.contactName(value); ok {
							name = n
						}
					}
				case "details":
					if details == "" {
						if d, dt, ok := t.contactDetails(value); ok {
							details, detailsType = d, dt
						}
					}
				}
			}
		}
		if name != "" && details != "" {
			add(name, details, detailsType)
		}
	}

	if len(contacts) == 0 {
		return nil, false
	}
	return Validate(contacts, &t.spec.Constraint, record.FieldContact, log)
}

func (t *contactTranslator) contactName(value any) (string, bool) {
	value = unwrapSingle(value)
	if obj, ok := record.AsObject(value); ok {
		for _, key := range t.spec.NameKeys {
			if s, ok := record.AsString(obj[key]); ok && s != "" {
				value = s
				break
			}
		}
	}
	s, ok := record.AsString(value)
	if !ok || !t.rules.validString(s, true, true) {
		return "", false
	}
	if strings.Count(s, ",") > 1 {
		return "", false
	}
	name := normalizeName(s)
	if !validName(name) {
		return "", false
	}
	return name, true
}

// contactDetails classifies a contact detail as email, phone or address.
// Emails lose a mailto: prefix; addresses must show some structure to be
// distinguishable from free text.
func (t *contactTranslator) contactDetails(value any) (string, string, bool) {
	value = unwrapSingle(value)
	if obj, ok := record.AsObject(value); ok {
		for _, group := range []struct{ key, typ string }{
			{"email", "Email"}, {"phone", "Phone"}, {"address", "Address"},
		} {
			for _, key := range t.spec.DetailKeys[group.key] {
				if s, ok := record.AsString(unwrapSingle(obj[key])); ok && s != "" {
					if details, dt, ok := classifyDetails(s, group.typ); ok {
						return details, dt, true
					}
				}
			}
		}
		return "", "", false
	}
	s, ok := record.AsString(value)
	if !ok {
		return "", "", false
	}
	return classifyDetails(s, "")
}

func classifyDetails(s, hint string) (string, string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", "", false
	}
	if emailPattern.MatchString(s) {
		return strings.TrimPrefix(s, "mailto:"), "Email", true
	}
	if phonePattern.MatchString(s) {
		return s, "Phone", true
	}
	if (hint == "" || hint == "Address") &&
		(strings.Contains(s, ",") || strings.Contains(s, "\n")) {
		return s, "Address", true
	}
	return "", "", false
}
