package translate

import (
	"strings"

	"github.com/OpenDaL/ingestion-and-transformation/config"
	"github.com/OpenDaL/ingestion-and-transformation/record"
)

// Hints carries preparsed values from the preparse stage to the
// translators, keyed by the canonical field (or date type tag) that should
// receive them.
type Hints map[string]any

// periodHint is a time period recovered from a combined date entry.
type periodHint struct {
	start ParsedDate
	end   ParsedDate
}

// Preparser splits a combined source field into per-translator hints and
// removes the consumed field from the record.
type Preparser interface {
	Preparse(rec record.Structured, hints Hints)
}

// datePreparser handles portals that publish one combined list of typed
// dates ({"type": "issued", "value": ...} entries) instead of separate
// date fields.
type datePreparser struct {
	spec   config.DatePreparserSpec
	parser *DateParser
	rules  *rules
}

func newDatePreparser(spec config.DatePreparserSpec, r *rules) (*datePreparser, error) {
	parser, err := NewDateParser(spec.Bounds, r)
	if err != nil {
		return nil, err
	}
	return &datePreparser{spec: spec, parser: parser, rules: r}, nil
}

func (p *datePreparser) Preparse(rec record.Structured, hints Hints) {
	for _, field := range p.spec.Fields {
		value, present := rec[field]
		if !present {
			continue
		}
		entries, ok := record.AsList(value)
		if !ok {
			entries = []any{value}
		}
		consumed := false
		for _, entry := range entries {
			obj, ok := record.AsObject(entry)
			if !ok {
				continue
			}
			if p.preparseEntry(obj, hints) {
				consumed = true
			}
		}
		if consumed {
			delete(rec, field)
		}
	}
}

// preparseEntry resolves one typed date object into a hint. It reports
// whether the entry was understood, so the source field is only removed
// when at least one entry contributed.
func (p *datePreparser) preparseEntry(obj map[string]any, hints Hints) bool {
	typeTag, ok := p.entryType(obj)
	if !ok {
		return false
	}
	rawValue, ok := p.entryValue(obj)
	if !ok {
		return false
	}

	// Collection periods written as "start/end" become a time period hint
	// rather than a single date.
	if typeTag == "collected" {
		if s, isString := record.AsString(rawValue); isString && strings.Count(s, "/") == 1 {
			if hint, ok := p.parsePeriod(s); ok {
				hints["timePeriod"] = hint
				return true
			}
		}
	}

	target, ok := p.spec.TypeTargets[typeTag]
	if !ok {
		return false
	}
	date, ok := p.parseValue(rawValue)
	if !ok {
		return false
	}

	// A record can carry several dates of the same type. The latest
	// modification wins; for every other type the earliest does.
	if existing, present := hints[target]; present {
		prev, isDate := existing.(ParsedDate)
		if !isDate {
			return false
		}
		if target == "modified" {
			if !date.Time.After(prev.Time) {
				return true
			}
		} else if !date.Time.Before(prev.Time) {
			return true
		}
	}
	hints[target] = date
	return true
}

func (p *datePreparser) entryType(obj map[string]any) (string, bool) {
	for _, key := range p.spec.TypeKeys {
		value, present := obj[key]
		if !present {
			continue
		}
		if s, ok := record.AsString(value); ok {
			return strings.ToLower(strings.TrimSpace(s)), true
		}
		if nested, ok := record.AsObject(value); ok {
			for _, objKey := range p.spec.TypeObjectKeys {
				if s, ok := record.AsString(nested[objKey]); ok {
					return strings.ToLower(strings.TrimSpace(s)), true
				}
			}
		}
	}
	return "", false
}

func (p *datePreparser) entryValue(obj map[string]any) (any, bool) {
	for _, key := range p.spec.ValueKeys {
		value, present := obj[key]
		if !present || record.IsEmpty(value) {
			continue
		}
		return value, true
	}
	return nil, false
}

func (p *datePreparser) parseValue(value any) (ParsedDate, bool) {
	switch v := value.(type) {
	case string:
		return p.parser.ParseString(v, false, false)
	case map[string]any:
		if s, ok := record.AsString(v[p.rules.textKey]); ok {
			return p.parser.ParseString(s, false, false)
		}
		return ParsedDate{}, false
	default:
		if n, ok := record.AsNumber(value); ok {
			return p.parser.ParseTimestamp(n)
		}
		return ParsedDate{}, false
	}
}

func (p *datePreparser) parsePeriod(s string) (periodHint, bool) {
	parts := strings.SplitN(s, "/", 2)
	if len(strings.TrimSpace(parts[0])) != len(strings.TrimSpace(parts[1])) {
		return periodHint{}, false
	}
	start, ok := p.parser.ParseString(parts[0], false, false)
	if !ok {
		return periodHint{}, false
	}
	end, ok := p.parser.ParseString(parts[1], true, false)
	if !ok || end.Time.Before(start.Time) {
		return periodHint{}, false
	}
	return periodHint{start: start, end: end}, true
}
