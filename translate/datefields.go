package translate

import (
	"sort"
	"time"

	"github.com/OpenDaL/ingestion-and-transformation/config"
	"github.com/OpenDaL/ingestion-and-transformation/record"
)

// dateTranslator derives a single calendar date field (issued, modified or
// created). Candidates are gathered from the preparse hints and all source
// fields; a day-accurate candidate always beats a month- or year-accurate
// one, regardless of where it was found. Within the best accuracy tier the
// earliest (or, for modified, the latest) date wins, not the earliest
// field.
type dateTranslator struct {
	field  string
	spec   config.DateSpec
	parser *DateParser
	rules  *rules
}

func newDateTranslator(field string, spec config.DateSpec, r *rules) (*dateTranslator, error) {
	parser, err := NewDateParser(spec.Bounds, r)
	if err != nil {
		return nil, err
	}
	return &dateTranslator{field: field, spec: spec, parser: parser, rules: r}, nil
}

func (t *dateTranslator) Field() string { return t.field }

func (t *dateTranslator) Translate(rec record.Structured, _ record.Canonical, hints Hints, _ *record.Log) (any, bool) {
	var best ParsedDate
	found := false

	consider := func(d ParsedDate) {
		switch {
		case !found || d.Accuracy < best.Accuracy:
			best = d
			found = true
		case d.Accuracy == best.Accuracy && preferDate(d.Time, best.Time, t.spec.FavorEarliest):
			best = d
		}
	}

	if hint, ok := hints[t.field].(ParsedDate); ok {
		consider(hint)
	}
	for _, field := range t.spec.Fields {
		value, present := rec[field]
		if !present || record.IsEmpty(value) {
			continue
		}
		if d, ok := parseDateValue(value, t.parser, t.rules, t.spec.FavorEarliest); ok {
			consider(d)
		}
	}
	if !found {
		return nil, false
	}
	return t.parser.Format(best.Time), true
}

// parseDateValue parses one source value into a date. Lists yield their
// most accurate entry, with favorEarliest breaking ties inside that tier.
func parseDateValue(value any, parser *DateParser, r *rules, favorEarliest bool) (ParsedDate, bool) {
	switch v := value.(type) {
	case string:
		return parser.ParseString(v, false, false)
	case []any:
		var best ParsedDate
		found := false
		for _, item := range v {
			d, ok := parseDateValue(item, parser, r, favorEarliest)
			if !ok {
				continue
			}
			if !found || d.Accuracy < best.Accuracy {
				best = d
				found = true
				continue
			}
			if d.Accuracy == best.Accuracy && preferDate(d.Time, best.Time, favorEarliest) {
				best = d
			}
		}
		return best, found
	case map[string]any:
		if s, ok := record.AsString(v[r.textKey]); ok {
			return parser.ParseString(s, false, false)
		}
		return ParsedDate{}, false
	default:
		if n, ok := record.AsNumber(value); ok {
			return parser.ParseTimestamp(n)
		}
		return ParsedDate{}, false
	}
}

func preferDate(candidate, current time.Time, favorEarliest bool) bool {
	if favorEarliest {
		return candidate.Before(current)
	}
	return candidate.After(current)
}

// otherDatesTranslator gathers the typed dates that do not fit the three
// primary date fields (Accepted, Copyrighted, Submitted). One entry per
// type; the same accuracy preference as the single-date translators
// decides between duplicates.
type otherDatesTranslator struct {
	spec   config.OtherDatesSpec
	parser *DateParser
	rules  *rules
	// hintTypes holds the type tags this translator accepts from the
	// preparse stage, derived from the configured mapping values.
	hintTypes map[string]struct{}
}

func newOtherDatesTranslator(spec config.OtherDatesSpec, r *rules) (*otherDatesTranslator, error) {
	parser, err := NewDateParser(spec.Bounds, r)
	if err != nil {
		return nil, err
	}
	hintTypes := make(map[string]struct{}, len(spec.TypeMapping))
	for _, tag := range spec.TypeMapping {
		hintTypes[tag] = struct{}{}
	}
	return &otherDatesTranslator{
		spec: spec, parser: parser, rules: r, hintTypes: hintTypes,
	}, nil
}

func (t *otherDatesTranslator) Field() string { return record.FieldOtherDates }

func (t *otherDatesTranslator) Translate(rec record.Structured, _ record.Canonical, hints Hints, _ *record.Log) (any, bool) {
	byType := make(map[string]ParsedDate)
	var order []string

	consider := func(tag string, d ParsedDate) {
		existing, present := byType[tag]
		if !present {
			byType[tag] = d
			order = append(order, tag)
			return
		}
		if d.Accuracy < existing.Accuracy {
			byType[tag] = d
			return
		}
		if d.Accuracy == existing.Accuracy && preferDate(d.Time, existing.Time, t.spec.FavorEarliest) {
			byType[tag] = d
		}
	}

	hintTags := make([]string, 0, len(t.hintTypes))
	for tag := range t.hintTypes {
		hintTags = append(hintTags, tag)
	}
	sort.Strings(hintTags)
	for _, tag := range hintTags {
		if hint, ok := hints[tag].(ParsedDate); ok {
			consider(tag, hint)
		}
	}
	for _, field := range t.spec.Fields {
		tag, mapped := t.spec.TypeMapping[field]
		if !mapped {
			continue
		}
		value, present := rec[field]
		if !present || record.IsEmpty(value) {
			continue
		}
		if d, ok := parseDateValue(value, t.parser, t.rules, t.spec.FavorEarliest); ok {
			consider(tag, d)
		}
	}
	if len(byType) == 0 {
		return nil, false
	}

	out := make([]any, 0, len(byType))
	for _, tag := range order {
		out = append(out, map[string]any{
			"type":  tag,
			"value": t.parser.Format(byType[tag].Time),
		})
	}
	return out, true
}
