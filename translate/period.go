package translate

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/OpenDaL/ingestion-and-transformation/config"
	"github.com/OpenDaL/ingestion-and-transformation/record"
)

// Period is one resolved time interval.
type Period struct {
	Start time.Time
	End   time.Time
}

var (
	isoDurationPattern = regexp.MustCompile(`(?i)^p(?:(\d+)y)?(?:(\d+)m)?(?:(\d+)w)?(?:(\d+)d)?(t\S+)?$`)
	lettersPattern     = regexp.MustCompile(`[A-Za-z]{3,}`)
)

// addISODuration applies an ISO-8601 duration string to a start date. The
// sub-day time component is ignored: output precision is one day.
func addISODuration(start time.Time, duration string) (time.Time, bool) {
	m := isoDurationPattern.FindStringSubmatch(strings.TrimSpace(duration))
	if m == nil {
		return time.Time{}, false
	}
	years, _ := strconv.Atoi(zeroDefault(m[1]))
	months, _ := strconv.Atoi(zeroDefault(m[2]))
	weeks, _ := strconv.Atoi(zeroDefault(m[3]))
	days, _ := strconv.Atoi(zeroDefault(m[4]))
	if years == 0 && months == 0 && weeks == 0 && days == 0 {
		return time.Time{}, false
	}
	return start.AddDate(years, months, weeks*7+days), true
}

func zeroDefault(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

// timePeriodTranslator derives the temporal coverage as a list of
// intervals. Overlapping candidates merge into their union; disjoint
// candidates stay separate.
type timePeriodTranslator struct {
	spec   config.TimePeriodSpec
	parser *DateParser
	rules  *rules
}

func newTimePeriodTranslator(spec config.TimePeriodSpec, r *rules) (*timePeriodTranslator, error) {
	parser, err := NewDateParser(spec.Bounds, r)
	if err != nil {
		return nil, err
	}
	return &timePeriodTranslator{spec: spec, parser: parser, rules: r}, nil
}

func (t *timePeriodTranslator) Field() string { return record.FieldTimePeriod }

func (t *timePeriodTranslator) Translate(rec record.Structured, _ record.Canonical, hints Hints, _ *record.Log) (any, bool) {
	var periods []Period

	if hint, ok := hints["timePeriod"].(periodHint); ok {
		periods = append(periods, Period{Start: hint.start.Time, End: hint.end.Time})
	}
	for _, pair := range t.spec.BeginEndFieldPairs {
		startValue, startPresent := rec[pair[0]]
		if !startPresent || record.IsEmpty(startValue) {
			continue
		}
		start, ok := t.parseEdge(startValue, false)
		if !ok {
			continue
		}
		end := t.parser.Now()
		if endValue, present := rec[pair[1]]; present && !record.IsEmpty(endValue) {
			if parsed, ok := t.parseEdge(endValue, true); ok {
				end = parsed
			}
		}
		if p, ok := t.validPeriod(start, end); ok {
			periods = append(periods, p)
		}
	}
	for _, field := range t.spec.Fields {
		value, present := rec[field]
		if !present || record.IsEmpty(value) {
			continue
		}
		periods = append(periods, t.process(value)...)
	}

	periods = MergePeriods(periods)
	if len(periods) == 0 {
		return nil, false
	}
	out := make([]any, 0, len(periods))
	for _, p := range periods {
		out = append(out, map[string]any{
			"type":  "About",
			"start": t.parser.Format(p.Start),
			"end":   t.parser.Format(p.End),
		})
	}
	return out, true
}

func (t *timePeriodTranslator) process(value any) []Period {
	switch v := value.(type) {
	case string:
		if p, ok := t.fromString(v); ok {
			return []Period{p}
		}
	case map[string]any:
		if p, ok := t.fromObject(v); ok {
			return []Period{p}
		}
	case []any:
		var out []Period
		for _, item := range v {
			out = append(out, t.process(item)...)
		}
		return out
	}
	return nil
}

func (t *timePeriodTranslator) fromString(s string) (Period, bool) {
	ls := strings.ToLower(strings.TrimSpace(s))
	for _, remove := range t.spec.RemoveStrings {
		ls = strings.ReplaceAll(ls, remove, "")
	}
	ls = strings.TrimSpace(ls)
	if ls == "" || len(ls) > 64 {
		return Period{}, false
	}

	// ISO-8601 repeating interval: "R/2015-01-01/P1Y".
	if strings.HasPrefix(ls, "r/") {
		ls = ls[2:]
	}

	for _, sep := range t.spec.Separators {
		before, after, found := strings.Cut(ls, sep)
		if !found {
			continue
		}
		before = strings.TrimSpace(before)
		after = strings.TrimSpace(after)
		if before == "" || after == "" {
			continue
		}
		if sep == "/" && !splittable(before, after) {
			// "01/02/2015" is one date, not a period.
			continue
		}
		start, ok := t.parser.ParseString(before, false, true)
		if !ok {
			continue
		}
		var end time.Time
		if strings.HasPrefix(after, "p") {
			if e, ok := addISODuration(start.Time, after); ok {
				end = e
			} else {
				continue
			}
		} else if parsed, ok := t.parser.ParseString(after, true, false); ok {
			end = parsed.Time
		} else {
			continue
		}
		return t.validPeriod(start.Time, end)
	}

	// A bare year or month denotes the period it spans.
	if yearPattern.MatchString(ls) || yearMonthPattern.MatchString(ls) {
		start, okStart := t.parser.ParseString(ls, false, true)
		end, okEnd := t.parser.ParseString(ls, true, true)
		if okStart && okEnd {
			return t.validPeriod(start.Time, end.Time)
		}
	}
	return Period{}, false
}

// splittable guards the "/" separator against slashed single dates: the
// halves must be equally long, or at least one must spell out a month.
func splittable(before, after string) bool {
	if len(before) == len(after) {
		return true
	}
	return lettersPattern.MatchString(before) || lettersPattern.MatchString(after) ||
		strings.HasPrefix(after, "p")
}

func (t *timePeriodTranslator) fromObject(obj map[string]any) (Period, bool) {
	var start time.Time
	found := false
	for _, key := range t.spec.StartKeys {
		value, present := obj[key]
		if !present || record.IsEmpty(value) {
			continue
		}
		if parsed, ok := t.parseEdge(value, false); ok {
			start = parsed
			found = true
			break
		}
	}
	if !found {
		return Period{}, false
	}
	end := t.parser.Now()
	for _, key := range t.spec.EndKeys {
		value, present := obj[key]
		if !present || record.IsEmpty(value) {
			continue
		}
		if parsed, ok := t.parseEdge(value, true); ok {
			end = parsed
			break
		}
	}
	return t.validPeriod(start, end)
}

func (t *timePeriodTranslator) parseEdge(value any, periodEnd bool) (time.Time, bool) {
	switch v := unwrapSingle(value).(type) {
	case string:
		if parsed, ok := t.parser.ParseString(v, periodEnd, false); ok {
			return parsed.Time, true
		}
	case map[string]any:
		if s, ok := record.AsString(v[t.rules.textKey]); ok {
			if parsed, ok := t.parser.ParseString(s, periodEnd, false); ok {
				return parsed.Time, true
			}
		}
	default:
		if n, ok := record.AsNumber(v); ok {
			if parsed, ok := t.parser.ParseTimestamp(n); ok {
				return parsed.Time, true
			}
		}
	}
	return time.Time{}, false
}

func (t *timePeriodTranslator) validPeriod(start, end time.Time) (Period, bool) {
	if end.Before(start) {
		return Period{}, false
	}
	return Period{Start: start, End: end}, true
}

// MergePeriods unions overlapping periods and keeps disjoint ones apart,
// ordered by start date.
func MergePeriods(periods []Period) []Period {
	if len(periods) < 2 {
		return periods
	}
	sorted := make([]Period, len(periods))
	copy(sorted, periods)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start.Equal(sorted[j].Start) {
			return sorted[i].End.Before(sorted[j].End)
		}
		return sorted[i].Start.Before(sorted[j].Start)
	})
	out := []Period{sorted[0]}
	for _, p := range sorted[1:] {
		last := &out[len(out)-1]
		if !p.Start.After(last.End) {
			if p.End.After(last.End) {
				last.End = p.End
			}
			continue
		}
		out = append(out, p)
	}
	return out
}
