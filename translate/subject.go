package translate

import (
	"regexp"
	"sort"
	"strings"

	"github.com/OpenDaL/ingestion-and-transformation/config"
	"github.com/OpenDaL/ingestion-and-transformation/record"
)

var (
	phraseStrip    = regexp.MustCompile(`[-'&._\s]+`)
	quoteBraceTrim = regexp.MustCompile(`["{}\[\]]`)
	subjectSplit   = regexp.MustCompile(`[,;>]`)
)

// normalizePhrase folds a keyword to its index form: lowercase, diacritics
// folded, separators and punctuation collapsed away.
func normalizePhrase(s string) string {
	s = strings.ToLower(foldDiacritics(s))
	return phraseStrip.ReplaceAllString(s, "")
}

// Taxonomy is the subject graph indexed for phrase lookup. It is built
// once per engine and read-only afterwards.
type Taxonomy struct {
	subjects map[string]*config.Subject
	// phrases maps a normalized match phrase to the subject ids it
	// resolves to, across all languages.
	phrases map[string][]string
}

// NewTaxonomy indexes the configured subject graph.
func NewTaxonomy(subjects map[string]*config.Subject) *Taxonomy {
	t := &Taxonomy{
		subjects: subjects,
		phrases:  make(map[string][]string),
	}
	ids := make([]string, 0, len(subjects))
	for id := range subjects {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		seen := make(map[string]struct{})
		add := func(phrase string) {
			key := normalizePhrase(phrase)
			if key == "" {
				return
			}
			if _, dup := seen[key]; dup {
				return
			}
			seen[key] = struct{}{}
			t.phrases[key] = append(t.phrases[key], id)
		}
		add(id)
		add(subjects[id].Name)
		for _, phrases := range subjects[id].Matches {
			for _, phrase := range phrases {
				add(phrase)
			}
		}
	}
	return t
}

// Match resolves one keyword phrase to subject ids.
func (t *Taxonomy) Match(phrase string) []string {
	return t.phrases[normalizePhrase(phrase)]
}

// Broader returns every subject reachable from id through parent and
// relation edges, id excluded.
func (t *Taxonomy) Broader(id string) []string {
	visited := map[string]struct{}{id: {}}
	var out []string
	stack := []string{id}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		subj, ok := t.subjects[current]
		if !ok {
			continue
		}
		for _, next := range append(append([]string{}, subj.Parents...), subj.Relations...) {
			if _, done := visited[next]; done {
				continue
			}
			visited[next] = struct{}{}
			out = append(out, next)
			stack = append(stack, next)
		}
	}
	return out
}

// subjectTranslator matches source keywords against the subject taxonomy.
// Output carries both the full closure over broader subjects and the
// low-level matches themselves.
type subjectTranslator struct {
	spec     config.SubjectSpec
	rules    *rules
	taxonomy *Taxonomy
}

func newSubjectTranslator(spec config.SubjectSpec, taxonomy *Taxonomy, r *rules) *subjectTranslator {
	return &subjectTranslator{spec: spec, rules: r, taxonomy: taxonomy}
}

func (t *subjectTranslator) Field() string { return record.FieldSubject }

func (t *subjectTranslator) Translate(rec record.Structured, _ record.Canonical, _ Hints, log *record.Log) (any, bool) {
	matched := make(map[string]struct{})
	var order []string

	for _, field := range t.spec.Fields {
		value, present := rec[field]
		if !present || record.IsEmpty(value) {
			continue
		}
		phrases, ok := t.collectPhrases(value)
		if !ok {
			// A keyword list beyond the size cap is machine-generated
			// noise; the whole field stays absent rather than truncated.
			log.Reject(record.FieldSubject, record.ReasonListTooLong)
			return nil, false
		}
		for _, phrase := range phrases {
			for _, id := range t.taxonomy.Match(phrase) {
				if _, dup := matched[id]; !dup {
					matched[id] = struct{}{}
					order = append(order, id)
				}
			}
		}
	}
	if len(matched) == 0 {
		return nil, false
	}

	all := make(map[string]struct{}, len(matched))
	broader := make(map[string]struct{})
	for id := range matched {
		all[id] = struct{}{}
		for _, b := range t.taxonomy.Broader(id) {
			all[b] = struct{}{}
			broader[b] = struct{}{}
		}
	}

	allList := make([]any, 0, len(all))
	for _, id := range order {
		allList = append(allList, id)
	}
	extra := make([]string, 0, len(all)-len(matched))
	for id := range all {
		if _, direct := matched[id]; !direct {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	for _, id := range extra {
		allList = append(allList, id)
	}

	// Low-level subjects are the direct matches that no other match
	// already implies.
	lowLevel := make([]any, 0, len(matched))
	for _, id := range order {
		if _, implied := broader[id]; !implied {
			lowLevel = append(lowLevel, id)
		}
	}

	result := map[string]any{"all": allList, "low_level": lowLevel}
	return Validate(result, &t.spec.Constraint, record.FieldSubject, log)
}

// collectPhrases flattens a source value into keyword phrases. The second
// return is false when the value is a list beyond the configured cap.
func (t *subjectTranslator) collectPhrases(value any) ([]string, bool) {
	switch v := value.(type) {
	case string:
		return t.splitPhrases(v), true
	case []any:
		if len(v) > t.spec.SourceMaxSize {
			return nil, false
		}
		var out []string
		for _, item := range v {
			phrases, ok := t.collectPhrases(item)
			if !ok {
				return nil, false
			}
			out = append(out, phrases...)
		}
		return out, true
	case map[string]any:
		resolved, ok := Disambiguate(v, t.spec.KeyPriority, nil, nil)
		if !ok {
			return nil, true
		}
		if s, ok := record.AsString(resolved); ok {
			return t.splitPhrases(s), true
		}
		return nil, true
	}
	return nil, true
}

func (t *subjectTranslator) splitPhrases(s string) []string {
	s = quoteBraceTrim.ReplaceAllString(s, "")
	var out []string
	for _, part := range subjectSplit.Split(s, -1) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
