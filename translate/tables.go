package translate

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/OpenDaL/ingestion-and-transformation/config"
	"github.com/OpenDaL/ingestion-and-transformation/record"
)

// formatTranslator maps mime types, extensions and format phrases to the
// canonical format codes.
type formatTranslator struct {
	spec   config.FormatSpec
	table  map[string]string
	isCode map[string]struct{}
	rules  *rules
}

func newFormatTranslator(spec config.FormatSpec, tables config.Tables, r *rules) *formatTranslator {
	isCode := make(map[string]struct{}, len(tables.Formats))
	for _, code := range tables.Formats {
		isCode[code] = struct{}{}
	}
	return &formatTranslator{spec: spec, table: tables.Formats, isCode: isCode, rules: r}
}

func (t *formatTranslator) Field() string { return record.FieldFormat }

func (t *formatTranslator) Translate(rec record.Structured, _ record.Canonical, _ Hints, _ *record.Log) (any, bool) {
	var out []any
	seen := make(map[string]struct{})
	add := func(code string) {
		if _, dup := seen[code]; dup {
			return
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	for _, field := range t.spec.Fields {
		value, present := rec[field]
		if !present || record.IsEmpty(value) {
			continue
		}
		for _, code := range t.collect(value) {
			add(code)
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

func (t *formatTranslator) collect(value any) []string {
	switch v := value.(type) {
	case string:
		if code, ok := t.lookup(v); ok {
			return []string{code}
		}
	case []any:
		var out []string
		for _, item := range v {
			out = append(out, t.collect(item)...)
		}
		return out
	case map[string]any:
		for _, key := range []string{t.rules.textKey, "format", "mimetype", "name"} {
			if s, ok := record.AsString(v[key]); ok {
				if code, ok := t.lookup(s); ok {
					return []string{code}
				}
			}
		}
	}
	return nil
}

func (t *formatTranslator) lookup(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "zipped ")
	s = strings.TrimSuffix(s, " file")
	if s == "" {
		return "", false
	}
	if code, ok := t.table[s]; ok {
		return code, true
	}
	// "Esri shapefile (zip)" carries the format in brackets.
	if m := bracketsPattern.FindStringSubmatch(s); m != nil {
		if code, ok := t.table[strings.TrimSpace(m[1])]; ok {
			return code, true
		}
	}
	return t.plainExtension(s)
}

var extensionStrip = regexp.MustCompile(`[^a-z]`)

// plainExtension recovers a format code from a bare extension list like
// ".csv, .xlsx" that the table does not carry verbatim.
func (t *formatTranslator) plainExtension(s string) (string, bool) {
	if strings.Contains(s, " ") {
		return "", false
	}
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '/' }) {
		part = extensionStrip.ReplaceAllString(part, "")
		if len(part) < 2 || len(part) > 5 {
			continue
		}
		if code, ok := t.table[part]; ok {
			return code, true
		}
		upper := strings.ToUpper(part)
		if _, known := t.isCode[upper]; known {
			return upper, true
		}
	}
	return "", false
}

// languageTranslator maps language names and codes to ISO 639-1, keeping
// the order languages were first seen across all source fields.
type languageTranslator struct {
	spec  config.LanguageSpec
	table map[string]string
	codes map[string]struct{}
	rules *rules
}

func newLanguageTranslator(spec config.LanguageSpec, tables config.Tables, r *rules) *languageTranslator {
	codes := make(map[string]struct{}, len(tables.Languages))
	for _, code := range tables.Languages {
		codes[code] = struct{}{}
	}
	return &languageTranslator{spec: spec, table: tables.Languages, codes: codes, rules: r}
}

func (t *languageTranslator) Field() string { return record.FieldLanguage }

func (t *languageTranslator) Translate(rec record.Structured, _ record.Canonical, _ Hints, _ *record.Log) (any, bool) {
	var out []any
	seen := make(map[string]struct{})
	add := func(code string) {
		if _, dup := seen[code]; dup {
			return
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	for _, field := range t.spec.Fields {
		value, present := rec[field]
		if !present || record.IsEmpty(value) {
			continue
		}
		for _, code := range t.collect(value) {
			add(code)
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

func (t *languageTranslator) collect(value any) []string {
	switch v := value.(type) {
	case string:
		return t.fromString(v)
	case []any:
		var out []string
		for _, item := range v {
			out = append(out, t.collect(item)...)
		}
		return out
	case map[string]any:
		resolved, ok := Disambiguate(v, t.spec.KeyPriority, nil, nil)
		if !ok {
			return nil
		}
		if s, ok := record.AsString(resolved); ok {
			return t.fromString(s)
		}
	}
	return nil
}

func (t *languageTranslator) fromString(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		for _, token := range splitLanguageToken(part) {
			if code, ok := t.lookup(token); ok {
				out = append(out, code)
			}
		}
	}
	return out
}

// splitLanguageToken breaks one entry into lookup candidates: code-list
// URIs keep their last segment, "en/fr" and "english and french" split,
// bracketed codes ("English (en)") contribute both parts.
func splitLanguageToken(s string) []string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return nil
	}
	if strings.Contains(s, "http") {
		if i := strings.LastIndex(s, "/"); i >= 0 {
			s = s[i+1:]
		}
	}
	if strings.Contains(s, "/") {
		var out []string
		for _, part := range strings.Split(s, "/") {
			out = append(out, splitLanguageToken(part)...)
		}
		return out
	}
	for _, sep := range []string{" and ", " or "} {
		if strings.Contains(s, sep) {
			var out []string
			for _, part := range strings.Split(s, sep) {
				out = append(out, splitLanguageToken(part)...)
			}
			return out
		}
	}
	if m := bracketsPattern.FindStringSubmatch(s); m != nil {
		inner := strings.TrimSpace(m[1])
		outer := strings.TrimSpace(bracketsPattern.ReplaceAllString(s, ""))
		var out []string
		if outer != "" {
			out = append(out, outer)
		}
		if inner != "" {
			out = append(out, inner)
		}
		return out
	}
	if i := strings.Index(s, ":"); i >= 0 {
		s = s[i+1:]
	}
	return []string{strings.TrimSpace(s)}
}

func (t *languageTranslator) lookup(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	// Locale codes like en-US or nl_NL reduce to their language part.
	if i := strings.IndexAny(s, "-_"); i == 2 {
		s = s[:2]
	}
	if len(s) == 2 {
		if _, known := t.codes[s]; known {
			return s, true
		}
	}
	if code, ok := t.table[s]; ok {
		return code, true
	}
	if code, ok := t.table[foldDiacritics(s)]; ok {
		return code, true
	}
	return "", false
}

var (
	epsgRefPattern = regexp.MustCompile(`(?i)epsg:{1,2}(\d+)`)
	wktCRSPattern  = regexp.MustCompile(`(?i)(projcs|geogcs)\["([^"]+)"`)
)

// coordSysTranslator maps spatial reference descriptions to EPSG codes.
type coordSysTranslator struct {
	spec  config.CoordSysSpec
	codes map[int]struct{}
	names map[string]int
	rules *rules
}

func newCoordSysTranslator(spec config.CoordSysSpec, tables config.Tables, r *rules) *coordSysTranslator {
	codes := make(map[int]struct{}, len(tables.EPSGCodes))
	for _, code := range tables.EPSGCodes {
		codes[code] = struct{}{}
	}
	return &coordSysTranslator{spec: spec, codes: codes, names: tables.EPSGNames, rules: r}
}

func (t *coordSysTranslator) Field() string { return record.FieldCoordinateSystem }

func (t *coordSysTranslator) Translate(rec record.Structured, _ record.Canonical, _ Hints, _ *record.Log) (any, bool) {
	var out []any
	seen := make(map[int]struct{})
	add := func(code int) {
		if _, dup := seen[code]; dup {
			return
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	for _, field := range t.spec.Fields {
		value, present := rec[field]
		if !present || record.IsEmpty(value) {
			continue
		}
		for _, code := range t.collect(value) {
			add(code)
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

func (t *coordSysTranslator) collect(value any) []int {
	switch v := value.(type) {
	case string:
		return t.fromString(v)
	case []any:
		var out []int
		for _, item := range v {
			out = append(out, t.collect(item)...)
		}
		return out
	case map[string]any:
		resolved, ok := Disambiguate(v, t.spec.KeyPriority, nil, nil)
		if !ok {
			return nil
		}
		return t.collect(resolved)
	default:
		if n, ok := record.AsNumber(value); ok {
			code := int(n)
			if _, known := t.codes[code]; known && float64(code) == n {
				return []int{code}
			}
		}
	}
	return nil
}

func (t *coordSysTranslator) fromString(s string) []int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if matches := epsgRefPattern.FindAllStringSubmatch(s, -1); matches != nil {
		var out []int
		for _, m := range matches {
			if code, err := strconv.Atoi(m[1]); err == nil {
				if _, known := t.codes[code]; known {
					out = append(out, code)
				}
			}
		}
		return out
	}
	if m := wktCRSPattern.FindStringSubmatch(s); m != nil {
		if code, ok := t.names[strings.ToLower(m[2])]; ok {
			return []int{code}
		}
		return nil
	}
	ls := strings.ToLower(s)
	if strings.Contains(ls, "wgs") && strings.Contains(ls, "84") {
		return []int{4326}
	}
	if code, ok := t.names[ls]; ok {
		return []int{code}
	}
	if code, err := strconv.Atoi(s); err == nil {
		if _, known := t.codes[code]; known {
			return []int{code}
		}
	}
	return nil
}
