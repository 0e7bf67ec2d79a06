package translate

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/OpenDaL/ingestion-and-transformation/config"
	"github.com/OpenDaL/ingestion-and-transformation/record"
)

// Shared patterns used by several translators.
var (
	emailPattern = regexp.MustCompile(`^(mailto:)?[^@\s]+@[^@\s]+\.\w+`)
	yearPattern  = regexp.MustCompile(`^\d{4}$`)
	urlPattern   = regexp.MustCompile(`^https?://\S*$`)

	bracketsPattern = regexp.MustCompile(`\((.*?)\)`)
)

// rules holds the cross-cutting general configuration, shared read-only by
// all translators of one engine.
type rules struct {
	none           map[string]struct{}
	ignorePrefixes []string
	ignoreContains []string
	nowEquivalents map[string]struct{}
	languageKeys   []string
	langValueKeys  []string
	textKey        string
	dateFormat     string
	nowOffsetDays  int
}

func newRules(g config.General) *rules {
	r := &rules{
		none:           make(map[string]struct{}, len(g.NoneStrings)),
		ignorePrefixes: g.IgnoreStartswith,
		ignoreContains: g.IgnoreContains,
		nowEquivalents: make(map[string]struct{}, len(g.NowEquivalents)),
		languageKeys:   g.LanguageKeys,
		langValueKeys:  g.LanguageValueKeys,
		textKey:        g.TextKey,
		dateFormat:     g.DateFormat,
		nowOffsetDays:  g.NowOffsetDays,
	}
	for _, s := range g.NoneStrings {
		r.none[strings.ToLower(s)] = struct{}{}
	}
	for _, s := range g.NowEquivalents {
		r.nowEquivalents[strings.ToLower(s)] = struct{}{}
	}
	return r
}

// validString reports whether a string carries information. At its base it
// filters the configured "no information" values; checkPrefix and
// checkContains additionally apply the ignore lists.
func (r *rules) validString(s string, checkPrefix, checkContains bool) bool {
	ls := strings.ToLower(s)
	if _, none := r.none[ls]; none {
		return false
	}
	if checkPrefix {
		for _, prefix := range r.ignorePrefixes {
			if strings.HasPrefix(ls, prefix) {
				return false
			}
		}
	}
	if checkContains {
		for _, sub := range r.ignoreContains {
			if strings.Contains(ls, sub) {
				return false
			}
		}
	}
	return true
}

// preferredLanguageValue detects a list of language alternatives (objects
// carrying both a language key and a value key) and returns the first
// English alternative, falling back to the first entry. The second return
// is false when the list is not a language-alternatives list and should be
// processed by other means.
func (r *rules) preferredLanguageValue(list []any) (any, bool) {
	if len(list) == 0 {
		return nil, false
	}
	first, ok := record.AsObject(list[0])
	if !ok {
		return nil, false
	}
	languageKey := ""
	for _, k := range r.languageKeys {
		if _, present := first[k]; present {
			languageKey = k
			break
		}
	}
	if languageKey == "" {
		return nil, false
	}
	valueKey := ""
	for _, k := range r.langValueKeys {
		if _, present := first[k]; present {
			valueKey = k
			break
		}
	}
	if valueKey == "" {
		return nil, false
	}

	value := first[valueKey]
	for _, item := range list {
		obj, ok := record.AsObject(item)
		if !ok {
			continue
		}
		if lang, _ := record.AsString(obj[languageKey]); lang == "en" || lang == "#eng" {
			if v, present := obj[valueKey]; present && v != nil {
				value = v
				break
			}
		}
	}
	return value, true
}

var foldTransformer = transform.Chain(
	norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC,
)

// foldDiacritics strips combining marks so that "biodiversité" matches
// "biodiversite".
func foldDiacritics(s string) string {
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		return s
	}
	return out
}
