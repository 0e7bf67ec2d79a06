package translate

import (
	"regexp"
	"strconv"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	xhtml "golang.org/x/net/html"

	"github.com/OpenDaL/ingestion-and-transformation/config"
	"github.com/OpenDaL/ingestion-and-transformation/record"
)

var (
	markupPattern       = regexp.MustCompile(`<[a-zA-Z!/][^>]*>`)
	markdownLinkPattern = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	markdownSyntax      = regexp.MustCompile("[*_`#\\\\]+")
	spaceRuns           = regexp.MustCompile(`[ \t]+`)
	blankLineRuns       = regexp.MustCompile(`\n{3,}`)
)

var htmlConverter = md.NewConverter("", true, nil)

// CleanText strips markup from free text. HTML goes through the markdown
// converter so paragraph structure survives as line breaks, then the
// markdown syntax itself is removed. Whitespace is normalized either way.
func CleanText(s string) string {
	if markupPattern.MatchString(s) {
		converted, err := htmlConverter.ConvertString(s)
		if err != nil {
			converted = htmlNodeText(s)
		}
		s = converted
	}
	s = markdownLinkPattern.ReplaceAllString(s, "$1")
	s = markdownSyntax.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = spaceRuns.ReplaceAllString(s, " ")
	s = blankLineRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// htmlNodeText extracts the text nodes of malformed HTML the converter
// refuses.
func htmlNodeText(s string) string {
	doc, err := xhtml.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}
	var b strings.Builder
	var walk func(n *xhtml.Node)
	walk = func(n *xhtml.Node) {
		if n.Type == xhtml.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return b.String()
}

// textTranslator derives the title and description fields.
type textTranslator struct {
	field string
	spec  config.TextSpec
	rules *rules
}

func newTextTranslator(field string, spec config.TextSpec, r *rules) *textTranslator {
	return &textTranslator{field: field, spec: spec, rules: r}
}

func (t *textTranslator) Field() string { return t.field }

func (t *textTranslator) Translate(rec record.Structured, _ record.Canonical, _ Hints, log *record.Log) (any, bool) {
	for fields := t.spec.Fields; ; {
		field, value, present := Resolve(rec, fields)
		if !present {
			return nil, false
		}
		fields = fieldsAfter(fields, field)
		if list, ok := record.AsList(value); ok {
			if preferred, ok := t.rules.preferredLanguageValue(list); ok {
				value = preferred
			}
		}
		resolved, ok := Disambiguate(value, t.spec.KeyPriority, t.spec.TypeKeys, t.spec.TypePriority)
		if !ok {
			continue
		}
		s, ok := record.AsString(resolved)
		if !ok {
			continue
		}
		s = CleanText(s)
		if s == "" || !t.rules.validString(s, true, true) {
			continue
		}
		if out, ok := Validate(s, &t.spec.Constraint, t.field, log); ok {
			return out, true
		}
	}
}

// versionTranslator derives the version field. Numeric versions are
// rendered without a trailing fraction when they are whole.
type versionTranslator struct {
	spec  config.VersionSpec
	rules *rules
}

func newVersionTranslator(spec config.VersionSpec, r *rules) *versionTranslator {
	return &versionTranslator{spec: spec, rules: r}
}

func (t *versionTranslator) Field() string { return record.FieldVersion }

func (t *versionTranslator) Translate(rec record.Structured, _ record.Canonical, _ Hints, log *record.Log) (any, bool) {
	for fields := t.spec.Fields; ; {
		field, value, present := Resolve(rec, fields)
		if !present {
			return nil, false
		}
		fields = fieldsAfter(fields, field)
		var s string
		switch v := unwrapSingle(value).(type) {
		case string:
			s = strings.TrimSpace(v)
		case float64:
			s = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			continue
		}
		if s == "" || !t.rules.validString(s, false, false) {
			continue
		}
		if out, ok := Validate(s, &t.spec.Constraint, record.FieldVersion, log); ok {
			return out, true
		}
	}
}
