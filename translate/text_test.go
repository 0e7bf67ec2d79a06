package translate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenDaL/ingestion-and-transformation/config"
	"github.com/OpenDaL/ingestion-and-transformation/record"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain text untouched",
			input: "A plain description.",
			want:  "A plain description.",
		},
		{
			name:  "html stripped",
			input: "<p>Water quality <b>measurements</b> for 2019.</p>",
			want:  "Water quality measurements for 2019.",
		},
		{
			name:  "link keeps its text",
			input: `<p>See <a href="https://example.org">the portal</a> for details.</p>`,
			want:  "See the portal for details.",
		},
		{
			name:  "whitespace collapsed",
			input: "Too   many    spaces.",
			want:  "Too many spaces.",
		},
		{
			name:  "markdown emphasis removed",
			input: "Contains *emphasis* and _underscores_.",
			want:  "Contains emphasis and underscores.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.input))
		})
	}
}

func testTitleSpec() config.TextSpec {
	return config.TextSpec{
		Common: config.Common{Fields: []string{"title", "name"}},
		Constraint: config.Constraint{
			Type: "string", MinLength: 4, MaxLength: 40,
		},
		KeyPriority:  []string{"_content", "value", "en"},
		TypeKeys:     []string{"titleType", "type"},
		TypePriority: []string{"main", "alternative"},
	}
}

func TestTextTranslator_FieldPriorityAndFallback(t *testing.T) {
	tr := newTextTranslator(record.FieldTitle, testTitleSpec(), testRules())

	out, ok := tr.Translate(record.Structured{
		"title": "Water quality 2019",
		"name":  "wq-2019",
	}, nil, nil, nil)
	require.True(t, ok)
	assert.Equal(t, "Water quality 2019", out)

	// A failing first field gives the next field its chance.
	out, ok = tr.Translate(record.Structured{
		"title": "n/a",
		"name":  "Water quality 2019",
	}, nil, nil, nil)
	require.True(t, ok)
	assert.Equal(t, "Water quality 2019", out)
}

func TestTextTranslator_TruncatesWithEllipsis(t *testing.T) {
	tr := newTextTranslator(record.FieldTitle, testTitleSpec(), testRules())
	log := record.NewLog()

	out, ok := tr.Translate(record.Structured{
		"title": "Hourly water quality measurements along the Rhine, 2019 edition",
	}, nil, nil, log)
	require.True(t, ok)

	s := out.(string)
	assert.Equal(t, 40, len([]rune(s)))
	assert.True(t, strings.HasSuffix(s, Ellipsis))
	require.Len(t, log.Entries, 1)
	assert.True(t, log.Entries[0].Truncated)
}

func TestTextTranslator_TypedTitleList(t *testing.T) {
	tr := newTextTranslator(record.FieldTitle, testTitleSpec(), testRules())

	out, ok := tr.Translate(record.Structured{
		"title": []any{
			map[string]any{"titleType": "alternative", "_content": "The alternative"},
			map[string]any{"titleType": "main", "_content": "The main title"},
		},
	}, nil, nil, nil)
	require.True(t, ok)
	assert.Equal(t, "The main title", out)
}

func TestTextTranslator_LanguageAlternatives(t *testing.T) {
	tr := newTextTranslator(record.FieldTitle, testTitleSpec(), testRules())

	out, ok := tr.Translate(record.Structured{
		"title": []any{
			map[string]any{"lang": "nl", "text": "De nederlandse titel"},
			map[string]any{"lang": "en", "text": "The english title"},
		},
	}, nil, nil, nil)
	require.True(t, ok)
	assert.Equal(t, "The english title", out)
}

func TestTextTranslator_MarkupInSource(t *testing.T) {
	tr := newTextTranslator(record.FieldTitle, testTitleSpec(), testRules())

	out, ok := tr.Translate(record.Structured{
		"title": "<b>Water quality</b> 2019",
	}, nil, nil, nil)
	require.True(t, ok)
	assert.Equal(t, "Water quality 2019", out)
}

func TestTextTranslator_IgnoredValues(t *testing.T) {
	tr := newTextTranslator(record.FieldTitle, testTitleSpec(), testRules())

	for _, value := range []any{"n/a", "none", "https://example.org/dataset", ""} {
		_, ok := tr.Translate(record.Structured{"title": value}, nil, nil, nil)
		assert.False(t, ok, "value %q must be ignored", value)
	}
}

func TestVersionTranslator(t *testing.T) {
	tr := newVersionTranslator(config.VersionSpec{
		Common: config.Common{Fields: []string{"version"}},
		Constraint: config.Constraint{
			Type: "string", MinLength: 1, MaxLength: 32,
		},
	}, testRules())

	out, ok := tr.Translate(record.Structured{"version": "2.1.0"}, nil, nil, nil)
	require.True(t, ok)
	assert.Equal(t, "2.1.0", out)

	// Numeric versions render without a spurious fraction.
	out, ok = tr.Translate(record.Structured{"version": 2.0}, nil, nil, nil)
	require.True(t, ok)
	assert.Equal(t, "2", out)

	out, ok = tr.Translate(record.Structured{"version": 1.5}, nil, nil, nil)
	require.True(t, ok)
	assert.Equal(t, "1.5", out)

	_, ok = tr.Translate(record.Structured{"version": "n/a"}, nil, nil, nil)
	assert.False(t, ok)
}
