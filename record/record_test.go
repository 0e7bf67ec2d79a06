package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsCanonicalField(t *testing.T) {
	assert.True(t, IsCanonicalField(FieldTitle))
	assert.True(t, IsCanonicalField(FieldCoordinateSystem))
	assert.False(t, IsCanonicalField("notes"))
	assert.False(t, IsCanonicalField(""))
}

func TestStructuredCopy(t *testing.T) {
	orig := Structured{"title": "A", "tags": []any{"x"}}
	cp := orig.Copy()

	delete(cp, "title")
	cp["extra"] = true

	assert.Equal(t, "A", orig["title"])
	assert.NotContains(t, orig, "extra")
}

func TestIsEmpty(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{"nil", nil, true},
		{"empty string", "", true},
		{"empty list", []any{}, true},
		{"empty object", map[string]any{}, true},
		{"string", "x", false},
		{"zero number", 0.0, false},
		{"false", false, false},
		{"list", []any{nil}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsEmpty(tt.value))
		})
	}
}

func TestAsNumber(t *testing.T) {
	for _, v := range []any{42.0, 42, int64(42)} {
		n, ok := AsNumber(v)
		assert.True(t, ok)
		assert.Equal(t, 42.0, n)
	}
	_, ok := AsNumber("42")
	assert.False(t, ok)
}

func TestLog(t *testing.T) {
	log := NewLog()
	assert.NotEmpty(t, log.ID)

	log.Reject(FieldSubject, ReasonListTooLong)
	log.Truncate(FieldTitle)

	assert.Len(t, log.Entries, 2)
	assert.Equal(t, ReasonListTooLong, log.Entries[0].Reason)
	assert.False(t, log.Entries[0].Truncated)
	assert.True(t, log.Entries[1].Truncated)

	// A nil log swallows diagnostics; translators never guard for it.
	var missing *Log
	missing.Reject(FieldTitle, ReasonTooShort)
	missing.Truncate(FieldTitle)
}
