package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenDaL/ingestion-and-transformation/record"
)

func TestResolve_FieldPriority(t *testing.T) {
	rec := record.Structured{
		"title": "Secondary",
		"name":  "Primary",
	}

	field, value, ok := Resolve(rec, []string{"name", "title"})
	require.True(t, ok)
	assert.Equal(t, "name", field)
	assert.Equal(t, "Primary", value)
}

func TestFieldsAfter(t *testing.T) {
	fields := []string{"title", "name", "label"}
	assert.Equal(t, []string{"name", "label"}, fieldsAfter(fields, "title"))
	assert.Empty(t, fieldsAfter(fields, "label"))
	assert.Empty(t, fieldsAfter(fields, "unknown"))
}

func TestResolve_SkipsEmptyValues(t *testing.T) {
	tests := []struct {
		name  string
		first any
	}{
		{name: "nil", first: nil},
		{name: "empty string", first: ""},
		{name: "empty list", first: []any{}},
		{name: "empty object", first: map[string]any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := record.Structured{
				"name":  tt.first,
				"title": "Fallback",
			}
			field, value, ok := Resolve(rec, []string{"name", "title"})
			require.True(t, ok)
			assert.Equal(t, "title", field)
			assert.Equal(t, "Fallback", value)
		})
	}
}

func TestResolve_AbsentIsNotAnError(t *testing.T) {
	_, _, ok := Resolve(record.Structured{}, []string{"name", "title"})
	assert.False(t, ok)
}

func TestResolve_NeverRecursesIntoNestedKeys(t *testing.T) {
	rec := record.Structured{
		"wrapper": map[string]any{"name": "nested"},
	}
	_, _, ok := Resolve(rec, []string{"name"})
	assert.False(t, ok)
}

func TestDisambiguate_KeyPriority(t *testing.T) {
	value := map[string]any{
		"value":    "second choice",
		"_content": "first choice",
	}

	out, ok := Disambiguate(value, []string{"_content", "value"}, nil, nil)
	require.True(t, ok)
	assert.Equal(t, "first choice", out)
}

func TestDisambiguate_KeyPriorityDescendsNestedObjects(t *testing.T) {
	value := map[string]any{
		"_content": map[string]any{"value": "nested"},
	}

	out, ok := Disambiguate(value, []string{"_content", "value"}, nil, nil)
	require.True(t, ok)
	assert.Equal(t, "nested", out)
}

func TestDisambiguate_TypePriority(t *testing.T) {
	value := []any{
		map[string]any{"type": "alternative", "_content": "alt title"},
		map[string]any{"type": "main", "_content": "main title"},
	}

	out, ok := Disambiguate(value,
		[]string{"_content"},
		[]string{"type"},
		[]string{"main", "alternative"},
	)
	require.True(t, ok)
	assert.Equal(t, "main title", out)
}

func TestDisambiguate_UnrankedListKeepsOrder(t *testing.T) {
	value := []any{"first", "second"}

	out, ok := Disambiguate(value, nil, nil, nil)
	require.True(t, ok)
	assert.Equal(t, "first", out)
}

func TestDisambiguate_TiesKeepOriginalOrder(t *testing.T) {
	value := []any{
		map[string]any{"type": "main", "_content": "one"},
		map[string]any{"type": "main", "_content": "two"},
	}

	out, ok := Disambiguate(value, []string{"_content"}, []string{"type"}, []string{"main"})
	require.True(t, ok)
	assert.Equal(t, "one", out)
}

func TestDisambiguate_NoUsableCandidate(t *testing.T) {
	_, ok := Disambiguate(map[string]any{"other": "x"}, []string{"_content"}, nil, nil)
	assert.False(t, ok)

	_, ok = Disambiguate(nil, nil, nil, nil)
	assert.False(t, ok)
}
