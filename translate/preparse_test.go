package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenDaL/ingestion-and-transformation/config"
	"github.com/OpenDaL/ingestion-and-transformation/record"
)

func testPreparserSpec() config.DatePreparserSpec {
	return config.DatePreparserSpec{
		Fields: []string{"dates"},
		TypeTargets: map[string]string{
			"created":   "created",
			"issued":    "issued",
			"modified":  "modified",
			"updated":   "modified",
			"accepted":  "Accepted",
			"submitted": "Submitted",
		},
		TypeKeys:       []string{"dateType", "type"},
		ValueKeys:      []string{"_content", "value", "date"},
		TypeObjectKeys: []string{"_content", "codeListValue"},
		Bounds:         config.Bounds{GT: "1000-01-01", LT: "now"},
	}
}

func TestDatePreparser_SplitsCombinedField(t *testing.T) {
	p, err := newDatePreparser(testPreparserSpec(), testRules())
	require.NoError(t, err)

	rec := record.Structured{
		"dates": []any{
			map[string]any{"type": "issued", "value": "2019-06-13"},
			map[string]any{"type": "accepted", "value": "2019-01-02"},
		},
		"title": "kept",
	}
	hints := make(Hints)
	p.Preparse(rec, hints)

	issued, ok := hints["issued"].(ParsedDate)
	require.True(t, ok)
	assert.Equal(t, AccuracyFull, issued.Accuracy)
	assert.Equal(t, "2019-06-13", issued.Time.Format("2006-01-02"))

	_, ok = hints["Accepted"].(ParsedDate)
	assert.True(t, ok)

	// Consumed fields disappear so later stages do not reprocess them.
	assert.NotContains(t, rec, "dates")
	assert.Contains(t, rec, "title")
}

func TestDatePreparser_LatestModifiedEarliestOthers(t *testing.T) {
	p, err := newDatePreparser(testPreparserSpec(), testRules())
	require.NoError(t, err)

	rec := record.Structured{
		"dates": []any{
			map[string]any{"type": "updated", "value": "2019-01-01"},
			map[string]any{"type": "modified", "value": "2020-01-01"},
			map[string]any{"type": "issued", "value": "2020-01-01"},
			map[string]any{"type": "issued", "value": "2019-01-01"},
		},
	}
	hints := make(Hints)
	p.Preparse(rec, hints)

	modified := hints["modified"].(ParsedDate)
	assert.Equal(t, "2020-01-01", modified.Time.Format("2006-01-02"))
	issued := hints["issued"].(ParsedDate)
	assert.Equal(t, "2019-01-01", issued.Time.Format("2006-01-02"))
}

func TestDatePreparser_TypeObjectAndNestedValue(t *testing.T) {
	p, err := newDatePreparser(testPreparserSpec(), testRules())
	require.NoError(t, err)

	rec := record.Structured{
		"dates": []any{
			map[string]any{
				"dateType": map[string]any{"codeListValue": "Created"},
				"date":     map[string]any{"_content": "2018-03-04"},
			},
		},
	}
	hints := make(Hints)
	p.Preparse(rec, hints)

	created, ok := hints["created"].(ParsedDate)
	require.True(t, ok)
	assert.Equal(t, "2018-03-04", created.Time.Format("2006-01-02"))
}

func TestDatePreparser_CollectedPeriodBecomesTimePeriodHint(t *testing.T) {
	spec := testPreparserSpec()
	spec.TypeTargets["collected"] = "Collected"
	p, err := newDatePreparser(spec, testRules())
	require.NoError(t, err)

	rec := record.Structured{
		"dates": []any{
			map[string]any{"type": "collected", "value": "2015-01-01/2016-06-30"},
		},
	}
	hints := make(Hints)
	p.Preparse(rec, hints)

	hint, ok := hints["timePeriod"].(periodHint)
	require.True(t, ok)
	assert.Equal(t, "2015-01-01", hint.start.Time.Format("2006-01-02"))
	assert.Equal(t, "2016-06-30", hint.end.Time.Format("2006-01-02"))
}

func TestDatePreparser_UnrecognizedEntriesLeaveFieldInPlace(t *testing.T) {
	p, err := newDatePreparser(testPreparserSpec(), testRules())
	require.NoError(t, err)

	rec := record.Structured{
		"dates": []any{
			map[string]any{"type": "valid", "value": "2019-01-01"},
		},
	}
	hints := make(Hints)
	p.Preparse(rec, hints)

	assert.Empty(t, hints)
	assert.Contains(t, rec, "dates")
}
