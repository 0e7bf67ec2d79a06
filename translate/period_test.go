package translate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenDaL/ingestion-and-transformation/config"
	"github.com/OpenDaL/ingestion-and-transformation/record"
)

func testPeriodSpec() config.TimePeriodSpec {
	return config.TimePeriodSpec{
		Common: config.Common{Fields: []string{"temporal", "coverage_period"}},
		Bounds: config.Bounds{GT: "1000-01-01", LT: "now"},
		BeginEndFieldPairs: [][]string{
			{"temporal_start", "temporal_end"},
		},
		StartKeys:     []string{"start", "begin", "beginPosition"},
		EndKeys:       []string{"end", "finish", "endPosition"},
		Separators:    []string{"/", " - ", " to ", " until "},
		RemoveStrings: []string{"from ", "between "},
	}
}

func newTestPeriodTranslator(t *testing.T) *timePeriodTranslator {
	t.Helper()
	tr, err := newTimePeriodTranslator(testPeriodSpec(), testRules())
	require.NoError(t, err)
	return tr
}

func periodAt(out any, i int) map[string]any {
	return out.([]any)[i].(map[string]any)
}

func TestTimePeriodTranslator_SeparatedStrings(t *testing.T) {
	tr := newTestPeriodTranslator(t)

	tests := []struct {
		name  string
		input string
		start string
		end   string
	}{
		{name: "slash", input: "2015-01-01/2016-06-30", start: "2015-01-01", end: "2016-06-30"},
		{name: "years", input: "2015/2016", start: "2015-01-01", end: "2016-12-31"},
		{name: "to", input: "2015-01-01 to 2016-06-30", start: "2015-01-01", end: "2016-06-30"},
		{name: "dash", input: "2015-01-01 - 2016-06-30", start: "2015-01-01", end: "2016-06-30"},
		{name: "written month", input: "1 January 2015/30 June 2016", start: "2015-01-01", end: "2016-06-30"},
		{name: "prefix stripped", input: "from 2015-01-01 to 2016-06-30", start: "2015-01-01", end: "2016-06-30"},
		{name: "bare year", input: "2015", start: "2015-01-01", end: "2015-12-31"},
		{name: "bare month", input: "2015-03", start: "2015-03-01", end: "2015-03-31"},
		{name: "duration", input: "2015-01-01/P1Y", start: "2015-01-01", end: "2016-01-01"},
		{name: "repeating", input: "R/2015-01-01/P6M", start: "2015-01-01", end: "2015-07-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, ok := tr.Translate(record.Structured{"temporal": tt.input}, nil, nil, nil)
			require.True(t, ok)
			p := periodAt(out, 0)
			assert.Equal(t, "About", p["type"])
			assert.Equal(t, tt.start, p["start"])
			assert.Equal(t, tt.end, p["end"])
		})
	}
}

func TestTimePeriodTranslator_SlashedDateIsNotAPeriod(t *testing.T) {
	tr := newTestPeriodTranslator(t)

	_, ok := tr.Translate(record.Structured{"temporal": "01/02/2015"}, nil, nil, nil)
	assert.False(t, ok)
}

func TestTimePeriodTranslator_ObjectEdges(t *testing.T) {
	tr := newTestPeriodTranslator(t)

	out, ok := tr.Translate(record.Structured{
		"temporal": map[string]any{"beginPosition": "2015-01-01", "endPosition": "2016-06-30"},
	}, nil, nil, nil)
	require.True(t, ok)
	p := periodAt(out, 0)
	assert.Equal(t, "2015-01-01", p["start"])
	assert.Equal(t, "2016-06-30", p["end"])
}

func TestTimePeriodTranslator_OpenEndDefaultsToNow(t *testing.T) {
	tr := newTestPeriodTranslator(t)

	out, ok := tr.Translate(record.Structured{
		"temporal": map[string]any{"start": "2015-01-01"},
	}, nil, nil, nil)
	require.True(t, ok)

	p := periodAt(out, 0)
	end, err := time.Parse("2006-01-02", p["end"].(string))
	require.NoError(t, err)
	assert.WithinDuration(t, tr.parser.Now(), end, 48*time.Hour)
}

func TestTimePeriodTranslator_FieldPairs(t *testing.T) {
	tr := newTestPeriodTranslator(t)

	out, ok := tr.Translate(record.Structured{
		"temporal_start": "2015-01-01",
		"temporal_end":   "2016-06-30",
	}, nil, nil, nil)
	require.True(t, ok)
	p := periodAt(out, 0)
	assert.Equal(t, "2015-01-01", p["start"])
	assert.Equal(t, "2016-06-30", p["end"])
}

func TestTimePeriodTranslator_OverlappingPeriodsMerge(t *testing.T) {
	tr := newTestPeriodTranslator(t)

	rec := record.Structured{
		"temporal":        "2001/2005",
		"temporal_start":  "2003-01-01",
		"temporal_end":    "2010-12-31",
		"coverage_period": "2020/2021",
	}
	out, ok := tr.Translate(rec, nil, nil, nil)
	require.True(t, ok)

	list := out.([]any)
	require.Len(t, list, 2)
	first := periodAt(out, 0)
	assert.Equal(t, "2001-01-01", first["start"])
	assert.Equal(t, "2010-12-31", first["end"])
	second := periodAt(out, 1)
	assert.Equal(t, "2020-01-01", second["start"])
	assert.Equal(t, "2021-12-31", second["end"])
}

func TestTimePeriodTranslator_HintContributes(t *testing.T) {
	tr := newTestPeriodTranslator(t)

	hint := periodHint{
		start: ParsedDate{Time: time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC)},
		end:   ParsedDate{Time: time.Date(2013, 12, 31, 0, 0, 0, 0, time.UTC)},
	}
	out, ok := tr.Translate(record.Structured{}, nil, Hints{"timePeriod": hint}, nil)
	require.True(t, ok)
	p := periodAt(out, 0)
	assert.Equal(t, "2012-01-01", p["start"])
	assert.Equal(t, "2013-12-31", p["end"])
}

func TestMergePeriods(t *testing.T) {
	day := func(y, m, d int) time.Time {
		return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	}

	merged := MergePeriods([]Period{
		{Start: day(2003, 1, 1), End: day(2010, 12, 31)},
		{Start: day(2001, 1, 1), End: day(2005, 12, 31)},
		{Start: day(2020, 1, 1), End: day(2021, 12, 31)},
	})
	require.Len(t, merged, 2)
	assert.Equal(t, day(2001, 1, 1), merged[0].Start)
	assert.Equal(t, day(2010, 12, 31), merged[0].End)
	assert.Equal(t, day(2020, 1, 1), merged[1].Start)

	// A shared single day is enough to merge.
	merged = MergePeriods([]Period{
		{Start: day(2001, 1, 1), End: day(2002, 1, 1)},
		{Start: day(2002, 1, 1), End: day(2003, 1, 1)},
	})
	require.Len(t, merged, 1)
}

func TestAddISODuration(t *testing.T) {
	start := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)

	end, ok := addISODuration(start, "p1y")
	require.True(t, ok)
	assert.Equal(t, time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC), end)

	end, ok = addISODuration(start, "p2w")
	require.True(t, ok)
	assert.Equal(t, time.Date(2015, 1, 15, 0, 0, 0, 0, time.UTC), end)

	_, ok = addISODuration(start, "p")
	assert.False(t, ok)
	_, ok = addISODuration(start, "nonsense")
	assert.False(t, ok)
}
