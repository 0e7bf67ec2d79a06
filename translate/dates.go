package translate

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/OpenDaL/ingestion-and-transformation/config"
)

// Accuracy ranks how much calendar precision a parsed date carries. Lower
// is more precise.
type Accuracy int

const (
	AccuracyFull Accuracy = iota
	AccuracyMonth
	AccuracyYear
)

// ParsedDate is a parsed calendar date plus its accuracy rank.
type ParsedDate struct {
	Time     time.Time
	Accuracy Accuracy
}

var (
	isoDatetimePattern = regexp.MustCompile(
		`^\d{4}-(0[1-9]|1[0-2])-(0[1-9]|[1-3][0-9])([Tt ]\d{2}:\d{2}:\d{2}(\.\d+)?)?Z?$`)
	yearMonthPattern   = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)
	weekdayPrefix      = regexp.MustCompile(`^\w{3},`)
	compactDatePattern = regexp.MustCompile(`^[0-2]\d{3}(0[1-9]|1[0-2])(0[1-9]|[12]\d|3[01])$`)
	dayFirstPattern    = regexp.MustCompile(`^(\d{2})([-/])(\d{2})([-/])(\d{4})$`)
)

// DateParser parses free-form date text into bounded calendar dates. The
// bounds come from configuration; a "now" bound is resolved per call with
// the configured forward offset.
type DateParser struct {
	gt, lt     time.Time
	gtNow      bool
	ltNow      bool
	nowOffset  time.Duration
	rules      *rules
	dateFormat string
}

// NewDateParser builds a parser for the given bounds. Invalid bound syntax
// is a configuration error.
func NewDateParser(b config.Bounds, r *rules) (*DateParser, error) {
	gt, gtNow, err := config.ParseBound(b.GT)
	if err != nil {
		return nil, fmt.Errorf("gt bound: %w", err)
	}
	lt, ltNow, err := config.ParseBound(b.LT)
	if err != nil {
		return nil, fmt.Errorf("lt bound: %w", err)
	}
	return &DateParser{
		gt: gt, lt: lt, gtNow: gtNow, ltNow: ltNow,
		nowOffset:  time.Duration(r.nowOffsetDays) * 24 * time.Hour,
		rules:      r,
		dateFormat: r.dateFormat,
	}, nil
}

// Now returns the current UTC time shifted forward by the configured
// offset, absorbing portal sync lag.
func (p *DateParser) Now() time.Time {
	return time.Now().UTC().Add(p.nowOffset)
}

// InBounds tests gt < t < lt.
func (p *DateParser) InBounds(t time.Time) bool {
	lower := p.gt
	if p.gtNow {
		lower = p.Now()
	}
	upper := p.lt
	if p.ltNow {
		upper = p.Now()
	}
	if !lower.IsZero() && !t.After(lower) {
		return false
	}
	if !upper.IsZero() && !t.Before(upper) {
		return false
	}
	return true
}

// Format renders a date in the configured output layout.
func (p *DateParser) Format(t time.Time) string {
	return t.UTC().Format(p.dateFormat)
}

func (p *DateParser) bounded(t time.Time, acc Accuracy) (ParsedDate, bool) {
	t = t.UTC()
	if !p.InBounds(t) {
		return ParsedDate{}, false
	}
	return ParsedDate{Time: t, Accuracy: acc}, true
}

// ParseString parses free-form date text. periodEnd snaps year- and
// month-accurate input to the end of the year or month (for period end
// dates); ignoreNow disables parsing of "now" equivalents. The fast paths
// cover bare years, year-months, ISO datetimes and compact yyyymmdd forms;
// everything else falls through to the dateparse library.
func (p *DateParser) ParseString(s string, periodEnd, ignoreNow bool) (ParsedDate, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ParsedDate{}, false
	}

	if yearPattern.MatchString(s) {
		t, err := time.Parse("2006", s)
		if err != nil {
			return ParsedDate{}, false
		}
		if periodEnd {
			t = t.AddDate(1, 0, -1)
		}
		return p.bounded(t, AccuracyYear)
	}
	if yearMonthPattern.MatchString(s) {
		t, err := time.Parse("2006-01", s)
		if err != nil {
			return ParsedDate{}, false
		}
		if periodEnd {
			t = t.AddDate(0, 1, -1)
		}
		return p.bounded(t, AccuracyMonth)
	}
	if isoDatetimePattern.MatchString(s) {
		for _, layout := range []string{
			"2006-01-02", "2006-01-02T15:04:05", "2006-01-02T15:04:05Z",
			"2006-01-02 15:04:05", "2006-01-02T15:04:05.999999999Z",
			"2006-01-02T15:04:05.999999999",
		} {
			if t, err := time.Parse(layout, s); err == nil {
				return p.bounded(t, AccuracyFull)
			}
		}
		// Matches the ISO shape but carries an impossible day number.
		return ParsedDate{}, false
	}
	if !ignoreNow {
		if _, now := p.rules.nowEquivalents[strings.ToLower(s)]; now {
			return ParsedDate{Time: p.Now(), Accuracy: AccuracyFull}, true
		}
	}
	if weekdayPrefix.MatchString(s) && len(s) > 5 {
		// RFC-1123 style "Mon, 02 Jan 2006 ..." with the weekday dropped,
		// which dateparse handles below.
		s = s[5:]
	} else if compactDatePattern.MatchString(s) {
		if t, err := time.Parse("20060102", s); err == nil {
			return p.bounded(t, AccuracyFull)
		}
		return ParsedDate{}, false
	} else if m := dayFirstPattern.FindStringSubmatch(s); m != nil {
		// Day-first is the dominant convention across the harvested
		// portals; month-first is the fallback.
		for _, layout := range []string{"02-01-2006", "01-02-2006"} {
			if t, err := time.Parse(layout, strings.ReplaceAll(s, "/", "-")); err == nil {
				return p.bounded(t, AccuracyFull)
			}
		}
		return ParsedDate{}, false
	}

	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return ParsedDate{}, false
	}
	return p.bounded(t, AccuracyFull)
}

// ParseTimestamp parses an epoch timestamp in seconds or milliseconds.
func (p *DateParser) ParseTimestamp(n float64) (ParsedDate, bool) {
	if n >= 1e10 {
		// Millisecond epoch.
		n = n / 1000
	}
	if n <= 86400 || n >= 9999999999 {
		return ParsedDate{}, false
	}
	return p.bounded(time.Unix(int64(n), 0), AccuracyFull)
}
