// Package config provides configuration loading and management for the
// metadata translation engine. The configuration surface is loaded once at
// process start and is immutable afterwards, so any number of concurrent
// translations can share it without coordination.
package config

import (
	"fmt"
	"time"
)

// Config is the complete engine configuration: the cross-cutting general
// block, the preparser and per-translator specs, and the reference tables.
type Config struct {
	General     General     `yaml:"general"`
	Preparsers  Preparsers  `yaml:"preparsers"`
	Translators Translators `yaml:"translators"`

	// Reference data, loaded from separate files (see Loader).
	Tables   Tables              `yaml:"-"`
	Subjects map[string]*Subject `yaml:"-"`
}

// General supplies cross-cutting constants used by several translators.
type General struct {
	// NoneStrings are lowercase values equivalent to "no information".
	NoneStrings []string `yaml:"none_strings"`
	// IgnoreStartswith lists lowercase prefixes that disqualify a value.
	IgnoreStartswith []string `yaml:"ignore_startswith"`
	// IgnoreContains lists lowercase substrings that disqualify a value.
	IgnoreContains []string `yaml:"ignore_contains"`
	// NowEquivalents are strings parsed as the current date.
	NowEquivalents []string `yaml:"now_equivalents"`
	// LanguageKeys and LanguageValueKeys identify language-alternative
	// objects inside lists ({locale: "en", text: "..."} style entries).
	LanguageKeys      []string `yaml:"language_keys"`
	LanguageValueKeys []string `yaml:"language_value_keys"`
	// TextKey is the key the structuring stage uses for the textual
	// representation of a wrapped value.
	TextKey string `yaml:"text_key"`
	// DateFormat is the Go layout for formatted date output.
	DateFormat string `yaml:"date_format"`
	// NowOffsetDays is added to "now" when it is used as an upper bound,
	// to absorb portal sync lag.
	NowOffsetDays int `yaml:"now_offset_days"`
}

// Bounds restricts parsed dates to an open interval. Each side is either
// an ISO date or the string "now".
type Bounds struct {
	GT string `yaml:"gt"`
	LT string `yaml:"lt"`
}

// Common carries the options every field translator shares.
type Common struct {
	// Fields is the ordered list of source field names to resolve from.
	Fields []string `yaml:"fields"`
	// DependsOn names translators whose canonical output must exist
	// before this one runs.
	DependsOn []string `yaml:"depends_on"`
}

// Preparsers configures the preparse stage.
type Preparsers struct {
	Dates DatePreparserSpec `yaml:"dates"`
}

// DatePreparserSpec configures splitting of combined date fields.
type DatePreparserSpec struct {
	Fields []string `yaml:"fields"`
	// TypeTargets maps a lowercase source date type to the canonical
	// field that should receive the value (issued, modified, created, or
	// an otherDates type name).
	TypeTargets map[string]string `yaml:"type_targets"`
	// TypeKeys locate the date type tag inside a sub-entry; ValueKeys
	// locate the date value; TypeObjectKeys are tried when the type tag
	// is itself an object.
	TypeKeys       []string `yaml:"type_keys"`
	ValueKeys      []string `yaml:"value_keys"`
	TypeObjectKeys []string `yaml:"type_object_keys"`
	Bounds         Bounds   `yaml:"bounds"`
}

// Translators holds one spec per canonical field.
type Translators struct {
	Title            TextSpec        `yaml:"title"`
	Description      TextSpec        `yaml:"description"`
	Version          VersionSpec     `yaml:"version"`
	Creator          CreatorSpec     `yaml:"creator"`
	Publisher        PublisherSpec   `yaml:"publisher"`
	Issued           DateSpec        `yaml:"issued"`
	Modified         DateSpec        `yaml:"modified"`
	Created          DateSpec        `yaml:"created"`
	OtherDates       OtherDatesSpec  `yaml:"other_dates"`
	Contact          ContactSpec     `yaml:"contact"`
	License          LicenseSpec     `yaml:"license"`
	Maintenance      MaintenanceSpec `yaml:"maintenance"`
	Identifier       IdentifierSpec  `yaml:"identifier"`
	Type             TypeSpec        `yaml:"type"`
	Subject          SubjectSpec     `yaml:"subject"`
	Location         LocationSpec    `yaml:"location"`
	TimePeriod       TimePeriodSpec  `yaml:"time_period"`
	Format           FormatSpec      `yaml:"format"`
	Language         LanguageSpec    `yaml:"language"`
	CoordinateSystem CoordSysSpec    `yaml:"coordinate_system"`
}

// TextSpec configures the title and description translators.
type TextSpec struct {
	Common       `yaml:",inline"`
	Constraint   Constraint `yaml:"constraint"`
	KeyPriority  []string   `yaml:"key_priority"`
	TypeKeys     []string   `yaml:"type_keys"`
	TypePriority []string   `yaml:"type_priority"`
}

// VersionSpec configures the version translator.
type VersionSpec struct {
	Common     `yaml:",inline"`
	Constraint Constraint `yaml:"constraint"`
}

// CreatorSpec configures the creator translator.
type CreatorSpec struct {
	Common `yaml:",inline"`
	// OrganizationFields always yield organization entries, never names.
	OrganizationFields []string   `yaml:"organization_fields"`
	Constraint         Constraint `yaml:"constraint"`
}

// PublisherSpec configures the publisher translator.
type PublisherSpec struct {
	Common      `yaml:",inline"`
	KeyPriority []string   `yaml:"key_priority"`
	URLKeys     []string   `yaml:"url_keys"`
	Constraint  Constraint `yaml:"constraint"`
}

// DateSpec configures the issued, modified and created translators.
type DateSpec struct {
	Common `yaml:",inline"`
	Bounds Bounds `yaml:"bounds"`
	// FavorEarliest selects the tie-break within the best available
	// accuracy tier: earliest wins when true, latest when false.
	FavorEarliest bool `yaml:"favor_earliest"`
}

// OtherDatesSpec configures the otherDates translator.
type OtherDatesSpec struct {
	Common `yaml:",inline"`
	Bounds Bounds `yaml:"bounds"`
	// TypeMapping maps each source field to its date type tag
	// (Accepted, Copyrighted, Submitted, ...).
	TypeMapping   map[string]string `yaml:"type_mapping"`
	FavorEarliest bool              `yaml:"favor_earliest"`
}

// ContactSpec configures the contact translator.
type ContactSpec struct {
	// FieldRoles maps each source field to the roles it can fill:
	// "name", "details", or both.
	FieldRoles map[string][]string `yaml:"field_roles"`
	// FieldPriority orders the FieldRoles fields for the per-role
	// fallback. Fields left out rank after the listed ones.
	FieldPriority []string `yaml:"field_priority"`
	// PrimaryPairs are [name-field, details-field] combinations tried as
	// a unit before the per-role fallback.
	PrimaryPairs [][]string `yaml:"primary_pairs"`
	// NameKeys resolves names inside objects; DetailKeys resolves each
	// detail type (email, phone, address) in match order.
	NameKeys   []string            `yaml:"name_keys"`
	DetailKeys map[string][]string `yaml:"detail_keys"`
	Constraint Constraint          `yaml:"constraint"`
	DependsOn  []string            `yaml:"depends_on"`
}

// LicenseSpec configures the license translator.
type LicenseSpec struct {
	Common `yaml:",inline"`
	// KeyRoles maps object keys to "url" or "text".
	KeyRoles map[string]string `yaml:"key_roles"`
	// NameStartswith marks single-word values that are still license
	// names (cc-by, odbl, ...).
	NameStartswith []string   `yaml:"name_startswith"`
	Constraint     Constraint `yaml:"constraint"`
}

// MaintenanceSpec configures the maintenance translator.
type MaintenanceSpec struct {
	Common     `yaml:",inline"`
	PeriodKeys []string `yaml:"period_keys"`
	// Periods maps source frequency phrases to canonical intervals.
	Periods map[string]string `yaml:"periods"`
}

// IdentifierSpec configures the identifier translator.
type IdentifierSpec struct {
	Common      `yaml:",inline"`
	KeyPriority []string   `yaml:"key_priority"`
	Constraint  Constraint `yaml:"constraint"`
}

// TypeSpec configures the type translator.
type TypeSpec struct {
	Common      `yaml:",inline"`
	KeyPriority []string `yaml:"key_priority"`
	// Mapping maps lowercase source type strings to canonical
	// hierarchical tags; the sentinel value "_invalid" discards a match.
	Mapping map[string]string `yaml:"mapping"`
}

// SubjectSpec configures the subject translator.
type SubjectSpec struct {
	Common `yaml:",inline"`
	// SourceMaxSize rejects source lists longer than this outright.
	SourceMaxSize int        `yaml:"source_max_size"`
	KeyPriority   []string   `yaml:"key_priority"`
	Constraint    Constraint `yaml:"constraint"`
}

// LocationSpec configures the location translator.
type LocationSpec struct {
	Common `yaml:",inline"`
	// BBoxFieldPairs list four record fields in west, south, east, north
	// order that together form a bounding box; BBoxKeyPairs do the same
	// for keys inside one object.
	BBoxFieldPairs [][]string `yaml:"bbox_field_pairs"`
	BBoxKeyPairs   [][]string `yaml:"bbox_key_pairs"`
	Constraint     Constraint `yaml:"constraint"`
}

// TimePeriodSpec configures the timePeriod translator.
type TimePeriodSpec struct {
	Common `yaml:",inline"`
	Bounds Bounds `yaml:"bounds"`
	// BeginEndFieldPairs are [start-field, end-field] combinations.
	BeginEndFieldPairs [][]string `yaml:"begin_end_field_pairs"`
	// StartKeys/EndKeys resolve period edges inside objects.
	StartKeys []string `yaml:"start_keys"`
	EndKeys   []string `yaml:"end_keys"`
	// Separators split a single string into start and end.
	Separators []string `yaml:"separators"`
	// RemoveStrings are stripped from string input before parsing.
	RemoveStrings []string `yaml:"remove_strings"`
}

// FormatSpec configures the format translator.
type FormatSpec struct {
	Common `yaml:",inline"`
}

// LanguageSpec configures the language translator.
type LanguageSpec struct {
	Common      `yaml:",inline"`
	KeyPriority []string `yaml:"key_priority"`
}

// CoordSysSpec configures the coordinateSystem translator.
type CoordSysSpec struct {
	Common      `yaml:",inline"`
	KeyPriority []string `yaml:"key_priority"`
}

// Tables holds the static lookup tables supplied as reference data.
type Tables struct {
	// Formats maps lowercase format phrases, mime types and extensions to
	// canonical format codes.
	Formats map[string]string `yaml:"formats"`
	// Languages maps lowercase language names and codes to ISO 639-1.
	Languages map[string]string `yaml:"languages"`
	// EPSGCodes lists the known EPSG integers; EPSGNames maps lowercase
	// coordinate system names to their EPSG code.
	EPSGCodes []int          `yaml:"epsg_codes"`
	EPSGNames map[string]int `yaml:"epsg_names"`
}

// Subject is one node of the subject taxonomy: a directed graph of
// canonical subject ids with multilingual match phrases.
type Subject struct {
	Name       string   `yaml:"name"`
	Parents    []string `yaml:"parents"`
	Relations  []string `yaml:"relations"`
	Recommends []string `yaml:"recommends"`
	// Matches maps a language code to the phrases that resolve to this
	// subject.
	Matches map[string][]string `yaml:"matches"`
}

// ParseBound resolves one side of a Bounds value. The second return is
// true when the side is the dynamic "now" bound, which the date parser
// resolves per call.
func ParseBound(s string) (time.Time, bool, error) {
	if s == "" || s == "now" {
		return time.Time{}, s == "now", nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid date bound %q: %w", s, err)
	}
	return t.UTC(), false, nil
}

// Validate checks that the configuration can safely drive the engine.
// Malformed configuration is fatal at process start: it would silently
// miscompute every record thereafter.
func (c *Config) Validate() error {
	if c.General.DateFormat == "" {
		return fmt.Errorf("general.date_format is required")
	}
	if c.General.TextKey == "" {
		return fmt.Errorf("general.text_key is required")
	}
	for _, b := range []struct {
		name   string
		bounds Bounds
	}{
		{"preparsers.dates", c.Preparsers.Dates.Bounds},
		{"translators.issued", c.Translators.Issued.Bounds},
		{"translators.modified", c.Translators.Modified.Bounds},
		{"translators.created", c.Translators.Created.Bounds},
		{"translators.other_dates", c.Translators.OtherDates.Bounds},
		{"translators.time_period", c.Translators.TimePeriod.Bounds},
	} {
		for _, side := range []string{b.bounds.GT, b.bounds.LT} {
			if _, _, err := ParseBound(side); err != nil {
				return fmt.Errorf("%s: %w", b.name, err)
			}
		}
	}
	for _, pair := range c.Translators.Location.BBoxFieldPairs {
		if len(pair) != 4 {
			return fmt.Errorf("translators.location: bbox field pair must have 4 entries, got %d", len(pair))
		}
	}
	for _, pair := range c.Translators.Location.BBoxKeyPairs {
		if len(pair) != 4 {
			return fmt.Errorf("translators.location: bbox key pair must have 4 entries, got %d", len(pair))
		}
	}
	for _, pair := range c.Translators.Contact.PrimaryPairs {
		if len(pair) != 2 {
			return fmt.Errorf("translators.contact: primary pair must have 2 entries, got %d", len(pair))
		}
	}
	for _, field := range c.Translators.Contact.FieldPriority {
		if _, ok := c.Translators.Contact.FieldRoles[field]; !ok {
			return fmt.Errorf("translators.contact: field_priority entry %s is not in field_roles", field)
		}
	}
	for _, pair := range c.Translators.TimePeriod.BeginEndFieldPairs {
		if len(pair) != 2 {
			return fmt.Errorf("translators.time_period: begin/end pair must have 2 entries, got %d", len(pair))
		}
	}
	if c.Translators.Subject.SourceMaxSize <= 0 {
		return fmt.Errorf("translators.subject.source_max_size must be positive")
	}
	if len(c.Tables.Formats) == 0 {
		return fmt.Errorf("format table is empty")
	}
	if len(c.Tables.Languages) == 0 {
		return fmt.Errorf("language table is empty")
	}
	if len(c.Tables.EPSGCodes) == 0 {
		return fmt.Errorf("EPSG code table is empty")
	}
	for id, subj := range c.Subjects {
		for _, parent := range subj.Parents {
			if _, ok := c.Subjects[parent]; !ok {
				return fmt.Errorf("subject %s references unknown parent %s", id, parent)
			}
		}
		for _, rel := range subj.Relations {
			if _, ok := c.Subjects[rel]; !ok {
				return fmt.Errorf("subject %s references unknown relation %s", id, rel)
			}
		}
	}
	return nil
}

// Dependencies collects the declared translator dependencies, keyed by
// canonical field name.
func (t *Translators) Dependencies() map[string][]string {
	deps := map[string][]string{
		"title":            t.Title.DependsOn,
		"description":      t.Description.DependsOn,
		"version":          t.Version.DependsOn,
		"creator":          t.Creator.DependsOn,
		"publisher":        t.Publisher.DependsOn,
		"issued":           t.Issued.DependsOn,
		"modified":         t.Modified.DependsOn,
		"created":          t.Created.DependsOn,
		"otherDates":       t.OtherDates.DependsOn,
		"contact":          t.Contact.DependsOn,
		"license":          t.License.DependsOn,
		"maintenance":      t.Maintenance.DependsOn,
		"identifier":       t.Identifier.DependsOn,
		"type":             t.Type.DependsOn,
		"subject":          t.Subject.DependsOn,
		"location":         t.Location.DependsOn,
		"timePeriod":       t.TimePeriod.DependsOn,
		"format":           t.Format.DependsOn,
		"language":         t.Language.DependsOn,
		"coordinateSystem": t.CoordinateSystem.DependsOn,
	}
	out := make(map[string][]string, len(deps))
	for name, d := range deps {
		if len(d) > 0 {
			out[name] = d
		}
	}
	return out
}
