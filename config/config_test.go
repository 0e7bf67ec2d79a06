package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.General.NoneStrings)
	assert.Equal(t, "_content", cfg.General.TextKey)
	assert.NotEmpty(t, cfg.Translators.Title.Fields)
	assert.NotEmpty(t, cfg.Tables.Formats)
	assert.NotEmpty(t, cfg.Tables.Languages)
	assert.NotEmpty(t, cfg.Tables.EPSGCodes)
	assert.NotEmpty(t, cfg.Subjects)
}

func TestLoader_OverrideSingleFile(t *testing.T) {
	dir := t.TempDir()
	override := `
formats:
  "text/csv": CSV
  "custom/format": CUSTOM
`
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, FormatsFile), []byte(override), 0o644))

	cfg, err := NewLoader(nil).Load(dir)
	require.NoError(t, err)

	// The overridden table replaces the default one entirely.
	assert.Equal(t, "CUSTOM", cfg.Tables.Formats["custom/format"])
	// Files without an override still come from the embedded defaults.
	assert.NotEmpty(t, cfg.Tables.Languages)
	assert.NotEmpty(t, cfg.Translators.Title.Fields)
}

func TestLoader_InvalidOverrideFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, FormatsFile), []byte("formats: {}\n"), 0o644))

	_, err := NewLoader(nil).Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "format table is empty")
}

func TestLoader_MalformedYAMLFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, SubjectsFile), []byte("subjects: [not: a map\n"), 0o644))

	_, err := NewLoader(nil).Load(dir)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func(t *testing.T) *Config {
		t.Helper()
		cfg, err := Default()
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid defaults",
			mutate:  func(*Config) {},
			wantErr: "",
		},
		{
			name:    "missing date format",
			mutate:  func(c *Config) { c.General.DateFormat = "" },
			wantErr: "date_format",
		},
		{
			name:    "missing text key",
			mutate:  func(c *Config) { c.General.TextKey = "" },
			wantErr: "text_key",
		},
		{
			name:    "malformed date bound",
			mutate:  func(c *Config) { c.Translators.Issued.Bounds.GT = "yesterday" },
			wantErr: "translators.issued",
		},
		{
			name: "short bbox field pair",
			mutate: func(c *Config) {
				c.Translators.Location.BBoxFieldPairs = [][]string{{"west", "south", "east"}}
			},
			wantErr: "bbox field pair",
		},
		{
			name: "short contact primary pair",
			mutate: func(c *Config) {
				c.Translators.Contact.PrimaryPairs = [][]string{{"contact_name"}}
			},
			wantErr: "primary pair",
		},
		{
			name: "unknown contact priority field",
			mutate: func(c *Config) {
				c.Translators.Contact.FieldPriority = append(c.Translators.Contact.FieldPriority, "publisher")
			},
			wantErr: "field_priority",
		},
		{
			name: "short period field pair",
			mutate: func(c *Config) {
				c.Translators.TimePeriod.BeginEndFieldPairs = [][]string{{"begin_date"}}
			},
			wantErr: "begin/end pair",
		},
		{
			name:    "non-positive subject source cap",
			mutate:  func(c *Config) { c.Translators.Subject.SourceMaxSize = 0 },
			wantErr: "source_max_size",
		},
		{
			name:    "empty language table",
			mutate:  func(c *Config) { c.Tables.Languages = nil },
			wantErr: "language table is empty",
		},
		{
			name:    "empty EPSG table",
			mutate:  func(c *Config) { c.Tables.EPSGCodes = nil },
			wantErr: "EPSG code table is empty",
		},
		{
			name: "unknown subject parent",
			mutate: func(c *Config) {
				c.Subjects["climate"].Parents = []string{"atlantis"}
			},
			wantErr: "unknown parent",
		},
		{
			name: "unknown subject relation",
			mutate: func(c *Config) {
				c.Subjects["climate"].Relations = []string{"atlantis"}
			},
			wantErr: "unknown relation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseBound(t *testing.T) {
	ts, dynamic, err := ParseBound("2019-06-13")
	require.NoError(t, err)
	assert.False(t, dynamic)
	assert.Equal(t, 2019, ts.Year())

	_, dynamic, err = ParseBound("now")
	require.NoError(t, err)
	assert.True(t, dynamic)

	_, dynamic, err = ParseBound("")
	require.NoError(t, err)
	assert.False(t, dynamic)

	_, _, err = ParseBound("13-06-2019")
	require.Error(t, err)
}

func TestDependencies(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	deps := cfg.Translators.Dependencies()
	// The defaults declare no cross-field dependencies.
	for field, required := range deps {
		assert.Empty(t, required, "unexpected dependency on %s", field)
	}

	cfg.Translators.Title.DependsOn = []string{"license"}
	deps = cfg.Translators.Dependencies()
	assert.Equal(t, []string{"license"}, deps["title"])
}
