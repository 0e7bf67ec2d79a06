package record

import "github.com/google/uuid"

// Reason classifies why a field was rejected or adjusted.
type Reason string

const (
	ReasonTooShort     Reason = "too-short"
	ReasonTooLong      Reason = "too-long"
	ReasonTypeMismatch Reason = "type-mismatch"
	ReasonOutOfBounds  Reason = "out-of-bounds"
	ReasonListTooLong  Reason = "list-too-long"
	ReasonEnumInvalid  Reason = "enum-invalid"
)

// Diagnostic is one log entry for a rejected or truncated field.
type Diagnostic struct {
	Field     string `json:"field"`
	Reason    Reason `json:"reason"`
	Truncated bool   `json:"truncated,omitempty"`
}

// Log collects the diagnostics of one translation call. A rejection or a
// truncation never fails the record; the log exists so the calling pipeline
// can observe what was dropped or shortened.
type Log struct {
	ID      string       `json:"id"`
	Entries []Diagnostic `json:"entries,omitempty"`
}

// NewLog returns an empty log with a fresh translation ID.
func NewLog() *Log {
	return &Log{ID: uuid.NewString()}
}

// Reject records that field was dropped for the given reason.
func (l *Log) Reject(field string, reason Reason) {
	if l == nil {
		return
	}
	l.Entries = append(l.Entries, Diagnostic{Field: field, Reason: reason})
}

// Truncate records that field was kept but shortened.
func (l *Log) Truncate(field string) {
	if l == nil {
		return
	}
	l.Entries = append(l.Entries, Diagnostic{
		Field: field, Reason: ReasonTooLong, Truncated: true,
	})
}
