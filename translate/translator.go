package translate

import "github.com/OpenDaL/ingestion-and-transformation/record"

// Translator derives one canonical field from a structured record.
//
// Implementations are pure over their inputs and safe for concurrent use:
// all mutable state lives in the arguments. The out record carries the
// canonical fields already produced this call, for translators that declare
// a dependency; it must be treated as read-only. The bool return is false
// when no acceptable value was found, which is a normal outcome.
type Translator interface {
	Field() string
	Translate(rec record.Structured, out record.Canonical, hints Hints, log *record.Log) (any, bool)
}
