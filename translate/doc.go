// Package translate implements the metadata translation engine: it turns
// one structured source record into one canonical, schema-validated record.
//
// The engine combines shared value resolution, shape disambiguation and
// schema validation with a set of field translators that each own exactly
// one canonical output field. A preparse
// stage splits combined fields (for example one "dates" list mixing
// creation and modification dates) into per-translator hints before the
// translators run.
//
// Translation of a single record is synchronous and purely computational.
// All configuration and reference data is read-only after load, so any
// number of translations may run concurrently against one Engine.
//
// A translator that finds no acceptable value simply omits its field;
// rejections and truncations are reported through the diagnostic log, never
// as errors. An empty canonical record is a valid output.
package translate
