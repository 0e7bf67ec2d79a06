package translate

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/OpenDaL/ingestion-and-transformation/config"
	"github.com/OpenDaL/ingestion-and-transformation/record"
)

// Engine runs the full translation pipeline: preparsers first, then every
// field translator in dependency order. One engine is built per process
// and is safe for concurrent use.
type Engine struct {
	cfg         *config.Config
	rules       *rules
	preparsers  []Preparser
	translators []Translator
	logger      *slog.Logger
	metrics     *Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Without it the engine logs through
// slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics attaches engine metrics.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New builds an engine from validated configuration. Construction fails on
// configuration the translators cannot work with, including circular
// translator dependencies.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	r := newRules(cfg.General)

	e := &Engine{cfg: cfg, rules: r, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}

	datePreparser, err := newDatePreparser(cfg.Preparsers.Dates, r)
	if err != nil {
		return nil, fmt.Errorf("date preparser: %w", err)
	}
	e.preparsers = []Preparser{datePreparser}

	translators, err := buildTranslators(cfg, r)
	if err != nil {
		return nil, err
	}
	for field := range translators {
		if !record.IsCanonicalField(field) {
			return nil, fmt.Errorf("translator built for unknown field %s", field)
		}
	}
	e.translators, err = orderTranslators(translators, cfg.Translators.Dependencies())
	if err != nil {
		return nil, err
	}
	return e, nil
}

func buildTranslators(cfg *config.Config, r *rules) (map[string]Translator, error) {
	t := cfg.Translators
	out := map[string]Translator{
		record.FieldTitle:            newTextTranslator(record.FieldTitle, t.Title, r),
		record.FieldDescription:      newTextTranslator(record.FieldDescription, t.Description, r),
		record.FieldVersion:          newVersionTranslator(t.Version, r),
		record.FieldCreator:          newCreatorTranslator(t.Creator, r),
		record.FieldPublisher:        newPublisherTranslator(t.Publisher, r),
		record.FieldContact:          newContactTranslator(t.Contact, r),
		record.FieldLicense:          newLicenseTranslator(t.License, r),
		record.FieldMaintenance:      newMaintenanceTranslator(t.Maintenance, r),
		record.FieldIdentifier:       newIdentifierTranslator(t.Identifier, r),
		record.FieldType:             newTypeTranslator(t.Type, r),
		record.FieldSubject:          newSubjectTranslator(t.Subject, NewTaxonomy(cfg.Subjects), r),
		record.FieldLocation:         newLocationTranslator(t.Location, r),
		record.FieldFormat:           newFormatTranslator(t.Format, cfg.Tables, r),
		record.FieldLanguage:         newLanguageTranslator(t.Language, cfg.Tables, r),
		record.FieldCoordinateSystem: newCoordSysTranslator(t.CoordinateSystem, cfg.Tables, r),
	}
	for field, spec := range map[string]config.DateSpec{
		record.FieldIssued:   t.Issued,
		record.FieldModified: t.Modified,
		record.FieldCreated:  t.Created,
	} {
		translator, err := newDateTranslator(field, spec, r)
		if err != nil {
			return nil, fmt.Errorf("%s translator: %w", field, err)
		}
		out[field] = translator
	}
	otherDates, err := newOtherDatesTranslator(t.OtherDates, r)
	if err != nil {
		return nil, fmt.Errorf("otherDates translator: %w", err)
	}
	out[record.FieldOtherDates] = otherDates
	timePeriod, err := newTimePeriodTranslator(t.TimePeriod, r)
	if err != nil {
		return nil, fmt.Errorf("timePeriod translator: %w", err)
	}
	out[record.FieldTimePeriod] = timePeriod
	return out, nil
}

// orderTranslators sorts the translators so every declared dependency runs
// before its dependent, keeping the canonical field order otherwise.
func orderTranslators(translators map[string]Translator, deps map[string][]string) ([]Translator, error) {
	for field, required := range deps {
		if _, known := translators[field]; !known {
			return nil, fmt.Errorf("dependency declared for unknown translator %s", field)
		}
		for _, dep := range required {
			if _, known := translators[dep]; !known {
				return nil, fmt.Errorf("translator %s depends on unknown translator %s", field, dep)
			}
		}
	}

	ordered := make([]Translator, 0, len(translators))
	state := make(map[string]int, len(translators)) // 0 new, 1 visiting, 2 done
	var visit func(field string) error
	visit = func(field string) error {
		switch state[field] {
		case 2:
			return nil
		case 1:
			return fmt.Errorf("circular translator dependency through %s", field)
		}
		state[field] = 1
		for _, dep := range deps[field] {
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[field] = 2
		ordered = append(ordered, translators[field])
		return nil
	}
	for _, field := range record.Fields {
		if _, known := translators[field]; !known {
			continue
		}
		if err := visit(field); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}

// Translate converts one structured record into its canonical form. The
// input is never mutated. The returned log lists every rejected or
// truncated field; a failing translator loses its own field only.
func (e *Engine) Translate(rec record.Structured) (record.Canonical, *record.Log) {
	start := time.Now()
	log := record.NewLog()
	work := rec.Copy()

	hints := make(Hints)
	for _, preparser := range e.preparsers {
		preparser.Preparse(work, hints)
	}

	out := make(record.Canonical)
	for _, translator := range e.translators {
		value, ok := e.runTranslator(translator, work, out, hints, log)
		if ok {
			out[translator.Field()] = value
		}
	}

	e.metrics.observeRecord(time.Since(start).Seconds(), out, log)
	e.logger.Debug("record translated",
		"id", log.ID,
		"fields", len(out),
		"diagnostics", len(log.Entries),
	)
	return out, log
}

// TranslateRecord converts one structured record, discarding the
// diagnostics. Callers that report on rejections use Translate.
func (e *Engine) TranslateRecord(rec record.Structured) record.Canonical {
	out, _ := e.Translate(rec)
	return out
}

func (e *Engine) runTranslator(t Translator, work record.Structured, out record.Canonical, hints Hints, log *record.Log) (value any, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.metrics.observePanic(t.Field())
			e.logger.Error("translator panic",
				"field", t.Field(),
				"id", log.ID,
				"panic", r,
			)
			value, ok = nil, false
		}
	}()
	return t.Translate(work, out, hints, log)
}
