package synth

import (
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	"orm-mirror/internal/diagnostic"
	"orm-mirror/internal/field"
	"orm-mirror/internal/match"
	"orm-mirror/internal/metrics"
	"orm-mirror/internal/model"
	"orm-mirror/internal/schema"
	"orm-mirror/internal/translate"
)

// maxSuggestions bounds the names offered for an unresolved target.
const maxSuggestions = 3

// Synthesizer builds synthesized models from source models.
type Synthesizer struct {
	strict     bool
	translator *translate.Translator
	log        zerolog.Logger
	metrics    *metrics.Metrics
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithStrict makes every untranslatable field fatal.
func WithStrict(strict bool) Option {
	return func(s *Synthesizer) { s.strict = strict }
}

// WithTranslator replaces the default value translator.
func WithTranslator(t *translate.Translator) Option {
	return func(s *Synthesizer) { s.translator = t }
}

// WithLogger sets the logger the pass reports progress and warnings to.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Synthesizer) { s.log = l }
}

// WithMetrics sets where synthesis counters are recorded.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Synthesizer) { s.metrics = m }
}

// New creates a lenient Synthesizer with the default translator.
func New(opts ...Option) *Synthesizer {
	s := &Synthesizer{
		translator: translate.New(),
		log:        zerolog.Nop(),
		metrics:    metrics.Discard(),
	}

	for _, o := range opts {
		o(s)
	}

	return s
}

// Strict reports whether untranslatable fields abort synthesis.
func (s *Synthesizer) Strict() bool { return s.strict }

// Synthesize builds the synthesized model of src. Relation targets are
// names only; Run checks and binds them once every model exists.
func (s *Synthesizer) Synthesize(src *schema.Model, diags *diagnostic.Diagnostics) (*model.Model, error) {
	name := AsyncName(src.Name)
	fields := make([]field.Field, 0, len(src.Columns))

	for i := range src.Columns {
		col := &src.Columns[i]

		if col.Kind.IsReverse() {
			diags.AddInfo(diagnostic.CodeReverseRelSkipped,
				"reverse relation "+col.Kind.String()+" has no column", name, col.Name)

			continue
		}

		if s.skippable(col.Kind) {
			err := diagnostic.NotSupported("field kind", col.Kind.String())
			diags.AddWarning(diagnostic.CodeFieldSkipped, err.Error(), name, col.Name)
			s.metrics.FieldsSkipped.WithLabelValues(col.Kind.String()).Inc()
			s.log.Warn().
				Str("model", src.Ref()).
				Str("field", col.Name).
				Stringer("kind", col.Kind).
				Msg("field skipped: no translation")

			continue
		}

		f, err := s.translator.Translate(src, col)
		if err != nil {
			diags.AddError(diagnostic.CodeInvalidSchema, err.Error(), name, col.Name)
			return nil, err
		}

		s.metrics.FieldsTranslated.WithLabelValues(f.Type()).Inc()
		fields = append(fields, f)
	}

	meta := model.Meta{
		App:      src.App,
		Table:    src.TableName(),
		Schema:   src.Meta.Schema,
		Abstract: src.Meta.Abstract,
		Ordering: src.Meta.Ordering,
	}

	m, err := model.New(name, meta, fields)
	if err != nil {
		diags.AddError(diagnostic.CodeInvalidSchema, err.Error(), name, "")
		return nil, err
	}

	return m, nil
}

// skippable reports whether a field of kind is left out instead of
// failing. Relations are never skipped.
func (s *Synthesizer) skippable(kind schema.Kind) bool {
	return !s.strict && !kind.IsRelation() && !translate.Supported(kind)
}

// Run synthesizes every model of src in registration order, resolves
// relation targets and returns the frozen registry. Diagnostics are
// returned even when err is not nil.
func (s *Synthesizer) Run(src *schema.Registry) (*Registry, diagnostic.Diagnostics, error) {
	var diags diagnostic.Diagnostics

	reg := newRegistry()

	for _, sm := range src.Models() {
		m, err := s.Synthesize(sm, &diags)
		if err != nil {
			return nil, diags, errors.Wrapf(err, "synthesize %s", sm.Ref())
		}

		if err := reg.add(&Pair{Source: sm, Async: m}); err != nil {
			diags.AddError(diagnostic.CodeDuplicateModel, err.Error(), m.Name(), "")
			return nil, diags, err
		}

		s.log.Debug().
			Str("model", sm.Ref()).
			Str("async", m.Name()).
			Int("fields", len(m.Fields())).
			Msg("model synthesized")
	}

	s.resolve(reg, &diags)

	if err := diags.Error(); err != nil {
		return nil, diags, errors.Wrap(err, "resolve relations")
	}

	reg.frozen = true
	s.metrics.ModelsSynthesized.Add(float64(reg.Len()))

	s.log.Info().Int("models", reg.Len()).Msg("synthesis complete")

	return reg, diags, nil
}

// resolve checks that every relation target exists and is concrete, and
// binds foreign keys to the primary key of their target.
func (s *Synthesizer) resolve(reg *Registry, diags *diagnostic.Diagnostics) {
	names := reg.Names()

	for _, p := range reg.order {
		for _, rel := range p.Async.Relations() {
			name := rel.Options().Name

			target, ok := reg.Target(rel.Target())
			if !ok {
				diags.AddError(diagnostic.CodeUnresolvedTarget,
					"relation target "+rel.Target()+" was not synthesized",
					p.Async.Name(), name, match.Suggest(rel.Target(), names, maxSuggestions)...)

				continue
			}

			if target.Meta().Abstract {
				diags.AddError(diagnostic.CodeUnresolvedTarget,
					"relation target "+rel.Target()+" is abstract", p.Async.Name(), name)

				continue
			}

			if fk, isFK := rel.(*field.ForeignKey); isFK {
				fk.Bind(target.PK())
			}
		}
	}
}
