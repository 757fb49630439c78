// Package lifecycle drives the one-time setup of the mirrored models: the
// synthesis pass over the source registry, opening an engine per
// datasource, and the orderly shutdown that closes them.
package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"orm-mirror/internal/backend"
	"orm-mirror/internal/common"
	"orm-mirror/internal/config"
	"orm-mirror/internal/diagnostic"
	"orm-mirror/internal/metrics"
	"orm-mirror/internal/query"
	"orm-mirror/internal/schema"
	"orm-mirror/internal/synth"
)

var (
	ErrAlreadySetup = errors.New("setup already ran")
	ErrNotSetup     = errors.New("setup has not run")
	ErrNotReady     = errors.New("engines are not open")
)

// Controller owns the synthesized registry and the open engines. It
// replaces process-wide state: everything that needs a model or an
// engine asks the controller.
type Controller struct {
	settings *config.Settings
	source   *schema.Registry
	opener   backend.Opener
	log      zerolog.Logger
	metrics  *metrics.Metrics
	exit     func(code int)
	timeout  time.Duration

	mu      sync.RWMutex
	state   State
	reg     *synth.Registry
	diags   diagnostic.Diagnostics
	engines map[string]backend.Engine

	closeOnce sync.Once
	closeErr  error
}

type Option func(*Controller)

// WithOpener replaces backend.Open.
func WithOpener(o backend.Opener) Option {
	return func(c *Controller) { c.opener = o }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithMetrics sets the metrics sink shared with synthesis and queries.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithShutdownTimeout bounds the close run by the signal handler.
func WithShutdownTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

// WithExit replaces os.Exit in the signal handler.
func WithExit(exit func(code int)) Option {
	return func(c *Controller) { c.exit = exit }
}

// New creates a controller for the source models and settings.
func New(settings *config.Settings, source *schema.Registry, opts ...Option) *Controller {
	c := &Controller{
		settings: settings,
		source:   source,
		opener:   backend.Open,
		log:      zerolog.Nop(),
		metrics:  metrics.Discard(),
		exit:     exitProcess,
		timeout:  10 * time.Second,
	}

	for _, o := range opts {
		o(c)
	}

	return c
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.state
}

// Setup runs the synthesis pass. It may run once; a failed pass leaves
// the controller uninitialized.
func (c *Controller) Setup() (*synth.Registry, error) {
	c.mu.Lock()
	if c.state != Uninitialized {
		c.mu.Unlock()
		return nil, ErrAlreadySetup
	}

	c.state = Synthesizing
	c.mu.Unlock()

	s := synth.New(
		synth.WithStrict(c.settings.Strict),
		synth.WithLogger(c.log),
		synth.WithMetrics(c.metrics),
	)

	reg, diags, err := s.Run(c.source)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.diags = diags

	if err != nil {
		c.state = Uninitialized
		return nil, err
	}

	c.reg = reg
	c.log.Info().Int("models", reg.Len()).Int("warnings", len(diags.Warnings)).Msg("synthesis complete")

	return reg, nil
}

// Init opens an engine for every datasource and enters Ready. When any
// engine fails to open, the ones already open are closed and the state
// is unchanged.
func (c *Controller) Init(ctx context.Context) error {
	c.mu.RLock()
	state, reg := c.state, c.reg
	c.mu.RUnlock()

	switch {
	case state == Ready:
		return ErrAlreadySetup
	case state != Synthesizing || reg == nil:
		return ErrNotSetup
	}

	cfgs, err := c.settings.Backends()
	if err != nil {
		return err
	}

	var (
		mu      sync.Mutex
		engines = make(map[string]backend.Engine, len(cfgs))
	)

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)

	for _, cfg := range cfgs {
		g.Go(func() error {
			e, err := c.opener(gctx, cfg)
			if err != nil {
				return errors.Wrapf(err, "open %s", cfg.Alias)
			}

			mu.Lock()
			engines[cfg.Alias] = e
			mu.Unlock()

			c.log.Debug().Str("alias", cfg.Alias).Stringer("datasource", cfg).Msg("engine open")

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		closeAll(context.WithoutCancel(ctx), engines)
		return err
	}

	c.metrics.OpenDuration.Observe(time.Since(start).Seconds())

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Synthesizing {
		closeAll(context.WithoutCancel(ctx), engines)
		return errors.Newf("lifecycle: state changed to %s during init", c.state)
	}

	c.engines = engines
	c.state = Ready
	c.metrics.EnginesOpen.Set(float64(len(engines)))
	c.log.Info().Int("engines", len(engines)).Msg("ready")

	return nil
}

// Start runs Setup then Init.
func (c *Controller) Start(ctx context.Context) error {
	if _, err := c.Setup(); err != nil {
		return err
	}

	return c.Init(ctx)
}

// Registry returns the synthesized registry, nil before Setup.
func (c *Controller) Registry() *synth.Registry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.reg
}

// Settings returns the settings the controller was created with.
func (c *Controller) Settings() *config.Settings { return c.settings }

// Diagnostics returns what the synthesis pass reported.
func (c *Controller) Diagnostics() diagnostic.Diagnostics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.diags
}

// Engine returns the engine of a datasource alias.
func (c *Controller) Engine(alias string) (backend.Engine, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.state != Ready {
		return nil, errors.Wrapf(ErrNotReady, "state %s", c.state)
	}

	e, ok := c.engines[alias]
	if !ok {
		return nil, diagnostic.Configuration("databases: no datasource %q", alias)
	}

	return e, nil
}

// DB returns a query handle on the datasource alias, or on the default
// datasource when alias is empty.
func (c *Controller) DB(alias string) (*query.DB, error) {
	if alias == "" {
		alias = common.DefaultAlias
	}

	e, err := c.Engine(alias)
	if err != nil {
		return nil, err
	}

	env, err := c.settings.Env(e.Backend())
	if err != nil {
		return nil, err
	}

	env.Warn = func(w diagnostic.Warning) {
		c.metrics.Warnings.WithLabelValues(w.Code).Inc()
		c.log.Warn().Str("code", w.Code).Str("field", w.Field).Msg(w.Message)
	}

	return query.NewDB(c.Registry(), e, env, query.WithLogger(c.log), query.WithMetrics(c.metrics)), nil
}

// Close closes every engine and enters ShuttingDown. Later and concurrent
// calls wait for the first and return its result. ctx bounds the wait for
// each engine.
func (c *Controller) Close(ctx context.Context) error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.state = ShuttingDown
		engines := c.engines
		c.mu.Unlock()

		c.closeErr = closeAll(ctx, engines)
		c.metrics.EnginesOpen.Set(0)
		c.log.Info().Err(c.closeErr).Msg("engines closed")
	})

	return c.closeErr
}

func closeAll(ctx context.Context, engines map[string]backend.Engine) error {
	var g errgroup.Group

	for alias, e := range engines {
		g.Go(func() error {
			return errors.Wrapf(e.Close(ctx), "close %s", alias)
		})
	}

	return g.Wait()
}
