package scriptbridge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/scriptbridge/internal/logging"
	"github.com/aretw0/scriptbridge/pkg/adapters/memory"
	"github.com/aretw0/scriptbridge/pkg/bridge"
	"github.com/aretw0/scriptbridge/pkg/loader"
	"github.com/aretw0/scriptbridge/pkg/observability"
	"github.com/aretw0/scriptbridge/pkg/ports"
	"github.com/aretw0/scriptbridge/pkg/session"
	"github.com/aretw0/scriptbridge/pkg/workplace"
)

// Host is the high-level entry point for the library.
type Host struct {
	store      ports.EntityStore
	authorizer ports.Authorizer
	searcher   ports.Searcher
	ontology   ports.Ontology
	locker     ports.Locker
	lockTTL    time.Duration
	sysTicket  string
	source     string
	metrics    *observability.Metrics
	logger     *slog.Logger
	closers    []func() error

	sessions  *session.Manager
	bridge    *bridge.Bridge
	workplace *workplace.Workplace
}

// Option defines a functional option for configuring the Host.
type Option func(*Host)

// WithStore sets the backing entity store. Default: an empty in-memory store.
func WithStore(store ports.EntityStore) Option {
	return func(h *Host) {
		h.store = store
	}
}

// WithAuthorizer sets the service answering get_rights.
func WithAuthorizer(a ports.Authorizer) Option {
	return func(h *Host) {
		h.authorizer = a
	}
}

// WithSearcher sets the service answering query.
func WithSearcher(s ports.Searcher) Option {
	return func(h *Host) {
		h.searcher = s
	}
}

// WithOntology sets the class hierarchy for super classes and handler triggers.
func WithOntology(o ports.Ontology) Option {
	return func(h *Host) {
		h.ontology = o
	}
}

// WithLocker serializes events on the same document across processes.
func WithLocker(l ports.Locker, ttl time.Duration) Option {
	return func(h *Host) {
		h.locker = l
		h.lockTTL = ttl
	}
}

// WithSysTicket sets the ticket used when a script passes none.
func WithSysTicket(ticket string) Option {
	return func(h *Host) {
		h.sysTicket = ticket
	}
}

// WithSource sets the source tag sent with every update.
func WithSource(src string) Option {
	return func(h *Host) {
		h.source = src
	}
}

// WithMetrics records bridge and commit metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(h *Host) {
		h.metrics = m
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) {
		h.logger = logger
	}
}

// WithCloser registers a cleanup run by Close, in reverse order.
func WithCloser(fn func() error) Option {
	return func(h *Host) {
		h.closers = append(h.closers, fn)
	}
}

// New initializes a Host.
func New(opts ...Option) (*Host, error) {
	h := &Host{source: "scriptbridge"}
	for _, opt := range opts {
		opt(h)
	}
	if h.store == nil {
		h.store = memory.NewStore()
	}
	if h.logger == nil {
		h.logger = logging.NewNop()
	}

	sessOpts := []session.Option{
		session.WithSysTicket(h.sysTicket),
		session.WithSource(h.source),
		session.WithLogger(h.logger),
		session.WithMetrics(h.metrics),
	}
	if h.locker != nil {
		sessOpts = append(sessOpts, session.WithLocker(h.locker, h.lockTTL))
	}
	h.sessions = session.NewManager(h.store, sessOpts...)

	bridgeOpts := []bridge.Option{
		bridge.WithLogger(h.logger),
		bridge.WithMetrics(h.metrics),
	}
	if h.authorizer != nil {
		bridgeOpts = append(bridgeOpts, bridge.WithAuthorizer(h.authorizer))
	}
	if h.searcher != nil {
		bridgeOpts = append(bridgeOpts, bridge.WithSearcher(h.searcher))
	}
	h.bridge = bridge.New(h.store, bridgeOpts...)

	wpOpts := []workplace.Option{workplace.WithLogger(h.logger)}
	if h.ontology != nil {
		wpOpts = append(wpOpts, workplace.WithOntology(h.ontology))
	}
	h.workplace = workplace.New(h.bridge, h.sessions, wpOpts...)

	return h, nil
}

// Scripts locates the scripts to load.
type Scripts struct {
	// Locations are library script directories, each optionally holding a .seq manifest.
	Locations []string
	// ModulesDir holds module directories injected at the $modules manifest line.
	ModulesDir string
	// HandlersDir holds the event handler scripts.
	HandlersDir string
}

// LoadScripts runs the library scripts, then compiles and orders the handlers.
func (h *Host) LoadScripts(ctx context.Context, src Scripts) error {
	if len(src.Locations) > 0 || src.ModulesDir != "" {
		n, err := h.workplace.LoadExtScripts(ctx, src.Locations, src.ModulesDir)
		if err != nil {
			return fmt.Errorf("load library scripts: %w", err)
		}
		h.logger.Info("library scripts loaded", "count", n)
	}

	if src.HandlersDir == "" {
		return nil
	}
	scripts, err := loader.LoadDir(src.HandlersDir)
	if err != nil {
		return fmt.Errorf("load handlers: %w", err)
	}
	if err := h.workplace.AddScripts(scripts...); err != nil {
		return fmt.Errorf("order handlers: %w", err)
	}
	h.logger.Info("handlers loaded", "order", h.workplace.Order())
	return nil
}

// Run processes one document event.
func (h *Host) Run(ctx context.Context, ev workplace.Event) (workplace.Result, error) {
	return h.workplace.Run(ctx, ev)
}

// Order returns the handler ids in execution order.
func (h *Host) Order() []string {
	return h.workplace.Order()
}

// Store returns the backing entity store.
func (h *Host) Store() ports.EntityStore {
	return h.store
}

// Workplace returns the execution context.
func (h *Host) Workplace() *workplace.Workplace {
	return h.workplace
}

// Close releases the Lua state and runs registered closers.
func (h *Host) Close() error {
	h.workplace.Close()
	var first error
	for i := len(h.closers) - 1; i >= 0; i-- {
		if err := h.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}
