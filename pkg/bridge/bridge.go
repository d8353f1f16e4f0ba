package bridge

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/aretw0/scriptbridge/internal/logging"
	"github.com/aretw0/scriptbridge/pkg/domain"
	"github.com/aretw0/scriptbridge/pkg/observability"
	"github.com/aretw0/scriptbridge/pkg/ports"
	"github.com/aretw0/scriptbridge/pkg/session"
	lua "github.com/yuin/gopher-lua"
)

// Global names installed next to the host functions.
const (
	GlobalNull    = "null"
	GlobalUserURI = "user_uri"
)

// Bridge owns the services scripts reach through host functions.
// The authorizer and searcher are shared by every session and guarded independently.
type Bridge struct {
	store  ports.EntityStore
	authz  *session.Guard[ports.Authorizer]
	search *session.Guard[ports.Searcher]

	sess atomic.Pointer[session.Session]
	null *lua.LUserData

	logger  *slog.Logger
	metrics *observability.Metrics
}

// Option configures the Bridge.
type Option func(*Bridge)

// WithAuthorizer sets the service answering get_rights.
func WithAuthorizer(a ports.Authorizer) Option {
	return func(b *Bridge) {
		b.authz = session.NewGuard(a)
	}
}

// WithSearcher sets the service answering query.
func WithSearcher(s ports.Searcher) Option {
	return func(b *Bridge) {
		b.search = session.NewGuard(s)
	}
}

// WithLogger configures the sink for print, log_trace and diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		b.logger = logger
	}
}

// WithMetrics counts host function calls.
func WithMetrics(m *observability.Metrics) Option {
	return func(b *Bridge) {
		b.metrics = m
	}
}

// New creates a Bridge reading from store.
func New(store ports.EntityStore, opts ...Option) *Bridge {
	b := &Bridge{
		store:  store,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Bind makes s the session acted on by subsequent calls and returns a
// function restoring the previous binding.
func (b *Bridge) Bind(s *session.Session) (restore func()) {
	prev := b.sess.Swap(s)
	return func() { b.sess.Store(prev) }
}

// Session returns the bound session, nil when none is bound.
func (b *Bridge) Session() *session.Session {
	return b.sess.Load()
}

// Install registers the host functions and the null sentinel as globals of L.
func (b *Bridge) Install(L *lua.LState) {
	b.null = L.NewUserData()
	L.SetGlobal(GlobalNull, b.null)

	for _, f := range b.functions() {
		L.SetGlobal(f.name, L.NewFunction(b.counted(f.name, f.fn)))
	}
}

type hostFunction struct {
	name string
	fn   lua.LGFunction
}

func (b *Bridge) functions() []hostFunction {
	return []hostFunction{
		{"get_individual", b.getIndividual},
		{"get_individuals", b.getIndividuals},
		{"get_rights", b.getRights},
		{"put_individual", b.update(domain.OpPut)},
		{"remove_individual", b.removeIndividual},
		{"add_to_individual", b.update(domain.OpAddTo)},
		{"set_in_individual", b.update(domain.OpSetIn)},
		{"remove_from_individual", b.update(domain.OpRemoveFrom)},
		{"query", b.query},
		{"get_env_str_var", b.getEnvStrVar},
		{"get_env_num_var", b.getEnvNumVar},
		{"print", b.print},
		{"log_trace", b.logTrace},
	}
}

func (b *Bridge) counted(name string, fn lua.LGFunction) lua.LGFunction {
	return func(L *lua.LState) int {
		b.metrics.BridgeCall(name)
		return fn(L)
	}
}

func contextOf(L *lua.LState) context.Context {
	if ctx := L.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
