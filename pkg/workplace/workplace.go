package workplace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/aretw0/scriptbridge/internal/logging"
	"github.com/aretw0/scriptbridge/pkg/bridge"
	"github.com/aretw0/scriptbridge/pkg/domain"
	"github.com/aretw0/scriptbridge/pkg/loader"
	"github.com/aretw0/scriptbridge/pkg/ports"
	"github.com/aretw0/scriptbridge/pkg/session"
	"github.com/aretw0/scriptbridge/pkg/txn"
	lua "github.com/yuin/gopher-lua"
)

// Globals set before handlers run.
const (
	GlobalTicket    = "ticket"
	GlobalDocument  = "document"
	GlobalPrevState = "prev_state"
)

// Event is one document change handed to the handler scripts.
type Event struct {
	DocumentID string         `json:"document_id"`
	Document   *domain.Entity `json:"-"`
	PrevState  *domain.Entity `json:"-"`
	UserID     string         `json:"user_id"`
	EventID    string         `json:"event_id"`
}

// Result reports what an event run did.
type Result struct {
	SessionID string            `json:"session_id"`
	Executed  []string          `json:"executed"`
	Queued    int               `json:"queued"`
	Status    domain.ResultCode `json:"status"`
}

type handler struct {
	loader.Script
	fn *lua.LFunction
}

// Workplace is the shared execution context for scripts.
type Workplace struct {
	mu sync.Mutex

	L        *lua.LState
	bridge   *bridge.Bridge
	sessions *session.Manager
	onto     ports.Ontology
	handlers []handler
	logger   *slog.Logger
}

// Option configures the Workplace.
type Option func(*Workplace)

// WithOntology sets the class hierarchy used for super classes and triggers.
func WithOntology(onto ports.Ontology) Option {
	return func(w *Workplace) {
		w.onto = onto
	}
}

// WithLogger configures the Workplace logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workplace) {
		w.logger = logger
	}
}

// New creates a Workplace with the bridge functions installed.
func New(b *bridge.Bridge, sessions *session.Manager, opts ...Option) *Workplace {
	w := &Workplace{
		L:        lua.NewState(),
		bridge:   b,
		sessions: sessions,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	b.Install(w.L)
	return w
}

// Close releases the Lua state.
func (w *Workplace) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.L.Close()
}

// LoadExtScripts discovers library scripts and executes them in discovery
// order inside a bootstrap session seeded with the system ticket.
// A script that fails is logged and skipped. It returns the number of
// scripts that ran.
func (w *Workplace) LoadExtScripts(ctx context.Context, locations []string, modulesDir string) (int, error) {
	files, err := loader.Discover(locations, modulesDir)
	if err != nil {
		return 0, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	restore := w.bridge.Bind(w.sessions.Start(""))
	defer restore()
	w.L.SetContext(ctx)
	defer w.L.RemoveContext()

	loaded := 0
	for _, f := range files {
		if err := w.L.DoFile(f); err != nil {
			w.logger.Error("failed to run script", "path", f, "err", err)
			continue
		}
		w.logger.Info("script loaded", "path", f)
		loaded++
	}
	return loaded, nil
}

// AddScripts compiles handler scripts and merges them into the schedule.
// The previous schedule is kept if compilation or ordering fails.
func (w *Workplace) AddScripts(scripts ...loader.Script) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	compiled := make(map[string]*lua.LFunction, len(w.handlers)+len(scripts))
	all := make([]loader.Script, 0, len(w.handlers)+len(scripts))
	for _, h := range w.handlers {
		compiled[h.ID] = h.fn
		all = append(all, h.Script)
	}
	for _, s := range scripts {
		fn, err := w.L.LoadString(s.Source)
		if err != nil {
			return fmt.Errorf("compile %s: %w", s.ID, err)
		}
		compiled[s.ID] = fn
		all = append(all, s)
	}

	ordered, err := loader.Order(all)
	if err != nil {
		return err
	}

	handlers := make([]handler, len(ordered))
	for i, s := range ordered {
		handlers[i] = handler{Script: s, fn: compiled[s.ID]}
	}
	w.handlers = handlers
	return nil
}

// Order returns the handler ids in execution order.
func (w *Workplace) Order() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	ids := make([]string, len(w.handlers))
	for i, h := range w.handlers {
		ids[i] = h.ID
	}
	return ids
}

// Run executes the handlers for one event and commits the session.
// A handler raising an error aborts the run and its mutations are discarded.
func (w *Workplace) Run(ctx context.Context, ev Event) (Result, error) {
	if ev.DocumentID == "" && ev.Document != nil {
		ev.DocumentID = ev.Document.ID()
	}
	if ev.DocumentID == "" {
		return Result{}, fmt.Errorf("%w: event without document", domain.ErrInvalidArgument)
	}

	var res Result
	err := w.sessions.WithLock(ctx, ev.DocumentID, func(ctx context.Context) error {
		w.mu.Lock()
		defer w.mu.Unlock()

		var err error
		res, err = w.run(ctx, ev)
		return err
	})
	return res, err
}

func (w *Workplace) run(ctx context.Context, ev Event) (Result, error) {
	doc := ev.Document
	if doc == nil {
		var err error
		doc, err = ports.Fetch(ctx, w.sessions.Store(), ev.DocumentID)
		if err != nil {
			return Result{Status: domain.CodeOf(err)}, fmt.Errorf("load document %s: %w", ev.DocumentID, err)
		}
	}

	s := w.sessions.Start(ev.EventID)
	res := Result{SessionID: s.ID}
	logger := w.logger.With("session_id", s.ID, "document", doc.ID())

	var supers string
	s.Vars.Do(func(v *session.Variables) {
		v.SetEntity(session.KeyDocument, doc)
		if ev.PrevState != nil {
			v.SetEntity(session.KeyPrevState, ev.PrevState)
		}
		v.SetAttr(session.KeyUser, ev.UserID)
		if w.onto != nil {
			v.BindSuperClasses(doc.Types(), w.onto)
			supers, _ = v.Attr(session.KeySuperClasses)
		}
	})
	classes := append(doc.Types(), session.ParseList(supers)...)

	restore := w.bridge.Bind(s)
	defer restore()
	w.L.SetContext(ctx)
	defer w.L.RemoveContext()

	w.L.SetGlobal(GlobalTicket, lua.LString(w.sessions.SysTicket()))
	w.L.SetGlobal(GlobalDocument, lua.LString(session.KeyDocument))
	w.L.SetGlobal(bridge.GlobalUserURI, lua.LString(ev.UserID))
	if ev.PrevState != nil {
		w.L.SetGlobal(GlobalPrevState, lua.LString(session.KeyPrevState))
	} else {
		w.L.SetGlobal(GlobalPrevState, lua.LNil)
	}

	for _, h := range w.handlers {
		if !triggered(h.Triggers, classes) {
			continue
		}
		logger.Debug("run handler", "script", h.ID)
		err := w.L.CallByParam(lua.P{Fn: h.fn, NRet: 0, Protect: true})
		if err != nil {
			var apiErr *lua.ApiError
			if errors.As(err, &apiErr) && ctx.Err() != nil {
				err = ctx.Err()
			}
			logger.Error("handler failed", "script", h.ID, "err", err)
			res.Status = domain.InternalServerError
			return res, fmt.Errorf("handler %s: %w", h.ID, err)
		}
		res.Executed = append(res.Executed, h.ID)
	}

	s.Tx.Do(func(tx *txn.Transaction) {
		res.Queued = tx.Len()
	})
	res.Status = w.sessions.Commit(ctx, s)
	logger.Info("event processed", "executed", len(res.Executed), "queued", res.Queued, "status", res.Status)
	return res, nil
}

func triggered(triggers, classes []string) bool {
	if len(triggers) == 0 {
		return true
	}
	for _, t := range triggers {
		if slices.Contains(classes, t) {
			return true
		}
	}
	return false
}
