package txn

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aretw0/scriptbridge/internal/logging"
	"github.com/aretw0/scriptbridge/pkg/domain"
	"github.com/aretw0/scriptbridge/pkg/observability"
	"github.com/aretw0/scriptbridge/pkg/ports"
)

// Item is one queued mutation.
type Item struct {
	// URI is the entity id; empty for removals.
	URI    string
	Op     domain.Op
	Entity *domain.Entity
	Ticket string
	Status domain.ResultCode
}

// ID returns the id of the carried entity.
func (it Item) ID() string {
	if it.Entity == nil {
		return ""
	}
	return it.Entity.ID()
}

// Transaction buffers the mutations of one session.
// It is not safe for concurrent use; callers serialize access.
type Transaction struct {
	SysTicket string
	ID        int64
	EventID   string
	Source    string

	index map[string]int
	queue []*Item

	prior   ports.EntityStore
	logger  *slog.Logger
	metrics *observability.Metrics
}

// Option configures a Transaction.
type Option func(*Transaction)

// WithSysTicket sets the ticket used when a caller supplies none.
func WithSysTicket(ticket string) Option {
	return func(t *Transaction) {
		t.SysTicket = ticket
	}
}

// WithEventID sets the event forwarded with every update.
func WithEventID(eventID string) Option {
	return func(t *Transaction) {
		t.EventID = eventID
	}
}

// WithSource sets the source forwarded with every update.
func WithSource(src string) Option {
	return func(t *Transaction) {
		t.Source = src
	}
}

// WithID sets the transaction number.
func WithID(id int64) Option {
	return func(t *Transaction) {
		t.ID = id
	}
}

// WithLogger configures a logger for merge and commit diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transaction) {
		t.logger = logger
	}
}

// WithMetrics records item and commit outcomes.
func WithMetrics(m *observability.Metrics) Option {
	return func(t *Transaction) {
		t.metrics = m
	}
}

// New creates an empty transaction. prior is read to resolve the state that
// incremental operations are merged against.
func New(prior ports.EntityStore, opts ...Option) *Transaction {
	t := &Transaction{
		index:  make(map[string]int),
		prior:  prior,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Add requests one mutation and returns its resolved status.
// Only Ok items are queued. Failures resolving the prior state of an
// incremental op are reported as status codes, never as errors.
func (t *Transaction) Add(ctx context.Context, op domain.Op, e *domain.Entity, ticket string) domain.ResultCode {
	if ticket == "" {
		ticket = t.SysTicket
	}
	status := t.add(ctx, op, e, ticket)
	t.metrics.TransactionItem(op.String(), int(status))
	return status
}

func (t *Transaction) add(ctx context.Context, op domain.Op, e *domain.Entity, ticket string) domain.ResultCode {
	if e == nil {
		return domain.InvalidArgument
	}

	switch op {
	case domain.OpRemove:
		t.push(&Item{Op: op, Entity: domain.NewEntity(e.ID()), Ticket: ticket, Status: domain.Ok})
		return domain.Ok

	case domain.OpPut:
		t.push(&Item{URI: e.ID(), Op: op, Entity: e.Clone(), Ticket: ticket, Status: domain.Ok})
		return domain.Ok

	case domain.OpAddTo, domain.OpSetIn, domain.OpRemoveFrom:
		merge := merges[op]

		if buffered := t.buffered(e.ID()); buffered != nil {
			t.logger.Debug("merge into buffered entity", "op", op, "id", e.ID())
			merge(buffered.Entity, e)
			return domain.Ok
		}

		prior, err := ports.Fetch(ctx, t.prior, e.ID())
		if err != nil {
			status := domain.CodeOf(err)
			if !errors.Is(err, domain.ErrNotFound) {
				t.logger.Error("failed to resolve prior state", "op", op, "id", e.ID(), "err", err)
			}
			return status
		}
		t.logger.Debug("merge into stored entity", "op", op, "id", e.ID())
		merge(prior, e)
		t.push(&Item{URI: e.ID(), Op: domain.OpPut, Entity: prior, Ticket: ticket, Status: domain.Ok})
		return domain.Ok

	default:
		t.logger.Error("unsupported op", "op", op, "id", e.ID())
		return domain.InvalidArgument
	}
}

// push appends an item and points the index at its uri. Removals carry
// an empty uri, so they never shadow a buffered put of the same id.
func (t *Transaction) push(it *Item) {
	t.index[it.URI] = len(t.queue)
	t.queue = append(t.queue, it)
}

func (t *Transaction) buffered(id string) *Item {
	if id == "" {
		return nil
	}
	pos, ok := t.index[id]
	if !ok {
		return nil
	}
	return t.queue[pos]
}

// Get returns a copy of the most recently queued version of an entity.
// ok reports whether a put or incremental op for the id is buffered.
func (t *Transaction) Get(id string) (e *domain.Entity, ok bool) {
	it := t.buffered(id)
	if it == nil {
		return nil, false
	}
	return it.Entity.Clone(), true
}

// Items returns a snapshot of the queue in insertion order.
func (t *Transaction) Items() []Item {
	out := make([]Item, len(t.queue))
	for i, it := range t.queue {
		out[i] = *it
		out[i].Entity = it.Entity.Clone()
	}
	return out
}

// Len returns the number of physical queue entries.
func (t *Transaction) Len() int { return len(t.queue) }
