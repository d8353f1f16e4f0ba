package txn

import (
	"context"
	"time"

	"github.com/aretw0/scriptbridge/pkg/domain"
	"github.com/aretw0/scriptbridge/pkg/ports"
)

// Commit flushes the queue to store in insertion order and returns Ok, or
// the status of the first item or update that failed. Updates applied
// before a failure are not rolled back.
func (t *Transaction) Commit(ctx context.Context, store ports.EntityStore) domain.ResultCode {
	start := time.Now()
	status := t.commit(ctx, store)
	t.metrics.Commit(int(status), time.Since(start))
	return status
}

func (t *Transaction) commit(ctx context.Context, store ports.EntityStore) domain.ResultCode {
	for _, it := range t.queue {
		id := it.ID()
		if it.Op == domain.OpRemove && id == "" {
			continue
		}

		if it.Status != domain.Ok {
			return it.Status
		}

		if len(id) < 2 {
			t.logger.Warn("skip entity with invalid id", "id", id, "op", it.Op)
			continue
		}

		t.logger.Debug("commit", "id", id, "op", it.Op)
		res, err := store.Update(ctx, domain.UpdateRequest{
			Entity:     it.Entity,
			Ticket:     it.Ticket,
			Op:         it.Op,
			EventID:    t.EventID,
			Source:     t.Source,
			Subsystems: domain.AllSubsystems,
		})
		if err != nil {
			t.logger.Error("commit failed", "id", id, "err", err)
			return domain.CodeOf(err)
		}
		if res.Status != domain.Ok {
			t.logger.Error("commit rejected", "id", id, "op_id", res.OpID, "status", res.Status)
			return res.Status
		}
	}
	return domain.Ok
}
