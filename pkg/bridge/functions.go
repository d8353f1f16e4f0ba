package bridge

import (
	"errors"
	"strings"

	"github.com/aretw0/scriptbridge/pkg/domain"
	"github.com/aretw0/scriptbridge/pkg/ports"
	"github.com/aretw0/scriptbridge/pkg/session"
	"github.com/aretw0/scriptbridge/pkg/txn"
	lua "github.com/yuin/gopher-lua"
)

// resolve looks an id up in the bound transaction, then in the backing store.
// A nil entity with a nil error means the id is unknown or removed.
func (b *Bridge) resolve(L *lua.LState, s *session.Session, id string) (*domain.Entity, error) {
	var (
		e        *domain.Entity
		buffered bool
	)
	s.Tx.Do(func(tx *txn.Transaction) {
		e, buffered = tx.Get(id)
	})
	if buffered {
		return e, nil
	}

	e, err := ports.Fetch(contextOf(L), b.store, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return e, err
}

// get_individual(ticket, id)
func (b *Bridge) getIndividual(L *lua.LState) int {
	s := b.Session()
	id, ok := L.Get(2).(lua.LString)
	if s == nil || !ok || id == "" {
		return 0
	}

	if session.IsBound(string(id)) {
		var (
			e     *domain.Entity
			found bool
		)
		s.Vars.Do(func(v *session.Variables) {
			e, found = v.Entity(string(id))
		})
		if !found {
			return 0
		}
		L.Push(entityToLua(L, e))
		return 1
	}

	e, err := b.resolve(L, s, string(id))
	if err != nil {
		b.logger.Error("get_individual failed", "id", id, "err", err)
		L.RaiseError("get_individual %s: %s", id, err)
		return 0
	}
	if e == nil {
		return 0
	}
	L.Push(entityToLua(L, e))
	return 1
}

// get_individuals(ticket, ids)
func (b *Bridge) getIndividuals(L *lua.LState) int {
	s := b.Session()
	tbl, ok := L.Get(2).(*lua.LTable)
	if s == nil || !ok {
		return 0
	}

	out := L.NewTable()
	for i := 1; i <= tbl.Len(); i++ {
		id, ok := tbl.RawGetInt(i).(lua.LString)
		if !ok || id == "" {
			out.Append(b.null)
			continue
		}
		e, err := b.resolve(L, s, string(id))
		if err != nil {
			b.logger.Error("get_individuals failed", "id", id, "err", err)
			L.RaiseError("get_individuals %s: %s", id, err)
			return 0
		}
		if e == nil {
			out.Append(b.null)
			continue
		}
		out.Append(entityToLua(L, e))
	}
	L.Push(out)
	return 1
}

// get_rights(ticket, id, user_id?)
func (b *Bridge) getRights(L *lua.LState) int {
	id, ok := L.Get(2).(lua.LString)
	if !ok || id == "" {
		return 0
	}

	user, _ := optString(L, 3)
	if user == "" {
		if global, ok := L.GetGlobal(GlobalUserURI).(lua.LString); ok {
			user = string(global)
		}
	}
	if user == "" {
		if s := b.Session(); s != nil {
			s.Vars.Do(func(v *session.Variables) {
				user, _ = v.Attr(session.KeyUser)
			})
		}
	}

	var rights domain.Access
	if b.authz != nil {
		b.authz.Do(func(a ports.Authorizer) {
			var err error
			rights, err = a.Authorize(contextOf(L), string(id), user, domain.FullAccess, false)
			if err != nil {
				b.logger.Warn("authorization failed, assuming no rights", "id", id, "user", user, "err", err)
				rights = 0
			}
		})
	}

	L.Push(entityToLua(L, domain.PermissionStatement(rights)))
	return 1
}

// update returns the host function for put/add_to/set_in/remove_from(ticket, entity).
func (b *Bridge) update(op domain.Op) lua.LGFunction {
	return func(L *lua.LState) int {
		s := b.Session()
		if s == nil {
			b.logger.Error("no active session", "op", op)
			return 0
		}
		ticket, ok := optString(L, 1)
		if !ok {
			b.logger.Error("expected a ticket string", "op", op, "got", L.Get(1).Type().String())
			return 0
		}

		tbl, ok := L.Get(2).(*lua.LTable)
		if !ok {
			b.logger.Error("expected an entity table", "op", op, "got", L.Get(2).Type().String())
			return 0
		}
		e, err := entityFromLua(tbl)
		if err != nil {
			b.logger.Error("malformed entity", "op", op, "err", err)
			return 0
		}
		if e.ID() == "" {
			b.logger.Error("entity has no id", "op", op)
			return 0
		}

		return b.enqueue(L, s, op, e, ticket)
	}
}

// remove_individual(ticket, id)
func (b *Bridge) removeIndividual(L *lua.LState) int {
	s := b.Session()
	if s == nil {
		b.logger.Error("no active session", "op", domain.OpRemove)
		return 0
	}
	ticket, ok := optString(L, 1)
	if !ok {
		b.logger.Error("expected a ticket string", "op", domain.OpRemove, "got", L.Get(1).Type().String())
		return 0
	}

	id, ok := L.Get(2).(lua.LString)
	if !ok {
		b.logger.Error("expected an id string", "op", domain.OpRemove, "got", L.Get(2).Type().String())
		return 0
	}
	if id == "" {
		b.logger.Error("invalid argument: empty id", "op", domain.OpRemove)
		return 0
	}
	return b.enqueue(L, s, domain.OpRemove, domain.NewEntity(string(id)), ticket)
}

func (b *Bridge) enqueue(L *lua.LState, s *session.Session, op domain.Op, e *domain.Entity, ticket string) int {
	var status domain.ResultCode
	s.Tx.Do(func(tx *txn.Transaction) {
		status = tx.Add(contextOf(L), op, e, ticket)
	})
	if status != domain.Ok {
		b.logger.Debug("mutation rejected", "op", op, "id", e.ID(), "status", status)
	}
	L.Push(lua.LNumber(status))
	return 1
}

// query(ticket, query, sort?, databases?, top?, limit?, from?)
func (b *Bridge) query(L *lua.LState) int {
	q, ok := L.Get(2).(lua.LString)
	if !ok {
		b.logger.Error("query: missing query string")
		return 0
	}
	if b.search == nil {
		b.logger.Error("query: no search service configured")
		return 0
	}

	ticket, ok := optString(L, 1)
	if !ok {
		b.logger.Error("query: expected a ticket string", "got", L.Get(1).Type().String())
		return 0
	}
	if ticket == "" {
		if s := b.Session(); s != nil {
			s.Tx.Do(func(tx *txn.Transaction) {
				ticket = tx.SysTicket
			})
		}
	}

	req := domain.NewSearchRequest(ticket, string(q))
	if sort, ok := L.Get(3).(lua.LString); ok {
		req.Sort = string(sort)
		if dbs, ok := L.Get(4).(lua.LString); ok {
			req.Databases = string(dbs)
			if top, ok := intArg(L.Get(5)); ok {
				req.Top = top
				if limit, ok := intArg(L.Get(6)); ok {
					req.Limit = limit
					if from, ok := intArg(L.Get(7)); ok {
						req.From = from
					}
				}
			}
		}
	}

	var (
		res domain.SearchResult
		err error
	)
	b.search.Do(func(s ports.Searcher) {
		res, err = s.Query(contextOf(L), req)
	})
	if err != nil {
		b.logger.Error("query failed", "query", req.Query, "err", err)
		res = domain.SearchResult{ResultCode: domain.CodeOf(err)}
	}
	L.Push(searchResultToLua(L, res))
	return 1
}

// get_env_str_var(name)
func (b *Bridge) getEnvStrVar(L *lua.LState) int {
	s := b.Session()
	name, ok := L.Get(1).(lua.LString)
	if s == nil || !ok {
		return 0
	}

	var (
		val   string
		found bool
	)
	s.Vars.Do(func(v *session.Variables) {
		val, found = v.Attr(string(name))
	})
	if !found {
		return 0
	}
	L.Push(lua.LString(val))
	return 1
}

// get_env_num_var(name) is reserved; numeric attributes do not exist.
func (b *Bridge) getEnvNumVar(L *lua.LState) int {
	return 0
}

// print(...)
func (b *Bridge) print(L *lua.LState) int {
	parts := make([]string, 0, L.GetTop())
	for i := 1; i <= L.GetTop(); i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	b.logger.Info(strings.Join(parts, " "), "source", "script")
	return 0
}

// log_trace(msg)
func (b *Bridge) logTrace(L *lua.LState) int {
	b.logger.Info(L.ToStringMeta(L.Get(1)).String(), "source", "script", "trace", true)
	return 0
}
