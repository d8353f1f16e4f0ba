package bridge

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/scriptbridge/pkg/domain"
	"github.com/mitchellh/mapstructure"
	lua "github.com/yuin/gopher-lua"
)

// idKey is the table field holding the entity id.
const idKey = "@"

// entityToLua renders e as { ["@"] = id, [predicate] = { {type=, data=, lang=}, ... } }.
func entityToLua(L *lua.LState, e *domain.Entity) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString(idKey, lua.LString(e.ID()))
	for _, p := range e.Predicates() {
		vals := L.NewTable()
		for _, v := range e.Values(p) {
			vals.Append(valueToLua(L, v))
		}
		tbl.RawSetString(p, vals)
	}
	return tbl
}

func valueToLua(L *lua.LState, v domain.Value) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("type", lua.LString(v.Type))
	tbl.RawSetString("data", goToLua(v.Data))
	if v.Lang != "" {
		tbl.RawSetString("lang", lua.LString(v.Lang))
	}
	return tbl
}

func goToLua(v any) lua.LValue {
	switch d := v.(type) {
	case string:
		return lua.LString(d)
	case int64:
		return lua.LNumber(d)
	case float64:
		return lua.LNumber(d)
	case bool:
		return lua.LBool(d)
	case nil:
		return lua.LNil
	default:
		return lua.LString(fmt.Sprint(d))
	}
}

// entityFromLua decodes a script table into an entity.
// Each predicate holds a list of value tables, or a single value table.
func entityFromLua(tbl *lua.LTable) (*domain.Entity, error) {
	raw, ok := luaToGo(tbl).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: entity must be a table with string keys", domain.ErrInvalidArgument)
	}

	id, _ := raw[idKey].(string)
	e := domain.NewEntity(id)

	preds := make([]string, 0, len(raw))
	for k := range raw {
		if k != idKey {
			preds = append(preds, k)
		}
	}
	sort.Strings(preds)

	for _, p := range preds {
		items, err := valueList(raw[p])
		if err != nil {
			return nil, fmt.Errorf("predicate %q: %w", p, err)
		}
		vals := make([]domain.Value, 0, len(items))
		for _, item := range items {
			v, err := decodeValue(item)
			if err != nil {
				return nil, fmt.Errorf("predicate %q: %w", p, err)
			}
			vals = append(vals, v)
		}
		e.Add(p, vals...)
	}
	return e, nil
}

func valueList(v any) ([]any, error) {
	switch d := v.(type) {
	case []any:
		return d, nil
	case map[string]any:
		if len(d) == 0 {
			return nil, nil
		}
		if _, single := d["type"]; single {
			return []any{d}, nil
		}
	}
	return nil, fmt.Errorf("%w: expected a list of values", domain.ErrInvalidArgument)
}

func decodeValue(item any) (domain.Value, error) {
	var v domain.Value
	if err := mapstructure.Decode(item, &v); err != nil {
		return v, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	return v.Normalize()
}

// luaToGo converts a Lua value to plain Go data. Tables whose keys are all
// numbers become slices ordered by key; other tables become maps keyed by
// their string keys.
func luaToGo(v lua.LValue) any {
	switch d := v.(type) {
	case lua.LString:
		return string(d)
	case lua.LNumber:
		return float64(d)
	case lua.LBool:
		return bool(d)
	case *lua.LTable:
		return tableToGo(d)
	default:
		return nil
	}
}

func tableToGo(tbl *lua.LTable) any {
	type indexed struct {
		n int
		v any
	}
	var (
		list    []indexed
		out     = map[string]any{}
		numeric = true
	)
	tbl.ForEach(func(k, v lua.LValue) {
		switch key := k.(type) {
		case lua.LNumber:
			list = append(list, indexed{int(key), luaToGo(v)})
		case lua.LString:
			numeric = false
			out[string(key)] = luaToGo(v)
		}
	})
	if numeric && len(list) > 0 {
		sort.Slice(list, func(i, j int) bool { return list[i].n < list[j].n })
		vals := make([]any, len(list))
		for i, item := range list {
			vals[i] = item.v
		}
		return vals
	}
	return out
}

// optString reads an optional string argument. Absent and nil yield ""
// with ok true; any other non-string yields ok false.
func optString(L *lua.LState, n int) (string, bool) {
	switch v := L.Get(n).(type) {
	case lua.LString:
		return string(v), true
	case *lua.LNilType:
		return "", true
	}
	return "", false
}

// intArg reads a number, or a string holding a base-10 integer.
func intArg(v lua.LValue) (int, bool) {
	switch n := v.(type) {
	case lua.LNumber:
		return int(n), true
	case lua.LString:
		i, err := strconv.Atoi(strings.TrimSpace(string(n)))
		return i, err == nil
	}
	return 0, false
}

func searchResultToLua(L *lua.LState, res domain.SearchResult) *lua.LTable {
	tbl := L.NewTable()
	ids := L.NewTable()
	for _, id := range res.Result {
		ids.Append(lua.LString(id))
	}
	tbl.RawSetString("result", ids)
	tbl.RawSetString("count", lua.LNumber(res.Count))
	tbl.RawSetString("estimated", lua.LNumber(res.Estimated))
	tbl.RawSetString("processed", lua.LNumber(res.Processed))
	tbl.RawSetString("cursor", lua.LNumber(res.Cursor))
	tbl.RawSetString("total_time", lua.LNumber(res.TotalTime))
	tbl.RawSetString("result_code", lua.LNumber(res.ResultCode))
	return tbl
}
