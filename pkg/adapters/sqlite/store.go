// Package sqlite implements the entity store on an embedded SQLite database.
//
// Entities are kept as their JSON body next to a triples table
// (id, predicate, value text) that narrows searches before the full query
// is matched in memory.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/scriptbridge/pkg/domain"
	_ "modernc.org/sqlite"
)

// Store implements ports.EntityStore and ports.Searcher using SQLite.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// PutRaw stores a body without validation or indexing.
func (s *Store) PutRaw(ctx context.Context, id string, raw []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO individuals (id, body) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET body = excluded.body`, id, raw)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	return nil
}

// Get returns the serialized entity.
func (s *Store) Get(ctx context.Context, id string) ([]byte, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM individuals WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	return body, nil
}

// Update applies a Put or Remove in one database transaction.
func (s *Store) Update(ctx context.Context, req domain.UpdateRequest) (domain.UpdateResult, error) {
	if req.Entity == nil || req.Entity.ID() == "" {
		return domain.UpdateResult{Status: domain.InvalidIdentifier}, nil
	}
	if req.Op != domain.OpPut && req.Op != domain.OpRemove {
		return domain.UpdateResult{Status: domain.BadRequest}, nil
	}

	var body []byte
	if req.Op == domain.OpPut {
		var err error
		if body, err = json.Marshal(req.Entity); err != nil {
			return domain.UpdateResult{Status: domain.UnprocessableEntity}, nil
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.UpdateResult{}, fmt.Errorf("%w: begin: %v", domain.ErrTransport, err)
	}
	defer tx.Rollback()

	opID, err := s.apply(ctx, tx, req, body)
	if err != nil {
		return domain.UpdateResult{}, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	if err := tx.Commit(); err != nil {
		return domain.UpdateResult{}, fmt.Errorf("%w: commit: %v", domain.ErrTransport, err)
	}
	return domain.UpdateResult{Status: domain.Ok, OpID: opID}, nil
}

func (s *Store) apply(ctx context.Context, tx *sql.Tx, req domain.UpdateRequest, body []byte) (int64, error) {
	id := req.Entity.ID()

	if _, err := tx.ExecContext(ctx, `DELETE FROM triples WHERE id = ?`, id); err != nil {
		return 0, err
	}

	if req.Op == domain.OpRemove {
		if _, err := tx.ExecContext(ctx, `DELETE FROM individuals WHERE id = ?`, id); err != nil {
			return 0, err
		}
	} else {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO individuals (id, body) VALUES (?, ?)
			 ON CONFLICT(id) DO UPDATE SET body = excluded.body`, id, body)
		if err != nil {
			return 0, err
		}
		for _, p := range req.Entity.Predicates() {
			for _, v := range req.Entity.Values(p) {
				_, err := tx.ExecContext(ctx,
					`INSERT INTO triples (id, predicate, value) VALUES (?, ?, ?)`, id, p, v.Text())
				if err != nil {
					return 0, err
				}
			}
		}
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO ops (id, op, event_id, source, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, int(req.Op), req.EventID, req.Source, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Query narrows candidates with the first positive clause, then matches the full query.
func (s *Store) Query(ctx context.Context, req domain.SearchRequest) (domain.SearchResult, error) {
	start := time.Now()
	q, err := domain.ParseQuery(req.Query)
	if err != nil {
		return domain.SearchResult{ResultCode: domain.CodeOf(err)}, nil
	}

	stmt, args := candidates(q)
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return domain.SearchResult{}, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	defer rows.Close()

	var matched []string
	for rows.Next() {
		var (
			id   string
			body []byte
		)
		if err := rows.Scan(&id, &body); err != nil {
			return domain.SearchResult{}, fmt.Errorf("%w: %v", domain.ErrTransport, err)
		}
		e, err := domain.Parse(body)
		if err != nil {
			continue
		}
		if q.Match(e) {
			matched = append(matched, id)
		}
	}
	if err := rows.Err(); err != nil {
		return domain.SearchResult{}, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}

	res := req.Page(matched)
	res.TotalTime = time.Since(start).Milliseconds()
	return res, nil
}

func candidates(q domain.Query) (string, []any) {
	const all = `SELECT id, body FROM individuals ORDER BY id`
	for _, c := range q {
		if c.Negate {
			continue
		}

		op, arg := "= ?", any(c.Value)
		if prefix, ok := strings.CutSuffix(c.Value, "*"); ok {
			op, arg = `LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%"
		}
		valueCond, valueArg := "t.value "+op, arg

		switch c.Predicate {
		case "@":
			return `SELECT id, body FROM individuals WHERE id ` + op + ` ORDER BY id`, []any{arg}
		case "*":
			return `SELECT i.id, i.body FROM individuals i WHERE i.id IN (
				SELECT t.id FROM triples t WHERE ` + valueCond + `) ORDER BY i.id`, []any{valueArg}
		default:
			return `SELECT i.id, i.body FROM individuals i WHERE i.id IN (
				SELECT t.id FROM triples t WHERE t.predicate = ? AND ` + valueCond + `) ORDER BY i.id`,
				[]any{c.Predicate, valueArg}
		}
	}
	return all, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
