package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/aretw0/scriptbridge/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by the adapters.
const DefaultPrefix = "scriptbridge:"

// Store implements ports.EntityStore and ports.Searcher using Redis.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for stored entities.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Client returns the underlying client.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) key(id string) string {
	return s.prefix + "indv:" + id
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

func (s *Store) opKey() string {
	return s.prefix + "op_id"
}

// Get returns the serialized entity.
func (s *Store) Get(ctx context.Context, id string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: get from redis: %v", domain.ErrTransport, err)
	}
	return val, nil
}

// Update applies a Put or Remove and records the id in the index.
func (s *Store) Update(ctx context.Context, req domain.UpdateRequest) (domain.UpdateResult, error) {
	if req.Entity == nil || req.Entity.ID() == "" {
		return domain.UpdateResult{Status: domain.InvalidIdentifier}, nil
	}
	id := req.Entity.ID()

	pipe := s.client.TxPipeline()
	switch req.Op {
	case domain.OpPut:
		data, err := json.Marshal(req.Entity)
		if err != nil {
			return domain.UpdateResult{Status: domain.UnprocessableEntity}, nil
		}

		pipe.Set(ctx, s.key(id), data, s.ttl)

		// Score = Now + TTL. If TTL = 0, Score = +Inf (approx).
		score := float64(time.Now().Add(s.ttl).Unix())
		if s.ttl == 0 {
			score = 4102444800 // 2100-01-01
		}
		pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: id})
	case domain.OpRemove:
		pipe.Del(ctx, s.key(id))
		pipe.ZRem(ctx, s.indexKey(), id)
	default:
		return domain.UpdateResult{Status: domain.BadRequest}, nil
	}
	opID := pipe.Incr(ctx, s.opKey())

	if _, err := pipe.Exec(ctx); err != nil {
		return domain.UpdateResult{}, fmt.Errorf("%w: update redis: %v", domain.ErrTransport, err)
	}
	return domain.UpdateResult{Status: domain.Ok, OpID: opID.Val()}, nil
}

// List returns the indexed ids, dropping the ones whose TTL has passed.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", strconv.FormatFloat(now, 'f', -1, 64)).Err()
	if err != nil {
		return nil, fmt.Errorf("%w: prune index: %v", domain.ErrTransport, err)
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: list index: %v", domain.ErrTransport, err)
	}
	sort.Strings(ids)
	return ids, nil
}

// Query loads every indexed entity and matches it against the query.
func (s *Store) Query(ctx context.Context, req domain.SearchRequest) (domain.SearchResult, error) {
	start := time.Now()
	q, err := domain.ParseQuery(req.Query)
	if err != nil {
		return domain.SearchResult{ResultCode: domain.CodeOf(err)}, nil
	}

	ids, err := s.List(ctx)
	if err != nil {
		return domain.SearchResult{}, err
	}
	if len(ids) == 0 {
		return req.Page(nil), nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return domain.SearchResult{}, fmt.Errorf("%w: mget: %v", domain.ErrTransport, err)
	}

	var matched []string
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		e, err := domain.Parse([]byte(raw))
		if err != nil {
			continue
		}
		if q.Match(e) {
			matched = append(matched, ids[i])
		}
	}

	res := req.Page(matched)
	res.TotalTime = time.Since(start).Milliseconds()
	return res, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
