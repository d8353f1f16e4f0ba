package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/scriptbridge"
	"github.com/aretw0/scriptbridge/internal/config"
	"github.com/aretw0/scriptbridge/pkg/adapters/file"
	"github.com/aretw0/scriptbridge/pkg/adapters/ftclient"
	"github.com/aretw0/scriptbridge/pkg/adapters/memory"
	"github.com/aretw0/scriptbridge/pkg/adapters/redis"
	"github.com/aretw0/scriptbridge/pkg/adapters/sqlite"
	"github.com/aretw0/scriptbridge/pkg/domain"
	"github.com/aretw0/scriptbridge/pkg/observability"
	"github.com/aretw0/scriptbridge/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// NewHost builds a Host from configuration: the backend store, authorizer,
// searcher, ontology and seed entities. Metrics register on reg when non-nil.
func NewHost(ctx context.Context, cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (_ *scriptbridge.Host, err error) {
	var closers []func() error
	defer func() {
		if err != nil {
			for _, c := range closers {
				c()
			}
		}
	}()

	opts := []scriptbridge.Option{
		scriptbridge.WithLogger(logger),
		scriptbridge.WithSysTicket(cfg.SysTicket),
		scriptbridge.WithMetrics(observability.NewMetrics(reg)),
	}

	var (
		store    ports.EntityStore
		authz    ports.Authorizer
		searcher ports.Searcher
	)

	switch cfg.Backend {
	case config.BackendRedis:
		s := redis.New(cfg.Redis.Addr, "", 0, redis.WithPrefix(cfg.Redis.Prefix))
		store, searcher = s, s
		authz = redis.NewAuthorizer(s.Client(), cfg.Redis.Prefix)
		closers = append(closers, s.Close)
		opts = append(opts,
			scriptbridge.WithLocker(redis.NewLocker(s.Client(), cfg.Redis.Prefix), cfg.LockTTL),
			scriptbridge.WithCloser(s.Close),
		)
	case config.BackendSQLite:
		s, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		store, searcher = s, s
		closers = append(closers, s.Close)
		opts = append(opts, scriptbridge.WithCloser(s.Close))
	default:
		s := memory.NewStore()
		store, searcher = s, s
	}

	if cfg.ACLFile != "" {
		a, err := file.LoadACL(cfg.ACLFile)
		if err != nil {
			return nil, err
		}
		authz = a
	}
	if authz != nil {
		opts = append(opts, scriptbridge.WithAuthorizer(authz))
	}

	if cfg.FTQueryURL != "" {
		searcher = ftclient.New(cfg.FTQueryURL, ftclient.WithLogger(logger))
	}
	opts = append(opts, scriptbridge.WithSearcher(searcher))

	if cfg.OntologyFile != "" {
		onto, err := file.LoadOntology(cfg.OntologyFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, scriptbridge.WithOntology(onto))
	}

	if cfg.SeedFile != "" {
		if err := seed(ctx, store, cfg.SeedFile, cfg.SysTicket, logger); err != nil {
			return nil, err
		}
	}

	return scriptbridge.New(append(opts, scriptbridge.WithStore(store))...)
}

func seed(ctx context.Context, store ports.EntityStore, path, ticket string, logger *slog.Logger) error {
	entities, err := file.LoadEntities(path)
	if err != nil {
		return err
	}
	for _, e := range entities {
		res, err := store.Update(ctx, domain.UpdateRequest{
			Entity:     e,
			Ticket:     ticket,
			Op:         domain.OpPut,
			Source:     "seed",
			Subsystems: domain.AllSubsystems,
		})
		if err != nil {
			return fmt.Errorf("seed %s: %w", e.ID(), err)
		}
		if !res.Status.IsOk() {
			return fmt.Errorf("seed %s: %w", e.ID(), res.Status.Err())
		}
	}
	logger.Info("store seeded", "path", path, "count", len(entities))
	return nil
}
