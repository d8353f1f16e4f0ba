package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/scriptbridge/internal/config"
	"github.com/aretw0/scriptbridge/internal/logging"
	"github.com/aretw0/scriptbridge/pkg/adapters/memory"
	"github.com/aretw0/scriptbridge/pkg/adapters/redis"
	"github.com/aretw0/scriptbridge/pkg/adapters/sqlite"
	"github.com/aretw0/scriptbridge/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedJSON = `[
  {"@": "d:one", "rdf:type": [{"type": "Uri", "data": "v-s:Letter"}]},
  {"@": "d:two", "rdf:type": [{"type": "Uri", "data": "v-s:Note"}]}
]`

func writeSeed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(seedJSON), 0o644))
	return path
}

func loadDefaults(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(config.New(), t.TempDir(), "")
	require.NoError(t, err)
	return cfg
}

func TestNewHost_Backends(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	tests := []struct {
		name    string
		setup   func(cfg *config.Config)
		wantTyp any
	}{
		{"memory", func(cfg *config.Config) {}, &memory.Store{}},
		{"sqlite", func(cfg *config.Config) {
			cfg.Backend = config.BackendSQLite
			cfg.SQLite.Path = filepath.Join(t.TempDir(), "sb.db")
		}, &sqlite.Store{}},
		{"redis", func(cfg *config.Config) {
			cfg.Backend = config.BackendRedis
			cfg.Redis.Addr = mr.Addr()
		}, &redis.Store{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadDefaults(t)
			cfg.SeedFile = writeSeed(t)
			tt.setup(cfg)

			host, err := NewHost(ctx, cfg, logging.NewNop(), prometheus.NewRegistry())
			require.NoError(t, err)
			defer host.Close()

			assert.IsType(t, tt.wantTyp, host.Store())
			e, err := ports.Fetch(ctx, host.Store(), "d:two")
			require.NoError(t, err)
			assert.Equal(t, []string{"v-s:Note"}, e.Types())
		})
	}
}

func TestNewHost_BadFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{`), 0o644))

	for _, set := range []func(*config.Config){
		func(c *config.Config) { c.ACLFile = broken },
		func(c *config.Config) { c.OntologyFile = broken },
		func(c *config.Config) { c.SeedFile = broken },
	} {
		cfg := loadDefaults(t)
		set(cfg)
		_, err := NewHost(ctx, cfg, logging.NewNop(), nil)
		assert.Error(t, err)
	}
}
