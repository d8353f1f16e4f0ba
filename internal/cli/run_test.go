package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/scriptbridge/pkg/domain"
	"github.com/aretw0/scriptbridge/pkg/workplace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newProject lays out a config, seed, ontology and two handlers under a temp dir.
func newProject(t *testing.T, backend string) string {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	write("scriptbridge.yaml", `backend: `+backend+`
sqlite:
  path: `+filepath.Join(dir, "sb.db")+`
scripts_location: []
modules_dir: ""
handlers_dir: `+filepath.Join(dir, "handlers")+`
ontology_file: `+filepath.Join(dir, "ontology.yaml")+`
seed_file: `+filepath.Join(dir, "seed.json")+`
sys_ticket: sys
log_level: error
`)
	write("seed.json", `[{"@": "d:one", "rdf:type": [{"type": "Uri", "data": "v-s:Letter"}]}]`)
	write("ontology.yaml", "classes:\n  v-s:Letter: [v-s:Document]\n")
	write("handlers/stamp.lua", `-- depends: check
-- trigger: v-s:Document
local doc = get_individual(ticket, document)
doc["v-s:stamped"] = { { type = "Boolean", data = true } }
put_individual(ticket, doc)
`)
	write("handlers/check.lua", `assert(get_individual(ticket, "d:one") ~= nil)
`)
	return dir
}

func TestExecute_JSON(t *testing.T) {
	dir := newProject(t, "sqlite")
	var out bytes.Buffer

	err := Execute(context.Background(), RunOptions{
		Options:    Options{Dir: dir},
		DocumentID: "d:one",
		UserID:     "u:ann",
		JSON:       true,
	}, &out)
	require.NoError(t, err)

	var res workplace.Result
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, domain.Ok, res.Status)
	assert.Equal(t, []string{"check", "stamp"}, res.Executed)
	assert.Equal(t, 1, res.Queued)
}

func TestExecute_MissingDocument(t *testing.T) {
	dir := newProject(t, "memory")
	var out bytes.Buffer

	err := Execute(context.Background(), RunOptions{
		Options:    Options{Dir: dir},
		DocumentID: "d:missing",
	}, &out)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, out.String(), "status:   404 NotFound")
}

func TestPrintOrder(t *testing.T) {
	dir := newProject(t, "memory")
	var out bytes.Buffer

	require.NoError(t, PrintOrder(context.Background(), Options{Dir: dir}, &out))
	assert.Equal(t, "check\nstamp\n", out.String())
}

func TestSetup_BadConfig(t *testing.T) {
	_, err := Setup(context.Background(), Options{ConfigFile: filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}
