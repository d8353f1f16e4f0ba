package sqlite

// SQL statements for the entity tables.
const (
	createIndividuals = `CREATE TABLE IF NOT EXISTS individuals (
		id   TEXT PRIMARY KEY,
		body BLOB NOT NULL
	)`
	createTriples = `CREATE TABLE IF NOT EXISTS triples (
		id        TEXT NOT NULL,
		predicate TEXT NOT NULL,
		value     TEXT NOT NULL
	)`
	createOps = `CREATE TABLE IF NOT EXISTS ops (
		op_id      INTEGER PRIMARY KEY AUTOINCREMENT,
		id         TEXT NOT NULL,
		op         INTEGER NOT NULL,
		event_id   TEXT NOT NULL,
		source     TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`

	idxTriplesID        = `CREATE INDEX IF NOT EXISTS idx_triples_id ON triples(id)`
	idxTriplesPredValue = `CREATE INDEX IF NOT EXISTS idx_triples_pred_value ON triples(predicate, value)`
)

var schema = []string{
	createIndividuals,
	createTriples,
	createOps,
	idxTriplesID,
	idxTriplesPredValue,
}
