/*
Package txn buffers the entity mutations requested by a running script and
flushes them to the backing store.

A Transaction is owned by one session. Incremental operations (AddTo, SetIn,
RemoveFrom) are merged against the freshest known version of the entity and
rewritten to Put before they are queued, so Commit only ever sends Put and
Remove to the store.

Commit walks the queue in insertion order and stops at the first failure.
Items applied before the failure stay applied.
*/
package txn
