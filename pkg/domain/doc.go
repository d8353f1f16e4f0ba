/*
Package domain contains the core data model shared by the transaction engine,
the host function bridge and the storage adapters.

It is kept free of I/O: adapters and the bridge depend on it, never the other way around.

# Key Entities

  - Entity: an identified record of predicate to typed values, the unit of read and write.
  - Op: the closed set of mutation kinds (Put, Remove, AddTo, SetIn, RemoveFrom).
  - ResultCode: the integer status surfaced to scripts and returned by the store.
  - Access: the rights bit set answered by the authorizer.
  - SearchRequest / SearchResult: the full-text query contract.
*/
package domain
