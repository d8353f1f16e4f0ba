/*
Package ports defines the driven ports (interfaces) of the scripted-mutation runtime.

These interfaces decouple the transaction engine and the host function bridge
from the concrete storage, authorization and search services.

# Key Interfaces

  - EntityStore: fetch raw entities by id and apply updates.
  - Authorizer: answer rights masks for (resource, subject) pairs.
  - Searcher: run full-text queries.
  - Ontology: resolve ancestor classes.
  - Locker: serialize work on a key across processes.
*/
package ports
