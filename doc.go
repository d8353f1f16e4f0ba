/*
Package scriptbridge is the host-side runtime that lets Lua scripts read and mutate a shared entity store
without touching storage, authorization or search directly.

Scripts call a fixed set of host functions (get_individual, put_individual, query, ...). Reads see the
session's uncommitted writes first; writes are buffered in a per-session transaction and flushed to the
backing store when the event finishes, stopping at the first failing item.

# Concept

The Host wires the pieces together: a backing EntityStore (memory, redis or sqlite), an optional
Authorizer, Searcher and Ontology, a session Manager that serializes events per document, and a
Workplace holding the shared Lua state with library and handler scripts loaded in dependency order.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/scriptbridge"
		"github.com/aretw0/scriptbridge/pkg/workplace"
	)

	func main() {
		host, err := scriptbridge.New(scriptbridge.WithSysTicket("sys"))
		if err != nil {
			log.Fatal(err)
		}
		defer host.Close()

		ctx := context.Background()
		if err := host.LoadScripts(ctx, scriptbridge.Scripts{HandlersDir: "./handlers"}); err != nil {
			log.Fatal(err)
		}

		res, err := host.Run(ctx, workplace.Event{DocumentID: "d:contract1", UserID: "u:alice"})
		if err != nil {
			log.Fatal(err)
		}
		log.Println("status:", res.Status)
	}
*/
package scriptbridge
