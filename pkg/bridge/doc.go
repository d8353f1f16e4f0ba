/*
Package bridge exposes the fixed set of host functions to Lua scripts.

Functions are installed as globals on a *lua.LState and act on the session
currently bound with Bind. Arguments follow the platform convention of
passing the ticket first:

	local doc = get_individual(ticket, document)
	doc["v-s:title"] = { { type = "String", data = "Hello" } }
	put_individual(ticket, doc)

Mutations return an integer result code. Reads raise a Lua error only when a
fetched payload cannot be used; a missing entity reads as nil.
*/
package bridge
