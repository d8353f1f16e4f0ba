/*
Package workplace hosts the shared Lua execution context.

A Workplace loads library scripts once, keeps an ordered list of compiled
handler scripts, and runs them for document events. Each event gets a fresh
session; its transaction is committed after every applicable handler ran.

A Workplace owns a single *lua.LState and runs one event at a time.
*/
package workplace
