/*
Package loader finds script files on disk and schedules them.

Library scripts are discovered per location. A location holding a ".seq"
manifest is read line by line: each line names a file or directory relative
to the location, and the line "$modules" expands to every module directory
found under the modules root. A location without a manifest is scanned
recursively. Discovery order is the load order.

Handler scripts may declare a header of Lua comments before any code:

	-- depends: audit, notify
	-- trigger: v-s:Document, v-s:Letter

Order schedules handlers so that each runs after every script it depends on,
keeping discovery order between independent scripts.
*/
package loader
