/*
Package session implements the per-invocation state a script runs against.

A Session owns one Transaction and one Variables store. Both are wrapped in a
Guard so every host function call holds the resource exclusively for its whole
duration and releases it on every exit path.

The Manager creates sessions and serializes work keyed by document id with
reference-counted lock entries that are dropped once nobody holds them.
*/
package session
