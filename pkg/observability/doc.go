/*
Package observability provides the Prometheus collectors for the script host.

Every method on Metrics is safe to call on a nil receiver, so components can
take an optional *Metrics without guarding each call site.
*/
package observability
